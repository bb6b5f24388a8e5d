// Command napomni runs the conversational reminder service: a Telegram bot
// fed by the Russian time/date extraction pipeline, a delivery dispatcher and
// a small HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/napomni/napomni/internal/profile"
	"github.com/napomni/napomni/plugin/ai"
	"github.com/napomni/napomni/plugin/ai/speech"
	"github.com/napomni/napomni/plugin/nl/segment"
	"github.com/napomni/napomni/plugin/nl/timeparse"
	"github.com/napomni/napomni/plugin/telegram"
	"github.com/napomni/napomni/server/bot"
	"github.com/napomni/napomni/server/dispatcher"
	apiv1 "github.com/napomni/napomni/server/router/api/v1"
	"github.com/napomni/napomni/store"
	"github.com/napomni/napomni/store/db"
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "napomni",
	Short: "Conversational reminder assistant",
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Data:    viper.GetString("data"),
			Driver:  viper.GetString("driver"),
			DSN:     viper.GetString("dsn"),
			Version: version,
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			return fmt.Errorf("invalid profile: %w", err)
		}

		setupLogger(instanceProfile)
		return run(instanceProfile)
	},
}

func init() {
	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8231, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("napomni")
	viper.AutomaticEnv()
}

func setupLogger(p *profile.Profile) {
	level := slog.LevelInfo
	if p.IsDev() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(p *profile.Profile) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	driver, err := db.NewDBDriver(p)
	if err != nil {
		return fmt.Errorf("failed to create db driver: %w", err)
	}
	st := store.New(driver, p)
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// The remote model is optional: without it the local rules still work,
	// only the fallback paths report errors.
	var completer ai.Completer
	var transcriber *speech.Transcriber
	if p.IsAIEnabled() {
		provider, err := ai.NewProvider(&ai.Config{
			BaseURL:     p.AIBaseURL,
			APIKey:      p.AIAPIKey,
			ChatModel:   p.AIChatModel,
			SpeechModel: p.AISpeechModel,
		})
		if err != nil {
			return fmt.Errorf("failed to create model provider: %w", err)
		}
		completer = provider
		transcriber = speech.NewTranscriber(provider.Client(), provider.SpeechModel())
	} else {
		slog.Warn("remote model is not configured, running on local rules only")
	}

	resolver := timeparse.NewResolver(completer, timeparse.DefaultSettings(), loc)
	segmenter := segment.NewSegmenter(completer)

	var botServer *bot.Server
	var disp *dispatcher.Dispatcher
	if p.TelegramToken != "" {
		botServer = bot.NewServer(telegram.NewBot(p.TelegramToken), st, resolver, segmenter, transcriber)
		if err := botServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start telegram bot: %w", err)
		}
		defer botServer.Stop()

		disp = dispatcher.New(st, botServer, p.DispatchInterval, loc)
		if err := disp.Start(ctx); err != nil {
			return fmt.Errorf("failed to start dispatcher: %w", err)
		}
		defer disp.Stop()
	} else {
		slog.Warn("telegram token is not configured, bot and dispatcher are disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	apiv1.NewAPIV1Service(p, resolver, segmenter).Register(e)

	addr := fmt.Sprintf("%s:%d", p.Addr, p.Port)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("api server stopped", "error", err)
			stop()
		}
	}()
	slog.Info("napomni started", "version", version, "addr", addr, "mode", p.Mode)

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down api server", "error", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
