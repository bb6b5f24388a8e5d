// Package profile holds the runtime configuration of the reminder service.
package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the API server
	Addr string
	// Port is the binding port for the API server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where napomni stores its own data
	DSN string
	// Driver is the database driver (sqlite)
	Driver string
	// Version is the current version of server
	Version string
	// Timezone is the single civil timezone reminders are interpreted in
	Timezone string

	// TelegramToken authenticates the bot against the Telegram Bot API
	TelegramToken string // NAPOMNI_TELEGRAM_TOKEN
	// DispatchInterval is how often due reminders are checked
	DispatchInterval time.Duration // NAPOMNI_DISPATCH_INTERVAL

	// Remote model configuration
	AIAPIKey      string // NAPOMNI_AI_API_KEY
	AIBaseURL     string // NAPOMNI_AI_BASE_URL (default: https://api.openai.com/v1)
	AIChatModel   string // NAPOMNI_AI_CHAT_MODEL (default: gpt-4o-mini)
	AISpeechModel string // NAPOMNI_AI_SPEECH_MODEL (default: gpt-4o-mini-transcribe)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if a remote model credential is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from NAPOMNI_* environment variables.
func (p *Profile) FromEnv() {
	p.TelegramToken = os.Getenv("NAPOMNI_TELEGRAM_TOKEN")
	p.Timezone = getEnvOrDefault("NAPOMNI_TIMEZONE", "Europe/Moscow")

	if v := os.Getenv("NAPOMNI_DISPATCH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			p.DispatchInterval = d
		}
	}
	if p.DispatchInterval == 0 {
		p.DispatchInterval = 15 * time.Second
	}

	p.AIAPIKey = os.Getenv("NAPOMNI_AI_API_KEY")
	p.AIBaseURL = getEnvOrDefault("NAPOMNI_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIChatModel = getEnvOrDefault("NAPOMNI_AI_CHAT_MODEL", "gpt-4o-mini")
	p.AISpeechModel = getEnvOrDefault("NAPOMNI_AI_SPEECH_MODEL", "gpt-4o-mini-transcribe")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Timezone == "" {
		p.Timezone = "Europe/Moscow"
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return errors.Wrapf(err, "invalid timezone %q", p.Timezone)
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("napomni_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
