// Package bot is the Telegram front end of the reminder service: it long
// polls for updates, turns text and voice messages into reminder candidates
// through the segmenter and the resolver, and persists them after the user
// confirms.
package bot

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/napomni/napomni/plugin/ai/speech"
	"github.com/napomni/napomni/plugin/nl/segment"
	"github.com/napomni/napomni/plugin/nl/timeparse"
	"github.com/napomni/napomni/plugin/telegram"
	"github.com/napomni/napomni/store"
)

const longPollTimeout = 30 // seconds

// pendingBatch is a parsed set of reminders waiting for the user's inline
// confirmation.
type pendingBatch struct {
	userID    int64
	results   []timeparse.ParseResult
	createdAt time.Time
}

// Server wires the Telegram client to the language pipeline and the store.
type Server struct {
	bot         *telegram.Bot
	store       *store.Store
	resolver    *timeparse.Resolver
	segmenter   *segment.Segmenter
	transcriber *speech.Transcriber // nil when voice input is disabled
	logger      *slog.Logger

	mu      sync.Mutex
	pending map[string]pendingBatch

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewServer creates the bot server. The transcriber may be nil; voice
// messages are then rejected with a hint.
func NewServer(bot *telegram.Bot, st *store.Store, resolver *timeparse.Resolver, segmenter *segment.Segmenter, transcriber *speech.Transcriber) *Server {
	return &Server{
		bot:         bot,
		store:       st,
		resolver:    resolver,
		segmenter:   segmenter,
		transcriber: transcriber,
		logger:      slog.Default(),
		pending:     make(map[string]pendingBatch),
		stopCh:      make(chan struct{}),
	}
}

// SetLogger sets a custom logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Start begins the update loop. It returns once the loop goroutine is
// running; use Stop or cancel the context to shut down.
func (s *Server) Start(ctx context.Context) error {
	me, err := s.bot.GetMe(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("telegram bot started", "username", me.Username)

	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

// Stop gracefully stops the update loop.
func (s *Server) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("telegram bot stopped")
}

// run is the long-poll loop.
func (s *Server) run(ctx context.Context) {
	defer s.wg.Done()

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		updates, err := s.bot.GetUpdates(ctx, offset, longPollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("failed to get updates", "error", err)
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			s.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate dispatches one update. Handler panics are contained so a
// malformed update never kills the loop.
func (s *Server) handleUpdate(ctx context.Context, update telegram.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("update handler panic", "update_id", update.UpdateID, "panic", rec)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		s.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Voice != nil:
		s.handleVoice(ctx, update.Message)
	case update.Message != nil:
		s.handleMessage(ctx, update.Message)
	}
}

// Publish delivers a reminder text to the user's bound channel, or directly
// to the user when no channel is set. It implements dispatcher.Notifier.
func (s *Server) Publish(ctx context.Context, userID int64, text string) error {
	channelID, err := s.store.GetUserSetting(ctx, userID, store.UserSettingChannelID)
	if err != nil {
		return err
	}

	target := any(userID)
	if channelID != "" {
		if id, err := strconv.ParseInt(channelID, 10, 64); err == nil {
			target = id
		} else {
			target = channelID
		}
	}

	_, err = s.bot.SendMessage(ctx, target, text)
	return err
}

// userSettings loads the user's day-part settings, falling back to defaults
// on storage errors so parsing never blocks on the database.
func (s *Server) userSettings(ctx context.Context, userID int64) timeparse.DayPartSettings {
	times, err := s.store.UserTimes(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load user times", "user_id", userID, "error", err)
		return timeparse.DefaultSettings()
	}
	return timeparse.NormalizeSettings(times)
}
