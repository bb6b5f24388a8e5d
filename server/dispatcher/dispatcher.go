// Package dispatcher delivers due reminders. A ticker loop polls the store
// and publishes each due reminder through a Notifier; delivery outcome is
// written back so a reminder is sent at most once.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/napomni/napomni/store"
)

// Notifier publishes one reminder text to wherever the user receives it.
type Notifier interface {
	Publish(ctx context.Context, userID int64, text string) error
}

// ReminderStore is the slice of the store the dispatcher needs.
type ReminderStore interface {
	ListDueReminders(ctx context.Context, now time.Time) ([]*store.Reminder, error)
	MarkReminderSent(ctx context.Context, id int64, sentAt time.Time) error
	MarkReminderError(ctx context.Context, id int64, reason string) error
}

// Dispatcher runs the delivery loop for due reminders.
type Dispatcher struct {
	store    ReminderStore
	notifier Notifier
	interval time.Duration
	loc      *time.Location
	now      func() time.Time

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	logger  *slog.Logger
}

// New creates a dispatcher checking for due reminders every interval.
func New(st ReminderStore, notifier Notifier, interval time.Duration, loc *time.Location) *Dispatcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		store:    st,
		notifier: notifier,
		interval: interval,
		loc:      loc,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		logger:   slog.Default(),
	}
}

// SetLogger sets a custom logger.
func (d *Dispatcher) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// Start begins the dispatch loop.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run(ctx)

	d.logger.Info("reminder dispatcher started", "interval", d.interval)
	return nil
}

// Stop gracefully stops the dispatch loop.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("reminder dispatcher stopped")
}

// IsRunning returns whether the dispatch loop is active.
func (d *Dispatcher) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// run is the main dispatch loop.
func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// Process immediately on start
	if _, err := d.RunOnce(ctx); err != nil {
		d.logger.Error("failed to dispatch due reminders", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher context cancelled")
			return
		case <-d.stopCh:
			return
		case <-ticker.C:
			if _, err := d.RunOnce(ctx); err != nil {
				d.logger.Error("failed to dispatch due reminders", "error", err)
			}
		}
	}
}

// RunOnce dispatches every reminder that is due right now and returns how
// many were delivered. One failed delivery is recorded on its reminder and
// does not abort the cycle.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	now := d.now().In(d.loc)

	due, err := d.store.ListDueReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due reminders: %w", err)
	}

	sent := 0
	for _, reminder := range due {
		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		default:
		}

		text := "⏰ Напоминание: " + reminder.Task
		if err := d.notifier.Publish(ctx, reminder.UserID, text); err != nil {
			d.logger.Warn("failed to deliver reminder",
				"reminder_id", reminder.ID,
				"user_id", reminder.UserID,
				"error", err)
			if err := d.store.MarkReminderError(ctx, reminder.ID, err.Error()); err != nil {
				d.logger.Error("failed to record delivery error", "reminder_id", reminder.ID, "error", err)
			}
			continue
		}

		if err := d.store.MarkReminderSent(ctx, reminder.ID, now); err != nil {
			d.logger.Error("failed to mark reminder sent", "reminder_id", reminder.ID, "error", err)
			continue
		}
		sent++
	}

	if sent > 0 {
		d.logger.Info("dispatched due reminders", "count", sent)
	}
	return sent, nil
}
