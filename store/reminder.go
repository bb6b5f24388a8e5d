package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// Status is the lifecycle state of a reminder.
type Status string

const (
	// StatusPending means the reminder waits for its scheduled instant.
	StatusPending Status = "pending"
	// StatusSent means the reminder was delivered.
	StatusSent Status = "sent"
	// StatusError means delivery failed; ErrorText carries the reason.
	StatusError Status = "error"
)

// Reminder is the object representing one scheduled reminder.
type Reminder struct {
	ID          int64
	UID         string
	UserID      int64
	Task        string
	Original    string
	ScheduledTs int64
	Status      Status
	ErrorText   *string
	CreatedTs   int64
	SentTs      *int64
}

// ScheduledTime parses the scheduled instant in the given location.
func (r *Reminder) ScheduledTime(loc *time.Location) time.Time {
	return time.Unix(r.ScheduledTs, 0).In(loc)
}

// FindReminder is the find condition for reminders.
type FindReminder struct {
	ID     *int64
	UID    *string
	UserID *int64
	Status *Status

	// ScheduledBefore selects reminders due at or before the instant.
	ScheduledBefore *int64

	Limit *int
}

// UpdateReminder is the update request for a reminder.
type UpdateReminder struct {
	ID        int64
	Status    *Status
	ErrorText *string
	SentTs    *int64
}

// DeleteReminder is the delete request for a reminder.
type DeleteReminder struct {
	ID     int64
	UserID *int64
}

// CreateReminder creates a new reminder. An empty UID is filled in.
func (s *Store) CreateReminder(ctx context.Context, create *Reminder) (*Reminder, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.Status == "" {
		create.Status = StatusPending
	}
	return s.driver.CreateReminder(ctx, create)
}

// ListReminders lists reminders with filter, ordered by scheduled instant.
func (s *Store) ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error) {
	return s.driver.ListReminders(ctx, find)
}

// GetReminder gets a single reminder, or nil when none matches.
func (s *Store) GetReminder(ctx context.Context, find *FindReminder) (*Reminder, error) {
	list, err := s.driver.ListReminders(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListDueReminders lists pending reminders due at or before the instant.
func (s *Store) ListDueReminders(ctx context.Context, now time.Time) ([]*Reminder, error) {
	status := StatusPending
	ts := now.Unix()
	return s.driver.ListReminders(ctx, &FindReminder{
		Status:          &status,
		ScheduledBefore: &ts,
	})
}

// UpdateReminder updates a reminder.
func (s *Store) UpdateReminder(ctx context.Context, update *UpdateReminder) error {
	return s.driver.UpdateReminder(ctx, update)
}

// MarkReminderSent transitions a reminder to the sent state.
func (s *Store) MarkReminderSent(ctx context.Context, id int64, sentAt time.Time) error {
	status := StatusSent
	ts := sentAt.Unix()
	return s.driver.UpdateReminder(ctx, &UpdateReminder{ID: id, Status: &status, SentTs: &ts})
}

// MarkReminderError transitions a reminder to the error state.
func (s *Store) MarkReminderError(ctx context.Context, id int64, reason string) error {
	status := StatusError
	return s.driver.UpdateReminder(ctx, &UpdateReminder{ID: id, Status: &status, ErrorText: &reason})
}

// DeleteReminder deletes a reminder.
func (s *Store) DeleteReminder(ctx context.Context, delete *DeleteReminder) error {
	return s.driver.DeleteReminder(ctx, delete)
}
