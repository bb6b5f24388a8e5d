package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napomni/napomni/store"
)

type fakeStore struct {
	mu        sync.Mutex
	due       []*store.Reminder
	listErr   error
	sentIDs   []int64
	errorIDs  []int64
	errorMsgs []string
}

func (f *fakeStore) ListDueReminders(ctx context.Context, now time.Time) ([]*store.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.due, nil
}

func (f *fakeStore) MarkReminderSent(ctx context.Context, id int64, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentIDs = append(f.sentIDs, id)
	return nil
}

func (f *fakeStore) MarkReminderError(ctx context.Context, id int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errorIDs = append(f.errorIDs, id)
	f.errorMsgs = append(f.errorMsgs, reason)
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	texts     []string
	userIDs   []int64
	failFor   map[int64]error
	published int
}

func (f *fakeNotifier) Publish(ctx context.Context, userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[userID]; ok {
		return err
	}
	f.userIDs = append(f.userIDs, userID)
	f.texts = append(f.texts, text)
	f.published++
	return nil
}

func pendingReminder(id, userID int64, task string) *store.Reminder {
	return &store.Reminder{ID: id, UserID: userID, Task: task, Status: store.StatusPending}
}

func TestRunOnce_DeliversDueReminders(t *testing.T) {
	st := &fakeStore{due: []*store.Reminder{
		pendingReminder(1, 100, "купить хлеб"),
		pendingReminder(2, 200, "позвонить маме"),
	}}
	notifier := &fakeNotifier{}
	d := New(st, notifier, time.Minute, time.UTC)

	sent, err := d.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	assert.Equal(t, []int64{100, 200}, notifier.userIDs)
	assert.Equal(t, "⏰ Напоминание: купить хлеб", notifier.texts[0])
	assert.Equal(t, []int64{1, 2}, st.sentIDs)
	assert.Empty(t, st.errorIDs)
}

func TestRunOnce_NothingDue(t *testing.T) {
	st := &fakeStore{}
	notifier := &fakeNotifier{}
	d := New(st, notifier, time.Minute, time.UTC)

	sent, err := d.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Zero(t, notifier.published)
}

func TestRunOnce_DeliveryFailureDoesNotAbortCycle(t *testing.T) {
	st := &fakeStore{due: []*store.Reminder{
		pendingReminder(1, 100, "первое"),
		pendingReminder(2, 200, "второе"),
		pendingReminder(3, 300, "третье"),
	}}
	notifier := &fakeNotifier{failFor: map[int64]error{200: fmt.Errorf("chat not found")}}
	d := New(st, notifier, time.Minute, time.UTC)

	sent, err := d.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	// The failed one is marked with its reason, the others as sent.
	assert.Equal(t, []int64{1, 3}, st.sentIDs)
	assert.Equal(t, []int64{2}, st.errorIDs)
	assert.Equal(t, []string{"chat not found"}, st.errorMsgs)
}

func TestRunOnce_ListErrorPropagates(t *testing.T) {
	st := &fakeStore{listErr: fmt.Errorf("database is locked")}
	d := New(st, &fakeNotifier{}, time.Minute, time.UTC)

	_, err := d.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestStartStop(t *testing.T) {
	st := &fakeStore{due: []*store.Reminder{pendingReminder(1, 100, "задача")}}
	notifier := &fakeNotifier{}
	d := New(st, notifier, time.Hour, time.UTC)

	require.NoError(t, d.Start(context.Background()))
	assert.True(t, d.IsRunning())

	// The loop runs one pass immediately on start.
	assert.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return notifier.published == 1
	}, time.Second, 10*time.Millisecond)

	d.Stop()
	assert.False(t, d.IsRunning())

	// Stop is idempotent.
	d.Stop()
}

func TestNew_Defaults(t *testing.T) {
	d := New(&fakeStore{}, &fakeNotifier{}, 0, nil)
	assert.Equal(t, 15*time.Second, d.interval)
	assert.Equal(t, time.UTC, d.loc)
}
