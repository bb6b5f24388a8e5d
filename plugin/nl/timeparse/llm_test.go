package timeparse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napomni/napomni/plugin/ai"
)

func TestResolveWithModel_FencedJSON(t *testing.T) {
	fixedNow := moscowTime(t, 2025, time.June, 15, 12, 0)
	completer := ai.NewScriptedCompleter(
		"```json\n{\"task\": \"проверить почту\", \"datetime\": \"2025-06-15 14:00:00\", \"original\": \"через 2 часа проверить почту\"}\n```",
	)
	r := testResolver(t, completer, fixedNow)

	got := r.Resolve(context.Background(), "через 2 часа проверить почту")
	require.Empty(t, got.Err)
	assert.Equal(t, "проверить почту", got.Task)
	assert.Equal(t, "2025-06-15 14:00:00", got.Datetime)
	assert.Equal(t, "через 2 часа проверить почту", got.Original)

	// The prompt carries the current time and the user's day-part values.
	require.Equal(t, 1, completer.Calls())
	assert.Contains(t, completer.Prompts[0], "2025-06-15 12:00:00")
	assert.Contains(t, completer.Prompts[0], DefaultDefault)
}

func TestResolveWithModel_NullDatetimeUsesDefault(t *testing.T) {
	fixedNow := moscowTime(t, 2025, time.June, 15, 12, 0)
	completer := ai.NewScriptedCompleter(
		`{"task": "подумать о вечном", "datetime": null, "original": "подумать о вечном через вечность"}`,
	)
	r := testResolver(t, completer, fixedNow)

	got := r.Resolve(context.Background(), "подумать о вечном через вечность")
	require.Empty(t, got.Err)
	assert.Equal(t, "2025-06-15 20:00:00", got.Datetime)
}

func TestResolveWithModel_PastDayMonthAdvancesOneYear(t *testing.T) {
	fixedNow := moscowTime(t, 2025, time.June, 15, 12, 0)
	completer := ai.NewScriptedCompleter(
		`{"task": "поздравить брата", "datetime": "2025-06-01 09:00:00", "original": "1 июня поздравить брата"}`,
	)
	r := testResolver(t, completer, fixedNow)

	got := r.Resolve(context.Background(), "1 июня поздравить брата")
	require.Empty(t, got.Err)
	assert.Equal(t, "2026-06-01 09:00:00", got.Datetime)
}

func TestResolveWithModel_PastWithoutDayMonthFallsBackToDefault(t *testing.T) {
	fixedNow := moscowTime(t, 2025, time.June, 15, 12, 0)
	completer := ai.NewScriptedCompleter(
		`{"task": "встретить друга", "datetime": "2020-03-01 10:00:00", "original": "в прошлом марте встретить друга"}`,
	)
	r := testResolver(t, completer, fixedNow)

	got := r.Resolve(context.Background(), "через год встретить друга")
	require.Empty(t, got.Err)
	assert.Equal(t, "2025-06-15 20:00:00", got.Datetime)
}

func TestResolveWithModel_MalformedJSON(t *testing.T) {
	fixedNow := moscowTime(t, 2025, time.June, 15, 12, 0)
	completer := ai.NewScriptedCompleter("я не умею в JSON")
	r := testResolver(t, completer, fixedNow)

	got := r.Resolve(context.Background(), "через 2 часа проверить почту")
	assert.Contains(t, got.Err, "malformed model response")
	assert.Empty(t, got.Datetime)
	assert.Equal(t, "через 2 часа проверить почту", got.Original)
}

func TestResolveWithModel_MissingTask(t *testing.T) {
	fixedNow := moscowTime(t, 2025, time.June, 15, 12, 0)
	completer := ai.NewScriptedCompleter(`{"datetime": "2025-06-15 14:00:00"}`)
	r := testResolver(t, completer, fixedNow)

	got := r.Resolve(context.Background(), "через 2 часа проверить почту")
	assert.Contains(t, got.Err, "no task")
}

func TestResolveWithModel_TransportError(t *testing.T) {
	fixedNow := moscowTime(t, 2025, time.June, 15, 12, 0)
	completer := ai.NewScriptedCompleter()
	completer.Err = fmt.Errorf("connection refused")
	r := testResolver(t, completer, fixedNow)

	got := r.Resolve(context.Background(), "через 2 часа проверить почту")
	assert.Contains(t, got.Err, "model request failed")
}

func TestResolveWithModel_NilCompleter(t *testing.T) {
	fixedNow := moscowTime(t, 2025, time.June, 15, 12, 0)
	r := testResolver(t, nil, fixedNow)

	got := r.Resolve(context.Background(), "через 2 часа проверить почту")
	assert.Equal(t, "remote model is not configured", got.Err)
}
