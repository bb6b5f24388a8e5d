// Package timeparse converts free-form Russian reminder text into a task
// description and a future civil timestamp. It is a prioritized cascade of
// local recognizers — explicit date+time, clock time, spoken time, relative
// days, day parts — with a remote-model fallback for text that looks
// temporal but matches no local rule. Results are always strictly in the
// future relative to the injected clock.
package timeparse

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/napomni/napomni/plugin/ai"
	"github.com/napomni/napomni/plugin/nl/lexicon"
)

// Layout is the civil timestamp format used across the whole system. The
// timezone is implicit and fixed; no offset is carried.
const Layout = "2006-01-02 15:04:05"

// DefaultTimezone is the single civil timezone the system operates in.
const DefaultTimezone = "Europe/Moscow"

// ParseResult is the outcome of resolving one utterance: a task and a future
// civil timestamp, or an error message. It never carries both.
type ParseResult struct {
	Task     string `json:"task,omitempty"`
	Datetime string `json:"datetime,omitempty"`
	Original string `json:"original,omitempty"`
	Err      string `json:"error,omitempty"`
}

// Options tunes resolver behavior.
type Options struct {
	// MaxTaskWords truncates cleaned task text to the first N words.
	// 0 disables truncation.
	MaxTaskWords int
}

// Resolver resolves utterances against a fixed timezone and user day-part
// settings. It is stateless and safe for concurrent use.
type Resolver struct {
	completer ai.Completer // nil disables the remote fallback
	settings  DayPartSettings
	loc       *time.Location
	now       func() time.Time
	opts      Options
}

// NewResolver creates a resolver. A nil completer disables the remote-model
// fallback: text that needs it resolves to an error instead.
func NewResolver(completer ai.Completer, settings DayPartSettings, loc *time.Location) *Resolver {
	if loc == nil {
		loc, _ = time.LoadLocation(DefaultTimezone)
	}
	return &Resolver{
		completer: completer,
		settings:  settings,
		loc:       loc,
		now:       time.Now,
	}
}

// WithOptions returns a copy of the resolver with the given options.
func (r *Resolver) WithOptions(opts Options) *Resolver {
	cp := *r
	cp.opts = opts
	return &cp
}

// WithSettings returns a copy of the resolver bound to other day-part
// settings, e.g. per user.
func (r *Resolver) WithSettings(settings DayPartSettings) *Resolver {
	cp := *r
	cp.settings = settings
	return &cp
}

// Location returns the fixed civil timezone of the resolver.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve extracts a task and a future civil timestamp from one utterance.
// Failures of any kind — malformed remote responses, missing credentials,
// even panics inside a recognizer — surface as ParseResult.Err; nothing
// escapes this boundary.
func (r *Resolver) Resolve(ctx context.Context, text string) (res ParseResult) {
	defer func() {
		if rec := recover(); rec != nil {
			res = ParseResult{Original: text, Err: fmt.Sprintf("resolver panic: %v", rec)}
		}
	}()

	now := r.now().In(r.loc)

	for _, rule := range []func(string, time.Time) (ParseResult, bool){
		r.tryExplicitDateTime,
		r.tryClockTime,
		r.trySpacedTime,
		r.trySpokenTime,
		r.tryBareRelativeDay,
		r.tryDayPart,
	} {
		if out, ok := rule(text, now); ok {
			return out
		}
	}

	// No temporal signal at all: schedule at the default time.
	if !lexicon.HasTemporalSignal(text) {
		return ParseResult{
			Task:     r.taskOrWhole("", text),
			Datetime: r.defaultFuture(now).Format(Layout),
			Original: text,
		}
	}

	// The text looks temporal but no local rule matched.
	return r.resolveWithModel(ctx, text, now)
}

// ResolveBatch resolves a segmented batch concurrently. Result order mirrors
// input order; one failed item does not abort the others.
func (r *Resolver) ResolveBatch(ctx context.Context, items []string) []ParseResult {
	results := make([]ParseResult, len(items))
	g, ctx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			results[i] = r.Resolve(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// defaultFuture returns today at the user's default time, advanced by one
// day when that instant is not strictly in the future.
func (r *Resolver) defaultFuture(now time.Time) time.Time {
	hh, mm := splitHHMM(r.settings.Default)
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, r.loc)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// atOnDay places a clock time on the given day.
func (r *Resolver) atOnDay(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, r.loc)
}

// futureCorrected advances the instant by whole days until it is strictly
// after now. A single day is the common case; the loop guards degenerate
// inputs.
func futureCorrected(t, now time.Time) time.Time {
	for !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// taskOrWhole cleans the extracted task text, falling back to the cleaned
// whole utterance when extraction left nothing.
func (r *Resolver) taskOrWhole(task, whole string) string {
	if t := cleanTask(task, r.opts.MaxTaskWords); t != "" {
		return t
	}
	return cleanTask(whole, r.opts.MaxTaskWords)
}
