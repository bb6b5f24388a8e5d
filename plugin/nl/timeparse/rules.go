package timeparse

import (
	"strings"
	"time"

	"github.com/napomni/napomni/plugin/nl/lexicon"
)

// tryExplicitDateTime recognizes "D.M[.YY[YY]] [в] H:MM" ("21.12.25 14:48
// купить хлеб"). Two-digit years 00-69 map to the 2000s, 70-99 to the 1900s;
// a missing year means the current one. Only the matched span is removed
// from the task text — words on both sides survive.
func (r *Resolver) tryExplicitDateTime(text string, now time.Time) (ParseResult, bool) {
	m := lexicon.ReDateTime.FindStringSubmatchIndex(text)
	if m == nil {
		return ParseResult{}, false
	}
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return text[m[2*i]:m[2*i+1]]
	}

	day, month := atoi(group(1)), atoi(group(2))
	hour, minute := atoi(group(4)), atoi(group(5))
	if day < 1 || day > 31 || month < 1 || month > 12 || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ParseResult{}, false
	}

	yearGiven := group(3) != ""
	year := now.Year()
	if yearGiven {
		year = atoi(group(3))
		if year < 100 {
			if year <= 69 {
				year += 2000
			} else {
				year += 1900
			}
		}
	}

	dt := time.Date(year, time.Month(month), day, hour, minute, 0, 0, r.loc)
	if !dt.After(now) {
		if !yearGiven {
			dt = dt.AddDate(1, 0, 0)
		}
		if !dt.After(now) {
			// An explicitly past date cannot be repaired; fall back to the
			// default future instant rather than inventing one.
			dt = r.defaultFuture(now)
		}
	}

	task := cutSpan(text, m[0], m[1])
	return ParseResult{
		Task:     r.taskOrWhole(task, text),
		Datetime: dt.Format(Layout),
		Original: text,
	}, true
}

// tryClockTime recognizes a bare clock time ("11:45", "11.45"), guarded so a
// date token like "01.01.26" is never misread as a time. The day comes from
// a relative-day keyword (default today), an evening/night keyword shifts an
// hour below 12 into the PM half, and a past instant advances by one day.
func (r *Resolver) tryClockTime(text string, now time.Time) (ParseResult, bool) {
	dateSpans := lexicon.ReDateToken.FindAllStringIndex(text, -1)

	var match []int
	for _, m := range lexicon.ReClockTime.FindAllStringSubmatchIndex(text, -1) {
		overlaps := false
		for _, d := range dateSpans {
			if spansOverlap(m[0], m[1], d[0], d[1]) {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		hh, mm := atoi(text[m[2]:m[3]]), atoi(text[m[4]:m[5]])
		if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
			continue
		}
		match = m
		break
	}
	if match == nil {
		return ParseResult{}, false
	}

	hh, mm := atoi(text[match[2]:match[3]]), atoi(text[match[4]:match[5]])
	dt := r.placeTime(text, now, hh, mm)

	start := expandPreposition(text, match[0])
	task := cutSpan(text, start, match[1])
	return ParseResult{
		Task:     r.taskOrWhole(task, text),
		Datetime: dt.Format(Layout),
		Original: text,
	}, true
}

// trySpacedTime recognizes a space-separated time after the "в" preposition
// ("в 9 30"), with the same day-offset, PM-shift and future-correction rules
// as tryClockTime.
func (r *Resolver) trySpacedTime(text string, now time.Time) (ParseResult, bool) {
	m := lexicon.ReSpacedTime.FindStringSubmatchIndex(text)
	if m == nil {
		return ParseResult{}, false
	}
	hh, mm := atoi(text[m[4]:m[5]]), atoi(text[m[6]:m[7]])
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return ParseResult{}, false
	}

	dt := r.placeTime(text, now, hh, mm)
	task := cutSpan(text, m[2], m[3])
	return ParseResult{
		Task:     r.taskOrWhole(task, text),
		Datetime: dt.Format(Layout),
		Original: text,
	}, true
}

// trySpokenTime recognizes spelled-out times ("в девять тридцать") from the
// closed hour (1-12) and five-minute-granularity minute vocabularies.
func (r *Resolver) trySpokenTime(text string, now time.Time) (ParseResult, bool) {
	lower := strings.ToLower(text)
	m := lexicon.ReSpokenTime.FindStringSubmatchIndex(lower)
	if m == nil {
		return ParseResult{}, false
	}

	hour, ok := lexicon.SpokenHour(lower[m[4]:m[5]])
	if !ok {
		return ParseResult{}, false
	}
	minute := 0
	if m[6] >= 0 {
		if v, ok := lexicon.SpokenMinute(lower[m[6]:m[7]]); ok {
			minute = v
		}
	}

	dt := r.placeTime(text, now, hour, minute)
	task := cutSpan(text, m[2], m[3])
	return ParseResult{
		Task:     r.taskOrWhole(task, text),
		Datetime: dt.Format(Layout),
		Original: text,
	}, true
}

// tryBareRelativeDay recognizes utterances whose only temporal content is a
// relative-day word ("завтра сдать отчёт"): the user's default time applies
// on that day.
func (r *Resolver) tryBareRelativeDay(text string, now time.Time) (ParseResult, bool) {
	lower := strings.ToLower(text)
	offset, found := lexicon.RelativeDayOffset(lower)
	if !found || lexicon.ReDigit.MatchString(text) || lexicon.HasDayPartWord(lower) {
		return ParseResult{}, false
	}
	// Anything else temporal ("через час", month names) is better served by
	// the remote fallback.
	if r.hasOtherTemporalSignal(lower) {
		return ParseResult{}, false
	}

	hh, mm := splitHHMM(r.settings.Default)
	dt := futureCorrected(r.atOnDay(now.AddDate(0, 0, offset), hh, mm), now)
	return ParseResult{
		Task:     r.taskOrWhole(text, text),
		Datetime: dt.Format(Layout),
		Original: text,
	}, true
}

// tryDayPart recognizes day-part words ("утром", "днём", "вечером"),
// optionally combined with a relative-day word, and maps them to the user's
// configured clock times.
func (r *Resolver) tryDayPart(text string, now time.Time) (ParseResult, bool) {
	lower := strings.ToLower(text)
	if lexicon.ReDigit.MatchString(text) {
		return ParseResult{}, false
	}

	var chosen string
	switch {
	case lexicon.ContainsAny(lower, lexicon.MorningWords):
		chosen = r.settings.Morning
	case lexicon.ContainsAny(lower, lexicon.MiddayWords):
		chosen = r.settings.Day
	case lexicon.ContainsAny(lower, lexicon.EveningWords):
		chosen = r.settings.Evening
	default:
		return ParseResult{}, false
	}

	offset, _ := lexicon.RelativeDayOffset(lower)
	hh, mm := splitHHMM(chosen)
	dt := futureCorrected(r.atOnDay(now.AddDate(0, 0, offset), hh, mm), now)
	return ParseResult{
		Task:     r.taskOrWhole(text, text),
		Datetime: dt.Format(Layout),
		Original: text,
	}, true
}

// placeTime puts a clock time on the day implied by the surrounding text:
// relative-day keyword for the day offset, evening/night keyword for the PM
// shift of hours below 12, one-day advance when the instant is not future.
func (r *Resolver) placeTime(text string, now time.Time, hour, minute int) time.Time {
	lower := strings.ToLower(text)
	offset, _ := lexicon.RelativeDayOffset(lower)
	if hour < 12 && lexicon.IsEveningLike(lower) {
		hour += 12
	}
	dt := r.atOnDay(now.AddDate(0, 0, offset), hour, minute)
	if !dt.After(now) {
		dt = dt.AddDate(0, 0, 1)
	}
	return dt
}

// hasOtherTemporalSignal reports temporal keywords beyond relative-day and
// day-part words, e.g. "через" or month names.
func (r *Resolver) hasOtherTemporalSignal(lower string) bool {
	stripped := lower
	for _, w := range []string{"послезавтра", "завтра", "сегодня"} {
		stripped = strings.ReplaceAll(stripped, w, " ")
	}
	return lexicon.HasTemporalSignal(stripped)
}
