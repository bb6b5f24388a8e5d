// Package lexicon defines the Russian temporal vocabulary shared by the time
// resolver and the segmenter. Both components must recognize, cut and clean
// text against the same anchor definitions, so every pattern lives here and
// nowhere else.
//
// Note on word boundaries: Go's regexp \b is ASCII-only and never fires
// between Cyrillic letters, so patterns guard word starts with an explicit
// non-letter class and callers work with capture-group indices.
package lexicon

import (
	"regexp"
	"strings"
)

const (
	datePart     = `\d{1,2}[./-]\d{1,2}(?:[./-]\d{2,4})?`
	clockPart    = `\d{1,2}[:.]\d{2}`
	dateTimeBody = `(\d{1,2})[./-](\d{1,2})(?:[./-](\d{4}|\d{2}))?\s*(?:в\s+)?(\d{1,2})[:.](\d{2})`
)

var (
	// ReDateTime matches an explicit date followed by a clock time, e.g.
	// "21.12.25 14:48" or "1.01 в 9:00". Groups: day, month, year (optional),
	// hour, minute.
	ReDateTime = regexp.MustCompile(dateTimeBody)

	// ReDateToken matches a bare date token ("01.01.26", "12/01"). Used as the
	// overlap guard that keeps clock-time extraction out of date fragments.
	// A dotted two-part token ("14.30") stays available as a clock time, so
	// only three-part tokens and slash/dash forms count as dates here.
	ReDateToken = regexp.MustCompile(`\d{1,2}[./-]\d{1,2}[./-]\d{2,4}|\d{1,2}[/-]\d{1,2}`)

	// ReClockTime matches a bare clock time ("11:45", "11.45").
	ReClockTime = regexp.MustCompile(`(\d{1,2})[:.](\d{2})`)

	// ReSpacedTime matches a space-separated spoken-digit time after the "в"
	// preposition ("в 9 30"). Group 1 covers the whole phrase, 2 the hour and
	// 3 the two-digit minute.
	ReSpacedTime = regexp.MustCompile(`(?:^|[^\p{L}\d])(в\s+(\d{1,2})\s+(\d{2}))(?:[^\d]|$)`)

	// ReDigit reports whether the text carries any digit.
	ReDigit = regexp.MustCompile(`\d`)

	// ReDayMonth matches a day+month expression without a year ("1 января",
	// "12.01" not followed by more date digits). Drives the +1 year repair for
	// past dates returned by the remote model.
	ReDayMonth = regexp.MustCompile(`\d{1,2}\s+(?:январ|феврал|март|апрел|ма[ея]|июн|июл|август|сентябр|октябр|ноябр|декабр)|\d{1,2}[./-]\d{1,2}(?:[^./\-\d]|$)`)
)

// Relative-day keywords, checked longest-first so "послезавтра" never reads
// as "завтра".
var relativeDays = []struct {
	word   string
	offset int
}{
	{"послезавтра", 2},
	{"завтра", 1},
	{"сегодня", 0},
}

// RelativeDayOffset returns the day offset implied by a relative-day keyword
// in the lowercased text, and whether one was found.
func RelativeDayOffset(lower string) (int, bool) {
	for _, rd := range relativeDays {
		if strings.Contains(lower, rd.word) {
			return rd.offset, true
		}
	}
	return 0, false
}

// Day-part keyword groups.
var (
	MorningWords = []string{"утром", "утра"}
	MiddayWords  = []string{"днём", "днем"}
	EveningWords = []string{"вечером", "вечера"}
	NightWords   = []string{"ночью", "ночи"}
)

// ContainsAny reports whether the lowercased text contains any of the words.
func ContainsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// HasDayPartWord reports whether the text names a configurable part of day.
func HasDayPartWord(lower string) bool {
	return ContainsAny(lower, MorningWords) ||
		ContainsAny(lower, MiddayWords) ||
		ContainsAny(lower, EveningWords)
}

// IsEveningLike reports whether the text carries an evening/night keyword,
// which shifts an ambiguous hour below 12 into the PM half.
func IsEveningLike(lower string) bool {
	return ContainsAny(lower, EveningWords) || ContainsAny(lower, NightWords)
}

// temporalKeywords are the signals that make text look like it carries a
// date or time even when no local recognizer fires; such text goes to the
// remote model instead of the default-time shortcut.
var temporalKeywords = []string{
	"сегодня", "завтра", "послезавтра", "через",
	"утром", "утра", "днём", "днем", "дня", "вечером", "вечера", "ночью", "ночи",
	"понедельник", "вторник", "среда", "среду", "четверг", "пятниц", "суббот", "воскресень",
	"январ", "феврал", "март", "апрел", "мая", "мае", "июн", "июл", "август",
	"сентябр", "октябр", "ноябр", "декабр",
	"пол", "половин",
}

// HasTemporalSignal reports whether the text contains digits or any known
// temporal keyword.
func HasTemporalSignal(text string) bool {
	if ReDigit.MatchString(text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range temporalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Spoken hour words (1-12), longest-first so "одиннадцать" wins over
// substrings. "час" covers the colloquial one o'clock.
var hourWords = []struct {
	word  string
	value int
}{
	{"одиннадцать", 11},
	{"двенадцать", 12},
	{"четыре", 4},
	{"восемь", 8},
	{"девять", 9},
	{"десять", 10},
	{"шесть", 6},
	{"семь", 7},
	{"пять", 5},
	{"три", 3},
	{"два", 2},
	{"час", 1},
}

// Spoken minute words at five-minute granularity, longest-first.
var minuteWords = []struct {
	word  string
	value int
}{
	{"двадцать пять", 25},
	{"тридцать пять", 35},
	{"пятьдесят пять", 55},
	{"пятнадцать", 15},
	{"пятьдесят", 50},
	{"двадцать", 20},
	{"тридцать", 30},
	{"сорок пять", 45},
	{"десять", 10},
	{"сорок", 40},
	{"пять", 5},
}

// ReSpokenTime matches "в <hour word> [<minute word>]". Group 1 covers the
// whole phrase, 2 the hour word and 3 the optional minute word.
var ReSpokenTime = regexp.MustCompile(buildSpokenTimePattern())

func buildSpokenTimePattern() string {
	hours := make([]string, 0, len(hourWords))
	for _, hw := range hourWords {
		hours = append(hours, hw.word)
	}
	minutes := make([]string, 0, len(minuteWords))
	for _, mw := range minuteWords {
		minutes = append(minutes, strings.ReplaceAll(mw.word, " ", `\s+`))
	}
	// Sort of alternatives matters: slices above are ordered longest-first and
	// Go regexp picks the first matching alternative.
	return `(?:^|[^\p{L}])(в\s+(` + strings.Join(hours, "|") + `)(?:\s+(` + strings.Join(minutes, "|") + `))?)(?:[^\p{L}]|$)`
}

// SpokenHour converts a matched hour word to its value (1-12).
func SpokenHour(word string) (int, bool) {
	for _, hw := range hourWords {
		if hw.word == word {
			return hw.value, true
		}
	}
	return 0, false
}

// SpokenMinute converts a matched minute word to its value. Internal runs of
// whitespace are collapsed first since the pattern allows them.
func SpokenMinute(word string) (int, bool) {
	normalized := strings.Join(strings.Fields(word), " ")
	for _, mw := range minuteWords {
		if mw.word == normalized {
			return mw.value, true
		}
	}
	return 0, false
}

// noiseWords are dropped from task text after the temporal phrase itself has
// been removed: leftover relative-day and day-part markers.
var noiseWords = map[string]struct{}{
	"сегодня": {}, "завтра": {}, "послезавтра": {},
	"утром": {}, "утра": {},
	"днём": {}, "днем": {},
	"вечером": {}, "вечера": {},
	"ночью": {}, "ночи": {},
}

// IsNoiseWord reports whether a lowercased, punctuation-trimmed token is a
// leftover temporal marker.
func IsNoiseWord(token string) bool {
	_, ok := noiseWords[token]
	return ok
}

// Segmentation vocabulary.
var (
	// ReAnchor matches one temporal anchor. A full "date + time" span counts
	// as a single anchor, which is why the combined alternative comes first:
	// the boundary-insertion step of the segmenter must not double-count it.
	// Group 1 is the anchor itself.
	ReAnchor = regexp.MustCompile(
		`(?:^|[^\p{L}\d])(` +
			dateTimeBody + `|` +
			datePart + `|` +
			clockPart + `|` +
			`через|послезавтра|завтра|сегодня|утром|утра|дн[её]м|вечером|вечера|ночью` + `|` +
			`в\s+\d{1,2}(?:[:.]\d{2})?` +
			`)`)

	// ReBulletMarker strips a leading list marker from a line.
	ReBulletMarker = regexp.MustCompile(`^[•\-–—*\d).]+\s*`)

	// ReLeadConnective strips connectives left at a chunk head after a cut.
	ReLeadConnective = regexp.MustCompile(`^(?:а\s+потом|и\s+потом|потом|затем|и|а)(?:[^\p{L}]|$)\s*`)

	// ReLeadFiller strips generic lead-in words from a chunk head.
	ReLeadFiller = regexp.MustCompile(`^(?:надо|нужно|пожалуйста|план)(?:[^\p{L}]|$)\s*`)

	// ReTrailConnective strips a dangling connective from a chunk tail.
	ReTrailConnective = regexp.MustCompile(`\s+(?:и|а|потом|затем)$`)

	// ReSeparator matches a sentence terminator, comma or connective word —
	// the positions where a segment boundary may be inserted when the next
	// anchor follows. Group 1, when present, is the connective.
	ReSeparator = regexp.MustCompile(`[.!?,;]|(?:^|\s)(а\s+потом|и\s+потом|затем|потом|и|а)\s`)

	// Splitters tried in priority order when anchor-aligned cutting fails.
	Splitters = []*regexp.Regexp{
		regexp.MustCompile(`\s+а\s+потом\s+`),
		regexp.MustCompile(`\s+затем\s+`),
		regexp.MustCompile(`\s+потом\s+`),
		regexp.MustCompile(`\s+и\s+`),
	}
)

// AnchorStarts returns the start offset of every anchor in the text, in
// order of appearance.
func AnchorStarts(text string) []int {
	lower := strings.ToLower(text)
	matches := ReAnchor.FindAllStringSubmatchIndex(lower, -1)
	starts := make([]int, 0, len(matches))
	for _, m := range matches {
		starts = append(starts, m[2])
	}
	return starts
}

// CountAnchors returns the number of temporal anchors in the text.
func CountAnchors(text string) int {
	return len(AnchorStarts(text))
}
