package timeparse

import (
	"regexp"
	"strings"

	"github.com/napomni/napomni/plugin/nl/lexicon"
)

const punctCutset = " \t\n.,!?:;—–-"

var (
	reFenceOpen  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	reFenceClose = regexp.MustCompile("\\s*```$")
)

// stripCodeFences removes a Markdown code fence wrapping, which chat models
// like to add around JSON payloads.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = reFenceOpen.ReplaceAllString(s, "")
	s = reFenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// stripNoiseWords drops leftover relative-day and day-part tokens from task
// text once the temporal phrase itself has been cut out.
func stripNoiseWords(s string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if lexicon.IsNoiseWord(strings.ToLower(strings.Trim(f, punctCutset))) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// cleanTask normalizes extracted task text: collapse whitespace, drop
// leftover temporal markers, trim surrounding punctuation and optionally
// truncate to maxWords (0 disables truncation).
func cleanTask(s string, maxWords int) string {
	s = stripNoiseWords(s)
	s = strings.Trim(s, punctCutset)
	if maxWords > 0 {
		words := strings.Fields(s)
		if len(words) > maxWords {
			s = strings.Join(words[:maxWords], " ")
		}
	}
	return s
}

// cutSpan removes text[start:end], keeping the words on both sides.
func cutSpan(text string, start, end int) string {
	return text[:start] + " " + text[end:]
}

// expandPreposition widens a removal span leftwards over an immediately
// preceding standalone "в"/"к" so that "встреча в 11:45" does not leave a
// dangling preposition in the task text.
func expandPreposition(text string, start int) int {
	i := start
	for i > 0 && (text[i-1] == ' ' || text[i-1] == '\t') {
		i--
	}
	for _, prep := range []string{"в", "В", "к", "К"} {
		j := i - len(prep)
		if j < 0 || text[j:i] != prep {
			continue
		}
		// The preposition must be a standalone word.
		if j == 0 || text[j-1] == ' ' || text[j-1] == '\t' {
			return j
		}
	}
	return start
}

// spansOverlap reports whether [aStart,aEnd) intersects [bStart,bEnd).
func spansOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
