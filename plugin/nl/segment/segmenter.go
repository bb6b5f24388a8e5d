// Package segment splits one utterance that may describe several reminders
// into an ordered list of independent sub-utterances. Local heuristics run
// first (lines, semicolons, anchor-aligned cuts, connective words); a remote
// model handles long single-line inputs the local rules could not divide.
// Item order always mirrors the source text.
package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/napomni/napomni/plugin/ai"
	"github.com/napomni/napomni/plugin/nl/lexicon"
)

const splitInstruction = "Ты отвечаешь строго в JSON."

// smartSplitMinRunes is the input length below which a single local item is
// trusted as-is and the remote fallback is skipped.
const smartSplitMinRunes = 64

// SegmentResult is the outcome of segmenting one utterance. When Err is
// empty, Items carries at least one element for non-empty input.
type SegmentResult struct {
	Items []string `json:"items"`
	Err   string   `json:"error,omitempty"`
}

// Segmenter divides utterances into independent reminder texts. It is
// stateless and safe for concurrent use.
type Segmenter struct {
	completer ai.Completer // nil disables the remote fallback
}

// NewSegmenter creates a segmenter. A nil completer limits it to the local
// rules; SplitSmart then behaves exactly like Split.
func NewSegmenter(completer ai.Completer) *Segmenter {
	return &Segmenter{completer: completer}
}

// Split divides the text using local rules only. Failures of any kind,
// panics included, surface as SegmentResult.Err; nothing escapes this
// boundary.
func (s *Segmenter) Split(text string) (res SegmentResult) {
	defer func() {
		if rec := recover(); rec != nil {
			res = SegmentResult{Err: fmt.Sprintf("segmenter panic: %v", rec)}
		}
	}()
	return SegmentResult{Items: s.splitLocal(text)}
}

// SplitSmart divides the text with local rules and, when they leave one item
// out of a long multi-anchor input, asks the remote model to segment it. A
// failed remote call degrades to the local result rather than an error.
func (s *Segmenter) SplitSmart(ctx context.Context, text string) (res SegmentResult) {
	defer func() {
		if rec := recover(); rec != nil {
			res = SegmentResult{Err: fmt.Sprintf("segmenter panic: %v", rec)}
		}
	}()

	items := s.splitLocal(text)
	if len(items) != 1 || s.completer == nil {
		return SegmentResult{Items: items}
	}
	if len([]rune(items[0])) < smartSplitMinRunes || lexicon.CountAnchors(items[0]) < 2 {
		return SegmentResult{Items: items}
	}

	remote, err := s.splitWithModel(ctx, items[0])
	if err != nil || len(remote) < 2 {
		return SegmentResult{Items: items}
	}
	return SegmentResult{Items: remote}
}

// splitLocal runs the local cascade: lines, semicolons, anchor-aligned cuts,
// connective words, single item.
func (s *Segmenter) splitLocal(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	if strings.ContainsAny(trimmed, "\n") {
		if items := cleanAll(strings.Split(trimmed, "\n")); len(items) >= 2 {
			return items
		}
		return []string{cleanChunk(trimmed)}
	}

	if strings.Contains(trimmed, ";") {
		if items := cleanAll(strings.Split(trimmed, ";")); len(items) >= 2 {
			return items
		}
		return []string{cleanChunk(trimmed)}
	}

	if lexicon.CountAnchors(trimmed) >= 2 {
		if items := anchorAlignedSplit(trimmed); len(items) >= 2 {
			return items
		}
		for _, re := range lexicon.Splitters {
			if items := cleanAll(re.Split(trimmed, -1)); len(items) >= 2 {
				return items
			}
		}
	}

	return []string{cleanChunk(trimmed)}
}

// anchorAlignedSplit inserts a boundary at every separator (sentence
// terminator, comma or connective word) that is immediately followed by a
// temporal anchor, so each chunk keeps its own anchor phrase.
func anchorAlignedSplit(text string) []string {
	lower := strings.ToLower(text)
	anchors := lexicon.AnchorStarts(text)

	var cuts []int
	for _, m := range lexicon.ReSeparator.FindAllStringSubmatchIndex(lower, -1) {
		cut, after := m[0], m[1]
		if m[2] >= 0 {
			// Connective word: cut at its start so the lead-connective cleanup
			// owns it, not the previous chunk.
			cut, after = m[2], m[3]
		}
		if cut == 0 {
			continue
		}
		if !anchorFollows(lower, anchors, after) || !anchorBefore(anchors, cut) {
			continue
		}
		if len(cuts) == 0 || cut > cuts[len(cuts)-1] {
			cuts = append(cuts, cut)
		}
	}
	if len(cuts) == 0 {
		return nil
	}

	chunks := make([]string, 0, len(cuts)+1)
	prev := 0
	for _, cut := range cuts {
		chunks = append(chunks, text[prev:cut])
		prev = cut
	}
	chunks = append(chunks, text[prev:])
	return cleanAll(chunks)
}

// anchorFollows reports whether an anchor starts right after pos with only
// whitespace in between.
func anchorFollows(lower string, anchors []int, pos int) bool {
	for _, a := range anchors {
		if a < pos {
			continue
		}
		return strings.TrimSpace(lower[pos:a]) == ""
	}
	return false
}

// anchorBefore reports whether any anchor starts before pos.
func anchorBefore(anchors []int, pos int) bool {
	return len(anchors) > 0 && anchors[0] < pos
}

// cleanAll cleans every chunk and drops the empty ones, preserving order.
func cleanAll(chunks []string) []string {
	items := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if cleaned := cleanChunk(c); cleaned != "" {
			items = append(items, cleaned)
		}
	}
	return items
}

// cleanChunk normalizes one chunk: trim whitespace and punctuation, strip a
// bullet marker, lead connectives and fillers, and a dangling tail
// connective.
func cleanChunk(chunk string) string {
	c := strings.Trim(chunk, " \t.,;!?—–")
	c = lexicon.ReBulletMarker.ReplaceAllString(c, "")
	for {
		next := lexicon.ReLeadConnective.ReplaceAllString(c, "")
		next = lexicon.ReLeadFiller.ReplaceAllString(next, "")
		if next == c {
			break
		}
		c = next
	}
	c = lexicon.ReTrailConnective.ReplaceAllString(c, "")
	return strings.TrimSpace(c)
}

// splitWithModel asks the remote model for a strict-JSON segmentation of the
// text.
func (s *Segmenter) splitWithModel(ctx context.Context, text string) ([]string, error) {
	raw, err := s.completer.Complete(ctx, splitInstruction, buildSplitPrompt(text))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Items []string `json:"items"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("malformed model response: %w", err)
	}

	items := make([]string, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("model response carries no items")
	}
	return items, nil
}

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

func buildSplitPrompt(text string) string {
	return fmt.Sprintf(`Раздели текст на отдельные независимые напоминания.
Каждый пункт должен сохранить своё указание времени, если оно есть.
Не переформулируй текст и не меняй порядок пунктов.

Отвечай ТОЛЬКО в формате JSON без каких-либо пояснений:
{"items": ["первое напоминание", "второе напоминание"]}

Если в тексте только одно напоминание, верни список из одного пункта.

Текст: %s`, text)
}
