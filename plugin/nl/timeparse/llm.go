package timeparse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/napomni/napomni/plugin/nl/lexicon"
)

const resolveInstruction = "Ты отвечаешь строго в JSON."

// modelResult is the strict JSON contract of the extraction prompt.
type modelResult struct {
	Task     string  `json:"task"`
	Datetime *string `json:"datetime"`
	Original string  `json:"original"`
}

// resolveWithModel is the last recognizer of the cascade: the utterance
// looked temporal but no local rule matched, so the remote model extracts
// the task and normalizes the datetime. Its answer is repaired to honor the
// future invariant before it leaves the resolver.
func (r *Resolver) resolveWithModel(ctx context.Context, text string, now time.Time) ParseResult {
	if r.completer == nil {
		return ParseResult{Original: text, Err: "remote model is not configured"}
	}

	raw, err := r.completer.Complete(ctx, resolveInstruction, r.buildPrompt(text, now))
	if err != nil {
		return ParseResult{Original: text, Err: fmt.Sprintf("model request failed: %v", err)}
	}

	var parsed modelResult
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return ParseResult{Original: text, Err: fmt.Sprintf("malformed model response: %v", err)}
	}
	if parsed.Task == "" {
		return ParseResult{Original: text, Err: "model response carries no task"}
	}

	datetime := ""
	if parsed.Datetime != nil {
		datetime = strings.TrimSpace(*parsed.Datetime)
	}
	if datetime == "" || strings.EqualFold(datetime, "null") {
		datetime = r.defaultFuture(now).Format(Layout)
	} else {
		datetime = r.fixPastDatetime(datetime, text, now)
	}

	original := parsed.Original
	if original == "" {
		original = text
	}
	return ParseResult{Task: parsed.Task, Datetime: datetime, Original: original}
}

// fixPastDatetime enforces the future invariant on a model-returned civil
// timestamp: an unparsable or past value degrades to the default future
// instant, except that a day+month-without-year utterance is first retried
// one year later.
func (r *Resolver) fixPastDatetime(datetime, text string, now time.Time) string {
	dt, err := time.ParseInLocation(Layout, datetime, r.loc)
	if err != nil {
		return r.defaultFuture(now).Format(Layout)
	}
	if dt.After(now) {
		return datetime
	}
	if lexicon.ReDayMonth.MatchString(strings.ToLower(text)) {
		if shifted := dt.AddDate(1, 0, 0); shifted.After(now) {
			return shifted.Format(Layout)
		}
	}
	return r.defaultFuture(now).Format(Layout)
}

// buildPrompt renders the fixed extraction instruction: current time, the
// user's day-part values, normalization rules (including the colloquial
// "пол N" reading) and the strict JSON schema.
func (r *Resolver) buildPrompt(text string, now time.Time) string {
	s := r.settings
	return fmt.Sprintf(`Ты — умный парсер напоминаний. Извлекай из текста СУТЬ задачи и ВРЕМЯ исполнения.

Отвечай ТОЛЬКО в формате JSON без каких-либо пояснений:
{
  "task": "краткая суть задачи (без дат и времени)",
  "datetime": "ГГГГ-ММ-ДД ЧЧ:ММ:СС",
  "original": "оригинальный текст"
}

ПРАВИЛА:
1. Текущее время: %s (Москва)
2. Если время не указано — используй время по умолчанию: %s:00
3. Если дата не указана — используй сегодня
4. Все даты должны быть БУДУЩИМИ относительно текущего времени
5. Интерпретируй слова:
   - "завтра" = текущая дата + 1 день
   - "послезавтра" = +2 дня
   - "через N часов/дней" = прибавь указанное время
   - "в [день недели]" = ближайший этот день в будущем
6. Части дня (используй НАСТРОЙКИ пользователя):
   - "утром" = %s:00
   - "днём" = %s:00
   - "вечером" = %s:00
7. Разговорные формулировки времени:
   - "в пол 8" / "в полвосьмого" = 19:30:00, если сейчас после 12:00 (Москва), иначе 07:30:00
   - "в пол 8 утра" = 07:30:00
   - "в пол 8 вечера" = 19:30:00
8. Если не можешь определить дату — верни null в поле datetime

Текст пользователя: %s`,
		now.Format(Layout), s.Default, s.Morning, s.Day, s.Evening, text)
}
