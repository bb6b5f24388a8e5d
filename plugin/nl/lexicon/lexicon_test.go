package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountAnchors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		// A full date+time span is one anchor, not two.
		{"date plus time", "21.12.25 14:48 купить хлеб", 1},
		{"bare clock time", "встреча в 11:45", 1},
		{"two relative anchors", "через 2 минуты проверить почту и через 2 часа купить хлеб", 2},
		{"relative day and clock", "завтра в 9 проверить почту", 2},
		{"day parts", "утром позвонить маме а вечером папе", 2},
		{"no anchors", "купить молоко и хлеб", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountAnchors(tt.input))
		})
	}
}

func TestRelativeDayOffset(t *testing.T) {
	tests := []struct {
		input     string
		want      int
		wantFound bool
	}{
		{"сегодня вынести мусор", 0, true},
		{"завтра сдать отчёт", 1, true},
		// "послезавтра" contains "завтра" and must win.
		{"послезавтра пробежка", 2, true},
		{"купить молоко", 0, false},
	}
	for _, tt := range tests {
		got, found := RelativeDayOffset(tt.input)
		assert.Equal(t, tt.wantFound, found, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestSpokenTimePattern(t *testing.T) {
	m := ReSpokenTime.FindStringSubmatch("напомни в девять тридцать утра")
	if assert.NotNil(t, m) {
		assert.Equal(t, "девять", m[2])
		assert.Equal(t, "тридцать", m[3])
	}

	// Compound minute words survive with inner whitespace.
	m = ReSpokenTime.FindStringSubmatch("в шесть сорок пять ужин")
	if assert.NotNil(t, m) {
		assert.Equal(t, "шесть", m[2])
		assert.Equal(t, "сорок пять", m[3])
	}

	// An hour word inside another word must not fire.
	assert.Nil(t, ReSpokenTime.FindStringSubmatch("очасовать проект"))
}

func TestSpokenValues(t *testing.T) {
	h, ok := SpokenHour("одиннадцать")
	assert.True(t, ok)
	assert.Equal(t, 11, h)

	m, ok := SpokenMinute("сорок  пять")
	assert.True(t, ok)
	assert.Equal(t, 45, m)

	_, ok = SpokenHour("тринадцать")
	assert.False(t, ok)
}

func TestHasTemporalSignal(t *testing.T) {
	assert.True(t, HasTemporalSignal("встреча в 11:45"))
	assert.True(t, HasTemporalSignal("через час"))
	assert.True(t, HasTemporalSignal("в пятницу баня"))
	assert.False(t, HasTemporalSignal("купить молоко"))
}

func TestDateTokenGuard(t *testing.T) {
	assert.True(t, ReDateToken.MatchString("01.01.26 оплатить счёт"))
	assert.True(t, ReDateToken.MatchString("встреча 12/01"))
	// A dotted two-part token is a clock time, not a date.
	assert.False(t, ReDateToken.MatchString("встреча в 14.30"))
}
