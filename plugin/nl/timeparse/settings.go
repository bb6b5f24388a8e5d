package timeparse

import (
	"fmt"
	"regexp"
)

// Built-in day-part defaults, used whenever a user value is absent or
// malformed.
const (
	DefaultMorning = "09:00"
	DefaultDay     = "14:00"
	DefaultEvening = "20:00"
	DefaultDefault = "20:00"
)

// DayPartSettings holds the user-configurable clock times for the named
// parts of the day plus the default applied when an utterance carries no
// time at all. Values are always normalized "HH:MM" strings.
type DayPartSettings struct {
	Morning string
	Day     string
	Evening string
	Default string
}

// DefaultSettings returns the built-in day-part values.
func DefaultSettings() DayPartSettings {
	return DayPartSettings{
		Morning: DefaultMorning,
		Day:     DefaultDay,
		Evening: DefaultEvening,
		Default: DefaultDefault,
	}
}

var reHHMM = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})$`)

// NormalizeSettings builds DayPartSettings from a raw mapping. Both the
// storage key convention ("morning_time") and the short one ("morning") are
// accepted; missing or malformed values degrade to the built-in defaults.
// It never fails.
func NormalizeSettings(raw map[string]string) DayPartSettings {
	pick := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := raw[k]; ok && v != "" {
				return v
			}
		}
		return ""
	}
	return DayPartSettings{
		Morning: NormalizeHHMM(pick("morning_time", "morning"), DefaultMorning),
		Day:     NormalizeHHMM(pick("day_time", "day"), DefaultDay),
		Evening: NormalizeHHMM(pick("evening_time", "evening"), DefaultEvening),
		Default: NormalizeHHMM(pick("default_time", "default"), DefaultDefault),
	}
}

// NormalizeHHMM brings a clock-time string to "HH:MM" form, falling back to
// the given default when the value is absent or out of range.
func NormalizeHHMM(value, fallback string) string {
	m := reHHMM.FindStringSubmatch(value)
	if m == nil {
		return fallback
	}
	hh, mm := atoi(m[1]), atoi(m[2])
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return fallback
	}
	return fmt.Sprintf("%02d:%02d", hh, mm)
}

// ValidHHMM reports whether the value is a well-formed "HH:MM" clock time.
func ValidHHMM(value string) bool {
	if len(value) != 5 || value[2] != ':' {
		return false
	}
	return NormalizeHHMM(value, "") == value
}

// splitHHMM splits a normalized "HH:MM" value. The input is trusted to have
// passed NormalizeHHMM.
func splitHHMM(hhmm string) (hour, minute int) {
	m := reHHMM.FindStringSubmatch(hhmm)
	if m == nil {
		return 0, 0
	}
	return atoi(m[1]), atoi(m[2])
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
