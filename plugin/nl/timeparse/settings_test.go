package timeparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSettings(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]string
		want DayPartSettings
	}{
		{
			"nil map falls back to defaults",
			nil,
			DayPartSettings{Morning: "09:00", Day: "14:00", Evening: "20:00", Default: "20:00"},
		},
		{
			"storage key convention",
			map[string]string{"morning_time": "08:00", "day_time": "13:00", "evening_time": "18:00", "default_time": "21:30"},
			DayPartSettings{Morning: "08:00", Day: "13:00", Evening: "18:00", Default: "21:30"},
		},
		{
			"short key convention",
			map[string]string{"morning": "08:00", "day": "13:00", "evening": "18:00", "default": "21:30"},
			DayPartSettings{Morning: "08:00", Day: "13:00", Evening: "18:00", Default: "21:30"},
		},
		{
			"storage keys win over short keys",
			map[string]string{"morning_time": "07:30", "morning": "08:00"},
			DayPartSettings{Morning: "07:30", Day: "14:00", Evening: "20:00", Default: "20:00"},
		},
		{
			"malformed values degrade per key",
			map[string]string{"morning_time": "25:00", "day_time": "13.15", "evening_time": "мусор"},
			DayPartSettings{Morning: "09:00", Day: "13:15", Evening: "20:00", Default: "20:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSettings(tt.raw))
		})
	}
}

func TestNormalizeHHMM(t *testing.T) {
	tests := []struct {
		value    string
		fallback string
		want     string
	}{
		{"08:00", "20:00", "08:00"},
		{"8:00", "20:00", "08:00"},
		{"8.30", "20:00", "08:30"},
		{"23:59", "20:00", "23:59"},
		{"24:00", "20:00", "20:00"},
		{"12:60", "20:00", "20:00"},
		{"", "20:00", "20:00"},
		{"abc", "20:00", "20:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeHHMM(tt.value, tt.fallback), "value %q", tt.value)
	}
}

func TestValidHHMM(t *testing.T) {
	assert.True(t, ValidHHMM("08:00"))
	assert.True(t, ValidHHMM("23:59"))
	assert.False(t, ValidHHMM("8:00"))
	assert.False(t, ValidHHMM("08.00"))
	assert.False(t, ValidHHMM("24:00"))
	assert.False(t, ValidHHMM(""))
}
