package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"standard seconds", "30s", 30 * time.Second, false},
		{"standard minutes", "5m", 5 * time.Minute, false},
		{"standard hours", "12h", 12 * time.Hour, false},
		{"standard compound", "1h30m", 90 * time.Minute, false},
		{"milliseconds", "500ms", 500 * time.Millisecond, false},
		{"days", "2d", 2 * Day, false},
		{"single week", "1w", Week, false},
		{"weeks and days", "1w2d", Week + 2*Day, false},
		{"weeks days hours", "1w2d12h", Week + 2*Day + 12*time.Hour, false},
		{"day with spacing", "2 d", 2 * Day, false},
		{"extended then standard", "1d 6h", 30 * time.Hour, false},
		{"uppercase unit", "1D", Day, false},
		{"negative", "-2d", -2 * Day, false},
		{"zero", "0s", 0, false},
		{"empty", "", 0, true},
		{"garbage", "banana", 0, true},
		{"unknown unit", "3mo", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMustParse(t *testing.T) {
	assert.Equal(t, 36*time.Hour, MustParse("1d12h"))
	assert.Panics(t, func() { MustParse("not a duration") })
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		input time.Duration
		want  string
	}{
		{"zero", 0, "0s"},
		{"seconds", 45 * time.Second, "45s"},
		{"minutes and seconds", 90 * time.Second, "1m30s"},
		{"hours", 12 * time.Hour, "12h"},
		{"days", 2 * Day, "2d"},
		{"week and days", 9 * Day, "1w2d"},
		{"mixed", Week + 2*Day + 12*time.Hour, "1w2d12h"},
		{"sub-second", 1500 * time.Millisecond, "1s500ms"},
		{"negative", -2 * Day, "-2d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.input))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, input := range []string{"30s", "1h30m", "2d", "1w2d12h"} {
		d, err := Parse(input)
		require.NoError(t, err)

		back, err := Parse(Format(d))
		require.NoError(t, err)
		assert.Equal(t, d, back, "round trip for %q", input)
	}
}

func TestParseEquivalence(t *testing.T) {
	// The extended units are sugar for plain hours.
	long, err := Parse("216h")
	require.NoError(t, err)
	short, err := Parse("1w2d")
	require.NoError(t, err)
	assert.Equal(t, long, short)
}
