// Package duration parses and formats durations, extending Go's standard
// format with day and week units for long-lived settings like capability
// cache TTLs.
//
// Beyond time.ParseDuration, the suffixes d (24 hours) and w (7 days) are
// accepted, with optional whitespace between number and unit: "36h", "2d",
// "1w2d12h", and "1w 2d" all parse.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// Day represents 24 hours.
	Day = 24 * time.Hour
	// Week represents 7 days.
	Week = 7 * Day
)

// extendedUnitPattern matches day and week components. No standard Go
// duration unit contains the letters d or w, so stripping these before
// delegating to time.ParseDuration is unambiguous.
var extendedUnitPattern = regexp.MustCompile(`(?i)(\d+)\s*(w|d)`)

// Parse parses a duration string, accepting Go's standard format plus the
// d and w suffixes. Extended units are converted to hours before the rest
// is handed to time.ParseDuration.
func Parse(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("duration: empty string")
	}
	s = strings.TrimSpace(s)

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}

	var totalHours int64
	remaining := extendedUnitPattern.ReplaceAllStringFunc(s, func(match string) string {
		m := extendedUnitPattern.FindStringSubmatch(match)
		value, _ := strconv.ParseInt(m[1], 10, 64)
		if strings.EqualFold(m[2], "w") {
			totalHours += value * 7 * 24
		} else {
			totalHours += value * 24
		}
		return ""
	})

	// Go's parser rejects whitespace between components.
	remaining = strings.Join(strings.Fields(remaining), "")

	var durationStr string
	if totalHours > 0 {
		durationStr = strconv.FormatInt(totalHours, 10) + "h"
	}
	durationStr += remaining
	if durationStr == "" {
		durationStr = "0s"
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return 0, fmt.Errorf("duration: %w", err)
	}
	if negative {
		d = -d
	}
	return d, nil
}

// MustParse is like Parse but panics if the string cannot be parsed.
// Use only for compile-time constants.
func MustParse(s string) time.Duration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Format renders a duration using the largest applicable units, omitting
// zero components: 9 days becomes "1w2d", 90 minutes becomes "1h30m".
func Format(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	negative := d < 0
	if negative {
		d = -d
	}

	var result strings.Builder

	weeks := d / Week
	d -= weeks * Week
	days := d / Day
	d -= days * Day
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second

	if weeks > 0 {
		fmt.Fprintf(&result, "%dw", weeks)
	}
	if days > 0 {
		fmt.Fprintf(&result, "%dd", days)
	}
	if hours > 0 {
		fmt.Fprintf(&result, "%dh", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&result, "%dm", minutes)
	}
	if seconds > 0 {
		fmt.Fprintf(&result, "%ds", seconds)
	}
	if d > 0 {
		if d >= time.Millisecond {
			ms := d / time.Millisecond
			d -= ms * time.Millisecond
			fmt.Fprintf(&result, "%dms", ms)
		}
		if d >= time.Microsecond {
			us := d / time.Microsecond
			d -= us * time.Microsecond
			fmt.Fprintf(&result, "%dµs", us)
		}
		if d > 0 {
			fmt.Fprintf(&result, "%dns", d)
		}
	}

	if result.Len() == 0 {
		return "0s"
	}
	if negative {
		return "-" + result.String()
	}
	return result.String()
}
