// Package bytesize parses and formats byte sizes for settings like output
// file floors and segment size limits.
//
// Units are case-insensitive and binary-based (1024): B, KB/K/KiB, MB/M/MiB,
// GB/G/GiB, TB/T/TiB. "5MB", "1.5 GB", "500KB", and bare byte counts like
// "1024" all parse.
package bytesize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Size represents a byte size as int64.
type Size int64

// Size constants using binary (1024) base.
const (
	B  Size = 1
	KB Size = 1024
	MB Size = 1024 * KB
	GB Size = 1024 * MB
	TB Size = 1024 * GB
)

// unitMultipliers maps unit names to their byte multiplier.
var unitMultipliers = map[string]Size{
	"b": B,

	"k":   KB,
	"kb":  KB,
	"kib": KB,

	"m":   MB,
	"mb":  MB,
	"mib": MB,

	"g":   GB,
	"gb":  GB,
	"gib": GB,

	"t":   TB,
	"tb":  TB,
	"tib": TB,
}

// sizePattern matches a number (int or float) followed by an optional unit.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([a-z]*)\s*$`)

// Parse parses a byte size string. A missing unit means bytes.
func Parse(s string) (Size, error) {
	if s == "" {
		return 0, fmt.Errorf("bytesize: empty string")
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("bytesize: invalid format %q", s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("bytesize: invalid number %q: %w", matches[1], err)
	}

	multiplier := B
	if unit := strings.ToLower(matches[2]); unit != "" {
		var ok bool
		multiplier, ok = unitMultipliers[unit]
		if !ok {
			return 0, fmt.Errorf("bytesize: unknown unit %q", matches[2])
		}
	}

	return Size(value * float64(multiplier)), nil
}

// MustParse is like Parse but panics if the string cannot be parsed.
// Use only for compile-time constants.
func MustParse(s string) Size {
	size, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return size
}

// Format renders a size using the largest unit that keeps the value >= 1.
func Format(s Size) string {
	if s == 0 {
		return "0B"
	}

	negative := s < 0
	if negative {
		s = -s
	}

	var result string
	switch {
	case s >= TB:
		result = formatFloat(float64(s)/float64(TB), "TB")
	case s >= GB:
		result = formatFloat(float64(s)/float64(GB), "GB")
	case s >= MB:
		result = formatFloat(float64(s)/float64(MB), "MB")
	case s >= KB:
		result = formatFloat(float64(s)/float64(KB), "KB")
	default:
		result = fmt.Sprintf("%dB", s)
	}

	if negative {
		return "-" + result
	}
	return result
}

// formatFloat renders whole values without decimals and fractional values
// with at most two places.
func formatFloat(value float64, unit string) string {
	if value == float64(int64(value)) {
		return fmt.Sprintf("%d%s", int64(value), unit)
	}
	formatted := strings.TrimRight(fmt.Sprintf("%.2f", value), "0")
	formatted = strings.TrimRight(formatted, ".")
	return formatted + unit
}

// Bytes returns the size in bytes as int64.
func (s Size) Bytes() int64 {
	return int64(s)
}

// String returns a human-readable string representation.
func (s Size) String() string {
	return Format(s)
}
