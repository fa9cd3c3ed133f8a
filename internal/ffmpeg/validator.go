package ffmpeg

import (
	"fmt"
	"regexp"
	"strings"
)

// FlagValidation is the outcome of screening profile extra options.
type FlagValidation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// dangerousPatterns reject anything that smells like shell metacharacters.
// Extra options are passed as argv entries, never through a shell, but a
// profile containing these is almost certainly malformed or hostile.
var dangerousPatterns = []struct {
	pattern *regexp.Regexp
	message string
}{
	{regexp.MustCompile(`\$\(`), "command substitution $(...)"},
	{regexp.MustCompile("`"), "backtick substitution"},
	{regexp.MustCompile(`\$\{`), "variable expansion ${...}"},
	{regexp.MustCompile(`;`), "command separator"},
	{regexp.MustCompile(`&&|\|\|`), "command chaining"},
	{regexp.MustCompile(`[<>]`), "stream redirection"},
}

// blockedFlags are options synthesis owns; a profile must not override them.
var blockedFlags = map[string]string{
	"-i":                    "input is controlled by synthesis",
	"-y":                    "overwrite mode is controlled by synthesis",
	"-n":                    "overwrite mode is controlled by synthesis",
	"-progress":             "progress reporting is controlled by synthesis",
	"-map":                  "stream mapping is controlled by synthesis",
	"-filter_complex":       "filter graphs are controlled by synthesis",
	"-filter_script":        "loads arbitrary script files",
	"-hls_segment_filename": "segment layout is controlled by planning",
	"-protocol_whitelist":   "protocol handling must not be overridden",
	"-protocol_blacklist":   "protocol handling must not be overridden",
}

// warnFlags are allowed but usually collide with synthesized options.
var warnFlags = map[string]string{
	"-c:v":      "video codec is normally set by codec resolution",
	"-c:a":      "audio codec is normally set by codec resolution",
	"-b:v":      "video bitrate is normally set by the profile",
	"-b:a":      "audio bitrate is normally set by the profile",
	"-f":        "container format is normally set by the profile",
	"-threads":  "thread count is normally set from host cores",
	"-loglevel": "log level is normally set by synthesis",
}

// ValidateExtraOptions screens the raw options a profile injects into a
// synthesized command. Errors block synthesis; warnings are advisory.
func ValidateExtraOptions(options []string) FlagValidation {
	result := FlagValidation{Valid: true}

	for _, opt := range options {
		for _, dp := range dangerousPatterns {
			if dp.pattern.MatchString(opt) {
				result.Errors = append(result.Errors,
					fmt.Sprintf("option %q: %s", opt, dp.message))
			}
		}

		if !strings.HasPrefix(opt, "-") {
			continue
		}
		// Match both the bare flag and stream-specified forms like -b:v:0.
		base := opt
		if reason, ok := blockedFlags[base]; ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("option %q not allowed: %s", opt, reason))
			continue
		}
		if idx := strings.Index(opt, ":"); idx > 0 {
			base = opt[:idx]
			if reason, ok := blockedFlags[base]; ok {
				result.Errors = append(result.Errors,
					fmt.Sprintf("option %q not allowed: %s", opt, reason))
				continue
			}
		}
		if reason, ok := warnFlags[opt]; ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("option %q: %s", opt, reason))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
