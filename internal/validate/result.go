// Package validate gates encoded output before it is advertised as usable:
// file presence, re-probed media content, and playlist structure.
package validate

import "fmt"

// Result is a tiered validation outcome. Errors make the result invalid;
// warnings are surfaced but do not block.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewResult creates a passing result.
func NewResult() Result {
	return Result{Valid: true}
}

// AddError records an error and marks the result invalid.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

// AddWarning records a warning; validity is unchanged.
func (r *Result) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Merge folds another result into this one. Any error on either side makes
// the merged result invalid.
func (r *Result) Merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	if !other.Valid {
		r.Valid = false
	}
}
