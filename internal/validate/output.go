package validate

import "os"

// defaultMinOutputSize is the size below which an output file is suspect.
const defaultMinOutputSize = 1024

// OutputFileValidator checks that an encode produced an actual file.
type OutputFileValidator struct {
	minSize int64
}

// NewOutputFileValidator creates a validator with the default size floor.
func NewOutputFileValidator() *OutputFileValidator {
	return &OutputFileValidator{minSize: defaultMinOutputSize}
}

// WithMinSize overrides the suspicious-size floor in bytes.
func (v *OutputFileValidator) WithMinSize(bytes int64) *OutputFileValidator {
	if bytes > 0 {
		v.minSize = bytes
	}
	return v
}

// Validate checks one output file: missing or empty is an error, smaller
// than the floor is a warning.
func (v *OutputFileValidator) Validate(path string) Result {
	result := NewResult()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			result.AddError("output file does not exist: %s", path)
		} else {
			result.AddError("cannot stat output file %s: %v", path, err)
		}
		return result
	}

	if info.Size() == 0 {
		result.AddError("empty file: %s", path)
		return result
	}
	if info.Size() < v.minSize {
		result.AddWarning("output file suspiciously small (%d bytes): %s", info.Size(), path)
	}

	return result
}
