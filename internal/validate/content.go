package validate

import (
	"context"
	"math"

	"github.com/jmylchreest/hlsforge/internal/models"
)

// durationTolerance is the absolute duration variance, in seconds, allowed
// between expected and re-probed output before a warning is raised.
const durationTolerance = 2.0

// mediaProber re-probes encoded output. *ffmpeg.Prober satisfies it; tests
// substitute a stub.
type mediaProber interface {
	Analyze(ctx context.Context, input string) (*models.StreamAnalysis, error)
}

// MediaContentValidator re-probes encoded output and checks that it holds
// actual playable media.
type MediaContentValidator struct {
	prober mediaProber
}

// NewMediaContentValidator creates a content validator over a prober.
func NewMediaContentValidator(prober mediaProber) *MediaContentValidator {
	return &MediaContentValidator{prober: prober}
}

// Validate re-probes the output. Zero duration or an output with neither
// video nor audio is an error; duration variance beyond the tolerance is a
// warning. expectedDuration <= 0 skips the variance check.
func (v *MediaContentValidator) Validate(ctx context.Context, path string, expectedDuration float64) Result {
	result := NewResult()

	analysis, err := v.prober.Analyze(ctx, path)
	if err != nil {
		result.AddError("probing output %s: %v", path, err)
		return result
	}

	if analysis.Duration <= 0 {
		result.AddError("output has zero duration: %s", path)
	} else if expectedDuration > 0 {
		if variance := math.Abs(analysis.Duration - expectedDuration); variance > durationTolerance {
			result.AddWarning("duration variance %.1fs exceeds %.0fs tolerance (expected %.1fs, got %.1fs): %s",
				variance, durationTolerance, expectedDuration, analysis.Duration, path)
		}
	}

	if !analysis.HasVideo() && !analysis.HasAudio() {
		result.AddError("output has no video and no audio streams: %s", path)
	}

	return result
}
