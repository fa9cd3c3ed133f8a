package validate

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/jmylchreest/hlsforge/internal/hls"
	"github.com/jmylchreest/hlsforge/internal/models"
)

// Gate runs the full validation sequence against a job's planned output:
// file checks on every segment, a content re-probe per rendition, media
// playlist checks per rendition, and the master playlist check. Any error
// from any check fails the gate; warnings pass through for operators.
type Gate struct {
	output  *OutputFileValidator
	content *MediaContentValidator
	media   *MediaPlaylistValidator
	master  *MasterPlaylistValidator
	logger  *slog.Logger
}

// NewGate wires the four validators together.
func NewGate(output *OutputFileValidator, content *MediaContentValidator, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		output:  output,
		content: content,
		media:   NewMediaPlaylistValidator(),
		master:  NewMasterPlaylistValidator(),
		logger:  logger,
	}
}

// Validate runs all checks against the structure. expectedDuration <= 0
// disables the duration-variance check.
func (g *Gate) Validate(ctx context.Context, job *models.Job, structure *hls.OutputStructure, expectedDuration float64) Result {
	result := NewResult()

	if structure.Mode == models.OutputModeCombined {
		if structure.OutputPath != "" {
			result.Merge(g.output.Validate(structure.OutputPath))
			result.Merge(g.content.Validate(ctx, structure.OutputPath, expectedDuration))
		} else {
			g.validateRendition(ctx, &result, structure.PlaylistPath, structure.SegmentPattern, expectedDuration)
		}
	} else {
		for _, v := range structure.VideoOutputs {
			g.validateRendition(ctx, &result, v.PlaylistPath, v.SegmentPattern, expectedDuration)
		}
		for _, a := range structure.AudioOutputs {
			g.validateRendition(ctx, &result, a.PlaylistPath, a.SegmentPattern, expectedDuration)
		}
		if structure.MasterPlaylistPath != "" {
			result.Merge(g.master.Validate(structure.MasterPlaylistPath))
		}
	}

	g.logger.Info("validation gate finished",
		slog.String("job_id", job.ID),
		slog.Bool("valid", result.Valid),
		slog.Int("errors", len(result.Errors)),
		slog.Int("warnings", len(result.Warnings)))

	return result
}

// validateRendition runs the per-rendition checks: its playlist, every
// segment file, and a content re-probe of the playlist itself.
func (g *Gate) validateRendition(ctx context.Context, result *Result, playlistPath, segmentPattern string, expectedDuration float64) {
	result.Merge(g.media.Validate(playlistPath))

	dir := filepath.Dir(segmentPattern)
	segments, err := hls.CollectSegments(dir, segmentPattern)
	if err != nil {
		result.AddError("collecting segments for %s: %v", playlistPath, err)
	} else {
		for _, segment := range segments {
			result.Merge(g.output.Validate(filepath.Join(dir, segment)))
		}
	}

	if g.content != nil {
		result.Merge(g.content.Validate(ctx, playlistPath, expectedDuration))
	}
}
