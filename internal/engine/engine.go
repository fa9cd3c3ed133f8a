// Package engine orchestrates one transcode: probe, plan, synthesize,
// finalize, validate. Process execution stays behind ProcessRunner.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmylchreest/hlsforge/internal/ffmpeg"
	"github.com/jmylchreest/hlsforge/internal/hls"
	"github.com/jmylchreest/hlsforge/internal/models"
	"github.com/jmylchreest/hlsforge/internal/rules"
	"github.com/jmylchreest/hlsforge/internal/validate"
)

// inputProber supplies stream analyses. *ffmpeg.Prober satisfies it.
type inputProber interface {
	Analyze(ctx context.Context, input string) (*models.StreamAnalysis, error)
}

// PlanResult is everything PlanJob derives for one job.
type PlanResult struct {
	Job       *models.Job
	Analysis  *models.StreamAnalysis
	Structure *hls.OutputStructure
	Command   *ffmpeg.Command
	Actions   []rules.Action
}

// Engine wires the prober, resolver, planner, generator, and validation
// gate into the per-job operations.
type Engine struct {
	prober      inputProber
	synthesizer *ffmpeg.Synthesizer
	planner     *hls.Planner
	generator   *hls.Generator
	gate        *validate.Gate
	rules       *rules.Engine
	notifier    Notifier
	nodeID      string
	logger      *slog.Logger
}

// New creates an engine. notifier may be nil; progress is then only logged.
func New(prober inputProber, synthesizer *ffmpeg.Synthesizer, gate *validate.Gate, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	hostname, _ := os.Hostname()
	return &Engine{
		prober:      prober,
		synthesizer: synthesizer,
		planner:     hls.NewPlanner(),
		generator:   hls.NewGenerator(),
		gate:        gate,
		rules: rules.NewEngine(
			rules.NewSubtitleRule(nil),
			rules.NewHardwareAccelRule(),
			rules.NewChecklistRule(),
		),
		nodeID: hostname,
		logger: logger,
	}
}

// WithRules replaces the default post-processing rule set.
func (e *Engine) WithRules(r *rules.Engine) *Engine {
	e.rules = r
	return e
}

// WithNotifier sets the progress notifier.
func (e *Engine) WithNotifier(n Notifier) *Engine {
	e.notifier = n
	return e
}

// WithNodeID overrides the node identifier carried in notifications.
func (e *Engine) WithNodeID(id string) *Engine {
	e.nodeID = id
	return e
}

// PlanJob probes the input, plans the output structure, and synthesizes the
// transcoder command. The job is validated and annotated with the analysis.
func (e *Engine) PlanJob(ctx context.Context, job *models.Job) (*PlanResult, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	for _, vp := range job.Profile.VideoProfiles {
		if v := ffmpeg.ValidateExtraOptions(vp.ExtraOptions); !v.Valid {
			return nil, models.ConfigurationError{Field: "video_profiles.extra_options", Message: v.Errors[0]}
		}
	}
	for _, ap := range job.Profile.AudioProfiles {
		if v := ffmpeg.ValidateExtraOptions(ap.ExtraOptions); !v.Valid {
			return nil, models.ConfigurationError{Field: "audio_profiles.extra_options", Message: v.Errors[0]}
		}
	}

	analysis, err := e.prober.Analyze(ctx, job.Input)
	if err != nil {
		return nil, fmt.Errorf("analyzing input: %w", err)
	}
	job.Analysis = analysis

	structure, err := e.planner.Plan(analysis, job.OutputDir, job.BaseName, job.Spec, job.Mode, job.Profile.Container)
	if err != nil {
		return nil, fmt.Errorf("planning output structure: %w", err)
	}

	var cmd *ffmpeg.Command
	if job.Mode == models.OutputModeCombined {
		cmd = e.synthesizer.BuildCombined(ctx, analysis, &job.Profile, structure, job.Spec, ffmpeg.BuildOptions{})
	} else {
		cmd = e.synthesizer.BuildSeparate(ctx, analysis, &job.Profile, structure, job.Spec)
	}

	actions := e.rules.ActionsFor(job)

	e.logger.Info("job planned",
		slog.String("job_id", job.ID),
		slog.String("input", job.Input),
		slog.String("mode", string(job.Mode)),
		slog.Int("video_renditions", len(structure.VideoOutputs)),
		slog.Int("audio_renditions", len(structure.AudioOutputs)),
		slog.Int("post_actions", len(actions)))

	return &PlanResult{Job: job, Analysis: analysis, Structure: structure, Command: cmd, Actions: actions}, nil
}

// Transcode plans the job, runs the process through the runner with progress
// notifications, and finalizes the output. The returned validation result is
// the gate's; the caller decides whether warnings matter.
func (e *Engine) Transcode(ctx context.Context, job *models.Job, runner ProcessRunner) (validate.Result, error) {
	plan, err := e.PlanJob(ctx, job)
	if err != nil {
		return validate.Result{}, err
	}

	if err := runner.Run(ctx, plan.Command, e.progressFunc(ctx, job, plan.Analysis.Duration)); err != nil {
		return validate.Result{}, fmt.Errorf("running transcode: %w", err)
	}

	return e.FinalizeJob(ctx, job, plan.Structure, plan.Analysis.Duration)
}

// FinalizeJob renders and writes every playlist for the finished encode,
// then runs the validation gate.
func (e *Engine) FinalizeJob(ctx context.Context, job *models.Job, structure *hls.OutputStructure, totalDuration float64) (validate.Result, error) {
	if structure.Mode == models.OutputModeCombined {
		// Non-HLS combined outputs are a single file; nothing to render.
		if structure.OutputPath == "" {
			if err := e.writeMediaPlaylist(structure.PlaylistPath, structure.SegmentPattern, job.Spec, totalDuration); err != nil {
				return validate.Result{}, err
			}
		}
	} else {
		for _, out := range structure.VideoOutputs {
			if err := e.writeMediaPlaylist(out.PlaylistPath, out.SegmentPattern, job.Spec, totalDuration); err != nil {
				return validate.Result{}, err
			}
		}
		for _, out := range structure.AudioOutputs {
			if err := e.writeMediaPlaylist(out.PlaylistPath, out.SegmentPattern, job.Spec, totalDuration); err != nil {
				return validate.Result{}, err
			}
		}

		variants, groups := e.generator.MasterEntries(structure)
		master := e.generator.RenderMasterPlaylist(variants, groups)
		if err := e.generator.WriteMasterPlaylist(structure.MasterPlaylistPath, master); err != nil {
			return validate.Result{}, err
		}
	}

	result := e.gate.Validate(ctx, job, structure, totalDuration)
	return result, nil
}

// Cleanup removes the partial output a cancelled or failed job left behind.
// It is explicitly caller-invoked, never automatic.
func (e *Engine) Cleanup(structure *hls.OutputStructure) error {
	if structure == nil {
		return nil
	}

	if structure.Mode == models.OutputModeCombined {
		if structure.OutputPath != "" {
			return removeIfExists(structure.OutputPath)
		}
		if err := removeSegments(structure.SegmentPattern); err != nil {
			return err
		}
		if err := removeIfExists(structure.PlaylistPath); err != nil {
			return err
		}
		return nil
	}

	for _, out := range structure.VideoOutputs {
		if err := os.RemoveAll(out.FolderPath); err != nil {
			return fmt.Errorf("removing rendition folder %s: %w", out.FolderName, err)
		}
	}
	for _, out := range structure.AudioOutputs {
		if err := os.RemoveAll(out.FolderPath); err != nil {
			return fmt.Errorf("removing rendition folder %s: %w", out.FolderName, err)
		}
	}
	return removeIfExists(structure.MasterPlaylistPath)
}

// writeMediaPlaylist collects the rendition's segments and writes its
// playlist.
func (e *Engine) writeMediaPlaylist(playlistPath, segmentPattern string, spec models.Specification, totalDuration float64) error {
	segments, err := hls.CollectSegments(filepath.Dir(segmentPattern), segmentPattern)
	if err != nil {
		return fmt.Errorf("collecting segments for %s: %w", playlistPath, err)
	}

	content := e.generator.RenderMediaPlaylist(spec, segments, totalDuration)
	return e.generator.WriteMediaPlaylist(playlistPath, content)
}

// progressFunc adapts ffmpeg progress blocks into notifications. Notifier
// failures are logged, never retried.
func (e *Engine) progressFunc(ctx context.Context, job *models.Job, totalDuration float64) ffmpeg.ProgressFunc {
	return func(p ffmpeg.Progress) {
		current := p.OutTime.Seconds()

		n := Notification{
			TaskID:        job.TaskID,
			JobID:         job.ID,
			NodeID:        e.nodeID,
			EncodedFrames: p.Frame,
			FPS:           p.FPS,
			Speed:         p.Speed,
			Bitrate:       p.Bitrate,
			CurrentTime:   current,
			TotalDuration: totalDuration,
			OutputSize:    p.TotalSize,
			Timestamp:     time.Now().UTC(),
		}
		if p.Stats != nil {
			n.CPUPercent = p.Stats.CPUPercent
			n.MemoryRSS = p.Stats.MemoryRSSBytes
		}
		if totalDuration > 0 {
			n.Percentage = min(current/totalDuration*100, 100)
			if p.Speed > 0 {
				n.EstimatedRemaining = (totalDuration - current) / p.Speed
			}
		}
		if p.Finished {
			n.Percentage = 100
			n.EstimatedRemaining = 0
		}

		if e.notifier == nil {
			e.logger.Debug("transcode progress",
				slog.String("job_id", job.ID),
				slog.Float64("percentage", n.Percentage),
				slog.Float64("speed", p.Speed))
			return
		}
		if err := e.notifier.Notify(ctx, n); err != nil {
			e.logger.Warn("progress notification failed",
				slog.String("job_id", job.ID),
				slog.String("error", err.Error()))
		}
	}
}

func removeSegments(segmentPattern string) error {
	dir := filepath.Dir(segmentPattern)
	segments, err := hls.CollectSegments(dir, segmentPattern)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, segment := range segments {
		if err := removeIfExists(filepath.Join(dir, segment)); err != nil {
			return err
		}
	}
	return nil
}

func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}
