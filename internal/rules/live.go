package rules

import (
	"github.com/jmylchreest/hlsforge/internal/config"
	"github.com/jmylchreest/hlsforge/internal/models"
)

// livePreset is forced on live jobs so encoding keeps up with realtime.
const livePreset = "veryfast"

// LiveOptions carries the low-latency overrides for a live transcode.
type LiveOptions struct {
	// Preset overrides the profile preset.
	Preset string `json:"preset"`

	// SegmentDuration shortens segments for lower latency, in seconds.
	SegmentDuration int `json:"segment_duration"`

	// PlaylistSize bounds the sliding playlist window, in segments.
	PlaylistSize int `json:"playlist_size"`

	// SpeedFloor is the encode speed below which operators are warned
	// (1.0 = realtime).
	SpeedFloor float64 `json:"speed_floor"`
}

func (LiveOptions) actionOptions() {}

// LiveStreamRule emits low-latency overrides for jobs tagged live.
type LiveStreamRule struct {
	cfg config.LiveConfig
}

// NewLiveStreamRule creates the rule over the configured live parameters.
func NewLiveStreamRule(cfg config.LiveConfig) *LiveStreamRule {
	return &LiveStreamRule{cfg: cfg}
}

func (r *LiveStreamRule) Name() string { return "live-stream" }

// AppliesTo matches jobs tagged as live transcodes.
func (r *LiveStreamRule) AppliesTo(job *models.Job) bool {
	return job.IsLive()
}

// Actions emits the live configuration override.
func (r *LiveStreamRule) Actions(job *models.Job) []Action {
	return []Action{{
		Type: ActionConfigureLive,
		Name: "live transcode overrides",
		Options: LiveOptions{
			Preset:          livePreset,
			SegmentDuration: r.cfg.SegmentDuration,
			PlaylistSize:    r.cfg.PlaylistSize,
			SpeedFloor:      r.cfg.SpeedFloor,
		},
	}}
}
