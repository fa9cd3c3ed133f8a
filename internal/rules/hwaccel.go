package rules

import (
	"github.com/jmylchreest/hlsforge/internal/codec"
	"github.com/jmylchreest/hlsforge/internal/models"
)

// HardwareAccelOptions carries the accelerator hint tables for the
// executor's encoder setup.
type HardwareAccelOptions struct {
	// Priority is the accelerator preference order.
	Priority []codec.HWAccel `json:"priority"`

	// CodecAccels maps each video codec to the accelerators able to encode it.
	CodecAccels map[codec.Video][]codec.HWAccel `json:"codec_accels"`

	// PresetEquivalence maps software x264 preset names to their NVENC
	// equivalents.
	PresetEquivalence map[string]string `json:"preset_equivalence"`

	// LiveCapable is the subset of accelerators fast enough for realtime
	// transcoding.
	LiveCapable []codec.HWAccel `json:"live_capable"`
}

func (HardwareAccelOptions) actionOptions() {}

// HardwareAccelRule emits the static acceleration hint tables for any job
// that encodes video.
type HardwareAccelRule struct{}

// NewHardwareAccelRule creates the rule.
func NewHardwareAccelRule() *HardwareAccelRule {
	return &HardwareAccelRule{}
}

func (r *HardwareAccelRule) Name() string { return "hardware-accel" }

// AppliesTo matches any job with at least one video profile.
func (r *HardwareAccelRule) AppliesTo(job *models.Job) bool {
	return len(job.Profile.VideoProfiles) > 0
}

// Actions emits one hint action with the complete tables.
func (r *HardwareAccelRule) Actions(job *models.Job) []Action {
	return []Action{{
		Type: ActionConfigureAccel,
		Name: "hardware acceleration hints",
		Options: HardwareAccelOptions{
			Priority: []codec.HWAccel{
				codec.HWAccelCUDA,
				codec.HWAccelQSV,
				codec.HWAccelAMF,
				codec.HWAccelVT,
			},
			CodecAccels: map[codec.Video][]codec.HWAccel{
				codec.VideoH264: {codec.HWAccelCUDA, codec.HWAccelQSV, codec.HWAccelAMF, codec.HWAccelVT},
				codec.VideoH265: {codec.HWAccelCUDA, codec.HWAccelQSV, codec.HWAccelAMF, codec.HWAccelVT},
				codec.VideoVP9:  {codec.HWAccelQSV},
				codec.VideoAV1:  {codec.HWAccelCUDA, codec.HWAccelQSV, codec.HWAccelAMF},
			},
			PresetEquivalence: map[string]string{
				"ultrafast": "p1",
				"superfast": "p2",
				"veryfast":  "p3",
				"faster":    "p3",
				"fast":      "p4",
				"medium":    "p4",
				"slow":      "p5",
				"slower":    "p6",
				"veryslow":  "p7",
			},
			LiveCapable: []codec.HWAccel{codec.HWAccelCUDA, codec.HWAccelQSV},
		},
	}}
}
