package models

import (
	"fmt"
	"strings"
)

// Container format names accepted by EncoderProfile.
const (
	ContainerHLS    = "hls"
	ContainerMP4    = "mp4"
	ContainerMPEGTS = "mpegts"
	ContainerMKV    = "mkv"
	ContainerWebM   = "webm"
)

// validContainers is the set of recognized container names.
// An empty container defaults to HLS at synthesis time.
var validContainers = map[string]bool{
	ContainerHLS:    true,
	ContainerMP4:    true,
	ContainerMPEGTS: true,
	ContainerMKV:    true,
	ContainerWebM:   true,
}

// VideoProfile configures one video rendition.
// Zero is the sentinel for "unset" on every numeric field: a zero bitrate,
// CRF, dimension, framerate, or keyframe interval never emits a flag.
type VideoProfile struct {
	// Codec is the target codec name (h264, h265, ...). Resolved to a
	// concrete encoder at synthesis time.
	Codec string `mapstructure:"codec" json:"codec"`

	// Bitrate is the target video bitrate in kilobits per second.
	Bitrate int `mapstructure:"bitrate" json:"bitrate,omitempty"`

	// Width and Height select the output resolution. Both must be set for a
	// scale filter to be emitted.
	Width  int `mapstructure:"width" json:"width,omitempty"`
	Height int `mapstructure:"height" json:"height,omitempty"`

	// Framerate forces an output frame rate.
	Framerate float64 `mapstructure:"framerate" json:"framerate,omitempty"`

	// Preset, Profile, Tune and Level are passed through to the encoder
	// when non-empty.
	Preset  string `mapstructure:"preset" json:"preset,omitempty"`
	Profile string `mapstructure:"profile" json:"profile,omitempty"`
	Tune    string `mapstructure:"tune" json:"tune,omitempty"`
	Level   string `mapstructure:"level" json:"level,omitempty"`

	// CRF is the constant rate factor quality setting.
	CRF int `mapstructure:"crf" json:"crf,omitempty"`

	// KeyframeInterval bounds the distance between forced keyframes, which
	// in turn bounds HLS segment cut points.
	KeyframeInterval int `mapstructure:"keyframe_interval" json:"keyframe_interval,omitempty"`

	// ConvertHDRToSDR requests the tonemap filter chain when the source
	// stream is HDR.
	ConvertHDRToSDR bool `mapstructure:"convert_hdr_to_sdr" json:"convert_hdr_to_sdr,omitempty"`

	// ExtraOptions are free-form tokens appended after the generated flags.
	ExtraOptions []string `mapstructure:"extra_options" json:"extra_options,omitempty"`

	// AllowedLanguages filters which source languages this rendition keeps.
	AllowedLanguages []string `mapstructure:"allowed_languages" json:"allowed_languages,omitempty"`
}

// AudioProfile configures one audio rendition. Zero numeric fields are unset.
type AudioProfile struct {
	Codec string `mapstructure:"codec" json:"codec"`

	// Bitrate is the target audio bitrate in kilobits per second.
	Bitrate int `mapstructure:"bitrate" json:"bitrate,omitempty"`

	Channels   int    `mapstructure:"channels" json:"channels,omitempty"`
	SampleRate int    `mapstructure:"sample_rate" json:"sample_rate,omitempty"`
	Language   string `mapstructure:"language" json:"language,omitempty"`

	ExtraOptions []string `mapstructure:"extra_options" json:"extra_options,omitempty"`
}

// SubtitleProfile configures one subtitle track. Subtitle options are only
// emitted when the stream analysis reports subtitles present.
type SubtitleProfile struct {
	Codec    string `mapstructure:"codec" json:"codec"`
	Language string `mapstructure:"language" json:"language,omitempty"`
}

// EncoderProfile is the declarative description of what to produce:
// a container plus ordered per-track rendition configs. It is owned by
// configuration storage and read-only to the engine.
type EncoderProfile struct {
	// Container selects the output trailer: hls, mp4, mpegts, mkv, webm.
	// Empty defaults to hls.
	Container string `mapstructure:"container" json:"container,omitempty"`

	VideoProfiles    []VideoProfile    `mapstructure:"video_profiles" json:"video_profiles,omitempty"`
	AudioProfiles    []AudioProfile    `mapstructure:"audio_profiles" json:"audio_profiles,omitempty"`
	SubtitleProfiles []SubtitleProfile `mapstructure:"subtitle_profiles" json:"subtitle_profiles,omitempty"`
}

// Validate checks the profile for configuration errors.
func (p *EncoderProfile) Validate() error {
	if len(p.VideoProfiles) == 0 && len(p.AudioProfiles) == 0 {
		return ConfigurationError{
			Field:   "video_profiles",
			Message: "profile must configure at least one video or audio rendition",
		}
	}
	if p.Container != "" && !validContainers[strings.ToLower(p.Container)] {
		return ConfigurationError{
			Field:   "container",
			Message: fmt.Sprintf("unknown container %q", p.Container),
		}
	}
	for i, v := range p.VideoProfiles {
		if v.Codec == "" {
			return ConfigurationError{
				Field:   fmt.Sprintf("video_profiles[%d].codec", i),
				Message: "codec is required",
			}
		}
	}
	for i, a := range p.AudioProfiles {
		if a.Codec == "" {
			return ConfigurationError{
				Field:   fmt.Sprintf("audio_profiles[%d].codec", i),
				Message: "codec is required",
			}
		}
	}
	return nil
}

// WantsSDR reports whether the profile requests HDR to SDR conversion on any
// video rendition.
func (p *EncoderProfile) WantsSDR() bool {
	for _, v := range p.VideoProfiles {
		if v.ConvertHDRToSDR {
			return true
		}
	}
	return false
}
