package models

import "fmt"

// OutputMode selects how renditions are laid out on disk.
type OutputMode string

const (
	// OutputModeCombined produces a single output with all configured tracks
	// muxed together.
	OutputModeCombined OutputMode = "combined"

	// OutputModeSeparateStreams produces one folder, playlist, and segment
	// set per rendition, fanned out from one process via a filter graph.
	OutputModeSeparateStreams OutputMode = "separate_streams"
)

// IsValid returns true for a recognized output mode.
func (m OutputMode) IsValid() bool {
	switch m {
	case OutputModeCombined, OutputModeSeparateStreams:
		return true
	default:
		return false
	}
}

// Playlist type values for Specification.PlaylistType.
const (
	PlaylistTypeVOD   = "VOD"
	PlaylistTypeEvent = "EVENT"
)

// Specification carries the playlist-level HLS parameters for one job.
type Specification struct {
	// Version is the EXT-X-VERSION value.
	Version int `mapstructure:"version" json:"version"`

	// TargetDuration is the EXT-X-TARGETDURATION value in seconds.
	TargetDuration int `mapstructure:"target_duration" json:"target_duration"`

	// SegmentDuration is the nominal segment length in seconds, written as
	// the EXTINF value for every segment.
	SegmentDuration int `mapstructure:"segment_duration" json:"segment_duration"`

	// PlaylistType is VOD or EVENT. VOD playlists are closed with ENDLIST.
	PlaylistType string `mapstructure:"playlist_type" json:"playlist_type"`

	// IndependentSegments emits EXT-X-INDEPENDENT-SEGMENTS when set.
	IndependentSegments bool `mapstructure:"independent_segments" json:"independent_segments,omitempty"`

	// MediaSequence is the EXT-X-MEDIA-SEQUENCE start value.
	MediaSequence int `mapstructure:"media_sequence" json:"media_sequence,omitempty"`
}

// DefaultSpecification returns the safe defaults: version 3, 10 second
// target duration, 6 second segments, VOD.
func DefaultSpecification() Specification {
	return Specification{
		Version:         3,
		TargetDuration:  10,
		SegmentDuration: 6,
		PlaylistType:    PlaylistTypeVOD,
	}
}

// IsVOD reports whether the playlist type is VOD.
func (s Specification) IsVOD() bool {
	return s.PlaylistType == PlaylistTypeVOD
}

// Validate checks the specification for configuration errors.
func (s Specification) Validate() error {
	if s.Version <= 0 {
		return ConfigurationError{Field: "version", Message: "version must be positive"}
	}
	if s.TargetDuration <= 0 {
		return ConfigurationError{Field: "target_duration", Message: "target duration must be positive"}
	}
	if s.SegmentDuration <= 0 {
		return ConfigurationError{Field: "segment_duration", Message: "segment duration must be positive"}
	}
	if s.SegmentDuration > s.TargetDuration {
		return ConfigurationError{
			Field:   "segment_duration",
			Message: fmt.Sprintf("segment duration %d exceeds target duration %d", s.SegmentDuration, s.TargetDuration),
		}
	}
	if s.PlaylistType != PlaylistTypeVOD && s.PlaylistType != PlaylistTypeEvent {
		return ConfigurationError{
			Field:   "playlist_type",
			Message: fmt.Sprintf("playlist type must be %s or %s", PlaylistTypeVOD, PlaylistTypeEvent),
		}
	}
	return nil
}
