package models

// VideoStream describes one probed video stream.
type VideoStream struct {
	// Index is the stream index within the input container.
	Index int `json:"index"`

	// Width and Height are the coded picture dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Codec is the canonical codec name (h264, h265, ...).
	Codec string `json:"codec"`

	// IsHDR is set when the stream carries HDR color metadata.
	IsHDR bool `json:"is_hdr"`

	// Framerate is the average frame rate in frames per second.
	Framerate float64 `json:"framerate,omitempty"`

	// PixFmt is the pixel format reported by the prober (yuv420p10le, ...).
	PixFmt string `json:"pix_fmt,omitempty"`

	// ColorTransfer is the transfer characteristic (smpte2084, arib-std-b67, ...).
	ColorTransfer string `json:"color_transfer,omitempty"`

	// ColorSpace is the color space (bt709, bt2020nc, ...).
	ColorSpace string `json:"color_space,omitempty"`
}

// AudioStream describes one probed audio stream.
type AudioStream struct {
	// Index is the stream index within the input container.
	Index int `json:"index"`

	// Language is the ISO 639 language tag, empty when the input carries none.
	Language string `json:"language,omitempty"`

	// Codec is the canonical codec name (aac, ac3, ...).
	Codec string `json:"codec"`

	// Channels is the channel count.
	Channels int `json:"channels"`

	// SampleRate is the sample rate in Hz.
	SampleRate int `json:"sample_rate,omitempty"`
}

// SubtitleStream describes one probed subtitle stream.
type SubtitleStream struct {
	// Index is the stream index within the input container.
	Index int `json:"index"`

	// Codec is the subtitle codec name (subrip, ass, hdmv_pgs_subtitle, ...).
	Codec string `json:"codec"`

	// Language is the ISO 639 language tag, empty when the input carries none.
	Language string `json:"language,omitempty"`
}

// StreamAnalysis is the probed description of one input file.
// It is produced by the prober, owned by the caller, and read-only to the
// planning and synthesis layers.
type StreamAnalysis struct {
	// Input is the probed path or URL.
	Input string `json:"input"`

	VideoStreams    []VideoStream    `json:"video_streams"`
	AudioStreams    []AudioStream    `json:"audio_streams"`
	SubtitleStreams []SubtitleStream `json:"subtitle_streams,omitempty"`

	// HasSubtitles reports whether any subtitle stream is present.
	HasSubtitles bool `json:"has_subtitles"`

	// Duration is the container duration in seconds.
	Duration float64 `json:"duration"`
}

// HasVideo reports whether the analysis contains at least one video stream.
func (a *StreamAnalysis) HasVideo() bool {
	return len(a.VideoStreams) > 0
}

// HasAudio reports whether the analysis contains at least one audio stream.
func (a *StreamAnalysis) HasAudio() bool {
	return len(a.AudioStreams) > 0
}

// PrimaryVideo returns the first video stream, or nil when there is none.
func (a *StreamAnalysis) PrimaryVideo() *VideoStream {
	if len(a.VideoStreams) == 0 {
		return nil
	}
	return &a.VideoStreams[0]
}
