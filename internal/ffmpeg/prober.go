package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/hlsforge/internal/codec"
	"github.com/jmylchreest/hlsforge/internal/models"
)

// ProbeResult contains the complete ffprobe output.
type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

// ProbeFormat contains container format information.
type ProbeFormat struct {
	Filename       string            `json:"filename"`
	NumStreams     int               `json:"nb_streams"`
	FormatName     string            `json:"format_name"`
	FormatLongName string            `json:"format_long_name"`
	StartTime      string            `json:"start_time"`
	Duration       string            `json:"duration"`
	Size           string            `json:"size"`
	BitRate        string            `json:"bit_rate"`
	Tags           map[string]string `json:"tags"`
}

// ProbeStream contains stream information.
type ProbeStream struct {
	Index          int               `json:"index"`
	CodecName      string            `json:"codec_name"`
	Profile        string            `json:"profile"`
	CodecType      string            `json:"codec_type"` // video, audio, subtitle, data
	Width          int               `json:"width,omitempty"`
	Height         int               `json:"height,omitempty"`
	PixFmt         string            `json:"pix_fmt,omitempty"`
	ColorRange     string            `json:"color_range,omitempty"`
	ColorSpace     string            `json:"color_space,omitempty"`
	ColorTransfer  string            `json:"color_transfer,omitempty"`
	ColorPrimaries string            `json:"color_primaries,omitempty"`
	SampleRate     string            `json:"sample_rate,omitempty"`
	Channels       int               `json:"channels,omitempty"`
	ChannelLayout  string            `json:"channel_layout,omitempty"`
	RFrameRate     string            `json:"r_frame_rate,omitempty"`
	AvgFrameRate   string            `json:"avg_frame_rate,omitempty"`
	Duration       string            `json:"duration,omitempty"`
	BitRate        string            `json:"bit_rate,omitempty"`
	Tags           map[string]string `json:"tags,omitempty"`
}

// Prober handles ffprobe operations.
type Prober struct {
	ffprobePath string
	timeout     time.Duration
}

// NewProber creates a new stream prober.
func NewProber(ffprobePath string) *Prober {
	return &Prober{
		ffprobePath: ffprobePath,
		timeout:     30 * time.Second,
	}
}

// WithTimeout sets the probe timeout.
func (p *Prober) WithTimeout(timeout time.Duration) *Prober {
	p.timeout = timeout
	return p
}

// Probe probes an input and returns the raw ffprobe result.
func (p *Prober) Probe(ctx context.Context, input string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
	}

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		args = append(args,
			"-reconnect", "1",
			"-reconnect_streamed", "1",
			"-reconnect_delay_max", "5",
		)
	}

	args = append(args, input)

	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("probe timeout after %v", p.timeout)
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	return &result, nil
}

// Analyze probes an input and converts the result into a StreamAnalysis.
func (p *Prober) Analyze(ctx context.Context, input string) (*models.StreamAnalysis, error) {
	result, err := p.Probe(ctx, input)
	if err != nil {
		return nil, err
	}
	analysis := result.ToAnalysis()
	analysis.Input = input
	return analysis, nil
}

// ToAnalysis converts a raw probe result into the engine's analysis shape.
// Codec names are normalized to canonical form and video streams are tagged
// HDR per the color-metadata heuristics.
func (r *ProbeResult) ToAnalysis() *models.StreamAnalysis {
	analysis := &models.StreamAnalysis{
		Input:    r.Format.Filename,
		Duration: r.DurationSeconds(),
	}

	for _, stream := range r.Streams {
		switch stream.CodecType {
		case "video":
			analysis.VideoStreams = append(analysis.VideoStreams, models.VideoStream{
				Index:         stream.Index,
				Width:         stream.Width,
				Height:        stream.Height,
				Codec:         codec.Normalize(stream.CodecName),
				IsHDR:         stream.IsHDR(),
				Framerate:     stream.Framerate(),
				PixFmt:        stream.PixFmt,
				ColorTransfer: stream.ColorTransfer,
				ColorSpace:    stream.ColorSpace,
			})
		case "audio":
			audio := models.AudioStream{
				Index:    stream.Index,
				Codec:    codec.Normalize(stream.CodecName),
				Channels: stream.Channels,
			}
			if lang, ok := stream.Tags["language"]; ok {
				audio.Language = lang
			}
			if sr, err := strconv.Atoi(stream.SampleRate); err == nil {
				audio.SampleRate = sr
			}
			analysis.AudioStreams = append(analysis.AudioStreams, audio)
		case "subtitle":
			analysis.HasSubtitles = true
			sub := models.SubtitleStream{
				Index: stream.Index,
				Codec: strings.ToLower(stream.CodecName),
			}
			if lang, ok := stream.Tags["language"]; ok {
				sub.Language = lang
			}
			analysis.SubtitleStreams = append(analysis.SubtitleStreams, sub)
		}
	}

	return analysis
}

// IsHDR reports whether the stream carries HDR color metadata: a PQ or HLG
// transfer function, a BT.2020 non-constant color space, or a 10-bit pixel
// format.
func (s *ProbeStream) IsHDR() bool {
	switch strings.ToLower(s.ColorTransfer) {
	case "smpte2084", "arib-std-b67":
		return true
	}
	if strings.EqualFold(s.ColorSpace, "bt2020nc") {
		return true
	}
	return strings.Contains(s.PixFmt, "10")
}

// Framerate returns the frame rate for a video stream, preferring the
// average over the raw rate.
func (s *ProbeStream) Framerate() float64 {
	if s.AvgFrameRate != "" {
		if f := parseFramerate(s.AvgFrameRate); f > 0 {
			return f
		}
	}
	if s.RFrameRate != "" {
		return parseFramerate(s.RFrameRate)
	}
	return 0
}

// parseFramerate parses a framerate string like "30000/1001" or "25/1".
func parseFramerate(fr string) float64 {
	parts := strings.Split(fr, "/")
	if len(parts) != 2 {
		if f, err := strconv.ParseFloat(fr, 64); err == nil {
			return f
		}
		return 0
	}

	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}

	return num / den
}

// DurationSeconds returns the container duration in seconds.
func (r *ProbeResult) DurationSeconds() float64 {
	if r.Format.Duration == "" {
		return 0
	}
	dur, err := strconv.ParseFloat(r.Format.Duration, 64)
	if err != nil {
		return 0
	}
	return dur
}

// GetVideoStream returns the first video stream from the probe result.
func (r *ProbeResult) GetVideoStream() *ProbeStream {
	for i := range r.Streams {
		if r.Streams[i].CodecType == "video" {
			return &r.Streams[i]
		}
	}
	return nil
}

// GetAudioStream returns the first audio stream from the probe result.
func (r *ProbeResult) GetAudioStream() *ProbeStream {
	for i := range r.Streams {
		if r.Streams[i].CodecType == "audio" {
			return &r.Streams[i]
		}
	}
	return nil
}
