package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmylchreest/hlsforge/internal/codec"
	"github.com/jmylchreest/hlsforge/internal/hls"
	"github.com/jmylchreest/hlsforge/internal/models"
)

// TonemapChain is the fixed HDR to SDR filter chain: linear light, hable
// tone mapping, back to limited-range BT.709, 8-bit planar output. It is
// byte-identical between combined and separate-stream synthesis so visual
// output does not depend on which mode produced it.
const TonemapChain = "zscale=t=linear:npl=100,tonemap=hable:desat=0,zscale=p=bt709:t=bt709:m=bt709:r=tv,format=yuv420p"

// BuildOptions carries per-invocation tweaks for combined builds.
type BuildOptions struct {
	// Seek skips to the offset (seconds) before the input.
	Seek float64

	// Duration trims the encode to this length (seconds).
	Duration float64
}

// Synthesizer builds complete transcoder invocations. Synthesis is total:
// it always produces a command, degrading codec choices rather than failing.
type Synthesizer struct {
	ffmpegPath string
	resolver   *CodecResolver
}

// NewSynthesizer creates a synthesizer bound to an ffmpeg binary and a
// codec resolver.
func NewSynthesizer(ffmpegPath string, resolver *CodecResolver) *Synthesizer {
	return &Synthesizer{
		ffmpegPath: ffmpegPath,
		resolver:   resolver,
	}
}

// BuildCombined synthesizes a single-output invocation: every configured
// track is mapped into one container.
func (s *Synthesizer) BuildCombined(ctx context.Context, analysis *models.StreamAnalysis, profile *models.EncoderProfile, structure *hls.OutputStructure, spec models.Specification, opts BuildOptions) *Command {
	b := s.newBuilder(opts)
	b.Input(analysis.Input)

	for i, vp := range profile.VideoProfiles {
		s.appendVideoTrack(ctx, b, i, vp, analysis)
	}
	for i, ap := range profile.AudioProfiles {
		s.appendAudioTrack(ctx, b, i, ap, analysis)
	}
	if analysis.HasSubtitles {
		for i, sp := range profile.SubtitleProfiles {
			b.OutputArgs("-map", fmt.Sprintf("0:s:%d", i))
			b.OutputArgs(fmt.Sprintf("-c:s:%d", i), sp.Codec)
		}
	}

	s.appendContainerTrailer(b, profile.Container, structure, spec)
	return b.Build()
}

// BuildSeparate synthesizes a separate-stream invocation: one process fans
// out to every planned rendition through a filter graph, each rendition
// segmenting into its own folder. HLS only.
func (s *Synthesizer) BuildSeparate(ctx context.Context, analysis *models.StreamAnalysis, profile *models.EncoderProfile, structure *hls.OutputStructure, spec models.Specification) *Command {
	b := s.newBuilder(BuildOptions{})
	b.Input(analysis.Input)
	b.FilterComplex(s.buildFilterGraph(analysis, profile, structure))

	for i, out := range structure.VideoOutputs {
		vp := videoProfileFor(profile, i)

		b.OutputArgs("-map", fmt.Sprintf("[v%d]", i))
		b.OutputArgs("-c:v", s.resolver.Resolve(ctx, vp.Codec))
		if vp.Bitrate > 0 {
			b.OutputArgs("-b:v", fmt.Sprintf("%dk", vp.Bitrate))
		}
		if vp.CRF > 0 {
			b.OutputArgs("-crf", strconv.Itoa(vp.CRF))
		}
		if vp.Preset != "" {
			b.OutputArgs("-preset", vp.Preset)
		}
		if vp.Profile != "" {
			b.OutputArgs("-profile:v", vp.Profile)
		}
		if vp.KeyframeInterval > 0 {
			b.OutputArgs("-g", strconv.Itoa(vp.KeyframeInterval))
		}
		b.OutputArgs(vp.ExtraOptions...)

		s.appendHLSOutput(b, spec, out.SegmentPattern, out.PlaylistPath)
	}

	for i, out := range structure.AudioOutputs {
		ap := audioProfileFor(profile, out.Language, i)

		b.OutputArgs("-map", fmt.Sprintf("[a%d]", i))
		b.OutputArgs("-c:a", s.resolver.Resolve(ctx, ap.Codec))
		if ap.Bitrate > 0 {
			b.OutputArgs("-b:a", fmt.Sprintf("%dk", ap.Bitrate))
		}
		if ap.Channels > 0 {
			b.OutputArgs("-ac", strconv.Itoa(ap.Channels))
		}
		if ap.SampleRate > 0 {
			b.OutputArgs("-ar", strconv.Itoa(ap.SampleRate))
		}
		b.OutputArgs(ap.ExtraOptions...)

		s.appendHLSOutput(b, spec, out.SegmentPattern, out.PlaylistPath)
	}

	return b.Build()
}

// newBuilder applies the options common to both modes: large probe buffers,
// host-core threading, accelerator flags, machine-readable progress,
// overwrite, and optional seek/trim.
func (s *Synthesizer) newBuilder(opts BuildOptions) *CommandBuilder {
	b := NewCommandBuilder(s.ffmpegPath).
		HideBanner().
		Threads(hostCoreCount()).
		Progress().
		Overwrite().
		AnalyzeBuffers()

	if flags := s.resolver.AcceleratorFlags(); len(flags) > 0 {
		b.InputArgs(flags...)
	}
	b.Seek(opts.Seek)
	b.Trim(opts.Duration)
	return b
}

// appendVideoTrack emits the map and per-stream encode options for one
// video profile in combined mode. Zero-valued numeric fields never emit.
func (s *Synthesizer) appendVideoTrack(ctx context.Context, b *CommandBuilder, idx int, vp models.VideoProfile, analysis *models.StreamAnalysis) {
	b.OutputArgs("-map", "0:v:0")
	b.OutputArgs(fmt.Sprintf("-c:v:%d", idx), s.resolver.Resolve(ctx, vp.Codec))

	if vp.Bitrate > 0 {
		b.OutputArgs(fmt.Sprintf("-b:v:%d", idx), fmt.Sprintf("%dk", vp.Bitrate))
	}
	if vp.CRF > 0 {
		b.OutputArgs(fmt.Sprintf("-crf:v:%d", idx), strconv.Itoa(vp.CRF))
	}
	if vp.Preset != "" {
		b.OutputArgs(fmt.Sprintf("-preset:v:%d", idx), vp.Preset)
	}
	if vp.Profile != "" {
		b.OutputArgs(fmt.Sprintf("-profile:v:%d", idx), vp.Profile)
	}
	if vp.Tune != "" {
		b.OutputArgs(fmt.Sprintf("-tune:v:%d", idx), vp.Tune)
	}
	if vp.Level != "" {
		b.OutputArgs(fmt.Sprintf("-level:v:%d", idx), vp.Level)
	}

	if filter := videoFilterChain(vp, analysis.PrimaryVideo()); filter != "" {
		b.OutputArgs(fmt.Sprintf("-filter:v:%d", idx), filter)
	}

	if vp.Framerate > 0 {
		b.OutputArgs(fmt.Sprintf("-r:v:%d", idx), strconv.FormatFloat(vp.Framerate, 'f', -1, 64))
	}
	if vp.KeyframeInterval > 0 {
		b.OutputArgs(fmt.Sprintf("-g:v:%d", idx), strconv.Itoa(vp.KeyframeInterval))
	}
	b.OutputArgs(vp.ExtraOptions...)
}

// appendAudioTrack emits the map and per-stream encode options for one
// audio profile in combined mode.
func (s *Synthesizer) appendAudioTrack(ctx context.Context, b *CommandBuilder, idx int, ap models.AudioProfile, analysis *models.StreamAnalysis) {
	source := idx
	if source >= len(analysis.AudioStreams) {
		source = 0
	}
	b.OutputArgs("-map", fmt.Sprintf("0:a:%d", source))
	b.OutputArgs(fmt.Sprintf("-c:a:%d", idx), s.resolver.Resolve(ctx, ap.Codec))

	if ap.Bitrate > 0 {
		b.OutputArgs(fmt.Sprintf("-b:a:%d", idx), fmt.Sprintf("%dk", ap.Bitrate))
	}
	if ap.Channels > 0 {
		b.OutputArgs(fmt.Sprintf("-ac:a:%d", idx), strconv.Itoa(ap.Channels))
	}
	if ap.SampleRate > 0 {
		b.OutputArgs(fmt.Sprintf("-ar:a:%d", idx), strconv.Itoa(ap.SampleRate))
	}
	b.OutputArgs(ap.ExtraOptions...)
}

// appendContainerTrailer emits the container-specific output options and
// path: HLS segmenting, MP4 faststart, or a generic container extension.
func (s *Synthesizer) appendContainerTrailer(b *CommandBuilder, container string, structure *hls.OutputStructure, spec models.Specification) {
	switch strings.ToLower(container) {
	case models.ContainerHLS, "":
		s.appendHLSOutput(b, spec, structure.SegmentPattern, structure.PlaylistPath)
	case models.ContainerMP4:
		b.OutputArgs("-movflags", "+faststart")
		b.OutputArgs(structure.OutputPath)
	case models.ContainerMPEGTS:
		b.OutputArgs("-f", "mpegts")
		b.OutputArgs(structure.OutputPath)
	default:
		b.OutputArgs(structure.OutputPath)
	}
}

// appendHLSOutput emits the HLS segmenting directives for one output.
func (s *Synthesizer) appendHLSOutput(b *CommandBuilder, spec models.Specification, segmentPattern, playlistPath string) {
	b.OutputArgs("-f", "hls")
	b.OutputArgs("-hls_time", strconv.Itoa(spec.SegmentDuration))
	if spec.IsVOD() {
		b.OutputArgs("-hls_playlist_type", "vod")
	}
	b.OutputArgs("-hls_segment_filename", segmentPattern)
	b.OutputArgs(playlistPath)
}

// videoFilterChain builds the combined-mode per-stream filter: scale when
// the profile fixes a resolution, tonemap when it asks for SDR and the
// source carries HDR.
func videoFilterChain(vp models.VideoProfile, src *models.VideoStream) string {
	var filters []string
	if vp.Width > 0 && vp.Height > 0 {
		filters = append(filters, fmt.Sprintf("scale=%d:%d", vp.Width, vp.Height))
	}
	if vp.ConvertHDRToSDR && src != nil && src.IsHDR {
		filters = append(filters, TonemapChain)
	}
	return strings.Join(filters, ",")
}

// buildFilterGraph constructs the separate-stream fan-out: one split per
// source video stream feeding per-rendition scale (and tonemap) chains, and
// a labeled pass-through per audio rendition.
func (s *Synthesizer) buildFilterGraph(analysis *models.StreamAnalysis, profile *models.EncoderProfile, structure *hls.OutputStructure) string {
	var parts []string

	n := len(structure.VideoOutputs)
	if n > 1 {
		var labels strings.Builder
		for i := range structure.VideoOutputs {
			fmt.Fprintf(&labels, "[vin%d]", i)
		}
		parts = append(parts, fmt.Sprintf("[0:v:0]split=%d%s", n, labels.String()))
	}

	for i, out := range structure.VideoOutputs {
		vp := videoProfileFor(profile, i)

		in := "[0:v:0]"
		if n > 1 {
			in = fmt.Sprintf("[vin%d]", i)
		}

		width, height := vp.Width, vp.Height
		if width == 0 || height == 0 {
			width, height = out.Width, out.Height
		}

		chain := fmt.Sprintf("scale=%d:%d", width, height)
		if vp.ConvertHDRToSDR && out.IsHDR {
			chain += "," + TonemapChain
		}
		parts = append(parts, fmt.Sprintf("%s%s[v%d]", in, chain, i))
	}

	for i, out := range structure.AudioOutputs {
		parts = append(parts, fmt.Sprintf("[0:a:%d]anull[a%d]", audioSourceIndex(analysis, out.StreamIndex), i))
	}

	return strings.Join(parts, ";")
}

// audioSourceIndex converts a container stream index into the input's
// audio-relative index used by map specifiers.
func audioSourceIndex(analysis *models.StreamAnalysis, streamIndex int) int {
	for i, as := range analysis.AudioStreams {
		if as.Index == streamIndex {
			return i
		}
	}
	return 0
}

// videoProfileFor pairs a planned rendition with its configured profile.
// Extra renditions reuse the last profile.
func videoProfileFor(profile *models.EncoderProfile, i int) models.VideoProfile {
	if len(profile.VideoProfiles) == 0 {
		return models.VideoProfile{Codec: string(codec.VideoH264)}
	}
	if i >= len(profile.VideoProfiles) {
		i = len(profile.VideoProfiles) - 1
	}
	return profile.VideoProfiles[i]
}

// audioProfileFor pairs a planned audio rendition with a configured profile,
// preferring a language match over positional pairing.
func audioProfileFor(profile *models.EncoderProfile, language string, i int) models.AudioProfile {
	for _, ap := range profile.AudioProfiles {
		if ap.Language != "" && ap.Language == language {
			return ap
		}
	}
	if len(profile.AudioProfiles) == 0 {
		return models.AudioProfile{Codec: string(codec.AudioAAC)}
	}
	if i >= len(profile.AudioProfiles) {
		i = len(profile.AudioProfiles) - 1
	}
	return profile.AudioProfiles[i]
}
