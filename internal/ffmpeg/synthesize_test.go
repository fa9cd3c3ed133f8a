package ffmpeg

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hlsforge/internal/codec"
	"github.com/jmylchreest/hlsforge/internal/hls"
	"github.com/jmylchreest/hlsforge/internal/models"
)

func softwareSynthesizer() *Synthesizer {
	caps := &stubCapabilities{info: &BinaryInfo{
		Encoders: []string{"libx264", "libx265", "aac", "ac3"},
	}}
	return NewSynthesizer("ffmpeg", NewCodecResolver(caps, nil, slog.Default()))
}

func cudaSynthesizer() *Synthesizer {
	caps := &stubCapabilities{info: &BinaryInfo{
		Encoders: []string{"libx264", "h264_nvenc", "aac"},
	}}
	accels := []GpuAccelerator{{
		Kind:        codec.HWAccelCUDA,
		Name:        "NVIDIA GPU",
		GlobalFlags: []string{"-hwaccel", "cuda"},
	}}
	return NewSynthesizer("ffmpeg", NewCodecResolver(caps, accels, slog.Default()))
}

func sdrAnalysis() *models.StreamAnalysis {
	return &models.StreamAnalysis{
		Input: "movie.mkv",
		VideoStreams: []models.VideoStream{
			{Index: 0, Width: 1920, Height: 1080, Codec: "h264"},
		},
		AudioStreams: []models.AudioStream{
			{Index: 1, Language: "eng", Codec: "aac", Channels: 2},
		},
		Duration: 120,
	}
}

func hdrAnalysis() *models.StreamAnalysis {
	a := sdrAnalysis()
	a.VideoStreams[0] = models.VideoStream{
		Index: 0, Width: 3840, Height: 2160, Codec: "hevc", IsHDR: true,
		PixFmt: "yuv420p10le", ColorTransfer: "smpte2084",
	}
	return a
}

func TestBuildCombinedBasic(t *testing.T) {
	s := softwareSynthesizer()
	profile := &models.EncoderProfile{
		Container: models.ContainerHLS,
		VideoProfiles: []models.VideoProfile{
			{Codec: "h264", Bitrate: 6000, Preset: "medium", KeyframeInterval: 48},
		},
		AudioProfiles: []models.AudioProfile{
			{Codec: "aac", Bitrate: 128, Channels: 2},
		},
	}
	structure := &hls.OutputStructure{
		Mode:           models.OutputModeCombined,
		BasePath:       "/out",
		BaseName:       "movie",
		PlaylistPath:   "/out/movie.m3u8",
		SegmentPattern: "/out/movie_%05d.ts",
	}

	cmd := s.BuildCombined(context.Background(), sdrAnalysis(), profile, structure, models.DefaultSpecification(), BuildOptions{})
	args := strings.Join(cmd.Args, " ")

	assert.Contains(t, args, "-i movie.mkv")
	assert.Contains(t, args, "-map 0:v:0 -c:v:0 libx264")
	assert.Contains(t, args, "-b:v:0 6000k")
	assert.Contains(t, args, "-preset:v:0 medium")
	assert.Contains(t, args, "-g:v:0 48")
	assert.Contains(t, args, "-map 0:a:0 -c:a:0 aac")
	assert.Contains(t, args, "-b:a:0 128k")
	assert.Contains(t, args, "-ac:a:0 2")
	assert.Contains(t, args, "-f hls -hls_time 6 -hls_playlist_type vod")
	assert.Contains(t, args, "-hls_segment_filename /out/movie_%05d.ts /out/movie.m3u8")
	assert.Contains(t, args, "-progress pipe:1 -nostats")
	assert.Contains(t, args, "-y")
}

func TestBuildCombinedZeroOmission(t *testing.T) {
	s := softwareSynthesizer()
	profile := &models.EncoderProfile{
		Container:     models.ContainerHLS,
		VideoProfiles: []models.VideoProfile{{Codec: "h264", CRF: 23}},
		AudioProfiles: []models.AudioProfile{{Codec: "aac"}},
	}
	structure := &hls.OutputStructure{BasePath: "/out", BaseName: "movie",
		PlaylistPath: "/out/movie.m3u8", SegmentPattern: "/out/movie_%05d.ts"}

	cmd := s.BuildCombined(context.Background(), sdrAnalysis(), profile, structure, models.DefaultSpecification(), BuildOptions{})
	args := strings.Join(cmd.Args, " ")

	assert.Contains(t, args, "-crf:v:0 23")
	assert.NotContains(t, args, "-b:v")
	assert.NotContains(t, args, "-preset")
	assert.NotContains(t, args, "-g:v")
	assert.NotContains(t, args, "-r:v")
	assert.NotContains(t, args, "-filter:v")
	assert.NotContains(t, args, "-b:a")
	assert.NotContains(t, args, "-ac:")
	assert.NotContains(t, args, "-ar:")
}

func TestBuildCombinedTonemap(t *testing.T) {
	s := softwareSynthesizer()
	profile := &models.EncoderProfile{
		Container: models.ContainerHLS,
		VideoProfiles: []models.VideoProfile{
			{Codec: "h264", Width: 1920, Height: 1080, ConvertHDRToSDR: true},
		},
	}
	structure := &hls.OutputStructure{BasePath: "/out", BaseName: "movie",
		PlaylistPath: "/out/movie.m3u8", SegmentPattern: "/out/movie_%05d.ts"}

	cmd := s.BuildCombined(context.Background(), hdrAnalysis(), profile, structure, models.DefaultSpecification(), BuildOptions{})
	args := strings.Join(cmd.Args, " ")

	assert.Contains(t, args, "-filter:v:0 scale=1920:1080,"+TonemapChain)
}

func TestBuildCombinedTonemapSkippedForSDRSource(t *testing.T) {
	s := softwareSynthesizer()
	profile := &models.EncoderProfile{
		Container: models.ContainerHLS,
		VideoProfiles: []models.VideoProfile{
			{Codec: "h264", Width: 1280, Height: 720, ConvertHDRToSDR: true},
		},
	}
	structure := &hls.OutputStructure{BasePath: "/out", BaseName: "movie",
		PlaylistPath: "/out/movie.m3u8", SegmentPattern: "/out/movie_%05d.ts"}

	cmd := s.BuildCombined(context.Background(), sdrAnalysis(), profile, structure, models.DefaultSpecification(), BuildOptions{})
	args := strings.Join(cmd.Args, " ")

	assert.Contains(t, args, "-filter:v:0 scale=1280:720")
	assert.NotContains(t, args, "tonemap")
}

func TestBuildCombinedSubtitlesOnlyWhenPresent(t *testing.T) {
	s := softwareSynthesizer()
	profile := &models.EncoderProfile{
		Container:        models.ContainerMP4,
		VideoProfiles:    []models.VideoProfile{{Codec: "h264"}},
		SubtitleProfiles: []models.SubtitleProfile{{Codec: "mov_text"}},
	}
	structure := &hls.OutputStructure{BasePath: "/out", BaseName: "movie",
		Container: models.ContainerMP4, OutputPath: "/out/movie.mp4"}

	analysis := sdrAnalysis()
	cmd := s.BuildCombined(context.Background(), analysis, profile, structure, models.DefaultSpecification(), BuildOptions{})
	assert.NotContains(t, strings.Join(cmd.Args, " "), "0:s:")

	analysis.HasSubtitles = true
	cmd = s.BuildCombined(context.Background(), analysis, profile, structure, models.DefaultSpecification(), BuildOptions{})
	args := strings.Join(cmd.Args, " ")
	assert.Contains(t, args, "-map 0:s:0 -c:s:0 mov_text")
	assert.Contains(t, args, "-movflags +faststart")
	assert.Contains(t, args, "/out/movie.mp4")
}

func TestBuildCombinedSeekTrim(t *testing.T) {
	s := softwareSynthesizer()
	profile := &models.EncoderProfile{
		Container:     models.ContainerHLS,
		VideoProfiles: []models.VideoProfile{{Codec: "h264"}},
	}
	structure := &hls.OutputStructure{BasePath: "/out", BaseName: "movie",
		PlaylistPath: "/out/movie.m3u8", SegmentPattern: "/out/movie_%05d.ts"}

	cmd := s.BuildCombined(context.Background(), sdrAnalysis(), profile, structure, models.DefaultSpecification(),
		BuildOptions{Seek: 60, Duration: 30})
	args := strings.Join(cmd.Args, " ")

	assert.Contains(t, args, "-ss 60")
	assert.Contains(t, args, "-t 30")
}

func TestBuildCombinedHardwareFlags(t *testing.T) {
	s := cudaSynthesizer()
	profile := &models.EncoderProfile{
		Container:     models.ContainerHLS,
		VideoProfiles: []models.VideoProfile{{Codec: "h264"}},
	}
	structure := &hls.OutputStructure{BasePath: "/out", BaseName: "movie",
		PlaylistPath: "/out/movie.m3u8", SegmentPattern: "/out/movie_%05d.ts"}

	cmd := s.BuildCombined(context.Background(), sdrAnalysis(), profile, structure, models.DefaultSpecification(), BuildOptions{})
	args := strings.Join(cmd.Args, " ")

	assert.Contains(t, args, "-hwaccel cuda")
	assert.Contains(t, args, "-c:v:0 h264_nvenc")
}

func TestBuildSeparate(t *testing.T) {
	s := softwareSynthesizer()
	profile := &models.EncoderProfile{
		Container: models.ContainerHLS,
		VideoProfiles: []models.VideoProfile{
			{Codec: "h264", Bitrate: 6000, Preset: "fast"},
		},
		AudioProfiles: []models.AudioProfile{
			{Codec: "aac", Bitrate: 128},
		},
	}
	structure := &hls.OutputStructure{
		Mode:     models.OutputModeSeparateStreams,
		BasePath: "/out",
		BaseName: "movie",
		VideoOutputs: []hls.VideoOutput{{
			StreamIndex: 0, Width: 1920, Height: 1080,
			FolderName:     "video_1920x1080_SDR",
			PlaylistPath:   "/out/video_1920x1080_SDR/movie.m3u8",
			SegmentPattern: "/out/video_1920x1080_SDR/movie_%05d.ts",
		}},
		AudioOutputs: []hls.AudioOutput{{
			StreamIndex: 1, Language: "eng", Codec: codec.AudioAAC,
			FolderName:     "audio_eng_aac",
			PlaylistPath:   "/out/audio_eng_aac/movie.m3u8",
			SegmentPattern: "/out/audio_eng_aac/movie_%05d.ts",
		}},
	}

	cmd := s.BuildSeparate(context.Background(), sdrAnalysis(), profile, structure, models.DefaultSpecification())
	args := strings.Join(cmd.Args, " ")

	assert.Contains(t, args, "-filter_complex [0:v:0]scale=1920:1080[v0];[0:a:0]anull[a0]")
	assert.Contains(t, args, "-map [v0] -c:v libx264 -b:v 6000k -preset fast")
	assert.Contains(t, args, "-hls_segment_filename /out/video_1920x1080_SDR/movie_%05d.ts /out/video_1920x1080_SDR/movie.m3u8")
	assert.Contains(t, args, "-map [a0] -c:a aac -b:a 128k")
	assert.Contains(t, args, "-hls_segment_filename /out/audio_eng_aac/movie_%05d.ts /out/audio_eng_aac/movie.m3u8")
}

func TestBuildSeparateSplit(t *testing.T) {
	s := softwareSynthesizer()
	profile := &models.EncoderProfile{
		Container:     models.ContainerHLS,
		VideoProfiles: []models.VideoProfile{{Codec: "h264"}},
	}
	structure := &hls.OutputStructure{
		BasePath: "/out", BaseName: "movie",
		VideoOutputs: []hls.VideoOutput{
			{StreamIndex: 0, Width: 1920, Height: 1080,
				PlaylistPath:   "/out/video_1920x1080_SDR/movie.m3u8",
				SegmentPattern: "/out/video_1920x1080_SDR/movie_%05d.ts"},
			{StreamIndex: 0, Width: 1280, Height: 720,
				PlaylistPath:   "/out/video_1280x720_SDR/movie.m3u8",
				SegmentPattern: "/out/video_1280x720_SDR/movie_%05d.ts"},
		},
	}

	cmd := s.BuildSeparate(context.Background(), sdrAnalysis(), profile, structure, models.DefaultSpecification())
	args := strings.Join(cmd.Args, " ")

	assert.Contains(t, args, "[0:v:0]split=2[vin0][vin1]")
	assert.Contains(t, args, "[vin0]scale=1920:1080[v0]")
	assert.Contains(t, args, "[vin1]scale=1280:720[v1]")
}

func TestBuildSeparateTonemapMatchesCombined(t *testing.T) {
	s := softwareSynthesizer()
	profile := &models.EncoderProfile{
		Container: models.ContainerHLS,
		VideoProfiles: []models.VideoProfile{
			{Codec: "h264", Width: 1920, Height: 1080, ConvertHDRToSDR: true},
		},
	}
	structure := &hls.OutputStructure{
		BasePath: "/out", BaseName: "movie",
		VideoOutputs: []hls.VideoOutput{{
			StreamIndex: 0, Width: 3840, Height: 2160, IsHDR: true,
			PlaylistPath:   "/out/video_3840x2160_HDR/movie.m3u8",
			SegmentPattern: "/out/video_3840x2160_HDR/movie_%05d.ts",
		}},
	}

	cmd := s.BuildSeparate(context.Background(), hdrAnalysis(), profile, structure, models.DefaultSpecification())
	args := strings.Join(cmd.Args, " ")

	// The tonemap chain is byte-identical between the two synthesis modes.
	require.Contains(t, args, TonemapChain)
	assert.Contains(t, args, "[0:v:0]scale=1920:1080,"+TonemapChain+"[v0]")
}

func TestBuildSeparateAudioProfilePairing(t *testing.T) {
	s := softwareSynthesizer()
	profile := &models.EncoderProfile{
		Container: models.ContainerHLS,
		AudioProfiles: []models.AudioProfile{
			{Codec: "aac", Bitrate: 128, Language: "eng"},
			{Codec: "ac3", Bitrate: 384, Language: "fra"},
		},
	}
	structure := &hls.OutputStructure{
		BasePath: "/out", BaseName: "movie",
		AudioOutputs: []hls.AudioOutput{
			{StreamIndex: 1, Language: "fra", Codec: codec.AudioAC3,
				PlaylistPath:   "/out/audio_fra_ac3/movie.m3u8",
				SegmentPattern: "/out/audio_fra_ac3/movie_%05d.ts"},
		},
	}

	analysis := sdrAnalysis()
	analysis.AudioStreams = []models.AudioStream{{Index: 1, Language: "fra", Codec: "ac3"}}

	cmd := s.BuildSeparate(context.Background(), analysis, profile, structure, models.DefaultSpecification())
	args := strings.Join(cmd.Args, " ")

	// Language match wins over positional pairing.
	assert.Contains(t, args, "-c:a ac3 -b:a 384k")
}

func TestValidateExtraOptions(t *testing.T) {
	tests := []struct {
		name     string
		options  []string
		valid    bool
		warnings int
	}{
		{"clean options", []string{"-x264-params", "nal-hrd=cbr"}, true, 0},
		{"blocked input flag", []string{"-i", "evil.mkv"}, false, 0},
		{"blocked stream-specified map", []string{"-map:v", "0"}, false, 0},
		{"shell metacharacters", []string{"$(rm -rf /)"}, false, 0},
		{"warned codec override", []string{"-c:v", "libx265"}, true, 1},
		{"empty", nil, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateExtraOptions(tt.options)
			assert.Equal(t, tt.valid, result.Valid)
			assert.Len(t, result.Warnings, tt.warnings)
		})
	}
}
