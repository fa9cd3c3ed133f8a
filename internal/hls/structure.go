// Package hls plans deterministic output structures and renders master and
// media playlists.
package hls

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/hlsforge/internal/codec"
	"github.com/jmylchreest/hlsforge/internal/models"
)

// VideoOutput is one planned video rendition: where its playlist and
// segments live and which source stream feeds it.
type VideoOutput struct {
	// StreamIndex is the source stream this rendition reads from.
	StreamIndex int `json:"stream_index"`

	// Rendition identity. Folder and file names are pure functions of it.
	Width  int  `json:"width"`
	Height int  `json:"height"`
	IsHDR  bool `json:"is_hdr"`

	FolderName   string `json:"folder_name"`
	FolderPath   string `json:"folder_path"`
	PlaylistName string `json:"playlist_name"`
	PlaylistPath string `json:"playlist_path"`

	// SegmentPattern is the ffmpeg segment filename pattern inside the folder.
	SegmentPattern string `json:"segment_pattern"`
}

// AudioOutput is one planned audio rendition.
type AudioOutput struct {
	StreamIndex int `json:"stream_index"`

	Language string      `json:"language"`
	Codec    codec.Audio `json:"codec"`
	Channels int         `json:"channels"`

	FolderName     string `json:"folder_name"`
	FolderPath     string `json:"folder_path"`
	PlaylistName   string `json:"playlist_name"`
	PlaylistPath   string `json:"playlist_path"`
	SegmentPattern string `json:"segment_pattern"`
}

// OutputStructure is the planned on-disk layout for one job. It is built
// once by the planner and read thereafter.
type OutputStructure struct {
	Mode     models.OutputMode `json:"mode"`
	BasePath string            `json:"base_path"`
	BaseName string            `json:"base_name"`

	// MasterPlaylistPath is where the master playlist lands
	// (separate-streams mode).
	MasterPlaylistPath string `json:"master_playlist_path,omitempty"`

	// Container is the combined-mode output container, normalized to
	// lower case. Empty for separate-streams mode, which is always HLS.
	Container string `json:"container,omitempty"`

	// Combined-mode HLS output: one playlist and segment set under BasePath.
	PlaylistPath   string `json:"playlist_path,omitempty"`
	SegmentPattern string `json:"segment_pattern,omitempty"`

	// OutputPath is the single output file for combined non-HLS containers.
	OutputPath string `json:"output_path,omitempty"`

	VideoOutputs []VideoOutput `json:"video_outputs,omitempty"`
	AudioOutputs []AudioOutput `json:"audio_outputs,omitempty"`
}

// containerExtension maps a container name to its file extension.
func containerExtension(container string) string {
	if container == models.ContainerMPEGTS {
		return "ts"
	}
	return container
}

// VideoFolderName returns the folder name for a video rendition identity.
// Identical identity always yields the identical name.
func VideoFolderName(width, height int, isHDR bool) string {
	rng := "SDR"
	if isHDR {
		rng = "HDR"
	}
	return fmt.Sprintf("video_%dx%d_%s", width, height, rng)
}

// AudioFolderName returns the folder name for an audio rendition identity.
// Language defaults to "und"; the codec is normalized into the known set
// with AAC as the default.
func AudioFolderName(language, codecName string) string {
	if language == "" {
		language = "und"
	}
	return fmt.Sprintf("audio_%s_%s", language, codec.NormalizeAudio(codecName))
}

// Planner derives deterministic output layouts from a stream analysis.
type Planner struct{}

// NewPlanner creates a planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan derives the output structure for a job and creates its directories.
// Planning is idempotent: existing folders are reused, never suffixed, and
// planning twice with identical inputs yields identical names.
func (p *Planner) Plan(analysis *models.StreamAnalysis, basePath, baseName string, spec models.Specification, mode models.OutputMode, container string) (*OutputStructure, error) {
	structure := &OutputStructure{
		Mode:     mode,
		BasePath: basePath,
		BaseName: baseName,
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	if mode == models.OutputModeCombined {
		c := strings.ToLower(container)
		if c == "" {
			c = models.ContainerHLS
		}
		structure.Container = c
		if c == models.ContainerHLS {
			structure.PlaylistPath = filepath.Join(basePath, baseName+".m3u8")
			structure.SegmentPattern = filepath.Join(basePath, baseName+"_%05d.ts")
		} else {
			structure.OutputPath = filepath.Join(basePath, baseName+"."+containerExtension(c))
		}
		return structure, nil
	}

	structure.MasterPlaylistPath = filepath.Join(basePath, baseName+".m3u8")

	for _, vs := range analysis.VideoStreams {
		folder := VideoFolderName(vs.Width, vs.Height, vs.IsHDR)
		folderPath := filepath.Join(basePath, folder)
		if err := os.MkdirAll(folderPath, 0o755); err != nil {
			return nil, fmt.Errorf("creating video rendition directory %s: %w", folder, err)
		}

		structure.VideoOutputs = append(structure.VideoOutputs, VideoOutput{
			StreamIndex:    vs.Index,
			Width:          vs.Width,
			Height:         vs.Height,
			IsHDR:          vs.IsHDR,
			FolderName:     folder,
			FolderPath:     folderPath,
			PlaylistName:   baseName + ".m3u8",
			PlaylistPath:   filepath.Join(folderPath, baseName+".m3u8"),
			SegmentPattern: filepath.Join(folderPath, baseName+"_%05d.ts"),
		})
	}

	for _, as := range analysis.AudioStreams {
		folder := AudioFolderName(as.Language, as.Codec)
		folderPath := filepath.Join(basePath, folder)
		if err := os.MkdirAll(folderPath, 0o755); err != nil {
			return nil, fmt.Errorf("creating audio rendition directory %s: %w", folder, err)
		}

		language := as.Language
		if language == "" {
			language = "und"
		}

		structure.AudioOutputs = append(structure.AudioOutputs, AudioOutput{
			StreamIndex:    as.Index,
			Language:       language,
			Codec:          codec.NormalizeAudio(as.Codec),
			Channels:       as.Channels,
			FolderName:     folder,
			FolderPath:     folderPath,
			PlaylistName:   baseName + ".m3u8",
			PlaylistPath:   filepath.Join(folderPath, baseName+".m3u8"),
			SegmentPattern: filepath.Join(folderPath, baseName+"_%05d.ts"),
		})
	}

	return structure, nil
}
