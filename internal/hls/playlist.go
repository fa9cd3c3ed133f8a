package hls

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmylchreest/hlsforge/internal/models"
)

// VariantStream is one master-playlist entry pointing at a video rendition.
type VariantStream struct {
	Bandwidth  int
	Width      int
	Height     int
	Codecs     string
	AudioGroup string
	URI        string
}

// MediaGroup is one master-playlist EXT-X-MEDIA entry (alternative audio).
type MediaGroup struct {
	Type       string
	GroupID    string
	Name       string
	Language   string
	Default    bool
	AutoSelect bool
	URI        string
}

// audioGroupID is the group id all audio renditions share.
const audioGroupID = "audio"

// Generator renders playlist text. Rendering is pure; writing to disk is a
// separate explicit step.
type Generator struct{}

// NewGenerator creates a playlist generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// RenderMediaPlaylist renders one rendition's media playlist. Segments are
// sorted lexicographically by name and written with the spec's nominal
// duration; when totalDuration is known the final segment is clamped to the
// remaining time. VOD playlists are closed with ENDLIST.
func (g *Generator) RenderMediaPlaylist(spec models.Specification, segmentFiles []string, totalDuration float64) string {
	segments := make([]string, len(segmentFiles))
	copy(segments, segmentFiles)
	sort.Strings(segments)

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	fmt.Fprintf(&b, "#EXT-X-VERSION:%d\n", spec.Version)
	fmt.Fprintf(&b, "#EXT-X-TARGETDURATION:%d\n", spec.TargetDuration)
	fmt.Fprintf(&b, "#EXT-X-MEDIA-SEQUENCE:%d\n", spec.MediaSequence)
	if spec.IsVOD() {
		b.WriteString("#EXT-X-PLAYLIST-TYPE:VOD\n")
	}
	if spec.IndependentSegments {
		b.WriteString("#EXT-X-INDEPENDENT-SEGMENTS\n")
	}

	nominal := float64(spec.SegmentDuration)
	for i, segment := range segments {
		duration := nominal
		if i == len(segments)-1 && totalDuration > 0 {
			remaining := totalDuration - nominal*float64(len(segments)-1)
			if remaining > 0 && remaining < nominal {
				duration = remaining
			}
		}
		fmt.Fprintf(&b, "#EXTINF:%.3f,\n", duration)
		b.WriteString(filepath.Base(segment))
		b.WriteString("\n")
	}

	if spec.IsVOD() {
		b.WriteString("#EXT-X-ENDLIST\n")
	}

	return b.String()
}

// RenderMasterPlaylist renders the master playlist: one EXT-X-MEDIA line per
// audio rendition (the first is DEFAULT), then the variants in strictly
// descending estimated-bandwidth order regardless of input order.
func (g *Generator) RenderMasterPlaylist(variants []VariantStream, groups []MediaGroup) string {
	sorted := make([]VariantStream, len(variants))
	copy(sorted, variants)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Bandwidth != sorted[j].Bandwidth {
			return sorted[i].Bandwidth > sorted[j].Bandwidth
		}
		return sorted[i].Height > sorted[j].Height
	})

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")

	for _, group := range groups {
		fmt.Fprintf(&b,
			"#EXT-X-MEDIA:TYPE=%s,GROUP-ID=%q,NAME=%q,LANGUAGE=%q,DEFAULT=%s,AUTOSELECT=%s,URI=%q\n",
			group.Type, group.GroupID, group.Name, group.Language,
			yesNo(group.Default), yesNo(group.AutoSelect), group.URI)
	}

	for _, v := range sorted {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d,CODECS=%q",
			v.Bandwidth, v.Width, v.Height, v.Codecs)
		if v.AudioGroup != "" {
			fmt.Fprintf(&b, ",AUDIO=%q", v.AudioGroup)
		}
		b.WriteString("\n")
		b.WriteString(v.URI)
		b.WriteString("\n")
	}

	return b.String()
}

// MasterEntries derives the master-playlist variants and media groups from a
// planned structure. The first audio rendition becomes the default.
func (g *Generator) MasterEntries(structure *OutputStructure) ([]VariantStream, []MediaGroup) {
	var variants []VariantStream
	for _, v := range structure.VideoOutputs {
		variant := VariantStream{
			Bandwidth: EstimateBandwidth(v.Width, v.Height, v.IsHDR),
			Width:     v.Width,
			Height:    v.Height,
			Codecs:    VideoCodecString(v.Height) + "," + AudioCodecString(),
			URI:       v.FolderName + "/" + v.PlaylistName,
		}
		if len(structure.AudioOutputs) > 0 {
			variant.AudioGroup = audioGroupID
		}
		variants = append(variants, variant)
	}

	var groups []MediaGroup
	for i, a := range structure.AudioOutputs {
		groups = append(groups, MediaGroup{
			Type:       "AUDIO",
			GroupID:    audioGroupID,
			Name:       a.Language,
			Language:   a.Language,
			Default:    i == 0,
			AutoSelect: true,
			URI:        a.FolderName + "/" + a.PlaylistName,
		})
	}

	return variants, groups
}

// Bandwidth tiers in bits per second, by resolution.
const (
	bandwidth2160p = 16_000_000
	bandwidth1440p = 10_000_000
	bandwidth1080p = 6_000_000
	bandwidth720p  = 3_500_000
	bandwidthSD    = 1_500_000
)

// EstimateBandwidth returns a table-driven bandwidth estimate for a
// rendition. HDR renditions are scaled by 1.3. It is an estimate for ladder
// construction, not a measurement.
func EstimateBandwidth(width, height int, isHDR bool) int {
	var base int
	switch {
	case height >= 2160:
		base = bandwidth2160p
	case height >= 1440:
		base = bandwidth1440p
	case height >= 1080:
		base = bandwidth1080p
	case height >= 720:
		base = bandwidth720p
	default:
		base = bandwidthSD
	}

	if isHDR {
		return int(float64(base) * 1.3)
	}
	return base
}

// VideoCodecString returns the RFC 6381 codec string for an H.264 rendition
// at the given height.
func VideoCodecString(height int) string {
	switch {
	case height >= 2160:
		return "avc1.640033"
	case height >= 1080:
		return "avc1.640028"
	case height >= 720:
		return "avc1.64001f"
	case height >= 480:
		return "avc1.64001e"
	default:
		return "avc1.640015"
	}
}

// AudioCodecString returns the RFC 6381 codec string for AAC-LC audio.
func AudioCodecString() string {
	return "mp4a.40.2"
}

// WriteMediaPlaylist writes a rendered media playlist to disk.
func (g *Generator) WriteMediaPlaylist(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing media playlist: %w", err)
	}
	return nil
}

// WriteMasterPlaylist writes a rendered master playlist to disk.
func (g *Generator) WriteMasterPlaylist(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing master playlist: %w", err)
	}
	return nil
}

// CollectSegments discovers segment files in a rendition folder matching an
// ffmpeg segment pattern like "movie_%05d.ts". Results are sorted by name.
func CollectSegments(dir, pattern string) ([]string, error) {
	prefix, suffix := splitSegmentPattern(filepath.Base(pattern))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading segment directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) && name != prefix+suffix {
			segments = append(segments, name)
		}
	}

	sort.Strings(segments)
	return segments, nil
}

// splitSegmentPattern splits "movie_%05d.ts" into "movie_" and ".ts".
func splitSegmentPattern(pattern string) (prefix, suffix string) {
	idx := strings.Index(pattern, "%")
	if idx < 0 {
		return pattern, ""
	}
	prefix = pattern[:idx]
	if end := strings.IndexAny(pattern[idx:], "d"); end >= 0 {
		suffix = pattern[idx+end+1:]
	}
	return prefix, suffix
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}
