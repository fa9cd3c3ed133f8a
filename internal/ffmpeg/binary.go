// Package ffmpeg provides FFmpeg/FFprobe binary detection, probing, codec
// resolution, and command synthesis.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jmylchreest/hlsforge/internal/util"
)

// BinaryInfo contains information about the FFmpeg/FFprobe installation.
type BinaryInfo struct {
	FFmpegPath    string   `json:"ffmpeg_path"`
	FFprobePath   string   `json:"ffprobe_path,omitempty"`
	Version       string   `json:"version"`
	MajorVersion  int      `json:"major_version"`
	MinorVersion  int      `json:"minor_version"`
	Configuration string   `json:"configuration,omitempty"`
	Encoders      []string `json:"encoders,omitempty"`
	HWAccels      []string `json:"hw_accels,omitempty"`
}

// HasEncoder returns true if the encoder is available.
func (info *BinaryInfo) HasEncoder(name string) bool {
	return slices.Contains(info.Encoders, name)
}

// HasHWAccel returns true if ffmpeg lists the hardware acceleration method.
func (info *BinaryInfo) HasHWAccel(name string) bool {
	return slices.Contains(info.HWAccels, name)
}

// SupportsMinVersion returns true if the FFmpeg version meets the minimum.
func (info *BinaryInfo) SupportsMinVersion(major, minor int) bool {
	if info.MajorVersion > major {
		return true
	}
	return info.MajorVersion == major && info.MinorVersion >= minor
}

// BinaryDetector handles detection and caching of FFmpeg binaries and their
// capabilities. The capability query runs at most once per TTL window;
// concurrent first-callers share one query.
type BinaryDetector struct {
	mu           sync.RWMutex
	info         *BinaryInfo
	lastDetected time.Time
	cacheTTL     time.Duration

	// Configured path overrides. Empty means discover via env var -> ./ -> PATH.
	ffmpegPath  string
	ffprobePath string
}

// NewBinaryDetector creates a new binary detector.
func NewBinaryDetector() *BinaryDetector {
	return &BinaryDetector{
		cacheTTL: 5 * time.Minute,
	}
}

// WithCacheTTL sets the cache TTL for binary detection.
func (d *BinaryDetector) WithCacheTTL(ttl time.Duration) *BinaryDetector {
	d.cacheTTL = ttl
	return d
}

// WithPaths sets explicit ffmpeg/ffprobe paths, bypassing discovery.
func (d *BinaryDetector) WithPaths(ffmpegPath, ffprobePath string) *BinaryDetector {
	d.ffmpegPath = ffmpegPath
	d.ffprobePath = ffprobePath
	return d
}

// Detect detects the FFmpeg and FFprobe binaries and their capabilities.
func (d *BinaryDetector) Detect(ctx context.Context) (*BinaryInfo, error) {
	d.mu.RLock()
	if d.info != nil && time.Since(d.lastDetected) < d.cacheTTL {
		info := d.info
		d.mu.RUnlock()
		return info, nil
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	// Double-check after acquiring write lock
	if d.info != nil && time.Since(d.lastDetected) < d.cacheTTL {
		return d.info, nil
	}

	info, err := d.detect(ctx)
	if err != nil {
		return nil, err
	}

	d.info = info
	d.lastDetected = time.Now()
	return info, nil
}

// Clear clears the cached binary information.
func (d *BinaryDetector) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.info = nil
}

// detect performs the actual binary detection.
func (d *BinaryDetector) detect(ctx context.Context) (*BinaryInfo, error) {
	info := &BinaryInfo{}

	// Find ffmpeg binary (required)
	// Search order: configured path -> HLSFORGE_FFMPEG_BINARY -> ./ffmpeg -> PATH
	ffmpegPath := d.ffmpegPath
	if ffmpegPath == "" {
		var err error
		ffmpegPath, err = util.FindBinary("ffmpeg", "HLSFORGE_FFMPEG_BINARY")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found: %w", err)
		}
	}
	info.FFmpegPath = ffmpegPath

	// Find ffprobe binary (optional - probing degrades without it)
	ffprobePath := d.ffprobePath
	if ffprobePath == "" {
		ffprobePath, _ = util.FindBinary("ffprobe", "HLSFORGE_FFPROBE_BINARY")
	}
	info.FFprobePath = ffprobePath

	version, err := d.getVersion(ctx, ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("getting ffmpeg version: %w", err)
	}
	info.Version = version.Full
	info.MajorVersion = version.Major
	info.MinorVersion = version.Minor
	info.Configuration = version.Configuration

	// Capability queries are best effort: a missing list degrades codec
	// resolution, it does not fail detection.
	if encoders, err := d.getEncoders(ctx, ffmpegPath); err == nil {
		info.Encoders = encoders
	}
	if hwaccels, err := d.getHWAccels(ctx, ffmpegPath); err == nil {
		info.HWAccels = hwaccels
	}

	return info, nil
}

// versionInfo holds parsed version information.
type versionInfo struct {
	Full          string
	Major         int
	Minor         int
	Configuration string
}

var versionRegex = regexp.MustCompile(`^n?(\d+)\.(\d+)`)

// getVersion extracts version information from ffmpeg.
func (d *BinaryDetector) getVersion(ctx context.Context, ffmpegPath string) (*versionInfo, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, "-version")
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	info := &versionInfo{}
	for _, line := range strings.Split(string(output), "\n") {
		switch {
		case strings.HasPrefix(line, "ffmpeg version"):
			// "ffmpeg version 6.0 Copyright..." or "ffmpeg version n6.0-2-g..."
			parts := strings.Fields(line)
			if len(parts) >= 3 {
				info.Full = parts[2]
				if matches := versionRegex.FindStringSubmatch(parts[2]); len(matches) >= 3 {
					info.Major, _ = strconv.Atoi(matches[1])
					info.Minor, _ = strconv.Atoi(matches[2])
				}
			}
		case strings.HasPrefix(line, "configuration:"):
			info.Configuration = strings.TrimSpace(strings.TrimPrefix(line, "configuration:"))
		}
	}

	if info.Full == "" {
		return nil, fmt.Errorf("failed to parse ffmpeg version")
	}
	return info, nil
}

// getEncoders retrieves available encoder names.
func (d *BinaryDetector) getEncoders(ctx context.Context, ffmpegPath string) ([]string, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, "-encoders", "-hide_banner")
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return parseEncoderList(string(output)), nil
}

// parseEncoderList parses the output of ffmpeg -encoders.
func parseEncoderList(output string) []string {
	var encoders []string
	inEncoderList := false

	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "------") {
			inEncoderList = true
			continue
		}
		if !inEncoderList {
			continue
		}

		// Format: "V....D encoder_name  description"
		line = strings.TrimLeft(line, " ")
		if len(line) < 8 {
			continue
		}
		if line[0] != 'V' && line[0] != 'A' && line[0] != 'S' {
			continue
		}

		rest := strings.TrimSpace(line[6:])
		parts := strings.Fields(rest)
		if len(parts) >= 1 && parts[0] != "" {
			encoders = append(encoders, parts[0])
		}
	}

	return encoders
}

// getHWAccels retrieves the hardware acceleration methods ffmpeg was built with.
func (d *BinaryDetector) getHWAccels(ctx context.Context, ffmpegPath string) ([]string, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, "-hwaccels", "-hide_banner")
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var accels []string
	inList := false
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "Hardware acceleration methods:" {
			inList = true
			continue
		}
		if inList && line != "" {
			accels = append(accels, line)
		}
	}
	return accels, nil
}
