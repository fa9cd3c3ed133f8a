package validate

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"
)

// MediaPlaylistValidator checks one rendition's media playlist: structure,
// tag consistency, and that referenced segments are on disk.
type MediaPlaylistValidator struct{}

// NewMediaPlaylistValidator creates a media playlist validator.
func NewMediaPlaylistValidator() *MediaPlaylistValidator {
	return &MediaPlaylistValidator{}
}

// Validate reads and checks the playlist at path. Segment files are resolved
// relative to the playlist's directory; a missing segment is a warning, not
// an error, because segments may still be landing.
func (v *MediaPlaylistValidator) Validate(path string) Result {
	result := NewResult()

	data, err := os.ReadFile(path)
	if err != nil {
		result.AddError("reading media playlist %s: %v", path, err)
		return result
	}
	content := string(data)

	if !strings.HasPrefix(content, "#EXTM3U") {
		result.AddError("media playlist does not start with #EXTM3U: %s", path)
		return result
	}
	if !strings.Contains(content, "#EXT-X-TARGETDURATION") {
		result.AddWarning("media playlist missing #EXT-X-TARGETDURATION: %s", path)
	}

	extinfCount := 0
	var segments []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#EXTINF:") {
			extinfCount++
			continue
		}
		if line != "" && !strings.HasPrefix(line, "#") {
			segments = append(segments, line)
		}
	}

	if extinfCount != len(segments) {
		result.AddWarning("EXTINF count %d does not match segment count %d: %s",
			extinfCount, len(segments), path)
	}

	dir := filepath.Dir(path)
	for _, segment := range segments {
		if _, err := os.Stat(filepath.Join(dir, segment)); err != nil {
			result.AddWarning("referenced segment missing on disk: %s", segment)
		}
	}

	if pl, err := playlist.Unmarshal(data); err != nil {
		result.AddWarning("playlist does not round-trip parse: %v", err)
	} else if _, ok := pl.(*playlist.Media); !ok {
		result.AddWarning("playlist parsed but is not a media playlist: %s", path)
	}

	return result
}

// MasterPlaylistValidator checks the master playlist and its references to
// per-rendition playlists.
type MasterPlaylistValidator struct{}

// NewMasterPlaylistValidator creates a master playlist validator.
func NewMasterPlaylistValidator() *MasterPlaylistValidator {
	return &MasterPlaylistValidator{}
}

// Validate reads and checks the master playlist at path.
func (v *MasterPlaylistValidator) Validate(path string) Result {
	result := NewResult()

	data, err := os.ReadFile(path)
	if err != nil {
		result.AddError("reading master playlist %s: %v", path, err)
		return result
	}
	content := string(data)

	if !strings.HasPrefix(content, "#EXTM3U") {
		result.AddError("master playlist does not start with #EXTM3U: %s", path)
		return result
	}

	streamInfCount := 0
	var references []string
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#EXT-X-STREAM-INF:") {
			streamInfCount++
			if i+1 < len(lines) {
				if uri := strings.TrimSpace(lines[i+1]); uri != "" && !strings.HasPrefix(uri, "#") {
					references = append(references, uri)
				}
			}
		}
		if strings.HasPrefix(line, "#EXT-X-MEDIA:") {
			if uri := mediaAttribute(line, "URI"); uri != "" {
				references = append(references, uri)
			}
		}
	}

	if streamInfCount == 0 {
		result.AddError("master playlist has no EXT-X-STREAM-INF entries: %s", path)
	}

	dir := filepath.Dir(path)
	for _, ref := range references {
		if _, err := os.Stat(filepath.Join(dir, ref)); err != nil {
			result.AddWarning("referenced media playlist missing on disk: %s", ref)
		}
	}

	if pl, err := playlist.Unmarshal(data); err != nil {
		result.AddWarning("playlist does not round-trip parse: %v", err)
	} else if _, ok := pl.(*playlist.Multivariant); !ok {
		result.AddWarning("playlist parsed but is not a multivariant playlist: %s", path)
	}

	return result
}

// mediaAttribute extracts a quoted attribute value from an EXT-X-MEDIA line.
func mediaAttribute(line, name string) string {
	marker := name + "=\""
	start := strings.Index(line, marker)
	if start < 0 {
		return ""
	}
	rest := line[start+len(marker):]
	end := strings.Index(rest, "\"")
	if end < 0 {
		return ""
	}
	return rest[:end]
}
