// Package codec provides a unified codec registry for video and audio codecs.
// It consolidates codec definitions, aliases, and encoder mappings used
// throughout hlsforge for codec resolution and command synthesis.
package codec

import "strings"

// Video represents a video codec.
type Video string

// Video codec constants.
const (
	VideoH264 Video = "h264" // H.264/AVC
	VideoH265 Video = "h265" // H.265/HEVC
	VideoVP9  Video = "vp9"  // VP9
	VideoAV1  Video = "av1"  // AV1
)

// Audio represents an audio codec.
type Audio string

// Audio codec constants.
const (
	AudioAAC  Audio = "aac"  // AAC
	AudioMP3  Audio = "mp3"  // MP3
	AudioAC3  Audio = "ac3"  // Dolby Digital (AC-3)
	AudioEAC3 Audio = "eac3" // Dolby Digital Plus (E-AC-3)
	AudioOpus Audio = "opus" // Opus
	AudioFLAC Audio = "flac" // FLAC
)

// HWAccel represents a hardware acceleration type.
type HWAccel string

// Hardware acceleration constants.
const (
	HWAccelAuto HWAccel = "auto"         // Auto-detect best available
	HWAccelNone HWAccel = "none"         // Disabled (software only)
	HWAccelCUDA HWAccel = "cuda"         // NVIDIA NVENC
	HWAccelQSV  HWAccel = "qsv"          // Intel QuickSync
	HWAccelAMF  HWAccel = "amf"          // AMD AMF
	HWAccelVT   HWAccel = "videotoolbox" // Apple VideoToolbox
)

// String returns the string representation of the video codec.
func (v Video) String() string {
	return string(v)
}

// String returns the string representation of the audio codec.
func (a Audio) String() string {
	return string(a)
}

// String returns the string representation of the hardware acceleration type.
func (h HWAccel) String() string {
	return string(h)
}

// videoInfo contains metadata about a video codec.
type videoInfo struct {
	// Canonical name (h264, h265, etc.)
	Name Video
	// All known aliases and encoder names that map to this codec
	Aliases []string
	// FFmpeg encoders for each hardware acceleration type
	Encoders map[HWAccel]string
}

// audioInfo contains metadata about an audio codec.
type audioInfo struct {
	Name    Audio
	Aliases []string
	// FFmpeg encoder name
	Encoder string
}

// videoRegistry contains all video codec definitions.
var videoRegistry = map[Video]*videoInfo{
	VideoH264: {
		Name: VideoH264,
		Aliases: []string{
			"h264", "avc", "avc1", "h.264",
			// Encoders
			"libx264", "h264_nvenc", "h264_qsv", "h264_amf",
			"h264_videotoolbox", "h264_vaapi", "h264_mf", "h264_v4l2m2m",
		},
		Encoders: map[HWAccel]string{
			HWAccelNone: "libx264",
			HWAccelAuto: "libx264",
			HWAccelCUDA: "h264_nvenc",
			HWAccelQSV:  "h264_qsv",
			HWAccelAMF:  "h264_amf",
			HWAccelVT:   "h264_videotoolbox",
		},
	},
	VideoH265: {
		Name: VideoH265,
		Aliases: []string{
			"h265", "hevc", "hev1", "hvc1", "h.265",
			// Encoders
			"libx265", "hevc_nvenc", "hevc_qsv", "hevc_amf",
			"hevc_videotoolbox", "hevc_vaapi", "hevc_mf", "hevc_v4l2m2m",
		},
		Encoders: map[HWAccel]string{
			HWAccelNone: "libx265",
			HWAccelAuto: "libx265",
			HWAccelCUDA: "hevc_nvenc",
			HWAccelQSV:  "hevc_qsv",
			HWAccelAMF:  "hevc_amf",
			HWAccelVT:   "hevc_videotoolbox",
		},
	},
	VideoVP9: {
		Name:    VideoVP9,
		Aliases: []string{"vp9", "vp09", "libvpx-vp9", "vp9_qsv", "vp9_vaapi"},
		Encoders: map[HWAccel]string{
			HWAccelNone: "libvpx-vp9",
			HWAccelAuto: "libvpx-vp9",
			HWAccelQSV:  "vp9_qsv",
		},
	},
	VideoAV1: {
		Name: VideoAV1,
		Aliases: []string{
			"av1", "av01",
			"libaom-av1", "libsvtav1", "librav1e",
			"av1_nvenc", "av1_qsv", "av1_amf", "av1_vaapi",
		},
		Encoders: map[HWAccel]string{
			HWAccelNone: "libsvtav1",
			HWAccelAuto: "libsvtav1",
			HWAccelCUDA: "av1_nvenc",
			HWAccelQSV:  "av1_qsv",
			HWAccelAMF:  "av1_amf",
		},
	},
}

// audioRegistry contains all audio codec definitions.
var audioRegistry = map[Audio]*audioInfo{
	AudioAAC: {
		Name:    AudioAAC,
		Aliases: []string{"aac", "mp4a", "libfdk_aac", "aac_at"},
		Encoder: "aac",
	},
	AudioMP3: {
		Name:    AudioMP3,
		Aliases: []string{"mp3", "mp3float", "libmp3lame"},
		Encoder: "libmp3lame",
	},
	AudioAC3: {
		Name:    AudioAC3,
		Aliases: []string{"ac3", "ac-3", "a52", "ac3_fixed"},
		Encoder: "ac3",
	},
	AudioEAC3: {
		Name:    AudioEAC3,
		Aliases: []string{"eac3", "ec-3"},
		Encoder: "eac3",
	},
	AudioOpus: {
		Name:    AudioOpus,
		Aliases: []string{"opus", "libopus"},
		Encoder: "libopus",
	},
	AudioFLAC: {
		Name:    AudioFLAC,
		Aliases: []string{"flac", "libflac"},
		Encoder: "flac",
	},
}

// videoAliasIndex maps all aliases to their canonical codec.
var videoAliasIndex map[string]Video

// audioAliasIndex maps all aliases to their canonical codec.
var audioAliasIndex map[string]Audio

func init() {
	videoAliasIndex = make(map[string]Video)
	for codec, info := range videoRegistry {
		for _, alias := range info.Aliases {
			videoAliasIndex[strings.ToLower(alias)] = codec
		}
	}

	audioAliasIndex = make(map[string]Audio)
	for codec, info := range audioRegistry {
		for _, alias := range info.Aliases {
			audioAliasIndex[strings.ToLower(alias)] = codec
		}
	}
}

// ParseVideo parses a string (codec name, alias, or encoder) to a Video codec.
// Returns the canonical codec and whether the parse was successful.
func ParseVideo(s string) (Video, bool) {
	if s == "" {
		return "", false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	codec, ok := videoAliasIndex[s]
	return codec, ok
}

// ParseAudio parses a string (codec name, alias, or encoder) to an Audio codec.
// Returns the canonical codec and whether the parse was successful.
func ParseAudio(s string) (Audio, bool) {
	if s == "" {
		return "", false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	codec, ok := audioAliasIndex[s]
	return codec, ok
}

// Normalize converts any codec string (encoder name, alias) to its canonical
// form. Returns the input unchanged if not recognized.
func Normalize(name string) string {
	if name == "" {
		return name
	}
	lower := strings.ToLower(name)

	if codec, ok := videoAliasIndex[lower]; ok {
		return string(codec)
	}
	if codec, ok := audioAliasIndex[lower]; ok {
		return string(codec)
	}

	return name
}

// NormalizeVideo normalizes a video codec/encoder name to its canonical form.
// Returns the canonical codec string (e.g. "h264") or the input unchanged.
func NormalizeVideo(name string) string {
	if codec, ok := ParseVideo(name); ok {
		return string(codec)
	}
	return name
}

// NormalizeAudio normalizes an audio codec/encoder name to its canonical form.
// Unrecognized names fall back to AAC so output paths stay predictable.
func NormalizeAudio(name string) Audio {
	if codec, ok := ParseAudio(name); ok {
		return codec
	}
	return AudioAAC
}

// IsEncoder returns true if the name appears to be an FFmpeg encoder name
// rather than a codec name.
func IsEncoder(name string) bool {
	name = strings.ToLower(name)

	if strings.HasPrefix(name, "lib") {
		return true
	}

	hwSuffixes := []string{
		"_nvenc", "_qsv", "_amf", "_videotoolbox", "_vaapi",
		"_mf", "_v4l2m2m", "_cuvid", "_at", "_fixed",
	}
	for _, suffix := range hwSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}

	return false
}

// VideoEncoder returns the FFmpeg encoder name for a video codec with the
// given hardware acceleration, and whether such an encoder exists at all.
// It does not fall back: the caller decides how to degrade when a hardware
// encoder is unavailable on the host.
func VideoEncoder(v Video, hwaccel HWAccel) (string, bool) {
	info, ok := videoRegistry[v]
	if !ok {
		return "", false
	}
	encoder, ok := info.Encoders[hwaccel]
	return encoder, ok
}

// SoftwareVideoEncoder returns the software encoder for a video codec.
func SoftwareVideoEncoder(v Video) (string, bool) {
	return VideoEncoder(v, HWAccelNone)
}

// AudioEncoder returns the FFmpeg encoder name for an audio codec.
func AudioEncoder(a Audio) string {
	info, ok := audioRegistry[a]
	if !ok {
		return string(AudioAAC)
	}
	return info.Encoder
}

// Match returns true if two codec strings represent the same codec.
// Handles aliases, encoder names, and case differences.
func Match(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(Normalize(a), Normalize(b))
}

// ValidHWAccels returns a map of valid hardware acceleration types.
func ValidHWAccels() map[string]HWAccel {
	return map[string]HWAccel{
		"auto":         HWAccelAuto,
		"none":         HWAccelNone,
		"cuda":         HWAccelCUDA,
		"qsv":          HWAccelQSV,
		"amf":          HWAccelAMF,
		"videotoolbox": HWAccelVT,
	}
}

// ParseHWAccel parses a hardware acceleration string.
func ParseHWAccel(s string) (HWAccel, bool) {
	hw, ok := ValidHWAccels()[strings.ToLower(strings.TrimSpace(s))]
	return hw, ok
}

// SupportedEncodingVideoCodecs returns the video codecs supported as
// encoding targets.
func SupportedEncodingVideoCodecs() []Video {
	return []Video{VideoH264, VideoH265, VideoVP9, VideoAV1}
}

// SupportedEncodingAudioCodecs returns the audio codecs supported as
// encoding targets.
func SupportedEncodingAudioCodecs() []Audio {
	return []Audio{AudioAAC, AudioMP3, AudioAC3, AudioEAC3, AudioOpus}
}
