package rules

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/jmylchreest/hlsforge/internal/models"
)

// fallbackLanguage is used when the allow-list filters out every stream.
const fallbackLanguage = "eng"

// styledCodecs carry font attachments that must be extracted for rendering.
var styledCodecs = []string{"ass", "ssa"}

// imageCodecs cannot be converted textually and need OCR.
var imageCodecs = []string{"hdmv_pgs_subtitle", "pgssub", "dvd_subtitle", "dvdsub", "vobsub"}

// FontExtractionOptions configures an ActionExtractFonts action.
type FontExtractionOptions struct {
	// StreamIndex is the styled subtitle stream the fonts belong to.
	StreamIndex int `json:"stream_index"`
}

func (FontExtractionOptions) actionOptions() {}

// OCROptions configures an ActionConvertSubtitle action.
type OCROptions struct {
	StreamIndex int    `json:"stream_index"`
	SourceCodec string `json:"source_codec"`
	Language    string `json:"language,omitempty"`
}

func (OCROptions) actionOptions() {}

// ExtractionOptions configures an ActionExtractSubtitle action.
type ExtractionOptions struct {
	StreamIndex int    `json:"stream_index"`
	Language    string `json:"language,omitempty"`
}

func (ExtractionOptions) actionOptions() {}

// SubtitleRule emits subtitle handling actions: font extraction for styled
// subtitles, OCR conversion for image-based codecs, and extraction for
// plain text streams. Streams are filtered against a language allow-list
// first; if the filter removes everything, English streams are kept.
type SubtitleRule struct {
	allowedLanguages []string
}

// NewSubtitleRule creates the rule. An empty allow-list admits every
// language.
func NewSubtitleRule(allowedLanguages []string) *SubtitleRule {
	return &SubtitleRule{allowedLanguages: allowedLanguages}
}

func (r *SubtitleRule) Name() string { return "subtitle" }

// AppliesTo matches jobs whose analyzed input carries subtitle streams.
func (r *SubtitleRule) AppliesTo(job *models.Job) bool {
	return job.Analysis != nil && len(job.Analysis.SubtitleStreams) > 0
}

// Actions emits one action per selected subtitle stream.
func (r *SubtitleRule) Actions(job *models.Job) []Action {
	var actions []Action
	for _, stream := range r.selectStreams(job.Analysis.SubtitleStreams) {
		switch {
		case slices.Contains(styledCodecs, stream.Codec):
			actions = append(actions, Action{
				Type:       ActionExtractFonts,
				Name:       fmt.Sprintf("extract fonts for stream %d", stream.Index),
				InputPath:  job.Input,
				OutputPath: filepath.Join(job.OutputDir, "fonts"),
				Options:    FontExtractionOptions{StreamIndex: stream.Index},
			})
		case slices.Contains(imageCodecs, stream.Codec):
			actions = append(actions, Action{
				Type:       ActionConvertSubtitle,
				Name:       fmt.Sprintf("ocr convert stream %d", stream.Index),
				InputPath:  job.Input,
				OutputPath: subtitlePath(job, stream, "srt"),
				Format:     "srt",
				Options: OCROptions{
					StreamIndex: stream.Index,
					SourceCodec: stream.Codec,
					Language:    stream.Language,
				},
			})
		default:
			actions = append(actions, Action{
				Type:       ActionExtractSubtitle,
				Name:       fmt.Sprintf("extract subtitle stream %d", stream.Index),
				InputPath:  job.Input,
				OutputPath: subtitlePath(job, stream, "vtt"),
				Format:     "webvtt",
				Options: ExtractionOptions{
					StreamIndex: stream.Index,
					Language:    stream.Language,
				},
			})
		}
	}
	return actions
}

// selectStreams applies the language allow-list, falling back to English
// when the filter leaves nothing.
func (r *SubtitleRule) selectStreams(streams []models.SubtitleStream) []models.SubtitleStream {
	if len(r.allowedLanguages) == 0 {
		return streams
	}

	var selected []models.SubtitleStream
	for _, s := range streams {
		if slices.Contains(r.allowedLanguages, s.Language) {
			selected = append(selected, s)
		}
	}
	if len(selected) > 0 {
		return selected
	}

	for _, s := range streams {
		if s.Language == fallbackLanguage {
			selected = append(selected, s)
		}
	}
	return selected
}

func subtitlePath(job *models.Job, stream models.SubtitleStream, ext string) string {
	language := stream.Language
	if language == "" {
		language = "und"
	}
	return filepath.Join(job.OutputDir, fmt.Sprintf("%s_%s_%d.%s", job.BaseName, language, stream.Index, ext))
}
