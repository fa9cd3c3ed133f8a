package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hlsforge/internal/codec"
	"github.com/jmylchreest/hlsforge/internal/config"
	"github.com/jmylchreest/hlsforge/internal/models"
)

func subtitleJob(streams ...models.SubtitleStream) *models.Job {
	job := models.NewJob("movie.mkv", "/out", "movie", models.EncoderProfile{
		Container:     models.ContainerHLS,
		VideoProfiles: []models.VideoProfile{{Codec: "h264"}},
	})
	job.Analysis = &models.StreamAnalysis{
		Input:           "movie.mkv",
		SubtitleStreams: streams,
		HasSubtitles:    len(streams) > 0,
	}
	return job
}

func TestSubtitleRuleAppliesTo(t *testing.T) {
	rule := NewSubtitleRule(nil)

	assert.False(t, rule.AppliesTo(subtitleJob()))
	assert.True(t, rule.AppliesTo(subtitleJob(models.SubtitleStream{Codec: "subrip"})))

	noAnalysis := models.NewJob("movie.mkv", "/out", "movie", models.EncoderProfile{})
	assert.False(t, rule.AppliesTo(noAnalysis))
}

func TestSubtitleRuleActionsPerCodec(t *testing.T) {
	rule := NewSubtitleRule(nil)
	job := subtitleJob(
		models.SubtitleStream{Index: 3, Codec: "ass", Language: "eng"},
		models.SubtitleStream{Index: 4, Codec: "hdmv_pgs_subtitle", Language: "eng"},
		models.SubtitleStream{Index: 5, Codec: "subrip", Language: "fra"},
	)

	actions := rule.Actions(job)
	require.Len(t, actions, 3)

	assert.Equal(t, ActionExtractFonts, actions[0].Type)
	assert.Equal(t, FontExtractionOptions{StreamIndex: 3}, actions[0].Options)

	assert.Equal(t, ActionConvertSubtitle, actions[1].Type)
	assert.Equal(t, "srt", actions[1].Format)
	ocr, ok := actions[1].Options.(OCROptions)
	require.True(t, ok)
	assert.Equal(t, "hdmv_pgs_subtitle", ocr.SourceCodec)

	assert.Equal(t, ActionExtractSubtitle, actions[2].Type)
	assert.Equal(t, "webvtt", actions[2].Format)
	assert.Contains(t, actions[2].OutputPath, "movie_fra_5.vtt")
}

func TestSubtitleRuleLanguageFilter(t *testing.T) {
	rule := NewSubtitleRule([]string{"fra"})
	job := subtitleJob(
		models.SubtitleStream{Index: 3, Codec: "subrip", Language: "eng"},
		models.SubtitleStream{Index: 4, Codec: "subrip", Language: "fra"},
	)

	actions := rule.Actions(job)
	require.Len(t, actions, 1)
	assert.Contains(t, actions[0].OutputPath, "movie_fra_4.vtt")
}

func TestSubtitleRuleEnglishFallback(t *testing.T) {
	// Allow-list matches nothing; English streams are kept instead.
	rule := NewSubtitleRule([]string{"jpn"})
	job := subtitleJob(
		models.SubtitleStream{Index: 3, Codec: "subrip", Language: "eng"},
		models.SubtitleStream{Index: 4, Codec: "subrip", Language: "deu"},
	)

	actions := rule.Actions(job)
	require.Len(t, actions, 1)
	assert.Contains(t, actions[0].OutputPath, "movie_eng_3.vtt")
}

func TestHardwareAccelRule(t *testing.T) {
	rule := NewHardwareAccelRule()

	audioOnly := models.NewJob("radio.mp3", "/out", "radio", models.EncoderProfile{
		AudioProfiles: []models.AudioProfile{{Codec: "aac"}},
	})
	assert.False(t, rule.AppliesTo(audioOnly))

	job := models.NewJob("movie.mkv", "/out", "movie", models.EncoderProfile{
		VideoProfiles: []models.VideoProfile{{Codec: "h264"}},
	})
	require.True(t, rule.AppliesTo(job))

	actions := rule.Actions(job)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionConfigureAccel, actions[0].Type)

	opts, ok := actions[0].Options.(HardwareAccelOptions)
	require.True(t, ok)
	assert.Equal(t, codec.HWAccelCUDA, opts.Priority[0])
	assert.Contains(t, opts.CodecAccels[codec.VideoVP9], codec.HWAccelQSV)
	assert.NotContains(t, opts.CodecAccels[codec.VideoVP9], codec.HWAccelCUDA)
	assert.Equal(t, "p4", opts.PresetEquivalence["medium"])
	assert.NotContains(t, opts.LiveCapable, codec.HWAccelVT)
}

func TestLiveStreamRule(t *testing.T) {
	cfg := config.LiveConfig{SegmentDuration: 2, PlaylistSize: 6, SpeedFloor: 1.0}
	rule := NewLiveStreamRule(cfg)

	vod := models.NewJob("movie.mkv", "/out", "movie", models.EncoderProfile{})
	assert.False(t, rule.AppliesTo(vod))

	live := models.NewJob("stream.m3u8", "/out", "stream", models.EncoderProfile{})
	live.Metadata["live"] = "true"
	require.True(t, rule.AppliesTo(live))

	actions := rule.Actions(live)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionConfigureLive, actions[0].Type)

	opts, ok := actions[0].Options.(LiveOptions)
	require.True(t, ok)
	assert.Equal(t, "veryfast", opts.Preset)
	assert.Equal(t, 2, opts.SegmentDuration)
	assert.Equal(t, 6, opts.PlaylistSize)
	assert.InDelta(t, 1.0, opts.SpeedFloor, 0.001)
}

func TestChecklistRule(t *testing.T) {
	rule := NewChecklistRule()

	job := models.NewJob("movie.mkv", "/out", "movie", models.EncoderProfile{})
	require.True(t, rule.AppliesTo(job))

	actions := rule.Actions(job)
	require.Len(t, actions, 1)

	opts, ok := actions[0].Options.(ChecklistOptions)
	require.True(t, ok)
	require.Len(t, opts.Expectations, 4)
	assert.Equal(t, ExpectOutputFiles, opts.Expectations[0].Kind)
	assert.InDelta(t, 1024, opts.Expectations[0].Threshold, 0.001)
	assert.Equal(t, ExpectMediaContent, opts.Expectations[1].Kind)
	assert.InDelta(t, 2.0, opts.Expectations[1].Threshold, 0.001)
	assert.Equal(t, ExpectMasterPlaylist, opts.Expectations[3].Kind)

	job.Mode = models.OutputModeCombined
	opts = rule.Actions(job)[0].Options.(ChecklistOptions)
	require.Len(t, opts.Expectations, 3)
	assert.Equal(t, ExpectMediaPlaylists, opts.Expectations[2].Kind)

	// A single-file container has no playlists to check.
	job.Profile.Container = models.ContainerMP4
	opts = rule.Actions(job)[0].Options.(ChecklistOptions)
	require.Len(t, opts.Expectations, 2)
	assert.Equal(t, ExpectOutputFiles, opts.Expectations[0].Kind)
	assert.Equal(t, ExpectMediaContent, opts.Expectations[1].Kind)
}

func TestEngineActionsFor(t *testing.T) {
	engine := NewEngine(
		NewSubtitleRule(nil),
		NewHardwareAccelRule(),
		NewLiveStreamRule(config.LiveConfig{SegmentDuration: 2, PlaylistSize: 6, SpeedFloor: 1.0}),
		NewChecklistRule(),
	)

	job := models.NewJob("movie.mkv", "/out", "movie", models.EncoderProfile{
		VideoProfiles: []models.VideoProfile{{Codec: "h264"}},
	})

	// No subtitles, not live: accel hints + checklist only.
	actions := engine.ActionsFor(job)
	require.Len(t, actions, 2)
	assert.Equal(t, ActionConfigureAccel, actions[0].Type)
	assert.Equal(t, ActionRunChecklist, actions[1].Type)
}

func TestEngineRegisterOrder(t *testing.T) {
	engine := NewEngine()
	engine.Register(NewChecklistRule())
	engine.Register(NewHardwareAccelRule())

	require.Len(t, engine.Rules(), 2)
	assert.Equal(t, "checklist", engine.Rules()[0].Name())
}
