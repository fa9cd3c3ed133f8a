package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hlsforge/internal/ffmpeg"
	"github.com/jmylchreest/hlsforge/internal/hls"
	"github.com/jmylchreest/hlsforge/internal/models"
	"github.com/jmylchreest/hlsforge/internal/rules"
	"github.com/jmylchreest/hlsforge/internal/validate"
)

type stubProber struct {
	analysis *models.StreamAnalysis
	err      error
}

func (s *stubProber) Analyze(ctx context.Context, input string) (*models.StreamAnalysis, error) {
	return s.analysis, s.err
}

type stubCaps struct {
	info *ffmpeg.BinaryInfo
}

func (s *stubCaps) Detect(ctx context.Context) (*ffmpeg.BinaryInfo, error) {
	return s.info, nil
}

// segmentWritingRunner simulates a finished encode by dropping segments into
// every planned rendition folder.
type segmentWritingRunner struct {
	t         *testing.T
	structure *hls.OutputStructure
	progress  []ffmpeg.Progress
	ran       bool
}

func (r *segmentWritingRunner) Run(ctx context.Context, cmd *ffmpeg.Command, onProgress ffmpeg.ProgressFunc) error {
	r.ran = true
	for _, p := range r.progress {
		if onProgress != nil {
			onProgress(p)
		}
	}

	write := func(folder string) {
		for _, name := range []string{"movie_00000.ts", "movie_00001.ts"} {
			require.NoError(r.t, os.WriteFile(filepath.Join(folder, name), make([]byte, 2048), 0o644))
		}
	}
	for _, out := range r.structure.VideoOutputs {
		write(out.FolderPath)
	}
	for _, out := range r.structure.AudioOutputs {
		write(out.FolderPath)
	}
	return nil
}

type captureNotifier struct {
	notifications []Notification
	err           error
}

func (n *captureNotifier) Notify(ctx context.Context, notification Notification) error {
	n.notifications = append(n.notifications, notification)
	return n.err
}

func testAnalysis() *models.StreamAnalysis {
	return &models.StreamAnalysis{
		Input: "movie.mkv",
		VideoStreams: []models.VideoStream{
			{Index: 0, Width: 1920, Height: 1080, Codec: "h264"},
		},
		AudioStreams: []models.AudioStream{
			{Index: 1, Language: "eng", Codec: "aac", Channels: 2},
		},
		Duration: 10,
	}
}

func testEngine(analysis *models.StreamAnalysis) *Engine {
	prober := &stubProber{analysis: analysis}
	caps := &stubCaps{info: &ffmpeg.BinaryInfo{Encoders: []string{"libx264", "aac"}}}
	resolver := ffmpeg.NewCodecResolver(caps, nil, slog.Default())
	synth := ffmpeg.NewSynthesizer("ffmpeg", resolver)
	gate := validate.NewGate(validate.NewOutputFileValidator(), validate.NewMediaContentValidator(prober), slog.Default())
	return New(prober, synth, gate, slog.Default())
}

func testJob(t *testing.T) *models.Job {
	job := models.NewJob("movie.mkv", t.TempDir(), "movie", models.EncoderProfile{
		Container: models.ContainerHLS,
		VideoProfiles: []models.VideoProfile{
			{Codec: "h264", Bitrate: 6000, Width: 1920, Height: 1080},
		},
		AudioProfiles: []models.AudioProfile{
			{Codec: "aac", Bitrate: 128, Language: "eng"},
		},
	})
	return job
}

func TestPlanJob(t *testing.T) {
	analysis := testAnalysis()
	e := testEngine(analysis)
	job := testJob(t)

	plan, err := e.PlanJob(context.Background(), job)
	require.NoError(t, err)

	assert.Same(t, analysis, job.Analysis)
	require.NotNil(t, plan.Command)
	assert.Contains(t, strings.Join(plan.Command.Args, " "), "-c:v libx264")

	require.Len(t, plan.Structure.VideoOutputs, 1)
	require.Len(t, plan.Structure.AudioOutputs, 1)
	assert.DirExists(t, plan.Structure.VideoOutputs[0].FolderPath)
	assert.DirExists(t, plan.Structure.AudioOutputs[0].FolderPath)

	types := make([]rules.ActionType, 0, len(plan.Actions))
	for _, action := range plan.Actions {
		types = append(types, action.Type)
	}
	assert.Contains(t, types, rules.ActionConfigureAccel)
	assert.Contains(t, types, rules.ActionRunChecklist)
}

func TestPlanJobRejectsBadProfile(t *testing.T) {
	e := testEngine(testAnalysis())

	job := models.NewJob("movie.mkv", t.TempDir(), "movie", models.EncoderProfile{})
	_, err := e.PlanJob(context.Background(), job)

	var cfgErr models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestPlanJobRejectsDangerousExtraOptions(t *testing.T) {
	e := testEngine(testAnalysis())
	job := testJob(t)
	job.Profile.VideoProfiles[0].ExtraOptions = []string{"$(rm -rf /)"}

	_, err := e.PlanJob(context.Background(), job)

	var cfgErr models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestPlanJobProbeFailure(t *testing.T) {
	e := testEngine(nil)
	e.prober = &stubProber{err: errors.New("unreachable input")}

	_, err := e.PlanJob(context.Background(), testJob(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analyzing input")
}

// fileWritingRunner simulates a combined single-file encode.
type fileWritingRunner struct {
	t         *testing.T
	structure *hls.OutputStructure
}

func (r *fileWritingRunner) Run(ctx context.Context, cmd *ffmpeg.Command, onProgress ffmpeg.ProgressFunc) error {
	require.NoError(r.t, os.WriteFile(r.structure.OutputPath, make([]byte, 4096), 0o644))
	return nil
}

func TestTranscodeCombinedSingleFile(t *testing.T) {
	analysis := testAnalysis()
	e := testEngine(analysis)

	job := models.NewJob("movie.mkv", t.TempDir(), "movie", models.EncoderProfile{
		Container:     models.ContainerMP4,
		VideoProfiles: []models.VideoProfile{{Codec: "h264", Bitrate: 6000}},
		AudioProfiles: []models.AudioProfile{{Codec: "aac", Bitrate: 128}},
	})
	job.Mode = models.OutputModeCombined

	plan, err := e.PlanJob(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, plan.Structure.OutputPath)
	assert.Contains(t, plan.Command.Args, plan.Structure.OutputPath)

	result, err := e.Transcode(context.Background(), job, &fileWritingRunner{t: t, structure: plan.Structure})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)

	// No playlist accompanies a single-file container.
	playlists, err := filepath.Glob(filepath.Join(job.OutputDir, "*.m3u8"))
	require.NoError(t, err)
	assert.Empty(t, playlists)

	require.NoError(t, e.Cleanup(plan.Structure))
	assert.NoFileExists(t, plan.Structure.OutputPath)
}

func TestTranscodeEndToEnd(t *testing.T) {
	analysis := testAnalysis()
	e := testEngine(analysis)
	job := testJob(t)

	// Plan once up front so the runner knows where segments land; planning
	// is idempotent, so the engine's own plan is identical.
	plan, err := e.PlanJob(context.Background(), job)
	require.NoError(t, err)

	runner := &segmentWritingRunner{t: t, structure: plan.Structure}
	result, err := e.Transcode(context.Background(), job, runner)
	require.NoError(t, err)
	assert.True(t, runner.ran)
	assert.True(t, result.Valid, "errors: %v", result.Errors)

	// One folder per rendition, each with its own playlist.
	videoPlaylist := filepath.Join(job.OutputDir, "video_1920x1080_SDR", "movie.m3u8")
	audioPlaylist := filepath.Join(job.OutputDir, "audio_eng_aac", "movie.m3u8")
	assert.FileExists(t, videoPlaylist)
	assert.FileExists(t, audioPlaylist)

	master, err := os.ReadFile(plan.Structure.MasterPlaylistPath)
	require.NoError(t, err)
	content := string(master)

	assert.Equal(t, 1, strings.Count(content, "#EXT-X-STREAM-INF:"))
	assert.Equal(t, 1, strings.Count(content, "#EXT-X-MEDIA:"))
	assert.Contains(t, content, "video_1920x1080_SDR/movie.m3u8")
	assert.Contains(t, content, "audio_eng_aac/movie.m3u8")

	// Final segment clamped: 10s total at 6s nominal is 6 + 4.
	media, err := os.ReadFile(videoPlaylist)
	require.NoError(t, err)
	assert.Contains(t, string(media), "#EXTINF:6.000,")
	assert.Contains(t, string(media), "#EXTINF:4.000,")
}

func TestTranscodeRunnerFailure(t *testing.T) {
	e := testEngine(testAnalysis())
	job := testJob(t)

	runner := &failingRunner{}
	_, err := e.Transcode(context.Background(), job, runner)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running transcode")
}

type failingRunner struct{}

func (r *failingRunner) Run(ctx context.Context, cmd *ffmpeg.Command, onProgress ffmpeg.ProgressFunc) error {
	return errors.New("exit status 1")
}

func TestProgressNotifications(t *testing.T) {
	analysis := testAnalysis()
	e := testEngine(analysis)
	notifier := &captureNotifier{}
	e.WithNotifier(notifier).WithNodeID("node-1")

	job := testJob(t)
	plan, err := e.PlanJob(context.Background(), job)
	require.NoError(t, err)

	runner := &segmentWritingRunner{
		t:         t,
		structure: plan.Structure,
		progress: []ffmpeg.Progress{
			{Frame: 120, FPS: 30, Speed: 2, OutTime: 5 * time.Second,
				Stats: &ffmpeg.ProcessStats{CPUPercent: 340, MemoryRSSBytes: 512 << 20}},
			{Frame: 240, FPS: 30, Speed: 2, OutTime: 10 * time.Second, Finished: true},
		},
	}
	_, err = e.Transcode(context.Background(), job, runner)
	require.NoError(t, err)

	require.Len(t, notifier.notifications, 2)
	first := notifier.notifications[0]
	assert.Equal(t, job.ID, first.JobID)
	assert.Equal(t, "node-1", first.NodeID)
	assert.InDelta(t, 50, first.Percentage, 0.1)
	assert.InDelta(t, 2.5, first.EstimatedRemaining, 0.1)
	assert.InDelta(t, 340, first.CPUPercent, 0.1)
	assert.Equal(t, uint64(512<<20), first.MemoryRSS)

	last := notifier.notifications[1]
	assert.InDelta(t, 100, last.Percentage, 0.1)
	assert.Zero(t, last.EstimatedRemaining)
}

func TestNotifierFailureDoesNotFailJob(t *testing.T) {
	analysis := testAnalysis()
	e := testEngine(analysis)
	e.WithNotifier(&captureNotifier{err: errors.New("webhook down")})

	job := testJob(t)
	plan, err := e.PlanJob(context.Background(), job)
	require.NoError(t, err)

	runner := &segmentWritingRunner{
		t: t, structure: plan.Structure,
		progress: []ffmpeg.Progress{{Frame: 120, Speed: 2, OutTime: 5 * time.Second}},
	}
	result, err := e.Transcode(context.Background(), job, runner)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestCleanup(t *testing.T) {
	analysis := testAnalysis()
	e := testEngine(analysis)
	job := testJob(t)

	plan, err := e.PlanJob(context.Background(), job)
	require.NoError(t, err)

	runner := &segmentWritingRunner{t: t, structure: plan.Structure}
	_, err = e.Transcode(context.Background(), job, runner)
	require.NoError(t, err)

	require.NoError(t, e.Cleanup(plan.Structure))

	assert.NoDirExists(t, plan.Structure.VideoOutputs[0].FolderPath)
	assert.NoDirExists(t, plan.Structure.AudioOutputs[0].FolderPath)
	assert.NoFileExists(t, plan.Structure.MasterPlaylistPath)

	// Cleanup of an already clean structure is a no-op.
	require.NoError(t, e.Cleanup(plan.Structure))
	require.NoError(t, e.Cleanup(nil))
}
