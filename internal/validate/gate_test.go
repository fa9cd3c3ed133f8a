package validate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hlsforge/internal/hls"
	"github.com/jmylchreest/hlsforge/internal/models"
)

func TestGateSeparateStreams(t *testing.T) {
	base := t.TempDir()

	analysis := &models.StreamAnalysis{
		Input:        "movie.mkv",
		VideoStreams: []models.VideoStream{{Index: 0, Width: 1920, Height: 1080}},
		AudioStreams: []models.AudioStream{{Index: 1, Language: "eng", Codec: "aac"}},
		Duration:     10,
	}

	structure, err := hls.NewPlanner().Plan(analysis, base, "movie", models.DefaultSpecification(), models.OutputModeSeparateStreams, models.ContainerHLS)
	require.NoError(t, err)

	// Simulate a finished encode: segments plus playlists in every folder,
	// and the master at the root.
	g := hls.NewGenerator()
	for _, out := range structure.VideoOutputs {
		writeRendition(t, out.FolderPath, out.PlaylistPath, g)
	}
	for _, out := range structure.AudioOutputs {
		writeRendition(t, out.FolderPath, out.PlaylistPath, g)
	}
	variants, groups := g.MasterEntries(structure)
	require.NoError(t, g.WriteMasterPlaylist(structure.MasterPlaylistPath, g.RenderMasterPlaylist(variants, groups)))

	prober := &stubProber{analysis: analysis}
	gate := NewGate(NewOutputFileValidator(), NewMediaContentValidator(prober), slog.Default())

	job := models.NewJob("movie.mkv", base, "movie", models.EncoderProfile{})
	result := gate.Validate(context.Background(), job, structure, 10)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestGateFailsOnEmptySegment(t *testing.T) {
	base := t.TempDir()

	analysis := &models.StreamAnalysis{
		Input:        "movie.mkv",
		VideoStreams: []models.VideoStream{{Index: 0, Width: 1920, Height: 1080}},
		Duration:     10,
	}

	structure, err := hls.NewPlanner().Plan(analysis, base, "movie", models.DefaultSpecification(), models.OutputModeSeparateStreams, models.ContainerHLS)
	require.NoError(t, err)

	g := hls.NewGenerator()
	out := structure.VideoOutputs[0]
	writeRendition(t, out.FolderPath, out.PlaylistPath, g)

	// Truncate one segment to zero bytes.
	require.NoError(t, os.WriteFile(filepath.Join(out.FolderPath, "movie_00001.ts"), nil, 0o644))

	variants, groups := g.MasterEntries(structure)
	require.NoError(t, g.WriteMasterPlaylist(structure.MasterPlaylistPath, g.RenderMasterPlaylist(variants, groups)))

	gate := NewGate(NewOutputFileValidator(), NewMediaContentValidator(&stubProber{analysis: analysis}), slog.Default())

	job := models.NewJob("movie.mkv", base, "movie", models.EncoderProfile{})
	result := gate.Validate(context.Background(), job, structure, 10)

	assert.False(t, result.Valid)
}

func TestGateCombinedSingleFile(t *testing.T) {
	base := t.TempDir()

	analysis := &models.StreamAnalysis{
		Input:        "movie.mkv",
		VideoStreams: []models.VideoStream{{Index: 0, Width: 1920, Height: 1080}},
		Duration:     10,
	}

	structure, err := hls.NewPlanner().Plan(analysis, base, "movie", models.DefaultSpecification(), models.OutputModeCombined, models.ContainerMP4)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(structure.OutputPath, make([]byte, 4096), 0o644))

	gate := NewGate(NewOutputFileValidator(), NewMediaContentValidator(&stubProber{analysis: analysis}), slog.Default())

	job := models.NewJob("movie.mkv", base, "movie", models.EncoderProfile{Container: models.ContainerMP4})
	result := gate.Validate(context.Background(), job, structure, 10)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)

	// A missing output file fails the gate outright.
	require.NoError(t, os.Remove(structure.OutputPath))
	result = gate.Validate(context.Background(), job, structure, 10)
	assert.False(t, result.Valid)
}

func writeRendition(t *testing.T, folder, playlistPath string, g *hls.Generator) {
	t.Helper()

	segments := []string{"movie_00000.ts", "movie_00001.ts"}
	for _, seg := range segments {
		require.NoError(t, os.WriteFile(filepath.Join(folder, seg), make([]byte, 2048), 0o644))
	}
	content := g.RenderMediaPlaylist(models.DefaultSpecification(), segments, 10)
	require.NoError(t, g.WriteMediaPlaylist(playlistPath, content))
}
