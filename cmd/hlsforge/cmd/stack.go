package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/hlsforge/internal/config"
	"github.com/jmylchreest/hlsforge/internal/engine"
	"github.com/jmylchreest/hlsforge/internal/ffmpeg"
	"github.com/jmylchreest/hlsforge/internal/rules"
	"github.com/jmylchreest/hlsforge/internal/validate"
)

// stack is the fully wired transcode machinery built from configuration.
type stack struct {
	cfg      *config.Config
	detector *ffmpeg.BinaryDetector
	prober   *ffmpeg.Prober
	gate     *validate.Gate
	engine   *engine.Engine
}

// buildStack detects binaries and accelerators and wires the engine.
func buildStack(ctx context.Context) (*stack, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	logger := slog.Default()

	detector := ffmpeg.NewBinaryDetector().
		WithCacheTTL(cfg.FFmpeg.CapabilityCacheTTL.Duration()).
		WithPaths(cfg.FFmpeg.FFmpegPath, cfg.FFmpeg.FFprobePath)

	info, err := detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detecting ffmpeg: %w", err)
	}
	logger.Info("ffmpeg detected",
		slog.String("path", info.FFmpegPath),
		slog.String("version", info.Version),
		slog.Int("encoders", len(info.Encoders)))

	accels := ffmpeg.NewAcceleratorDetector(info.FFmpegPath).Detect(ctx)
	for _, accel := range accels {
		logger.Info("hardware accelerator available",
			slog.String("kind", accel.Kind.String()),
			slog.String("name", accel.Name))
	}

	resolver := ffmpeg.NewCodecResolver(detector, accels, logger)
	prober := ffmpeg.NewProber(info.FFprobePath).
		WithTimeout(cfg.FFmpeg.ProbeTimeout.Duration())
	synthesizer := ffmpeg.NewSynthesizer(info.FFmpegPath, resolver)

	gate := validate.NewGate(
		validate.NewOutputFileValidator().WithMinSize(cfg.Storage.MinOutputSize.Bytes()),
		validate.NewMediaContentValidator(prober),
		logger)

	ruleSet := rules.NewEngine(
		rules.NewSubtitleRule(nil),
		rules.NewHardwareAccelRule(),
		rules.NewLiveStreamRule(cfg.Live),
		rules.NewChecklistRule(),
	)

	return &stack{
		cfg:      cfg,
		detector: detector,
		prober:   prober,
		gate:     gate,
		engine:   engine.New(prober, synthesizer, gate, logger).WithRules(ruleSet),
	}, nil
}
