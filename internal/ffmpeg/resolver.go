package ffmpeg

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/hlsforge/internal/codec"
)

// capabilitySource supplies the cached encoder inventory. *BinaryDetector
// satisfies it; tests substitute a stub.
type capabilitySource interface {
	Detect(ctx context.Context) (*BinaryInfo, error)
}

// CodecResolver maps requested codec names onto concrete encoder
// implementations, preferring hardware accelerators in priority order.
// Resolution is total: it always returns a usable name and never fails.
type CodecResolver struct {
	caps   capabilitySource
	accels []GpuAccelerator
	logger *slog.Logger
}

// NewCodecResolver creates a resolver over the detected capabilities and
// accelerators.
func NewCodecResolver(caps capabilitySource, accels []GpuAccelerator, logger *slog.Logger) *CodecResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CodecResolver{
		caps:   caps,
		accels: accels,
		logger: logger,
	}
}

// Resolve maps a requested codec name to a concrete encoder. The walk is:
// accelerator priority chain intersected with the codec's encoder table,
// against the cached available-encoder list; otherwise the software encoder.
// If the capability query fails, resolution degrades to returning the
// requested name unchanged.
func (r *CodecResolver) Resolve(ctx context.Context, requested string) string {
	info, err := r.caps.Detect(ctx)
	if err != nil {
		r.logger.Warn("capability query failed, using requested codec unchanged",
			slog.String("codec", requested),
			slog.String("error", err.Error()))
		return requested
	}

	if audio, ok := codec.ParseAudio(requested); ok {
		if enc := codec.AudioEncoder(audio); info.HasEncoder(enc) {
			return enc
		}
		return requested
	}

	video, ok := codec.ParseVideo(requested)
	if !ok {
		// Unrecognized codec resolves to itself rather than failing.
		return requested
	}

	// Walk the fixed priority chain, not the caller's ordering.
	for _, kind := range acceleratorPriority {
		if !r.hasAccelerator(kind) {
			continue
		}
		enc, ok := codec.VideoEncoder(video, kind)
		if !ok {
			continue
		}
		if info.HasEncoder(enc) {
			r.logger.Debug("resolved codec to hardware encoder",
				slog.String("codec", requested),
				slog.String("encoder", enc),
				slog.String("accelerator", kind.String()))
			return enc
		}
	}

	if enc, ok := codec.SoftwareVideoEncoder(video); ok {
		return enc
	}
	return requested
}

func (r *CodecResolver) hasAccelerator(kind codec.HWAccel) bool {
	for _, accel := range r.accels {
		if accel.Kind == kind {
			return true
		}
	}
	return false
}

// AcceleratorFlags returns the global flags for the highest-priority
// detected accelerator, or nil when encoding is software only.
func (r *CodecResolver) AcceleratorFlags() []string {
	if len(r.accels) == 0 {
		return nil
	}
	return r.accels[0].GlobalFlags
}
