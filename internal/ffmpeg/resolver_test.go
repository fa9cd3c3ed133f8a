package ffmpeg

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/hlsforge/internal/codec"
)

type stubCapabilities struct {
	info *BinaryInfo
	err  error
}

func (s *stubCapabilities) Detect(ctx context.Context) (*BinaryInfo, error) {
	return s.info, s.err
}

func TestResolveSoftwareFallback(t *testing.T) {
	caps := &stubCapabilities{info: &BinaryInfo{
		Encoders: []string{"libx264", "libx265", "aac"},
	}}
	r := NewCodecResolver(caps, nil, slog.Default())

	assert.Equal(t, "libx264", r.Resolve(context.Background(), "h264"))
	assert.Equal(t, "libx265", r.Resolve(context.Background(), "h265"))
	assert.Equal(t, "libx265", r.Resolve(context.Background(), "hevc"))
}

func TestResolveHardwarePreferred(t *testing.T) {
	caps := &stubCapabilities{info: &BinaryInfo{
		Encoders: []string{"libx264", "h264_nvenc", "h264_qsv"},
	}}
	accels := []GpuAccelerator{
		{Kind: codec.HWAccelQSV, Name: "Intel Quick Sync"},
		{Kind: codec.HWAccelCUDA, Name: "NVIDIA GPU"},
	}
	r := NewCodecResolver(caps, accels, slog.Default())

	// CUDA outranks QSV regardless of detection order.
	assert.Equal(t, "h264_nvenc", r.Resolve(context.Background(), "h264"))
}

func TestResolveHardwareEncoderMissing(t *testing.T) {
	// Accelerator present but ffmpeg was built without its encoder.
	caps := &stubCapabilities{info: &BinaryInfo{
		Encoders: []string{"libx264"},
	}}
	accels := []GpuAccelerator{{Kind: codec.HWAccelCUDA, Name: "NVIDIA GPU"}}
	r := NewCodecResolver(caps, accels, slog.Default())

	assert.Equal(t, "libx264", r.Resolve(context.Background(), "h264"))
}

func TestResolveAudio(t *testing.T) {
	caps := &stubCapabilities{info: &BinaryInfo{
		Encoders: []string{"aac", "libopus"},
	}}
	r := NewCodecResolver(caps, nil, slog.Default())

	assert.Equal(t, "aac", r.Resolve(context.Background(), "aac"))
	assert.Equal(t, "libopus", r.Resolve(context.Background(), "opus"))
}

func TestResolveUnrecognizedCodec(t *testing.T) {
	caps := &stubCapabilities{info: &BinaryInfo{Encoders: []string{"libx264"}}}
	r := NewCodecResolver(caps, nil, slog.Default())

	assert.Equal(t, "prores_ks", r.Resolve(context.Background(), "prores_ks"))
}

func TestResolveCapabilityFailure(t *testing.T) {
	caps := &stubCapabilities{err: errors.New("ffmpeg not found")}
	r := NewCodecResolver(caps, nil, slog.Default())

	// Resolution is total: degrade to the requested name.
	assert.Equal(t, "h264", r.Resolve(context.Background(), "h264"))
}

func TestAcceleratorFlags(t *testing.T) {
	r := NewCodecResolver(&stubCapabilities{}, nil, nil)
	assert.Nil(t, r.AcceleratorFlags())

	r = NewCodecResolver(&stubCapabilities{}, []GpuAccelerator{
		{Kind: codec.HWAccelCUDA, GlobalFlags: []string{"-hwaccel", "cuda"}},
		{Kind: codec.HWAccelQSV, GlobalFlags: []string{"-init_hw_device", "qsv=hw"}},
	}, nil)
	assert.Equal(t, []string{"-hwaccel", "cuda"}, r.AcceleratorFlags())
}
