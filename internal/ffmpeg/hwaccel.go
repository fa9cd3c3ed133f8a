package ffmpeg

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/jmylchreest/hlsforge/internal/codec"
)

// GpuAccelerator describes one detected hardware accelerator and the global
// flags that enable it on the ffmpeg command line.
type GpuAccelerator struct {
	// Kind identifies the accelerator family (cuda, qsv, amf, videotoolbox).
	Kind codec.HWAccel `json:"kind"`

	// Name is a human-readable device name when one is known.
	Name string `json:"name,omitempty"`

	// GlobalFlags are inserted before the input to enable the accelerator.
	GlobalFlags []string `json:"global_flags,omitempty"`
}

// acceleratorPriority is the fixed preference order for hardware encoders.
// NVIDIA, then Intel, then AMD, then Apple; software is the implicit tail.
var acceleratorPriority = []codec.HWAccel{
	codec.HWAccelCUDA,
	codec.HWAccelQSV,
	codec.HWAccelAMF,
	codec.HWAccelVT,
}

// AcceleratorDetector probes the host for working hardware accelerators.
type AcceleratorDetector struct {
	ffmpegPath string
}

// NewAcceleratorDetector creates a detector bound to an ffmpeg binary.
func NewAcceleratorDetector(ffmpegPath string) *AcceleratorDetector {
	return &AcceleratorDetector{ffmpegPath: ffmpegPath}
}

// Detect verifies each accelerator with a tiny null-sink encode and returns
// descriptors for the ones that work, in priority order. An empty result
// means software encoding only.
func (d *AcceleratorDetector) Detect(ctx context.Context) []GpuAccelerator {
	var accels []GpuAccelerator
	for _, kind := range acceleratorPriority {
		if accel, ok := d.test(ctx, kind); ok {
			accels = append(accels, accel)
		}
	}
	return accels
}

func (d *AcceleratorDetector) test(ctx context.Context, kind codec.HWAccel) (GpuAccelerator, bool) {
	switch kind {
	case codec.HWAccelCUDA:
		return d.testNVIDIA(ctx)
	case codec.HWAccelQSV:
		return d.testQSV(ctx)
	case codec.HWAccelAMF:
		return d.testAMF(ctx)
	case codec.HWAccelVT:
		return d.testVideoToolbox(ctx)
	default:
		return GpuAccelerator{}, false
	}
}

// testEncode runs a short null-sink encode to verify an encoder works on
// this host, with the given flags before the input.
func (d *AcceleratorDetector) testEncode(ctx context.Context, encoder string, preInput ...string) bool {
	args := []string{"-hide_banner"}
	args = append(args, preInput...)
	args = append(args,
		"-f", "lavfi", "-i", "nullsrc=s=320x240:d=0.1",
		"-c:v", encoder,
		"-t", "0.01",
		"-f", "null", "-")
	return exec.CommandContext(ctx, d.ffmpegPath, args...).Run() == nil
}

// testNVIDIA tests NVIDIA NVENC availability.
func (d *AcceleratorDetector) testNVIDIA(ctx context.Context) (GpuAccelerator, bool) {
	// nvidia-smi names the device; absence means no NVIDIA GPU.
	cmd := exec.CommandContext(ctx, "nvidia-smi", "--query-gpu=name", "--format=csv,noheader")
	output, err := cmd.Output()
	if err != nil {
		return GpuAccelerator{}, false
	}
	deviceName := strings.TrimSpace(strings.Split(string(output), "\n")[0])
	if deviceName == "" {
		return GpuAccelerator{}, false
	}

	if !d.testEncode(ctx, "h264_nvenc", "-hwaccel", "cuda") {
		return GpuAccelerator{}, false
	}

	return GpuAccelerator{
		Kind:        codec.HWAccelCUDA,
		Name:        deviceName,
		GlobalFlags: []string{"-hwaccel", "cuda"},
	}, true
}

// testQSV tests Intel Quick Sync availability.
func (d *AcceleratorDetector) testQSV(ctx context.Context) (GpuAccelerator, bool) {
	if !d.testEncode(ctx, "h264_qsv", "-init_hw_device", "qsv=hw") {
		return GpuAccelerator{}, false
	}
	return GpuAccelerator{
		Kind:        codec.HWAccelQSV,
		Name:        "Intel Quick Sync",
		GlobalFlags: []string{"-init_hw_device", "qsv=hw"},
	}, true
}

// testAMF tests AMD AMF availability.
func (d *AcceleratorDetector) testAMF(ctx context.Context) (GpuAccelerator, bool) {
	if !d.testEncode(ctx, "h264_amf") {
		return GpuAccelerator{}, false
	}
	return GpuAccelerator{
		Kind: codec.HWAccelAMF,
		Name: "AMD AMF",
	}, true
}

// testVideoToolbox tests Apple VideoToolbox availability (macOS only).
func (d *AcceleratorDetector) testVideoToolbox(ctx context.Context) (GpuAccelerator, bool) {
	if runtime.GOOS != "darwin" {
		return GpuAccelerator{}, false
	}
	if !d.testEncode(ctx, "h264_videotoolbox") {
		return GpuAccelerator{}, false
	}
	return GpuAccelerator{
		Kind: codec.HWAccelVT,
		Name: "Apple VideoToolbox",
	}, true
}
