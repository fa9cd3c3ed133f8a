package ffmpeg

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessStats contains resource usage statistics for an FFmpeg process.
type ProcessStats struct {
	PID int `json:"pid"`

	// CPUPercent is the current CPU usage as a percentage (0-100 per core).
	CPUPercent float64 `json:"cpu_percent"`

	// Memory usage.
	MemoryRSSBytes uint64  `json:"memory_rss_bytes"`
	MemoryRSSMB    float64 `json:"memory_rss_mb"`
	MemoryPercent  float32 `json:"memory_percent"`

	// IO counters for the process.
	IOReadBytes  uint64 `json:"io_read_bytes"`
	IOWriteBytes uint64 `json:"io_write_bytes"`

	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	LastUpdated time.Time     `json:"last_updated"`
}

// ProcessMonitor samples resource usage of a running FFmpeg process on an
// interval. Samples are best effort: a vanished process stops updating stats
// rather than erroring.
type ProcessMonitor struct {
	pid       int
	proc      *process.Process
	startedAt time.Time
	interval  time.Duration

	mu    sync.RWMutex
	stats ProcessStats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessMonitor creates a monitor for the given PID.
func NewProcessMonitor(pid int) *ProcessMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	pm := &ProcessMonitor{
		pid:       pid,
		startedAt: time.Now(),
		interval:  time.Second,
		ctx:       ctx,
		cancel:    cancel,
	}
	pm.proc, _ = process.NewProcess(int32(pid))
	return pm
}

// SetInterval sets the sampling interval. Must be called before Start.
func (pm *ProcessMonitor) SetInterval(d time.Duration) {
	pm.mu.Lock()
	pm.interval = d
	pm.mu.Unlock()
}

// Start begins sampling in the background.
func (pm *ProcessMonitor) Start() {
	pm.mu.RLock()
	interval := pm.interval
	pm.mu.RUnlock()

	pm.wg.Add(1)
	go func() {
		defer pm.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		pm.sample()
		for {
			select {
			case <-pm.ctx.Done():
				return
			case <-ticker.C:
				pm.sample()
			}
		}
	}()
}

// Stop stops sampling and waits for the sampler to exit.
func (pm *ProcessMonitor) Stop() {
	pm.cancel()
	pm.wg.Wait()
}

// Stats returns the latest sampled statistics.
func (pm *ProcessMonitor) Stats() ProcessStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.stats
}

// sample takes one snapshot of process statistics.
func (pm *ProcessMonitor) sample() {
	now := time.Now()

	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.stats.PID = pm.pid
	pm.stats.StartedAt = pm.startedAt
	pm.stats.Duration = now.Sub(pm.startedAt)
	pm.stats.LastUpdated = now

	if pm.proc == nil {
		return
	}

	if pct, err := pm.proc.CPUPercent(); err == nil {
		pm.stats.CPUPercent = pct
	}
	if mem, err := pm.proc.MemoryInfo(); err == nil && mem != nil {
		pm.stats.MemoryRSSBytes = mem.RSS
		pm.stats.MemoryRSSMB = float64(mem.RSS) / (1024 * 1024)
	}
	if pct, err := pm.proc.MemoryPercent(); err == nil {
		pm.stats.MemoryPercent = pct
	}
	if io, err := pm.proc.IOCounters(); err == nil && io != nil {
		pm.stats.IOReadBytes = io.ReadBytes
		pm.stats.IOWriteBytes = io.WriteBytes
	}
}

// hostCoreCount returns the logical core count for encoder thread flags.
func hostCoreCount() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
