package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notification is one progress update sent to the external notifier.
type Notification struct {
	TaskID uuid.UUID `json:"task_id"`
	JobID  string    `json:"job_id"`
	NodeID string    `json:"node_id"`

	// Percentage is 0-100, derived from output time against total duration.
	Percentage float64 `json:"percentage"`

	EncodedFrames int64   `json:"encoded_frames"`
	FPS           float64 `json:"fps"`
	Speed         float64 `json:"speed"`
	Bitrate       string  `json:"bitrate,omitempty"`

	// CurrentTime and TotalDuration are in seconds.
	CurrentTime   float64 `json:"current_time"`
	TotalDuration float64 `json:"total_duration"`

	// EstimatedRemaining is the projected wall-clock seconds left, derived
	// from the remaining media time and the current encode speed.
	EstimatedRemaining float64 `json:"estimated_remaining"`

	// OutputSize is the bytes written so far.
	OutputSize int64 `json:"output_size"`

	// Resource usage of the encoder process, when a sample is available.
	CPUPercent float64 `json:"cpu_percent,omitempty"`
	MemoryRSS  uint64  `json:"memory_rss,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Notifier delivers progress notifications. Delivery failures are logged by
// the engine and never retried; job correctness must not depend on them.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
