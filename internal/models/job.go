package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Job is the payload for one transcode: what to read, what to produce, and
// where. Rules and the engine consult it; the scheduler owns its lifecycle.
type Job struct {
	// ID uniquely identifies this job (ULID, sortable by creation time).
	ID string `json:"id"`

	// TaskID is the orchestrator-facing task identifier carried through
	// progress notifications.
	TaskID uuid.UUID `json:"task_id"`

	// Input is the source path or URL.
	Input string `json:"input"`

	// OutputDir is the base directory all rendition folders live under.
	OutputDir string `json:"output_dir"`

	// BaseName is the base filename for playlists and segments.
	BaseName string `json:"base_name"`

	// Profile describes the renditions to produce.
	Profile EncoderProfile `json:"profile"`

	// Mode selects combined or separate-stream output layout.
	Mode OutputMode `json:"mode"`

	// Spec carries the HLS playlist parameters.
	Spec Specification `json:"spec"`

	// Analysis is the probed input description, set once probing has run.
	// Rules consult it; it stays nil for jobs planned from caller-supplied
	// analyses kept outside the job.
	Analysis *StreamAnalysis `json:"analysis,omitempty"`

	// Metadata carries free-form hints rules match on (live, subtitles, ...).
	Metadata map[string]string `json:"metadata,omitempty"`

	// CreatedAt is when the job was constructed.
	CreatedAt time.Time `json:"created_at"`
}

// NewJob constructs a Job with generated identifiers and defaulted spec.
func NewJob(input, outputDir, baseName string, profile EncoderProfile) *Job {
	return &Job{
		ID:        ulid.Make().String(),
		TaskID:    uuid.New(),
		Input:     input,
		OutputDir: outputDir,
		BaseName:  baseName,
		Profile:   profile,
		Mode:      OutputModeSeparateStreams,
		Spec:      DefaultSpecification(),
		Metadata:  make(map[string]string),
		CreatedAt: time.Now().UTC(),
	}
}

// IsLive reports whether the job is tagged as a live transcode.
func (j *Job) IsLive() bool {
	return j.Metadata["live"] == "true"
}

// Validate checks the job for configuration errors.
func (j *Job) Validate() error {
	if j.Input == "" {
		return ConfigurationError{Field: "input", Message: "input is required"}
	}
	if j.OutputDir == "" {
		return ConfigurationError{Field: "output_dir", Message: "output directory is required"}
	}
	if j.BaseName == "" {
		return ConfigurationError{Field: "base_name", Message: "base name is required"}
	}
	if !j.Mode.IsValid() {
		return ConfigurationError{Field: "mode", Message: "unknown output mode"}
	}
	if err := j.Profile.Validate(); err != nil {
		return err
	}
	return j.Spec.Validate()
}
