package rules

import (
	"strings"

	"github.com/jmylchreest/hlsforge/internal/models"
)

// ExpectationKind identifies one validation stage the executor must apply
// after the encode.
type ExpectationKind string

const (
	ExpectOutputFiles    ExpectationKind = "output_files"
	ExpectMediaContent   ExpectationKind = "media_content"
	ExpectMediaPlaylists ExpectationKind = "media_playlists"
	ExpectMasterPlaylist ExpectationKind = "master_playlist"
)

// Expectation is one declarative validation requirement.
type Expectation struct {
	Kind ExpectationKind `json:"kind"`

	// Threshold parameterizes the check: minimum bytes for output files,
	// allowed duration variance in seconds for media content. Zero for
	// checks without a numeric knob.
	Threshold float64 `json:"threshold,omitempty"`
}

// ChecklistOptions carries the ordered validation expectations.
type ChecklistOptions struct {
	Expectations []Expectation `json:"expectations"`
}

func (ChecklistOptions) actionOptions() {}

// minSegmentBytes is the output-file size floor the checklist advertises.
const minSegmentBytes = 1024

// durationVariance is the allowed absolute duration variance in seconds.
// It matches the media-content validator's tolerance so the declarative
// checklist and the gate cannot disagree.
const durationVariance = 2.0

// isHLSContainer reports whether the container produces playlists.
func isHLSContainer(container string) bool {
	c := strings.ToLower(container)
	return c == "" || c == models.ContainerHLS
}

// ChecklistRule emits the validation gate as declarative expectations for
// executors that run validation themselves.
type ChecklistRule struct{}

// NewChecklistRule creates the rule.
func NewChecklistRule() *ChecklistRule {
	return &ChecklistRule{}
}

func (r *ChecklistRule) Name() string { return "checklist" }

// AppliesTo matches every job; all output is gated.
func (r *ChecklistRule) AppliesTo(job *models.Job) bool {
	return true
}

// Actions emits the four-stage expectation list. Playlist stages only apply
// where playlists exist: media playlists for HLS output, the master only for
// separate-stream jobs. A combined single-file container is gated on the
// file and content stages alone.
func (r *ChecklistRule) Actions(job *models.Job) []Action {
	expectations := []Expectation{
		{Kind: ExpectOutputFiles, Threshold: minSegmentBytes},
		{Kind: ExpectMediaContent, Threshold: durationVariance},
	}
	if job.Mode == models.OutputModeSeparateStreams || isHLSContainer(job.Profile.Container) {
		expectations = append(expectations, Expectation{Kind: ExpectMediaPlaylists})
	}
	if job.Mode == models.OutputModeSeparateStreams {
		expectations = append(expectations, Expectation{Kind: ExpectMasterPlaylist})
	}

	return []Action{{
		Type:    ActionRunChecklist,
		Name:    "post-encode validation checklist",
		Options: ChecklistOptions{Expectations: expectations},
	}}
}
