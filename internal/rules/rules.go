// Package rules derives post-processing actions from a job payload. Rules
// are stateless and independent; an external executor interprets the
// actions they emit.
package rules

import "github.com/jmylchreest/hlsforge/internal/models"

// ActionType identifies what an executor should do with an action.
type ActionType string

const (
	// ActionExtractFonts pulls font attachments needed to render styled
	// subtitles.
	ActionExtractFonts ActionType = "extract_fonts"

	// ActionConvertSubtitle converts an image-based subtitle stream to a
	// text format via OCR.
	ActionConvertSubtitle ActionType = "convert_subtitle"

	// ActionExtractSubtitle extracts a text subtitle stream into a
	// standalone file.
	ActionExtractSubtitle ActionType = "extract_subtitle"

	// ActionConfigureAccel carries hardware-acceleration hints for the
	// executor's encoder setup.
	ActionConfigureAccel ActionType = "configure_accel"

	// ActionConfigureLive carries low-latency overrides for live jobs.
	ActionConfigureLive ActionType = "configure_live"

	// ActionRunChecklist carries the validation expectations the executor
	// applies after the encode.
	ActionRunChecklist ActionType = "run_checklist"
)

// ActionOptions is the per-action typed option payload. Each action type
// has exactly one concrete options struct.
type ActionOptions interface {
	actionOptions()
}

// Action is one unit of post-processing work. The executor switches on Type
// and asserts Options to the matching struct.
type Action struct {
	Type       ActionType    `json:"type"`
	Name       string        `json:"name"`
	InputPath  string        `json:"input_path,omitempty"`
	OutputPath string        `json:"output_path,omitempty"`
	Format     string        `json:"format,omitempty"`
	Options    ActionOptions `json:"options,omitempty"`
}

// Rule inspects a job and emits ordered actions. Rules must be stateless,
// side-effect free, and independent of each other's output.
type Rule interface {
	Name() string
	AppliesTo(job *models.Job) bool
	Actions(job *models.Job) []Action
}

// Engine holds an ordered rule list.
type Engine struct {
	rules []Rule
}

// NewEngine creates a rule engine over the given rules, evaluated in order.
func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// Register appends a rule.
func (e *Engine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rules in evaluation order.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// ActionsFor collects the actions of every applicable rule, in rule order.
func (e *Engine) ActionsFor(job *models.Job) []Action {
	var actions []Action
	for _, rule := range e.rules {
		if rule.AppliesTo(job) {
			actions = append(actions, rule.Actions(job)...)
		}
	}
	return actions
}
