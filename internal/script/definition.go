package script

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/calder/stepscript/internal/document"
)

// DefaultMaxSteps bounds a run when the definition does not set maxSteps.
// It is the only protection against runaway loops, so it applies always.
const DefaultMaxSteps = 1000

// Definition is a declarative script as authored: a name, an ordered step
// sequence, and optional execution and scheduling attributes.
//
// A step is either a bare string (a label, a named jump target) or a mapping
// whose keys are operation names. Steps are kept in decoded document form
// (string, *document.Object or map[string]any) and compiled by the engine.
type Definition struct {
	// Name identifies the script. Required.
	Name string `json:"name"`

	// Steps is the ordered step sequence. Required; may be empty. A nil
	// Steps means the definition had no steps key at all.
	Steps []any `json:"steps"`

	// MaxSteps is the step budget per run. Zero means DefaultMaxSteps.
	MaxSteps int `json:"maxSteps,omitempty"`

	// Delay is the pause in milliseconds before each step, including the
	// first. Zero disables pacing.
	Delay int `json:"delay,omitempty"`

	// Schedule is an optional cron expression with a seconds field.
	Schedule string `json:"schedule,omitempty"`

	// RunOnStartup requests one deferred run shortly after startup.
	RunOnStartup bool `json:"runOnStartup,omitempty"`
}

// UnmarshalYAML decodes a definition, routing the step sequence through
// document.DecodeNode so mapping key order survives. Template chains depend
// on that order.
func (d *Definition) UnmarshalYAML(n *yaml.Node) error {
	var aux struct {
		Name         string    `yaml:"name"`
		Steps        yaml.Node `yaml:"steps"`
		MaxSteps     int       `yaml:"maxSteps"`
		Delay        int       `yaml:"delay"`
		Schedule     string    `yaml:"schedule"`
		RunOnStartup bool      `yaml:"runOnStartup"`
	}
	if err := n.Decode(&aux); err != nil {
		return err
	}
	d.Name = aux.Name
	d.MaxSteps = aux.MaxSteps
	d.Delay = aux.Delay
	d.Schedule = aux.Schedule
	d.RunOnStartup = aux.RunOnStartup

	d.Steps = nil
	if aux.Steps.Kind != 0 {
		decoded, err := document.DecodeNode(&aux.Steps)
		if err != nil {
			return fmt.Errorf("decode steps: %w", err)
		}
		steps, ok := decoded.([]any)
		if !ok {
			return fmt.Errorf("steps must be a sequence, got %T", decoded)
		}
		d.Steps = steps
	}
	return nil
}

// Check validates the structural invariants that do not need compilation:
// name and steps must be present, and numeric attributes must be in range.
func (d *Definition) Check() error {
	if d.Name == "" {
		return NewDefinitionError(ErrCodeMissingName, "", "definition requires name")
	}
	if d.Steps == nil {
		return NewDefinitionError(ErrCodeMissingSteps, d.Name, "definition requires steps")
	}
	if d.MaxSteps < 0 {
		return NewDefinitionError(ErrCodeSchema, d.Name, "maxSteps must be positive, got %d", d.MaxSteps)
	}
	if d.Delay < 0 {
		return NewDefinitionError(ErrCodeSchema, d.Name, "delay must be non-negative, got %d", d.Delay)
	}
	return nil
}

// EffectiveMaxSteps returns the step budget, applying the default.
func (d *Definition) EffectiveMaxSteps() int {
	if d.MaxSteps > 0 {
		return d.MaxSteps
	}
	return DefaultMaxSteps
}
