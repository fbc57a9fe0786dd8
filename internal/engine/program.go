package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/calder/stepscript/internal/capability"
	"github.com/calder/stepscript/internal/document"
	"github.com/calder/stepscript/internal/script"
	"github.com/calder/stepscript/internal/transform"
)

// Program is a compiled script: an immutable step sequence with a resolved
// label table and an independent execution slot. Create one with New, or get
// another slot over the same compiled steps with Clone.
type Program struct {
	def    *script.Definition
	steps  []compiledStep
	labels map[string]int

	maxSteps int
	delay    time.Duration

	query  capability.QueryExecutor
	http   capability.HTTPClient
	logger *slog.Logger
	eval   *transform.Evaluator

	busy  atomic.Bool
	debug atomic.Bool
}

// Option configures a Program at construction.
type Option func(*Program)

// WithQueryExecutor injects the host query capability. Without one, query
// steps fail at run time.
func WithQueryExecutor(q capability.QueryExecutor) Option {
	return func(p *Program) { p.query = q }
}

// WithHTTPClient injects the host HTTP capability. Without one, request
// steps fail at run time.
func WithHTTPClient(h capability.HTTPClient) Option {
	return func(p *Program) { p.http = h }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(p *Program) { p.logger = l }
}

// New compiles a script definition into a Program. It fails with a
// DefinitionError if name or steps is missing, a step is malformed, a label
// is declared twice, or a jump targets an unknown label.
func New(def *script.Definition, opts ...Option) (*Program, error) {
	if err := def.Check(); err != nil {
		return nil, err
	}

	p := &Program{
		def:      def,
		maxSteps: def.EffectiveMaxSteps(),
		delay:    time.Duration(def.Delay) * time.Millisecond,
		logger:   slog.Default(),
		labels:   map[string]int{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("script", def.Name)
	p.eval = transform.NewEvaluator(p.runSubScript)

	p.steps = make([]compiledStep, 0, len(def.Steps))
	for i, raw := range def.Steps {
		st, err := parseStep(def.Name, i, raw)
		if err != nil {
			return nil, err
		}
		if st.label != "" {
			if _, dup := p.labels[st.label]; dup {
				return nil, script.NewDefinitionError(script.ErrCodeDuplicateLabel, def.Name,
					"label %q declared more than once", st.label)
			}
			p.labels[st.label] = i
		}
		p.steps = append(p.steps, st)
	}

	for i, st := range p.steps {
		if st.jump == nil || st.jump.to == endLabel {
			continue
		}
		if _, ok := p.labels[st.jump.to]; !ok {
			return nil, script.NewDefinitionError(script.ErrCodeUnknownLabel, def.Name,
				"step %d jumps to unknown label %q", i, st.jump.to)
		}
	}
	return p, nil
}

// Clone returns an independent execution slot sharing the compiled steps and
// label table. The clone has its own busy flag and debug setting, so two
// clones of one script can run concurrently without interference.
func (p *Program) Clone() *Program {
	c := &Program{
		def:      p.def,
		steps:    p.steps,
		labels:   p.labels,
		maxSteps: p.maxSteps,
		delay:    p.delay,
		query:    p.query,
		http:     p.http,
		logger:   p.logger,
	}
	c.debug.Store(p.debug.Load())
	c.eval = transform.NewEvaluator(c.runSubScript)
	return c
}

// Name returns the script name.
func (p *Program) Name() string {
	return p.def.Name
}

// Definition returns the definition this Program was compiled from. Callers
// must not mutate it.
func (p *Program) Definition() *script.Definition {
	return p.def
}

// Busy reports whether a run is currently in flight on this Program.
func (p *Program) Busy() bool {
	return p.busy.Load()
}

// SetDebug toggles debug mode. When enabled, Run resolves to a *DebugResult
// carrying the output, the definition, and a recursive per-step trace
// instead of the bare output.
func (p *Program) SetDebug(enabled bool) {
	p.debug.Store(enabled)
}

// Run executes the script over the given input document (nil means an empty
// object) and returns the final document.
//
// Run fails immediately with a ReentrancyError if a previous run on this
// Program has not settled. The busy flag is cleared on every exit path.
func (p *Program) Run(ctx context.Context, input any) (any, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return nil, &ReentrancyError{Script: p.def.Name}
	}
	defer p.busy.Store(false)

	if input == nil {
		input = map[string]any{}
	}
	doc := document.Copy(input)

	var root *StepTrace
	if p.debug.Load() {
		root = &StepTrace{}
	}

	out, err := p.exec(ctx, doc, root)
	if err != nil {
		p.logger.Error("run failed", "error", err)
		return nil, err
	}
	if root != nil {
		return &DebugResult{Output: out, Definition: p.def, Children: root.Children}, nil
	}
	return out, nil
}

// runSubScript is the evaluator's capability to execute a nested sub-script
// (the filter sub-script form). The sub-program inherits this program's
// capabilities and step budget but never its delay.
func (p *Program) runSubScript(ctx context.Context, steps []any, doc any) (any, error) {
	sub, err := New(
		&script.Definition{Name: p.def.Name, Steps: steps, MaxSteps: p.maxSteps},
		WithQueryExecutor(p.query),
		WithHTTPClient(p.http),
		WithLogger(p.logger),
	)
	if err != nil {
		return nil, err
	}

	parent := traceNode(ctx)
	if parent != nil {
		sub.SetDebug(true)
	}
	out, err := sub.Run(ctx, doc)
	if err != nil {
		return nil, err
	}
	if dr, ok := out.(*DebugResult); ok {
		if parent != nil {
			parent.Children = append(parent.Children, dr.Children...)
		}
		return dr.Output, nil
	}
	return out, nil
}
