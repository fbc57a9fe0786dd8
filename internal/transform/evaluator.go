package transform

import (
	"context"
	"sort"

	"github.com/calder/stepscript/internal/document"
)

// RunScript executes a nested sub-script: steps is the raw step sequence of
// the sub-script and doc its initial document. The execution engine injects
// an implementation at construction, keeping the dependency between the
// evaluator and the engine one-directional.
type RunScript func(ctx context.Context, steps []any, doc any) (any, error)

// Evaluator interprets declarative transformation templates over a single
// input value. It is pure apart from hashing and time operations; the only
// way it reaches the outside world is the injected sub-script runner.
type Evaluator struct {
	run RunScript
}

// NewEvaluator creates an Evaluator. run may be nil, in which case templates
// that require sub-script execution (the filter sub-script form) fail with an
// OperationError.
func NewEvaluator(run RunScript) *Evaluator {
	return &Evaluator{run: run}
}

// Operation is one named step of a template chain.
type Operation struct {
	Name string
	Arg  any
}

// Template is an ordered operation chain; the output of each operation is
// the input of the next.
type Template []Operation

// Parse converts a raw template value into a Template.
//
// A string is shorthand for a single get operation. Mappings decoded through
// document.DecodeNode keep their declaration order; plain map[string]any
// templates evaluate in lexical key order, so multi-operation chains should
// be authored in YAML (or built as Template values) when order matters.
func Parse(v any) (Template, error) {
	switch t := v.(type) {
	case Template:
		return t, nil
	case string:
		return Template{{Name: "get", Arg: t}}, nil
	case *document.Object:
		ops := make(Template, 0, t.Len())
		for _, p := range t.Pairs {
			ops = append(ops, Operation{Name: p.Key, Arg: p.Value})
		}
		return ops, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ops := make(Template, 0, len(keys))
		for _, k := range keys {
			ops = append(ops, Operation{Name: k, Arg: t[k]})
		}
		return ops, nil
	}
	return nil, opErrf("template", "unsupported template of type %T", v)
}

// Apply evaluates a raw template value against input and returns the result.
func (e *Evaluator) Apply(ctx context.Context, input, template any) (any, error) {
	t, err := Parse(template)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, input, t)
}

// Run evaluates a parsed Template against input.
//
// If an intermediate result is nil the chain short-circuits to nil, except
// for operations that are defined to produce a value from nothing (static
// and default).
func (e *Evaluator) Run(ctx context.Context, input any, t Template) (any, error) {
	cur := input
	for _, op := range t {
		if cur == nil && !producesFromNull(op.Name) {
			return nil, nil
		}
		fn, ok := registry[op.Name]
		if !ok {
			return nil, &UnknownFunctionError{Name: op.Name}
		}
		out, err := fn(e, ctx, cur, op.Arg)
		if err != nil {
			return nil, err
		}
		cur = out
	}
	return cur, nil
}

// Operand resolves a value that may be a literal, a pointer path, or a
// nested template: strings are treated as paths into input, mappings as
// templates, and everything else as a literal. Shared by the diff
// operations and the engine's jump comparisons.
func (e *Evaluator) Operand(ctx context.Context, input, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return document.Get(input, x), nil
	case *document.Object, map[string]any:
		return e.Apply(ctx, input, x)
	default:
		return document.Plain(x), nil
	}
}

func producesFromNull(name string) bool {
	return name == "static" || name == "default"
}

// opFunc is the handler signature for a registered operation.
type opFunc func(e *Evaluator, ctx context.Context, input, arg any) (any, error)

// registry maps operation names to handlers. Populated once by the init
// functions of the ops files; never mutated afterwards.
var registry = map[string]opFunc{}

func register(name string, fn opFunc) {
	registry[name] = fn
}
