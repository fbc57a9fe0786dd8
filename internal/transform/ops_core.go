package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/calder/stepscript/internal/document"
)

// mergeKey is the special object property that merges the original input's
// own properties into the built object.
const mergeKey = "..."

func init() {
	register("get", opGet)
	register("static", opStatic)
	register("default", opDefault)
	register("object", opObject)
	register("transform", opObject)
	register("map", opMap)
	register("array", opArray)
	register("union", opUnion)
	register("filter", opFilter)
	register("keys", opKeys)
	register("pick", opPick)
	register("omit", opOmit)
}

func opGet(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	pointer, ok := arg.(string)
	if !ok {
		return nil, nil
	}
	return document.Get(input, pointer), nil
}

func opStatic(_ *Evaluator, _ context.Context, _, arg any) (any, error) {
	return document.Copy(document.Plain(arg)), nil
}

func opDefault(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	if input != nil {
		return input, nil
	}
	return document.Copy(document.Plain(arg)), nil
}

// opObject builds a new object. Each property is shorthand (a path string),
// a nested template (a mapping), or a literal. The "..." property merges the
// original input's own properties; it always applies after the explicit
// properties so explicit values win on key collision.
func opObject(e *Evaluator, ctx context.Context, input, arg any) (any, error) {
	var pairs []document.Pair
	switch m := arg.(type) {
	case *document.Object:
		pairs = m.Pairs
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pairs = append(pairs, document.Pair{Key: k, Value: m[k]})
		}
	default:
		return nil, opErrf("object", "argument must be a mapping, got %T", arg)
	}

	out := map[string]any{}
	merge := false
	for _, p := range pairs {
		if p.Key == mergeKey {
			merge = true
			continue
		}
		val, err := e.property(ctx, input, p.Value)
		if err != nil {
			return nil, err
		}
		out[p.Key] = val
	}
	if merge {
		if src, ok := input.(map[string]any); ok {
			for k, v := range src {
				if _, taken := out[k]; !taken {
					out[k] = document.Copy(v)
				}
			}
		}
	}
	return out, nil
}

// property evaluates one object property definition against input.
func (e *Evaluator) property(ctx context.Context, input, def any) (any, error) {
	switch v := def.(type) {
	case string:
		return document.Get(input, v), nil
	case *document.Object, map[string]any:
		return e.Apply(ctx, input, v)
	default:
		return document.Plain(v), nil
	}
}

func opMap(e *Evaluator, ctx context.Context, input, arg any) (any, error) {
	items, ok := input.([]any)
	if !ok {
		return nil, nil
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		val, err := e.property(ctx, item, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}

func opArray(e *Evaluator, ctx context.Context, input, arg any) (any, error) {
	defs, ok := arg.([]any)
	if !ok {
		return nil, opErrf("array", "argument must be a sequence, got %T", arg)
	}
	out := make([]any, 0, len(defs))
	for _, def := range defs {
		val, err := e.property(ctx, input, def)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}

// opUnion evaluates each sub-template against the same input and collects
// the set-union of the resulting arrays, deduplicated in first-seen order.
func opUnion(e *Evaluator, ctx context.Context, input, arg any) (any, error) {
	defs, ok := arg.([]any)
	if !ok {
		return nil, opErrf("union", "argument must be a sequence, got %T", arg)
	}
	out := []any{}
	seen := map[string]bool{}
	add := func(v any) {
		key := canonicalKey(v)
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}
	for _, def := range defs {
		val, err := e.property(ctx, input, def)
		if err != nil {
			return nil, err
		}
		switch v := val.(type) {
		case nil:
		case []any:
			for _, item := range v {
				add(item)
			}
		default:
			add(v)
		}
	}
	return out, nil
}

// opFilter has three forms:
//
//   - no argument: keeps the truthy elements of an array input
//   - a bare step sequence: runs it as a sub-script per element of the input
//     array, keeping elements whose result is truthy
//   - {source, filter}: evaluates source to obtain the candidate array, then
//     runs filter as a sub-script per element
//
// The sub-script's document is the element under "item" merged with the
// outer document's properties; original element order is preserved.
func opFilter(e *Evaluator, ctx context.Context, input, arg any) (any, error) {
	switch a := arg.(type) {
	case nil:
		items, ok := input.([]any)
		if !ok {
			return nil, nil
		}
		out := []any{}
		for _, item := range items {
			if document.Truthy(item) {
				out = append(out, item)
			}
		}
		return out, nil
	case []any:
		items, ok := input.([]any)
		if !ok {
			return nil, nil
		}
		return e.filterScript(ctx, input, items, a)
	default:
		source, ok := field(arg, "source")
		if !ok {
			return nil, opErrf("filter", "sub-script form requires source")
		}
		stepsVal, ok := field(arg, "filter")
		if !ok {
			return nil, opErrf("filter", "sub-script form requires filter")
		}
		steps, ok := stepsVal.([]any)
		if !ok {
			return nil, opErrf("filter", "filter must be a step sequence, got %T", stepsVal)
		}
		candidates, err := e.Operand(ctx, input, source)
		if err != nil {
			return nil, err
		}
		items, ok := candidates.([]any)
		if !ok {
			return nil, nil
		}
		return e.filterScript(ctx, input, items, steps)
	}
}

func (e *Evaluator) filterScript(ctx context.Context, outer any, items, steps []any) (any, error) {
	if e.run == nil {
		return nil, opErrf("filter", "no sub-script runner configured")
	}
	out := []any{}
	for _, item := range items {
		doc := map[string]any{"item": document.Copy(item)}
		if m, ok := outer.(map[string]any); ok {
			for k, v := range m {
				if k != "item" {
					doc[k] = document.Copy(v)
				}
			}
		}
		result, err := e.run(ctx, steps, doc)
		if err != nil {
			return nil, err
		}
		if document.Truthy(result) {
			out = append(out, item)
		}
	}
	return out, nil
}

func opKeys(_ *Evaluator, _ context.Context, input, _ any) (any, error) {
	m, ok := input.(map[string]any)
	if !ok {
		return nil, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out, nil
}

func opPick(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	m, ok := input.(map[string]any)
	if !ok {
		return nil, nil
	}
	out := map[string]any{}
	for _, k := range stringList(arg) {
		if v, present := m[k]; present {
			out[k] = v
		}
	}
	return out, nil
}

func opOmit(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	m, ok := input.(map[string]any)
	if !ok {
		return nil, nil
	}
	drop := map[string]bool{}
	for _, k := range stringList(arg) {
		drop[k] = true
	}
	out := map[string]any{}
	for k, v := range m {
		if !drop[k] {
			out[k] = v
		}
	}
	return out, nil
}

// canonicalKey renders a deterministic identity for union deduplication.
func canonicalKey(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}
