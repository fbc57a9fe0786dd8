package transform

import (
	"context"

	"github.com/calder/stepscript/internal/document"
)

func init() {
	register("changed", opChanged)
	register("change", opChange)
}

// opChanged computes a shallow structural diff between left and right: the
// result holds only keys whose value differs (deep equality per key), with
// the value taken from right. Keys that disappeared in right are reported
// with a nil value; unchanged keys are omitted.
func opChanged(e *Evaluator, ctx context.Context, input, arg any) (any, error) {
	left, err := e.operandField(ctx, input, arg, "left", "changed")
	if err != nil {
		return nil, err
	}
	right, err := e.operandField(ctx, input, arg, "right", "changed")
	if err != nil {
		return nil, err
	}
	leftMap, _ := left.(map[string]any)
	rightMap, _ := right.(map[string]any)

	out := map[string]any{}
	for k, lv := range leftMap {
		rv, present := rightMap[k]
		if !present {
			out[k] = nil
			continue
		}
		if !document.Equal(lv, rv) {
			out[k] = document.Copy(rv)
		}
	}
	for k, rv := range rightMap {
		if _, present := leftMap[k]; !present {
			out[k] = document.Copy(rv)
		}
	}
	return out, nil
}

// opChange applies a diff produced by changed back onto target: same-key
// overwrite with no deep merge, nil values overwriting to nil.
func opChange(e *Evaluator, ctx context.Context, input, arg any) (any, error) {
	target, err := e.operandField(ctx, input, arg, "target", "change")
	if err != nil {
		return nil, err
	}
	changes, err := e.operandField(ctx, input, arg, "changes", "change")
	if err != nil {
		return nil, err
	}
	out, _ := document.Copy(target).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	changesMap, _ := changes.(map[string]any)
	for k, v := range changesMap {
		out[k] = document.Copy(v)
	}
	return out, nil
}

// operandField resolves a named operand (a literal, path, or template) from
// an operation argument.
func (e *Evaluator) operandField(ctx context.Context, input, arg any, key, op string) (any, error) {
	v, ok := field(arg, key)
	if !ok {
		return nil, opErrf(op, "argument requires %s", key)
	}
	return e.Operand(ctx, input, v)
}
