package transform

import (
	"context"
	"sort"

	"github.com/calder/stepscript/internal/document"
)

func init() {
	register("assert", opAssert)
}

// opAssert validates the input object against an inline property schema and
// fails hard on violation. Each schema entry describes one property:
//
//	assert:
//	  name: { type: string, required: true }
//	  age: { type: number }
//	  note: string          # shorthand for { type: note }
//
// Recognized types: string, number, boolean, object, array, null. The input
// passes through unchanged on success.
func opAssert(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	obj, ok := input.(map[string]any)
	if !ok {
		return nil, opErrf("assert", "input must be an object, got %T", input)
	}
	for _, prop := range schemaProps(arg) {
		val, present := obj[prop.name]
		if !present || val == nil {
			if prop.required {
				return nil, opErrf("assert", "missing required property %q", prop.name)
			}
			continue
		}
		if prop.typ != "" && !typeMatches(prop.typ, val) {
			return nil, opErrf("assert", "property %q is not of type %s", prop.name, prop.typ)
		}
	}
	return input, nil
}

type schemaProp struct {
	name     string
	typ      string
	required bool
}

func schemaProps(arg any) []schemaProp {
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
	}
	props := make([]schemaProp, 0, len(pairs))
	for _, p := range pairs {
		prop := schemaProp{name: p.Key}
		switch spec := p.Value.(type) {
		case string:
			prop.typ = spec
		default:
			prop.typ, _ = stringField(spec, "type")
			prop.required = boolField(spec, "required")
		}
		props = append(props, prop)
	}
	return props
}

func typeMatches(typ string, v any) bool {
	switch typ {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		_, ok := document.Number(v)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "null":
		return v == nil
	}
	return true
}
