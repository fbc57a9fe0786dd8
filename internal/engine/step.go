package engine

import (
	"fmt"
	"sort"

	"github.com/calder/stepscript/internal/document"
	"github.com/calder/stepscript/internal/script"
	"github.com/calder/stepscript/internal/transform"
)

// Reserved step operation keys, dispatched by the engine itself. Every other
// key on a step falls through to the transformation evaluator.
const (
	keyQuery     = "query"
	keyRequest   = "request"
	keyObject    = "object"
	keyTransform = "transform"
	keyIncrement = "increment"
	keyJump      = "jump"
)

// compiledStep is one element of a compiled program: either a label (a named
// jump target, a no-op when executed) or an operation with its per-category
// payloads. Within one step the categories always apply in fixed order:
// query, request, transformations, increment, jump.
type compiledStep struct {
	label string

	query     *querySpec
	request   *requestSpec
	transform transform.Template
	increment string
	jump      *jumpSpec

	hasIncrement bool

	// keys are the authored operation names, for traces and logs.
	keys []string
}

type querySpec struct {
	query             any
	args              []argBinding
	resultProperty    string
	hasResultProperty bool
	runInContext      bool
}

// argBinding is one named query argument; a string value is a pointer path
// into the document, anything else passes through as a literal.
type argBinding struct {
	name  string
	value any
}

type requestSpec struct {
	method            string
	url               string
	headers           map[string]string
	body              any
	cookiesFrom       string
	resultProperty    string
	hasResultProperty bool
}

type jumpSpec struct {
	to       string
	left     any
	right    any
	hasLeft  bool
	hasRight bool
	operator string
}

// parseStep compiles one raw step. index is used in error messages only.
func parseStep(name string, index int, raw any) (compiledStep, error) {
	switch v := raw.(type) {
	case string:
		return compiledStep{label: v}, nil
	case *document.Object:
		return parseOperation(name, index, v.Pairs)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]document.Pair, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, document.Pair{Key: k, Value: v[k]})
		}
		return parseOperation(name, index, pairs)
	}
	return compiledStep{}, script.NewDefinitionError(script.ErrCodeInvalidStep, name,
		"step %d must be a label string or an operation mapping, got %T", index, raw)
}

func parseOperation(name string, index int, pairs []document.Pair) (compiledStep, error) {
	st := compiledStep{}
	for _, p := range pairs {
		st.keys = append(st.keys, p.Key)
		switch p.Key {
		case keyQuery:
			spec, err := parseQuerySpec(p.Value)
			if err != nil {
				return st, script.NewDefinitionError(script.ErrCodeInvalidStep, name, "step %d: %v", index, err)
			}
			st.query = spec
		case keyRequest:
			spec, err := parseRequestSpec(p.Value)
			if err != nil {
				return st, script.NewDefinitionError(script.ErrCodeInvalidStep, name, "step %d: %v", index, err)
			}
			st.request = spec
		case keyObject:
			st.transform = append(st.transform, transform.Operation{Name: "object", Arg: p.Value})
		case keyTransform:
			t, err := transform.Parse(p.Value)
			if err != nil {
				return st, script.NewDefinitionError(script.ErrCodeInvalidStep, name, "step %d: %v", index, err)
			}
			st.transform = append(st.transform, t...)
		case keyIncrement:
			pointer, ok := p.Value.(string)
			if !ok {
				return st, script.NewDefinitionError(script.ErrCodeInvalidStep, name,
					"step %d: increment requires a pointer path, got %T", index, p.Value)
			}
			st.increment = pointer
			st.hasIncrement = true
		case keyJump:
			spec, err := parseJumpSpec(p.Value)
			if err != nil {
				return st, script.NewDefinitionError(script.ErrCodeInvalidStep, name, "step %d: %v", index, err)
			}
			st.jump = spec
		default:
			// Any other key is a transformation operation applied to the
			// whole document. Unknown names fail at run time with an
			// unknown-function error.
			st.transform = append(st.transform, transform.Operation{Name: p.Key, Arg: p.Value})
		}
	}
	return st, nil
}

func parseQuerySpec(v any) (*querySpec, error) {
	if s, ok := v.(string); ok {
		return &querySpec{query: s}, nil
	}
	spec := &querySpec{}
	q, ok := fieldOf(v, "query")
	if !ok {
		return nil, errFieldRequired("query", "query")
	}
	spec.query = document.Plain(q)
	if args, ok := fieldOf(v, "args"); ok {
		for _, p := range pairsOf(args) {
			spec.args = append(spec.args, argBinding{name: p.Key, value: p.Value})
		}
	}
	if rp, ok := fieldOf(v, "resultProperty"); ok {
		s, isString := rp.(string)
		if !isString {
			return nil, errFieldType("query", "resultProperty", "string")
		}
		spec.resultProperty = s
		spec.hasResultProperty = true
	}
	if ric, ok := fieldOf(v, "runInContext"); ok {
		b, _ := ric.(bool)
		spec.runInContext = b
	}
	return spec, nil
}

func parseRequestSpec(v any) (*requestSpec, error) {
	spec := &requestSpec{}
	u, ok := fieldOf(v, "url")
	if !ok {
		return nil, errFieldRequired("request", "url")
	}
	url, isString := u.(string)
	if !isString {
		return nil, errFieldType("request", "url", "string")
	}
	spec.url = url
	if m, ok := fieldOf(v, "method"); ok {
		s, isString := m.(string)
		if !isString {
			return nil, errFieldType("request", "method", "string")
		}
		spec.method = s
	}
	if h, ok := fieldOf(v, "headers"); ok {
		spec.headers = map[string]string{}
		for _, p := range pairsOf(h) {
			if s, isString := p.Value.(string); isString {
				spec.headers[p.Key] = s
			}
		}
	}
	if b, ok := fieldOf(v, "body"); ok {
		spec.body = b
	}
	if c, ok := fieldOf(v, "cookies"); ok {
		s, isString := c.(string)
		if !isString {
			return nil, errFieldType("request", "cookies", "pointer path string")
		}
		spec.cookiesFrom = s
	}
	if rp, ok := fieldOf(v, "resultProperty"); ok {
		s, isString := rp.(string)
		if !isString {
			return nil, errFieldType("request", "resultProperty", "string")
		}
		spec.resultProperty = s
		spec.hasResultProperty = true
	}
	return spec, nil
}

func parseJumpSpec(v any) (*jumpSpec, error) {
	if s, ok := v.(string); ok {
		return &jumpSpec{to: s}, nil
	}
	spec := &jumpSpec{}
	to, ok := fieldOf(v, "to")
	if !ok {
		return nil, errFieldRequired("jump", "to")
	}
	target, isString := to.(string)
	if !isString {
		return nil, errFieldType("jump", "to", "string")
	}
	spec.to = target
	if l, ok := fieldOf(v, "left"); ok {
		spec.left = l
		spec.hasLeft = true
	}
	if r, ok := fieldOf(v, "right"); ok {
		spec.right = r
		spec.hasRight = true
	}
	if op, ok := fieldOf(v, "operator"); ok {
		s, isString := op.(string)
		if !isString {
			return nil, errFieldType("jump", "operator", "string")
		}
		spec.operator = s
	}
	return spec, nil
}

func errFieldRequired(op, field string) error {
	return fmt.Errorf("%s requires %s", op, field)
}

func errFieldType(op, field, want string) error {
	return fmt.Errorf("%s %s must be a %s", op, field, want)
}

// fieldOf reads a named field from a payload that may be an ordered Object
// or a plain map.
func fieldOf(v any, key string) (any, bool) {
	switch m := v.(type) {
	case *document.Object:
		return m.Get(key)
	case map[string]any:
		val, ok := m[key]
		return val, ok
	}
	return nil, false
}

// pairsOf flattens a mapping payload to key/value pairs, sorted for plain
// maps so compilation stays deterministic.
func pairsOf(v any) []document.Pair {
	switch m := v.(type) {
	case *document.Object:
		return m.Pairs
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]document.Pair, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, document.Pair{Key: k, Value: m[k]})
		}
		return pairs
	}
	return nil
}
