package transform

import (
	"github.com/calder/stepscript/internal/document"
)

// field reads a named field from an operation argument, which may be an
// order-preserving *document.Object (YAML-loaded definitions) or a plain
// map[string]any (programmatic definitions).
func field(arg any, key string) (any, bool) {
	switch m := arg.(type) {
	case *document.Object:
		return m.Get(key)
	case map[string]any:
		v, ok := m[key]
		return v, ok
	}
	return nil, false
}

func stringField(arg any, key string) (string, bool) {
	v, ok := field(arg, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func intField(arg any, key string) (int, bool) {
	v, ok := field(arg, key)
	if !ok {
		return 0, false
	}
	n, ok := document.Number(v)
	if !ok {
		return 0, false
	}
	return int(n), true
}

func boolField(arg any, key string) bool {
	v, ok := field(arg, key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// stringList accepts a bare string or a list of strings.
func stringList(arg any) []string {
	switch v := arg.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
