package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChanged_ShallowDiff(t *testing.T) {
	input := map[string]any{
		"old": map[string]any{"a": 1, "b": 2, "gone": true},
		"new": map[string]any{"a": 1, "b": 99, "added": "x"},
	}
	out := eval(t, input, map[string]any{"changed": map[string]any{
		"left":  "/old",
		"right": "/new",
	}})
	assert.Equal(t, map[string]any{
		"b":     99,
		"gone":  nil,
		"added": "x",
	}, out)
}

func TestChanged_EqualObjectsYieldEmptyDiff(t *testing.T) {
	input := map[string]any{
		"old": map[string]any{"a": 1},
		"new": map[string]any{"a": 1.0},
	}
	out := eval(t, input, map[string]any{"changed": map[string]any{
		"left":  "/old",
		"right": "/new",
	}})
	assert.Equal(t, map[string]any{}, out)
}

func TestChange_AppliesDiffToTarget(t *testing.T) {
	input := map[string]any{
		"doc":  map[string]any{"a": 1, "b": 2},
		"diff": map[string]any{"b": 99, "gone": nil, "added": "x"},
	}
	out := eval(t, input, map[string]any{"change": map[string]any{
		"target":  "/doc",
		"changes": "/diff",
	}})
	assert.Equal(t, map[string]any{"a": 1, "b": 99, "gone": nil, "added": "x"}, out)
	// Target itself stays untouched.
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, input["doc"])
}

func TestChanged_MissingOperandErrors(t *testing.T) {
	_, err := NewEvaluator(nil).Apply(context.Background(), map[string]any{},
		map[string]any{"changed": map[string]any{"left": "/old"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "right")
}

func TestChangedChange_RoundTrip(t *testing.T) {
	input := map[string]any{
		"old": map[string]any{"a": 1, "b": "x", "c": true},
		"new": map[string]any{"a": 2, "b": "x", "d": []any{1}},
	}
	diff := eval(t, input, map[string]any{"changed": map[string]any{
		"left": "/old", "right": "/new",
	}})
	input["diff"] = diff
	out := eval(t, input, map[string]any{"change": map[string]any{
		"target": "/old", "changes": "/diff",
	}})
	assert.Equal(t, map[string]any{"a": 2, "b": "x", "c": nil, "d": []any{1}}, out)
}
