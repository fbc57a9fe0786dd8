package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_BuildsFromPathsTemplatesAndLiterals(t *testing.T) {
	input := map[string]any{"user": map[string]any{"name": "ada"}}
	out := eval(t, input, map[string]any{"object": map[string]any{
		"name":  "/user/name",
		"loud":  map[string]any{"get": "/user/name", "upperCase": nil},
		"count": 3,
	}})
	assert.Equal(t, map[string]any{"name": "ada", "loud": "ADA", "count": 3}, out)
}

func TestObject_MergeExplicitWins(t *testing.T) {
	input := map[string]any{"a": 1, "b": 2}
	out := eval(t, input, map[string]any{"object": map[string]any{
		"...": nil,
		"a":   map[string]any{"static": "explicit"},
	}})
	assert.Equal(t, map[string]any{"a": "explicit", "b": 2}, out)
}

func TestObject_NonMappingArgErrors(t *testing.T) {
	_, err := NewEvaluator(nil).Apply(context.Background(), map[string]any{}, map[string]any{"object": "nope"})
	require.Error(t, err)
	var oe *OperationError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "object", oe.Op)
}

func TestMap_TransformsEachElement(t *testing.T) {
	input := []any{
		map[string]any{"id": 1, "name": "a"},
		map[string]any{"id": 2, "name": "b"},
	}
	out := eval(t, input, map[string]any{"map": "/id"})
	assert.Equal(t, []any{1, 2}, out)
}

func TestMap_NonArrayInputIsNull(t *testing.T) {
	out := eval(t, "scalar", map[string]any{"map": "/id"})
	assert.Nil(t, out)
}

func TestArray_CollectsEachDefinition(t *testing.T) {
	input := map[string]any{"a": 1, "b": 2}
	out := eval(t, input, map[string]any{"array": []any{"/a", "/b", "lit"}})
	// "lit" resolves as a path with no match.
	assert.Equal(t, []any{1, 2, nil}, out)
}

func TestUnion_DeduplicatesFirstSeen(t *testing.T) {
	input := map[string]any{
		"xs": []any{1, 2, 3},
		"ys": []any{3, 4, 2},
	}
	out := eval(t, input, map[string]any{"union": []any{"/xs", "/ys"}})
	assert.Equal(t, []any{1, 2, 3, 4}, out)
}

func TestUnion_ScalarsAndNulls(t *testing.T) {
	input := map[string]any{"x": "a"}
	out := eval(t, input, map[string]any{"union": []any{"/x", "/missing", "/x"}})
	assert.Equal(t, []any{"a"}, out)
}

func TestFilter_NoArgKeepsTruthy(t *testing.T) {
	input := []any{1, 0, "", "x", nil, false, true}
	out := eval(t, input, map[string]any{"filter": nil})
	assert.Equal(t, []any{1, "x", true}, out)
}

func TestFilter_SubScriptKeepsMatches(t *testing.T) {
	run := func(_ context.Context, steps []any, doc any) (any, error) {
		m := doc.(map[string]any)
		item := m["item"].(map[string]any)
		return item["keep"], nil
	}
	input := []any{
		map[string]any{"id": 1, "keep": true},
		map[string]any{"id": 2, "keep": false},
		map[string]any{"id": 3, "keep": true},
	}
	out, err := NewEvaluator(run).Apply(context.Background(), input,
		map[string]any{"filter": []any{map[string]any{"transform": "/item/keep"}}})
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"id": 1, "keep": true},
		map[string]any{"id": 3, "keep": true},
	}, out)
}

func TestFilter_SourceForm(t *testing.T) {
	var docs []any
	run := func(_ context.Context, steps []any, doc any) (any, error) {
		docs = append(docs, doc)
		m := doc.(map[string]any)
		return m["item"], nil
	}
	input := map[string]any{"items": []any{0, 5}, "limit": 10}
	out, err := NewEvaluator(run).Apply(context.Background(), input,
		map[string]any{"filter": map[string]any{
			"source": "/items",
			"filter": []any{map[string]any{"transform": "/item"}},
		}})
	require.NoError(t, err)
	assert.Equal(t, []any{5}, out)
	// The sub-script document carries the element plus the outer properties.
	require.Len(t, docs, 2)
	assert.Equal(t, map[string]any{"item": 0, "items": []any{0, 5}, "limit": 10}, docs[0])
}

func TestFilter_SubScriptWithoutRunnerErrors(t *testing.T) {
	_, err := NewEvaluator(nil).Apply(context.Background(), []any{1},
		map[string]any{"filter": []any{map[string]any{"transform": "/item"}}})
	require.Error(t, err)
}

func TestKeys_SortedKeys(t *testing.T) {
	out := eval(t, map[string]any{"b": 1, "a": 2, "c": 3}, map[string]any{"keys": nil})
	assert.Equal(t, []any{"a", "b", "c"}, out)
}

func TestPickOmit(t *testing.T) {
	input := map[string]any{"a": 1, "b": 2, "c": 3}
	assert.Equal(t, map[string]any{"a": 1, "c": 3},
		eval(t, input, map[string]any{"pick": []any{"a", "c", "missing"}}))
	assert.Equal(t, map[string]any{"b": 2},
		eval(t, input, map[string]any{"omit": []any{"a", "c"}}))
}
