package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_Traversal(t *testing.T) {
	doc := map[string]any{
		"user": map[string]any{
			"name": "ada",
			"tags": []any{"a", "b"},
		},
		"n": 3,
	}

	tests := []struct {
		name    string
		pointer string
		want    any
	}{
		{"whole document", "", doc},
		{"nested key", "/user/name", "ada"},
		{"array index", "/user/tags/1", "b"},
		{"no leading slash", "user/name", "ada"},
		{"missing key", "/user/email", nil},
		{"index out of range", "/user/tags/9", nil},
		{"index into scalar", "/n/0", nil},
		{"negative index", "/user/tags/-1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Get(doc, tt.pointer))
		})
	}
}

func TestGet_NilDocument(t *testing.T) {
	assert.Nil(t, Get(nil, "/a/b"))
}

func TestGet_EscapedTokens(t *testing.T) {
	doc := map[string]any{"a/b": 1, "m~n": 2}
	assert.Equal(t, 1, Get(doc, "/a~1b"))
	assert.Equal(t, 2, Get(doc, "/m~0n"))
}

func TestSet_CreatesIntermediates(t *testing.T) {
	out := Set(map[string]any{}, "/a/b/c", 42)
	require.IsType(t, map[string]any{}, out)
	assert.Equal(t, 42, Get(out, "/a/b/c"))
}

func TestSet_EmptyPointerReplacesDocument(t *testing.T) {
	out := Set(map[string]any{"a": 1}, "", "replaced")
	assert.Equal(t, "replaced", out)
}

func TestSet_OverwritesScalar(t *testing.T) {
	doc := map[string]any{"a": 5}
	out := Set(doc, "/a/b", 1)
	assert.Equal(t, 1, Get(out, "/a/b"))
}

func TestSet_ArrayElement(t *testing.T) {
	doc := map[string]any{"xs": []any{1, 2, 3}}
	out := Set(doc, "/xs/1", 9)
	assert.Equal(t, []any{1, 9, 3}, Get(out, "/xs"))
}

func TestSet_ArrayAppend(t *testing.T) {
	doc := map[string]any{"xs": []any{1}}
	out := Set(doc, "/xs/1", 2)
	assert.Equal(t, []any{1, 2}, Get(out, "/xs"))
}
