package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		operator string
		left     any
		right    any
		want     bool
	}{
		{"strict equal numbers", "===", 1, 1.0, true},
		{"strict equal strings", "===", "a", "a", true},
		{"strict string vs number", "===", "1", 1, false},
		{"loose string vs number", "==", "1", 1, true},
		{"loose bool vs number", "==", true, 1, true},
		{"strict not equal", "!==", "a", "b", true},
		{"loose not equal", "!=", "1", 1, false},
		{"less than", "<", 1, 2, true},
		{"lexicographic", "<", "apple", "banana", true},
		{"greater equal", ">=", 2, 2, true},
		{"incomparable types", "<", "a", 1, false},
		{"in array", "in", 2, []any{1, 2, 3}, true},
		{"not in array", "in", 9, []any{1, 2, 3}, false},
		{"substring", "in", "ell", "hello", true},
		{"object key", "in", "a", map[string]any{"a": 1}, true},
		{"missing object key", "in", "b", map[string]any{"a": 1}, false},
		{"unknown operator", "~", 1, 1, false},
		{"empty operator", "", 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compare(tt.operator, tt.left, tt.right))
		})
	}
}
