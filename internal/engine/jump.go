package engine

import (
	"strings"

	"github.com/calder/stepscript/internal/document"
)

// compare evaluates a jump condition. Unrecognized operators evaluate to
// false, which leaves the jump untaken rather than failing the run.
func compare(operator string, left, right any) bool {
	switch operator {
	case "===":
		return document.Equal(left, right)
	case "==":
		return document.LooseEqual(left, right)
	case "!==":
		return !document.Equal(left, right)
	case "!=":
		return !document.LooseEqual(left, right)
	case "<":
		c, ok := document.OrderedCompare(left, right)
		return ok && c < 0
	case ">":
		c, ok := document.OrderedCompare(left, right)
		return ok && c > 0
	case "<=":
		c, ok := document.OrderedCompare(left, right)
		return ok && c <= 0
	case ">=":
		c, ok := document.OrderedCompare(left, right)
		return ok && c >= 0
	case "in":
		return contains(left, right)
	}
	return false
}

// contains implements the "in" operator: array membership, substring, or
// object key presence.
func contains(left, right any) bool {
	switch r := right.(type) {
	case []any:
		for _, item := range r {
			if document.Equal(left, item) {
				return true
			}
		}
	case string:
		if s, ok := left.(string); ok {
			return strings.Contains(r, s)
		}
	case map[string]any:
		if s, ok := left.(string); ok {
			_, present := r[s]
			return present
		}
	}
	return false
}
