package document

import (
	"reflect"
	"strconv"
)

// Number coerces a value to float64. The second return reports whether the
// value was numeric. Strings are not coerced; see LooseEqual for that.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Equal reports deep structural equality between two documents.
//
// Numbers compare by value regardless of Go type, so the int 1 produced by a
// YAML decode equals the float64 1 produced by a JSON decode. Everything else
// is strict: "1" does not equal 1.
func Equal(a, b any) bool {
	if an, ok := Number(a); ok {
		bn, bok := Number(b)
		return bok && an == bn
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, present := bv[k]
			if !present || !Equal(v, bval) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// LooseEqual is Equal with scalar coercion: numeric strings compare equal to
// numbers and booleans coerce to 1/0, mirroring the "==" jump operator.
func LooseEqual(a, b any) bool {
	if Equal(a, b) {
		return true
	}
	an, aok := looseNumber(a)
	bn, bok := looseNumber(b)
	return aok && bok && an == bn
}

func looseNumber(v any) (float64, bool) {
	if n, ok := Number(v); ok {
		return n, true
	}
	switch x := v.(type) {
	case string:
		n, err := strconv.ParseFloat(x, 64)
		return n, err == nil
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// OrderedCompare compares two scalars for the relational operators. Numbers
// (and numeric strings paired with numbers) compare numerically; two plain
// strings compare lexically. The second return reports whether the pair is
// orderable at all.
func OrderedCompare(a, b any) (int, bool) {
	an, aok := looseNumber(a)
	bn, bok := looseNumber(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		}
		return 0, true
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Truthy reports JavaScript-style truthiness: nil, false, zero numbers and
// the empty string are falsy; every other value, including empty arrays and
// objects, is truthy.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if n, ok := Number(v); ok {
		return n != 0
	}
	return true
}

// Copy returns a deep copy of a document. Maps and slices are duplicated
// recursively; scalars are returned as-is.
func Copy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = Copy(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = Copy(val)
		}
		return out
	}
	return v
}
