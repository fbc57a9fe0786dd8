package document

import (
	"strconv"
	"strings"
)

// Get resolves a JSON-Pointer-style path against a document.
//
// The empty pointer returns the document itself. A leading "/" is optional:
// "/user/name" and "user/name" address the same value. The tokens "~0" and
// "~1" unescape to "~" and "/" per RFC 6901.
//
// Any traversal error - indexing into nil, a missing key, an out-of-range
// index, a non-container value - yields nil. Get never panics.
func Get(doc any, pointer string) any {
	if pointer == "" || pointer == "/" {
		return doc
	}
	cur := doc
	for _, tok := range Tokens(pointer) {
		switch v := cur.(type) {
		case map[string]any:
			cur = v[tok]
		case *Object:
			val, ok := v.Get(tok)
			if !ok {
				return nil
			}
			cur = val
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(v) {
				return nil
			}
			cur = v[i]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Set writes a value at a JSON-Pointer-style path and returns the updated
// document. Intermediate objects are created as needed; setting through a
// non-container value replaces it with an object. The empty pointer replaces
// the whole document with value.
//
// Existing maps are mutated in place; callers that need isolation should
// Copy the document first.
func Set(doc any, pointer string, value any) any {
	if pointer == "" || pointer == "/" {
		return value
	}
	return setTokens(doc, Tokens(pointer), value)
}

func setTokens(cur any, toks []string, value any) any {
	if len(toks) == 0 {
		return value
	}
	tok := toks[0]
	switch v := cur.(type) {
	case map[string]any:
		v[tok] = setTokens(v[tok], toks[1:], value)
		return v
	case []any:
		if i, err := strconv.Atoi(tok); err == nil {
			switch {
			case i >= 0 && i < len(v):
				v[i] = setTokens(v[i], toks[1:], value)
				return v
			case i == len(v):
				return append(v, setTokens(nil, toks[1:], value))
			}
		}
	}
	// Not a container (or an unusable index): start a fresh object here.
	m := map[string]any{}
	m[tok] = setTokens(nil, toks[1:], value)
	return m
}

// Tokens splits a pointer into its reference tokens, applying RFC 6901
// unescaping.
func Tokens(pointer string) []string {
	trimmed := strings.TrimPrefix(pointer, "/")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "/")
	for i, p := range parts {
		if strings.Contains(p, "~") {
			p = strings.ReplaceAll(p, "~1", "/")
			p = strings.ReplaceAll(p, "~0", "~")
			parts[i] = p
		}
	}
	return parts
}
