// Package document models the single JSON-like value that flows through a
// script's steps.
//
// A document is an ordinary Go value as produced by JSON or YAML decoding:
// nil, bool, string, a numeric type, []any, or map[string]any. The package
// provides the structural operations the rest of the runtime is built on:
//
//   - pointer-path addressing (Get/Set) in JSON-Pointer style
//   - deep equality with numeric normalization (Equal/LooseEqual)
//   - deep copying (Copy)
//   - truthiness (Truthy)
//   - order-preserving YAML decoding (DecodeNode/Object)
//
// Order-preserving decoding matters because transformation templates chain
// operations in the template's own key order, and Go maps do not keep it.
// Mappings decoded through DecodeNode become *Object values, which remember
// declaration order. Documents at run time are always plain values; Object
// appears only inside step and template definitions.
package document
