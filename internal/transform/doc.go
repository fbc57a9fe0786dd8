// Package transform implements the pure transformation evaluator: a
// declarative, chainable expression tree interpreted against one input value
// to produce one output value.
//
// A template maps operation names to arguments. Operations chain - the
// output of one becomes the input of the next, in the template's own key
// order. A nil intermediate result short-circuits the whole chain to nil
// (propagation of absence), except for operations that produce a value from
// nothing (static, default).
//
// Most operations degrade wrong-typed input to nil rather than failing; a
// deliberate exception is the substring, length and assert operations, which
// return an OperationError. Ported scripts depend on that asymmetry, so it is
// preserved as-is.
//
// Operations dispatch through a registry populated once at init time, one
// handler per name. An unregistered name aborts the chain with an
// UnknownFunctionError.
//
// The filter operation can run a nested sub-script per element. Sub-script
// execution is reached through the RunScript capability injected at
// construction, which keeps this package free of a dependency on the
// execution engine.
package transform
