// Package engine executes compiled scripts.
//
// A Program is compiled once from a script.Definition and is immutable: its
// step sequence and label table never change. Execution drives an explicit
// program counter over the steps, threading a single mutable document value
// through them, and returns the final document.
//
// Steps execute strictly sequentially; suspension happens only at query
// steps, request steps and the inter-step delay. Each Program owns a busy
// flag enforcing at most one in-flight run: a second concurrent Run fails
// immediately with a ReentrancyError rather than queueing. Clone produces an
// independent execution slot over the same compiled steps, so two clones may
// run fully in parallel.
//
// Termination is guaranteed by the step budget: every processed step, labels
// included, counts against maxSteps, and exceeding it aborts the run with a
// StepsExceededError. There is no cancellation mechanism beyond that budget
// and no automatic retry; retry policy belongs to callers.
//
// Control flow within a step applies its operations in a fixed order
// regardless of authoring order: query, request, transformations, increment,
// jump. Jumps address labels through a table resolved at compile time;
// the reserved target "end" addresses one past the last step.
package engine
