package engine

import (
	"context"

	"github.com/calder/stepscript/internal/script"
)

// DebugResult is what Run resolves to when debug mode is enabled: the final
// output together with the definition and a recursive per-step trace.
type DebugResult struct {
	Output     any                `json:"output"`
	Definition *script.Definition `json:"definition"`
	Children   []*StepTrace       `json:"children"`
}

// StepTrace records one executed step: its index, the authored operation
// names, the document after the step, and the traces of any sub-script
// evaluations the step triggered.
type StepTrace struct {
	Step       int          `json:"step"`
	Operations []string     `json:"operations,omitempty"`
	Document   any          `json:"document,omitempty"`
	Children   []*StepTrace `json:"children,omitempty"`
}

type traceKey struct{}

// withTraceNode makes a trace node reachable by nested evaluation so
// sub-script runs can attach their own traces.
func withTraceNode(ctx context.Context, n *StepTrace) context.Context {
	return context.WithValue(ctx, traceKey{}, n)
}

func traceNode(ctx context.Context) *StepTrace {
	n, _ := ctx.Value(traceKey{}).(*StepTrace)
	return n
}
