package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calder/stepscript/internal/capability"
	"github.com/calder/stepscript/internal/document"
)

// endLabel is the implicit jump target one past the last step.
const endLabel = "end"

// defaultResultPointer is where query and request results land when no
// resultProperty is given.
const defaultResultPointer = "/result"

// exec drives the program counter over the compiled steps.
func (p *Program) exec(ctx context.Context, doc any, trace *StepTrace) (any, error) {
	pc := 0
	executed := 0
	for pc < len(p.steps) {
		if p.delay > 0 {
			select {
			case <-time.After(p.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		executed++
		if executed > p.maxSteps {
			return nil, &StepsExceededError{Script: p.def.Name, Steps: executed, Limit: p.maxSteps}
		}

		st := &p.steps[pc]
		if st.label != "" {
			pc++
			continue
		}

		stepCtx := ctx
		var node *StepTrace
		if trace != nil {
			node = &StepTrace{Step: pc, Operations: st.keys}
			stepCtx = withTraceNode(ctx, node)
		}

		next, out, err := p.applyStep(stepCtx, st, doc, pc)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", pc, err)
		}
		doc = out

		if node != nil {
			node.Document = document.Copy(doc)
			trace.Children = append(trace.Children, node)
		}
		pc = next
	}
	return doc, nil
}

// applyStep applies one operation step's categories in fixed order and
// returns the next program counter.
func (p *Program) applyStep(ctx context.Context, st *compiledStep, doc any, pc int) (int, any, error) {
	var err error
	if st.query != nil {
		doc, err = p.applyQuery(ctx, st.query, doc)
		if err != nil {
			return 0, nil, err
		}
	}
	if st.request != nil {
		doc, err = p.applyRequest(ctx, st.request, doc)
		if err != nil {
			return 0, nil, err
		}
	}
	if len(st.transform) > 0 {
		doc, err = p.eval.Run(ctx, doc, st.transform)
		if err != nil {
			return 0, nil, err
		}
	}
	if st.hasIncrement {
		doc = applyIncrement(doc, st.increment)
	}
	if st.jump != nil {
		taken, err := p.evalJump(ctx, st.jump, doc)
		if err != nil {
			return 0, nil, err
		}
		if taken {
			return p.jumpTarget(st.jump.to), doc, nil
		}
	}
	return pc + 1, doc, nil
}

func (p *Program) jumpTarget(to string) int {
	if to == endLabel {
		return len(p.steps)
	}
	// Existence was validated at compile time.
	return p.labels[to]
}

func (p *Program) applyQuery(ctx context.Context, spec *querySpec, doc any) (any, error) {
	if p.query == nil {
		return nil, fmt.Errorf("no query capability configured")
	}

	args := make(map[string]any, len(spec.args))
	for _, b := range spec.args {
		if pointer, ok := b.value.(string); ok {
			args[b.name] = document.Get(doc, pointer)
		} else {
			args[b.name] = document.Plain(b.value)
		}
	}

	// Queries run context-free unless the step opts in; the run itself is
	// not cancellable, only the collaborator call is detached.
	qctx := ctx
	if !spec.runInContext {
		qctx = context.WithoutCancel(ctx)
	}
	result, err := p.query.Execute(qctx, spec.query, args)
	if err != nil {
		return nil, err
	}
	return writeResult(doc, spec.resultProperty, spec.hasResultProperty, result), nil
}

func (p *Program) applyRequest(ctx context.Context, spec *requestSpec, doc any) (any, error) {
	if p.http == nil {
		return nil, fmt.Errorf("no HTTP capability configured")
	}

	url := spec.url
	if !strings.Contains(url, "://") {
		if s, ok := document.Get(doc, url).(string); ok {
			url = s
		}
	}

	req := capability.Request{
		Method:  spec.method,
		URL:     url,
		Headers: spec.headers,
	}
	switch body := spec.body.(type) {
	case nil:
	case string:
		req.Body = document.Get(doc, body)
	default:
		req.Body = document.Plain(body)
	}
	if spec.cookiesFrom != "" {
		req.Cookies = stringMap(document.Get(doc, spec.cookiesFrom))
	}

	p.logger.Debug("request step", "method", req.Method, "url", req.URL)
	res, err := p.http.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"headers": anyMap(res.Headers),
		"body":    res.Body,
		"cookies": anyMap(res.Cookies),
	}
	return writeResult(doc, spec.resultProperty, spec.hasResultProperty, result), nil
}

// applyIncrement adds one to the numeric value at the pointer; an absent
// value counts as -1 so the first increment yields 0.
func applyIncrement(doc any, pointer string) any {
	n := -1
	if v, ok := document.Number(document.Get(doc, pointer)); ok {
		n = int(v)
	}
	return document.Set(doc, pointer, n+1)
}

func (p *Program) evalJump(ctx context.Context, spec *jumpSpec, doc any) (bool, error) {
	left := any(true)
	right := any(true)
	var err error
	if spec.hasLeft {
		left, err = p.eval.Operand(ctx, doc, spec.left)
		if err != nil {
			return false, err
		}
	}
	if spec.hasRight {
		right, err = p.eval.Operand(ctx, doc, spec.right)
		if err != nil {
			return false, err
		}
	}
	operator := spec.operator
	if operator == "" {
		operator = "==="
	}
	return compare(operator, left, right), nil
}

// writeResult places a collaborator result into the document: by default
// under /result, at resultProperty when given, or replacing the whole
// document when resultProperty is the empty string.
func writeResult(doc any, property string, hasProperty bool, result any) any {
	if hasProperty && property == "" {
		return result
	}
	pointer := defaultResultPointer
	if hasProperty {
		pointer = property
	}
	return document.Set(doc, pointer, result)
}

func anyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func stringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}
