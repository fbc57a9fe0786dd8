// Package testutil provides stub host capabilities for engine and
// scheduler tests.
package testutil

import (
	"context"
	"sync"

	"github.com/calder/stepscript/internal/capability"
)

// StubQuery is a QueryExecutor that records every call and replays canned
// results. Safe for concurrent use.
type StubQuery struct {
	mu sync.Mutex

	// Fn, when set, handles every call.
	Fn func(ctx context.Context, query any, args map[string]any) (any, error)

	// Results are returned in order when Fn is nil; the last result
	// repeats once the list is exhausted.
	Results []any

	// Err, when set and Fn is nil, fails every call.
	Err error

	calls []QueryCall
}

// QueryCall is one recorded Execute invocation.
type QueryCall struct {
	Query any
	Args  map[string]any
}

// Execute implements capability.QueryExecutor.
func (s *StubQuery) Execute(ctx context.Context, query any, args map[string]any) (any, error) {
	s.mu.Lock()
	s.calls = append(s.calls, QueryCall{Query: query, Args: args})
	n := len(s.calls)
	s.mu.Unlock()

	if s.Fn != nil {
		return s.Fn(ctx, query, args)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Results) == 0 {
		return nil, nil
	}
	idx := n - 1
	if idx >= len(s.Results) {
		idx = len(s.Results) - 1
	}
	return s.Results[idx], nil
}

// Calls returns a copy of the recorded invocations.
func (s *StubQuery) Calls() []QueryCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]QueryCall{}, s.calls...)
}

// StubHTTP is an HTTPClient delegating to a function.
type StubHTTP struct {
	mu    sync.Mutex
	Fn    func(ctx context.Context, req capability.Request) (*capability.Response, error)
	calls []capability.Request
}

// Do implements capability.HTTPClient.
func (s *StubHTTP) Do(ctx context.Context, req capability.Request) (*capability.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.Fn != nil {
		return s.Fn(ctx, req)
	}
	return &capability.Response{Status: 200, Body: map[string]any{}}, nil
}

// Calls returns a copy of the recorded requests.
func (s *StubHTTP) Calls() []capability.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]capability.Request{}, s.calls...)
}
