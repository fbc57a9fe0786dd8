// Package capability defines the two narrow host capabilities the execution
// engine consumes: query execution and HTTP requests. The engine never
// reaches storage, networks or services any other way, which keeps it
// embeddable and trivially testable.
package capability

import (
	"context"
)

// QueryExecutor runs a host query. The descriptor is opaque to the engine:
// whatever the step's query payload holds is passed through unchanged, with
// argument bindings already resolved against the document.
//
// Implementations must be safe for concurrent invocation; independent
// program instances may call them in parallel.
type QueryExecutor interface {
	Execute(ctx context.Context, query any, args map[string]any) (any, error)
}

// QueryFunc adapts a plain function to QueryExecutor.
type QueryFunc func(ctx context.Context, query any, args map[string]any) (any, error)

// Execute implements QueryExecutor.
func (f QueryFunc) Execute(ctx context.Context, query any, args map[string]any) (any, error) {
	return f(ctx, query, args)
}

// Request describes one HTTP call made on behalf of a request step.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
	Cookies map[string]string
}

// Response is the engine-facing result of an HTTP call. Body is already
// decoded: JSON and XML content types become document values, everything
// else stays a raw string.
type Response struct {
	Status  int
	Headers map[string]string
	Body    any
	Cookies map[string]string
}

// HTTPClient performs HTTP requests for request steps. Implementations must
// be safe for concurrent invocation.
type HTTPClient interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// HTTPFunc adapts a plain function to HTTPClient.
type HTTPFunc func(ctx context.Context, req Request) (*Response, error)

// Do implements HTTPClient.
func (f HTTPFunc) Do(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
