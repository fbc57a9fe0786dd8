package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clbanning/mxj/v2"
	"resty.dev/v3"
)

// RestyClient is the default HTTPClient, backed by a shared resty client.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a RestyClient with the given request timeout.
// A zero timeout means no limit.
func NewRestyClient(timeout time.Duration) *RestyClient {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &RestyClient{client: c}
}

// Do implements HTTPClient.
func (r *RestyClient) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	rr := r.client.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	for name, value := range req.Cookies {
		rr.SetCookie(&http.Cookie{Name: name, Value: value})
	}
	if req.Body != nil {
		rr.SetBody(req.Body)
	}

	res, err := rr.Execute(method, req.URL)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}

	out := &Response{
		Status:  res.StatusCode(),
		Headers: flattenHeader(res.Header()),
		Cookies: map[string]string{},
		Body:    DecodeBody(res.Header().Get("Content-Type"), res.Bytes()),
	}
	for _, c := range res.Cookies() {
		out.Cookies[c.Name] = c.Value
	}
	return out, nil
}

// Close releases the underlying transport resources.
func (r *RestyClient) Close() error {
	return r.client.Close()
}

// DecodeBody decodes a response body by content type: JSON and XML become
// document values, anything else is returned as a raw string. A body that
// fails to decode also falls back to the raw string.
func DecodeBody(contentType string, body []byte) any {
	switch {
	case strings.Contains(contentType, "json"):
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	case strings.Contains(contentType, "xml"):
		if mv, err := mxj.NewMapXml(body); err == nil {
			return map[string]any(mv)
		}
	}
	return string(body)
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
