package carrier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Transport abstracts the HTTP layer so adapters stay testable without a
// network. Production code uses HTTPTransport; tests swap in MockTransport.
type Transport interface {
	// Post sends body to url and returns the raw response payload.
	Post(ctx context.Context, url string, body []byte, headers map[string]string) ([]byte, error)

	// Get fetches url and returns the raw response payload.
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// HTTPTransport is the production Transport backed by net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport with the given request timeout.
// A zero timeout defaults to 30 seconds.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
	}
}

// Post implements Transport.
func (t *HTTPTransport) Post(ctx context.Context, url string, body []byte, headers map[string]string) ([]byte, error) {
	return t.do(ctx, http.MethodPost, url, body, headers)
}

// Get implements Transport.
func (t *HTTPTransport) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return t.do(ctx, http.MethodGet, url, nil, headers)
}

func (t *HTTPTransport) do(ctx context.Context, method, url string, body []byte, headers map[string]string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &TransportError{Op: method, URL: url, Cause: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method, URL: url, Cause: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: method, URL: url, Cause: err}
	}

	// Carriers report business failures inside 200 payloads; anything else
	// is a transport problem.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Op:  method,
			URL: url,
			Cause: fmt.Errorf("unexpected status %d: %s",
				resp.StatusCode, truncate(payload, 512)),
		}
	}

	return payload, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

var _ Transport = (*HTTPTransport)(nil)

// MockRequest is one request captured by MockTransport.
type MockRequest struct {
	Method  string
	URL     string
	Body    []byte
	Headers map[string]string
}

// MockTransport is a Transport for tests. It records every request, replays
// queued responses in order, and supports per-call hooks for custom
// behavior. Safe for concurrent use.
type MockTransport struct {
	mu sync.Mutex

	// Requests holds every request seen, in order.
	Requests []MockRequest

	// Responses is a FIFO queue of payloads to return. When exhausted the
	// last payload repeats.
	Responses [][]byte

	// Err, when set, is returned from every call instead of a payload.
	Err error

	// OnPost and OnGet, when set, take precedence over the response queue.
	OnPost func(url string, body []byte) ([]byte, error)
	OnGet  func(url string) ([]byte, error)
}

// NewMockTransport creates a mock that replays the given payloads in order.
func NewMockTransport(responses ...[]byte) *MockTransport {
	return &MockTransport{Responses: responses}
}

// Post implements Transport.
func (m *MockTransport) Post(ctx context.Context, url string, body []byte, headers map[string]string) ([]byte, error) {
	m.record(http.MethodPost, url, body, headers)
	if m.OnPost != nil {
		return m.OnPost(url, body)
	}
	return m.next(http.MethodPost, url)
}

// Get implements Transport.
func (m *MockTransport) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	m.record(http.MethodGet, url, nil, headers)
	if m.OnGet != nil {
		return m.OnGet(url)
	}
	return m.next(http.MethodGet, url)
}

func (m *MockTransport) record(method, url string, body []byte, headers map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, MockRequest{
		Method:  method,
		URL:     url,
		Body:    body,
		Headers: headers,
	})
}

func (m *MockTransport) next(method, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, &TransportError{Op: method, URL: url, Cause: m.Err}
	}
	if len(m.Responses) == 0 {
		return nil, &TransportError{Op: method, URL: url, Cause: fmt.Errorf("no mock response queued")}
	}
	resp := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return resp, nil
}

// LastRequest returns the most recent captured request, or nil.
func (m *MockTransport) LastRequest() *MockRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return &m.Requests[len(m.Requests)-1]
}

// RequestCount returns how many requests the mock has seen.
func (m *MockTransport) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

var _ Transport = (*MockTransport)(nil)
