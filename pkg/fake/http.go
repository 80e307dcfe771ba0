// Package fake provides test doubles for the SDK's HTTP surface.
package fake

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"
)

// Responder produces the reply for the n-th request (0-based).
type Responder func(n int, req *http.Request) (*http.Response, error)

// MockHTTPClient captures requests and answers them with a Responder.
// The default responder replies 200 {"status":"success"}.
type MockHTTPClient struct {
	*http.Client

	mu        sync.Mutex
	requests  []*http.Request
	bodies    [][]byte
	responder Responder
}

func NewMockHTTPClient() *MockHTTPClient {
	m := &MockHTTPClient{responder: Status(http.StatusOK)}
	m.Client = &http.Client{Transport: m}
	return m
}

// SetResponder replaces the responder for subsequent requests.
func (m *MockHTTPClient) SetResponder(r Responder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = r
}

func (m *MockHTTPClient) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	m.mu.Lock()
	n := len(m.requests)
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)
	responder := m.responder
	m.mu.Unlock()

	return responder(n, req)
}

func (m *MockHTTPClient) GetRequests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request{}, m.requests...)
}

func (m *MockHTTPClient) GetBodies() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte{}, m.bodies...)
}

func (m *MockHTTPClient) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Paths returns the URL path of every captured request, in order.
func (m *MockHTTPClient) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.requests))
	for _, r := range m.requests {
		paths = append(paths, r.URL.Path)
	}
	return paths
}

// DecodeBody unmarshals the body of the i-th request into v.
func (m *MockHTTPClient) DecodeBody(i int, v any) error {
	m.mu.Lock()
	body := m.bodies[i]
	m.mu.Unlock()
	return json.Unmarshal(body, v)
}

// Status answers every request with code and a small JSON body.
func Status(code int) Responder {
	return func(int, *http.Request) (*http.Response, error) {
		return jsonResponse(code, `{"status":"success"}`), nil
	}
}

// FailFirst answers the first n requests with code and every later one
// with 200.
func FailFirst(n, code int) Responder {
	return func(i int, _ *http.Request) (*http.Response, error) {
		if i < n {
			return jsonResponse(code, `{"error":"unavailable"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"status":"success"}`), nil
	}
}

// Error fails every request at the transport level with err.
func Error(err error) Responder {
	return func(int, *http.Request) (*http.Response, error) {
		return nil, err
	}
}

func jsonResponse(code int, body string) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Header:     h,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}
