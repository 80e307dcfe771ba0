// Package transport posts JSON payloads to the AgentOps API, retrying
// failed attempts with exponential backoff.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentops-ai/agentops-go/pkg/clock"
	"github.com/agentops-ai/agentops-go/pkg/httpclient"
	"github.com/agentops-ai/agentops-go/pkg/logging"
)

const (
	DefaultEndpoint     = "https://agentops-server-v2.fly.dev"
	DefaultMaxAttempts  = 5
	DefaultInitialDelay = time.Second

	HeaderAuth = "X-Agentops-Auth"
	HeaderOrg  = "X-Agentops-Org"

	contentType  = "application/json; charset=UTF-8"
	maxErrorBody = 1024
	tracerName   = "github.com/agentops-ai/agentops-go/pkg/transport"
)

// HTTPClient is the part of *http.Client the transport needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is a successful reply. Body is whatever the server sent; the SDK
// never acts on it.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return io.EOF
	}
	return json.Unmarshal(r.Body, v)
}

type Transport struct {
	httpClient   HTTPClient
	clock        clock.Clock
	logger       *logging.Logger
	tracer       trace.Tracer
	endpoint     string
	apiKey       string
	orgKey       string
	maxAttempts  int
	initialDelay time.Duration
}

type Opt func(*Transport)

func WithHTTPClient(c HTTPClient) Opt {
	return func(t *Transport) { t.httpClient = c }
}

func WithClock(c clock.Clock) Opt {
	return func(t *Transport) { t.clock = c }
}

func WithLogger(l *logging.Logger) Opt {
	return func(t *Transport) { t.logger = l }
}

func WithTracerProvider(tp trace.TracerProvider) Opt {
	return func(t *Transport) { t.tracer = tp.Tracer(tracerName) }
}

// WithMaxAttempts sets the total number of attempts per Post, including
// the first one.
func WithMaxAttempts(n int) Opt {
	return func(t *Transport) {
		if n > 0 {
			t.maxAttempts = n
		}
	}
}

// WithInitialDelay sets the wait after the first failed attempt. Each
// following wait doubles.
func WithInitialDelay(d time.Duration) Opt {
	return func(t *Transport) {
		if d > 0 {
			t.initialDelay = d
		}
	}
}

// New returns a Transport that authenticates with apiKey and, when
// non-empty, orgKey. An empty endpoint selects DefaultEndpoint.
func New(endpoint, apiKey, orgKey string, opts ...Opt) *Transport {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	t := &Transport{
		endpoint:     strings.TrimRight(endpoint, "/"),
		apiKey:       apiKey,
		orgKey:       orgKey,
		maxAttempts:  DefaultMaxAttempts,
		initialDelay: DefaultInitialDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.httpClient == nil {
		t.httpClient = httpclient.NewHTTPClient()
	}
	if t.clock == nil {
		t.clock = clock.Real()
	}
	if t.logger == nil {
		t.logger = logging.New(nil)
	}
	if t.tracer == nil {
		t.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	return t
}

// ValidateEndpoint reports whether endpoint is an absolute http(s) URL.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	return nil
}

func (t *Transport) Endpoint() string {
	return t.endpoint
}

// Post sends payload as JSON to target. A network error or a non-2xx
// status counts as a failed attempt; after the last failed attempt Post
// returns an *ExhaustedError wrapping the final failure. Cancelling ctx
// stops immediately with the context's error.
func (t *Transport) Post(ctx context.Context, target string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request to JSON: %w", err)
	}

	ctx, span := t.tracer.Start(ctx, "agentops.transport.post",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(semconv.URLFull(target), attribute.Int("agentops.payload_bytes", len(body))),
	)
	defer span.End()

	resp, attempts, err := t.postWithRetry(ctx, target, body)
	span.SetAttributes(attribute.Int("agentops.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))
	return resp, nil
}

func (t *Transport) postWithRetry(ctx context.Context, target string, body []byte) (*Response, int, error) {
	delays := &backoff.ExponentialBackOff{
		InitialInterval:     t.initialDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         time.Hour,
	}
	delays.Reset()

	var lastErr error
	for attempt := range t.maxAttempts {
		if attempt > 0 {
			wait := delays.NextBackOff()
			t.logger.Debug("Retrying request", "url", target, "attempt", attempt+1, "wait", wait, "error", lastErr)
			if err := t.sleep(ctx, wait); err != nil {
				return nil, attempt, err
			}
		}

		resp, err := t.do(ctx, target, body)
		if err == nil {
			return resp, attempt + 1, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, attempt + 1, ctxErr
		}
		lastErr = err
	}

	return nil, t.maxAttempts, &ExhaustedError{Attempts: t.maxAttempts, LastError: lastErr}
}

func (t *Transport) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.clock.After(d):
		return nil
	}
}

func (t *Transport) do(ctx context.Context, target string, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "*/*")
	req.Header.Set(HeaderAuth, t.apiKey)
	if t.orgKey != "" {
		req.Header.Set(HeaderOrg, t.orgKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		t.logger.Debug("HTTP error response",
			"url", target,
			"status_code", resp.StatusCode,
			"response_body", string(snippet),
		)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// IsStatus reports whether err is, or wraps, a StatusError with code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
