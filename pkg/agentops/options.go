package agentops

import (
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"

	"github.com/agentops-ai/agentops-go/pkg/clock"
	"github.com/agentops-ai/agentops-go/pkg/transport"
)

type options struct {
	httpClient     transport.HTTPClient
	clock          clock.Clock
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	instrumentors  []Instrumentor
	handleSignals  bool
	exit           func(code int)
	signals        chan os.Signal
}

type Opt func(*options)

// WithHTTPClient sets the client used for every request to the API.
func WithHTTPClient(c transport.HTTPClient) Opt {
	return func(o *options) { o.httpClient = c }
}

// WithClock drives the flush timer and retry backoff from c.
func WithClock(c clock.Clock) Opt {
	return func(o *options) { o.clock = c }
}

func WithLogger(l *slog.Logger) Opt {
	return func(o *options) { o.logger = l }
}

func WithTracerProvider(tp trace.TracerProvider) Opt {
	return func(o *options) { o.tracerProvider = tp }
}

// WithInstrumentors registers adapters that are handed the client once it
// is ready to record.
func WithInstrumentors(instrumentors ...Instrumentor) Opt {
	return func(o *options) { o.instrumentors = append(o.instrumentors, instrumentors...) }
}

// WithoutSignalHandling leaves SIGINT and SIGTERM to the caller. Use
// Shutdown to end the session instead.
func WithoutSignalHandling() Opt {
	return func(o *options) { o.handleSignals = false }
}

// WithExitFunc replaces os.Exit in the signal handler.
func WithExitFunc(exit func(code int)) Opt {
	return func(o *options) { o.exit = exit }
}

// withSignalChannel feeds the signal handler from ch instead of
// signal.Notify.
func withSignalChannel(ch chan os.Signal) Opt {
	return func(o *options) { o.signals = ch }
}
