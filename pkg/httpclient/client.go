package httpclient

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/agentops-ai/agentops-go/pkg/version"
)

type userAgentTransport struct {
	agent string
	rt    http.RoundTripper
}

func (u *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r2 := req.Clone(req.Context())
	r2.Header.Set("User-Agent", u.agent)
	return u.rt.RoundTrip(r2)
}

type options struct {
	timeout   time.Duration
	transport http.RoundTripper
	userAgent string
}

type Opt func(*options)

// WithTimeout bounds every request made by the client, retries excluded.
func WithTimeout(d time.Duration) Opt {
	return func(o *options) { o.timeout = d }
}

// WithTransport replaces http.DefaultTransport as the underlying round tripper.
func WithTransport(rt http.RoundTripper) Opt {
	return func(o *options) { o.transport = rt }
}

// WithUserAgent overrides the default User-Agent.
func WithUserAgent(agent string) Opt {
	return func(o *options) { o.userAgent = agent }
}

// UserAgent is the default User-Agent sent by the SDK.
func UserAgent() string {
	return fmt.Sprintf("agentops-go/%s (%s; %s)", version.Version, runtime.GOOS, runtime.GOARCH)
}

func NewHTTPClient(opts ...Opt) *http.Client {
	o := options{
		timeout:   30 * time.Second,
		transport: http.DefaultTransport,
		userAgent: UserAgent(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &http.Client{
		Timeout: o.timeout,
		Transport: &userAgentTransport{
			agent: o.userAgent,
			rt:    o.transport,
		},
	}
}
