package reddit

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient returns the client shared by every upstream call: token
// exchange, listing and image fetch. Reddit rejects requests without a
// descriptive User-Agent.
func NewHTTPClient(userAgent string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: userAgentTransport{
			agent: userAgent,
			next:  otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.agent == `` || req.Header.Get(`User-Agent`) != `` {
		return t.next.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set(`User-Agent`, t.agent)
	return t.next.RoundTrip(req)
}
