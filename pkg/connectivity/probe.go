package connectivity

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Result represents the outcome of one reachability probe
type Result struct {
	Online    bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Prober answers whether the backend is reachable right now
type Prober interface {
	Probe(ctx context.Context) Result
}

// HTTPProber probes a well-known backend health endpoint with an
// idempotent GET. Any outcome other than a success status counts as
// unreachable.
type HTTPProber struct {
	// URL is the full health endpoint URL (e.g. "http://backend:5000/health")
	URL string

	// ExpectedStatusMin is the minimum acceptable HTTP status code (default: 200)
	ExpectedStatusMin int

	// ExpectedStatusMax is the maximum acceptable HTTP status code (default: 399)
	ExpectedStatusMax int

	// Client is the HTTP client to use (allows custom configuration)
	Client *http.Client
}

// NewHTTPProber creates a prober for the given health endpoint
func NewHTTPProber(url string) *HTTPProber {
	return &HTTPProber{
		URL:               url,
		ExpectedStatusMin: 200,
		ExpectedStatusMax: 399,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Probe performs the reachability check. It never returns an error;
// failures are reported through the result.
func (p *HTTPProber) Probe(ctx context.Context) Result {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return Result{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return Result{
			Message:   fmt.Sprintf("request failed: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}
	defer resp.Body.Close()

	online := resp.StatusCode >= p.ExpectedStatusMin && resp.StatusCode <= p.ExpectedStatusMax

	message := fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if !online {
		message = fmt.Sprintf("%s (expected %d-%d)", message, p.ExpectedStatusMin, p.ExpectedStatusMax)
	}

	return Result{
		Online:    online,
		Message:   message,
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// WithStatusRange sets the expected status code range
func (p *HTTPProber) WithStatusRange(min, max int) *HTTPProber {
	p.ExpectedStatusMin = min
	p.ExpectedStatusMax = max
	return p
}

// WithTimeout sets the HTTP client timeout
func (p *HTTPProber) WithTimeout(timeout time.Duration) *HTTPProber {
	p.Client.Timeout = timeout
	return p
}
