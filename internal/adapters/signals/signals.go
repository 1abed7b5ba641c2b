// Package signals pulls raw talent signals from upstream trackers. Each
// upstream (media mention index, scene blogs, streaming fusion feed, social
// growth monitor) is an Adapter behind a circuit breaker; the Poller fans
// out across all of them and tolerates partial failure.
package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/metrics"
)

// Signal is one raw observation reported by an upstream tracker.
type Signal struct {
	CandidateSlug string           `json:"candidate_slug"`
	Type          model.SignalType `json:"type"`
	Value         float64          `json:"value"`
	Source        string           `json:"source"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// Adapter fetches signals for a candidate from one upstream tracker.
type Adapter interface {
	// Name identifies the upstream in logs and metrics.
	Name() string
	// FetchSignalsForCandidate returns signals observed since the given time.
	FetchSignalsForCandidate(ctx context.Context, slug string, since time.Time) ([]Signal, error)
}

// httpAdapter is the shared JSON-over-HTTP client for upstreams that expose
// a GET /signals?candidate=<slug>&since=<rfc3339> endpoint.
type httpAdapter struct {
	name    string
	baseURL string
	client  *http.Client
}

func newHTTPAdapter(name, baseURL string, timeout time.Duration) *httpAdapter {
	return &httpAdapter{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (a *httpAdapter) Name() string {
	return a.name
}

func (a *httpAdapter) FetchSignalsForCandidate(ctx context.Context, slug string, since time.Time) ([]Signal, error) {
	u, err := url.Parse(a.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", a.name, ErrBadUpstreamURL, err)
	}
	u.Path, err = url.JoinPath(u.Path, "signals")
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", a.name, ErrBadUpstreamURL, err)
	}
	q := u.Query()
	q.Set("candidate", slug)
	q.Set("since", since.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", a.name, err)
	}
	req.Header.Set("Accept", "application/json")

	metrics.RecordAdapterCall(a.name)
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", a.name, ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w: status %d", a.name, ErrUpstreamUnavailable, resp.StatusCode)
	}

	var payload struct {
		Signals []Signal `json:"signals"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", a.name, err)
	}
	return payload.Signals, nil
}

// NewMIG returns the adapter for the media mention index gateway.
func NewMIG(baseURL string, timeout time.Duration) Adapter {
	return newHTTPAdapter("mig", baseURL, timeout)
}

// NewScenes returns the adapter for the scene-blog coverage tracker.
func NewScenes(baseURL string, timeout time.Duration) Adapter {
	return newHTTPAdapter("scenes", baseURL, timeout)
}

// NewFusion returns the adapter for the streaming stats fusion feed.
func NewFusion(baseURL string, timeout time.Duration) Adapter {
	return newHTTPAdapter("fusion", baseURL, timeout)
}

// NewCMG returns the adapter for the creator metrics growth monitor.
func NewCMG(baseURL string, timeout time.Duration) Adapter {
	return newHTTPAdapter("cmg", baseURL, timeout)
}
