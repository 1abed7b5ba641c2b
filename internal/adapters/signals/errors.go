package signals

import "errors"

var (
	// ErrBadUpstreamURL indicates a misconfigured upstream base URL.
	ErrBadUpstreamURL = errors.New("bad upstream URL")
	// ErrUpstreamUnavailable indicates the upstream failed or returned a
	// non-success status.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrAllUpstreamsFailed indicates no adapter produced any signals.
	ErrAllUpstreamsFailed = errors.New("all upstreams failed")
)
