package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Upstream failure classes. Adapters wrap transport and wire-format failures
// in one of these sentinels so the orchestrator can classify degradation
// without knowing provider specifics. Match with errors.Is.
var (
	// ErrUpstreamTimeout marks an adapter call that exceeded its deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrUpstreamRateLimited marks an HTTP 429 from a provider.
	ErrUpstreamRateLimited = errors.New("upstream rate limited")

	// ErrUpstreamUnavailable marks connection failures and 5xx responses.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedResponse marks a 2xx response whose body does not match
	// the provider's documented schema.
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrCacheCorruption marks a persisted entry that no longer decodes.
	// Corrupt entries are treated as absent and evicted, never served.
	ErrCacheCorruption = errors.New("cache corruption")

	// ErrAllSourcesFailed marks a computation where every upstream branch
	// degraded. A record built entirely from defaults carries no signal,
	// so it is neither cached nor served.
	ErrAllSourcesFailed = errors.New("all upstream sources failed")
)

// ClassifyStatus maps a non-2xx HTTP status to its failure class.
func ClassifyStatus(status int) error {
	switch {
	case status == 429:
		return fmt.Errorf("%w: status %d", ErrUpstreamRateLimited, status)
	case status >= 500:
		return fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, status)
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrMalformedResponse, status)
	}
}

// ClassifyTransport maps a transport-level error (request construction,
// connection, deadline) to its failure class.
func ClassifyTransport(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}
