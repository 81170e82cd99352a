package providers

import "errors"

// Error kinds surfaced by upstream clients. The feed assembler absorbs all of
// them into degraded (empty) source results; only the throttle kind changes
// behavior, by widening the tick interval.
var (
	ErrUpstreamUnavailable   = errors.New("upstream unavailable")
	ErrUpstreamThrottled     = errors.New("upstream throttled")
	ErrUpstreamShapeMismatch = errors.New("upstream shape mismatch")
	ErrUpstreamTimeout       = errors.New("upstream timeout")
)

// IsThrottled reports whether err carries a 429 from any layer.
func IsThrottled(err error) bool {
	return errors.Is(err, ErrUpstreamThrottled)
}
