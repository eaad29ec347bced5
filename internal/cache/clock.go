package cache

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze TTL expiry.
// Production code uses the real clock; tests inject a fake for deterministic
// freshness checks.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for entry stamping and freshness checks.
// Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now reports the current time from the package clock. Callers that stamp
// ComputedAt themselves should use this so freshness checks and stamping
// agree under a fake clock.
func Now() time.Time {
	return clock.Now()
}
