package transport

import (
	"context"
	"time"
)

const (
	defaultBackoff = time.Second
	maxBackoff     = 30 * time.Second

	// DefaultReprobeDelay is the first wait before probing for push again
	// after a push channel gave up.
	DefaultReprobeDelay = 5 * time.Second
)

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if base <= 0 {
		base = defaultBackoff
	}
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// ReprobeDelay is the wait before the attempt-th push re-probe. It grows
// like the reconnect backoff and shares its cap.
func ReprobeDelay(attempt int, base time.Duration) time.Duration {
	if base <= 0 {
		base = DefaultReprobeDelay
	}
	return calculateBackoff(attempt, base)
}

// sleepContext waits for d or until ctx is done, reporting whether the full
// wait elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
