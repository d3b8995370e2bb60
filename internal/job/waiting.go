package job

import (
	"context"
	"time"
)

// Delay waits ms milliseconds or until ctx is done, whichever comes first.
func Delay(ctx context.Context, ms int64) error {
	if ms <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		// If the time is up, we just return nil.
		return nil
	}
}
