// internal/lidar/runner.go
package lidar

import (
	"context"
	"time"
)

// Run drives the tick loop: one SpinOnce per tick until the context is
// canceled. One goroutine per bank. No overlap, no retries; waiting
// lives inside the state machines, never here.
func (c *Controller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.SpinOnce()
		}
	}
}
