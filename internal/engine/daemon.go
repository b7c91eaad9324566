package engine

import (
	"context"
	"log/slog"
	"time"
)

// Run drains the queue on a fixed cadence until ctx is cancelled or a
// drain fails. Errors are fatal on purpose: a drain that cannot reach
// the database or the index will not heal by being retried blindly
// every interval, and a supervisor restart resets whatever state went
// bad.
func (e *Engine) Run(ctx context.Context) error {
	e.log.InfoContext(ctx, "starting update loop",
		slog.Duration("interval", e.interval),
		slog.Int("chunk_size", e.chunkSize))
	return runLoop(ctx, e.interval, func() error { return e.Drain(ctx) })
}

// runLoop calls cycle, then sleeps for whatever remains of interval.
// A cycle that ran longer than the interval starts the next one
// immediately. Cancellation is only honored at the sleep boundary; a
// cycle already underway always runs to completion so it cannot leave
// a transaction half-finished.
func runLoop(ctx context.Context, interval time.Duration, cycle func() error) error {
	for {
		start := time.Now()
		if err := cycle(); err != nil {
			return err
		}

		delay := interval - time.Since(start)
		if delay <= 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
