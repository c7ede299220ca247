package api

import (
	"context"
	"time"
)

// Polling defaults, matching the backend's expected cadence: up to 120
// fetches two seconds apart, roughly four minutes of wall time.
const (
	DefaultPollAttempts = 120
	DefaultPollInterval = 2 * time.Second
)

// PollOptions tunes AwaitTask. The zero value uses the defaults above.
type PollOptions struct {
	// OnStatus is invoked synchronously with every fetched record, including
	// non-terminal ones. It is the only way callers observe intermediate
	// progress (pending -> running). May be nil.
	OnStatus func(*Task)

	// MaxAttempts bounds the number of fetches before giving up.
	MaxAttempts int

	// Interval is the fixed delay between the end of one fetch and the start
	// of the next. It is not a fixed-rate schedule: worst-case wall time is
	// roughly MaxAttempts*Interval plus cumulative fetch latency.
	Interval time.Duration
}

func (o PollOptions) withDefaults() PollOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultPollAttempts
	}
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	return o
}

// AwaitTask fetches the task repeatedly until it reaches a terminal status,
// then returns the record. A task the backend marked failed is still a
// successful poll: the failed record comes back as data, not as an error.
//
// Fetch errors propagate immediately; no transient-error retry happens here.
// If MaxAttempts fetches all observe a non-terminal status the call fails
// with *PollTimeoutError. Cancelling ctx stops the loop at the next
// suspension point (and aborts any in-flight fetch), returning ctx's error.
//
// Independent AwaitTask calls share no state and interleave arbitrarily.
func (c *Client) AwaitTask(ctx context.Context, taskID string, opts PollOptions) (*Task, error) {
	opts = opts.withDefaults()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if opts.OnStatus != nil {
			opts.OnStatus(task)
		}
		if task.Status.Terminal() {
			return task, nil
		}
		if attempt >= opts.MaxAttempts {
			return nil, &PollTimeoutError{TaskID: taskID, Attempts: opts.MaxAttempts, Interval: opts.Interval}
		}

		timer.Reset(opts.Interval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
