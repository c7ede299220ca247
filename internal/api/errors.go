package api

import (
	"fmt"
	"time"
)

// APIError is a non-2xx response from the backend. The Detail field carries
// the backend-provided diagnostic when one was present in the body.
type APIError struct {
	StatusCode int
	Detail     string
	Op         string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

// PollTimeoutError reports an exhausted attempt budget with no terminal
// status. It is deliberately distinct from network failures so callers can
// say "still processing, check back later" instead of "something is broken".
type PollTimeoutError struct {
	TaskID   string
	Attempts int
	Interval time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("task %s did not reach a terminal status within %d attempts (%s apart)",
		e.TaskID, e.Attempts, e.Interval)
}
