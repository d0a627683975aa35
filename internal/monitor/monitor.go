// Package monitor implements completion detection for agent bus sessions.
//
// A runner's idle status is not trustworthy on its own: runners flap between
// idle and running while streaming output, and can report idle mid-transition
// before the last response fragment lands. The monitor therefore requires the
// session to look finished for several consecutive polls (status idle AND
// message count unchanged) before declaring completion.
package monitor

import (
	"context"
	"fmt"
	"time"
)

// Reference tuning. A session is considered complete after
// DefaultStabilityThreshold consecutive stable idle polls at
// DefaultPollInterval, and abandoned after DefaultTimeout.
const (
	DefaultPollInterval       = 500 * time.Millisecond
	DefaultStabilityThreshold = 3
	DefaultTimeout            = 10 * time.Minute
)

// Status is the observed activity state of the remote operation.
// It mirrors the agent bus session status without importing it, so the
// monitor stays decoupled from any particular transport.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
)

// Handle is the monitor's view of a remote asynchronous operation. The
// operation is a black box that eventually stops producing output; the
// handle exposes just enough to observe that.
type Handle interface {
	// Status reports whether the operation is currently producing output.
	Status(ctx context.Context) (Status, error)

	// ObservationCount reports how much output has accumulated so far
	// (e.g. response fragments). It must be monotonically non-decreasing.
	ObservationCount(ctx context.Context) (int, error)
}

// TimeoutError indicates the operation did not stabilize before the
// monitor's ceiling elapsed. The caller must treat the operation as failed,
// not partially complete.
type TimeoutError struct {
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("session did not stabilize within %v", e.Elapsed.Round(time.Second))
}

// CancelledError indicates the wait was cancelled by the caller. It is
// deliberately distinct from TimeoutError so callers can tell an operator
// abort from a stuck session.
type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("session wait cancelled: %v", e.Cause)
}

func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// Monitor polls a Handle until its output stabilizes. The zero value is not
// usable; construct with New.
type Monitor struct {
	pollInterval       time.Duration
	stabilityThreshold int
	timeout            time.Duration
}

// New creates a Monitor with the given tuning. Non-positive values fall back
// to the package defaults.
func New(pollInterval time.Duration, stabilityThreshold int, timeout time.Duration) Monitor {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if stabilityThreshold <= 0 {
		stabilityThreshold = DefaultStabilityThreshold
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return Monitor{
		pollInterval:       pollInterval,
		stabilityThreshold: stabilityThreshold,
		timeout:            timeout,
	}
}

// sessionState tracks one wait. It is created per AwaitCompletion call,
// mutated only by that call's poll loop, and discarded when the wait ends.
type sessionState struct {
	lastObservedCount int
	consecutiveStable int
	startedAt         time.Time
}

// AwaitCompletion blocks until the operation behind handle has stabilized,
// the monitor's timeout ceiling elapses, or ctx is cancelled.
//
// Completion requires stabilityThreshold consecutive polls where the status
// is idle and the observation count is unchanged and non-zero. A running
// status or a count change resets the stability counter: flapping back to
// running, or output still trickling in, means the operation is not done.
//
// Returns nil on completion, *TimeoutError on ceiling breach, and
// *CancelledError if ctx was cancelled between polls.
func (m Monitor) AwaitCompletion(ctx context.Context, handle Handle) error {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	deadline := time.After(m.timeout)

	state := &sessionState{startedAt: time.Now()}

	for {
		select {
		case <-ctx.Done():
			return &CancelledError{Cause: ctx.Err()}

		case <-deadline:
			return &TimeoutError{Elapsed: time.Since(state.startedAt)}

		case <-ticker.C:
			done, err := m.poll(ctx, handle, state)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// poll performs one observation and updates the stability state.
// Returns done=true once the stability threshold is reached.
func (m Monitor) poll(ctx context.Context, handle Handle, state *sessionState) (bool, error) {
	status, err := handle.Status(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to poll session status: %w", err)
	}

	count, err := handle.ObservationCount(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to poll observation count: %w", err)
	}

	if status == StatusRunning {
		// Still streaming. Any stability seen so far was a transient idle.
		state.consecutiveStable = 0
		state.lastObservedCount = count
		return false, nil
	}

	if count == state.lastObservedCount && count > 0 {
		state.consecutiveStable++
		return state.consecutiveStable >= m.stabilityThreshold, nil
	}

	// Count moved (or nothing has arrived yet): restart the debounce.
	state.consecutiveStable = 0
	state.lastObservedCount = count
	return false, nil
}
