package core

// run_limiter.go bounds how many audit runs execute at once.
//
// A run holds a slot from before the ledger is loaded until the workbook is
// renamed into place. When every slot is taken a new run waits up to maxWait
// and then fails with ErrBusy. WaitForDrain lets shutdown wait for runs in
// flight.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when no run slot frees up within the wait time.
var ErrBusy = errors.New("too many audits in progress")

// DefaultMaxConcurrentRuns is the slot count used for non-positive limits.
const DefaultMaxConcurrentRuns = 4

// DefaultMaxWaitTime is how long a run waits for a slot before giving up.
const DefaultMaxWaitTime = 30 * time.Second

// RunLimiter is a counting semaphore over audit runs.
type RunLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
	total  int64
}

// NewRunLimiter allows at most maxConcurrent simultaneous runs.
func NewRunLimiter(maxConcurrent int, maxWait time.Duration) *RunLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRuns
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &RunLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a run slot. It returns ErrBusy when maxWait elapses and
// ctx.Err() when ctx ends first. The caller must Release a granted slot.
func (l *RunLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.track(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrBusy
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *RunLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.track(1)
		return true
	default:
		return false
	}
}

// Release returns a slot granted by Acquire or TryAcquire.
func (l *RunLimiter) Release() {
	l.track(-1)
	<-l.slots
}

func (l *RunLimiter) track(delta int) {
	l.mu.Lock()
	l.active += delta
	if delta > 0 {
		l.total++
	}
	l.mu.Unlock()
}

// ActiveCount returns the number of runs holding a slot.
func (l *RunLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *RunLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *RunLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no run holds a slot or ctx ends.
func (l *RunLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of a RunLimiter.
type LimiterStatus struct {
	Active        int   `json:"active"`
	Available     int   `json:"available"`
	MaxConcurrent int   `json:"max_concurrent"`
	Started       int64 `json:"started"`
}

// Status returns the current limiter state for health output.
func (l *RunLimiter) Status() LimiterStatus {
	l.mu.RLock()
	active, total := l.active, l.total
	l.mu.RUnlock()

	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
		Started:       total,
	}
}
