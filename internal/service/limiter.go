package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyValidations is returned when every validation slot stays busy for
// the whole wait time. Clients should retry after a short delay.
var ErrTooManyValidations = errors.New("too many concurrent validations, please try again later")

const (
	// DefaultMaxConcurrent is the default number of feeds validated at once.
	DefaultMaxConcurrent = 4

	// DefaultMaxWaitTime is how long a request waits for a slot.
	DefaultMaxWaitTime = 30 * time.Second
)

// Limiter bounds concurrent validations with a semaphore. Feeds are loaded
// fully into memory, so the bound is what keeps a burst of uploads from
// exhausting the heap.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewLimiter allows at most maxConcurrent validations; callers wait up to
// maxWait for a slot. Non-positive values take the defaults.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to the limiter's max wait. It returns
// ctx.Err() if ctx ends first and ErrTooManyValidations on timeout. Every
// successful Acquire must be paired with Release.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.TryAcquire() {
		return nil
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyValidations
	}
}

// TryAcquire takes a slot only if one is free.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *Limiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount returns the number of validations holding a slot.
func (l *Limiter) ActiveCount() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until no validation holds a slot or ctx ends. Used on
// shutdown so in-flight validations can finish and persist.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	if l.ActiveCount() == 0 {
		return nil
	}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}

// LimiterStatus is a snapshot of limiter occupancy.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current occupancy.
func (l *Limiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
