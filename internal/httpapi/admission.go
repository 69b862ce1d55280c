package httpapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

// admission bounds the number of generations running at once. Requests wait
// up to maxWait for a slot before being rejected with 429.
type admission struct {
	slots   chan struct{}
	maxWait time.Duration
}

var admit atomic.Pointer[admission]

// SetMaxInflight limits concurrent generations to n, waiting at most wait for
// a free slot. n <= 0 disables the limit.
func SetMaxInflight(n int, wait time.Duration) {
	if n <= 0 {
		admit.Store(nil)
		return
	}
	if wait < 0 {
		wait = 0
	}
	admit.Store(&admission{slots: make(chan struct{}, n), maxWait: wait})
}

// tooBusyError is returned when no generation slot frees up in time.
type tooBusyError struct{ limit int }

func (e tooBusyError) Error() string   { return "too many concurrent generations; try again later" }
func (e tooBusyError) StatusCode() int { return http.StatusTooManyRequests }

// beginGeneration reserves an in-flight slot. Returns a release func to be deferred.
func beginGeneration(ctx context.Context) (func(), error) {
	a := admit.Load()
	if a == nil {
		return func() {}, nil
	}
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	// Fast path: a free slot
	select {
	case a.slots <- struct{}{}:
		return func() { <-a.slots }, nil
	default:
	}
	if a.maxWait == 0 {
		return func() {}, tooBusyError{limit: cap(a.slots)}
	}
	timer := time.NewTimer(a.maxWait)
	defer timer.Stop()
	select {
	case a.slots <- struct{}{}:
		return func() { <-a.slots }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{limit: cap(a.slots)}
	}
}
