// Package pages holds the portal's screens. Each page owns its state and
// talks to the backend only through the small service interfaces it
// declares; rendering goes through package ui.
//
// A page is owned by a single goroutine. Nothing here locks.
package pages

import (
	"context"
	"time"

	"library-portal/api"
)

// Phase is the tag of a State.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	}
	return "idle"
}

// State is Idle, Loading, Loaded(data) or Failed(err). The zero value is
// Idle. Data is only reachable in Loaded and the error only in Failed.
type State[T any] struct {
	phase Phase
	data  T
	err   error
}

func Idle[T any]() State[T]    { return State[T]{} }
func Loading[T any]() State[T] { return State[T]{phase: PhaseLoading} }

func Loaded[T any](data T) State[T] {
	return State[T]{phase: PhaseLoaded, data: data}
}

func Failed[T any](err error) State[T] {
	return State[T]{phase: PhaseFailed, err: err}
}

func (s State[T]) Phase() Phase { return s.phase }

// Data returns the loaded value; ok is false in every other phase.
func (s State[T]) Data() (data T, ok bool) {
	if s.phase != PhaseLoaded {
		return data, false
	}
	return s.data, true
}

// Err returns the failure, or nil unless Failed.
func (s State[T]) Err() error {
	if s.phase != PhaseFailed {
		return nil
	}
	return s.err
}

func (s State[T]) IsLoading() bool { return s.phase == PhaseLoading }

// Error is a failed submission with a message fit for display.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// failure prefers the server supplied message over fallback.
func failure(err error, fallback string) *Error {
	return &Error{Message: api.MessageOf(err, fallback), Err: err}
}

// Navigator moves the current route.
type Navigator interface {
	Path() string
	Navigate(path string)
}

// Scheduler runs f after d. Success redirects go through it.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// AsyncScheduler fires on a timer goroutine.
type AsyncScheduler struct{}

func (AsyncScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// BlockingScheduler sleeps, then runs f on the caller's goroutine. The
// command line uses it so a redirect finishes before the process exits.
type BlockingScheduler struct {
	Ctx context.Context
}

func (s BlockingScheduler) AfterFunc(d time.Duration, f func()) {
	ctx := s.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	f()
}
