// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package lockout tracks failed login attempts per identity and enforces a
// temporary lockout after too many failures.
//
// State is process-local and in memory; a restart clears all counters. The
// tracker is a standalone collaborator so a persistent implementation can
// replace it without touching authentication logic.
package lockout

import (
	"strings"
	"sync"
	"time"
)

const (
	// MaxAttempts is the number of failures that triggers a lockout.
	MaxAttempts = 3
	// Duration is how long an identity stays locked out.
	Duration = 5 * time.Minute
)

// Tracker counts failed attempts per identity. All methods are safe for
// concurrent use; identities are keyed by lowercased email.
type Tracker struct {
	mu       sync.Mutex
	attempts map[string]int
	expiry   map[string]time.Time
	now      func() time.Time
}

// NewTracker creates a Tracker using the wall clock.
func NewTracker() *Tracker {
	return NewTrackerWithClock(time.Now)
}

// NewTrackerWithClock creates a Tracker with an injectable clock so expiry
// behavior is testable without sleeping.
func NewTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{
		attempts: make(map[string]int),
		expiry:   make(map[string]time.Time),
		now:      now,
	}
}

func normalize(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// RecordFailure increments the failed-attempt count for the identity and,
// once MaxAttempts is reached, starts the lockout window.
func (t *Tracker) RecordFailure(identity string) {
	key := normalize(identity)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.attempts[key]++
	if t.attempts[key] >= MaxAttempts {
		t.expiry[key] = t.now().Add(Duration)
	}
}

// RecordSuccess clears all failure and lockout state for the identity.
func (t *Tracker) RecordSuccess(identity string) {
	key := normalize(identity)

	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.attempts, key)
	delete(t.expiry, key)
}

// IsLockedOut reports whether the identity is currently locked out. An
// elapsed lockout is cleared on the spot; there is no background timer.
func (t *Tracker) IsLockedOut(identity string) bool {
	key := normalize(identity)

	t.mu.Lock()
	defer t.mu.Unlock()

	expiry, ok := t.expiry[key]
	if !ok {
		return false
	}

	if t.now().After(expiry) {
		delete(t.attempts, key)
		delete(t.expiry, key)
		return false
	}

	return true
}

// RemainingMinutes returns the whole minutes left in the lockout window,
// or 0 if the identity is not locked out.
func (t *Tracker) RemainingMinutes(identity string) int {
	key := normalize(identity)

	t.mu.Lock()
	defer t.mu.Unlock()

	expiry, ok := t.expiry[key]
	if !ok {
		return 0
	}

	remaining := int(expiry.Sub(t.now()).Minutes())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FailedAttempts returns the current failure count for the identity.
func (t *Tracker) FailedAttempts(identity string) int {
	key := normalize(identity)

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.attempts[key]
}
