// Package ratelimit implements the per-service action cooldown used by
// the price check and dropship order services.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"partshub-api/internal/cache"
)

// Clock returns the current time. Injectable so tests can simulate the
// passage of time without real delays.
type Clock func() time.Time

// State is the persisted limiter state. NextAllowedAt is zero when the
// limiter is clear.
type State struct {
	LastActionAt  time.Time `json:"last_action_at"`
	NextAllowedAt time.Time `json:"next_allowed_at"`
}

// Limiter tracks the last action timestamp and a fixed cooldown window.
// Expiry is lazy: every read compares against the clock and self-clears
// once the window has passed. Every mutation is written through to the
// backing store so the state survives restarts; storage failures are
// logged and the limiter fails open rather than blocking all action.
type Limiter struct {
	store    cache.Cache
	storeKey string
	cooldown time.Duration
	now      Clock

	mu    sync.Mutex
	state State
}

// New creates a limiter with the given cooldown, restoring any persisted
// state from the store and immediately re-evaluating expiry.
func New(store cache.Cache, storeKey string, cooldown time.Duration, now Clock) *Limiter {
	if now == nil {
		now = time.Now
	}
	l := &Limiter{
		store:    store,
		storeKey: storeKey,
		cooldown: cooldown,
		now:      now,
	}
	l.load()
	l.mu.Lock()
	l.expireLocked()
	l.mu.Unlock()
	return l
}

// Allowed reports whether a new action may be taken now.
func (l *Limiter) Allowed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.expireLocked()
	return l.state.NextAllowedAt.IsZero()
}

// Remaining returns the time left in the cooldown window, zero if clear.
func (l *Limiter) Remaining() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.expireLocked()
	if l.state.NextAllowedAt.IsZero() {
		return 0
	}
	return l.state.NextAllowedAt.Sub(l.now())
}

// RemainingSeconds returns the remaining cooldown rounded up to whole
// seconds.
func (l *Limiter) RemainingSeconds() int {
	rem := l.Remaining()
	if rem <= 0 {
		return 0
	}
	return int((rem + time.Second - 1) / time.Second)
}

// RemainingMessage returns a human-readable description of the remaining
// wait, suitable for a countdown display. Empty when the limiter is clear.
func (l *Limiter) RemainingMessage() string {
	rem := l.Remaining()
	if rem <= 0 {
		return ""
	}
	rem = rem.Round(time.Second)
	if rem >= time.Hour {
		return fmt.Sprintf("available in %dh %dm", int(rem.Hours()), int(rem.Minutes())%60)
	}
	if rem >= time.Minute {
		return fmt.Sprintf("available in %dm %ds", int(rem.Minutes()), int(rem.Seconds())%60)
	}
	return fmt.Sprintf("available in %ds", int(rem.Seconds()))
}

// Record marks an action as taken now and starts a new cooldown window.
func (l *Limiter) Record() {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now()
	l.state = State{
		LastActionAt:  ts,
		NextAllowedAt: ts.Add(l.cooldown),
	}
	l.persistLocked()
}

// Reset clears the limiter regardless of any active window.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = State{}
	l.persistLocked()
}

// expireLocked clears the state once the window has passed. Caller must
// hold mu.
func (l *Limiter) expireLocked() {
	if l.state.NextAllowedAt.IsZero() {
		return
	}
	if !l.now().Before(l.state.NextAllowedAt) {
		l.state = State{}
		l.persistLocked()
	}
}

// persistLocked writes the current state through to the store. Caller
// must hold mu.
func (l *Limiter) persistLocked() {
	if l.store == nil {
		return
	}
	data, err := json.Marshal(l.state)
	if err != nil {
		log.Printf("[Limiter] Failed to serialize state for %s: %v", l.storeKey, err)
		return
	}
	if err := l.store.Set(context.Background(), l.storeKey, data, 0); err != nil {
		log.Printf("[Limiter] Failed to persist state for %s: %v", l.storeKey, err)
	}
}

// load restores persisted state. Any failure leaves the limiter clear.
func (l *Limiter) load() {
	if l.store == nil {
		return
	}
	data, err := l.store.Get(context.Background(), l.storeKey)
	if err != nil {
		if err != cache.ErrCacheMiss {
			log.Printf("[Limiter] Failed to load state for %s: %v", l.storeKey, err)
		}
		return
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("[Limiter] Failed to parse state for %s: %v", l.storeKey, err)
		return
	}
	l.mu.Lock()
	l.state = st
	l.mu.Unlock()
}
