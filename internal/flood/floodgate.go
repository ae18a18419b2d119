// Package flood throttles write requests per client with a sliding one-minute
// window.
package flood

import (
	"sync"
	"time"
)

const (
	// windowDuration is the fixed time window for flood detection (always 1 minute)
	windowDuration = 60 * time.Second
	// cleanupInterval is how often idle clients are dropped
	cleanupInterval = 10 * time.Minute
	// idleTimeout is how long a client may stay silent before it is forgotten
	idleTimeout = 10 * time.Minute
)

// Floodgate limits how many requests each client may make per minute within
// a scope, such as a route group.
type Floodgate struct {
	limitPerMinute int
	entries        map[string]*clientEntry // Key: "scope|client"
	mutex          sync.RWMutex
	now            func() time.Time
	stopCleanup    chan struct{}
	stopOnce       sync.Once
}

// clientEntry tracks request timestamps for one client in one scope.
type clientEntry struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// Decision is the outcome of a check.
type Decision struct {
	Allowed bool
	// Remaining is the number of further requests allowed in the window.
	Remaining int
	// RetryAfter is how long a blocked client should wait.
	RetryAfter time.Duration
}

// New creates a Floodgate that admits limitPerMinute requests per client per
// scope. A non-positive limit blocks everything.
func New(limitPerMinute int) *Floodgate {
	fg := newWithClock(limitPerMinute, time.Now)
	go fg.cleanup()
	return fg
}

func newWithClock(limitPerMinute int, now func() time.Time) *Floodgate {
	if limitPerMinute < 0 {
		limitPerMinute = 0
	}
	return &Floodgate{
		limitPerMinute: limitPerMinute,
		entries:        make(map[string]*clientEntry),
		now:            now,
		stopCleanup:    make(chan struct{}),
	}
}

// Stop stops the background cleanup goroutine. It is safe to call twice.
func (fg *Floodgate) Stop() {
	fg.stopOnce.Do(func() { close(fg.stopCleanup) })
}

// Allow records a request from client in scope and reports whether it may
// proceed.
func (fg *Floodgate) Allow(scope, client string) bool {
	return fg.Check(scope, client).Allowed
}

// Check records a request from client in scope. Blocked requests are not
// recorded, so a client that keeps retrying is admitted again once its
// window slides.
func (fg *Floodgate) Check(scope, client string) Decision {
	key := scope + "|" + client
	now := fg.now()

	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	entry, exists := fg.entries[key]
	if !exists {
		entry = &clientEntry{
			timestamps: make([]time.Time, 0, fg.limitPerMinute+1),
		}
		fg.entries[key] = entry
	}
	entry.lastSeen = now

	windowStart := now.Add(-windowDuration)
	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= fg.limitPerMinute {
		retry := windowDuration
		if len(entry.timestamps) > 0 {
			retry = entry.timestamps[0].Add(windowDuration).Sub(now)
		}
		return Decision{Allowed: false, RetryAfter: retry}
	}

	entry.timestamps = append(entry.timestamps, now)
	return Decision{Allowed: true, Remaining: fg.limitPerMinute - len(entry.timestamps)}
}

func (fg *Floodgate) cleanup() {
	fg.performCleanup()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fg.performCleanup()
		case <-fg.stopCleanup:
			return
		}
	}
}

// performCleanup removes clients that have been idle for too long.
func (fg *Floodgate) performCleanup() {
	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	cutoff := fg.now().Add(-idleTimeout)
	for key, entry := range fg.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(fg.entries, key)
		}
	}
}

// GetStats returns statistics about the floodgate for monitoring.
func (fg *Floodgate) GetStats() Stats {
	fg.mutex.RLock()
	defer fg.mutex.RUnlock()

	return Stats{
		ActiveClients:  len(fg.entries),
		LimitPerMinute: fg.limitPerMinute,
		WindowSeconds:  int(windowDuration.Seconds()),
	}
}

// Stats contains floodgate statistics
type Stats struct {
	ActiveClients  int `json:"active_clients"`
	LimitPerMinute int `json:"limit_per_minute"`
	WindowSeconds  int `json:"window_seconds"`
}
