// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an in-memory sliding-window rate limiter with
// per-identity windows and a background sweeper. Unlike a token bucket, the
// sliding window gives an exact guarantee: at most N requests per identity
// within any trailing window, with no burst allowance beyond N.
//
// Identities combine a caller key (user ID when authenticated, client IP
// otherwise) with an endpoint label, so chat, write, and read traffic are
// budgeted independently.
//
// The limiter is process-local. For horizontally scaled deployments a
// distributed limiter (e.g., Redis-backed) is required to enforce global
// limits; this one targets single-process abuse control and cost protection.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// keyFunc selects the identity used to key a rate-limit window.
//
// Implementations should return a stable string for the duration of a request
// (e.g., "user:<id>" or "ip:<addr>").
type keyFunc func(*gin.Context) string

// KeyByUserOrIP returns a keyFunc that prefers the authenticated user ID
// (stored in the Gin context by Auth()) and falls back to the client IP.
// Keys are prefixed so the user and IP namespaces cannot collide.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if s := UserID(c); s != "" {
			return "user:" + s
		}
		return "ip:" + c.ClientIP()
	}
}

// SlidingLimiter enforces at most Limit requests per identity within any
// trailing Window. Safe for concurrent use.
type SlidingLimiter struct {
	limit  int
	window time.Duration
	label  string
	keyFn  keyFunc

	mu   sync.Mutex
	hits map[string][]time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewSlidingLimiter constructs a limiter allowing limit requests per window,
// keyed by keyFn and namespaced by label (typically the route group name).
// A background sweeper evicts identities idle for a full window; call Stop()
// on shutdown to release it.
func NewSlidingLimiter(limit int, window time.Duration, label string, keyFn keyFunc) *SlidingLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	l := &SlidingLimiter{
		limit:  limit,
		window: window,
		label:  label,
		keyFn:  keyFn,
		hits:   make(map[string][]time.Time),
		stop:   make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow records an attempt for key at time now and reports whether it is
// within the window budget. When rejected, retryAfter is how long until the
// oldest counted attempt leaves the window.
func (l *SlidingLimiter) Allow(key string, now time.Time) (ok bool, retryAfter time.Duration) {
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	stamps := l.hits[key]
	// Drop attempts that slid out of the window.
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	stamps = stamps[i:]

	if len(stamps) >= l.limit {
		l.hits[key] = stamps
		return false, stamps[0].Add(l.window).Sub(now)
	}

	l.hits[key] = append(stamps, now)
	return true, 0
}

// Stop terminates the background sweeper. Idempotent.
func (l *SlidingLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// sweep periodically evicts identities whose newest attempt is older than a
// full window, bounding memory under churn.
func (l *SlidingLimiter) sweep() {
	t := time.NewTicker(l.window)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-t.C:
			cutoff := now.Add(-l.window)
			l.mu.Lock()
			for k, stamps := range l.hits {
				if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
					delete(l.hits, k)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Handler returns a Gin middleware enforcing the window budget. Rejected
// requests get 429 with a Retry-After header (seconds, rounded up) and the
// standard error envelope.
func (l *SlidingLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.keyFn(c) + "|" + l.label

		ok, retryAfter := l.Allow(key, time.Now())
		if ok {
			c.Next()
			return
		}

		secs := int(retryAfter.Seconds()) + 1
		c.Header("Retry-After", strconv.Itoa(secs))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"error":      "rate limit exceeded, retry later",
		})
	}
}
