package infra

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// --- Rate limiter ---

// RateLimiter provides simple token-bucket rate limiting for upstream
// provider requests.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter that allows maxTokens requests
// per refillRate duration.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
			// Check again after a short sleep.
		}
	}
}

// refill adds tokens based on elapsed time. Must be called with mu held.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	if elapsed >= rl.refillRate {
		periods := int(elapsed / rl.refillRate)
		rl.tokens += periods
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
	}
}

// --- Background task supervisor ---

// Supervisor runs fire-and-forget background tasks. Task errors and panics
// never reach the caller; they are logged and swallowed. There is no
// cancellation: a task either completes or is abandoned at process exit.
type Supervisor struct {
	log zerolog.Logger
	wg  sync.WaitGroup
}

// NewSupervisor creates a task supervisor.
func NewSupervisor(log zerolog.Logger) *Supervisor {
	return &Supervisor{log: log.With().Str("component", "supervisor").Logger()}
}

// Go launches fn as a detached background task.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Str("task", name).Interface("panic", r).Msg("background task panicked")
			}
		}()
		if err := fn(context.Background()); err != nil {
			s.log.Warn().Str("task", name).Err(err).Msg("background task failed")
		}
	}()
}

// Wait blocks until all launched tasks have finished. Intended for tests and
// orderly shutdown; the conversation loop never calls it.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
