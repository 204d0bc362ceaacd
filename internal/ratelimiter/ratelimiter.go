package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// Telegram allows roughly one message per second in a private chat and
// twenty per minute in a group.
const (
	PrivateChatRate = time.Second
	GroupChatRate   = 3 * time.Second

	pruneThreshold = 1000
)

// RateLimiter paces outgoing messages per chat so a multi-part reply does not
// trip Telegram flood control.
type RateLimiter struct {
	privateRate time.Duration
	groupRate   time.Duration
	nextSlot    map[int64]time.Time
	mu          sync.Mutex
}

func New(privateRate time.Duration, groupRate time.Duration) *RateLimiter {
	return &RateLimiter{
		privateRate: privateRate,
		groupRate:   groupRate,
		nextSlot:    make(map[int64]time.Time),
	}
}

// Wait blocks until chatID may receive another message and reserves that
// slot for the caller.
func (rl *RateLimiter) Wait(ctx context.Context, chatID int64) error {
	delay := rl.reserve(chatID, time.Now())
	if delay <= 0 {
		return nil
	}

	t := time.NewTimer(delay)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (rl *RateLimiter) reserve(chatID int64, now time.Time) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.nextSlot) >= pruneThreshold {
		for id, next := range rl.nextSlot {
			if !next.After(now) {
				delete(rl.nextSlot, id)
			}
		}
	}

	slot := now
	if next, ok := rl.nextSlot[chatID]; ok && next.After(now) {
		slot = next
	}

	rl.nextSlot[chatID] = slot.Add(rl.getRate(chatID))

	return slot.Sub(now)
}

// Group and channel chat IDs are negative.
func (rl *RateLimiter) getRate(chatID int64) time.Duration {
	if chatID < 0 {
		return rl.groupRate
	}

	return rl.privateRate
}
