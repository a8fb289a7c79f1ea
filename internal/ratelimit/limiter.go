package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/artx-bot/pkg/logger"
)

// Store is the counter backend; *redis.Client satisfies it.
type Store interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Policy defines a fixed window and the number of calls allowed inside it.
type Policy struct {
	name   string
	window time.Duration
	limit  int
}

func NewPolicy(name string, window time.Duration, limit int) Policy {
	return Policy{
		name:   strings.ToLower(strings.TrimSpace(name)),
		window: window,
		limit:  limit,
	}
}

func (p Policy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p Policy) normalizedName() string {
	if p.name == "" {
		return "commands"
	}
	return p.name
}

// Limiter counts invocations per command and user. A nil Limiter, a nil store
// or a disabled policy allows everything.
type Limiter struct {
	store  Store
	policy Policy
	logg   *logger.Logger
}

func New(store Store, policy Policy, logg *logger.Logger) *Limiter {
	if store == nil || !policy.enabled() {
		return nil
	}
	return &Limiter{store: store, policy: policy, logg: logg}
}

// Allow reports whether userID may run command now. Store errors fail open.
func (l *Limiter) Allow(ctx context.Context, command, userID string) bool {
	if l == nil {
		return true
	}
	scope := strings.Join([]string{l.policy.normalizedName(), command, userID}, ":")
	allowed, count, err := l.store.FixedWindowAllow(ctx, scope, int64(l.policy.limit), l.policy.window)
	if err != nil {
		if l.logg != nil {
			l.logg.Error(l.logg.WithField(ctx, "policy", l.policy.normalizedName()), "ratelimit.store_failed", err)
		}
		return true
	}
	if allowed {
		return true
	}
	if l.logg != nil {
		logCtx := l.logg.WithFields(ctx, map[string]any{
			"policy":         l.policy.normalizedName(),
			"attempts":       count,
			"limit":          l.policy.limit,
			"window_seconds": int(l.policy.window.Seconds()),
		})
		l.logg.Warn(logCtx, "ratelimit.blocked")
	}
	return false
}
