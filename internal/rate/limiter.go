package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds limiter budgets. A zero MaxLoginAttempts disables login
// throttling; a zero MaxReissueAttempts disables reissue throttling.
type Config struct {
	EnableIPThrottle   bool
	MaxLoginAttempts   int
	LoginCooldown      time.Duration
	MaxReissueAttempts int
	ReissueWindow      time.Duration
}

// Limiter enforces per-username and per-IP budgets using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Limiter backed by client.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  client,
		config: cfg,
	}
}

// CheckLogin returns ErrRateLimited when username (or ip, when IP throttling
// is on) has used up its failed-login budget.
func (l *Limiter) CheckLogin(ctx context.Context, username, ip string) error {
	if l.config.MaxLoginAttempts <= 0 {
		return nil
	}
	if err := l.checkCounter(ctx, loginUserKey(username), l.config.MaxLoginAttempts); err != nil {
		return err
	}
	if l.config.EnableIPThrottle && ip != "" {
		return l.checkCounter(ctx, loginIPKey(ip), l.config.MaxLoginAttempts)
	}
	return nil
}

// RecordLoginFailure counts a failed login. It returns ErrRateLimited when
// this failure exhausts the budget.
func (l *Limiter) RecordLoginFailure(ctx context.Context, username, ip string) error {
	if l.config.MaxLoginAttempts <= 0 {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, loginUserKey(username), l.config.LoginCooldown)
	if err != nil {
		return err
	}
	limited := count >= int64(l.config.MaxLoginAttempts)

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, loginIPKey(ip), l.config.LoginCooldown)
		if err != nil {
			return err
		}
		limited = limited || count >= int64(l.config.MaxLoginAttempts)
	}

	if limited {
		return ErrRateLimited
	}
	return nil
}

// ResetLogin clears the failure counters after a successful login.
func (l *Limiter) ResetLogin(ctx context.Context, username, ip string) error {
	if l.config.MaxLoginAttempts <= 0 {
		return nil
	}
	keys := []string{loginUserKey(username)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, loginIPKey(ip))
	}
	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// CheckReissue counts a reissue attempt for username and returns
// ErrRateLimited once the window budget is exceeded.
func (l *Limiter) CheckReissue(ctx context.Context, username string) error {
	if l.config.MaxReissueAttempts <= 0 {
		return nil
	}
	count, err := l.incrementWithTTL(ctx, reissueKey(username), l.config.ReissueWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxReissueAttempts) {
		return ErrRateLimited
	}
	return nil
}

// LoginAttempts returns the failed-login count for username in the current window.
func (l *Limiter) LoginAttempts(ctx context.Context, username string) (int, error) {
	count, err := l.redis.Get(ctx, loginUserKey(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, limit int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(limit) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: the first hit opens the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}

func loginUserKey(username string) string { return "tgl:" + username }
func loginIPKey(ip string) string         { return "tgli:" + ip }
func reissueKey(username string) string   { return "tgr:" + username }
