package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, cfg), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestLoginBudget(t *testing.T) {
	l, _, done := newLimiterTest(t, Config{MaxLoginAttempts: 3, LoginCooldown: time.Minute})
	defer done()
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		if err := l.CheckLogin(ctx, "alice", ""); err != nil {
			t.Fatalf("attempt %d check: %v", i, err)
		}
		if err := l.RecordLoginFailure(ctx, "alice", ""); err != nil {
			t.Fatalf("attempt %d record: %v", i, err)
		}
	}

	if err := l.RecordLoginFailure(ctx, "alice", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("third failure should exhaust budget, got %v", err)
	}
	if err := l.CheckLogin(ctx, "alice", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("check after exhaustion should be limited, got %v", err)
	}
	if err := l.CheckLogin(ctx, "bob", ""); err != nil {
		t.Fatalf("other users are unaffected: %v", err)
	}

	n, err := l.LoginAttempts(ctx, "alice")
	if err != nil || n != 3 {
		t.Fatalf("LoginAttempts = %d, %v", n, err)
	}
}

func TestLoginWindowExpires(t *testing.T) {
	l, mr, done := newLimiterTest(t, Config{MaxLoginAttempts: 1, LoginCooldown: time.Minute})
	defer done()
	ctx := context.Background()

	_ = l.RecordLoginFailure(ctx, "alice", "")
	if err := l.CheckLogin(ctx, "alice", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected limit, got %v", err)
	}

	mr.FastForward(61 * time.Second)
	if err := l.CheckLogin(ctx, "alice", ""); err != nil {
		t.Fatalf("window should have reset: %v", err)
	}
}

func TestResetLogin(t *testing.T) {
	l, _, done := newLimiterTest(t, Config{MaxLoginAttempts: 2, LoginCooldown: time.Minute, EnableIPThrottle: true})
	defer done()
	ctx := context.Background()

	_ = l.RecordLoginFailure(ctx, "alice", "10.0.0.1")
	_ = l.RecordLoginFailure(ctx, "alice", "10.0.0.1")
	if err := l.CheckLogin(ctx, "alice", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected limit, got %v", err)
	}

	if err := l.ResetLogin(ctx, "alice", "10.0.0.1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := l.CheckLogin(ctx, "alice", "10.0.0.1"); err != nil {
		t.Fatalf("reset should clear limit: %v", err)
	}
}

func TestIPThrottleSpansUsernames(t *testing.T) {
	l, _, done := newLimiterTest(t, Config{MaxLoginAttempts: 2, LoginCooldown: time.Minute, EnableIPThrottle: true})
	defer done()
	ctx := context.Background()

	_ = l.RecordLoginFailure(ctx, "alice", "10.0.0.9")
	_ = l.RecordLoginFailure(ctx, "bob", "10.0.0.9")

	if err := l.CheckLogin(ctx, "carol", "10.0.0.9"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("ip budget should apply across usernames, got %v", err)
	}
	if err := l.CheckLogin(ctx, "carol", "10.0.0.10"); err != nil {
		t.Fatalf("other ip unaffected: %v", err)
	}
}

func TestReissueBudget(t *testing.T) {
	l, _, done := newLimiterTest(t, Config{MaxReissueAttempts: 2, ReissueWindow: time.Minute})
	defer done()
	ctx := context.Background()

	if err := l.CheckReissue(ctx, "alice"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := l.CheckReissue(ctx, "alice"); err != nil {
		t.Fatalf("second: %v", err)
	}
	if err := l.CheckReissue(ctx, "alice"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("third should be limited, got %v", err)
	}
}

func TestDisabledBudgetsNeverTouchRedis(t *testing.T) {
	l, mr, done := newLimiterTest(t, Config{})
	defer done()
	ctx := context.Background()

	_ = l.RecordLoginFailure(ctx, "alice", "10.0.0.1")
	_ = l.CheckReissue(ctx, "alice")
	if err := l.CheckLogin(ctx, "alice", "10.0.0.1"); err != nil {
		t.Fatalf("disabled limiter should allow: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("disabled limiter wrote keys: %v", keys)
	}
}

func TestLimiterRedisDown(t *testing.T) {
	l, mr, done := newLimiterTest(t, Config{MaxLoginAttempts: 3, LoginCooldown: time.Minute})
	defer done()
	mr.Close()

	if err := l.CheckLogin(context.Background(), "alice", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
