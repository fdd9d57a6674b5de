package tokengate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// staticVerifier accepts a fixed set of username/password pairs.
type staticVerifier struct {
	users map[string]struct{ password, role string }
	calls int
	mu    sync.Mutex
}

func newStaticVerifier() *staticVerifier {
	return &staticVerifier{users: map[string]struct{ password, role string }{
		"alice": {"correct-password-123", "ROLE_ADMIN"},
		"bob":   {"bob-password-456", "ROLE_USER"},
	}}
}

func (v *staticVerifier) Verify(_ context.Context, username, password string) (Identity, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	u, ok := v.users[username]
	if !ok || u.password != password {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Username: username, Role: u.role}, nil
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte(testSecret)
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

type testEngine struct {
	*Engine
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	clock    *testClock
	verifier *staticVerifier
}

func newTestEngine(t testing.TB, cfg Config, sink AuditSink) (*testEngine, func()) {
	t.Helper()
	mr, rdb := newTestRedis(t)
	clock := newTestClock()
	verifier := newStaticVerifier()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithVerifier(verifier).
		WithAuditSink(sink).
		WithClock(clock.Now).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	te := &testEngine{Engine: engine, mr: mr, rdb: rdb, clock: clock, verifier: verifier}
	return te, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}
