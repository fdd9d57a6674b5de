package tokengate

import (
	"context"
	"testing"
)

func BenchmarkAuthenticate(b *testing.B) {
	e, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	pair, err := e.Login(context.Background(), "alice", "correct-password-123")
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Authenticate(context.Background(), pair.AccessToken); err != nil {
			b.Fatalf("authenticate failed: %v", err)
		}
	}
}

func BenchmarkAuthenticateParallel(b *testing.B) {
	e, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	pair, err := e.Login(context.Background(), "alice", "correct-password-123")
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := e.Authenticate(context.Background(), pair.AccessToken); err != nil {
				b.Errorf("authenticate failed: %v", err)
				return
			}
		}
	})
}

func BenchmarkReissue(b *testing.B) {
	e, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	pair, err := e.Login(context.Background(), "alice", "correct-password-123")
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}
	refreshToken := pair.RefreshToken

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next, err := e.Reissue(context.Background(), refreshToken)
		if err != nil {
			b.Fatalf("reissue failed: %v", err)
		}
		refreshToken = next.RefreshToken
	}
}

func BenchmarkLoginLogout(b *testing.B) {
	e, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pair, err := e.Login(context.Background(), "alice", "correct-password-123")
		if err != nil {
			b.Fatalf("login failed: %v", err)
		}
		_ = e.Logout(context.Background(), pair.RefreshToken)
	}
}

func newBenchmarkEngine(tb testing.TB) (*testEngine, func()) {
	tb.Helper()

	cfg := testConfig()
	cfg.Metrics.Enabled = false
	cfg.Audit.Enabled = false
	cfg.Security.MaxLoginAttempts = 0
	return newTestEngine(tb, cfg, nil)
}
