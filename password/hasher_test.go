package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func fastConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestHasher(t *testing.T, cfg Config) *Hasher {
	t.Helper()
	h, err := NewHasher(cfg)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t, fastConfig())

	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := h.Verify("correct horse", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("wrong horse", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestHashesAreSalted(t *testing.T) {
	h := newTestHasher(t, fastConfig())

	a, _ := h.Hash("same password")
	b, _ := h.Hash("same password")
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestHashLengthLimits(t *testing.T) {
	cfg := fastConfig()
	cfg.MinLength = 4
	cfg.MaxLength = 16
	h := newTestHasher(t, cfg)

	if _, err := h.Hash("abc"); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("x", 17)); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("x", 16)); err != nil {
		t.Fatalf("max-length password rejected: %v", err)
	}
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	h := newTestHasher(t, fastConfig())

	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	ok, err := h.Verify("legacy-secret", string(legacy))
	if err != nil || !ok {
		t.Fatalf("expected bcrypt match, got ok=%v err=%v", ok, err)
	}
	ok, err = h.Verify("other", string(legacy))
	if err != nil || ok {
		t.Fatalf("expected bcrypt mismatch, got ok=%v err=%v", ok, err)
	}

	rehash, err := h.NeedsRehash(string(legacy))
	if err != nil || !rehash {
		t.Fatalf("bcrypt hash should need rehash, got %v err=%v", rehash, err)
	}
}

func TestNeedsRehash(t *testing.T) {
	weak := newTestHasher(t, fastConfig())
	hash, err := weak.Hash("upgrade me please")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if need, _ := weak.NeedsRehash(hash); need {
		t.Fatal("hash made with the current config should not need rehash")
	}

	stronger := fastConfig()
	stronger.Time = 2
	if need, _ := newTestHasher(t, stronger).NeedsRehash(hash); !need {
		t.Fatal("expected rehash when time cost increases")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := newTestHasher(t, fastConfig())

	cases := []string{
		"",
		"plain",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
	}
	for _, tc := range cases {
		if _, err := h.Verify("whatever", tc); err == nil {
			t.Fatalf("expected error for %q", tc)
		}
	}
}

func TestNewHasherRejectsWeakConfig(t *testing.T) {
	cfg := fastConfig()
	cfg.Memory = 1024
	if _, err := NewHasher(cfg); err == nil {
		t.Fatal("expected error for memory below minimum")
	}

	cfg = fastConfig()
	cfg.MinLength = 10
	cfg.MaxLength = 5
	if _, err := NewHasher(cfg); err == nil {
		t.Fatal("expected error for max < min")
	}
}
