package tokengate_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/tokengate"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exampleVerifier() tokengate.CredentialVerifier {
	return tokengate.CredentialVerifierFunc(func(_ context.Context, username, password string) (tokengate.Identity, error) {
		if username == "alice" && password == "correct-password-123" {
			return tokengate.Identity{Username: "alice", Role: "ROLE_USER"}, nil
		}
		return tokengate.Identity{}, tokengate.ErrInvalidCredentials
	})
}

// ExampleEngine_Login builds an engine over Redis, logs in and authenticates
// the issued access token.
func ExampleEngine_Login() {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	defer mr.Close()

	cfg := tokengate.DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")

	engine, err := tokengate.New().
		WithConfig(cfg).
		WithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()})).
		WithVerifier(exampleVerifier()).
		Build()
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()
	pair, err := engine.Login(ctx, "alice", "correct-password-123")
	if err != nil {
		panic(err)
	}

	id, err := engine.Authenticate(ctx, pair.AccessToken)
	fmt.Println(id.Username, id.Role, err)

	_, err = engine.Authenticate(ctx, pair.RefreshToken)
	fmt.Println(errors.Is(err, tokengate.ErrWrongTokenType))
	// Output:
	// alice ROLE_USER <nil>
	// true
}

// ExampleEngine_Reissue shows that a refresh token is redeemable once.
func ExampleEngine_Reissue() {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	defer mr.Close()

	cfg := tokengate.DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")

	engine, err := tokengate.New().
		WithConfig(cfg).
		WithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()})).
		WithVerifier(exampleVerifier()).
		Build()
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()
	pair, _ := engine.Login(ctx, "alice", "correct-password-123")

	_, err = engine.Reissue(ctx, pair.RefreshToken)
	fmt.Println(err)

	_, err = engine.Reissue(ctx, pair.RefreshToken)
	fmt.Println(errors.Is(err, tokengate.ErrRefreshNotFound))
	// Output:
	// <nil>
	// true
}
