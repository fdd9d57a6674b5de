package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/audit/natssink"
	"github.com/MrEthical07/tokengate/internal/config"
	"github.com/MrEthical07/tokengate/internal/logging"
	"github.com/MrEthical07/tokengate/internal/server"
	"github.com/MrEthical07/tokengate/password"
	"github.com/MrEthical07/tokengate/users"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var embeddedRedis bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, embeddedRedis)
		},
	}
	cmd.Flags().BoolVar(&embeddedRedis, "embedded-redis", false, "use an in-process Redis (development only)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, embeddedRedis bool) error {
	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	rdb, closeRedis, err := openRedis(cfg.Redis, embeddedRedis, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	hasher, err := password.NewHasher(engineCfg.Password.HasherConfig())
	if err != nil {
		return err
	}

	store, ready, closeStore, err := openUserStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	verifier, err := users.NewVerifier(store, hasher,
		users.WithRehash(engineCfg.Password.UpgradeOnLogin),
		users.WithVerifierLogger(logger.Logger),
	)
	if err != nil {
		return err
	}

	sink, closeSink, err := openAuditSink(cfg.Audit, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	engine, err := tokengate.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithVerifier(verifier).
		WithAuditSink(sink).
		WithLogger(logger.Logger).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	handler := server.NewRouter(server.Deps{
		Engine:     engine,
		Registrar:  users.NewRegistrar(store, hasher),
		Logger:     logger,
		CORS:       cfg.CORS,
		TrustProxy: cfg.Server.TrustProxy,
		Ready:      ready,
	})
	return server.New(cfg.Server, handler, logger).Run(ctx)
}

func openRedis(cfg config.RedisConfig, embedded bool, logger *logging.Logger) (redis.UniversalClient, func(), error) {
	addr := cfg.Addr
	var mr *miniredis.Miniredis
	if embedded {
		var err error
		mr, err = miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded redis: %w", err)
		}
		addr = mr.Addr()
		logger.Warn("using embedded redis; refresh tokens will not survive a restart", "addr", addr)
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return client, func() {
		_ = client.Close()
		if mr != nil {
			mr.Close()
		}
	}, nil
}

func openUserStore(ctx context.Context, cfg config.DatabaseConfig) (users.Store, func(context.Context) error, func(), error) {
	switch cfg.Type {
	case "", "memory":
		return users.NewMemoryStore(), nil, func() {}, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, nil, nil, errors.New("database.dsn is required for postgres")
		}
		pg, err := users.NewPostgresStore(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return pg, pg.Ping, pg.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown database.type %q", cfg.Type)
	}
}

func openAuditSink(cfg config.AuditConfig, logger *logging.Logger) (tokengate.AuditSink, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	if cfg.NATSURL == "" {
		return tokengate.NewJSONWriterSink(os.Stdout), func() {}, nil
	}

	natsCfg := natssink.DefaultConfig()
	natsCfg.URL = cfg.NATSURL
	conn, err := natssink.Connect(natsCfg, logger.Logger)
	if err != nil {
		return nil, nil, err
	}
	return natssink.New(conn, cfg.Subject, logger.Logger), func() { _ = conn.Drain() }, nil
}
