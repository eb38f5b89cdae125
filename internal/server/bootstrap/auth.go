package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	authadapters "taskhub/internal/auth/adapters"
	authapp "taskhub/internal/auth/app"
	authports "taskhub/internal/auth/ports"
	"taskhub/internal/logging"
)

// BuildAuthService wires the auth service against Postgres when a database
// URL is configured, otherwise against in-memory stores. The returned
// cleanup closes whatever was opened.
func BuildAuthService(cfg Config, pool *pgxpool.Pool, logger logging.Logger) (*authapp.Service, error) {
	logger = logging.OrNop(logger)
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("TASKHUB_JWT_SECRET not configured")
	}

	memUsers, memSessions := authadapters.NewMemoryStores()
	var (
		users    authports.UserRepository    = memUsers
		sessions authports.SessionRepository = memSessions
	)
	if pool != nil {
		pgUsers, pgSessions := authadapters.NewPostgresStores(pool)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pgUsers.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		users = pgUsers
		sessions = pgSessions
		logger.Info("auth repositories backed by Postgres")
	}

	tokens := authadapters.NewJWTTokenManager(cfg.Auth.JWTSecret, "taskhub", cfg.Auth.AccessTokenTTL)
	return authapp.NewService(users, sessions, tokens, authapp.Config{
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	}), nil
}

// OpenDatabase connects the shared pgx pool, or returns nil when no
// database is configured.
func OpenDatabase(cfg Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}
