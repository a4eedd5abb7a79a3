package postgres

import (
	"context"
	"customer-manager/internal/config"
	"customer-manager/internal/pkg/apperrors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultConnectTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// NewConnectionPool opens the pool backing the customers table and checks it
// answers within cfg.ConnectTimeout.
func NewConnectionPool(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger = logger.With("component", "postgres")
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: database URL is empty in configuration", apperrors.ErrInvalidArgument)
	}

	poolConfig, err := configurePool(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Connecting to customer database",
		"host", poolConfig.ConnConfig.Host,
		"db", poolConfig.ConnConfig.Database,
		"max_conns", poolConfig.MaxConns,
	)
	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err, "unable to create connection pool")
	}

	if err := verifyConnection(ctx, dbpool, cfg.ConnectTimeout, logger); err != nil {
		dbpool.Close()
		return nil, err
	}

	logger.Info("Customer database ready")
	return dbpool, nil
}

// configurePool parses the URL and applies the pool limits. Zero values keep
// pgx's own defaults.
func configurePool(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse database URL: %w", apperrors.ErrInvalidArgument, err)
	}
	if cfg.MinConns > cfg.MaxConns && cfg.MaxConns > 0 {
		return nil, fmt.Errorf("%w: database.minConns (%d) exceeds database.maxConns (%d)",
			apperrors.ErrInvalidArgument, cfg.MinConns, cfg.MaxConns)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	return poolConfig, nil
}

func verifyConnection(ctx context.Context, db pinger, timeout time.Duration, logger *slog.Logger) error {
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := db.Ping(pingCtx); err != nil {
		logger.Error("Customer database did not answer ping", slog.Any("error", err), slog.Duration("timeout", timeout))
		return apperrors.WrapDatabaseError(err, "failed to ping database on connect")
	}
	logger.Debug("Customer database answered ping", slog.Duration("latency", time.Since(start)))
	return nil
}
