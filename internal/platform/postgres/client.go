package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"seabot/internal/common/config"

	"github.com/cenkalti/backoff/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// Client owns the pool behind the user and command repositories.
type Client struct {
	db *sql.DB
}

// NewClient opens the pool and waits for the server, retrying with backoff
// for up to cfg.ConnectTimeout so the bot can start alongside its database.
// Pool statistics are exported to reg when it is not nil.
func NewClient(ctx context.Context, cfg config.PostgresConfig, reg prometheus.Registerer, log zerolog.Logger) (*Client, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			log.Warn().Err(err).Str("host", cfg.Host).Msg("Database not reachable yet")
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithMaxElapsedTime(cfg.ConnectTimeout))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if reg != nil {
		if err := registerPoolMetrics(reg, db, cfg.Database); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("PostgreSQL client initialized")

	return &Client{db: db}, nil
}

func registerPoolMetrics(reg prometheus.Registerer, db *sql.DB, name string) error {
	err := reg.Register(collectors.NewDBStatsCollector(db, name))
	var already prometheus.AlreadyRegisteredError
	if err != nil && !errors.As(err, &already) {
		return fmt.Errorf("failed to register pool metrics: %w", err)
	}
	return nil
}

func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}

// HealthCheck backs the dashboard /ready endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
