package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	poolConnectTimeout  = 10 * time.Second
	poolHealthCheck     = 30 * time.Second
	healthPingTimeout   = 2 * time.Second
	poolApplicationName = appName
)

// NewDatabasePool opens the pgx pool for DATABASE_URL and verifies it with a ping
func NewDatabasePool(ctx context.Context, config *Config) (*pgxpool.Pool, error) {
	poolConfig, err := newPoolConfig(config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, poolConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database %s@%s:%d/%s: %w",
			poolConfig.ConnConfig.User, poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Port, poolConfig.ConnConfig.Database, err)
	}

	return pool, nil
}

func newPoolConfig(config *Config) (*pgxpool.Config, error) {
	dbConfig, err := config.ParseDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(dbConfig.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = dbConfig.MaxConns
	poolConfig.MinConns = dbConfig.MinConns
	poolConfig.MaxConnLifetime = dbConfig.MaxConnLifetime
	poolConfig.MaxConnIdleTime = dbConfig.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = poolHealthCheck
	poolConfig.ConnConfig.ConnectTimeout = poolConnectTimeout
	poolConfig.ConnConfig.RuntimeParams["application_name"] = poolApplicationName

	return poolConfig, nil
}

// PingDatabase reports whether the pool can reach the server within a short budget
func PingDatabase(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return pool.Ping(ctx)
}

// CloseDatabasePool gracefully closes the database connection pool
func CloseDatabasePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
