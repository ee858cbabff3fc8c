package infra

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

const DEFAULT_MAX_CONNECTIONS = 20

type PgConfig struct {
	ConnectionString   string
	Hostname           string
	Port               string
	User               string
	Password           string
	Database           string
	SslMode            string
	MaxPoolConnections int
}

func (config PgConfig) GetConnectionString() string {
	if config.ConnectionString != "" {
		return config.ConnectionString
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Hostname, config.Port, config.User, config.Password, config.Database, config.SslMode)
}

func NewPostgresConnectionPool(ctx context.Context, connectionString string, maxPoolConnections int) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse postgres connection string")
	}
	if maxPoolConnections > 0 {
		config.MaxConns = int32(maxPoolConnections)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, errors.Wrap(err, "unable to ping database")
	}
	return pool, nil
}
