package server

import (
	"context"
	"log/slog"
	"time"

	repo "github.com/joseph-ayodele/dist1-extractor/internal/repository"
)

// DBConfig holds database connection configuration
type DBConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ConnectDB opens the run history database named by dsn (postgres URL or sqlite path).
func ConnectDB(ctx context.Context, dsn string, dialTimeout time.Duration, logger *slog.Logger) (*repo.DB, error) {
	config := DBConfig{
		DSN:             dsn,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		DialTimeout:     dialTimeout,
	}

	db, err := repo.Open(ctx, repo.Config{
		DSN:             config.DSN,
		MaxConns:        config.MaxConns,
		MinConns:        config.MinConns,
		MaxConnLifetime: config.MaxConnLifetime,
		MaxConnIdleTime: config.MaxConnIdleTime,
		DialTimeout:     config.DialTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, db *repo.DB, logger *slog.Logger, timeout time.Duration) error {
	return repo.HealthCheck(ctx, db, timeout, logger)
}
