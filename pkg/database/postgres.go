package database

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/osms-api/pkg/config"
)

// ErrNotConfigured is returned when no backend URL is available.
var ErrNotConfigured = errors.New("database: backend url not configured")

// NewPostgres returns a configured PostgreSQL client for the backend URL.
func NewPostgres(ctx context.Context, backend config.BackendConfig, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if !backend.Configured() {
		return nil, ErrNotConfigured
	}

	db, err := sqlx.Open("postgres", backend.URL)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
