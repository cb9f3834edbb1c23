// Package postgres implements the storage.Backend interface using GORM/PostgreSQL.
package postgres

import (
	"fmt"

	"github.com/lanube360/mirador-lotes/internal/config"
	"github.com/lanube360/mirador-lotes/internal/database"
	"github.com/lanube360/mirador-lotes/internal/storage/gormstore"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	// DB is used as-is when set; otherwise Init connects with Config.
	DB     *gorm.DB
	Config config.DBConfig
	Logger zerolog.Logger
}

// Backend implements storage.Backend on Postgres.
type Backend struct {
	*gormstore.Backend
}

// New creates a new Postgres storage backend. The connection is opened by Init.
func New(deps Dependencies) *Backend {
	if deps.DB != nil {
		return &Backend{Backend: gormstore.New(deps.DB, deps.Logger)}
	}
	return &Backend{Backend: gormstore.NewLazy(func() (*gorm.DB, error) {
		db, err := database.GetPostgresDB(deps.Config, deps.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return db, nil
	}, deps.Logger)}
}
