package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lanube360/mirador-lotes/internal/config"
	"github.com/lanube360/mirador-lotes/internal/influx"
	"github.com/lanube360/mirador-lotes/internal/pipeline"
	"github.com/lanube360/mirador-lotes/internal/storage"
	"github.com/lanube360/mirador-lotes/internal/storage/memory"
	pgstorage "github.com/lanube360/mirador-lotes/internal/storage/postgres"
	sqlitestorage "github.com/lanube360/mirador-lotes/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

// openStorage creates and initializes the configured backend.
func (a *app) openStorage() (storage.Backend, error) {
	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(storageCfg, config.GetDBConfig(), a.zlog, a.start)
	if err != nil {
		a.logger.Error("Failed to create storage backend", "error", err)
		return nil, err
	}
	if err := backend.Init(); err != nil {
		a.logger.Error("Failed to initialize storage backend", "type", storageCfg.Type, "error", err)
		return nil, fmt.Errorf("failed to initialize %s storage: %w", storageCfg.Type, err)
	}
	a.logger.Info("Storage backend ready", "type", storageCfg.Type)
	return backend, nil
}

func createStorageBackend(storageCfg config.StorageConfig, dbCfg config.DBConfig, log zerolog.Logger, start time.Time) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		return pgstorage.New(pgstorage.Dependencies{
			Config: dbCfg,
			Logger: log,
		}), nil

	case "sqlite":
		cfg := sqlitestorage.Config{
			Path:         storageCfg.SQLite.Path,
			DumpInterval: storageCfg.SQLite.DumpInterval,
		}
		if cfg.DumpInterval > 0 {
			cfg.DumpPath = sqliteDumpPath(cfg.Path, start)
		}
		backend, err := sqlitestorage.New(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		return backend, nil

	case "memory", "":
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// sqliteDumpPath names the snapshot written next to the database, one per session.
func sqliteDumpPath(dbPath string, start time.Time) string {
	if dbPath == "" {
		dbPath = AppName + ".db"
	}
	base := strings.TrimSuffix(dbPath, filepath.Ext(dbPath))
	return fmt.Sprintf("%s_%s.bak.db", base, start.Format("20060102_150405"))
}

// openMetrics connects to InfluxDB. It returns nil when influx is disabled or
// neither the server nor the backup file is usable.
func (a *app) openMetrics(ctx context.Context) pipeline.MetricsWriter {
	mgr := influx.NewManager(config.GetInfluxConfig(), a.zlog)
	if err := mgr.Connect(ctx); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			a.logger.Warn("Run metrics unavailable", "error", err)
		}
		return nil
	}
	a.closers = append(a.closers, mgr)
	return mgr
}
