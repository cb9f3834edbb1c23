// Package sqlitestorage implements the storage.Backend interface on a local SQLite file.
// It wraps the GORM backend and adds periodic VACUUM INTO snapshots.
package sqlitestorage

import (
	"sync"
	"time"

	"github.com/lanube360/mirador-lotes/internal/database"
	"github.com/lanube360/mirador-lotes/internal/storage/gormstore"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path         string // database file; empty for in-memory
	DumpInterval time.Duration
	DumpPath     string // snapshot target for VACUUM INTO
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstore.Backend
	db       *gorm.DB
	cfg      Config
	log      zerolog.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New opens the SQLite database and creates the backend.
func New(cfg Config, log zerolog.Logger) (*Backend, error) {
	db, err := database.GetSqliteDB(cfg.Path, log)
	if err != nil {
		return nil, err
	}

	return &Backend{
		Backend:  gormstore.New(db, log),
		db:       db,
		cfg:      cfg,
		log:      log,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, writes a final snapshot and closes the database.
func (b *Backend) Close() error {
	select {
	case <-b.stopChan:
		return nil
	default:
		close(b.stopChan)
	}
	b.wg.Wait()

	if b.cfg.DumpPath != "" {
		b.dump()
	}
	return b.Backend.Close()
}

// dumpLoop periodically snapshots the database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.dump()
		}
	}
}

func (b *Backend) dump() {
	start := time.Now()
	if err := database.DumpSqliteToDisk(b.db, b.cfg.DumpPath); err != nil {
		b.log.Error().Err(err).Str("path", b.cfg.DumpPath).Msg("Error dumping to disk")
		return
	}
	b.log.Debug().Dur("took", time.Since(start)).Str("path", b.cfg.DumpPath).Msg("Dumped to disk")
}
