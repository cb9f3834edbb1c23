// Package gormstore implements storage.Backend on top of an injected GORM connection.
// The sqlite and postgres backends embed it and only add connection handling.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lanube360/mirador-lotes/internal/database"
	"github.com/lanube360/mirador-lotes/internal/lifecycle"
	"github.com/lanube360/mirador-lotes/internal/model"
	"github.com/lanube360/mirador-lotes/internal/model/convert"
	"github.com/lanube360/mirador-lotes/internal/storage"
	"github.com/lanube360/mirador-lotes/pkg/core"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Backend implements storage.Backend using GORM.
type Backend struct {
	db    *gorm.DB
	open  func() (*gorm.DB, error)
	log   zerolog.Logger
	state lifecycle.Machine
}

// New creates a GORM storage backend. Init migrates the schema.
func New(db *gorm.DB, log zerolog.Logger) *Backend {
	return &Backend{db: db, log: log}
}

// NewLazy creates a GORM storage backend whose connection is opened by Init.
func NewLazy(open func() (*gorm.DB, error), log zerolog.Logger) *Backend {
	return &Backend{open: open, log: log}
}

// DB exposes the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// Init runs schema migration once.
func (b *Backend) Init() error {
	return b.state.Run(func() error {
		if b.db == nil && b.open != nil {
			db, err := b.open()
			if err != nil {
				return err
			}
			b.db = db
		}
		if b.db == nil {
			return fmt.Errorf("no database connection")
		}
		if err := database.Migrate(b.db); err != nil {
			return err
		}
		b.log.Debug().Msg("Storage schema ready")
		return nil
	})
}

// Close marks the backend torn down and closes the connection.
func (b *Backend) Close() error {
	if !b.state.Teardown() || b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

func (b *Backend) ready() error {
	if !b.state.Ready() {
		return storage.ErrNotReady
	}
	return nil
}

// SaveProject upserts the project row, keeping its original creation time.
func (b *Backend) SaveProject(ctx context.Context, p core.Project) error {
	if err := b.ready(); err != nil {
		return err
	}
	row := convert.CoreToProject(p)
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns(model.ProjectMigrationColumns),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save project %s: %w", p.Slug, err)
	}
	return nil
}

// SaveParcels upserts every parcel in a single transaction.
func (b *Backend) SaveParcels(ctx context.Context, projectSlug string, parcels []core.ParcelSummary) error {
	if err := b.ready(); err != nil {
		return err
	}
	if len(parcels) == 0 {
		return nil
	}
	rows := make([]model.Parcel, 0, len(parcels))
	for _, p := range parcels {
		rows = append(rows, convert.CoreToParcel(projectSlug, p))
	}
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_slug"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns(model.MigrationColumns),
		}).CreateInBatches(&rows, 200).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save parcels under %s: %w",
			core.CollectionPath(projectSlug, storage.ParcelCollection), err)
	}
	b.log.Debug().Str("project", projectSlug).Int("parcels", len(rows)).Msg("Parcels upserted")
	return nil
}

// GetProject loads the project row.
func (b *Backend) GetProject(ctx context.Context, slug string) (core.Project, error) {
	if err := b.ready(); err != nil {
		return core.Project{}, err
	}
	var row model.Project
	err := b.db.WithContext(ctx).Where("slug = ?", slug).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Project{}, fmt.Errorf("project %s: %w", slug, storage.ErrNotFound)
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("failed to load project %s: %w", slug, err)
	}
	return convert.ProjectToCore(row), nil
}

// ListParcels returns the project's parcels ordered by number.
func (b *Backend) ListParcels(ctx context.Context, projectSlug string) ([]core.ParcelSummary, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	var rows []model.Parcel
	err := b.db.WithContext(ctx).
		Where("project_slug = ?", projectSlug).
		Order("number ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list parcels of %s: %w", projectSlug, err)
	}
	out := make([]core.ParcelSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.ParcelToCore(r))
	}
	return out, nil
}

// GetParcel loads one parcel.
func (b *Backend) GetParcel(ctx context.Context, projectSlug, id string) (core.ParcelSummary, error) {
	if err := b.ready(); err != nil {
		return core.ParcelSummary{}, err
	}
	row, err := b.findParcel(b.db.WithContext(ctx), projectSlug, id)
	if err != nil {
		return core.ParcelSummary{}, err
	}
	return convert.ParcelToCore(row), nil
}

// UpdateParcel applies u to the stored parcel and saves it.
func (b *Backend) UpdateParcel(ctx context.Context, projectSlug, id string, u core.ParcelUpdate, now time.Time) (core.ParcelSummary, error) {
	if err := b.ready(); err != nil {
		return core.ParcelSummary{}, err
	}
	var updated core.ParcelSummary
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := b.findParcel(tx, projectSlug, id)
		if err != nil {
			return err
		}
		parcel := convert.ParcelToCore(row)
		u.Apply(&parcel, now)
		next := convert.CoreToParcel(projectSlug, parcel)
		next.CreatedAt = row.CreatedAt
		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("failed to update %s: %w", storage.ParcelPath(projectSlug, id), err)
		}
		updated = parcel
		return nil
	})
	if err != nil {
		return core.ParcelSummary{}, err
	}
	return updated, nil
}

func (b *Backend) findParcel(db *gorm.DB, projectSlug, id string) (model.Parcel, error) {
	var row model.Parcel
	err := db.Where("project_slug = ? AND id = ?", projectSlug, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Parcel{}, fmt.Errorf("%s: %w", storage.ParcelPath(projectSlug, id), storage.ErrNotFound)
	}
	if err != nil {
		return model.Parcel{}, fmt.Errorf("failed to load %s: %w", storage.ParcelPath(projectSlug, id), err)
	}
	return row, nil
}
