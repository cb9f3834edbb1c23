// Package storage persists projects and their parcels under proyectos/<slug>/lotes.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/lanube360/mirador-lotes/pkg/core"
)

// ParcelCollection is the sub-collection parcels live in under a project.
const ParcelCollection = "lotes"

var (
	// ErrNotFound is returned when a project or parcel does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotReady is returned when a backend is used before Init or after Close.
	ErrNotReady = errors.New("storage backend not ready")
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// SaveProject upserts the project document. Fields owned by earlier runs,
	// such as the creation time, are kept.
	SaveProject(ctx context.Context, p core.Project) error
	// SaveParcels upserts parcels under the project. Admin-edited fields
	// (price, notes, modification time) of existing parcels are kept.
	SaveParcels(ctx context.Context, projectSlug string, parcels []core.ParcelSummary) error

	GetProject(ctx context.Context, slug string) (core.Project, error)
	ListParcels(ctx context.Context, projectSlug string) ([]core.ParcelSummary, error)
	GetParcel(ctx context.Context, projectSlug, id string) (core.ParcelSummary, error)
	UpdateParcel(ctx context.Context, projectSlug, id string, u core.ParcelUpdate, now time.Time) (core.ParcelSummary, error)
}

// Exporter is an optional interface for backends that write a file snapshot.
type Exporter interface {
	Export() error
	ExportedFilePath(projectSlug string) string
}

// ParcelPath returns the document path of a parcel, e.g. proyectos/mirador-volcanes/lotes/lote7.
func ParcelPath(projectSlug, id string) string {
	return core.CollectionPath(projectSlug, ParcelCollection) + "/" + id
}
