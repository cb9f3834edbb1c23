// Package memory keeps projects and parcels in memory and snapshots them to JSON files
// laid out like the document store: <outputDir>/proyectos/<slug>.json
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lanube360/mirador-lotes/internal/config"
	"github.com/lanube360/mirador-lotes/internal/lifecycle"
	"github.com/lanube360/mirador-lotes/internal/storage"
	"github.com/lanube360/mirador-lotes/pkg/core"
)

// projectRecord groups a project with its parcels keyed by ID
type projectRecord struct {
	Project    core.Project
	HasProject bool
	Parcels    map[string]core.ParcelSummary
}

// Backend stores projects in memory and exports them to JSON
type Backend struct {
	cfg      config.MemoryConfig
	projects map[string]*projectRecord
	state    lifecycle.Machine
	mu       sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:      cfg,
		projects: make(map[string]*projectRecord),
	}
}

// Init loads any snapshot left in the output directory by a previous run.
func (b *Backend) Init() error {
	return b.state.Run(func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.loadSnapshots()
	})
}

// Close writes the final snapshot.
func (b *Backend) Close() error {
	if !b.state.Teardown() {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exportAll()
}

// Export writes every project snapshot now.
func (b *Backend) Export() error {
	if !b.state.Ready() {
		return storage.ErrNotReady
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exportAll()
}

func (b *Backend) record(slug string) *projectRecord {
	rec, ok := b.projects[slug]
	if !ok {
		rec = &projectRecord{
			Project: core.Project{Slug: slug},
			Parcels: make(map[string]core.ParcelSummary),
		}
		b.projects[slug] = rec
	}
	return rec
}

// SaveProject upserts the project, keeping the first creation time.
func (b *Backend) SaveProject(_ context.Context, p core.Project) error {
	if !b.state.Ready() {
		return storage.ErrNotReady
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.record(p.Slug)
	if rec.HasProject && !rec.Project.CreatedAt.IsZero() {
		p.CreatedAt = rec.Project.CreatedAt
	}
	rec.Project = p
	rec.HasProject = true
	return nil
}

// SaveParcels upserts parcels, keeping admin-owned fields of existing ones.
func (b *Backend) SaveParcels(_ context.Context, projectSlug string, parcels []core.ParcelSummary) error {
	if !b.state.Ready() {
		return storage.ErrNotReady
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.record(projectSlug)
	for _, p := range parcels {
		if old, ok := rec.Parcels[p.ID]; ok {
			p.Price = old.Price
			p.Notes = old.Notes
			p.ModifiedAt = old.ModifiedAt
		}
		rec.Parcels[p.ID] = cloneParcel(p)
	}
	return nil
}

// GetProject returns the stored project.
func (b *Backend) GetProject(_ context.Context, slug string) (core.Project, error) {
	if !b.state.Ready() {
		return core.Project{}, storage.ErrNotReady
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.projects[slug]
	if !ok || !rec.HasProject {
		return core.Project{}, fmt.Errorf("project %s: %w", slug, storage.ErrNotFound)
	}
	return rec.Project, nil
}

// ListParcels returns the project's parcels ordered by number.
func (b *Backend) ListParcels(_ context.Context, projectSlug string) ([]core.ParcelSummary, error) {
	if !b.state.Ready() {
		return nil, storage.ErrNotReady
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.projects[projectSlug]
	if !ok {
		return []core.ParcelSummary{}, nil
	}
	return sortedParcels(rec.Parcels), nil
}

// GetParcel returns one parcel.
func (b *Backend) GetParcel(_ context.Context, projectSlug, id string) (core.ParcelSummary, error) {
	if !b.state.Ready() {
		return core.ParcelSummary{}, storage.ErrNotReady
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	p, ok := b.lookup(projectSlug, id)
	if !ok {
		return core.ParcelSummary{}, fmt.Errorf("%s: %w", storage.ParcelPath(projectSlug, id), storage.ErrNotFound)
	}
	return cloneParcel(p), nil
}

// UpdateParcel applies u to a stored parcel.
func (b *Backend) UpdateParcel(_ context.Context, projectSlug, id string, u core.ParcelUpdate, now time.Time) (core.ParcelSummary, error) {
	if !b.state.Ready() {
		return core.ParcelSummary{}, storage.ErrNotReady
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.lookup(projectSlug, id)
	if !ok {
		return core.ParcelSummary{}, fmt.Errorf("%s: %w", storage.ParcelPath(projectSlug, id), storage.ErrNotFound)
	}
	u.Apply(&p, now)
	b.projects[projectSlug].Parcels[id] = p
	return cloneParcel(p), nil
}

func (b *Backend) lookup(projectSlug, id string) (core.ParcelSummary, bool) {
	rec, ok := b.projects[projectSlug]
	if !ok {
		return core.ParcelSummary{}, false
	}
	p, ok := rec.Parcels[id]
	return p, ok
}

func sortedParcels(m map[string]core.ParcelSummary) []core.ParcelSummary {
	out := make([]core.ParcelSummary, 0, len(m))
	for _, p := range m {
		out = append(out, cloneParcel(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// cloneParcel copies the scene map so callers never share it with the store.
func cloneParcel(p core.ParcelSummary) core.ParcelSummary {
	scenes := make(map[string]core.ScenePlacement, len(p.Scenes))
	for k, v := range p.Scenes {
		scenes[k] = v
	}
	p.Scenes = scenes
	if p.ModifiedAt != nil {
		t := *p.ModifiedAt
		p.ModifiedAt = &t
	}
	return p
}
