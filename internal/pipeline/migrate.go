// Package pipeline runs the krpano-to-storage migration and reads the result back.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/lanube360/mirador-lotes/internal/config"
	"github.com/lanube360/mirador-lotes/internal/influx"
	"github.com/lanube360/mirador-lotes/internal/logging"
	"github.com/lanube360/mirador-lotes/internal/merge"
	"github.com/lanube360/mirador-lotes/internal/parser"
	"github.com/lanube360/mirador-lotes/internal/storage"
	"github.com/lanube360/mirador-lotes/pkg/core"
	"golang.org/x/sync/errgroup"
)

const (
	// ProjectStructure and ProjectVersion describe the stored document layout.
	ProjectStructure = "simple"
	ProjectVersion   = "3.0"

	runMeasurement = "migration_run"
)

// MetricsWriter receives one point per finished run.
type MetricsWriter interface {
	WritePoint(ctx context.Context, point *influxdb2_write.Point) error
}

// Dependencies holds everything a Migrator needs. Store may be nil for dry runs;
// Metrics and RunContext are optional.
type Dependencies struct {
	Store      storage.Backend
	Metrics    MetricsWriter
	Logger     *slog.Logger
	RunContext *logging.RunContext
}

// Options select what one run reads and writes.
type Options struct {
	Project     config.ProjectConfig
	Sources     config.SourcesConfig
	StorageType string
	DryRun      bool
}

// Result describes a finished run.
type Result struct {
	RunID    string
	Project  core.Project
	Parcels  []core.ParcelSummary
	Report   merge.Report
	Duration time.Duration
	DryRun   bool
}

// Migrator extracts parcels from the three krpano documents and persists them.
type Migrator struct {
	deps    Dependencies
	parser  *parser.Parser
	metrics *runMetrics
	now     func() time.Time
}

// NewMigrator creates a Migrator.
func NewMigrator(deps Dependencies) (*Migrator, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	rm, err := newRunMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create migration metrics: %w", err)
	}
	return &Migrator{
		deps:    deps,
		parser:  parser.NewParser(deps.Logger),
		metrics: rm,
		now:     time.Now,
	}, nil
}

// extraction holds the output of the three concurrent passes.
type extraction struct {
	markers     []core.MarkerRecord
	facts       []core.ParcelFact
	assignments []core.SceneAssignment
}

// extract reads and parses the three documents concurrently. Only a source that
// cannot be read fails; malformed markup is dropped by the parser.
func (m *Migrator) extract(ctx context.Context, src config.SourcesConfig) (extraction, error) {
	var out extraction
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		text, err := readSource(src.Spots)
		if err != nil {
			return err
		}
		out.markers = m.parser.ParseSpots(text)
		return nil
	})
	g.Go(func() error {
		text, err := readSource(src.Data)
		if err != nil {
			return err
		}
		out.facts = m.parser.ParseFichas(text)
		return nil
	})
	g.Go(func() error {
		text, err := readSource(src.Tour)
		if err != nil {
			return err
		}
		out.assignments = m.parser.ParseScenes(text)
		return nil
	})

	if err := g.Wait(); err != nil {
		return extraction{}, err
	}
	return out, nil
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// Run performs one migration. Unreadable sources and persistence errors are fatal
// for the run.
func (m *Migrator) Run(ctx context.Context, opts Options) (res Result, err error) {
	start := m.now()
	res = Result{RunID: uuid.NewString(), DryRun: opts.DryRun}
	slug := opts.Project.Slug
	log := m.deps.Logger.With("project", slug, "runId", res.RunID)

	if m.deps.RunContext != nil {
		m.deps.RunContext.Set(slug, res.RunID)
		defer m.deps.RunContext.Set("", "")
	}
	m.metrics.runs.Add(ctx, 1)
	defer func() {
		res.Duration = m.now().Sub(start)
		m.metrics.duration.Record(ctx, res.Duration.Seconds())
		if err != nil {
			m.metrics.failures.Add(ctx, 1)
		}
	}()

	if !opts.DryRun && m.deps.Store == nil {
		return res, fmt.Errorf("no storage backend configured")
	}

	log.Info("Starting migration",
		"spots", opts.Sources.Spots, "data", opts.Sources.Data, "tour", opts.Sources.Tour,
		"dryRun", opts.DryRun)

	ex, err := m.extract(ctx, opts.Sources)
	if err != nil {
		return res, fmt.Errorf("extraction failed: %w", err)
	}
	log.Info("Documents parsed",
		"markers", len(ex.markers), "facts", len(ex.facts), "assignments", len(ex.assignments))

	parcels, report := merge.Build(ex.markers, ex.facts, ex.assignments)
	res.Parcels = parcels
	res.Report = report
	m.metrics.recordReport(ctx, slug, report)
	log.Info("Parcels merged",
		"parcels", report.Parcels,
		"placements", report.Placements,
		"missingCoords", report.MissingCoords,
		"unjoinedMarkers", report.UnjoinedMarkers,
		"duplicateMarkers", report.DuplicateMarkers)

	res.Project = core.Project{
		Slug:         slug,
		DisplayName:  opts.Project.DisplayName,
		Description:  opts.Project.Description,
		CreatedAt:    start.UTC(),
		TotalParcels: len(parcels),
		Structure:    ProjectStructure,
		Version:      ProjectVersion,
		RunID:        res.RunID,
		Location: core.Position2D{
			Longitude: opts.Project.Longitude,
			Latitude:  opts.Project.Latitude,
		},
	}

	for _, p := range parcels {
		log.Debug("Parcel",
			"id", p.ID, "name", p.DisplayName, "status", p.Status,
			"totalArea", p.TotalArea, "usableArea", p.UsableArea, "scenes", len(p.Scenes))
	}

	if opts.DryRun {
		log.Info("Dry run, nothing persisted")
		return res, nil
	}

	if err := m.persist(ctx, res); err != nil {
		return res, err
	}
	log.Info("Migration complete",
		"parcels", len(parcels),
		"collection", core.CollectionPath(slug, storage.ParcelCollection))

	m.writeRunPoint(ctx, log, opts, res)
	return res, nil
}

func (m *Migrator) persist(ctx context.Context, res Result) error {
	store := m.deps.Store
	if err := store.SaveProject(ctx, res.Project); err != nil {
		return fmt.Errorf("failed to persist project: %w", err)
	}
	if err := store.SaveParcels(ctx, res.Project.Slug, res.Parcels); err != nil {
		return fmt.Errorf("failed to persist parcels: %w", err)
	}
	if exp, ok := store.(storage.Exporter); ok {
		if err := exp.Export(); err != nil {
			return fmt.Errorf("failed to export snapshot: %w", err)
		}
	}
	return nil
}

// writeRunPoint sends the run summary to InfluxDB. Failures are logged only.
func (m *Migrator) writeRunPoint(ctx context.Context, log *slog.Logger, opts Options, res Result) {
	if m.deps.Metrics == nil {
		return
	}
	point := influx.NewPoint(runMeasurement,
		map[string]string{
			"project": res.Project.Slug,
			"storage": opts.StorageType,
		},
		map[string]interface{}{
			"runId":            res.RunID,
			"markers":          res.Report.Markers,
			"facts":            res.Report.Facts,
			"assignments":      res.Report.Assignments,
			"parcels":          res.Report.Parcels,
			"placements":       res.Report.Placements,
			"missingCoords":    res.Report.MissingCoords,
			"unjoinedMarkers":  res.Report.UnjoinedMarkers,
			"duplicateMarkers": res.Report.DuplicateMarkers,
			"durationMs":       m.now().Sub(res.Project.CreatedAt).Milliseconds(),
		},
		res.Project.CreatedAt)
	if err := m.deps.Metrics.WritePoint(ctx, point); err != nil {
		log.Warn("Failed to write run metrics", "error", err)
	}
}
