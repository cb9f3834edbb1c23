package pipeline

import (
	"context"

	"github.com/lanube360/mirador-lotes/internal/merge"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/lanube360/mirador-lotes/internal/pipeline"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// runMetrics are the OTel instruments recorded once per migration run.
type runMetrics struct {
	runs        metric.Int64Counter
	failures    metric.Int64Counter
	markers     metric.Int64Counter
	facts       metric.Int64Counter
	assignments metric.Int64Counter
	parcels     metric.Int64Counter
	placements  metric.Int64Counter
	duration    metric.Float64Histogram
}

func newRunMetrics() (*runMetrics, error) {
	m := meter()
	var (
		rm  runMetrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&rm.runs, "lotes.migration.runs", "Migration runs started"},
		{&rm.failures, "lotes.migration.failures", "Migration runs that failed"},
		{&rm.markers, "lotes.migration.markers", "Marker records extracted"},
		{&rm.facts, "lotes.migration.facts", "Parcel facts extracted"},
		{&rm.assignments, "lotes.migration.assignments", "Scene assignments extracted"},
		{&rm.parcels, "lotes.migration.parcels", "Parcels produced by the merge"},
		{&rm.placements, "lotes.migration.placements", "Scene placements produced by the merge"},
	}
	for _, c := range counters {
		*c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}
	rm.duration, err = m.Float64Histogram("lotes.migration.duration",
		metric.WithDescription("Migration run duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

func (rm *runMetrics) recordReport(ctx context.Context, project string, r merge.Report) {
	attrs := metric.WithAttributes(attribute.String("project", project))
	rm.markers.Add(ctx, int64(r.Markers), attrs)
	rm.facts.Add(ctx, int64(r.Facts), attrs)
	rm.assignments.Add(ctx, int64(r.Assignments), attrs)
	rm.parcels.Add(ctx, int64(r.Parcels), attrs)
	rm.placements.Add(ctx, int64(r.Placements), attrs)
}
