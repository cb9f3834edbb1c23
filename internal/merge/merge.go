// Package merge joins the extracted markers, data cards and scene assignments into the
// parcel records that get persisted.
package merge

import (
	"github.com/lanube360/mirador-lotes/pkg/core"
)

// Report summarizes one merge run.
type Report struct {
	Markers          int
	Facts            int
	Assignments      int
	Parcels          int
	Placements       int
	MissingCoords    int // covered parcels whose marker lacks the assignment's key pair
	UnjoinedMarkers  int // markers without a usable ref or without a matching fact
	DuplicateMarkers int // markers whose parcel was already created by an earlier marker
}

// Build merges the three extracted sets. Parcels are returned in creation order, i.e. the
// document order of the first marker referencing each parcel. Build never fails;
// unresolvable references are skipped.
//
// When two facts share a ParcelID the later one wins. When two markers share a parcel
// number the first one seeds the parcel and provides its coordinates.
func Build(markers []core.MarkerRecord, facts []core.ParcelFact, assignments []core.SceneAssignment) ([]core.ParcelSummary, Report) {
	report := Report{
		Markers:     len(markers),
		Facts:       len(facts),
		Assignments: len(assignments),
	}

	factsByID := make(map[int]core.ParcelFact, len(facts))
	for _, f := range facts {
		factsByID[f.ParcelID] = f
	}

	var parcels []core.ParcelSummary
	created := make(map[int]bool)
	firstMarker := make(map[int]core.MarkerRecord) // parcel number -> first marker in document order

	for _, m := range markers {
		n, ok := m.ParcelNumber()
		if !ok {
			report.UnjoinedMarkers++
			continue
		}
		if _, seen := firstMarker[n]; !seen {
			firstMarker[n] = m
		}

		fact, ok := factsByID[n]
		if !ok {
			report.UnjoinedMarkers++
			continue
		}
		if created[n] {
			report.DuplicateMarkers++
			continue
		}

		created[n] = true
		parcels = append(parcels, core.ParcelSummary{
			ID:          core.ParcelID(n),
			DisplayName: core.ParcelDisplayName(n),
			Number:      n,
			RefTag:      m.ParcelRef,
			Status:      m.Status,
			TotalArea:   fact.TotalArea,
			UsableArea:  fact.UsableArea,
			Scenes:      make(map[string]core.ScenePlacement),
		})
	}

	// only created parcels can receive a placement, so walk those instead of the range
	for _, a := range assignments {
		suffix := a.Suffix()
		for i := range parcels {
			n := parcels[i].Number
			if !a.Covers(n) {
				continue
			}
			h, v, ok := firstMarker[n].Angles(suffix)
			if !ok {
				report.MissingCoords++
				continue
			}
			parcels[i].Scenes[a.SceneName] = core.ScenePlacement{
				HorizontalAngle: h,
				VerticalAngle:   v,
				Title:           a.Title,
			}
			report.Placements++
		}
	}

	report.Parcels = len(parcels)
	return parcels, report
}

// ByID indexes parcels by their document key.
func ByID(parcels []core.ParcelSummary) map[string]core.ParcelSummary {
	out := make(map[string]core.ParcelSummary, len(parcels))
	for _, p := range parcels {
		out[p.ID] = p
	}
	return out
}
