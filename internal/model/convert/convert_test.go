package convert

import (
	"testing"
	"time"

	"github.com/lanube360/mirador-lotes/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRoundTrip(t *testing.T) {
	created := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	p := core.Project{
		Slug:         "mirador-volcanes",
		DisplayName:  "Lote Los Volcanes",
		Description:  "Proyecto de lotes",
		CreatedAt:    created,
		TotalParcels: 42,
		Structure:    "simple",
		Version:      "3.0",
		RunID:        "run-1",
		Location:     core.Position2D{Longitude: -72.335, Latitude: -39.644},
	}

	m := CoreToProject(p)
	assert.Equal(t, "mirador-volcanes", m.Slug)
	assert.Equal(t, -72.335, m.Longitude)
	assert.False(t, m.Location.IsEmpty())

	assert.Equal(t, p, ProjectToCore(m))
}

func TestCoreToProject_InvalidLocation(t *testing.T) {
	m := CoreToProject(core.Project{Slug: "x", Location: core.Position2D{Longitude: 500}})
	assert.True(t, m.Location.IsEmpty())
}

func TestParcelRoundTrip(t *testing.T) {
	modified := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	p := core.ParcelSummary{
		ID:          "lote7",
		DisplayName: "Lote 7",
		Number:      7,
		RefTag:      "7",
		Status:      core.StatusAvailable,
		TotalArea:   5000.5,
		UsableArea:  4800,
		Scenes: map[string]core.ScenePlacement{
			"scene_master": {HorizontalAngle: 10.5, VerticalAngle: -3.2, Title: "Vista General"},
		},
		Price:      1200,
		Notes:      "esquina",
		ModifiedAt: &modified,
	}

	m := CoreToParcel("mirador-volcanes", p)
	assert.Equal(t, "mirador-volcanes", m.ProjectSlug)
	assert.Equal(t, "lote7", m.ID)
	require.Len(t, m.Scenes.Data(), 1)

	assert.Equal(t, p, ParcelToCore(m))
}

func TestParcel_NilScenesBecomeEmpty(t *testing.T) {
	m := CoreToParcel("p", core.ParcelSummary{ID: "lote1", Number: 1})
	assert.NotNil(t, m.Scenes.Data())

	back := ParcelToCore(m)
	assert.NotNil(t, back.Scenes)
	assert.Empty(t, back.Scenes)
}
