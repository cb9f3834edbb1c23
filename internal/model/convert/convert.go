// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"github.com/lanube360/mirador-lotes/internal/geo"
	"github.com/lanube360/mirador-lotes/internal/model"
	"github.com/lanube360/mirador-lotes/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// CoreToProject converts a core.Project to a GORM model.Project.
// An out-of-range location is stored as an empty point.
func CoreToProject(p core.Project) model.Project {
	location, err := geo.Coords3857From4326(p.Location.Longitude, p.Location.Latitude)
	if err != nil {
		location = geom.NewEmptyPoint(geom.DimXY)
	}
	return model.Project{
		Slug:         p.Slug,
		DisplayName:  p.DisplayName,
		Description:  p.Description,
		TotalParcels: p.TotalParcels,
		Structure:    p.Structure,
		Version:      p.Version,
		RunID:        p.RunID,
		Longitude:    p.Location.Longitude,
		Latitude:     p.Location.Latitude,
		Location:     location,
		CreatedAt:    p.CreatedAt,
	}
}

// ProjectToCore converts a GORM model.Project back to a core.Project.
func ProjectToCore(p model.Project) core.Project {
	return core.Project{
		Slug:         p.Slug,
		DisplayName:  p.DisplayName,
		Description:  p.Description,
		CreatedAt:    p.CreatedAt,
		TotalParcels: p.TotalParcels,
		Structure:    p.Structure,
		Version:      p.Version,
		RunID:        p.RunID,
		Location:     core.Position2D{Longitude: p.Longitude, Latitude: p.Latitude},
	}
}

// CoreToParcel converts a core.ParcelSummary to a GORM model.Parcel in the given project.
func CoreToParcel(projectSlug string, p core.ParcelSummary) model.Parcel {
	scenes := p.Scenes
	if scenes == nil {
		scenes = map[string]core.ScenePlacement{}
	}
	return model.Parcel{
		ProjectSlug: projectSlug,
		ID:          p.ID,
		Number:      p.Number,
		DisplayName: p.DisplayName,
		RefTag:      p.RefTag,
		Status:      p.Status,
		TotalArea:   p.TotalArea,
		UsableArea:  p.UsableArea,
		Scenes:      datatypes.NewJSONType(scenes),
		Price:       p.Price,
		Notes:       p.Notes,
		ModifiedAt:  p.ModifiedAt,
	}
}

// ParcelToCore converts a GORM model.Parcel back to a core.ParcelSummary.
func ParcelToCore(p model.Parcel) core.ParcelSummary {
	scenes := p.Scenes.Data()
	if scenes == nil {
		scenes = map[string]core.ScenePlacement{}
	}
	return core.ParcelSummary{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Number:      p.Number,
		RefTag:      p.RefTag,
		Status:      p.Status,
		TotalArea:   p.TotalArea,
		UsableArea:  p.UsableArea,
		Scenes:      scenes,
		Price:       p.Price,
		Notes:       p.Notes,
		ModifiedAt:  p.ModifiedAt,
	}
}
