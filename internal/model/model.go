// Package model holds the GORM table definitions for projects and parcels.
package model

import (
	"time"

	"github.com/lanube360/mirador-lotes/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Project{},
	&Parcel{},
}

// Project is the row behind the proyectos/<slug> document
type Project struct {
	Slug         string     `json:"slug" gorm:"primaryKey;size:64"`
	DisplayName  string     `json:"displayName" gorm:"size:127"`
	Description  string     `json:"description" gorm:"size:255"`
	TotalParcels int        `json:"totalParcels"`
	Structure    string     `json:"structure" gorm:"size:32"`
	Version      string     `json:"version" gorm:"size:16"`
	RunID        string     `json:"runId" gorm:"size:36"`
	Longitude    float64    `json:"longitude"`
	Latitude     float64    `json:"latitude"`
	Location     geom.Point `json:"location"` // EPSG:3857, WKB encoded
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (*Project) TableName() string {
	return "proyectos"
}

// Parcel is one row of the proyectos/<slug>/lotes collection
type Parcel struct {
	ProjectSlug string                                             `json:"projectSlug" gorm:"primaryKey;size:64"`
	ID          string                                             `json:"id" gorm:"primaryKey;size:32"`
	Number      int                                                `json:"number" gorm:"index"`
	DisplayName string                                             `json:"displayName" gorm:"size:127"`
	RefTag      string                                             `json:"refTag" gorm:"size:32"`
	Status      string                                             `json:"status" gorm:"size:32;index"`
	TotalArea   float64                                            `json:"totalArea"`
	UsableArea  float64                                            `json:"usableArea"`
	Scenes      datatypes.JSONType[map[string]core.ScenePlacement] `json:"scenes"`
	Price       float64                                            `json:"price"`
	Notes       string                                             `json:"notes"`
	ModifiedAt  *time.Time                                         `json:"modifiedAt"`
	CreatedAt   time.Time                                          `json:"createdAt"`
	UpdatedAt   time.Time                                          `json:"updatedAt"`
}

func (*Parcel) TableName() string {
	return "lotes"
}

// MigrationColumns are the parcel columns a migration owns. Admin-edited columns
// (price, notes, modified_at) are not listed and survive a re-migration.
var MigrationColumns = []string{
	"number",
	"display_name",
	"ref_tag",
	"status",
	"total_area",
	"usable_area",
	"scenes",
	"updated_at",
}

// ProjectMigrationColumns are the project columns refreshed on every migration.
var ProjectMigrationColumns = []string{
	"display_name",
	"description",
	"total_parcels",
	"structure",
	"version",
	"run_id",
	"longitude",
	"latitude",
	"location",
	"updated_at",
}
