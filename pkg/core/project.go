// pkg/core/project.go
package core

import "time"

// Position2D is a WGS84 longitude/latitude pair
type Position2D struct {
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
}

// Project is the top-level document every parcel belongs to
type Project struct {
	Slug         string     `json:"slug" yaml:"slug"`
	DisplayName  string     `json:"displayName" yaml:"displayName"`
	Description  string     `json:"description" yaml:"description"`
	CreatedAt    time.Time  `json:"createdAt" yaml:"createdAt"`
	TotalParcels int        `json:"totalParcels" yaml:"totalParcels"`
	Structure    string     `json:"structure" yaml:"structure"`
	Version      string     `json:"version" yaml:"version"`
	RunID        string     `json:"runId" yaml:"runId"`
	Location     Position2D `json:"location" yaml:"location"`
}

// CollectionPath returns the project-scoped path of a sub-collection.
func CollectionPath(projectSlug, collection string) string {
	return "proyectos/" + projectSlug + "/" + collection
}
