// pkg/core/parcel.go
package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParcelIDPrefix prefixes the parcel number in document keys ("lote7").
const ParcelIDPrefix = "lote"

// ScenePlacement is the position of a parcel's hotspot inside one panorama scene
type ScenePlacement struct {
	HorizontalAngle float64 `json:"horizontalAngle" yaml:"horizontalAngle"`
	VerticalAngle   float64 `json:"verticalAngle" yaml:"verticalAngle"`
	Title           string  `json:"title" yaml:"title"`
}

// ParcelSummary is the persisted parcel record.
// Price, Notes and ModifiedAt are owned by the admin dashboard; migrations never set them.
type ParcelSummary struct {
	ID          string                    `json:"id" yaml:"id"`
	DisplayName string                    `json:"displayName" yaml:"displayName"`
	Number      int                       `json:"number" yaml:"number"`
	RefTag      string                    `json:"refTag" yaml:"refTag"`
	Status      string                    `json:"status" yaml:"status"`
	TotalArea   float64                   `json:"totalArea" yaml:"totalArea"`
	UsableArea  float64                   `json:"usableArea" yaml:"usableArea"`
	Scenes      map[string]ScenePlacement `json:"scenes" yaml:"scenes"`
	Price       float64                   `json:"price,omitempty" yaml:"price,omitempty"`
	Notes       string                    `json:"notes,omitempty" yaml:"notes,omitempty"`
	ModifiedAt  *time.Time                `json:"modifiedAt,omitempty" yaml:"modifiedAt,omitempty"`
}

// ParcelID builds the document key for parcel number n.
func ParcelID(n int) string {
	return ParcelIDPrefix + strconv.Itoa(n)
}

// ParcelDisplayName builds the default display name for parcel number n.
func ParcelDisplayName(n int) string {
	return fmt.Sprintf("Lote %d", n)
}

// ParcelNumberFromID parses "lote7" back into 7. Returns 0 when id is not a parcel key.
func ParcelNumberFromID(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, ParcelIDPrefix))
	if err != nil {
		return 0
	}
	return n
}

// Title returns the display name, falling back to the default "Lote N".
func (p ParcelSummary) Title() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.Number > 0 {
		return ParcelDisplayName(p.Number)
	}
	return p.ID
}

// ParcelUpdate carries the admin-editable fields. Nil fields are left untouched.
type ParcelUpdate struct {
	DisplayName *string  `json:"displayName,omitempty"`
	Status      *string  `json:"status,omitempty"`
	TotalArea   *float64 `json:"totalArea,omitempty"`
	UsableArea  *float64 `json:"usableArea,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

// Apply copies the set fields onto p and stamps ModifiedAt.
func (u ParcelUpdate) Apply(p *ParcelSummary, now time.Time) {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.TotalArea != nil {
		p.TotalArea = *u.TotalArea
	}
	if u.UsableArea != nil {
		p.UsableArea = *u.UsableArea
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
	}
	p.ModifiedAt = &now
}
