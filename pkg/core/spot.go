// pkg/core/spot.go
package core

import (
	"strconv"
	"strings"
)

// Coordinate axis attribute names. A variant suffix ("2", "3", ...) may follow either one.
const (
	AxisHorizontal = "ath"
	AxisVertical   = "atv"
)

// MarkerRecord is one <spot> tag of the marker-definition document
type MarkerRecord struct {
	Name        string
	Status      string
	ParcelRef   string
	Coordinates map[string]float64
}

// ParcelNumber returns the parcel number the marker refers to.
// ok is false when ParcelRef is not a positive integer; such markers are never joined.
func (m MarkerRecord) ParcelNumber() (n int, ok bool) {
	n, err := strconv.Atoi(strings.TrimSpace(m.ParcelRef))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Angles returns the horizontal/vertical pair stored under the given variant suffix.
// Both keys must be present.
func (m MarkerRecord) Angles(suffix string) (h, v float64, ok bool) {
	h, okH := m.Coordinates[AxisHorizontal+suffix]
	v, okV := m.Coordinates[AxisVertical+suffix]
	if !okH || !okV {
		return 0, 0, false
	}
	return h, v, true
}

// ParcelFact holds the physical facts of one data card (ficha)
type ParcelFact struct {
	Key           string // ficha name, e.g. "ficha7"
	ParcelID      int    // numeric suffix of Key
	HeadingNumber int    // number in the "Lote N" heading
	TotalArea     float64
	UsableArea    float64
}

// SceneAssignment is one generar_spots call inside a scene's onstart script
type SceneAssignment struct {
	SceneName   string
	Title       string
	StartParcel int
	EndParcel   int
	Variant     *int
}

// Suffix returns the coordinate key suffix selected by the assignment's variant.
func (a SceneAssignment) Suffix() string {
	if a.Variant == nil {
		return ""
	}
	return strconv.Itoa(*a.Variant)
}

// Covers reports whether parcel number n lies in the inclusive range of the assignment.
func (a SceneAssignment) Covers(n int) bool {
	return n >= a.StartParcel && n <= a.EndParcel
}
