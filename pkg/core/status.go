// pkg/core/status.go
package core

// Parcel sale statuses
const (
	StatusAvailable   = "disponible"
	StatusReserved    = "reservado"
	StatusSold        = "vendido"
	StatusUnavailable = "no disponible"
)

// StatusInfo describes how a status is presented
type StatusInfo struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Statuses lists the known statuses; the first entry is the fallback.
var Statuses = []StatusInfo{
	{Value: StatusAvailable, Label: "Disponible", Color: "success"},
	{Value: StatusReserved, Label: "Reservado", Color: "warning"},
	{Value: StatusSold, Label: "Vendido", Color: "error"},
	{Value: StatusUnavailable, Label: "No Disponible", Color: "default"},
}

// StatusInfoFor returns the presentation of s, or the first status when s is unknown.
func StatusInfoFor(s string) StatusInfo {
	for _, info := range Statuses {
		if info.Value == s {
			return info
		}
	}
	return Statuses[0]
}

// IsKnownStatus reports whether s is one of Statuses.
func IsKnownStatus(s string) bool {
	for _, info := range Statuses {
		if info.Value == s {
			return true
		}
	}
	return false
}
