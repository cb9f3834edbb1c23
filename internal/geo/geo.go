package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/lanube360/mirador-lotes/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// GEO POINTS
// Project locations are configured as WGS84 (EPSG:4326) longitude/latitude and stored
// as EPSG:3857 WKB so that SQLite and Postgres hold the same bytes.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Position2DFromString parses a "long,lat" string into a core.Position2D.
func Position2DFromString(coords string) (core.Position2D, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	pos := core.Position2D{Longitude: long, Latitude: lat}
	if !ValidPosition(pos) {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	return pos, nil
}

// ValidPosition reports whether pos is a finite WGS84 coordinate.
func ValidPosition(pos core.Position2D) bool {
	if math.IsNaN(pos.Longitude) || math.IsNaN(pos.Latitude) {
		return false
	}
	return pos.Longitude >= -180 && pos.Longitude <= 180 &&
		pos.Latitude >= -90 && pos.Latitude <= 90
}

// Coords3857From4326 creates a web-mercator point from a longitude and latitude
func Coords3857From4326(
	longitude float64,
	latitude float64,
) (
	point geom.Point,
	err error,
) {
	if !ValidPosition(core.Position2D{Longitude: longitude, Latitude: latitude}) {
		return geom.NewEmptyPoint(geom.DimXY), ErrInvalidCoordinates
	}
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	point = geom.NewPoint(
		geom.Coordinates{
			XY: geom.XY{X: x, Y: y},
		},
	)
	return point, nil
}

// Position2DFrom3857 converts a web-mercator point back to WGS84.
func Position2DFrom3857(point geom.Point) (core.Position2D, error) {
	coords, ok := point.Coordinates()
	if !ok {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	f := wgs84.EPSG().Transform(3857, 4326)
	long, lat, _ := f(coords.X, coords.Y, 0)
	return core.Position2D{Longitude: long, Latitude: lat}, nil
}
