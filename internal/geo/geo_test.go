package geo

import (
	"testing"

	"github.com/lanube360/mirador-lotes/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition2DFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    core.Position2D
		wantErr bool
	}{
		{name: "valid", input: "-72.335,-39.644", want: core.Position2D{Longitude: -72.335, Latitude: -39.644}},
		{name: "spaces", input: " 10.5 , 20 ", want: core.Position2D{Longitude: 10.5, Latitude: 20}},
		{name: "single value", input: "10.5", wantErr: true},
		{name: "three values", input: "1,2,3", wantErr: true},
		{name: "not a number", input: "abc,2", wantErr: true},
		{name: "latitude out of range", input: "0,95", wantErr: true},
		{name: "longitude out of range", input: "181,0", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Position2DFromString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoords3857From4326_Origin(t *testing.T) {
	point, err := Coords3857From4326(0, 0)
	require.NoError(t, err)

	coords, ok := point.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 0, coords.X, 1e-6)
	assert.InDelta(t, 0, coords.Y, 1e-6)
}

func TestCoords3857From4326_KnownPoint(t *testing.T) {
	// 180°E on the equator is half the web-mercator world width.
	point, err := Coords3857From4326(180, 0)
	require.NoError(t, err)

	coords, ok := point.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 20037508.34, coords.X, 1)
	assert.InDelta(t, 0, coords.Y, 1e-6)
}

func TestCoords3857From4326_Invalid(t *testing.T) {
	point, err := Coords3857From4326(0, 100)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	assert.True(t, point.IsEmpty())
}

func TestPosition2DFrom3857_RoundTrip(t *testing.T) {
	want := core.Position2D{Longitude: -72.3350, Latitude: -39.6440}

	point, err := Coords3857From4326(want.Longitude, want.Latitude)
	require.NoError(t, err)

	got, err := Position2DFrom3857(point)
	require.NoError(t, err)
	assert.InDelta(t, want.Longitude, got.Longitude, 1e-6)
	assert.InDelta(t, want.Latitude, got.Latitude, 1e-6)
}

func TestPosition2DFrom3857_Empty(t *testing.T) {
	_, err := Position2DFrom3857(geom.NewEmptyPoint(geom.DimXY))
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}
