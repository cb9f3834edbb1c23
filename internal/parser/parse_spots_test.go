package parser

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateKey(t *testing.T) {
	tests := []struct {
		name       string
		attr       string
		wantAxis   string
		wantSuffix string
		wantOK     bool
	}{
		{name: "base horizontal", attr: "ath", wantAxis: "ath", wantOK: true},
		{name: "base vertical", attr: "atv", wantAxis: "atv", wantOK: true},
		{name: "variant 2", attr: "ath2", wantAxis: "ath", wantSuffix: "2", wantOK: true},
		{name: "multi-digit variant", attr: "atv12", wantAxis: "atv", wantSuffix: "12", wantOK: true},
		{name: "letter suffix", attr: "athx", wantOK: false},
		{name: "prefixed", attr: "xath", wantOK: false},
		{name: "other attribute", attr: "name", wantOK: false},
		{name: "uppercase", attr: "ATH", wantOK: false},
		{name: "empty", attr: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			axis, suffix, ok := CoordinateKey(tt.attr)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantAxis, axis)
			assert.Equal(t, tt.wantSuffix, suffix)
		})
	}
}

func TestParseCoordinates(t *testing.T) {
	attrs := []xml.Attr{
		{Name: xml.Name{Local: "name"}, Value: "s1"},
		{Name: xml.Name{Local: "ath"}, Value: "10.5"},
		{Name: xml.Name{Local: "atv"}, Value: "-3.2"},
		{Name: xml.Name{Local: "ath2"}, Value: " 120.25 "},
		{Name: xml.Name{Local: "atv2"}, Value: ""},
		{Name: xml.Name{Local: "ath3"}, Value: "   "},
		{Name: xml.Name{Local: "atv3"}, Value: "12,5"},
		{Name: xml.Name{Local: "scale"}, Value: "0.5"},
	}

	coords := ParseCoordinates(attrs)

	assert.Len(t, coords, 3)
	assert.InDelta(t, 10.5, coords["ath"], 1e-9)
	assert.InDelta(t, -3.2, coords["atv"], 1e-9)
	assert.InDelta(t, 120.25, coords["ath2"], 1e-9)
	assert.NotContains(t, coords, "atv2")
	assert.NotContains(t, coords, "ath3")
	assert.NotContains(t, coords, "atv3", "comma is not a decimal separator for angles")
	assert.NotContains(t, coords, "scale")
}

func TestParseCoordinates_UnitsSkipped(t *testing.T) {
	attrs := []xml.Attr{
		{Name: xml.Name{Local: "ath"}, Value: "10.5deg"},
		{Name: xml.Name{Local: "atv"}, Value: "4"},
	}

	coords := ParseCoordinates(attrs)

	assert.Equal(t, map[string]float64{"atv": 4}, coords, "a value with units is skipped, not truncated")
}

func TestParseSpots(t *testing.T) {
	p := newTestParser()

	doc := `<krpano>
	<spot name="s1" estado="disponible" html="7" ath="10.5" atv="-3.2"/>
	<spot name="s2" estado="vendido" html="8" ath="20" atv="1" ath2="-45.5" atv2="2.75" />
	<spot name="missing_ref" estado="disponible" ath="1" atv="1"/>
	<spot estado="disponible" html="9"/>
	<spot name="s3" estado="reservado" html="abc" ath="5" atv="5"/>
	<hotspot name="h1" estado="disponible" html="10" ath="1" atv="1"/>
	<spot name="s4" estado="" html="11"></spot>
</krpano>`

	spots := p.ParseSpots(doc)
	require.Len(t, spots, 4)

	assert.Equal(t, "s1", spots[0].Name)
	assert.Equal(t, "disponible", spots[0].Status)
	assert.Equal(t, "7", spots[0].ParcelRef)
	assert.Equal(t, map[string]float64{"ath": 10.5, "atv": -3.2}, spots[0].Coordinates)

	assert.Equal(t, "s2", spots[1].Name)
	assert.Len(t, spots[1].Coordinates, 4)
	assert.InDelta(t, -45.5, spots[1].Coordinates["ath2"], 1e-9)
	assert.InDelta(t, 2.75, spots[1].Coordinates["atv2"], 1e-9)

	// non-numeric refs are carried, not dropped
	assert.Equal(t, "s3", spots[2].Name)
	_, ok := spots[2].ParcelNumber()
	assert.False(t, ok)

	assert.Equal(t, "s4", spots[3].Name)
	assert.Equal(t, "", spots[3].Status)
	assert.Empty(t, spots[3].Coordinates)
}

func TestParseSpots_LenientMarkup(t *testing.T) {
	p := newTestParser()

	// krpano files often carry bare ampersands and HTML entities in attribute values
	doc := `<?xml version="1.0" encoding="ISO-8859-1"?>
<krpano>
	<spot name="a&b" estado="disponible" html="1" ath="1.5" atv="2.5" onclick="if(a && b, go());"/>
	<spot name="c&aacute;" estado="reservado" html="2"/>
</krpano>`

	spots := p.ParseSpots(doc)
	require.Len(t, spots, 2)
	assert.Equal(t, "a&b", spots[0].Name)
	assert.Equal(t, "cá", spots[1].Name)
}

func TestParseSpots_Empty(t *testing.T) {
	p := newTestParser()

	spots := p.ParseSpots("")
	assert.Empty(t, spots)
}

func TestParseSpots_DocumentOrder(t *testing.T) {
	p := newTestParser()

	doc := `<spot name="c" estado="x" html="3"/><spot name="a" estado="x" html="1"/><spot name="b" estado="x" html="2"/>`
	spots := p.ParseSpots(doc)
	require.Len(t, spots, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{spots[0].Name, spots[1].Name, spots[2].Name})
}

func TestParseSpots_Restartable(t *testing.T) {
	p := newTestParser()

	doc := `<spot name="s1" estado="disponible" html="7" ath="10.5" atv="-3.2"/>`
	first := p.ParseSpots(doc)
	second := p.ParseSpots(doc)
	assert.Equal(t, first, second)
}

func TestParseSpots_MalformedTagsDropped(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name  string
		doc   string
		names []string
	}{
		{
			name:  "unclosed trailing tag",
			doc:   `<spot name="a" estado="x" html="1"/><spot name="b" estado="x" html="2"`,
			names: []string{"a"},
		},
		{
			name:  "less-than inside quoted attribute",
			doc:   `<spot name="a" estado="x" html="1"/><spot name="b" estado="x" html="2" onclick="if(a<b,c)"/><spot name="c" estado="x" html="3"/>`,
			names: []string{"a", "b", "c"},
		},
		{
			name:  "undecodable attribute list",
			doc:   `<spot name="a" estado="x" html="1"/><spot name="b" estado="x" html="2" ="oops"/><spot name="c" estado="x" html="3"/>`,
			names: []string{"a", "c"},
		},
		{
			name:  "open elements at end of document",
			doc:   `<krpano><layer><spot name="a" estado="x" html="1"><spot name="b" estado="x" html="2">`,
			names: []string{"a", "b"},
		},
		{
			name:  "spot inside comment",
			doc:   `<!-- <spot name="old" estado="x" html="0"/> --><spot name="a" estado="x" html="1"/>`,
			names: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spots := p.ParseSpots(tt.doc)
			names := make([]string, 0, len(spots))
			for _, s := range spots {
				names = append(names, s.Name)
			}
			assert.Equal(t, tt.names, names)
		})
	}
}
