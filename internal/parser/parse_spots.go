package parser

import (
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"

	"github.com/lanube360/mirador-lotes/internal/util"
	"github.com/lanube360/mirador-lotes/pkg/core"
)

// spot tag attribute names
const (
	spotElement    = "spot"
	spotNameAttr   = "name"
	spotStatusAttr = "estado"
	spotParcelAttr = "html"
)

var coordinateKeyRe = regexp.MustCompile(`^(` + core.AxisHorizontal + `|` + core.AxisVertical + `)(\d*)$`)

// CoordinateKey reports whether an attribute name is a coordinate axis ("ath", "atv")
// optionally followed by a numeric variant suffix ("ath2"). It returns the axis and the
// suffix, which is empty for the base pair.
func CoordinateKey(attrName string) (axis, suffix string, ok bool) {
	m := coordinateKeyRe.FindStringSubmatch(attrName)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ParseCoordinates collects every coordinate attribute with a non-blank numeric value,
// keyed by its exact attribute name. Values must be plain decimal numbers: a value
// with trailing units such as "10.5deg" is skipped rather than truncated.
func ParseCoordinates(attrs []xml.Attr) map[string]float64 {
	coords := make(map[string]float64)
	for _, a := range attrs {
		if _, _, ok := CoordinateKey(a.Name.Local); !ok {
			continue
		}
		if util.IsBlank(a.Value) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
		if err != nil {
			continue
		}
		coords[a.Name.Local] = v
	}
	return coords
}

// ParseSpots parses the marker-definition document and returns one MarkerRecord per
// <spot> tag carrying name, estado and html, in document order. Tags that cannot be
// decoded or lack a required attribute are skipped.
func (p *Parser) ParseSpots(text string) []core.MarkerRecord {
	tags, skipped := findTags(text, spotElement)
	var spots []core.MarkerRecord

	for _, tag := range tags {
		se, err := decodeStartTag(tag.raw(text))
		if err != nil {
			p.logger.Debug("Skipping malformed spot tag", "offset", tag.start, "error", err)
			skipped++
			continue
		}

		name, okName := attr(se, spotNameAttr)
		status, okStatus := attr(se, spotStatusAttr)
		ref, okRef := attr(se, spotParcelAttr)
		if !okName || !okStatus || !okRef {
			skipped++
			continue
		}

		spots = append(spots, core.MarkerRecord{
			Name:        name,
			Status:      status,
			ParcelRef:   ref,
			Coordinates: ParseCoordinates(se.Attr),
		})
	}

	p.logger.Debug("Parsed spots", "count", len(spots), "skipped", skipped)
	return spots
}
