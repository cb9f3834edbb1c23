package parser

import (
	"regexp"
	"strconv"

	"github.com/lanube360/mirador-lotes/pkg/core"
)

// SpotGeneratorCall is the krpano action that places a range of parcel hotspots.
const SpotGeneratorCall = "generar_spots"

const sceneElement = "scene"

var spotGeneratorRe = regexp.MustCompile(SpotGeneratorCall + `\(\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)`)

// ParseGeneratorCalls finds every generar_spots(start,end[,variant]) call in a script.
func ParseGeneratorCalls(script string) []core.SceneAssignment {
	var calls []core.SceneAssignment
	for _, m := range spotGeneratorRe.FindAllStringSubmatch(script, -1) {
		start, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		end, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		call := core.SceneAssignment{StartParcel: start, EndParcel: end}
		if m[3] != "" {
			variant, err := strconv.Atoi(m[3])
			if err != nil {
				continue
			}
			call.Variant = &variant
		}
		calls = append(calls, call)
	}
	return calls
}

// ParseScenes parses the tour document and returns one SceneAssignment per generator
// call found in the onstart script of a <scene> carrying name, title and onstart.
// An unclosed scene is still read: only its start tag matters.
func (p *Parser) ParseScenes(text string) []core.SceneAssignment {
	tags, skipped := findTags(text, sceneElement)
	var assignments []core.SceneAssignment
	scenes := 0

	for _, tag := range tags {
		se, err := decodeStartTag(tag.raw(text))
		if err != nil {
			p.logger.Debug("Skipping malformed scene tag", "offset", tag.start, "error", err)
			skipped++
			continue
		}

		name, okName := attr(se, "name")
		title, okTitle := attr(se, "title")
		onstart, okScript := attr(se, "onstart")
		if !okName || !okTitle || !okScript {
			skipped++
			continue
		}
		scenes++

		for _, call := range ParseGeneratorCalls(onstart) {
			call.SceneName = name
			call.Title = title
			assignments = append(assignments, call)
		}
	}

	p.logger.Debug("Parsed scenes", "scenes", scenes, "assignments", len(assignments), "skipped", skipped)
	return assignments
}
