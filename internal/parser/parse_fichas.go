package parser

import (
	"regexp"
	"strconv"

	"github.com/lanube360/mirador-lotes/internal/util"
	"github.com/lanube360/mirador-lotes/pkg/core"
)

const (
	dataElement = "data"
	fichaPrefix = "ficha"
)

var (
	fichaNameRe   = regexp.MustCompile(`^` + fichaPrefix + `(\d+)$`)
	closeDataRe   = regexp.MustCompile(`(?i)</` + dataElement + `\s*>`)
	loteHeadingRe = regexp.MustCompile(`(?i)<h2[^>]*>\s*Lote\s+(\d+)\s*</h2>`)
	totalAreaRe   = regexp.MustCompile(`Superficie:\s*([\d,.]+)\s*m2`)
	usableAreaRe  = regexp.MustCompile(`Superficie (?:Útil|&Uacute;til):\s*([\d,.]+)\s*m2`)
)

// ParseFichas parses the data-card document and returns one ParcelFact per
// <data name="fichaN"> block that carries a "Lote N" heading. A block is the text
// between its start tag and the next </data>; a block left open before the next
// <data> tag or the end of the document is discarded.
func (p *Parser) ParseFichas(text string) []core.ParcelFact {
	tags, discarded := findTags(text, dataElement)
	var facts []core.ParcelFact

	for i, tag := range tags {
		se, err := decodeStartTag(tag.raw(text))
		if err != nil {
			p.logger.Debug("Discarding malformed data tag", "offset", tag.start, "error", err)
			discarded++
			continue
		}

		name, _ := attr(se, "name")
		m := fichaNameRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}

		content, ok := blockContent(text, tags, i)
		if !ok {
			p.logger.Debug("Discarding unclosed data block", "name", name)
			discarded++
			continue
		}

		fact, ok := parseFicha(name, m[1], content)
		if !ok {
			discarded++
			continue
		}
		facts = append(facts, fact)
	}

	p.logger.Debug("Parsed fichas", "count", len(facts), "discarded", discarded)
	return facts
}

// blockContent returns the raw text between tags[i] and its closing </data>, which
// must appear before the next data tag.
func blockContent(text string, tags []tagSpan, i int) (string, bool) {
	tag := tags[i]
	if tag.selfClosing(text) {
		return "", true
	}
	limit := len(text)
	if i+1 < len(tags) {
		limit = tags[i+1].start
	}
	body := text[tag.end:limit]
	loc := closeDataRe.FindStringIndex(body)
	if loc == nil {
		return "", false
	}
	return body[:loc[0]], true
}

// parseFicha builds a fact from the raw content of one data block.
// ok is false when the block has no "Lote N" heading or its key is not the
// canonical "ficha<N>" spelling of its number.
func parseFicha(name, suffix, content string) (core.ParcelFact, bool) {
	id, err := strconv.Atoi(suffix)
	if err != nil || name != fichaPrefix+strconv.Itoa(id) {
		return core.ParcelFact{}, false
	}
	heading := loteHeadingRe.FindStringSubmatch(content)
	if heading == nil {
		return core.ParcelFact{}, false
	}
	headingNumber, err := strconv.Atoi(heading[1])
	if err != nil || headingNumber == 0 {
		return core.ParcelFact{}, false
	}

	return core.ParcelFact{
		Key:           name,
		ParcelID:      id,
		HeadingNumber: headingNumber,
		TotalArea:     labelledArea(totalAreaRe, content),
		UsableArea:    labelledArea(usableAreaRe, content),
	}, true
}

// labelledArea returns the figure following a label, or 0 when the label is missing.
func labelledArea(re *regexp.Regexp, content string) float64 {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return 0
	}
	v, _ := util.ParseLooseFloat(m[1])
	return v
}
