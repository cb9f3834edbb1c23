// Package parser extracts markers, data cards and scene assignments from the tour's
// XML documents. Every Parse* method is a pure function of its input text. Tags are
// located first and each one is decoded on its own, so a malformed tag or block is
// dropped without affecting its neighbours. Parsing never fails.
package parser

import (
	"encoding/xml"
	"io"
	"log/slog"
	"strings"
)

// Parser provides pure text -> core struct conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// newDecoder returns a lenient decoder for krpano markup. krpano scripts routinely
// contain bare '&' and HTML entities.
func newDecoder(text string) *xml.Decoder {
	d := xml.NewDecoder(strings.NewReader(text))
	d.Strict = false
	d.AutoClose = xml.HTMLAutoClose
	d.Entity = xml.HTMLEntity
	// the text has already been read as UTF-8; ignore the declared charset
	d.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return d
}

// tagSpan locates one start tag: text[start:end] runs from '<' to the closing '>'.
type tagSpan struct {
	start, end int
}

func (s tagSpan) raw(text string) string {
	return text[s.start:s.end]
}

func (s tagSpan) selfClosing(text string) bool {
	return strings.HasSuffix(s.raw(text), "/>")
}

// findTags returns every start tag with the given local name, in document order.
// Comments and CDATA sections are not searched. A tag whose closing '>' is missing
// is counted in unterminated and the scan resumes right after its name.
func findTags(text, name string) (tags []tagSpan, unterminated int) {
	i := 0
	for {
		j := strings.IndexByte(text[i:], '<')
		if j < 0 {
			return tags, unterminated
		}
		i += j
		rest := text[i:]

		switch {
		case strings.HasPrefix(rest, "<!--"):
			k := strings.Index(rest[4:], "-->")
			if k < 0 {
				return tags, unterminated
			}
			i += 4 + k + 3
			continue
		case strings.HasPrefix(rest, "<![CDATA["):
			k := strings.Index(rest, "]]>")
			if k < 0 {
				return tags, unterminated
			}
			i += k + 3
			continue
		}

		if !hasTagName(rest[1:], name) {
			i++
			continue
		}
		end := tagEnd(rest)
		if end < 0 {
			unterminated++
			i += 1 + len(name)
			continue
		}
		tags = append(tags, tagSpan{start: i, end: i + end})
		i += end
	}
}

// hasTagName reports whether s starts with name (case-insensitively) followed by
// whitespace, '/' or '>'.
func hasTagName(s, name string) bool {
	if len(s) <= len(name) || !strings.EqualFold(s[:len(name)], name) {
		return false
	}
	switch s[len(name)] {
	case ' ', '\t', '\r', '\n', '/', '>':
		return true
	}
	return false
}

// tagEnd returns the offset just past the first '>' outside a quoted value, or -1.
func tagEnd(s string) int {
	var quote byte
	for k := 1; k < len(s); k++ {
		c := s[k]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return k + 1
		}
	}
	return -1
}

// decodeStartTag decodes the attributes of a single raw start tag. The tag is closed
// on the spot and '<' inside quoted values is escaped, since krpano scripts carry
// comparisons in attributes.
func decodeStartTag(raw string) (xml.StartElement, error) {
	body := strings.TrimSuffix(strings.TrimSuffix(raw, ">"), "/")

	var b strings.Builder
	b.Grow(len(body) + 8)
	var quote byte
	for k := 0; k < len(body); k++ {
		c := body[k]
		switch {
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0 && c == '<':
			b.WriteString("&lt;")
			continue
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
		}
		b.WriteByte(c)
	}
	if quote != 0 {
		b.WriteByte(quote)
	}
	b.WriteString("/>")

	d := newDecoder(b.String())
	for {
		tok, err := d.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Copy(), nil
		}
	}
}

// attr returns the value of the named attribute and whether it was present.
func attr(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
