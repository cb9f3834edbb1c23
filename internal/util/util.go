// Package util provides small text helpers shared by the document parsers.
package util

import (
	"regexp"
	"strconv"
	"strings"
)

var leadingFloatRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)

// ParseLooseFloat parses the longest numeric prefix of s, accepting a comma as the
// fractional separator ("12,5" -> 12.5). Only the first comma is converted, so
// "1.234,5" reads as 1.234 and trailing text such as units is ignored.
func ParseLooseFloat(s string) (float64, bool) {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	m := leadingFloatRe.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsBlank reports whether s contains only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
