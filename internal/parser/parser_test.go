package parser

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(slog.Default())
}

func TestNewParser(t *testing.T) {
	p := newTestParser()
	require.NotNil(t, p)
}

func TestNewParser_NilLogger(t *testing.T) {
	p := NewParser(nil)
	require.NotNil(t, p)
	require.NotNil(t, p.logger)
}

func TestFindTags(t *testing.T) {
	tests := []struct {
		name             string
		text             string
		want             []string
		wantUnterminated int
	}{
		{name: "empty", text: ""},
		{name: "self-closing and open", text: `<spot a="1"/><Spot b="2">x</spot>`, want: []string{`<spot a="1"/>`, `<Spot b="2">`}},
		{name: "longer name not matched", text: `<spots/><hotspot/><spot/>`, want: []string{`<spot/>`}},
		{name: "greater-than inside quotes", text: `<spot onclick="if(a>b)" x='>'/>`, want: []string{`<spot onclick="if(a>b)" x='>'/>`}},
		{name: "comment and cdata skipped", text: `<!--<spot/>--><![CDATA[<spot/>]]><spot n="1"/>`, want: []string{`<spot n="1"/>`}},
		{name: "unterminated", text: `<spot n="1"/><spot n="2"`, want: []string{`<spot n="1"/>`}, wantUnterminated: 1},
		{name: "unterminated comment ends scan", text: `<spot/><!-- <spot/>`, want: []string{`<spot/>`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags, unterminated := findTags(tt.text, "spot")
			var got []string
			for _, tag := range tags {
				got = append(got, tag.raw(tt.text))
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantUnterminated, unterminated)
		})
	}
}

func TestDecodeStartTag(t *testing.T) {
	se, err := decodeStartTag(`<spot name="s1" onclick="if(a<b, go())" html=7>`)
	require.NoError(t, err)
	assert.Equal(t, "spot", se.Name.Local)

	v, ok := attr(se, "onclick")
	require.True(t, ok)
	assert.Equal(t, "if(a<b, go())", v)
	v, _ = attr(se, "html")
	assert.Equal(t, "7", v)

	_, err = decodeStartTag(`<spot name="s1" ="broken"/>`)
	assert.Error(t, err)
}
