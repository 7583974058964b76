package kanjivg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const twoSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" xmlns:kvg="http://kanjivg.tagaini.net" width="109" height="109">
<g id="kvg:StrokePaths_04e8c" style="fill:none;stroke:#000000;stroke-width:3">
<g id="kvg:04e8c" kvg:element="二">
	<path id="kvg:04e8c-s1" kvg:type="㇐" d="M25,35 L75,35"/>
	<path id="kvg:04e8c-s2" kvg:type="㇐" d="M15,65 L85,65"/>
</g>
</g>
</svg>
`

const nestedSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" xmlns:kvg="http://kanjivg.tagaini.net">
<g id="kvg:StrokePaths_test">
<g id="kvg:test" kvg:element="仁">
	<g id="kvg:test-g1" kvg:element="亻" kvg:position="left">
		<path id="kvg:test-s1" d="M10,10 L5,40"/>
		<path id="kvg:test-s2" d="M8,20 L8,80"/>
	</g>
	<g id="kvg:test-g2" kvg:element="二" kvg:position="right">
		<path id="kvg:test-s3" d="M30,30 L80,30"/>
		<path id="kvg:test-s4" d="M25,65 L85,65"/>
	</g>
</g>
</g>
</svg>
`

func TestParseElement(t *testing.T) {
	root, err := Parse(strings.NewReader(twoSVG))
	require.NoError(t, err)
	require.Equal(t, "二", root.Element())
}

func TestParseStrokes(t *testing.T) {
	root, err := Parse(strings.NewReader(twoSVG))
	require.NoError(t, err)

	strokes := Flatten(root)
	require.Len(t, strokes, 2)
	require.Equal(t, 1, strokes[0].ID)
	require.Equal(t, "M25,35 L75,35", strokes[0].PathData)
	require.Equal(t, "㇐", strokes[0].Type)
	require.Equal(t, 2, strokes[1].ID)
	require.Equal(t, "M15,65 L85,65", strokes[1].PathData)
}

func TestParseNestedComponents(t *testing.T) {
	root, err := Parse(strings.NewReader(nestedSVG))
	require.NoError(t, err)
	require.Equal(t, "仁", root.Element())

	strokes := Flatten(root)
	require.Len(t, strokes, 4)
	for i, s := range strokes {
		require.Equal(t, i+1, s.ID)
	}
	require.Equal(t, "M25,65 L85,65", strokes[3].PathData)

	char := root.Children[0]
	require.Len(t, char.Children, 2)
	require.Equal(t, "亻", char.Children[0].Attributes["kvg:element"])
	require.Equal(t, "left", char.Children[0].Attributes["kvg:position"])
}

func TestParseNoStrokeGroup(t *testing.T) {
	_, err := Parse(strings.NewReader(`<svg xmlns="http://www.w3.org/2000/svg"><rect/></svg>`))
	require.Error(t, err)
}

func TestParseTruncatedDocument(t *testing.T) {
	doc := twoSVG[:len(twoSVG)/2]
	_, err := Parse(strings.NewReader(doc))
	require.Error(t, err)
}
