// Package kanjivg reads KanjiVG-style SVG files: a tree of <g> component
// groups carrying kvg-namespace attributes, with <path> elements for the
// individual strokes in drawing order.
package kanjivg

import (
	"encoding/xml"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const kvgNamespace = "http://kanjivg.tagaini.net"

// StrokeData is one <path> element: its position in the drawing order,
// the raw path data and the optional kvg:type classification.
type StrokeData struct {
	ID       int
	PathData string
	Type     string
}

// Component is one <g> group: its kvg attributes, the strokes directly
// under it, and nested subcomponents.
type Component struct {
	Attributes map[string]string
	Strokes    []StrokeData
	Children   []*Component
}

// Element returns the glyph this component tree represents. KanjiVG puts
// kvg:element on the character group directly under the stroke-paths
// root.
func (c *Component) Element() string {
	if len(c.Children) > 0 {
		if el, ok := c.Children[0].Attributes["kvg:element"]; ok {
			return el
		}
	}
	return c.Attributes["kvg:element"]
}

// Flatten collects every stroke in the tree into one flat list ordered
// by drawing position.
func Flatten(c *Component) []StrokeData {
	var all []StrokeData
	var walk func(*Component)
	walk = func(node *Component) {
		all = append(all, node.Strokes...)
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(c)
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// ParseFile reads one SVG file and returns its component tree.
func ParseFile(path string) (*Component, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	root, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return root, nil
}

// Parse reads an SVG document and returns the component tree rooted at
// the main stroke group (the first <g> carrying an id attribute).
func Parse(r io.Reader) (*Component, error) {
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, errors.New("no stroke group found")
		}
		if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "g" || !hasID(start) {
			continue
		}

		counter := 0
		return parseGroup(dec, start, &counter)
	}
}

func hasID(el xml.StartElement) bool {
	for _, a := range el.Attr {
		if a.Name.Local == "id" {
			return true
		}
	}
	return false
}

// parseGroup consumes tokens up to the group's end element, assigning
// stroke ids in document order across the whole tree.
func parseGroup(dec *xml.Decoder, start xml.StartElement, counter *int) (*Component, error) {
	comp := &Component{Attributes: kvgAttributes(start)}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "unterminated group")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "g":
				child, err := parseGroup(dec, t, counter)
				if err != nil {
					return nil, err
				}
				comp.Children = append(comp.Children, child)
			case "path":
				*counter++
				comp.Strokes = append(comp.Strokes, StrokeData{
					ID:       *counter,
					PathData: attr(t, "d"),
					Type:     kvgAttr(t, "type"),
				})
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return comp, nil
		}
	}
}

// kvgAttributes keeps only the kvg-namespace attributes, keyed with the
// kvg: prefix the corpus documents use.
func kvgAttributes(el xml.StartElement) map[string]string {
	attrs := make(map[string]string)
	for _, a := range el.Attr {
		if strings.Contains(a.Name.Space, kvgNamespace) {
			attrs["kvg:"+a.Name.Local] = a.Value
		}
	}
	return attrs
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

func kvgAttr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name && strings.Contains(a.Name.Space, kvgNamespace) {
			return a.Value
		}
	}
	return ""
}
