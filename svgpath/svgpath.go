// Package svgpath parses SVG path data and samples points along it. It
// covers the command set KanjiVG files use (move, line, cubic and
// quadratic beziers with their shorthand forms, close); elliptical arcs
// are rejected.
package svgpath

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/kanjimatch/kanjimatch/model"
)

type segKind int

const (
	lineSeg segKind = iota
	quadSeg
	cubicSeg
)

type seg struct {
	kind           segKind
	p0, p1, p2, p3 model.Point
}

// Path is a parsed sequence of drawable segments.
type Path struct {
	segs []seg
}

// Empty reports whether the path draws nothing.
func (p *Path) Empty() bool {
	return len(p.segs) == 0
}

// Sample returns n points along the path, the parameter spread uniformly
// across segments. Arc-length spacing is not attempted here: the
// normalizer resamples by arc length anyway, this only needs to be dense
// enough to capture the curve.
func (p *Path) Sample(n int) []model.Point {
	if len(p.segs) == 0 || n <= 0 {
		return nil
	}
	out := make([]model.Point, n)
	if n == 1 {
		out[0] = p.segs[0].p0
		return out
	}
	for i := 0; i < n; i++ {
		pos := float64(i) / float64(n-1) * float64(len(p.segs))
		idx := int(pos)
		if idx >= len(p.segs) {
			idx = len(p.segs) - 1
		}
		out[i] = p.segs[idx].eval(pos - float64(idx))
	}
	return out
}

func (s seg) eval(t float64) model.Point {
	switch s.kind {
	case lineSeg:
		return lerp(s.p0, s.p3, t)
	case quadSeg:
		a := lerp(s.p0, s.p1, t)
		b := lerp(s.p1, s.p3, t)
		return lerp(a, b, t)
	default:
		a := lerp(s.p0, s.p1, t)
		b := lerp(s.p1, s.p2, t)
		c := lerp(s.p2, s.p3, t)
		ab := lerp(a, b, t)
		bc := lerp(b, c, t)
		return lerp(ab, bc, t)
	}
}

func lerp(a, b model.Point, t float64) model.Point {
	return model.Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// Parse turns an SVG path data string into a Path.
func Parse(d string) (*Path, error) {
	s := scanner{data: d}
	path := &Path{}

	var cur, start, prevCtrl model.Point
	var prevCmd byte

	for {
		cmd, ok := s.nextCommand()
		if !ok {
			break
		}

		rel := cmd >= 'a' && cmd <= 'z'
		upper := cmd
		if rel {
			upper = cmd - 'a' + 'A'
		}

		switch upper {
		case 'M':
			p, err := s.point()
			if err != nil {
				return nil, err
			}
			if rel {
				p = add(cur, p)
			}
			cur, start = p, p
			// subsequent coordinate pairs are implicit lines
			for s.hasNumber() {
				q, err := s.point()
				if err != nil {
					return nil, err
				}
				if rel {
					q = add(cur, q)
				}
				path.segs = append(path.segs, seg{kind: lineSeg, p0: cur, p3: q})
				cur = q
			}

		case 'L':
			for ok := true; ok; ok = s.hasNumber() {
				q, err := s.point()
				if err != nil {
					return nil, err
				}
				if rel {
					q = add(cur, q)
				}
				path.segs = append(path.segs, seg{kind: lineSeg, p0: cur, p3: q})
				cur = q
			}

		case 'H':
			for ok := true; ok; ok = s.hasNumber() {
				x, err := s.number()
				if err != nil {
					return nil, err
				}
				q := model.Point{X: x, Y: cur.Y}
				if rel {
					q.X = cur.X + x
				}
				path.segs = append(path.segs, seg{kind: lineSeg, p0: cur, p3: q})
				cur = q
			}

		case 'V':
			for ok := true; ok; ok = s.hasNumber() {
				y, err := s.number()
				if err != nil {
					return nil, err
				}
				q := model.Point{X: cur.X, Y: y}
				if rel {
					q.Y = cur.Y + y
				}
				path.segs = append(path.segs, seg{kind: lineSeg, p0: cur, p3: q})
				cur = q
			}

		case 'C':
			for ok := true; ok; ok = s.hasNumber() {
				c1, err := s.point()
				if err != nil {
					return nil, err
				}
				c2, err := s.point()
				if err != nil {
					return nil, err
				}
				q, err := s.point()
				if err != nil {
					return nil, err
				}
				if rel {
					c1, c2, q = add(cur, c1), add(cur, c2), add(cur, q)
				}
				path.segs = append(path.segs, seg{kind: cubicSeg, p0: cur, p1: c1, p2: c2, p3: q})
				prevCtrl = c2
				cur = q
			}

		case 'S':
			for ok := true; ok; ok = s.hasNumber() {
				c2, err := s.point()
				if err != nil {
					return nil, err
				}
				q, err := s.point()
				if err != nil {
					return nil, err
				}
				if rel {
					c2, q = add(cur, c2), add(cur, q)
				}
				c1 := cur
				if prevCmd == 'C' || prevCmd == 'S' {
					c1 = reflect(prevCtrl, cur)
				}
				path.segs = append(path.segs, seg{kind: cubicSeg, p0: cur, p1: c1, p2: c2, p3: q})
				prevCtrl = c2
				cur = q
			}

		case 'Q':
			for ok := true; ok; ok = s.hasNumber() {
				c1, err := s.point()
				if err != nil {
					return nil, err
				}
				q, err := s.point()
				if err != nil {
					return nil, err
				}
				if rel {
					c1, q = add(cur, c1), add(cur, q)
				}
				path.segs = append(path.segs, seg{kind: quadSeg, p0: cur, p1: c1, p3: q})
				prevCtrl = c1
				cur = q
			}

		case 'T':
			for ok := true; ok; ok = s.hasNumber() {
				q, err := s.point()
				if err != nil {
					return nil, err
				}
				if rel {
					q = add(cur, q)
				}
				c1 := cur
				if prevCmd == 'Q' || prevCmd == 'T' {
					c1 = reflect(prevCtrl, cur)
				}
				path.segs = append(path.segs, seg{kind: quadSeg, p0: cur, p1: c1, p3: q})
				prevCtrl = c1
				cur = q
			}

		case 'Z':
			if cur != start {
				path.segs = append(path.segs, seg{kind: lineSeg, p0: cur, p3: start})
			}
			cur = start

		default:
			return nil, errors.Errorf("unsupported path command %q", string(cmd))
		}

		prevCmd = upper
	}

	return path, nil
}

func add(a, b model.Point) model.Point {
	return model.Point{X: a.X + b.X, Y: a.Y + b.Y}
}

// reflect mirrors a control point through the current point, per the SVG
// smooth-curve shorthand.
func reflect(ctrl, about model.Point) model.Point {
	return model.Point{X: 2*about.X - ctrl.X, Y: 2*about.Y - ctrl.Y}
}

type scanner struct {
	data string
	pos  int
}

func (s *scanner) skipSeparators() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' {
			s.pos++
			continue
		}
		break
	}
}

func (s *scanner) nextCommand() (byte, bool) {
	s.skipSeparators()
	if s.pos >= len(s.data) {
		return 0, false
	}
	c := s.data[s.pos]
	if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
		s.pos++
		return c, true
	}
	return 0, false
}

// hasNumber reports whether the next token continues the current command
// with more coordinates.
func (s *scanner) hasNumber() bool {
	s.skipSeparators()
	if s.pos >= len(s.data) {
		return false
	}
	c := s.data[s.pos]
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

func (s *scanner) number() (float64, error) {
	s.skipSeparators()
	begin := s.pos
	if s.pos < len(s.data) && (s.data[s.pos] == '-' || s.data[s.pos] == '+') {
		s.pos++
	}
	dot := false
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c >= '0' && c <= '9' {
			s.pos++
			continue
		}
		if c == '.' && !dot {
			dot = true
			s.pos++
			continue
		}
		if (c == 'e' || c == 'E') && s.pos > begin {
			s.pos++
			if s.pos < len(s.data) && (s.data[s.pos] == '-' || s.data[s.pos] == '+') {
				s.pos++
			}
			continue
		}
		break
	}
	if s.pos == begin {
		return 0, errors.Errorf("expected number at offset %d in %q", begin, truncate(s.data, 40))
	}
	v, err := strconv.ParseFloat(s.data[begin:s.pos], 64)
	if err != nil {
		return 0, errors.Wrapf(err, "bad number at offset %d", begin)
	}
	return v, nil
}

func (s *scanner) point() (model.Point, error) {
	x, err := s.number()
	if err != nil {
		return model.Point{}, err
	}
	y, err := s.number()
	if err != nil {
		return model.Point{}, err
	}
	return model.Point{X: x, Y: y}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
