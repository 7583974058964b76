// Package normalize converts raw hand-drawn strokes into the canonical
// form the matcher compares: every stroke resampled to a fixed number of
// arc-length-even points, the whole drawing translated to the origin and
// uniformly scaled into the unit frame, aspect ratio preserved.
package normalize

import (
	"math"

	"github.com/pkg/errors"

	"github.com/kanjimatch/kanjimatch/kanjierr"
	"github.com/kanjimatch/kanjimatch/model"
)

// PointsPerStroke is the fixed sample count every normalized stroke
// carries. It is recorded in the database blob header; blobs written with
// a different value are rejected by the loader.
const PointsPerStroke = 32

// Character maps raw strokes to their canonical form. The result is a
// pure function of the input: drawings that differ only by translation or
// uniform scale normalize to the same strokes (within float tolerance).
// An empty stroke list, or any stroke with no points, is malformed input.
func Character(raw [][]model.Point) ([]model.Stroke, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(kanjierr.ErrMalformedInput, "no strokes")
	}

	strokes := make([]model.Stroke, len(raw))
	for i, points := range raw {
		deduped := dropDuplicates(points)
		if len(deduped) == 0 {
			return nil, errors.Wrapf(kanjierr.ErrMalformedInput, "stroke %d has no points", i)
		}
		strokes[i] = Resample(deduped, PointsPerStroke)
	}

	minX, minY, maxX, maxY := boundingBox(strokes)

	scale := math.Max(maxX-minX, maxY-minY)
	if scale == 0 {
		// single dot drawing, translation only
		scale = 1
	}

	for _, s := range strokes {
		for j := range s {
			s[j].X = (s[j].X - minX) / scale
			s[j].Y = (s[j].Y - minY) / scale
		}
	}

	return strokes, nil
}

// Resample redistributes a stroke to n points spaced evenly by arc
// length. A stroke with zero spatial extent (a dot) becomes n copies of
// its point; dots are semantically valid strokes and must survive.
func Resample(points []model.Point, n int) model.Stroke {
	cum := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		cum[i] = cum[i-1] + dist(points[i-1], points[i])
	}
	total := cum[len(points)-1]

	out := make(model.Stroke, n)
	if total == 0 {
		for i := range out {
			out[i] = points[0]
		}
		return out
	}

	seg := 0
	for i := 0; i < n; i++ {
		target := total * float64(i) / float64(n-1)
		for seg < len(points)-2 && cum[seg+1] < target {
			seg++
		}
		span := cum[seg+1] - cum[seg]
		t := 0.0
		if span > 0 {
			t = (target - cum[seg]) / span
		}
		out[i] = model.Point{
			X: points[seg].X + (points[seg+1].X-points[seg].X)*t,
			Y: points[seg].Y + (points[seg+1].Y-points[seg].Y)*t,
		}
	}
	return out
}

// dropDuplicates removes consecutive identical points. Digitizers repeat
// samples while the pen rests, which would distort arc-length spacing.
func dropDuplicates(points []model.Point) []model.Point {
	if len(points) < 2 {
		return points
	}
	out := make([]model.Point, 1, len(points))
	out[0] = points[0]
	for _, p := range points[1:] {
		last := out[len(out)-1]
		if p.X == last.X && p.Y == last.Y {
			continue
		}
		out = append(out, p)
	}
	return out
}

func boundingBox(strokes []model.Stroke) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, s := range strokes {
		for _, p := range s {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	return
}

func dist(a, b model.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
