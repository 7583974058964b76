// Package feature derives the fixed-layout descriptor the matcher
// compares instead of raw point clouds.
//
// Schema v1 layout, 422 values:
//
//	[0]    stroke count
//	[1]    bounding-box aspect, encoded as atan2(h, w) * 2/pi
//	[2..]  35 per-stroke slots of 12 values each:
//	       8 direction-histogram bins, then startX, startY, endX, endY
//
// Slots beyond the character's stroke count stay zero. All coordinates
// are unit-frame values produced by the normalize package, so every
// component is scale and translation invariant.
package feature

import (
	"math"

	"github.com/kanjimatch/kanjimatch/model"
)

const (
	// SchemaVersion tags the layout above. The database blob records it
	// and the loader rejects blobs built against any other layout.
	SchemaVersion = 1

	// MaxStrokes bounds the per-stroke slots. Characters with more
	// strokes cannot be represented and are rejected upstream.
	MaxStrokes = 35

	// AngleBins is the direction-histogram resolution.
	AngleBins = 8

	slotSize = AngleBins + 4

	// Length is the total vector size under schema v1.
	Length = 2 + MaxStrokes*slotSize
)

// SlotOffset returns the vector index where stroke i's slot begins.
func SlotOffset(i int) int {
	return 2 + i*slotSize
}

// Extract computes the feature vector of a normalized character. It is
// pure and deterministic; callers guarantee len(strokes) <= MaxStrokes
// and every stroke non-empty.
func Extract(strokes []model.Stroke) model.FeatureVector {
	fv := make(model.FeatureVector, Length)
	fv[0] = float64(len(strokes))
	fv[1] = aspect(strokes)

	for i, s := range strokes {
		if i == MaxStrokes {
			break
		}
		off := SlotOffset(i)
		histogram(s, fv[off:off+AngleBins])
		start, end := s[0], s[len(s)-1]
		fv[off+AngleBins+0] = start.X
		fv[off+AngleBins+1] = start.Y
		fv[off+AngleBins+2] = end.X
		fv[off+AngleBins+3] = end.Y
	}
	return fv
}

// histogram fills bins with the stroke's segment directions, each
// segment weighted by its length, the whole normalized to sum 1. A
// zero-length stroke (a dot) leaves the bins at zero.
func histogram(s model.Stroke, bins []float64) {
	total := 0.0
	for i := 1; i < len(s); i++ {
		dx := s[i].X - s[i-1].X
		dy := s[i].Y - s[i-1].Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		bins[bin(math.Atan2(dy, dx))] += length
		total += length
	}
	if total == 0 {
		return
	}
	for i := range bins {
		bins[i] /= total
	}
}

// bin maps an angle in (-pi, pi] to one of AngleBins sectors.
func bin(theta float64) int {
	b := int((theta + math.Pi) / (2 * math.Pi) * AngleBins)
	if b < 0 {
		b = 0
	}
	if b >= AngleBins {
		b = AngleBins - 1
	}
	return b
}

// aspect encodes the overall bounding-box shape in [0,1]: 0 for a pure
// horizontal stroke, 1 for a pure vertical one, 0.5 for a square box or
// a single dot.
func aspect(strokes []model.Stroke) float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range strokes {
		for _, p := range s {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	w, h := maxX-minX, maxY-minY
	if w == 0 && h == 0 {
		return 0.5
	}
	return math.Atan2(h, w) * 2 / math.Pi
}
