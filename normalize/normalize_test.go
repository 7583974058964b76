package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kanjimatch/kanjimatch/kanjierr"
	"github.com/kanjimatch/kanjimatch/model"
)

func drawing() [][]model.Point {
	return [][]model.Point{
		{{X: 10, Y: 10}, {X: 90, Y: 12}, {X: 95, Y: 14}},
		{{X: 50, Y: 5}, {X: 52, Y: 88}},
	}
}

func transform(raw [][]model.Point, scale, dx, dy float64) [][]model.Point {
	out := make([][]model.Point, len(raw))
	for i, s := range raw {
		out[i] = make([]model.Point, len(s))
		for j, p := range s {
			out[i][j] = model.Point{X: p.X*scale + dx, Y: p.Y*scale + dy}
		}
	}
	return out
}

func TestCharacterShape(t *testing.T) {
	strokes, err := Character(drawing())
	require.NoError(t, err)
	require.Len(t, strokes, 2)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range strokes {
		require.Len(t, []model.Point(s), PointsPerStroke)
		for _, p := range s {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}

	require.InDelta(t, 0, minX, 1e-9)
	require.InDelta(t, 0, minY, 1e-9)
	require.LessOrEqual(t, maxX, 1+1e-9)
	require.LessOrEqual(t, maxY, 1+1e-9)
	// the larger bounding-box dimension fills the unit frame
	require.InDelta(t, 1, math.Max(maxX, maxY), 1e-9)
}

func TestCharacterInvariance(t *testing.T) {
	base, err := Character(drawing())
	require.NoError(t, err)

	for _, tc := range []struct {
		name          string
		scale, dx, dy float64
	}{
		{"translated", 1, 50, 50},
		{"scaled", 2.5, 0, 0},
		{"both", 0.3, -120, 44},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Character(transform(drawing(), tc.scale, tc.dx, tc.dy))
			require.NoError(t, err)
			for i := range base {
				for j := range base[i] {
					require.InDelta(t, base[i][j].X, got[i][j].X, 1e-9)
					require.InDelta(t, base[i][j].Y, got[i][j].Y, 1e-9)
				}
			}
		})
	}
}

func TestCharacterDeterminism(t *testing.T) {
	a, err := Character(drawing())
	require.NoError(t, err)
	b, err := Character(drawing())
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestCharacterDot(t *testing.T) {
	strokes, err := Character([][]model.Point{{{X: 42, Y: 17}}})
	require.NoError(t, err)
	require.Len(t, strokes, 1)
	require.Len(t, []model.Point(strokes[0]), PointsPerStroke)
	for _, p := range strokes[0] {
		require.Equal(t, model.Point{X: 0, Y: 0}, p)
	}
}

func TestCharacterErrors(t *testing.T) {
	_, err := Character(nil)
	require.ErrorIs(t, err, kanjierr.ErrMalformedInput)

	_, err = Character([][]model.Point{{{X: 1, Y: 1}, {X: 2, Y: 2}}, {}})
	require.ErrorIs(t, err, kanjierr.ErrMalformedInput)
}

func TestCharacterDuplicatePoints(t *testing.T) {
	// resting pen repeats samples; they must not distort spacing
	raw := [][]model.Point{{
		{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0},
		{X: 100, Y: 0}, {X: 100, Y: 0},
	}}
	clean := [][]model.Point{{{X: 0, Y: 0}, {X: 100, Y: 0}}}

	a, err := Character(raw)
	require.NoError(t, err)
	b, err := Character(clean)
	require.NoError(t, err)
	require.Equal(t, b, a)
}

func TestResampleSpacing(t *testing.T) {
	stroke := Resample([]model.Point{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 10, Y: 0}}, 11)
	require.Len(t, []model.Point(stroke), 11)
	for i, p := range stroke {
		require.InDelta(t, float64(i), p.X, 1e-9)
		require.InDelta(t, 0, p.Y, 1e-9)
	}
}

func TestResampleKeepsEndpoints(t *testing.T) {
	points := []model.Point{{X: 2, Y: 9}, {X: 4, Y: 1}, {X: 30, Y: 30}}
	stroke := Resample(points, PointsPerStroke)
	require.Equal(t, points[0], stroke[0])
	require.InDelta(t, 30, stroke[len(stroke)-1].X, 1e-9)
	require.InDelta(t, 30, stroke[len(stroke)-1].Y, 1e-9)
}
