// Package matcher ranks the reference database against a query drawing.
//
// Metric: weighted Euclidean distance over the schema v1 feature layout,
// with the stroke-count term weighted 4x, endpoint coordinates 2x, and
// histogram bins and aspect 1x. Entries whose stroke count differs from
// the query by more than the candidate window are excluded outright;
// inside the window every stroke of difference adds a fixed surcharge.
// Ties are broken by ascending identifier so repeated runs rank
// identically.
package matcher

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/kanjimatch/kanjimatch/feature"
	"github.com/kanjimatch/kanjimatch/kanjierr"
	"github.com/kanjimatch/kanjimatch/log"
	"github.com/kanjimatch/kanjimatch/model"
	"github.com/kanjimatch/kanjimatch/normalize"
	"github.com/kanjimatch/kanjimatch/refdb"
)

const (
	// DefaultTopN is the candidate list size when the caller does not ask
	// for one.
	DefaultTopN = 5

	// strokeCountWindow excludes entries whose stroke count differs from
	// the query by more than this.
	strokeCountWindow = 2

	// strokeCountSurcharge is added to the distance per stroke of count
	// difference inside the window.
	strokeCountSurcharge = 0.75

	weightCount    = 4.0
	weightAspect   = 1.0
	weightHist     = 1.0
	weightEndpoint = 2.0
)

// confidenceEpsilon keeps the best candidate at confidence 1.0 even when
// its distance is exactly zero.
const confidenceEpsilon = 1e-6

// layoutWeights is the per-component weight vector, built once for the
// compiled feature layout.
var layoutWeights = buildWeights()

func buildWeights() []float64 {
	w := make([]float64, feature.Length)
	w[0] = weightCount
	w[1] = weightAspect
	for slot := 0; slot < feature.MaxStrokes; slot++ {
		off := feature.SlotOffset(slot)
		for b := 0; b < feature.AngleBins; b++ {
			w[off+b] = weightHist
		}
		for c := 0; c < 4; c++ {
			w[off+feature.AngleBins+c] = weightEndpoint
		}
	}
	return w
}

// Matcher scores queries against one immutable database handle. It holds
// no mutable state and is safe for concurrent use.
type Matcher struct {
	db *refdb.Database
}

// New validates the database against the compiled feature layout. An
// empty handle cannot match anything; a layout disagreement is fatal and
// never silently coerced.
func New(db *refdb.Database) (*Matcher, error) {
	if db == nil || db.Len() == 0 {
		return nil, errors.Wrap(kanjierr.ErrEmptyDatabase, "matcher requires a loaded database")
	}
	if db.FeatureLen() != feature.Length || db.SchemaVersion() != feature.SchemaVersion {
		return nil, errors.Wrapf(kanjierr.ErrSchemaMismatch,
			"database has schema v%d with %d features, matcher compiled for v%d with %d",
			db.SchemaVersion(), db.FeatureLen(), feature.SchemaVersion, feature.Length)
	}
	return &Matcher{db: db}, nil
}

// Database returns the handle this matcher scores against.
func (m *Matcher) Database() *refdb.Database {
	return m.db
}

// Match normalizes the raw query strokes, extracts its features and
// returns the topN most similar reference characters, best first. A
// query with zero strokes, an empty stroke, or more strokes than the
// layout can hold is malformed input. An empty result (no entry inside
// the candidate window) is not an error.
func (m *Matcher) Match(strokes [][]model.Point, topN int) ([]model.MatchResult, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if len(strokes) > feature.MaxStrokes {
		return nil, errors.Wrapf(kanjierr.ErrMalformedInput,
			"%d strokes, layout holds %d", len(strokes), feature.MaxStrokes)
	}

	normalized, err := normalize.Character(strokes)
	if err != nil {
		return nil, err
	}
	query := feature.Extract(normalized)

	distances := m.bulkDistances(query, len(strokes))

	ranked := make([]int, 0, len(distances))
	for i, d := range distances {
		if !math.IsInf(d, 1) {
			ranked = append(ranked, i)
		}
	}
	sort.Slice(ranked, func(a, b int) bool {
		da, db := distances[ranked[a]], distances[ranked[b]]
		if da != db {
			return da < db
		}
		return m.db.ID(ranked[a]) < m.db.ID(ranked[b])
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	results := make([]model.MatchResult, len(ranked))
	if len(ranked) > 0 {
		best := distances[ranked[0]] + confidenceEpsilon
		for i, idx := range ranked {
			d := distances[idx]
			confidence := 1.0
			if d > best {
				confidence = best / d
			}
			results[i] = model.MatchResult{
				ID:         m.db.ID(idx),
				Distance:   d,
				Confidence: confidence,
			}
		}
	}

	log.Trace.Printf("match: %d strokes, %d candidates, %d results",
		len(strokes), len(distances), len(results))
	return results, nil
}

// bulkDistances computes the distance to every database entry in a
// single pass over the flattened feature tensor. Entries outside the
// stroke-count window come back as +Inf.
func (m *Matcher) bulkDistances(query model.FeatureVector, queryStrokes int) []float64 {
	tensor := m.db.Tensor()
	counts := m.db.StrokeCounts()
	n := m.db.Len()
	featLen := m.db.FeatureLen()

	distances := make([]float64, n)
	for i := 0; i < n; i++ {
		diff := counts[i] - queryStrokes
		if diff < 0 {
			diff = -diff
		}
		if diff > strokeCountWindow {
			distances[i] = math.Inf(1)
			continue
		}

		row := tensor[i*featLen : (i+1)*featLen]
		sum := 0.0
		for j, q := range query {
			d := row[j] - q
			sum += layoutWeights[j] * d * d
		}
		distances[i] = math.Sqrt(sum) + strokeCountSurcharge*float64(diff)
	}
	return distances
}
