// Package refdb holds the in-memory reference database: an immutable,
// load-once collection of characters with precomputed feature vectors,
// shared read-only by every concurrent match.
package refdb

import (
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/kanjimatch/kanjimatch/encoding/kdb"
	"github.com/kanjimatch/kanjimatch/feature"
	"github.com/kanjimatch/kanjimatch/kanjierr"
	"github.com/kanjimatch/kanjimatch/log"
	"github.com/kanjimatch/kanjimatch/model"
	"github.com/kanjimatch/kanjimatch/normalize"
)

// Database is never mutated after construction. The accessors hand out
// internal slices for the bulk scoring pass; callers must treat them as
// read-only.
type Database struct {
	entries       []model.Character // sorted by ID
	index         map[string]int
	strokeCounts  []int
	tensor        []float64 // len(entries) * featureLen, entry-major
	featureLen    int
	schemaVersion int
}

// Stats summarizes a loaded database.
type Stats struct {
	Entries       int `json:"entries"`
	MinStrokes    int `json:"min_strokes"`
	MaxStrokes    int `json:"max_strokes"`
	FeatureLen    int `json:"feature_len"`
	SchemaVersion int `json:"schema_version"`
}

// New builds a database from characters that already carry feature
// vectors. Entries are ordered by identifier; identifiers must be unique
// and every feature vector must have the same length.
func New(chars []model.Character) (*Database, error) {
	if len(chars) == 0 {
		return nil, errors.Wrap(kanjierr.ErrEmptyDatabase, "no characters")
	}

	sorted := make([]model.Character, len(chars))
	copy(sorted, chars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	featureLen := len(sorted[0].Features)
	db := &Database{
		entries:       sorted,
		index:         make(map[string]int, len(sorted)),
		strokeCounts:  make([]int, len(sorted)),
		tensor:        make([]float64, 0, len(sorted)*featureLen),
		featureLen:    featureLen,
		schemaVersion: feature.SchemaVersion,
	}

	for i, c := range sorted {
		if _, dup := db.index[c.ID]; dup {
			return nil, errors.Wrapf(kanjierr.ErrCorruptDatabase, "duplicate identifier %q", c.ID)
		}
		if len(c.Features) != featureLen {
			return nil, errors.Wrapf(kanjierr.ErrSchemaMismatch,
				"entry %q has %d features, first entry has %d", c.ID, len(c.Features), featureLen)
		}
		db.index[c.ID] = i
		db.strokeCounts[i] = len(c.Strokes)
		db.tensor = append(db.tensor, c.Features...)
	}

	return db, nil
}

// Load reads a database blob from disk.
func Load(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open database %s", path)
	}
	defer f.Close()

	return Read(f)
}

// Read parses a database blob and freezes it into a handle. A blob whose
// schema fields disagree with the compiled layout is corrupt: the ranking
// depends on schema consistency, so there is no partial recovery.
func Read(r io.Reader) (*Database, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read database blob")
	}

	var blob kdb.Database
	if err := blob.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	if err := checkSchema(&blob); err != nil {
		return nil, err
	}

	chars := make([]model.Character, len(blob.Entries))
	for i, e := range blob.Entries {
		chars[i] = model.Character{ID: e.ID, Strokes: e.Strokes, Features: e.Features}
	}

	db, err := New(chars)
	if err != nil {
		return nil, err
	}

	log.Trace.Printf("database loaded: %d entries, schema v%d", db.Len(), db.schemaVersion)
	return db, nil
}

// checkSchema rejects blobs built against a different layout than this
// binary was compiled with.
func checkSchema(blob *kdb.Database) error {
	switch {
	case blob.SchemaVersion != feature.SchemaVersion:
		return errors.Wrapf(kanjierr.ErrCorruptDatabase,
			"blob schema v%d, expected v%d", blob.SchemaVersion, feature.SchemaVersion)
	case blob.FeatureLen != feature.Length:
		return errors.Wrapf(kanjierr.ErrCorruptDatabase,
			"blob feature length %d, expected %d", blob.FeatureLen, feature.Length)
	case blob.PointsPerStroke != normalize.PointsPerStroke:
		return errors.Wrapf(kanjierr.ErrCorruptDatabase,
			"blob has %d points per stroke, expected %d", blob.PointsPerStroke, normalize.PointsPerStroke)
	case blob.MaxStrokes != feature.MaxStrokes:
		return errors.Wrapf(kanjierr.ErrCorruptDatabase,
			"blob max strokes %d, expected %d", blob.MaxStrokes, feature.MaxStrokes)
	case blob.AngleBins != feature.AngleBins:
		return errors.Wrapf(kanjierr.ErrCorruptDatabase,
			"blob angle bins %d, expected %d", blob.AngleBins, feature.AngleBins)
	}
	return nil
}

func (db *Database) Len() int {
	return len(db.entries)
}

func (db *Database) FeatureLen() int {
	return db.featureLen
}

func (db *Database) SchemaVersion() int {
	return db.schemaVersion
}

// Character looks up one entry by identifier.
func (db *Database) Character(id string) (model.Character, bool) {
	i, ok := db.index[id]
	if !ok {
		return model.Character{}, false
	}
	return db.entries[i], true
}

// ID returns the identifier of entry i.
func (db *Database) ID(i int) string {
	return db.entries[i].ID
}

// StrokeCounts returns the per-entry stroke counts, entry order.
func (db *Database) StrokeCounts() []int {
	return db.strokeCounts
}

// Tensor returns the entry-major flattened feature matrix used by the
// matcher's bulk pass.
func (db *Database) Tensor() []float64 {
	return db.tensor
}

func (db *Database) Stats() Stats {
	s := Stats{
		Entries:       len(db.entries),
		FeatureLen:    db.featureLen,
		SchemaVersion: db.schemaVersion,
	}
	for i, n := range db.strokeCounts {
		if i == 0 || n < s.MinStrokes {
			s.MinStrokes = n
		}
		if n > s.MaxStrokes {
			s.MaxStrokes = n
		}
	}
	return s
}
