package kdb

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/kanjimatch/kanjimatch/kanjierr"
	"github.com/kanjimatch/kanjimatch/model"
)

// maxIdentifierLen bounds identifier strings so a corrupt length field
// cannot trigger a huge allocation.
const maxIdentifierLen = 64

// UnmarshalBinary implements encoding.UnmarshalBinary for parsing a
// reference database blob. Any header, version or layout disagreement is
// reported as kanjierr.ErrCorruptDatabase.
func (db *Database) UnmarshalBinary(data []byte) error {
	r := newReader(data)
	if err := r.checkHeader(); err != nil {
		return err
	}
	db.Version = r.version

	var err error
	if db.SchemaVersion, err = r.readNumber(); err != nil {
		return errors.Wrap(err, "schema version")
	}
	if db.FeatureLen, err = r.readNumber(); err != nil {
		return errors.Wrap(err, "feature length")
	}
	if db.PointsPerStroke, err = r.readNumber(); err != nil {
		return errors.Wrap(err, "points per stroke")
	}
	if db.MaxStrokes, err = r.readNumber(); err != nil {
		return errors.Wrap(err, "max strokes")
	}
	if db.AngleBins, err = r.readNumber(); err != nil {
		return errors.Wrap(err, "angle bins")
	}

	nbEntries, err := r.readNumber()
	if err != nil {
		return errors.Wrap(err, "entry count")
	}

	seen := make(map[string]struct{}, nbEntries)
	db.Entries = make([]Entry, nbEntries)
	for i := uint32(0); i < nbEntries; i++ {
		entry, err := r.readEntry(db)
		if err != nil {
			return errors.Wrapf(err, "entry %d", i)
		}
		if _, dup := seen[entry.ID]; dup {
			return errors.Wrapf(kanjierr.ErrCorruptDatabase, "duplicate identifier %q", entry.ID)
		}
		seen[entry.ID] = struct{}{}
		db.Entries[i] = entry
	}

	return nil
}

type reader struct {
	bytes.Reader
	version Version
}

func newReader(data []byte) reader {
	br := bytes.NewReader(data)
	return reader{*br, V1}
}

func (r *reader) checkHeader() error {
	buf := make([]byte, HeaderLen)

	n, err := r.Read(buf)
	if err != nil || n != HeaderLen {
		return errors.Wrap(kanjierr.ErrCorruptDatabase, "short header")
	}

	switch string(buf) {
	case HeaderV1:
		r.version = V1
	default:
		return errors.Wrap(kanjierr.ErrCorruptDatabase, "unknown header")
	}

	return nil
}

func (r *reader) readNumber() (uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, errors.Wrap(kanjierr.ErrCorruptDatabase, "truncated number")
	}
	return n, nil
}

func (r *reader) readFloat64() (float64, error) {
	var f float64
	if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
		return 0, errors.Wrap(kanjierr.ErrCorruptDatabase, "truncated float")
	}
	return f, nil
}

func (r *reader) readString() (string, error) {
	n, err := r.readNumber()
	if err != nil {
		return "", err
	}
	if n == 0 || n > maxIdentifierLen {
		return "", errors.Wrapf(kanjierr.ErrCorruptDatabase, "identifier length %d", n)
	}
	buf := make([]byte, n)
	read, err := r.Read(buf)
	if err != nil || uint32(read) != n {
		return "", errors.Wrap(kanjierr.ErrCorruptDatabase, "truncated identifier")
	}
	return string(buf), nil
}

func (r *reader) readEntry(db *Database) (Entry, error) {
	var entry Entry

	id, err := r.readString()
	if err != nil {
		return entry, err
	}
	entry.ID = id

	nbStrokes, err := r.readNumber()
	if err != nil {
		return entry, err
	}
	if nbStrokes == 0 || nbStrokes > db.MaxStrokes {
		return entry, errors.Wrapf(kanjierr.ErrCorruptDatabase, "stroke count %d", nbStrokes)
	}

	entry.Strokes = make([]model.Stroke, nbStrokes)
	for i := uint32(0); i < nbStrokes; i++ {
		stroke, err := r.readStroke(db.PointsPerStroke)
		if err != nil {
			return entry, err
		}
		entry.Strokes[i] = stroke
	}

	featLen, err := r.readNumber()
	if err != nil {
		return entry, err
	}
	if featLen != db.FeatureLen {
		return entry, errors.Wrapf(kanjierr.ErrCorruptDatabase,
			"feature length %d, header says %d", featLen, db.FeatureLen)
	}
	entry.Features = make(model.FeatureVector, featLen)
	for i := uint32(0); i < featLen; i++ {
		if entry.Features[i], err = r.readFloat64(); err != nil {
			return entry, err
		}
	}

	return entry, nil
}

func (r *reader) readStroke(pointsPerStroke uint32) (model.Stroke, error) {
	nbPoints, err := r.readNumber()
	if err != nil {
		return nil, err
	}
	if nbPoints != pointsPerStroke {
		return nil, errors.Wrapf(kanjierr.ErrCorruptDatabase,
			"stroke has %d points, header says %d", nbPoints, pointsPerStroke)
	}

	stroke := make(model.Stroke, nbPoints)
	for i := uint32(0); i < nbPoints; i++ {
		if stroke[i].X, err = r.readFloat64(); err != nil {
			return nil, err
		}
		if stroke[i].Y, err = r.readFloat64(); err != nil {
			return nil, err
		}
	}
	return stroke, nil
}
