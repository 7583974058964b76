package kdb

import (
	"bytes"
	"encoding/binary"
)

// MarshalBinary implements encoding.MarshalBinary for transforming a
// reference database into its blob form.
func (db *Database) MarshalBinary() (data []byte, err error) {
	w := new(writer)

	w.writeHeader()
	w.writeNumber(db.SchemaVersion)
	w.writeNumber(db.FeatureLen)
	w.writeNumber(db.PointsPerStroke)
	w.writeNumber(db.MaxStrokes)
	w.writeNumber(db.AngleBins)

	w.writeNumber(uint32(len(db.Entries)))
	for _, entry := range db.Entries {
		w.writeEntry(entry)
	}

	data = w.Bytes()
	return
}

type writer struct {
	b bytes.Buffer
}

func (w *writer) Bytes() []byte {
	return w.b.Bytes()
}

func (w *writer) writeHeader() {
	w.b.Write([]byte(HeaderV1))
}

func (w *writer) writeNumber(n uint32) {
	binary.Write(&w.b, binary.LittleEndian, n)
}

func (w *writer) writeFloat64(f float64) {
	binary.Write(&w.b, binary.LittleEndian, f)
}

func (w *writer) writeString(s string) {
	w.writeNumber(uint32(len(s)))
	w.b.WriteString(s)
}

func (w *writer) writeEntry(entry Entry) {
	w.writeString(entry.ID)

	w.writeNumber(uint32(len(entry.Strokes)))
	for _, stroke := range entry.Strokes {
		w.writeNumber(uint32(len(stroke)))
		for _, p := range stroke {
			w.writeFloat64(p.X)
			w.writeFloat64(p.Y)
		}
	}

	w.writeNumber(uint32(len(entry.Features)))
	for _, f := range entry.Features {
		w.writeFloat64(f)
	}
}
