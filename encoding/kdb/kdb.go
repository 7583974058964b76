// Package kdb implements the versioned binary format of the reference
// database blob: a fixed-width ASCII header carrying the format version,
// followed by little-endian schema fields and entry payloads.
package kdb

import (
	"github.com/kanjimatch/kanjimatch/model"
)

// Version of the blob format, taken from the header.
type Version int

const (
	V1 Version = 1
)

const (
	// HeaderV1 is the 43-byte ASCII header every v1 blob starts with.
	HeaderV1 = "kanjimatch reference database, version=1   "

	HeaderLen = 43
)

// Entry is one reference character as stored on disk: normalized strokes
// plus the precomputed feature vector.
type Entry struct {
	ID       string
	Strokes  []model.Stroke
	Features model.FeatureVector
}

// Database is the serialized form of the reference set. The schema
// fields pin the layout the entries were built against; the loader
// refuses blobs whose schema disagrees with the compiled one.
type Database struct {
	Version Version

	SchemaVersion   uint32
	FeatureLen      uint32
	PointsPerStroke uint32
	MaxStrokes      uint32
	AngleBins       uint32

	Entries []Entry
}
