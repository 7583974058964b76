// Package builder is the offline ETL step: it walks a corpus of
// KanjiVG-style SVG drawings, normalizes every character and writes the
// reference database blob the matcher consumes at runtime.
package builder

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/kanjimatch/kanjimatch/encoding/kdb"
	"github.com/kanjimatch/kanjimatch/feature"
	"github.com/kanjimatch/kanjimatch/kanjivg"
	"github.com/kanjimatch/kanjimatch/log"
	"github.com/kanjimatch/kanjimatch/model"
	"github.com/kanjimatch/kanjimatch/normalize"
	"github.com/kanjimatch/kanjimatch/svgpath"
)

// samplesPerPath is how densely each SVG path is sampled before the
// normalizer resamples by arc length. 64 uniform parameter steps bound
// the parameter-vs-arc-length error well below the matcher's tolerance.
const samplesPerPath = 64

// Config drives one build run.
type Config struct {
	// CorpusGlob selects the SVG files, doublestar syntax
	// (e.g. "kanjivg/kanji/**/*.svg").
	CorpusGlob string
	// Output is the blob path. The file is written atomically.
	Output string
	// Concurrency bounds the parallel file workers; 0 means 4.
	Concurrency int64
}

// Build processes the corpus and writes the blob. It returns the number
// of entries written. Files that cannot be used (no kvg:element, no
// strokes, too many strokes, unparseable paths) are skipped, not fatal.
func Build(ctx context.Context, cfg Config) (int, error) {
	files, err := doublestar.FilepathGlob(cfg.CorpusGlob)
	if err != nil {
		return 0, errors.Wrapf(err, "bad corpus glob %q", cfg.CorpusGlob)
	}
	if len(files) == 0 {
		return 0, errors.Errorf("no files match %q", cfg.CorpusGlob)
	}
	sort.Strings(files)

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	entries := make([]*kdb.Entry, len(files))
	sem := semaphore.NewWeighted(concurrency)
	for i, file := range files {
		if err := sem.Acquire(ctx, 1); err != nil {
			return 0, errors.Wrap(err, "build canceled")
		}
		go func(i int, file string) {
			defer sem.Release(1)
			entry, err := processFile(file)
			if err != nil {
				log.Trace.Printf("skipping %s: %v", file, err)
				return
			}
			entries[i] = entry
		}(i, file)
	}
	if err := sem.Acquire(ctx, concurrency); err != nil {
		return 0, errors.Wrap(err, "build canceled")
	}

	blob := kdb.Database{
		SchemaVersion:   feature.SchemaVersion,
		FeatureLen:      feature.Length,
		PointsPerStroke: normalize.PointsPerStroke,
		MaxStrokes:      feature.MaxStrokes,
		AngleBins:       feature.AngleBins,
	}

	seen := make(map[string]string)
	for i, entry := range entries {
		if entry == nil {
			continue
		}
		if first, dup := seen[entry.ID]; dup {
			log.Warning.Printf("duplicate character %q in %s, keeping %s", entry.ID, files[i], first)
			continue
		}
		seen[entry.ID] = files[i]
		blob.Entries = append(blob.Entries, *entry)
	}
	if len(blob.Entries) == 0 {
		return 0, errors.New("corpus produced no usable entries")
	}

	sort.Slice(blob.Entries, func(i, j int) bool { return blob.Entries[i].ID < blob.Entries[j].ID })

	if err := writeBlob(&blob, cfg.Output); err != nil {
		return 0, err
	}

	log.Info.Printf("database written to %s with %d entries", cfg.Output, len(blob.Entries))
	return len(blob.Entries), nil
}

func processFile(path string) (*kdb.Entry, error) {
	root, err := kanjivg.ParseFile(path)
	if err != nil {
		return nil, err
	}

	element := root.Element()
	if element == "" {
		return nil, errors.New("no kvg:element attribute")
	}

	strokeData := kanjivg.Flatten(root)
	if len(strokeData) == 0 {
		return nil, errors.New("no strokes")
	}
	if len(strokeData) > feature.MaxStrokes {
		return nil, errors.Errorf("%d strokes exceeds layout limit %d", len(strokeData), feature.MaxStrokes)
	}

	raw := make([][]model.Point, len(strokeData))
	for i, sd := range strokeData {
		p, err := svgpath.Parse(sd.PathData)
		if err != nil {
			return nil, errors.Wrapf(err, "stroke %d", sd.ID)
		}
		if p.Empty() {
			return nil, errors.Errorf("stroke %d draws nothing", sd.ID)
		}
		raw[i] = p.Sample(samplesPerPath)
	}

	strokes, err := normalize.Character(raw)
	if err != nil {
		return nil, err
	}

	return &kdb.Entry{
		ID:       element,
		Strokes:  strokes,
		Features: feature.Extract(strokes),
	}, nil
}

// writeBlob writes to a temp file in the destination directory and
// renames it into place, so a watching server never sees a half-written
// blob.
func writeBlob(blob *kdb.Database, output string) error {
	data, err := blob.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "marshal database")
	}

	dir := filepath.Dir(output)
	tmp, err := os.CreateTemp(dir, ".kanjimatch-*.kdb")
	if err != nil {
		return errors.Wrap(err, "create temp blob")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write blob")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close blob")
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "chmod blob")
	}
	if err := os.Rename(tmpName, output); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "rename blob into place")
	}
	return nil
}
