// Package preprocess implements the preprocessing collaborator: it parses raw
// crystal dataset files, builds periodic bond graphs, and fans the work over a
// fixed worker pool. The niggli and primitive flags are carried through
// verbatim; cell reduction itself happens upstream of the raw files.
package preprocess

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/materials-graph/crystprep/cryst"
)

// DefaultCutoff is the bond search radius in angstroms used when none is set.
const DefaultCutoff = 5.0

// Builder implements cryst.Preprocessor with an in-process worker pool.
type Builder struct {
	cutoff       float64
	maxNeighbors int
}

// New returns a Builder with the given cutoff radius and per-atom neighbor
// cap. Zero values select DefaultCutoff and an uncapped neighbor list.
func New(cutoff float64, maxNeighbors int) *Builder {
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	return &Builder{cutoff: cutoff, maxNeighbors: maxNeighbors}
}

// Preprocess reads every crystal file, builds one record per crystal across
// the worker pool, and extracts the named properties. Record order follows
// the input order regardless of worker scheduling; the first worker error
// aborts the run.
func (b *Builder) Preprocess(paths []string, workers int, opts cryst.PreprocessOptions, propNames []string) ([]cryst.Record, error) {
	var entries []crystalEntry
	for _, path := range paths {
		parsed, err := readCrystalFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, parsed...)
	}
	if len(entries) == 0 {
		return nil, errors.Errorf("no crystals found in %v", paths)
	}

	if workers <= 0 {
		workers = 1
	}
	start := time.Now()
	log.WithFields(log.Fields{"crystals": len(entries), "workers": workers, "graph_method": opts.GraphMethod}).
		Printf("Preprocessing crystals")

	records, err := b.buildRecords(entries, workers, opts, propNames)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"crystals": len(records), "duration": time.Since(start)}).
		Printf("Preprocessing done")
	return records, nil
}

// PreprocessArrays builds records from already-parsed crystal arrays. No
// property extraction and no filesystem access happen on this path.
func (b *Builder) PreprocessArrays(crystals []cryst.CrystalArrays, opts cryst.PreprocessOptions) ([]cryst.Record, error) {
	records := make([]cryst.Record, len(crystals))
	for i, c := range crystals {
		rec, err := b.buildRecord(c, opts, nil, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "crystal %d (%s)", i, c.ID)
		}
		records[i] = rec
	}
	return records, nil
}

type job struct {
	idx   int
	entry crystalEntry
}

func (b *Builder) buildRecords(entries []crystalEntry, workers int, opts cryst.PreprocessOptions, propNames []string) ([]cryst.Record, error) {
	jobs := make(chan job, workers)
	go func() {
		for i, e := range entries {
			jobs <- job{idx: i, entry: e}
		}
		close(jobs)
	}()

	records := make([]cryst.Record, len(entries))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				arrays := cryst.CrystalArrays{
					ID:         j.entry.ID,
					Lengths:    j.entry.Lengths,
					Angles:     j.entry.Angles,
					FracCoords: j.entry.FracCoords,
					AtomTypes:  j.entry.AtomTypes,
				}
				rec, err := b.buildRecord(arrays, opts, propNames, j.entry.Properties)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = errors.Wrapf(err, "crystal %d (%s)", j.idx, j.entry.ID)
					}
					mu.Unlock()
					continue
				}
				records[j.idx] = rec
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return records, nil
}

func (b *Builder) buildRecord(c cryst.CrystalArrays, opts cryst.PreprocessOptions, propNames []string, props map[string]float64) (cryst.Record, error) {
	edges, jimages, err := buildGraph(c, opts.GraphMethod, b.cutoff, b.maxNeighbors)
	if err != nil {
		return cryst.Record{}, err
	}

	rec := cryst.Record{
		ID: c.ID,
		Graph: cryst.GraphArrays{
			FracCoords:  c.FracCoords,
			AtomTypes:   c.AtomTypes,
			Lengths:     c.Lengths,
			Angles:      c.Angles,
			EdgeIndices: edges,
			ToJimages:   jimages,
			NumAtoms:    len(c.FracCoords),
		},
	}
	if err := rec.Graph.Validate(); err != nil {
		return cryst.Record{}, err
	}

	if len(propNames) > 0 {
		rec.Props = make(map[string][]float64, len(propNames))
		for _, name := range propNames {
			v, ok := props[name]
			if !ok {
				return cryst.Record{}, errors.Wrapf(cryst.ErrPropMissing, "crystal %q has no property %q", c.ID, name)
			}
			rec.Props[name] = []float64{v}
		}
	}
	return rec, nil
}
