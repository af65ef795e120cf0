// Package cryst prepares periodic crystal structures for graph-based
// generative models. It caches preprocessed crystal graphs, normalizes scalar
// training targets with fitted scalers, and exposes indexable datasets whose
// samples collate into one disjoint-union graph.
package cryst

import "github.com/pkg/errors"

// ScaledLatticeKey is the property key under which the derived scaled-lattice
// vector is attached to every record after loading or preprocessing.
const ScaledLatticeKey = "scaled_lattice"

// Graph construction methods understood by the preprocessing collaborator.
const (
	// GraphMethodCutoff builds periodic bonds from a radius search over
	// neighboring cell images.
	GraphMethodCutoff = "cutoff"
	// GraphMethodNone builds no bonds.
	GraphMethodNone = "none"
)

// ValidGraphMethod reports whether method names a known graph construction.
func ValidGraphMethod(method string) bool {
	switch method {
	case GraphMethodCutoff, GraphMethodNone:
		return true
	}
	return false
}

// GraphArrays is the per-crystal graph bundle produced by preprocessing.
// FracCoords has one row of 3 fractional coordinates per atom, EdgeIndices one
// (src, dst) pair per periodic bond and ToJimages the matching cell-image
// offset per bond. Edge indices are local to the crystal (0..NumAtoms-1).
type GraphArrays struct {
	FracCoords  [][]float64
	AtomTypes   []int
	Lengths     []float64 // a, b, c
	Angles      []float64 // alpha, beta, gamma in degrees
	EdgeIndices [][]int   // M x 2
	ToJimages   [][]int   // M x 3
	NumAtoms    int
}

// NumBonds returns the number of periodic bonds.
func (g GraphArrays) NumBonds() int {
	return len(g.EdgeIndices)
}

// Validate checks the packing invariants: atom count against coordinate and
// type arrays, bond count against image offsets, and per-row arity. A failure
// means the cache is malformed and is fatal for the record.
func (g GraphArrays) Validate() error {
	if len(g.FracCoords) != g.NumAtoms {
		return errors.Wrapf(ErrMalformedRecord, "frac_coords has %d rows, want %d atoms", len(g.FracCoords), g.NumAtoms)
	}
	if len(g.AtomTypes) != g.NumAtoms {
		return errors.Wrapf(ErrMalformedRecord, "atom_types has %d entries, want %d atoms", len(g.AtomTypes), g.NumAtoms)
	}
	if len(g.Lengths) != 3 {
		return errors.Wrapf(ErrMalformedRecord, "lengths has %d entries, want 3", len(g.Lengths))
	}
	if len(g.Angles) != 3 {
		return errors.Wrapf(ErrMalformedRecord, "angles has %d entries, want 3", len(g.Angles))
	}
	if len(g.ToJimages) != len(g.EdgeIndices) {
		return errors.Wrapf(ErrMalformedRecord, "to_jimages has %d rows, want %d bonds", len(g.ToJimages), len(g.EdgeIndices))
	}
	for i, row := range g.FracCoords {
		if len(row) != 3 {
			return errors.Wrapf(ErrMalformedRecord, "frac_coords row %d has %d entries, want 3", i, len(row))
		}
	}
	for i, pair := range g.EdgeIndices {
		if len(pair) != 2 {
			return errors.Wrapf(ErrMalformedRecord, "edge_indices row %d has %d entries, want 2", i, len(pair))
		}
		if pair[0] < 0 || pair[0] >= g.NumAtoms || pair[1] < 0 || pair[1] >= g.NumAtoms {
			return errors.Wrapf(ErrMalformedRecord, "edge_indices row %d references atom outside [0,%d)", i, g.NumAtoms)
		}
	}
	for i, img := range g.ToJimages {
		if len(img) != 3 {
			return errors.Wrapf(ErrMalformedRecord, "to_jimages row %d has %d entries, want 3", i, len(img))
		}
	}
	return nil
}

// Record is one processed crystal as it sits in the cache. Props holds named
// property vectors (scalars are length 1); the scaled-lattice entry is added
// once after loading or preprocessing and before any scaler is fit. Records
// are immutable after that augmentation.
type Record struct {
	ID    string
	Graph GraphArrays
	Props map[string][]float64
}

// Prop returns the named property vector.
func (r Record) Prop(key string) ([]float64, error) {
	v, ok := r.Props[key]
	if !ok {
		return nil, errors.Wrapf(ErrPropMissing, "record %q has no property %q", r.ID, key)
	}
	return v, nil
}

// CrystalArrays is a pre-parsed crystal structure: the raw input of the
// in-memory dataset variant, before any graph construction.
type CrystalArrays struct {
	ID         string      `json:"id"`
	Lengths    []float64   `json:"lengths"`
	Angles     []float64   `json:"angles"`
	FracCoords [][]float64 `json:"frac_coords"`
	AtomTypes  []int       `json:"atom_types"`
}
