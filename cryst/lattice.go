package cryst

import (
	"math"

	"github.com/pkg/errors"
)

// Lattice scaling methods for the derived scaled-lattice property.
const (
	// LatticeScaleLength divides cell lengths by the cube root of the atom
	// count before concatenating them with the angles.
	LatticeScaleLength = "scale_length"
	// LatticeScaleNone concatenates raw lengths with angles.
	LatticeScaleNone = "none"
)

// ValidLatticeScaleMethod reports whether method names a known scaling policy.
func ValidLatticeScaleMethod(method string) bool {
	switch method {
	case LatticeScaleLength, LatticeScaleNone:
		return true
	}
	return false
}

// ScaledLattice derives the length-6 scaled-lattice vector from the cell
// parameters and atom count. It is a pure function of its inputs, so the
// augmentation below is idempotent.
func ScaledLattice(g GraphArrays, method string) ([]float64, error) {
	if !ValidLatticeScaleMethod(method) {
		return nil, errors.Wrapf(ErrUnknownLatticeScale, "%q", method)
	}
	if len(g.Lengths) != 3 || len(g.Angles) != 3 {
		return nil, errors.Wrapf(ErrMalformedRecord, "lattice parameters have %d lengths and %d angles, want 3 each", len(g.Lengths), len(g.Angles))
	}
	out := make([]float64, 0, 6)
	scale := 1.0
	if method == LatticeScaleLength {
		scale = math.Cbrt(float64(g.NumAtoms))
	}
	for _, l := range g.Lengths {
		out = append(out, l/scale)
	}
	out = append(out, g.Angles...)
	return out, nil
}

// AddScaledLattice attaches the scaled-lattice property to every record in
// place. It runs exactly once per cache build, after either the preprocessing
// or the load path, and before any scaler is fit.
func AddScaledLattice(records []Record, method string) error {
	for i := range records {
		v, err := ScaledLattice(records[i].Graph, method)
		if err != nil {
			return errors.Wrapf(err, "record %d (%s)", i, records[i].ID)
		}
		if records[i].Props == nil {
			records[i].Props = make(map[string][]float64, 1)
		}
		records[i].Props[ScaledLatticeKey] = v
	}
	return nil
}
