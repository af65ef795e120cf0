package preprocess

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// crystalEntry is one crystal as stored in a raw dataset file: a JSON array
// of these per file, with cell parameters, fractional coordinates, atomic
// numbers and named scalar properties.
type crystalEntry struct {
	ID         string             `json:"id"`
	Lengths    []float64          `json:"lengths"`
	Angles     []float64          `json:"angles"`
	FracCoords [][]float64        `json:"frac_coords"`
	AtomTypes  []int              `json:"atom_types"`
	Properties map[string]float64 `json:"properties"`
}

func (e crystalEntry) validate() error {
	if len(e.Lengths) != 3 {
		return errors.Errorf("crystal %q has %d lengths, want 3", e.ID, len(e.Lengths))
	}
	if len(e.Angles) != 3 {
		return errors.Errorf("crystal %q has %d angles, want 3", e.ID, len(e.Angles))
	}
	if len(e.FracCoords) == 0 {
		return errors.Errorf("crystal %q has no atoms", e.ID)
	}
	if len(e.AtomTypes) != len(e.FracCoords) {
		return errors.Errorf("crystal %q has %d atom types for %d coordinates", e.ID, len(e.AtomTypes), len(e.FracCoords))
	}
	for i, row := range e.FracCoords {
		if len(row) != 3 {
			return errors.Errorf("crystal %q coordinate row %d has %d entries, want 3", e.ID, i, len(row))
		}
	}
	return nil
}

// readCrystalFile parses one raw crystal dataset file.
func readCrystalFile(path string) ([]crystalEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening crystal file %s", path)
	}
	defer f.Close()

	var entries []crystalEntry
	if err := json.NewDecoder(f).Decode(&entries); err != nil {
		return nil, errors.Wrapf(err, "decoding crystal file %s", path)
	}
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, errors.Wrapf(err, "in %s", path)
		}
	}
	return entries, nil
}
