package preprocess

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/materials-graph/crystprep/cryst"
)

func writeCrystalFile(t *testing.T, entries []crystalEntry) string {
	t.Helper()

	data, err := json.Marshal(entries)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "crystals.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func cubicEntry(id string, props map[string]float64) crystalEntry {
	return crystalEntry{
		ID:         id,
		Lengths:    []float64{4, 4, 4},
		Angles:     []float64{90, 90, 90},
		FracCoords: [][]float64{{0, 0, 0}, {0.5, 0.5, 0.5}},
		AtomTypes:  []int{55, 17},
		Properties: props,
	}
}

func TestPreprocessExtractsProps(t *testing.T) {
	path := writeCrystalFile(t, []crystalEntry{
		cubicEntry("c0", map[string]float64{"formation_energy": -1.5}),
		cubicEntry("c1", map[string]float64{"formation_energy": 0.5}),
	})

	b := New(4.5, 0)
	records, err := b.Preprocess([]string{path}, 2, cryst.PreprocessOptions{GraphMethod: cryst.GraphMethodCutoff}, []string{"formation_energy"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, "c0", records[0].ID)
	require.Equal(t, "c1", records[1].ID)
	require.Equal(t, []float64{-1.5}, records[0].Props["formation_energy"])
	require.Equal(t, []float64{0.5}, records[1].Props["formation_energy"])
	require.Equal(t, 2, records[0].Graph.NumAtoms)
	require.Positive(t, records[0].Graph.NumBonds())
}

func TestPreprocessMissingProp(t *testing.T) {
	path := writeCrystalFile(t, []crystalEntry{
		cubicEntry("c0", map[string]float64{"band_gap": 1.1}),
	})

	b := New(4.5, 0)
	_, err := b.Preprocess([]string{path}, 1, cryst.PreprocessOptions{GraphMethod: cryst.GraphMethodCutoff}, []string{"formation_energy"})
	require.ErrorIs(t, err, cryst.ErrPropMissing)
}

func TestPreprocessOrderStableAcrossWorkers(t *testing.T) {
	entries := make([]crystalEntry, 40)
	for i := range entries {
		entries[i] = cubicEntry(fmt.Sprintf("c%02d", i), map[string]float64{"e": float64(i)})
	}
	path := writeCrystalFile(t, entries)

	b := New(4.5, 0)
	records, err := b.Preprocess([]string{path}, 8, cryst.PreprocessOptions{GraphMethod: cryst.GraphMethodCutoff}, []string{"e"})
	require.NoError(t, err)
	require.Len(t, records, 40)
	for i, rec := range records {
		require.Equal(t, fmt.Sprintf("c%02d", i), rec.ID)
		require.Equal(t, float64(i), rec.Props["e"][0])
	}
}

func TestPreprocessNoCrystals(t *testing.T) {
	path := writeCrystalFile(t, []crystalEntry{})

	b := New(0, 0)
	_, err := b.Preprocess([]string{path}, 1, cryst.PreprocessOptions{GraphMethod: cryst.GraphMethodNone}, nil)
	require.Error(t, err)
}

func TestPreprocessArrays(t *testing.T) {
	crystals := []cryst.CrystalArrays{
		{
			ID:         "t0",
			Lengths:    []float64{4, 4, 4},
			Angles:     []float64{90, 90, 90},
			FracCoords: [][]float64{{0, 0, 0}},
			AtomTypes:  []int{26},
		},
	}

	b := New(4.5, 0)
	records, err := b.PreprocessArrays(crystals, cryst.PreprocessOptions{GraphMethod: cryst.GraphMethodCutoff})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Nil(t, records[0].Props)
	// One atom in a 4 angstrom cube sees its six face images within 4.5.
	require.Equal(t, 6, records[0].Graph.NumBonds())
}

func TestPreprocessArraysGraphMethodNone(t *testing.T) {
	crystals := []cryst.CrystalArrays{
		{
			ID:         "t0",
			Lengths:    []float64{4, 4, 4},
			Angles:     []float64{90, 90, 90},
			FracCoords: [][]float64{{0, 0, 0}, {0.5, 0.5, 0.5}},
			AtomTypes:  []int{3, 9},
		},
	}

	b := New(0, 0)
	records, err := b.PreprocessArrays(crystals, cryst.PreprocessOptions{GraphMethod: cryst.GraphMethodNone})
	require.NoError(t, err)
	require.Zero(t, records[0].Graph.NumBonds())
	require.NoError(t, records[0].Graph.Validate())
}

func TestReadCrystalFileValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*crystalEntry)
	}{
		{"bad lengths", func(e *crystalEntry) { e.Lengths = []float64{4} }},
		{"bad angles", func(e *crystalEntry) { e.Angles = nil }},
		{"no atoms", func(e *crystalEntry) { e.FracCoords = nil; e.AtomTypes = nil }},
		{"type count mismatch", func(e *crystalEntry) { e.AtomTypes = []int{1} }},
		{"short coordinate row", func(e *crystalEntry) { e.FracCoords[0] = []float64{0.5, 0.5} }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			entry := cubicEntry("bad", nil)
			test.mutate(&entry)
			path := writeCrystalFile(t, []crystalEntry{entry})
			_, err := readCrystalFile(path)
			require.Error(t, err)
		})
	}
}

func TestReadCrystalFileMissing(t *testing.T) {
	_, err := readCrystalFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
