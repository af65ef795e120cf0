package h5store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/materials-graph/crystprep/cryst"
)

func storedRecords() []cryst.Record {
	return []cryst.Record{
		{
			ID: "mp-1",
			Graph: cryst.GraphArrays{
				FracCoords:  [][]float64{{0, 0, 0}, {0.5, 0.5, 0.5}},
				AtomTypes:   []int{55, 17},
				Lengths:     []float64{4.1, 4.1, 4.1},
				Angles:      []float64{90, 90, 90},
				EdgeIndices: [][]int{{0, 1}, {1, 0}},
				ToJimages:   [][]int{{0, 0, 0}, {0, 0, 0}},
				NumAtoms:    2,
			},
			Props: map[string][]float64{
				"formation_energy": {-1.25},
				"scaled_lattice":   {3.2, 3.2, 3.2, 90, 90, 90},
			},
		},
		{
			ID: "mp-2",
			Graph: cryst.GraphArrays{
				FracCoords:  [][]float64{{0.1, 0.2, 0.3}},
				AtomTypes:   []int{26},
				Lengths:     []float64{2.9, 2.9, 2.9},
				Angles:      []float64{90, 90, 120},
				EdgeIndices: [][]int{},
				ToJimages:   [][]int{},
				NumAtoms:    1,
			},
			Props: map[string][]float64{
				"formation_energy": {0.75},
				"scaled_lattice":   {2.9, 2.9, 2.9, 90, 90, 120},
			},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.h5")
	store := New()
	want := storedRecords()

	require.NoError(t, store.Save(want, path))

	got, err := store.Load(path)
	require.NoError(t, err)
	require.Len(t, got, len(want))

	for i := range want {
		require.Equal(t, want[i].ID, got[i].ID)
		require.Equal(t, want[i].Graph.NumAtoms, got[i].Graph.NumAtoms)
		require.Equal(t, want[i].Graph.AtomTypes, got[i].Graph.AtomTypes)
		require.Equal(t, want[i].Graph.Lengths, got[i].Graph.Lengths)
		require.Equal(t, want[i].Graph.Angles, got[i].Graph.Angles)
		require.Equal(t, want[i].Graph.FracCoords, got[i].Graph.FracCoords)
		require.Equal(t, want[i].Graph.EdgeIndices, got[i].Graph.EdgeIndices)
		require.Equal(t, want[i].Graph.ToJimages, got[i].Graph.ToJimages)
		require.Equal(t, want[i].Props["formation_energy"], got[i].Props["formation_energy"])
		require.Equal(t, want[i].Props["scaled_lattice"], got[i].Props["scaled_lattice"])
		require.NoError(t, got[i].Graph.Validate())
	}
}

func TestSaveLoadNoProps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.h5")
	store := New()

	records := storedRecords()
	for i := range records {
		records[i].Props = nil
	}

	require.NoError(t, store.Save(records, path))

	got, err := store.Load(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Empty(t, got[0].Props)
}

func TestSaveTruncatesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.h5")
	store := New()

	require.NoError(t, store.Save(storedRecords(), path))
	require.NoError(t, store.Save(storedRecords()[:1], path))

	got, err := store.Load(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "mp-1", got[0].ID)
}

func TestLoadMissingFile(t *testing.T) {
	store := New()
	_, err := store.Load(filepath.Join(t.TempDir(), "absent.h5"))
	require.Error(t, err)
}
