package cryst

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	g := testGraph(3)
	g.EdgeIndices = [][]int{{0, 1}, {1, 0}, {1, 2}, {2, 1}}
	g.ToJimages = [][]int{{0, 0, 0}, {0, 0, 0}, {0, 0, 1}, {0, 0, -1}}
	return Record{
		ID:    "s",
		Graph: g,
		Props: map[string][]float64{"energy": {4}},
	}
}

func TestBuildSampleShapes(t *testing.T) {
	sample, err := buildSample(sampleRecord())
	require.NoError(t, err)

	// Lattice parameters arrive as 1x3 rows.
	require.Equal(t, [][]float64{{4, 5, 6}}, sample.Lengths)
	require.Equal(t, [][]float64{{90, 90, 120}}, sample.Angles)

	// Edge list transposed to 2xM, indices kept local.
	require.Equal(t, []int{0, 1, 1, 2}, sample.EdgeIndex[0])
	require.Equal(t, []int{1, 0, 2, 1}, sample.EdgeIndex[1])

	require.Equal(t, 3, sample.NumAtoms)
	require.Equal(t, 4, sample.NumBonds)
	require.Nil(t, sample.Target)
}

func TestBuildSampleMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Record)
	}{
		{"atom count mismatch", func(r *Record) { r.Graph.NumAtoms = 5 }},
		{"short coordinate row", func(r *Record) { r.Graph.FracCoords[1] = []float64{0.5} }},
		{"edge out of range", func(r *Record) { r.Graph.EdgeIndices[0] = []int{0, 7} }},
		{"image count mismatch", func(r *Record) { r.Graph.ToJimages = r.Graph.ToJimages[:2] }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := sampleRecord()
			test.mutate(&rec)
			_, err := buildSample(rec)
			require.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestBuildLabeledSample(t *testing.T) {
	scaler := &StandardScaler{Means: []float64{2}, Stds: []float64{2}}

	sample, err := buildLabeledSample(sampleRecord(), "energy", scaler)
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1}}, sample.Target)
}

func TestBuildLabeledSampleNoScaler(t *testing.T) {
	_, err := buildLabeledSample(sampleRecord(), "energy", nil)
	require.ErrorIs(t, err, ErrScalerNotSet)
}

func TestBuildLabeledSampleMissingProp(t *testing.T) {
	scaler := &StandardScaler{Means: []float64{0}, Stds: []float64{1}}
	_, err := buildLabeledSample(sampleRecord(), "band_gap", scaler)
	require.ErrorIs(t, err, ErrPropMissing)
}
