package cryst

// Sample is the per-index output of a dataset: one crystal graph packed so
// that many samples concatenate into a single disjoint-union graph. Lengths
// and angles are 1x3 rows (a batch stacks them into B x 3), EdgeIndex is the
// 2 x M transpose of the stored edge list, and edge indices remain local to
// the sample; the batching layer adds the running node offset, never the
// sample itself. Target is a 1x1 row holding the normalized property for the
// labelled variant and nil otherwise.
//
// A Sample is a fresh value per access; the large arrays may share backing
// storage with the cached record, which stays immutable.
type Sample struct {
	FracCoords [][]float64
	AtomTypes  []int
	Lengths    [][]float64 // 1 x 3
	Angles     [][]float64 // 1 x 3
	EdgeIndex  [2][]int    // 2 x M
	ToJimages  [][]int     // M x 3
	NumAtoms   int
	NumBonds   int
	Target     [][]float64 // 1 x 1, labelled variant only
}

// buildSample unpacks one cached record into a Sample. Structural problems in
// the record surface here, at the first access that unpacks it.
func buildSample(rec Record) (Sample, error) {
	if err := rec.Graph.Validate(); err != nil {
		return Sample{}, err
	}
	g := rec.Graph

	edgeIndex := [2][]int{
		make([]int, len(g.EdgeIndices)),
		make([]int, len(g.EdgeIndices)),
	}
	for k, pair := range g.EdgeIndices {
		edgeIndex[0][k] = pair[0]
		edgeIndex[1][k] = pair[1]
	}

	return Sample{
		FracCoords: g.FracCoords,
		AtomTypes:  g.AtomTypes,
		Lengths:    [][]float64{g.Lengths},
		Angles:     [][]float64{g.Angles},
		EdgeIndex:  edgeIndex,
		ToJimages:  g.ToJimages,
		NumAtoms:   g.NumAtoms,
		NumBonds:   g.NumBonds(),
	}, nil
}

// buildLabeledSample builds a Sample carrying the scaled property target.
func buildLabeledSample(rec Record, prop string, scaler *StandardScaler) (Sample, error) {
	if scaler == nil {
		return Sample{}, ErrScalerNotSet
	}
	sample, err := buildSample(rec)
	if err != nil {
		return Sample{}, err
	}
	raw, err := rec.Prop(prop)
	if err != nil {
		return Sample{}, err
	}
	scaled, err := scaler.Transform(raw)
	if err != nil {
		return Sample{}, err
	}
	sample.Target = [][]float64{scaled}
	return sample, nil
}
