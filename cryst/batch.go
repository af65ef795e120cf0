package cryst

// Batch is the disjoint union of several samples: one large graph whose edge
// indices have been shifted by the running node count of the samples before
// them. Lengths and angles stack into B x 3 rows; NumAtoms and NumBonds keep
// the per-sample counts needed to split the batch again. Targets stacks the
// 1x1 sample targets into B x 1 and stays nil for label-free samples.
type Batch struct {
	FracCoords [][]float64
	AtomTypes  []int
	Lengths    [][]float64 // B x 3
	Angles     [][]float64 // B x 3
	EdgeIndex  [2][]int
	ToJimages  [][]int
	NumAtoms   []int
	NumBonds   []int
	NumNodes   int
	Targets    [][]float64 // B x 1, nil when samples carry no target
}

// Collate concatenates samples into one batched graph. This is the downstream
// half of the sample contract: samples arrive with local edge indices and the
// node offset is applied here, exactly once.
func Collate(samples []Sample) (Batch, error) {
	if len(samples) == 0 {
		return Batch{}, ErrEmptyBatch
	}

	var totalAtoms, totalBonds int
	for _, s := range samples {
		totalAtoms += s.NumAtoms
		totalBonds += s.NumBonds
	}

	out := Batch{
		FracCoords: make([][]float64, 0, totalAtoms),
		AtomTypes:  make([]int, 0, totalAtoms),
		Lengths:    make([][]float64, 0, len(samples)),
		Angles:     make([][]float64, 0, len(samples)),
		EdgeIndex:  [2][]int{make([]int, 0, totalBonds), make([]int, 0, totalBonds)},
		ToJimages:  make([][]int, 0, totalBonds),
		NumAtoms:   make([]int, 0, len(samples)),
		NumBonds:   make([]int, 0, len(samples)),
	}

	offset := 0
	for _, s := range samples {
		out.FracCoords = append(out.FracCoords, s.FracCoords...)
		out.AtomTypes = append(out.AtomTypes, s.AtomTypes...)
		out.Lengths = append(out.Lengths, s.Lengths...)
		out.Angles = append(out.Angles, s.Angles...)
		for k := 0; k < s.NumBonds; k++ {
			out.EdgeIndex[0] = append(out.EdgeIndex[0], s.EdgeIndex[0][k]+offset)
			out.EdgeIndex[1] = append(out.EdgeIndex[1], s.EdgeIndex[1][k]+offset)
		}
		out.ToJimages = append(out.ToJimages, s.ToJimages...)
		out.NumAtoms = append(out.NumAtoms, s.NumAtoms)
		out.NumBonds = append(out.NumBonds, s.NumBonds)
		if s.Target != nil {
			out.Targets = append(out.Targets, s.Target...)
		}
		offset += s.NumAtoms
	}
	out.NumNodes = offset
	return out, nil
}
