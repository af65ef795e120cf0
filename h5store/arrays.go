package h5store

import (
	"github.com/pkg/errors"
	"github.com/weaviate/hdf5"
)

// writeFloats stores a flat float64 slice under the given shape. Zero-size
// shapes still create the dataset so the layout stays uniform on read.
func writeFloats(parent datasetParent, name string, flat []float64, dims []uint) error {
	return writeDataset(parent, name, hdf5.T_NATIVE_DOUBLE, dims, func(dset *hdf5.Dataset) error {
		if len(flat) == 0 {
			return nil
		}
		return dset.Write(&flat)
	})
}

func writeInts(parent datasetParent, name string, flat []int64, dims []uint) error {
	return writeDataset(parent, name, hdf5.T_NATIVE_INT64, dims, func(dset *hdf5.Dataset) error {
		if len(flat) == 0 {
			return nil
		}
		return dset.Write(&flat)
	})
}

func writeStrings(parent datasetParent, name string, values []string) error {
	return writeDataset(parent, name, hdf5.T_GO_STRING, []uint{uint(len(values))}, func(dset *hdf5.Dataset) error {
		if len(values) == 0 {
			return nil
		}
		return dset.Write(&values)
	})
}

func writeDataset(parent datasetParent, name string, dtype *hdf5.Datatype, dims []uint, write func(*hdf5.Dataset) error) error {
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return errors.Wrapf(err, "creating dataspace for %s", name)
	}
	defer space.Close()

	dset, err := parent.CreateDataset(name, dtype, space)
	if err != nil {
		return errors.Wrapf(err, "creating dataset %s", name)
	}
	defer dset.Close()

	if err := write(dset); err != nil {
		return errors.Wrapf(err, "writing dataset %s", name)
	}
	return nil
}

// readFloatsDims reads a dataset as a flat float64 slice plus its shape,
// checking the expected rank.
func readFloatsDims(parent datasetParent, name string, rank int) ([]float64, []uint, error) {
	dset, err := parent.OpenDataset(name)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening dataset %s", name)
	}
	defer dset.Close()

	dims, err := datasetDims(dset, name, rank)
	if err != nil {
		return nil, nil, err
	}
	total := dimsProduct(dims)
	flat := make([]float64, total)
	if total > 0 {
		if err := dset.Read(&flat); err != nil {
			return nil, nil, errors.Wrapf(err, "reading dataset %s", name)
		}
	}
	return flat, dims, nil
}

func readIntsDims(parent datasetParent, name string, rank int) ([]int64, []uint, error) {
	dset, err := parent.OpenDataset(name)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening dataset %s", name)
	}
	defer dset.Close()

	dims, err := datasetDims(dset, name, rank)
	if err != nil {
		return nil, nil, err
	}
	total := dimsProduct(dims)
	flat := make([]int64, total)
	if total > 0 {
		if err := dset.Read(&flat); err != nil {
			return nil, nil, errors.Wrapf(err, "reading dataset %s", name)
		}
	}
	return flat, dims, nil
}

func readInts(parent datasetParent, name string) ([]int64, error) {
	flat, _, err := readIntsDims(parent, name, 1)
	return flat, err
}

func readStrings(parent datasetParent, name string, n int) ([]string, error) {
	dset, err := parent.OpenDataset(name)
	if err != nil {
		return nil, errors.Wrapf(err, "opening dataset %s", name)
	}
	defer dset.Close()

	dims, err := datasetDims(dset, name, 1)
	if err != nil {
		return nil, err
	}
	if int(dims[0]) != n {
		return nil, errors.Errorf("h5store: dataset %s has %d entries, want %d", name, dims[0], n)
	}
	values := make([]string, n)
	if n > 0 {
		if err := dset.Read(&values); err != nil {
			return nil, errors.Wrapf(err, "reading dataset %s", name)
		}
	}
	return values, nil
}

func datasetDims(dset *hdf5.Dataset, name string, rank int) ([]uint, error) {
	space := dset.Space()
	defer space.Close()

	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, errors.Wrapf(err, "reading extent of %s", name)
	}
	if len(dims) != rank {
		return nil, errors.Errorf("h5store: dataset %s has %d dimensions, want %d", name, len(dims), rank)
	}
	return dims, nil
}

func dimsProduct(dims []uint) int {
	total := 1
	for _, d := range dims {
		total *= int(d)
	}
	return total
}

func flattenFloats(rows [][]float64) []float64 {
	var flat []float64
	for _, row := range rows {
		flat = append(flat, row...)
	}
	return flat
}

func flattenInts(rows [][]int) []int64 {
	var flat []int64
	for _, row := range rows {
		for _, v := range row {
			flat = append(flat, int64(v))
		}
	}
	return flat
}

func reshapeFloats(flat []float64, dims []uint) [][]float64 {
	rows, cols := int(dims[0]), int(dims[1])
	out := make([][]float64, rows)
	for i := range out {
		out[i] = flat[i*cols : (i+1)*cols]
	}
	return out
}

func reshapeInts(flat []int64, dims []uint) [][]int {
	rows, cols := int(dims[0]), int(dims[1])
	out := make([][]int, rows)
	for i := range out {
		out[i] = make([]int, cols)
		for j := 0; j < cols; j++ {
			out[i][j] = int(flat[i*cols+j])
		}
	}
	return out
}

func intsTo64(values []int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}

func ints64To(values []int64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}
