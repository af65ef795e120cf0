// Package h5store persists processed crystal records as a single HDF5 file.
// Each record becomes one group of flat numeric datasets reshaped on read, so
// the exact graph-array structure round-trips. The file layout is
// self-describing: array shapes live in the dataspaces, property names in the
// dataset names under props/.
package h5store

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/weaviate/hdf5"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/materials-graph/crystprep/cryst"
)

// Store implements cryst.RecordStore on HDF5 files.
type Store struct{}

// New returns a Store.
func New() *Store {
	return &Store{}
}

// datasetParent is satisfied by both *hdf5.File and *hdf5.Group.
type datasetParent interface {
	CreateDataset(name string, dtype *hdf5.Datatype, dspace *hdf5.Dataspace) (*hdf5.Dataset, error)
	OpenDataset(name string) (*hdf5.Dataset, error)
}

// Save writes the record list to path, truncating any existing file.
func (s *Store) Save(records []cryst.Record, path string) error {
	file, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer file.Close()

	log.WithFields(log.Fields{"records": len(records), "path": path}).Printf("Writing processed records")

	if err := writeInts(file, "num_records", []int64{int64(len(records))}, []uint{1}); err != nil {
		return err
	}

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	if err := writeStrings(file, "ids", ids); err != nil {
		return err
	}

	recGroup, err := file.CreateGroup("records")
	if err != nil {
		return errors.Wrap(err, "creating records group")
	}
	defer recGroup.Close()

	for i, rec := range records {
		if err := writeRecord(recGroup, i, rec.Graph); err != nil {
			return errors.Wrapf(err, "record %d (%s)", i, rec.ID)
		}
	}

	return writeProps(file, records)
}

// Load reads a record list written by Save. A missing or corrupt file is an
// error; the cache layer never falls back to recomputation.
func (s *Store) Load(path string) ([]cryst.Record, error) {
	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer file.Close()

	counts, err := readInts(file, "num_records")
	if err != nil {
		return nil, err
	}
	if len(counts) != 1 || counts[0] < 0 {
		return nil, errors.Errorf("h5store: malformed num_records in %s", path)
	}
	n := int(counts[0])

	log.WithFields(log.Fields{"records": n, "path": path}).Printf("Loading processed records")

	ids, err := readStrings(file, "ids", n)
	if err != nil {
		return nil, err
	}

	recGroup, err := file.OpenGroup("records")
	if err != nil {
		return nil, errors.Wrap(err, "opening records group")
	}
	defer recGroup.Close()

	records := make([]cryst.Record, n)
	for i := 0; i < n; i++ {
		graph, err := readRecord(recGroup, i)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
		records[i] = cryst.Record{ID: ids[i], Graph: graph}
	}

	if err := readProps(file, records); err != nil {
		return nil, err
	}
	return records, nil
}

func recordGroupName(i int) string {
	return fmt.Sprintf("r%06d", i)
}

func writeRecord(parent *hdf5.Group, i int, g cryst.GraphArrays) error {
	grp, err := parent.CreateGroup(recordGroupName(i))
	if err != nil {
		return errors.Wrap(err, "creating record group")
	}
	defer grp.Close()

	n := uint(g.NumAtoms)
	m := uint(len(g.EdgeIndices))

	if err := writeFloats(grp, "frac_coords", flattenFloats(g.FracCoords), []uint{n, 3}); err != nil {
		return err
	}
	if err := writeInts(grp, "atom_types", intsTo64(g.AtomTypes), []uint{n}); err != nil {
		return err
	}
	if err := writeFloats(grp, "lengths", g.Lengths, []uint{3}); err != nil {
		return err
	}
	if err := writeFloats(grp, "angles", g.Angles, []uint{3}); err != nil {
		return err
	}
	if err := writeInts(grp, "edge_indices", flattenInts(g.EdgeIndices), []uint{m, 2}); err != nil {
		return err
	}
	if err := writeInts(grp, "to_jimages", flattenInts(g.ToJimages), []uint{m, 3}); err != nil {
		return err
	}
	return writeInts(grp, "num_atoms", []int64{int64(g.NumAtoms)}, []uint{1})
}

func readRecord(parent *hdf5.Group, i int) (cryst.GraphArrays, error) {
	grp, err := parent.OpenGroup(recordGroupName(i))
	if err != nil {
		return cryst.GraphArrays{}, errors.Wrap(err, "opening record group")
	}
	defer grp.Close()

	coordsFlat, coordDims, err := readFloatsDims(grp, "frac_coords", 2)
	if err != nil {
		return cryst.GraphArrays{}, err
	}
	atomTypes, err := readInts(grp, "atom_types")
	if err != nil {
		return cryst.GraphArrays{}, err
	}
	lengths, _, err := readFloatsDims(grp, "lengths", 1)
	if err != nil {
		return cryst.GraphArrays{}, err
	}
	angles, _, err := readFloatsDims(grp, "angles", 1)
	if err != nil {
		return cryst.GraphArrays{}, err
	}
	edgesFlat, edgeDims, err := readIntsDims(grp, "edge_indices", 2)
	if err != nil {
		return cryst.GraphArrays{}, err
	}
	jimagesFlat, jimageDims, err := readIntsDims(grp, "to_jimages", 2)
	if err != nil {
		return cryst.GraphArrays{}, err
	}
	counts, err := readInts(grp, "num_atoms")
	if err != nil {
		return cryst.GraphArrays{}, err
	}
	if len(counts) != 1 {
		return cryst.GraphArrays{}, errors.New("h5store: malformed num_atoms")
	}

	return cryst.GraphArrays{
		FracCoords:  reshapeFloats(coordsFlat, coordDims),
		AtomTypes:   ints64To(atomTypes),
		Lengths:     lengths,
		Angles:      angles,
		EdgeIndices: reshapeInts(edgesFlat, edgeDims),
		ToJimages:   reshapeInts(jimagesFlat, jimageDims),
		NumAtoms:    int(counts[0]),
	}, nil
}

func writeProps(file *hdf5.File, records []cryst.Record) error {
	grp, err := file.CreateGroup("props")
	if err != nil {
		return errors.Wrap(err, "creating props group")
	}
	defer grp.Close()

	if len(records) == 0 || len(records[0].Props) == 0 {
		return nil
	}

	keys := maps.Keys(records[0].Props)
	slices.Sort(keys)

	for _, key := range keys {
		dim := len(records[0].Props[key])
		flat := make([]float64, 0, len(records)*dim)
		for i, rec := range records {
			v, ok := rec.Props[key]
			if !ok || len(v) != dim {
				return errors.Errorf("h5store: record %d (%s) missing property %q of dimension %d", i, rec.ID, key, dim)
			}
			flat = append(flat, v...)
		}
		if err := writeFloats(grp, key, flat, []uint{uint(len(records)), uint(dim)}); err != nil {
			return err
		}
	}
	return nil
}

func readProps(file *hdf5.File, records []cryst.Record) error {
	grp, err := file.OpenGroup("props")
	if err != nil {
		return errors.Wrap(err, "opening props group")
	}
	defer grp.Close()

	count, err := grp.NumObjects()
	if err != nil {
		return errors.Wrap(err, "counting properties")
	}
	for idx := uint(0); idx < count; idx++ {
		key, err := grp.ObjectNameByIndex(idx)
		if err != nil {
			return errors.Wrap(err, "reading property name")
		}
		flat, dims, err := readFloatsDims(grp, key, 2)
		if err != nil {
			return err
		}
		if int(dims[0]) != len(records) {
			return errors.Errorf("h5store: property %q has %d rows for %d records", key, dims[0], len(records))
		}
		dim := int(dims[1])
		for i := range records {
			if records[i].Props == nil {
				records[i].Props = make(map[string][]float64, int(count))
			}
			records[i].Props[key] = flat[i*dim : (i+1)*dim]
		}
	}
	return nil
}
