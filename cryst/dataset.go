package cryst

import (
	"fmt"

	"github.com/pkg/errors"
)

// DatasetConfig carries the construction inputs of a file-backed dataset.
// All values arrive already validated from the configuration layer and are
// preserved verbatim for the summary.
type DatasetConfig struct {
	Name               string
	Paths              []string
	SavePath           string
	Force              bool
	Prop               string
	Niggli             bool
	Primitive          bool
	GraphMethod        string
	Workers            int
	LatticeScaleMethod string
}

// CrystDataset is the labelled dataset facade: file-backed sources, a named
// regression property, and a cache of processed records built once at
// construction time. A property scaler must be fit externally (see
// FitScalerFromRecords) and attached before indexed access; access before
// attachment fails with ErrScalerNotSet rather than proceeding unscaled.
type CrystDataset struct {
	cfg     DatasetConfig
	records []Record

	scaler        *StandardScaler
	latticeScaler *StandardScaler
}

// NewCrystDataset builds (or loads) the processed record cache and wraps it.
// Construction either completes or fails; preprocessing and deserialization
// errors propagate unchanged.
func NewCrystDataset(cfg DatasetConfig, pre Preprocessor, store RecordStore) (*CrystDataset, error) {
	records, err := BuildRecords(CacheConfig{
		SourcePaths: cfg.Paths,
		SavePath:    cfg.SavePath,
		Force:       cfg.Force,
		Workers:     cfg.Workers,
		Prop:        cfg.Prop,
		Options: PreprocessOptions{
			Niggli:      cfg.Niggli,
			Primitive:   cfg.Primitive,
			GraphMethod: cfg.GraphMethod,
		},
		LatticeScaleMethod: cfg.LatticeScaleMethod,
	}, pre, store)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %q", cfg.Name)
	}
	return &CrystDataset{cfg: cfg, records: records}, nil
}

// Len returns the number of cached records.
func (d *CrystDataset) Len() int {
	return len(d.records)
}

// Records exposes the cached records for whole-collection collaborators such
// as scaler fitting. Callers must not mutate them.
func (d *CrystDataset) Records() []Record {
	return d.records
}

// SetScaler attaches the property scaler. Attach once, before any indexed
// access; mutating the scaler afterwards is undefined.
func (d *CrystDataset) SetScaler(s *StandardScaler) {
	d.scaler = s
}

// SetLatticeScaler attaches the scaler fit over the scaled-lattice property.
// It is carried for downstream consumers and not consulted by At.
func (d *CrystDataset) SetLatticeScaler(s *StandardScaler) {
	d.latticeScaler = s
}

// Scaler returns the attached property scaler, nil before attachment.
func (d *CrystDataset) Scaler() *StandardScaler {
	return d.scaler
}

// LatticeScaler returns the attached lattice scaler, nil before attachment.
func (d *CrystDataset) LatticeScaler() *StandardScaler {
	return d.latticeScaler
}

// At builds the sample at index i with its normalized 1x1 target.
func (d *CrystDataset) At(i int) (Sample, error) {
	if i < 0 || i >= len(d.records) {
		return Sample{}, errors.Wrapf(ErrIndexOutOfRange, "index %d, length %d", i, len(d.records))
	}
	return buildLabeledSample(d.records[i], d.cfg.Prop, d.scaler)
}

// String summarizes the dataset with its originating configuration, kept
// verbatim for debuggability.
func (d *CrystDataset) String() string {
	return fmt.Sprintf("CrystDataset(name=%q, paths=%v, save_path=%q, prop=%q, niggli=%t, primitive=%t, graph_method=%q, lattice_scale_method=%q, len=%d)",
		d.cfg.Name, d.cfg.Paths, d.cfg.SavePath, d.cfg.Prop, d.cfg.Niggli, d.cfg.Primitive, d.cfg.GraphMethod, d.cfg.LatticeScaleMethod, len(d.records))
}

// TensorCrystDataset is the label-free dataset facade over already-parsed
// in-memory crystal arrays. Construction always preprocesses directly and
// never touches the filesystem; samples carry no target and no scaler
// machinery exists on the type.
type TensorCrystDataset struct {
	records []Record
}

// NewTensorCrystDataset preprocesses the crystal arrays into records.
func NewTensorCrystDataset(crystals []CrystalArrays, opts PreprocessOptions, latticeScaleMethod string, pre Preprocessor) (*TensorCrystDataset, error) {
	records, err := buildTensorRecords(crystals, opts, latticeScaleMethod, pre)
	if err != nil {
		return nil, err
	}
	return &TensorCrystDataset{records: records}, nil
}

// Len returns the number of records.
func (d *TensorCrystDataset) Len() int {
	return len(d.records)
}

// Records exposes the processed records. Callers must not mutate them.
func (d *TensorCrystDataset) Records() []Record {
	return d.records
}

// At builds the sample at index i.
func (d *TensorCrystDataset) At(i int) (Sample, error) {
	if i < 0 || i >= len(d.records) {
		return Sample{}, errors.Wrapf(ErrIndexOutOfRange, "index %d, length %d", i, len(d.records))
	}
	return buildSample(d.records[i])
}

func (d *TensorCrystDataset) String() string {
	return fmt.Sprintf("TensorCrystDataset(len=%d)", len(d.records))
}
