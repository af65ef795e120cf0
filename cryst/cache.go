package cryst

import (
	"os"

	"github.com/pkg/errors"
)

// PreprocessOptions are the structural-reduction and graph-construction
// settings passed through to the preprocessing collaborator unchanged.
type PreprocessOptions struct {
	Niggli      bool
	Primitive   bool
	GraphMethod string
}

// Preprocessor converts raw crystal sources into processed records. The call
// is blocking; implementations may parallelize internally across the given
// worker count. Serial, multi-process or remote implementations are all
// acceptable behind this boundary.
type Preprocessor interface {
	// Preprocess reads the crystal files at paths and returns one record per
	// crystal, extracting the named properties into Record.Props.
	Preprocess(paths []string, workers int, opts PreprocessOptions, propNames []string) ([]Record, error)
	// PreprocessArrays builds records from already-parsed crystal arrays.
	PreprocessArrays(crystals []CrystalArrays, opts PreprocessOptions) ([]Record, error)
}

// RecordStore persists and restores processed record lists. The format is the
// store's concern; it must round-trip the exact graph-array structure.
// Coordinating concurrent writers against one path (locking, atomic rename)
// is also the store's concern, not the cache's.
type RecordStore interface {
	Save(records []Record, path string) error
	Load(path string) ([]Record, error)
}

// CacheConfig describes one file-backed cache build.
type CacheConfig struct {
	SourcePaths        []string
	SavePath           string
	Force              bool
	Workers            int
	Prop               string
	Options            PreprocessOptions
	LatticeScaleMethod string
}

// BuildRecords produces the full processed record list for a file-backed
// source. With Force set, or when no file exists at SavePath, it invokes the
// preprocessor and persists the result; otherwise it loads the persisted file
// as-is. Loading performs no staleness check against the source files: a stale
// cache is returned silently, and clearing it is the caller's responsibility
// (pass Force or remove the file). A missing or corrupt file on the load path
// is fatal; there is no fallback to recomputation.
//
// Either way the scaled-lattice property is attached to every record exactly
// once before returning.
func BuildRecords(cfg CacheConfig, pre Preprocessor, store RecordStore) ([]Record, error) {
	if !ValidGraphMethod(cfg.Options.GraphMethod) {
		return nil, errors.Wrapf(ErrUnknownGraphMethod, "%q", cfg.Options.GraphMethod)
	}
	if !ValidLatticeScaleMethod(cfg.LatticeScaleMethod) {
		return nil, errors.Wrapf(ErrUnknownLatticeScale, "%q", cfg.LatticeScaleMethod)
	}
	if len(cfg.SourcePaths) == 0 {
		return nil, errors.New("cryst: no source paths configured")
	}

	var (
		records []Record
		err     error
	)
	if cfg.Force || !fileExists(cfg.SavePath) {
		var props []string
		if cfg.Prop != "" {
			props = []string{cfg.Prop}
		}
		records, err = pre.Preprocess(cfg.SourcePaths, cfg.Workers, cfg.Options, props)
		if err != nil {
			return nil, err
		}
		if err := store.Save(records, cfg.SavePath); err != nil {
			return nil, errors.Wrapf(err, "persisting %d records to %s", len(records), cfg.SavePath)
		}
	} else {
		records, err = store.Load(cfg.SavePath)
		if err != nil {
			return nil, errors.Wrapf(err, "loading cached records from %s", cfg.SavePath)
		}
	}

	if err := AddScaledLattice(records, cfg.LatticeScaleMethod); err != nil {
		return nil, err
	}
	return records, nil
}

// buildTensorRecords produces records for the in-memory variant: always a
// direct preprocessor call, never a filesystem touch.
func buildTensorRecords(crystals []CrystalArrays, opts PreprocessOptions, latticeScaleMethod string, pre Preprocessor) ([]Record, error) {
	if !ValidGraphMethod(opts.GraphMethod) {
		return nil, errors.Wrapf(ErrUnknownGraphMethod, "%q", opts.GraphMethod)
	}
	if !ValidLatticeScaleMethod(latticeScaleMethod) {
		return nil, errors.Wrapf(ErrUnknownLatticeScale, "%q", latticeScaleMethod)
	}
	records, err := pre.PreprocessArrays(crystals, opts)
	if err != nil {
		return nil, err
	}
	if err := AddScaledLattice(records, latticeScaleMethod); err != nil {
		return nil, err
	}
	return records, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
