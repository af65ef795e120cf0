package cryst

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakePreprocessor returns canned records and counts invocations.
type fakePreprocessor struct {
	records []Record
	err     error
	calls   int
}

func (f *fakePreprocessor) Preprocess(paths []string, workers int, opts PreprocessOptions, propNames []string) ([]Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakePreprocessor) PreprocessArrays(crystals []CrystalArrays, opts PreprocessOptions) ([]Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

// fakeStore keeps records in memory and touches the path so existence checks
// see a file.
type fakeStore struct {
	saved     map[string][]Record
	saves     int
	loads     int
	loadErr   error
	saveErr   error
	touchDisk bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[string][]Record), touchDisk: true}
}

func (s *fakeStore) Save(records []Record, path string) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.touchDisk {
		if err := os.WriteFile(path, []byte("cache"), 0o644); err != nil {
			return err
		}
	}
	s.saved[path] = records
	return nil
}

func (s *fakeStore) Load(path string) ([]Record, error) {
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	records, ok := s.saved[path]
	if !ok {
		return nil, errors.Errorf("no records at %s", path)
	}
	return records, nil
}

func cacheRecords() []Record {
	return []Record{
		{ID: "a", Graph: testGraph(2), Props: map[string][]float64{"energy": {1}}},
		{ID: "b", Graph: testGraph(3), Props: map[string][]float64{"energy": {2}}},
	}
}

func cacheConfig(savePath string) CacheConfig {
	return CacheConfig{
		SourcePaths: []string{"crystals.json"},
		SavePath:    savePath,
		Workers:     2,
		Prop:        "energy",
		Options: PreprocessOptions{
			Niggli:      true,
			GraphMethod: GraphMethodCutoff,
		},
		LatticeScaleMethod: LatticeScaleLength,
	}
}

func TestBuildRecordsFreshCache(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "cache.h5")
	pre := &fakePreprocessor{records: cacheRecords()}
	store := newFakeStore()

	records, err := BuildRecords(cacheConfig(savePath), pre, store)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 1, pre.calls)
	require.Equal(t, 1, store.saves)
	require.Equal(t, 0, store.loads)

	// Scaled lattice attached on the preprocessing path.
	_, err = records[0].Prop(ScaledLatticeKey)
	require.NoError(t, err)
}

func TestBuildRecordsExistingCacheSkipsPreprocess(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "cache.h5")
	pre := &fakePreprocessor{records: cacheRecords()}
	store := newFakeStore()
	cfg := cacheConfig(savePath)

	_, err := BuildRecords(cfg, pre, store)
	require.NoError(t, err)

	records, err := BuildRecords(cfg, pre, store)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 1, pre.calls, "existing cache must not trigger preprocessing")
	require.Equal(t, 1, store.loads)

	// Scaled lattice attached on the load path too.
	_, err = records[0].Prop(ScaledLatticeKey)
	require.NoError(t, err)
}

func TestBuildRecordsForceAlwaysPreprocesses(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "cache.h5")
	pre := &fakePreprocessor{records: cacheRecords()}
	store := newFakeStore()
	cfg := cacheConfig(savePath)
	cfg.Force = true

	_, err := BuildRecords(cfg, pre, store)
	require.NoError(t, err)
	_, err = BuildRecords(cfg, pre, store)
	require.NoError(t, err)

	require.Equal(t, 2, pre.calls)
	require.Equal(t, 2, store.saves)
	require.Equal(t, 0, store.loads)
}

func TestBuildRecordsLoadErrorIsFatal(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "cache.h5")
	require.NoError(t, os.WriteFile(savePath, []byte("corrupt"), 0o644))

	pre := &fakePreprocessor{records: cacheRecords()}
	store := newFakeStore()
	store.loadErr = errors.New("truncated file")

	_, err := BuildRecords(cacheConfig(savePath), pre, store)
	require.Error(t, err)
	require.Contains(t, err.Error(), "truncated file")
	require.Equal(t, 0, pre.calls, "corrupt cache must not fall back to preprocessing")
}

func TestBuildRecordsPreprocessErrorPropagates(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "cache.h5")
	pre := &fakePreprocessor{err: errors.New("unreadable source")}
	store := newFakeStore()

	_, err := BuildRecords(cacheConfig(savePath), pre, store)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unreadable source")
	require.Equal(t, 0, store.saves)
}

func TestBuildRecordsSaveErrorPropagates(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "cache.h5")
	pre := &fakePreprocessor{records: cacheRecords()}
	store := newFakeStore()
	store.saveErr = errors.New("disk full")

	_, err := BuildRecords(cacheConfig(savePath), pre, store)
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
}

func TestBuildRecordsValidation(t *testing.T) {
	pre := &fakePreprocessor{records: cacheRecords()}
	store := newFakeStore()

	tests := []struct {
		name   string
		mutate func(*CacheConfig)
		want   error
	}{
		{"unknown graph method", func(c *CacheConfig) { c.Options.GraphMethod = "voronoi" }, ErrUnknownGraphMethod},
		{"unknown lattice scale", func(c *CacheConfig) { c.LatticeScaleMethod = "scale_volume" }, ErrUnknownLatticeScale},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := cacheConfig(filepath.Join(t.TempDir(), "cache.h5"))
			test.mutate(&cfg)
			_, err := BuildRecords(cfg, pre, store)
			require.ErrorIs(t, err, test.want)
		})
	}

	t.Run("no source paths", func(t *testing.T) {
		cfg := cacheConfig(filepath.Join(t.TempDir(), "cache.h5"))
		cfg.SourcePaths = nil
		_, err := BuildRecords(cfg, pre, store)
		require.Error(t, err)
	})
}
