package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// ResultsJSONPreprocess is the per-run report written under ./results and
// pushed to the configured metric sinks.
type ResultsJSONPreprocess struct {
	RunID              string  `json:"run_id"`
	Timestamp          string  `json:"timestamp"`
	Dataset            string  `json:"dataset"`
	SavePath           string  `json:"save_path"`
	Prop               string  `json:"prop"`
	GraphMethod        string  `json:"graph_method"`
	LatticeScaleMethod string  `json:"lattice_scale_method"`
	Records            int     `json:"records"`
	TotalAtoms         int     `json:"total_atoms"`
	TotalBonds         int     `json:"total_bonds"`
	PreprocessTime     float64 `json:"preprocess_time_seconds"`
	Workers            int     `json:"workers"`
	PropMean           float64 `json:"prop_mean"`
	PropStd            float64 `json:"prop_std"`
	HeapAllocBytes     float64 `json:"heap_alloc_bytes"`
	HeapInuseBytes     float64 `json:"heap_inuse_bytes"`
	HeapSysBytes       float64 `json:"heap_sys_bytes"`
}

type Memstats struct {
	HeapAllocBytes float64 `json:"heap_alloc_bytes"`
	HeapInuseBytes float64 `json:"heap_inuse_bytes"`
	HeapSysBytes   float64 `json:"heap_sys_bytes"`
}

func readMemoryMetrics() *Memstats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return &Memstats{
		HeapAllocBytes: float64(ms.HeapAlloc),
		HeapInuseBytes: float64(ms.HeapInuse),
		HeapSysBytes:   float64(ms.HeapSys),
	}
}

// writeReport stores the run report as ./results/<runID>.json, merging any
// configured labels into the JSON object the way downstream dashboards expect.
func writeReport(cfg *Config, result ResultsJSONPreprocess) error {
	jsonData, err := json.Marshal(result)
	if err != nil {
		return err
	}

	var resultMap map[string]interface{}
	if err := json.Unmarshal(jsonData, &resultMap); err != nil {
		return err
	}

	if cfg.LabelMap != nil {
		for key, value := range cfg.LabelMap {
			resultMap[key] = value
		}
	}

	data, err := json.MarshalIndent(resultMap, "", "    ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll("./results", 0o755); err != nil {
		return err
	}

	path := fmt.Sprintf("./results/%s.json", result.RunID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	log.WithFields(log.Fields{"path": path, "run_id": result.RunID}).Info("Preprocess report written")
	return nil
}

func (r ResultsJSONPreprocess) WriteTextTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w,
		"Results\nDataset: %s\nRecords: %d\nAtoms: %d\nBonds: %d\nProp: %s (mean %f, std %f)\nTook: %fs\n",
		r.Dataset, r.Records, r.TotalAtoms, r.TotalBonds, r.Prop, r.PropMean, r.PropStd, r.PreprocessTime)
	return int64(n), err
}

func (r ResultsJSONPreprocess) WriteJSONTo(w io.Writer) (int, error) {
	bytes, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return 0, err
	}

	return w.Write(bytes)
}
