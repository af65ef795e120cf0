package cmd

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	log "github.com/sirupsen/logrus"
)

// InfluxDBConfig holds configuration for InfluxDB metrics reporting
type InfluxDBConfig struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
}

// PushMetricsToInfluxDB writes the preprocessing results to an InfluxDB bucket
func PushMetricsToInfluxDB(cfg *Config, result *ResultsJSONPreprocess) error {
	if !cfg.InfluxDBConfig.Enabled || cfg.InfluxDBConfig.URL == "" {
		return nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBConfig.URL, cfg.InfluxDBConfig.Token)
	defer client.Close()

	writeAPI := client.WriteAPIBlocking(cfg.InfluxDBConfig.Org, cfg.InfluxDBConfig.Bucket)

	point := influxdb2.NewPointWithMeasurement("crystprep_preprocess").
		AddTag("dataset", result.Dataset).
		AddTag("prop", result.Prop).
		AddTag("graph_method", result.GraphMethod).
		AddTag("lattice_scale_method", result.LatticeScaleMethod).
		AddTag("run_id", result.RunID).
		AddField("records", result.Records).
		AddField("total_atoms", result.TotalAtoms).
		AddField("total_bonds", result.TotalBonds).
		AddField("preprocess_time_seconds", result.PreprocessTime).
		AddField("workers", result.Workers).
		AddField("prop_mean", result.PropMean).
		AddField("prop_std", result.PropStd).
		AddField("heap_alloc_bytes", result.HeapAllocBytes).
		AddField("heap_inuse_bytes", result.HeapInuseBytes).
		AddField("heap_sys_bytes", result.HeapSysBytes).
		SetTime(time.Now())

	// Add custom labels as tags
	if cfg.LabelMap != nil {
		for key, value := range cfg.LabelMap {
			point.AddTag(key, value)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := writeAPI.WritePoint(ctx, point); err != nil {
		log.WithError(err).Error("Failed to write metrics to InfluxDB")
		return err
	}

	log.WithFields(log.Fields{
		"url":     cfg.InfluxDBConfig.URL,
		"org":     cfg.InfluxDBConfig.Org,
		"bucket":  cfg.InfluxDBConfig.Bucket,
		"run_id":  result.RunID,
		"dataset": result.Dataset,
	}).Info("Successfully wrote metrics to InfluxDB")

	return nil
}
