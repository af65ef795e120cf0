package cmd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	log "github.com/sirupsen/logrus"
)

// PrometheusConfig holds configuration for Prometheus metrics reporting
type PrometheusConfig struct {
	Enabled    bool
	PushURL    string
	JobName    string
	PushPeriod time.Duration
}

// PreprocessMetrics holds the Prometheus metrics for one preprocessing run
type PreprocessMetrics struct {
	Records        prometheus.Gauge
	TotalAtoms     prometheus.Gauge
	TotalBonds     prometheus.Gauge
	PreprocessTime prometheus.Gauge
	Workers        prometheus.Gauge
	PropMean       prometheus.Gauge
	PropStd        prometheus.Gauge
	HeapAllocBytes prometheus.Gauge
	HeapInuseBytes prometheus.Gauge
	HeapSysBytes   prometheus.Gauge
}

// NewPreprocessMetrics creates a new set of preprocessing metrics
func NewPreprocessMetrics(registry *prometheus.Registry, labels prometheus.Labels) *PreprocessMetrics {
	metrics := &PreprocessMetrics{
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "crystprep_records",
			Help:        "Number of processed crystal records",
			ConstLabels: labels,
		}),
		TotalAtoms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "crystprep_total_atoms",
			Help:        "Total atoms across all processed records",
			ConstLabels: labels,
		}),
		TotalBonds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "crystprep_total_bonds",
			Help:        "Total periodic bonds across all processed records",
			ConstLabels: labels,
		}),
		PreprocessTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "crystprep_preprocess_time_seconds",
			Help:        "Preprocessing time in seconds",
			ConstLabels: labels,
		}),
		Workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "crystprep_workers",
			Help:        "Number of preprocessing workers",
			ConstLabels: labels,
		}),
		PropMean: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "crystprep_prop_mean",
			Help:        "Fitted mean of the regression property",
			ConstLabels: labels,
		}),
		PropStd: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "crystprep_prop_std",
			Help:        "Fitted standard deviation of the regression property",
			ConstLabels: labels,
		}),
		HeapAllocBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "crystprep_heap_alloc_bytes",
			Help:        "Heap allocation in bytes",
			ConstLabels: labels,
		}),
		HeapInuseBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "crystprep_heap_inuse_bytes",
			Help:        "Heap in use in bytes",
			ConstLabels: labels,
		}),
		HeapSysBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "crystprep_heap_sys_bytes",
			Help:        "Heap system in bytes",
			ConstLabels: labels,
		}),
	}

	registry.MustRegister(
		metrics.Records,
		metrics.TotalAtoms,
		metrics.TotalBonds,
		metrics.PreprocessTime,
		metrics.Workers,
		metrics.PropMean,
		metrics.PropStd,
		metrics.HeapAllocBytes,
		metrics.HeapInuseBytes,
		metrics.HeapSysBytes,
	)

	return metrics
}

// PushMetricsToPrometheus pushes the preprocessing results to a Prometheus pushgateway
func PushMetricsToPrometheus(cfg *Config, result *ResultsJSONPreprocess) error {
	if !cfg.PrometheusConfig.Enabled || cfg.PrometheusConfig.PushURL == "" {
		return nil
	}

	registry := prometheus.NewRegistry()

	// Create labels from the run result
	labels := prometheus.Labels{
		"dataset":      result.Dataset,
		"prop":         result.Prop,
		"graph_method": result.GraphMethod,
		"run_id":       result.RunID,
		"timestamp":    result.Timestamp,
	}

	// Add custom labels from config
	if cfg.LabelMap != nil {
		for key, value := range cfg.LabelMap {
			labels[key] = value
		}
	}

	// Create metrics
	metrics := NewPreprocessMetrics(registry, labels)

	// Set metric values
	metrics.Records.Set(float64(result.Records))
	metrics.TotalAtoms.Set(float64(result.TotalAtoms))
	metrics.TotalBonds.Set(float64(result.TotalBonds))
	metrics.PreprocessTime.Set(result.PreprocessTime)
	metrics.Workers.Set(float64(result.Workers))
	metrics.PropMean.Set(result.PropMean)
	metrics.PropStd.Set(result.PropStd)
	metrics.HeapAllocBytes.Set(result.HeapAllocBytes)
	metrics.HeapInuseBytes.Set(result.HeapInuseBytes)
	metrics.HeapSysBytes.Set(result.HeapSysBytes)

	// Create a pusher
	pusher := push.New(cfg.PrometheusConfig.PushURL, cfg.PrometheusConfig.JobName).
		Gatherer(registry)

	// Push metrics
	if err := pusher.Push(); err != nil {
		log.WithError(err).Error("Failed to push metrics to Prometheus")
		return err
	}

	log.WithFields(log.Fields{
		"url":     cfg.PrometheusConfig.PushURL,
		"job":     cfg.PrometheusConfig.JobName,
		"run_id":  result.RunID,
		"dataset": result.Dataset,
	}).Info("Successfully pushed metrics to Prometheus")

	return nil
}
