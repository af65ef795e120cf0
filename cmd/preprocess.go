package cmd

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/materials-graph/crystprep/cryst"
	"github.com/materials-graph/crystprep/h5store"
	"github.com/materials-graph/crystprep/preprocess"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Build a processed crystal graph cache",
	Long:  `Parse raw crystal dataset files, build periodic bond graphs, cache them, and fit the property scalers`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := globalConfig
		cfg.Mode = "preprocess"

		if err := cfg.Validate(); err != nil {
			fatal(err)
		}

		cfg.parseLabels()

		runID := uuid.NewString()

		monitor := NewMemoryMonitor(&cfg)
		monitor.Start()

		log.WithFields(log.Fields{"name": cfg.Name, "paths": cfg.SourcePaths, "save_path": cfg.SavePath,
			"prop": cfg.Prop, "graph_method": cfg.GraphMethod, "force": cfg.Force}).Info("Starting preprocess")

		start := time.Now()

		dataset, err := cryst.NewCrystDataset(cryst.DatasetConfig{
			Name:               cfg.Name,
			Paths:              cfg.SourcePaths,
			SavePath:           cfg.SavePath,
			Force:              cfg.Force,
			Prop:               cfg.Prop,
			Niggli:             cfg.Niggli,
			Primitive:          cfg.Primitive,
			GraphMethod:        cfg.GraphMethod,
			Workers:            cfg.Workers,
			LatticeScaleMethod: cfg.LatticeScaleMethod,
		}, preprocess.New(cfg.Cutoff, cfg.MaxNeighbors), h5store.New())
		if err != nil {
			fatal(err)
		}

		latticeScaler, err := cryst.FitScalerFromRecords(dataset.Records(), cryst.ScaledLatticeKey)
		if err != nil {
			fatal(err)
		}
		scaler, err := cryst.FitScalerFromRecords(dataset.Records(), cfg.Prop)
		if err != nil {
			fatal(err)
		}
		dataset.SetLatticeScaler(latticeScaler)
		dataset.SetScaler(scaler)

		totalAtoms, totalBonds := 0, 0
		for i := 0; i < dataset.Len(); i++ {
			sample, err := dataset.At(i)
			if err != nil {
				fatal(err)
			}
			totalAtoms += sample.NumAtoms
			totalBonds += sample.NumBonds
		}

		took := time.Since(start)
		monitor.Stop()

		log.WithFields(log.Fields{"records": dataset.Len(), "atoms": totalAtoms, "bonds": totalBonds,
			"duration": took}).Info("Preprocess result")
		log.Info(dataset.String())

		memstats := readMemoryMetrics()

		result := ResultsJSONPreprocess{
			RunID:              runID,
			Timestamp:          time.Now().Format(time.RFC3339),
			Dataset:            cfg.Name,
			SavePath:           cfg.SavePath,
			Prop:               cfg.Prop,
			GraphMethod:        cfg.GraphMethod,
			LatticeScaleMethod: cfg.LatticeScaleMethod,
			Records:            dataset.Len(),
			TotalAtoms:         totalAtoms,
			TotalBonds:         totalBonds,
			PreprocessTime:     took.Seconds(),
			Workers:            cfg.Workers,
			PropMean:           scaler.Means[0],
			PropStd:            scaler.Stds[0],
			HeapAllocBytes:     memstats.HeapAllocBytes,
			HeapInuseBytes:     memstats.HeapInuseBytes,
			HeapSysBytes:       memstats.HeapSysBytes,
		}

		if err := writeReport(&cfg, result); err != nil {
			log.WithError(err).Error("Failed to write preprocess report")
		}

		if err := PushMetricsToPrometheus(&cfg, &result); err != nil {
			log.WithError(err).Error("Failed to push metrics to Prometheus")
		}

		if err := PushMetricsToInfluxDB(&cfg, &result); err != nil {
			log.WithError(err).Error("Failed to push metrics to InfluxDB")
		}

		var w io.Writer
		if cfg.OutputFile == "" {
			w = os.Stdout
		} else {
			f, err := os.Create(cfg.OutputFile)
			if err != nil {
				fatal(err)
			}

			defer f.Close()
			w = f

		}

		if cfg.OutputFormat == "json" {
			result.WriteJSONTo(w)
		} else if cfg.OutputFormat == "text" {
			result.WriteTextTo(w)
		}

		if cfg.OutputFile != "" {
			infof("results succesfully written to %q", cfg.OutputFile)
		}
	},
}

func initPreprocess() {
	rootCmd.AddCommand(preprocessCmd)
	preprocessCmd.PersistentFlags().StringVarP(&globalConfig.Name,
		"name", "n", "crystals", "Name of the dataset, used in summaries and reports")
	preprocessCmd.PersistentFlags().StringSliceVarP(&globalConfig.SourcePaths,
		"paths", "i", nil, "Raw crystal dataset files (.json)")
	preprocessCmd.PersistentFlags().StringVarP(&globalConfig.SavePath,
		"save", "s", "", "Path for the processed cache file (.h5)")
	preprocessCmd.PersistentFlags().BoolVar(&globalConfig.Force,
		"force", false, "Recompute even if a processed cache file exists")
	preprocessCmd.PersistentFlags().StringVarP(&globalConfig.Prop,
		"prop", "y", "", "Regression property to extract and normalize")
	preprocessCmd.PersistentFlags().BoolVar(&globalConfig.Niggli,
		"niggli", true, "Whether source cells are niggli reduced")
	preprocessCmd.PersistentFlags().BoolVar(&globalConfig.Primitive,
		"primitive", false, "Whether source cells are primitive")
	preprocessCmd.PersistentFlags().StringVarP(&globalConfig.GraphMethod,
		"graphMethod", "g", "cutoff", "Graph construction method, one of [cutoff, none]")
	preprocessCmd.PersistentFlags().StringVar(&globalConfig.LatticeScaleMethod,
		"latticeScale", "scale_length", "Lattice scaling method, one of [scale_length, none]")
	preprocessCmd.PersistentFlags().IntVarP(&globalConfig.Workers,
		"workers", "w", 8, "Set the number of parallel preprocessing workers")
	preprocessCmd.PersistentFlags().Float64VarP(&globalConfig.Cutoff,
		"cutoff", "r", preprocess.DefaultCutoff, "Bond search radius in angstroms")
	preprocessCmd.PersistentFlags().IntVar(&globalConfig.MaxNeighbors,
		"maxNeighbors", 0, "Cap on bonds per atom, 0 for uncapped")
	preprocessCmd.PersistentFlags().StringVarP(&globalConfig.OutputFormat,
		"format", "f", "text", "Output format, one of [text, json]")
	preprocessCmd.PersistentFlags().StringVarP(&globalConfig.OutputFile,
		"output", "o", "", "Filename for an output file. If none provided, output to stdout only")
	preprocessCmd.PersistentFlags().StringVarP(&globalConfig.Labels,
		"labels", "l", "", "Labels of format key1=value1,key2=value2,...")
	preprocessCmd.PersistentFlags().BoolVar(&globalConfig.MemoryMonitoringEnabled,
		"monitorMemory", false, "Sample heap usage during the run and write it to the results directory")
	preprocessCmd.PersistentFlags().IntVar(&globalConfig.MemoryMonitoringInterval,
		"monitorInterval", 5, "Memory sampling interval in seconds")
	preprocessCmd.PersistentFlags().StringVar(&globalConfig.MemoryMonitoringFile,
		"monitorFile", "", "Filename for the memory samples under ./results, timestamped if empty")
	preprocessCmd.PersistentFlags().StringVar(&globalConfig.PrometheusConfig.PushURL,
		"pushgateway", "", "Prometheus pushgateway URL to report run metrics to")
	preprocessCmd.PersistentFlags().StringVar(&globalConfig.PrometheusConfig.JobName,
		"pushgatewayJob", "crystprep", "Prometheus pushgateway job name")
	preprocessCmd.PersistentFlags().StringVar(&globalConfig.InfluxDBConfig.URL,
		"influxdb", "", "InfluxDB URL to report run metrics to")
	preprocessCmd.PersistentFlags().StringVar(&globalConfig.InfluxDBConfig.Token,
		"influxdbToken", "", "InfluxDB access token")
	preprocessCmd.PersistentFlags().StringVar(&globalConfig.InfluxDBConfig.Org,
		"influxdbOrg", "", "InfluxDB organization")
	preprocessCmd.PersistentFlags().StringVar(&globalConfig.InfluxDBConfig.Bucket,
		"influxdbBucket", "crystprep", "InfluxDB bucket")
}
