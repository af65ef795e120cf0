package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validPreprocessConfig() Config {
	return Config{
		Mode:               "preprocess",
		Name:               "perov_train",
		SourcePaths:        []string{"train.json"},
		SavePath:           "train.h5",
		Prop:               "formation_energy",
		GraphMethod:        "cutoff",
		LatticeScaleMethod: "scale_length",
		Workers:            8,
		Cutoff:             6,
	}
}

func TestConfigValidatePreprocess(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no sources", func(c *Config) { c.SourcePaths = nil }, "source file"},
		{"no save path", func(c *Config) { c.SavePath = "" }, "save path"},
		{"no prop", func(c *Config) { c.Prop = "" }, "property"},
		{"bad graph method", func(c *Config) { c.GraphMethod = "voronoi" }, "graph method"},
		{"bad lattice scale", func(c *Config) { c.LatticeScaleMethod = "scale_volume" }, "lattice scale"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"zero cutoff", func(c *Config) { c.Cutoff = 0 }, "cutoff"},
		{"bad output format", func(c *Config) { c.OutputFormat = "yaml" }, "output format"},
		{"bad mode", func(c *Config) { c.Mode = "benchmark" }, "mode"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := validPreprocessConfig()
			test.mutate(&cfg)
			err := cfg.Validate()
			if test.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.Contains(t, err.Error(), test.wantErr)
			}
		})
	}
}

func TestConfigValidateDefaultsOutputFormat(t *testing.T) {
	cfg := validPreprocessConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "text", cfg.OutputFormat)
}

func TestConfigValidateDerivesReporting(t *testing.T) {
	cfg := validPreprocessConfig()
	require.NoError(t, cfg.Validate())
	require.False(t, cfg.PrometheusConfig.Enabled)
	require.False(t, cfg.InfluxDBConfig.Enabled)

	cfg.PrometheusConfig.PushURL = "http://localhost:9091"
	cfg.InfluxDBConfig.URL = "http://localhost:8086"
	require.NoError(t, cfg.Validate())
	require.True(t, cfg.PrometheusConfig.Enabled)
	require.True(t, cfg.InfluxDBConfig.Enabled)
}

func TestConfigValidateInspect(t *testing.T) {
	cfg := Config{Mode: "inspect", SavePath: "train.h5"}
	require.NoError(t, cfg.Validate())

	cfg.SavePath = ""
	require.Error(t, cfg.Validate())
}

func TestConfigValidateFetch(t *testing.T) {
	cfg := Config{Mode: "fetch", FetchURL: "http://example.com/perov.json", OutputFile: "perov.json"}
	require.NoError(t, cfg.Validate())

	cfg.OutputFile = ""
	require.Error(t, cfg.Validate())

	cfg = Config{Mode: "fetch", OutputFile: "perov.json"}
	require.Error(t, cfg.Validate())
}

func TestParseLabels(t *testing.T) {
	tests := []struct {
		input  string
		output map[string]string
	}{
		{"", map[string]string{}},
		{"team=materials", map[string]string{"team": "materials"}},
		{"team=materials,run=nightly", map[string]string{"team": "materials", "run": "nightly"}},
		{"note=a=b", map[string]string{"note": "a=b"}},
		{"dangling", map[string]string{}},
	}

	for _, test := range tests {
		cfg := Config{Labels: test.input}
		cfg.parseLabels()
		require.Equal(t, test.output, cfg.LabelMap)
	}
}
