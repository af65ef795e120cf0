package cmd

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/materials-graph/crystprep/cryst"
)

type Config struct {
	Mode                     string
	Name                     string
	SourcePaths              []string
	SavePath                 string
	Force                    bool
	Prop                     string
	Niggli                   bool
	Primitive                bool
	GraphMethod              string
	LatticeScaleMethod       string
	Workers                  int
	Cutoff                   float64
	MaxNeighbors             int
	OutputFormat             string
	OutputFile               string
	FetchURL                 string
	Labels                   string
	LabelMap                 map[string]string
	MemoryMonitoringEnabled  bool
	MemoryMonitoringInterval int
	MemoryMonitoringFile     string
	PrometheusConfig         PrometheusConfig
	InfluxDBConfig           InfluxDBConfig
}

func (c *Config) Validate() error {
	if err := c.validateCommon(); err != nil {
		return err
	}

	// validate specific
	switch c.Mode {
	case "preprocess":
		return c.validatePreprocess()
	case "inspect":
		return c.validateInspect()
	case "fetch":
		return c.validateFetch()
	default:
		return errors.Errorf("unrecognized mode %q", c.Mode)
	}
}

func (c *Config) validateCommon() error {
	switch c.OutputFormat {
	case "text", "":
		c.OutputFormat = "text"
	case "json":
	default:
		return errors.Errorf("unsupported output format %q, must be one of [text, json]",
			c.OutputFormat)

	}

	c.PrometheusConfig.Enabled = c.PrometheusConfig.PushURL != ""
	c.InfluxDBConfig.Enabled = c.InfluxDBConfig.URL != ""

	return nil
}

func (c Config) validatePreprocess() error {
	if len(c.SourcePaths) == 0 {
		return errors.Errorf("at least one crystal source file must be provided")
	}

	if c.SavePath == "" {
		return errors.Errorf("a save path for the processed cache must be provided")
	}

	if c.Prop == "" {
		return errors.Errorf("a regression property must be set")
	}

	if !cryst.ValidGraphMethod(c.GraphMethod) {
		return errors.Errorf("unsupported graph method %q, must be one of [cutoff, none]", c.GraphMethod)
	}

	if !cryst.ValidLatticeScaleMethod(c.LatticeScaleMethod) {
		return errors.Errorf("unsupported lattice scale method %q, must be one of [scale_length, none]", c.LatticeScaleMethod)
	}

	if c.Workers <= 0 {
		return errors.Errorf("workers must be larger than 0")
	}

	if c.Cutoff <= 0 {
		return errors.Errorf("cutoff radius must be larger than 0")
	}

	return nil
}

func (c Config) validateInspect() error {
	if c.SavePath == "" {
		return errors.Errorf("a processed cache file must be provided")
	}

	return nil
}

func (c Config) validateFetch() error {
	if c.FetchURL == "" {
		return errors.Errorf("a dataset url must be provided")
	}

	if c.OutputFile == "" {
		return errors.Errorf("an output file must be provided")
	}

	return nil
}

func (c *Config) parseLabels() {
	result := make(map[string]string)
	pairs := strings.Split(c.Labels, ",")

	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2) // SplitN to make sure we only split on the first "="
		if len(kv) == 2 {
			result[kv[0]] = kv[1]
		}
	}

	c.LabelMap = result
}
