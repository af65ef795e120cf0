package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/materials-graph/crystprep/cryst"
	"github.com/materials-graph/crystprep/h5store"
)

type cacheSummary struct {
	Path     string   `json:"path"`
	Records  int      `json:"records"`
	Atoms    int      `json:"atoms"`
	Bonds    int      `json:"bonds"`
	MinAtoms int      `json:"min_atoms"`
	MaxAtoms int      `json:"max_atoms"`
	Props    []string `json:"props"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize a processed crystal graph cache",
	Long:  `Load a processed cache file and print record, atom, bond and property statistics`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := globalConfig
		cfg.Mode = "inspect"

		if err := cfg.Validate(); err != nil {
			fatal(err)
		}

		records, err := h5store.New().Load(cfg.SavePath)
		if err != nil {
			fatal(err)
		}

		summary, err := summarize(cfg.SavePath, records)
		if err != nil {
			fatal(err)
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
			data, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				fatal(err)
			}
			w.Write(data)
		} else {
			fmt.Fprintf(w, "Cache %s\nRecords: %d\nAtoms: %d (min %d, max %d)\nBonds: %d\nProps: %v\n",
				summary.Path, summary.Records, summary.Atoms, summary.MinAtoms, summary.MaxAtoms, summary.Bonds, summary.Props)
		}

		if cfg.OutputFile != "" {
			infof("summary succesfully written to %q", cfg.OutputFile)
		}
	},
}

func initInspect() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.PersistentFlags().StringVarP(&globalConfig.SavePath,
		"save", "s", "", "Path of the processed cache file (.h5)")
	inspectCmd.PersistentFlags().StringVarP(&globalConfig.OutputFormat,
		"format", "f", "text", "Output format, one of [text, json]")
	inspectCmd.PersistentFlags().StringVarP(&globalConfig.OutputFile,
		"output", "o", "", "Filename for an output file. If none provided, output to stdout only")
}

func summarize(path string, records []cryst.Record) (cacheSummary, error) {
	summary := cacheSummary{Path: path, Records: len(records)}

	propKeys := map[string]bool{}
	for i, rec := range records {
		if err := rec.Graph.Validate(); err != nil {
			return cacheSummary{}, err
		}
		n := rec.Graph.NumAtoms
		summary.Atoms += n
		summary.Bonds += rec.Graph.NumBonds()
		if i == 0 || n < summary.MinAtoms {
			summary.MinAtoms = n
		}
		if n > summary.MaxAtoms {
			summary.MaxAtoms = n
		}
		for key := range rec.Props {
			propKeys[key] = true
		}
	}

	summary.Props = maps.Keys(propKeys)
	slices.Sort(summary.Props)
	return summary, nil
}
