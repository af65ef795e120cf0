package cmd

import (
	"io"
	"os"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a raw crystal dataset file",
	Long:  `Download a raw crystal dataset file over HTTP with retries, for later preprocessing`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := globalConfig
		cfg.Mode = "fetch"

		if err := cfg.Validate(); err != nil {
			fatal(err)
		}

		client := retryablehttp.NewClient()
		client.RetryMax = 5
		client.Logger = nil

		log.WithFields(log.Fields{"url": cfg.FetchURL, "output": cfg.OutputFile}).Info("Fetching dataset")

		resp, err := client.Get(cfg.FetchURL)
		if err != nil {
			fatal(err)
		}
		defer resp.Body.Close()

		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			fatal(err)
		}
		defer f.Close()

		written, err := io.Copy(f, resp.Body)
		if err != nil {
			fatal(err)
		}

		log.WithFields(log.Fields{"bytes": written, "output": cfg.OutputFile}).Info("Dataset fetched")
	},
}

func initFetch() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.PersistentFlags().StringVarP(&globalConfig.FetchURL,
		"url", "u", "", "URL of the raw crystal dataset file")
	fetchCmd.PersistentFlags().StringVarP(&globalConfig.OutputFile,
		"output", "o", "", "Filename to store the downloaded dataset")
}
