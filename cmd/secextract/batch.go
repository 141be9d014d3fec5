package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sec_extractor/pkg/core/edgar"
	"sec_extractor/pkg/core/pipeline"
	"sec_extractor/pkg/core/report"
)

// --- Batch Command ---

var batchCmd = &cobra.Command{
	Use:   "batch [jobs.yaml]",
	Short: "Extract several filings concurrently",
	Long: `Extract every filing listed in a YAML job file.

Job file layout:
  workers: 4
  jobs:
    - url: https://www.sec.gov/Archives/edgar/data/320193/000032019320000096/aapl-20200926.htm
      report_date: "2020-09-26"
      annual: true
      price: 112.28

A job file can be generated with: secextract filings AAPL --jobs`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")
		workers, _ := cmd.Flags().GetInt("workers")

		format, err := report.ParseFormat(formatName)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read job file: %w", err)
		}
		jf, err := pipeline.ParseJobs(data)
		if err != nil {
			return err
		}
		if workers <= 0 {
			workers = jf.Workers
		}
		if workers <= 0 {
			workers = cfg.Pipeline.Workers
		}

		client, closer, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer closer.Close()

		x, err := newExtractor(cmd, edgar.NewXBRLSource(client, log))
		if err != nil {
			return err
		}
		results, batchErr := x.ExtractBatch(cmd.Context(), jf.Jobs, workers)

		w, err := output(cmd)
		if err != nil {
			return err
		}
		defer w.Close()
		if err := report.Write(w, format, results...); err != nil {
			return err
		}
		return batchErr
	},
}

func init() {
	batchCmd.Flags().Int("workers", 0, "concurrent filings (default: job file, then config)")
	batchCmd.Flags().String("fields", "", "canonical field table (fields.yaml format) replacing the built-in one")
	batchCmd.Flags().String("format", "json", "output format (json, markdown, html)")
	batchCmd.Flags().String("out", "", "write output to a file instead of stdout")
}
