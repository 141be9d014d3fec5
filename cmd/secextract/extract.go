package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sec_extractor/pkg/core/edgar"
	"sec_extractor/pkg/core/pipeline"
	"sec_extractor/pkg/core/report"
)

// --- Extract Command ---

var extractCmd = &cobra.Command{
	Use:   "extract [filing-url]",
	Short: "Extract canonical fields and metrics from one filing",
	Long: `Extract canonical fields and metrics from one filing.

Examples:
  secextract extract https://www.sec.gov/Archives/edgar/data/320193/000032019320000096/aapl-20200926.htm \
      --report-date 2020-09-26 --annual --price 112.28
  secextract extract --facts-file aapl-2020.hjson --report-date 2020-09-26 --annual --format markdown`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reportDate, _ := cmd.Flags().GetString("report-date")
		annual, _ := cmd.Flags().GetBool("annual")
		price, _ := cmd.Flags().GetFloat64("price")
		factsFile, _ := cmd.Flags().GetString("facts-file")
		formatName, _ := cmd.Flags().GetString("format")

		format, err := report.ParseFormat(formatName)
		if err != nil {
			return err
		}

		req := pipeline.Request{ReportDate: reportDate, Annual: annual, Price: price}
		if len(args) == 1 {
			req.URL = args[0]
		}

		var source pipeline.FactSource
		switch {
		case factsFile != "":
			source = edgar.FileSource{Path: factsFile}
			if req.URL == "" {
				req.URL = factsFile
			}
		case req.URL != "":
			client, closer, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()
			source = edgar.NewXBRLSource(client, log)
		default:
			return fmt.Errorf("provide a filing URL or --facts-file")
		}

		x, err := newExtractor(cmd, source)
		if err != nil {
			return err
		}
		res, err := x.Extract(cmd.Context(), req)
		if err != nil {
			return err
		}

		w, err := output(cmd)
		if err != nil {
			return err
		}
		defer w.Close()
		if err := report.Write(w, format, res); err != nil {
			return err
		}
		if res.Status != pipeline.StatusComplete {
			log.Warn("extract: filing not fully extracted", zap.String("status", string(res.Status)))
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().String("report-date", "", "reporting period end date (YYYY-MM-DD)")
	extractCmd.Flags().Bool("annual", false, "treat the filing as an annual report (default quarterly)")
	extractCmd.Flags().Float64("price", 0, "share price used for market metrics")
	extractCmd.Flags().String("facts-file", "", "read facts from a JSON/HJSON dump instead of fetching")
	extractCmd.Flags().String("fields", "", "canonical field table (fields.yaml format) replacing the built-in one")
	extractCmd.Flags().String("format", "json", "output format (json, markdown, html)")
	extractCmd.Flags().String("out", "", "write output to a file instead of stdout")
	_ = extractCmd.MarkFlagRequired("report-date")
}

// --- Facts Command ---

var factsCmd = &cobra.Command{
	Use:   "facts [filing-url]",
	Short: "Dump every XBRL fact in a filing",
	Long: `Download a filing and write its raw facts in the dump format accepted
by extract --facts-file. The dump can be edited by hand (HJSON is accepted).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, closer, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer closer.Close()

		start := time.Now()
		raw, err := edgar.NewXBRLSource(client, log).FetchFacts(cmd.Context(), edgar.FilingRequest{URL: args[0]})
		if err != nil {
			return err
		}
		data, err := edgar.EncodeFacts(args[0], raw)
		if err != nil {
			return err
		}

		w, err := output(cmd)
		if err != nil {
			return err
		}
		defer w.Close()
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%d facts in %v\n", len(raw), time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	factsCmd.Flags().String("out", "", "write the dump to a file instead of stdout")
}
