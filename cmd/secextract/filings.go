package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"sec_extractor/pkg/core/edgar"
	"sec_extractor/pkg/core/pipeline"
)

// --- Filings Command ---

var filingsCmd = &cobra.Command{
	Use:   "filings [ticker|cik]",
	Short: "List a company's recent periodic filings",
	Long: `List a company's recent 10-K and 10-Q filings from SEC submissions.

Examples:
  secextract filings AAPL
  secextract filings 320193 --forms 10-K --limit 5
  secextract filings AAPL --jobs --out jobs.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		forms, _ := cmd.Flags().GetStringSlice("forms")
		limit, _ := cmd.Flags().GetInt("limit")
		asJobs, _ := cmd.Flags().GetBool("jobs")

		client, closer, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer closer.Close()
		subs := edgar.NewSubmissions(client, time.Hour)

		cik := strings.TrimSpace(args[0])
		if !isDigits(cik) {
			if cik, err = subs.LookupCIK(cmd.Context(), cik); err != nil {
				return err
			}
		}
		info, err := subs.CompanyInfo(cmd.Context(), cik)
		if err != nil {
			return err
		}
		filings := subs.Filings(info, forms, limit)

		w, err := output(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		if asJobs {
			reqs := make([]pipeline.Request, 0, len(filings))
			for _, f := range filings {
				if f.ReportDate.IsZero() {
					continue
				}
				reqs = append(reqs, pipeline.Request{
					URL:        f.FilingURL,
					ReportDate: f.ReportDate.Format(edgar.DateLayout),
					Annual:     f.Annual(),
				})
			}
			data, err := pipeline.MarshalJobs(reqs)
			if err != nil {
				return err
			}
			_, err = w.Write(data)
			return err
		}

		fmt.Fprintf(os.Stderr, "%s (CIK %s)\n", info.Name, edgar.PadCIK(cik))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FORM\tFILED\tPERIOD\tURL")
		for _, f := range filings {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Form, day(f.FilingDate), day(f.ReportDate), f.FilingURL)
		}
		return tw.Flush()
	},
}

func init() {
	filingsCmd.Flags().StringSlice("forms", []string{"10-K", "10-Q"}, "form types to keep (empty keeps all)")
	filingsCmd.Flags().Int("limit", 20, "maximum filings to list (0 for no limit)")
	filingsCmd.Flags().Bool("jobs", false, "emit a batch job file instead of a table")
	filingsCmd.Flags().String("out", "", "write output to a file instead of stdout")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(edgar.DateLayout)
}
