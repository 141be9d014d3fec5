package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"sec_extractor/pkg/core/edgar"
	"sec_extractor/pkg/core/facts"
	"sec_extractor/pkg/core/pipeline"
)

func TestIsDigits(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"320193", true},
		{"0000320193", true},
		{"AAPL", false},
		{"BRK.B", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := isDigits(tt.in); got != tt.want {
				t.Errorf("isDigits(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDay(t *testing.T) {
	if got := day(time.Time{}); got != "-" {
		t.Errorf("day(zero) = %q", got)
	}
	if got := day(time.Date(2020, 9, 26, 0, 0, 0, 0, time.UTC)); got != "2020-09-26" {
		t.Errorf("day() = %q", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"extract": false, "batch": false, "facts": false, "filings": false, "version": false, "cache": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %s not registered", name)
		}
	}
}

const customFields = `
- name: shares
  aliases: [WeightedAverageNumberOfSharesOutstandingBasic]
- name: number_of_shares
  aliases: [WeightedAverageNumberOfSharesOutstandingBasic]
- name: sales
  aliases: [Revenues, RevenueFromContractWithCustomerExcludingAssessedTax]
`

const factDump = `{
  "facts": [
    {"concept": "Revenues", "value": "274515000000", "start": "2019-09-29", "end": "2020-09-26"},
    {"concept": "WeightedAverageNumberOfSharesOutstandingBasic", "value": "17352119000", "start": "2019-09-29", "end": "2020-09-26"}
  ]
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestNewExtractor_FieldsFlag(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("fields", writeFile(t, "fields.yaml", customFields), "")

	x, err := newExtractor(cmd, edgar.FileSource{Path: writeFile(t, "facts.hjson", factDump)})
	if err != nil {
		t.Fatalf("newExtractor() error = %v", err)
	}
	res, err := x.Extract(context.Background(), pipeline.Request{URL: "dump", ReportDate: "2020-09-26", Annual: true, Price: 1})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Status != pipeline.StatusComplete {
		t.Fatalf("Status = %s (%s)", res.Status, res.Err)
	}
	if got := res.Output["sales"]; !got.Equal(facts.Int(274515000000)) {
		t.Errorf("sales = %v", got)
	}
	if _, ok := res.Output["revenue"]; ok {
		t.Error("built-in fields should be replaced by the --fields table")
	}
}

func TestNewExtractor_FieldsErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "absent.yaml")},
		{"invalid table", writeFile(t, "bad.yaml", "- name: x\n  aliases: []\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.Flags().String("fields", tt.path, "")
			if _, err := newExtractor(cmd, edgar.FileSource{}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
