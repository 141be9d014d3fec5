package pipeline

import (
	"testing"
)

func TestParseJobs(t *testing.T) {
	data := []byte(`
workers: 3
jobs:
  - url: https://www.sec.gov/a.htm
    report_date: "2020-09-26"
    annual: true
    price: 112.28
  - url: https://www.sec.gov/b.htm
    report_date: "2021-03-27"
`)
	jf, err := ParseJobs(data)
	if err != nil {
		t.Fatalf("ParseJobs() error = %v", err)
	}
	if jf.Workers != 3 || len(jf.Jobs) != 2 {
		t.Fatalf("ParseJobs() = %+v", jf)
	}
	want := Request{URL: "https://www.sec.gov/a.htm", ReportDate: "2020-09-26", Annual: true, Price: 112.28}
	if jf.Jobs[0] != want {
		t.Errorf("Jobs[0] = %+v, want %+v", jf.Jobs[0], want)
	}
	if jf.Jobs[1].Annual {
		t.Error("annual should default to false")
	}
}

func TestParseJobs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no url", "jobs:\n  - report_date: \"2020-09-26\"\n"},
		{"no date", "jobs:\n  - url: x\n"},
		{"unknown key", "jobs:\n  - url: x\n    report_date: \"2020-09-26\"\n    ticker: AAPL\n"},
		{"not yaml", "jobs: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseJobs([]byte(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestMarshalJobs_RoundTrip(t *testing.T) {
	reqs := []Request{appleRequest}
	data, err := MarshalJobs(reqs)
	if err != nil {
		t.Fatalf("MarshalJobs() error = %v", err)
	}
	jf, err := ParseJobs(data)
	if err != nil {
		t.Fatalf("ParseJobs() error = %v\n%s", err, data)
	}
	if len(jf.Jobs) != 1 || jf.Jobs[0] != appleRequest {
		t.Errorf("round trip = %+v", jf.Jobs)
	}
}
