package pipeline

import (
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v2"
)

// JobFile is the YAML layout accepted by the batch command:
//
//	workers: 4
//	jobs:
//	  - url: https://www.sec.gov/Archives/edgar/data/320193/.../aapl-20200926.htm
//	    report_date: "2020-09-26"
//	    annual: true
//	    price: 112.28
type JobFile struct {
	Workers int       `yaml:"workers,omitempty"`
	Jobs    []Request `yaml:"jobs"`
}

// ParseJobs decodes a job file and checks that every job names a filing
// and a report date.
func ParseJobs(data []byte) (*JobFile, error) {
	var jf JobFile
	if err := yaml.UnmarshalStrict(data, &jf); err != nil {
		return nil, eris.Wrap(err, "pipeline: decode job file")
	}
	for i, j := range jf.Jobs {
		if j.URL == "" {
			return nil, eris.Errorf("pipeline: job %d has no url", i)
		}
		if j.ReportDate == "" {
			return nil, eris.Errorf("pipeline: job %d (%s) has no report_date", i, j.URL)
		}
	}
	return &jf, nil
}

// MarshalJobs renders requests in the job file layout.
func MarshalJobs(reqs []Request) ([]byte, error) {
	data, err := yaml.Marshal(JobFile{Jobs: reqs})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: encode job file")
	}
	return data, nil
}
