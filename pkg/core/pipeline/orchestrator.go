// Package pipeline drives a filing through normalization, canonical
// resolution and metric computation.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"sec_extractor/pkg/core/calc"
	"sec_extractor/pkg/core/canonical"
	"sec_extractor/pkg/core/edgar"
	"sec_extractor/pkg/core/facts"
)

// FactSource retrieves the raw facts of one filing. Implementations may
// fetch from:
// - Live SEC EDGAR (edgar.XBRLSource)
// - A local fact dump (edgar.FileSource)
//
// Parse faults must be reported as errors matching edgar.ErrParse.
type FactSource interface {
	FetchFacts(ctx context.Context, req edgar.FilingRequest) ([]edgar.Fact, error)
}

// Request describes one extraction.
type Request struct {
	URL        string  `json:"url" yaml:"url"`
	ReportDate string  `json:"report_date" yaml:"report_date"` // YYYY-MM-DD
	Annual     bool    `json:"annual" yaml:"annual"`
	Price      float64 `json:"price" yaml:"price"`
}

// Status is the terminal state of an extraction.
type Status string

const (
	StatusComplete         Status = "complete"
	StatusParseFailed      Status = "parse_failed"
	StatusMandatoryMissing Status = "mandatory_missing"
)

// Result is the outcome of one extraction.
//
// On StatusComplete, Output holds the canonical fields and metrics. On
// StatusMandatoryMissing, Output is nil and Table holds the flattened facts
// as partial output. On StatusParseFailed both are empty.
type Result struct {
	Request  Request                `json:"request"`
	Status   Status                 `json:"status"`
	Output   map[string]facts.Value `json:"output,omitempty"`
	Table    *facts.Table           `json:"table,omitempty"`
	Warnings []facts.Warning        `json:"warnings,omitempty"`
	Err      string                 `json:"error,omitempty"`
}

// Extractor runs the extraction state machine:
//
//	Start -> Normalize -> Resolve -> Compute -> Drop -> Done
//
// A parse fault jumps straight to Done with an empty result; a missing share
// count stops after Resolve and returns the flattened table.
type Extractor struct {
	source   FactSource
	resolver *canonical.Resolver
	engine   *calc.Engine
	drop     []string
	log      *zap.Logger
}

// NewExtractor wires an extractor with the default field table and metrics.
func NewExtractor(source FactSource, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	resolver := canonical.NewResolver(nil, log)
	return &Extractor{
		source:   source,
		resolver: resolver,
		engine:   calc.NewEngine(nil, log),
		drop:     canonical.IntermediateFields(resolver.Fields()),
		log:      log,
	}
}

// WithFields replaces the canonical field table.
func (x *Extractor) WithFields(fields []canonical.FieldSpec) *Extractor {
	x.resolver = canonical.NewResolver(fields, x.log)
	x.drop = canonical.IntermediateFields(fields)
	return x
}

// Extract runs one filing through the pipeline. The error is non-nil only
// for an invalid request or a retrieval failure that is not a parse fault;
// every other outcome is described by the Result.
func (x *Extractor) Extract(ctx context.Context, req Request) (*Result, error) {
	log := x.log.With(zap.String("url", req.URL), zap.String("report_date", req.ReportDate))

	reportDate, err := time.Parse(edgar.DateLayout, req.ReportDate)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: invalid report date %q", req.ReportDate)
	}

	res := &Result{Request: req}

	raw, err := x.source.FetchFacts(ctx, edgar.FilingRequest{URL: req.URL, ReportDate: reportDate, Annual: req.Annual})
	if err != nil {
		if errors.Is(err, edgar.ErrParse) {
			log.Error("pipeline: filing could not be parsed", zap.Error(err))
			res.Status = StatusParseFailed
			res.Err = err.Error()
			return res, nil
		}
		return nil, eris.Wrap(err, "pipeline: fetch facts")
	}

	table, _ := facts.Flatten(raw, facts.Window{ReportDate: reportDate, Annual: req.Annual}, log)

	rec, warnings := x.resolver.Resolve(table)
	res.Warnings = append(res.Warnings, warnings...)

	if err := canonical.CheckMandatory(rec); err != nil {
		log.Error("pipeline: aborting filing, returning flattened table", zap.Error(err))
		res.Status = StatusMandatoryMissing
		res.Table = table
		res.Err = err.Error()
		return res, nil
	}

	metrics, warnings := x.engine.Compute(rec, req.Price)
	res.Warnings = append(res.Warnings, warnings...)

	res.Output = merge(rec, metrics, x.drop)
	res.Status = StatusComplete
	log.Info("pipeline: filing extracted",
		zap.Int("facts", len(raw)),
		zap.Int("fields", len(res.Output)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

func merge(rec canonical.Record, metrics calc.Metrics, drop []string) map[string]facts.Value {
	out := make(map[string]facts.Value, len(rec)+len(metrics))
	for k, v := range rec {
		out[k] = v
	}
	for k, v := range metrics {
		out[k] = v
	}
	for _, k := range drop {
		delete(out, k)
	}
	return out
}
