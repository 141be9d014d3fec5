// Package edgar retrieves SEC EDGAR filings and turns their XBRL markup into
// a flat sequence of facts.
package edgar

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// ErrParse marks a document that could not be read as XBRL. Callers treat it
// as fatal for the filing.
var ErrParse = errors.New("edgar: document is not parseable XBRL")

// DateLayout is the calendar date format used by filings and requests.
const DateLayout = "2006-01-02"

// Fact is a single tagged value from a filing.
//
// Duration contexts set PeriodStart and PeriodEnd. Instant contexts set only
// Instant, so they carry no explicit end date.
type Fact struct {
	// Concept is the local name without the taxonomy prefix, e.g. "Assets".
	Concept string
	// Value is the raw text with sign and scale already applied.
	Value       string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Instant     *time.Time
	Dimensional bool
	ContextRef  string
	UnitRef     string
}

// factJSON is the dump representation of a Fact: dates as YYYY-MM-DD and the
// value as either a JSON string or a bare number.
type factJSON struct {
	Concept     string          `json:"concept"`
	Value       json.RawMessage `json:"value"`
	Start       string          `json:"start,omitempty"`
	End         string          `json:"end,omitempty"`
	Instant     string          `json:"instant,omitempty"`
	Dimensional bool            `json:"dimensional,omitempty"`
	Context     string          `json:"context,omitempty"`
	Unit        string          `json:"unit,omitempty"`
}

func (f Fact) MarshalJSON() ([]byte, error) {
	value, err := json.Marshal(f.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(factJSON{
		Concept:     f.Concept,
		Value:       value,
		Start:       formatDate(f.PeriodStart),
		End:         formatDate(f.PeriodEnd),
		Instant:     formatDate(f.Instant),
		Dimensional: f.Dimensional,
		Context:     f.ContextRef,
		Unit:        f.UnitRef,
	})
}

func (f *Fact) UnmarshalJSON(data []byte) error {
	var j factJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	var value string
	raw := bytes.TrimSpace(j.Value)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &value); err != nil {
			return err
		}
	default:
		value = string(raw)
	}
	*f = Fact{
		Concept:     j.Concept,
		Value:       value,
		PeriodStart: parseDate(j.Start),
		PeriodEnd:   parseDate(j.End),
		Instant:     parseDate(j.Instant),
		Dimensional: j.Dimensional,
		ContextRef:  j.Context,
		UnitRef:     j.Unit,
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// FilingRequest addresses one filing and the period the caller wants.
type FilingRequest struct {
	URL        string
	ReportDate time.Time
	Annual     bool
}

// FilingMetadata describes a filing listed in a company's submissions.
type FilingMetadata struct {
	CIK             string    `json:"cik"`
	CompanyName     string    `json:"company_name"`
	AccessionNumber string    `json:"accession_number"`
	Form            string    `json:"form"` // "10-K", "10-Q"
	IsAmended       bool      `json:"is_amended"`
	FilingDate      time.Time `json:"filing_date"`
	ReportDate      time.Time `json:"report_date"`
	PrimaryDocument string    `json:"primary_document"`
	FilingURL       string    `json:"filing_url"`
}

// Annual reports whether the form is an annual report.
func (m FilingMetadata) Annual() bool {
	return m.Form == "10-K" || m.Form == "10-K/A"
}
