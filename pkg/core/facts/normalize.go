package facts

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sec_extractor/pkg/core/edgar"
)

const (
	// daysPerMonth converts a context's length in days to months.
	daysPerMonth = 30.5

	// maxTextLen bounds free-text facts; longer values are narrative markup.
	maxTextLen = 100
)

// Window is the reporting period a flattened table is built for.
type Window struct {
	ReportDate time.Time
	Annual     bool
}

// monthBounds returns the accepted context length in months, inclusive.
func (w Window) monthBounds() (lo, hi float64) {
	if w.Annual {
		return 11, 14
	}
	return 2.5, 4.5
}

// DropReason says why a fact was excluded.
type DropReason uint8

const (
	DropNone DropReason = iota
	DropDimensional
	DropPeriodMismatch
	DropDuration
	DropMarkup
)

func (r DropReason) String() string {
	switch r {
	case DropDimensional:
		return "dimensional"
	case DropPeriodMismatch:
		return "period_mismatch"
	case DropDuration:
		return "duration"
	case DropMarkup:
		return "markup"
	}
	return "accepted"
}

// Stats counts the outcome of flattening a fact sequence.
type Stats struct {
	Accepted int
	Dropped  map[DropReason]int
}

// Normalize applies the period filter and type coercion to one fact.
// The returned reason is DropNone when the value should be kept.
func Normalize(f edgar.Fact, w Window) (Value, DropReason) {
	if f.Dimensional {
		return Null(), DropDimensional
	}
	if f.PeriodEnd != nil && !sameDay(*f.PeriodEnd, w.ReportDate) {
		return Null(), DropPeriodMismatch
	}
	if f.PeriodStart != nil && f.PeriodEnd != nil {
		days := float64(daysBetween(*f.PeriodStart, *f.PeriodEnd))
		months := days / daysPerMonth
		lo, hi := w.monthBounds()
		if months < lo || months > hi {
			return Null(), DropDuration
		}
	}
	return Coerce(f.Value)
}

// Coerce converts raw fact text to a typed Value.
//
// Numeric text becomes an int when it is integral and a float otherwise.
// Other text longer than 100 characters is rejected, yes/true and no/false
// map to booleans, and anything of at most one character is null.
func Coerce(raw string) (Value, DropReason) {
	if v, ok := parseNumber(raw); ok {
		return v, DropNone
	}
	if utf8.RuneCountInString(raw) > maxTextLen {
		return Null(), DropMarkup
	}
	switch strings.ToLower(raw) {
	case "true", "yes":
		return Bool(true), DropNone
	case "false", "no":
		return Bool(false), DropNone
	}
	if utf8.RuneCountInString(raw) <= 1 {
		return Null(), DropNone
	}
	return String(raw), DropNone
}

func parseNumber(raw string) (Value, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null(), false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		// Non-finite spellings such as "inf" and "nan".
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return Null(), false
		}
		return Float(f), true
	}
	if d.IsInteger() {
		if bi := d.BigInt(); bi.IsInt64() {
			return Int(bi.Int64()), true
		}
	}
	f, _ := d.Float64()
	return Float(f), true
}

// Flatten normalizes every fact in order and appends the accepted values to
// their concept's sequence.
func Flatten(in []edgar.Fact, w Window, log *zap.Logger) (*Table, Stats) {
	if log == nil {
		log = zap.NewNop()
	}
	t := NewTable()
	stats := Stats{Dropped: make(map[DropReason]int)}
	for _, f := range in {
		v, reason := Normalize(f, w)
		if reason != DropNone {
			stats.Dropped[reason]++
			continue
		}
		t.Append(f.Concept, v)
		stats.Accepted++
	}
	log.Debug("facts: flattened",
		zap.Int("input", len(in)),
		zap.Int("accepted", stats.Accepted),
		zap.Int("concepts", t.Len()),
		zap.Int("dimensional", stats.Dropped[DropDimensional]),
		zap.Int("period_mismatch", stats.Dropped[DropPeriodMismatch]),
		zap.Int("duration", stats.Dropped[DropDuration]),
		zap.Int("markup", stats.Dropped[DropMarkup]),
	)
	return t, stats
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// daysBetween counts whole calendar days from start to end.
func daysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}
