package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
)

const (
	// SEC EDGAR API endpoints
	SubmissionsURL    = "https://data.sec.gov/submissions/CIK%s.json"
	FilingURL         = "https://www.sec.gov/Archives/edgar/data/%s/%s/%s"
	CompanyTickersURL = "https://www.sec.gov/files/company_tickers.json"

	tickerMapKey = "company_tickers"
)

// PadCIK left-pads a central index key with zeros to 10 characters.
// Keys already 10 characters or longer are returned unchanged.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// =============================================================================
// SUBMISSIONS DATA TYPES
// =============================================================================

// CompanyInfo is the top-level company submissions response.
type CompanyInfo struct {
	CIK     string            `json:"cik"`
	Name    string            `json:"name"`
	Tickers []string          `json:"tickers"`
	Filings SubmissionFilings `json:"filings"`
}

// SubmissionFilings wraps the recent filing list.
type SubmissionFilings struct {
	Recent RecentFilings `json:"recent"`
}

// RecentFilings holds filing attributes as parallel arrays.
type RecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"` // e.g., "0000320193-20-000096"
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"` // fiscal period end
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
	IsInlineXBRL    []int    `json:"isInlineXBRL"`
}

// =============================================================================
// SUBMISSIONS CLIENT
// =============================================================================

// Submissions looks up companies and their filings. Responses are memoised
// in memory for the lifetime of the process.
type Submissions struct {
	client *Client
	memo   *cache.Cache
}

// NewSubmissions creates a submissions client on top of an EDGAR client.
func NewSubmissions(client *Client, ttl time.Duration) *Submissions {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Submissions{client: client, memo: cache.New(ttl, 2*ttl)}
}

// CompanyInfo retrieves submission data for a CIK. The CIK is padded
// automatically.
func (s *Submissions) CompanyInfo(ctx context.Context, cik string) (*CompanyInfo, error) {
	cik = PadCIK(strings.TrimLeft(strings.TrimSpace(cik), "0"))
	if v, ok := s.memo.Get("cik:" + cik); ok {
		return v.(*CompanyInfo), nil
	}

	body, err := s.client.fetch(ctx, fmt.Sprintf(SubmissionsURL, cik))
	if err != nil {
		return nil, err
	}
	var info CompanyInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, eris.Wrapf(err, "edgar: decode submissions for %s", cik)
	}
	s.memo.SetDefault("cik:"+cik, &info)
	return &info, nil
}

// LookupCIK maps a ticker symbol to its zero-padded CIK using SEC's
// company_tickers.json file.
func (s *Submissions) LookupCIK(ctx context.Context, ticker string) (string, error) {
	tickers, err := s.tickerMap(ctx)
	if err != nil {
		return "", err
	}
	cik, ok := tickers[strings.ToUpper(strings.TrimSpace(ticker))]
	if !ok {
		return "", eris.Errorf("edgar: ticker %s not found", ticker)
	}
	return cik, nil
}

func (s *Submissions) tickerMap(ctx context.Context) (map[string]string, error) {
	if v, ok := s.memo.Get(tickerMapKey); ok {
		return v.(map[string]string), nil
	}
	body, err := s.client.fetch(ctx, CompanyTickersURL)
	if err != nil {
		return nil, err
	}

	// { "0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}, ... }
	var raw map[string]struct {
		CIK    int64  `json:"cik_str"`
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "edgar: decode ticker map")
	}
	out := make(map[string]string, len(raw))
	for _, e := range raw {
		out[strings.ToUpper(e.Ticker)] = PadCIK(strconv.FormatInt(e.CIK, 10))
	}
	s.memo.SetDefault(tickerMapKey, out)
	return out, nil
}

// Filings denormalizes the parallel arrays into FilingMetadata, keeping
// only the given forms (nil keeps all). limit <= 0 means no limit.
func (s *Submissions) Filings(info *CompanyInfo, forms []string, limit int) []FilingMetadata {
	recent := info.Filings.Recent
	want := make(map[string]bool, len(forms))
	for _, f := range forms {
		want[f] = true
	}

	cik := strings.TrimLeft(info.CIK, "0")
	var out []FilingMetadata
	for i := range recent.AccessionNumber {
		if i >= len(recent.Form) || i >= len(recent.PrimaryDocument) {
			break
		}
		form := recent.Form[i]
		if len(want) > 0 && !want[form] {
			continue
		}

		accession := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		meta := FilingMetadata{
			CIK:             PadCIK(cik),
			CompanyName:     info.Name,
			AccessionNumber: recent.AccessionNumber[i],
			Form:            form,
			IsAmended:       strings.HasSuffix(form, "/A"),
			PrimaryDocument: recent.PrimaryDocument[i],
			FilingURL:       fmt.Sprintf(FilingURL, cik, accession, recent.PrimaryDocument[i]),
		}
		if i < len(recent.FilingDate) {
			meta.FilingDate, _ = time.Parse(DateLayout, recent.FilingDate[i])
		}
		if i < len(recent.ReportDate) {
			meta.ReportDate, _ = time.Parse(DateLayout, recent.ReportDate[i])
		}
		out = append(out, meta)

		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
