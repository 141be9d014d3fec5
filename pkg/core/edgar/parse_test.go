package edgar

import (
	"errors"
	"fmt"
	"testing"
)

const inlineDoc = `<html xmlns="http://www.w3.org/1999/xhtml" xmlns:ix="http://www.xbrl.org/2013/inlineXBRL">
<body>
<div style="display:none"><ix:header><ix:hidden>
<ix:nonNumeric name="dei:DocumentPeriodEndDate" contextRef="FY2020">September 26, 2020</ix:nonNumeric>
<ix:nonNumeric name="dei:EntityCentralIndexKey" contextRef="FY2020">0000320193</ix:nonNumeric>
</ix:hidden>
<ix:resources>
<xbrli:context id="FY2020"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000320193</xbrli:identifier></xbrli:entity>
<xbrli:period><xbrli:startDate>2019-09-29</xbrli:startDate><xbrli:endDate>2020-09-26</xbrli:endDate></xbrli:period></xbrli:context>
<xbrli:context id="I2020"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000320193</xbrli:identifier></xbrli:entity>
<xbrli:period><xbrli:instant>2020-09-26</xbrli:instant></xbrli:period></xbrli:context>
<xbrli:context id="I2020_iPhone"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000320193</xbrli:identifier>
<xbrli:segment><xbrldi:explicitMember dimension="srt:ProductOrServiceAxis">us-gaap:IPhoneMember</xbrldi:explicitMember></xbrli:segment></xbrli:entity>
<xbrli:period><xbrli:instant>2020-09-26</xbrli:instant></xbrli:period></xbrli:context>
</ix:resources></ix:header></div>
<table>
<tr><td>Net sales</td><td><ix:nonFraction name="us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax" contextRef="FY2020" unitRef="usd" scale="6" decimals="-6" format="ixt:num-dot-decimal">274,515</ix:nonFraction></td></tr>
<tr><td>Assets</td><td><ix:nonFraction name="us-gaap:AssetsCurrent" contextRef="I2020" unitRef="usd" scale="6" format="ixt:num-dot-decimal">143,713</ix:nonFraction></td></tr>
<tr><td>Repeated</td><td><ix:nonFraction name="us-gaap:AssetsCurrent" contextRef="I2020" unitRef="usd" scale="6" format="ixt:num-dot-decimal">143,713</ix:nonFraction></td></tr>
<tr><td>Segment</td><td><ix:nonFraction name="us-gaap:AssetsCurrent" contextRef="I2020_iPhone" unitRef="usd" scale="6">10</ix:nonFraction></td></tr>
<tr><td>Loss</td><td><ix:nonFraction name="us-gaap:OtherNonoperatingIncomeExpense" contextRef="FY2020" unitRef="usd" scale="6" sign="-">87</ix:nonFraction></td></tr>
<tr><td>None</td><td><ix:nonFraction name="us-gaap:LinesOfCreditCurrent" contextRef="I2020" unitRef="usd" format="ixt:fixed-zero">—</ix:nonFraction></td></tr>
<tr><td>EPS</td><td><ix:nonFraction name="us-gaap:EarningsPerShareBasic" contextRef="FY2020" unitRef="usdPerShare" decimals="2">3.31</ix:nonFraction></td></tr>
</table>
</body></html>`

func TestParseInline(t *testing.T) {
	facts, err := ParseInline([]byte(inlineDoc))
	if err != nil {
		t.Fatalf("ParseInline() error = %v", err)
	}

	byConcept := make(map[string][]Fact)
	for _, f := range facts {
		byConcept[f.Concept] = append(byConcept[f.Concept], f)
	}

	tests := []struct {
		concept string
		value   string
	}{
		{"DocumentPeriodEndDate", "September 26, 2020"},
		{"EntityCentralIndexKey", "0000320193"},
		{"RevenueFromContractWithCustomerExcludingAssessedTax", "274515000000"},
		{"LinesOfCreditCurrent", "0"},
		{"EarningsPerShareBasic", "3.31"},
	}
	for _, tt := range tests {
		t.Run(tt.concept, func(t *testing.T) {
			got := byConcept[tt.concept]
			if len(got) != 1 {
				t.Fatalf("%s: got %d facts, want 1", tt.concept, len(got))
			}
			if got[0].Value != tt.value {
				t.Errorf("%s = %q, want %q", tt.concept, got[0].Value, tt.value)
			}
		})
	}

	// The repeated tag is collapsed; the segment fact is kept but flagged.
	assets := byConcept["AssetsCurrent"]
	if len(assets) != 2 {
		t.Fatalf("AssetsCurrent: got %d facts, want 2", len(assets))
	}
	if assets[0].Dimensional || !assets[1].Dimensional {
		t.Errorf("dimensional flags = %v, %v; want false, true", assets[0].Dimensional, assets[1].Dimensional)
	}
	if assets[0].Instant == nil || assets[0].PeriodEnd != nil {
		t.Errorf("instant context should set Instant only: %+v", assets[0])
	}

	rev := byConcept["RevenueFromContractWithCustomerExcludingAssessedTax"][0]
	if rev.PeriodStart == nil || rev.PeriodEnd == nil || rev.PeriodEnd.Format(DateLayout) != "2020-09-26" {
		t.Errorf("duration context not resolved: %+v", rev)
	}

	// sign="-" negates the displayed magnitude.
	other := byConcept["OtherNonoperatingIncomeExpense"]
	if len(other) != 1 || other[0].Value != "-87000000" {
		t.Errorf("OtherNonoperatingIncomeExpense = %+v, want -87000000", other)
	}
}

const instanceDoc = `<?xml version="1.0" encoding="UTF-8"?>
<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance" xmlns:us-gaap="http://fasb.org/us-gaap/2020" xmlns:xbrldi="http://xbrl.org/2006/xbrldi">
  <us-gaap:Assets contextRef="I2020" unitRef="usd" decimals="-6">323888000000</us-gaap:Assets>
  <xbrli:context id="I2020">
    <xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000320193</xbrli:identifier></xbrli:entity>
    <xbrli:period><xbrli:instant>2020-09-26</xbrli:instant></xbrli:period>
  </xbrli:context>
  <xbrli:context id="FY2020_Seg">
    <xbrli:entity>
      <xbrli:identifier scheme="http://www.sec.gov/CIK">0000320193</xbrli:identifier>
      <xbrli:segment><xbrldi:explicitMember dimension="us-gaap:StatementBusinessSegmentsAxis">aapl:AmericasSegmentMember</xbrldi:explicitMember></xbrli:segment>
    </xbrli:entity>
    <xbrli:period><xbrli:startDate>2019-09-29</xbrli:startDate><xbrli:endDate>2020-09-26</xbrli:endDate></xbrli:period>
  </xbrli:context>
  <us-gaap:Revenues contextRef="FY2020_Seg" unitRef="usd" decimals="-6">124556000000</us-gaap:Revenues>
</xbrli:xbrl>`

func TestParseInstance(t *testing.T) {
	facts, err := ParseInstance([]byte(instanceDoc))
	if err != nil {
		t.Fatalf("ParseInstance() error = %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("got %d facts, want 2", len(facts))
	}

	// Contexts declared after the fact still resolve.
	assets := facts[0]
	if assets.Concept != "Assets" || assets.Value != "323888000000" {
		t.Errorf("assets = %+v", assets)
	}
	if assets.Instant == nil || assets.Instant.Format(DateLayout) != "2020-09-26" {
		t.Errorf("assets instant not resolved: %+v", assets)
	}

	rev := facts[1]
	if !rev.Dimensional {
		t.Error("segment context should mark the fact dimensional")
	}
	if rev.PeriodStart == nil || rev.PeriodEnd == nil {
		t.Errorf("duration not resolved: %+v", rev)
	}
}

func TestParse_Detection(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"inline", inlineDoc, false},
		{"instance", instanceDoc, false},
		{"plain html", "<html><body><p>Annual report</p></body></html>", true},
		{"empty", "", true},
		{"broken xml", `<xbrli:xbrl><us-gaap:Assets contextRef="c">1</us-gaap:Ass`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if tt.wantErr {
				if !errors.Is(err, ErrParse) {
					t.Errorf("Parse() error = %v, want ErrParse", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Parse() error = %v", err)
			}
		})
	}
}

func TestDecodeFacts_HJSON(t *testing.T) {
	dump := `{
  # hand-edited dump
  facts: [
    {
      concept: Assets
      value: 323888000000
      instant: "2020-09-26"
    }
    {
      concept: EntityRegistrantName
      value: "Apple Inc."
      instant: "2020-09-26"
    }
    {
      concept: Revenues
      value: "10"
      start: "2019-09-29"
      end: "2020-09-26"
      dimensional: true
    }
  ]
}`
	facts, err := DecodeFacts([]byte(dump))
	if err != nil {
		t.Fatalf("DecodeFacts() error = %v", err)
	}
	if len(facts) != 3 {
		t.Fatalf("got %d facts, want 3", len(facts))
	}
	if facts[0].Value != "323888000000" {
		t.Errorf("numeric value = %q, want 323888000000", facts[0].Value)
	}
	if facts[1].Value != "Apple Inc." {
		t.Errorf("string value = %q", facts[1].Value)
	}
	if !facts[2].Dimensional || facts[2].PeriodStart == nil {
		t.Errorf("third fact = %+v", facts[2])
	}

	// Dumps written by EncodeFacts read back unchanged.
	data, err := EncodeFacts("https://example.test/doc.htm", facts)
	if err != nil {
		t.Fatalf("EncodeFacts() error = %v", err)
	}
	again, err := DecodeFacts(data)
	if err != nil {
		t.Fatalf("DecodeFacts(EncodeFacts()) error = %v", err)
	}
	if len(again) != len(facts) || again[2].PeriodEnd.Format(DateLayout) != "2020-09-26" {
		t.Errorf("dump did not survive a write/read: %+v", again)
	}
}

func TestPadCIK(t *testing.T) {
	tests := map[string]string{
		"320193":     "0000320193",
		"0000320193": "0000320193",
		"1":          "0000000001",
	}
	for in, want := range tests {
		if got := PadCIK(in); got != want {
			t.Errorf("PadCIK(%q) = %q, want %q", in, got, want)
		}
	}
}

const formatDoc = `<html xmlns:ix="http://www.xbrl.org/2013/inlineXBRL"><body>
<ix:resources><xbrli:context id="C"><xbrli:period><xbrli:instant>2020-09-26</xbrli:instant></xbrli:period></xbrli:context></ix:resources>
<%s name="us-gaap:Fact" contextRef="C" unitRef="usd" format="%s">%s</%s>
</body></html>`

func inlineValue(t *testing.T, tag, format, text string) string {
	t.Helper()
	facts, err := ParseInline([]byte(fmt.Sprintf(formatDoc, tag, format, text, tag)))
	if err != nil {
		t.Fatalf("ParseInline() error = %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1", len(facts))
	}
	return facts[0].Value
}

func TestParseInline_Formats(t *testing.T) {
	const (
		text    = "ix:nonNumeric"
		numeric = "ix:nonFraction"
	)
	tests := []struct {
		name   string
		tag    string
		format string
		text   string
		want   string
	}{
		{"month day year", text, "ixt:datemonthdayyearen", "September 26, 2020", "2020-09-26"},
		{"month day year tr4", text, "ixt:date-monthname-day-year-en", "Sept. 26th, 2020", "2020-09-26"},
		{"long us", text, "ixt:datelongus", "December 31, 2021", "2021-12-31"},
		{"day month year", text, "ixt:datedaymonthyearen", "26 September 2020", "2020-09-26"},
		{"slash us", text, "ixt:dateslashus", "09/26/20", "2020-09-26"},
		{"dot eu", text, "ixt:datedoteu", "26.09.2020", "2020-09-26"},
		{"year month day", text, "ixt:date-year-month-day", "2020-09-26", "2020-09-26"},
		{"month year", text, "ixt:datemonthyearen", "September 2020", "2020-09"},
		{"invalid date kept", text, "ixt:datemonthdayyearen", "February 30, 2020", "February 30, 2020"},
		{"unknown format kept", text, "ixt:custom", "Apple Inc.", "Apple Inc."},
		{"fixed empty", text, "ixt:fixed-empty", "n/a", ""},
		{"fixed true", text, "ixt:fixed-true", "Yes", "true"},
		{"boolean false", text, "ixt-sec:boolballotbox", "☐", "☐"},
		{"fixed false", text, "ixt:fixed-false", "☐", "false"},
		{"words none", numeric, "ixt-sec:numwordsen", "None", "0"},
		{"words no", numeric, "ixt-sec:numwordsen", "no", "0"},
		{"words small", numeric, "ixt-sec:numwordsen", "twenty-one", "21"},
		{"words hundred", numeric, "ixt-sec:numwordsen", "three hundred", "300"},
		{"words digits", numeric, "ixt-sec:numwordsen", "1,250", "1250"},
		{"words on text", text, "ixt-sec:numwordsen", "none", "0"},
		{"comma decimal", numeric, "ixt:num-comma-decimal", "1.234,5", "1234.5"},
		{"zero dash", numeric, "ixt:zerodash", "-", "0"},
		{"fixed zero", numeric, "ixt:fixed-zero", "—", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inlineValue(t, tt.tag, tt.format, tt.text); got != tt.want {
				t.Errorf("%s %q = %q, want %q", tt.format, tt.text, got, tt.want)
			}
		})
	}
}
