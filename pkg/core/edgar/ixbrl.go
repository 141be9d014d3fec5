package edgar

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// xbrlContext is the part of an XBRL context the extractor needs.
type xbrlContext struct {
	start, end, instant *time.Time
	dimensional         bool
}

// =============================================================================
// INLINE XBRL (HTML with ix: tags)
// =============================================================================

// ParseInline reads an inline XBRL document and returns its facts in
// document order.
func ParseInline(data []byte) ([]Fact, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(ErrParse, err.Error())
	}

	contexts := make(map[string]xbrlContext)
	doc.Find("xbrli\\:context").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("id")
		if id == "" {
			return
		}
		contexts[id] = xbrlContext{
			start:       parseDate(sel.Find("xbrli\\:startdate").First().Text()),
			end:         parseDate(sel.Find("xbrli\\:enddate").First().Text()),
			instant:     parseDate(sel.Find("xbrli\\:instant").First().Text()),
			dimensional: sel.Find("xbrli\\:segment, xbrli\\:scenario").Length() > 0,
		}
	})

	var out []Fact
	seen := make(map[string]bool)
	doc.Find("ix\\:nonfraction, ix\\:nonnumeric").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		ctxRef, _ := sel.Attr("contextref")
		if name == "" || ctxRef == "" {
			return
		}
		unitRef, _ := sel.Attr("unitref")

		key := name + "|" + ctxRef + "|" + unitRef
		if seen[key] {
			return
		}
		seen[key] = true

		var value string
		if goquery.NodeName(sel) == "ix:nonfraction" {
			value = inlineNumber(sel)
		} else {
			value = inlineText(sel)
		}

		out = append(out, newFact(localName(name), value, ctxRef, unitRef, contexts[ctxRef]))
	})

	if len(out) == 0 {
		return nil, eris.Wrap(ErrParse, "no inline XBRL facts found")
	}
	return out, nil
}

// inlineNumber renders an ix:nonFraction as plain numeric text, applying
// its format, scale and sign attributes.
func inlineNumber(sel *goquery.Selection) string {
	if isNil(sel) {
		return ""
	}
	text := strings.TrimSpace(sel.Text())
	if text == "-" || text == "—" || text == "–" {
		return "0"
	}

	format := formatName(sel)
	rewrite, known := inlineFormats[format]
	if !known {
		rewrite = dotDecimal
	}
	if out, ok := rewrite(text); ok {
		text = out
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return text
	}
	if scaleAttr, ok := sel.Attr("scale"); ok {
		if scale, err := strconv.Atoi(scaleAttr); err == nil {
			d = d.Shift(int32(scale))
		}
	}
	if sign, _ := sel.Attr("sign"); sign == "-" {
		d = d.Neg()
	}
	return d.String()
}

// inlineText renders an ix:nonNumeric. Text without a known format is kept
// as displayed, with whitespace collapsed.
func inlineText(sel *goquery.Selection) string {
	if isNil(sel) {
		return ""
	}
	text := collapseSpace(sel.Text())
	if rewrite, ok := inlineFormats[formatName(sel)]; ok {
		if out, ok := rewrite(text); ok {
			return out
		}
	}
	return text
}

func isNil(sel *goquery.Selection) bool {
	v, ok := sel.Attr("xsi:nil")
	return ok && v == "true"
}

// formatName reduces a format QName to a lookup key:
// "ixt:num-dot-decimal" and "ixt:numdotdecimal" both become "numdotdecimal".
func formatName(sel *goquery.Selection) string {
	format, _ := sel.Attr("format")
	return strings.ReplaceAll(strings.ToLower(localName(format)), "-", "")
}

// =============================================================================
// INLINE XBRL TRANSFORMATION FORMATS (ixt, ixt-sec)
// =============================================================================

// inlineFormats maps a format key to the rewrite it applies to the
// displayed text. A rewrite returns ok == false when the text does not fit
// the format; the text is then kept as displayed.
var inlineFormats = map[string]func(text string) (string, bool){
	"zerodash":     fixed("0"),
	"fixedzero":    fixed("0"),
	"fixedempty":   fixed(""),
	"fixedtrue":    fixed("true"),
	"booleantrue":  fixed("true"),
	"fixedfalse":   fixed("false"),
	"booleanfalse": fixed("false"),

	"numdotdecimal":   dotDecimal,
	"numcommadecimal": commaDecimal,
	"numwordsen":      numberWords,

	"datemonthdayyearen":     dateFormat(orderMDY),
	"datemonthnamedayyearen": dateFormat(orderMDY),
	"datemonthdayyear":       dateFormat(orderMDY),
	"datelongus":             dateFormat(orderMDY),
	"dateshortus":            dateFormat(orderMDY),
	"dateslashus":            dateFormat(orderMDY),
	"datedotus":              dateFormat(orderMDY),
	"datedaymonthyearen":     dateFormat(orderDMY),
	"datedaymonthnameyearen": dateFormat(orderDMY),
	"datedaymonthyear":       dateFormat(orderDMY),
	"datelonguk":             dateFormat(orderDMY),
	"dateshortuk":            dateFormat(orderDMY),
	"dateslasheu":            dateFormat(orderDMY),
	"datedoteu":              dateFormat(orderDMY),
	"dateyearmonthday":       dateFormat(orderYMD),
	"datemonthyearen":        monthYearFormat,
	"datemonthnameyearen":    monthYearFormat,
	"datemonthyear":          monthYearFormat,
}

func fixed(v string) func(string) (string, bool) {
	return func(string) (string, bool) { return v, true }
}

func dotDecimal(text string) (string, bool) {
	text = strings.ReplaceAll(text, ",", "")
	return strings.ReplaceAll(text, " ", ""), true
}

func commaDecimal(text string) (string, bool) {
	text = strings.ReplaceAll(text, ".", "")
	text = strings.ReplaceAll(text, " ", "")
	return strings.Replace(text, ",", ".", 1), true
}

var (
	smallNumbers = map[string]int64{
		"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
		"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
		"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
		"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
		"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
		"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	}
	numberScales = map[string]int64{"thousand": 1e3, "million": 1e6, "billion": 1e9}
)

// numberWords reads English number words ("no", "none", "twenty-one",
// "three hundred"). Digits fall through to the dot-decimal rules.
func numberWords(text string) (string, bool) {
	words := strings.Fields(strings.NewReplacer("-", " ", ",", " ", ".", " ").Replace(strings.ToLower(text)))
	if len(words) == 0 {
		return dotDecimal(text)
	}
	if len(words) == 1 {
		switch words[0] {
		case "no", "none", "nil":
			return "0", true
		}
	}

	var total, current int64
	for _, w := range words {
		if n, ok := smallNumbers[w]; ok {
			current += n
			continue
		}
		switch {
		case w == "and":
		case w == "hundred":
			current *= 100
		case numberScales[w] > 0:
			total += current * numberScales[w]
			current = 0
		default:
			return dotDecimal(text)
		}
	}
	return strconv.FormatInt(total+current, 10), true
}

type dateOrder int

const (
	orderMDY dateOrder = iota
	orderDMY
	orderYMD
)

var dateToken = regexp.MustCompile(`[0-9]+|[A-Za-z]+`)

// dateParts extracts the numeric date components of text in order. Month
// names become month numbers; other words ("of", "th") are skipped.
func dateParts(text string) []int {
	var parts []int
	for _, tok := range dateToken.FindAllString(text, -1) {
		if tok[0] >= '0' && tok[0] <= '9' {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return nil
			}
			parts = append(parts, n)
			continue
		}
		if m := monthNumber(tok); m > 0 {
			parts = append(parts, m)
		}
	}
	return parts
}

func monthNumber(word string) int {
	word = strings.ToLower(word)
	if len(word) < 3 {
		return 0
	}
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), word[:3]) {
			return int(m)
		}
	}
	return 0
}

func fullYear(y int) int {
	if y < 100 {
		return 2000 + y
	}
	return y
}

// dateFormat renders a displayed date as YYYY-MM-DD.
func dateFormat(order dateOrder) func(string) (string, bool) {
	return func(text string) (string, bool) {
		p := dateParts(text)
		if len(p) != 3 {
			return text, false
		}
		var y, m, d int
		switch order {
		case orderMDY:
			m, d, y = p[0], p[1], p[2]
		case orderDMY:
			d, m, y = p[0], p[1], p[2]
		case orderYMD:
			y, m, d = p[0], p[1], p[2]
		}
		y = fullYear(y)
		t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
		if m < 1 || m > 12 || t.Day() != d {
			return text, false
		}
		return t.Format(DateLayout), true
	}
}

// monthYearFormat renders "September 2020" as the gYearMonth "2020-09".
func monthYearFormat(text string) (string, bool) {
	p := dateParts(text)
	if len(p) != 2 || p[0] < 1 || p[0] > 12 {
		return text, false
	}
	return fmt.Sprintf("%04d-%02d", fullYear(p[1]), p[0]), true
}

// =============================================================================
// HELPERS
// =============================================================================

func newFact(concept, value, ctxRef, unitRef string, c xbrlContext) Fact {
	f := Fact{
		Concept:     concept,
		Value:       value,
		ContextRef:  ctxRef,
		UnitRef:     unitRef,
		Dimensional: c.dimensional,
	}
	if c.instant != nil {
		f.Instant = c.instant
		return f
	}
	f.PeriodStart = c.start
	f.PeriodEnd = c.end
	return f
}

// localName strips the taxonomy prefix: "us-gaap:Assets" becomes "Assets".
func localName(qname string) string {
	if i := strings.LastIndexByte(qname, ':'); i >= 0 {
		return qname[i+1:]
	}
	return qname
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	if s == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
