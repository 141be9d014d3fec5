package edgar

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// =============================================================================
// XBRL INSTANCE DOCUMENTS (plain XML)
// =============================================================================

type instanceContext struct {
	ID     string `xml:"id,attr"`
	Entity struct {
		Segment *struct{} `xml:"segment"`
	} `xml:"entity"`
	Scenario *struct{} `xml:"scenario"`
	Period   struct {
		Instant   string `xml:"instant"`
		StartDate string `xml:"startDate"`
		EndDate   string `xml:"endDate"`
	} `xml:"period"`
}

type instanceFact struct {
	concept, value, ctxRef, unitRef string
}

// ParseInstance reads an XBRL instance document. Facts are the elements
// carrying a contextRef attribute; they are returned in document order.
func ParseInstance(data []byte) ([]Fact, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	contexts := make(map[string]xbrlContext)
	var raw []instanceFact
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(ErrParse, err.Error())
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if el.Name.Local == "xbrl" {
			sawRoot = true
			continue
		}
		if el.Name.Local == "context" {
			var c instanceContext
			if err := dec.DecodeElement(&c, &el); err != nil {
				return nil, eris.Wrap(ErrParse, err.Error())
			}
			contexts[c.ID] = xbrlContext{
				start:       parseDate(c.Period.StartDate),
				end:         parseDate(c.Period.EndDate),
				instant:     parseDate(c.Period.Instant),
				dimensional: c.Entity.Segment != nil || c.Scenario != nil,
			}
			continue
		}

		ctxRef := attr(el.Attr, "contextRef")
		if ctxRef == "" {
			continue
		}
		var value string
		if err := dec.DecodeElement(&value, &el); err != nil {
			return nil, eris.Wrap(ErrParse, err.Error())
		}
		if attr(el.Attr, "nil") == "true" {
			value = ""
		}
		raw = append(raw, instanceFact{
			concept: el.Name.Local,
			value:   strings.TrimSpace(value),
			ctxRef:  ctxRef,
			unitRef: attr(el.Attr, "unitRef"),
		})
	}

	if !sawRoot || len(raw) == 0 {
		return nil, eris.Wrap(ErrParse, "no XBRL instance facts found")
	}

	out := make([]Fact, 0, len(raw))
	for _, f := range raw {
		out = append(out, newFact(f.concept, f.value, f.ctxRef, f.unitRef, contexts[f.ctxRef]))
	}
	return out, nil
}

func attr(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// Parse detects the document flavour and extracts its facts. Anything that
// is neither inline XBRL nor an instance document yields ErrParse.
func Parse(data []byte) ([]Fact, error) {
	head := data
	if len(head) > 64<<10 {
		head = head[:64<<10]
	}
	lower := bytes.ToLower(head)
	switch {
	case bytes.Contains(lower, []byte("<ix:")) || bytes.Contains(lower, []byte("xmlns:ix=")):
		return ParseInline(data)
	case bytes.Contains(lower, []byte("<xbrl")) || bytes.Contains(lower, []byte(":xbrl")):
		return ParseInstance(data)
	}
	return nil, eris.Wrap(ErrParse, "document has no XBRL markup")
}
