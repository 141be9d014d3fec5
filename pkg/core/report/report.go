// Package report renders extraction results as JSON, Markdown or HTML.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"sec_extractor/pkg/core/facts"
	"sec_extractor/pkg/core/pipeline"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts json, markdown (or md) and html.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", eris.Errorf("report: unknown format %q", s)
}

// Write renders results to w. A single result is written as a JSON object,
// several as an array. Nil results (filings that could not be retrieved)
// are skipped.
func Write(w io.Writer, format Format, results ...*pipeline.Result) error {
	kept := make([]*pipeline.Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			kept = append(kept, r)
		}
	}

	switch format {
	case FormatJSON:
		var v interface{} = kept
		if len(kept) == 1 {
			v = kept[0]
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return eris.Wrap(err, "report: encode json")
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return eris.Wrap(err, "report: write")

	case FormatMarkdown:
		_, err := io.WriteString(w, markdownAll(kept))
		return eris.Wrap(err, "report: write")

	case FormatHTML:
		html, err := HTML(markdownAll(kept))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, html)
		return eris.Wrap(err, "report: write")
	}
	return eris.Errorf("report: unknown format %q", format)
}

func markdownAll(results []*pipeline.Result) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = Markdown(r)
	}
	return strings.Join(parts, "\n---\n\n")
}

// Markdown renders one result as a Markdown section. Complete results list
// every output field; mandatory_missing results list the flattened facts.
func Markdown(res *pipeline.Result) string {
	var b strings.Builder

	title := res.Request.URL
	if name := res.Output["name"]; !name.IsNull() {
		title = name.Text()
	}
	fmt.Fprintf(&b, "## %s\n\n", escape(title))
	fmt.Fprintf(&b, "- **Filing:** %s\n", res.Request.URL)
	fmt.Fprintf(&b, "- **Report date:** %s\n", res.Request.ReportDate)
	fmt.Fprintf(&b, "- **Period:** %s\n", periodLabel(res.Request.Annual))
	fmt.Fprintf(&b, "- **Status:** %s\n", res.Status)
	if res.Err != "" {
		fmt.Fprintf(&b, "- **Error:** %s\n", escape(res.Err))
	}
	b.WriteString("\n")

	switch {
	case res.Output != nil:
		keys := make([]string, 0, len(res.Output))
		for k := range res.Output {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("| Field | Value |\n|---|---:|\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "| %s | %s |\n", k, cell(res.Output[k]))
		}
		b.WriteString("\n")

	case res.Table != nil:
		b.WriteString("| Concept | Values |\n|---|---|\n")
		for _, c := range res.Table.FirstSeen() {
			vals := res.Table.Values(c)
			cells := make([]string, len(vals))
			for i, v := range vals {
				cells[i] = cell(v)
			}
			fmt.Fprintf(&b, "| %s | %s |\n", c, strings.Join(cells, ", "))
		}
		b.WriteString("\n")
	}

	if len(res.Warnings) > 0 {
		b.WriteString("### Warnings\n\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "- `%s` %s: %s\n", w.Stage, w.Name, escape(w.Message))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// HTML converts Markdown to an HTML fragment with GFM tables enabled.
func HTML(md string) (string, error) {
	conv := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := conv.Convert([]byte(md), &buf); err != nil {
		return "", eris.Wrap(err, "report: render html")
	}
	return buf.String(), nil
}

func cell(v facts.Value) string {
	if v.IsNull() {
		return "n/a"
	}
	return escape(v.Text())
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func periodLabel(annual bool) string {
	if annual {
		return "annual"
	}
	return "quarterly"
}
