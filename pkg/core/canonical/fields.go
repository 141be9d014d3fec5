// Package canonical maps taxonomy concepts onto a fixed vocabulary of
// financial-statement line items.
package canonical

import (
	_ "embed"
	"io"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v2"

	"sec_extractor/pkg/core/facts"
)

//go:embed fields.yaml
var defaultFieldsYAML []byte

// Transform is a post-resolution rewrite applied to a field's value.
type Transform string

const (
	TransformNone Transform = ""
	// TransformPadCIK renders the value as text left-padded with zeros to
	// ten characters.
	TransformPadCIK Transform = "pad_cik"
	// TransformAbsOrZero takes the absolute value and maps missing or
	// non-numeric values to 0.
	TransformAbsOrZero Transform = "abs_or_zero"
)

// FieldSpec describes how one canonical field is resolved.
type FieldSpec struct {
	Name         string
	Aliases      []string
	Default      facts.Value
	Index        int
	Transform    Transform
	Intermediate bool
}

type fieldSpecYAML struct {
	Name         string      `yaml:"name"`
	Aliases      []string    `yaml:"aliases"`
	Default      interface{} `yaml:"default"`
	Index        int         `yaml:"index"`
	Transform    string      `yaml:"transform"`
	Intermediate bool        `yaml:"intermediate"`
}

var (
	defaultFields     []FieldSpec
	defaultFieldsErr  error
	defaultFieldsOnce sync.Once
)

// DefaultFields returns the built-in field table. It panics if the embedded
// table is invalid, which is a build defect rather than a runtime condition.
func DefaultFields() []FieldSpec {
	defaultFieldsOnce.Do(func() {
		defaultFields, defaultFieldsErr = ParseFields(defaultFieldsYAML)
	})
	if defaultFieldsErr != nil {
		panic(defaultFieldsErr)
	}
	out := make([]FieldSpec, len(defaultFields))
	copy(out, defaultFields)
	return out
}

// LoadFields reads a field table in the fields.yaml format.
func LoadFields(r io.Reader) ([]FieldSpec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "canonical: read field table")
	}
	return ParseFields(data)
}

// ParseFields decodes and validates a field table.
func ParseFields(data []byte) ([]FieldSpec, error) {
	var raw []fieldSpecYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "canonical: decode field table")
	}

	seen := make(map[string]bool, len(raw))
	out := make([]FieldSpec, 0, len(raw))
	for i, r := range raw {
		switch {
		case r.Name == "":
			return nil, eris.Errorf("canonical: field %d has no name", i)
		case seen[r.Name]:
			return nil, eris.Errorf("canonical: duplicate field %s", r.Name)
		case len(r.Aliases) == 0:
			return nil, eris.Errorf("canonical: field %s has no aliases", r.Name)
		case r.Index < 0:
			return nil, eris.Errorf("canonical: field %s has negative index", r.Name)
		}
		t := Transform(r.Transform)
		if t != TransformNone && t != TransformPadCIK && t != TransformAbsOrZero {
			return nil, eris.Errorf("canonical: field %s has unknown transform %q", r.Name, r.Transform)
		}
		seen[r.Name] = true
		out = append(out, FieldSpec{
			Name:         r.Name,
			Aliases:      r.Aliases,
			Default:      facts.FromInterface(r.Default),
			Index:        r.Index,
			Transform:    t,
			Intermediate: r.Intermediate,
		})
	}
	return out, nil
}

// IntermediateFields lists the fields that are dropped from the output.
func IntermediateFields(fields []FieldSpec) []string {
	var out []string
	for _, f := range fields {
		if f.Intermediate {
			out = append(out, f.Name)
		}
	}
	return out
}
