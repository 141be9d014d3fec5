package canonical

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"sec_extractor/pkg/core/facts"
)

// SharesField is the line item every derived metric depends on.
const SharesField = "number_of_shares"

// ErrMandatoryField is returned when a field the pipeline cannot proceed
// without is missing or invalid.
var ErrMandatoryField = errors.New("canonical: mandatory field missing or invalid")

// Record holds one resolved value per canonical field. It is built once by
// the resolver and read-only afterwards.
type Record map[string]facts.Value

// Get returns the field's value, or null when the field is absent.
func (r Record) Get(name string) facts.Value {
	return r[name]
}

// Resolve returns the value at position idx of the first alias present in
// t. found is false when no alias is present or the winning alias has fewer
// than idx+1 values; def is returned in both cases.
func Resolve(t *facts.Table, aliases []string, def facts.Value, idx int) (v facts.Value, found bool) {
	for _, alias := range aliases {
		if !t.Has(alias) {
			continue
		}
		if v, ok := t.At(alias, idx); ok {
			return v, true
		}
		return def, false
	}
	return def, false
}

// Resolver resolves a whole field table against a flattened fact table.
type Resolver struct {
	fields []FieldSpec
	log    *zap.Logger
}

// NewResolver creates a resolver. A nil fields slice selects DefaultFields.
func NewResolver(fields []FieldSpec, log *zap.Logger) *Resolver {
	if fields == nil {
		fields = DefaultFields()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{fields: fields, log: log}
}

// Fields returns the resolver's field table.
func (r *Resolver) Fields() []FieldSpec {
	return r.fields
}

// Resolve builds the canonical record. Every field is present in the result;
// fields without a matching alias carry their default and produce a warning.
func (r *Resolver) Resolve(t *facts.Table) (Record, []facts.Warning) {
	rec := make(Record, len(r.fields))
	var warnings []facts.Warning

	for _, f := range r.fields {
		v, found := Resolve(t, f.Aliases, f.Default, f.Index)
		if !found {
			msg := missMessage(t, f)
			warnings = append(warnings, facts.Warning{Stage: "resolve", Name: f.Name, Message: msg})
			r.log.Warn("canonical: field not found, using default",
				zap.String("field", f.Name),
				zap.Strings("aliases", f.Aliases),
				zap.Stringer("default", f.Default),
			)
		}
		rec[f.Name] = applyTransform(f.Transform, v)
	}
	return rec, warnings
}

func missMessage(t *facts.Table, f FieldSpec) string {
	for _, alias := range f.Aliases {
		if t.Has(alias) {
			return fmt.Sprintf("%s has %d value(s), index %d not available; using default %s",
				alias, len(t.Values(alias)), f.Index, f.Default)
		}
	}
	return fmt.Sprintf("none of [%s] present; using default %s", strings.Join(f.Aliases, ", "), f.Default)
}

func applyTransform(t Transform, v facts.Value) facts.Value {
	switch t {
	case TransformPadCIK:
		if v.IsNull() {
			return v
		}
		return facts.String(padLeft(v.Text(), 10))
	case TransformAbsOrZero:
		if !v.IsNumber() {
			return facts.Int(0)
		}
		return v.Abs()
	}
	return v
}

// padLeft zero-fills s to width characters, keeping a leading sign in front
// of the padding. Longer strings are returned unchanged.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sign, s = s[:1], s[1:]
	}
	return sign + strings.Repeat("0", width-len(s)-len(sign)) + s
}

// CheckMandatory verifies that the share count exists and is strictly
// positive. Without it no per-share metric can be computed.
func CheckMandatory(rec Record) error {
	v, ok := rec[SharesField]
	if !ok || v.IsNull() {
		return eris.Wrapf(ErrMandatoryField, "%s is missing", SharesField)
	}
	n, isNum := v.Number()
	if !isNum {
		return eris.Wrapf(ErrMandatoryField, "%s is not numeric (%s)", SharesField, v.Kind())
	}
	if !(n > 0) {
		return eris.Wrapf(ErrMandatoryField, "%s must be positive, got %s", SharesField, v)
	}
	return nil
}
