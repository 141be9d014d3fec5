// Package calc computes derived ratios and metrics from a canonical record.
package calc

import (
	"errors"
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"sec_extractor/pkg/core/canonical"
	"sec_extractor/pkg/core/facts"
)

var (
	// ErrMissingOperand means an input is absent or null.
	ErrMissingOperand = errors.New("calc: missing operand")
	// ErrInvalidOperand means an input has the wrong type or an illegal value.
	ErrInvalidOperand = errors.New("calc: invalid operand")
	// ErrDivideByZero means a ratio's denominator is zero.
	ErrDivideByZero = errors.New("calc: division by zero")
)

// Metrics maps metric names to their computed values. A metric that could
// not be computed is present with a null value.
type Metrics map[string]facts.Value

// Metric is a named formula. Eval returns an error instead of a value when
// any operand is unusable; the engine turns that into null plus a warning.
type Metric struct {
	Name string
	Eval func(*Env) (facts.Value, error)
}

// =============================================================================
// EVALUATION ENVIRONMENT
// =============================================================================

// Env gives formulas read access to the canonical record, the metrics
// computed so far, and the caller-supplied price.
type Env struct {
	rec     canonical.Record
	metrics Metrics
	price   float64
}

// Num returns a numeric operand. Metrics computed earlier take precedence
// over record fields of the same name.
func (e *Env) Num(name string) (facts.Value, error) {
	v, ok := e.metrics[name]
	if !ok {
		v, ok = e.rec[name]
	}
	if !ok || v.IsNull() {
		return facts.Null(), eris.Wrap(ErrMissingOperand, name)
	}
	if !v.IsNumber() {
		return facts.Null(), eris.Wrapf(ErrInvalidOperand, "%s is %s", name, v.Kind())
	}
	if n, _ := v.Number(); math.IsNaN(n) || math.IsInf(n, 0) {
		return facts.Null(), eris.Wrapf(ErrInvalidOperand, "%s is not finite", name)
	}
	return v, nil
}

// Nums fetches several operands, failing on the first unusable one.
func (e *Env) Nums(names ...string) ([]facts.Value, error) {
	out := make([]facts.Value, len(names))
	for i, name := range names {
		v, err := e.Num(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Price returns the caller-supplied share price.
func (e *Env) Price() (facts.Value, error) {
	if math.IsNaN(e.price) || math.IsInf(e.price, 0) {
		return facts.Null(), eris.Wrap(ErrInvalidOperand, "price is not finite")
	}
	return facts.Float(e.price), nil
}

// Sum adds the named operands.
func (e *Env) Sum(names ...string) (facts.Value, error) {
	vals, err := e.Nums(names...)
	if err != nil {
		return facts.Null(), err
	}
	total := facts.Int(0)
	for _, v := range vals {
		total = total.Add(v)
	}
	return total, nil
}

// Diff subtracts b from a.
func (e *Env) Diff(a, b string) (facts.Value, error) {
	vals, err := e.Nums(a, b)
	if err != nil {
		return facts.Null(), err
	}
	return vals[0].Sub(vals[1]), nil
}

// Ratio divides num by den.
func (e *Env) Ratio(num, den string) (facts.Value, error) {
	vals, err := e.Nums(num, den)
	if err != nil {
		return facts.Null(), err
	}
	return quo(vals[0], vals[1], den)
}

func quo(num, den facts.Value, denName string) (facts.Value, error) {
	if den.IsZero() {
		return facts.Null(), eris.Wrap(ErrDivideByZero, denName)
	}
	return num.Quo(den), nil
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine evaluates an ordered list of metrics. Later metrics may read
// earlier ones.
type Engine struct {
	metrics []Metric
	log     *zap.Logger
}

// NewEngine creates an engine. A nil metrics slice selects DefaultMetrics.
func NewEngine(metrics []Metric, log *zap.Logger) *Engine {
	if metrics == nil {
		metrics = DefaultMetrics()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{metrics: metrics, log: log}
}

// Compute evaluates every metric. A failing metric is set to null and
// reported as a warning; it never stops the others.
func (e *Engine) Compute(rec canonical.Record, price float64) (Metrics, []facts.Warning) {
	env := &Env{rec: rec, metrics: make(Metrics, len(e.metrics)), price: price}
	var warnings []facts.Warning

	for _, m := range e.metrics {
		v, err := evaluate(m, env)
		if err != nil {
			env.metrics[m.Name] = facts.Null()
			warnings = append(warnings, facts.Warning{Stage: "compute", Name: m.Name, Message: err.Error()})
			e.log.Warn("calc: metric unavailable", zap.String("metric", m.Name), zap.Error(err))
			continue
		}
		env.metrics[m.Name] = v
	}
	return env.metrics, warnings
}

func evaluate(m Metric, env *Env) (v facts.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = facts.Null()
			err = eris.Wrap(ErrInvalidOperand, fmt.Sprintf("formula panicked: %v", r))
		}
	}()
	return m.Eval(env)
}
