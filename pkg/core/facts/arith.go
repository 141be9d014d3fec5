package facts

import (
	"math"
	"math/bits"
)

// Arithmetic on numeric Values. Integer operands stay integers for addition,
// subtraction and multiplication unless the result would overflow, in which
// case the result is a float. Division always yields a float. Callers must
// check IsNumber first: non-numeric operands produce null.

func (v Value) Add(o Value) Value {
	if !v.IsNumber() || !o.IsNumber() {
		return Null()
	}
	if v.kind == KindInt && o.kind == KindInt {
		s := v.i + o.i
		if (s > v.i) == (o.i > 0) {
			return Int(s)
		}
	}
	a, _ := v.Number()
	b, _ := o.Number()
	return Float(a + b)
}

func (v Value) Sub(o Value) Value {
	if !v.IsNumber() || !o.IsNumber() {
		return Null()
	}
	if v.kind == KindInt && o.kind == KindInt {
		d := v.i - o.i
		if (d < v.i) == (o.i > 0) {
			return Int(d)
		}
	}
	a, _ := v.Number()
	b, _ := o.Number()
	return Float(a - b)
}

func (v Value) Mul(o Value) Value {
	if !v.IsNumber() || !o.IsNumber() {
		return Null()
	}
	if v.kind == KindInt && o.kind == KindInt {
		if p, ok := mulInt64(v.i, o.i); ok {
			return Int(p)
		}
	}
	a, _ := v.Number()
	b, _ := o.Number()
	return Float(a * b)
}

// Quo divides v by o. The caller is responsible for rejecting a zero divisor.
func (v Value) Quo(o Value) Value {
	if !v.IsNumber() || !o.IsNumber() {
		return Null()
	}
	a, _ := v.Number()
	b, _ := o.Number()
	return Float(a / b)
}

func (v Value) Abs() Value {
	switch v.kind {
	case KindInt:
		if v.i < 0 && v.i != math.MinInt64 {
			return Int(-v.i)
		}
		if v.i == math.MinInt64 {
			return Float(-float64(v.i))
		}
		return v
	case KindFloat:
		return Float(math.Abs(v.f))
	}
	return Null()
}

// IsZero reports whether v is a numeric zero.
func (v Value) IsZero() bool {
	n, ok := v.Number()
	return ok && n == 0
}

// Sign returns -1, 0 or +1 for numeric values and 0 otherwise.
func (v Value) Sign() int {
	n, ok := v.Number()
	switch {
	case !ok || n == 0:
		return 0
	case n < 0:
		return -1
	}
	return 1
}

// RoundEven rounds a numeric value half-to-even and returns it as an int.
// Values outside the int64 range or non-finite values yield null.
func (v Value) RoundEven() Value {
	if v.kind == KindInt {
		return v
	}
	n, ok := v.Number()
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return Null()
	}
	r := math.RoundToEven(n)
	if r >= math.MaxInt64 || r < math.MinInt64 {
		return Null()
	}
	return Int(int64(r))
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	neg := (a < 0) != (b < 0)
	ua, ub := absU64(a), absU64(b)
	hi, lo := bits.Mul64(ua, ub)
	if hi != 0 {
		return 0, false
	}
	if neg {
		if lo > 1<<63 {
			return 0, false
		}
		return -int64(lo), true
	}
	if lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

func absU64(x int64) uint64 {
	if x < 0 {
		return uint64(-(x + 1)) + 1
	}
	return uint64(x)
}
