package value

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/oxhq/qdb/internal/qerr"
)

// NumKind distinguishes the three numeric representations spec.md §3
// requires: Int64, Float64, Decimal128. Decimal is implemented over
// math/big.Rat — no example in the pack imports a decimal library (the
// closest, rust_decimal, only appears in original_source, which isn't a Go
// dependency), so this one corner of the value model stays on the standard
// library; see DESIGN.md.
type NumKind uint8

const (
	NumInt NumKind = iota
	NumFloat
	NumDecimal
)

// Number is the engine's numeric variant: Int64 | Float64 | Decimal128.
// Equality is total (NaN==NaN, -0==+0) and ordering uses a total_cmp
// equivalent, per spec.md §3, so Numbers (and the Values that wrap them)
// can key maps/sets and sort deterministically.
type Number struct {
	kind NumKind
	i    int64
	f    float64
	d    *big.Rat
}

func IntNumber(i int64) Number     { return Number{kind: NumInt, i: i} }
func FloatNumber(f float64) Number { return Number{kind: NumFloat, f: f} }
func DecimalNumber(r *big.Rat) Number {
	return Number{kind: NumDecimal, d: new(big.Rat).Set(r)}
}

func (n Number) Kind() NumKind { return n.kind }

func (n Number) IsZero() bool {
	switch n.kind {
	case NumInt:
		return n.i == 0
	case NumFloat:
		return n.f == 0 // covers -0 == +0 per IEEE comparison
	case NumDecimal:
		return n.d.Sign() == 0
	}
	return false
}

// ToFloat converts any numeric kind to float64 for display and for library
// functions that don't need exactness (e.g. math:: builtins).
func (n Number) ToFloat() float64 {
	switch n.kind {
	case NumInt:
		return float64(n.i)
	case NumFloat:
		return n.f
	case NumDecimal:
		f, _ := n.d.Float64()
		return f
	}
	return 0
}

func (n Number) String() string {
	switch n.kind {
	case NumInt:
		return strconv.FormatInt(n.i, 10)
	case NumFloat:
		if math.IsNaN(n.f) {
			return "NaN"
		}
		return strconv.FormatFloat(n.f, 'g', -1, 64) + "f"
	case NumDecimal:
		return n.d.FloatString(decimalDisplayScale(n.d)) + "dec"
	}
	return "0"
}

// decimalDisplayScale picks a reasonable number of fractional digits for
// display without growing unbounded for repeating fractions.
func decimalDisplayScale(r *big.Rat) int {
	if r.IsInt() {
		return 0
	}
	return 10
}

// totalCmpFloat orders floats the way Rust's f64::total_cmp does: NaN sorts
// after all other values and compares equal to itself, rather than being
// unordered. This is what lets Number (and therefore Value) implement a
// genuine total order (spec.md §3, §8).
func totalCmpFloat(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CompareNumber implements the Int/Float/Decimal promotion ladder from
// original_source/core/src/sql/number.rs Ord::cmp: same-kind comparisons are
// exact, mixed-kind comparisons promote to the wider representation before
// comparing.
func CompareNumber(a, b Number) int {
	switch {
	case a.kind == NumInt && b.kind == NumInt:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		default:
			return 0
		}
	case a.kind == NumFloat && b.kind == NumFloat:
		return totalCmpFloat(a.f, b.f)
	case a.kind == NumInt && b.kind == NumFloat:
		return totalCmpFloat(float64(a.i), b.f)
	case a.kind == NumFloat && b.kind == NumInt:
		return totalCmpFloat(a.f, float64(b.i))
	case a.kind == NumDecimal && b.kind == NumDecimal:
		return a.d.Cmp(b.d)
	case a.kind == NumDecimal && b.kind == NumInt:
		return a.d.Cmp(new(big.Rat).SetInt64(b.i))
	case a.kind == NumInt && b.kind == NumDecimal:
		return new(big.Rat).SetInt64(a.i).Cmp(b.d)
	case a.kind == NumDecimal && b.kind == NumFloat:
		if bf := new(big.Rat).SetFloat64(b.f); bf != nil {
			return a.d.Cmp(bf)
		}
		return totalCmpFloat(a.ToFloat(), b.f)
	case a.kind == NumFloat && b.kind == NumDecimal:
		return -CompareNumber(b, a)
	}
	return 0
}

// ErrArithmeticOverflow is returned by checked Int arithmetic.
var ErrArithmeticOverflow = qerr.New(qerr.ECArithmetic, "arithmetic overflow")
var ErrDivideByZero = qerr.New(qerr.ECArithmetic, "division by zero")
var ErrInvalidPower = qerr.New(qerr.ECArithmetic, "invalid power")

// AddNumber/SubNumber/MulNumber/DivNumber implement the arithmetic contract
// from spec.md §4.2: Int op Int is checked (may overflow); Int op Float
// promotes to Float; Int/Float op Decimal promotes to Decimal (Float op
// Decimal via a finite-f64 conversion, else fails).
func AddNumber(a, b Number) (Number, error) {
	return numOp(a, b,
		func(x, y int64) (int64, bool) { s := x + y; return s, (s-y == x) && sameSign(x, y, s) },
		func(x, y float64) float64 { return x + y },
		func(x, y *big.Rat) *big.Rat { return new(big.Rat).Add(x, y) },
	)
}

func SubNumber(a, b Number) (Number, error) {
	return numOp(a, b,
		func(x, y int64) (int64, bool) { s := x - y; return s, (x >= 0) == (y >= 0) || (s >= 0) == (x >= 0) },
		func(x, y float64) float64 { return x - y },
		func(x, y *big.Rat) *big.Rat { return new(big.Rat).Sub(x, y) },
	)
}

func MulNumber(a, b Number) (Number, error) {
	return numOp(a, b,
		func(x, y int64) (int64, bool) {
			if x == 0 || y == 0 {
				return 0, true
			}
			p := x * y
			return p, p/y == x
		},
		func(x, y float64) float64 { return x * y },
		func(x, y *big.Rat) *big.Rat { return new(big.Rat).Mul(x, y) },
	)
}

func DivNumber(a, b Number) (Number, error) {
	if b.IsZero() && b.kind != NumFloat {
		return Number{}, ErrDivideByZero
	}
	if a.kind == NumInt && b.kind == NumInt && a.i%b.i != 0 {
		// non-exact int division promotes to float rather than erroring
		return FloatNumber(float64(a.i) / float64(b.i)), nil
	}
	return numOp(a, b,
		func(x, y int64) (int64, bool) {
			if y == 0 {
				return 0, false
			}
			return x / y, true
		},
		func(x, y float64) float64 { return x / y },
		func(x, y *big.Rat) *big.Rat { return new(big.Rat).Quo(x, y) },
	)
}

func sameSign(x, y, s int64) bool {
	if (x >= 0) == (y >= 0) {
		return (s >= 0) == (x >= 0)
	}
	return true
}

func numOp(a, b Number, intOp func(x, y int64) (int64, bool), floatOp func(x, y float64) float64, decOp func(x, y *big.Rat) *big.Rat) (Number, error) {
	switch {
	case a.kind == NumInt && b.kind == NumInt:
		if r, ok := intOp(a.i, b.i); ok {
			return IntNumber(r), nil
		}
		// DivNumber handles non-exact int division before calling numOp, so
		// a failed intOp here is a genuine overflow.
		return Number{}, ErrArithmeticOverflow
	case a.kind == NumDecimal || b.kind == NumDecimal:
		ar, aok := toRat(a)
		br, bok := toRat(b)
		if !aok || !bok {
			return Number{}, qerr.New(qerr.ECArithmetic, "float operand is not finite for decimal promotion")
		}
		return DecimalNumber(decOp(ar, br)), nil
	default:
		return FloatNumber(floatOp(a.ToFloat(), b.ToFloat())), nil
	}
}

func toRat(n Number) (*big.Rat, bool) {
	switch n.kind {
	case NumDecimal:
		return n.d, true
	case NumInt:
		return new(big.Rat).SetInt64(n.i), true
	case NumFloat:
		if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
			return nil, false
		}
		r := new(big.Rat).SetFloat64(n.f)
		return r, r != nil
	}
	return nil, false
}

// NegNumber negates a Number, preserving its kind.
func NegNumber(a Number) Number {
	switch a.kind {
	case NumInt:
		return IntNumber(-a.i)
	case NumFloat:
		return FloatNumber(-a.f)
	case NumDecimal:
		return DecimalNumber(new(big.Rat).Neg(a.d))
	}
	return a
}

// AsInt64 returns the number as an int64, per the engine's fail-closed
// default on lossy conversion (spec.md §9 Open Question; DESIGN.md records
// the decision). AsInt64Saturating is the explicit escape hatch.
func (n Number) AsInt64() (int64, error) {
	switch n.kind {
	case NumInt:
		return n.i, nil
	case NumFloat:
		if n.f != math.Trunc(n.f) || math.IsNaN(n.f) || math.IsInf(n.f, 0) {
			return 0, qerr.ErrLossyConversion
		}
		return int64(n.f), nil
	case NumDecimal:
		if !n.d.IsInt() {
			return 0, qerr.ErrLossyConversion
		}
		return n.d.Num().Int64(), nil
	}
	return 0, fmt.Errorf("unreachable number kind")
}

// AsInt64Saturating truncates lossily instead of failing, for call sites
// that explicitly request saturating behavior (spec.md §9).
func (n Number) AsInt64Saturating() int64 {
	if v, err := n.AsInt64(); err == nil {
		return v
	}
	switch n.kind {
	case NumFloat:
		if math.IsNaN(n.f) {
			return 0
		}
		if n.f > math.MaxInt64 {
			return math.MaxInt64
		}
		if n.f < math.MinInt64 {
			return math.MinInt64
		}
		return int64(n.f)
	case NumDecimal:
		f, _ := n.d.Float64()
		return int64(f)
	}
	return 0
}
