package planner

import (
	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/value"
)

// RangeValue is one bound of a merged range, per spec.md §4.5. HasValue
// false means unbounded on that side.
type RangeValue struct {
	Value     value.Value
	Inclusive bool
	HasValue  bool
}

// mergeUpper keeps the maximum of two upper bounds (`<`, `<=`); ties prefer
// inclusive, per spec.md §4.5.
func mergeUpper(a, b RangeValue) RangeValue {
	if !a.HasValue {
		return b
	}
	if !b.HasValue {
		return a
	}
	c := value.Compare(a.Value, b.Value)
	switch {
	case c > 0:
		return a
	case c < 0:
		return b
	default:
		return RangeValue{Value: a.Value, Inclusive: a.Inclusive || b.Inclusive, HasValue: true}
	}
}

// mergeLower keeps the minimum of two lower bounds (`>`, `>=`); ties prefer
// inclusive.
func mergeLower(a, b RangeValue) RangeValue {
	if !a.HasValue {
		return b
	}
	if !b.HasValue {
		return a
	}
	c := value.Compare(a.Value, b.Value)
	switch {
	case c < 0:
		return a
	case c > 0:
		return b
	default:
		return RangeValue{Value: a.Value, Inclusive: a.Inclusive || b.Inclusive, HasValue: true}
	}
}

// UnionRangeQueryBuilder aggregates every RangePart IndexOption applicable
// to one index column into a single {From, To} bound, per spec.md §4.5.
// Exprs records the originating conditions so the executor can skip
// re-evaluating them (they're already enforced by the scan bounds).
type UnionRangeQueryBuilder struct {
	From  RangeValue
	To    RangeValue
	Exprs []ast.Expr
}

// NewUnionRangeQueryBuilder folds opts (already filtered to one index
// column's RangePart options) into a single merged range.
func NewUnionRangeQueryBuilder(opts []IndexOption) *UnionRangeQueryBuilder {
	b := &UnionRangeQueryBuilder{}
	for _, o := range opts {
		if o.Op.Kind != OpRangePart {
			continue
		}
		rv := RangeValue{Value: o.Op.Value, HasValue: true}
		switch o.Op.RangeOp {
		case ast.OpLt:
			rv.Inclusive = false
			b.To = mergeUpper(b.To, rv)
		case ast.OpLte:
			rv.Inclusive = true
			b.To = mergeUpper(b.To, rv)
		case ast.OpGt:
			rv.Inclusive = false
			b.From = mergeLower(b.From, rv)
		case ast.OpGte:
			rv.Inclusive = true
			b.From = mergeLower(b.From, rv)
		default:
			continue
		}
		b.Exprs = append(b.Exprs, o.Source)
	}
	return b
}
