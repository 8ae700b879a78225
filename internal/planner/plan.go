package planner

import (
	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/catalog"
)

// PlanKind enumerates the physical access paths spec.md §4.4's decision
// table can select.
type PlanKind int

const (
	PlanTableIterator PlanKind = iota
	PlanSingleIndex
	PlanSingleIndexRange
	PlanMultiIndex
	PlanFullText
	PlanKnn
)

func (k PlanKind) String() string {
	switch k {
	case PlanSingleIndex:
		return "SingleIndex"
	case PlanSingleIndexRange:
		return "SingleIndexRange"
	case PlanMultiIndex:
		return "MultiIndex"
	case PlanFullText:
		return "FullText"
	case PlanKnn:
		return "Knn"
	default:
		return "TableIterator"
	}
}

// Plan is the Plan phase's decision, plus enough detail for the executor to
// build the matching scan operator without re-deriving it.
type Plan struct {
	Kind       PlanKind
	Index      *catalog.IndexDef
	Equalities []IndexOption // contiguous compound-equality prefix, in column order
	Range      *UnionRangeQueryBuilder
	Reverse    bool
	Used       []IndexOption // every option the scan satisfies, so the executor can skip re-checking them
	MultiIndex []*Plan       // sub-plans unioned together, for PlanMultiIndex
}

// Decide runs spec.md §4.4's Plan phase decision table over tree.
func Decide(tree *TreeResult, with *ast.With, order []ast.OrderClause) *Plan {
	if with != nil && with.NoIndex {
		return &Plan{Kind: PlanTableIterator}
	}

	if with != nil && len(with.ForceIndex) > 0 {
		if p := planForcedIndex(tree, with.ForceIndex); p != nil {
			return p
		}
	}

	if p := planSearchOrKnn(tree); p != nil {
		return p
	}

	if tree.AllAnd {
		if p := planCompoundEquality(tree); p != nil {
			return p
		}
		if p := planSingleRange(tree); p != nil {
			return p
		}
		if p := planBestEquality(tree); p != nil {
			return p
		}
		if p := planOrderOnly(tree, order); p != nil {
			return p
		}
		return &Plan{Kind: PlanTableIterator}
	}

	if tree.AllIndexed && len(tree.Options) > 0 {
		return planMultiIndex(tree)
	}

	return &Plan{Kind: PlanTableIterator}
}

// planSearchOrKnn gives a full-text or vector index priority over any
// other access path when the WHERE tree names one (spec.md §4.7): neither
// kind composes with compound-equality or range planning the way a
// regular index does, so it's decided before the AllAnd decision chain
// runs at all.
func planSearchOrKnn(tree *TreeResult) *Plan {
	for _, o := range tree.Options {
		switch o.Op.Kind {
		case OpMatches:
			if o.Index != nil && (o.Index.Kind == ast.IdxFullText || o.Index.Kind == ast.IdxSearch) {
				return &Plan{Kind: PlanFullText, Index: o.Index, Used: []IndexOption{o}}
			}
		case OpKnn, OpAnn:
			if o.Index != nil {
				return &Plan{Kind: PlanKnn, Index: o.Index, Used: []IndexOption{o}}
			}
		}
	}
	return nil
}

func planForcedIndex(tree *TreeResult, names []string) *Plan {
	for _, o := range tree.Options {
		for _, n := range names {
			if o.Index.Name == n {
				return &Plan{Kind: PlanSingleIndex, Index: o.Index, Equalities: []IndexOption{o}, Used: []IndexOption{o}}
			}
		}
	}
	return nil
}

// planCompoundEquality looks for an index with ≥2 contiguous equality
// columns covered, or with ≥1 followed by a trailing range on the next
// column (spec.md §4.4's compound-index row).
func planCompoundEquality(tree *TreeResult) *Plan {
	byIndex := groupByIndex(tree.Options)
	for index, opts := range byIndex {
		prefix := contiguousEqualityPrefix(index, opts)
		trailing := rangeOptionsForColumn(opts, len(prefix))
		if len(prefix) == 0 || (len(prefix) < 2 && len(trailing) == 0) {
			continue
		}
		used := append([]IndexOption(nil), prefix...)
		plan := &Plan{Kind: PlanSingleIndex, Index: index, Equalities: prefix, Used: used}
		if len(trailing) > 0 {
			plan.Range = NewUnionRangeQueryBuilder(trailing)
			plan.Used = append(plan.Used, trailing...)
		}
		return plan
	}
	return nil
}

func planSingleRange(tree *TreeResult) *Plan {
	byIndex := groupByIndex(tree.Options)
	for index, opts := range byIndex {
		var rangeOpts []IndexOption
		for _, o := range opts {
			if o.Op.Kind == OpRangePart {
				rangeOpts = append(rangeOpts, o)
			}
		}
		if len(rangeOpts) == 0 {
			continue
		}
		return &Plan{Kind: PlanSingleIndexRange, Index: index, Range: NewUnionRangeQueryBuilder(rangeOpts), Used: rangeOpts}
	}
	return nil
}

func planBestEquality(tree *TreeResult) *Plan {
	var best *IndexOption
	bestCount := -1
	byIndex := groupByIndex(tree.Options)
	for index, opts := range byIndex {
		count := 0
		for _, o := range opts {
			if o.Op.Kind == OpEquality || o.Op.Kind == OpUnion {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			first := opts[0]
			first.Index = index
			best = &first
		}
	}
	if best == nil || bestCount <= 0 {
		return nil
	}
	return &Plan{Kind: PlanSingleIndex, Index: best.Index, Equalities: []IndexOption{*best}, Used: []IndexOption{*best}}
}

func planOrderOnly(tree *TreeResult, order []ast.OrderClause) *Plan {
	if len(order) == 0 {
		return nil
	}
	return nil // no WHERE-side index options to anchor an order-only plan without schema access to ORDER's column
}

func planMultiIndex(tree *TreeResult) *Plan {
	byIndex := groupByIndex(tree.Options)
	var subs []*Plan
	for index, opts := range byIndex {
		subs = append(subs, &Plan{Kind: PlanSingleIndex, Index: index, Equalities: opts, Used: opts})
	}
	return &Plan{Kind: PlanMultiIndex, MultiIndex: subs, Used: tree.Options}
}

func groupByIndex(opts []IndexOption) map[*catalog.IndexDef][]IndexOption {
	m := map[*catalog.IndexDef][]IndexOption{}
	for _, o := range opts {
		m[o.Index] = append(m[o.Index], o)
	}
	return m
}

// contiguousEqualityPrefix returns the longest run of equality options
// covering columns 0..n-1 of index, in column order.
func contiguousEqualityPrefix(index *catalog.IndexDef, opts []IndexOption) []IndexOption {
	byPos := map[int]IndexOption{}
	for _, o := range opts {
		if o.Op.Kind == OpEquality {
			byPos[o.ColumnPos] = o
		}
	}
	var prefix []IndexOption
	for i := 0; i < len(index.Columns); i++ {
		o, ok := byPos[i]
		if !ok {
			break
		}
		prefix = append(prefix, o)
	}
	return prefix
}

func rangeOptionsForColumn(opts []IndexOption, pos int) []IndexOption {
	var out []IndexOption
	for _, o := range opts {
		if o.Op.Kind == OpRangePart && o.ColumnPos == pos {
			out = append(out, o)
		}
	}
	return out
}
