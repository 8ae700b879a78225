package exec

import (
	"context"
	"sort"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/catalog"
	"github.com/oxhq/qdb/internal/kv"
	"github.com/oxhq/qdb/internal/planner"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

// Row pairs a decoded document with the RecordID it was stored under —
// spec.md §4.6's ValueBatch element, minus the batching (this executor
// streams one row at a time rather than chunked Vec<Value> batches, a
// simplification noted in DESIGN.md).
type Row struct {
	ID  *value.RecordID
	Doc *value.Object
}

// TableScan walks every row of one table in key order (spec.md §4.6
// "fall back to...a KV range scan of the table's key prefix").
func TableScan(ctx context.Context, tx kv.Transaction, ns, db, table string, reverse bool) ([]Row, error) {
	prefix := rowPrefix(ns, db, table)
	it, err := kv.ScanPrefix(ctx, tx, prefix, reverse)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var rows []Row
	for it.Next() {
		doc, err := decodeRow(it.Value())
		if err != nil {
			return nil, err
		}
		idVal, _ := doc.Get("id")
		var rid *value.RecordID
		if idVal.Tag() == value.TagRecordID {
			rid = idVal.RecordIDVal()
		}
		rows = append(rows, Row{ID: rid, Doc: doc})
	}
	return rows, it.Err()
}

// IndexScan walks a single index's entries honoring an equality prefix and
// an optional trailing range, then resolves each matching entry back to
// its row (spec.md §4.6 "IndexScan: seek to (prefix, from) and iterate to
// (prefix, to)").
func IndexScan(ctx context.Context, tx kv.Transaction, ns, db string, plan *planner.Plan, reverse bool) ([]Row, error) {
	table := plan.Index.Table
	eqVals := make([]value.Value, len(plan.Equalities))
	for i, o := range plan.Equalities {
		eqVals[i] = o.Op.Value
	}

	fromIncl, toIncl := true, true
	base := indexValuePrefix(ns, db, table, plan.Index.Name, eqVals)
	from := append([]byte(nil), base...)
	to := prefixUpperBoundOf(base)

	if plan.Range != nil {
		if plan.Range.From.HasValue {
			from = append(append([]byte(nil), base...), encodeValueOrdered(plan.Range.From.Value)...)
			fromIncl = plan.Range.From.Inclusive
		}
		if plan.Range.To.HasValue {
			to = append(append([]byte(nil), base...), encodeValueOrdered(plan.Range.To.Value)...)
			toIncl = plan.Range.To.Inclusive
		} else {
			to = prefixUpperBoundOf(base)
		}
	} else {
		to = prefixUpperBoundOf(base)
	}

	it, err := tx.ScanRange(ctx, from, to, fromIncl, toIncl, reverse)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var rows []Row
	for it.Next() {
		rowKeyPart, ok := rowKeyFromIndexEntry(it.Key())
		if !ok {
			continue
		}
		raw, found, err := tx.Get(ctx, rowKey(ns, db, table, rowKeyPart))
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		doc, err := decodeRow(raw)
		if err != nil {
			return nil, err
		}
		idVal, _ := doc.Get("id")
		var rid *value.RecordID
		if idVal.Tag() == value.TagRecordID {
			rid = idVal.RecordIDVal()
		}
		rows = append(rows, Row{ID: rid, Doc: doc})
	}
	return rows, it.Err()
}

func prefixUpperBoundOf(prefix []byte) []byte {
	out := append([]byte(nil), prefix...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

// rowKeyFromIndexEntry splits the trailing row-key segment off an
// indexEntryKey; since index keys are NUL-joined column encodings
// followed by the row key with no further separator, the row key is
// everything after the last NUL.
func rowKeyFromIndexEntry(entry []byte) (value.RecordIDKey, bool) {
	last := -1
	for i := len(entry) - 1; i >= 0; i-- {
		if entry[i] == 0 {
			last = i
			break
		}
	}
	if last < 0 || last+1 >= len(entry) {
		return value.RecordIDKey{}, false
	}
	return value.RecordIDKey{Kind: value.KeyString, Str: string(entry[last+1:])}, true
}

// DynamicScan implements spec.md §4.6: resolve targets to rows, choosing
// the access path the planner selected. The executor's scope here covers
// Table and RecordId targets (Array/scalar source expressions, VERSION,
// and per-row permission evaluation are out of scope for this module —
// see DESIGN.md's Executor entry).
func DynamicScan(c *Context, targets []ast.Target, cond ast.Expr, order []ast.OrderClause, with *ast.With) ([]Row, error) {
	ctx := context.Background()
	var all []Row
	for _, t := range targets {
		rows, err := scanTarget(ctx, c, t, cond, order, with)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	return all, nil
}

func scanTarget(ctx context.Context, c *Context, t ast.Target, cond ast.Expr, order []ast.OrderClause, with *ast.With) ([]Row, error) {
	switch t.Kind {
	case ast.TargetRecordID:
		ev := NewEvaluator(c)
		v, err := ev.Eval(t.Expr, value.None)
		if err != nil {
			return nil, err
		}
		if v.Tag() != value.TagRecordID {
			return nil, qerr.New(qerr.ECRuntime, "expected a record id target")
		}
		rid := v.RecordIDVal()
		raw, found, err := c.Tx.Get(ctx, rowKey(c.NS, c.DB, rid.Table, rid.Key))
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		doc, err := decodeRow(raw)
		if err != nil {
			return nil, err
		}
		return []Row{{ID: rid, Doc: doc}}, nil
	case ast.TargetTable:
		return scanTable(ctx, c, t.Table, cond, order, with)
	default:
		return nil, qerr.New(qerr.ECUnsupported, "unsupported SELECT/UPDATE/DELETE target")
	}
}

// planFor runs the Tree/Plan phases for one table target — shared by
// scanTable and ExplainPlan so EXPLAIN reports exactly what a real scan
// would have chosen (spec.md §8's "EXPLAIN shows SingleIndex with
// Equality([1]) prefix and Range on column y").
func planFor(table string, c *Context, cond ast.Expr, order []ast.OrderClause, with *ast.With) (*planner.TreeResult, *planner.Plan) {
	tbl := c.Catalog.Table(table)
	idxMap := planner.BuildIndexesMap(tbl)
	tree := planner.Tree(cond, idxMap, c.Binds)
	plan := planner.Decide(tree, with, order)
	return tree, plan
}

func scanTable(ctx context.Context, c *Context, table string, cond ast.Expr, order []ast.OrderClause, with *ast.With) ([]Row, error) {
	tree, plan := planFor(table, c, cond, order, with)

	qe, err := buildMatchExecutor(ctx, c, table, tree)
	if err != nil {
		return nil, err
	}
	if qe != nil {
		c.QE = qe
	}

	reverse := false
	if len(order) == 1 {
		reverse = order[0].Desc
	}

	var rows []Row
	switch plan.Kind {
	case planner.PlanSingleIndex, planner.PlanSingleIndexRange:
		rows, err = IndexScan(ctx, c.Tx, c.NS, c.DB, plan, reverse)
	case planner.PlanMultiIndex:
		rows, err = multiIndexScan(ctx, c, plan, reverse)
	case planner.PlanFullText:
		rows, err = fullTextScan(ctx, c, plan)
	default:
		rows, err = TableScan(ctx, c.Tx, c.NS, c.DB, table, reverse)
	}
	if err != nil {
		return nil, err
	}

	if cond != nil {
		rows, err = filterRows(c, rows, cond)
		if err != nil {
			return nil, err
		}
	}
	if len(order) > 0 {
		sortRows(c, rows, order)
	}
	return rows, nil
}

func multiIndexScan(ctx context.Context, c *Context, plan *planner.Plan, reverse bool) ([]Row, error) {
	seen := map[string]bool{}
	var out []Row
	for _, sub := range plan.MultiIndex {
		rows, err := IndexScan(ctx, c.Tx, c.NS, c.DB, sub, reverse)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if r.ID == nil {
				out = append(out, r)
				continue
			}
			key := r.ID.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, r)
		}
	}
	return out, nil
}

func filterRows(c *Context, rows []Row, cond ast.Expr) ([]Row, error) {
	ev := NewEvaluator(c)
	out := rows[:0]
	for _, r := range rows {
		ok, err := ev.Eval(cond, value.NewObject(r.Doc))
		if err != nil {
			return nil, err
		}
		if ok.Truthy() {
			out = append(out, r)
		}
	}
	return out, nil
}

func sortRows(c *Context, rows []Row, order []ast.OrderClause) {
	ev := NewEvaluator(c)
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range order {
			vi, _ := ev.Eval(o.Idiom, value.NewObject(rows[i].Doc))
			vj, _ := ev.Eval(o.Idiom, value.NewObject(rows[j].Doc))
			cmp := value.Compare(vi, vj)
			if cmp == 0 {
				continue
			}
			if o.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// rowCatalogTable resolves a *catalog.TableDef for constraint enforcement,
// returning nil (no constraints) for an undefined table — DEFINE is
// optional, per spec.md's schemaless default.
func rowCatalogTable(c *Context, table string) *catalog.TableDef {
	return c.Catalog.Table(table)
}
