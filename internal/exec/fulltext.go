package exec

import (
	"context"
	"sort"
	"strings"

	"github.com/oxhq/qdb/internal/catalog"
	"github.com/oxhq/qdb/internal/planner"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/queryexec"
	"github.com/oxhq/qdb/internal/value"
)

// ftReference keys the per-(table,index) FullTextIndex cache an Executor
// shares across every predicate that names the same index (spec.md §4.7
// "instantiates each required FullText index...lazily and shares it").
func ftReference(ns, db, table, index string) string {
	return strings.Join([]string{ns, db, table, index}, "\x00")
}

// buildMatchExecutor assigns a MatchRef to every full-text predicate the
// Tree phase resolved, building (or reusing) each predicate's inverted
// index. Returns nil when cond names no full-text predicate, so callers
// can leave c.QE untouched for ordinary scans.
func buildMatchExecutor(ctx context.Context, c *Context, table string, tree *planner.TreeResult) (*queryexec.Executor, error) {
	var qe *queryexec.Executor
	for _, opt := range tree.Options {
		if opt.Op.Kind != planner.OpMatches || opt.Index == nil {
			continue
		}
		if qe == nil {
			qe = queryexec.New()
		}
		ref := qe.Register(opt.Source, opt.Index, opt.Op.Value.Str())
		key := ftReference(c.NS, c.DB, table, opt.Index.Name)
		ft, ok := qe.CachedFullText(key)
		if !ok {
			built, err := buildFullTextIndex(ctx, c, table, opt.Index)
			if err != nil {
				return nil, err
			}
			ft = built
			qe.CacheFullText(key, ft)
		}
		qe.SetIndex(ref, ft)
	}
	return qe, nil
}

// buildFullTextIndex scans table and indexes idx's column, the equivalent
// of SurrealDB's background full-text index build done inline since this
// engine has no separate index-maintenance worker.
func buildFullTextIndex(ctx context.Context, c *Context, table string, idx *catalog.IndexDef) (*queryexec.FullTextIndex, error) {
	rows, err := TableScan(ctx, c.Tx, c.NS, c.DB, table, false)
	if err != nil {
		return nil, err
	}
	ft := queryexec.NewFullTextIndex(idx.Analyzer)
	if len(idx.Columns) == 0 {
		return ft, nil
	}
	col := idx.Columns[0]
	for _, r := range rows {
		if r.ID == nil {
			continue
		}
		v, ok := r.Doc.Get(col)
		if !ok || v.Tag() != value.TagString {
			continue
		}
		ft.Index(r.ID.Key.String(), v.Str())
	}
	return ft, nil
}

// fullTextScan resolves a PlanFullText plan into matching rows, ordered by
// descending search::score — spec.md §4.6's FullTextScan operator.
func fullTextScan(ctx context.Context, c *Context, plan *planner.Plan) ([]Row, error) {
	if len(plan.Used) == 0 || c.QE == nil {
		return nil, qerr.Wrap(qerr.ECIndexing, "full-text scan", qerr.ErrNoIndexFoundForMatch)
	}
	opt := plan.Used[0]
	ref, ok := c.QE.RefOf(opt.Source)
	if !ok {
		return nil, qerr.Wrap(qerr.ECIndexing, "full-text scan", qerr.ErrNoIndexFoundForMatch)
	}
	ft, query, ok := c.QE.IndexFor(ref)
	if !ok {
		return nil, qerr.Wrap(qerr.ECIndexing, "full-text scan", qerr.ErrNoIndexFoundForMatch)
	}

	keys := ft.Match(query)
	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		rid := value.RecordIDKey{Kind: value.KeyString, Str: k}
		raw, found, err := c.Tx.Get(ctx, rowKey(c.NS, c.DB, plan.Index.Table, rid))
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
		var id *value.RecordID
		if idVal.Tag() == value.TagRecordID {
			id = idVal.RecordIDVal()
		}
		rows = append(rows, Row{ID: id, Doc: doc})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return ft.Score(rows[i].ID.Key.String(), query) > ft.Score(rows[j].ID.Key.String(), query)
	})
	return rows, nil
}
