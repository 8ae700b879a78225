package exec

import (
	"context"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

// ExecuteRelate runs RELATE in->edge->out (spec.md §6): one row in the edge
// table carrying "in"/"out" RecordId fields, the same write path as CREATE
// so DEFINE FIELD/INDEX on the edge table still apply.
func ExecuteRelate(c *Context, stmt *ast.RelateStatement) ([]*value.Object, error) {
	ev := NewEvaluator(c)
	inVal, err := ev.eval(stmt.In, value.None)
	if err != nil {
		return nil, err
	}
	outVal, err := ev.eval(stmt.Out, value.None)
	if err != nil {
		return nil, err
	}
	if inVal.Tag() != value.TagRecordID || outVal.Tag() != value.TagRecordID {
		return nil, qerr.New(qerr.ECRuntime, "RELATE requires record id endpoints")
	}

	var doc *value.Object
	if stmt.Content != nil {
		v, err := ev.eval(stmt.Content, value.None)
		if err != nil {
			return nil, err
		}
		doc, err = asDocument(v)
		if err != nil {
			return nil, err
		}
	} else {
		doc, err = applySets(ev, value.NewObjectEmpty(), stmt.Sets)
		if err != nil {
			return nil, err
		}
	}
	doc.Set("in", inVal)
	doc.Set("out", outVal)

	result, err := insertRow(c, stmt.Edge, doc, false, nil, false)
	if err != nil {
		return nil, err
	}
	return []*value.Object{result}, nil
}

// GraphStep implements idiom.Evaluator: resolve one ->edge-> / <-edge<- /
// <->edge<-> hop from rid. A name matching rid's own table is a
// pass-through filter (the part that names the far-side table after an
// edge hop, e.g. the "person" in ->likes->person); any other name is an
// edge table, scanned for rows whose in/out field matches rid.
func (e *Evaluator) GraphStep(rid *value.RecordID, p ast.Part) (value.Value, error) {
	ctx := context.Background()
	var out []value.Value
	seen := map[string]bool{}

	add := func(v value.Value) {
		if v.Tag() != value.TagRecordID {
			return
		}
		key := v.RecordIDVal().String()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, v)
	}

	names := p.GraphEdges
	if len(names) == 0 {
		names = []string{""}
	}

	for _, name := range names {
		if name != "" && name == rid.Table {
			add(value.NewRecordID(rid))
			continue
		}
		edges, err := e.scanEdgeTable(ctx, name, rid, p.GraphDir)
		if err != nil {
			return value.None, err
		}
		for _, v := range edges {
			add(v)
		}
	}

	result := value.NewArray(out)
	if p.GraphWhere != nil {
		filtered, err := whereFilterValues(e, result, p.GraphWhere)
		if err != nil {
			return value.None, err
		}
		result = filtered
	}
	return result, nil
}

// scanEdgeTable walks every row of one edge table. An explicit edge name is
// required, matching spec.md's ->edge-> syntax: name == "" is an
// ECUnsupported error rather than a scan of every table.
func (e *Evaluator) scanEdgeTable(ctx context.Context, name string, rid *value.RecordID, dir ast.GraphDir) ([]value.Value, error) {
	if name == "" {
		return nil, qerr.New(qerr.ECUnsupported, "graph traversal requires a named edge table")
	}
	rows, err := TableScan(ctx, e.ctx.Tx, e.ctx.NS, e.ctx.DB, name, false)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, r := range rows {
		inV, _ := r.Doc.Get("in")
		outV, _ := r.Doc.Get("out")
		switch dir {
		case ast.DirOut:
			if inV.Tag() == value.TagRecordID && inV.RecordIDVal().Equal(rid) {
				out = append(out, outV)
			}
		case ast.DirIn:
			if outV.Tag() == value.TagRecordID && outV.RecordIDVal().Equal(rid) {
				out = append(out, inV)
			}
		case ast.DirBoth:
			if inV.Tag() == value.TagRecordID && inV.RecordIDVal().Equal(rid) {
				out = append(out, outV)
			}
			if outV.Tag() == value.TagRecordID && outV.RecordIDVal().Equal(rid) {
				out = append(out, inV)
			}
		}
	}
	return out, nil
}

func whereFilterValues(e *Evaluator, arr value.Value, cond ast.Expr) (value.Value, error) {
	elems := arr.Array()
	out := make([]value.Value, 0, len(elems))
	for _, el := range elems {
		ok, err := e.eval(cond, el)
		if err != nil {
			return value.None, err
		}
		if ok.Truthy() {
			out = append(out, el)
		}
	}
	return value.NewArray(out), nil
}
