package exec

import (
	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

// ExecuteSelect runs a SELECT statement: DynamicScan resolves and orders
// the candidate rows, then START/LIMIT page the result and each
// SelectField projects one output column (spec.md §6). GROUP BY, SPLIT,
// FETCH, VERSION and per-row permission checks are out of scope for this
// executor (see DESIGN.md's Executor entry).
func ExecuteSelect(c *Context, stmt *ast.SelectStatement) ([]*value.Object, error) {
	if stmt.Explain {
		plan, err := ExplainPlan(c, stmt)
		if err != nil {
			return nil, err
		}
		out := value.NewObjectEmpty()
		out.Set("plan", value.NewString(plan))
		return []*value.Object{out}, nil
	}

	rows, err := DynamicScan(c, stmt.Targets, stmt.Cond, stmt.Order, stmt.With)
	if err != nil {
		return nil, err
	}

	ev := NewEvaluator(c)
	start, limit, err := resolvePaging(ev, stmt.Start, stmt.Limit)
	if err != nil {
		return nil, err
	}
	if start > 0 {
		if start >= len(rows) {
			rows = nil
		} else {
			rows = rows[start:]
		}
	}
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	out := make([]*value.Object, 0, len(rows))
	for _, r := range rows {
		projected, err := projectFields(ev, stmt.Fields, r)
		if err != nil {
			return nil, err
		}
		out = append(out, projected)
	}
	return out, nil
}

func resolvePaging(ev *Evaluator, startExpr, limitExpr ast.Expr) (start, limit int, err error) {
	limit = -1
	if startExpr != nil {
		v, err := ev.eval(startExpr, value.None)
		if err != nil {
			return 0, 0, err
		}
		n, err := v.NumberVal().AsInt64()
		if v.Tag() != value.TagNumber || err != nil {
			return 0, 0, qerr.New(qerr.ECConversion, "START must be a number")
		}
		start = int(n)
	}
	if limitExpr != nil {
		v, err := ev.eval(limitExpr, value.None)
		if err != nil {
			return 0, 0, err
		}
		n, err := v.NumberVal().AsInt64()
		if v.Tag() != value.TagNumber || err != nil {
			return 0, 0, qerr.New(qerr.ECConversion, "LIMIT must be a number")
		}
		limit = int(n)
	}
	return start, limit, nil
}

// projectFields builds one output document from a row per spec.md's
// SELECT field list: a bare "*" copies every field of the row, anything
// else evaluates against $this = the row's document and is placed under
// its alias (or a name derived from the expression).
func projectFields(ev *Evaluator, fields []ast.SelectField, r Row) (*value.Object, error) {
	this := value.NewObject(r.Doc)
	out := value.NewObjectEmpty()
	for _, f := range fields {
		if f.Star {
			for _, k := range r.Doc.Keys() {
				v, _ := r.Doc.Get(k)
				out.Set(k, v)
			}
			continue
		}
		v, err := ev.eval(f.Expr, this)
		if err != nil {
			return nil, err
		}
		out.Set(fieldName(f), v)
	}
	if len(fields) == 0 {
		return r.Doc.Clone(), nil
	}
	return out, nil
}

func fieldName(f ast.SelectField) string {
	if f.Alias != "" {
		return f.Alias
	}
	switch n := f.Expr.(type) {
	case *ast.Ident:
		return n.Name
	case *ast.IdiomExpr:
		if len(n.Parts) > 0 {
			last := n.Parts[len(n.Parts)-1]
			if last.Kind == ast.PartField {
				return last.Field
			}
		}
		if base, ok := n.Base.(*ast.Ident); ok {
			return base.Name
		}
	case *ast.FuncCall:
		return n.Path
	}
	return "expr"
}
