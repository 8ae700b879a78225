package exec

import (
	"fmt"
	"strings"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/planner"
	"github.com/oxhq/qdb/internal/qerr"
)

// ExplainPlan renders the access path the planner would choose for stmt
// without running it — spec.md §8's EXPLAIN scenario ("EXPLAIN shows
// SingleIndex with Equality([1]) prefix and Range on column y"). stmt's
// own Explain/ExplainFull flags select how much detail callers want;
// ExplainFull additionally lists every IndexOption the Tree phase found,
// matched or not, mirroring the original's EXPLAIN FULL verbosity.
func ExplainPlan(c *Context, stmt *ast.SelectStatement) (string, error) {
	if len(stmt.Targets) != 1 || stmt.Targets[0].Kind != ast.TargetTable {
		return "", qerr.New(qerr.ECUnsupported, "EXPLAIN supports a single table target")
	}
	table := stmt.Targets[0].Table
	tree, plan := planFor(table, c, stmt.Cond, stmt.Order, stmt.With)

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", table, plan.Kind)
	if plan.Index != nil {
		fmt.Fprintf(&b, "(%s)", plan.Index.Name)
	}
	if len(plan.Equalities) > 0 {
		fmt.Fprintf(&b, " Equality(%s)", columnList(plan.Equalities))
	}
	if plan.Range != nil {
		fmt.Fprintf(&b, " Range(%s)", rangeColumn(plan))
	}
	if plan.Kind == planner.PlanMultiIndex {
		for _, sub := range plan.MultiIndex {
			fmt.Fprintf(&b, "\n  union: %s(%s) Equality(%s)", sub.Kind, sub.Index.Name, columnList(sub.Equalities))
		}
	}

	if stmt.ExplainFull {
		fmt.Fprintf(&b, "\noptions:")
		for _, o := range tree.Options {
			name := "<no index>"
			if o.Index != nil {
				name = o.Index.Name
			}
			fmt.Fprintf(&b, "\n  %s col#%d on %s", operatorName(o.Op.Kind), o.ColumnPos, name)
		}
	}
	return b.String(), nil
}

func columnList(opts []planner.IndexOption) string {
	names := make([]string, len(opts))
	for i, o := range opts {
		names[i] = o.Op.Value.String()
	}
	return "[" + strings.Join(names, ",") + "]"
}

func rangeColumn(plan *planner.Plan) string {
	if plan.Index == nil || len(plan.Equalities) >= len(plan.Index.Columns) {
		return ""
	}
	return plan.Index.Columns[len(plan.Equalities)]
}

func operatorName(k planner.OperatorKind) string {
	switch k {
	case planner.OpEquality:
		return "Equality"
	case planner.OpUnion:
		return "Union"
	case planner.OpRangePart:
		return "RangePart"
	case planner.OpMatches:
		return "Matches"
	case planner.OpKnn:
		return "Knn"
	case planner.OpAnn:
		return "Ann"
	case planner.OpOrder:
		return "Order"
	default:
		return "Count"
	}
}
