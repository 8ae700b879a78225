package idiom

import (
	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

// recurse implements spec.md §4.3's bounded self-application: inner (or the
// part list following Recurse, already captured into RecurseInner by the
// parser) is applied iteratively at least RecurseMin and at most RecurseMax
// times. Cycle elimination drops branches that revisit an already-seen
// value; the three instruction variants (path/collect/shortest) govern what
// gets emitted.
func recurse(cur value.Value, p ast.Part, ev Evaluator, budget *recursionBudget) (value.Value, error) {
	if p.RecurseMax == 0 {
		return value.None, qerr.Wrap(qerr.ECRuntime, "RECURSE max must not be 0", qerr.ErrRecursionPlanConflict)
	}

	chain := make([]value.Value, 0, p.RecurseMax+1)
	visited := make([]value.Value, 0, p.RecurseMax+1)
	if p.RecurseInclusive {
		chain = append(chain, cur)
		visited = append(visited, cur)
	}

	current := cur
	matched := false
	for depth := 1; depth <= p.RecurseMax; depth++ {
		if err := budget.consume(); err != nil {
			return value.None, err
		}
		next, err := Get(current, p.RecurseInner, ev, DefaultLimits())
		if err != nil {
			return value.None, err
		}
		if next.IsNullish() {
			break
		}
		if containsValue(visited, next) {
			break // cycle elimination: already seen this branch
		}
		visited = append(visited, next)
		if depth >= p.RecurseMin {
			chain = append(chain, next)
		}
		current = next

		if p.RecurseInstruction == ast.RecurseShortest {
			target, err := ev.Eval(p.RecurseTarget, next)
			if err != nil {
				return value.None, err
			}
			if value.Equal(target, next) {
				matched = true
				break
			}
		}
	}

	switch p.RecurseInstruction {
	case ast.RecursePath:
		return value.NewArray(chain), nil
	case ast.RecurseCollect:
		return value.NewArray(dedup(visited)), nil
	case ast.RecurseShortest:
		if !matched {
			return value.None, nil
		}
		return value.NewArray(chain), nil
	default:
		return value.NewArray(chain), nil
	}
}

func containsValue(haystack []value.Value, v value.Value) bool {
	for _, h := range haystack {
		if value.Equal(h, v) {
			return true
		}
	}
	return false
}

func dedup(vs []value.Value) []value.Value {
	out := make([]value.Value, 0, len(vs))
	for _, v := range vs {
		if !containsValue(out, v) {
			out = append(out, v)
		}
	}
	return out
}
