// Package exec runs parsed statements against a catalog and a kv.Store:
// DynamicScan and its scan strategies (spec.md §4.6), INSERT/UPSERT
// savepoint semantics (spec.md §4.8), and the expression evaluator idiom
// and catalog field constraints both need (Eval/CallClosure/GraphStep).
// Grounded on original_source/surrealdb/core/src/exec/operators/scan/dynamic.rs
// for the DynamicScan decision sequence and on
// original_source/surrealdb/core/tests/insert.rs for the savepoint-scoped
// conflict behavior (spec.md §8 scenario 3).
package exec

import (
	"github.com/oxhq/qdb/internal/catalog"
	"github.com/oxhq/qdb/internal/idiom"
	"github.com/oxhq/qdb/internal/kv"
	"github.com/oxhq/qdb/internal/planner"
	"github.com/oxhq/qdb/internal/queryexec"
	"github.com/oxhq/qdb/internal/value"
)

// Context is one statement's execution environment: the schema cache, the
// transaction it reads/writes through, and the namespace/database it's
// scoped to (spec.md §4.6 "required context level").
type Context struct {
	NS, DB  string
	Catalog *catalog.Catalog
	Tx      kv.Transaction
	Binds   planner.Binds
	Limits  idiom.Limits

	// QE is the current scan's InnerQueryExecutor (spec.md §4.7), set by
	// scanTable when the WHERE tree names a full-text predicate and
	// consulted afterwards by search::score/highlight/offsets while
	// projecting the SELECT field list. Nil outside a full-text scan.
	QE *queryexec.Executor
}

// WithBinds returns a shallow copy of c with vars merged into Binds,
// grounded on spec.md §6's `bind(vars)` chaining.
func (c *Context) WithBinds(vars map[string]value.Value) *Context {
	cp := *c
	merged := planner.Binds{}
	for k, v := range c.Binds {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	cp.Binds = merged
	return &cp
}
