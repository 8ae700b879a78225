package exec

import (
	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

// Execute dispatches one parsed statement to its executor, returning the
// rows it produced (spec.md §6's per-statement result). DEFINE/REMOVE/
// transaction-control/scripting statements are the session layer's job,
// not this package's — see internal/session.
func Execute(c *Context, stmt ast.Statement) ([]*value.Object, error) {
	switch n := stmt.(type) {
	case *ast.SelectStatement:
		return ExecuteSelect(c, n)
	case *ast.InsertStatement:
		return ExecuteInsert(c, n)
	case *ast.CreateStatement:
		return ExecuteCreate(c, n)
	case *ast.UpdateStatement:
		return ExecuteUpdate(c, n)
	case *ast.DeleteStatement:
		return ExecuteDelete(c, n)
	case *ast.RelateStatement:
		return ExecuteRelate(c, n)
	default:
		return nil, qerr.New(qerr.ECUnsupported, "statement not supported by this executor")
	}
}
