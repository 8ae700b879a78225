// Package session is the top layer spec.md §6 describes as the Query API:
// statement-sequence execution with LET/IF/FOR control flow, transaction
// control (BEGIN/COMMIT/CANCEL), USE, DEFINE/REMOVE dispatch, and the
// chaining Query/QueryResults/Take surface. internal/exec only knows how
// to run one CRUD/RELATE/SELECT statement inside an already-open
// transaction; this package is what walks a whole parsed script and owns
// that transaction's lifetime, the way the teacher's internal/cli.Run owns
// a batch of file jobs end to end.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/catalog"
	"github.com/oxhq/qdb/internal/exec"
	"github.com/oxhq/qdb/internal/idiom"
	"github.com/oxhq/qdb/internal/kv"
	"github.com/oxhq/qdb/internal/parser"
	"github.com/oxhq/qdb/internal/planner"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/qlog"
	"github.com/oxhq/qdb/internal/value"
)

// Session is one client's long-lived handle: a KV store, the schema cache
// scoped to its current namespace/database, and any LET-bound parameters
// that survive across Query calls (spec.md §6's bind(vars) is per-call;
// LET $x = ... inside a script is session-scoped, matching SurrealQL).
type Session struct {
	Store   kv.Store
	Catalog *catalog.Catalog
	NS, DB  string
	Limits  idiom.Limits
	Binds   map[string]value.Value

	tx       kv.Transaction // non-nil inside an explicit BEGIN…COMMIT/CANCEL block
	txFailed bool
}

// New opens a session against store, scoped to ns/db with a fresh catalog.
func New(store kv.Store, ns, db string) *Session {
	return &Session{
		Store:   store,
		Catalog: catalog.New(),
		NS:      ns,
		DB:      db,
		Limits:  idiom.DefaultLimits(),
		Binds:   map[string]value.Value{},
	}
}

// Query starts a chained query builder (spec.md §6 "query(text) → Query
// chaining").
func (s *Session) Query(text string) *Query {
	return &Query{sess: s, texts: []string{text}, binds: map[string]value.Value{}}
}

// execScope is everything one statement execution needs, threaded through
// control-flow recursion (IF/FOR/BLOCK bodies) without mutating Session
// itself except for the things SurrealQL scopes to the whole script: USE's
// NS/DB switch and LET's bindings.
type execScope struct {
	s     *Session
	ctx   context.Context
	tx    kv.Transaction
	binds map[string]value.Value
}

func (sc *execScope) withBind(name string, v value.Value) *execScope {
	merged := make(map[string]value.Value, len(sc.binds)+1)
	for k, val := range sc.binds {
		merged[k] = val
	}
	merged[name] = v
	return &execScope{s: sc.s, ctx: sc.ctx, tx: sc.tx, binds: merged}
}

func (sc *execScope) execContext() *exec.Context {
	return &exec.Context{
		NS:      sc.s.NS,
		DB:      sc.s.DB,
		Catalog: sc.s.Catalog,
		Tx:      sc.tx,
		Binds:   planner.Binds(sc.binds),
		Limits:  sc.s.Limits,
	}
}

// run parses text, executes every statement in order against one
// transaction (opened implicitly unless already inside an explicit
// BEGIN…COMMIT), and returns one StatementResult per top-level statement.
// A statement error never aborts its siblings (spec.md §7 "Errors inside
// one statement do not abort siblings") unless it occurs inside an
// explicit transaction block, which is marked for rollback instead.
func (s *Session) run(ctx context.Context, text string, extraBinds map[string]value.Value) (*QueryResults, error) {
	q, perr := parser.Parse(text)
	if perr != nil {
		return nil, qerr.Wrap(qerr.ECParse, "parsing query", perr)
	}

	binds := make(map[string]value.Value, len(s.Binds)+len(extraBinds))
	for k, v := range s.Binds {
		binds[k] = v
	}
	for k, v := range extraBinds {
		binds[k] = v
	}

	implicitTx := s.tx == nil
	tx := s.tx
	if implicitTx {
		t, err := s.Store.Begin(ctx)
		if err != nil {
			return nil, qerr.Wrap(qerr.ECRuntime, "opening transaction", err)
		}
		tx = t
	}

	sc := &execScope{s: s, ctx: ctx, tx: tx, binds: binds}
	results := make([]*StatementResult, 0, len(q.Statements))
	failed := false

	for _, stmt := range q.Statements {
		start := time.Now()
		rows, next, err := s.execStatement(sc, stmt)
		elapsed := time.Since(start)
		if next != nil {
			sc = next
		}
		results = append(results, &StatementResult{
			Stats: Stats{ExecutionTime: elapsed},
			Rows:  rows,
			Err:   err,
		})
		if err != nil {
			failed = true
			if !implicitTx {
				s.txFailed = true
			}
		}
	}

	if implicitTx {
		if failed {
			if err := tx.Rollback(ctx); err != nil {
				qlog.Warn("rollback after statement error failed", "err", err)
			}
		} else if err := tx.Commit(ctx); err != nil {
			return nil, qerr.Wrap(qerr.ECRuntime, "committing transaction", err)
		}
	}

	// USE/LET persist past this call even though the transaction they ran
	// under doesn't. bind(vars) values are dropped again (restoring any
	// session value they shadowed) unless a LET rebound the name to a
	// different value.
	for k, v := range extraBinds {
		if cur, ok := sc.binds[k]; ok && value.Equal(cur, v) {
			if prev, had := s.Binds[k]; had {
				sc.binds[k] = prev
			} else {
				delete(sc.binds, k)
			}
		}
	}
	s.Binds = sc.binds
	return &QueryResults{results: results}, nil
}

// execStatement dispatches one statement, returning the rows it produced
// (if any), a possibly-updated scope (USE/LET mutate it), and an error.
func (s *Session) execStatement(sc *execScope, stmt ast.Statement) ([]*value.Object, *execScope, error) {
	switch n := stmt.(type) {
	case *ast.SelectStatement, *ast.InsertStatement, *ast.CreateStatement,
		*ast.UpdateStatement, *ast.DeleteStatement, *ast.RelateStatement:
		rows, err := exec.Execute(sc.execContext(), n)
		return rows, sc, err

	case *ast.DefineStatement:
		return nil, sc, s.Catalog.Apply(n)
	case *ast.RemoveStatement:
		return nil, sc, s.Catalog.Remove(n)

	case *ast.UseStatement:
		if n.Namespace != "" {
			s.NS = n.Namespace
		}
		if n.Database != "" {
			s.DB = n.Database
		}
		return nil, sc, nil

	case *ast.LetStatement:
		ev := exec.NewEvaluator(sc.execContext())
		v, err := ev.Eval(n.Value, value.None)
		if err != nil {
			return nil, sc, err
		}
		return nil, sc.withBind(n.Name, v), nil

	case *ast.TransactionStatement:
		return nil, sc, s.execTransaction(sc, n)

	case *ast.IfStatement:
		return s.execIf(sc, n)
	case *ast.ForStatement:
		return s.execFor(sc, n)
	case *ast.BlockStatement:
		return s.execBlock(sc, n.Body)

	case *ast.ThrowStatement:
		ev := exec.NewEvaluator(sc.execContext())
		v, err := ev.Eval(n.Value, value.None)
		if err != nil {
			return nil, sc, err
		}
		return nil, sc, qerr.New(qerr.ECRuntime, fmt.Sprintf("%v", v))

	case *ast.BreakStatement, *ast.ContinueStatement, *ast.ReturnStatement:
		// Only meaningful inside FOR/block bodies (handled in execFor/
		// execBlock); at top level these are programming errors (spec.md
		// §7 "otherwise errors").
		return nil, sc, qerr.New(qerr.ECRuntime, "BREAK/CONTINUE/RETURN outside a loop or block")

	case *ast.ExprStatement:
		ev := exec.NewEvaluator(sc.execContext())
		v, err := ev.Eval(n.Expr, value.None)
		if err != nil {
			return nil, sc, err
		}
		return []*value.Object{wrapScalar(v)}, sc, nil

	case *ast.InfoStatement:
		obj, err := s.execInfo(n)
		if err != nil {
			return nil, sc, err
		}
		return []*value.Object{obj}, sc, nil

	case *ast.ShowChangesStatement:
		rows, err := exec.ShowChanges(sc.execContext(), n)
		return rows, sc, err

	case *ast.SleepStatement:
		ev := exec.NewEvaluator(sc.execContext())
		v, err := ev.Eval(n.Duration, value.None)
		if err != nil {
			return nil, sc, err
		}
		if v.Tag() != value.TagDuration {
			return nil, sc, qerr.New(qerr.ECConversion, "SLEEP argument must be a duration")
		}
		select {
		case <-sc.ctx.Done():
			return nil, sc, qerr.Wrap(qerr.ECRuntime, "sleep interrupted", qerr.ErrQueryCancelled)
		case <-time.After(v.DurationVal().D):
		}
		return nil, sc, nil

	case *ast.AccessStatement:
		// Token/scope issuance is outside the KV-bound core per spec.md §1
		// non-goals; ACCESS ... GRANT/LIST is acknowledged but not backed
		// by a real token store.
		return nil, sc, qerr.New(qerr.ECUnsupported, "ACCESS is not implemented by this session layer")

	default:
		return nil, sc, qerr.New(qerr.ECUnsupported, "statement not supported")
	}
}

func wrapScalar(v value.Value) *value.Object {
	o := value.NewObjectEmpty()
	o.Set("value", v)
	return o
}

func (s *Session) execTransaction(sc *execScope, n *ast.TransactionStatement) error {
	switch n.Kind {
	case ast.TxBegin:
		if s.tx != nil {
			return qerr.New(qerr.ECRuntime, "transaction already open")
		}
		tx, err := s.Store.Begin(sc.ctx)
		if err != nil {
			return qerr.Wrap(qerr.ECRuntime, "opening transaction", err)
		}
		s.tx = tx
		s.txFailed = false
		return nil
	case ast.TxCommit:
		if s.tx == nil {
			return qerr.New(qerr.ECRuntime, "no open transaction")
		}
		tx := s.tx
		s.tx = nil
		if s.txFailed {
			s.txFailed = false
			_ = tx.Rollback(sc.ctx)
			return qerr.New(qerr.ECRuntime, "transaction rolled back: a statement failed")
		}
		return tx.Commit(sc.ctx)
	case ast.TxCancel:
		if s.tx == nil {
			return qerr.New(qerr.ECRuntime, "no open transaction")
		}
		tx := s.tx
		s.tx = nil
		s.txFailed = false
		return tx.Rollback(sc.ctx)
	default:
		return qerr.New(qerr.ECRuntime, "unknown transaction statement")
	}
}

func (s *Session) execIf(sc *execScope, n *ast.IfStatement) ([]*value.Object, *execScope, error) {
	ev := exec.NewEvaluator(sc.execContext())
	cond, err := ev.Eval(n.Cond, value.None)
	if err != nil {
		return nil, sc, err
	}
	if cond.Truthy() {
		return s.execBlock(sc, n.Then)
	}
	for _, elif := range n.Elifs {
		v, err := ev.Eval(elif.Cond, value.None)
		if err != nil {
			return nil, sc, err
		}
		if v.Truthy() {
			return s.execBlock(sc, elif.Then)
		}
	}
	if n.Else != nil {
		return s.execBlock(sc, n.Else)
	}
	return nil, sc, nil
}

// execFor runs Body once per element of evaluating In, honoring BREAK/
// CONTINUE; a RETURN inside the loop ends the loop without an error, its
// value being the last row returned.
func (s *Session) execFor(sc *execScope, n *ast.ForStatement) ([]*value.Object, *execScope, error) {
	ev := exec.NewEvaluator(sc.execContext())
	iterable, err := ev.Eval(n.In, value.None)
	if err != nil {
		return nil, sc, err
	}
	elems := iterableElements(iterable)

	var out []*value.Object
	cur := sc
	for _, e := range elems {
		loopScope := cur.withBind(n.Var, e)
		rows, _, cf := s.execLoopBody(loopScope, n.Body)
		out = append(out, rows...)
		if cf != nil {
			switch cf.kind {
			case flowBreak:
				return out, cur, nil
			case flowContinue:
				continue
			case flowReturn, flowErr:
				return out, cur, cf.err
			}
		}
	}
	return out, cur, nil
}

func (s *Session) execBlock(sc *execScope, body []ast.Statement) ([]*value.Object, *execScope, error) {
	rows, next, cf := s.execLoopBody(sc, body)
	if cf != nil {
		return rows, next, cf.err
	}
	return rows, next, nil
}

type flowKind int

const (
	flowNone flowKind = iota
	flowBreak
	flowContinue
	flowReturn
	flowErr
)

type blockFlow struct {
	kind flowKind
	err  error
}

// execLoopBody runs stmts in sequence against sc, threading LET bindings
// forward and stopping early on BREAK/CONTINUE/RETURN/error.
func (s *Session) execLoopBody(sc *execScope, stmts []ast.Statement) ([]*value.Object, *execScope, *blockFlow) {
	var out []*value.Object
	cur := sc
	for _, stmt := range stmts {
		switch stmt.(type) {
		case *ast.BreakStatement:
			return out, cur, &blockFlow{kind: flowBreak}
		case *ast.ContinueStatement:
			return out, cur, &blockFlow{kind: flowContinue}
		case *ast.ReturnStatement:
			rs := stmt.(*ast.ReturnStatement)
			ev := exec.NewEvaluator(cur.execContext())
			v, err := ev.Eval(rs.Value, value.None)
			if err != nil {
				return out, cur, &blockFlow{kind: flowErr, err: err}
			}
			out = append(out, wrapScalar(v))
			return out, cur, &blockFlow{kind: flowReturn}
		}

		rows, next, err := s.execStatement(cur, stmt)
		if next != nil {
			cur = next
		}
		out = append(out, rows...)
		if err != nil {
			return out, cur, &blockFlow{kind: flowErr, err: err}
		}
	}
	return out, cur, nil
}

func iterableElements(v value.Value) []value.Value {
	switch v.Tag() {
	case value.TagArray:
		return v.Array()
	case value.TagNone, value.TagNull:
		return nil
	default:
		return []value.Value{v}
	}
}

func (s *Session) execInfo(n *ast.InfoStatement) (*value.Object, error) {
	obj := value.NewObjectEmpty()
	switch n.Target {
	case ast.InfoDatabase, ast.InfoRoot, ast.InfoNamespace:
		tables := value.NewObjectEmpty()
		for _, t := range s.Catalog.Tables() {
			tables.Set(t, value.NewString(t))
		}
		obj.Set("tables", value.NewObject(tables))
	case ast.InfoTable:
		tbl := s.Catalog.Table(n.Name)
		if tbl == nil {
			return nil, qerr.New(qerr.ECSchema, "table not found: "+n.Name)
		}
		fields := value.NewObjectEmpty()
		for name := range tbl.Fields {
			fields.Set(name, value.NewString(name))
		}
		indexes := value.NewObjectEmpty()
		for name := range tbl.Indexes {
			indexes.Set(name, value.NewString(name))
		}
		obj.Set("fields", value.NewObject(fields))
		obj.Set("indexes", value.NewObject(indexes))
	}
	return obj, nil
}
