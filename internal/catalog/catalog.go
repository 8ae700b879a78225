// Package catalog is the schema cache a session consults while planning
// and executing statements: table/field/index/function/param definitions
// accumulated by DEFINE and retracted by REMOVE (spec.md §4.4's "per-table
// index and field catalog", §4.6's "field state, per-field permissions").
//
// One Catalog is scoped to a single namespace/database pair; multi-tenant
// routing across namespaces is the session layer's concern, not this
// package's. The map-plus-mutex shape, and the conflict-vs-IfNotExists
// handling on redefinition, are grounded on the teacher's
// internal/registry.Registry (RegisterProvider's "already registered"
// check generalized into DEFINE's IF NOT EXISTS / OVERWRITE modifiers).
package catalog

import (
	"fmt"
	"sync"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

// FieldDef is the resolved form of a DEFINE FIELD statement.
type FieldDef struct {
	Name     string
	Kind     *value.Kind
	Default  ast.Expr
	Readonly bool
	Assert   ast.Expr
}

// IndexDef is the resolved form of a DEFINE INDEX statement, consumed by
// the planner when it matches WHERE conditions against a table's indexes.
type IndexDef struct {
	Name      string
	Table     string
	Columns   []string
	Kind      ast.IndexKindKind
	Analyzer  string
	Dimension int
	Distance  string
}

// FunctionDef is the resolved form of a DEFINE FUNCTION statement.
type FunctionDef struct {
	Name string
	Args []ast.FuncArg
	Body ast.Expr
}

// ParamDef is the resolved form of a DEFINE PARAM statement. The value
// expression is stored unevaluated — params may reference builtins or
// other params, and evaluating it is the executor's job, not the
// catalog's (see Evaluator below).
type ParamDef struct {
	Name  string
	Value ast.Expr
}

// TableDef groups everything DEFINE FIELD/INDEX/EVENT attach to one table.
type TableDef struct {
	Name    string
	Fields  map[string]*FieldDef
	Indexes map[string]*IndexDef
	Events  map[string]struct{}
}

func newTableDef(name string) *TableDef {
	return &TableDef{
		Name:    name,
		Fields:  make(map[string]*FieldDef),
		Indexes: make(map[string]*IndexDef),
		Events:  make(map[string]struct{}),
	}
}

// FieldNames returns a table's field names, sorted is not guaranteed —
// callers that need stable order (INFO FOR TABLE) sort themselves.
func (t *TableDef) FieldNames() []string {
	names := make([]string, 0, len(t.Fields))
	for n := range t.Fields {
		names = append(names, n)
	}
	return names
}

// Catalog holds every DEFINE'd object for one namespace/database.
type Catalog struct {
	mu        sync.RWMutex
	tables    map[string]*TableDef
	functions map[string]*FunctionDef
	params    map[string]*ParamDef
}

func New() *Catalog {
	return &Catalog{
		tables:    make(map[string]*TableDef),
		functions: make(map[string]*FunctionDef),
		params:    make(map[string]*ParamDef),
	}
}

// table returns (creating if absent) the TableDef for name. Callers must
// hold c.mu.
func (c *Catalog) table(name string) *TableDef {
	t, ok := c.tables[name]
	if !ok {
		t = newTableDef(name)
		c.tables[name] = t
	}
	return t
}

// Table returns the definition for name, or nil if the table was never
// DEFINE'd (schemaless tables are still valid per spec.md — absence here
// just means no field/index constraints apply).
func (c *Catalog) Table(name string) *TableDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tables[name]
}

// Tables lists every table name that has been DEFINE'd or implicitly
// touched by DEFINE FIELD/INDEX/EVENT, for INFO FOR DATABASE.
func (c *Catalog) Tables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tables))
	for n := range c.tables {
		names = append(names, n)
	}
	return names
}

// Function looks up a DEFINE FUNCTION fn::name body.
func (c *Catalog) Function(name string) *FunctionDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.functions[name]
}

// Param looks up a DEFINE PARAM $name value expression.
func (c *Catalog) Param(name string) *ParamDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params[name]
}

func schemaExistsErr(what string) error {
	return qerr.New(qerr.ECSchema, what+" already exists")
}

func schemaMissingErr(what string) error {
	return qerr.New(qerr.ECSchema, what+" does not exist")
}

// Apply folds a DEFINE statement into the catalog. IfNotExists turns a
// conflicting redefinition into a no-op; Overwrite replaces unconditionally;
// a plain redefinition of an existing object is an ERR_SCHEMA error —
// mirroring the "already exists" checks original_source's define.rs runs
// before every DefineXStatement::compute.
func (c *Catalog) Apply(stmt *ast.DefineStatement) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch stmt.Kind {
	case ast.DefNamespace, ast.DefDatabase:
		// Addressed by the session layer (spec.md §5); the catalog only
		// tracks schema within one namespace/database, not the hierarchy
		// above it.
		return nil
	case ast.DefTable:
		if _, exists := c.tables[stmt.Name]; exists {
			if stmt.IfNotExists {
				return nil
			}
			if !stmt.Overwrite {
				return schemaExistsErr(fmt.Sprintf("table %q", stmt.Name))
			}
		}
		c.table(stmt.Name)
		return nil
	case ast.DefField:
		return c.applyField(stmt)
	case ast.DefIndex:
		return c.applyIndex(stmt)
	case ast.DefFunction:
		return c.applyFunction(stmt)
	case ast.DefParam:
		return c.applyParam(stmt)
	case ast.DefEvent:
		return c.applyEvent(stmt)
	default:
		// ANALYZER/ACCESS/USER/SCOPE/TOKEN/MODEL are parsed but carry no
		// schema the planner or executor consult (spec.md's scope excludes
		// auth and ML); nothing to store.
		return nil
	}
}

func (c *Catalog) applyField(stmt *ast.DefineStatement) error {
	t := c.table(stmt.OnTable)
	if _, exists := t.Fields[stmt.Name]; exists {
		if stmt.IfNotExists {
			return nil
		}
		if !stmt.Overwrite {
			return schemaExistsErr(fmt.Sprintf("field %s.%s", stmt.OnTable, stmt.Name))
		}
	}
	fd := &FieldDef{
		Name:     stmt.Name,
		Default:  stmt.Default,
		Readonly: stmt.Readonly,
		Assert:   stmt.Assert,
	}
	if stmt.FieldKind != nil {
		k, err := ParseKind(stmt.FieldKind.Raw)
		if err != nil {
			return qerr.Wrap(qerr.ECSchema, fmt.Sprintf("field %s.%s type", stmt.OnTable, stmt.Name), err)
		}
		fd.Kind = &k
	}
	t.Fields[stmt.Name] = fd
	return nil
}

func (c *Catalog) applyIndex(stmt *ast.DefineStatement) error {
	t := c.table(stmt.IndexTable)
	if _, exists := t.Indexes[stmt.Name]; exists {
		if stmt.IfNotExists {
			return nil
		}
		if !stmt.Overwrite {
			return schemaExistsErr(fmt.Sprintf("index %s.%s", stmt.IndexTable, stmt.Name))
		}
	}
	cols := make([]string, 0, len(stmt.IndexColumns))
	for _, idiom := range stmt.IndexColumns {
		cols = append(cols, idiomColumnName(idiom))
	}
	t.Indexes[stmt.Name] = &IndexDef{
		Name:      stmt.Name,
		Table:     stmt.IndexTable,
		Columns:   cols,
		Kind:      stmt.IndexKind.Kind,
		Analyzer:  stmt.IndexKind.Analyzer,
		Dimension: stmt.IndexKind.Dimension,
		Distance:  stmt.IndexKind.Distance,
	}
	return nil
}

func (c *Catalog) applyFunction(stmt *ast.DefineStatement) error {
	if _, exists := c.functions[stmt.Name]; exists {
		if stmt.IfNotExists {
			return nil
		}
		if !stmt.Overwrite {
			return schemaExistsErr("function " + stmt.Name)
		}
	}
	c.functions[stmt.Name] = &FunctionDef{Name: stmt.Name, Args: stmt.FuncArgs, Body: stmt.FuncBody}
	return nil
}

func (c *Catalog) applyParam(stmt *ast.DefineStatement) error {
	if _, exists := c.params[stmt.Name]; exists {
		if stmt.IfNotExists {
			return nil
		}
		if !stmt.Overwrite {
			return schemaExistsErr("param $" + stmt.Name)
		}
	}
	c.params[stmt.Name] = &ParamDef{Name: stmt.Name, Value: stmt.ParamValue}
	return nil
}

func (c *Catalog) applyEvent(stmt *ast.DefineStatement) error {
	t := c.table(stmt.OnTable)
	if _, exists := t.Events[stmt.Name]; exists {
		if stmt.IfNotExists {
			return nil
		}
		if !stmt.Overwrite {
			return schemaExistsErr(fmt.Sprintf("event %s.%s", stmt.OnTable, stmt.Name))
		}
	}
	t.Events[stmt.Name] = struct{}{}
	return nil
}

// Remove folds a REMOVE statement into the catalog. IfExists turns a
// missing-target removal into a no-op instead of an error.
func (c *Catalog) Remove(stmt *ast.RemoveStatement) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch stmt.Kind {
	case ast.DefTable:
		if _, exists := c.tables[stmt.Name]; !exists {
			if stmt.IfExists {
				return nil
			}
			return schemaMissingErr(fmt.Sprintf("table %q", stmt.Name))
		}
		delete(c.tables, stmt.Name)
		return nil
	case ast.DefField:
		t, exists := c.tables[stmt.OnTable]
		if exists {
			_, exists = t.Fields[stmt.Name]
		}
		if !exists {
			if stmt.IfExists {
				return nil
			}
			return schemaMissingErr(fmt.Sprintf("field %s.%s", stmt.OnTable, stmt.Name))
		}
		delete(t.Fields, stmt.Name)
		return nil
	case ast.DefIndex:
		t, exists := c.tables[stmt.OnTable]
		if exists {
			_, exists = t.Indexes[stmt.Name]
		}
		if !exists {
			if stmt.IfExists {
				return nil
			}
			return schemaMissingErr(fmt.Sprintf("index %s.%s", stmt.OnTable, stmt.Name))
		}
		delete(t.Indexes, stmt.Name)
		return nil
	case ast.DefEvent:
		t, exists := c.tables[stmt.OnTable]
		if exists {
			_, exists = t.Events[stmt.Name]
		}
		if !exists {
			if stmt.IfExists {
				return nil
			}
			return schemaMissingErr(fmt.Sprintf("event %s.%s", stmt.OnTable, stmt.Name))
		}
		delete(t.Events, stmt.Name)
		return nil
	case ast.DefFunction:
		if _, exists := c.functions[stmt.Name]; !exists {
			if stmt.IfExists {
				return nil
			}
			return schemaMissingErr("function " + stmt.Name)
		}
		delete(c.functions, stmt.Name)
		return nil
	case ast.DefParam:
		if _, exists := c.params[stmt.Name]; !exists {
			if stmt.IfExists {
				return nil
			}
			return schemaMissingErr("param $" + stmt.Name)
		}
		delete(c.params, stmt.Name)
		return nil
	default:
		return nil
	}
}

// idiomColumnName flattens a DEFINE INDEX FIELDS idiom (a bare identifier
// or a dotted field path) into the dotted string the planner matches
// against a WHERE condition's idiom.
func idiomColumnName(idiom *ast.IdiomExpr) string {
	name := ""
	if base, ok := idiom.Base.(*ast.Ident); ok {
		name = base.Name
	}
	for _, part := range idiom.Parts {
		if part.Kind == ast.PartField {
			if name != "" {
				name += "."
			}
			name += part.Field
		}
	}
	return name
}
