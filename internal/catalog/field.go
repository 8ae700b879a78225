package catalog

import (
	"fmt"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

// Evaluator evaluates an expression against the document being written.
// The executor supplies the real implementation; catalog only declares the
// interface, so that field constraint enforcement can live next to the
// schema it enforces without an import cycle (exec depends on catalog,
// not the other way around).
type Evaluator interface {
	Eval(expr ast.Expr, doc *value.Object) (value.Value, error)
}

// ApplyFieldConstraints runs one field's DEFINE FIELD pipeline over doc:
// default fills an absent value, TYPE coerces it, READONLY rejects a
// change from a prior value, and ASSERT runs last so it sees the coerced
// result — the same order original_source's DefineFieldStatement::compute
// applies default/kind/assert in.
func (fd *FieldDef) ApplyFieldConstraints(doc, existing *value.Object, ev Evaluator) error {
	cur, has := doc.Get(fd.Name)

	if !has && fd.Default != nil {
		v, err := ev.Eval(fd.Default, doc)
		if err != nil {
			return qerr.Wrap(qerr.ECSchema, fmt.Sprintf("default for field %q", fd.Name), err)
		}
		doc.Set(fd.Name, v)
		cur, has = v, true
	}

	if fd.Kind != nil && has {
		coerced, err := value.Coerce(cur, *fd.Kind)
		if err != nil {
			return qerr.Wrap(qerr.ECSchema, fmt.Sprintf("field %q", fd.Name), err)
		}
		doc.Set(fd.Name, coerced)
		cur = coerced
	}

	if fd.Readonly && existing != nil && has {
		if prev, existed := existing.Get(fd.Name); existed && !value.Equal(prev, cur) {
			return qerr.New(qerr.ECSchema, fmt.Sprintf("field %q is readonly", fd.Name))
		}
	}

	if fd.Assert != nil && has {
		ok, err := ev.Eval(fd.Assert, doc)
		if err != nil {
			return qerr.Wrap(qerr.ECSchema, fmt.Sprintf("assert on field %q", fd.Name), err)
		}
		if !ok.Truthy() {
			return qerr.New(qerr.ECSchema, fmt.Sprintf("value does not conform to assert on field %q", fd.Name))
		}
	}

	return nil
}

// ApplyTableConstraints runs every DEFINE FIELD on t over doc. Iteration
// order is unordered (map iteration) but each field is independent, so
// order doesn't affect the result.
func (t *TableDef) ApplyTableConstraints(doc, existing *value.Object, ev Evaluator) error {
	for _, fd := range t.Fields {
		if err := fd.ApplyFieldConstraints(doc, existing, ev); err != nil {
			return err
		}
	}
	return nil
}
