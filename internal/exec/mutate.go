package exec

import (
	"context"

	"github.com/google/uuid"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/catalog"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

// fieldEvalAdapter satisfies catalog.Evaluator by delegating to an
// Evaluator, which evaluates with $this bound to the document object
// rather than an arbitrary idiom cursor.
type fieldEvalAdapter struct{ ev *Evaluator }

func (a fieldEvalAdapter) Eval(expr ast.Expr, doc *value.Object) (value.Value, error) {
	return a.ev.eval(expr, value.NewObject(doc))
}

// applyContent builds the document a CONTENT/MERGE/REPLACE/SET clause
// produces over an existing document (nil existing for a fresh insert),
// per spec.md §4.8.
func applyContent(ev *Evaluator, mode ast.InsertMode, content ast.Expr, sets []ast.SetField, existing *value.Object) (*value.Object, error) {
	switch mode {
	case ast.InsertSet:
		base := value.NewObjectEmpty()
		if existing != nil {
			base = existing.Clone()
		}
		return applySets(ev, base, sets)
	case ast.InsertReplace:
		v, err := ev.eval(content, objOrNone(existing))
		if err != nil {
			return nil, err
		}
		return asDocument(v)
	case ast.InsertMerge:
		v, err := ev.eval(content, objOrNone(existing))
		if err != nil {
			return nil, err
		}
		patch, err := asDocument(v)
		if err != nil {
			return nil, err
		}
		base := value.NewObjectEmpty()
		if existing != nil {
			base = existing.Clone()
		}
		for _, k := range patch.Keys() {
			fv, _ := patch.Get(k)
			base.Set(k, fv)
		}
		return base, nil
	default: // InsertContent
		v, err := ev.eval(content, objOrNone(existing))
		if err != nil {
			return nil, err
		}
		return asDocument(v)
	}
}

func objOrNone(o *value.Object) value.Value {
	if o == nil {
		return value.None
	}
	return value.NewObject(o)
}

func asDocument(v value.Value) (*value.Object, error) {
	if v.Tag() != value.TagObject {
		return nil, qerr.New(qerr.ECConversion, "CONTENT/REPLACE/MERGE value must be an object")
	}
	return v.Object(), nil
}

func applySets(ev *Evaluator, base *value.Object, sets []ast.SetField) (*value.Object, error) {
	for _, s := range sets {
		v, err := ev.eval(s.Value, value.NewObject(base))
		if err != nil {
			return nil, err
		}
		name, ok := idiomFieldName(s.Idiom)
		if !ok {
			return nil, qerr.New(qerr.ECUnsupported, "SET target must be a plain field path")
		}
		base.Set(name, v)
	}
	return base, nil
}

func idiomFieldName(idiom *ast.IdiomExpr) (string, bool) {
	base, ok := idiom.Base.(*ast.Ident)
	if !ok {
		return "", false
	}
	if len(idiom.Parts) == 0 {
		return base.Name, true
	}
	if len(idiom.Parts) == 1 && idiom.Parts[0].Kind == ast.PartField {
		return idiom.Parts[0].Field, true
	}
	return "", false
}

func newRecordID(table string) *value.RecordID {
	return &value.RecordID{Table: table, Key: value.StringKey(uuid.New().String())}
}

// insertRow is the savepoint-scoped write at the heart of spec.md §4.8:
// unique-index collisions inside one statement roll back only the
// conflicting row, not prior successful rows, by wrapping each row's
// write in its own savepoint (grounded on
// original_source/surrealdb/core/tests/insert.rs's per-row isolation).
func insertRow(c *Context, table string, doc *value.Object, ignore bool, onDup *ast.OnDuplicate, explicitID bool) (*value.Object, error) {
	ctx := context.Background()
	ev := NewEvaluator(c)

	if idVal, has := doc.Get("id"); !has || idVal.Tag() != value.TagRecordID {
		doc.Set("id", value.NewRecordID(newRecordID(table)))
		explicitID = false
	}

	tbl := rowCatalogTable(c, table)
	if tbl != nil {
		if err := tbl.ApplyTableConstraints(doc, nil, fieldEvalAdapter{ev}); err != nil {
			return nil, err
		}
	}

	sp, err := c.Tx.Savepoint(ctx)
	if err != nil {
		return nil, err
	}

	idVal, _ := doc.Get("id")
	idKey := idVal.RecordIDVal().Key

	conflict := false
	existingKey := idKey
	if explicitID {
		if _, found, err := getRow(ctx, c, table, idKey); err != nil {
			sp.RollbackTo(ctx)
			return nil, err
		} else if found {
			conflict = true
		}
	}
	if !conflict {
		idx, key, err := findUniqueConflict(ctx, c, tbl, table, doc)
		if err != nil {
			sp.RollbackTo(ctx)
			return nil, err
		}
		if idx != nil {
			conflict = true
			existingKey = key
		}
	}
	if conflict {
		if onDup != nil {
			existing, found, err := getRow(ctx, c, table, existingKey)
			if err != nil || !found {
				sp.RollbackTo(ctx)
				return nil, err
			}
			updated, err := applySets(ev, existing.Clone(), onDup.Sets)
			if err != nil {
				sp.RollbackTo(ctx)
				return nil, err
			}
			updated.Set("id", mustGet(existing, "id"))
			if err := writeRow(ctx, c, table, tbl, existingKey, updated); err != nil {
				sp.RollbackTo(ctx)
				return nil, err
			}
			sp.Release(ctx)
			return updated, nil
		}
		sp.RollbackTo(ctx)
		if ignore {
			return nil, nil
		}
		return nil, qerr.New(qerr.ECIndexing, "unique index conflict on table "+table)
	}

	if err := writeRow(ctx, c, table, tbl, idKey, doc); err != nil {
		sp.RollbackTo(ctx)
		return nil, err
	}
	sp.Release(ctx)
	return doc, nil
}

func mustGet(o *value.Object, k string) value.Value {
	v, _ := o.Get(k)
	return v
}

func findUniqueConflict(ctx context.Context, c *Context, tbl *catalog.TableDef, table string, doc *value.Object) (*catalog.IndexDef, value.RecordIDKey, error) {
	if tbl == nil {
		return nil, value.RecordIDKey{}, nil
	}
	for _, idx := range tbl.Indexes {
		if idx.Kind != ast.IdxUnique {
			continue
		}
		cols := make([]value.Value, len(idx.Columns))
		for i, col := range idx.Columns {
			v, _ := doc.Get(col)
			cols[i] = v
		}
		prefix := indexValuePrefix(c.NS, c.DB, table, idx.Name, cols)
		it, err := c.Tx.ScanRange(ctx, prefix, prefixUpperBoundOf(prefix), true, false, false)
		if err != nil {
			return nil, value.RecordIDKey{}, err
		}
		if it.Next() {
			key, _ := rowKeyFromIndexEntry(it.Key())
			it.Close()
			return idx, key, nil
		}
		it.Close()
	}
	return nil, value.RecordIDKey{}, nil
}

func getRow(ctx context.Context, c *Context, table string, key value.RecordIDKey) (*value.Object, bool, error) {
	raw, found, err := c.Tx.Get(ctx, rowKey(c.NS, c.DB, table, key))
	if err != nil || !found {
		return nil, false, err
	}
	doc, err := decodeRow(raw)
	return doc, true, err
}

// writeRow persists doc and refreshes every index entry for table. Stale
// entries from the row's previous values are deleted first (keyed off the
// existing row, if any) so an UPDATE that changes an indexed column
// doesn't leave a dangling index entry.
func writeRow(ctx context.Context, c *Context, table string, tbl *catalog.TableDef, key value.RecordIDKey, doc *value.Object) error {
	old, hadOld, _ := getRow(ctx, c, table, key)
	if tbl != nil && hadOld {
		for _, idx := range tbl.Indexes {
			if err := c.Tx.Delete(ctx, indexKeyFor(c.NS, c.DB, table, idx, old, key)); err != nil {
				return err
			}
		}
	}
	raw, err := encodeRow(doc)
	if err != nil {
		return err
	}
	if err := c.Tx.Set(ctx, rowKey(c.NS, c.DB, table, key), raw); err != nil {
		return err
	}
	if tbl != nil {
		for _, idx := range tbl.Indexes {
			if err := c.Tx.Set(ctx, indexKeyFor(c.NS, c.DB, table, idx, doc, key), []byte{1}); err != nil {
				return err
			}
		}
	}
	var oldForDiff *value.Object
	if hadOld {
		oldForDiff = old
	}
	return recordChange(ctx, c, table, key, oldForDiff, doc)
}

func indexKeyFor(ns, db, table string, idx *catalog.IndexDef, doc *value.Object, rowKeyPart value.RecordIDKey) []byte {
	cols := make([]value.Value, len(idx.Columns))
	for i, col := range idx.Columns {
		v, _ := doc.Get(col)
		cols[i] = v
	}
	return indexEntryKey(ns, db, table, idx.Name, cols, rowKeyPart)
}

func deleteRow(ctx context.Context, c *Context, table string, tbl *catalog.TableDef, key value.RecordIDKey) error {
	old, hadOld, _ := getRow(ctx, c, table, key)
	if tbl != nil && hadOld {
		for _, idx := range tbl.Indexes {
			if err := c.Tx.Delete(ctx, indexKeyFor(c.NS, c.DB, table, idx, old, key)); err != nil {
				return err
			}
		}
	}
	if err := c.Tx.Delete(ctx, rowKey(c.NS, c.DB, table, key)); err != nil {
		return err
	}
	if !hadOld {
		return nil
	}
	return recordChange(ctx, c, table, key, old, nil)
}

// ExecuteInsert runs an INSERT statement (spec.md §4.8).
func ExecuteInsert(c *Context, stmt *ast.InsertStatement) ([]*value.Object, error) {
	ev := NewEvaluator(c)
	rows, err := contentToRows(ev, stmt.Mode, stmt.Content, stmt.Sets)
	if err != nil {
		return nil, err
	}

	var out []*value.Object
	for _, row := range rows {
		_, explicit := row.Get("id")
		result, err := insertRow(c, stmt.Table, row, stmt.Ignore, stmt.OnDuplicate, explicit)
		if err != nil {
			return nil, err
		}
		if result != nil {
			out = append(out, result)
		}
	}
	return out, nil
}

// contentToRows normalizes INSERT's CONTENT (single object or array of
// objects) / SET clause into one document per row.
func contentToRows(ev *Evaluator, mode ast.InsertMode, content ast.Expr, sets []ast.SetField) ([]*value.Object, error) {
	if mode == ast.InsertSet {
		doc, err := applySets(ev, value.NewObjectEmpty(), sets)
		if err != nil {
			return nil, err
		}
		return []*value.Object{doc}, nil
	}
	v, err := ev.eval(content, value.None)
	if err != nil {
		return nil, err
	}
	if v.Tag() == value.TagArray {
		out := make([]*value.Object, 0, len(v.Array()))
		for _, e := range v.Array() {
			doc, err := asDocument(e)
			if err != nil {
				return nil, err
			}
			out = append(out, doc)
		}
		return out, nil
	}
	doc, err := asDocument(v)
	if err != nil {
		return nil, err
	}
	return []*value.Object{doc}, nil
}

// ExecuteCreate runs CREATE (spec.md §6): one row per target, erroring
// (rather than upserting) if a targeted record id already exists.
func ExecuteCreate(c *Context, stmt *ast.CreateStatement) ([]*value.Object, error) {
	ev := NewEvaluator(c)
	var out []*value.Object
	for _, t := range stmt.Targets {
		table, explicitID, id, err := resolveTargetID(ev, t)
		if err != nil {
			return nil, err
		}
		doc, err := applyContent(ev, stmt.Mode, stmt.Content, stmt.Sets, nil)
		if err != nil {
			return nil, err
		}
		if explicitID {
			doc.Set("id", value.NewRecordID(id))
		}
		result, err := insertRow(c, table, doc, false, nil, explicitID)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, nil
}

func resolveTargetID(ev *Evaluator, t ast.Target) (table string, explicit bool, id *value.RecordID, err error) {
	if t.Kind == ast.TargetTable {
		return t.Table, false, nil, nil
	}
	v, evalErr := ev.eval(t.Expr, value.None)
	if evalErr != nil {
		return "", false, nil, evalErr
	}
	if v.Tag() != value.TagRecordID {
		return "", false, nil, qerr.New(qerr.ECRuntime, "expected a record id target")
	}
	return v.RecordIDVal().Table, true, v.RecordIDVal(), nil
}

// ExecuteUpdate runs UPDATE/UPSERT (spec.md §4.8): UPDATE only touches
// existing rows; UPSERT creates on absence for a RecordID target.
func ExecuteUpdate(c *Context, stmt *ast.UpdateStatement) ([]*value.Object, error) {
	ev := NewEvaluator(c)
	var out []*value.Object
	for _, t := range stmt.Targets {
		rows, err := scanTarget(context.Background(), c, t, stmt.Cond, nil, nil)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 && stmt.Upsert && t.Kind == ast.TargetRecordID {
			table, _, id, err := resolveTargetID(ev, t)
			if err != nil {
				return nil, err
			}
			doc, err := applyContent(ev, stmt.Mode, stmt.Content, stmt.Sets, nil)
			if err != nil {
				return nil, err
			}
			doc.Set("id", value.NewRecordID(id))
			result, err := insertRow(c, table, doc, false, nil, true)
			if err != nil {
				return nil, err
			}
			out = append(out, result)
			continue
		}
		for _, r := range rows {
			if r.ID == nil {
				continue
			}
			tbl := rowCatalogTable(c, r.ID.Table)
			updated, err := applyContent(ev, stmt.Mode, stmt.Content, stmt.Sets, r.Doc)
			if err != nil {
				return nil, err
			}
			updated.Set("id", value.NewRecordID(r.ID))
			if tbl != nil {
				if err := tbl.ApplyTableConstraints(updated, r.Doc, fieldEvalAdapter{ev}); err != nil {
					return nil, err
				}
			}
			if err := writeRow(context.Background(), c, r.ID.Table, tbl, r.ID.Key, updated); err != nil {
				return nil, err
			}
			out = append(out, updated)
		}
	}
	return out, nil
}

// ExecuteDelete runs DELETE (spec.md §6).
func ExecuteDelete(c *Context, stmt *ast.DeleteStatement) ([]*value.Object, error) {
	var out []*value.Object
	for _, t := range stmt.Targets {
		rows, err := scanTarget(context.Background(), c, t, stmt.Cond, nil, nil)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if r.ID == nil {
				continue
			}
			tbl := rowCatalogTable(c, r.ID.Table)
			if err := deleteRow(context.Background(), c, r.ID.Table, tbl, r.ID.Key); err != nil {
				return nil, err
			}
			out = append(out, r.Doc)
		}
	}
	return out, nil
}
