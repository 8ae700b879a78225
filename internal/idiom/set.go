package idiom

import (
	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

// Set writes newVal at the location parts describes within base, per
// spec.md §4.2's set(path, value). Only the navigation Parts that name a
// concrete storage slot (Field, Index) are supported for writes — the
// projection/filter Parts (All, Where, Graph, ...) are read-only views and
// have no well-defined write target, matching the original's restriction of
// `set` to idioms built from plain field/index segments.
func Set(base value.Value, parts []ast.Part, newVal value.Value) (value.Value, error) {
	if len(parts) == 0 {
		return newVal, nil
	}
	p := parts[0]
	rest := parts[1:]

	switch p.Kind {
	case ast.PartField:
		obj := base.Object()
		if base.Tag() != value.TagObject {
			obj = value.NewObjectEmpty()
		} else {
			obj = obj.Clone()
		}
		cur, _ := obj.Get(p.Field)
		updated, err := Set(cur, rest, newVal)
		if err != nil {
			return value.None, err
		}
		obj.Set(p.Field, updated)
		return value.NewObject(obj), nil

	case ast.PartIndex:
		if p.Index == nil {
			return value.None, qerr.New(qerr.ECRuntime, "SET requires a literal index")
		}
		lit, ok := p.Index.(*ast.Literal)
		if !ok {
			return value.None, qerr.New(qerr.ECRuntime, "SET index must be a constant")
		}
		idx := lit.Val
		switch {
		case idx.Tag() == value.TagNumber:
			n, err := idx.NumberVal().AsInt64()
			if err != nil {
				return value.None, err
			}
			arr := append([]value.Value(nil), asArray(base)...)
			for int64(len(arr)) <= n {
				arr = append(arr, value.None)
			}
			updated, err := Set(arr[n], rest, newVal)
			if err != nil {
				return value.None, err
			}
			arr[n] = updated
			return value.NewArray(arr), nil
		case idx.Tag() == value.TagString:
			var obj *value.Object
			if base.Tag() == value.TagObject {
				obj = base.Object().Clone()
			} else {
				obj = value.NewObjectEmpty()
			}
			cur, _ := obj.Get(idx.Str())
			updated, err := Set(cur, rest, newVal)
			if err != nil {
				return value.None, err
			}
			obj.Set(idx.Str(), updated)
			return value.NewObject(obj), nil
		default:
			return value.None, qerr.New(qerr.ECRuntime, "unsupported SET index kind")
		}

	default:
		return value.None, qerr.New(qerr.ECUnsupported, "SET only supports field/index idiom paths")
	}
}
