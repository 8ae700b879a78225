package value

import "fmt"

// RecordIDKeyKind enumerates the key shapes spec.md §3 allows:
// Int, String, Uuid, Array, Object, Range.
type RecordIDKeyKind uint8

const (
	KeyInt RecordIDKeyKind = iota
	KeyString
	KeyUuid
	KeyArray
	KeyObject
	KeyRange
)

// RecordIDKey is the polymorphic key half of a RecordID.
type RecordIDKey struct {
	Kind  RecordIDKeyKind
	Int   int64
	Str   string
	Uid   [16]byte
	Arr   []Value
	Obj   *Object
	Rng   *Range
}

func IntKey(i int64) RecordIDKey    { return RecordIDKey{Kind: KeyInt, Int: i} }
func StringKey(s string) RecordIDKey { return RecordIDKey{Kind: KeyString, Str: s} }
func ArrayKey(a []Value) RecordIDKey { return RecordIDKey{Kind: KeyArray, Arr: a} }
func ObjectKey(o *Object) RecordIDKey { return RecordIDKey{Kind: KeyObject, Obj: o} }
func RangeKey(r *Range) RecordIDKey  { return RecordIDKey{Kind: KeyRange, Rng: r} }

func (k RecordIDKey) String() string {
	switch k.Kind {
	case KeyInt:
		return fmt.Sprintf("%d", k.Int)
	case KeyString:
		return k.Str
	case KeyUuid:
		return fmt.Sprintf("u'%x'", k.Uid)
	case KeyArray:
		return NewArray(k.Arr).String()
	case KeyObject:
		return k.Obj.String()
	case KeyRange:
		return k.Rng.String()
	}
	return ""
}

// RecordID identifies one row: a (table, key) pair (spec.md §3, GLOSSARY).
// Invariant (spec.md §3): the table string must match the owning table;
// cross-table references are explicit, so callers must not silently rewrite
// Table on a RecordID obtained from a different table's rows.
type RecordID struct {
	Table string
	Key   RecordIDKey
}

func (r *RecordID) String() string {
	return r.Table + ":" + r.Key.String()
}

func (r *RecordID) Equal(o *RecordID) bool {
	return r.Table == o.Table && CompareRecordIDKey(r.Key, o.Key) == 0
}

// CompareRecordIDKey orders keys: by kind first (a fixed, arbitrary but
// stable ordinal), then by natural ordering within a kind. Array/object
// (compound) keys compare element-wise/lexicographically per spec.md §9
// "RecordId keys as arrays/objects".
func CompareRecordIDKey(a, b RecordIDKey) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch a.Kind {
	case KeyInt:
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		default:
			return 0
		}
	case KeyString:
		return cmpString(a.Str, b.Str)
	case KeyUuid:
		for i := range a.Uid {
			if a.Uid[i] != b.Uid[i] {
				if a.Uid[i] < b.Uid[i] {
					return -1
				}
				return 1
			}
		}
		return 0
	case KeyArray:
		return compareValueSlices(a.Arr, b.Arr)
	case KeyObject:
		return compareObjects(a.Obj, b.Obj)
	case KeyRange:
		return compareRanges(a.Rng, b.Rng)
	}
	return 0
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
