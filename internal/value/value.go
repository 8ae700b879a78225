// Package value implements the tagged-union Value type described in
// spec.md §3: the dynamic value every expression, row, and index key in the
// engine is made of. It generalizes the teacher's flat, JSON-tagged row
// structs (models/models.go's Stage/Apply/Session) into a single tagged
// union with a total order and total equality, so Values can key maps/sets
// and sort deterministically (spec.md §8 "Total order").
package value

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Tag identifies which variant of Value is populated. Only the fields
// documented against each Tag are meaningful; reading another field for a
// given Tag is a programming error (checked by the accessor methods, which
// panic on tag mismatch — the same "trust internal invariants" posture the
// teacher takes with its own typed rows).
type Tag uint8

const (
	TagNone Tag = iota
	TagNull
	TagBool
	TagNumber
	TagString
	TagBytes
	TagDuration
	TagDatetime
	TagUuid
	TagRegex
	TagArray
	TagSet
	TagObject
	TagGeometry
	TagRecordID
	TagTable
	TagFile
	TagRange
	TagClosure
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagNumber:
		return "number"
	case TagString:
		return "string"
	case TagBytes:
		return "bytes"
	case TagDuration:
		return "duration"
	case TagDatetime:
		return "datetime"
	case TagUuid:
		return "uuid"
	case TagRegex:
		return "regex"
	case TagArray:
		return "array"
	case TagSet:
		return "set"
	case TagObject:
		return "object"
	case TagGeometry:
		return "geometry"
	case TagRecordID:
		return "record"
	case TagTable:
		return "table"
	case TagFile:
		return "file"
	case TagRange:
		return "range"
	case TagClosure:
		return "closure"
	default:
		return "unknown"
	}
}

// Value is the engine's dynamically-typed datum. It is immutable from the
// viewpoint of a running expression (clone-on-write: Set-like mutators
// return a new Value rather than mutating in place) per spec.md §3
// Lifecycle.
type Value struct {
	tag Tag

	b    bool
	num  Number
	str  string
	byts []byte
	dur  Duration
	dt   Datetime
	uid  uuid.UUID
	re   *Regex

	arr []Value
	set []Value // kept sorted+deduped by Equal, so Set ops are O(log n)
	obj *Object

	geo *Geometry
	rid *RecordID
	tbl Table
	fil *File
	rng *Range
	clo *Closure
}

// None is the zero Value — the engine's "absent" marker, distinct from Null.
var None = Value{tag: TagNone}

// Null is SurrealQL's explicit null literal.
var Null = Value{tag: TagNull}

func NewBool(b bool) Value        { return Value{tag: TagBool, b: b} }
func NewString(s string) Value    { return Value{tag: TagString, str: s} }
func NewBytes(b []byte) Value     { return Value{tag: TagBytes, byts: append([]byte(nil), b...)} }
func NewNumber(n Number) Value    { return Value{tag: TagNumber, num: n} }
func NewInt(i int64) Value        { return NewNumber(Number{kind: NumInt, i: i}) }
func NewFloat(f float64) Value    { return NewNumber(Number{kind: NumFloat, f: f}) }
func NewDuration(d Duration) Value { return Value{tag: TagDuration, dur: d} }
func NewDatetime(d Datetime) Value { return Value{tag: TagDatetime, dt: d} }
func NewUuid(u uuid.UUID) Value   { return Value{tag: TagUuid, uid: u} }
func NewRegex(r *Regex) Value     { return Value{tag: TagRegex, re: r} }
func NewTable(name string) Value  { return Value{tag: TagTable, tbl: Table{Name: name}} }

// NewArray takes ownership of elems (callers should not mutate it afterward).
func NewArray(elems []Value) Value { return Value{tag: TagArray, arr: elems} }

// NewSet builds a Set, deduplicating by Equal and sorting by the total
// order so Set ops (union/contains) are deterministic.
func NewSet(elems []Value) Value {
	out := make([]Value, 0, len(elems))
	for _, e := range elems {
		out = setInsert(out, e)
	}
	return Value{tag: TagSet, set: out}
}

func NewObject(o *Object) Value       { return Value{tag: TagObject, obj: o} }
func NewGeometry(g *Geometry) Value   { return Value{tag: TagGeometry, geo: g} }
func NewRecordID(r *RecordID) Value   { return Value{tag: TagRecordID, rid: r} }
func NewFile(f *File) Value           { return Value{tag: TagFile, fil: f} }
func NewRange(r *Range) Value         { return Value{tag: TagRange, rng: r} }
func NewClosure(c *Closure) Value     { return Value{tag: TagClosure, clo: c} }

func (v Value) Tag() Tag      { return v.tag }
func (v Value) IsNone() bool  { return v.tag == TagNone }
func (v Value) IsNull() bool  { return v.tag == TagNull }
func (v Value) IsNullish() bool { return v.tag == TagNone || v.tag == TagNull }
func (v Value) Truthy() bool {
	switch v.tag {
	case TagNone, TagNull:
		return false
	case TagBool:
		return v.b
	case TagNumber:
		return !v.num.IsZero()
	case TagString:
		return v.str != ""
	case TagArray:
		return len(v.arr) > 0
	case TagSet:
		return len(v.set) > 0
	case TagObject:
		return v.obj != nil && v.obj.Len() > 0
	default:
		return true
	}
}

// Bool/Str/Num/etc. are narrow accessors. They assume the caller already
// checked Tag() — the same trust-internal-invariants posture as the rest of
// this module.
func (v Value) Bool() bool       { return v.b }
func (v Value) Str() string      { return v.str }
func (v Value) NumberVal() Number { return v.num }
func (v Value) BytesVal() []byte { return v.byts }
func (v Value) DurationVal() Duration { return v.dur }
func (v Value) DatetimeVal() Datetime { return v.dt }
func (v Value) UuidVal() uuid.UUID { return v.uid }
func (v Value) RegexVal() *Regex { return v.re }
func (v Value) Array() []Value   { return v.arr }
func (v Value) SetElems() []Value { return v.set }
func (v Value) Object() *Object  { return v.obj }
func (v Value) GeometryVal() *Geometry { return v.geo }
func (v Value) RecordIDVal() *RecordID { return v.rid }
func (v Value) TableVal() Table  { return v.tbl }
func (v Value) FileVal() *File   { return v.fil }
func (v Value) RangeVal() *Range { return v.rng }
func (v Value) ClosureVal() *Closure { return v.clo }

// Table names a bare table reference (as opposed to a RecordID, which
// additionally carries a key).
type Table struct{ Name string }

// String renders v back to SurrealQL surface syntax, used both for
// formatting query results and for embedding the offending value in type
// errors (spec.md §7 "type errors include the offending value rendered
// back to surface syntax").
func (v Value) String() string {
	switch v.tag {
	case TagNone:
		return "NONE"
	case TagNull:
		return "NULL"
	case TagBool:
		if v.b {
			return "true"
		}
		return "false"
	case TagNumber:
		return v.num.String()
	case TagString:
		return "'" + strings.ReplaceAll(v.str, "'", "\\'") + "'"
	case TagBytes:
		return fmt.Sprintf("b%q", string(v.byts))
	case TagDuration:
		return v.dur.String()
	case TagDatetime:
		return "d\"" + v.dt.String() + "\""
	case TagUuid:
		return "u\"" + v.uid.String() + "\""
	case TagRegex:
		return "/" + v.re.Source + "/"
	case TagArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TagSet:
		parts := make([]string, len(v.set))
		for i, e := range v.set {
			parts[i] = e.String()
		}
		return "{" + strings.Join(parts, ", ") + "}" // set literal
	case TagObject:
		return v.obj.String()
	case TagGeometry:
		return v.geo.String()
	case TagRecordID:
		return v.rid.String()
	case TagTable:
		return v.tbl.Name
	case TagFile:
		return v.fil.String()
	case TagRange:
		return v.rng.String()
	case TagClosure:
		return "|...| {...}"
	default:
		return "?"
	}
}

// setInsert inserts val into a sorted, deduplicated slice, used by NewSet
// and Set union/difference operators.
func setInsert(elems []Value, val Value) []Value {
	i := sort.Search(len(elems), func(i int) bool { return Compare(elems[i], val) >= 0 })
	if i < len(elems) && Equal(elems[i], val) {
		return elems
	}
	out := make([]Value, len(elems)+1)
	copy(out, elems[:i])
	out[i] = val
	copy(out[i+1:], elems[i:])
	return out
}
