package ast

// PartKind enumerates the Idiom navigation steps from spec.md §4.3.
type PartKind int

const (
	PartField PartKind = iota
	PartIndex
	PartAll
	PartFlatten
	PartFirst
	PartLast
	PartWhere
	PartValue
	PartGraph
	PartDestructure
	PartMethod
	PartOptional
	PartRecurse
	PartRepeatRecurse
)

// GraphDir is the edge-traversal direction for a Graph part.
type GraphDir int

const (
	DirOut GraphDir = iota
	DirIn
	DirBoth
)

// RecurseInstruction governs what a bounded self-application emits
// (spec.md §4.3 "Recursion semantics").
type RecurseInstruction int

const (
	RecursePath RecurseInstruction = iota
	RecurseCollect
	RecurseShortest
)

// Part is one step of an Idiom path. Only the fields documented for Kind
// are meaningful, the same tagged-union discipline as value.Value.
type Part struct {
	Kind PartKind

	Field string // PartField
	Index Expr   // PartIndex

	Where Expr // PartWhere
	Value Expr // PartValue

	GraphDir    GraphDir // PartGraph
	GraphEdges  []string // PartGraph: edge table names, empty = any
	GraphWhere  Expr     // PartGraph
	GraphLimit  Expr     // PartGraph
	GraphOrder  []OrderClause
	GraphAlias  string

	Destructure []DestructurePart // PartDestructure

	MethodName string // PartMethod
	MethodArgs []Expr // PartMethod

	RecurseMin         int  // PartRecurse
	RecurseMax         int  // PartRecurse; 0 means unspecified (must be set, see spec.md §4.3)
	RecurseInner       []Part
	RecurseInstruction RecurseInstruction
	RecurseTarget      Expr // PartRecurse shortest=target
	RecurseInclusive   bool
}

// DestructurePart projects one field (optionally with a nested path) into a
// Destructure result object.
type DestructurePart struct {
	Field string
	Inner []Part // nested destructure/idiom, empty = project as-is
}
