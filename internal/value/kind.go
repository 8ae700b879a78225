package value

// KindTag enumerates the structural type vocabulary from spec.md §3.
type KindTag uint8

const (
	KAny KindTag = iota
	KNone
	KNull
	KBool
	KInt
	KFloat
	KDecimal
	KNumber // any numeric representation
	KString
	KBytes
	KDuration
	KDatetime
	KUuid
	KRegex
	KOption  // Option<Kind>
	KEither  // Either<Kind...>
	KArray   // Array<Kind, Option<Len>>
	KSet     // Set<Kind, Option<Len>>
	KObject
	KRecord  // Record<[table...]>
	KGeometry
	KLiteral
	KFunction
	KFile
)

// Kind describes what a Value may be, per spec.md §3. It's a recursive
// structure mirroring a small closed AST: Inner for Option/Array/Set,
// Variants for Either, Tables for Record, GeoVariants for Geometry, and
// LiteralValue for Literal<KindLiteral>.
type Kind struct {
	Tag         KindTag
	Inner       *Kind
	Len         *int // Array/Set length constraint
	Variants    []Kind
	Tables      []string
	GeoVariants []string
	Buckets     []string
	LiteralVal  *Value
	FuncArgs    []Kind
	FuncReturn  *Kind
}

func Any() Kind    { return Kind{Tag: KAny} }
func NoneK() Kind  { return Kind{Tag: KNone} }
func NullK() Kind  { return Kind{Tag: KNull} }
func BoolK() Kind  { return Kind{Tag: KBool} }
func IntK() Kind   { return Kind{Tag: KInt} }
func FloatK() Kind { return Kind{Tag: KFloat} }
func DecimalK() Kind { return Kind{Tag: KDecimal} }
func NumberK() Kind  { return Kind{Tag: KNumber} }
func StringK() Kind  { return Kind{Tag: KString} }
func BytesK() Kind   { return Kind{Tag: KBytes} }
func DurationK() Kind { return Kind{Tag: KDuration} }
func DatetimeK() Kind { return Kind{Tag: KDatetime} }
func UuidK() Kind     { return Kind{Tag: KUuid} }
func RegexK() Kind    { return Kind{Tag: KRegex} }
func ObjectK() Kind   { return Kind{Tag: KObject} }

func OptionK(inner Kind) Kind { return Kind{Tag: KOption, Inner: &inner} }
func EitherK(variants ...Kind) Kind { return Kind{Tag: KEither, Variants: variants} }
func ArrayK(inner Kind, length *int) Kind {
	return Kind{Tag: KArray, Inner: &inner, Len: length}
}
func SetK(inner Kind, length *int) Kind {
	return Kind{Tag: KSet, Inner: &inner, Len: length}
}
func RecordK(tables ...string) Kind { return Kind{Tag: KRecord, Tables: tables} }
func GeometryK(variants ...string) Kind {
	return Kind{Tag: KGeometry, GeoVariants: variants}
}
func LiteralK(v Value) Kind { return Kind{Tag: KLiteral, LiteralVal: &v} }
func FunctionK(args []Kind, ret Kind) Kind {
	return Kind{Tag: KFunction, FuncArgs: args, FuncReturn: &ret}
}
func FileK(buckets ...string) Kind { return Kind{Tag: KFile, Buckets: buckets} }

func (k Kind) String() string {
	switch k.Tag {
	case KAny:
		return "any"
	case KNone:
		return "none"
	case KNull:
		return "null"
	case KBool:
		return "bool"
	case KInt:
		return "int"
	case KFloat:
		return "float"
	case KDecimal:
		return "decimal"
	case KNumber:
		return "number"
	case KString:
		return "string"
	case KBytes:
		return "bytes"
	case KDuration:
		return "duration"
	case KDatetime:
		return "datetime"
	case KUuid:
		return "uuid"
	case KRegex:
		return "regex"
	case KOption:
		return "option<" + k.Inner.String() + ">"
	case KEither:
		s := ""
		for i, v := range k.Variants {
			if i > 0 {
				s += " | "
			}
			s += v.String()
		}
		return s
	case KArray:
		return "array<" + k.Inner.String() + ">"
	case KSet:
		return "set<" + k.Inner.String() + ">"
	case KObject:
		return "object"
	case KRecord:
		if len(k.Tables) == 0 {
			return "record"
		}
		s := "record<"
		for i, t := range k.Tables {
			if i > 0 {
				s += " | "
			}
			s += t
		}
		return s + ">"
	case KGeometry:
		return "geometry"
	case KLiteral:
		return "literal"
	case KFunction:
		return "function"
	case KFile:
		return "file"
	}
	return "unknown"
}
