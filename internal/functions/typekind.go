package functions

import (
	"github.com/oxhq/qdb/internal/value"
)

func init() {
	register(Entry{Path: "type::is::number", MinArg: 1, MaxArg: 1, Call: tagIs(value.TagNumber)})
	register(Entry{Path: "type::is::string", MinArg: 1, MaxArg: 1, Call: tagIs(value.TagString)})
	register(Entry{Path: "type::is::bool", MinArg: 1, MaxArg: 1, Call: tagIs(value.TagBool)})
	register(Entry{Path: "type::is::array", MinArg: 1, MaxArg: 1, Call: tagIs(value.TagArray)})
	register(Entry{Path: "type::is::object", MinArg: 1, MaxArg: 1, Call: tagIs(value.TagObject)})
	register(Entry{Path: "type::is::record", MinArg: 1, MaxArg: 1, Call: tagIs(value.TagRecordID)})
	register(Entry{Path: "type::is::datetime", MinArg: 1, MaxArg: 1, Call: tagIs(value.TagDatetime)})
	register(Entry{Path: "type::is::duration", MinArg: 1, MaxArg: 1, Call: tagIs(value.TagDuration)})
	register(Entry{Path: "type::is::uuid", MinArg: 1, MaxArg: 1, Call: tagIs(value.TagUuid)})
	register(Entry{Path: "type::is::none", MinArg: 1, MaxArg: 1, Call: func(args []value.Value) (value.Value, error) {
		return value.NewBool(args[0].IsNone()), nil
	}})
	register(Entry{Path: "type::is::null", MinArg: 1, MaxArg: 1, Call: func(args []value.Value) (value.Value, error) {
		return value.NewBool(args[0].IsNull()), nil
	}})
	register(Entry{Path: "type::string", MinArg: 1, MaxArg: 1, Call: func(args []value.Value) (value.Value, error) {
		return value.NewString(args[0].String()), nil
	}})
	register(Entry{Path: "type::int", MinArg: 1, MaxArg: 1, Call: typeInt})
	register(Entry{Path: "type::float", MinArg: 1, MaxArg: 1, Call: typeFloat})
	register(Entry{Path: "type::bool", MinArg: 1, MaxArg: 1, Call: typeBool})

	register(Entry{Path: "count", MinArg: 0, MaxArg: 1, Call: countFn})
}

func tagIs(tag value.Tag) Fn {
	return func(args []value.Value) (value.Value, error) {
		return value.NewBool(args[0].Tag() == tag), nil
	}
}

func typeInt(args []value.Value) (value.Value, error) {
	v := args[0]
	if v.Tag() == value.TagNumber {
		i, err := v.NumberVal().AsInt64()
		if err != nil {
			return value.None, err
		}
		return value.NewInt(i), nil
	}
	return value.Cast(v, value.IntK())
}

func typeFloat(args []value.Value) (value.Value, error) {
	v := args[0]
	if v.Tag() == value.TagNumber {
		return value.NewFloat(v.NumberVal().ToFloat()), nil
	}
	return value.Cast(v, value.FloatK())
}

func typeBool(args []value.Value) (value.Value, error) {
	return value.NewBool(args[0].Truthy()), nil
}

// countFn with no argument counts 1 (used as an aggregate placeholder
// inside GROUP BY projections, spec.md §4.5); with an array argument it
// counts elements; with a bool predicate array it counts trues.
func countFn(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NewInt(1), nil
	}
	if args[0].Tag() == value.TagArray {
		n := int64(0)
		for _, v := range args[0].Array() {
			if v.Tag() == value.TagBool {
				if v.Bool() {
					n++
				}
				continue
			}
			n++
		}
		return value.NewInt(n), nil
	}
	if args[0].Truthy() {
		return value.NewInt(1), nil
	}
	return value.NewInt(0), nil
}
