package functions

import (
	"sort"

	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

func init() {
	register(Entry{Path: "array::len", MinArg: 1, MaxArg: 1, Call: arrayLen})
	register(Entry{Path: "array::first", MinArg: 1, MaxArg: 1, Call: arrayFirst})
	register(Entry{Path: "array::last", MinArg: 1, MaxArg: 1, Call: arrayLast})
	register(Entry{Path: "array::reverse", MinArg: 1, MaxArg: 1, Call: arrayReverse})
	register(Entry{Path: "array::sort", MinArg: 1, MaxArg: 2, Call: arraySort})
	register(Entry{Path: "array::distinct", MinArg: 1, MaxArg: 1, Call: arrayDistinct})
	register(Entry{Path: "array::flatten", MinArg: 1, MaxArg: 1, Call: arrayFlatten})
	register(Entry{Path: "array::concat", MinArg: 0, MaxArg: -1, Call: arrayConcat})
	register(Entry{Path: "array::append", MinArg: 2, MaxArg: 2, Call: arrayAppend})
	register(Entry{Path: "array::prepend", MinArg: 2, MaxArg: 2, Call: arrayPrepend})
	register(Entry{Path: "array::push", MinArg: 2, MaxArg: 2, Call: arrayAppend})
	register(Entry{Path: "array::pop", MinArg: 1, MaxArg: 1, Call: arrayPop})
	register(Entry{Path: "array::slice", MinArg: 2, MaxArg: 3, Call: arraySlice})
	register(Entry{Path: "array::contains", MinArg: 2, MaxArg: 2, Call: arrayContains})
	register(Entry{Path: "array::union", MinArg: 2, MaxArg: 2, Call: arrayUnion})
	register(Entry{Path: "array::intersect", MinArg: 2, MaxArg: 2, Call: arrayIntersect})
	register(Entry{Path: "array::difference", MinArg: 2, MaxArg: 2, Call: arrayDifference})
	register(Entry{Path: "array::group", MinArg: 1, MaxArg: 1, Call: arrayGroup})
}

func arg0Arr(args []value.Value) ([]value.Value, error) {
	if args[0].Tag() != value.TagArray {
		return nil, qerr.Invalidf("expected array, got %s", args[0].Tag())
	}
	return args[0].Array(), nil
}

func arrayLen(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	return value.NewInt(int64(len(a))), nil
}

func arrayFirst(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	if len(a) == 0 {
		return value.None, nil
	}
	return a[0], nil
}

func arrayLast(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	if len(a) == 0 {
		return value.None, nil
	}
	return a[len(a)-1], nil
}

func arrayReverse(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	out := make([]value.Value, len(a))
	for i, v := range a {
		out[len(a)-1-i] = v
	}
	return value.NewArray(out), nil
}

func arraySort(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	desc := false
	if len(args) == 2 {
		if args[1].Tag() == value.TagString && args[1].Str() == "desc" {
			desc = true
		} else if args[1].Tag() == value.TagBool {
			desc = !args[1].Bool()
		}
	}
	out := append([]value.Value(nil), a...)
	sort.SliceStable(out, func(i, j int) bool {
		c := value.Compare(out[i], out[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return value.NewArray(out), nil
}

func arrayDistinct(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	var out []value.Value
	for _, v := range a {
		found := false
		for _, o := range out {
			if value.Equal(o, v) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, v)
		}
	}
	return value.NewArray(out), nil
}

func arrayFlatten(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	var out []value.Value
	for _, v := range a {
		if v.Tag() == value.TagArray {
			out = append(out, v.Array()...)
		} else {
			out = append(out, v)
		}
	}
	return value.NewArray(out), nil
}

func arrayConcat(args []value.Value) (value.Value, error) {
	var out []value.Value
	for _, a := range args {
		if a.Tag() != value.TagArray {
			return value.None, qerr.Invalidf("array::concat: expected array, got %s", a.Tag())
		}
		out = append(out, a.Array()...)
	}
	return value.NewArray(out), nil
}

func arrayAppend(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	out := append(append([]value.Value(nil), a...), args[1])
	return value.NewArray(out), nil
}

func arrayPrepend(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	out := append([]value.Value{args[1]}, a...)
	return value.NewArray(out), nil
}

func arrayPop(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	if len(a) == 0 {
		return value.None, nil
	}
	return a[len(a)-1], nil
}

func arraySlice(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	start, err := args[1].NumberVal().AsInt64()
	if err != nil {
		return value.None, qerr.Invalidf("array::slice: invalid start")
	}
	end := int64(len(a))
	if len(args) == 3 {
		end, err = args[2].NumberVal().AsInt64()
		if err != nil {
			return value.None, qerr.Invalidf("array::slice: invalid end")
		}
	}
	start, end = clampSlice(start, end, int64(len(a)))
	out := append([]value.Value(nil), a[start:end]...)
	return value.NewArray(out), nil
}

func arrayContains(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	for _, v := range a {
		if value.Equal(v, args[1]) {
			return value.NewBool(true), nil
		}
	}
	return value.NewBool(false), nil
}

func arrayUnion(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	b, err := arg1Arr(args)
	if err != nil {
		return value.None, err
	}
	return arrayDistinct([]value.Value{value.NewArray(append(append([]value.Value(nil), a...), b...))})
}

func arg1Arr(args []value.Value) ([]value.Value, error) {
	if args[1].Tag() != value.TagArray {
		return nil, qerr.Invalidf("expected array, got %s", args[1].Tag())
	}
	return args[1].Array(), nil
}

func arrayIntersect(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	b, err := arg1Arr(args)
	if err != nil {
		return value.None, err
	}
	var out []value.Value
	for _, v := range a {
		for _, w := range b {
			if value.Equal(v, w) {
				out = append(out, v)
				break
			}
		}
	}
	return value.NewArray(out), nil
}

func arrayDifference(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	b, err := arg1Arr(args)
	if err != nil {
		return value.None, err
	}
	var out []value.Value
	for _, v := range a {
		found := false
		for _, w := range b {
			if value.Equal(v, w) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, v)
		}
	}
	return value.NewArray(out), nil
}

// arrayGroup flattens one level then distincts, matching SurrealDB's
// array::group semantics (group arrays-of-arrays into one distinct set).
func arrayGroup(args []value.Value) (value.Value, error) {
	flat, err := arrayFlatten(args)
	if err != nil {
		return value.None, err
	}
	return arrayDistinct([]value.Value{flat})
}
