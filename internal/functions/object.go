package functions

import (
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

func init() {
	register(Entry{Path: "object::len", MinArg: 1, MaxArg: 1, Call: objectLen})
	register(Entry{Path: "object::keys", MinArg: 1, MaxArg: 1, Call: objectKeys})
	register(Entry{Path: "object::values", MinArg: 1, MaxArg: 1, Call: objectValues})
	register(Entry{Path: "object::entries", MinArg: 1, MaxArg: 1, Call: objectEntries})
	register(Entry{Path: "object::from_entries", MinArg: 1, MaxArg: 1, Call: objectFromEntries})
}

func arg0Obj(args []value.Value) (*value.Object, error) {
	if args[0].Tag() != value.TagObject {
		return nil, qerr.Invalidf("expected object, got %s", args[0].Tag())
	}
	return args[0].Object(), nil
}

func objectLen(args []value.Value) (value.Value, error) {
	o, err := arg0Obj(args)
	if err != nil {
		return value.None, err
	}
	return value.NewInt(int64(o.Len())), nil
}

func objectKeys(args []value.Value) (value.Value, error) {
	o, err := arg0Obj(args)
	if err != nil {
		return value.None, err
	}
	keys := o.Keys()
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		out[i] = value.NewString(k)
	}
	return value.NewArray(out), nil
}

func objectValues(args []value.Value) (value.Value, error) {
	o, err := arg0Obj(args)
	if err != nil {
		return value.None, err
	}
	keys := o.Keys()
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		v, _ := o.Get(k)
		out[i] = v
	}
	return value.NewArray(out), nil
}

func objectEntries(args []value.Value) (value.Value, error) {
	o, err := arg0Obj(args)
	if err != nil {
		return value.None, err
	}
	keys := o.Keys()
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		v, _ := o.Get(k)
		out[i] = value.NewArray([]value.Value{value.NewString(k), v})
	}
	return value.NewArray(out), nil
}

func objectFromEntries(args []value.Value) (value.Value, error) {
	a, err := arg0Arr(args)
	if err != nil {
		return value.None, err
	}
	o := value.NewObjectEmpty()
	for _, entry := range a {
		if entry.Tag() != value.TagArray || len(entry.Array()) != 2 {
			return value.None, qerr.Invalidf("object::from_entries: expected [key, value] pairs")
		}
		pair := entry.Array()
		if pair[0].Tag() != value.TagString {
			return value.None, qerr.Invalidf("object::from_entries: key must be a string")
		}
		o.Set(pair[0].Str(), pair[1])
	}
	return value.NewObject(o), nil
}
