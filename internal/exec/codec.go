package exec

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oxhq/qdb/internal/lexer"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

// encodeRow/decodeRow implement the row storage format: a JSON-like
// encoding with type tags for non-JSON values (spec.md §6 "Values
// serialize to/from JSON-like form with type tags"). Since plain JSON
// can't distinguish Int from Float on the wire, both are carried as
// {"$t":"i","v":1} / {"$t":"f","v":1.0} wrapper objects rather than bare
// numbers; Duration ("1h2m"), Datetime (RFC 3339), Uuid, RecordId
// ("table:key") and Bytes use {"$t":"dur"|"dt"|"uuid"|"rid"|"bytes","v":...},
// objects are wrapped as {"$t":"obj","v":{...}}, and any other kind is
// stored as its display string under "$t":"str". Arrays/strings/bools pass
// through as plain JSON, and None/Null both become null.
func encodeRow(o *value.Object) ([]byte, error) {
	return json.Marshal(toJSONish(value.NewObject(o)))
}

func decodeRow(b []byte) (*value.Object, error) {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, qerr.Wrap(qerr.ECRuntime, "decode stored row", err)
	}
	v := fromJSONish(raw)
	if v.Tag() != value.TagObject {
		return nil, qerr.New(qerr.ECRuntime, "stored row is not an object")
	}
	return v.Object(), nil
}

func toJSONish(v value.Value) interface{} {
	switch v.Tag() {
	case value.TagNone, value.TagNull:
		return nil
	case value.TagBool:
		return v.Bool()
	case value.TagString:
		return v.Str()
	case value.TagNumber:
		n := v.NumberVal()
		if n.Kind() == value.NumInt {
			if i, err := n.AsInt64(); err == nil {
				return map[string]interface{}{"$t": "i", "v": i}
			}
		}
		return map[string]interface{}{"$t": "f", "v": n.ToFloat()}
	case value.TagDuration:
		return map[string]interface{}{"$t": "dur", "v": v.DurationVal().String()}
	case value.TagDatetime:
		return map[string]interface{}{"$t": "dt", "v": v.DatetimeVal().String()}
	case value.TagUuid:
		return map[string]interface{}{"$t": "uuid", "v": v.UuidVal().String()}
	case value.TagRecordID:
		return map[string]interface{}{"$t": "rid", "v": v.RecordIDVal().String()}
	case value.TagBytes:
		return map[string]interface{}{"$t": "bytes", "v": string(v.BytesVal())}
	case value.TagArray:
		elems := v.Array()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = toJSONish(e)
		}
		return out
	case value.TagObject:
		o := v.Object()
		out := make(map[string]interface{}, o.Len())
		for _, k := range o.Keys() {
			fv, _ := o.Get(k)
			out[k] = toJSONish(fv)
		}
		return map[string]interface{}{"$t": "obj", "v": out}
	default:
		return map[string]interface{}{"$t": "str", "v": v.String()}
	}
}

func fromJSONish(raw interface{}) value.Value {
	switch x := raw.(type) {
	case nil:
		return value.Null
	case bool:
		return value.NewBool(x)
	case string:
		return value.NewString(x)
	case float64:
		return value.NewFloat(x)
	case []interface{}:
		out := make([]value.Value, len(x))
		for i, e := range x {
			out[i] = fromJSONish(e)
		}
		return value.NewArray(out)
	case map[string]interface{}:
		tag, hasTag := x["$t"].(string)
		if !hasTag {
			return fromPlainObject(x)
		}
		return fromTaggedWrapper(tag, x["v"])
	default:
		return value.None
	}
}

func fromPlainObject(x map[string]interface{}) value.Value {
	o := value.NewObjectEmpty()
	for k, v := range x {
		o.Set(k, fromJSONish(v))
	}
	return value.NewObject(o)
}

func fromTaggedWrapper(tag string, raw interface{}) value.Value {
	switch tag {
	case "i":
		if f, ok := raw.(float64); ok {
			return value.NewInt(int64(f))
		}
	case "f":
		if f, ok := raw.(float64); ok {
			return value.NewFloat(f)
		}
	case "str":
		if s, ok := raw.(string); ok {
			return value.NewString(s)
		}
	case "dur":
		if s, ok := raw.(string); ok {
			if d, ok := value.ParseDuration(s); ok {
				return value.NewDuration(d)
			}
		}
	case "dt":
		if s, ok := raw.(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return value.NewDatetime(value.Datetime{T: t})
			}
		}
	case "uuid":
		if s, ok := raw.(string); ok {
			if u, err := uuid.Parse(s); err == nil {
				return value.NewUuid(u)
			}
		}
	case "rid":
		if s, ok := raw.(string); ok {
			if rid, ok := parseRecordIDText(s); ok {
				return value.NewRecordID(rid)
			}
		}
	case "bytes":
		if s, ok := raw.(string); ok {
			return value.NewBytes([]byte(s))
		}
	case "obj":
		if m, ok := raw.(map[string]interface{}); ok {
			return fromPlainObject(m)
		}
	}
	return value.None
}

// parseRecordIDText turns the "table:key" display form back into a
// RecordID; the row codec only ever needs to round-trip what toJSONish
// wrote, so bare int/string keys cover it (array/object/range keys are
// not used as document "id" values).
func parseRecordIDText(s string) (*value.RecordID, bool) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return nil, false
	}
	table, idStr := s[:idx], s[idx+1:]
	if i, err := lexer.ParseIntLiteral(idStr); err == nil {
		return &value.RecordID{Table: table, Key: value.IntKey(i)}, true
	}
	return &value.RecordID{Table: table, Key: value.StringKey(idStr)}, true
}
