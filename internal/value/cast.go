package value

import (
	"strconv"
	"strings"

	"github.com/jinzhu/now"
)

// ConversionError is the permissive-cast counterpart of CoerceError (spec.md
// §4.2: "cast/coerce emit ConversionError{from, into, context?}").
type ConversionError struct {
	From    Value
	Into    Kind
	Context string
}

func (e *ConversionError) Error() string {
	msg := "cannot convert " + e.From.String() + " to " + e.Into.String()
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

// Cast implements the permissive `<kind> value` conversion from spec.md
// §4.2: it first tries Coerce (every coercion is a valid cast), then falls
// back to liberal conversions such as string<->number parsing.
func Cast(v Value, kind Kind) (Value, error) {
	if cv, err := Coerce(v, kind); err == nil {
		return cv, nil
	}
	switch kind.Tag {
	case KString:
		return NewString(v.String()), nil
	case KInt:
		if v.Tag() == TagString {
			if i, err := strconv.ParseInt(strings.TrimSpace(v.Str()), 10, 64); err == nil {
				return NewNumber(IntNumber(i)), nil
			}
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64); err == nil && f == float64(int64(f)) {
				return NewNumber(IntNumber(int64(f))), nil
			}
		}
		if v.Tag() == TagBool {
			if v.Bool() {
				return NewNumber(IntNumber(1)), nil
			}
			return NewNumber(IntNumber(0)), nil
		}
	case KFloat:
		if v.Tag() == TagString {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64); err == nil {
				return NewNumber(FloatNumber(f)), nil
			}
		}
		if v.Tag() == TagBool {
			if v.Bool() {
				return NewNumber(FloatNumber(1)), nil
			}
			return NewNumber(FloatNumber(0)), nil
		}
	case KBool:
		if v.Tag() == TagString {
			switch strings.ToLower(strings.TrimSpace(v.Str())) {
			case "true":
				return NewBool(true), nil
			case "false":
				return NewBool(false), nil
			}
		}
		if v.Tag() == TagNumber {
			return NewBool(!v.NumberVal().IsZero()), nil
		}
	case KDatetime:
		if v.Tag() == TagString {
			if t, err := now.Parse(v.Str()); err == nil {
				return NewDatetime(Datetime{T: t}), nil
			}
		}
	case KDuration:
		if v.Tag() == TagString {
			if d, ok := parseDurationLiteral(v.Str()); ok {
				return NewDuration(d), nil
			}
		}
	case KArray:
		if v.Tag() != TagArray && v.Tag() != TagSet && v.Tag() != TagNone {
			single, err := Cast(v, *kind.Inner)
			if err != nil {
				return Value{}, &ConversionError{From: v, Into: kind, Context: "wrapping single value as array"}
			}
			return NewArray([]Value{single}), nil
		}
	}
	return Value{}, &ConversionError{From: v, Into: kind}
}
