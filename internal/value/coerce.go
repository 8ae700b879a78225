package value

import (
	"fmt"

	"github.com/oxhq/qdb/internal/qerr"
)

// CoerceError carries context the way original_source's coerce.rs
// CoerceError::ElementOf does: a nested coercion failure (e.g. inside an
// array<T> element) records the outer context without losing the inner
// cause, so the final message reads "expected string but found 3 when
// coercing an element of array<string>".
type CoerceError struct {
	From    Value
	Into    Kind
	Context string
	inner   error
}

func (e *CoerceError) Error() string {
	msg := fmt.Sprintf("expected %s but found %s", e.Into, e.From)
	if e.Context != "" {
		msg += " when coercing " + e.Context
	}
	return msg
}

func (e *CoerceError) Unwrap() error { return e.inner }

func newCoerceErr(v Value, k Kind) *CoerceError { return &CoerceError{From: v, Into: k} }

func withElementOf(err error, context string) error {
	if ce, ok := err.(*CoerceError); ok {
		if ce.Context == "" {
			cp := *ce
			cp.Context = context
			return &cp
		}
		return &CoerceError{From: ce.From, Into: ce.Into, Context: context, inner: ce}
	}
	return err
}

// Coerce is the strict conformance check from spec.md §4.2: it succeeds
// only if v already lies within kind, with narrow numeric widenings
// (Int<->Float when the fraction is zero, Int<->Decimal losslessly).
func Coerce(v Value, kind Kind) (Value, error) {
	switch kind.Tag {
	case KAny:
		return v, nil
	case KNone:
		if v.IsNone() {
			return v, nil
		}
		return Value{}, newCoerceErr(v, kind)
	case KNull:
		if v.IsNull() {
			return v, nil
		}
		return Value{}, newCoerceErr(v, kind)
	case KOption:
		if v.IsNullish() {
			return None, nil
		}
		return Coerce(v, *kind.Inner)
	case KEither:
		var lastErr error
		for _, variant := range kind.Variants {
			if cv, err := Coerce(v, variant); err == nil {
				return cv, nil
			} else {
				lastErr = err
			}
		}
		if lastErr == nil {
			lastErr = newCoerceErr(v, kind)
		}
		return Value{}, lastErr
	case KBool:
		if v.Tag() == TagBool {
			return v, nil
		}
		return Value{}, newCoerceErr(v, kind)
	case KInt:
		return coerceNumeric(v, kind, NumInt)
	case KFloat:
		return coerceNumeric(v, kind, NumFloat)
	case KDecimal:
		return coerceNumeric(v, kind, NumDecimal)
	case KNumber:
		if v.Tag() == TagNumber {
			return v, nil
		}
		return Value{}, newCoerceErr(v, kind)
	case KString:
		if v.Tag() == TagString {
			return v, nil
		}
		return Value{}, newCoerceErr(v, kind)
	case KBytes:
		if v.Tag() == TagBytes {
			return v, nil
		}
		return Value{}, newCoerceErr(v, kind)
	case KDuration:
		if v.Tag() == TagDuration {
			return v, nil
		}
		return Value{}, newCoerceErr(v, kind)
	case KDatetime:
		if v.Tag() == TagDatetime {
			return v, nil
		}
		return Value{}, newCoerceErr(v, kind)
	case KUuid:
		if v.Tag() == TagUuid {
			return v, nil
		}
		return Value{}, newCoerceErr(v, kind)
	case KRegex:
		if v.Tag() == TagRegex {
			return v, nil
		}
		return Value{}, newCoerceErr(v, kind)
	case KObject:
		if v.Tag() == TagObject {
			return v, nil
		}
		return Value{}, newCoerceErr(v, kind)
	case KGeometry:
		if v.Tag() != TagGeometry {
			return Value{}, newCoerceErr(v, kind)
		}
		if len(kind.GeoVariants) == 0 {
			return v, nil
		}
		want := v.GeometryVal().Kind.String()
		for _, allowed := range kind.GeoVariants {
			if allowed == want {
				return v, nil
			}
		}
		return Value{}, newCoerceErr(v, kind)
	case KFile:
		if v.Tag() != TagFile {
			return Value{}, newCoerceErr(v, kind)
		}
		if len(kind.Buckets) == 0 {
			return v, nil
		}
		for _, b := range kind.Buckets {
			if b == v.FileVal().Bucket {
				return v, nil
			}
		}
		return Value{}, newCoerceErr(v, kind)
	case KRecord:
		if v.Tag() != TagRecordID {
			// Table kind may accept a bare string when the variant list is
			// empty or contains the string (spec.md §4.2).
			if v.Tag() == TagString && recordAcceptsTable(kind, v.Str()) {
				return v, nil
			}
			return Value{}, newCoerceErr(v, kind)
		}
		if len(kind.Tables) == 0 {
			return v, nil
		}
		for _, t := range kind.Tables {
			if t == v.RecordIDVal().Table {
				return v, nil
			}
		}
		return Value{}, newCoerceErr(v, kind)
	case KArray:
		return coerceArrayLike(v, kind, false)
	case KSet:
		return coerceArrayLike(v, kind, true)
	case KLiteral:
		if Equal(v, *kind.LiteralVal) {
			return v, nil
		}
		return Value{}, newCoerceErr(v, kind)
	case KFunction:
		if v.Tag() == TagClosure {
			return v, nil
		}
		return Value{}, newCoerceErr(v, kind)
	}
	return Value{}, newCoerceErr(v, kind)
}

func recordAcceptsTable(kind Kind, s string) bool {
	if len(kind.Tables) == 0 {
		return true
	}
	for _, t := range kind.Tables {
		if t == s {
			return true
		}
	}
	return false
}

// coerceNumeric implements the narrow widenings spec.md §4.2 allows:
// Int<->Float when fraction==0, Int<->Decimal losslessly.
func coerceNumeric(v Value, kind Kind, want NumKind) (Value, error) {
	if v.Tag() != TagNumber {
		return Value{}, newCoerceErr(v, kind)
	}
	n := v.NumberVal()
	if n.Kind() == want {
		return v, nil
	}
	switch want {
	case NumFloat:
		if n.Kind() == NumInt {
			return NewNumber(FloatNumber(n.ToFloat())), nil
		}
	case NumInt:
		if n.Kind() == NumFloat {
			f := n.ToFloat()
			if f == float64(int64(f)) {
				return NewNumber(IntNumber(int64(f))), nil
			}
		}
		if n.Kind() == NumDecimal {
			if i, err := n.AsInt64(); err == nil {
				return NewNumber(IntNumber(i)), nil
			}
		}
	case NumDecimal:
		if r, ok := toRat(n); ok {
			return NewNumber(DecimalNumber(r)), nil
		}
	}
	return Value{}, newCoerceErr(v, kind)
}

func coerceArrayLike(v Value, kind Kind, isSet bool) (Value, error) {
	wantTag := TagArray
	if isSet {
		wantTag = TagSet
	}
	if v.Tag() != wantTag {
		return Value{}, newCoerceErr(v, kind)
	}
	elems := v.Array()
	if isSet {
		elems = v.SetElems()
	}
	if kind.Len != nil && len(elems) != *kind.Len {
		return Value{}, &CoerceError{From: v, Into: kind}
	}
	out := make([]Value, len(elems))
	for i, e := range elems {
		cv, err := Coerce(e, *kind.Inner)
		if err != nil {
			return Value{}, withElementOf(err, fmt.Sprintf("element of %s", kind))
		}
		out[i] = cv
	}
	if isSet {
		return NewSet(out), nil
	}
	return NewArray(out), nil
}

// AsQerr converts a CoerceError to the engine-wide qerr.Error for surfacing
// through the session/CLI layer.
func AsQerr(err error) *qerr.Error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CoerceError); ok {
		return qerr.Wrap(qerr.ECConversion, "coercion failed", ce)
	}
	return qerr.Wrap(qerr.ECConversion, "conversion failed", err)
}
