package value

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Duration wraps time.Duration with SurrealQL's compact unit-suffixed
// rendering (spec.md §6: "Duration as 1h2m").
type Duration struct {
	D time.Duration
}

func (d Duration) String() string {
	if d.D == 0 {
		return "0ns"
	}
	return d.D.String()
}

// durationUnits maps SurrealQL's duration suffixes to their time.Duration
// multiple, in longest-first order so "ns" isn't matched inside "mo".
var durationUnits = []struct {
	suffix string
	unit   time.Duration
}{
	{"ns", time.Nanosecond},
	{"us", time.Microsecond},
	{"ms", time.Millisecond},
	{"s", time.Second},
	{"m", time.Minute},
	{"h", time.Hour},
	{"d", 24 * time.Hour},
	{"w", 7 * 24 * time.Hour},
	{"y", 365 * 24 * time.Hour},
}

// parseDurationLiteral parses a compact duration literal like "1h2m3s500ms"
// into a Duration, matching spec.md §6's rendering convention in reverse.
func parseDurationLiteral(s string) (Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Duration{}, false
	}
	var total time.Duration
	i := 0
	matchedAny := false
	for i < len(s) {
		start := i
		for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
			i++
		}
		if i == start {
			return Duration{}, false
		}
		numPart := s[start:i]
		unitStart := i
		for i < len(s) && (s[i] < '0' || s[i] > '9') {
			i++
		}
		unitPart := s[unitStart:i]
		var multiple time.Duration
		found := false
		for _, u := range durationUnits {
			if u.suffix == unitPart {
				multiple = u.unit
				found = true
				break
			}
		}
		if !found {
			return Duration{}, false
		}
		f, err := strconv.ParseFloat(numPart, 64)
		if err != nil {
			return Duration{}, false
		}
		total += time.Duration(f * float64(multiple))
		matchedAny = true
	}
	return Duration{D: total}, matchedAny
}

// ParseDuration exposes parseDurationLiteral to other packages (the lexer
// hands the parser a raw DURATION literal to turn into a Value).
func ParseDuration(s string) (Duration, bool) { return parseDurationLiteral(s) }

// Datetime is always stored and compared in UTC; spec.md §6 renders it as
// d"ISO".
type Datetime struct {
	T time.Time
}

func (d Datetime) String() string {
	return d.T.UTC().Format(time.RFC3339Nano)
}

// Regex wraps a compiled regular expression plus its original source, so
// re-serialization round-trips exactly (spec.md §8 roundtrip property).
type Regex struct {
	Source   string
	Compiled *regexp.Regexp
}

func CompileRegex(src string) (*Regex, error) {
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compiling regex %q: %w", src, err)
	}
	return &Regex{Source: src, Compiled: re}, nil
}

// Object is an ordered key→Value map: insertion order is preserved and
// serialization is stable, per spec.md §3 invariants.
type Object struct {
	keys   []string
	values map[string]Value
}

func NewObjectEmpty() *Object {
	return &Object{values: map[string]Value{}}
}

func ObjectFromPairs(pairs ...[2]any) *Object {
	o := NewObjectEmpty()
	for _, p := range pairs {
		o.Set(p[0].(string), p[1].(Value))
	}
	return o
}

// Set inserts or overwrites key, preserving first-seen insertion order for
// existing keys and appending for new ones.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

func (o *Object) Len() int { return len(o.keys) }

// Clone returns a shallow copy (clone-on-write semantics: the returned
// Object has its own key/slot storage but shares Value payloads, which are
// themselves immutable from the viewpoint of a running expression).
func (o *Object) Clone() *Object {
	cp := &Object{
		keys:   append([]string(nil), o.keys...),
		values: make(map[string]Value, len(o.values)),
	}
	for k, v := range o.values {
		cp.values[k] = v
	}
	return cp
}

func (o *Object) String() string {
	parts := make([]string, len(o.keys))
	for i, k := range o.keys {
		v, _ := o.values[k]
		parts[i] = fmt.Sprintf("%s: %s", k, v.String())
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// File is a storage bucket + key reference (spec.md §3).
type File struct {
	Bucket string
	Key    string
}

func (f *File) String() string {
	return "f\"" + f.Bucket + ":" + f.Key + "\""
}

// Closure is a callable value: parameters plus a body expression. Body is
// typed any to avoid an import cycle with the ast package; the idiom
// evaluator type-asserts it back to *ast.Closure when invoking.
type Closure struct {
	Params []string
	Body   any
}
