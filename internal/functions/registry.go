// Package functions holds the builtin path table (spec.md §4.1/§4.7):
// dotted paths like array::len or string::slug, organized by family, each
// resolving to a Go implementation over value.Value.
//
// The table shape — a flat map keyed by lowercased dotted path, with a
// Levenshtein-distance suggestion on miss — is grounded on
// original_source/core/src/syn/parser/builtin.rs (the path-table/suggestion
// behavior) combined with the teacher's internal/core/fuzzy.go
// levenshteinDistance, generalized from fuzzy code-symbol matching to exact
// builtin-path suggestion.
package functions

import (
	"strings"

	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

// Fn is one builtin implementation. args have already been evaluated;
// Fn returns the result Value or an error (spec.md §7 Runtime errors for
// wrong arity/type).
type Fn func(args []value.Value) (value.Value, error)

// Entry pairs a path with its implementation and declared arity, so the
// dispatcher can produce a precise arity error before calling in.
type Entry struct {
	Path   string
	MinArg int
	MaxArg int // -1 = unbounded
	Call   Fn
}

var registry = map[string]Entry{}

// register is called from each family's init() (array.go, string.go, ...),
// mirroring how the teacher's provider registry self-populates via
// init-time registration (internal/registry in the teacher).
func register(e Entry) {
	registry[strings.ToLower(e.Path)] = e
}

// Lookup resolves a dotted builtin path. On miss it returns an
// ErrorCode-tagged error carrying the closest known path by Levenshtein
// distance, when one is close enough to be a plausible typo.
func Lookup(path string) (Entry, error) {
	key := strings.ToLower(path)
	if e, ok := registry[key]; ok {
		return e, nil
	}
	suggestion := suggest(key)
	return Entry{}, qerr.InvalidPath(path, suggestion)
}

// Call resolves and invokes path with args, checking arity first.
func Call(path string, args []value.Value) (value.Value, error) {
	e, err := Lookup(path)
	if err != nil {
		return value.None, err
	}
	if len(args) < e.MinArg || (e.MaxArg >= 0 && len(args) > e.MaxArg) {
		return value.None, qerr.Invalidf("%s: expected %s arguments, got %d", e.Path, arityString(e), len(args))
	}
	return e.Call(args)
}

func arityString(e Entry) string {
	if e.MaxArg < 0 {
		return itoa(e.MinArg) + "+"
	}
	if e.MinArg == e.MaxArg {
		return itoa(e.MinArg)
	}
	return itoa(e.MinArg) + ".." + itoa(e.MaxArg)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

// suggestionMaxDistance bounds how different a path may be from the known
// set before we stop proposing it — avoids suggesting `array::len` for a
// wildly unrelated typo like `foo::bar`.
const suggestionMaxDistance = 3

func suggest(path string) string {
	best := ""
	bestDist := suggestionMaxDistance + 1
	for known := range registry {
		d := levenshteinDistance(path, known)
		if d < bestDist {
			bestDist = d
			best = known
		}
	}
	if bestDist > suggestionMaxDistance {
		return ""
	}
	return best
}

// levenshteinDistance computes edit distance between two strings, grounded
// on the teacher's internal/core/fuzzy.go implementation of the same
// algorithm (dynamic-programming matrix, deletion/insertion/substitution).
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
	}
	for i := 0; i <= len(s1); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}
	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			del := matrix[i-1][j] + 1
			ins := matrix[i][j-1] + 1
			sub := matrix[i-1][j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			matrix[i][j] = m
		}
	}
	return matrix[len(s1)][len(s2)]
}

// Paths returns every registered path, sorted by the caller if needed —
// used by INFO/EXPLAIN-adjacent tooling and tests.
func Paths() []string {
	out := make([]string, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	return out
}
