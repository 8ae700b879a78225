package functions

import (
	"strconv"
	"strings"

	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

func init() {
	register(Entry{Path: "string::len", MinArg: 1, MaxArg: 1, Call: stringLen})
	register(Entry{Path: "string::uppercase", MinArg: 1, MaxArg: 1, Call: wrap1Str(strings.ToUpper)})
	register(Entry{Path: "string::lowercase", MinArg: 1, MaxArg: 1, Call: wrap1Str(strings.ToLower)})
	register(Entry{Path: "string::trim", MinArg: 1, MaxArg: 1, Call: wrap1Str(strings.TrimSpace)})
	register(Entry{Path: "string::reverse", MinArg: 1, MaxArg: 1, Call: wrap1Str(reverseString)})
	register(Entry{Path: "string::slug", MinArg: 1, MaxArg: 1, Call: wrap1Str(slugify)})
	register(Entry{Path: "string::repeat", MinArg: 2, MaxArg: 2, Call: stringRepeat})
	register(Entry{Path: "string::concat", MinArg: 0, MaxArg: -1, Call: stringConcat})
	register(Entry{Path: "string::join", MinArg: 1, MaxArg: -1, Call: stringJoin})
	register(Entry{Path: "string::split", MinArg: 2, MaxArg: 2, Call: stringSplit})
	register(Entry{Path: "string::contains", MinArg: 2, MaxArg: 2, Call: stringContains})
	register(Entry{Path: "string::starts_with", MinArg: 2, MaxArg: 2, Call: wrap2StrBool(strings.HasPrefix)})
	register(Entry{Path: "string::ends_with", MinArg: 2, MaxArg: 2, Call: wrap2StrBool(strings.HasSuffix)})
	register(Entry{Path: "string::replace", MinArg: 3, MaxArg: 3, Call: stringReplace})
	register(Entry{Path: "string::slice", MinArg: 2, MaxArg: 3, Call: stringSlice})
	register(Entry{Path: "string::is::numeric", MinArg: 1, MaxArg: 1, Call: wrap1StrBool(isNumericStr)})
	register(Entry{Path: "string::is::alpha", MinArg: 1, MaxArg: 1, Call: wrap1StrBool(isAlphaStr)})
}

func arg0Str(args []value.Value) (string, error) {
	if args[0].Tag() != value.TagString {
		return "", qerr.Invalidf("expected string, got %s", args[0].Tag())
	}
	return args[0].Str(), nil
}

func wrap1Str(f func(string) string) Fn {
	return func(args []value.Value) (value.Value, error) {
		s, err := arg0Str(args)
		if err != nil {
			return value.None, err
		}
		return value.NewString(f(s)), nil
	}
}

func wrap1StrBool(f func(string) bool) Fn {
	return func(args []value.Value) (value.Value, error) {
		s, err := arg0Str(args)
		if err != nil {
			return value.None, err
		}
		return value.NewBool(f(s)), nil
	}
}

func wrap2StrBool(f func(string, string) bool) Fn {
	return func(args []value.Value) (value.Value, error) {
		a, err := arg0Str(args)
		if err != nil {
			return value.None, err
		}
		if args[1].Tag() != value.TagString {
			return value.None, qerr.Invalidf("expected string, got %s", args[1].Tag())
		}
		return value.NewBool(f(a, args[1].Str())), nil
	}
}

func stringLen(args []value.Value) (value.Value, error) {
	s, err := arg0Str(args)
	if err != nil {
		return value.None, err
	}
	return value.NewInt(int64(len([]rune(s)))), nil
}

func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func stringRepeat(args []value.Value) (value.Value, error) {
	s, err := arg0Str(args)
	if err != nil {
		return value.None, err
	}
	n, err := args[1].NumberVal().AsInt64()
	if err != nil || n < 0 {
		return value.None, qerr.Invalidf("string::repeat: invalid count")
	}
	return value.NewString(strings.Repeat(s, int(n))), nil
}

func stringConcat(args []value.Value) (value.Value, error) {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.String())
	}
	return value.NewString(b.String()), nil
}

func stringJoin(args []value.Value) (value.Value, error) {
	sep, err := arg0Str(args)
	if err != nil {
		return value.None, err
	}
	parts := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		parts = append(parts, a.String())
	}
	return value.NewString(strings.Join(parts, sep)), nil
}

func stringSplit(args []value.Value) (value.Value, error) {
	s, err := arg0Str(args)
	if err != nil {
		return value.None, err
	}
	sep, err := argNStr(args, 1)
	if err != nil {
		return value.None, err
	}
	parts := strings.Split(s, sep)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.NewString(p)
	}
	return value.NewArray(out), nil
}

func argNStr(args []value.Value, i int) (string, error) {
	if args[i].Tag() != value.TagString {
		return "", qerr.Invalidf("expected string, got %s", args[i].Tag())
	}
	return args[i].Str(), nil
}

func stringContains(args []value.Value) (value.Value, error) {
	s, err := arg0Str(args)
	if err != nil {
		return value.None, err
	}
	sub, err := argNStr(args, 1)
	if err != nil {
		return value.None, err
	}
	return value.NewBool(strings.Contains(s, sub)), nil
}

func stringReplace(args []value.Value) (value.Value, error) {
	s, err := arg0Str(args)
	if err != nil {
		return value.None, err
	}
	from, err := argNStr(args, 1)
	if err != nil {
		return value.None, err
	}
	to, err := argNStr(args, 2)
	if err != nil {
		return value.None, err
	}
	return value.NewString(strings.ReplaceAll(s, from, to)), nil
}

func stringSlice(args []value.Value) (value.Value, error) {
	s, err := arg0Str(args)
	if err != nil {
		return value.None, err
	}
	r := []rune(s)
	start, err := args[1].NumberVal().AsInt64()
	if err != nil {
		return value.None, qerr.Invalidf("string::slice: invalid start")
	}
	end := int64(len(r))
	if len(args) == 3 {
		end, err = args[2].NumberVal().AsInt64()
		if err != nil {
			return value.None, qerr.Invalidf("string::slice: invalid end")
		}
	}
	start, end = clampSlice(start, end, int64(len(r)))
	return value.NewString(string(r[start:end])), nil
}

func clampSlice(start, end, length int64) (int64, int64) {
	if start < 0 {
		start = length + start
	}
	if end < 0 {
		end = length + end
	}
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	if start > end {
		start = end
	}
	return start, end
}

func isNumericStr(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isAlphaStr(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}
