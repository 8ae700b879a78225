package functions

import (
	"time"

	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

func init() {
	register(Entry{Path: "time::now", MinArg: 0, MaxArg: 0, Call: timeNow})
	register(Entry{Path: "time::year", MinArg: 1, MaxArg: 1, Call: timePart(func(t time.Time) int { return t.Year() })})
	register(Entry{Path: "time::month", MinArg: 1, MaxArg: 1, Call: timePart(func(t time.Time) int { return int(t.Month()) })})
	register(Entry{Path: "time::day", MinArg: 1, MaxArg: 1, Call: timePart(func(t time.Time) int { return t.Day() })})
	register(Entry{Path: "time::hour", MinArg: 1, MaxArg: 1, Call: timePart(func(t time.Time) int { return t.Hour() })})
	register(Entry{Path: "time::minute", MinArg: 1, MaxArg: 1, Call: timePart(func(t time.Time) int { return t.Minute() })})
	register(Entry{Path: "time::second", MinArg: 1, MaxArg: 1, Call: timePart(func(t time.Time) int { return t.Second() })})
	register(Entry{Path: "time::unix", MinArg: 1, MaxArg: 1, Call: timeUnix})
	register(Entry{Path: "time::format", MinArg: 2, MaxArg: 2, Call: timeFormat})

	register(Entry{Path: "duration::secs", MinArg: 1, MaxArg: 1, Call: durationUnit(time.Second)})
	register(Entry{Path: "duration::mins", MinArg: 1, MaxArg: 1, Call: durationUnit(time.Minute)})
	register(Entry{Path: "duration::hours", MinArg: 1, MaxArg: 1, Call: durationUnit(time.Hour)})
	register(Entry{Path: "duration::days", MinArg: 1, MaxArg: 1, Call: durationUnit(24 * time.Hour)})
}

func timeNow(args []value.Value) (value.Value, error) {
	return value.NewDatetime(value.Datetime{T: systemNow()}), nil
}

// systemNow is the single seam for "current time" so the session layer can
// stub it in deterministic tests, the way the teacher's internal/db wraps
// time access behind its own accessor in db.go/context.go.
var systemNow = time.Now

func arg0Datetime(args []value.Value) (time.Time, error) {
	if args[0].Tag() != value.TagDatetime {
		return time.Time{}, qerr.Invalidf("expected datetime, got %s", args[0].Tag())
	}
	return args[0].DatetimeVal().T, nil
}

func timePart(f func(time.Time) int) Fn {
	return func(args []value.Value) (value.Value, error) {
		t, err := arg0Datetime(args)
		if err != nil {
			return value.None, err
		}
		return value.NewInt(int64(f(t))), nil
	}
}

func timeUnix(args []value.Value) (value.Value, error) {
	t, err := arg0Datetime(args)
	if err != nil {
		return value.None, err
	}
	return value.NewInt(t.Unix()), nil
}

func timeFormat(args []value.Value) (value.Value, error) {
	t, err := arg0Datetime(args)
	if err != nil {
		return value.None, err
	}
	if args[1].Tag() != value.TagString {
		return value.None, qerr.Invalidf("time::format: expected string layout")
	}
	return value.NewString(t.UTC().Format(goLayout(args[1].Str()))), nil
}

// goLayout translates a handful of strftime-style directives the way
// SurrealQL's time::format accepts them into Go's reference-time layout.
// Unrecognized directives pass through unchanged.
func goLayout(layout string) string {
	replacer := struct{ from, to string }{}
	_ = replacer
	repl := []struct{ from, to string }{
		{"%Y", "2006"}, {"%m", "01"}, {"%d", "02"},
		{"%H", "15"}, {"%M", "04"}, {"%S", "05"},
	}
	out := layout
	for _, r := range repl {
		out = replaceAll(out, r.from, r.to)
	}
	return out
}

func replaceAll(s, old, new string) string {
	if old == "" {
		return s
	}
	var b []byte
	for i := 0; i < len(s); {
		if i+len(old) <= len(s) && s[i:i+len(old)] == old {
			b = append(b, new...)
			i += len(old)
			continue
		}
		b = append(b, s[i])
		i++
	}
	return string(b)
}

func arg0Duration(args []value.Value) (time.Duration, error) {
	if args[0].Tag() != value.TagDuration {
		return 0, qerr.Invalidf("expected duration, got %s", args[0].Tag())
	}
	return args[0].DurationVal().D, nil
}

func durationUnit(unit time.Duration) Fn {
	return func(args []value.Value) (value.Value, error) {
		d, err := arg0Duration(args)
		if err != nil {
			return value.None, err
		}
		return value.NewInt(int64(d / unit)), nil
	}
}
