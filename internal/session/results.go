package session

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

// Stats is one statement's with_stats() payload (spec.md §6).
type Stats struct {
	ExecutionTime time.Duration
}

// String renders ExecutionTime the way with_stats() output shows it: the
// Go duration form plus a comma-grouped nanosecond count for readability
// on the long tail, using the same humanize.Comma the teacher's pack
// reaches for elsewhere to format large counters.
func (s Stats) String() string {
	return fmt.Sprintf("%s (%s ns)", s.ExecutionTime, humanize.Comma(s.ExecutionTime.Nanoseconds()))
}

// StatementResult is one statement's slot in a QueryResults: its stats,
// the rows it produced (nil on error), and the error if it failed.
type StatementResult struct {
	Stats Stats
	Rows  []*value.Object
	Err   error
}

// QueryResults holds one StatementResult per top-level statement, keyed by
// index (spec.md §6 "Results are keyed by statement index (stable, sparse
// if take_errors consumed some)").
type QueryResults struct {
	results   []*StatementResult
	withStats bool
}

// Len returns the number of statement slots.
func (r *QueryResults) Len() int { return len(r.results) }

// At returns the raw result at index i, or nil if it's out of range or was
// already drained by TakeErrors.
func (r *QueryResults) At(i int) *StatementResult {
	if i < 0 || i >= len(r.results) {
		return nil
	}
	return r.results[i]
}

// Check returns the first statement error, if any (spec.md §7 "check() on
// results returns the first error if any").
func (r *QueryResults) Check() error {
	for _, res := range r.results {
		if res != nil && res.Err != nil {
			return res.Err
		}
	}
	return nil
}

// TakeErrors drains every errored slot (replacing it with nil) and returns
// the errors it removed, leaving successful slots addressable by Take —
// the original's take_errors() behavior (SPEC_FULL §4.11).
func (r *QueryResults) TakeErrors() []error {
	var errs []error
	for i, res := range r.results {
		if res != nil && res.Err != nil {
			errs = append(errs, res.Err)
			r.results[i] = nil
		}
	}
	return errs
}

// Accessor selects what Take extracts: a bare statement index, a field
// name read from statement 0's first row, or an explicit (index, field)
// pair — the three forms spec.md §6 names.
type Accessor struct {
	Index    int
	Field    string
	HasField bool
}

// At selects a whole statement's row set by index.
func At(i int) Accessor { return Accessor{Index: i} }

// Field selects a field from statement 0's first row.
func Field(name string) Accessor { return Accessor{Field: name, HasField: true} }

// AtField selects a field from statement i's first row.
func AtField(i int, name string) Accessor { return Accessor{Index: i, Field: name, HasField: true} }

// Take extracts one accessor's worth of rows from r, draining that slot
// (so a second Take on the same statement index comes back empty) the way
// the original SDK's take<R> consumes its result.
func Take(r *QueryResults, acc Accessor) ([]*value.Object, error) {
	sr := r.At(acc.Index)
	if sr == nil {
		return nil, qerr.New(qerr.ECRuntime, "no result at that index (missing or already taken)")
	}
	if sr.Err != nil {
		return nil, sr.Err
	}
	r.results[acc.Index] = nil

	if !acc.HasField {
		return sr.Rows, nil
	}
	if len(sr.Rows) == 0 {
		return nil, nil
	}
	v, ok := sr.Rows[0].Get(acc.Field)
	if !ok {
		return nil, qerr.New(qerr.ECRuntime, "no field "+acc.Field+" in first row")
	}
	out := value.NewObjectEmpty()
	out.Set(acc.Field, v)
	return []*value.Object{out}, nil
}
