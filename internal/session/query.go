package session

import (
	"context"
	"strings"

	"github.com/oxhq/qdb/internal/value"
)

// Query is the chaining builder spec.md §6 describes: query(text) → Query,
// bind(vars), with_stats(), then a terminal await producing QueryResults.
// Each chained .Query(text) call appends another script to run in the same
// batch, mirroring the teacher's fluent-but-deferred builder shape (seen
// in internal/config's option chaining) rather than executing eagerly.
type Query struct {
	sess  *Session
	texts []string
	binds map[string]value.Value
	stats bool
}

// Query appends another statement script to the batch.
func (q *Query) Query(text string) *Query {
	q.texts = append(q.texts, text)
	return q
}

// Bind merges vars into this call's parameter bindings.
func (q *Query) Bind(vars map[string]value.Value) *Query {
	for k, v := range vars {
		q.binds[k] = v
	}
	return q
}

// WithStats requests per-statement execution-time stats in the result.
func (q *Query) WithStats() *Query {
	q.stats = true
	return q
}

// Await runs the accumulated scripts and returns their results.
func (q *Query) Await(ctx context.Context) (*QueryResults, error) {
	text := strings.Join(q.texts, "\n")
	res, err := q.sess.run(ctx, text, q.binds)
	if err != nil {
		return nil, err
	}
	res.withStats = q.stats
	return res, nil
}
