// Package qerr defines the engine's machine-readable error taxonomy.
//
// Every error that can escape a statement carries a Code so that callers
// (the CLI, the session API, eventually a network surface outside this
// module's scope) can branch on it without string matching.
package qerr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Code is a closed set of error categories, grouped the way spec.md §7
// groups them: Parse, Conversion, Arithmetic, Schema, Auth, Runtime, Indexing.
type Code string

const (
	ECNone        Code = ""
	ECParse       Code = "ERR_PARSE"
	ECConversion  Code = "ERR_CONVERSION"
	ECArithmetic  Code = "ERR_ARITHMETIC"
	ECSchema      Code = "ERR_SCHEMA"
	ECAuth        Code = "ERR_AUTH"
	ECRuntime     Code = "ERR_RUNTIME"
	ECIndexing    Code = "ERR_INDEXING"
	ECUnsupported Code = "ERR_UNSUPPORTED"
)

// Sentinel errors for errors.Is checks at call sites that don't need the
// full Error payload.
var (
	ErrComputationDepthExceeded = errors.New("computation depth exceeded")
	ErrQueryCancelled           = errors.New("query cancelled")
	ErrRecursionPlanConflict    = errors.New("recursion instruction plan conflict")
	ErrUnsupportedRepeatRecurse = errors.New("unsupported repeat recurse")
	ErrLossyConversion          = errors.New("lossy numeric conversion")
	ErrDuplicatedMatchRef       = errors.New("duplicated match reference")
	ErrNoIndexFoundForMatch     = errors.New("no index found for match")
)

// Span locates an error in source text, when the error originated during
// lexing/parsing/resolution. Both fields are byte offsets into the
// statement text; End == Start for a zero-width point.
type Span struct {
	Start int
	End   int
}

// Error is the engine's uniform error payload. It prints as Message (with
// Detail appended) for %s/Error(), and as JSON for API responses — the same
// split the teacher's CLIError used for human vs. machine output.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Span    *Span  `json:"span,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// JSON renders the error as its wire form.
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New builds a bare Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches code/message to an inner error, the way the teacher's
// model.Wrap(model.ErrIO, "reading file", err) did in internal/cli.
func Wrap(code Code, message string, inner error) *Error {
	if inner == nil {
		return New(code, message)
	}
	return &Error{Code: code, Message: message, Detail: inner.Error(), cause: inner}
}

// WithSpan returns a copy of e with a source span attached.
func (e *Error) WithSpan(start, end int) *Error {
	cp := *e
	cp.Span = &Span{Start: start, End: end}
	return &cp
}

// Invalidf builds an ECParse error with a formatted message, mirroring the
// fmt.Errorf("...: %w", err) wrapping idiom used throughout the teacher.
func Invalidf(format string, args ...any) *Error {
	return New(ECParse, fmt.Sprintf(format, args...))
}

// InvalidPath reports an unresolvable builtin path, optionally carrying a
// single Levenshtein-suggested replacement (spec.md §4.1/§7).
func InvalidPath(path string, suggestion string) *Error {
	msg := fmt.Sprintf("invalid path %q", path)
	if suggestion != "" {
		msg = fmt.Sprintf("%s — did you mean %q?", msg, suggestion)
	}
	return New(ECParse, msg)
}
