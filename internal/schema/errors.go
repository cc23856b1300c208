// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schema

import "fmt"

// ErrorKind classifies schema failures. Every kind is fatal for a run.
type ErrorKind string

const (
	KindMissing         ErrorKind = "missing"
	KindCountMismatch   ErrorKind = "count_mismatch"
	KindDuplicateColumn ErrorKind = "duplicate_column"
	KindEmptyName       ErrorKind = "empty_name"
	KindAliasConflict   ErrorKind = "alias_conflict"
	KindUnknownColumn   ErrorKind = "unknown_column"
	KindColumnMismatch  ErrorKind = "column_mismatch"
)

// Error is returned by Load, Parse, Validate and Canonicalize.
type Error struct {
	Kind   ErrorKind
	Column string
	Detail string
}

func (e *Error) Error() string {
	msg := "schema: " + string(e.Kind)
	if e.Column != "" {
		msg += fmt.Sprintf(" (column %q)", e.Column)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches on Kind so callers can write errors.Is(err, schema.ErrCountMismatch).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrMissing         = &Error{Kind: KindMissing}
	ErrCountMismatch   = &Error{Kind: KindCountMismatch}
	ErrDuplicateColumn = &Error{Kind: KindDuplicateColumn}
	ErrEmptyName       = &Error{Kind: KindEmptyName}
	ErrAliasConflict   = &Error{Kind: KindAliasConflict}
	ErrUnknownColumn   = &Error{Kind: KindUnknownColumn}
	ErrColumnMismatch  = &Error{Kind: KindColumnMismatch}
)
