// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identity

import "fmt"

// ErrorKind classifies per-record identity failures. They are never fatal.
type ErrorKind string

const KindNoUsableKey ErrorKind = "no_usable_key"

// Error describes a record that was dropped during resolution.
type Error struct {
	Kind         ErrorKind
	SourceSystem string
	SourceQuery  string
	ExternalID   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity: %s: %s record from query %q (external id %q)",
		e.Kind, e.SourceSystem, e.SourceQuery, e.ExternalID)
}

// Is matches on Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// ErrNoUsableKey matches any record dropped for lack of an identity key.
var ErrNoUsableKey = &Error{Kind: KindNoUsableKey}
