// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package signal

import "fmt"

// ErrorKind classifies sub-signal failures.
type ErrorKind string

const KindSourceUnavailable ErrorKind = "source_unavailable"

// ComputationError reports that a sub-signal could not read an input. It is
// recorded in the sub-signal details and never aborts the bundle.
type ComputationError struct {
	Kind   ErrorKind
	Signal string
	Err    error
}

func (e *ComputationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("signal %s: %s", e.Signal, e.Kind)
	}
	return fmt.Sprintf("signal %s: %s: %v", e.Signal, e.Kind, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// Is matches on Kind.
func (e *ComputationError) Is(target error) bool {
	t, ok := target.(*ComputationError)
	return ok && t.Kind == e.Kind
}

// ErrSourceUnavailable matches any ComputationError of kind SourceUnavailable.
var ErrSourceUnavailable = &ComputationError{Kind: KindSourceUnavailable}
