package difficulty

import "fmt"

// ValidationError reports a rejected input. Field names the offending
// input so the UI can point at it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NoDifficultiesError is returned by the payload builder when a subject
// has no unresolved difficulty events to summarize.
type NoDifficultiesError struct{}

func (e *NoDifficultiesError) Error() string { return "no unresolved difficulties found" }
