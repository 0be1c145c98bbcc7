package agent

import (
	"fmt"
	"strings"
)

// SchemaViolationError is returned when the model cannot produce a valid
// CandidateReport within the finalize attempts.
type SchemaViolationError struct {
	Attempts int
	Errors   []string
	Raw      string // last rejected output
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation after %d finalize attempt(s): %s", e.Attempts, strings.Join(e.Errors, "; "))
}

// InvalidTransitionError indicates a bug in the session loop.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid agent transition %s -> %s", e.From, e.To)
}
