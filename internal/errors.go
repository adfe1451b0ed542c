package internal

import "fmt"

// CycleError is raised when evaluate reenters a node that is already mid-
// evaluation — direct self-reads and longer indirect cycles (A reads B reads
// A) both trip the same recomputing guard.
type CycleError struct {
	Node *Computed
}

func (e *CycleError) Error() string {
	return "zen: cyclic dependency detected during evaluation"
}

// MisuseError is raised for API contract violations that are bugs in the
// calling code rather than ordinary runtime failures, such as disposing an
// owner that is still on the current evaluation stack.
type MisuseError struct {
	Reason string
}

func (e *MisuseError) Error() string {
	return "zen: misuse: " + e.Reason
}

// CleanupError wraps a non-error panic value raised by an OnCleanup callback
// so Owner.Dispose's aggregate error can report it like any other error.
type CleanupError struct {
	Value any
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("zen: cleanup panicked: %v", e.Value)
}
