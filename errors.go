package arbiter

import (
	"bytes"
	"fmt"

	"github.com/arbiter-go/resolve/requirement"
)

// traceError is implemented by failure kinds that can render a more verbose
// explanation than Error(). UnsatisfiableConstraintsError.traceString uses it
// to render the causes of its failed trials.
type traceError interface {
	traceString() string
}

// ParseFailureError reports malformed SemVer input text.
type ParseFailureError struct {
	Input string
	Cause error
}

func (e *ParseFailureError) Error() string {
	return fmt.Sprintf("could not parse %q as a semantic version: %s", e.Input, e.Cause)
}

func (e *ParseFailureError) Unwrap() error { return e.Cause }

// UserError wraps an error returned by a caller-supplied fetch callback,
// preserving its message verbatim.
type UserError struct {
	Project ProjectIdentifier
	Cause   error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("callback reported an error for %s: %s", e.Project, e.Cause)
}

func (e *UserError) Unwrap() error { return e.Cause }

// MutuallyExclusiveConstraintsError reports that two requirements could not
// be intersected — their satisfying sets are disjoint.
type MutuallyExclusiveConstraintsError struct {
	Project ProjectIdentifier
	A, B    requirement.Requirement
}

func (e *MutuallyExclusiveConstraintsError) Error() string {
	return fmt.Sprintf("requirements for %s are mutually exclusive: %s and %s", e.Project, e.A, e.B)
}

func (e *MutuallyExclusiveConstraintsError) traceString() string {
	return e.Error()
}

// failedVersion records one candidate version that was tried and rejected
// during the search, along with why.
type failedVersion struct {
	version SelectedVersion
	cause   error
}

// UnsatisfiableConstraintsError is the final diagnostic surfaced when
// backtracking exhausts every candidate for some project without finding a
// consistent assignment.
type UnsatisfiableConstraintsError struct {
	Project      ProjectIdentifier
	Requirement  requirement.Requirement
	FailedTrials []failedVersion
}

func (e *UnsatisfiableConstraintsError) Error() string {
	if len(e.FailedTrials) == 0 {
		return fmt.Sprintf("no versions of %s satisfy %s", e.Project, e.Requirement)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "no version of %s satisfying %s could be made consistent:", e.Project, e.Requirement)
	for _, f := range e.FailedTrials {
		fmt.Fprintf(&buf, "\n\t%s: %s", f.version, f.cause)
	}
	return buf.String()
}

func (e *UnsatisfiableConstraintsError) traceString() string {
	if len(e.FailedTrials) == 0 {
		return "no versions satisfy the accumulated requirement"
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "no version of %s satisfying %s could be made consistent:", e.Project, e.Requirement)
	for _, f := range e.FailedTrials {
		if te, ok := f.cause.(traceError); ok {
			fmt.Fprintf(&buf, "\n  %s: %s", f.version, te.traceString())
		} else {
			fmt.Fprintf(&buf, "\n  %s: %s", f.version, f.cause)
		}
	}
	return buf.String()
}

// ConflictingNodeError reports that an explicit graph mutation
// (AddRoot/AddEdge) tried to replace an existing node with an incompatible
// selection.
type ConflictingNodeError struct {
	Project  ProjectIdentifier
	Existing requirement.Requirement
	Proposed requirement.Requirement
}

func (e *ConflictingNodeError) Error() string {
	return fmt.Sprintf("cannot reconcile %s for %s with existing requirement %s", e.Proposed, e.Project, e.Existing)
}

// CancelledError reports that a resolve call was interrupted via its
// context before it could complete.
type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("resolve cancelled: %s", e.Cause)
}

func (e *CancelledError) Unwrap() error { return e.Cause }

// InternalError indicates a violated invariant — a bug in the resolver
// itself rather than a caller mistake. Correct callbacks should never cause
// a caller to observe one of these.
type InternalError struct {
	Detail string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error (invariant violated): %s", e.Detail)
}

// semverFromParseError wraps a semver.Parse failure as a ParseFailureError.
func semverFromParseError(input string, err error) error {
	return &ParseFailureError{Input: input, Cause: err}
}
