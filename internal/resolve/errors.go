package resolve

import (
	"fmt"

	"github.com/pkg/errors"
)

// RequirementNotFoundError is raised when a root requirement has zero
// candidates in the pool (§7).
type RequirementNotFoundError struct {
	Name       string
	Constraint Constraint
}

func (e *RequirementNotFoundError) Error() string {
	return fmt.Sprintf("requirement not found: no package satisfies %s %s", e.Name, e.Constraint)
}

// VersionConflictError wraps the learned conflict and its reason chain
// produced when the rule set proves unsatisfiable (§7).
type VersionConflictError struct {
	Problem *Problem
}

func (e *VersionConflictError) Error() string {
	return "version conflict: " + e.Problem.Summary()
}

// PlatformRequirementError carries the human-readable rewrite for a
// requirement dropped by the platform filter (§7, §4.6).
type PlatformRequirementError struct {
	Name   string
	Reason string
}

func (e *PlatformRequirementError) Error() string {
	return fmt.Sprintf("platform requirement %s: %s", e.Name, e.Reason)
}

// FixedConflictError is raised when a fixed package contradicts another
// hard rule (§7).
type FixedConflictError struct {
	Name string
}

func (e *FixedConflictError) Error() string {
	return fmt.Sprintf("fixed package %s contradicts another rule", e.Name)
}

// PoolBuildAbortedError propagates an upstream repository error
// unchanged (§7); Cause is returned by Unwrap, so the standard
// library's errors.Unwrap/Is/As reach the original collaborator
// failure.
type PoolBuildAbortedError struct {
	Cause error
}

func (e *PoolBuildAbortedError) Error() string {
	return "pool build aborted: " + e.Cause.Error()
}

func (e *PoolBuildAbortedError) Unwrap() error {
	return e.Cause
}

// AbortedError is returned when the cooperative should_abort probe
// fires mid-solve (§5, §7).
type AbortedError struct{}

func (e *AbortedError) Error() string {
	return "solve aborted"
}

// wrap is a small convenience matching golang-dep/errors.go's habit of
// layering a typed failure over a plain cause.
func wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}
