package hierarchy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFinalized is returned by queries issued before Finalize has
// validated the registry. It is a contract violation on the caller's side
// and is never recovered by finalizing implicitly.
var ErrNotFinalized = errors.New("registry not finalized")

// ConflictError reports a class name registered twice with different
// content. Aspect names the first differing part: "superclass" or "members".
type ConflictError struct {
	Class  string
	Aspect string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting redeclaration of class %s: %s differs", e.Class, e.Aspect)
}

// CycleError reports an inheritance cycle found during Finalize.
type CycleError struct {
	Classes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("inheritance cycle: %s", strings.Join(e.Classes, " -> "))
}

// UnknownClassError reports a query that referenced an unregistered name.
type UnknownClassError struct {
	Name string
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("unknown class %s", e.Name)
}

// MemberNotFoundError reports a member lookup that exhausted the reachable
// ancestor chain without a match. Callers treat this as "not present".
type MemberNotFoundError struct {
	Class  string
	Member string
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("class %s has no member %s", e.Class, e.Member)
}
