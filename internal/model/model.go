// Package model defines core data structures for classmap.
package model

// MemberKind indicates whether a class member is a field or a method.
type MemberKind string

const (
	Field  MemberKind = "field"
	Method MemberKind = "method"
)

// Member represents a field or method declared directly on a class.
type Member struct {
	Kind   MemberKind
	Name   string
	Type   string   // declared type for fields, return type for methods
	Params []string // parameter type names (methods only)
	Native bool     // declared proto: bodiless, resolved by the host runtime
	Static bool
	Line   int
}

// ClassDecl represents one parsed class declaration.
// Superclass is a name reference rather than a pointer: a declaration may
// name a parent that has not been registered yet, or never is.
type ClassDecl struct {
	Name       string
	Superclass string // empty for a root type
	Members    []Member
	File       string
	Line       int
}

// IncompleteClass records a class whose superclass name never resolved.
type IncompleteClass struct {
	Class   string
	Missing string
}

// Diagnostics is the validation report produced when a registry is finalized.
type Diagnostics struct {
	Incomplete        []IncompleteClass
	DuplicatesSkipped []string
}

// ClassEntry is a registered class annotated for reporting.
type ClassEntry struct {
	ClassDecl
	Depth      int // resolved ancestor count; 0 for roots
	Incomplete bool
}

// HierarchyMap is the complete analyzed hierarchy for one profile,
// ready for serialization.
type HierarchyMap struct {
	Profile     string
	Root        string
	Classes     []ClassEntry
	Diagnostics Diagnostics
}
