// Package hierarchy builds and queries a single-inheritance class registry.
//
// A Registry is loaded once from parsed declarations, validated with
// Finalize, and then queried. Inheritance edges are name references resolved
// at validation/query time, so declaration order never matters and a class
// may name a superclass that is never registered (it is retained and
// reported as incomplete rather than rejected).
package hierarchy

import (
	"fmt"
	"sort"

	"github.com/enftools/classmap/internal/model"
)

// CastOutcome is the result of validating a Class.Cast style conversion.
type CastOutcome string

const (
	CastValid   CastOutcome = "valid"
	CastInvalid CastOutcome = "invalid"
)

type state int

const (
	stateOpen state = iota
	stateValidated
)

// Registry owns the class table and the inheritance forest over it.
// It is not safe for concurrent mutation; once Finalize has succeeded the
// structure is immutable and may be queried from multiple goroutines.
type Registry struct {
	classes map[string]*model.ClassDecl
	order   []string // registration order
	st      state
	dupes   []string // names whose identical re-registration was skipped
	dupeSet map[string]struct{}
	diags   model.Diagnostics

	// dangling holds superclass names referenced by some registered class
	// but never registered themselves. Rebuilt by Finalize. Such names are
	// part of the graph as incomplete edges, so subtype queries against
	// them answer false instead of failing as unknown.
	dangling map[string]struct{}
}

// New returns an empty registry in the open (accepting) state.
func New() *Registry {
	return &Registry{
		classes: make(map[string]*model.ClassDecl),
		dupeSet: make(map[string]struct{}),
	}
}

// Register adds one class declaration. Re-registering a structurally
// identical declaration is an idempotent no-op (recorded in diagnostics);
// re-registering the same name with different content fails with
// *ConflictError and leaves the registry exactly as it was. A successful
// insert returns the registry to the open state until the next Finalize.
func (r *Registry) Register(decl model.ClassDecl) error {
	if decl.Name == "" {
		return fmt.Errorf("class declaration with empty name (%s:%d)", decl.File, decl.Line)
	}

	if existing, ok := r.classes[decl.Name]; ok {
		if aspect := structuralDiff(existing, &decl); aspect != "" {
			return &ConflictError{Class: decl.Name, Aspect: aspect}
		}
		if _, seen := r.dupeSet[decl.Name]; !seen {
			r.dupeSet[decl.Name] = struct{}{}
			r.dupes = append(r.dupes, decl.Name)
		}
		return nil
	}

	c := decl
	c.Members = append([]model.Member(nil), decl.Members...)
	r.classes[c.Name] = &c
	r.order = append(r.order, c.Name)
	r.st = stateOpen
	return nil
}

// structuralDiff compares two declarations of the same name, ignoring
// source position. It returns the first differing aspect, or "" if the
// declarations are identical.
func structuralDiff(a, b *model.ClassDecl) string {
	if a.Superclass != b.Superclass {
		return "superclass"
	}
	if len(a.Members) != len(b.Members) {
		return "members"
	}
	for i := range a.Members {
		if !memberEqual(&a.Members[i], &b.Members[i]) {
			return "members"
		}
	}
	return ""
}

func memberEqual(a, b *model.Member) bool {
	if a.Kind != b.Kind || a.Name != b.Name || a.Type != b.Type ||
		a.Native != b.Native || a.Static != b.Static {
		return false
	}
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	return true
}

// Finalize validates the inheritance graph. A cycle fails with *CycleError
// and leaves the registry unvalidated; dangling superclass references are
// tolerated and reported in the returned diagnostics. Finalize may be
// called again after further Registers and re-validates from scratch.
func (r *Registry) Finalize() (model.Diagnostics, error) {
	safe := make(map[string]struct{}, len(r.classes))
	for _, name := range r.order {
		seen := make(map[string]int)
		var path []string
		cur := name
		for {
			if _, ok := safe[cur]; ok {
				break
			}
			if at, revisited := seen[cur]; revisited {
				return model.Diagnostics{}, &CycleError{Classes: append([]string(nil), path[at:]...)}
			}
			seen[cur] = len(path)
			path = append(path, cur)
			super := r.classes[cur].Superclass
			if super == "" {
				break
			}
			if _, ok := r.classes[super]; !ok {
				break // dangling, handled below
			}
			cur = super
		}
		for _, n := range path {
			safe[n] = struct{}{}
		}
	}

	var incomplete []model.IncompleteClass
	for _, name := range r.order {
		c := r.classes[name]
		if c.Superclass == "" {
			continue
		}
		if _, ok := r.classes[c.Superclass]; !ok {
			incomplete = append(incomplete, model.IncompleteClass{Class: name, Missing: c.Superclass})
		}
	}
	sort.Slice(incomplete, func(i, j int) bool {
		return incomplete[i].Class < incomplete[j].Class
	})

	r.dangling = make(map[string]struct{}, len(incomplete))
	for _, inc := range incomplete {
		r.dangling[inc.Missing] = struct{}{}
	}

	r.diags = model.Diagnostics{
		Incomplete:        incomplete,
		DuplicatesSkipped: append([]string(nil), r.dupes...),
	}
	r.st = stateValidated
	return r.diags, nil
}

func (r *Registry) ready() error {
	if r.st != stateValidated {
		return ErrNotFinalized
	}
	return nil
}

// IsSubtypeOf reports whether ancestor appears in name's superclass chain.
// The relation is reflexive. A chain that reaches a dangling reference
// before ancestor answers false: subtyping cannot be proven through an
// incomplete chain. An ancestor that is itself only a dangling reference
// likewise answers false; a name the graph has never seen at all is an
// UnknownClassError.
func (r *Registry) IsSubtypeOf(name, ancestor string) (bool, error) {
	if err := r.ready(); err != nil {
		return false, err
	}
	if _, ok := r.classes[name]; !ok {
		return false, &UnknownClassError{Name: name}
	}
	if _, ok := r.classes[ancestor]; !ok {
		if _, ref := r.dangling[ancestor]; ref {
			return false, nil
		}
		return false, &UnknownClassError{Name: ancestor}
	}
	for cur := name; ; {
		if cur == ancestor {
			return true, nil
		}
		super := r.classes[cur].Superclass
		if super == "" {
			return false, nil
		}
		if _, ok := r.classes[super]; !ok {
			return false, nil
		}
		cur = super
	}
}

// ResolveMember looks up a member starting at className and walking the
// superclass chain; the nearest declaration wins, so a subclass member
// shadows an ancestor's member of the same name. It returns the member and
// the name of the class that declares it.
func (r *Registry) ResolveMember(className, memberName string) (model.Member, string, error) {
	if err := r.ready(); err != nil {
		return model.Member{}, "", err
	}
	if _, ok := r.classes[className]; !ok {
		return model.Member{}, "", &UnknownClassError{Name: className}
	}
	for cur := className; ; {
		c := r.classes[cur]
		for i := range c.Members {
			if c.Members[i].Name == memberName {
				return c.Members[i], cur, nil
			}
		}
		if c.Superclass == "" {
			break
		}
		if _, ok := r.classes[c.Superclass]; !ok {
			break
		}
		cur = c.Superclass
	}
	return model.Member{}, "", &MemberNotFoundError{Class: className, Member: memberName}
}

// ValidateCast models the native Class.Cast operation: a cast is valid only
// when the target is an ancestor (or self) of the source type. Downcasts
// and casts between unrelated types are invalid cast outcomes, not errors;
// there is no runtime instance here that could make a downcast checkable.
func (r *Registry) ValidateCast(from, to string) (CastOutcome, error) {
	ok, err := r.IsSubtypeOf(from, to)
	if err != nil {
		return "", err
	}
	if ok {
		return CastValid, nil
	}
	return CastInvalid, nil
}

// Chain returns the resolved ancestor chain starting at name, inclusive.
// It stops at a root class or at the last registered class before a
// dangling reference.
func (r *Registry) Chain(name string) ([]string, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if _, ok := r.classes[name]; !ok {
		return nil, &UnknownClassError{Name: name}
	}
	var chain []string
	for cur := name; ; {
		chain = append(chain, cur)
		super := r.classes[cur].Superclass
		if super == "" {
			return chain, nil
		}
		if _, ok := r.classes[super]; !ok {
			return chain, nil
		}
		cur = super
	}
}

// Classes returns copies of the registered declarations in registration order.
func (r *Registry) Classes() []model.ClassDecl {
	out := make([]model.ClassDecl, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.classes[name])
	}
	return out
}

// Diagnostics returns the report from the most recent successful Finalize.
func (r *Registry) Diagnostics() model.Diagnostics {
	return r.diags
}

// Entries returns report entries for every registered class, annotated with
// resolved chain depth and whether the ancestry is incomplete (the chain
// ends at a class whose superclass is unregistered). Entries are ordered by
// depth, then name, so roots lead the report.
func (r *Registry) Entries() ([]model.ClassEntry, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	entries := make([]model.ClassEntry, 0, len(r.order))
	for _, name := range r.order {
		chain, err := r.Chain(name)
		if err != nil {
			return nil, err
		}
		top := r.classes[chain[len(chain)-1]]
		entries = append(entries, model.ClassEntry{
			ClassDecl:  *r.classes[name],
			Depth:      len(chain) - 1,
			Incomplete: top.Superclass != "",
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Depth != entries[j].Depth {
			return entries[i].Depth < entries[j].Depth
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}
