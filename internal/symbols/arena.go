package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"zsem/internal/ast"
	"zsem/internal/source"
)

// Scopes stores all allocated scopes in a compact slice-based arena.
type Scopes struct {
	data []Scope
}

// NewScopes creates an arena with an optional capacity hint.
func NewScopes(capacity uint32) *Scopes {
	if capacity == 0 {
		capacity = 32
	}
	return &Scopes{
		data: make([]Scope, 1, capacity+1), // index 0 reserved for NoScopeID
	}
}

// New allocates a scope and returns its ID, linking it into the parent.
func (s *Scopes) New(kind ScopeKind, parent ScopeID, node ast.NodeID, span source.Span) ScopeID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("scope arena overflow: %w", err))
	}
	id := ScopeID(value)
	s.data = append(s.data, Scope{
		Kind:   kind,
		Parent: parent,
		Node:   node,
		Span:   span,
		Decls:  make(map[string]DeclID),
	})
	if parent.IsValid() {
		if parentScope := s.Get(parent); parentScope != nil {
			parentScope.Children = append(parentScope.Children, id)
		}
	}
	return id
}

// Get returns the scope pointer or nil if the ID is invalid.
func (s *Scopes) Get(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports the number of scopes excluding the sentinel.
func (s *Scopes) Len() int { return len(s.data) - 1 }

// Decls stores declarations in a compact append-only arena. Entries are
// referenced by stable index for the lifetime of a DocumentScope.
type Decls struct {
	data []Declaration
}

// NewDecls creates a declaration arena with an optional capacity hint.
func NewDecls(capacity uint32) *Decls {
	if capacity == 0 {
		capacity = 64
	}
	return &Decls{
		data: make([]Declaration, 1, capacity+1), // index 0 reserved for NoDeclID
	}
}

// New allocates a declaration and returns its ID.
func (d *Decls) New(decl Declaration) DeclID {
	value, err := safecast.Conv[uint32](len(d.data))
	if err != nil {
		panic(fmt.Errorf("declaration arena overflow: %w", err))
	}
	id := DeclID(value)
	d.data = append(d.data, decl)
	return id
}

// Get returns a declaration pointer or nil for an invalid ID.
func (d *Decls) Get(id DeclID) *Declaration {
	if !id.IsValid() || int(id) >= len(d.data) {
		return nil
	}
	return &d.data[id]
}

// Len reports the number of stored declarations excluding the sentinel.
func (d *Decls) Len() int { return len(d.data) - 1 }
