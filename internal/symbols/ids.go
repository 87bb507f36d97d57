package symbols

// ScopeID identifies a scope in the document scope arena.
type ScopeID uint32

// NoScopeID marks the absence of a scope reference.
const NoScopeID ScopeID = 0

// IsValid reports whether the scope ID refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

// DeclID identifies a declaration inside the document scope arena.
type DeclID uint32

// NoDeclID marks the absence of a declaration reference.
const NoDeclID DeclID = 0

// IsValid reports whether the declaration ID refers to an allocated entry.
func (id DeclID) IsValid() bool { return id != NoDeclID }
