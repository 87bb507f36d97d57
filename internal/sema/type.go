package sema

import (
	"fmt"
	"strings"

	"zsem/internal/ast"
	"zsem/internal/source"
)

// TypeKind discriminates the Type variants.
type TypeKind uint8

const (
	// TypePointer is a single-item pointer; Elem is the pointee.
	TypePointer TypeKind = iota + 1
	// TypeSlice is a slice; Elem is the element type.
	TypeSlice
	// TypeErrorUnion is err!payload; Err may be nil when the error set is
	// inferred.
	TypeErrorUnion
	// TypeOther references an arbitrary defining node (container decl,
	// fn decl, optional/array type expr, error value).
	TypeOther
	// TypePrimitive is a built-in type keyword; Name holds it.
	TypePrimitive
	// TypeArrayIndex is the fixed loop-index marker.
	TypeArrayIndex
	// TypeEither is an ordered set of candidate types from branching
	// control flow or multi-call-site inference.
	TypeEither
	// TypeComptime wraps a const-evaluator handle.
	TypeComptime
)

func (k TypeKind) String() string {
	switch k {
	case TypePointer:
		return "pointer"
	case TypeSlice:
		return "slice"
	case TypeErrorUnion:
		return "error_union"
	case TypeOther:
		return "other"
	case TypePrimitive:
		return "primitive"
	case TypeArrayIndex:
		return "array_index"
	case TypeEither:
		return "either"
	case TypeComptime:
		return "comptime"
	default:
		return "unknown"
	}
}

// EitherEntry is one candidate of a TypeEither, tagged with the source
// text of the branch condition or call site that produced it.
type EitherEntry struct {
	Type       TypeWithHandle
	Descriptor string
}

// Type is the resolver's result value. IsTypeVal distinguishes an
// expression that names a type from an instance of that type.
type Type struct {
	Kind      TypeKind
	IsTypeVal bool
	Elem      *TypeWithHandle // Pointer/Slice pointee, ErrorUnion payload
	Err       *TypeWithHandle // ErrorUnion error set, may be nil
	Node      ast.NodeID      // Other: the defining node
	Name      string          // Primitive
	Entries   []EitherEntry   // Either
	Value     ComptimeValue   // Comptime
}

// TypeWithHandle anchors a Type to the file its node references belong to.
type TypeWithHandle struct {
	Type Type
	File source.FileID
}

// Instance returns the same type flagged as a runtime value.
func (t TypeWithHandle) Instance() TypeWithHandle {
	t.Type.IsTypeVal = false
	return t
}

// TypeValue returns the same type flagged as naming a type.
func (t TypeWithHandle) TypeValue() TypeWithHandle {
	t.Type.IsTypeVal = true
	return t
}

func (t TypeWithHandle) String() string {
	var sb strings.Builder
	if t.Type.IsTypeVal {
		sb.WriteString("type ")
	}
	switch t.Type.Kind {
	case TypePointer:
		sb.WriteString("*")
		if t.Type.Elem != nil {
			sb.WriteString(t.Type.Elem.String())
		}
	case TypeSlice:
		sb.WriteString("[]")
		if t.Type.Elem != nil {
			sb.WriteString(t.Type.Elem.String())
		}
	case TypeErrorUnion:
		sb.WriteString("!")
		if t.Type.Elem != nil {
			sb.WriteString(t.Type.Elem.String())
		}
	case TypePrimitive:
		sb.WriteString(t.Type.Name)
	case TypeArrayIndex:
		sb.WriteString("usize")
	case TypeEither:
		sb.WriteString("either(")
		for i, e := range t.Type.Entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.Type.String())
		}
		sb.WriteString(")")
	case TypeComptime:
		fmt.Fprintf(&sb, "comptime#%d", t.Type.Value)
	case TypeOther:
		fmt.Fprintf(&sb, "node#%d@%d", t.Type.Node, t.File)
	default:
		sb.WriteString("unknown")
	}
	return sb.String()
}

// Equal reports structural identity: same file, same variant, same
// payload. Used to deduplicate Either entries.
func Equal(a, b TypeWithHandle) bool {
	if a.File != b.File || a.Type.Kind != b.Type.Kind || a.Type.IsTypeVal != b.Type.IsTypeVal {
		return false
	}
	switch a.Type.Kind {
	case TypePointer, TypeSlice:
		return elemEqual(a.Type.Elem, b.Type.Elem)
	case TypeErrorUnion:
		return elemEqual(a.Type.Elem, b.Type.Elem) && elemEqual(a.Type.Err, b.Type.Err)
	case TypeOther:
		return a.Type.Node == b.Type.Node
	case TypePrimitive:
		return a.Type.Name == b.Type.Name
	case TypeArrayIndex:
		return true
	case TypeComptime:
		return a.Type.Value == b.Type.Value
	case TypeEither:
		if len(a.Type.Entries) != len(b.Type.Entries) {
			return false
		}
		for i := range a.Type.Entries {
			if !Equal(a.Type.Entries[i].Type, b.Type.Entries[i].Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func elemEqual(a, b *TypeWithHandle) bool {
	if a == nil || b == nil {
		return a == b
	}
	return Equal(*a, *b)
}

func otherType(node ast.NodeID, file source.FileID, typeVal bool) TypeWithHandle {
	return TypeWithHandle{
		Type: Type{Kind: TypeOther, Node: node, IsTypeVal: typeVal},
		File: file,
	}
}

func primitiveType(name string, file source.FileID, typeVal bool) TypeWithHandle {
	return TypeWithHandle{
		Type: Type{Kind: TypePrimitive, Name: name, IsTypeVal: typeVal},
		File: file,
	}
}
