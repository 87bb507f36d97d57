package ast

// NodeID identifies a node inside one Tree. IDs are only meaningful paired
// with the file the tree was built from.
type NodeID uint32

// NoNodeID marks the absence of a node reference.
const NoNodeID NodeID = 0

// IsValid reports whether the ID refers to an allocated node.
func (id NodeID) IsValid() bool { return id != NoNodeID }

// TokenIndex addresses a token inside Tree.Tokens.
type TokenIndex uint32
