package comptime

import (
	"fmt"
	"strconv"
	"strings"

	"zsem/internal/ast"
	"zsem/internal/sema"
	"zsem/internal/token"
)

// ValueKind discriminates folded constant values.
type ValueKind uint8

const (
	ValueInt ValueKind = iota + 1
	ValueFloat
	ValueBool
	ValueString
)

// Value is one folded constant.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

func (v Value) String() string {
	switch v.Kind {
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueString:
		return strconv.Quote(v.Str)
	default:
		return "invalid"
	}
}

// Evaluator folds literal expressions. It covers literals, grouping,
// unary minus/not, and integer/boolean arithmetic; everything else is an
// evaluation error, which callers downgrade to "not found". Values live
// in a handle table so the resolver can carry them as opaque handles.
type Evaluator struct {
	provider sema.DocumentProvider
	enabled  bool
	values   []Value // index 0 is the invalid handle
}

// New creates an Evaluator. A disabled evaluator rejects every request,
// which keeps the feature gate at one place.
func New(provider sema.DocumentProvider, enabled bool) *Evaluator {
	return &Evaluator{
		provider: provider,
		enabled:  enabled,
		values:   make([]Value, 1),
	}
}

// Value returns the folded constant behind a handle.
func (e *Evaluator) Value(h sema.ComptimeValue) (Value, bool) {
	if h == sema.NoComptimeValue || int(h) >= len(e.values) {
		return Value{}, false
	}
	return e.values[h], true
}

func (e *Evaluator) intern(v Value) sema.ComptimeValue {
	e.values = append(e.values, v)
	return sema.ComptimeValue(len(e.values) - 1)
}

// Evaluate folds node to a constant. The namespace argument is accepted
// for contract compatibility; literal folding never needs it.
func (e *Evaluator) Evaluate(node sema.NodeRef, _ ast.NodeID) (sema.ComptimeValue, error) {
	if !e.enabled {
		return sema.NoComptimeValue, fmt.Errorf("const evaluation disabled")
	}
	tree, _, err := e.provider.GetOrLoad(node.File)
	if err != nil {
		return sema.NoComptimeValue, err
	}
	v, err := e.eval(tree, node.Node)
	if err != nil {
		return sema.NoComptimeValue, err
	}
	return e.intern(v), nil
}

func (e *Evaluator) eval(tree *ast.Tree, id ast.NodeID) (Value, error) {
	n := tree.Node(id)
	if n == nil {
		return Value{}, fmt.Errorf("no node")
	}
	switch n.Kind {
	case ast.NodeIntLit, ast.NodeCharLit:
		return parseIntLit(tree.TokenText(n.Tok))

	case ast.NodeFloatLit:
		f, err := strconv.ParseFloat(strings.ReplaceAll(tree.TokenText(n.Tok), "_", ""), 64)
		if err != nil {
			return Value{}, fmt.Errorf("bad float literal: %w", err)
		}
		return Value{Kind: ValueFloat, Float: f}, nil

	case ast.NodeBoolLit:
		return Value{Kind: ValueBool, Bool: tree.TokenText(n.Tok) == "true"}, nil

	case ast.NodeStringLit:
		text := tree.TokenText(n.Tok)
		return Value{Kind: ValueString, Str: strings.Trim(text, `"`)}, nil

	case ast.NodeGrouped, ast.NodeComptime:
		return e.eval(tree, n.LHS)

	case ast.NodeBinOp:
		return e.evalBinOp(tree, n)
	}
	return Value{}, fmt.Errorf("cannot fold %v", n.Kind)
}

func (e *Evaluator) evalBinOp(tree *ast.Tree, n *ast.Node) (Value, error) {
	op := tree.TokenAt(n.Tok).Kind

	if !n.LHS.IsValid() {
		operand, err := e.eval(tree, n.RHS)
		if err != nil {
			return Value{}, err
		}
		switch {
		case op == token.Minus && operand.Kind == ValueInt:
			return Value{Kind: ValueInt, Int: -operand.Int}, nil
		case op == token.Minus && operand.Kind == ValueFloat:
			return Value{Kind: ValueFloat, Float: -operand.Float}, nil
		case op == token.Bang && operand.Kind == ValueBool:
			return Value{Kind: ValueBool, Bool: !operand.Bool}, nil
		}
		return Value{}, fmt.Errorf("cannot fold unary op on %v", operand.Kind)
	}

	lhs, err := e.eval(tree, n.LHS)
	if err != nil {
		return Value{}, err
	}
	rhs, err := e.eval(tree, n.RHS)
	if err != nil {
		return Value{}, err
	}

	if lhs.Kind == ValueBool && rhs.Kind == ValueBool {
		switch op {
		case token.KwAnd:
			return Value{Kind: ValueBool, Bool: lhs.Bool && rhs.Bool}, nil
		case token.KwOr:
			return Value{Kind: ValueBool, Bool: lhs.Bool || rhs.Bool}, nil
		case token.EqEq:
			return Value{Kind: ValueBool, Bool: lhs.Bool == rhs.Bool}, nil
		case token.BangEq:
			return Value{Kind: ValueBool, Bool: lhs.Bool != rhs.Bool}, nil
		}
		return Value{}, fmt.Errorf("cannot fold bool op")
	}

	if lhs.Kind != ValueInt || rhs.Kind != ValueInt {
		return Value{}, fmt.Errorf("cannot fold %v/%v operands", lhs.Kind, rhs.Kind)
	}
	switch op {
	case token.Plus:
		return Value{Kind: ValueInt, Int: lhs.Int + rhs.Int}, nil
	case token.Minus:
		return Value{Kind: ValueInt, Int: lhs.Int - rhs.Int}, nil
	case token.Star:
		return Value{Kind: ValueInt, Int: lhs.Int * rhs.Int}, nil
	case token.Slash:
		if rhs.Int == 0 {
			return Value{}, fmt.Errorf("division by zero")
		}
		return Value{Kind: ValueInt, Int: lhs.Int / rhs.Int}, nil
	case token.Percent:
		if rhs.Int == 0 {
			return Value{}, fmt.Errorf("remainder by zero")
		}
		return Value{Kind: ValueInt, Int: lhs.Int % rhs.Int}, nil
	case token.EqEq:
		return Value{Kind: ValueBool, Bool: lhs.Int == rhs.Int}, nil
	case token.BangEq:
		return Value{Kind: ValueBool, Bool: lhs.Int != rhs.Int}, nil
	case token.Lt:
		return Value{Kind: ValueBool, Bool: lhs.Int < rhs.Int}, nil
	case token.Gt:
		return Value{Kind: ValueBool, Bool: lhs.Int > rhs.Int}, nil
	case token.LtEq:
		return Value{Kind: ValueBool, Bool: lhs.Int <= rhs.Int}, nil
	case token.GtEq:
		return Value{Kind: ValueBool, Bool: lhs.Int >= rhs.Int}, nil
	}
	return Value{}, fmt.Errorf("cannot fold operator %v", op)
}

func parseIntLit(text string) (Value, error) {
	text = strings.ReplaceAll(text, "_", "")
	base := 10
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		base = 16
		text = text[2:]
	}
	i, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		return Value{}, fmt.Errorf("bad int literal: %w", err)
	}
	return Value{Kind: ValueInt, Int: i}, nil
}
