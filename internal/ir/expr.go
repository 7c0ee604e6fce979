package ir

import (
	"math/bits"

	"hwgen/internal/diag"
)

// Op enumerates expression operators.
type Op int

const (
	Add Op = iota
	Sub
	Mul
	And
	Or
	Xor
	Shl
	ShrU
	ShrS
	CompareEQ
	CompareNE
	CompareLT
	CompareLE
	CompareGT
	CompareGE
	LogicalAnd
	LogicalOr
	Not
	Invert
	Neg
)

// Symbol returns the Verilog-like operator spelling.
func (op Op) Symbol() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case And:
		return "&"
	case Or:
		return "|"
	case Xor:
		return "^"
	case Shl:
		return "<<"
	case ShrU:
		return ">>"
	case ShrS:
		return ">>>"
	case CompareEQ:
		return "=="
	case CompareNE:
		return "!="
	case CompareLT:
		return "<"
	case CompareLE:
		return "<="
	case CompareGT:
		return ">"
	case CompareGE:
		return ">="
	case LogicalAnd:
		return "&&"
	case LogicalOr:
		return "||"
	case Not:
		return "!"
	case Invert:
		return "~"
	case Neg:
		return "-"
	default:
		return "?"
	}
}

// IsCompare reports whether op yields a single-bit comparison result.
func (op Op) IsCompare() bool {
	switch op {
	case CompareEQ, CompareNE, CompareLT, CompareLE, CompareGT, CompareGE:
		return true
	default:
		return false
	}
}

// IsShift reports whether op is a shift; shift amounts may differ in width.
func (op Op) IsShift() bool {
	switch op {
	case Shl, ShrU, ShrS:
		return true
	default:
		return false
	}
}

// IsLogical reports whether op is a boolean connective.
func (op Op) IsLogical() bool {
	return op == LogicalAnd || op == LogicalOr || op == Not
}

// Const builds a constant of the given width. The value must fit.
func Const(value int64, width int, signed bool) (*Var, error) {
	if width <= 0 {
		return nil, diag.Preconditionf("constant width must be positive, got %d", width)
	}
	if !constFits(value, width, signed) {
		return nil, diag.Preconditionf("constant %d does not fit in %d bits (signed=%t)", value, width, signed)
	}
	return &Var{
		Name:  "",
		Type:  SignalType{Width: width, Signed: signed},
		Size:  1,
		Kind:  ConstValue,
		Value: value,
	}, nil
}

func constFits(value int64, width int, signed bool) bool {
	if width >= 64 {
		return signed || value >= 0
	}
	if signed {
		lo := -(int64(1) << (width - 1))
		hi := int64(1)<<(width-1) - 1
		return value >= lo && value <= hi
	}
	if value < 0 {
		return false
	}
	return bits.Len64(uint64(value)) <= width
}

// Binary builds left op right. Arithmetic and bitwise operands must share a
// type; comparisons and logical connectives produce a 1-bit result.
func Binary(op Op, left, right *Var) (*Var, error) {
	if left == nil || right == nil {
		return nil, diag.Preconditionf("binary %s requires two operands", op.Symbol())
	}
	if op == Not || op == Invert || op == Neg {
		return nil, diag.Preconditionf("%s is a unary operator", op.Symbol())
	}
	result := SignalType{Width: left.Type.Width, Signed: left.Type.Signed}
	switch {
	case op.IsShift():
	case op.IsLogical():
		if left.Type.Width != 1 || right.Type.Width != 1 {
			return nil, diag.Preconditionf("operands of %s must be 1 bit wide: %s (%s), %s (%s)",
				op.Symbol(), left, left.Type.Description(), right, right.Type.Description())
		}
		result = SignalType{Width: 1}
	default:
		if !left.Type.Equal(right.Type) {
			return nil, diag.Preconditionf("operand types of %s differ: %s (%s) vs %s (%s)",
				op.Symbol(), left, left.Type.Description(), right, right.Type.Description())
		}
		if op.IsCompare() {
			result = SignalType{Width: 1}
		}
	}
	owner := left.gen
	if owner == nil {
		owner = right.gen
	}
	return &Var{
		Type:  result,
		Size:  1,
		Kind:  Expression,
		Op:    op,
		Left:  left,
		Right: right,
		gen:   owner,
	}, nil
}

// Unary builds op operand.
func Unary(op Op, operand *Var) (*Var, error) {
	if operand == nil {
		return nil, diag.Preconditionf("unary %s requires an operand", op.Symbol())
	}
	result := operand.Type
	switch op {
	case Not:
		if operand.Type.Width != 1 {
			return nil, diag.Preconditionf("operand of ! must be 1 bit wide: %s (%s)", operand, operand.Type.Description())
		}
	case Invert, Neg:
	default:
		return nil, diag.Preconditionf("%s is not a unary operator", op.Symbol())
	}
	return &Var{
		Type: result,
		Size: 1,
		Kind: Expression,
		Op:   op,
		Left: operand,
		gen:  operand.gen,
	}, nil
}
