package compile

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"io"
	"math/bits"

	"hwgen/internal/diag"
	"hwgen/internal/ir"
)

// Scope resolves signal names.
type Scope interface {
	Lookup(name string) (*ir.Var, bool)
}

// Result is a lowered code body.
type Result struct {
	Edges []EdgeSpec
	Stmts []ir.Stmt
}

// Lower checks fn and translates its body into IR statements over the
// signals of scope. Problems are reported through reporter with positions;
// any problem fails the whole body.
func Lower(fn *Func, scope Scope, reporter *diag.Reporter) (*Result, error) {
	if fn == nil {
		return nil, fmt.Errorf("compile: no function provided")
	}
	if reporter == nil {
		reporter = diag.NewReporter(io.Discard, "text")
	}
	if fn.Fset != nil {
		reporter.SetFileSet(fn.Fset)
	}
	if n := Check(fn, reporter); n > 0 {
		return nil, fmt.Errorf("compile: %s: %d unsupported construct(s)", fn.Name, n)
	}

	l := &lowerer{fn: fn, scope: scope, reporter: reporter}
	res := &Result{Edges: fn.Edges}
	l.block(fn.Decl.Body.List, func(s ir.Stmt) error {
		res.Stmts = append(res.Stmts, s)
		return nil
	})
	if l.errCount > 0 {
		return nil, fmt.Errorf("compile: %s: %d error(s)", fn.Name, l.errCount)
	}
	return res, nil
}

type sink func(ir.Stmt) error

type lowerer struct {
	fn       *Func
	scope    Scope
	reporter *diag.Reporter
	errCount int
}

var bit = ir.SignalType{Width: 1}

func (l *lowerer) block(list []ast.Stmt, add sink) {
	for _, s := range list {
		l.stmt(s, add)
	}
}

func (l *lowerer) stmt(s ast.Stmt, add sink) {
	switch st := s.(type) {
	case *ast.AssignStmt:
		l.assign(st, add)
	case *ast.IncDecStmt:
		l.incDec(st, add)
	case *ast.IfStmt:
		l.ifStmt(st, add)
	case *ast.SwitchStmt:
		l.switchStmt(st, add)
	case *ast.BlockStmt:
		l.block(st.List, add)
	case *ast.EmptyStmt:
	default:
		l.errorf(s.Pos(), "unsupported statement %T", s)
	}
}

func (l *lowerer) emit(pos token.Pos, s ir.Stmt, add sink) {
	if err := add(s); err != nil {
		l.errorf(pos, "%v", err)
	}
}

func (l *lowerer) assign(s *ast.AssignStmt, add sink) {
	target := l.target(s.Lhs[0])
	if target == nil {
		return
	}
	var value *ir.Var
	if s.Tok == token.ASSIGN {
		value = l.expr(s.Rhs[0], &target.Type)
	} else {
		op, ok := assignOps[s.Tok]
		if !ok {
			l.errorf(s.TokPos, "unsupported assignment operator %s", s.Tok)
			return
		}
		value = l.binary(s.TokPos, op, target, s.Rhs[0], &target.Type)
	}
	if value == nil {
		return
	}
	stmt, err := ir.NewAssign(target, value)
	if err != nil {
		l.errorf(s.TokPos, "%v", err)
		return
	}
	l.emit(s.Pos(), stmt, add)
}

func (l *lowerer) incDec(s *ast.IncDecStmt, add sink) {
	target := l.target(s.X)
	if target == nil {
		return
	}
	one, err := ir.Const(1, target.Width(), target.Signed())
	if err != nil {
		l.errorf(s.TokPos, "%v", err)
		return
	}
	op := ir.Add
	if s.Tok == token.DEC {
		op = ir.Sub
	}
	value, err := ir.Binary(op, target, one)
	if err != nil {
		l.errorf(s.TokPos, "%v", err)
		return
	}
	stmt, err := ir.NewAssign(target, value)
	if err != nil {
		l.errorf(s.TokPos, "%v", err)
		return
	}
	l.emit(s.Pos(), stmt, add)
}

func (l *lowerer) ifStmt(s *ast.IfStmt, add sink) {
	cond := l.expr(s.Cond, &bit)
	if cond == nil {
		return
	}
	if cond.Width() != 1 {
		l.errorf(s.Cond.Pos(), "condition %s must be 1 bit wide, got %d", cond, cond.Width())
		return
	}
	stmt, err := ir.NewIf(cond)
	if err != nil {
		l.errorf(s.If, "%v", err)
		return
	}
	l.block(s.Body.List, stmt.Then.Add)
	switch e := s.Else.(type) {
	case *ast.BlockStmt:
		l.block(e.List, stmt.Else.Add)
	case *ast.IfStmt:
		l.ifStmt(e, stmt.Else.Add)
	}
	l.emit(s.Pos(), stmt, add)
}

func (l *lowerer) switchStmt(s *ast.SwitchStmt, add sink) {
	tag := l.expr(s.Tag, nil)
	if tag == nil {
		return
	}
	stmt, err := ir.NewSwitch(tag)
	if err != nil {
		l.errorf(s.Switch, "%v", err)
		return
	}
	for _, c := range s.Body.List {
		clause := c.(*ast.CaseClause)
		if clause.List == nil {
			body, err := stmt.Case(nil)
			if err != nil {
				l.errorf(clause.Case, "%v", err)
				continue
			}
			l.block(clause.Body, body.Add)
			continue
		}
		for _, value := range clause.List {
			v := l.expr(value, &tag.Type)
			if v == nil {
				continue
			}
			body, err := stmt.Case(v)
			if err != nil {
				l.errorf(value.Pos(), "%v", err)
				continue
			}
			l.block(clause.Body, body.Add)
		}
	}
	l.emit(s.Pos(), stmt, add)
}

func (l *lowerer) target(e ast.Expr) *ir.Var {
	ident, ok := e.(*ast.Ident)
	if !ok {
		l.errorf(e.Pos(), "assignment targets must be signal names")
		return nil
	}
	v, ok := l.scope.Lookup(ident.Name)
	if !ok {
		l.errorf(ident.Pos(), "unknown signal %q", ident.Name)
		return nil
	}
	return v
}

// expr lowers e. hint is the type the context expects and sizes untyped
// constants; it may be nil.
func (l *lowerer) expr(e ast.Expr, hint *ir.SignalType) *ir.Var {
	if value, ok := constantValue(l.fn.Info, e); ok {
		return l.constant(e.Pos(), value, hint)
	}
	switch ex := e.(type) {
	case *ast.ParenExpr:
		return l.expr(ex.X, hint)
	case *ast.BasicLit:
		return l.constant(ex.Pos(), constant.MakeFromLiteral(ex.Value, ex.Kind, 0), hint)
	case *ast.Ident:
		v, ok := l.scope.Lookup(ex.Name)
		if !ok {
			l.errorf(ex.Pos(), "unknown signal %q", ex.Name)
			return nil
		}
		return v
	case *ast.UnaryExpr:
		return l.unary(ex, hint)
	case *ast.BinaryExpr:
		op, ok := binaryOps[ex.Op]
		if !ok {
			l.errorf(ex.OpPos, "unsupported operator %s", ex.Op)
			return nil
		}
		if op.IsCompare() || op.IsLogical() {
			return l.binaryExpr(ex, op, nil)
		}
		return l.binaryExpr(ex, op, hint)
	default:
		l.errorf(e.Pos(), "unsupported expression %T", e)
		return nil
	}
}

func (l *lowerer) unary(e *ast.UnaryExpr, hint *ir.SignalType) *ir.Var {
	var op ir.Op
	switch e.Op {
	case token.ADD:
		return l.expr(e.X, hint)
	case token.NOT:
		op = ir.Not
		hint = &bit
	case token.XOR:
		op = ir.Invert
	case token.SUB:
		op = ir.Neg
	default:
		l.errorf(e.OpPos, "unsupported unary operator %s", e.Op)
		return nil
	}
	operand := l.expr(e.X, hint)
	if operand == nil {
		return nil
	}
	v, err := ir.Unary(op, operand)
	if err != nil {
		l.errorf(e.OpPos, "%v", err)
		return nil
	}
	return v
}

func (l *lowerer) binaryExpr(e *ast.BinaryExpr, op ir.Op, hint *ir.SignalType) *ir.Var {
	if op.IsLogical() {
		hint = &bit
	}
	_, leftConst := constantValue(l.fn.Info, e.X)
	if leftConst && !op.IsShift() {
		right := l.expr(e.Y, hint)
		if right == nil {
			return nil
		}
		left := l.expr(e.X, &right.Type)
		if left == nil {
			return nil
		}
		return l.combine(e.OpPos, op, left, right)
	}
	left := l.expr(e.X, hint)
	if left == nil {
		return nil
	}
	return l.binary(e.OpPos, op, left, e.Y, &left.Type)
}

// binary lowers left op right where right is still an expression. Shift
// amounts are sized on their own.
func (l *lowerer) binary(pos token.Pos, op ir.Op, left *ir.Var, right ast.Expr, hint *ir.SignalType) *ir.Var {
	if op.IsShift() {
		hint = nil
	}
	if op == ir.ShrU && left.Signed() {
		op = ir.ShrS
	}
	r := l.expr(right, hint)
	if r == nil {
		return nil
	}
	return l.combine(pos, op, left, r)
}

func (l *lowerer) combine(pos token.Pos, op ir.Op, left, right *ir.Var) *ir.Var {
	v, err := ir.Binary(op, left, right)
	if err != nil {
		l.errorf(pos, "%v", err)
		return nil
	}
	return v
}

func (l *lowerer) constant(pos token.Pos, value constant.Value, hint *ir.SignalType) *ir.Var {
	var n int64
	switch value.Kind() {
	case constant.Bool:
		if constant.BoolVal(value) {
			n = 1
		}
		hint = &bit
	case constant.Int:
		v, exact := constant.Int64Val(value)
		if !exact {
			l.errorf(pos, "constant %s overflows 64 bits", value.ExactString())
			return nil
		}
		n = v
	default:
		l.errorf(pos, "only integer and boolean constants are supported, got %s", value.ExactString())
		return nil
	}
	typ := ir.SignalType{Width: minWidth(n), Signed: n < 0}
	if hint != nil {
		typ = *hint
	}
	c, err := ir.Const(n, typ.Width, typ.Signed)
	if err != nil {
		l.errorf(pos, "%v", err)
		return nil
	}
	return c
}

func minWidth(n int64) int {
	if n < 0 {
		return bits.Len64(uint64(^n)) + 1
	}
	if n == 0 {
		return 1
	}
	return bits.Len64(uint64(n))
}

func (l *lowerer) errorf(pos token.Pos, format string, args ...any) {
	l.errCount++
	l.reporter.Error(pos, fmt.Sprintf(format, args...))
}

var binaryOps = map[token.Token]ir.Op{
	token.ADD:  ir.Add,
	token.SUB:  ir.Sub,
	token.MUL:  ir.Mul,
	token.AND:  ir.And,
	token.OR:   ir.Or,
	token.XOR:  ir.Xor,
	token.SHL:  ir.Shl,
	token.SHR:  ir.ShrU,
	token.EQL:  ir.CompareEQ,
	token.NEQ:  ir.CompareNE,
	token.LSS:  ir.CompareLT,
	token.LEQ:  ir.CompareLE,
	token.GTR:  ir.CompareGT,
	token.GEQ:  ir.CompareGE,
	token.LAND: ir.LogicalAnd,
	token.LOR:  ir.LogicalOr,
}

var assignOps = map[token.Token]ir.Op{
	token.ADD_ASSIGN: ir.Add,
	token.SUB_ASSIGN: ir.Sub,
	token.MUL_ASSIGN: ir.Mul,
	token.AND_ASSIGN: ir.And,
	token.OR_ASSIGN:  ir.Or,
	token.XOR_ASSIGN: ir.Xor,
	token.SHL_ASSIGN: ir.Shl,
	token.SHR_ASSIGN: ir.ShrU,
}
