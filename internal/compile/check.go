package compile

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"

	"hwgen/internal/diag"
)

// Check reports every construct of fn that has no hardware meaning and
// returns how many it found.
func Check(fn *Func, reporter *diag.Reporter) int {
	c := &checker{reporter: reporter, info: fn.Info}
	if fn.Decl.Type.Results != nil && len(fn.Decl.Type.Results.List) > 0 {
		c.error(fn.Decl.Type.Results.Pos(), "code bodies cannot return values")
	}
	ast.Inspect(fn.Decl.Body, c.visit)
	return c.errCount
}

type checker struct {
	reporter *diag.Reporter
	info     *types.Info
	errCount int
}

func (c *checker) visit(n ast.Node) bool {
	if expr, ok := n.(ast.Expr); ok {
		if _, isConst := constantValue(c.info, expr); isConst {
			return false
		}
	}
	switch node := n.(type) {
	case *ast.ForStmt:
		c.error(node.For, "loops are not supported in code bodies; unroll them in the generator")
	case *ast.RangeStmt:
		c.error(node.For, "loops are not supported in code bodies; unroll them in the generator")
	case *ast.GoStmt:
		c.error(node.Go, "goroutines are not supported in code bodies")
	case *ast.SelectStmt:
		c.error(node.Select, "select statements are not supported")
	case *ast.DeferStmt:
		c.error(node.Defer, "defer is not supported")
	case *ast.ReturnStmt:
		c.error(node.Return, "return statements are not supported in code bodies")
	case *ast.BranchStmt:
		c.error(node.TokPos, "%s is not supported", node.Tok)
	case *ast.LabeledStmt:
		c.error(node.Pos(), "labels are not supported")
	case *ast.SendStmt:
		c.error(node.Arrow, "channel operations are not supported")
	case *ast.DeclStmt:
		c.error(node.Pos(), "declarations are not supported; declare variables on the generator")
	case *ast.TypeSwitchStmt:
		c.error(node.Switch, "type switches are not supported")
	case *ast.FuncLit:
		c.error(node.Pos(), "closures are not supported")
		return false
	case *ast.CallExpr:
		c.error(node.Lparen, "function calls are not supported")
	case *ast.IndexExpr, *ast.IndexListExpr, *ast.SliceExpr:
		c.error(node.Pos(), "indexing is not supported")
	case *ast.SelectorExpr:
		c.error(node.Pos(), "selectors are not supported; refer to signals by name")
		return false
	case *ast.StarExpr:
		c.error(node.Pos(), "pointers are not supported")
	case *ast.CompositeLit:
		c.error(node.Pos(), "composite literals are not supported")
		return false
	case *ast.UnaryExpr:
		switch node.Op {
		case token.ARROW:
			c.error(node.OpPos, "channel operations are not supported")
		case token.AND:
			c.error(node.OpPos, "taking addresses is not supported")
		}
	case *ast.BinaryExpr:
		if node.Op == token.AND_NOT {
			c.error(node.OpPos, "&^ is not supported; use & with ^")
		}
	case *ast.AssignStmt:
		c.checkAssign(node)
	case *ast.IfStmt:
		if node.Init != nil {
			c.error(node.Init.Pos(), "if statements cannot have an init statement")
		}
	case *ast.SwitchStmt:
		if node.Init != nil {
			c.error(node.Init.Pos(), "switch statements cannot have an init statement")
		}
		if node.Tag == nil {
			c.error(node.Switch, "switch statements need a tag; use if/else for conditions")
		}
	}
	return true
}

func (c *checker) checkAssign(node *ast.AssignStmt) {
	switch node.Tok {
	case token.DEFINE:
		c.error(node.TokPos, "short variable declarations are not supported; declare variables on the generator")
	case token.AND_NOT_ASSIGN:
		c.error(node.TokPos, "&^= is not supported")
	}
	if len(node.Lhs) != 1 || len(node.Rhs) != 1 {
		c.error(node.TokPos, "only single assignments are supported")
	}
	for _, lhs := range node.Lhs {
		if _, ok := lhs.(*ast.Ident); !ok {
			c.error(lhs.Pos(), "assignment targets must be signal names")
		}
	}
}

func (c *checker) error(pos token.Pos, format string, args ...any) {
	c.errCount++
	if c.reporter != nil {
		c.reporter.Error(pos, fmt.Sprintf(format, args...))
	}
}

// constantValue returns the compile-time value of expr, if it has one.
func constantValue(info *types.Info, expr ast.Expr) (constant.Value, bool) {
	if info == nil {
		return nil, false
	}
	if ident, ok := expr.(*ast.Ident); ok {
		if obj, ok := info.ObjectOf(ident).(*types.Const); ok && obj.Val() != nil {
			return obj.Val(), true
		}
	}
	tv, ok := info.Types[expr]
	if !ok || tv.Value == nil {
		return nil, false
	}
	return tv.Value, true
}
