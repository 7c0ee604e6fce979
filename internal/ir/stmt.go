package ir

import (
	"hwgen/internal/diag"
)

// Stmt is implemented by every IR statement.
type Stmt interface {
	// Stmt returns the statement itself; it lets IR statements and builder
	// handles be used interchangeably wherever a statement is expected.
	Stmt() Stmt
	isStmt()
}

// Sensitivity indicates how a block is triggered.
type Sensitivity int

const (
	Combinational Sensitivity = iota
	Sequential
	Scope
)

func (s Sensitivity) String() string {
	switch s {
	case Combinational:
		return "combinational"
	case Sequential:
		return "sequential"
	case Scope:
		return "scope"
	default:
		return "?"
	}
}

// EdgeType is the triggering edge of a sensitivity entry.
type EdgeType int

const (
	Posedge EdgeType = iota
	Negedge
)

func (e EdgeType) String() string {
	switch e {
	case Posedge:
		return "posedge"
	case Negedge:
		return "negedge"
	default:
		return "?"
	}
}

// ParseEdgeType maps "posedge"/"negedge" to an EdgeType.
func ParseEdgeType(s string) (EdgeType, error) {
	switch s {
	case "posedge":
		return Posedge, nil
	case "negedge":
		return Negedge, nil
	default:
		return Posedge, diag.Preconditionf("unknown edge type %q", s)
	}
}

// Edge is one (edge, signal) entry of a sequential sensitivity list.
type Edge struct {
	Type   EdgeType
	Signal *Var
}

// PosedgeOf is shorthand for a rising-edge entry.
func PosedgeOf(v *Var) Edge {
	return Edge{Type: Posedge, Signal: v}
}

// NegedgeOf is shorthand for a falling-edge entry.
func NegedgeOf(v *Var) Edge {
	return Edge{Type: Negedge, Signal: v}
}

// AssignType distinguishes blocking from non-blocking assignments.
type AssignType int

const (
	Undefined AssignType = iota
	Blocking
	NonBlocking
)

// AssignStmt copies one value into a variable.
type AssignStmt struct {
	Left    *Var
	Right   *Var
	Type    AssignType
	Comment string
	Source  []SourceLoc
}

// NewAssign builds left = right. Both sides must agree on width and sign.
func NewAssign(left, right *Var) (*AssignStmt, error) {
	if left == nil {
		return nil, diag.Preconditionf("left hand side is empty")
	}
	if right == nil {
		return nil, diag.Preconditionf("right hand side is empty")
	}
	if left.Kind == ConstValue || left.Kind == Expression || left.Kind == Param {
		return nil, diag.Preconditionf("%s (%s) cannot be assigned to", left, left.Kind)
	}
	if left.Type.Signed != right.Type.Signed {
		return nil, diag.Preconditionf("left (%s)'s sign does not match with right (%s). %t <- %t",
			left.Name, right, left.Type.Signed, right.Type.Signed)
	}
	if left.Type.Width != right.Type.Width {
		return nil, diag.Preconditionf("left (%s)'s width does not match with right (%s). %d <- %d",
			left.Name, right, left.Type.Width, right.Type.Width)
	}
	return &AssignStmt{Left: left, Right: right}, nil
}

func (s *AssignStmt) Stmt() Stmt { return s }
func (*AssignStmt) isStmt()      {}

// AddSourceLoc records a debug location.
func (s *AssignStmt) AddSourceLoc(loc SourceLoc) {
	s.Source = append(s.Source, loc)
}

// Block is a statement container. Combinational and sequential blocks live at
// the top level of a generator; scope blocks are the bodies of if/switch.
type Block struct {
	Sensitivity Sensitivity
	Edges       []Edge
	Comment     string
	Source      []SourceLoc

	stmts []Stmt
}

// NewBlock creates a detached block.
func NewBlock(kind Sensitivity) *Block {
	return &Block{Sensitivity: kind}
}

// AddSourceLoc records a debug location.
func (b *Block) AddSourceLoc(loc SourceLoc) {
	b.Source = append(b.Source, loc)
}

func (b *Block) Stmt() Stmt { return b }
func (*Block) isStmt()      {}

// AddEdge appends a sensitivity entry. Only sequential blocks have edges.
func (b *Block) AddEdge(e Edge) error {
	if b.Sensitivity != Sequential {
		return diag.Preconditionf("only sequential blocks take a sensitivity list")
	}
	if e.Signal == nil {
		return diag.Preconditionf("sensitivity entry has no signal")
	}
	if e.Type != Posedge && e.Type != Negedge {
		return diag.Preconditionf("invalid edge type %d for %s", int(e.Type), e.Signal.Name)
	}
	b.Edges = append(b.Edges, e)
	return nil
}

// Add appends s. Blocks cannot be nested, a statement cannot be added twice,
// and explicit assignment types must agree with the block kind.
func (b *Block) Add(s Stmt) error {
	if s == nil {
		return diag.Preconditionf("unable to add a nil statement to a code block")
	}
	if _, ok := s.(*Block); ok {
		return diag.Preconditionf("cannot add statement block to another statement block")
	}
	for _, existing := range b.stmts {
		if existing == s {
			return diag.Preconditionf("cannot add the same statement to a block twice")
		}
	}
	if assign, ok := s.(*AssignStmt); ok {
		switch {
		case assign.Type == NonBlocking && b.Sensitivity == Combinational:
			return diag.Preconditionf("cannot add non-blocking assignment %s to a combinational block", assign.Left.Name)
		case assign.Type == Blocking && b.Sensitivity == Sequential:
			return diag.Preconditionf("cannot add blocking assignment %s to a sequential block", assign.Left.Name)
		}
	}
	b.stmts = append(b.stmts, s)
	return nil
}

// Remove deletes s from the block.
func (b *Block) Remove(s Stmt) error {
	for i, existing := range b.stmts {
		if existing == s {
			b.stmts = append(b.stmts[:i], b.stmts[i+1:]...)
			return nil
		}
	}
	return &diag.NotFoundError{Kind: "statement", Name: stmtLabel(s), Scope: "block"}
}

// Stmts returns the statements in insertion order.
func (b *Block) Stmts() []Stmt {
	return b.stmts
}

// Len returns the number of statements.
func (b *Block) Len() int {
	return len(b.stmts)
}

// At returns the i-th statement.
func (b *Block) At(i int) Stmt {
	return b.stmts[i]
}

// IfStmt branches on a 1-bit predicate.
type IfStmt struct {
	Predicate *Var
	Then      *Block
	Else      *Block
}

// NewIf builds an if statement with empty bodies.
func NewIf(predicate *Var) (*IfStmt, error) {
	if predicate == nil {
		return nil, diag.Preconditionf("if statement requires a predicate")
	}
	return &IfStmt{
		Predicate: predicate,
		Then:      NewBlock(Scope),
		Else:      NewBlock(Scope),
	}, nil
}

func (s *IfStmt) Stmt() Stmt { return s }
func (*IfStmt) isStmt()      {}

// AddThen appends to the true path.
func (s *IfStmt) AddThen(stmts ...Stmt) error {
	for _, stmt := range stmts {
		if err := s.Then.Add(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AddElse appends to the false path.
func (s *IfStmt) AddElse(stmts ...Stmt) error {
	for _, stmt := range stmts {
		if err := s.Else.Add(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SwitchCase is one arm of a switch. Value is nil for the default arm.
type SwitchCase struct {
	Value *Var
	Body  *Block
}

// SwitchStmt selects an arm by comparing Target against constants.
type SwitchStmt struct {
	Target *Var
	Cases  []*SwitchCase
}

// NewSwitch builds a switch statement without arms.
func NewSwitch(target *Var) (*SwitchStmt, error) {
	if target == nil {
		return nil, diag.Preconditionf("switch statement requires a target")
	}
	return &SwitchStmt{Target: target}, nil
}

func (s *SwitchStmt) Stmt() Stmt { return s }
func (*SwitchStmt) isStmt()      {}

// Case returns the arm for value, creating it when needed. A nil value
// selects the default arm.
func (s *SwitchStmt) Case(value *Var) (*Block, error) {
	if value != nil {
		if value.Kind != ConstValue {
			return nil, diag.Preconditionf("switch case %s must be a constant", value)
		}
		if value.Type.Width != s.Target.Type.Width {
			return nil, diag.Preconditionf("switch case %s width %d does not match target %s width %d",
				value, value.Type.Width, s.Target, s.Target.Type.Width)
		}
	}
	for _, c := range s.Cases {
		if sameCase(c.Value, value) {
			return c.Body, nil
		}
	}
	arm := &SwitchCase{Value: value, Body: NewBlock(Scope)}
	s.Cases = append(s.Cases, arm)
	return arm.Body, nil
}

// AddCase appends stmts to the arm for value.
func (s *SwitchStmt) AddCase(value *Var, stmts ...Stmt) error {
	body, err := s.Case(value)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if err := body.Add(stmt); err != nil {
			return err
		}
	}
	return nil
}

func sameCase(a, b *Var) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Value == b.Value
}

func stmtLabel(s Stmt) string {
	switch st := s.(type) {
	case *AssignStmt:
		return st.Left.Name + " = " + st.Right.String()
	case *IfStmt:
		return "if " + st.Predicate.String()
	case *SwitchStmt:
		return "switch " + st.Target.String()
	case *Block:
		return st.Sensitivity.String() + " block"
	default:
		return "<stmt>"
	}
}
