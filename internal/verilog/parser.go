// Package verilog reads the interface of externally authored Verilog
// modules: names, ANSI port lists and header parameters.
package verilog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"

	"hwgen/internal/ir"
)

var parser = buildParser()

func buildParser() *participle.Parser[File] {
	p, err := participle.Build[File](
		participle.Lexer(verilogLexer),
		participle.Elide("Whitespace", "Comment", "Directive"),
		participle.UseLookahead(3),
	)
	if err != nil {
		panic(fmt.Errorf("failed to build verilog parser: %w", err))
	}
	return p
}

// Port is a resolved module port.
type Port struct {
	Name      string
	Direction ir.PortDirection
	Width     int
	Size      int
	Signed    bool
}

// Param is a resolved header parameter with its default value.
type Param struct {
	Name   string
	Width  int
	Signed bool
	Value  int64
}

// Module is the interface of one Verilog module.
type Module struct {
	Name   string
	File   string
	Line   int
	Ports  []Port
	Params []Param
}

// ParseFile reads every module header in path.
func ParseFile(path string) ([]*Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(path, string(source))
}

// Parse reads every module header in source.
func Parse(filename, source string) ([]*Module, error) {
	file, err := parser.ParseString(filename, source)
	if err != nil {
		return nil, err
	}
	modules := make([]*Module, 0, len(file.Modules))
	for _, decl := range file.Modules {
		m, err := resolve(decl)
		if err != nil {
			return nil, fmt.Errorf("%s: module %s: %w", decl.Pos, decl.Name, err)
		}
		m.File = filename
		modules = append(modules, m)
	}
	return modules, nil
}

func resolve(decl *ModuleDecl) (*Module, error) {
	m := &Module{Name: decl.Name, Line: decl.Pos.Line}
	env := make(map[string]int64)
	for _, p := range decl.Params {
		value, err := p.Value.eval(env)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		param := Param{Name: p.Name, Width: 32, Signed: p.Integer || p.Signed || value < 0, Value: value}
		if p.Range != nil {
			if param.Width, err = p.Range.width(env); err != nil {
				return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
			}
		}
		env[p.Name] = value
		m.Params = append(m.Params, param)
	}

	var prev *Port
	for _, p := range decl.Ports {
		if p.Direction == "" {
			if prev == nil {
				return nil, fmt.Errorf("port %s has no direction; only ANSI port lists are supported", p.Name)
			}
			port := *prev
			port.Name = p.Name
			m.Ports = append(m.Ports, port)
			continue
		}
		dir, err := ir.ParsePortDirection(p.Direction)
		if err != nil {
			return nil, err
		}
		port := Port{Name: p.Name, Direction: dir, Width: 1, Size: 1, Signed: p.Signed}
		if p.Range != nil {
			if port.Width, err = p.Range.width(env); err != nil {
				return nil, fmt.Errorf("port %s: %w", p.Name, err)
			}
		}
		if p.Unpacked != nil {
			if port.Size, err = p.Unpacked.width(env); err != nil {
				return nil, fmt.Errorf("port %s: %w", p.Name, err)
			}
		}
		m.Ports = append(m.Ports, port)
		prev = &m.Ports[len(m.Ports)-1]
	}
	return m, nil
}

func (r *Range) width(env map[string]int64) (int, error) {
	msb, err := r.MSB.eval(env)
	if err != nil {
		return 0, err
	}
	lsb, err := r.LSB.eval(env)
	if err != nil {
		return 0, err
	}
	w := msb - lsb
	if w < 0 {
		w = -w
	}
	return int(w) + 1, nil
}

// eval folds the expression with multiplication and division binding tighter
// than addition and subtraction.
func (e *Expr) eval(env map[string]int64) (int64, error) {
	product, err := e.Left.eval(env)
	if err != nil {
		return 0, err
	}
	var sum int64
	sign := int64(1)
	for _, rest := range e.Rest {
		v, err := rest.Term.eval(env)
		if err != nil {
			return 0, err
		}
		switch rest.Op {
		case "*":
			product *= v
		case "/":
			if v == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			product /= v
		case "+", "-":
			sum += sign * product
			sign = 1
			if rest.Op == "-" {
				sign = -1
			}
			product = v
		}
	}
	return sum + sign*product, nil
}

func (t *Term) eval(env map[string]int64) (int64, error) {
	switch {
	case t.Number != nil:
		return parseNumber(*t.Number)
	case t.Ident != nil:
		v, ok := env[*t.Ident]
		if !ok {
			return 0, fmt.Errorf("unknown parameter %q", *t.Ident)
		}
		return v, nil
	case t.Neg != nil:
		v, err := t.Neg.eval(env)
		return -v, err
	case t.Sub != nil:
		return t.Sub.eval(env)
	}
	return 0, fmt.Errorf("empty expression")
}

// parseNumber accepts plain decimals and based literals such as 8'hff.
func parseNumber(lit string) (int64, error) {
	lit = strings.ReplaceAll(lit, "_", "")
	idx := strings.IndexByte(lit, '\'')
	if idx < 0 {
		return strconv.ParseInt(lit, 10, 64)
	}
	digits := lit[idx+1:]
	if digits != "" && (digits[0] == 's' || digits[0] == 'S') {
		digits = digits[1:]
	}
	if digits == "" {
		return 0, fmt.Errorf("malformed number %q", lit)
	}
	base := 10
	switch digits[0] {
	case 'b', 'B':
		base = 2
	case 'o', 'O':
		base = 8
	case 'h', 'H':
		base = 16
	}
	digits = digits[1:]
	if strings.ContainsAny(digits, "xXzZ") {
		return 0, fmt.Errorf("number %q has unknown bits", lit)
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}
