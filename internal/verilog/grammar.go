package verilog

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var verilogLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `//[^\n]*|/\*(?s:.*?)\*/`, Action: nil},
		{Name: "Directive", Pattern: "`[^\n]*", Action: nil},
		{Name: "Number", Pattern: `[0-9]*'[sS]?[bBoOdDhH][0-9a-fA-FxXzZ_]+|[0-9][0-9_]*`, Action: nil},
		{Name: "String", Pattern: `"(\\.|[^"\\])*"`, Action: nil},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_$]*`, Action: nil},
		{Name: "Punct", Pattern: `<=|>=|==|!=|&&|\|\||<<|>>|[-+*/%&|^~!<>=?:;,.#@()\[\]{}'$]`, Action: nil},
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`, Action: nil},
	},
})

// File is a sequence of module definitions.
type File struct {
	Modules []*ModuleDecl `parser:"@@*"`
}

// ModuleDecl is an ANSI-style module header. The body is skipped.
type ModuleDecl struct {
	Pos    lexer.Position
	Name   string       `parser:"(\"module\" | \"macromodule\") @Ident"`
	Params []*ParamDecl `parser:"( \"#\" \"(\" ( @@ ( \",\" @@ )* )? \")\" )?"`
	Ports  []*PortDecl  `parser:"( \"(\" ( @@ ( \",\" @@ )* )? \")\" )? \";\""`
	Body   []string     `parser:"( @!\"endmodule\" )*"`
	End    string       `parser:"@\"endmodule\""`
}

// ParamDecl is one entry of a #( ... ) parameter list.
type ParamDecl struct {
	Pos     lexer.Position
	Keyword string `parser:"@(\"parameter\" | \"localparam\")?"`
	Integer bool   `parser:"@\"integer\"?"`
	Signed  bool   `parser:"@\"signed\"?"`
	Range   *Range `parser:"@@?"`
	Name    string `parser:"@Ident"`
	Value   *Expr  `parser:"\"=\" @@"`
}

// PortDecl is one ANSI port. A port without a direction repeats the
// declaration before it.
type PortDecl struct {
	Pos       lexer.Position
	Direction string `parser:"( @(\"input\" | \"output\" | \"inout\")"`
	NetType   string `parser:"  @(\"wire\" | \"reg\" | \"logic\" | \"tri\")?"`
	Signed    bool   `parser:"  @\"signed\"?"`
	Range     *Range `parser:"  @@? )?"`
	Name      string `parser:"@Ident"`
	Unpacked  *Range `parser:"@@?"`
}

// Range is a [msb:lsb] bound.
type Range struct {
	MSB *Expr `parser:"\"[\" @@"`
	LSB *Expr `parser:"\":\" @@ \"]\""`
}

// Expr is a constant expression over numbers and parameters.
type Expr struct {
	Left *Term     `parser:"@@"`
	Rest []*OpTerm `parser:"@@*"`
}

// OpTerm is a binary operator and its right operand.
type OpTerm struct {
	Op   string `parser:"@(\"+\" | \"-\" | \"*\" | \"/\")"`
	Term *Term  `parser:"@@"`
}

// Term is a number, a parameter reference, a negation or a parenthesized
// expression.
type Term struct {
	Number *string `parser:"  @Number"`
	Ident  *string `parser:"| @Ident"`
	Neg    *Term   `parser:"| \"-\" @@"`
	Sub    *Expr   `parser:"| \"(\" @@ \")\""`
}
