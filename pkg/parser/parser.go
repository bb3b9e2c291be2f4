// Package parser parses Turing-machine language source using Participle
// v2. The grammar is defined as Go structs with tags; every node keeps
// the 1-based position of its first token for diagnostics.
package parser

import (
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Program is the top-level AST node. Ordering and multiplicity of the
// items are deliberately unconstrained here: the compiler's build pass
// enforces them so violations get dedicated diagnostics instead of a
// generic syntax error.
type Program struct {
	Pos   lexer.Position
	Items []*TopItem `@@*`
}

// TopItem is one top-level construct.
type TopItem struct {
	Pos      lexer.Position
	Alphabet *AlphabetDecl `  @@`
	Setup    *SetupDecl    `| @@`
	Proc     *ProcDecl     `| @@`
}

// AlphabetDecl: Set_alphabet "a b c";
type AlphabetDecl struct {
	Pos     lexer.Position
	Symbols *StringLit `"Set_alphabet" @@ ";"`
}

// SetupDecl: Setup "a b c"; the trailing semicolon is optional.
type SetupDecl struct {
	Pos     lexer.Position
	Content *StringLit `"Setup" @@ ";"?`
}

// ProcDecl: proc name() { ... }
type ProcDecl struct {
	Pos  lexer.Position
	Name string  `"proc" @Ident "(" ")"`
	Body []*Stmt `"{" @@* "}"`
}

// Stmt is one statement inside a procedure body.
type Stmt struct {
	Pos   lexer.Position
	Move  *MoveStmt  `  @@`
	Write *WriteStmt `| @@`
	Call  *CallStmt  `| @@`
	If    *IfStmt    `| @@`
	While *WhileStmt `| @@`
	Var   *VarStmt   `| @@`
}

// MoveStmt: move_left; | move_right;
type MoveStmt struct {
	Pos lexer.Position
	Dir string `@("move_left" | "move_right") ";"`
}

// WriteStmt: write "sym";
type WriteStmt struct {
	Pos    lexer.Position
	Symbol *StringLit `"write" @@ ";"`
}

// CallStmt: call name;
type CallStmt struct {
	Pos  lexer.Position
	Name string `"call" @Ident ";"`
}

// IfStmt: if (cond) { ... } with an optional else / else-if chain.
type IfStmt struct {
	Pos  lexer.Position
	Cond *CondExpr   `"if" "(" @@ ")"`
	Then []*Stmt     `"{" @@* "}"`
	Else *ElseClause `("else" @@)?`
}

// ElseClause is either a chained "else if" or a plain else block.
type ElseClause struct {
	Pos   lexer.Position
	If    *IfStmt `  @@`
	Block []*Stmt `| "{" @@* "}"`
}

// WhileStmt: while (cond) { ... }
type WhileStmt struct {
	Pos  lexer.Position
	Cond *CondExpr `"while" "(" @@ ")"`
	Body []*Stmt   `"{" @@* "}"`
}

// VarStmt: x = N; | x++; | x--;
type VarStmt struct {
	Pos lexer.Position
	Set *NumberLit `"x" ( "=" @@`
	Inc bool       `      | @"++"`
	Dec bool       `      | @"--" ) ";"`
}

// Condition grammar, loosest binding first: or, xor, and, not, primary.

// CondExpr: Xor ('or' Xor)*
type CondExpr struct {
	Pos   lexer.Position
	First *XorExpr   `@@`
	Rest  []*XorExpr `("or" @@)*`
}

// XorExpr: And ('xor' And)*
type XorExpr struct {
	Pos   lexer.Position
	First *AndExpr   `@@`
	Rest  []*AndExpr `("xor" @@)*`
}

// AndExpr: Not ('and' Not)*
type AndExpr struct {
	Pos   lexer.Position
	First *NotExpr   `@@`
	Rest  []*NotExpr `("and" @@)*`
}

// NotExpr: 'not' NotExpr | Primary
type NotExpr struct {
	Pos     lexer.Position
	Not     *NotExpr     `"not" @@`
	Primary *PrimaryCond `| @@`
}

// PrimaryCond: parenthesized condition, read comparison, or variable
// comparison.
type PrimaryCond struct {
	Pos   lexer.Position
	Paren *CondExpr `"(" @@ ")"`
	Read  *ReadCond `| @@`
	Var   *VarCond  `| @@`
}

// ReadCond: read == "sym" | read != "sym"
type ReadCond struct {
	Pos    lexer.Position
	Op     string     `"read" @("==" | "!=")`
	Symbol *StringLit `@@`
}

// VarCond: x < N | x > N
type VarCond struct {
	Pos   lexer.Position
	Op    string     `"x" @("<" | ">")`
	Value *NumberLit `@@`
}

// StringLit is a quoted literal together with its position.
type StringLit struct {
	Pos   lexer.Position
	Value string `@String`
}

// Text returns the literal content without the surrounding quotes.
func (s *StringLit) Text() string {
	v := s.Value
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

// NumberLit is an integer literal together with its position.
type NumberLit struct {
	Pos   lexer.Position
	Value string `@Number`
}

// Int parses the literal. The compiler range-checks the result against
// i8 separately; out-of-int values surface as an error here.
func (n *NumberLit) Int() (int, error) {
	return strconv.Atoi(n.Value)
}

// Parser is the compiled grammar.
var Parser = participle.MustBuild[Program](
	participle.Lexer(turmLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// Parse parses source into a Program AST.
func Parse(source string) (*Program, error) {
	return Parser.ParseString("", source)
}
