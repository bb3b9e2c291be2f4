package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Token rules for the Turing-machine language. Whitespace and both
// comment forms are elided before parsing. String literals are single
// line; an unterminated literal or a stray character surfaces as a lex
// error at its position.
var turmLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Comment", Pattern: `//[^\n]*|/\*(?s:.*?)\*/`},

	{Name: "Number", Pattern: `-?[0-9]+`},
	{Name: "String", Pattern: `"[^"\n]*"`},

	// Multi-char operators before the single-char punctuation so that
	// "++" never lexes as two tokens.
	{Name: "Punct", Pattern: `\+\+|--|==|!=|[;{}()=<>]`},

	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
})

// SplitSymbols splits an alphabet or tape-content literal into its
// whitespace-separated symbol tokens.
func SplitSymbols(content string) []string {
	return strings.Fields(content)
}
