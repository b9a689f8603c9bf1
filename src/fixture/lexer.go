// Package fixture parses a small textual GOTO-program notation into
// symex/src/expr trees, so tests can write a function body as a string
// instead of constructing *expr.Stmt/*expr.Expr nodes by hand. Grounded
// on kanso-lang-kanso's grammar package: a participle.MustStateful lexer
// next to a hand-written recursive-descent-shaped grammar. This package
// is test tooling; the engine itself never parses source text.
package fixture

import "github.com/alecthomas/participle/v2/lexer"

var gotoLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Float", `[0-9]+\.[0-9]+`, nil},
		{"Integer", `[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"String", `"(\\"|[^"])*"`, nil},
		{"Operator", `(\|\||&&|==|!=|<=|>=|[-+*/%&|<>!])`, nil},
		{"Punctuation", `[{}()\[\]:,;.=]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
