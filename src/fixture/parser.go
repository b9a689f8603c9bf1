package fixture

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
)

var gotoParser = participle.MustBuild[Program](
	participle.Lexer(gotoLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
	participle.Unquote("String"),
)

// Parse parses src (a textual GOTO-program fixture) into a Program AST.
func Parse(src string) (*Program, error) {
	prog, err := gotoParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("fixture: parse error: %w", err)
	}
	return prog, nil
}
