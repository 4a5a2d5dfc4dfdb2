// tree.go holds ParseUnit, which wraps parser.go's Parse (the lexer and
// recursive-descent parser that build the syntax tree) to return one
// source's declaration list, and TokenStream, which drains the lexer alone
// for the -ts diagnostic flag.

package frontend

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"pigscc/src/ir"
)

// ParseUnit parses src and returns its syntax tree's DECLARATION_LIST node,
// without wrapping it in a new PROGRAM/Root — used to parse each additional
// source file and the API header before they are spliced into one
// translation unit by the caller.
func ParseUnit(src string) (*ir.Node, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return root.Children[0], nil
}

var tokNames = map[itemType]string{
	itemEOF: "EOF", itemError: "ERROR", IDENTIFIER: "IDENTIFIER", INTEGER: "INTEGER", STRING: "STRING",
	INT: "int", VOID: "void", ENUM: "enum", EXTERN: "extern", IF: "if", ELSE: "else", WHILE: "while",
	DO: "do", FOR: "for", BREAK: "break", CONTINUE: "continue", RETURN: "return",
	PLUSEQ: "+=", MINUSEQ: "-=", MULEQ: "*=", DIVEQ: "/=", MODEQ: "%=", ANDEQ: "&=", OREQ: "|=", XOREQ: "^=",
	LSHIFTEQ: "<<=", RSHIFTEQ: ">>=", INC: "++", DEC: "--", LAND: "&&", LOR: "||", EQ: "==", NEQ: "!=",
	LE: "<=", GE: ">=", LSHIFT: "<<", RSHIFT: ">>",
}

// tokName returns a print friendly name for t, falling back to the literal
// rune for single-character operators and punctuation.
func tokName(t itemType) string {
	if n, ok := tokNames[t]; ok {
		return n
	}
	return fmt.Sprintf("%q", rune(t))
}

// TokenStream scans src and returns its token stream rendered as a table,
// for the -ts diagnostic flag. It does not invoke the parser.
func TokenStream(src string) (string, error) {
	l := newLexer(src)
	sb := strings.Builder{}
	tw := tabwriter.NewWriter(&sb, 10, 2, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Value\tType\tPosition\n")
	for {
		t := l.nextItem()
		switch t.typ {
		case itemEOF:
			if err := tw.Flush(); err != nil {
				return sb.String(), err
			}
			return sb.String(), nil
		case itemError:
			_ = tw.Flush()
			return sb.String(), fmt.Errorf("%s", t.val)
		default:
			val := t.val
			if len(val) > 20 {
				val = val[:17] + "..."
			}
			_, _ = fmt.Fprintf(tw, "%q\t%s\tline %d:%d\n", val, tokName(t.typ), t.line, t.pos)
		}
	}
}
