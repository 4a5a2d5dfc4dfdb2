// Tests the lexer by verifying a small sample of C source is tokenized
// properly: keywords, identifiers, operators (including the multi-character
// ones) and integer literals, with line/column tracking.

package frontend

import "testing"

func TestLexer(t *testing.T) {
	src := "int add(int a, int b) {\n" +
		"  int c = a + b;\n" +
		"  return c;\n" +
		"}\n"

	exp := []item{
		{val: "int", typ: INT, line: 1, pos: 1},
		{val: "add", typ: IDENTIFIER, line: 1, pos: 5},
		{val: "(", typ: '(', line: 1, pos: 8},
		{val: "int", typ: INT, line: 1, pos: 9},
		{val: "a", typ: IDENTIFIER, line: 1, pos: 13},
		{val: ",", typ: ',', line: 1, pos: 14},
		{val: "int", typ: INT, line: 1, pos: 16},
		{val: "b", typ: IDENTIFIER, line: 1, pos: 20},
		{val: ")", typ: ')', line: 1, pos: 21},
		{val: "{", typ: '{', line: 1, pos: 23},
		{val: "int", typ: INT, line: 2, pos: 3},
		{val: "c", typ: IDENTIFIER, line: 2, pos: 7},
		{val: "=", typ: '=', line: 2, pos: 9},
		{val: "a", typ: IDENTIFIER, line: 2, pos: 11},
		{val: "+", typ: '+', line: 2, pos: 13},
		{val: "b", typ: IDENTIFIER, line: 2, pos: 15},
		{val: ";", typ: ';', line: 2, pos: 16},
		{val: "return", typ: RETURN, line: 3, pos: 3},
		{val: "c", typ: IDENTIFIER, line: 3, pos: 10},
		{val: ";", typ: ';', line: 3, pos: 11},
		{val: "}", typ: '}', line: 4, pos: 1},
	}

	l := newLexer(src)
	for i1, want := range exp {
		got := l.nextItem()
		if got.typ != want.typ || got.val != want.val {
			t.Errorf("(token %d): expected %q, got %q", i1+1, want.val, got.String())
			continue
		}
		if got.line != want.line || got.pos != want.pos {
			t.Errorf("(token %d): expected %q at line %d:%d, got line %d:%d",
				i1+1, want.val, want.line, want.pos, got.line, got.pos)
		}
	}
	if last := l.nextItem(); last.typ != itemEOF {
		t.Errorf("expected EOF after %d tokens, got %q", len(exp), last.String())
	}
}

func TestLexerOperators(t *testing.T) {
	src := "a += 1; b <<= 2; c == d != e <= f >= g && h || i++ j--"
	want := []itemType{
		IDENTIFIER, PLUSEQ, INTEGER, itemType(';'),
		IDENTIFIER, LSHIFTEQ, INTEGER, itemType(';'),
		IDENTIFIER, EQ, IDENTIFIER, NEQ, IDENTIFIER, LE, IDENTIFIER, GE, IDENTIFIER, LAND, IDENTIFIER, LOR, IDENTIFIER, INC, IDENTIFIER, DEC,
	}
	l := newLexer(src)
	for i1, typ := range want {
		got := l.nextItem()
		if got.typ != typ {
			t.Errorf("(token %d): expected type %d, got %d (%q)", i1+1, typ, got.typ, got.val)
		}
	}
}
