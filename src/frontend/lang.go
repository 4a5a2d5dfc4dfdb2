package frontend

type reservedItem struct {
	val string
	typ itemType
}

// rw contains the set of all reserved C keywords in the supported subset.
// The first dimension equals the length of the word. The second dimension is
// the slice of all words of that length. Indexing by length and searching
// should be faster than using a hash table. "asm" is deliberately absent: it
// is recognised by the parser as an ordinary identifier in call position,
// not as a keyword (§4.4).
var rw = [...][]reservedItem{
	// One-grams
	{},
	// Two-grams
	{
		{val: "if", typ: IF},
		{val: "do", typ: DO},
	},
	// Three-grams
	{
		{val: "int", typ: INT},
		{val: "for", typ: FOR},
	},
	// Four-grams
	{
		{val: "void", typ: VOID},
		{val: "enum", typ: ENUM},
		{val: "else", typ: ELSE},
	},
	// Five-grams
	{
		{val: "while", typ: WHILE},
		{val: "break", typ: BREAK},
	},
	// Six-grams
	{
		{val: "extern", typ: EXTERN},
		{val: "return", typ: RETURN},
	},
	// Seven-grams
	{},
	// Eight-grams
	{
		{val: "continue", typ: CONTINUE},
	},
}

// isKeyword returns true if s is a reserved C keyword, in which case the
// matching itemType is also returned. If false, the itemType is IDENTIFIER.
func isKeyword(s string) (bool, itemType) {
	if len(s) == 0 {
		return false, itemError
	}
	if len(s) > len(rw) {
		return false, IDENTIFIER
	}
	for _, e1 := range rw[len(s)-1] {
		if e1.val == s {
			return true, e1.typ
		}
	}
	return false, IDENTIFIER
}
