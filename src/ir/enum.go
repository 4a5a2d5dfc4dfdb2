package ir

// EvaluateEnums folds every enum constant's initialiser to an int, in
// declaration order, following C's default-value rule: a constant with no
// initialiser takes the previous constant's value plus one (or 0 for the
// first constant of an enum). Must run after ResolveTree so identifier
// references inside an initialiser are already bound.
func EvaluateEnums(root *Node) error {
	decls := root.Children[0]
	for _, d := range decls.Children {
		if d.Typ != ENUM_DEFINITION {
			continue
		}
		next := 0
		for _, c := range d.Children {
			if len(c.Children) > 0 {
				v, err := foldConstExpr(c.Children[0])
				if err != nil {
					return err
				}
				next = v
			}
			c.Entry.EnumValue = next
			next++
		}
	}
	return nil
}

// EvaluateGlobalInits folds every global variable's initialiser to an int,
// storing it on the bound Symbol (§3: a global's initialiser must be
// constant-foldable, the same grammar enum initialisers use). Must run after
// ResolveTree and EvaluateEnums, since a global initialiser may reference an
// already-declared enum constant.
func EvaluateGlobalInits(root *Node) error {
	decls := root.Children[0]
	for _, d := range decls.Children {
		if d.Typ != GLOBAL_DECLARATION || len(d.Children) < 2 {
			continue
		}
		sym := d.Children[0].Entry
		v, err := foldConstExpr(d.Children[1])
		if err != nil {
			return err
		}
		sym.HasInit = true
		sym.InitValue = v
	}
	return nil
}

// foldConstExpr evaluates a constant integer expression: literals, previously
// folded enum constants, and +,-,*,/,%,&,|,^,<<,>>,unary -/+/~ over them.
func foldConstExpr(n *Node) (int, error) {
	switch n.Typ {
	case INTEGER_DATA:
		return n.Data.(int), nil

	case IDENTIFIER_DATA:
		if n.Entry == nil || n.Entry.Kind != SymEnumConst {
			return 0, NewErrorAt(TypeError, n, "%q is not a compile-time constant", n.Data)
		}
		return n.Entry.EnumValue, nil

	case UNARY_EXPRESSION:
		v, err := foldConstExpr(n.Children[0])
		if err != nil {
			return 0, err
		}
		switch n.Data.(string) {
		case "-":
			return -v, nil
		case "+":
			return v, nil
		case "~":
			return ^v, nil
		}
		return 0, NewErrorAt(TypeError, n, "operator %q not valid in a constant expression", n.Data)

	case BINARY_EXPRESSION:
		a, err := foldConstExpr(n.Children[0])
		if err != nil {
			return 0, err
		}
		b, err := foldConstExpr(n.Children[1])
		if err != nil {
			return 0, err
		}
		switch n.Data.(string) {
		case "+":
			return a + b, nil
		case "-":
			return a - b, nil
		case "*":
			return a * b, nil
		case "/":
			if b == 0 {
				return 0, NewErrorAt(TypeError, n, "division by zero in constant expression")
			}
			return a / b, nil
		case "%":
			if b == 0 {
				return 0, NewErrorAt(TypeError, n, "division by zero in constant expression")
			}
			return a % b, nil
		case "&":
			return a & b, nil
		case "|":
			return a | b, nil
		case "^":
			return a ^ b, nil
		case "<<":
			return a << uint(b), nil
		case ">>":
			return a >> uint(b), nil
		}
	}
	return 0, NewErrorAt(TypeError, n, "expression is not a compile-time constant")
}
