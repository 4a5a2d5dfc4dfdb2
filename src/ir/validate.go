package ir

// ValidateTree checks the parts of the "type wall" that the resolver does
// not: void used in a value context, and return statements agreeing with
// their enclosing function's void-ness (§4.1). The language has exactly one
// non-void type (int), so unlike the teacher's VSL validator there is no
// int/float compatibility lattice to check here.
func ValidateTree(root *Node) error {
	decls := root.Children[0]
	for _, d := range decls.Children {
		if d.Typ != FUNCTION_DEFINITION || d.Children[2] == nil {
			continue
		}
		isVoid := d.Data.(string) == "void"
		if err := validateReturns(d.Children[2], isVoid); err != nil {
			return err
		}
		if err := validateValueContexts(d.Children[2], true); err != nil {
			return err
		}
	}
	return nil
}

func validateReturns(n *Node, voidFn bool) error {
	if n == nil {
		return nil
	}
	if n.Typ == RETURN_STATEMENT {
		hasValue := len(n.Children) > 0
		if voidFn && hasValue {
			return NewErrorAt(TypeError, n, "return with a value in a void function")
		}
		if !voidFn && !hasValue {
			return NewErrorAt(TypeError, n, "return with no value in a non-void function")
		}
	}
	for _, c := range n.Children {
		if err := validateReturns(c, voidFn); err != nil {
			return err
		}
	}
	return nil
}

// validateValueContexts rejects a call to a void function anywhere other
// than directly as an expression statement, where its result is discarded.
// statementCtx is true exactly at nodes whose immediate expression child (if
// any) is evaluated for effect only.
func validateValueContexts(n *Node, statementCtx bool) error {
	if n == nil {
		return nil
	}
	switch n.Typ {
	case EXPRESSION_STATEMENT:
		return validateValueContexts(n.Children[0], true)
	case CALL_EXPRESSION:
		if n.Entry != nil && n.Entry.Kind == SymFunc && n.Entry.Node.Data.(string) == "void" && !statementCtx {
			return NewErrorAt(TypeError, n, "void function %q used in a value context", n.Entry.Name)
		}
		for _, c := range n.Children[1].Children {
			if err := validateValueContexts(c, false); err != nil {
				return err
			}
		}
		return nil
	}
	for _, c := range n.Children {
		if err := validateValueContexts(c, false); err != nil {
			return err
		}
	}
	return nil
}
