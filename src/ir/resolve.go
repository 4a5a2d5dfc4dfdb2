package ir

import (
	"regexp"
	"strconv"
)

// pNPattern matches an extern name bound to a VM parameter: "pN" or
// "<prefix>_pN[_suffix]".
var pNPattern = regexp.MustCompile(`(?:^|_)p([0-9])(?:_|$)`)

// parameterIndex returns the bound parameter index and true if name matches
// the pN naming convention (§4.1).
func parameterIndex(name string) (int, bool) {
	m := pNPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// resolver threads the scope chain and loop-nesting context through a single
// recursive walk of the tree.
type resolver struct {
	funcs map[string]*Symbol // All function symbols, keyed by name, for call-graph construction.
}

// ResolveTree walks root (the merged translation unit, API header already
// prepended) building the scope tree, binding every declaration into Global
// or a nested SymTab, and resolving every identifier reference to its
// declaration. Global is replaced with an empty table first, so every call
// starts from a clean file scope. It returns the first error encountered.
func ResolveTree(root *Node) error {
	Global = NewSymTab(nil)
	r := &resolver{funcs: make(map[string]*Symbol)}
	decls := root.Children[0] // DECLARATION_LIST

	// Pass 1: register every top-level name (functions, globals, enum
	// constants) in Global before resolving any body, so forward references
	// between functions and globals declared later in the unit work.
	for _, d := range decls.Children {
		if err := r.declareTop(d); err != nil {
			return err
		}
	}

	// Pass 2: resolve function bodies and global initialisers.
	for _, d := range decls.Children {
		switch d.Typ {
		case FUNCTION_DEFINITION:
			if err := r.resolveFunctionBody(d); err != nil {
				return err
			}
		case GLOBAL_DECLARATION:
			if len(d.Children) > 1 {
				if err := r.resolveExpr(d.Children[1], Global); err != nil {
					return err
				}
			}
		case ENUM_DEFINITION:
			for _, c := range d.Children {
				if len(c.Children) > 0 {
					if err := r.resolveExpr(c.Children[0], Global); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// declareTop registers a single top-level declaration into Global.
func (r *resolver) declareTop(d *Node) error {
	switch d.Typ {
	case FUNCTION_DEFINITION, FUNCTION_PROTOTYPE:
		name := d.Children[0].Data.(string)
		params := d.Children[1]
		isVoid := d.Data.(string) == "void"

		if existing, ok := Global.Get(name); ok {
			if existing.Kind != SymFunc {
				return NewErrorAt(ScopeError, d, "%q redeclared as function, previously declared as %s", name, existing.Kind)
			}
			if existing.Nparams != len(params.Children) {
				return NewErrorAt(ScopeError, d, "function %q redeclared with %d parameters, previously %d", name, len(params.Children), existing.Nparams)
			}
			existingVoid := existing.Node.Data.(string) == "void"
			if existingVoid != isVoid {
				return NewErrorAt(TypeError, d, "function %q redeclared with a different return type", name)
			}
			if d.Typ == FUNCTION_DEFINITION {
				if existing.Node.Typ == FUNCTION_DEFINITION {
					return NewErrorAt(ScopeError, d, "function %q already defined", name)
				}
				existing.Node = d
				fscope := NewSymTab(Global)
				existing.Locals = fscope
				for i, p := range params.Children {
					pname := p.Children[0].Data.(string)
					psym := &Symbol{Name: pname, Kind: SymVar, Node: p, Line: p.Line, Pos: p.Pos, ParamIndex: i}
					if !fscope.Insert(psym) {
						return NewErrorAt(ScopeError, p, "parameter %q redeclared", pname)
					}
					p.Entry = psym
				}
			}
			d.Entry = existing
			r.funcs[name] = existing
			return nil
		}

		sym := &Symbol{Name: name, Kind: SymFunc, Node: d, Line: d.Line, Pos: d.Pos, Nparams: len(params.Children)}
		if d.IsExtern {
			// An extern function prototype is a VM API function declared by
			// the (logically prepended) API header: it has no user-supplied
			// body and lowers straight to its opcode instead of CALL (§4.1).
			sym.IsAPI = true
			sym.Opcode = name
			sym.YieldsResult = !isVoid
		}
		Global.Insert(sym)
		d.Entry = sym
		r.funcs[name] = sym

		if d.Typ == FUNCTION_DEFINITION {
			fscope := NewSymTab(Global)
			sym.Locals = fscope
			for i, p := range params.Children {
				pname := p.Children[0].Data.(string)
				psym := &Symbol{Name: pname, Kind: SymVar, Node: p, Line: p.Line, Pos: p.Pos, ParamIndex: i}
				if !fscope.Insert(psym) {
					return NewErrorAt(ScopeError, p, "parameter %q redeclared", pname)
				}
				p.Entry = psym
			}
		}
		return nil

	case GLOBAL_DECLARATION:
		name := d.Children[0].Data.(string)
		isExtern := d.IsExtern
		if _, ok := Global.Get(name); ok {
			return NewErrorAt(ScopeError, d, "%q redeclared", name)
		}
		sym := &Symbol{Name: name, Kind: SymVar, Node: d, Line: d.Line, Pos: d.Pos, IsGlobal: true}
		if isExtern {
			idx, ok := parameterIndex(name)
			if !ok {
				return NewErrorAt(TypeError, d, "extern declaration %q does not match the pN parameter naming convention", name)
			}
			sym.Kind = SymParam
			sym.Slot = idx
			sym.ExternVar = true
		}
		Global.Insert(sym)
		d.Children[0].Entry = sym
		return nil

	case ENUM_DEFINITION:
		for _, c := range d.Children {
			name := c.Data.(string)
			if _, ok := Global.Get(name); ok {
				return NewErrorAt(ScopeError, c, "enum constant %q redeclared", name)
			}
			sym := &Symbol{Name: name, Kind: SymEnumConst, Node: c, Line: c.Line, Pos: c.Pos}
			Global.Insert(sym)
			c.Entry = sym
		}
		return nil
	}
	return nil
}

// resolveFunctionBody resolves the statements of a function definition in
// its pre-built top-level scope.
func (r *resolver) resolveFunctionBody(f *Node) error {
	block := f.Children[2]
	if block == nil {
		return nil // Prototype merged in, nothing to resolve.
	}
	return r.resolveBlock(block, f.Entry.Locals, loopCtx{})
}

type loopCtx struct {
	inLoop bool
}

// resolveBlock resolves the statements directly inside a BLOCK node, which
// already has its own scope scope (the function's top scope, or a fresh
// child scope for nested compounds).
func (r *resolver) resolveBlock(block *Node, scope *SymTab, lc loopCtx) error {
	block.Scope = scope
	for _, stmt := range block.Children {
		if err := r.resolveStmt(stmt, scope, lc); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) resolveStmt(n *Node, scope *SymTab, lc loopCtx) error {
	switch n.Typ {
	case LOCAL_DECLARATION:
		name := n.Children[0].Data.(string)
		if _, ok := scope.Get(name); ok {
			return NewErrorAt(ScopeError, n, "%q redeclared in this scope", name)
		}
		isExtern := n.IsExtern
		sym := &Symbol{Name: name, Kind: SymVar, Node: n, Line: n.Line, Pos: n.Pos}
		if isExtern {
			idx, ok := parameterIndex(name)
			if !ok {
				return NewErrorAt(TypeError, n, "extern declaration %q does not match the pN parameter naming convention", name)
			}
			sym.Kind = SymParam
			sym.Slot = idx
			sym.ExternVar = true
		}
		scope.Insert(sym)
		n.Children[0].Entry = sym
		if len(n.Children) > 1 {
			return r.resolveExpr(n.Children[1], scope)
		}
		return nil

	case BLOCK:
		return r.resolveBlock(n, NewSymTab(scope), lc)

	case IF_STATEMENT:
		if err := r.resolveExpr(n.Children[0], scope); err != nil {
			return err
		}
		if err := r.resolveStmt(n.Children[1], scope, lc); err != nil {
			return err
		}
		if len(n.Children) > 2 {
			return r.resolveStmt(n.Children[2], scope, lc)
		}
		return nil

	case WHILE_STATEMENT:
		if err := r.resolveExpr(n.Children[0], scope); err != nil {
			return err
		}
		return r.resolveStmt(n.Children[1], scope, loopCtx{inLoop: true})

	case DO_WHILE_STATEMENT:
		if err := r.resolveStmt(n.Children[0], scope, loopCtx{inLoop: true}); err != nil {
			return err
		}
		return r.resolveExpr(n.Children[1], scope)

	case FOR_STATEMENT:
		forScope := NewSymTab(scope)
		n.Scope = forScope
		init, cond, step, body := n.Children[0], n.Children[1], n.Children[2], n.Children[3]
		if init != nil {
			if err := r.resolveStmt(init, forScope, lc); err != nil {
				return err
			}
		}
		if cond != nil {
			if err := r.resolveExpr(cond, forScope); err != nil {
				return err
			}
		}
		if step != nil {
			if err := r.resolveExpr(step, forScope); err != nil {
				return err
			}
		}
		return r.resolveStmt(body, forScope, loopCtx{inLoop: true})

	case RETURN_STATEMENT:
		if len(n.Children) > 0 {
			return r.resolveExpr(n.Children[0], scope)
		}
		return nil

	case BREAK_STATEMENT, CONTINUE_STATEMENT:
		if !lc.inLoop {
			return NewErrorAt(SyntaxUnsupported, n, "%s outside any loop", n.Type())
		}
		return nil

	case EXPRESSION_STATEMENT:
		return r.resolveExpr(n.Children[0], scope)

	case ASM_STATEMENT:
		return r.resolveAsm(n, scope)

	case NULL_STATEMENT:
		return nil
	}
	return nil
}

func (r *resolver) resolveAsm(n *Node, scope *SymTab) error {
	if len(n.Children) == 0 {
		return nil
	}
	operand := n.Children[0]
	if operand.Typ == IDENTIFIER_DATA {
		return r.resolveExpr(operand, scope)
	}
	return nil
}

// resolveExpr resolves every identifier reference reachable from n.
func (r *resolver) resolveExpr(n *Node, scope *SymTab) error {
	if n == nil {
		return nil
	}
	switch n.Typ {
	case IDENTIFIER_DATA:
		name := n.Data.(string)
		sym, ok := scope.Resolve(name)
		if !ok {
			return NewErrorAt(ScopeError, n, "%q is not declared", name)
		}
		if sym.Kind == SymFunc {
			return NewErrorAt(TypeError, n, "%q is a function, not a value", name)
		}
		n.Entry = sym
		return nil

	case CALL_EXPRESSION:
		name := n.Children[0].Data.(string)
		sym, ok := scope.Resolve(name)
		if !ok {
			return NewErrorAt(ScopeError, n, "call to undeclared function %q", name)
		}
		if sym.Kind != SymFunc {
			return NewErrorAt(TypeError, n, "%q is not callable", name)
		}
		n.Children[0].Entry = sym
		n.Entry = sym
		args := n.Children[1].Children
		if len(args) != sym.Nparams {
			return NewErrorAt(TypeError, n, "function %q expects %d argument(s), got %d", name, sym.Nparams, len(args))
		}
		for _, a := range args {
			if err := r.resolveExpr(a, scope); err != nil {
				return err
			}
		}
		return nil

	case ASSIGNMENT_EXPRESSION, COMPOUND_ASSIGNMENT_EXPRESSION:
		if err := r.resolveExpr(n.Children[0], scope); err != nil {
			return err
		}
		if n.Children[0].Entry != nil && n.Children[0].Entry.Kind == SymEnumConst {
			return NewErrorAt(ScopeError, n, "cannot assign to enum constant %q", n.Children[0].Data)
		}
		return r.resolveExpr(n.Children[1], scope)

	case PRE_INCREMENT_EXPRESSION, PRE_DECREMENT_EXPRESSION, POST_INCREMENT_EXPRESSION, POST_DECREMENT_EXPRESSION:
		return r.resolveExpr(n.Children[0], scope)

	default:
		for _, c := range n.Children {
			if err := r.resolveExpr(c, scope); err != nil {
				return err
			}
		}
		return nil
	}
}
