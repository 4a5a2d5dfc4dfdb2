package ir

import "pigscc/src/pigs"

// AllocationReport summarises resource usage for the trailing emitter
// summary and the over-budget warnings (§4.2, §4.7): resource limits are
// warnings, never errors.
type AllocationReport struct {
	VarsUsed int // High-water mark of VM variable slots allocated, v4 and up.
	VarCap   int // pigs.UsableVars.
}

// allocator assigns VM variable slots. Globals are pinned first, in
// declaration order, from v4 upward. Each function then gets its own
// scope-lifetime bump allocator seeded at the same post-global base: since
// recursion is banned no two functions are ever simultaneously active, so
// their locals are allowed to alias (§4.2).
type allocator struct {
	base      int // First free slot after globals.
	cur       int
	highWater int
}

// AllocateTree assigns VM slots to every global and local variable reachable
// from root. It must run after ResolveTree.
func AllocateTree(root *Node) (*AllocationReport, error) {
	a := &allocator{base: pigs.ScratchVars, cur: pigs.ScratchVars, highWater: pigs.ScratchVars}

	for _, name := range Global.Order() {
		sym, _ := Global.Get(name)
		if sym.Kind == SymVar && sym.IsGlobal {
			sym.Slot = a.cur
			a.cur++
			if a.cur > a.highWater {
				a.highWater = a.cur
			}
		}
	}
	a.base = a.cur

	decls := root.Children[0]
	for _, d := range decls.Children {
		if d.Typ != FUNCTION_DEFINITION || d.Children[2] == nil {
			continue
		}
		// d.Children[2].Scope is the same SymTab as d.Entry.Locals (set by
		// resolveFunctionBody), so allocBlock alone assigns slots to the
		// function's parameters and top-level locals; a separate pass here
		// would double-book them under two different slot numbers.
		a.cur = a.base
		a.allocBlock(d.Children[2])
	}

	return &AllocationReport{VarsUsed: a.highWater - pigs.ScratchVars, VarCap: pigs.UsableVars}, nil
}

// allocBlock assigns slots to a BLOCK's own declarations (in order) and
// recurses into nested scopes, rewinding cur on scope exit.
func (a *allocator) allocBlock(block *Node) {
	mark := a.cur
	for _, name := range block.Scope.Order() {
		sym, _ := block.Scope.Get(name)
		if sym.Kind == SymVar {
			sym.Slot = a.cur
			a.cur++
			if a.cur > a.highWater {
				a.highWater = a.cur
			}
		}
	}
	for _, stmt := range block.Children {
		a.allocStmt(stmt)
	}
	a.cur = mark
}

func (a *allocator) allocStmt(n *Node) {
	switch n.Typ {
	case BLOCK:
		a.allocBlock(n)
	case IF_STATEMENT:
		a.allocStmt(n.Children[1])
		if len(n.Children) > 2 {
			a.allocStmt(n.Children[2])
		}
	case WHILE_STATEMENT:
		a.allocStmt(n.Children[1])
	case DO_WHILE_STATEMENT:
		a.allocStmt(n.Children[0])
	case FOR_STATEMENT:
		mark := a.cur
		for _, name := range n.Scope.Order() {
			sym, _ := n.Scope.Get(name)
			if sym.Kind == SymVar {
				sym.Slot = a.cur
				a.cur++
				if a.cur > a.highWater {
					a.highWater = a.cur
				}
			}
		}
		a.allocStmt(n.Children[3])
		a.cur = mark
	}
}
