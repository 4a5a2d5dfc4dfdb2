package ir

import "strings"

// CheckRecursion rejects any cycle in the static call graph (direct or
// indirect recursion), unless at least one function on the cycle contains
// an inline asm statement whose mnemonic names a push or a pop — the
// documented escape hatch for a programmer-managed save/restore around a
// recursive call (§4.4, §9).
//
// The escape hatch is checked per function rather than per call site: any
// push/pop-mnemonic asm() statement anywhere in a function on the cycle
// suppresses RecursionError for that whole cycle. This is coarser than
// tracking which specific call edge is protected, but matches the escape
// hatch's documented use (hand-written save/restore bracketing the call)
// without needing to correlate a specific asm statement with a specific
// call expression.
func CheckRecursion(root *Node) error {
	funcs := make(map[string]*Node)
	edges := make(map[string][]string)

	decls := root.Children[0]
	for _, d := range decls.Children {
		if d.Typ != FUNCTION_DEFINITION || d.Children[2] == nil {
			continue
		}
		name := d.Children[0].Data.(string)
		funcs[name] = d
		edges[name] = callees(d.Children[2])
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		color[name] = gray
		path = append(path, name)
		for _, callee := range edges[name] {
			switch color[callee] {
			case white:
				if _, ok := funcs[callee]; ok {
					if err := visit(callee); err != nil {
						return err
					}
				}
			case gray:
				cycle := cycleFrom(path, callee)
				if !anyHasSaveRestore(cycle, funcs) {
					return NewErrorAt(RecursionError, funcs[name], "recursive call cycle: %s", strings.Join(cycle, " -> "))
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return nil
	}

	for name := range funcs {
		if color[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func cycleFrom(path []string, back string) []string {
	for i, n := range path {
		if n == back {
			return append(append([]string{}, path[i:]...), back)
		}
	}
	return append(append([]string{}, path...), back)
}

func anyHasSaveRestore(cycle []string, funcs map[string]*Node) bool {
	for _, name := range cycle {
		f, ok := funcs[name]
		if !ok {
			continue
		}
		if hasSaveRestore(f.Children[2]) {
			return true
		}
	}
	return false
}

func hasSaveRestore(n *Node) bool {
	if n == nil {
		return false
	}
	if n.Typ == ASM_STATEMENT {
		mnemonic, _ := n.Data.(string)
		m := strings.ToLower(mnemonic)
		if strings.Contains(m, "push") || strings.Contains(m, "pop") {
			return true
		}
	}
	for _, c := range n.Children {
		if hasSaveRestore(c) {
			return true
		}
	}
	return false
}

// callees collects the name of every function called directly within n.
func callees(n *Node) []string {
	var out []string
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if n.Typ == CALL_EXPRESSION {
			if n.Entry != nil && n.Entry.Kind == SymFunc {
				out = append(out, n.Entry.Name)
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}
