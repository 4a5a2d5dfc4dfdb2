// asm.go is the code generator's public entry point: it owns the
// translation-unit-wide setup (function tag reservations, the global
// constant-initialisation preamble, the entry-point call) around the
// per-function and per-expression lowering done in codegen.go/expr.go.

package backend

import (
	"strconv"

	"pigscc/src/ir"
	"pigscc/src/pigs"
	"pigscc/src/util"
)

// GenerateAssembler lowers the resolved, allocated syntax tree rooted at
// root to a stream of Instrs, ready for the reducer and emitter. It must run
// after ir.ResolveTree, ir.EvaluateEnums, ir.EvaluateGlobalInits and
// ir.AllocateTree.
//
// funcSource maps each function's name to its defining file's source split
// into lines, indexed from 0 (so line N is funcSource[name][N-1]); it is
// used to satisfy -c (§4.7: "each source-line boundary emits a leading
// `// <source>` comment") without forcing every Node to carry its own
// source text. A nil or incomplete map simply emits no comments for the
// functions it is missing, rather than erroring.
//
// The program's entry point is the user function named "main": the
// generator is not told a different source convention, so it follows the
// scenarios in §8, every one of which is a bare statement sequence that
// must live inside some function body. Generated output runs any global
// constant initialisers, then CALLs "main", then HALTs.
func GenerateAssembler(root *ir.Node, opt util.Options, funcSource map[string][]string) ([]Instr, *util.TagAllocator, error) {
	tags := util.NewTagAllocator()
	g := newGenerator(opt.Comments, tags)
	decls := root.Children[0]

	for _, d := range decls.Children {
		if d.Typ != ir.FUNCTION_DEFINITION || d.Entry.IsAPI {
			continue
		}
		if !tags.Reserve(funcTag(d.Entry.Name)) {
			return nil, nil, ir.NewErrorAt(ir.TagCollision, d, "function tag %q is already in use", funcTag(d.Entry.Name))
		}
	}

	main, ok := ir.Global.Get("main")
	if !ok || main.Kind != ir.SymFunc || main.IsAPI || main.Node.Typ != ir.FUNCTION_DEFINITION {
		return nil, nil, ir.NewError(ir.ScopeError, 0, 0, "program has no entry point function %q", "main")
	}

	for _, d := range decls.Children {
		if d.Typ != ir.GLOBAL_DECLARATION {
			continue
		}
		sym := d.Children[0].Entry
		if !sym.HasInit {
			continue
		}
		g.prog.op1(pigs.LDA, strconv.Itoa(sym.InitValue))
		g.storeSym(sym)
	}

	g.prog.op1(pigs.CALL, funcTag("main"))
	g.prog.op0(pigs.HALT)

	for _, d := range decls.Children {
		if d.Typ != ir.FUNCTION_DEFINITION || d.Entry.IsAPI || d.Children[2] == nil {
			continue
		}
		g.sourceLines = funcSource[d.Entry.Name]
		g.lastCommentLine = 0
		if err := g.genFunction(d); err != nil {
			return nil, nil, err
		}
	}

	g.emitHelpers()

	return g.prog.instrs, tags, nil
}
