package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"pigscc/src/backend"
	"pigscc/src/frontend"
	"pigscc/src/ir"
	"pigscc/src/pigs"
	"pigscc/src/util"
)

// run drives the compiler's pipeline end to end (§5): read sources, parse,
// resolve, allocate, generate, reduce, emit. It performs no I/O except at
// the two boundaries the design calls out — source reads up front, the
// output write at the very end.
func run(opt util.Options) error {
	if opt.TokenStream {
		src, err := util.ReadSource(opt.Sources[0])
		if err != nil {
			return err
		}
		out, err := frontend.TokenStream(src)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	apiDecls, err := frontend.ParseUnit(frontend.APIHeader)
	if err != nil {
		return err
	}

	root := &ir.Node{Typ: ir.PROGRAM, Children: []*ir.Node{{Typ: ir.DECLARATION_LIST}}}
	decls := root.Children[0]
	decls.Children = append(decls.Children, apiDecls.Children...)

	// funcSource remembers each function's own source text, split into
	// lines, so the generator can satisfy -c's per-source-line comments
	// (§4.7) without every source file's Line numbers colliding: each file
	// is still parsed, and so numbered, independently.
	funcSource := make(map[string][]string)
	for _, path := range opt.Sources {
		src, err := util.ReadSource(path)
		if err != nil {
			return err
		}
		unit, err := frontend.ParseUnit(src)
		if err != nil {
			return err
		}
		lines := strings.Split(src, "\n")
		for _, d := range unit.Children {
			if d.Typ == ir.FUNCTION_DEFINITION {
				funcSource[d.Children[0].Data.(string)] = lines
			}
		}
		decls.Children = append(decls.Children, unit.Children...)
	}

	if err := ir.ResolveTree(root); err != nil {
		return err
	}
	if err := ir.EvaluateEnums(root); err != nil {
		return err
	}
	if err := ir.EvaluateGlobalInits(root); err != nil {
		return err
	}
	if err := ir.ValidateTree(root); err != nil {
		return err
	}
	if err := ir.CheckRecursion(root); err != nil {
		return err
	}
	report, err := ir.AllocateTree(root)
	if err != nil {
		return err
	}

	if opt.Verbose {
		root.Print(0, true)
	}

	instrs, tags, err := backend.GenerateAssembler(root, opt, funcSource)
	if err != nil {
		return err
	}
	if !opt.NoReduce {
		instrs = backend.Reduce(instrs)
	}

	if err := util.WriteOutput(opt.Out, backend.Emit(instrs)); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "variables used: %d/%d, tags used: %d/%d\n",
		report.VarsUsed, report.VarCap, tags.Count(), pigs.MaxTags)
	if report.VarsUsed > report.VarCap {
		fmt.Fprintf(os.Stderr, "warning: %d variables used, only %d available\n", report.VarsUsed, report.VarCap)
	}
	if tags.Count() > pigs.MaxTags {
		fmt.Fprintf(os.Stderr, "warning: %d tags used, only %d available\n", tags.Count(), pigs.MaxTags)
	}
	return nil
}

func main() {
	opt, err := util.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	if err := run(opt); err != nil {
		var ce *ir.CompileError
		if opt.Debug && errors.As(err, &ce) {
			fmt.Fprintf(os.Stderr, "%+v\n", ce)
		} else {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
		os.Exit(1)
	}
}
