// codegen.go is the statement-level code generator and the per-function
// driver: it walks a FUNCTION_DEFINITION's body emitting Instrs through the
// generator's program builder, tracking the break/continue targets a loop
// nest needs and the live scratch-slot depth an expression nest needs.

package backend

import (
	"fmt"
	"strconv"
	"strings"

	"pigscc/src/ir"
	"pigscc/src/pigs"
	"pigscc/src/util"
)

// generator holds all per-translation-unit state threaded through code
// generation: the instruction stream being built, the tag namespace shared
// by generated labels, inline asm and built-in helpers, the live nesting
// depth of the scratch-slot stack, and the break/continue targets of any
// loop currently being lowered.
type generator struct {
	prog        *program
	tags        *util.TagAllocator
	scratch     int
	helpersUsed map[string]bool

	breakTags    []string
	continueTags []string

	sourceLines     []string // Current function's source, split into lines; nil disables -c for it.
	lastCommentLine int      // Line last emitted as a comment, so repeats at the same line are skipped.
}

// newGenerator returns a ready to use generator.
func newGenerator(comments bool, tags *util.TagAllocator) *generator {
	return &generator{
		prog:        newProgram(comments),
		tags:        tags,
		helpersUsed: make(map[string]bool),
	}
}

// funcTag is the generated tag naming a user function's entry point.
func funcTag(name string) string {
	return "F_" + name
}

// pushScratch reserves the next free scratch slot ({v1,v2,v3}) for a nested
// compound operand, failing with ScratchExhaustion past the VM's fixed
// 3-deep scratch stack.
func (g *generator) pushScratch(n *ir.Node) (string, error) {
	if g.scratch >= pigs.MaxScratchDepth {
		return "", ir.NewErrorAt(ir.ScratchExhaustion, n, "expression nests more than %d compound operands deep", pigs.MaxScratchDepth)
	}
	slot := fmt.Sprintf("v%d", pigs.Scratch1+g.scratch)
	g.scratch++
	return slot, nil
}

// popScratch releases the most recently reserved scratch slot.
func (g *generator) popScratch() {
	g.scratch--
}

func (g *generator) pushLoop(breakTag, continueTag string) {
	g.breakTags = append(g.breakTags, breakTag)
	g.continueTags = append(g.continueTags, continueTag)
}

func (g *generator) popLoop() {
	g.breakTags = g.breakTags[:len(g.breakTags)-1]
	g.continueTags = g.continueTags[:len(g.continueTags)-1]
}

// commentLine emits a -c comment naming the source text of line, the first
// time that line is seen. Out-of-range lines (a synthesised node with no
// source, or a missing funcSource entry) are silently skipped.
func (g *generator) commentLine(line int) {
	if !g.prog.comments || line <= 0 || line == g.lastCommentLine {
		return
	}
	if line > len(g.sourceLines) {
		return
	}
	g.lastCommentLine = line
	g.prog.comment(strings.TrimSpace(g.sourceLines[line-1]))
}

// genFunction lowers one user FUNCTION_DEFINITION: a tag naming its entry
// point, its body, and an implicit trailing RET for any path that falls off
// the end without an explicit return (§4.4).
func (g *generator) genFunction(f *ir.Node) error {
	g.prog.tag(funcTag(f.Entry.Name))
	g.commentLine(f.Line)
	if err := g.genStmt(f.Children[2]); err != nil {
		return err
	}
	g.prog.op0(pigs.RET)
	return nil
}

func (g *generator) genStmt(n *ir.Node) error {
	if n.Typ != ir.BLOCK {
		g.commentLine(n.Line)
	}
	switch n.Typ {
	case ir.BLOCK:
		for _, stmt := range n.Children {
			if err := g.genStmt(stmt); err != nil {
				return err
			}
		}
		return nil

	case ir.LOCAL_DECLARATION:
		if len(n.Children) < 2 {
			return nil
		}
		if err := g.genExpr(n.Children[1]); err != nil {
			return err
		}
		g.storeSym(n.Children[0].Entry)
		return nil

	case ir.IF_STATEMENT:
		return g.genIf(n)

	case ir.WHILE_STATEMENT:
		return g.genWhile(n)

	case ir.DO_WHILE_STATEMENT:
		return g.genDoWhile(n)

	case ir.FOR_STATEMENT:
		return g.genFor(n)

	case ir.RETURN_STATEMENT:
		if len(n.Children) > 0 {
			if err := g.genExpr(n.Children[0]); err != nil {
				return err
			}
		}
		g.prog.op0(pigs.RET)
		return nil

	case ir.BREAK_STATEMENT:
		g.prog.op1(pigs.JMP, g.breakTags[len(g.breakTags)-1])
		return nil

	case ir.CONTINUE_STATEMENT:
		g.prog.op1(pigs.JMP, g.continueTags[len(g.continueTags)-1])
		return nil

	case ir.EXPRESSION_STATEMENT:
		return g.genExpr(n.Children[0])

	case ir.ASM_STATEMENT:
		return g.genAsm(n)

	case ir.NULL_STATEMENT:
		return nil
	}
	return ir.NewErrorAt(ir.InternalError, n, "statement generator: unhandled node type %s", n.Type())
}

// genIf lowers `if (c) s1 [else s2]` (§4.4): the condition's truthiness is
// refreshed into F immediately before the branch, since the VM only
// guarantees F reflects A right after an instruction that writes A.
func (g *generator) genIf(n *ir.Node) error {
	if err := g.genExpr(n.Children[0]); err != nil {
		return err
	}
	g.prog.op1(pigs.OR, "0")

	if len(n.Children) > 2 {
		elseTag := g.tags.New()
		endTag := g.tags.New()
		g.prog.op1(pigs.JZ, elseTag)
		if err := g.genStmt(n.Children[1]); err != nil {
			return err
		}
		g.prog.op1(pigs.JMP, endTag)
		g.prog.tag(elseTag)
		if err := g.genStmt(n.Children[2]); err != nil {
			return err
		}
		g.prog.tag(endTag)
		return nil
	}

	endTag := g.tags.New()
	g.prog.op1(pigs.JZ, endTag)
	if err := g.genStmt(n.Children[1]); err != nil {
		return err
	}
	g.prog.tag(endTag)
	return nil
}

// genWhile lowers `while (c) s` (§4.4).
func (g *generator) genWhile(n *ir.Node) error {
	headTag := g.tags.New()
	endTag := g.tags.New()
	g.prog.tag(headTag)
	if err := g.genExpr(n.Children[0]); err != nil {
		return err
	}
	g.prog.op1(pigs.OR, "0")
	g.prog.op1(pigs.JZ, endTag)
	g.pushLoop(endTag, headTag)
	err := g.genStmt(n.Children[1])
	g.popLoop()
	if err != nil {
		return err
	}
	g.prog.op1(pigs.JMP, headTag)
	g.prog.tag(endTag)
	return nil
}

// genDoWhile lowers `do s while (c)` (§4.4).
func (g *generator) genDoWhile(n *ir.Node) error {
	headTag := g.tags.New()
	contTag := g.tags.New()
	endTag := g.tags.New()
	g.prog.tag(headTag)
	g.pushLoop(endTag, contTag)
	err := g.genStmt(n.Children[0])
	g.popLoop()
	if err != nil {
		return err
	}
	g.prog.tag(contTag)
	if err := g.genExpr(n.Children[1]); err != nil {
		return err
	}
	g.prog.op1(pigs.OR, "0")
	g.prog.op1(pigs.JNZ, headTag)
	g.prog.tag(endTag)
	return nil
}

// genFor lowers `for (init; cond; step) s` (§4.4); cond defaults to
// always-true when absent, matching ordinary C semantics.
func (g *generator) genFor(n *ir.Node) error {
	init, cond, step, body := n.Children[0], n.Children[1], n.Children[2], n.Children[3]
	if init != nil {
		if err := g.genStmt(init); err != nil {
			return err
		}
	}
	headTag := g.tags.New()
	contTag := g.tags.New()
	endTag := g.tags.New()
	g.prog.tag(headTag)
	if cond != nil {
		if err := g.genExpr(cond); err != nil {
			return err
		}
		g.prog.op1(pigs.OR, "0")
		g.prog.op1(pigs.JZ, endTag)
	}
	g.pushLoop(endTag, contTag)
	err := g.genStmt(body)
	g.popLoop()
	if err != nil {
		return err
	}
	g.prog.tag(contTag)
	if step != nil {
		if err := g.genExpr(step); err != nil {
			return err
		}
	}
	g.prog.op1(pigs.JMP, headTag)
	g.prog.tag(endTag)
	return nil
}

// genAsm lowers an inline asm statement (§4.4): a "Tag" mnemonic defines a
// tag sharing the generated-tag namespace; any other mnemonic is emitted
// verbatim with its operand translated to the referenced object's slot or
// parameter syntax.
func (g *generator) genAsm(n *ir.Node) error {
	mnemonic := n.Data.(string)
	if mnemonic == "Tag" {
		if len(n.Children) == 0 || n.Children[0].Typ != ir.STRING_DATA {
			return ir.NewErrorAt(ir.AsmError, n, `asm("Tag", ...) requires a string operand naming the tag`)
		}
		name := n.Children[0].Data.(string)
		if !g.tags.Reserve(name) {
			return ir.NewErrorAt(ir.TagCollision, n, "tag %q is already in use", name)
		}
		g.prog.tag(name)
		return nil
	}
	if len(n.Children) == 0 {
		g.prog.op0(mnemonic)
		return nil
	}
	g.prog.op1(mnemonic, g.asmOperand(n.Children[0]))
	return nil
}

// asmOperand translates an asm() operand node to its emitted text: a string
// is copied verbatim, an integer literal prints as decimal, and an
// identifier emits the bound object's VM-slot or parameter syntax.
func (g *generator) asmOperand(n *ir.Node) string {
	switch n.Typ {
	case ir.STRING_DATA:
		return n.Data.(string)
	case ir.INTEGER_DATA:
		return strconv.Itoa(n.Data.(int))
	case ir.IDENTIFIER_DATA:
		return g.leafOperand(n)
	}
	return ""
}
