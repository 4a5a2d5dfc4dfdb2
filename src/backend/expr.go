// expr.go is the expression code generator (§4.3): every case leaves its
// result in the accumulator A, matching the VM's single-accumulator model.

package backend

import (
	"strconv"
	"strings"

	"pigscc/src/ir"
	"pigscc/src/pigs"
)

// arithOpcode maps a binary/compound-assignment operator to its single
// fixed-opcode equivalent. Comparison operators are handled separately
// through the built-in helpers (comparisonHelper), since the VM has no
// ordering-comparison opcode of its own.
var arithOpcode = map[string]string{
	"+": pigs.ADD, "-": pigs.SUB, "*": pigs.MUL, "/": pigs.DIV, "%": pigs.MOD,
	"&": pigs.AND, "|": pigs.OR, "^": pigs.XOR, "<<": pigs.SHL, ">>": pigs.SHR,
}

// comparisonHelper maps each comparison operator to the built-in subroutine
// implementing it.
var comparisonHelper = map[string]string{
	"==": helperEq, "!=": helperNe, "<": helperLt, "<=": helperLe, ">": helperGt, ">=": helperGe,
}

// isLeaf reports whether n is a literal or a direct variable/parameter
// reference — the two expression shapes a binary operator can fold its
// operand syntax against without first routing it through a scratch slot
// (§4.3).
func isLeaf(n *ir.Node) bool {
	return n.Typ == ir.INTEGER_DATA || n.Typ == ir.IDENTIFIER_DATA
}

// operandSyntax renders sym as a direct instruction operand: "vN" for an
// ordinary variable, "pN" for a pN-bound parameter. Used when embedding a
// leaf operand straight into an arithmetic opcode (§4.3's leaf-b rule);
// distinct from loadSym/storeSym's LDAP/STAP convention, which addresses a
// parameter by its bare numeric index rather than the "pN" token.
func operandSyntax(sym *ir.Symbol) string {
	if sym.Kind == ir.SymParam {
		return "p" + strconv.Itoa(sym.Slot)
	}
	return "v" + strconv.Itoa(sym.Slot)
}

// leafOperand renders a leaf node (literal, variable, parameter, or enum
// constant) as a direct instruction operand.
func (g *generator) leafOperand(n *ir.Node) string {
	switch n.Typ {
	case ir.INTEGER_DATA:
		return strconv.Itoa(n.Data.(int))
	case ir.IDENTIFIER_DATA:
		sym := n.Entry
		if sym.Kind == ir.SymEnumConst {
			return strconv.Itoa(sym.EnumValue)
		}
		return operandSyntax(sym)
	}
	return ""
}

// loadSym emits the load that brings sym's value into A.
func (g *generator) loadSym(sym *ir.Symbol) {
	if sym.Kind == ir.SymParam {
		g.prog.op1(pigs.LDAP, strconv.Itoa(sym.Slot))
		return
	}
	g.prog.op1(pigs.LDA, "v"+strconv.Itoa(sym.Slot))
}

// storeSym emits the store that writes A into sym.
func (g *generator) storeSym(sym *ir.Symbol) {
	if sym.Kind == ir.SymParam {
		g.prog.op1(pigs.STAP, strconv.Itoa(sym.Slot))
		return
	}
	g.prog.op1(pigs.STA, "v"+strconv.Itoa(sym.Slot))
}

// genExpr lowers n, leaving its value in A.
func (g *generator) genExpr(n *ir.Node) error {
	switch n.Typ {
	case ir.INTEGER_DATA:
		g.prog.op1(pigs.LDA, strconv.Itoa(n.Data.(int)))
		return nil

	case ir.IDENTIFIER_DATA:
		sym := n.Entry
		if sym.Kind == ir.SymEnumConst {
			g.prog.op1(pigs.LDA, strconv.Itoa(sym.EnumValue))
			return nil
		}
		g.loadSym(sym)
		return nil

	case ir.BINARY_EXPRESSION:
		op := n.Data.(string)
		if _, ok := comparisonHelper[op]; ok {
			return g.genComparison(n, op)
		}
		return g.genArithmetic(n, op)

	case ir.UNARY_EXPRESSION:
		return g.genUnary(n)

	case ir.LOGICAL_AND_EXPRESSION:
		return g.genLogicalAnd(n)

	case ir.LOGICAL_OR_EXPRESSION:
		return g.genLogicalOr(n)

	case ir.ASSIGNMENT_EXPRESSION:
		if err := g.genExpr(n.Children[1]); err != nil {
			return err
		}
		g.storeSym(n.Children[0].Entry)
		return nil

	case ir.COMPOUND_ASSIGNMENT_EXPRESSION:
		return g.genCompoundAssignment(n)

	case ir.PRE_INCREMENT_EXPRESSION, ir.PRE_DECREMENT_EXPRESSION:
		sym := n.Children[0].Entry
		opcode := pigs.ADD
		if n.Typ == ir.PRE_DECREMENT_EXPRESSION {
			opcode = pigs.SUB
		}
		g.loadSym(sym)
		g.prog.op1(opcode, "1")
		g.storeSym(sym)
		return nil

	case ir.POST_INCREMENT_EXPRESSION, ir.POST_DECREMENT_EXPRESSION:
		return g.genPostIncDec(n)

	case ir.CALL_EXPRESSION:
		return g.genCall(n)
	}
	return ir.NewErrorAt(ir.InternalError, n, "expression generator: unhandled node type %s", n.Type())
}

// genArithmetic lowers `a OP b` for every non-comparison binary operator
// (§4.3). A leaf b folds directly into the opcode's operand; a compound b
// is lowered into a scratch slot first so evaluating a cannot clobber it.
func (g *generator) genArithmetic(n *ir.Node, op string) error {
	a, b := n.Children[0], n.Children[1]
	opcode := arithOpcode[op]

	if isLeaf(b) {
		if err := g.genExpr(a); err != nil {
			return err
		}
		g.prog.op1(opcode, g.leafOperand(b))
		return nil
	}

	slot, err := g.pushScratch(n)
	if err != nil {
		return err
	}
	if err := g.genExpr(b); err != nil {
		return err
	}
	g.prog.op1(pigs.STA, slot)
	if err := g.genExpr(a); err != nil {
		return err
	}
	g.prog.op1(opcode, slot)
	g.popScratch()
	return nil
}

// genComparison lowers a comparison through its built-in helper: b goes into
// v0, a is loaded into A, then the helper is called (§4.3, §4.5). Every
// comparison routes through its helper regardless of leaf/compound status,
// since v0 is not part of the scratch-slot stack expressions otherwise use —
// a comparison nested inside the operand of an outer comparison can clobber
// v0 before the outer CALL reads it, a known, accepted limitation matching
// the source language's own unspecified nested-comparison semantics.
func (g *generator) genComparison(n *ir.Node, op string) error {
	helper := comparisonHelper[op]
	if !g.useHelper(helper) {
		return ir.NewErrorAt(ir.TagCollision, n, "built-in helper tag %q collides with an inline asm tag", helper)
	}
	if err := g.genExpr(n.Children[1]); err != nil {
		return err
	}
	g.prog.op1(pigs.STA, "v0")
	if err := g.genExpr(n.Children[0]); err != nil {
		return err
	}
	g.prog.op1(pigs.CALL, helper)
	return nil
}

// genUnary lowers -,+,~,! (§4.3). The VM has no bitwise-NOT opcode, so `~a`
// is expressed as `a XOR -1`; `!a` routes through _NOTL since it must
// normalise to exactly 0 or 1 per C's boolean-result rule.
func (g *generator) genUnary(n *ir.Node) error {
	op := n.Data.(string)
	if err := g.genExpr(n.Children[0]); err != nil {
		return err
	}
	switch op {
	case "+":
		return nil
	case "-":
		g.prog.op0(pigs.NEG)
		return nil
	case "~":
		g.prog.op1(pigs.XOR, "-1")
		return nil
	case "!":
		if !g.useHelper(helperNotL) {
			return ir.NewErrorAt(ir.TagCollision, n, "built-in helper tag %q collides with an inline asm tag", helperNotL)
		}
		g.prog.op1(pigs.CALL, helperNotL)
		return nil
	}
	return ir.NewErrorAt(ir.InternalError, n, "unary generator: unhandled operator %q", op)
}

// genLogicalAnd lowers `a && b` (§4.3): short-circuits to 0 without
// evaluating b when a is false, otherwise normalises b's truthiness via
// _BOOL.
func (g *generator) genLogicalAnd(n *ir.Node) error {
	if !g.useHelper(helperBool) {
		return ir.NewErrorAt(ir.TagCollision, n, "built-in helper tag %q collides with an inline asm tag", helperBool)
	}
	falseTag := g.tags.New()
	endTag := g.tags.New()
	if err := g.genExpr(n.Children[0]); err != nil {
		return err
	}
	g.prog.op1(pigs.OR, "0")
	g.prog.op1(pigs.JZ, falseTag)
	if err := g.genExpr(n.Children[1]); err != nil {
		return err
	}
	g.prog.op1(pigs.CALL, helperBool)
	g.prog.op1(pigs.JMP, endTag)
	g.prog.tag(falseTag)
	g.prog.op1(pigs.LDA, "0")
	g.prog.tag(endTag)
	return nil
}

// genLogicalOr lowers `a || b` (§4.3): short-circuits to 1 without
// evaluating b when a is true, otherwise normalises b's truthiness via
// _BOOL.
func (g *generator) genLogicalOr(n *ir.Node) error {
	if !g.useHelper(helperBool) {
		return ir.NewErrorAt(ir.TagCollision, n, "built-in helper tag %q collides with an inline asm tag", helperBool)
	}
	trueTag := g.tags.New()
	endTag := g.tags.New()
	if err := g.genExpr(n.Children[0]); err != nil {
		return err
	}
	g.prog.op1(pigs.OR, "0")
	g.prog.op1(pigs.JNZ, trueTag)
	if err := g.genExpr(n.Children[1]); err != nil {
		return err
	}
	g.prog.op1(pigs.CALL, helperBool)
	g.prog.op1(pigs.JMP, endTag)
	g.prog.tag(trueTag)
	g.prog.op1(pigs.LDA, "1")
	g.prog.tag(endTag)
	return nil
}

// genCompoundAssignment lowers `x OP= e` as `x = x OP e` without
// re-evaluating x (§4.3): e always goes through a scratch slot first,
// regardless of leaf/compound status, since x must still be loaded
// afterwards without disturbing e's value.
func (g *generator) genCompoundAssignment(n *ir.Node) error {
	sym := n.Children[0].Entry
	op := strings.TrimSuffix(n.Data.(string), "=")
	opcode := arithOpcode[op]

	slot, err := g.pushScratch(n)
	if err != nil {
		return err
	}
	if err := g.genExpr(n.Children[1]); err != nil {
		return err
	}
	g.prog.op1(pigs.STA, slot)
	g.loadSym(sym)
	g.prog.op1(opcode, slot)
	g.storeSym(sym)
	g.popScratch()
	return nil
}

// genPostIncDec lowers `x++`/`x--` (§4.3): the pre-update value is saved to
// a scratch slot and restored into A after the store, since the expression's
// value is the original, not the updated, value.
func (g *generator) genPostIncDec(n *ir.Node) error {
	sym := n.Children[0].Entry
	opcode := pigs.ADD
	if n.Typ == ir.POST_DECREMENT_EXPRESSION {
		opcode = pigs.SUB
	}
	slot, err := g.pushScratch(n)
	if err != nil {
		return err
	}
	g.loadSym(sym)
	g.prog.op1(pigs.STA, slot)
	g.prog.op1(opcode, "1")
	g.storeSym(sym)
	g.prog.op1(pigs.LDA, slot)
	g.popScratch()
	return nil
}

// genCall lowers a call expression (§4.3): a VM API function lowers to its
// opcode directly; a user function's arguments are written into the
// callee's own parameter slots before CALL.
func (g *generator) genCall(n *ir.Node) error {
	sym := n.Entry
	if sym.IsAPI {
		operands, err := g.genAPIArgs(n)
		if err != nil {
			return err
		}
		g.prog.opN(sym.Opcode, operands...)
		return nil
	}

	args := n.Children[1].Children
	params := sym.Node.Children[1].Children
	for i, a := range args {
		if err := g.genExpr(a); err != nil {
			return err
		}
		g.storeSym(params[i].Entry)
	}
	g.prog.op1(pigs.CALL, funcTag(sym.Name))
	return nil
}

// genAPIArgs lowers a VM API call's arguments (§4.3): every non-leaf
// argument is evaluated into its own scratch slot first and held there
// simultaneously, since they must all be named together as operands of one
// instruction line; leaf arguments pass their operand syntax straight
// through without touching a slot.
func (g *generator) genAPIArgs(n *ir.Node) ([]string, error) {
	args := n.Children[1].Children
	operands := make([]string, len(args))
	held := 0
	for i, a := range args {
		if isLeaf(a) {
			operands[i] = g.leafOperand(a)
			continue
		}
		slot, err := g.pushScratch(a)
		if err != nil {
			return nil, err
		}
		if err := g.genExpr(a); err != nil {
			return nil, err
		}
		g.prog.op1(pigs.STA, slot)
		operands[i] = slot
		held++
	}
	for ; held > 0; held-- {
		g.popScratch()
	}
	return operands, nil
}
