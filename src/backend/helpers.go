// helpers.go emits the built-in subroutines the expression generator calls
// for comparisons, logical negation and boolean normalisation (§4.5). The
// fixed PIGS opcode set has no ordering-comparison or boolean-producing
// instruction, only the zero-test branches JZ/JNZ, so every helper reduces
// its job to arithmetic a fixed opcode set can actually express.
//
// Ordering comparisons (_LT, _GT, _LE, _GE) all lean on one bit trick: for
// 32-bit signed a,b, (a-b) is negative iff a<b as long as the subtraction
// does not overflow (operands more than 2^31-1 apart give the wrong
// answer), and an arithmetic SHR by 31
// spreads that sign bit across every bit of the word, so `SHR 31; AND 1`
// turns "negative" into exactly 1 and "non-negative" into exactly 0.
// _EQ/_NE/_NOTL/_BOOL instead branch on whether A is zero after `OR 0`
// refreshes F, since the VM only promises F reflects A immediately after an
// instruction that writes A.

package backend

import "pigscc/src/pigs"

const (
	helperNotL = "_NOTL"
	helperEq   = "_EQ"
	helperNe   = "_NE"
	helperLt   = "_LT"
	helperLe   = "_LE"
	helperGt   = "_GT"
	helperGe   = "_GE"
	helperBool = "_BOOL"
)

// useHelper marks name as referenced, reserving its tag on first use so a
// colliding inline-asm tag of the same name is caught as a TagCollision.
// Returns false if the name collides with an already-reserved tag, i.e. an
// inline asm("Tag", ...) of the same name was generated first.
func (g *generator) useHelper(name string) bool {
	if g.helpersUsed[name] {
		return true
	}
	if !g.tags.Reserve(name) {
		return false
	}
	g.helpersUsed[name] = true
	return true
}

// emitHelpers appends the body of every helper actually referenced during
// codegen, in a fixed order so output is deterministic across runs.
func (g *generator) emitHelpers() {
	order := []string{helperNotL, helperEq, helperNe, helperLt, helperLe, helperGt, helperGe, helperBool}
	for _, name := range order {
		if !g.helpersUsed[name] {
			continue
		}
		switch name {
		case helperLt:
			g.emitOrderingHelper(helperLt, false, false)
		case helperGt:
			g.emitOrderingHelper(helperGt, true, false)
		case helperLe:
			g.emitOrderingHelper(helperLe, true, true)
		case helperGe:
			g.emitOrderingHelper(helperGe, false, true)
		case helperEq:
			g.emitZeroTestHelper(helperEq, true)
		case helperNe:
			g.emitZeroTestHelper(helperNe, false)
		case helperNotL:
			g.emitUnaryZeroTestHelper(helperNotL, true)
		case helperBool:
			g.emitUnaryZeroTestHelper(helperBool, false)
		}
	}
}

// emitOrderingHelper emits one of _LT/_GT/_LE/_GE. Entered with A=a, v0=b.
// negate computes b-a instead of a-b (turning _LT's trick into _GT's);
// invert applies a logical NOT via XOR 1 (turning _LT into _GE, _GT into
// _LE).
func (g *generator) emitOrderingHelper(name string, negate, invert bool) {
	g.prog.tag(name)
	g.prog.op1(pigs.SUB, "v0")
	if negate {
		g.prog.op0(pigs.NEG)
	}
	g.prog.op1(pigs.SHR, "31")
	g.prog.op1(pigs.AND, "1")
	if invert {
		g.prog.op1(pigs.XOR, "1")
	}
	g.prog.op0(pigs.RET)
}

// emitZeroTestHelper emits _EQ or _NE. Entered with A=a, v0=b. wantZero is
// true for _EQ (result 1 when a-b is zero), false for _NE.
func (g *generator) emitZeroTestHelper(name string, wantZero bool) {
	taken := g.tags.New()
	g.prog.tag(name)
	g.prog.op1(pigs.SUB, "v0")
	g.prog.op1(pigs.OR, "0")
	g.prog.op1(pigs.JZ, taken)
	if wantZero {
		g.prog.op1(pigs.LDA, "0")
	} else {
		g.prog.op1(pigs.LDA, "1")
	}
	g.prog.op0(pigs.RET)
	g.prog.tag(taken)
	if wantZero {
		g.prog.op1(pigs.LDA, "1")
	} else {
		g.prog.op1(pigs.LDA, "0")
	}
	g.prog.op0(pigs.RET)
}

// emitUnaryZeroTestHelper emits _NOTL or _BOOL. Entered with A=a alone.
// invertsTruth is true for _NOTL (result 1 when a is zero), false for _BOOL
// (result 1 when a is nonzero, i.e. truthiness normalisation).
func (g *generator) emitUnaryZeroTestHelper(name string, invertsTruth bool) {
	taken := g.tags.New()
	g.prog.tag(name)
	g.prog.op1(pigs.OR, "0")
	g.prog.op1(pigs.JZ, taken)
	if invertsTruth {
		g.prog.op1(pigs.LDA, "0")
	} else {
		g.prog.op1(pigs.LDA, "1")
	}
	g.prog.op0(pigs.RET)
	g.prog.tag(taken)
	if invertsTruth {
		g.prog.op1(pigs.LDA, "1")
	} else {
		g.prog.op1(pigs.LDA, "0")
	}
	g.prog.op0(pigs.RET)
}
