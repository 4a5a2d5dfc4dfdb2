// reduce.go is the peephole reducer (§4.6): a fixed set of semantics-
// preserving rewrites run to a fixed point over the linear instruction list,
// skippable via -n. Every rule treats KindComment lines as transparent —
// a comment between two instructions never blocks a rewrite that would
// otherwise apply — and reasons about adjacency rather than building a full
// control-flow graph, since every pattern below only ever arises from
// instructions this generator emits back to back.

package backend

import "pigscc/src/pigs"

// Reduce runs every rewrite rule to a fixed point and returns the reduced
// instruction list.
func Reduce(instrs []Instr) []Instr {
	for {
		next := instrs
		changed := false
		for _, rule := range []func([]Instr) ([]Instr, bool){
			reduceStaLda,
			reduceDeadLda,
			reduceJmpTag,
			reduceRedundantOr0,
			reduceUnreferencedTags,
		} {
			var did bool
			next, did = rule(next)
			changed = changed || did
		}
		instrs = next
		if !changed {
			return instrs
		}
	}
}

// nextOp returns the index of the next KindOp or KindTag instruction at or
// after i, skipping comments, or -1 if none remains.
func nextOp(instrs []Instr, i int) int {
	for ; i < len(instrs); i++ {
		if instrs[i].Kind != KindComment {
			return i
		}
	}
	return -1
}

// reduceStaLda rewrites "STA vX; LDA vX" to "STA vX": the accumulator
// already holds the value STA just wrote.
func reduceStaLda(instrs []Instr) ([]Instr, bool) {
	out := make([]Instr, 0, len(instrs))
	changed := false
	for i := 0; i < len(instrs); i++ {
		out = append(out, instrs[i])
		if instrs[i].Kind != KindOp || instrs[i].Op != pigs.STA {
			continue
		}
		j := nextOp(instrs, i+1)
		if j < 0 || instrs[j].Kind != KindOp || instrs[j].Op != pigs.LDA {
			continue
		}
		if len(instrs[j].Operands) != 1 || instrs[j].Operands[0] != instrs[i].Operands[0] {
			continue
		}
		for k := i + 1; k < j; k++ {
			out = append(out, instrs[k])
		}
		i = j
		changed = true
	}
	return out, changed
}

// reduceDeadLda rewrites "LDA k1; LDA k2" to "LDA k2": the first load is
// overwritten before anything reads it.
func reduceDeadLda(instrs []Instr) ([]Instr, bool) {
	out := make([]Instr, 0, len(instrs))
	changed := false
	for i := 0; i < len(instrs); i++ {
		if instrs[i].Kind == KindOp && instrs[i].Op == pigs.LDA {
			j := nextOp(instrs, i+1)
			if j >= 0 && instrs[j].Kind == KindOp && instrs[j].Op == pigs.LDA {
				changed = true
				continue // drop instrs[i]; keep any comments already appended before it below
			}
		}
		out = append(out, instrs[i])
	}
	return out, changed
}

// reduceJmpTag drops an unconditional jump immediately followed by the tag
// it targets.
func reduceJmpTag(instrs []Instr) ([]Instr, bool) {
	out := make([]Instr, 0, len(instrs))
	changed := false
	for i := 0; i < len(instrs); i++ {
		if instrs[i].Kind == KindOp && instrs[i].Op == pigs.JMP {
			j := nextOp(instrs, i+1)
			if j >= 0 && instrs[j].Kind == KindTag && instrs[j].Name == instrs[i].Operands[0] {
				changed = true
				continue
			}
		}
		out = append(out, instrs[i])
	}
	return out, changed
}

// reduceRedundantOr0 drops an "OR 0" not immediately followed by a
// conditional branch: this generator only ever emits "OR 0" paired directly
// with a following JZ/JNZ, so a later rewrite severing that pairing is the
// only way one becomes redundant.
func reduceRedundantOr0(instrs []Instr) ([]Instr, bool) {
	out := make([]Instr, 0, len(instrs))
	changed := false
	for i := 0; i < len(instrs); i++ {
		if instrs[i].Kind == KindOp && instrs[i].Op == pigs.OR && len(instrs[i].Operands) == 1 && instrs[i].Operands[0] == "0" {
			j := nextOp(instrs, i+1)
			isBranch := j >= 0 && instrs[j].Kind == KindOp && (instrs[j].Op == pigs.JZ || instrs[j].Op == pigs.JNZ)
			if !isBranch {
				changed = true
				continue
			}
		}
		out = append(out, instrs[i])
	}
	return out, changed
}

// reduceUnreferencedTags drops any tag definition never targeted by a
// JMP/JZ/JNZ/CALL.
func reduceUnreferencedTags(instrs []Instr) ([]Instr, bool) {
	referenced := make(map[string]bool)
	for _, in := range instrs {
		if in.Kind != KindOp {
			continue
		}
		switch in.Op {
		case pigs.JMP, pigs.JZ, pigs.JNZ, pigs.CALL:
			if len(in.Operands) == 1 {
				referenced[in.Operands[0]] = true
			}
		}
	}
	out := make([]Instr, 0, len(instrs))
	changed := false
	for _, in := range instrs {
		if in.Kind == KindTag && !referenced[in.Name] {
			changed = true
			continue
		}
		out = append(out, in)
	}
	return out, changed
}
