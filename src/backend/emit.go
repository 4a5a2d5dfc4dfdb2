// emit.go serialises the final instruction list to the VM's textual
// assembly syntax (§4.7) through util.Writer.

package backend

import "pigscc/src/util"

// Emit renders instrs as assembly text.
func Emit(instrs []Instr) string {
	w := util.NewWriter()
	for _, in := range instrs {
		switch in.Kind {
		case KindTag:
			w.Label(in.Name)
		case KindComment:
			w.Comment(in.Name)
		case KindOp:
			switch len(in.Operands) {
			case 0:
				w.Instr0(in.Op)
			case 1:
				w.Instr1(in.Op, in.Operands[0])
			default:
				w.InstrN(in.Op, in.Operands)
			}
		}
	}
	return w.String()
}
