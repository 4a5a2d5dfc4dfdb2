package main

import (
	"strconv"
	"strings"
	"testing"

	"pigscc/src/backend"
	"pigscc/src/frontend"
	"pigscc/src/ir"
	"pigscc/src/util"
)

// funcSourceFor builds the name->source-lines map GenerateAssembler expects
// for -c comment emission, treating src as a single file the way main.go
// would for a one-file invocation.
func funcSourceFor(root *ir.Node, src string) map[string][]string {
	lines := strings.Split(src, "\n")
	m := make(map[string][]string)
	for _, d := range root.Children[0].Children {
		if d.Typ == ir.FUNCTION_DEFINITION {
			m[d.Children[0].Data.(string)] = lines
		}
	}
	return m
}

// compile runs the full pipeline on src (sans the API header, to keep these
// tests self-contained) and returns the reduced assembly text.
func compile(t *testing.T, src string) string {
	t.Helper()
	root, err := frontend.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := ir.ResolveTree(root); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := ir.EvaluateEnums(root); err != nil {
		t.Fatalf("enums: %v", err)
	}
	if err := ir.EvaluateGlobalInits(root); err != nil {
		t.Fatalf("global inits: %v", err)
	}
	if err := ir.ValidateTree(root); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := ir.CheckRecursion(root); err != nil {
		t.Fatalf("recursion check: %v", err)
	}
	if _, err := ir.AllocateTree(root); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	instrs, _, err := backend.GenerateAssembler(root, util.Options{}, funcSourceFor(root, src))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	instrs = backend.Reduce(instrs)
	return backend.Emit(instrs)
}

// compileInstrs is like compile, but returns the reduced Instr stream
// itself rather than its textual rendering, so a test can assert on the
// actual operand sequence instead of substring-matching opcode mnemonics.
func compileInstrs(t *testing.T, src string) []backend.Instr {
	t.Helper()
	root, err := frontend.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := ir.ResolveTree(root); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := ir.EvaluateEnums(root); err != nil {
		t.Fatalf("enums: %v", err)
	}
	if err := ir.EvaluateGlobalInits(root); err != nil {
		t.Fatalf("global inits: %v", err)
	}
	if err := ir.ValidateTree(root); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := ir.CheckRecursion(root); err != nil {
		t.Fatalf("recursion check: %v", err)
	}
	if _, err := ir.AllocateTree(root); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	instrs, _, err := backend.GenerateAssembler(root, util.Options{}, funcSourceFor(root, src))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return backend.Reduce(instrs)
}

// evalFrom is a tiny interpreter over a reduced Instr stream, just capable
// enough to execute the straight-line and structured-control-flow programs
// these tests generate: one accumulator, the scratch/global variable slots
// named vN, tag-indexed jumps, and a CALL/RET stack.
func evalFrom(t *testing.T, instrs []backend.Instr, startPC int) (a int, params map[string]int) {
	t.Helper()
	tagPos := make(map[string]int)
	for i, in := range instrs {
		if in.Kind == backend.KindTag {
			tagPos[in.Name] = i
		}
	}
	pc := startPC

	vars := make(map[string]int)
	params = make(map[string]int) // Keyed by decimal index, e.g. "3" for p3.
	var callStack []int

	val := func(operand string) int {
		if n, err := strconv.Atoi(operand); err == nil {
			return n
		}
		if strings.HasPrefix(operand, "p") {
			return params[operand[1:]]
		}
		return vars[operand]
	}

	steps := 0
	for {
		steps++
		if steps > 100000 {
			t.Fatalf("evalFrom: possible infinite loop")
		}
		if pc >= len(instrs) {
			return a, params
		}
		in := instrs[pc]
		switch in.Kind {
		case backend.KindTag, backend.KindComment:
			pc++
			continue
		}
		switch in.Op {
		case "LDA":
			a = val(in.Operands[0])
		case "STA":
			vars[in.Operands[0]] = a
		case "LDAP":
			a = params[in.Operands[0]]
		case "STAP":
			params[in.Operands[0]] = a
		case "ADD":
			a += val(in.Operands[0])
		case "SUB":
			a -= val(in.Operands[0])
		case "MUL":
			a *= val(in.Operands[0])
		case "DIV":
			a /= val(in.Operands[0])
		case "MOD":
			a %= val(in.Operands[0])
		case "AND":
			a &= val(in.Operands[0])
		case "OR":
			a |= val(in.Operands[0])
		case "XOR":
			a ^= val(in.Operands[0])
		case "SHL":
			a <<= uint(val(in.Operands[0]))
		case "SHR":
			a >>= uint(val(in.Operands[0]))
		case "NEG":
			a = -a
		case "JMP":
			pc = tagPos[in.Operands[0]]
			continue
		case "JZ":
			if a == 0 {
				pc = tagPos[in.Operands[0]]
				continue
			}
		case "JNZ":
			if a != 0 {
				pc = tagPos[in.Operands[0]]
				continue
			}
		case "CALL":
			callStack = append(callStack, pc+1)
			pc = tagPos[in.Operands[0]]
			continue
		case "RET":
			if len(callStack) == 0 {
				return a, params
			}
			pc = callStack[len(callStack)-1]
			callStack = callStack[:len(callStack)-1]
			continue
		case "HALT":
			return a, params
		default:
			t.Fatalf("evalFrom: unsupported opcode %q", in.Op)
		}
		pc++
	}
}

// compileExpectError runs the whole pipeline on src and returns the first
// error any stage reports, or nil if every stage succeeds.
func compileExpectError(t *testing.T, src string) error {
	t.Helper()
	root, err := frontend.Parse(src)
	if err != nil {
		return err
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
	if _, err := ir.AllocateTree(root); err != nil {
		return err
	}
	_, _, err = backend.GenerateAssembler(root, util.Options{}, funcSourceFor(root, src))
	return err
}

// runProgram executes instrs from the very first instruction, exactly as
// the real VM would boot a loaded program: any global initialiser
// preamble runs, then CALL "main", then HALT returns the accumulator. params
// holds the final value of every pN slot the program wrote, keyed by
// decimal index ("0" for p0), for asserting against §8-style scenarios.
func runProgram(t *testing.T, instrs []backend.Instr) (a int, params map[string]int) {
	t.Helper()
	return evalFrom(t, instrs, 0)
}

// evalFunc executes instrs starting at the named tag, bypassing any global
// initialiser preamble — useful when a test only cares about a function's
// own computation.
func evalFunc(t *testing.T, instrs []backend.Instr, entryTag string) int {
	t.Helper()
	for i, in := range instrs {
		if in.Kind == backend.KindTag && in.Name == entryTag {
			a, _ := evalFrom(t, instrs, i)
			return a
		}
	}
	t.Fatalf("entry tag %q not found", entryTag)
	return 0
}

// TestArithmeticExpression exercises scenario 1: p0=3+5, p1=13*11, p2=73%20
// must come out as p0=8, p1=143, p2=13 (not, say, an operand-order bug that
// would give 73%20 as 20%73).
func TestArithmeticExpression(t *testing.T) {
	src := `
extern int p0;
extern int p1;
extern int p2;
int main() {
	p0 = 3 + 5;
	p1 = 13 * 11;
	p2 = 73 % 20;
	return 0;
}
`
	instrs := compileInstrs(t, src)
	_, params := runProgram(t, instrs)
	want := map[string]int{"0": 8, "1": 143, "2": 13}
	for k, v := range want {
		if params[k] != v {
			t.Errorf("p%s = %d, want %d", k, params[k], v)
		}
	}
}

func TestShortCircuitEvaluation(t *testing.T) {
	src := `
int f(int a, int b) {
	return a && b || !a;
}
int main() {
	return f(1, 0);
}
`
	out := compile(t, src)
	if !strings.Contains(out, "_BOOL") {
		t.Fatalf("expected _BOOL helper in short-circuit output, got:\n%s", out)
	}
	if !strings.Contains(out, "_NOTL") {
		t.Fatalf("expected _NOTL helper in output, got:\n%s", out)
	}

	instrs := compileInstrs(t, src)
	if a, _ := runProgram(t, instrs); a != 0 {
		t.Errorf("f(1, 0) = %d, want 0 (1 && 0 || !1 == 0)", a)
	}
}

func TestComparisonOperators(t *testing.T) {
	src := `
int main() {
	int a;
	int b;
	a = 1;
	b = 2;
	if (a < b && a != b) {
		return 1;
	}
	return 0;
}
`
	out := compile(t, src)
	for _, want := range []string{"_LT", "_NE"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected helper %s in output, got:\n%s", want, out)
		}
	}

	instrs := compileInstrs(t, src)
	if a, _ := runProgram(t, instrs); a != 1 {
		t.Errorf("1 < 2 && 1 != 2 evaluated to %d, want 1", a)
	}
}

// TestIncrementDecrement exercises scenario 3: `int a=10; p0=a++; p1=a;
// p2=++a;` must come out as p0=10, p1=11, p2=12 — a post-increment must
// yield the PRE-increment value while still advancing a, and a
// pre-increment must advance a before yielding it.
func TestIncrementDecrement(t *testing.T) {
	src := `
extern int p0;
extern int p1;
extern int p2;
int main() {
	int a;
	a = 10;
	p0 = a++;
	p1 = a;
	p2 = ++a;
	return 0;
}
`
	instrs := compileInstrs(t, src)
	_, params := runProgram(t, instrs)
	want := map[string]int{"0": 10, "1": 11, "2": 12}
	for k, v := range want {
		if params[k] != v {
			t.Errorf("p%s = %d, want %d", k, params[k], v)
		}
	}
}

func TestLoopBreakContinue(t *testing.T) {
	src := `
int main() {
	int i;
	int sum;
	i = 0;
	sum = 0;
	while (i < 10) {
		i = i + 1;
		if (i == 5) {
			continue;
		}
		if (i == 8) {
			break;
		}
		sum = sum + i;
	}
	return sum;
}
`
	out := compile(t, src)
	if !strings.Contains(out, "JMP") {
		t.Fatalf("expected break/continue to lower to JMP, got:\n%s", out)
	}

	instrs := compileInstrs(t, src)
	if a, _ := runProgram(t, instrs); a != 23 {
		t.Errorf("loop with continue at i==5 and break at i==8 returned %d, want 23", a)
	}
}

// TestScopeShadowing exercises scenario 5: four nested blocks each declare
// their own `a`, shadowing the enclosing one. Each of the three outer levels
// records its own a twice on entry and once more after the nested block it
// encloses exits (proving the shadowed outer a is restored, not clobbered);
// the innermost level records its a once, giving
// p0..p9 = 1,1,2,2,3,3,4,3,2,1.
func TestScopeShadowing(t *testing.T) {
	src := `
extern int p0;
extern int p1;
extern int p2;
extern int p3;
extern int p4;
extern int p5;
extern int p6;
extern int p7;
extern int p8;
extern int p9;
int main() {
	int a;
	a = 1;
	p0 = a;
	p1 = a;
	{
		int a;
		a = 2;
		p2 = a;
		p3 = a;
		{
			int a;
			a = 3;
			p4 = a;
			p5 = a;
			{
				int a;
				a = 4;
				p6 = a;
			}
			p7 = a;
		}
		p8 = a;
	}
	p9 = a;
	return 0;
}
`
	instrs := compileInstrs(t, src)
	_, params := runProgram(t, instrs)
	want := []int{1, 1, 2, 2, 3, 3, 4, 3, 2, 1}
	for i, v := range want {
		k := strconv.Itoa(i)
		if params[k] != v {
			t.Errorf("p%d = %d, want %d", i, params[k], v)
		}
	}
}

func TestCallGraph(t *testing.T) {
	src := `
int add(int a, int b) {
	return a + b;
}
int main() {
	return add(1, 2);
}
`
	out := compile(t, src)
	if !strings.Contains(out, "CALL\tF_add") {
		t.Fatalf("expected call to F_add, got:\n%s", out)
	}

	instrs := compileInstrs(t, src)
	if a, _ := runProgram(t, instrs); a != 3 {
		t.Errorf("add(1, 2) returned %d, want 3", a)
	}
}

func TestRecursionIsRejected(t *testing.T) {
	src := `
int fact(int n) {
	return n * fact(n - 1);
}
int main() {
	return fact(5);
}
`
	if err := compileExpectError(t, src); err == nil {
		t.Fatal("expected recursion to be rejected")
	}
}

// TestInlineAsmRoundTrip checks that inline asm reaches the reduced output.
// The JZ keeps custom_label referenced, so the reducer keeps the tag, and
// the tag keeps LDA 42 from being folded into the return's LDA 0.
func TestInlineAsmRoundTrip(t *testing.T) {
	src := `
int main() {
	asm("LDA", 42);
	asm("Tag", "custom_label");
	asm("JZ", "custom_label");
	return 0;
}
`
	out := compile(t, src)
	if !strings.Contains(out, "LDA\t42") {
		t.Fatalf("expected inline asm to pass through, got:\n%s", out)
	}
	if !strings.Contains(out, "tag custom_label") {
		t.Fatalf("expected inline asm tag to pass through, got:\n%s", out)
	}
}

func TestMissingEntryPoint(t *testing.T) {
	src := `
int add(int a, int b) {
	return a + b;
}
`
	if err := compileExpectError(t, src); err == nil {
		t.Fatal("expected missing main entry point to be rejected")
	}
}

func TestGlobalInitializers(t *testing.T) {
	src := `
int counter = 41;
int main() {
	counter = counter + 1;
	return counter;
}
`
	out := compile(t, src)
	if !strings.Contains(out, "LDA\t41") {
		t.Fatalf("expected global initializer constant in output, got:\n%s", out)
	}

	instrs := compileInstrs(t, src)
	if a, _ := runProgram(t, instrs); a != 42 {
		t.Errorf("counter initialised to 41 then incremented returned %d, want 42", a)
	}
}
