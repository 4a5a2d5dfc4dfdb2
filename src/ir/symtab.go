package ir

import "fmt"

// SymbolKind differentiates the kinds of declaration a Symbol can bind to.
type SymbolKind int

const (
	SymVar SymbolKind = iota
	SymParam
	SymFunc
	SymEnumConst
)

var skName = [...]string{"variable", "parameter", "function", "enum constant"}

func (k SymbolKind) String() string {
	if int(k) < 0 || int(k) >= len(skName) {
		return "unknown"
	}
	return skName[k]
}

// Symbol is a single resolved declaration: a global or local variable, a
// function, a parameter bound to a VM pN slot, or an enum constant. The C
// subset has exactly one data type (int), so unlike the teacher's Symbol
// there is no DataTyp field to carry float/integer compatibility checks.
type Symbol struct {
	Name    string
	Kind    SymbolKind
	Node    *Node  // Declaring node (FUNCTION_DEFINITION, PARAMETER, etc.).
	Line    int
	Pos     int

	// Variable/parameter storage location, filled in by the allocator.
	Slot       int  // v-index for SymVar, p-index for SymParam.
	IsGlobal   bool // True if this SymVar is a global (pinned slot, scope-exit rewind never reclaims it).
	ExternVar  bool // True if an extern declaration bound this symbol (Kind SymParam) directly to a pN parameter.
	ParamIndex int  // Positional index for a function parameter (SymVar with Node.Typ == PARAMETER); left 0 on other symbols.

	// Function-specific.
	Nparams int
	Locals  *SymTab // The function's top-level block scope.

	// VM API function (an extern function prototype from the API header):
	// lowers directly to Opcode instead of CALL tag_f (§4.1).
	IsAPI        bool
	Opcode       string
	YieldsResult bool // True if calling Opcode leaves a result in A (the function's return type is int).

	// Enum-constant-specific.
	EnumValue int

	// Global-variable-specific: the folded value of a constant initialiser,
	// if any (§3 Data Model requires a global's initialiser be
	// constant-foldable; see EvaluateGlobalInits).
	HasInit   bool
	InitValue int
}

// SymTab is a single lexical scope: a flat map of names declared directly in
// it, plus a link to the enclosing scope for chained lookup. Function and
// block scopes each get their own SymTab; the single Global SymTab sits at
// the root of every chain.
type SymTab struct {
	Parent *SymTab
	Depth  int // 0 for Global, 1 for a function's top scope, and so on.
	table  map[string]*Symbol
	order  []string // Declaration order, for deterministic allocation and diagnostics.
}

// Global is the translation unit's file-scope symbol table: global
// variables, function declarations and enum constants all live here.
var Global = NewSymTab(nil)

// NewSymTab returns an empty scope chained to parent. Passing a nil parent
// creates a new root scope (used only for Global).
func NewSymTab(parent *SymTab) *SymTab {
	depth := 0
	if parent != nil {
		depth = parent.Depth + 1
	}
	return &SymTab{Parent: parent, Depth: depth, table: make(map[string]*Symbol)}
}

// Insert adds s to the scope under s.Name. It returns false without
// modifying the table if the name is already declared directly in this
// scope (shadowing an outer scope's declaration is always allowed;
// redeclaring within the same scope is not, §3 ScopeError).
func (s *SymTab) Insert(sym *Symbol) bool {
	if _, ok := s.table[sym.Name]; ok {
		return false
	}
	s.table[sym.Name] = sym
	s.order = append(s.order, sym.Name)
	return true
}

// Get looks up name directly in this scope, without consulting Parent.
func (s *SymTab) Get(name string) (*Symbol, bool) {
	sym, ok := s.table[name]
	return sym, ok
}

// Resolve looks up name in this scope and, failing that, walks up through
// Parent until Global is exhausted.
func (s *SymTab) Resolve(name string) (*Symbol, bool) {
	for t := s; t != nil; t = t.Parent {
		if sym, ok := t.table[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// Order returns the names declared directly in this scope, in declaration
// order.
func (s *SymTab) Order() []string {
	return s.order
}

func (s *SymTab) String() string {
	return fmt.Sprintf("SymTab(depth=%d, n=%d)", s.Depth, len(s.table))
}
