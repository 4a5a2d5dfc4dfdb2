package ir

import (
	"fmt"

	perr "github.com/pkg/errors"
)

// ErrorKind classifies a compile error per the diagnostics contract. All
// kinds carry a source location when one is available and abort compilation
// on the first occurrence; resource-limit overruns (variables, tags) are
// reported separately as warnings and never become one of these.
type ErrorKind int

const (
	SyntaxUnsupported ErrorKind = iota // Construct outside the supported subset.
	ScopeError                         // Redeclaration or unresolved identifier.
	TypeError                          // void in value context, arity mismatch, non-int type.
	RecursionError                     // Cycle in the call graph without an inline-asm escape.
	ScratchExhaustion                  // Expression nesting exceeds available scratch slots.
	TagCollision                       // Duplicate tag introduced by inline asm.
	AsmError                           // Malformed asm() statement.
	InternalError                      // Compiler invariant violated; always carries a stack trace.
)

var ekName = [...]string{
	"unsupported syntax",
	"scope error",
	"type error",
	"recursion error",
	"scratch exhaustion",
	"tag collision",
	"asm error",
	"internal error",
}

func (k ErrorKind) String() string {
	if int(k) < 0 || int(k) >= len(ekName) {
		return "error"
	}
	return ekName[k]
}

// CompileError is a single diagnostic with a kind, source location and
// message. It wraps github.com/pkg/errors so that -d can print a full stack
// trace at the point the error was raised, same as the rest of the pipeline.
type CompileError struct {
	Kind ErrorKind
	Line int
	Pos  int
	msg  string
	err  error // Underlying stack-carrying error from github.com/pkg/errors.
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d:%d: %s", e.Kind, e.Line, e.Pos, e.msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Format implements fmt.Formatter so that "%+v" (used by -d) prints the
// stack trace captured when the error was raised.
func (e *CompileError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		_, _ = fmt.Fprintf(s, "%s\n%+v", e.Error(), e.err)
		return
	}
	_, _ = fmt.Fprint(s, e.Error())
}

// Unwrap exposes the underlying stack-carrying error to errors.As/errors.Is.
func (e *CompileError) Unwrap() error {
	return e.err
}

// NewError constructs a CompileError of kind k at line:pos, capturing a
// stack trace via github.com/pkg/errors at the call site.
func NewError(kind ErrorKind, line, pos int, format string, args ...interface{}) *CompileError {
	msg := fmt.Sprintf(format, args...)
	return &CompileError{
		Kind: kind,
		Line: line,
		Pos:  pos,
		msg:  msg,
		err:  perr.New(msg),
	}
}

// NewErrorAt is a convenience constructor that takes the line/pos directly
// from a Node.
func NewErrorAt(kind ErrorKind, n *Node, format string, args ...interface{}) *CompileError {
	if n == nil {
		return NewError(kind, 0, 0, format, args...)
	}
	return NewError(kind, n.Line, n.Pos, format, args...)
}
