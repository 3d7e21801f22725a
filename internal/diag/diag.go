// Package diag implements the error taxonomy and accumulating reporter used
// by the front end and compiler, plus the structured runtime error shape the
// VM returns.
package diag

import (
	"fmt"

	"github.com/go-stack/stack"

	"github.com/jordyorel/orus-lang-sub001/internal/token"
)

// Kind classifies a diagnostic by the stage that raised it.
type Kind int

const (
	Parse Kind = iota
	Type
	Compile
	Value
	Name
	IO
	Internal
)

var kindNames = [...]string{
	Parse:    "parse",
	Type:     "type",
	Compile:  "compile",
	Value:    "value",
	Name:     "name",
	IO:       "io",
	Internal: "internal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Error is a single diagnostic produced during lexing, parsing, checking, or
// compiling.
type Error struct {
	Kind     Kind
	Message  string
	Location token.Position

	// Stack is the call-site capture for Internal errors, populated with
	// go-stack/stack so a bug report carries the offending frame without a
	// debugger attached.
	Stack string
}

func (e *Error) Error() string {
	if e.Location.File != "" || e.Location.Line != 0 {
		return fmt.Sprintf("%s: %s: %s", e.Location, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Reporter accumulates diagnostics across an entire compile, rather than
// aborting at the first error — the same shape the teacher's bytecode
// verifier uses to collect every safety violation in one pass.
type Reporter struct {
	errors []*Error
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Add records a new diagnostic. Internal-kind errors additionally capture
// the call site with go-stack/stack, since they represent a bug in this
// module rather than a mistake in the guest program the other kinds report.
func (r *Reporter) Add(kind Kind, pos token.Position, format string, args ...interface{}) *Error {
	e := &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Location: pos}
	if kind == Internal {
		e.Stack = fmt.Sprintf("%+v", stack.Trace().TrimRuntime())
	}
	r.errors = append(r.errors, e)
	return e
}

// Errors returns every diagnostic recorded so far, in recording order.
func (r *Reporter) Errors() []*Error {
	return r.errors
}

// Failed reports whether any diagnostic has been recorded.
func (r *Reporter) Failed() bool {
	return len(r.errors) > 0
}

// RuntimeError is the structured error the VM's dispatch loop (C7) returns on
// a RUNTIME_ERROR result, exactly as spec.md §7 describes: a Kind, a message,
// and the source location of the instruction that faulted.
type RuntimeError struct {
	Kind     Kind
	Message  string
	Location token.Position
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Location, e.Kind, e.Message)
}
