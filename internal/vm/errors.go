package vm

import "fmt"

// RuntimeError is spec §7's Runtime error taxonomy entry: every one of
// these is fatal per spec §5 ("print a diagnostic to the error stream
// and terminate the process with exit code 1"), but the VM itself only
// returns the error — the driver owns process termination so that
// embedding contexts (tests, `bendu test`) can observe it instead of
// the process dying.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

func errIndexOutOfBounds(index, length int) error {
	return &RuntimeError{Message: fmt.Sprintf("Index out of bounds: index: %d, length: %d", index, length)}
}

func errDivisionByZero() error {
	return &RuntimeError{Message: "Division by zero"}
}

func errNonExhaustiveMatch() error {
	return &RuntimeError{Message: "Non-exhaustive pattern match"}
}

func errBadMagic() error {
	return &RuntimeError{Message: "Invalid bytecode magic"}
}

func errUnknownBuiltin(id uint32) error {
	return &RuntimeError{Message: fmt.Sprintf("Unknown builtin id: %d", id)}
}

// InternalError marks a compiler-invariant violation encountered at run
// time (spec §7's Internal taxonomy entry) — e.g. an opcode with a
// payload shape the interpreter does not recognize. Distinct from
// RuntimeError so the driver can label it "internal error" rather than
// attribute it to the Bendu program being run.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string { return "internal error: " + e.Message }
