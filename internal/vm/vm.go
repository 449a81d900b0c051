package vm

import (
	"fmt"
	"math"

	"github.com/bendu-lang/bendu/internal/bytecode"
)

// Initial/growth sizes for the operand stack, named after the
// teacher's internal/vm/vm.go constants of the same shape (grounded
// there, resized here for Bendu's much smaller working set).
const (
	InitialStackSize = 1024
	MaxStackSize      = 1 << 20
	MaxCallDepth      = 4096
)

// BuiltinFn is one entry of the Builtins Dispatcher (spec §4.6): it
// receives the VM by reference, pops its own arguments, and pushes its
// result. Defined here (rather than in package builtins) so that
// package builtins can depend on vm without creating an import cycle;
// package vm never imports builtins (spec §2's leaves-first order:
// "Builtins <- VM").
type BuiltinFn func(vm *VM) error

// VM is the stack-based interpreter of spec §4.5.
type VM struct {
	stack []Value
	sp    int

	// calls is the flat call stack: one entry per in-flight invocation,
	// each carrying both its Frame (a GC root) and the return address
	// of the run() loop that keeps executing through nested CALLs
	// without ever recursing at the Go level (spec §4.5's "classic
	// linear control stack").
	calls []callRecord

	currentPkg   *Package
	currentFrame *Object // the Frame currently addressed by LOAD/STORE depth 0
	ip           int

	heap *Heap

	packages     map[string]*Package
	packageOrder []*Package
	Resolver     Resolver

	Builtins []BuiltinFn

	Stdout func(string)
}

type callRecord struct {
	frame  *Object
	isRoot bool // true for the sentinel pushed by runInit: its RET stops run()
	retPkg *Package
	retFrame *Object
	retIP    int
}

func New() *VM {
	return &VM{
		stack:    make([]Value, InitialStackSize),
		heap:     NewHeap(),
		packages: map[string]*Package{},
		Stdout:   func(s string) { fmt.Print(s) },
	}
}

func (vm *VM) Heap() *Heap { return vm.heap }

func (vm *VM) push(v Value) {
	if vm.sp >= len(vm.stack) {
		if vm.sp >= MaxStackSize {
			panic(&RuntimeError{Message: "stack overflow"})
		}
		grown := make([]Value, len(vm.stack)*2)
		copy(grown, vm.stack)
		vm.stack = grown
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(depth int) Value { return vm.stack[vm.sp-1-depth] }

// frameAt walks `depth` enclosing-frame links from the current frame,
// implementing LOAD/STORE's frame resolution (spec §4.5).
func (vm *VM) frameAt(depth uint32) (*Object, error) {
	f := vm.currentFrame
	for i := uint32(0); i < depth; i++ {
		if f == nil {
			return nil, &InternalError{Message: "frame depth exceeds enclosing chain"}
		}
		f = f.FrameParent
	}
	if f == nil {
		return nil, &InternalError{Message: "nil frame at LOAD/STORE"}
	}
	return f, nil
}

func ensureSlot(frame *Object, idx int) {
	if idx >= len(frame.Slots) {
		grown := make([]Value, idx+1)
		copy(grown, frame.Slots)
		frame.Slots = grown
	}
}

// runInit executes pkg's instruction stream from offset 0 up to and
// including the first RET, which is how a package's public bindings
// are initialized on first load (spec §4.5). It runs with its own
// call-stack entry so RET at the outermost level stops execution
// instead of underflowing into a caller.
func (vm *VM) runInit(pkg *Package) error {
	savedPkg, savedFrame, savedIP := vm.currentPkg, vm.currentFrame, vm.ip
	vm.currentPkg = pkg
	vm.currentFrame = pkg.Frame
	vm.ip = 0
	vm.calls = append(vm.calls, callRecord{frame: pkg.Frame, isRoot: true})
	defer func() {
		if n := len(vm.calls); n > 0 {
			vm.calls = vm.calls[:n-1]
		}
		vm.currentPkg, vm.currentFrame, vm.ip = savedPkg, savedFrame, savedIP
	}()
	return vm.run()
}

// run executes the current package's instruction stream starting at
// vm.ip until a RET pops the outermost call-stack entry pushed by this
// invocation of run, or a fatal error occurs.
func (vm *VM) run() error {
	baseDepth := len(vm.calls)
	for {
		if vm.ip >= len(vm.currentPkg.Code) {
			return nil
		}
		if len(vm.calls) >= MaxCallDepth {
			return &RuntimeError{Message: "call stack overflow"}
		}
		op := bytecode.Opcode(vm.currentPkg.Code[vm.ip])
		vm.ip++
		done, err := vm.step(op)
		if err != nil {
			return err
		}
		if done && len(vm.calls) < baseDepth {
			return nil
		}
	}
}

func (vm *VM) readU32() uint32 {
	b := vm.currentPkg.Code[vm.ip : vm.ip+4]
	vm.ip += 4
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func (vm *VM) readI32() int32 { return int32(vm.readU32()) }

func (vm *VM) readF32() float32 {
	bits := vm.readU32()
	return math.Float32frombits(bits)
}

func (vm *VM) readU8() byte {
	b := vm.currentPkg.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readString() string {
	n := vm.readU32()
	s := string(vm.currentPkg.Code[vm.ip : vm.ip+int(n)])
	vm.ip += int(n)
	return s
}

// RunExpression is the `bendu test`/REPL entry point: it loads pkg (if
// not already), which runs pkg's code up to its first RET, and returns
// whatever value remains on top of the stack (Unit if the stack is
// empty). Nothing past that RET is executed, so the caller arranges for
// pkg's code to leave the expression's value on the stack before it.
func (vm *VM) RunExpression(pkg *Package) (Value, error) {
	if err := vm.Load(pkg); err != nil {
		return Value{}, err
	}
	vm.currentPkg = pkg
	vm.currentFrame = pkg.Frame
	if vm.sp == 0 {
		return UnitVal(), nil
	}
	return vm.peek(0), nil
}
