package vm

import "fmt"

// PopArg, Push and StringOf are the small public surface a
// internal/builtins.BuiltinFn needs to pop its arguments and push its
// result, keeping package vm ignorant of package builtins (spec §2's
// "Builtins <- VM" dependency order: builtins depends on vm, never the
// reverse).

// PopArg pops one argument off the operand stack, in the same
// left-to-right-pushed order CALL_BUILTIN's caller used (spec §5:
// "expression evaluation is strict left-to-right").
func (vm *VM) PopArg() (Value, error) {
	if vm.sp == 0 {
		return Value{}, &InternalError{Message: "builtin popped from empty stack"}
	}
	return vm.pop(), nil
}

// Push installs a builtin's result on top of the operand stack.
func (vm *VM) Push(v Value) { vm.push(v) }

// StringOf unwraps a heap String Value's interned content.
func (vm *VM) StringOf(v Value) (string, error) {
	if !v.IsHeap() || v.Obj.Kind != ObjString {
		return "", &InternalError{Message: fmt.Sprintf("expected String argument, got %s", v.String())}
	}
	return v.Obj.Str.Value, nil
}

// optionNoneTag / optionSomeTag are Option[a]'s constructor tags, the
// shape `type Option[a] = None | Some[a]` compiles to (spec §3: 0-based
// declaration order becomes the Custom object's constructor-id).
const (
	optionNoneTag = 0
	optionSomeTag = 1
)

// NewOption builds the runtime representation of `None` (value == nil)
// or `Some(*value)`, used by builtins whose surface signature returns
// Option[T] (e.g. string.at).
func (vm *VM) NewOption(value *Value) Value {
	if value == nil {
		return HeapVal(vm.heap.NewCustom("None", optionNoneTag, nil))
	}
	return HeapVal(vm.heap.NewCustom("Some", optionSomeTag, []Value{*value}))
}
