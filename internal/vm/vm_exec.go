package vm

import (
	"strings"

	"github.com/bendu-lang/bendu/internal/bytecode"
)

// step executes one instruction (opcode already consumed) and reports
// whether it was a RET — the run loop uses that to detect when an
// invocation it pushed has unwound.
func (vm *VM) step(op bytecode.Opcode) (bool, error) {
	switch op {
	case bytecode.PUSH_I32_LITERAL:
		vm.push(IntVal(vm.readI32()))
	case bytecode.PUSH_F32_LITERAL:
		vm.push(HeapVal(vm.heap.NewFloat(vm.readF32())))
	case bytecode.PUSH_U8_LITERAL:
		vm.push(CharVal(vm.readU8()))
	case bytecode.PUSH_STRING_LITERAL:
		vm.push(HeapVal(vm.heap.NewString(vm.readString())))
	case bytecode.PUSH_UNIT_LITERAL:
		vm.push(UnitVal())
	case bytecode.PUSH_BOOL_TRUE:
		vm.push(BoolVal(true))
	case bytecode.PUSH_BOOL_FALSE:
		vm.push(BoolVal(false))

	case bytecode.ADD_I32:
		b, a := vm.pop(), vm.pop()
		vm.push(IntVal(a.AsInt() + b.AsInt()))
	case bytecode.SUB_I32:
		b, a := vm.pop(), vm.pop()
		vm.push(IntVal(a.AsInt() - b.AsInt()))
	case bytecode.MUL_I32:
		b, a := vm.pop(), vm.pop()
		vm.push(IntVal(a.AsInt() * b.AsInt()))
	case bytecode.DIV_I32:
		b, a := vm.pop(), vm.pop()
		if b.AsInt() == 0 {
			return false, errDivisionByZero()
		}
		vm.push(IntVal(a.AsInt() / b.AsInt()))
	case bytecode.MOD_I32:
		b, a := vm.pop(), vm.pop()
		if b.AsInt() == 0 {
			return false, errDivisionByZero()
		}
		vm.push(IntVal(a.AsInt() % b.AsInt()))
	case bytecode.ADD_F32:
		b, a := vm.pop(), vm.pop()
		vm.push(HeapVal(vm.heap.NewFloat(a.Obj.Float + b.Obj.Float)))
	case bytecode.SUB_F32:
		b, a := vm.pop(), vm.pop()
		vm.push(HeapVal(vm.heap.NewFloat(a.Obj.Float - b.Obj.Float)))
	case bytecode.MUL_F32:
		b, a := vm.pop(), vm.pop()
		vm.push(HeapVal(vm.heap.NewFloat(a.Obj.Float * b.Obj.Float)))
	case bytecode.DIV_F32:
		b, a := vm.pop(), vm.pop()
		if b.Obj.Float == 0 {
			return false, errDivisionByZero()
		}
		vm.push(HeapVal(vm.heap.NewFloat(a.Obj.Float / b.Obj.Float)))
	case bytecode.ADD_STRING:
		b, a := vm.pop(), vm.pop()
		// Refcount discipline (spec §5): concatenation decrements both
		// scratch operands and increments the freshly interned result.
		result := vm.heap.NewString(a.Obj.Str.Value + b.Obj.Str.Value)
		vm.heap.strings.DecRef(a.Obj.Str)
		vm.heap.strings.DecRef(b.Obj.Str)
		vm.push(HeapVal(result))

	case bytecode.EQ_I32:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.AsInt() == b.AsInt()))
	case bytecode.EQ_F32:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.Obj.Float == b.Obj.Float))
	case bytecode.EQ_STRING:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.Obj.Str.Value == b.Obj.Str.Value))
	case bytecode.EQ_CHAR:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.AsChar() == b.AsChar()))
	case bytecode.EQ_BOOL:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.AsBool() == b.AsBool()))
	case bytecode.EQ:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.Equal(b)))
	case bytecode.NEQ:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(!a.Equal(b)))
	case bytecode.LT_I32:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.AsInt() < b.AsInt()))
	case bytecode.LT_F32:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.Obj.Float < b.Obj.Float))
	case bytecode.LT_STRING:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(strings.Compare(a.Obj.Str.Value, b.Obj.Str.Value) < 0))
	case bytecode.GT_I32:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.AsInt() > b.AsInt()))
	case bytecode.GT_F32:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.Obj.Float > b.Obj.Float))
	case bytecode.LE_I32:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.AsInt() <= b.AsInt()))
	case bytecode.LE_F32:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.Obj.Float <= b.Obj.Float))
	case bytecode.GE_I32:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.AsInt() >= b.AsInt()))
	case bytecode.GE_F32:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.Obj.Float >= b.Obj.Float))

	case bytecode.NOT_BOOL:
		a := vm.pop()
		vm.push(BoolVal(!a.AsBool()))
	case bytecode.AND_BOOL:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.AsBool() && b.AsBool()))
	case bytecode.OR_BOOL:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolVal(a.AsBool() || b.AsBool()))

	case bytecode.JMP_DUP_TRUE:
		target := vm.readU32()
		if vm.peek(0).AsBool() {
			vm.ip = int(target)
		}
	case bytecode.JMP_DUP_FALSE:
		target := vm.readU32()
		if !vm.peek(0).AsBool() {
			vm.ip = int(target)
		}
	case bytecode.JMP:
		vm.ip = int(vm.readU32())
	case bytecode.JMP_FALSE:
		target := vm.readU32()
		if !vm.pop().AsBool() {
			vm.ip = int(target)
		}
	case bytecode.RET:
		return true, vm.execReturn()

	case bytecode.LOAD:
		depth, idx := vm.readU32(), vm.readU32()
		f, err := vm.frameAt(depth)
		if err != nil {
			return false, err
		}
		vm.push(f.Slots[idx])
	case bytecode.STORE:
		depth, idx := vm.readU32(), vm.readU32()
		f, err := vm.frameAt(depth)
		if err != nil {
			return false, err
		}
		ensureSlot(f, int(idx))
		f.Slots[idx] = vm.pop()
	case bytecode.LOAD_PACKAGE:
		pkgIdx, idx := vm.readU32(), vm.readU32()
		target, err := vm.currentPkg.importedPackage(pkgIdx)
		if err != nil {
			return false, err
		}
		if err := vm.Load(target); err != nil {
			return false, err
		}
		vm.push(target.Frame.Slots[idx])
	case bytecode.STORE_PACKAGE:
		pkgIdx, idx := vm.readU32(), vm.readU32()
		target, err := vm.currentPkg.importedPackage(pkgIdx)
		if err != nil {
			return false, err
		}
		if err := vm.Load(target); err != nil {
			return false, err
		}
		ensureSlot(target.Frame, int(idx))
		target.Frame.Slots[idx] = vm.pop()

	case bytecode.CALL:
		offset, arity, depth := vm.readU32(), vm.readU32(), vm.readU32()
		enclosing, err := vm.frameAt(depth)
		if err != nil {
			return false, err
		}
		vm.doCall(vm.currentPkg, enclosing, int(offset), int(arity))
	case bytecode.CALL_CLOSURE:
		arity := vm.readU32()
		closureVal := vm.pop()
		if !closureVal.IsHeap() || closureVal.Obj.Kind != ObjClosure {
			return false, &InternalError{Message: "CALL_CLOSURE on non-closure value"}
		}
		c := closureVal.Obj
		pkg := vm.currentPkg
		if c.ClosurePkg != 0 {
			var err error
			pkg, err = vm.currentPkg.importedPackage(uint32(c.ClosurePkg - 1))
			if err != nil {
				return false, err
			}
		}
		vm.doCall(pkg, c.ClosureFrame, int(c.ClosureEntry), int(arity))
	case bytecode.CALL_PACKAGE:
		pkgIdx, offset, arity := vm.readU32(), vm.readU32(), vm.readU32()
		target, err := vm.currentPkg.importedPackage(pkgIdx)
		if err != nil {
			return false, err
		}
		if err := vm.Load(target); err != nil {
			return false, err
		}
		vm.doCall(target, target.Frame, int(offset), int(arity))
	case bytecode.CALL_BUILTIN:
		id := vm.readU32()
		if int(id) >= len(vm.Builtins) || vm.Builtins[id] == nil {
			return false, errUnknownBuiltin(id)
		}
		if err := vm.Builtins[id](vm); err != nil {
			return false, err
		}

	case bytecode.PUSH_TUPLE:
		arity := int(vm.readU32())
		items := make([]Value, arity)
		for i := arity - 1; i >= 0; i-- {
			items[i] = vm.pop()
		}
		vm.push(HeapVal(vm.heap.NewTuple(items)))
	case bytecode.PUSH_TUPLE_COMPONENT:
		// Consuming: callers that need the tuple to survive past one
		// extraction (e.g. a tuple pattern testing several components)
		// DUP it first.
		idx := vm.readU32()
		t := vm.pop()
		vm.push(t.Obj.Items[idx])
	case bytecode.PUSH_ARRAY:
		arity := int(vm.readU32())
		items := make([]Value, arity)
		for i := arity - 1; i >= 0; i-- {
			items[i] = vm.pop()
		}
		vm.push(HeapVal(vm.heap.NewArray(items)))
	case bytecode.ARRAY_INDEX:
		idxVal := vm.pop()
		arr := vm.pop()
		idx := int(idxVal.AsInt())
		if idx < 0 || idx >= len(arr.Obj.Items) {
			return false, errIndexOutOfBounds(idx, len(arr.Obj.Items))
		}
		vm.push(arr.Obj.Items[idx])
	case bytecode.ARRAY_SLICE:
		toVal, fromVal := vm.pop(), vm.pop()
		arr := vm.pop()
		items := arr.Obj.Items
		from, to := int(fromVal.AsInt()), int(toVal.AsInt())
		if from < 0 {
			from = 0
		}
		if to < 0 || to > len(items) {
			to = len(items)
		}
		if from > to {
			from = to
		}
		sliced := make([]Value, to-from)
		copy(sliced, items[from:to])
		vm.push(HeapVal(vm.heap.NewArray(sliced)))
	case bytecode.PUSH_CUSTOM:
		name := vm.readString()
		tag, arity := int(vm.readU32()), int(vm.readU32())
		fields := make([]Value, arity)
		for i := arity - 1; i >= 0; i-- {
			fields[i] = vm.pop()
		}
		vm.push(HeapVal(vm.heap.NewCustom(name, tag, fields)))
	case bytecode.PUSH_CONSTRUCTOR_COMPONENT:
		// Consuming: a pattern match that needs the scrutinee to survive
		// past one field extraction (to test further fields, or retry the
		// next arm) DUPs it first.
		idx := vm.readU32()
		c := vm.pop()
		vm.push(c.Obj.Fields[idx])
	case bytecode.CHECK_TAG:
		// Consuming, for the same reason: DUP before CHECK_TAG to keep
		// testing the same scrutinee afterward.
		tag := vm.readU32()
		c := vm.pop()
		vm.push(BoolVal(c.IsHeap() && c.Obj.Kind == ObjCustom && c.Obj.CtorTag == int(tag)))
	case bytecode.PUSH_CLOSURE:
		pkgID, offset := vm.readU32(), vm.readU32()
		vm.push(HeapVal(vm.heap.NewClosure(int(pkgID), offset, vm.currentFrame)))

	case bytecode.PRINT:
		vm.Stdout(vm.pop().String())
	case bytecode.PRINT_I32:
		vm.Stdout(vm.pop().String())
	case bytecode.PRINT_F32:
		vm.Stdout(vm.pop().String())
	case bytecode.PRINT_BOOL:
		vm.Stdout(vm.pop().String())
	case bytecode.PRINT_STRING:
		vm.Stdout(vm.pop().Obj.Str.Value)
	case bytecode.PRINTLN:
		vm.Stdout("\n")

	case bytecode.DUP:
		vm.push(vm.peek(0))
	case bytecode.DISCARD:
		vm.pop()

	default:
		return false, &InternalError{Message: "unrecognized opcode " + op.String()}
	}

	if vm.heap.NeedsCollection() {
		vm.CollectGarbage()
	}
	return false, nil
}
