package vm

// doCall implements spec §4.5's CALL family: pop `arity` arguments,
// allocate a frame whose enclosing pointer is `enclosing`, copy the
// arguments into slots 0..arity-1, and jump into pkg's code at offset.
// The caller's resumption point is recorded on vm.calls so RET can
// restore it without the Go call stack ever recursing — nested Bendu
// calls (including recursive ones) are just more iterations of the
// same run() loop.
func (vm *VM) doCall(pkg *Package, enclosing *Object, offset, arity int) {
	args := make([]Value, arity)
	for i := arity - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	frame := vm.heap.NewFrame(enclosing, arity)
	copy(frame.Slots, args)

	vm.calls = append(vm.calls, callRecord{
		frame:    frame,
		retPkg:   vm.currentPkg,
		retFrame: vm.currentFrame,
		retIP:    vm.ip,
	})
	vm.currentPkg = pkg
	vm.currentFrame = frame
	vm.ip = offset
}

// execReturn implements RET: pop the innermost call record and, unless
// it was the sentinel pushed by runInit (whose "return" is simply
// "stop running"), restore the caller's package/frame/ip so the flat
// run() loop resumes exactly where CALL left off.
func (vm *VM) execReturn() error {
	n := len(vm.calls)
	if n == 0 {
		return &InternalError{Message: "RET with empty call stack"}
	}
	r := vm.calls[n-1]
	vm.calls = vm.calls[:n-1]
	if !r.isRoot {
		vm.currentPkg = r.retPkg
		vm.currentFrame = r.retFrame
		vm.ip = r.retIP
	}
	return nil
}
