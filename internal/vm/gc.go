package vm

// CollectGarbage runs one stop-the-world tri-colour mark-sweep cycle
// (spec §4.5, "GC"). Roots are every value live on the operand stack,
// every frame of an in-flight call, and every loaded package's frame
// (spec §3: "package frames live for the VM's lifetime once loaded").
func (vm *VM) CollectGarbage() {
	newLive := black
	if vm.heap.liveColor == black {
		newLive = white
	}

	var markObj func(*Object)
	markValue := func(v Value) {
		if v.Kind == KindHeap {
			markObj(v.Obj)
		}
	}
	markObj = func(o *Object) {
		if o == nil || o.color == newLive {
			return
		}
		o.color = newLive
		switch o.Kind {
		case ObjArray, ObjTuple:
			for _, v := range o.Items {
				markValue(v)
			}
		case ObjCustom:
			for _, v := range o.Fields {
				markValue(v)
			}
		case ObjClosure:
			markObj(o.ClosureFrame)
		case ObjFrame:
			markObj(o.FrameParent)
			for _, v := range o.Slots {
				markValue(v)
			}
		}
	}

	for i := 0; i < vm.sp; i++ {
		markValue(vm.stack[i])
	}
	for _, c := range vm.calls {
		markObj(c.frame)
	}
	for _, pkg := range vm.packageOrder {
		if pkg.Loaded {
			markObj(pkg.Frame)
		}
	}

	kept := vm.heap.objects[:0]
	for _, o := range vm.heap.objects {
		if o.color == newLive {
			kept = append(kept, o)
			continue
		}
		if o.Kind == ObjString && o.Str != nil {
			vm.heap.strings.DecRef(o.Str)
		}
		o.color = grey
		vm.heap.free = append(vm.heap.free, o)
	}
	vm.heap.objects = kept
	vm.heap.liveColor = newLive

	if vm.heap.capacity > 0 {
		ratio := float64(len(kept)) / float64(vm.heap.capacity)
		if ratio > 0.25 {
			vm.heap.capacity *= 2
		}
	}
}
