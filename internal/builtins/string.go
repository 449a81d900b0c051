package builtins

import "github.com/bendu-lang/bendu/internal/vm"

// builtinStringLength implements `string.length: String -> Int`.
func builtinStringLength(m *vm.VM) error {
	arg, err := m.PopArg()
	if err != nil {
		return err
	}
	s, err := m.StringOf(arg)
	if err != nil {
		return err
	}
	m.Push(vm.IntVal(int32(len(s))))
	return nil
}

// builtinStringAt implements `string.at(s, i): (String, Int) -> Option[Char]`.
// Option is encoded as the two-constructor ADT `None` (tag 0, no
// fields) / `Some` (tag 1, one field), the shape every Bendu ADT with
// that surface declaration would compile to (spec §3, "Custom:
// constructor-id, name pointer, fixed-size value array").
func builtinStringAt(m *vm.VM) error {
	idxArg, err := m.PopArg()
	if err != nil {
		return err
	}
	sArg, err := m.PopArg()
	if err != nil {
		return err
	}
	s, err := m.StringOf(sArg)
	if err != nil {
		return err
	}
	i := int(idxArg.AsInt())
	if i < 0 || i >= len(s) {
		m.Push(m.NewOption(nil))
		return nil
	}
	m.Push(m.NewOption(&[]vm.Value{vm.CharVal(s[i])}[0]))
	return nil
}
