// Package bytecode defines Bendu's instruction set and binary encoding
// (spec §4.3 summary, §6 bit-exact). The shape of this file — a byte
// Opcode enum plus an OpcodeNames map for disassembly — is grounded on
// the teacher's internal/vm/opcodes.go, but the instruction set itself
// is Bendu's own: monomorphic arithmetic per primitive, frame/package
// addressed LOAD/STORE, and heap-constructor opcodes matching spec §3's
// Array/Tuple/Custom/Closure shapes rather than the teacher's List/Map/
// Record opcodes.
package bytecode

// Opcode is a single bytecode instruction's tag byte.
type Opcode byte

const (
	PUSH_I32_LITERAL Opcode = iota
	PUSH_F32_LITERAL
	PUSH_U8_LITERAL
	PUSH_STRING_LITERAL
	PUSH_UNIT_LITERAL
	PUSH_BOOL_TRUE
	PUSH_BOOL_FALSE

	ADD_I32
	SUB_I32
	MUL_I32
	DIV_I32
	MOD_I32
	ADD_F32
	SUB_F32
	MUL_F32
	DIV_F32
	ADD_STRING

	EQ_I32
	EQ_F32
	EQ_STRING
	EQ_CHAR
	EQ_BOOL
	EQ // generic fallback, dispatches on the runtime kind tag
	NEQ
	LT_I32
	LT_F32
	LT_STRING
	GT_I32
	GT_F32
	LE_I32
	LE_F32
	GE_I32
	GE_F32

	NOT_BOOL
	AND_BOOL
	OR_BOOL

	JMP_DUP_TRUE
	JMP_DUP_FALSE
	JMP
	JMP_FALSE
	RET

	LOAD
	STORE
	LOAD_PACKAGE
	STORE_PACKAGE

	CALL
	CALL_CLOSURE
	CALL_PACKAGE
	CALL_BUILTIN

	PUSH_TUPLE
	PUSH_TUPLE_COMPONENT
	PUSH_ARRAY
	ARRAY_INDEX
	ARRAY_SLICE
	PUSH_CUSTOM
	PUSH_CONSTRUCTOR_COMPONENT
	CHECK_TAG
	PUSH_CLOSURE

	PRINT
	PRINT_I32
	PRINT_F32
	PRINT_BOOL
	PRINT_STRING
	PRINTLN

	DUP
	DISCARD
)

// OpcodeNames backs the disassembler (`bendu dis`).
var OpcodeNames = map[Opcode]string{
	PUSH_I32_LITERAL:    "PUSH_I32_LITERAL",
	PUSH_F32_LITERAL:    "PUSH_F32_LITERAL",
	PUSH_U8_LITERAL:     "PUSH_U8_LITERAL",
	PUSH_STRING_LITERAL: "PUSH_STRING_LITERAL",
	PUSH_UNIT_LITERAL:   "PUSH_UNIT_LITERAL",
	PUSH_BOOL_TRUE:      "PUSH_BOOL_TRUE",
	PUSH_BOOL_FALSE:     "PUSH_BOOL_FALSE",

	ADD_I32:    "ADD_I32",
	SUB_I32:    "SUB_I32",
	MUL_I32:    "MUL_I32",
	DIV_I32:    "DIV_I32",
	MOD_I32:    "MOD_I32",
	ADD_F32:    "ADD_F32",
	SUB_F32:    "SUB_F32",
	MUL_F32:    "MUL_F32",
	DIV_F32:    "DIV_F32",
	ADD_STRING: "ADD_STRING",

	EQ_I32:    "EQ_I32",
	EQ_F32:    "EQ_F32",
	EQ_STRING: "EQ_STRING",
	EQ_CHAR:   "EQ_CHAR",
	EQ_BOOL:   "EQ_BOOL",
	EQ:        "EQ",
	NEQ:       "NEQ",
	LT_I32:    "LT_I32",
	LT_F32:    "LT_F32",
	LT_STRING: "LT_STRING",
	GT_I32:    "GT_I32",
	GT_F32:    "GT_F32",
	LE_I32:    "LE_I32",
	LE_F32:    "LE_F32",
	GE_I32:    "GE_I32",
	GE_F32:    "GE_F32",

	NOT_BOOL: "NOT_BOOL",
	AND_BOOL: "AND_BOOL",
	OR_BOOL:  "OR_BOOL",

	JMP_DUP_TRUE:  "JMP_DUP_TRUE",
	JMP_DUP_FALSE: "JMP_DUP_FALSE",
	JMP:           "JMP",
	JMP_FALSE:     "JMP_FALSE",
	RET:           "RET",

	LOAD:           "LOAD",
	STORE:          "STORE",
	LOAD_PACKAGE:   "LOAD_PACKAGE",
	STORE_PACKAGE:  "STORE_PACKAGE",

	CALL:         "CALL",
	CALL_CLOSURE: "CALL_CLOSURE",
	CALL_PACKAGE: "CALL_PACKAGE",
	CALL_BUILTIN: "CALL_BUILTIN",

	PUSH_TUPLE:                 "PUSH_TUPLE",
	PUSH_TUPLE_COMPONENT:       "PUSH_TUPLE_COMPONENT",
	PUSH_ARRAY:                 "PUSH_ARRAY",
	ARRAY_INDEX:                "ARRAY_INDEX",
	ARRAY_SLICE:                "ARRAY_SLICE",
	PUSH_CUSTOM:                "PUSH_CUSTOM",
	PUSH_CONSTRUCTOR_COMPONENT: "PUSH_CONSTRUCTOR_COMPONENT",
	CHECK_TAG:                  "CHECK_TAG",
	PUSH_CLOSURE:               "PUSH_CLOSURE",

	PRINT:        "PRINT",
	PRINT_I32:    "PRINT_I32",
	PRINT_F32:    "PRINT_F32",
	PRINT_BOOL:   "PRINT_BOOL",
	PRINT_STRING: "PRINT_STRING",
	PRINTLN:      "PRINTLN",

	DUP:     "DUP",
	DISCARD: "DISCARD",
}

func (op Opcode) String() string {
	if n, ok := OpcodeNames[op]; ok {
		return n
	}
	return "UNKNOWN_OPCODE"
}

// ImmediateKind identifies the typed immediate(s) following an opcode
// byte (spec §6, "Instruction encoding").
type ImmediateKind int

const (
	ImmNone ImmediateKind = iota
	ImmU32
	ImmI32
	ImmF32
	ImmU8
	ImmString
	ImmU32A
)

// Immediates describes the operand shape of every opcode, driving both
// the compiler's emission and the disassembler's decoding.
var Immediates = map[Opcode][]ImmediateKind{
	PUSH_I32_LITERAL:    {ImmI32},
	PUSH_F32_LITERAL:    {ImmF32},
	PUSH_U8_LITERAL:     {ImmU8},
	PUSH_STRING_LITERAL: {ImmString},

	JMP_DUP_TRUE:  {ImmU32},
	JMP_DUP_FALSE: {ImmU32},
	JMP:           {ImmU32},
	JMP_FALSE:     {ImmU32},

	LOAD:          {ImmU32, ImmU32},
	STORE:         {ImmU32, ImmU32},
	LOAD_PACKAGE:  {ImmU32, ImmU32},
	STORE_PACKAGE: {ImmU32, ImmU32},

	CALL:         {ImmU32, ImmU32, ImmU32},
	CALL_CLOSURE: {ImmU32},
	CALL_PACKAGE: {ImmU32, ImmU32, ImmU32},
	CALL_BUILTIN: {ImmU32},

	PUSH_TUPLE:                 {ImmU32},
	PUSH_TUPLE_COMPONENT:       {ImmU32},
	PUSH_ARRAY:                 {ImmU32},
	PUSH_CUSTOM:                {ImmString, ImmU32, ImmU32},
	PUSH_CONSTRUCTOR_COMPONENT: {ImmU32},
	CHECK_TAG:                  {ImmU32},
	PUSH_CLOSURE:               {ImmU32, ImmU32},
}
