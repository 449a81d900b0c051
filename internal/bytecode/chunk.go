package bytecode

import (
	"encoding/binary"
	"math"
)

// Chunk accumulates one file's instruction stream plus the import
// table and per-instruction source positions, mirroring the teacher's
// internal/vm/chunk.go Write/WriteOp shape but emitting Bendu's typed
// immediates (spec §6) instead of a constant-pool index.
type Chunk struct {
	Imports []string // source-ids this package's code references
	Code    []byte
	Lines   []int
	File    string
}

func NewChunk(file string) *Chunk {
	return &Chunk{File: file, Code: make([]byte, 0, 256)}
}

func (c *Chunk) trackLine(n int, line int) {
	for i := 0; i < n; i++ {
		c.Lines = append(c.Lines, line)
	}
}

// Op writes a bare opcode with no immediates.
func (c *Chunk) Op(op Opcode, line int) {
	c.Code = append(c.Code, byte(op))
	c.trackLine(1, line)
}

func (c *Chunk) U32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	c.Code = append(c.Code, buf[:]...)
}

func (c *Chunk) I32(v int32) { c.U32(uint32(v)) }

func (c *Chunk) F32(v float32) { c.U32(math.Float32bits(v)) }

func (c *Chunk) U8(v byte) { c.Code = append(c.Code, v) }

func (c *Chunk) String(s string) {
	c.U32(uint32(len(s)))
	c.Code = append(c.Code, s...)
}

func (c *Chunk) U32A(vals []uint32) {
	c.U32(uint32(len(vals)))
	for _, v := range vals {
		c.U32(v)
	}
}

// Here returns the current instruction offset, used for patching
// forward jumps once a branch target is known.
func (c *Chunk) Here() int { return len(c.Code) }

// PatchU32 overwrites a previously-reserved 4-byte placeholder at
// offset with v, used to back-patch JMP/JMP_FALSE targets once the
// compiler reaches the branch's destination.
func (c *Chunk) PatchU32(offset int, v uint32) {
	binary.BigEndian.PutUint32(c.Code[offset:offset+4], v)
}

// AddImport registers a cross-package source-id reference and returns
// its index in the import table (used as the negative-at-emission,
// positive-at-load package id of spec §4.5).
func (c *Chunk) AddImport(sourceID string) int {
	for i, s := range c.Imports {
		if s == sourceID {
			return i
		}
	}
	c.Imports = append(c.Imports, sourceID)
	return len(c.Imports) - 1
}

// Bytes serializes the chunk into the on-disk bytecode file format
// (spec §6, bit-exact): magic, version, import table, instruction
// stream.
func (c *Chunk) Bytes(magic [2]byte, major, minor byte) []byte {
	out := make([]byte, 0, 8+len(c.Code)+64)
	out = append(out, magic[0], magic[1], major, minor)

	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(c.Imports)))
	out = append(out, countBuf[:]...)

	for _, imp := range c.Imports {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(imp)))
		out = append(out, lenBuf[:]...)
		out = append(out, imp...)
	}

	out = append(out, c.Code...)
	return out
}
