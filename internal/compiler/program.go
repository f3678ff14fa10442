package compiler

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"

	bc "github.com/KromDaniel/pcrego/internal/bytecode"
)

// FirstCharKind says what is known about the start of every match.
type FirstCharKind int

const (
	FirstUnknown FirstCharKind = iota // nothing useful
	FirstLiteral                      // one literal character
	FirstSet                          // one of a set of first bytes
)

func (k FirstCharKind) String() string {
	switch k {
	case FirstLiteral:
		return "literal"
	case FirstSet:
		return "set"
	}
	return "unknown"
}

// FirstChar describes how a match must start. Set is a bitmap of first
// bytes (UTF-8 lead bytes in UTF mode) and is only meaningful for
// FirstSet.
type FirstChar struct {
	Kind     FirstCharKind `json:"kind" cbor:"1,keyasint"`
	Char     rune          `json:"char,omitempty" cbor:"2,keyasint,omitempty"`
	Caseless bool          `json:"caseless,omitempty" cbor:"3,keyasint,omitempty"`
	Set      [32]byte      `json:"-" cbor:"4,keyasint"`
}

// RequiredChar is the last literal every match must contain.
type RequiredChar struct {
	Known    bool `json:"known" cbor:"1,keyasint"`
	Char     rune `json:"char,omitempty" cbor:"2,keyasint,omitempty"`
	Caseless bool `json:"caseless,omitempty" cbor:"3,keyasint,omitempty"`
}

// Program is a compiled pattern together with the facts a matcher needs
// about it.
type Program struct {
	Pattern string  `json:"pattern" cbor:"1,keyasint"`
	Code    []byte  `json:"-" cbor:"2,keyasint"`
	Options Flag    `json:"options" cbor:"3,keyasint"`
	Newline Newline `json:"newline" cbor:"4,keyasint"`

	Groups          int         `json:"groups" cbor:"5,keyasint"`
	BackrefMax      int         `json:"backrefMax" cbor:"6,keyasint"`
	BackrefMap      uint32      `json:"backrefMap" cbor:"7,keyasint"`
	BackrefOverflow bool        `json:"backrefOverflow" cbor:"8,keyasint"`
	Names           []NameEntry `json:"names,omitempty" cbor:"9,keyasint,omitempty"`

	FirstChar     FirstChar    `json:"firstChar" cbor:"10,keyasint"`
	RequiredChar  RequiredChar `json:"requiredChar" cbor:"11,keyasint"`
	Anchored      bool         `json:"anchored" cbor:"12,keyasint"`
	StartLine     bool         `json:"startLine" cbor:"13,keyasint"`
	MaxLookbehind int          `json:"maxLookbehind" cbor:"14,keyasint"`
	WorkspaceUsed int          `json:"workspaceUsed" cbor:"15,keyasint"`
	Size          int          `json:"size" cbor:"16,keyasint"`
	Possessified  int          `json:"possessified" cbor:"17,keyasint"`
}

// GroupNumber returns the lowest group number registered for name.
func (p *Program) GroupNumber(name string) (int, bool) {
	t := nameTable{entries: p.Names}
	return t.lookup(name, false)
}

// UTF reports whether the program was compiled in UTF-8 mode.
func (p *Program) UTF() bool {
	return p.Options&UTF != 0
}

// Dump writes a disassembly of the program to w.
func (p *Program) Dump(w io.Writer) error {
	return bc.Disassemble(w, p.Code, p.UTF())
}

// Validate checks that the code can be walked from start to END with the
// opcode length table and that every bracket link is consistent.
func (p *Program) Validate() error {
	return bc.Validate(p.Code, p.UTF())
}

// Fingerprint returns a 64-bit hash of the code and the options that
// affect its meaning. Equal programs have equal fingerprints.
func (p *Program) Fingerprint() uint64 {
	d := xxhash.New()
	var hdr [9]byte
	binary.BigEndian.PutUint32(hdr[0:], uint32(p.Options))
	binary.BigEndian.PutUint32(hdr[4:], uint32(p.Newline))
	hdr[8] = byte(len(p.Names))
	_, _ = d.Write(hdr[:])
	_, _ = d.Write(p.Code)
	for _, e := range p.Names {
		_, _ = d.WriteString(e.Name)
		_, _ = d.Write([]byte{0, byte(e.Number >> 8), byte(e.Number)})
	}
	return d.Sum64()
}

// programWire has Program's fields without its methods, so the CBOR
// codec does not call back into MarshalBinary.
type programWire Program

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("compiler: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalBinary encodes the program as canonical CBOR.
func (p *Program) MarshalBinary() ([]byte, error) {
	return cborEncMode.Marshal((*programWire)(p))
}

// UnmarshalBinary decodes a program written by MarshalBinary and checks
// that its code is well formed.
func (p *Program) UnmarshalBinary(data []byte) error {
	var w programWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("compiler: unmarshal program: %w", err)
	}
	q := Program(w)
	if err := q.Validate(); err != nil {
		return fmt.Errorf("compiler: unmarshal program: %w", err)
	}
	*p = q
	return nil
}
