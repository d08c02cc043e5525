package hwio

import (
	"fmt"
)

// NumPorts is the size of the 8-bit port address space.
const NumPorts = 0x100

type BankIO8 interface {
	// Read8 reads a byte from the given port. If peek is true, the read
	// shouldn't have any side effects (debugging/tracing).
	Read8(port uint8, peek bool) uint8
	Write8(port uint8, val uint8)
}

// Table decodes the port address space. Each port is driven by at most one
// BankIO8; reads from undriven ports return OpenBus and writes to them are
// dropped.
type Table struct {
	Name string

	ports [NumPorts]BankIO8
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	t.ports = [NumPorts]BankIO8{}
}

// Map a register bank (that is, a structure containing multiple Reg8 fields).
// For this function to work, registers must have a struct tag "hwio", containing
// the following fields:
//
//	offset=0x12     Port offset within the register bank at which this
//	                register is mapped. There is no default value: if this
//	                option is missing, the register is assumed not to be
//	                part of the bank, and is ignored by this call.
//
//	bank=NN         Ordinal bank number (if not specified, default to zero).
//	                This option allows for a structure to expose multiple
//	                banks, as regs can be grouped by bank by specified the
//	                bank number.
//
// See InitRegs for the other options.
func (t *Table) MapBank(addr uint8, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		t.MapReg8(addr+reg.offset, reg.regPtr)
	}
}

// MapReg8 maps a single register at the given port. It panics if the port
// is already mapped.
func (t *Table) MapReg8(port uint8, io *Reg8) {
	t.mapBus8(port, io)
}

func (t *Table) mapBus8(port uint8, io BankIO8) {
	if t.Mapped(port) {
		panic(fmt.Errorf("%s: port %02X already mapped", t.Name, port))
	}
	t.ports[port] = io
}

// Mapped reports whether something drives the given port.
func (t *Table) Mapped(port uint8) bool {
	return t.ports[port] != nil
}

// Read8 forwards the read to the register mapped at the given port.
func (t *Table) Read8(port uint8, peek bool) uint8 {
	io := t.ports[port]
	if io == nil {
		return OpenBus
	}
	return io.Read8(port, peek)
}

// Peek8 is a convenience function.
func (t *Table) Peek8(port uint8) uint8 {
	return t.Read8(port, true)
}

func (t *Table) Write8(port uint8, val uint8) {
	io := t.ports[port]
	if io == nil {
		return
	}
	io.Write8(port, val)
}
