package hw

import (
	"z80box/emu/log"
	"z80box/hw/hwio"
)

// Console status port values.
const (
	ConsoleEmpty = 0x00
	ConsoleFull  = 0x01
)

// ConsolePorts forwards the console ports to a Console, there's no
// buffering here.
type ConsolePorts struct {
	con Console

	STATUS hwio.Reg8 `hwio:"offset=0x0,readonly,rcb,pcb=ReadSTATUS"`
	INPUT  hwio.Reg8 `hwio:"offset=0x1,readonly,rcb"`
	OUTPUT hwio.Reg8 `hwio:"offset=0x2,writeonly,wcb"`
}

func NewConsolePorts(con Console) *ConsolePorts {
	c := &ConsolePorts{con: con}
	hwio.MustInitRegs(c)
	return c
}

func (c *ConsolePorts) ReadSTATUS(_ uint8) uint8 {
	if c.con.Ready() {
		return ConsoleFull
	}
	return ConsoleEmpty
}

// ReadINPUT pulls the next character. A peek returns the last character
// read instead.
func (c *ConsolePorts) ReadINPUT(_ uint8) uint8 {
	ch := c.con.GetChar()
	c.INPUT.Value = ch
	return ch
}

func (c *ConsolePorts) WriteOUTPUT(_, val uint8) {
	log.ModConsole.DebugZ("put char").Hex8("char", val).End()
	c.con.PutChar(val)
}
