package hw

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/koron-go/z80"

	"z80box/emu/log"
)

// CPU is a Z80 wired to the memory and the I/O ports.
type CPU struct {
	z80.CPU

	io portIO

	// PC of the instruction performing the last port access, readable from
	// any goroutine.
	iopc atomic.Uint32
}

// NewCPU creates a CPU which starts executing at pc.
func NewCPU(mem *Memory, ports *Ports, pc uint16) *CPU {
	c := &CPU{}
	c.io = portIO{cpu: c, ports: ports}
	c.CPU = z80.CPU{
		States: z80.States{SPR: z80.SPR{PC: pc}},
		Memory: mem,
		IO:     &c.io,
	}
	return c
}

// SetTraceOutput enables tracing of every port access to w, as text lines
// or JSON objects. A nil writer disables tracing.
func (c *CPU) SetTraceOutput(w io.Writer, json bool) {
	if w == nil {
		c.io.tracer = nil
		return
	}
	c.io.tracer = &tracer{w: w, json: json}
}

// Run executes instructions until HALT or until ctx is done. It returns nil
// in both cases.
func (c *CPU) Run(ctx context.Context) error {
	err := c.CPU.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// AddLogContext implements log.ContextAdder.
func (c *CPU) AddLogContext(z *log.EntryZ) {
	z.Hex16("pc", uint16(c.iopc.Load()))
}

// portIO is the z80.IO implementation: the library only hands out 8-bit
// port numbers, which are forwarded to the port bus.
type portIO struct {
	cpu    *CPU
	ports  *Ports
	tracer *tracer
}

// Every port instruction is 2 bytes long, and the PC has already moved past
// it when the access is performed.
const portInsnLen = 2

// insnPC records and returns the address of the port instruction being
// executed.
func (pio *portIO) insnPC() uint16 {
	pc := pio.cpu.PC - portInsnLen
	pio.cpu.iopc.Store(uint32(pc))
	return pc
}

func (pio *portIO) In(port uint8) uint8 {
	pc := pio.insnPC()
	val := pio.ports.Read(uint16(port))
	if pio.tracer != nil {
		pio.tracer.write(portAccess{PC: pc, Port: port, Val: val})
	}
	return val
}

func (pio *portIO) Out(port uint8, val uint8) {
	pc := pio.insnPC()
	if pio.tracer != nil {
		pio.tracer.write(portAccess{PC: pc, Port: port, Val: val, Out: true})
	}
	pio.ports.Write(uint16(port), val)
}
