package hw

import (
	"z80box/hw/hwdefs"
	"z80box/hw/hwio"
)

// Port map. Addresses are 8-bit, the high byte of a 16-bit port address is
// ignored so the map repeats every 256 ports.
const (
	PortConsoleStatus = 0x00 // in
	PortConsoleInput  = 0x01 // in
	PortConsoleOutput = 0x02 // out

	PortDiskTrack     = 0x10 // out
	PortDiskSector    = 0x11 // out
	PortDiskDMALow    = 0x12 // out
	PortDiskDMAHigh   = 0x13 // out
	PortDiskOperation = 0x14 // out
	PortDiskStatus    = 0x15 // in
	PortDiskCount     = 0x16 // in
	PortDiskDrive     = 0x17 // out

	PortControl = 0xE0 // out
)

// Console is the character device behind the console ports.
type Console interface {
	// Ready reports whether an input character is buffered.
	Ready() bool
	GetChar() uint8
	PutChar(c uint8)
}

// DMAResolver gives direct access to CPU memory. DMAPointer returns nil if
// the size bytes block at addr can't be accessed.
type DMAResolver interface {
	DMAPointer(addr uint16, size int) []byte
}

// BlockStore is a sector addressable disk image.
type BlockStore interface {
	IsAvailable() bool
	Read(sector uint, buf []byte) bool
	Write(sector uint, buf []byte) bool
	Save() error
}

// Shutdowner is the owner of the machine, which the control port asks to
// shut down.
type Shutdowner interface {
	Shutdown()
}

type PortsConfig struct {
	Console Console
	Memory  DMAResolver
	Drives  [hwdefs.MaxDrives]BlockStore // primary, secondary (can be nil)
	System  Shutdowner
}

// Ports is the I/O bus seen by the CPU IN and OUT instructions.
type Ports struct {
	Bus *hwio.Table

	Console *ConsolePorts
	Disk    *DiskController
	Control *ControlPort
}

// NewPorts creates the I/O bus and its peripherals, and maps their
// registers. The disk controller is initialized, so the drive count is
// latched from the availability of the secondary drive at this point.
func NewPorts(cfg PortsConfig) *Ports {
	drives := cfg.Drives
	for i := range drives {
		if drives[i] == nil {
			drives[i] = NoDrive{}
		}
	}

	p := &Ports{
		Bus:     hwio.NewTable("ports"),
		Console: NewConsolePorts(cfg.Console),
		Disk:    NewDiskController(cfg.Memory, drives[0], drives[1]),
		Control: NewControlPort(drives[0], drives[1], cfg.System),
	}
	p.Disk.Init()

	p.Bus.MapBank(PortConsoleStatus, p.Console, 0)
	p.Bus.MapBank(PortDiskTrack, p.Disk, 0)
	p.Bus.MapBank(PortControl, p.Control, 0)
	return p
}

// Read performs a CPU port read.
func (p *Ports) Read(port uint16) uint8 {
	return p.Bus.Read8(uint8(port), false)
}

// Peek reads a port without side effects.
func (p *Ports) Peek(port uint16) uint8 {
	return p.Bus.Peek8(uint8(port))
}

// Write performs a CPU port write.
func (p *Ports) Write(port uint16, val uint8) {
	p.Bus.Write8(uint8(port), val)
}

// NoDrive is an absent drive.
type NoDrive struct{}

func (NoDrive) IsAvailable() bool       { return false }
func (NoDrive) Read(uint, []byte) bool  { return false }
func (NoDrive) Write(uint, []byte) bool { return false }
func (NoDrive) Save() error             { return nil }
