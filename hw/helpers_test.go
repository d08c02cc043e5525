package hw

import (
	"errors"

	"z80box/hw/hwdefs"
)

type fakeConsole struct {
	in  []byte
	out []byte
}

func (c *fakeConsole) Ready() bool { return len(c.in) > 0 }

func (c *fakeConsole) GetChar() uint8 {
	if len(c.in) == 0 {
		return 0
	}
	ch := c.in[0]
	c.in = c.in[1:]
	return ch
}

func (c *fakeConsole) PutChar(ch uint8) { c.out = append(c.out, ch) }

type driveCall struct {
	Op     string
	Sector uint
}

// fakeDrive is an in-memory BlockStore recording all calls.
type fakeDrive struct {
	available bool
	failIO    bool
	saveErr   error

	data  []byte
	calls []driveCall
	saves int
}

func newFakeDrive(available bool) *fakeDrive {
	return &fakeDrive{
		available: available,
		data:      make([]byte, hwdefs.DiskSize(hwdefs.DefaultTracks)),
	}
}

func (d *fakeDrive) IsAvailable() bool { return d.available }

func (d *fakeDrive) block(sector uint, n int) []byte {
	off := int(sector) * hwdefs.SectorSize
	if !d.available || d.failIO || off+n > len(d.data) {
		return nil
	}
	return d.data[off : off+n]
}

func (d *fakeDrive) Read(sector uint, buf []byte) bool {
	d.calls = append(d.calls, driveCall{"read", sector})
	blk := d.block(sector, len(buf))
	if blk == nil {
		return false
	}
	copy(buf, blk)
	return true
}

func (d *fakeDrive) Write(sector uint, buf []byte) bool {
	d.calls = append(d.calls, driveCall{"write", sector})
	blk := d.block(sector, len(buf))
	if blk == nil {
		return false
	}
	copy(blk, buf)
	return true
}

func (d *fakeDrive) Save() error {
	d.saves++
	return d.saveErr
}

var errSave = errors.New("save failed")

type fakeSystem struct {
	shutdowns int
}

func (s *fakeSystem) Shutdown() { s.shutdowns++ }

type testMachine struct {
	ports  *Ports
	mem    *Memory
	con    *fakeConsole
	drives [2]*fakeDrive
	sys    *fakeSystem
}

// newTestMachine creates ports wired to fakes. secondary tells if the
// secondary drive is available at initialization.
func newTestMachine(secondary bool) *testMachine {
	m := &testMachine{
		mem:    NewMemory(0x100),
		con:    &fakeConsole{},
		drives: [2]*fakeDrive{newFakeDrive(true), newFakeDrive(secondary)},
		sys:    &fakeSystem{},
	}
	m.ports = NewPorts(PortsConfig{
		Console: m.con,
		Memory:  m.mem,
		Drives:  [2]BlockStore{m.drives[0], m.drives[1]},
		System:  m.sys,
	})
	return m
}

func (m *testMachine) setDMA(addr uint16) {
	m.ports.Write(PortDiskDMALow, uint8(addr))
	m.ports.Write(PortDiskDMAHigh, uint8(addr>>8))
}

// diskOp selects drive, track and sector, starts op and returns the status
// port value.
func (m *testMachine) diskOp(drive, track, sector, op uint8) uint8 {
	m.ports.Write(PortDiskDrive, drive)
	m.ports.Write(PortDiskTrack, track)
	m.ports.Write(PortDiskSector, sector)
	m.ports.Write(PortDiskOperation, op)
	return m.ports.Read(PortDiskStatus)
}

// snapshot captures every observable piece of state behind the ports.
type snapshot struct {
	Track, Sector, DMALo, DMAHi, Drive, Count uint8
	OK                                        bool
	ConsoleIn, ConsoleOut                     []byte
	Calls0, Calls1                            []driveCall
	Saves0, Saves1                            int
	Shutdowns                                 int
}

func (m *testMachine) snapshot() snapshot {
	dc := m.ports.Disk
	return snapshot{
		Track:      dc.TRACK.Value,
		Sector:     dc.SECTOR.Value,
		DMALo:      dc.DMALO.Value,
		DMAHi:      dc.DMAHI.Value,
		Drive:      dc.DRIVE.Value,
		Count:      dc.COUNT.Value,
		OK:         dc.Status(),
		ConsoleIn:  append([]byte(nil), m.con.in...),
		ConsoleOut: append([]byte(nil), m.con.out...),
		Calls0:     append([]driveCall(nil), m.drives[0].calls...),
		Calls1:     append([]driveCall(nil), m.drives[1].calls...),
		Saves0:     m.drives[0].saves,
		Saves1:     m.drives[1].saves,
		Shutdowns:  m.sys.shutdowns,
	}
}
