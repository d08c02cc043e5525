package hw

import (
	"z80box/emu/log"
	"z80box/hw/hwdefs"
	"z80box/hw/hwio"
)

// Disk operation opcodes.
const (
	DiskRead  = 0x01
	DiskWrite = 0x02
)

// Disk status port values.
const (
	DiskStatusOK    = 0x00
	DiskStatusError = 0x01
)

// DiskController is a DMA disk controller driving up to 2 drives.
//
// Writing the track, sector, DMA address and drive registers has no other
// effect than updating them; only a write to the operation register
// performs I/O, synchronously. The DMA address is written one byte at a
// time, so both halves must be written before an operation is started if
// they both changed.
type DiskController struct {
	mem    DMAResolver
	drives [hwdefs.MaxDrives]BlockStore

	ok    bool // last operation succeeded
	ready bool

	TRACK  hwio.Reg8 `hwio:"offset=0x0,writeonly"`
	SECTOR hwio.Reg8 `hwio:"offset=0x1,writeonly"`
	DMALO  hwio.Reg8 `hwio:"offset=0x2,writeonly,reset=0x80"`
	DMAHI  hwio.Reg8 `hwio:"offset=0x3,writeonly"`
	OP     hwio.Reg8 `hwio:"offset=0x4,writeonly,wcb"`
	STATUS hwio.Reg8 `hwio:"offset=0x5,readonly,rcb,pcb=ReadSTATUS"`
	COUNT  hwio.Reg8 `hwio:"offset=0x6,readonly,reset=0x1"`
	DRIVE  hwio.Reg8 `hwio:"offset=0x7,writeonly"`
}

func NewDiskController(mem DMAResolver, primary, secondary BlockStore) *DiskController {
	dc := &DiskController{
		mem:    mem,
		drives: [hwdefs.MaxDrives]BlockStore{primary, secondary},
	}
	hwio.MustInitRegs(dc)
	return dc
}

// Init latches the drive count: 2 if the secondary drive is available, 1
// otherwise. The count never changes after the first call.
func (dc *DiskController) Init() {
	if dc.ready {
		return
	}
	dc.ready = true

	dc.COUNT.Value = 1
	if dc.drives[1].IsAvailable() {
		dc.COUNT.Value = 2
	}
	log.ModDisk.InfoZ("disk controller ready").Hex8("drives", dc.COUNT.Value).End()
}

func (dc *DiskController) DriveCount() uint8 { return dc.COUNT.Value }

// Status reports whether the last operation succeeded.
func (dc *DiskController) Status() bool { return dc.ok }

func (dc *DiskController) DMAAddress() uint16 {
	return uint16(dc.DMAHI.Value)<<8 | uint16(dc.DMALO.Value)
}

// ReadSTATUS returns DiskStatusOK if the last operation succeeded,
// DiskStatusError otherwise.
func (dc *DiskController) ReadSTATUS(_ uint8) uint8 {
	if dc.ok {
		return DiskStatusOK
	}
	return DiskStatusError
}

func (dc *DiskController) WriteOP(_, op uint8) {
	dc.ok = false

	drive := dc.DRIVE.Value
	if drive >= dc.COUNT.Value {
		log.ModDisk.DebugZ("invalid drive").
			Hex8("drive", drive).
			Hex8("count", dc.COUNT.Value).
			End()
		return
	}
	store := dc.drives[drive]

	dma := dc.DMAAddress()
	buf := dc.mem.DMAPointer(dma, hwdefs.SectorSize)
	if buf == nil {
		log.ModDisk.DebugZ("DMA refused").Hex16("dma", dma).End()
		return
	}

	sector := hwdefs.SectorsPerTrack*uint(dc.TRACK.Value) + uint(dc.SECTOR.Value)

	switch op {
	case DiskRead:
		dc.ok = store.Read(sector, buf)
	case DiskWrite:
		dc.ok = store.Write(sector, buf)
	default:
		log.ModDisk.DebugZ("unknown disk operation").Hex8("op", op).End()
		return
	}

	log.ModDisk.DebugZ("disk operation").
		Hex8("op", op).
		Hex8("drive", drive).
		Hex8("track", dc.TRACK.Value).
		Hex8("sector", dc.SECTOR.Value).
		Hex16("dma", dma).
		Bool("ok", dc.ok).
		End()
}
