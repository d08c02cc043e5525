package hw

import (
	"z80box/emu/log"
	"z80box/hw/hwio"
)

// Control port opcodes.
const (
	ControlSave = 'S' // save all drives
	ControlQuit = 'Q' // request shutdown
)

// ControlPort is the write-only system control register.
type ControlPort struct {
	primary   BlockStore
	secondary BlockStore
	sys       Shutdowner

	CTRL hwio.Reg8 `hwio:"offset=0x0,writeonly,wcb"`
}

func NewControlPort(primary, secondary BlockStore, sys Shutdowner) *ControlPort {
	cp := &ControlPort{
		primary:   primary,
		secondary: secondary,
		sys:       sys,
	}
	hwio.MustInitRegs(cp)
	return cp
}

func (cp *ControlPort) WriteCTRL(_, val uint8) {
	switch val {
	case ControlSave:
		cp.save()
	case ControlQuit:
		log.ModCtrl.InfoZ("shutdown requested").End()
		cp.sys.Shutdown()
	default:
		log.ModCtrl.DebugZ("ignored control opcode").Hex8("op", val).End()
	}
}

// save flushes the primary drive, then the secondary one if present. The
// two saves are independent: a failure of the first doesn't prevent the
// second.
func (cp *ControlPort) save() {
	log.ModCtrl.InfoZ("saving drives").End()
	if err := cp.primary.Save(); err != nil {
		log.ModCtrl.ErrorZ("failed to save drive").Int("drive", 0).Error("err", err).End()
	}
	if cp.secondary.IsAvailable() {
		if err := cp.secondary.Save(); err != nil {
			log.ModCtrl.ErrorZ("failed to save drive").Int("drive", 1).Error("err", err).End()
		}
	}
}
