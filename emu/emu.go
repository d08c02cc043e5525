package emu

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"z80box/emu/log"
	"z80box/hw"
	"z80box/hw/hwdefs"
	"z80box/hw/ramdisk"
)

// Console is the machine console. The emulator owns it and closes it when
// the emulation loop exits.
type Console interface {
	hw.Console
	Close() error
}

type Emulator struct {
	CPU    *hw.CPU
	Memory *hw.Memory
	Ports  *hw.Ports
	Drives [hwdefs.MaxDrives]*ramdisk.RAMDisk

	con        Console
	saveOnExit bool

	// These are accessed concurrently by the emulator loop, the RPC server
	// and signal handlers.
	quit   atomic.Bool
	mu     sync.Mutex
	cancel context.CancelFunc
}

// Launch powers up the machine: it opens the drives, loads the boot image
// and wires memory, ports and CPU together. It doesn't start the emulation
// loop, call Run() for that.
func Launch(cfg Config, con Console) (*Emulator, error) {
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	boot, err := os.ReadFile(cfg.Machine.Boot)
	if err != nil {
		return nil, fmt.Errorf("failed to read boot image: %w", err)
	}

	e := &Emulator{
		con:        con,
		saveOnExit: cfg.Disk.SaveOnExit,
	}
	if err := e.openDrives(cfg.Disk); err != nil {
		return nil, err
	}

	e.Memory = hw.NewMemory(cfg.Machine.ROMSize)
	if err := e.Memory.Load(cfg.Machine.LoadAddr, boot); err != nil {
		return nil, fmt.Errorf("failed to load boot image: %w", err)
	}

	e.Ports = hw.NewPorts(hw.PortsConfig{
		Console: con,
		Memory:  e.Memory,
		Drives:  [hwdefs.MaxDrives]hw.BlockStore{e.Drives[0], e.Drives[1]},
		System:  e,
	})

	e.CPU = hw.NewCPU(e.Memory, e.Ports, cfg.Machine.LoadAddr)
	if cfg.TraceOut != nil {
		e.CPU.SetTraceOutput(cfg.TraceOut, cfg.TraceJSON)
	}

	log.ModEmu.InfoZ("machine powered up").
		String("boot", cfg.Machine.Boot).
		Int("size", len(boot)).
		Hex16("load", cfg.Machine.LoadAddr).
		Uint("drives", uint(e.Ports.Disk.DriveCount())).
		End()
	return e, nil
}

func (e *Emulator) openDrives(cfg DiskConfig) error {
	size := hwdefs.DiskSize(cfg.Tracks)
	paths := [hwdefs.MaxDrives]string{cfg.Drive0, cfg.Drive1}

	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			d, err := ramdisk.New(path, size)
			if err != nil {
				return fmt.Errorf("drive %d: %w", i, err)
			}
			e.Drives[i] = d
			return nil
		})
	}
	return g.Wait()
}

// Run executes the emulation loop until the CPU halts, Stop or Shutdown is
// called, or ctx is done.
func (e *Emulator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	if e.quit.Load() {
		cancel()
	}

	// Unblock the CPU if it's waiting for console input.
	context.AfterFunc(ctx, func() { e.con.Close() })

	log.AddContext(e.CPU)
	defer log.RemoveContext(e.CPU)

	log.ModEmu.InfoZ("Emulation loop started").End()
	err := e.CPU.Run(ctx)
	log.ModEmu.InfoZ("Emulation loop exited").Bool("quit", e.quit.Load()).End()

	if cerr := e.con.Close(); cerr != nil {
		log.ModEmu.WarnZ("failed to close console").Error("err", cerr).End()
	}

	if e.saveOnExit {
		err = errors.Join(err, e.SaveDisks())
	}
	return err
}

// Shutdown implements hw.Shutdowner. It asks the emulation loop to exit,
// the CPU stops before its next instruction.
func (e *Emulator) Shutdown() {
	log.ModEmu.InfoZ("shutdown requested").End()
	e.Stop()
}

// Stop allows to stop the emulator loop in a concurrent-safe way.
func (e *Emulator) Stop() {
	e.quit.Store(true)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// SaveDisks writes back the images of all available drives.
func (e *Emulator) SaveDisks() error {
	var g errgroup.Group
	for i, d := range e.Drives {
		if d == nil || !d.IsAvailable() {
			continue
		}
		i, d := i, d
		g.Go(func() error {
			if err := d.Save(); err != nil {
				return fmt.Errorf("drive %d (%s): %w", i, d.Path(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
