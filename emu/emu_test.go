package emu

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"z80box/emu/log"
	"z80box/hw/hwdefs"
)

func init() {
	log.Disable()
}

func runEmulator(t *testing.T, e *Emulator) error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := e.Run(ctx)
	if ctx.Err() != nil {
		t.Fatal("emulator did not stop in time")
	}
	return err
}

// Writes "ok" to the console, the sector at 0300h to track 0 sector 1 of
// the primary drive, then saves the drives and quits.
var writeAndQuit = []byte{
	0x3E, 'o', // LD A,'o'
	0xD3, 0x02, // OUT (02h),A
	0x3E, 'k', // LD A,'k'
	0xD3, 0x02, // OUT (02h),A
	0x3E, 0x01, // LD A,1
	0xD3, 0x11, // OUT (11h),A  sector
	0x3E, 0x00, // LD A,00h
	0xD3, 0x12, // OUT (12h),A  DMA low
	0x3E, 0x03, // LD A,03h
	0xD3, 0x13, // OUT (13h),A  DMA high
	0x3E, 0x02, // LD A,2
	0xD3, 0x14, // OUT (14h),A  write
	0x3E, 'S', // LD A,'S'
	0xD3, 0xE0, // OUT (E0h),A
	0x3E, 'Q', // LD A,'Q'
	0xD3, 0xE0, // OUT (E0h),A
	0x76, // HALT
}

func TestEmulatorRun(t *testing.T) {
	pattern := bytes.Repeat([]byte{0x12, 0x34}, hwdefs.SectorSize/2)
	boot := writeFile(t, "boot.bin", bootImage(writeAndQuit, 0x0300, pattern))
	drive0 := filepath.Join(t.TempDir(), "a.img")

	cfg := DefaultConfig()
	cfg.Machine.Boot = boot
	cfg.Disk.Drive0 = drive0

	con := newTestConsole()
	e, err := Launch(cfg, con)
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Ports.Disk.DriveCount(); got != 1 {
		t.Errorf("drive count = %d, want 1", got)
	}

	if err := runEmulator(t, e); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := con.Output(); got != "ok" {
		t.Errorf("console output = %q, want \"ok\"", got)
	}
	if !con.closed() {
		t.Errorf("console not closed after Run")
	}
	if !e.Ports.Disk.Status() {
		t.Errorf("last disk operation failed")
	}

	img, err := os.ReadFile(drive0)
	if err != nil {
		t.Fatalf("primary drive not saved: %v", err)
	}
	if len(img) != hwdefs.DiskSize(hwdefs.DefaultTracks) {
		t.Fatalf("image size = %d, want %d", len(img), hwdefs.DiskSize(hwdefs.DefaultTracks))
	}
	if got := img[hwdefs.SectorSize : 2*hwdefs.SectorSize]; !bytes.Equal(got, pattern) {
		t.Errorf("sector 1 content differs from DMA buffer")
	}
	if got := img[0]; got != hwdefs.EmptyByte {
		t.Errorf("sector 0 byte = %02X, want %02X", got, hwdefs.EmptyByte)
	}
}

func TestEmulatorTwoDrives(t *testing.T) {
	boot := writeFile(t, "boot.bin", []byte{0x76})

	cfg := DefaultConfig()
	cfg.Machine.Boot = boot
	cfg.Disk.Drive0 = filepath.Join(t.TempDir(), "a.img")
	cfg.Disk.Drive1 = filepath.Join(t.TempDir(), "b.img")

	e, err := Launch(cfg, newTestConsole())
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Ports.Disk.DriveCount(); got != 2 {
		t.Errorf("drive count = %d, want 2", got)
	}
}

func TestEmulatorSaveOnExit(t *testing.T) {
	// Same as writeAndQuit, without the control port writes.
	prog := append(writeAndQuit[:len(writeAndQuit)-9:len(writeAndQuit)-9], 0x76)
	boot := writeFile(t, "boot.bin", bootImage(prog, 0x0300, make([]byte, hwdefs.SectorSize)))

	cfg := DefaultConfig()
	cfg.Machine.Boot = boot
	cfg.Disk.Drive0 = filepath.Join(t.TempDir(), "a.img")

	for _, saveOnExit := range []bool{false, true} {
		os.Remove(cfg.Disk.Drive0)
		cfg.Disk.SaveOnExit = saveOnExit

		e, err := Launch(cfg, newTestConsole())
		if err != nil {
			t.Fatal(err)
		}
		if err := runEmulator(t, e); err != nil {
			t.Fatalf("Run: %v", err)
		}

		_, err = os.Stat(cfg.Disk.Drive0)
		if saved := err == nil; saved != saveOnExit {
			t.Errorf("save_on_exit=%t: image saved = %t", saveOnExit, saved)
		}
	}
}

func TestEmulatorStop(t *testing.T) {
	tests := []struct {
		name string
		prog []byte
	}{
		{"loop", []byte{
			0x18, 0xFE, // JR $
		}},
		{"waiting for input", []byte{
			0xDB, 0x01, // IN A,(01h)
			0xB7,       // OR A
			0x20, 0xFB, // JR NZ,0000h
			0x76, // HALT
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Machine.Boot = writeFile(t, "boot.bin", tt.prog)

			e, err := Launch(cfg, newTestConsole())
			if err != nil {
				t.Fatal(err)
			}

			go func() {
				time.Sleep(20 * time.Millisecond)
				e.Stop()
			}()
			if err := runEmulator(t, e); err != nil {
				t.Fatalf("Run: %v", err)
			}
		})
	}
}

func TestEmulatorStopBeforeRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Machine.Boot = writeFile(t, "boot.bin", []byte{0x18, 0xFE})

	e, err := Launch(cfg, newTestConsole())
	if err != nil {
		t.Fatal(err)
	}
	e.Stop()
	if err := runEmulator(t, e); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestLaunchErrors(t *testing.T) {
	dir := t.TempDir()
	boot := writeFile(t, "boot.bin", []byte{0x76})
	big := writeFile(t, "big.img", make([]byte, hwdefs.DiskSize(hwdefs.DefaultTracks)+1))

	tests := []struct {
		name   string
		modify func(*Config)
		errstr string
	}{
		{"no boot", func(c *Config) { c.Machine.Boot = "" }, "no boot image"},
		{"missing boot", func(c *Config) { c.Machine.Boot = filepath.Join(dir, "nope") }, "boot image"},
		{"boot overflow", func(c *Config) { c.Machine.LoadAddr = 0xFFFF; c.Machine.Boot = big }, "overflow"},
		{"bad tracks", func(c *Config) { c.Disk.Tracks = 1000 }, "tracks"},
		{"bad rom size", func(c *Config) { c.Machine.ROMSize = -1 }, "rom_size"},
		{"image too big", func(c *Config) { c.Disk.Drive1 = big }, "drive 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Machine.Boot = boot
			tt.modify(&cfg)

			_, err := Launch(cfg, newTestConsole())
			if err == nil {
				t.Fatal("Launch succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.errstr) {
				t.Errorf("error %q doesn't contain %q", err, tt.errstr)
			}
		})
	}
}

func TestSaveDisksSkipsAbsentDrives(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Machine.Boot = writeFile(t, "boot.bin", []byte{0x76})

	e, err := Launch(cfg, newTestConsole())
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SaveDisks(); err != nil {
		t.Errorf("SaveDisks: %v", err)
	}
}

func TestSaveDisksError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Machine.Boot = writeFile(t, "boot.bin", []byte{0x76})
	cfg.Disk.Drive0 = filepath.Join(t.TempDir(), "missing", "a.img")

	e, err := Launch(cfg, newTestConsole())
	if err != nil {
		t.Fatal(err)
	}
	if !e.Drives[0].Write(0, make([]byte, hwdefs.SectorSize)) {
		t.Fatal("sector write failed")
	}

	err = e.SaveDisks()
	if err == nil {
		t.Fatal("SaveDisks succeeded in a missing directory")
	}
	if !strings.Contains(err.Error(), cfg.Disk.Drive0) {
		t.Errorf("error %q doesn't name the image %s", err, cfg.Disk.Drive0)
	}
}
