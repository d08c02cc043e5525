// Package ramdisk implements disk drives kept in memory and backed by an
// image file.
package ramdisk

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"z80box/emu/log"
	"z80box/hw/hwdefs"
)

// RAMDisk is a disk image held in memory. Writes only reach the image file
// when Save is called.
type RAMDisk struct {
	mu    sync.Mutex
	path  string
	data  []byte
	dirty bool
}

// New creates a RAM disk of size bytes, loaded from the image file at path
// if it exists. A RAM disk with an empty path is an absent drive.
func New(path string, size int) (*RAMDisk, error) {
	d := &RAMDisk{path: path}
	if path == "" {
		return d, nil
	}

	d.data = bytes.Repeat([]byte{hwdefs.EmptyByte}, size)
	buf, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		log.ModDisk.InfoZ("new disk image").String("path", path).Int("size", size).End()
		return d, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load disk image: %w", err)
	case len(buf) > size:
		return nil, fmt.Errorf("disk image %s is too big: %d bytes, max %d", path, len(buf), size)
	}

	copy(d.data, buf)
	log.ModDisk.InfoZ("loaded disk image").String("path", path).Int("size", len(buf)).End()
	return d, nil
}

// Format creates a blank disk image file with the given number of tracks.
func Format(path string, tracks int) error {
	if tracks <= 0 || tracks > 256 {
		return fmt.Errorf("invalid number of tracks: %d", tracks)
	}
	d := &RAMDisk{
		path:  path,
		data:  bytes.Repeat([]byte{hwdefs.EmptyByte}, hwdefs.DiskSize(tracks)),
		dirty: true,
	}
	return d.Save()
}

func (d *RAMDisk) IsAvailable() bool { return d.path != "" }

func (d *RAMDisk) Path() string { return d.path }

// Size returns the image size in bytes.
func (d *RAMDisk) Size() int { return len(d.data) }

// Dirty reports whether the image has unsaved changes.
func (d *RAMDisk) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}

// block returns the n bytes at sector, or nil if out of the image.
func (d *RAMDisk) block(sector uint, n int) []byte {
	off := sector * hwdefs.SectorSize
	size := uint(len(d.data))
	if off > size || uint(n) > size-off {
		return nil
	}
	return d.data[off : off+uint(n)]
}

func (d *RAMDisk) Read(sector uint, buf []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	blk := d.block(sector, len(buf))
	if blk == nil {
		return false
	}
	copy(buf, blk)
	return true
}

func (d *RAMDisk) Write(sector uint, buf []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	blk := d.block(sector, len(buf))
	if blk == nil {
		return false
	}
	copy(blk, buf)
	d.dirty = true
	return true
}

// Save writes the image file if it has been modified since last save.
func (d *RAMDisk) Save() error {
	if !d.IsAvailable() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.dirty {
		return nil
	}
	if err := writeFileAtomic(d.path, d.data); err != nil {
		return fmt.Errorf("failed to save disk image: %w", err)
	}
	d.dirty = false
	log.ModDisk.InfoZ("saved disk image").String("path", d.path).End()
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(f.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
