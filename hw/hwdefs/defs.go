package hwdefs

// Disk geometry, shared by the disk controller and the block stores.
const (
	SectorSize      = 128 // bytes per sector
	SectorsPerTrack = 26
	DefaultTracks   = 77

	// EmptyByte fills never written sectors, as on a freshly formatted
	// CP/M disk.
	EmptyByte = 0xE5
)

// DiskSize returns the size in bytes of a disk image with the given number
// of tracks.
func DiskSize(tracks int) int {
	return tracks * SectorsPerTrack * SectorSize
}

// Number of drives the disk controller can address.
const MaxDrives = 2

// Size of the CPU address space.
const MemSize = 0x10000
