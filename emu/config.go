package emu

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"z80box/emu/log"
	"z80box/hw/hwdefs"
)

type Config struct {
	Machine MachineConfig `toml:"machine"`
	Disk    DiskConfig    `toml:"disk"`
	Console ConsoleConfig `toml:"console"`

	TraceOut  io.Writer `toml:"-"`
	TraceJSON bool      `toml:"-"`
}

type MachineConfig struct {
	Boot     string `toml:"boot"`      // boot image path
	LoadAddr uint16 `toml:"load_addr"` // where the boot image is loaded and executed
	ROMSize  int    `toml:"rom_size"`  // size of the write-protected area at 0000h
}

type DiskConfig struct {
	Drive0     string `toml:"drive0"`
	Drive1     string `toml:"drive1"`
	Tracks     int    `toml:"tracks"`
	SaveOnExit bool   `toml:"save_on_exit"`
}

type ConsoleConfig struct {
	Raw bool `toml:"raw"`
}

func DefaultConfig() Config {
	return Config{
		Disk:    DiskConfig{Tracks: hwdefs.DefaultTracks},
		Console: ConsoleConfig{Raw: true},
	}
}

// Check validates the configuration, fixing what can be fixed.
func (cfg *Config) Check() error {
	if cfg.Machine.Boot == "" {
		return errors.New("no boot image")
	}
	if cfg.Machine.ROMSize < 0 || cfg.Machine.ROMSize > hwdefs.MemSize {
		return fmt.Errorf("invalid rom_size %d", cfg.Machine.ROMSize)
	}
	if cfg.Disk.Tracks == 0 {
		cfg.Disk.Tracks = hwdefs.DefaultTracks
	}
	if cfg.Disk.Tracks < 0 || cfg.Disk.Tracks > 256 {
		return fmt.Errorf("invalid number of tracks %d", cfg.Disk.Tracks)
	}
	if cfg.Disk.Drive0 == "" && cfg.Disk.Drive1 != "" {
		log.ModEmu.WarnZ("secondary drive without primary drive").String("drive1", cfg.Disk.Drive1).End()
	}
	return nil
}

const cfgFilename = "config.toml"

var configDir = sync.OnceValues(func() (string, error) {
	dir := configdir.LocalConfig("z80box")
	if err := configdir.MakePath(dir); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dir, nil
})

// DefaultConfigPath returns the path of the configuration file in the
// z80box config directory.
func DefaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cfgFilename), nil
}

// LoadConfig loads the configuration file at path. Missing values keep their
// default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	for _, key := range md.Undecoded() {
		log.ModEmu.WarnZ("unknown config key").String("key", key.String()).String("path", path).End()
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the z80box config
// directory, or provide a default one.
func LoadConfigOrDefault() Config {
	path, err := DefaultConfigPath()
	if err != nil {
		log.ModEmu.WarnZ("no config directory").Error("err", err).End()
		return DefaultConfig()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.ModEmu.WarnZ("using default config").Error("err", err).End()
		}
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig writes cfg at path.
func SaveConfig(cfg Config, path string) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
