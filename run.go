package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/profile"

	"z80box/emu"
	"z80box/emu/rpc"
	"z80box/hw/term"
)

// runConfig loads the configuration and applies the command line on top
// of it.
func runConfig(args Run) emu.Config {
	var cfg emu.Config
	if args.Config != "" {
		var err error
		cfg, err = emu.LoadConfig(args.Config)
		checkf(err, "failed to load configuration")
	} else {
		cfg = emu.LoadConfigOrDefault()
	}

	cfg.Machine.Boot = args.BootPath
	if args.LoadAddr != "" {
		addr, err := strconv.ParseUint(args.LoadAddr, 0, 16)
		checkf(err, "invalid load address %q", args.LoadAddr)
		cfg.Machine.LoadAddr = uint16(addr)
	}
	if args.Drive0 != "" {
		cfg.Disk.Drive0 = args.Drive0
	}
	if args.Drive1 != "" {
		cfg.Disk.Drive1 = args.Drive1
	}
	if args.SaveOnExit {
		cfg.Disk.SaveOnExit = true
	}
	if args.NoRaw {
		cfg.Console.Raw = false
	}
	return cfg
}

// saveRunConfig writes cfg to the --config file, or to the default
// configuration file.
func saveRunConfig(args Run, cfg emu.Config) error {
	path := args.Config
	if path == "" {
		var err error
		if path, err = emu.DefaultConfigPath(); err != nil {
			return err
		}
	}
	if err := emu.SaveConfig(cfg, path); err != nil {
		return err
	}
	fmt.Println("configuration saved to", path)
	return nil
}

// runMain runs the emulator with the given boot image and returns the
// process exit code.
func runMain(args Run) int {
	cfg := runConfig(args)
	if args.SaveConfig {
		checkf(saveRunConfig(args, cfg), "failed to save configuration")
	}
	if args.Trace != nil {
		defer args.Trace.Close()
		cfg.TraceOut = args.Trace
		cfg.TraceJSON = args.TraceJSON
	}

	con, err := term.Open(cfg.Console.Raw)
	checkf(err, "failed to open console")

	emulator, err := emu.Launch(cfg, con)
	if err != nil {
		con.Close()
		fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
		return 1
	}

	if args.CPUProfile != "" {
		defer profile.Start(
			profile.CPUProfile,
			profile.ProfilePath(args.CPUProfile),
			profile.NoShutdownHook,
		).Stop()
	}

	if args.Port != 0 {
		server, err := rpc.NewServer(args.Port, emulator)
		if err != nil {
			con.Close()
			fmt.Fprintf(os.Stderr, "RPC error: %v\n", err)
			return 1
		}
		defer server.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := emulator.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "emulation error: %v\n", err)
		return 1
	}
	return 0
}
