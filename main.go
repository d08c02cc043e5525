package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime/debug"

	"z80box/hw/hwdefs"
	"z80box/hw/ramdisk"
)

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case runMode:
		os.Exit(runMain(cli.Run))
	case mkdiskMode:
		mkdiskMain(cli.Mkdisk)
	case versionMode:
		printVersion()
	}
}

func mkdiskMain(args Mkdisk) {
	if !args.Force {
		_, err := os.Stat(args.Path)
		if err == nil {
			fatalf("%s already exists, use --force to overwrite it", args.Path)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			checkf(err, "failed to access %s", args.Path)
		}
	}

	checkf(ramdisk.Format(args.Path, args.Tracks), "failed to create disk image")
	fmt.Printf("created %s: %d tracks, %d bytes\n", args.Path, args.Tracks, hwdefs.DiskSize(args.Tracks))
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("z80box", version)
}
