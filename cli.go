package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"z80box/emu/log"
)

type mode byte

const (
	runMode     mode = iota // Run a boot image
	mkdiskMode              // Create a blank disk image
	versionMode             // Show z80box version
)

type (
	CLI struct {
		Run     Run     `cmd:"" help:"Run boot image in emulator."`
		Mkdisk  Mkdisk  `cmd:"" help:"Create a blank disk image."`
		Version Version `cmd:"" help:"Show z80box version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Run struct {
		BootPath string `arg:"" name:"/path/to/boot" help:"${bootpath_help}" required:"true" type:"existingfile"`

		Drive0     string   `name:"drive0" help:"Primary drive image." type:"path"`
		Drive1     string   `name:"drive1" help:"Secondary drive image." type:"path"`
		Config     string   `name:"config" help:"${config_help}" type:"existingfile"`
		LoadAddr   string   `name:"load-addr" help:"Address where the boot image is loaded and executed." placeholder:"ADDR"`
		SaveOnExit bool     `name:"save-on-exit" help:"Save modified drives when the emulator exits."`
		SaveConfig bool     `name:"save-config" help:"${saveconfig_help}"`
		NoRaw      bool     `name:"no-raw" help:"Do not put the terminal in raw mode."`
		CPUProfile string   `name:"cpuprofile" help:"${cpuprofile_help}" type:"path"`
		Trace      *outfile `name:"trace" help:"Write port access trace." placeholder:"FILE|stdout|stderr"`
		TraceJSON  bool     `name:"trace-json" help:"Write port access trace as JSON lines."`
		Port       int      `name:"port" hidden:"true"`
	}

	Mkdisk struct {
		Path   string `arg:"" name:"/path/to/image" help:"Disk image to create." type:"path"`
		Tracks int    `name:"tracks" help:"Number of tracks." default:"${default_tracks}"`
		Force  bool   `name:"force" short:"f" help:"Overwrite existing image."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"bootpath_help":   "Boot image, loaded at the configured load address.",
	"config_help":     "Configuration file (default: z80box config directory).",
	"cpuprofile_help": "Write CPU profile into directory.",
	"log_help":        "Enable logging for specified modules.",
	"saveconfig_help": "Write the resulting configuration back to the configuration file.",
	"default_tracks":  "77",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("z80box"),
		kong.Description("Z80 computer emulator with console and disk drives."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "mkdisk </path/to/image>":
		cfg.mode = mkdiskMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "run") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
