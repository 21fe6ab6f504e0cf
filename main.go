// main.go - Command line entry point for IntuitionSBI

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/


package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147mIntuitionSBI\033[0m - RISC-V machine-mode trap runtime")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/IntuitionEngine")
	fmt.Println("License: GPLv3 or later")
	fmt.Println()
}

// cliOptions is the board as requested on the command line.
type cliOptions struct {
	harts    int
	disable  string
	console  string
	power    string
	xlen     int
	memMiB   int
	script   string
	trace    string
	png      string
	timeout  time.Duration
	features bool
	quiet    bool
}

func newFlagSet(o *cliOptions) *flag.FlagSet {
	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.IntVar(&o.harts, "harts", DEFAULT_HARTS, "Number of harts (1-32)")
	flagSet.StringVar(&o.disable, "disable", "", "Comma separated hart ids to leave disabled")
	flagSet.StringVar(&o.console, "console", "uart16550", "Console backend: uart16550, sifive, htif, host, framebuffer, window")
	flagSet.StringVar(&o.power, "power", POWER_FINISHER, "Power device: "+strings.Join(powerDeviceNames, ", "))
	flagSet.IntVar(&o.xlen, "xlen", DEFAULT_XLEN, "Register width: 32 or 64")
	flagSet.IntVar(&o.memMiB, "mem", GUEST_DEFAULT_SIZE>>20, "Guest RAM in MiB")
	flagSet.StringVar(&o.script, "script", "", "Lua workload script")
	flagSet.StringVar(&o.trace, "trace", "", "Write M-mode trace to file (- for stderr)")
	flagSet.StringVar(&o.png, "png", "", "Save the framebuffer console to a PNG on exit")
	flagSet.DurationVar(&o.timeout, "timeout", 0, "Stop the machine after this long (0: no limit)")
	flagSet.BoolVar(&o.features, "features", false, "Print compiled features and exit")
	flagSet.BoolVar(&o.quiet, "quiet", false, "Skip the banner")
	return flagSet
}

// applyBoard fills in settings from a script's board table. Flags given
// explicitly on the command line win.
func (o *cliOptions) applyBoard(b BoardSettings, set map[string]bool) {
	if b.Harts != nil && !set["harts"] {
		o.harts = *b.Harts
	}
	if b.Disabled != nil && !set["disable"] {
		ids := make([]string, len(b.Disabled))
		for i, id := range b.Disabled {
			ids[i] = strconv.Itoa(id)
		}
		o.disable = strings.Join(ids, ",")
	}
	if b.Console != nil && !set["console"] {
		o.console = *b.Console
	}
	if b.Power != nil && !set["power"] {
		o.power = *b.Power
	}
	if b.Xlen != nil && !set["xlen"] {
		o.xlen = *b.Xlen
	}
	if b.MemMiB != nil && !set["mem"] {
		o.memMiB = *b.MemMiB
	}
}

// parseHartMask turns "1,3" into a hart mask.
func parseHartMask(list string) (uint64, error) {
	var mask uint64
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.Atoi(field)
		if err != nil {
			return 0, fmt.Errorf("bad hart id %q", field)
		}
		if id < 0 || id >= MAX_HARTS {
			return 0, fmt.Errorf("hart id %d out of range", id)
		}
		mask |= uint64(1) << uint(id)
	}
	return mask, nil
}

// exitStatus maps a poweroff code to a process exit status.
func exitStatus(code uint16) int {
	if code == POWEROFF_OK {
		return 0
	}
	if code&0xFF == 0 {
		return 1
	}
	return int(code & 0xFF)
}

func main() {
	var opts cliOptions
	flagSet := newFlagSet(&opts)
	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./intuition_sbi [-harts 4] [-console uart16550] [-power finisher] [-script workload.lua]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if opts.features {
		writeFeatures(os.Stdout)
		os.Exit(0)
	}
	if !opts.quiet {
		boilerPlate()
	}

	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	work := Workload(demoWorkload)
	if opts.script != "" {
		script, err := LoadLuaScript(opts.script)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		opts.applyBoard(script.Board, set)
		work = script.Workload()
	}

	code, err := run(opts, work)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitStatus(code))
}

// run builds the board described by opts, runs it to poweroff and
// returns the poweroff code.
func run(opts cliOptions, work Workload) (uint16, error) {
	disabled, err := parseHartMask(opts.disable)
	if err != nil {
		return 0, fmt.Errorf("-disable: %w", err)
	}
	kind, err := parseConsoleBackend(opts.console)
	if err != nil {
		return 0, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	board, err := newBoardIO(kind, opts.power, cancel)
	if err != nil {
		return 0, err
	}
	defer board.Close(opts.png)

	cfg := DefaultMachineConfig()
	cfg.Harts = opts.harts
	cfg.DisabledMask = disabled
	cfg.Xlen = opts.xlen
	cfg.MemorySize = opts.memMiB << 20
	cfg.Console = board.console
	cfg.Power = board.power

	switch opts.trace {
	case "":
	case "-":
		cfg.Trace = os.Stderr
	default:
		f, err := os.Create(opts.trace)
		if err != nil {
			return 0, fmt.Errorf("-trace: %w", err)
		}
		defer f.Close()
		cfg.Trace = f
	}

	m, err := NewMachine(cfg)
	if err != nil {
		return 0, err
	}
	if err := board.Start(); err != nil {
		return 0, err
	}

	start := time.Now()
	halt, err := m.Run(ctx, work)
	board.Flush()
	if err != nil {
		return 0, err
	}

	fmt.Fprintf(os.Stderr, "\nhart %d powered off: %s (code %#x) after %v\n",
		halt.Hart, halt.Reason, halt.Code, time.Since(start).Round(time.Millisecond))
	if halt.Message != "" && halt.Reason != HaltShutdown {
		fmt.Fprintf(os.Stderr, "  %s\n", halt.Message)
	}
	if f, ok := board.power.(*TestFinisher); ok {
		if v, written := f.Value(); written {
			fmt.Fprintf(os.Stderr, "  test finisher: %#08x\n", v)
		}
	}
	return halt.Code, nil
}
