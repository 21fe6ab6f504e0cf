// machine.go - Machine assembly and run loop

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

/*
A Machine owns everything that is process-wide in the firmware: the hart
table and its boot-time masks, the console capability, the power device,
guest memory and mtime. It is built once by NewMachine and is immutable
afterwards apart from the atomic per-hart state and the halt record.

Run starts one goroutine per hart. Each goroutine runs the workload for its
hart and then sits in the idle loop, taking interrupts, until the machine
powers off or the context is cancelled.
*/

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DEFAULT_HARTS         = 4
	DEFAULT_XLEN          = 64
	DEFAULT_SUPERVISOR_PC = GUEST_RAM_BASE + 0x200000
	DEFAULT_STVEC         = GUEST_RAM_BASE + 0x200100

	idlePollInterval = 50 * time.Microsecond
)

// MachineConfig is everything fixed at boot.
type MachineConfig struct {
	Harts        int
	DisabledMask uint64
	Xlen         int
	MemoryBase   uint64
	MemorySize   int
	Console      *Console
	Power        PowerControl  // nil: halt by broadcasting IPI_HALT
	Timer        *MachineTimer // nil: wall clock
	Trace        io.Writer     // nil: no trace
	Stvec        uint64
	EntryPC      uint64
}

// DefaultMachineConfig returns a 4-hart RV64 board with a 16550 console
// and a test finisher.
func DefaultMachineConfig() MachineConfig {
	return MachineConfig{
		Harts:      DEFAULT_HARTS,
		Xlen:       DEFAULT_XLEN,
		MemoryBase: GUEST_RAM_BASE,
		MemorySize: GUEST_DEFAULT_SIZE,
		Power:      NewTestFinisher(),
		Stvec:      DEFAULT_STVEC,
		EntryPC:    DEFAULT_SUPERVISOR_PC,
	}
}

type Machine struct {
	harts   []*Hart
	table   *HartTable
	memory  *GuestMemory
	console *Console
	power   PowerControl
	timer   *MachineTimer
	trace   io.Writer
	xlen    int

	traceMu  sync.Mutex
	haltOnce sync.Once
	halt     HaltInfo
	off      chan struct{}
}

// NewMachine validates cfg and builds the machine.
func NewMachine(cfg MachineConfig) (*Machine, error) {
	if cfg.Xlen != 32 && cfg.Xlen != 64 {
		return nil, fmt.Errorf("unsupported xlen %d", cfg.Xlen)
	}
	if cfg.Console == nil {
		cons, err := NewConsole(CONSOLE_BACKEND_UART16550, NewUART16550())
		if err != nil {
			return nil, err
		}
		cfg.Console = cons
	}
	if cfg.MemorySize <= 0 {
		cfg.MemorySize = GUEST_DEFAULT_SIZE
	}
	if cfg.MemoryBase == 0 {
		cfg.MemoryBase = GUEST_RAM_BASE
	}
	table, err := NewHartTable(cfg.Harts, cfg.DisabledMask)
	if err != nil {
		return nil, fmt.Errorf("hart table: %w", err)
	}
	timer := cfg.Timer
	if timer == nil {
		timer = NewMachineTimer()
	}

	m := &Machine{
		table:   table,
		memory:  NewGuestMemory(cfg.MemoryBase, cfg.MemorySize),
		console: cfg.Console,
		power:   cfg.Power,
		timer:   timer,
		trace:   cfg.Trace,
		xlen:    cfg.Xlen,
		off:     make(chan struct{}),
	}
	m.harts = make([]*Hart, cfg.Harts)
	for i := range m.harts {
		m.harts[i] = newHart(m, i, cfg.EntryPC, cfg.Stvec)
	}
	return m, nil
}

// Hart returns hart id.
func (m *Machine) Hart(id int) *Hart { return m.harts[id] }

// Harts returns the number of harts.
func (m *Machine) Harts() int { return len(m.harts) }

func (m *Machine) Table() *HartTable    { return m.table }
func (m *Machine) Memory() *GuestMemory { return m.memory }
func (m *Machine) Console() *Console    { return m.console }
func (m *Machine) Timer() *MachineTimer { return m.timer }

// Off is closed once the machine has powered off.
func (m *Machine) Off() <-chan struct{} { return m.off }

// Halted returns the halt record once the machine has powered off.
func (m *Machine) Halted() (HaltInfo, bool) {
	select {
	case <-m.off:
		return m.halt, true
	default:
		return HaltInfo{}, false
	}
}

// tracef writes one diagnostic line to the trace sink.
func (m *Machine) tracef(format string, args ...any) {
	if m.trace == nil {
		return
	}
	m.traceMu.Lock()
	fmt.Fprintf(m.trace, format, args...)
	m.traceMu.Unlock()
}

// Workload is the supervisor-side program run on one hart.
type Workload func(ctx context.Context, h *Hart) error

// Run starts every hart and blocks until poweroff, cancellation or a
// workload error. Disabled harts run no workload; every hart ends up in
// the idle loop.
func (m *Machine) Run(ctx context.Context, work Workload) (HaltInfo, error) {
	g, gctx := errgroup.WithContext(ctx)
	for _, h := range m.harts {
		g.Go(func() error {
			if work != nil && !m.table.Disabled(h.id) {
				if err := work(gctx, h); err != nil {
					return fmt.Errorf("hart %d: %w", h.id, err)
				}
			}
			return h.idle(gctx)
		})
	}
	err := g.Wait()
	if info, ok := m.Halted(); ok {
		return info, nil
	}
	if err == nil {
		err = ctx.Err()
	}
	return HaltInfo{}, err
}

// idle is the wfi loop: take interrupts until parked or powered off.
func (h *Hart) idle(ctx context.Context) error {
	for {
		if h.Poll() == TrapHalted {
			select {
			case <-h.m.off:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		select {
		case <-h.m.off:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if h.local.Doorbell() == 0 {
			time.Sleep(idlePollInterval)
		} else {
			runtime.Gosched()
		}
	}
}
