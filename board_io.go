package main

import (
	"fmt"
	"os"
	"sync"
	"time"
)

const OUTPUT_PUMP_INTERVAL = 10 * time.Millisecond

// Power devices selectable with -power.
const (
	POWER_FINISHER = "finisher"
	POWER_HTIF     = "htif"
	POWER_NONE     = "none"
)

var powerDeviceNames = []string{POWER_FINISHER, POWER_HTIF, POWER_NONE}

// drainer is a console device that buffers transmitted bytes until the
// host collects them.
type drainer interface {
	DrainOutput() string
}

// boardIO wires the chosen console and power devices to the host process.
type boardIO struct {
	console *Console
	power   PowerControl

	host   *TerminalHost
	fb     *FramebufferConsole
	window *WindowConsole
	bell   *ConsoleBell
	cancel func()

	pumped   drainer
	pumpMu   sync.Mutex
	pumpStop chan struct{}
	pumpDone chan struct{}
}

func newBoardIO(kind int, power string, cancel func()) (*boardIO, error) {
	b := &boardIO{cancel: cancel}

	var err error
	if kind == CONSOLE_BACKEND_HOST || kind == CONSOLE_BACKEND_FRAMEBUFFER || kind == CONSOLE_BACKEND_WINDOW {
		if b.bell, err = NewConsoleBell(); err != nil {
			fmt.Fprintf(os.Stderr, "console bell disabled: %v\n", err)
		}
	}

	var dev ConsoleDevice
	var htif *HTIF
	switch kind {
	case CONSOLE_BACKEND_UART16550:
		uart := NewUART16550()
		uart.OnTransmit(func(ch byte) { os.Stdout.Write([]byte{ch}) })
		dev = uart
	case CONSOLE_BACKEND_SIFIVE:
		uart := NewSiFiveUART()
		b.pumped = uart
		dev = uart
	case CONSOLE_BACKEND_HTIF:
		htif = NewHTIF()
		b.pumped = htif
		dev = htif
	case CONSOLE_BACKEND_HOST:
		uart := NewUART16550()
		b.host = NewTerminalHost(uart, b.bell)
		b.host.OnEscape(cancel)
		dev = uart
	case CONSOLE_BACKEND_FRAMEBUFFER, CONSOLE_BACKEND_WINDOW:
		b.fb = NewFramebufferConsole()
		if b.bell != nil {
			b.fb.Grid().OnBell(b.bell.Ring)
		}
		if kind == CONSOLE_BACKEND_WINDOW {
			if b.window, err = NewWindowConsole(b.fb); err != nil {
				return nil, err
			}
		}
		dev = b.fb
	default:
		return nil, fmt.Errorf("console backend %d not available", kind)
	}

	cons, err := NewConsole(kind, dev)
	if err != nil {
		return nil, err
	}
	b.console = cons

	switch power {
	case POWER_FINISHER:
		b.power = NewTestFinisher()
	case POWER_HTIF:
		if htif == nil {
			htif = NewHTIF()
		}
		b.power = htif
	case POWER_NONE:
	default:
		return nil, fmt.Errorf("unknown power device %q", power)
	}
	return b, nil
}

// Start connects the host side: terminal, window and output pump.
func (b *boardIO) Start() error {
	if b.host != nil {
		b.host.Start()
	}
	if b.window != nil {
		if err := b.window.Start(); err != nil {
			return err
		}
		go func() {
			<-b.window.Done()
			b.cancel()
		}()
	}
	if b.pumped != nil {
		b.pumpStop = make(chan struct{})
		b.pumpDone = make(chan struct{})
		go b.pump()
	}
	return nil
}

// pump copies buffered console output to stdout, like polling the device
// from the host main loop.
func (b *boardIO) pump() {
	defer close(b.pumpDone)
	ticker := time.NewTicker(OUTPUT_PUMP_INTERVAL)
	defer ticker.Stop()
	for {
		select {
		case <-b.pumpStop:
			return
		case <-ticker.C:
			b.Flush()
		}
	}
}

// Flush writes out anything still buffered in the console device.
func (b *boardIO) Flush() {
	if b.pumped == nil {
		return
	}
	b.pumpMu.Lock()
	defer b.pumpMu.Unlock()
	if out := b.pumped.DrainOutput(); out != "" {
		fmt.Print(out)
	}
}

// Close releases host resources. A framebuffer console is saved to png,
// or printed as text when no path is given.
func (b *boardIO) Close(png string) {
	if b.pumpStop != nil {
		close(b.pumpStop)
		<-b.pumpDone
		b.Flush()
	}
	if b.host != nil {
		b.host.Stop()
	}
	if b.fb != nil {
		grid := b.fb.Grid()
		if png != "" {
			if err := grid.SavePNG(png); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		} else if b.window == nil {
			_, row := grid.Cursor()
			for r := 0; r <= row; r++ {
				fmt.Println(grid.Line(r))
			}
		}
	}
	if b.bell != nil {
		b.bell.Close()
	}
}
