//go:build windows

package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

const TERMINAL_ESCAPE = 0x1D

// TerminalHost connects the console window to a UART16550.
// Only instantiated in main.go for interactive use - never in tests.
type TerminalHost struct {
	uart         *UART16550
	bell         *ConsoleBell
	onEscape     func()
	stopCh       chan struct{}
	stopped      sync.Once
	fd           int
	oldTermState *term.State
	outMu        sync.Mutex
}

func NewTerminalHost(uart *UART16550, bell *ConsoleBell) *TerminalHost {
	h := &TerminalHost{
		uart:   uart,
		bell:   bell,
		stopCh: make(chan struct{}),
	}
	uart.OnTransmit(h.transmit)
	return h
}

func (h *TerminalHost) OnEscape(fn func()) { h.onEscape = fn }

func (h *TerminalHost) transmit(b byte) {
	if b == 0x07 && h.bell != nil {
		h.bell.Ring()
	}
	h.outMu.Lock()
	defer h.outMu.Unlock()
	if b == '\n' && h.oldTermState != nil {
		os.Stdout.Write([]byte{'\r', '\n'})
		return
	}
	os.Stdout.Write([]byte{b})
}

// Start sets stdin to raw mode and begins reading in a goroutine. The
// console read blocks, so the goroutine only notices Stop after the next key.
func (h *TerminalHost) Start() {
	h.fd = int(os.Stdin.Fd())
	if !term.IsTerminal(h.fd) {
		return
	}
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set raw mode: %v\n", err)
		return
	}
	h.outMu.Lock()
	h.oldTermState = oldState
	h.outMu.Unlock()

	go func() {
		buf := make([]byte, 1)
		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if buf[0] == TERMINAL_ESCAPE && h.onEscape != nil {
					h.onEscape()
					continue
				}
				h.uart.EnqueueByte(buf[0])
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

func (h *TerminalHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	h.outMu.Lock()
	defer h.outMu.Unlock()
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
