//go:build !windows

// terminal_host.go - Host terminal attached to the 16550 console

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
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// TERMINAL_ESCAPE (Ctrl-]) detaches the host terminal instead of being
// delivered to the guest.
const TERMINAL_ESCAPE = 0x1D

// TerminalHost connects the process terminal to a UART16550: raw stdin
// bytes go to the receiver, transmitted bytes go to stdout.
// Only instantiated in main.go for interactive use, never in tests.
type TerminalHost struct {
	uart         *UART16550
	bell         *ConsoleBell
	onEscape     func()
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	started      bool
	fd           int
	nonblockSet  bool
	oldTermState *term.State
	outMu        sync.Mutex
}

// NewTerminalHost creates a host adapter for uart. bell may be nil.
func NewTerminalHost(uart *UART16550, bell *ConsoleBell) *TerminalHost {
	h := &TerminalHost{
		uart:   uart,
		bell:   bell,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	uart.OnTransmit(h.transmit)
	return h
}

// OnEscape sets the callback for the detach key.
func (h *TerminalHost) OnEscape(fn func()) { h.onEscape = fn }

func (h *TerminalHost) transmit(b byte) {
	if b == 0x07 && h.bell != nil {
		h.bell.Ring()
	}
	h.outMu.Lock()
	defer h.outMu.Unlock()
	// Raw mode turns off output post-processing.
	if b == '\n' && h.oldTermState != nil {
		os.Stdout.Write([]byte{'\r', '\n'})
		return
	}
	os.Stdout.Write([]byte{b})
}

// Start puts stdin in raw non-blocking mode and begins reading in a
// goroutine. If stdin is not a terminal only output is connected.
func (h *TerminalHost) Start() {
	h.started = true
	h.fd = int(os.Stdin.Fd())
	if !term.IsTerminal(h.fd) {
		close(h.done)
		return
	}

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.outMu.Lock()
	h.oldTermState = oldState
	h.outMu.Unlock()

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set nonblocking stdin: %v\n", err)
		h.restore()
		close(h.done)
		return
	}
	h.nonblockSet = true

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := syscall.Read(h.fd, buf)
			if n > 0 {
				if buf[0] == TERMINAL_ESCAPE && h.onEscape != nil {
					h.onEscape()
					continue
				}
				h.uart.EnqueueByte(buf[0])
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
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

// Stop terminates the reader and restores the terminal.
func (h *TerminalHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	if !h.started {
		return
	}
	<-h.done
	if h.nonblockSet {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
	h.restore()
}

func (h *TerminalHost) restore() {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
