// power.go - Poweroff and the SiFive test finisher

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
	"sync"
)

// PowerControl is the platform "power off with exit code" capability.
type PowerControl interface {
	PowerOff(code uint16)
}

// HaltReason separates an intentional shutdown from a trap M-mode could
// not explain. Both are terminal.
type HaltReason int

const (
	HaltShutdown HaltReason = iota
	HaltUnhandlable
)

func (r HaltReason) String() string {
	switch r {
	case HaltShutdown:
		return "shutdown"
	case HaltUnhandlable:
		return "unhandlable trap"
	default:
		return fmt.Sprintf("HaltReason(%d)", int(r))
	}
}

// HaltInfo records the first poweroff of the machine.
type HaltInfo struct {
	Hart    int
	Code    uint16
	Reason  HaltReason
	Message string
}

// SiFive test finisher encodings
const (
	FINISHER_PASS  = 0x5555
	FINISHER_FAIL  = 0x3333
	FINISHER_RESET = 0x7777
)

// TestFinisher is the SiFive "test" MMIO device: one 32-bit register whose
// write ends the simulation.
type TestFinisher struct {
	mu      sync.Mutex
	written bool
	value   uint32
}

func NewTestFinisher() *TestFinisher {
	return &TestFinisher{}
}

func (f *TestFinisher) HandleWrite(value uint32) {
	f.mu.Lock()
	if !f.written {
		f.written = true
		f.value = value
	}
	f.mu.Unlock()
}

// PowerOff writes PASS for code 0, otherwise code<<16 | FAIL.
func (f *TestFinisher) PowerOff(code uint16) {
	if code == 0 {
		f.HandleWrite(FINISHER_PASS)
		return
	}
	f.HandleWrite(uint32(code)<<16 | FINISHER_FAIL)
}

// Value returns the register contents and whether it was ever written.
func (f *TestFinisher) Value() (uint32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.written
}

// poweroff prints the banner, records the halt and stops the machine. With
// a power device the machine is gone as soon as it is told; without one
// every hart is sent IPI_HALT and the caller parks in its idle loop.
func (m *Machine) poweroff(h *Hart, code uint16, reason HaltReason, msg string) TrapOutcome {
	m.console.PutString("Power off\r\n")
	m.tracef("hart%d: poweroff code=%d reason=%s\n", h.id, code, reason)

	first := false
	m.haltOnce.Do(func() {
		first = true
		m.halt = HaltInfo{Hart: h.id, Code: code, Reason: reason, Message: msg}
	})
	if !first {
		// The first caller may be waiting on our doorbell for IPI_HALT.
		m.table.Self(h.id).TakeDoorbell()
		h.parked.Store(true)
		return TrapHalted
	}

	if m.power != nil {
		m.power.PowerOff(code)
	} else {
		m.SendIPIMany(h, 0, IPI_HALT)
	}
	h.parked.Store(true)
	close(m.off)
	return TrapHalted
}

// die reports an unhandlable condition on the console and powers off.
func (m *Machine) die(h *Hart, format string, args ...any) TrapOutcome {
	msg := fmt.Sprintf(format, args...)
	m.console.Printf("%s\r\n", msg)
	return m.poweroff(h, POWEROFF_FATAL, HaltUnhandlable, msg)
}

// badTrap is the terminal path for any trap cause M-mode does not handle.
func (m *Machine) badTrap(h *Hart, mepc uint64) TrapOutcome {
	return m.die(h, "machine mode: unhandlable trap %d @ %#x", h.csr.Read(CSR_MCAUSE), mepc)
}
