package main

import (
	"fmt"
	"strings"
)

// ConsoleDevice is the character I/O capability M-mode relays SBI console
// calls to. GetChar reports ok=false when no input is waiting.
type ConsoleDevice interface {
	PutChar(ch byte)
	GetChar() (byte, bool)
}

// Console backends, chosen once when the machine is built.
const (
	CONSOLE_BACKEND_UART16550 = iota
	CONSOLE_BACKEND_SIFIVE
	CONSOLE_BACKEND_HTIF
	CONSOLE_BACKEND_HOST
	CONSOLE_BACKEND_FRAMEBUFFER
	CONSOLE_BACKEND_WINDOW
)

var consoleBackendNames = map[string]int{
	"uart16550":   CONSOLE_BACKEND_UART16550,
	"sifive":      CONSOLE_BACKEND_SIFIVE,
	"htif":        CONSOLE_BACKEND_HTIF,
	"host":        CONSOLE_BACKEND_HOST,
	"framebuffer": CONSOLE_BACKEND_FRAMEBUFFER,
	"window":      CONSOLE_BACKEND_WINDOW,
}

// parseConsoleBackend maps a -console flag value to a backend constant.
func parseConsoleBackend(name string) (int, error) {
	kind, ok := consoleBackendNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown console backend %q", name)
	}
	return kind, nil
}

// Console is the single console capability the SBI service sees. The
// backing device is fixed at construction; call sites never branch on it.
type Console struct {
	kind   int
	device ConsoleDevice
}

// NewConsole wraps device as backend kind.
func NewConsole(kind int, device ConsoleDevice) (*Console, error) {
	if device == nil {
		return nil, fmt.Errorf("console backend %d: nil device", kind)
	}
	return &Console{kind: kind, device: device}, nil
}

// Kind returns the backend constant.
func (c *Console) Kind() int { return c.kind }

// Device returns the backing device.
func (c *Console) Device() ConsoleDevice { return c.device }

func (c *Console) PutChar(ch byte) {
	c.device.PutChar(ch)
}

func (c *Console) GetChar() (byte, bool) {
	return c.device.GetChar()
}

// PutString writes s byte by byte (putstring).
func (c *Console) PutString(s string) {
	for i := 0; i < len(s); i++ {
		c.device.PutChar(s[i])
	}
}

// Printf formats into a bounded buffer and writes it out (printm).
func (c *Console) Printf(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	if len(s) > PRINTM_MAX {
		s = s[:PRINTM_MAX]
	}
	c.PutString(s)
}

// PRINTM_MAX matches the fixed formatting buffer of the firmware printm.
const PRINTM_MAX = 255
