package main

/*
htif.go - Host-Target Interface (tohost/fromhost)

Commands are packed as dev<<56 | cmd<<48 | payload. The host side is
serviced synchronously on every tohost write:

    dev 0, payload bit 0 set    -> exit with code payload>>1
    dev 1, cmd 1                -> console putchar (payload = byte)
    dev 1, cmd 0                -> console getchar, answered in fromhost
                                   with payload = byte+1, or 0 if no input
*/

import "sync"

const (
	HTIF_DEV_SYSCALL = 0
	HTIF_DEV_CONSOLE = 1

	HTIF_CONSOLE_CMD_GETC = 0
	HTIF_CONSOLE_CMD_PUTC = 1
)

func htifCommand(dev, cmd, payload uint64) uint64 {
	return dev<<56 | cmd<<48 | payload&(1<<48-1)
}

// HTIF is both a console backend and a power-off device.
type HTIF struct {
	mu       sync.Mutex
	tohost   uint64
	fromhost uint64

	input  []byte
	output []byte

	exited   bool
	exitCode uint64
}

func NewHTIF() *HTIF {
	return &HTIF{}
}

// writeToHost stores a command and lets the host side consume it.
func (h *HTIF) writeToHost(v uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.tohost = v
	dev := v >> 56
	cmd := (v >> 48) & 0xFF
	payload := v & (1<<48 - 1)

	switch {
	case dev == HTIF_DEV_SYSCALL && payload&1 != 0:
		h.exited = true
		h.exitCode = payload >> 1
	case dev == HTIF_DEV_CONSOLE && cmd == HTIF_CONSOLE_CMD_PUTC:
		h.output = append(h.output, byte(payload))
		h.fromhost = htifCommand(HTIF_DEV_CONSOLE, HTIF_CONSOLE_CMD_PUTC, 0)
	case dev == HTIF_DEV_CONSOLE && cmd == HTIF_CONSOLE_CMD_GETC:
		var resp uint64
		if len(h.input) > 0 {
			resp = uint64(h.input[0]) + 1
			h.input = h.input[1:]
		}
		h.fromhost = htifCommand(HTIF_DEV_CONSOLE, HTIF_CONSOLE_CMD_GETC, resp)
	}
	h.tohost = 0
}

// takeFromHost reads and clears fromhost.
func (h *HTIF) takeFromHost() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	v := h.fromhost
	h.fromhost = 0
	return v
}

func (h *HTIF) PutChar(ch byte) {
	h.writeToHost(htifCommand(HTIF_DEV_CONSOLE, HTIF_CONSOLE_CMD_PUTC, uint64(ch)))
	h.takeFromHost()
}

func (h *HTIF) GetChar() (byte, bool) {
	h.writeToHost(htifCommand(HTIF_DEV_CONSOLE, HTIF_CONSOLE_CMD_GETC, 0))
	resp := h.takeFromHost() & (1<<48 - 1)
	if resp == 0 {
		return 0, false
	}
	return byte(resp - 1), true
}

// PowerOff requests host exit with code.
func (h *HTIF) PowerOff(code uint16) {
	h.writeToHost(htifCommand(HTIF_DEV_SYSCALL, 0, uint64(code)<<1|1))
}

// EnqueueByte queues host keyboard input.
func (h *HTIF) EnqueueByte(b byte) {
	h.mu.Lock()
	h.input = append(h.input, b)
	h.mu.Unlock()
}

// DrainOutput returns and clears console output.
func (h *HTIF) DrainOutput() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := string(h.output)
	h.output = h.output[:0]
	return s
}

// Exited reports whether the target requested exit, and its code.
func (h *HTIF) Exited() (bool, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exited, h.exitCode
}
