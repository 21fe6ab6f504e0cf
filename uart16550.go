// uart16550.go - NS16550A console device

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

import "sync"

// 16550 register offsets (byte-wide registers, stride 1)
const (
	UART16550_RBR = 0 // receive buffer (read)
	UART16550_THR = 0 // transmit holding (write)
	UART16550_IER = 1
	UART16550_FCR = 2
	UART16550_LCR = 3
	UART16550_MCR = 4
	UART16550_LSR = 5
	UART16550_MSR = 6
	UART16550_SCR = 7

	UART16550_LSR_DR   = 0x01 // data ready
	UART16550_LSR_THRE = 0x20 // transmit holding register empty
	UART16550_LSR_TEMT = 0x40

	UART_RX_FIFO = 1024
)

// UART16550 is a register-level 16550 state machine. Host adapters
// (TerminalHost, the framebuffer and window consoles) feed received bytes
// through EnqueueByte and observe transmitted bytes through OnTransmit.
type UART16550 struct {
	mu sync.Mutex

	rxBuf  [UART_RX_FIFO]byte
	rxHead int
	rxTail int
	rxLen  int

	txBuf []byte // drained by tests or host adapters

	ier byte
	lcr byte
	mcr byte
	scr byte

	// onTransmit, when set, receives THR bytes instead of txBuf.
	// Invoked outside mu.
	onTransmit func(byte)
}

func NewUART16550() *UART16550 {
	return &UART16550{
		txBuf: make([]byte, 0, 256),
	}
}

// OnTransmit registers a callback for every byte written to THR.
func (u *UART16550) OnTransmit(fn func(byte)) {
	u.mu.Lock()
	u.onTransmit = fn
	u.mu.Unlock()
}

// HandleRead reads a UART register.
func (u *UART16550) HandleRead(reg uint32) uint8 {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch reg {
	case UART16550_RBR:
		if u.rxLen == 0 {
			return 0
		}
		b := u.rxBuf[u.rxHead]
		u.rxHead = (u.rxHead + 1) % len(u.rxBuf)
		u.rxLen--
		return b
	case UART16550_IER:
		return u.ier
	case UART16550_LCR:
		return u.lcr
	case UART16550_MCR:
		return u.mcr
	case UART16550_LSR:
		lsr := byte(UART16550_LSR_THRE | UART16550_LSR_TEMT)
		if u.rxLen > 0 {
			lsr |= UART16550_LSR_DR
		}
		return lsr
	case UART16550_SCR:
		return u.scr
	default:
		return 0
	}
}

// HandleWrite writes a UART register.
func (u *UART16550) HandleWrite(reg uint32, value uint8) {
	var txFn func(byte)

	u.mu.Lock()
	switch reg {
	case UART16550_THR:
		if u.onTransmit != nil {
			txFn = u.onTransmit
		} else {
			u.txBuf = append(u.txBuf, value)
		}
	case UART16550_IER:
		u.ier = value
	case UART16550_LCR:
		u.lcr = value
	case UART16550_MCR:
		u.mcr = value
	case UART16550_SCR:
		u.scr = value
	}
	u.mu.Unlock()

	if txFn != nil {
		txFn(value)
	}
}

// PutChar waits for THRE and transmits ch.
func (u *UART16550) PutChar(ch byte) {
	for u.HandleRead(UART16550_LSR)&UART16550_LSR_THRE == 0 {
	}
	u.HandleWrite(UART16550_THR, ch)
}

// GetChar returns the next received byte, if any.
func (u *UART16550) GetChar() (byte, bool) {
	if u.HandleRead(UART16550_LSR)&UART16550_LSR_DR == 0 {
		return 0, false
	}
	return u.HandleRead(UART16550_RBR), true
}

// EnqueueByte adds a received byte to the RX FIFO. Overflow drops the byte.
func (u *UART16550) EnqueueByte(b byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.rxLen >= len(u.rxBuf) {
		return
	}
	u.rxBuf[u.rxTail] = b
	u.rxTail = (u.rxTail + 1) % len(u.rxBuf)
	u.rxLen++
}

// DrainOutput returns and clears everything transmitted so far.
func (u *UART16550) DrainOutput() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	s := string(u.txBuf)
	u.txBuf = u.txBuf[:0]
	return s
}
