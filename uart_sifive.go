package main

import "sync"

// SiFive UART register offsets
const (
	SIFIVE_UART_TXDATA = 0x00
	SIFIVE_UART_RXDATA = 0x04
	SIFIVE_UART_TXCTRL = 0x08
	SIFIVE_UART_RXCTRL = 0x0C

	SIFIVE_UART_TX_FULL  = uint32(1) << 31
	SIFIVE_UART_RX_EMPTY = uint32(1) << 31
)

// SiFiveUART models the FU540-style UART: txdata reports "full" in bit 31,
// rxdata reports "empty" in bit 31 and pops a byte otherwise.
type SiFiveUART struct {
	mu     sync.Mutex
	rx     []byte
	tx     []byte
	txctrl uint32
	rxctrl uint32
}

func NewSiFiveUART() *SiFiveUART {
	return &SiFiveUART{}
}

func (u *SiFiveUART) HandleRead(reg uint32) uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch reg {
	case SIFIVE_UART_TXDATA:
		return 0 // never full
	case SIFIVE_UART_RXDATA:
		if len(u.rx) == 0 {
			return SIFIVE_UART_RX_EMPTY
		}
		b := u.rx[0]
		u.rx = u.rx[1:]
		return uint32(b)
	case SIFIVE_UART_TXCTRL:
		return u.txctrl
	case SIFIVE_UART_RXCTRL:
		return u.rxctrl
	default:
		return 0
	}
}

func (u *SiFiveUART) HandleWrite(reg uint32, value uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch reg {
	case SIFIVE_UART_TXDATA:
		u.tx = append(u.tx, byte(value))
	case SIFIVE_UART_TXCTRL:
		u.txctrl = value
	case SIFIVE_UART_RXCTRL:
		u.rxctrl = value
	}
}

func (u *SiFiveUART) PutChar(ch byte) {
	for u.HandleRead(SIFIVE_UART_TXDATA)&SIFIVE_UART_TX_FULL != 0 {
	}
	u.HandleWrite(SIFIVE_UART_TXDATA, uint32(ch))
}

func (u *SiFiveUART) GetChar() (byte, bool) {
	v := u.HandleRead(SIFIVE_UART_RXDATA)
	if v&SIFIVE_UART_RX_EMPTY != 0 {
		return 0, false
	}
	return byte(v), true
}

func (u *SiFiveUART) EnqueueByte(b byte) {
	u.mu.Lock()
	u.rx = append(u.rx, b)
	u.mu.Unlock()
}

func (u *SiFiveUART) DrainOutput() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	s := string(u.tx)
	u.tx = u.tx[:0]
	return s
}
