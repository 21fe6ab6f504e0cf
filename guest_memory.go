package main

/*
guest_memory.go - Supervisor-visible physical memory

GuestMemory is the address space the trapped context lives in. M-mode reads
it only through the unprivileged access path (unprivileged.go), which turns
the fault results here into nested machine-mode traps.

Faults:

    address outside RAM             -> access fault
    page marked unmapped            -> page fault (absent supervisor PTE)

Only load and store causes are produced. Instruction fetches performed by
M-mode on behalf of a lower privilege level are loads with MXR set, and the
hardware reports them as load faults; the reclassifier relabels them.
*/

import (
	"encoding/binary"
	"fmt"
	"sync"
)

const (
	GUEST_RAM_BASE     = 0x80000000
	GUEST_DEFAULT_SIZE = 16 * 1024 * 1024
	GUEST_PAGE_SHIFT   = 12
	GUEST_PAGE_SIZE    = 1 << GUEST_PAGE_SHIFT
)

type GuestMemory struct {
	mu       sync.RWMutex
	base     uint64
	ram      []byte
	unmapped map[uint64]bool // page number -> no translation
}

func NewGuestMemory(base uint64, size int) *GuestMemory {
	return &GuestMemory{
		base:     base,
		ram:      make([]byte, size),
		unmapped: make(map[uint64]bool),
	}
}

// Base returns the first RAM address.
func (g *GuestMemory) Base() uint64 { return g.base }

// Size returns the RAM size in bytes.
func (g *GuestMemory) Size() int { return len(g.ram) }

// Unmap marks the page containing addr as having no translation.
func (g *GuestMemory) Unmap(addr uint64) {
	g.mu.Lock()
	g.unmapped[addr>>GUEST_PAGE_SHIFT] = true
	g.mu.Unlock()
}

// Map clears a previous Unmap.
func (g *GuestMemory) Map(addr uint64) {
	g.mu.Lock()
	delete(g.unmapped, addr>>GUEST_PAGE_SHIFT)
	g.mu.Unlock()
}

// checkLocked returns the RAM offset of [addr, addr+size) or the fault cause.
func (g *GuestMemory) checkLocked(addr uint64, size int, pageFault, accessFault uint64) (uint64, uint64, bool) {
	first := addr >> GUEST_PAGE_SHIFT
	last := (addr + uint64(size) - 1) >> GUEST_PAGE_SHIFT
	for p := first; p <= last; p++ {
		if g.unmapped[p] {
			return 0, pageFault, false
		}
	}
	if addr < g.base || addr-g.base+uint64(size) > uint64(len(g.ram)) {
		return 0, accessFault, false
	}
	return addr - g.base, 0, true
}

// Load reads a little-endian value of size 1, 2, 4 or 8 bytes. On failure
// it returns the trap cause the hardware would raise.
func (g *GuestMemory) Load(addr uint64, size int) (uint64, uint64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	off, cause, ok := g.checkLocked(addr, size, CAUSE_LOAD_PAGE_FAULT, CAUSE_LOAD_ACCESS)
	if !ok {
		return 0, cause, false
	}
	b := g.ram[off : off+uint64(size)]
	switch size {
	case 1:
		return uint64(b[0]), 0, true
	case 2:
		return uint64(binary.LittleEndian.Uint16(b)), 0, true
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), 0, true
	default:
		return binary.LittleEndian.Uint64(b), 0, true
	}
}

// Store writes a little-endian value of size 1, 2, 4 or 8 bytes.
func (g *GuestMemory) Store(addr uint64, size int, value uint64) (uint64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	off, cause, ok := g.checkLocked(addr, size, CAUSE_STORE_PAGE_FAULT, CAUSE_STORE_ACCESS)
	if !ok {
		return cause, false
	}
	b := g.ram[off : off+uint64(size)]
	switch size {
	case 1:
		b[0] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(value))
	default:
		binary.LittleEndian.PutUint64(b, value)
	}
	return 0, true
}

// Write64 stores a doubleword for loaders and scripts.
func (g *GuestMemory) Write64(addr uint64, value uint64) error {
	if cause, ok := g.Store(addr, 8, value); !ok {
		return fmt.Errorf("guest store %#x: cause %d", addr, cause)
	}
	return nil
}

// Read64 loads a doubleword for loaders and scripts.
func (g *GuestMemory) Read64(addr uint64) (uint64, error) {
	v, cause, ok := g.Load(addr, 8)
	if !ok {
		return 0, fmt.Errorf("guest load %#x: cause %d", addr, cause)
	}
	return v, nil
}

// Write32 stores a word, typically an instruction.
func (g *GuestMemory) Write32(addr uint64, value uint32) error {
	if cause, ok := g.Store(addr, 4, uint64(value)); !ok {
		return fmt.Errorf("guest store %#x: cause %d", addr, cause)
	}
	return nil
}
