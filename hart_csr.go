package main

import (
	"fmt"
	"sync/atomic"
)

// HartCSRFile is the control/status register bank of one hart. Everything
// except mip is touched only by the owning hart's goroutine; mip is atomic
// because interrupt lines (MEIP from the external controller) are raised
// from device goroutines.
type HartCSRFile struct {
	hartID uint64
	timer  *MachineTimer

	mstatus  uint64
	mie      uint64
	mip      atomic.Uint64
	mtvec    uint64
	mscratch uint64
	mepc     uint64
	mcause   uint64
	mtval    uint64
	medeleg  uint64
	mideleg  uint64

	stvec    uint64
	sscratch uint64
	sepc     uint64
	scause   uint64
	stval    uint64
	satp     uint64

	counters [PERF_WINDOW_SIZE]uint64 // 0xB00-0xB1F
	events   [PERF_WINDOW_SIZE]uint64 // 0x320-0x33F
}

// NewHartCSRFile returns a CSR bank in its reset state: M-mode, interrupts off.
func NewHartCSRFile(hartID int, timer *MachineTimer) *HartCSRFile {
	return &HartCSRFile{
		hartID:  uint64(hartID),
		timer:   timer,
		mstatus: uint64(PRV_M) << MSTATUS_MPP_SHIFT,
	}
}

// Read returns the value of csr. Unknown CSRs read as zero.
func (c *HartCSRFile) Read(csr uint16) uint64 {
	if v, ok := c.ReadPerf(uint64(csr)); ok {
		return v
	}
	switch csr {
	case CSR_MSTATUS:
		return c.mstatus
	case CSR_MIE:
		return c.mie
	case CSR_MIP:
		return c.mip.Load()
	case CSR_MTVEC:
		return c.mtvec
	case CSR_MSCRATCH:
		return c.mscratch
	case CSR_MEPC:
		return c.mepc
	case CSR_MCAUSE:
		return c.mcause
	case CSR_MTVAL:
		return c.mtval
	case CSR_MEDELEG:
		return c.medeleg
	case CSR_MIDELEG:
		return c.mideleg
	case CSR_MHARTID:
		return c.hartID
	case CSR_STVEC:
		return c.stvec
	case CSR_SSCRATCH:
		return c.sscratch
	case CSR_SEPC:
		return c.sepc
	case CSR_SCAUSE:
		return c.scause
	case CSR_STVAL:
		return c.stval
	case CSR_SATP:
		return c.satp
	case CSR_SIP:
		return c.mip.Load() & c.mideleg
	case CSR_SIE:
		return c.mie & c.mideleg
	case CSR_TIME:
		if c.timer == nil {
			return 0
		}
		return c.timer.Now()
	default:
		return 0
	}
}

// Write stores v into csr. Writes to read-only or unknown CSRs are dropped.
func (c *HartCSRFile) Write(csr uint16, v uint64) {
	if c.WritePerf(uint64(csr), v) {
		return
	}
	switch csr {
	case CSR_MSTATUS:
		c.mstatus = v
	case CSR_MIE:
		c.mie = v
	case CSR_MIP:
		c.mip.Store(v)
	case CSR_MTVEC:
		c.mtvec = v
	case CSR_MSCRATCH:
		c.mscratch = v
	case CSR_MEPC:
		c.mepc = v &^ 1
	case CSR_MCAUSE:
		c.mcause = v
	case CSR_MTVAL:
		c.mtval = v
	case CSR_MEDELEG:
		c.medeleg = v
	case CSR_MIDELEG:
		c.mideleg = v
	case CSR_STVEC:
		c.stvec = v
	case CSR_SSCRATCH:
		c.sscratch = v
	case CSR_SEPC:
		c.sepc = v &^ 1
	case CSR_SCAUSE:
		c.scause = v
	case CSR_STVAL:
		c.stval = v
	case CSR_SATP:
		c.satp = v
	}
}

// Set ORs mask into csr and returns the previous value (csrrs).
func (c *HartCSRFile) Set(csr uint16, mask uint64) uint64 {
	if csr == CSR_MIP {
		return c.mip.Or(mask)
	}
	old := c.Read(csr)
	c.Write(csr, old|mask)
	return old
}

// Clear removes mask from csr and returns the previous value (csrrc).
func (c *HartCSRFile) Clear(csr uint16, mask uint64) uint64 {
	if csr == CSR_MIP {
		return c.mip.And(^mask)
	}
	old := c.Read(csr)
	c.Write(csr, old&^mask)
	return old
}

// ReadPerf reads a performance counter or event selector. ok is false when
// id lies outside both windows.
func (c *HartCSRFile) ReadPerf(id uint64) (uint64, bool) {
	switch {
	case id >= PERF_COUNTER_FIRST && id <= PERF_COUNTER_LAST:
		return c.counters[id-PERF_COUNTER_FIRST], true
	case id >= PERF_EVENT_FIRST && id <= PERF_EVENT_LAST:
		return c.events[id-PERF_EVENT_FIRST], true
	default:
		return 0, false
	}
}

// WritePerf writes a performance counter or event selector and reports
// whether id was inside one of the windows.
func (c *HartCSRFile) WritePerf(id uint64, v uint64) bool {
	switch {
	case id >= PERF_COUNTER_FIRST && id <= PERF_COUNTER_LAST:
		c.counters[id-PERF_COUNTER_FIRST] = v
	case id >= PERF_EVENT_FIRST && id <= PERF_EVENT_LAST:
		c.events[id-PERF_EVENT_FIRST] = v
	default:
		return false
	}
	return true
}

// String dumps the trap-relevant registers for diagnostics.
func (c *HartCSRFile) String() string {
	return fmt.Sprintf("hart%d mstatus=%#x mcause=%#x mepc=%#x mtval=%#x mie=%#x mip=%#x scause=%#x sepc=%#x stval=%#x",
		c.hartID, c.mstatus, c.mcause, c.mepc, c.mtval, c.mie, c.mip.Load(), c.scause, c.sepc, c.stval)
}
