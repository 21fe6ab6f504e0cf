package main

/*
csr_constants.go - RISC-V privileged architecture constants

CSR numbers, mstatus/mip field layout and trap cause codes used by the
machine-mode runtime. Bit positions follow the RV64 privileged ABI; the
RV32 layout is identical for every field used here.
*/

// Privilege levels (mstatus.MPP / SPP encoding)
const (
	PRV_U = 0
	PRV_S = 1
	PRV_M = 3
)

// CSR numbers
const (
	CSR_SSTATUS  = 0x100
	CSR_SIE      = 0x104
	CSR_STVEC    = 0x105
	CSR_SSCRATCH = 0x140
	CSR_SEPC     = 0x141
	CSR_SCAUSE   = 0x142
	CSR_STVAL    = 0x143 // sbadaddr on priv-1.9 parts
	CSR_SIP      = 0x144
	CSR_SATP     = 0x180

	CSR_MSTATUS  = 0x300
	CSR_MISA     = 0x301
	CSR_MEDELEG  = 0x302
	CSR_MIDELEG  = 0x303
	CSR_MIE      = 0x304
	CSR_MTVEC    = 0x305
	CSR_MSCRATCH = 0x340
	CSR_MEPC     = 0x341
	CSR_MCAUSE   = 0x342
	CSR_MTVAL    = 0x343 // mbadaddr
	CSR_MIP      = 0x344
	CSR_MHARTID  = 0xF14

	CSR_TIME = 0xC01
)

// Performance counter windows reachable through SBI_GET_PERF/SBI_SET_PERF.
// 0xB00-0xB1F: mcycle, minstret, mhpmcounter3..31
// 0x320-0x33F: mcountinhibit, mhpmevent3..31
const (
	PERF_COUNTER_FIRST = 0xB00
	PERF_COUNTER_LAST  = 0xB1F
	PERF_EVENT_FIRST   = 0x320
	PERF_EVENT_LAST    = 0x33F

	PERF_WINDOW_SIZE = PERF_COUNTER_LAST - PERF_COUNTER_FIRST + 1
)

// mstatus fields
const (
	MSTATUS_SIE  = uint64(1) << 1
	MSTATUS_MIE  = uint64(1) << 3
	MSTATUS_SPIE = uint64(1) << 5
	MSTATUS_MPIE = uint64(1) << 7
	MSTATUS_SPP  = uint64(1) << 8
	MSTATUS_MPP  = uint64(3) << 11
	MSTATUS_MPRV = uint64(1) << 17
	MSTATUS_SUM  = uint64(1) << 18
	MSTATUS_MXR  = uint64(1) << 19

	MSTATUS_MPP_SHIFT = 11
	MSTATUS_SPP_SHIFT = 8
)

// mip / mie bits
const (
	MIP_SSIP = uint64(1) << 1
	MIP_MSIP = uint64(1) << 3
	MIP_STIP = uint64(1) << 5
	MIP_MTIP = uint64(1) << 7
	MIP_SEIP = uint64(1) << 9
	MIP_MEIP = uint64(1) << 11
)

// Interrupt numbers (mcause with CAUSE_INTERRUPT set)
const (
	IRQ_S_SOFT  = 1
	IRQ_M_SOFT  = 3
	IRQ_S_TIMER = 5
	IRQ_M_TIMER = 7
	IRQ_S_EXT   = 9
	IRQ_M_EXT   = 11
)

// Synchronous trap causes
const (
	CAUSE_MISALIGNED_FETCH    = 0x0
	CAUSE_FETCH_ACCESS        = 0x1
	CAUSE_ILLEGAL_INSTRUCTION = 0x2
	CAUSE_BREAKPOINT          = 0x3
	CAUSE_MISALIGNED_LOAD     = 0x4
	CAUSE_LOAD_ACCESS         = 0x5
	CAUSE_MISALIGNED_STORE    = 0x6
	CAUSE_STORE_ACCESS        = 0x7
	CAUSE_USER_ECALL          = 0x8
	CAUSE_SUPERVISOR_ECALL    = 0x9
	CAUSE_HYPERVISOR_ECALL    = 0xA
	CAUSE_MACHINE_ECALL       = 0xB
	CAUSE_FETCH_PAGE_FAULT    = 0xC
	CAUSE_LOAD_PAGE_FAULT     = 0xD
	CAUSE_STORE_PAGE_FAULT    = 0xF

	CAUSE_INTERRUPT = uint64(1) << 63
)

// Trap frame register slots
const (
	REG_RA = 1
	REG_SP = 2
	REG_A0 = 10
	REG_A1 = 11
	REG_A2 = 12
	REG_A3 = 13
	REG_A7 = 17
)

// ECALL_INSN_SIZE is the width of the ecall instruction; mepc is advanced by
// this much before an SBI call returns.
const ECALL_INSN_SIZE = 4
