// hart.go - Simulated hart

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

/*
A Hart stands in for the processor side of a trap: it builds the trap CSRs
the way hardware does on entry to M-mode, calls the trap vector and then
executes mret. Workloads drive a hart through Ecall, Fault, Illegal and
Poll; there is no instruction decoder, only the trap boundary.

Causes set in medeleg and raised below M-mode skip M-mode entirely and are
delivered straight to stvec, as the hardware would.
*/

import "sync/atomic"

// Supervisor delegation installed at reset. Supervisor interrupts are
// always delegated; faults S-mode handles itself never reach M-mode.
const (
	RESET_MIDELEG = MIP_SSIP | MIP_STIP | MIP_SEIP
	RESET_MEDELEG = 1<<CAUSE_MISALIGNED_FETCH |
		1<<CAUSE_FETCH_PAGE_FAULT |
		1<<CAUSE_BREAKPOINT |
		1<<CAUSE_LOAD_PAGE_FAULT |
		1<<CAUSE_STORE_PAGE_FAULT |
		1<<CAUSE_USER_ECALL
	RESET_MIE = MIP_MSIP | MIP_MEIP
)

type Hart struct {
	id    int
	m     *Machine
	csr   *HartCSRFile
	local *HartLocalState

	// Owned by the hart goroutine.
	priv int
	pc   uint64
	regs [32]uint64

	parked    atomic.Bool
	fenceI    atomic.Uint64
	sfenceVMA atomic.Uint64
}

func newHart(m *Machine, id int, entryPC, stvec uint64) *Hart {
	h := &Hart{
		id:    id,
		m:     m,
		csr:   NewHartCSRFile(id, m.timer),
		local: m.table.Self(id),
		priv:  PRV_S,
		pc:    entryPC,
	}
	h.csr.Write(CSR_STVEC, stvec)
	h.csr.Write(CSR_MIDELEG, RESET_MIDELEG)
	h.csr.Write(CSR_MEDELEG, RESET_MEDELEG)
	h.csr.Write(CSR_MIE, RESET_MIE)
	return h
}

func (h *Hart) ID() int                { return h.id }
func (h *Hart) CSR() *HartCSRFile      { return h.csr }
func (h *Hart) Machine() *Machine      { return h.m }
func (h *Hart) Priv() int              { return h.priv }
func (h *Hart) PC() uint64             { return h.pc }
func (h *Hart) Reg(i int) uint64       { return h.regs[i] }
func (h *Hart) Parked() bool           { return h.parked.Load() }
func (h *Hart) FenceICount() uint64    { return h.fenceI.Load() }
func (h *Hart) SFenceVMACount() uint64 { return h.sfenceVMA.Load() }

func (h *Hart) SetPC(pc uint64) { h.pc = pc }

// SetReg writes a general-purpose register; x0 stays zero.
func (h *Hart) SetReg(i int, v uint64) {
	if i != 0 {
		h.regs[i] = v
	}
}

// Ecall issues SBI call n from the current privilege level and returns a0
// sign-extended from XLEN.
func (h *Hart) Ecall(n, a0, a1 uint64) (int64, TrapOutcome) {
	if out := h.Poll(); out == TrapHalted {
		return 0, out
	}
	h.regs[REG_A7] = n
	h.regs[REG_A0] = a0
	h.regs[REG_A1] = a1

	var cause uint64
	switch h.priv {
	case PRV_U:
		cause = CAUSE_USER_ECALL
	case PRV_S:
		cause = CAUSE_SUPERVISOR_ECALL
	default:
		cause = CAUSE_MACHINE_ECALL
	}
	out := h.trap(cause, 0)
	return h.signed(h.regs[REG_A0]), out
}

// Fault raises a synchronous exception with tval = addr at the current pc.
func (h *Hart) Fault(cause, addr uint64) TrapOutcome {
	if out := h.Poll(); out == TrapHalted {
		return out
	}
	return h.trap(cause, addr)
}

// Illegal raises an illegal-instruction exception. insn is reported in
// mtval; pass 0 to model hardware that leaves mtval clear, in which case
// M-mode fetches the instruction from pc.
func (h *Hart) Illegal(insn uint32) TrapOutcome {
	if out := h.Poll(); out == TrapHalted {
		return out
	}
	return h.trap(CAUSE_ILLEGAL_INSTRUCTION, uint64(insn))
}

// Poll takes the highest-priority pending machine interrupt, if any. It
// returns TrapServiced when there was nothing to take.
func (h *Hart) Poll() TrapOutcome {
	if h.parked.Load() || h.m.poweredOff() {
		return TrapHalted
	}
	irq, ok := h.pendingInterrupt()
	if !ok {
		return TrapServiced
	}
	return h.trap(CAUSE_INTERRUPT|irq, 0)
}

// RaiseExternalInterrupt asserts MEIP. Safe from any goroutine.
func (h *Hart) RaiseExternalInterrupt() {
	h.csr.Set(CSR_MIP, MIP_MEIP)
}

// pendingInterrupt applies the M-level enable rules: below M-mode machine
// interrupts are always globally enabled. Priority is MEI, MSI, MTI.
func (h *Hart) pendingInterrupt() (uint64, bool) {
	if h.priv == PRV_M && h.csr.Read(CSR_MSTATUS)&MSTATUS_MIE == 0 {
		return 0, false
	}
	mie := h.csr.Read(CSR_MIE)
	if mie&MIP_MTIP != 0 && h.m.timer.Now() >= h.local.TimeCmp() {
		h.csr.Set(CSR_MIP, MIP_MTIP)
	}
	if h.local.Doorbell() != 0 {
		h.csr.Set(CSR_MIP, MIP_MSIP)
	} else {
		h.csr.Clear(CSR_MIP, MIP_MSIP)
	}

	active := h.csr.Read(CSR_MIP) & mie
	switch {
	case active&MIP_MEIP != 0:
		return IRQ_M_EXT, true
	case active&MIP_MSIP != 0:
		return IRQ_M_SOFT, true
	case active&MIP_MTIP != 0:
		return IRQ_M_TIMER, true
	}
	return 0, false
}

// trap performs hardware trap entry, runs the M-mode handler and returns
// with mret unless the hart was halted.
func (h *Hart) trap(cause, tval uint64) TrapOutcome {
	if cause&CAUSE_INTERRUPT == 0 && h.priv != PRV_M &&
		h.csr.Read(CSR_MEDELEG)&(uint64(1)<<cause) != 0 {
		h.delegate(cause, tval)
		return TrapRedirected
	}

	c := h.csr
	status := mstatusSetMPP(c.Read(CSR_MSTATUS), h.priv)
	c.Write(CSR_MSTATUS, mstatusPushIE(status))
	c.Write(CSR_MCAUSE, cause)
	c.Write(CSR_MTVAL, tval)
	c.Write(CSR_MEPC, h.pc)
	h.priv = PRV_M

	tf := TrapFrame{Regs: h.regs}
	out := h.m.TrapVector(h, &tf, h.pc)
	tf.Regs[0] = 0
	h.regs = tf.Regs
	if out == TrapHalted {
		return out
	}
	h.mret()
	return out
}

func (h *Hart) mret() {
	status, prv := mstatusMret(h.csr.Read(CSR_MSTATUS))
	h.csr.Write(CSR_MSTATUS, status)
	h.priv = prv
	h.pc = h.csr.Read(CSR_MEPC)
}

// delegate is the hardware path for a trap taken directly into S-mode.
func (h *Hart) delegate(cause, tval uint64) {
	c := h.csr
	c.Write(CSR_SCAUSE, cause)
	c.Write(CSR_SEPC, h.pc)
	c.Write(CSR_STVAL, tval)

	status := c.Read(CSR_MSTATUS)
	status = statusSPIE.set(status, statusSIE.get(status))
	status = statusSIE.set(status, 0)
	status = statusSPP.set(status, uint64(h.priv)&1)
	c.Write(CSR_MSTATUS, status)

	h.priv = PRV_S
	h.pc = c.Read(CSR_STVEC)
	h.m.tracef("hart%d: cause %d delegated to stvec %#x\n", h.id, cause, h.pc)
}

// Sret returns from the supervisor trap handler to sepc.
func (h *Hart) Sret() {
	c := h.csr
	status := c.Read(CSR_MSTATUS)
	prv := int(statusSPP.get(status))
	status = statusSIE.set(status, statusSPIE.get(status))
	status = statusSPIE.set(status, 1)
	status = statusSPP.set(status, PRV_U)
	c.Write(CSR_MSTATUS, status)
	h.priv = prv
	h.pc = c.Read(CSR_SEPC)
}

func (h *Hart) signed(v uint64) int64 {
	if h.m.xlen == 32 {
		return int64(int32(v))
	}
	return int64(v)
}
