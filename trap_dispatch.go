// trap_dispatch.go - Machine-mode trap vector

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
Every trap taken into M-mode enters through TrapVector. Interrupts go to the
interrupt path; synchronous traps are routed by cause and by the privilege
the trap came from:

    from M-mode   access/page faults -> machinePageFault (emulated access)
                  ecall              -> mcallTrap
                  anything else      -> badTrap
    from S/U      ecall (S, M)       -> mcallTrap
                  access faults      -> pmpTrap (redirect to S)
                  illegal insn       -> illegalInsnTrap
                  anything else      -> badTrap

There is no privilege level above M, so a trap nobody explains halts the
machine.
*/

import "fmt"

// TrapOutcome says how control leaves M-mode after a trap.
type TrapOutcome int

const (
	TrapServiced   TrapOutcome = iota // mret to the trapped context at mepc
	TrapRedirected                    // mret to S-mode at stvec with scause/sepc/stval set
	TrapHalted                        // hart parked; machine powered off or halting
)

func (o TrapOutcome) String() string {
	switch o {
	case TrapServiced:
		return "serviced"
	case TrapRedirected:
		return "redirected"
	case TrapHalted:
		return "halted"
	default:
		return fmt.Sprintf("TrapOutcome(%d)", int(o))
	}
}

// TrapFrame is the general-purpose register snapshot of one trap.
type TrapFrame struct {
	Regs [32]uint64
}

// TrapVector is the M-mode trap entry point. mcause, mtval and mstatus are
// read from the hart's CSRs; mepc is passed in as the assembly stub does.
func (m *Machine) TrapVector(h *Hart, tf *TrapFrame, mepc uint64) TrapOutcome {
	if h.parked.Load() || m.poweredOff() {
		return TrapHalted
	}
	mcause := h.csr.Read(CSR_MCAUSE)
	if mcause&CAUSE_INTERRUPT != 0 {
		return m.handleInterrupt(h, mcause&^CAUSE_INTERRUPT)
	}
	return m.Dispatch(h, tf, mepc)
}

// Dispatch routes a synchronous trap.
func (m *Machine) Dispatch(h *Hart, tf *TrapFrame, mepc uint64) TrapOutcome {
	if mstatusMPP(h.csr.Read(CSR_MSTATUS)) == PRV_M {
		return m.trapFromMachineMode(h, tf, mepc)
	}

	switch h.csr.Read(CSR_MCAUSE) {
	case CAUSE_SUPERVISOR_ECALL, CAUSE_MACHINE_ECALL:
		return m.mcallTrap(h, tf, mepc)
	case CAUSE_FETCH_ACCESS, CAUSE_LOAD_ACCESS, CAUSE_STORE_ACCESS:
		return m.pmpTrap(h, mepc)
	case CAUSE_ILLEGAL_INSTRUCTION:
		return m.illegalInsnTrap(h, tf, mepc)
	default:
		return m.badTrap(h, mepc)
	}
}

// rdtime: csrrs rd, time, x0
const (
	insnCSRRSMask = 0xFFFFF07F
	insnRDTIME    = CSR_TIME<<20 | 2<<12 | 0x73
)

// illegalInsnTrap emulates the instructions M-mode provides on behalf of
// the supervisor (rdtime) and hands everything else to S-mode.
func (m *Machine) illegalInsnTrap(h *Hart, tf *TrapFrame, mepc uint64) TrapOutcome {
	insn := uint32(h.csr.Read(CSR_MTVAL))
	if insn == 0 {
		var out TrapOutcome
		var ok bool
		insn, out, ok = m.fetchUnprivileged(h, mepc, mepc)
		if !ok {
			return out
		}
	}

	if insn&insnCSRRSMask == insnRDTIME {
		if rd := (insn >> 7) & 0x1F; rd != 0 {
			tf.Regs[rd] = m.xlenValue(int64(m.timer.Now()))
		}
		h.csr.Write(CSR_MEPC, mepc+4)
		return TrapServiced
	}

	h.csr.Write(CSR_MTVAL, uint64(insn))
	return m.redirectTrap(h, mepc, h.csr.Read(CSR_MSTATUS), uint64(insn))
}
