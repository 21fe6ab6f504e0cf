package main

// redirectTrap re-delivers the current trap to S-mode as if the hardware
// had taken it there: scause/stval/sepc are filled in, mepc points at stvec
// and mstatus is rewritten so that mret lands in S-mode with the supervisor
// interrupt-enable stack pushed.
func (m *Machine) redirectTrap(h *Hart, epc, status, badaddr uint64) TrapOutcome {
	c := h.csr
	c.Write(CSR_STVAL, badaddr)
	c.Write(CSR_SEPC, epc)
	c.Write(CSR_SCAUSE, c.Read(CSR_MCAUSE))
	c.Write(CSR_MEPC, c.Read(CSR_STVEC))
	c.Write(CSR_MSTATUS, supervisorTrapStatus(status))

	m.tracef("hart%d: redirect cause %d epc=%#x tval=%#x -> stvec %#x\n",
		h.id, c.Read(CSR_SCAUSE), epc, badaddr, c.Read(CSR_STVEC))
	return TrapRedirected
}

// pmpTrap forwards an access fault raised by S/U code.
func (m *Machine) pmpTrap(h *Hart, mepc uint64) TrapOutcome {
	return m.redirectTrap(h, mepc, h.csr.Read(CSR_MSTATUS), h.csr.Read(CSR_MTVAL))
}

// machinePageFault explains a fault taken in M-mode. The only legitimate
// source is an emulated access with MPRV set; the emulation frame carries
// the qualifier in a1 and the lower context's pc/mstatus in a2/a3.
func (m *Machine) machinePageFault(h *Hart, tf *TrapFrame, mcause, mepc uint64) TrapOutcome {
	if h.csr.Read(CSR_MSTATUS)&MSTATUS_MPRV == 0 {
		return m.badTrap(h, mepc)
	}

	switch tf.Regs[REG_A1] {
	case MSTATUS_MPRV | MSTATUS_MXR:
		// Instruction fetch emulation: the hardware saw a load.
		switch mcause {
		case CAUSE_LOAD_PAGE_FAULT:
			h.csr.Write(CSR_MCAUSE, CAUSE_FETCH_PAGE_FAULT)
		case CAUSE_LOAD_ACCESS:
			h.csr.Write(CSR_MCAUSE, CAUSE_FETCH_ACCESS)
		default:
			return m.badTrap(h, mepc)
		}
	case MSTATUS_MPRV:
	default:
		return m.badTrap(h, mepc)
	}

	return m.redirectTrap(h, tf.Regs[REG_A2], tf.Regs[REG_A3], h.csr.Read(CSR_MTVAL))
}

// trapFromMachineMode handles synchronous traps whose previous privilege
// was M.
func (m *Machine) trapFromMachineMode(h *Hart, tf *TrapFrame, mepc uint64) TrapOutcome {
	mcause := h.csr.Read(CSR_MCAUSE)
	switch mcause {
	case CAUSE_LOAD_PAGE_FAULT,
		CAUSE_STORE_PAGE_FAULT,
		CAUSE_FETCH_ACCESS,
		CAUSE_LOAD_ACCESS,
		CAUSE_STORE_ACCESS:
		return m.machinePageFault(h, tf, mcause, mepc)
	case CAUSE_MACHINE_ECALL:
		// Served like a supervisor ecall so M-mode callers reach the SBI too.
		return m.mcallTrap(h, tf, mepc)
	default:
		return m.badTrap(h, mepc)
	}
}
