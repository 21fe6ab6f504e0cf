package main

/*
unprivileged.go - Memory access on behalf of the trapped context

M-mode reads supervisor memory with mstatus.MPRV set, so the access is
translated and checked as if the trapped context had made it. A fault on
such an access is a trap taken *from machine mode*; the emulation frame
tells the reclassifier how to explain it:

    a1 = MSTATUS_MPRV               ordinary load/store emulation
    a1 = MSTATUS_MPRV | MSTATUS_MXR instruction fetch emulation
    a2 = pc of the lower context
    a3 = mstatus of the lower context (before MPRV was set)
*/

// machineEmulationPC is the mepc recorded when an emulated access faults:
// the address of the M-mode load instruction, which never reaches S-mode.
const machineEmulationPC = 0x1000

// loadUnprivileged reads an XLEN-sized word at addr as the trapped context.
// On a fault the nested trap has already been dispatched and its outcome is
// returned with ok=false.
func (m *Machine) loadUnprivileged(h *Hart, addr, epc uint64) (uint64, TrapOutcome, bool) {
	return m.accessUnprivileged(h, addr, m.xlen/8, epc, MSTATUS_MPRV)
}

// fetchUnprivileged reads a 32-bit instruction at addr as the trapped context.
func (m *Machine) fetchUnprivileged(h *Hart, addr, epc uint64) (uint32, TrapOutcome, bool) {
	v, out, ok := m.accessUnprivileged(h, addr, 4, epc, MSTATUS_MPRV|MSTATUS_MXR)
	return uint32(v), out, ok
}

func (m *Machine) accessUnprivileged(h *Hart, addr uint64, size int, epc uint64, qualifier uint64) (uint64, TrapOutcome, bool) {
	lowerStatus := h.csr.Read(CSR_MSTATUS)
	h.csr.Write(CSR_MSTATUS, lowerStatus|qualifier)

	v, cause, ok := m.memory.Load(addr, size)

	h.csr.Write(CSR_MSTATUS, lowerStatus)
	if ok {
		return v, TrapServiced, true
	}

	var ef TrapFrame
	ef.Regs[REG_A1] = qualifier
	ef.Regs[REG_A2] = epc
	ef.Regs[REG_A3] = lowerStatus

	// Hardware trap entry from M-mode: MPRV stays set, MPP records M.
	status := lowerStatus | qualifier
	status = mstatusSetMPP(status, PRV_M)
	status = mstatusPushIE(status)
	h.csr.Write(CSR_MSTATUS, status)
	h.csr.Write(CSR_MCAUSE, cause)
	h.csr.Write(CSR_MTVAL, addr)
	h.csr.Write(CSR_MEPC, machineEmulationPC)

	m.tracef("hart%d: emulated access %#x faulted, cause %d\n", h.id, addr, cause)
	return 0, m.TrapVector(h, &ef, machineEmulationPC), false
}
