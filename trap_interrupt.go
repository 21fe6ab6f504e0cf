package main

// handleInterrupt services machine-level interrupts. Supervisor work is
// forwarded by raising the matching S-level pending bit.
func (m *Machine) handleInterrupt(h *Hart, irq uint64) TrapOutcome {
	switch irq {
	case IRQ_M_SOFT:
		return m.handleSoftwareInterrupt(h)
	case IRQ_M_TIMER:
		h.csr.Clear(CSR_MIE, MIP_MTIP)
		h.csr.Clear(CSR_MIP, MIP_MTIP)
		h.csr.Set(CSR_MIP, MIP_STIP)
		return TrapServiced
	case IRQ_M_EXT:
		// Masked until the supervisor acknowledges with SBI_PLIC_EOI.
		h.csr.Clear(CSR_MIE, MIP_MEIP)
		h.csr.Set(CSR_MIP, MIP_SEIP)
		return TrapServiced
	default:
		return m.die(h, "machine mode: unexpected interrupt %d", irq)
	}
}

// handleSoftwareInterrupt acknowledges the doorbell and acts on every
// pending IPI event.
func (m *Machine) handleSoftwareInterrupt(h *Hart) TrapOutcome {
	self := m.table.Self(h.id)
	self.TakeDoorbell()
	pending := self.TakePending()

	if pending&IPI_SOFT != 0 {
		h.csr.Set(CSR_MIP, MIP_SSIP)
	}
	if pending&IPI_FENCE_I != 0 {
		h.fenceI.Add(1)
	}
	if pending&IPI_SFENCE_VMA != 0 {
		h.sfenceVMA.Add(1)
	}
	if pending&IPI_HALT != 0 {
		m.tracef("hart%d: halted by IPI\n", h.id)
		h.parked.Store(true)
		return TrapHalted
	}
	return TrapServiced
}
