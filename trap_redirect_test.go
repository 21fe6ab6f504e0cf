package main

import "testing"

func TestSupervisorTrapStatus(t *testing.T) {
	preserved := MSTATUS_SUM | MSTATUS_MXR | MSTATUS_MPIE
	for _, mpp := range []int{PRV_U, PRV_S, PRV_M} {
		for _, mie := range []uint64{0, MSTATUS_MIE} {
			for _, sie := range []uint64{0, MSTATUS_SIE} {
				captured := mstatusSetMPP(preserved|mie|sie|MSTATUS_SPIE|MSTATUS_SPP, mpp)
				got := supervisorTrapStatus(captured)

				if spp := statusSPP.get(got); spp != uint64(mpp)&1 {
					t.Fatalf("mpp=%d: SPP = %d", mpp, spp)
				}
				if spie := statusSPIE.get(got); spie != statusSIE.get(captured) {
					t.Fatalf("captured %#x: SPIE = %d, want SIE", captured, spie)
				}
				if got&MSTATUS_SIE != 0 {
					t.Fatalf("captured %#x: SIE still set", captured)
				}
				if mstatusMPP(got) != PRV_S {
					t.Fatalf("captured %#x: MPP = %d, want S", captured, mstatusMPP(got))
				}
				if got&preserved != preserved {
					t.Fatalf("captured %#x: unrelated bits lost: %#x", captured, got)
				}
				if got&MSTATUS_MIE != mie {
					t.Fatalf("captured %#x: MIE changed", captured)
				}
			}
		}
	}
}

// Redirected and delegated traps must leave the supervisor with the same
// interrupt-enable state after sret.
func TestRedirectTrap_SretRestoresSIE(t *testing.T) {
	tests := []struct {
		name  string
		cause uint64
		want  TrapOutcome
	}{
		{"redirectedAccessFault", CAUSE_LOAD_ACCESS, TrapRedirected},
		{"redirectedStoreAccessFault", CAUSE_STORE_ACCESS, TrapRedirected},
		{"delegatedPageFault", CAUSE_LOAD_PAGE_FAULT, TrapRedirected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, sie := range []uint64{0, MSTATUS_SIE} {
				b := newTestBoard(t)
				h := b.m.Hart(0)
				h.CSR().Write(CSR_MSTATUS, h.CSR().Read(CSR_MSTATUS)|MSTATUS_MIE|sie)

				if out := h.Fault(tt.cause, 0x1234); out != tt.want {
					t.Fatalf("fault = %s, want %s", out, tt.want)
				}
				if h.Priv() != PRV_S || h.PC() != DEFAULT_STVEC {
					t.Fatalf("priv %d pc %#x, want S at stvec", h.Priv(), h.PC())
				}
				status := h.CSR().Read(CSR_MSTATUS)
				if status&MSTATUS_SIE != 0 {
					t.Fatalf("SIE still set in handler: %#x", status)
				}
				if got := status & MSTATUS_SPIE; (got != 0) != (sie != 0) {
					t.Fatalf("sie=%#x: SPIE = %#x", sie, got)
				}

				h.Sret()
				if got := h.CSR().Read(CSR_MSTATUS) & MSTATUS_SIE; got != sie {
					t.Fatalf("after sret SIE = %#x, want %#x", got, sie)
				}
			}
		})
	}
}

// emulationTrap puts hart 0 in the state of a fault taken inside an
// emulated access and returns the emulation frame.
func emulationTrap(b *testBoard, qualifier, cause, tval uint64) (*Hart, *TrapFrame) {
	h := b.m.Hart(0)
	lower := mstatusSetMPP(MSTATUS_MIE|MSTATUS_SUM, PRV_U)

	status := mstatusPushIE(mstatusSetMPP(lower|qualifier, PRV_M))
	h.CSR().Write(CSR_MSTATUS, status)
	h.CSR().Write(CSR_MCAUSE, cause)
	h.CSR().Write(CSR_MTVAL, tval)

	tf := &TrapFrame{}
	tf.Regs[REG_A1] = qualifier
	tf.Regs[REG_A2] = 0x80001000
	tf.Regs[REG_A3] = lower
	return h, tf
}

func TestMachinePageFault_Reclassifies(t *testing.T) {
	tests := []struct {
		name      string
		qualifier uint64
		cause     uint64
		want      uint64
	}{
		{"fetchPageFault", MSTATUS_MPRV | MSTATUS_MXR, CAUSE_LOAD_PAGE_FAULT, CAUSE_FETCH_PAGE_FAULT},
		{"fetchAccess", MSTATUS_MPRV | MSTATUS_MXR, CAUSE_LOAD_ACCESS, CAUSE_FETCH_ACCESS},
		{"loadPageFault", MSTATUS_MPRV, CAUSE_LOAD_PAGE_FAULT, CAUSE_LOAD_PAGE_FAULT},
		{"loadAccess", MSTATUS_MPRV, CAUSE_LOAD_ACCESS, CAUSE_LOAD_ACCESS},
		{"storePageFault", MSTATUS_MPRV, CAUSE_STORE_PAGE_FAULT, CAUSE_STORE_PAGE_FAULT},
		{"storeAccess", MSTATUS_MPRV, CAUSE_STORE_ACCESS, CAUSE_STORE_ACCESS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBoard(t)
			h, tf := emulationTrap(b, tt.qualifier, tt.cause, 0x1234)

			out := b.m.TrapVector(h, tf, machineEmulationPC)
			if out != TrapRedirected {
				t.Fatalf("outcome %s", out)
			}
			c := h.CSR()
			if got := c.Read(CSR_SCAUSE); got != tt.want {
				t.Fatalf("scause = %d, want %d", got, tt.want)
			}
			if c.Read(CSR_SEPC) != 0x80001000 || c.Read(CSR_STVAL) != 0x1234 {
				t.Fatalf("sepc=%#x stval=%#x", c.Read(CSR_SEPC), c.Read(CSR_STVAL))
			}
			if c.Read(CSR_MEPC) != DEFAULT_STVEC {
				t.Fatalf("mepc = %#x, want stvec", c.Read(CSR_MEPC))
			}
			if got, want := c.Read(CSR_MSTATUS), supervisorTrapStatus(tf.Regs[REG_A3]); got != want {
				t.Fatalf("mstatus = %#x, want %#x", got, want)
			}
		})
	}
}

func TestMachinePageFault_Unexplained(t *testing.T) {
	tests := []struct {
		name      string
		qualifier uint64
		cause     uint64
	}{
		{"fetchStoreFault", MSTATUS_MPRV | MSTATUS_MXR, CAUSE_STORE_PAGE_FAULT},
		{"fetchStoreAccess", MSTATUS_MPRV | MSTATUS_MXR, CAUSE_STORE_ACCESS},
		{"noQualifier", 0, CAUSE_LOAD_PAGE_FAULT},
		{"mxrOnly", MSTATUS_MXR, CAUSE_LOAD_ACCESS},
		{"illegalFromM", MSTATUS_MPRV, CAUSE_ILLEGAL_INSTRUCTION},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBoard(t)
			h, tf := emulationTrap(b, tt.qualifier, tt.cause, 0)
			if tt.qualifier&MSTATUS_MPRV == 0 {
				// Any stale a1 must not matter once MPRV is clear.
				tf.Regs[REG_A1] = MSTATUS_MPRV
			}

			if out := b.m.TrapVector(h, tf, machineEmulationPC); out != TrapHalted {
				t.Fatalf("outcome %s, want halted", out)
			}
			halt, _ := b.m.Halted()
			if halt.Code != POWEROFF_FATAL || halt.Reason != HaltUnhandlable {
				t.Fatalf("halt = %+v", halt)
			}
			if v, _ := b.finisher.Value(); v != uint32(POWEROFF_FATAL)<<16|FINISHER_FAIL {
				t.Fatalf("finisher = %#x", v)
			}
		})
	}
}

func TestPMPTrap_RedirectsAccessFaults(t *testing.T) {
	for _, cause := range []uint64{CAUSE_FETCH_ACCESS, CAUSE_LOAD_ACCESS, CAUSE_STORE_ACCESS} {
		b := newTestBoard(t)
		h := b.m.Hart(0)
		h.CSR().Set(CSR_MSTATUS, MSTATUS_SIE)
		pc := h.PC()

		if out := h.Fault(cause, 0x4000); out != TrapRedirected {
			t.Fatalf("cause %d: outcome %s", cause, out)
		}
		c := h.CSR()
		if c.Read(CSR_SCAUSE) != cause || c.Read(CSR_STVAL) != 0x4000 || c.Read(CSR_SEPC) != pc {
			t.Fatalf("cause %d: %s", cause, c)
		}
		status := c.Read(CSR_MSTATUS)
		if statusSPP.get(status) != 1 || status&MSTATUS_SIE != 0 {
			t.Fatalf("cause %d: mstatus %#x", cause, status)
		}
		if h.PC() != DEFAULT_STVEC || h.Priv() != PRV_S {
			t.Fatalf("cause %d: pc=%#x priv=%d", cause, h.PC(), h.Priv())
		}
	}
}
