package main

import "testing"

func TestSoftwareInterrupt_DrainsEvents(t *testing.T) {
	b := newTestBoard(t)
	h := b.m.Hart(1)
	b.m.SendIPI(1, IPI_SOFT)
	b.m.SendIPI(1, IPI_FENCE_I|IPI_SFENCE_VMA)

	if out := h.Poll(); out != TrapServiced {
		t.Fatalf("poll = %s", out)
	}
	if h.CSR().Read(CSR_MIP)&MIP_SSIP == 0 {
		t.Fatal("SSIP not raised")
	}
	if h.FenceICount() != 1 || h.SFenceVMACount() != 1 {
		t.Fatalf("fence.i=%d sfence.vma=%d", h.FenceICount(), h.SFenceVMACount())
	}
	local := b.m.Table().Self(1)
	if local.Pending() != 0 || local.Doorbell() != 0 {
		t.Fatalf("pending=%#x doorbell=%d after service", local.Pending(), local.Doorbell())
	}
	if h.PC() != DEFAULT_SUPERVISOR_PC || h.Priv() != PRV_S {
		t.Fatalf("interrupt moved pc=%#x priv=%d", h.PC(), h.Priv())
	}
}

func TestSoftwareInterrupt_Halt(t *testing.T) {
	b := newTestBoard(t)
	h := b.m.Hart(2)
	b.m.SendIPI(2, IPI_HALT)

	if out := h.Poll(); out != TrapHalted {
		t.Fatalf("poll = %s", out)
	}
	if !h.Parked() {
		t.Fatal("hart not parked")
	}
	if _, out := h.Ecall(SBI_CONSOLE_PUTCHAR, 'x', 0); out != TrapHalted {
		t.Fatalf("parked hart ecall = %s", out)
	}
	if b.uart.DrainOutput() != "" {
		t.Fatal("parked hart wrote to the console")
	}
}

func TestExternalInterrupt_MaskedUntilEOI(t *testing.T) {
	b := newTestBoard(t)
	h := b.m.Hart(0)
	h.RaiseExternalInterrupt()

	h.Poll()
	if h.CSR().Read(CSR_MCAUSE) != CAUSE_INTERRUPT|IRQ_M_EXT {
		t.Fatalf("mcause = %#x", h.CSR().Read(CSR_MCAUSE))
	}

	h.CSR().Write(CSR_MCAUSE, 0)
	h.Poll()
	if h.CSR().Read(CSR_MCAUSE) != 0 {
		t.Fatal("external interrupt retaken before EOI")
	}
}

func TestInterrupt_Priority(t *testing.T) {
	b := newTestBoard(t)
	h := b.m.Hart(0)
	b.m.SendIPI(0, IPI_SOFT)
	h.RaiseExternalInterrupt()

	h.Poll()
	if h.CSR().Read(CSR_MCAUSE) != CAUSE_INTERRUPT|IRQ_M_EXT {
		t.Fatalf("first interrupt mcause = %#x, want external", h.CSR().Read(CSR_MCAUSE))
	}
	h.Poll()
	if h.CSR().Read(CSR_MCAUSE) != CAUSE_INTERRUPT|IRQ_M_SOFT {
		t.Fatalf("second interrupt mcause = %#x, want software", h.CSR().Read(CSR_MCAUSE))
	}
}

func TestInterrupt_MaskedInMachineMode(t *testing.T) {
	b := newTestBoard(t)
	h := b.m.Hart(0)
	h.priv = PRV_M
	b.m.SendIPI(0, IPI_SOFT)

	h.Poll()
	if b.m.Table().Self(0).Doorbell() == 0 {
		t.Fatal("interrupt taken in M-mode with MIE clear")
	}
	h.CSR().Set(CSR_MSTATUS, MSTATUS_MIE)
	h.Poll()
	if b.m.Table().Self(0).Doorbell() != 0 {
		t.Fatal("interrupt not taken with MIE set")
	}
}

func TestUnexpectedInterruptHalts(t *testing.T) {
	b := newTestBoard(t)
	h := b.m.Hart(0)
	h.CSR().Write(CSR_MCAUSE, CAUSE_INTERRUPT|IRQ_S_SOFT)

	if out := b.m.TrapVector(h, &TrapFrame{}, h.PC()); out != TrapHalted {
		t.Fatalf("outcome %s", out)
	}
	if halt, _ := b.m.Halted(); halt.Reason != HaltUnhandlable {
		t.Fatalf("halt = %+v", halt)
	}
}
