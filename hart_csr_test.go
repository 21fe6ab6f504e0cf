package main

import (
	"strings"
	"testing"
)

func TestHartCSRFile_ResetState(t *testing.T) {
	c := NewHartCSRFile(3, nil)
	if mstatusMPP(c.Read(CSR_MSTATUS)) != PRV_M {
		t.Fatalf("reset mstatus %#x", c.Read(CSR_MSTATUS))
	}
	if c.Read(CSR_MHARTID) != 3 {
		t.Fatalf("mhartid = %d", c.Read(CSR_MHARTID))
	}
	if c.Read(CSR_TIME) != 0 {
		t.Fatal("time without a timer should read 0")
	}
}

func TestHartCSRFile_SupervisorViews(t *testing.T) {
	c := NewHartCSRFile(0, nil)
	c.Write(CSR_MIDELEG, MIP_SSIP|MIP_STIP)
	c.Write(CSR_MIP, MIP_SSIP|MIP_MSIP|MIP_STIP)
	c.Write(CSR_MIE, MIP_STIP|MIP_MTIP)

	if got := c.Read(CSR_SIP); got != MIP_SSIP|MIP_STIP {
		t.Fatalf("sip = %#x", got)
	}
	if got := c.Read(CSR_SIE); got != MIP_STIP {
		t.Fatalf("sie = %#x", got)
	}
}

func TestHartCSRFile_SetClearReturnOld(t *testing.T) {
	c := NewHartCSRFile(0, nil)
	c.Write(CSR_MIE, MIP_MSIP)

	if old := c.Set(CSR_MIE, MIP_MTIP); old != MIP_MSIP {
		t.Fatalf("Set returned %#x", old)
	}
	if old := c.Clear(CSR_MIE, MIP_MSIP); old != MIP_MSIP|MIP_MTIP {
		t.Fatalf("Clear returned %#x", old)
	}
	if c.Read(CSR_MIE) != MIP_MTIP {
		t.Fatalf("mie = %#x", c.Read(CSR_MIE))
	}

	c.Set(CSR_MIP, MIP_SSIP)
	if old := c.Clear(CSR_MIP, MIP_SSIP); old != MIP_SSIP {
		t.Fatalf("mip Clear returned %#x", old)
	}
}

func TestHartCSRFile_EpcAlignment(t *testing.T) {
	c := NewHartCSRFile(0, nil)
	c.Write(CSR_MEPC, 0x80000003)
	c.Write(CSR_SEPC, 0x80000005)
	if c.Read(CSR_MEPC) != 0x80000002 || c.Read(CSR_SEPC) != 0x80000004 {
		t.Fatalf("mepc=%#x sepc=%#x", c.Read(CSR_MEPC), c.Read(CSR_SEPC))
	}
}

func TestHartCSRFile_PerfWindowsAreCSRs(t *testing.T) {
	c := NewHartCSRFile(0, nil)
	c.Write(PERF_COUNTER_FIRST+2, 99)
	if v, ok := c.ReadPerf(PERF_COUNTER_FIRST + 2); !ok || v != 99 {
		t.Fatalf("ReadPerf = %d, %v", v, ok)
	}
	if c.WritePerf(PERF_EVENT_LAST+1, 1) {
		t.Fatal("write outside the event window accepted")
	}
}

func TestHartCSRFile_String(t *testing.T) {
	c := NewHartCSRFile(7, nil)
	if s := c.String(); !strings.HasPrefix(s, "hart7 ") {
		t.Fatalf("String() = %q", s)
	}
}
