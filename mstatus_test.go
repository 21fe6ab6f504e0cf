package main

import "testing"

func TestStatusField_GetSet(t *testing.T) {
	status := uint64(0)
	status = statusMPP.set(status, PRV_M)
	if status != MSTATUS_MPP {
		t.Fatalf("MPP=M gives %#x", status)
	}
	status = statusMPP.set(status, PRV_S)
	if statusMPP.get(status) != PRV_S || status != uint64(PRV_S)<<MSTATUS_MPP_SHIFT {
		t.Fatalf("MPP=S gives %#x", status)
	}
	// Values wider than the field are truncated.
	if got := statusSPP.set(0, 3); got != MSTATUS_SPP {
		t.Fatalf("SPP=3 gives %#x", got)
	}
}

func TestMstatusPushIE(t *testing.T) {
	if got := mstatusPushIE(MSTATUS_MIE); got != MSTATUS_MPIE {
		t.Fatalf("push with MIE set: %#x", got)
	}
	if got := mstatusPushIE(MSTATUS_MPIE); got != 0 {
		t.Fatalf("push with MIE clear: %#x", got)
	}
}

func TestMstatusMret(t *testing.T) {
	tests := []struct {
		name     string
		status   uint64
		wantPriv int
		want     uint64
	}{
		{"toS", mstatusSetMPP(MSTATUS_MPIE|MSTATUS_MPRV, PRV_S), PRV_S, MSTATUS_MIE | MSTATUS_MPIE},
		{"toU", mstatusSetMPP(0, PRV_U), PRV_U, MSTATUS_MPIE},
		{"toMKeepsMPRV", mstatusSetMPP(MSTATUS_MPRV, PRV_M), PRV_M, MSTATUS_MPIE | MSTATUS_MPRV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, prv := mstatusMret(tt.status)
			if prv != tt.wantPriv || got != tt.want {
				t.Fatalf("mret(%#x) = %#x, %d; want %#x, %d", tt.status, got, prv, tt.want, tt.wantPriv)
			}
		})
	}
}
