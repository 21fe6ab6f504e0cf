package main

// statusField names one field of mstatus. Positions are ABI, see csr_constants.go.
type statusField struct {
	shift uint
	width uint
}

var (
	statusSIE  = statusField{shift: 1, width: 1}
	statusMIE  = statusField{shift: 3, width: 1}
	statusSPIE = statusField{shift: 5, width: 1}
	statusMPIE = statusField{shift: 7, width: 1}
	statusSPP  = statusField{shift: MSTATUS_SPP_SHIFT, width: 1}
	statusMPP  = statusField{shift: MSTATUS_MPP_SHIFT, width: 2}
	statusMPRV = statusField{shift: 17, width: 1}
)

func (f statusField) mask() uint64 {
	return (uint64(1)<<f.width - 1) << f.shift
}

// get extracts the field value.
func (f statusField) get(status uint64) uint64 {
	return (status & f.mask()) >> f.shift
}

// set returns status with the field replaced by v.
func (f statusField) set(status, v uint64) uint64 {
	return status&^f.mask() | (v<<f.shift)&f.mask()
}

func mstatusMPP(status uint64) int {
	return int(statusMPP.get(status))
}

func mstatusSetMPP(status uint64, prv int) uint64 {
	return statusMPP.set(status, uint64(prv))
}

// mstatusPushIE is the interrupt-enable stack push on trap entry to M-mode:
// MPIE = MIE, MIE = 0.
func mstatusPushIE(status uint64) uint64 {
	status = statusMPIE.set(status, statusMIE.get(status))
	return statusMIE.set(status, 0)
}

// mstatusMret applies mret to status and returns the new status together
// with the privilege level execution resumes in.
func mstatusMret(status uint64) (uint64, int) {
	prv := mstatusMPP(status)
	status = statusMIE.set(status, statusMPIE.get(status))
	status = statusMPIE.set(status, 1)
	status = mstatusSetMPP(status, PRV_U)
	if prv != PRV_M {
		status = statusMPRV.set(status, 0)
	}
	return status, prv
}

// supervisorTrapStatus computes the mstatus that delivers a trap to S-mode
// from the status captured when the trap was taken. The supervisor enable
// stack is pushed as hardware delegation would: SPIE = SIE, SIE = 0. MIE is
// already clear in anything captured after M-mode entry.
func supervisorTrapStatus(captured uint64) uint64 {
	next := captured &^ (MSTATUS_SPP | MSTATUS_SPIE | MSTATUS_SIE)
	next = statusSPIE.set(next, statusSIE.get(captured))
	next = statusSPP.set(next, statusMPP.get(captured)&1)
	next = mstatusSetMPP(next, PRV_S)
	return next
}
