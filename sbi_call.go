// sbi_call.go - Supervisor binary interface calls

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

// mcallTrap services an SBI call. mepc is moved past the ecall first; the
// result goes back in a0. A call that redirects (faulting hart mask) or
// halts leaves a0 untouched.
func (m *Machine) mcallTrap(h *Hart, tf *TrapFrame, mepc uint64) TrapOutcome {
	h.csr.Write(CSR_MEPC, mepc+ECALL_INSN_SIZE)

	n := tf.Regs[REG_A7]
	arg0 := tf.Regs[REG_A0]
	arg1 := tf.Regs[REG_A1]

	var retval int64
	out := TrapServiced

	switch n {
	case SBI_CONSOLE_PUTCHAR:
		m.console.PutChar(byte(arg0))
		retval = SBI_OK
	case SBI_CONSOLE_GETCHAR:
		retval = m.consoleGetChar()
	case SBI_SEND_IPI:
		out = m.SendIPIMany(h, arg0, IPI_SOFT)
	case SBI_REMOTE_SFENCE_VMA, SBI_REMOTE_SFENCE_VMA_ASID:
		out = m.SendIPIMany(h, arg0, IPI_SFENCE_VMA)
	case SBI_REMOTE_FENCE_I:
		out = m.SendIPIMany(h, arg0, IPI_FENCE_I)
	case SBI_CLEAR_IPI:
		retval = int64(h.csr.Clear(CSR_MIP, MIP_SSIP) & MIP_SSIP)
	case SBI_SHUTDOWN:
		out = m.poweroff(h, POWEROFF_OK, HaltShutdown, "shutdown requested")
	case SBI_SET_TIMER:
		when := arg0
		if m.xlen == 32 {
			when = arg0&0xFFFFFFFF | arg1<<32
		}
		retval = m.setTimer(h, when)
	case SBI_PLIC_EOI:
		h.csr.Clear(CSR_MIP, MIP_SEIP)
		h.csr.Set(CSR_MIE, MIP_MEIP)
		retval = SBI_OK
	case SBI_SET_PERF:
		retval = SBI_FAIL
		if h.csr.WritePerf(arg0, arg1) {
			retval = SBI_PERF_OK
		}
	case SBI_GET_PERF:
		retval = SBI_FAIL
		if v, ok := h.csr.ReadPerf(arg0); ok {
			retval = int64(v)
		}
	default:
		retval = -ENOSYS
	}

	m.tracef("hart%d: sbi %s(%#x, %#x) = %d\n", h.id, sbiName(n), arg0, arg1, retval)
	if out == TrapServiced {
		tf.Regs[REG_A0] = m.xlenValue(retval)
	}
	return out
}

func (m *Machine) consoleGetChar() int64 {
	ch, ok := m.console.GetChar()
	if !ok {
		return SBI_FAIL
	}
	return int64(ch)
}

// setTimer arms the caller's own deadline and hands timer interrupts back
// to M-mode until it fires.
func (m *Machine) setTimer(h *Hart, when uint64) int64 {
	m.table.Self(h.id).SetTimeCmp(when)
	h.csr.Clear(CSR_MIP, MIP_STIP)
	h.csr.Set(CSR_MIE, MIP_MTIP)
	return SBI_OK
}

// xlenValue truncates a signed result to the register width.
func (m *Machine) xlenValue(v int64) uint64 {
	if m.xlen == 32 {
		return uint64(uint32(v))
	}
	return uint64(v)
}
