package main

// SBI call numbers (a7). 0-8 are the legacy v0.1 calls; 9-11 are board
// extensions for interrupt-controller EOI and performance counter access.
const (
	SBI_SET_TIMER              = 0
	SBI_CONSOLE_PUTCHAR        = 1
	SBI_CONSOLE_GETCHAR        = 2
	SBI_CLEAR_IPI              = 3
	SBI_SEND_IPI               = 4
	SBI_REMOTE_FENCE_I         = 5
	SBI_REMOTE_SFENCE_VMA      = 6
	SBI_REMOTE_SFENCE_VMA_ASID = 7
	SBI_SHUTDOWN               = 8
	SBI_PLIC_EOI               = 9
	SBI_SET_PERF               = 10
	SBI_GET_PERF               = 11
)

// SBI return codes (a0)
const (
	SBI_OK      = 0
	SBI_FAIL    = -1 // perf id outside the counter windows, getchar with no input
	SBI_PERF_OK = 1

	ENOSYS = 38
)

// IPI events posted into HartLocalState.pending
const (
	IPI_SOFT       = 0x1
	IPI_FENCE_I    = 0x2
	IPI_SFENCE_VMA = 0x4
	IPI_HALT       = 0x8
)

// Poweroff codes
const (
	POWEROFF_OK    = 0
	POWEROFF_FATAL = 0xFFFF // die(): poweroff(-1) truncated to 16 bits
)

// sbiName returns a printable name for trace output.
func sbiName(n uint64) string {
	switch n {
	case SBI_SET_TIMER:
		return "set_timer"
	case SBI_CONSOLE_PUTCHAR:
		return "console_putchar"
	case SBI_CONSOLE_GETCHAR:
		return "console_getchar"
	case SBI_CLEAR_IPI:
		return "clear_ipi"
	case SBI_SEND_IPI:
		return "send_ipi"
	case SBI_REMOTE_FENCE_I:
		return "remote_fence_i"
	case SBI_REMOTE_SFENCE_VMA:
		return "remote_sfence_vma"
	case SBI_REMOTE_SFENCE_VMA_ASID:
		return "remote_sfence_vma_asid"
	case SBI_SHUTDOWN:
		return "shutdown"
	case SBI_PLIC_EOI:
		return "plic_eoi"
	case SBI_SET_PERF:
		return "set_perf"
	case SBI_GET_PERF:
		return "get_perf"
	default:
		return "unknown"
	}
}
