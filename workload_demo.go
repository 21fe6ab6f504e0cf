package main

import (
	"context"
	"fmt"
)

// DEMO_MASK_OFFSET is where the demo keeps its hart mask in guest RAM.
const DEMO_MASK_OFFSET = 0x1000

// demoWorkload runs when no script is given. Hart 0 greets, fences every
// hart's TLB through SBI and powers the board off; the rest just take
// interrupts.
func demoWorkload(ctx context.Context, h *Hart) error {
	if h.id != 0 {
		return nil
	}
	m := h.m
	if !sbiPuts(h, fmt.Sprintf("IntuitionSBI %s: %d harts, rv%d\n", Version, m.Harts(), m.xlen)) {
		return nil
	}

	maskAddr := m.memory.Base() + DEMO_MASK_OFFSET
	if err := m.memory.Write64(maskAddr, m.table.PresentMask()); err != nil {
		return fmt.Errorf("demo: %w", err)
	}
	if _, out := h.Ecall(SBI_REMOTE_SFENCE_VMA, maskAddr, 0); out != TrapServiced {
		return nil
	}
	if !sbiPuts(h, "remote sfence.vma acknowledged\n") {
		return nil
	}
	for i := 0; i < m.Harts(); i++ {
		state := "up"
		if m.table.Disabled(i) {
			state = "disabled"
		}
		line := fmt.Sprintf("  hart%d %s\n", i, state)
		if !sbiPuts(h, line) {
			return nil
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	h.Ecall(SBI_SHUTDOWN, 0, 0)
	return nil
}

// sbiPuts writes s with SBI_CONSOLE_PUTCHAR and reports whether the hart
// is still running.
func sbiPuts(h *Hart, s string) bool {
	for i := 0; i < len(s); i++ {
		if _, out := h.Ecall(SBI_CONSOLE_PUTCHAR, uint64(s[i]), 0); out == TrapHalted {
			return false
		}
	}
	return true
}
