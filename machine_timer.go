package main

import (
	"sync/atomic"
	"time"
)

// MTIME_HZ is the rate of the machine timer (mtime) seen by every hart.
const MTIME_HZ = 10_000_000

// MachineTimer is the platform mtime counter shared by all harts.
// The per-hart compare value lives in HartLocalState.timecmp.
type MachineTimer struct {
	start     time.Time
	nsPerTick uint64

	// fixed, when non-zero, freezes mtime at fixed-1 (tests, replay).
	fixed atomic.Uint64
}

func NewMachineTimer() *MachineTimer {
	return &MachineTimer{
		start:     time.Now(),
		nsPerTick: uint64(time.Second) / MTIME_HZ,
	}
}

// Now returns the current mtime value.
func (t *MachineTimer) Now() uint64 {
	if f := t.fixed.Load(); f != 0 {
		return f - 1
	}
	return uint64(time.Since(t.start).Nanoseconds()) / t.nsPerTick
}

// Freeze pins mtime to v until Freeze is called again.
func (t *MachineTimer) Freeze(v uint64) {
	t.fixed.Store(v + 1)
}
