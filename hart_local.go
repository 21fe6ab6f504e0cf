package main

import (
	"fmt"
	"math/bits"
	"sync/atomic"
)

// MAX_HARTS bounds the hart index space. Each hart owns one bit of a
// hart-selection word, so it may not exceed 64.
const MAX_HARTS = 32

var _ [64 - MAX_HARTS]struct{}

// HartLocalState is the per-hart record other harts use to signal it.
//
// Posting is commutative (pending.Or), consumption is single-owner
// (pending.Swap / doorbell.Swap by the owning hart), so no lock is needed.
type HartLocalState struct {
	pending  atomic.Uint32 // IPI_* bits not yet acted on
	doorbell atomic.Uint32 // MSIP: non-zero means "check pending"
	timecmp  atomic.Uint64 // owner-written timer deadline
}

// Post ORs event into the pending mask.
func (s *HartLocalState) Post(event uint32) {
	s.pending.Or(event)
}

// Ring sets the doorbell.
func (s *HartLocalState) Ring() {
	s.doorbell.Store(1)
}

// Doorbell reports the raw doorbell word.
func (s *HartLocalState) Doorbell() uint32 {
	return s.doorbell.Load()
}

// Pending reports the pending mask without consuming it.
func (s *HartLocalState) Pending() uint32 {
	return s.pending.Load()
}

// TakeDoorbell clears the doorbell and returns what it held.
func (s *HartLocalState) TakeDoorbell() uint32 {
	return s.doorbell.Swap(0)
}

// TakePending clears the pending mask and returns what it held.
func (s *HartLocalState) TakePending() uint32 {
	return s.pending.Swap(0)
}

// TimeCmp returns the timer deadline.
func (s *HartLocalState) TimeCmp() uint64 {
	return s.timecmp.Load()
}

// SetTimeCmp installs a new timer deadline.
func (s *HartLocalState) SetTimeCmp(when uint64) {
	s.timecmp.Store(when)
}

// HartTable holds every hart's local state plus the boot-time hart masks.
// The masks are fixed by NewHartTable and never change afterwards.
type HartTable struct {
	present  uint64 // hart_mask: harts that exist and receive broadcasts
	disabled uint64 // disabled_hart_mask: SendIPI to these is a no-op
	count    int
	locals   [MAX_HARTS]HartLocalState
}

// NewHartTable builds the table for harts 0..count-1, with the harts in
// disabled excluded from IPI delivery.
func NewHartTable(count int, disabled uint64) (*HartTable, error) {
	if count <= 0 || count > MAX_HARTS {
		return nil, fmt.Errorf("hart count %d out of range 1..%d", count, MAX_HARTS)
	}
	present := uint64(1)<<uint(count) - 1
	if disabled&^present != 0 {
		return nil, fmt.Errorf("disabled mask %#x names harts beyond %d", disabled, count-1)
	}
	t := &HartTable{
		present:  present,
		disabled: disabled,
		count:    count,
	}
	for i := range t.locals {
		t.locals[i].timecmp.Store(^uint64(0))
	}
	return t, nil
}

// Self returns the executing hart's own record.
func (t *HartTable) Self(id int) *HartLocalState {
	return &t.locals[id]
}

// Other returns another hart's record for remote signalling.
func (t *HartTable) Other(id int) *HartLocalState {
	return &t.locals[id]
}

// Count returns the number of harts.
func (t *HartTable) Count() int { return t.count }

// PresentMask returns hart_mask.
func (t *HartTable) PresentMask() uint64 { return t.present }

// Disabled reports whether hart id is excluded from IPI delivery.
func (t *HartTable) Disabled(id int) bool {
	return (t.disabled>>uint(id))&1 != 0
}

// forEachHart calls fn for every set bit in mask, lowest index first.
func forEachHart(mask uint64, fn func(id int)) {
	for m := mask; m != 0; m &= m - 1 {
		fn(bits.TrailingZeros64(m))
	}
}
