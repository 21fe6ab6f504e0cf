package main

import (
	"sync"
	"testing"
)

func TestNewHartTable_Validation(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		disabled uint64
		ok       bool
	}{
		{"one", 1, 0, true},
		{"max", MAX_HARTS, 0, true},
		{"zero", 0, 0, false},
		{"tooMany", MAX_HARTS + 1, 0, false},
		{"disabledPresent", 4, 1<<1 | 1<<3, true},
		{"disabledAbsent", 4, 1 << 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHartTable(tt.count, tt.disabled)
			if (err == nil) != tt.ok {
				t.Fatalf("err = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestHartTable_PresentMask(t *testing.T) {
	for _, tc := range []struct {
		count int
		mask  uint64
	}{{1, 0x1}, {4, 0xF}, {MAX_HARTS, 0xFFFFFFFF}} {
		tbl, err := NewHartTable(tc.count, 0)
		if err != nil {
			t.Fatal(err)
		}
		if tbl.PresentMask() != tc.mask {
			t.Fatalf("count %d: mask %#x, want %#x", tc.count, tbl.PresentMask(), tc.mask)
		}
		if tbl.Count() != tc.count {
			t.Fatalf("Count() = %d", tbl.Count())
		}
	}
}

func TestHartTable_Disabled(t *testing.T) {
	tbl, _ := NewHartTable(4, 1<<2)
	for id := 0; id < 4; id++ {
		if got := tbl.Disabled(id); got != (id == 2) {
			t.Fatalf("Disabled(%d) = %v", id, got)
		}
	}
}

func TestHartTable_TimecmpStartsDisarmed(t *testing.T) {
	tbl, _ := NewHartTable(2, 0)
	if tbl.Self(0).TimeCmp() != ^uint64(0) {
		t.Fatalf("timecmp = %#x", tbl.Self(0).TimeCmp())
	}
}

func TestForEachHart_AscendingOrder(t *testing.T) {
	var got []int
	forEachHart(1<<0|1<<5|1<<31|1<<7, func(id int) { got = append(got, id) })
	want := []int{0, 5, 7, 31}
	if len(got) != len(want) {
		t.Fatalf("visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visited %v, want %v", got, want)
		}
	}
}

func TestHartLocalState_TakeClears(t *testing.T) {
	var s HartLocalState
	s.Post(IPI_SOFT)
	s.Post(IPI_SFENCE_VMA)
	s.Ring()

	if s.TakeDoorbell() == 0 || s.Doorbell() != 0 {
		t.Fatal("doorbell not taken")
	}
	if got := s.TakePending(); got != IPI_SOFT|IPI_SFENCE_VMA {
		t.Fatalf("pending = %#x", got)
	}
	if s.Pending() != 0 {
		t.Fatal("pending not cleared")
	}
}

func TestHartLocalState_ConcurrentPost(t *testing.T) {
	var s HartLocalState
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(bit uint32) {
			defer wg.Done()
			s.Post(bit)
		}(uint32(1) << (i % 4))
	}
	wg.Wait()
	if got := s.Pending(); got != 0xF {
		t.Fatalf("pending = %#x, want 0xF", got)
	}
}
