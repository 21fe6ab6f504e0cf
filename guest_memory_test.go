package main

import "testing"

func TestGuestMemory_LoadStore(t *testing.T) {
	g := NewGuestMemory(GUEST_RAM_BASE, 2*GUEST_PAGE_SIZE)
	for _, size := range []int{1, 2, 4, 8} {
		addr := uint64(GUEST_RAM_BASE + 0x100)
		if _, ok := g.Store(addr, size, 0x1122334455667788); !ok {
			t.Fatalf("store size %d failed", size)
		}
		v, _, ok := g.Load(addr, size)
		if !ok {
			t.Fatalf("load size %d failed", size)
		}
		want := uint64(0x1122334455667788)
		if size < 8 {
			want &= uint64(1)<<(8*size) - 1
		}
		if v != want {
			t.Errorf("size %d: got %#x, want %#x", size, v, want)
		}
	}
}

func TestGuestMemory_LittleEndian(t *testing.T) {
	g := NewGuestMemory(GUEST_RAM_BASE, GUEST_PAGE_SIZE)
	if err := g.Write32(GUEST_RAM_BASE, 0xC0102573); err != nil {
		t.Fatal(err)
	}
	lo, _, _ := g.Load(GUEST_RAM_BASE, 2)
	hi, _, _ := g.Load(GUEST_RAM_BASE+2, 2)
	if lo != 0x2573 || hi != 0xC010 {
		t.Fatalf("halves %#x %#x", lo, hi)
	}
}

func TestGuestMemory_Faults(t *testing.T) {
	g := NewGuestMemory(GUEST_RAM_BASE, 2*GUEST_PAGE_SIZE)
	g.Unmap(GUEST_RAM_BASE + GUEST_PAGE_SIZE)

	tests := []struct {
		name      string
		addr      uint64
		size      int
		loadCause uint64
		storeCase uint64
	}{
		{"belowRAM", 0x1000, 8, CAUSE_LOAD_ACCESS, CAUSE_STORE_ACCESS},
		{"pastEnd", GUEST_RAM_BASE + 2*GUEST_PAGE_SIZE, 4, CAUSE_LOAD_ACCESS, CAUSE_STORE_ACCESS},
		{"unmapped", GUEST_RAM_BASE + GUEST_PAGE_SIZE + 8, 8, CAUSE_LOAD_PAGE_FAULT, CAUSE_STORE_PAGE_FAULT},
		{"crossIntoUnmapped", GUEST_RAM_BASE + GUEST_PAGE_SIZE - 4, 8, CAUSE_LOAD_PAGE_FAULT, CAUSE_STORE_PAGE_FAULT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, cause, ok := g.Load(tt.addr, tt.size); ok || cause != tt.loadCause {
				t.Errorf("load: ok=%v cause=%d, want %d", ok, cause, tt.loadCause)
			}
			if cause, ok := g.Store(tt.addr, tt.size, 0); ok || cause != tt.storeCase {
				t.Errorf("store: ok=%v cause=%d, want %d", ok, cause, tt.storeCase)
			}
		})
	}
}

func TestGuestMemory_Remap(t *testing.T) {
	g := NewGuestMemory(GUEST_RAM_BASE, GUEST_PAGE_SIZE)
	g.Unmap(GUEST_RAM_BASE)
	if _, err := g.Read64(GUEST_RAM_BASE); err == nil {
		t.Fatal("read of unmapped page succeeded")
	}
	g.Map(GUEST_RAM_BASE)
	if err := g.Write64(GUEST_RAM_BASE, 42); err != nil {
		t.Fatal(err)
	}
	if v, err := g.Read64(GUEST_RAM_BASE); err != nil || v != 42 {
		t.Fatalf("read = %d, %v", v, err)
	}
}
