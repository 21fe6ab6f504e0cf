package main

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestCompileLuaScript_Board(t *testing.T) {
	s, err := CompileLuaScript("board.lua", `
board = { harts = 3, disabled = {2}, console = "htif", power = "none", xlen = 32, mem = 8 }
`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b := s.Board
	if b.Harts == nil || *b.Harts != 3 {
		t.Errorf("harts = %v", b.Harts)
	}
	if len(b.Disabled) != 1 || b.Disabled[0] != 2 {
		t.Errorf("disabled = %v", b.Disabled)
	}
	if b.Console == nil || *b.Console != "htif" || b.Power == nil || *b.Power != "none" {
		t.Errorf("console/power = %v/%v", b.Console, b.Power)
	}
	if b.Xlen == nil || *b.Xlen != 32 || b.MemMiB == nil || *b.MemMiB != 8 {
		t.Errorf("xlen/mem = %v/%v", b.Xlen, b.MemMiB)
	}
}

func TestCompileLuaScript_NoBoard(t *testing.T) {
	s, err := CompileLuaScript("empty.lua", `function hart_main(id) end`)
	if err != nil {
		t.Fatal(err)
	}
	if s.Board.Harts != nil || s.Board.Console != nil || s.Board.Disabled != nil {
		t.Fatalf("board = %+v", s.Board)
	}
}

func TestCompileLuaScript_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `function (`, ""},
		{"badHarts", `board = { harts = "four" }`, "harts"},
		{"badDisabled", `board = { disabled = 3 }`, "disabled"},
		{"badDisabledEntry", `board = { disabled = {"x"} }`, "disabled"},
		{"runtime", `error("early")`, "early"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileLuaScript(tt.name+".lua", tt.src)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func runLua(t *testing.T, b *testBoard, src string) (HaltInfo, error) {
	t.Helper()
	s, err := CompileLuaScript("test.lua", src)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return b.m.Run(ctx, s.Workload())
}

func TestLuaWorkload_PutsAndShutdown(t *testing.T) {
	b := newTestBoard(t, withHarts(2))
	_, err := runLua(t, b, `
function hart_main(id)
	if id == 0 then
		sbi.puts("hi from " .. hart.id() .. "/" .. hart.count() .. "\n")
		sbi.shutdown()
	end
end
`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := b.uart.DrainOutput(); !strings.HasPrefix(got, "hi from 0/2\n") {
		t.Fatalf("console %q", got)
	}
	if v, _ := b.finisher.Value(); v != FINISHER_PASS {
		t.Fatalf("finisher %#x", v)
	}
}

func TestLuaWorkload_UnknownCall(t *testing.T) {
	b := newTestBoard(t, withHarts(1))
	_, err := runLua(t, b, `
function hart_main(id)
	local ret, outcome = sbi.call(99)
	sbi.puts(tostring(ret) .. " " .. outcome .. "\n")
	sbi.shutdown()
end
`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := b.uart.DrainOutput(); !strings.HasPrefix(got, "-38 serviced\n") {
		t.Fatalf("console %q", got)
	}
}

func TestLuaWorkload_MemoryAndIPI(t *testing.T) {
	b := newTestBoard(t, withHarts(2))
	_, err := runLua(t, b, `
function hart_main(id)
	if id ~= 0 then return end
	local mask = mem.base() + 0x1000
	mem.write64(mask, 2)
	sbi.remote_fence_i(mask)
	local fi, _ = hart.fences()
	sbi.puts("self " .. fi .. "\n")
	sbi.shutdown()
end
`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := b.uart.DrainOutput(); !strings.HasPrefix(got, "self 0\n") {
		t.Fatalf("console %q", got)
	}
	if n := b.m.Hart(1).FenceICount(); n != 1 {
		t.Fatalf("hart1 fence.i count %d", n)
	}
}

func TestLuaWorkload_ErrorPropagates(t *testing.T) {
	b := newTestBoard(t, withHarts(1))
	_, err := runLua(t, b, `function hart_main(id) error("boom") end`)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v", err)
	}
}

func TestLuaWorkload_FaultBinding(t *testing.T) {
	b := newTestBoard(t, withHarts(1))
	_, err := runLua(t, b, `
function hart_main(id)
	local out = hart.fault(13, 0)
	sbi.puts(out .. "\n")
	sbi.shutdown()
end
`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Load page fault is delegated at reset, so M-mode never sees it.
	if got := b.uart.DrainOutput(); !strings.HasPrefix(got, "redirected\n") {
		t.Fatalf("console %q", got)
	}
}
