package main

/*
workload_lua.go - Lua workloads and board description

A workload script may define a global `board` table that describes the
machine, and a global function `hart_main(id)` that runs as the supervisor
on every enabled hart:

    board = { harts = 4, disabled = {3}, console = "uart16550",
              power = "finisher", xlen = 64, mem = 16 }

    function hart_main(id)
        if id == 0 then
            sbi.puts("hello\n")
            sbi.shutdown()
        end
    end

The script is compiled once; each hart runs it in its own LState since an
LState is not safe for concurrent use. Bindings:

    sbi.call(n, a0, a1)        -> ret, outcome
    sbi.putchar(c)  sbi.puts(s)  sbi.getchar()
    sbi.set_timer(t)  sbi.send_ipi(maskaddr)  sbi.clear_ipi()
    sbi.remote_fence_i(maskaddr)  sbi.remote_sfence_vma(maskaddr)
    sbi.set_perf(id, v)  sbi.get_perf(id)  sbi.plic_eoi()  sbi.shutdown()
    mem.read64(a)  mem.write64(a, v)  mem.write32(a, v)
    mem.map(a)  mem.unmap(a)  mem.base()
    hart.id()  hart.count()  hart.fault(cause, addr)  hart.illegal(insn)
    hart.poll()  hart.sret()  hart.reg(i)  hart.csr(n)  hart.pc()
    hart.fences()  hart.time()  hart.wait(ticks)

Lua numbers are float64, so values above 2^53 lose precision.
*/

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

func init() {
	compiledFeatures = append(compiledFeatures, "script:lua")
}

// BoardSettings are the values a script's board table may set. nil means
// the script left the setting alone.
type BoardSettings struct {
	Harts    *int
	Disabled []int
	Console  *string
	Power    *string
	Xlen     *int
	MemMiB   *int
}

// LuaScript is a compiled workload script.
type LuaScript struct {
	name  string
	proto *lua.FunctionProto
	Board BoardSettings
}

// LoadLuaScript reads and compiles path and evaluates its board table.
func LoadLuaScript(path string) (*LuaScript, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return CompileLuaScript(path, string(src))
}

// CompileLuaScript compiles src. The top-level chunk is run once here to
// read the board table, and again in every hart's state.
func CompileLuaScript(name, src string) (*LuaScript, error) {
	chunk, err := parse.Parse(strings.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	s := &LuaScript{name: name, proto: proto}

	L := lua.NewState()
	defer L.Close()
	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	if err := s.readBoard(L); err != nil {
		return nil, fmt.Errorf("script %s: board: %w", name, err)
	}
	return s, nil
}

func (s *LuaScript) readBoard(L *lua.LState) error {
	tbl, ok := L.GetGlobal("board").(*lua.LTable)
	if !ok {
		return nil
	}
	b := &s.Board

	intField := func(key string) (*int, error) {
		switch v := tbl.RawGetString(key).(type) {
		case *lua.LNilType:
			return nil, nil
		case lua.LNumber:
			n := int(v)
			return &n, nil
		default:
			return nil, fmt.Errorf("%s: want number, got %s", key, v.Type())
		}
	}
	strField := func(key string) (*string, error) {
		switch v := tbl.RawGetString(key).(type) {
		case *lua.LNilType:
			return nil, nil
		case lua.LString:
			str := string(v)
			return &str, nil
		default:
			return nil, fmt.Errorf("%s: want string, got %s", key, v.Type())
		}
	}

	var err error
	if b.Harts, err = intField("harts"); err != nil {
		return err
	}
	if b.Xlen, err = intField("xlen"); err != nil {
		return err
	}
	if b.MemMiB, err = intField("mem"); err != nil {
		return err
	}
	if b.Console, err = strField("console"); err != nil {
		return err
	}
	if b.Power, err = strField("power"); err != nil {
		return err
	}

	switch v := tbl.RawGetString("disabled").(type) {
	case *lua.LNilType:
	case *lua.LTable:
		v.ForEach(func(_, id lua.LValue) {
			if n, ok := id.(lua.LNumber); ok {
				b.Disabled = append(b.Disabled, int(n))
			} else if err == nil {
				err = fmt.Errorf("disabled: want hart numbers, got %s", id.Type())
			}
		})
	default:
		return fmt.Errorf("disabled: want table, got %s", v.Type())
	}
	return err
}

// Workload returns a Workload that runs hart_main(id) on each hart. Harts
// stop running Lua as soon as the machine powers off.
func (s *LuaScript) Workload() Workload {
	return func(ctx context.Context, h *Hart) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-h.m.Off():
				cancel()
			case <-ctx.Done():
			}
		}()

		L := lua.NewState()
		defer L.Close()
		L.SetContext(ctx)
		registerHartBindings(L, h)

		L.Push(L.NewFunctionFromProto(s.proto))
		if err := L.PCall(0, lua.MultRet, nil); err != nil {
			return s.runError(h, err)
		}
		fn, ok := L.GetGlobal("hart_main").(*lua.LFunction)
		if !ok {
			return nil
		}
		err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(h.id))
		if err != nil {
			return s.runError(h, err)
		}
		return nil
	}
}

// runError drops errors caused by the machine going away under the script.
func (s *LuaScript) runError(h *Hart, err error) error {
	if _, off := h.m.Halted(); off {
		return nil
	}
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", s.name, apiErr.Object.String())
	}
	return fmt.Errorf("%s: %w", s.name, err)
}

func luaWord(L *lua.LState, n int) uint64 {
	return uint64(int64(L.CheckNumber(n)))
}

func luaOptWord(L *lua.LState, n int) uint64 {
	return uint64(int64(L.OptNumber(n, 0)))
}

func registerHartBindings(L *lua.LState, h *Hart) {
	ecall := func(n uint64) lua.LGFunction {
		return func(L *lua.LState) int {
			ret, out := h.Ecall(n, luaOptWord(L, 1), luaOptWord(L, 2))
			L.Push(lua.LNumber(ret))
			L.Push(lua.LString(out.String()))
			return 2
		}
	}

	sbi := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"call": func(L *lua.LState) int {
			ret, out := h.Ecall(luaWord(L, 1), luaOptWord(L, 2), luaOptWord(L, 3))
			L.Push(lua.LNumber(ret))
			L.Push(lua.LString(out.String()))
			return 2
		},
		"putchar": func(L *lua.LState) int {
			var ch uint64
			if s, ok := L.Get(1).(lua.LString); ok && len(s) > 0 {
				ch = uint64(s[0])
			} else {
				ch = luaWord(L, 1)
			}
			ret, _ := h.Ecall(SBI_CONSOLE_PUTCHAR, ch, 0)
			L.Push(lua.LNumber(ret))
			return 1
		},
		"puts": func(L *lua.LState) int {
			s := L.CheckString(1)
			for i := 0; i < len(s); i++ {
				if _, out := h.Ecall(SBI_CONSOLE_PUTCHAR, uint64(s[i]), 0); out == TrapHalted {
					break
				}
			}
			return 0
		},
		"getchar":           ecall(SBI_CONSOLE_GETCHAR),
		"set_timer":         ecall(SBI_SET_TIMER),
		"send_ipi":          ecall(SBI_SEND_IPI),
		"clear_ipi":         ecall(SBI_CLEAR_IPI),
		"remote_fence_i":    ecall(SBI_REMOTE_FENCE_I),
		"remote_sfence_vma": ecall(SBI_REMOTE_SFENCE_VMA),
		"set_perf":          ecall(SBI_SET_PERF),
		"get_perf":          ecall(SBI_GET_PERF),
		"plic_eoi":          ecall(SBI_PLIC_EOI),
		"shutdown":          ecall(SBI_SHUTDOWN),
	})
	L.SetGlobal("sbi", sbi)

	mem := h.m.memory
	L.SetGlobal("mem", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"read64": func(L *lua.LState) int {
			v, err := mem.Read64(luaWord(L, 1))
			if err != nil {
				L.RaiseError("%v", err)
			}
			L.Push(lua.LNumber(v))
			return 1
		},
		"write64": func(L *lua.LState) int {
			if err := mem.Write64(luaWord(L, 1), luaWord(L, 2)); err != nil {
				L.RaiseError("%v", err)
			}
			return 0
		},
		"write32": func(L *lua.LState) int {
			if err := mem.Write32(luaWord(L, 1), uint32(luaWord(L, 2))); err != nil {
				L.RaiseError("%v", err)
			}
			return 0
		},
		"map": func(L *lua.LState) int {
			mem.Map(luaWord(L, 1))
			return 0
		},
		"unmap": func(L *lua.LState) int {
			mem.Unmap(luaWord(L, 1))
			return 0
		},
		"base": func(L *lua.LState) int {
			L.Push(lua.LNumber(mem.Base()))
			return 1
		},
	}))

	L.SetGlobal("hart", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"id": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.id))
			return 1
		},
		"count": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.m.Harts()))
			return 1
		},
		"fault": func(L *lua.LState) int {
			L.Push(lua.LString(h.Fault(luaWord(L, 1), luaOptWord(L, 2)).String()))
			return 1
		},
		"illegal": func(L *lua.LState) int {
			L.Push(lua.LString(h.Illegal(uint32(luaOptWord(L, 1))).String()))
			return 1
		},
		"poll": func(L *lua.LState) int {
			L.Push(lua.LString(h.Poll().String()))
			return 1
		},
		"sret": func(L *lua.LState) int {
			h.Sret()
			return 0
		},
		"reg": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.Reg(L.CheckInt(1) & 31)))
			return 1
		},
		"csr": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.csr.Read(uint16(L.CheckInt(1)))))
			return 1
		},
		"pc": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.PC()))
			return 1
		},
		"fences": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.FenceICount()))
			L.Push(lua.LNumber(h.SFenceVMACount()))
			return 2
		},
		"time": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.m.timer.Now()))
			return 1
		},
		"wait": func(L *lua.LState) int {
			until := h.m.timer.Now() + luaWord(L, 1)
			for h.m.timer.Now() < until {
				if h.Poll() == TrapHalted {
					break
				}
				if err := L.Context().Err(); err != nil {
					break
				}
				runtime.Gosched()
			}
			return 0
		},
	}))
}
