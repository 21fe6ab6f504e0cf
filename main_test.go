package main

import (
	"flag"
	"testing"
)

func TestParseHartMask(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 1, false},
		{"1, 3", 0b1010, false},
		{"31", 1 << 31, false},
		{"32", 0, true},
		{"-1", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		got, err := parseHartMask(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseHartMask(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseHartMask(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		code uint16
		want int
	}{
		{POWEROFF_OK, 0},
		{3, 3},
		{0x100, 1},
		{POWEROFF_FATAL, 255},
	}
	for _, tt := range tests {
		if got := exitStatus(tt.code); got != tt.want {
			t.Errorf("exitStatus(%#x) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestApplyBoard_FlagsWin(t *testing.T) {
	var opts cliOptions
	fs := newFlagSet(&opts)
	if err := fs.Parse([]string{"-harts", "2", "-console", "htif"}); err != nil {
		t.Fatal(err)
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	harts, xlen := 8, 32
	console := "sifive"
	opts.applyBoard(BoardSettings{
		Harts:    &harts,
		Xlen:     &xlen,
		Console:  &console,
		Disabled: []int{1, 5},
	}, set)

	if opts.harts != 2 || opts.console != "htif" {
		t.Errorf("explicit flags overridden: harts=%d console=%s", opts.harts, opts.console)
	}
	if opts.xlen != 32 || opts.disable != "1,5" {
		t.Errorf("board not applied: xlen=%d disable=%q", opts.xlen, opts.disable)
	}
	if opts.power != "finisher" {
		t.Errorf("power default changed: %s", opts.power)
	}
}

func TestRun_DemoWorkload(t *testing.T) {
	opts := cliOptions{harts: 2, console: "htif", power: "htif", xlen: 64, memMiB: 1, quiet: true}
	code, err := run(opts, demoWorkload)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != POWEROFF_OK {
		t.Fatalf("exit code %d", code)
	}
}
