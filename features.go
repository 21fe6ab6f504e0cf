package main

import (
	"fmt"
	"io"
	"runtime"
	"sort"
)

// Version is overridden at link time with -X main.Version=...
var Version = "dev"

// compiledFeatures tracks build-time feature flags via init() registration.
var compiledFeatures []string

// sbiCallCount is one past the highest SBI call number served.
const sbiCallCount = SBI_GET_PERF + 1

// writeFeatures prints the build and the board options it supports.
func writeFeatures(w io.Writer) {
	fmt.Fprintf(w, "IntuitionSBI %s\n", Version)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
	fmt.Fprintf(w, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "  Max harts:  %d\n", MAX_HARTS)
	fmt.Fprintf(w, "  XLEN:       32, 64\n")
	fmt.Fprintf(w, "  mtime:      %d Hz\n", MTIME_HZ)
	fmt.Fprintln(w)

	consoles := make([]string, 0, len(consoleBackendNames))
	for name := range consoleBackendNames {
		consoles = append(consoles, name)
	}
	sort.Strings(consoles)
	fmt.Fprintln(w, "Console backends:")
	for _, name := range consoles {
		fmt.Fprintf(w, "  %s\n", name)
	}

	fmt.Fprintln(w, "Power devices:")
	for _, name := range powerDeviceNames {
		fmt.Fprintf(w, "  %s\n", name)
	}

	fmt.Fprintln(w, "SBI calls:")
	for n := uint64(0); n < sbiCallCount; n++ {
		fmt.Fprintf(w, "  %2d %s\n", n, sbiName(n))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Compiled features:")
	sort.Strings(compiledFeatures)
	for _, f := range compiledFeatures {
		fmt.Fprintf(w, "  %s\n", f)
	}
	if len(compiledFeatures) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
}
