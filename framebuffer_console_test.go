package main

import (
	"bytes"
	"image/png"
	"path/filepath"
	"strings"
	"testing"
)

func gridWrite(g *TextGrid, s string) {
	for i := 0; i < len(s); i++ {
		g.PutByte(s[i])
	}
}

func TestTextGrid_Lines(t *testing.T) {
	g := NewTextGrid()
	gridWrite(g, "hello\r\nworld")
	if g.Line(0) != "hello" || g.Line(1) != "world" {
		t.Fatalf("lines %q %q", g.Line(0), g.Line(1))
	}
	if col, row := g.Cursor(); col != 5 || row != 1 {
		t.Fatalf("cursor %d,%d", col, row)
	}
}

func TestTextGrid_BackspaceAndTab(t *testing.T) {
	g := NewTextGrid()
	gridWrite(g, "ab\bc\tx")
	if got := g.Line(0); got != "ac      x" {
		t.Fatalf("line %q", got)
	}
}

func TestTextGrid_WrapAndScroll(t *testing.T) {
	g := NewTextGrid()
	gridWrite(g, strings.Repeat("a", TEXT_COLS)+"b")
	if g.Line(1) != "b" {
		t.Fatalf("wrap: line 1 = %q", g.Line(1))
	}

	g = NewTextGrid()
	for i := 0; i < TEXT_ROWS+2; i++ {
		gridWrite(g, string(rune('A'+i))+"\n")
	}
	if g.Line(0) != "D" {
		t.Fatalf("after scroll line 0 = %q, want D", g.Line(0))
	}
	if _, row := g.Cursor(); row != TEXT_ROWS-1 {
		t.Fatalf("cursor row %d", row)
	}
}

func TestTextGrid_Bell(t *testing.T) {
	g := NewTextGrid()
	rings := 0
	g.OnBell(func() { rings++ })
	gridWrite(g, "x\a\ay")
	if rings != 2 {
		t.Fatalf("bell rang %d times", rings)
	}
	if g.Line(0) != "xy" {
		t.Fatalf("BEL printed: %q", g.Line(0))
	}
}

func TestTextGrid_Dirty(t *testing.T) {
	g := NewTextGrid()
	if !g.TakeDirty() {
		t.Fatal("new grid should be dirty")
	}
	if g.TakeDirty() {
		t.Fatal("dirty not cleared")
	}
	g.PutByte('x')
	if !g.TakeDirty() {
		t.Fatal("write did not mark dirty")
	}
}

func TestTextGrid_RenderPNG(t *testing.T) {
	g := NewTextGrid()
	gridWrite(g, "IntuitionSBI")

	var buf bytes.Buffer
	if err := g.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != TEXT_WIDTH || b.Dy() != TEXT_HEIGHT {
		t.Fatalf("image %v", b)
	}

	// Some pixel in the first cell row must be foreground.
	found := false
	for y := TEXT_MARGIN; y < TEXT_MARGIN+TEXT_CELL_H && !found; y++ {
		for x := TEXT_MARGIN; x < TEXT_MARGIN+TEXT_CELL_W*5; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r>>8 > 0x80 {
				found = true
				break
			}
		}
	}
	if !found {
		t.Fatal("no glyph pixels rendered")
	}

	path := filepath.Join(t.TempDir(), "console.png")
	if err := g.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
}

func TestFramebufferConsole_AsMachineConsole(t *testing.T) {
	fb := NewFramebufferConsole()
	cons, err := NewConsole(CONSOLE_BACKEND_FRAMEBUFFER, fb)
	if err != nil {
		t.Fatal(err)
	}
	b := newTestBoard(t, func(c *MachineConfig) { c.Console = cons })
	b.m.Hart(0).Ecall(SBI_CONSOLE_PUTCHAR, 'S', 0)
	if fb.Grid().Line(0) != "S" {
		t.Fatalf("grid line %q", fb.Grid().Line(0))
	}
	fb.EnqueueByte('k')
	if ret, _ := b.m.Hart(0).Ecall(SBI_CONSOLE_GETCHAR, 0, 0); ret != 'k' {
		t.Fatalf("getchar = %d", ret)
	}
}
