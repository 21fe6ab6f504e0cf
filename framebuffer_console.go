package main

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Text console geometry. Cells are sized for basicfont.Face7x13.
const (
	TEXT_COLS    = 80
	TEXT_ROWS    = 25
	TEXT_CELL_W  = 7
	TEXT_CELL_H  = 13
	TEXT_MARGIN  = 4
	TEXT_WIDTH   = TEXT_COLS*TEXT_CELL_W + 2*TEXT_MARGIN
	TEXT_HEIGHT  = TEXT_ROWS*TEXT_CELL_H + 2*TEXT_MARGIN
	TEXT_TAB_POS = 8
)

var (
	textBackground = color.RGBA{0x10, 0x10, 0x28, 0xFF}
	textForeground = color.RGBA{0xE0, 0xE0, 0xB0, 0xFF}
)

// TextGrid is a character cell screen fed by console output. It handles
// CR, LF, BS and TAB and scrolls at the bottom row.
type TextGrid struct {
	mu    sync.Mutex
	cells [TEXT_ROWS][TEXT_COLS]byte
	col   int
	row   int
	dirty bool
	bell  func()
}

func NewTextGrid() *TextGrid {
	g := &TextGrid{}
	g.clearLocked()
	return g
}

func (g *TextGrid) clearLocked() {
	for r := range g.cells {
		for c := range g.cells[r] {
			g.cells[r][c] = ' '
		}
	}
	g.col, g.row = 0, 0
	g.dirty = true
}

// OnBell sets the callback run for BEL. It runs outside the grid lock.
func (g *TextGrid) OnBell(fn func()) {
	g.mu.Lock()
	g.bell = fn
	g.mu.Unlock()
}

// PutByte writes one output byte at the cursor.
func (g *TextGrid) PutByte(b byte) {
	g.mu.Lock()
	bell := g.bell
	ring := false
	switch b {
	case '\r':
		g.col = 0
	case '\n':
		g.lineFeedLocked()
	case '\b':
		if g.col > 0 {
			g.col--
		}
	case '\t':
		g.col = (g.col/TEXT_TAB_POS + 1) * TEXT_TAB_POS
		if g.col >= TEXT_COLS {
			g.col = 0
			g.lineFeedLocked()
		}
	case 0x07:
		ring = true
	default:
		if b < 0x20 || b > 0x7E {
			break
		}
		g.cells[g.row][g.col] = b
		g.col++
		if g.col >= TEXT_COLS {
			g.col = 0
			g.lineFeedLocked()
		}
	}
	g.dirty = true
	g.mu.Unlock()

	if ring && bell != nil {
		bell()
	}
}

func (g *TextGrid) lineFeedLocked() {
	if g.row < TEXT_ROWS-1 {
		g.row++
		return
	}
	copy(g.cells[:], g.cells[1:])
	for c := range g.cells[TEXT_ROWS-1] {
		g.cells[TEXT_ROWS-1][c] = ' '
	}
}

// Line returns row r with trailing blanks removed.
func (g *TextGrid) Line(r int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	line := g.cells[r][:]
	end := len(line)
	for end > 0 && line[end-1] == ' ' {
		end--
	}
	return string(line[:end])
}

// Cursor returns the cursor position as (column, row).
func (g *TextGrid) Cursor() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.col, g.row
}

// TakeDirty reports whether the grid changed since the last call.
func (g *TextGrid) TakeDirty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := g.dirty
	g.dirty = false
	return d
}

// Render draws the grid into a new RGBA image.
func (g *TextGrid) Render() image.Image {
	return g.context().Image()
}

// SavePNG writes a snapshot of the screen to path.
func (g *TextGrid) SavePNG(path string) error {
	if err := g.context().SavePNG(path); err != nil {
		return fmt.Errorf("console snapshot: %w", err)
	}
	return nil
}

// EncodePNG writes a snapshot of the screen to w.
func (g *TextGrid) EncodePNG(w io.Writer) error {
	return g.context().EncodePNG(w)
}

func (g *TextGrid) context() *gg.Context {
	dc := gg.NewContext(TEXT_WIDTH, TEXT_HEIGHT)
	dc.SetColor(textBackground)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	g.mu.Lock()
	cells := g.cells
	col, row := g.col, g.row
	g.mu.Unlock()

	dc.SetColor(textForeground)
	ascent := float64(basicfont.Face7x13.Ascent)
	for r := range cells {
		y := float64(TEXT_MARGIN+r*TEXT_CELL_H) + ascent
		dc.DrawString(string(cells[r][:]), TEXT_MARGIN, y)
	}

	// Block cursor
	dc.DrawRectangle(float64(TEXT_MARGIN+col*TEXT_CELL_W), float64(TEXT_MARGIN+row*TEXT_CELL_H+TEXT_CELL_H-2), TEXT_CELL_W, 2)
	dc.Fill()
	return dc
}

// FramebufferConsole is a 16550 whose transmitter drives a TextGrid.
type FramebufferConsole struct {
	*UART16550
	grid *TextGrid
}

func NewFramebufferConsole() *FramebufferConsole {
	fc := &FramebufferConsole{
		UART16550: NewUART16550(),
		grid:      NewTextGrid(),
	}
	fc.UART16550.OnTransmit(fc.grid.PutByte)
	return fc
}

func (fc *FramebufferConsole) Grid() *TextGrid { return fc.grid }
