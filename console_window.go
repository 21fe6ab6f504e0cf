//go:build !headless

// console_window.go - Ebiten window for the framebuffer console

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"
)

const PASTE_MAX = 4096

func init() {
	compiledFeatures = append(compiledFeatures, "console:window")
}

// WindowConsole shows a FramebufferConsole in a window and feeds the
// keyboard into its receiver.
type WindowConsole struct {
	fb     *FramebufferConsole
	screen *ebiten.Image
	scale  int
	done   chan struct{}
	ready  chan struct{}
	once   sync.Once

	clipboardOnce sync.Once
	clipboardOK   bool
}

func NewWindowConsole(fb *FramebufferConsole) (*WindowConsole, error) {
	if fb == nil {
		return nil, fmt.Errorf("window console: nil framebuffer")
	}
	return &WindowConsole{
		fb:    fb,
		scale: 2,
		done:  make(chan struct{}),
		ready: make(chan struct{}),
	}, nil
}

// Start opens the window and returns after the first frame.
func (wc *WindowConsole) Start() error {
	ebiten.SetWindowSize(TEXT_WIDTH*wc.scale, TEXT_HEIGHT*wc.scale)
	ebiten.SetWindowTitle("IntuitionSBI console")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)

	errCh := make(chan error, 1)
	go func() {
		defer close(wc.done)
		if err := ebiten.RunGame(wc); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-wc.ready:
		return nil
	case err := <-errCh:
		return fmt.Errorf("window console: %w", err)
	case <-wc.done:
		return fmt.Errorf("window console: closed before first frame")
	}
}

// Done is closed when the window goes away.
func (wc *WindowConsole) Done() <-chan struct{} { return wc.done }

func (wc *WindowConsole) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	wc.handleKeyboardInput()
	return nil
}

func (wc *WindowConsole) Draw(screen *ebiten.Image) {
	grid := wc.fb.Grid()
	if wc.screen == nil || grid.TakeDirty() {
		wc.screen = ebiten.NewImageFromImage(grid.Render())
	}
	screen.DrawImage(wc.screen, nil)
	wc.once.Do(func() { close(wc.ready) })
}

func (wc *WindowConsole) Layout(_, _ int) (int, int) {
	return TEXT_WIDTH, TEXT_HEIGHT
}

func (wc *WindowConsole) handleKeyboardInput() {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)

	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		wc.handleClipboardPaste()
		return
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		if r > 0 && r < 0x80 {
			wc.fb.EnqueueByte(byte(r))
		}
	}
	for _, key := range []ebiten.Key{ebiten.KeyEnter, ebiten.KeyNumpadEnter, ebiten.KeyBackspace, ebiten.KeyTab, ebiten.KeyEscape} {
		if inpututil.IsKeyJustPressed(key) {
			wc.fb.EnqueueByte(consoleKeyByte(key))
		}
	}
	// Ctrl+letter produces the control code, as on a terminal.
	if ctrl && !shift {
		for k := ebiten.KeyA; k <= ebiten.KeyZ; k++ {
			if inpututil.IsKeyJustPressed(k) {
				wc.fb.EnqueueByte(byte(k-ebiten.KeyA) + 1)
			}
		}
	}
}

func consoleKeyByte(key ebiten.Key) byte {
	switch key {
	case ebiten.KeyEnter, ebiten.KeyNumpadEnter:
		return '\r'
	case ebiten.KeyBackspace:
		return 0x7F
	case ebiten.KeyTab:
		return '\t'
	default:
		return 0x1B
	}
}

func (wc *WindowConsole) handleClipboardPaste() {
	wc.clipboardOnce.Do(func() {
		wc.clipboardOK = clipboard.Init() == nil
	})
	if !wc.clipboardOK {
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	for _, b := range pasteBytes(data, PASTE_MAX) {
		wc.fb.EnqueueByte(b)
	}
}
