//go:build !headless

// console_bell_oto.go - Console bell through OTO v3

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
	"bytes"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	BELL_SAMPLE_RATE = 44100
	BELL_FREQ        = 880
	BELL_DURATION    = 120 * time.Millisecond
	BELL_VOLUME      = 0.25
)

func init() {
	compiledFeatures = append(compiledFeatures, "bell:oto")
}

// ConsoleBell plays a short square-wave beep whenever the console sees BEL.
type ConsoleBell struct {
	ctx    *oto.Context
	tone   []byte
	mutex  sync.Mutex
	player *oto.Player // last beep, kept alive until it finishes
}

func NewConsoleBell() (*ConsoleBell, error) {
	op := &oto.NewContextOptions{
		SampleRate:   BELL_SAMPLE_RATE,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	return &ConsoleBell{ctx: ctx, tone: bellTone()}, nil
}

// bellTone renders the beep as little-endian float32 samples.
func bellTone() []byte {
	n := int(BELL_SAMPLE_RATE * BELL_DURATION / time.Second)
	half := BELL_SAMPLE_RATE / BELL_FREQ / 2
	buf := make([]byte, n*4)
	for i := 0; i < n; i++ {
		v := float32(BELL_VOLUME)
		if (i/half)%2 == 1 {
			v = -v
		}
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// Ring starts a beep; a beep still playing is cut short.
func (b *ConsoleBell) Ring() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.player != nil && b.player.IsPlaying() {
		b.player.Pause()
	}
	b.player = b.ctx.NewPlayer(bytes.NewReader(b.tone))
	b.player.Play()
}

func (b *ConsoleBell) Close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.player != nil {
		b.player.Close()
		b.player = nil
	}
}
