//go:build headless

package main

import "fmt"

func init() {
	compiledFeatures = append(compiledFeatures, "console:headless")
}

type WindowConsole struct{}

func NewWindowConsole(fb *FramebufferConsole) (*WindowConsole, error) {
	return nil, fmt.Errorf("window console not available in headless build")
}

func (wc *WindowConsole) Start() error          { return nil }
func (wc *WindowConsole) Done() <-chan struct{} { return nil }
