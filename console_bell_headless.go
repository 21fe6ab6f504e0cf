//go:build headless

package main

func init() {
	compiledFeatures = append(compiledFeatures, "bell:none")
}

type ConsoleBell struct{}

func NewConsoleBell() (*ConsoleBell, error) {
	return &ConsoleBell{}, nil
}

func (b *ConsoleBell) Ring()  {}
func (b *ConsoleBell) Close() {}
