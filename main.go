// Package main points to the BPSim commands.
package main

import "fmt"

func main() {
	fmt.Println("BPSim - trace-driven branch predictor simulator")
	fmt.Println("Run 'go run ./cmd/bpsim --help' for the simulator.")
}
