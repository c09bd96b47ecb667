// Package main provides the naturalvoice CLI tool.
//
// Usage:
//
//	naturalvoice [flags] <command> [args]
//
// Commands:
//
//	say    - Synthesize text to speech
//	voices - List available voices
//
// Configuration:
//
//	Defaults are read from ~/.naturalvoice/config.yaml; flags override them.
package main

import (
	"fmt"
	"os"

	"github.com/voxely/naturalvoice/cmd/naturalvoice/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
