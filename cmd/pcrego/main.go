// Command pcrego compiles PCRE-style patterns to bytecode, prints their
// disassembly and generates Go files of precompiled programs.
package main

import (
	"os"

	"github.com/KromDaniel/pcrego/cmd/pcrego/command"
)

func main() {
	if err := command.New().Execute(); err != nil {
		os.Exit(1)
	}
}
