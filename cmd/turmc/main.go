// turmc batch-compiles Turing-machine language programs, reporting
// diagnostics and optionally dumping the generated transition table.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/turmLang/turm/pkg/compiler"
)

func main() {
	dump := flag.Bool("dump", false, "Print the generated transition table")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: turmc [-dump] <file.turm>...")
		os.Exit(1)
	}

	failed := false
	for _, path := range flag.Args() {
		if !compileFile(path, *dump) {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func compileFile(path string, dump bool) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	result := compiler.Compile(string(data))
	for _, d := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "%s: %s\n", path, d)
	}
	if !result.OK {
		return false
	}

	fmt.Printf("%s: %d states, %d transitions, start q%d, halt q%d\n",
		path, len(result.Table.States()), result.Table.Len(),
		result.Table.StartState, result.Table.HaltState)
	if dump {
		fmt.Print(result.Table.Dump())
	}
	return true
}
