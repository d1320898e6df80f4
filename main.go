// pledged restricts a process and its children to a named set of
// system-call promises, the way OpenBSD's pledge(2) restricts a process
// to the syscalls it actually needs.
//
// Commands:
//
//	parse   - parse a promise string and print its canonical form
//	check   - evaluate a syscall against a promise set
//	canon   - canonicalize and resolve a path
//	exec    - run a command under pledge enforcement
//	list    - list supervised processes
//	version - print version information
package main

import (
	"fmt"
	"os"

	"pledged/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
