//go:build arm64

package enforce

import "golang.org/x/sys/unix"

func syscallRegsWithArg(i int, val uint64) *unix.PtraceRegs {
	regs := &unix.PtraceRegs{}
	if i >= 0 && i <= 5 {
		regs.Regs[i] = val
	}
	return regs
}
