//go:build amd64

package enforce

import "golang.org/x/sys/unix"

func syscallRegsWithArg(i int, val uint64) *unix.PtraceRegs {
	regs := &unix.PtraceRegs{}
	switch i {
	case 0:
		regs.Rdi = val
	case 1:
		regs.Rsi = val
	case 2:
		regs.Rdx = val
	case 3:
		regs.R10 = val
	case 4:
		regs.R8 = val
	case 5:
		regs.R9 = val
	}
	return regs
}
