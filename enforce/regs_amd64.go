//go:build amd64

package enforce

import "golang.org/x/sys/unix"

// syscallNR returns the syscall number a traced process is entering, per
// the amd64 ptrace register layout (orig_rax holds the original syscall
// number; rax is clobbered with the in-progress return value).
func syscallNR(regs *unix.PtraceRegs) int {
	return int(regs.Orig_rax)
}

// syscallArg returns the i'th syscall argument (0-indexed), following the
// amd64 System V syscall ABI: rdi, rsi, rdx, r10, r8, r9.
func syscallArg(regs *unix.PtraceRegs, i int) uint64 {
	switch i {
	case 0:
		return regs.Rdi
	case 1:
		return regs.Rsi
	case 2:
		return regs.Rdx
	case 3:
		return regs.R10
	case 4:
		return regs.R8
	case 5:
		return regs.R9
	default:
		return 0
	}
}
