//go:build arm64

package enforce

import "golang.org/x/sys/unix"

// syscallNR returns the syscall number a traced process is entering. On
// arm64 the syscall ABI keeps it in x8, the ninth general register.
func syscallNR(regs *unix.PtraceRegs) int {
	return int(regs.Regs[8])
}

// syscallArg returns the i'th syscall argument (0-indexed): arm64 passes
// syscall arguments in x0 through x5.
func syscallArg(regs *unix.PtraceRegs, i int) uint64 {
	if i < 0 || i > 5 {
		return 0
	}
	return regs.Regs[i]
}
