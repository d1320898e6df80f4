package enforce

import "syscall"

// SysProcAttr returns the process attributes for a command run under
// pledge enforcement: the child traps at its own execve (Ptrace) so the
// supervisor is attached before the traced program runs any instruction
// of its own, and runs in its own session so signals aimed at its
// process group don't reach the caller's terminal group. Pledge restricts what a process may call, not what namespace it
// lives in, so unlike the teacher's BuildSysProcAttr this never sets
// Cloneflags/Unshareflags or UID/GID mappings.
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Ptrace: true,
		Setsid: true,
	}
}
