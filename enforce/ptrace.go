package enforce

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"pledged/errors"
	"pledged/pledge"
)

// Supervisor runs the ptrace syscall-stop loop that makes the
// authoritative decision for every syscall the seccomp prefilter routed
// to RET_TRACE: a live pledge.Check/PathGate/ioctl/sockopt/sysctl
// evaluation against the traced process's current promise State, with
// violations routed through a pledge.ViolationHandler.
type Supervisor struct {
	state      *pledge.State
	violations *pledge.ViolationHandler
}

// NewSupervisor returns a supervisor that enforces state against pid via
// ptrace, reporting violations through vh.
func NewSupervisor(state *pledge.State, vh *pledge.ViolationHandler) *Supervisor {
	return &Supervisor{state: state, violations: vh}
}

// pathSyscall describes how to recover the path argument and the
// Operation to evaluate it under, for one of pledge.NeedsPathInspection's
// syscalls.
type pathSyscall struct {
	pathArg int
	op      func(regs *unix.PtraceRegs) pledge.Operation
}

func constOp(op pledge.Operation) func(*unix.PtraceRegs) pledge.Operation {
	return func(*unix.PtraceRegs) pledge.Operation { return op }
}

var pathSyscalls = map[int]pathSyscall{
	unix.SYS_OPENAT: {1, func(r *unix.PtraceRegs) pledge.Operation {
		flags := syscallArg(r, 2)
		switch {
		case flags&unix.O_CREAT != 0:
			return pledge.OpOpenCreate
		case flags&(unix.O_WRONLY|unix.O_RDWR) != 0:
			return pledge.OpOpenWrite
		default:
			return pledge.OpOpenRead
		}
	}},
	unix.SYS_NEWFSTATAT: {1, constOp(pledge.OpStat)},
	unix.SYS_FACCESSAT:  {1, constOp(pledge.OpAccess)},
	unix.SYS_READLINKAT: {1, constOp(pledge.OpReadlink)},
	unix.SYS_UNLINKAT:   {1, constOp(pledge.OpUnlink)},
	unix.SYS_MKDIRAT:    {1, constOp(pledge.OpOpenCreate)},
	unix.SYS_RENAMEAT2:  {1, constOp(pledge.OpOpenCreate)},
	unix.SYS_LINKAT:     {1, constOp(pledge.OpOpenCreate)},
	unix.SYS_SYMLINKAT:  {1, constOp(pledge.OpOpenCreate)},
	unix.SYS_MKNODAT:    {1, constOp(pledge.OpMknod)},
	unix.SYS_FCHMODAT:   {1, constOp(pledge.OpOpenWrite)},
	unix.SYS_FCHOWNAT:   {1, constOp(pledge.OpOpenWrite)},
	unix.SYS_EXECVE:     {0, constOp(pledge.OpExec)},
	unix.SYS_EXECVEAT:   {1, constOp(pledge.OpExec)},
	unix.SYS_CHDIR:      {0, constOp(pledge.OpOpenRead)},
	unix.SYS_CHROOT:     {0, constOp(pledge.OpOpenRead)},
}

// Run attaches the syscall-stop loop to pid, which must already be
// stopped at its initial execve (the exec package arranges this via
// SysProcAttr.Ptrace). It returns when the child exits, or once a
// violation has been handled and the child killed.
func (s *Supervisor) Run(pid int) error {
	if err := unix.PtraceSetOptions(pid, unix.PTRACE_O_TRACESYSGOOD|unix.PTRACE_O_EXITKILL); err != nil {
		return errors.WrapWithPID(err, errors.ErrPtrace, "ptrace set options", pid)
	}

	entering := false
	for {
		if err := unix.PtraceSyscall(pid, 0); err != nil {
			return errors.WrapWithPID(err, errors.ErrPtrace, "ptrace syscall", pid)
		}

		var ws unix.WaitStatus
		if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
			return errors.WrapWithPID(err, errors.ErrPtrace, "wait4", pid)
		}
		if ws.Exited() || ws.Signaled() {
			return nil
		}

		entering = !entering
		if !entering {
			// Syscall-exit stop: the entry stop already decided whether
			// this call was allowed to proceed.
			continue
		}

		var regs unix.PtraceRegs
		if err := unix.PtraceGetRegs(pid, &regs); err != nil {
			return errors.WrapWithPID(err, errors.ErrPtrace, "ptrace getregs", pid)
		}
		nr := syscallNR(&regs)

		if desc, ok := pathSyscalls[nr]; ok {
			path, err := s.resolvePath(pid, &regs, desc)
			if err != nil {
				path = ""
			}

			if sysctlName, ok := sysctlNameFor(path); ok {
				op := desc.op(&regs)
				isWrite := op == pledge.OpOpenWrite || op == pledge.OpOpenCreate
				if err := pledge.CheckSysctl(s.state, sysctlName, isWrite); err != nil {
					need, _ := pledge.RequiredFor(nr)
					s.violations.Handle(s.state, pid, nr, path, need, false)
					s.kill(pid)
					return fmt.Errorf("pledge: sysctl %q denied", sysctlName)
				}
				continue
			}

			// Every error from Check, including the ErrPermission-kind
			// silent deny, is handled as a violation: logged, and the
			// process killed. The supervisor does not fail a single
			// syscall with an errno.
			out, err := (pledge.PathGate{}).Check(s.state, desc.op(&regs), path)
			if err != nil {
				need, _ := pledge.RequiredFor(nr)
				s.violations.Handle(s.state, pid, nr, path, need, out.StatLie)
				s.kill(pid)
				return fmt.Errorf("pledge: syscall %d denied on %q", nr, path)
			}
			continue
		}

		if gate, ok := genericGates[nr]; ok {
			if err := gate(s.state, pid, &regs); err != nil {
				need, _ := pledge.RequiredFor(nr)
				s.violations.Handle(s.state, pid, nr, "", need, false)
				s.kill(pid)
				return fmt.Errorf("pledge: syscall %d denied", nr)
			}
			continue
		}

		if err := pledge.Check(nr, s.state); err != nil {
			need, _ := pledge.RequiredFor(nr)
			s.violations.Handle(s.state, pid, nr, "", need, false)
			s.kill(pid)
			return fmt.Errorf("pledge: syscall %d denied", nr)
		}
	}
}

// kill forces termination of pid the way OpenBSD's pledge violation does
// — a signal the traced process cannot block or catch — by using the
// tracer's kill primitive rather than a regular signal delivered to the
// child's own handler table.
func (s *Supervisor) kill(pid int) {
	unix.PtraceKill(pid)
}

func (s *Supervisor) resolvePath(pid int, regs *unix.PtraceRegs, desc pathSyscall) (string, error) {
	addr := syscallArg(regs, desc.pathArg)
	return readCString(pid, addr)
}

// genericGates covers the syscalls whose admissibility depends on decoded
// register arguments but not on a filesystem path, dispatching to the
// matching pledge Check* function the way pledge_sys_(sockopt|ioctl)
// dispatch out of the syscall table in kern_pledge.c.
var genericGates = map[int]func(state *pledge.State, pid int, regs *unix.PtraceRegs) error{
	unix.SYS_SETSOCKOPT: func(state *pledge.State, pid int, regs *unix.PtraceRegs) error {
		level := int(syscallArg(regs, 1))
		optname := int(syscallArg(regs, 2))
		return pledge.CheckSockopt(state, level, optname)
	},
	unix.SYS_IOCTL: func(state *pledge.State, pid int, regs *unix.PtraceRegs) error {
		fd := int(syscallArg(regs, 0))
		request := uint(syscallArg(regs, 1))
		class := pledge.DeviceUnknown
		if path, err := fdPath(pid, fd); err == nil {
			class = pledge.ClassOf(path)
		}
		return pledge.CheckIoctl(state, request, class)
	},
	unix.SYS_KILL: func(state *pledge.State, pid int, regs *unix.PtraceRegs) error {
		target := int(int64(syscallArg(regs, 0)))
		return pledge.CheckKill(state, target, pid, unix.Getpgrp())
	},
	unix.SYS_FCNTL: func(state *pledge.State, pid int, regs *unix.PtraceRegs) error {
		return pledge.CheckFcntl(state, int(syscallArg(regs, 1)))
	},
	unix.SYS_FLOCK: func(state *pledge.State, pid int, regs *unix.PtraceRegs) error {
		return pledge.CheckFlock(state)
	},
	unix.SYS_SOCKET: func(state *pledge.State, pid int, regs *unix.PtraceRegs) error {
		return pledge.CheckSocketDomain(state, int(syscallArg(regs, 0)))
	},
}

// sysctlNameFor recognizes a /proc/sys path opened by a path-taking
// syscall and converts it to the dotted sysctl name pledge.CheckSysctl
// expects, the Linux stand-in for the mib[] integer path OpenBSD's
// sysctl(2) takes directly.
func sysctlNameFor(path string) (string, bool) {
	const prefix = "/proc/sys/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(path, prefix)
	name = strings.ReplaceAll(name, "/", ".")
	return name, true
}

// fdPath resolves an open file descriptor in the traced process back to
// the path it was opened from, via the /proc/<pid>/fd symlink table.
func fdPath(pid, fd int) (string, error) {
	return os.Readlink(fmt.Sprintf("/proc/%d/fd/%d", pid, fd))
}

// readCString reads a NUL-terminated string out of the traced process's
// address space via /proc/<pid>/mem, avoiding the word-at-a-time
// PTRACE_PEEKDATA dance for a value we already know is a pointer to a
// path argument.
func readCString(pid int, addr uint64) (string, error) {
	f, err := os.OpenFile(fmt.Sprintf("/proc/%d/mem", pid), os.O_RDONLY, 0)
	if err != nil {
		return "", err
	}
	defer f.Close()

	const maxLen = 4096
	buf := make([]byte, maxLen)
	n, err := f.ReadAt(buf, int64(addr))
	if err != nil && n == 0 {
		return "", err
	}
	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return string(buf[:i]), nil
		}
	}
	return string(buf[:n]), nil
}
