// Package enforce is the Linux backend that turns pledge decisions into
// actual process restriction: a seccomp BPF prefilter that allows the
// syscalls a frozen promise set grants outright, and a ptrace supervisor
// that makes the authoritative per-call decision (path, ioctl, sockopt,
// sysctl, aux) for everything the prefilter routes to it.
package enforce

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"pledged/errors"
	"pledged/pledge"
)

// Seccomp constants, matching linux/seccomp.go's BPF program shape.
const (
	seccompModeFilter = 2

	retKillProcess = 0x80000000
	retTrace       = 0x7ff00000
	retErrno       = 0x00050000
	retAllow       = 0x7fff0000

	prSetNoNewPrivs = 38
	prSetSeccomp    = 22
)

// BPF instruction constants.
const (
	bpfLD  = 0x00
	bpfJMP = 0x05
	bpfRET = 0x06
	bpfW   = 0x00
	bpfABS = 0x20
	bpfJEQ = 0x10
	bpfK   = 0x00
)

const (
	offsetNR   = 0
	offsetArch = 4
)

// auditArch returns the seccomp_data architecture token for the
// running GOARCH, so the filter only ever evaluates syscall numbers
// for the arch it was built on.
func auditArch() (uint32, error) {
	switch runtime.GOARCH {
	case "amd64":
		return 0xc000003e, nil // AUDIT_ARCH_X86_64
	case "arm64":
		return 0xc00000b7, nil // AUDIT_ARCH_AARCH64
	default:
		return 0, fmt.Errorf("enforce: unsupported GOARCH %s", runtime.GOARCH)
	}
}

type sockFprog struct {
	Len    uint16
	_      [6]byte
	Filter *sockFilter
}

type sockFilter struct {
	Code uint16
	Jt   uint8
	Jf   uint8
	K    uint32
}

func bpfStmt(code uint16, k uint32) sockFilter {
	return sockFilter{Code: code, K: k}
}

func bpfJump(code uint16, k uint32, jt, jf uint8) sockFilter {
	return sockFilter{Code: code, Jt: jt, Jf: jf, K: k}
}

// Install builds a seccomp-BPF prefilter from state's currently held
// promises and installs it on the calling thread, matching the teacher's
// linux/seccomp.go SetupSeccomp() sequence (PR_SET_NO_NEW_PRIVS then
// PR_SET_SECCOMP), generalized from an OCI seccomp profile to a pledge
// promise set: syscalls the frozen promise set grants outright (and that
// don't need per-call path inspection) are allowed at the BPF layer;
// everything else is routed to the ptrace supervisor for the
// authoritative decision via pledge.Check/PathGate.
func Install(state *pledge.State) error {
	if _, _, errno := unix.Syscall(unix.SYS_PRCTL, prSetNoNewPrivs, 1, 0); errno != 0 {
		return errors.Wrap(errno, errors.ErrSeccomp, "prctl(PR_SET_NO_NEW_PRIVS)")
	}

	filter, err := buildFilter(state)
	if err != nil {
		return errors.Wrap(err, errors.ErrSeccomp, "build filter")
	}

	prog := sockFprog{Len: uint16(len(filter)), Filter: &filter[0]}
	if _, _, errno := unix.Syscall(unix.SYS_PRCTL,
		prSetSeccomp, seccompModeFilter, uintptr(unsafe.Pointer(&prog))); errno != 0 {
		return errors.Wrap(errno, errors.ErrSeccomp, "prctl(PR_SET_SECCOMP)")
	}
	return nil
}

func buildFilter(state *pledge.State) ([]sockFilter, error) {
	arch, err := auditArch()
	if err != nil {
		return nil, err
	}

	var filter []sockFilter

	filter = append(filter, bpfStmt(bpfLD|bpfW|bpfABS, offsetArch))
	filter = append(filter, bpfJump(bpfJMP|bpfJEQ|bpfK, arch, 1, 0))
	filter = append(filter, bpfStmt(bpfRET|bpfK, retKillProcess))

	filter = append(filter, bpfStmt(bpfLD|bpfW|bpfABS, offsetNR))

	for _, nr := range pledge.GatedSyscalls() {
		var action uint32
		switch {
		case pledge.IsAlwaysSyscall(nr):
			action = retAllow
		case pledge.NeedsLiveInspection(nr):
			action = retTrace
		case state.Pledged() && pledge.Check(nr, state) == nil:
			action = retAllow
		default:
			action = retTrace
		}
		filter = append(filter, bpfJump(bpfJMP|bpfJEQ|bpfK, uint32(nr), 0, 1))
		filter = append(filter, bpfStmt(bpfRET|bpfK, action))
	}

	// Unlisted syscalls: defer to the ptrace supervisor rather than
	// killing outright, since the supervisor is the one that logs the
	// violation and clears the promise set before killing the process.
	filter = append(filter, bpfStmt(bpfRET|bpfK, retTrace))

	return filter, nil
}
