// Package pledge implements an OpenBSD pledge(2)-style promise engine: a
// bitset of granted privileges, a per-process state machine that can only
// narrow that bitset, and a family of gates (syscall, path, ioctl, sockopt,
// sysctl, and auxiliary checks) that consult it to decide whether a given
// operation is permitted.
package pledge

import (
	"sort"
	"strings"

	"pledged/errors"
)

// Promises is a bitset of granted privileges.
type Promises uint64

// User-settable promise bits, one per pledge(2) promise name. Three
// internal bits (ALWAYS, ERROR, YPACTIVE) are appended after the
// settable ones; they are never produced by ParsePromises directly.
const (
	PLEDGE_RPATH Promises = 1 << iota
	PLEDGE_WPATH
	PLEDGE_CPATH
	PLEDGE_STDIO
	PLEDGE_TMPPATH
	PLEDGE_DNS
	PLEDGE_INET
	PLEDGE_FLOCK
	PLEDGE_UNIX
	PLEDGE_ID
	PLEDGE_TAPE
	PLEDGE_GETPW
	PLEDGE_PROC
	PLEDGE_SETTIME
	PLEDGE_FATTR
	PLEDGE_PROTEXEC
	PLEDGE_MCAST
	PLEDGE_VMINFO
	PLEDGE_TTY
	PLEDGE_SENDFD
	PLEDGE_RECVFD
	PLEDGE_EXEC
	PLEDGE_ROUTE
	PLEDGE_MLOCK
	PLEDGE_VMM
	PLEDGE_PF
	PLEDGE_AUDIO
	PLEDGE_DISKLABEL
	PLEDGE_DRM
	PLEDGE_WROUTE
	PLEDGE_UNVEIL
	PLEDGE_CHOWN
	PLEDGE_CHOWNUID // granted only as part of the "chown" compound
	PLEDGE_DPATH
	PLEDGE_PS
	PLEDGE_BPF

	// Internal bits: never requested directly by name, set by the kernel
	// side of the gate.
	PLEDGE_ALWAYS   // syscall permitted unconditionally, bypasses the gate
	PLEDGE_ERROR    // promise violation should fail silently instead of killing
	PLEDGE_YPACTIVE // set once a process opens /var/run/ypbind.lock
)

// promiseEntry is one row of the sorted promise-name table, mirroring
// kern_pledge.c's pledgereq[].
type promiseEntry struct {
	name  string
	flags Promises
}

// pledgereq is the sorted table of promise names accepted by ParsePromises.
// "chown" and "fattr" are compound grants: "chown" implies CHOWN|CHOWNUID,
// "fattr" implies FATTR|CHOWN, exactly as kern_pledge.c's pledgereq[] does.
var pledgereq = []promiseEntry{
	{"audio", PLEDGE_AUDIO},
	{"bpf", PLEDGE_BPF},
	{"chown", PLEDGE_CHOWN | PLEDGE_CHOWNUID},
	{"cpath", PLEDGE_CPATH},
	{"disklabel", PLEDGE_DISKLABEL},
	{"dns", PLEDGE_DNS},
	{"dpath", PLEDGE_DPATH},
	{"drm", PLEDGE_DRM},
	{"exec", PLEDGE_EXEC},
	{"fattr", PLEDGE_FATTR | PLEDGE_CHOWN},
	{"flock", PLEDGE_FLOCK},
	{"getpw", PLEDGE_GETPW},
	{"id", PLEDGE_ID},
	{"inet", PLEDGE_INET},
	{"mcast", PLEDGE_MCAST},
	{"mlock", PLEDGE_MLOCK},
	{"pf", PLEDGE_PF},
	{"proc", PLEDGE_PROC},
	{"prot_exec", PLEDGE_PROTEXEC},
	{"ps", PLEDGE_PS},
	{"recvfd", PLEDGE_RECVFD},
	{"route", PLEDGE_ROUTE},
	{"rpath", PLEDGE_RPATH},
	{"sendfd", PLEDGE_SENDFD},
	{"settime", PLEDGE_SETTIME},
	{"stdio", PLEDGE_STDIO},
	{"tape", PLEDGE_TAPE},
	{"tmppath", PLEDGE_TMPPATH},
	{"tty", PLEDGE_TTY},
	{"unix", PLEDGE_UNIX},
	{"unveil", PLEDGE_UNVEIL},
	{"vminfo", PLEDGE_VMINFO},
	{"vmm", PLEDGE_VMM},
	{"wpath", PLEDGE_WPATH},
	{"wroute", PLEDGE_WROUTE},
}

func init() {
	if !sort.SliceIsSorted(pledgereq, func(i, j int) bool { return pledgereq[i].name < pledgereq[j].name }) {
		panic("pledge: pledgereq table is not sorted")
	}
}

// pledgeNames lists promise bits in the table order kern_pledge.c's
// pledgenames[] uses for pledge_fail's "first matching name" selection —
// the order above, not bit order.
var pledgeNames = pledgereq

// maxPromiseNameLen bounds a single token in a promise string.
const maxPromiseNameLen = 32

// ParsePromises parses a space-separated promise string into a bitset.
// An unknown name yields errors.ErrUnknownPromise; a token longer than
// maxPromiseNameLen yields errors.ErrNameTooLong.
func ParsePromises(s string) (Promises, error) {
	var out Promises
	for _, tok := range strings.Fields(s) {
		if len(tok) > maxPromiseNameLen {
			return 0, errors.ErrNameTooLong
		}
		flags, ok := lookupPromise(tok)
		if !ok {
			return 0, errors.ErrUnknownPromise
		}
		out |= flags
	}
	return out, nil
}

// lookupPromise binary-searches pledgereq, mirroring kern_pledge.c's
// pledgereq_flags().
func lookupPromise(name string) (Promises, bool) {
	i := sort.Search(len(pledgereq), func(i int) bool { return pledgereq[i].name >= name })
	if i < len(pledgereq) && pledgereq[i].name == name {
		return pledgereq[i].flags, true
	}
	return 0, false
}

// String renders a bitset back into its sorted, space-separated promise
// names — the round-trip counterpart of ParsePromises. A name is included
// only if every bit of its compound grant is present, so FATTR|CHOWN
// prints as "fattr" alone, and a bitset with PLEDGE_CHOWN but neither
// PLEDGE_CHOWNUID nor PLEDGE_FATTR prints no name for that bit.
func (p Promises) String() string {
	var names []string
	remaining := p &^ (PLEDGE_ALWAYS | PLEDGE_ERROR | PLEDGE_YPACTIVE)
	for _, e := range pledgeNames {
		if remaining&e.flags == e.flags && e.flags != 0 {
			names = append(names, e.name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}

// Has reports whether every bit in want is present in p.
func (p Promises) Has(want Promises) bool {
	return p&want == want
}

// Any reports whether any bit in want is present in p.
func (p Promises) Any(want Promises) bool {
	return p&want != 0
}
