package pledge

import (
	"strings"

	"pledged/errors"
)

// Operation is the kind of path-taking syscall under evaluation, used to
// pick the right exception and to decide whether an ancestor-only
// whitelist match is sufficient (stat-family calls only).
type Operation int

const (
	OpOpenRead Operation = iota
	OpOpenWrite
	OpOpenCreate
	OpStat
	OpUnlink
	OpReadlink
	OpAccess
	OpExec
	OpMknod
)

func (op Operation) isStatFamily() bool {
	return op == OpStat
}

// Outcome is the path gate's decision. StatLie mirrors kern_pledge.c
// tagging ni_pledge with PLEDGE_STATLIE: the lookup is allowed because
// the path is a proper ancestor of a whitepath. enforce's supervisor
// admits such a lookup and lets the real stat run; it does not
// fabricate a directory stat result.
type Outcome struct {
	Allowed bool
	StatLie bool
}

// PathGate evaluates a canonicalized path against a process's promises,
// the literal exception table of spec.md §4.4 / kern_pledge.c's
// pledge_namei(), and the installed whitepath whitelist.
type PathGate struct{}

// exception is one literal named special-case from pledge_namei().
type exception struct {
	match  func(path string) bool
	op     func(op Operation) bool
	need   Promises
	setYP  bool // admitting this path also sets PLEDGE_YPACTIVE
}

func prefixMatch(prefix string) func(string) bool {
	return func(p string) bool { return strings.HasPrefix(p, prefix) }
}

func exactMatch(want string) func(string) bool {
	return func(p string) bool { return p == want }
}

func anyOp(Operation) bool { return true }

func opIn(ops ...Operation) func(Operation) bool {
	return func(op Operation) bool {
		for _, o := range ops {
			if o == op {
				return true
			}
		}
		return false
	}
}

// exceptions is the literal exception table, in the order
// kern_pledge.c's pledge_namei() checks them.
var exceptions = []exception{
	// tmppath: /tmp/* is admitted for create-time opens and for unlink,
	// ahead of the rpath/wpath/cpath check, exactly as pledge_namei()
	// special-cases "/tmp/" under PLEDGE_TMPPATH.
	{prefixMatch("/tmp/"), opIn(OpOpenCreate, OpUnlink), PLEDGE_TMPPATH, false},

	// /etc/localtime is readable under "rpath" alone for access(2).
	{exactMatch("/etc/localtime"), opIn(OpAccess), PLEDGE_RPATH, false},

	// /var/run/ypbind.lock: access() needs getpw; open() additionally
	// sets YPACTIVE and is admitted under getpw too.
	{exactMatch("/var/run/ypbind.lock"), opIn(OpAccess), PLEDGE_GETPW, false},
	{exactMatch("/var/run/ypbind.lock"), opIn(OpOpenRead), PLEDGE_GETPW, true},

	// /dev/null and /dev/tty: always admitted for open under stdio/tty,
	// matching pledge_namei()'s special device-open cases.
	{exactMatch("/dev/null"), opIn(OpOpenRead, OpOpenWrite), PLEDGE_STDIO, false},
	{exactMatch("/dev/tty"), opIn(OpOpenRead, OpOpenWrite), PLEDGE_TTY, false},

	// getpw files: passwd/group database reads.
	{exactMatch("/etc/pwd.db"), opIn(OpOpenRead), PLEDGE_GETPW, false},
	{exactMatch("/etc/group"), opIn(OpOpenRead), PLEDGE_GETPW, false},
	{exactMatch("/etc/netid"), opIn(OpOpenRead), PLEDGE_GETPW, false},

	// /etc/spwd.db (shadow passwords) is explicitly NOT admitted by
	// getpw; it has no row here. Check refuses it through silentDenyPaths
	// below with an errors.ErrPermission-kind error instead of
	// errors.ErrPathDenied.

	// dns files.
	{exactMatch("/etc/resolv.conf"), opIn(OpOpenRead, OpStat), PLEDGE_DNS, false},
	{exactMatch("/etc/hosts"), opIn(OpOpenRead), PLEDGE_DNS, false},
	{exactMatch("/etc/services"), opIn(OpOpenRead), PLEDGE_DNS, false},

	// /var/yp/binding/: NIS binding files, admitted under YPACTIVE.
	{prefixMatch("/var/yp/binding/"), opIn(OpOpenRead), PLEDGE_YPACTIVE, false},

	// zoneinfo database.
	{prefixMatch("/usr/share/zoneinfo/"), opIn(OpOpenRead), PLEDGE_RPATH, false},
	{exactMatch("/etc/localtime"), opIn(OpReadlink), PLEDGE_RPATH, false},

	// /etc/malloc.conf: readlink used by malloc(3) tuning.
	{exactMatch("/etc/malloc.conf"), opIn(OpReadlink), PLEDGE_RPATH, false},
}

// silentDenyPaths are admitted by NO promise. Check refuses them with an
// errors.ErrPermission-kind error rather than errors.ErrPathDenied, so a
// caller can tell them apart from a violation; enforce's supervisor does
// not, and kills the process for these as for any other denial.
var silentDenyPaths = map[string]bool{
	"/etc/spwd.db": true,
}

// Check decides whether path (already canonicalized/resolved by the
// caller via Resolve) is permitted for op under state's current
// promises. A silent deny (see silentDenyPaths) is returned as an error
// of kind errors.ErrPermission, not a pledge violation; any other
// non-nil error is a violation.
func (PathGate) Check(state *State, op Operation, path string) (Outcome, error) {
	if !state.Pledged() {
		return Outcome{Allowed: true}, nil
	}
	if state.InCoredump() {
		return Outcome{Allowed: true}, nil
	}

	if silentDenyPaths[path] {
		return Outcome{}, errors.New(errors.ErrPermission, "namei", "path denied silently")
	}

	promises := state.Promises()

	// Base rpath/wpath/cpath checks take priority when the holder has
	// the generic bit — the exception table exists for programs that
	// pledged NEITHER rpath/wpath/cpath but still need these specific
	// files, so only consult it once the generic check fails.
	promiseAllowed := baseAllowed(op, promises)
	if !promiseAllowed {
		for _, ex := range exceptions {
			if !ex.match(path) || !ex.op(op) {
				continue
			}
			if !promises.Any(ex.need) {
				continue
			}
			if ex.setYP {
				state.SetYPActive()
			}
			promiseAllowed = true
			break
		}
	}

	// pledge_namei_wlpath() runs as a hook independent of pledge_namei():
	// whenever a whitelist is installed it is consulted regardless of
	// whether the promise check above already admitted the lookup, so
	// holding the covering rpath/wpath/cpath bit never bypasses it.
	if promiseAllowed && len(state.Whitepaths()) == 0 {
		return Outcome{Allowed: true}, nil
	}

	return checkWhitepaths(state, op, path)
}

func baseAllowed(op Operation, promises Promises) bool {
	switch op {
	case OpOpenRead, OpStat, OpReadlink, OpAccess:
		return promises.Has(PLEDGE_RPATH)
	case OpOpenWrite:
		return promises.Has(PLEDGE_WPATH)
	case OpOpenCreate:
		return promises.Has(PLEDGE_CPATH)
	case OpUnlink:
		return promises.Has(PLEDGE_CPATH)
	case OpExec:
		return promises.Has(PLEDGE_EXEC)
	case OpMknod:
		return promises.Has(PLEDGE_DPATH)
	}
	return false
}

// checkWhitepaths implements the descendant-closure fallthrough of
// kern_pledge.c's pledge_namei_wlpath(): a resolved path is admitted if
// some registered whitepath is an ancestor of it (or equal); if instead
// the resolved path is an ANCESTOR of a registered whitepath, it is
// admitted only for stat-family operations, tagged STATLIE, matching the
// kernel's "let ls see an empty directory on the way down to an allowed
// leaf" behavior.
func checkWhitepaths(state *State, op Operation, path string) (Outcome, error) {
	var pardirFound bool
	for _, wl := range state.Whitepaths() {
		switch substrWithBoundary(wl.Path, path) {
		case SubstrFirstIsPrefix:
			return Outcome{Allowed: true}, nil
		case SubstrSecondIsPrefix:
			pardirFound = true
		}
	}
	if pardirFound && op.isStatFamily() {
		return Outcome{Allowed: true, StatLie: true}, nil
	}
	return Outcome{}, errors.ErrWhitepathMismatch
}

// substrWithBoundary is SubstrCmp plus the "/" terminator check
// pledge_namei_wlpath() performs so that "/tmp" is not treated as a
// prefix of "/tmpfoo".
func substrWithBoundary(s1, s2 string) SubstrResult {
	r := SubstrCmp(s1, s2)
	switch r {
	case SubstrFirstIsPrefix:
		if len(s1) < len(s2) && s2[len(s1)] != '/' {
			return SubstrNone
		}
	case SubstrSecondIsPrefix:
		if len(s2) < len(s1) && s1[len(s2)] != '/' {
			return SubstrNone
		}
	}
	return r
}
