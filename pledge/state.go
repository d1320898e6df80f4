package pledge

import (
	"sync"

	"pledged/errors"
)

// Whitepath is a single registered path exception, installed once and
// never individually removed — kern_pledge.c refcounts these via
// wl_ref/wl_count so multiple threads sharing a process can each hold a
// reference; here a single State always owns its whole whitepaths slice.
type Whitepath struct {
	Path string
}

// State is the per-process pledge state: the current promise bitset, the
// installed whitepaths, and the bookkeeping the gates need to report a
// violation. Mirrors the container.Container pattern of a mutex-guarded
// struct with an explicit thread-safety contract: all exported methods
// are safe for concurrent use.
type State struct {
	mu sync.RWMutex

	promises    Promises
	pledged     bool
	lastSyscall int
	whitepaths  []Whitepath
	inCoredump  bool
}

// NewState returns an unpledged State (all promises implicitly granted,
// matching an OpenBSD process before its first pledge(2) call).
func NewState() *State {
	return &State{}
}

// Promises returns the currently active promise bitset. An unpledged
// process (Pledged() == false) has no enforced restriction regardless of
// this value.
func (s *State) Promises() Promises {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.promises
}

// Pledged reports whether Reduce has ever been called successfully.
func (s *State) Pledged() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pledged
}

// Reduce installs a new promise set. If the process has already pledged,
// the new set must be a subset of the current one — any bit not already
// held is rejected with errors.ErrPromiseBroadened, matching
// kern_pledge.c's sys_pledge() monotonicity check:
// ((flags | ps_pledge) != ps_pledge) -> EPERM.
func (s *State) Reduce(next Promises) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pledged {
		if (next | s.promises) != s.promises {
			return errors.ErrPromiseBroadened
		}
	}
	s.promises = next
	s.pledged = true
	return nil
}

// SetYPActive ORs PLEDGE_YPACTIVE into the current promise set directly,
// bypassing Reduce's narrowing check. This mirrors kern_pledge.c's
// pledge_namei() YP hack, "p->p_p->ps_pledge |= PLEDGE_YPACTIVE;" — a
// kernel-internal side effect of touching /var/run/ypbind.lock, not a
// new sys_pledge(2) call, so it is exempt from the monotonic-shrink
// invariant Reduce otherwise enforces.
func (s *State) SetYPActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promises |= PLEDGE_YPACTIVE
}

// InstallWhitepaths registers the process's path whitelist. It may be
// called exactly once; kern_pledge.c's disabled-by-default "unveil"-like
// feature is shipped here as a first-class, working feature (spec.md §9
// Open Question, decided enabled in SPEC_FULL.md §5), so a second call is
// rejected with errors.ErrWhitepathReplace rather than silently ignored.
func (s *State) InstallWhitepaths(paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.whitepaths) > 0 {
		return errors.ErrWhitepathReplace
	}
	wl := make([]Whitepath, len(paths))
	for i, p := range paths {
		wl[i] = Whitepath{Path: Canon(p)}
	}
	s.whitepaths = wl
	return nil
}

// Whitepaths returns a copy of the registered whitelist.
func (s *State) Whitepaths() []Whitepath {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Whitepath, len(s.whitepaths))
	copy(out, s.whitepaths)
	return out
}

// SetLastSyscall records the syscall number under evaluation, consulted
// by the violation handler's trace line (kern_pledge.c stores this in
// p_pledge_syscall).
func (s *State) SetLastSyscall(nr int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSyscall = nr
}

// LastSyscall returns the most recently recorded syscall number.
func (s *State) LastSyscall() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyscall
}

// Clear zeroes the promise set, mirroring kern_pledge.c's pledge_fail()
// setting ps_pledge = 0 after delivering the fatal signal: once a
// violation has been handled, the process has no promises left to check
// against (it is about to die).
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promises = 0
}

// SetInCoredump marks the process as dumping core. While it is set,
// PathGate.Check admits every lookup.
func (s *State) SetInCoredump(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inCoredump = v
}

// InCoredump reports whether the process is already dumping core.
func (s *State) InCoredump() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inCoredump
}
