package pledge

import (
	"golang.org/x/sys/unix"

	"pledged/errors"
)

// syscallRule is one row of the dense syscall gate table: the promise
// bits of which at least one must be held for the syscall to proceed.
// always marks "always permitted" (the ALWAYS short-circuit in
// kern_pledge.c's pledge_syscall()); a syscall
// with NO entry at all is denied unconditionally, same as a syscall
// absent from OpenBSD's pledge_syscalls[] table.
type syscallRule struct {
	required Promises
	always   bool
}

// syscallGate is the dense syscall -> required-bits table, built from
// Linux's native x86_64/arm64 syscall numbers via golang.org/x/sys/unix's
// SYS_* constants — the same import the teacher's linux/namespace.go uses
// for unix.SYS_SETNS — rather than the teacher's linux/seccomp.go's
// hand-rolled x86_64-only name->number map. Content is grounded on
// kern_pledge.c's pledge_syscalls[] table, translated promise-by-promise
// onto Linux syscall equivalents per SPEC_FULL.md §5's syscall-numbering
// decision.
var syscallGate = map[int]syscallRule{
	// Bare minimum always allowed regardless of pledge state, matching
	// kern_pledge.c's PLEDGE_ALWAYS group (exit, sigreturn, and friends).
	unix.SYS_EXIT:          {always: true},
	unix.SYS_EXIT_GROUP:    {always: true},
	unix.SYS_RT_SIGRETURN:  {always: true},
	unix.SYS_RESTART_SYSCALL: {always: true},
	unix.SYS_GETPID:        {always: true},
	unix.SYS_GETTID:        {always: true},
	unix.SYS_SCHED_YIELD:   {always: true},
	unix.SYS_CLOCK_GETTIME: {always: true},

	// stdio: the baseline promise, granting the syscalls every program
	// needs for buffered I/O on already-open descriptors, memory
	// management, and basic process bookkeeping.
	unix.SYS_READ:        {required: PLEDGE_STDIO},
	unix.SYS_WRITE:       {required: PLEDGE_STDIO},
	unix.SYS_READV:       {required: PLEDGE_STDIO},
	unix.SYS_WRITEV:      {required: PLEDGE_STDIO},
	unix.SYS_CLOSE:       {required: PLEDGE_STDIO},
	unix.SYS_FSTAT:       {required: PLEDGE_STDIO},
	unix.SYS_LSEEK:       {required: PLEDGE_STDIO},
	unix.SYS_MMAP:        {required: PLEDGE_STDIO},
	unix.SYS_MUNMAP:      {required: PLEDGE_STDIO},
	unix.SYS_MPROTECT:    {required: PLEDGE_STDIO | PLEDGE_PROTEXEC},
	unix.SYS_BRK:         {required: PLEDGE_STDIO},
	unix.SYS_SIGALTSTACK: {required: PLEDGE_STDIO},
	unix.SYS_RT_SIGACTION: {required: PLEDGE_STDIO},
	unix.SYS_RT_SIGPROCMASK: {required: PLEDGE_STDIO},
	unix.SYS_FCNTL:       {required: PLEDGE_STDIO},
	unix.SYS_FUTEX:       {required: PLEDGE_STDIO},
	unix.SYS_GETRANDOM:   {required: PLEDGE_STDIO},
	unix.SYS_MADVISE:     {required: PLEDGE_STDIO},
	unix.SYS_PIPE2:       {required: PLEDGE_STDIO},
	unix.SYS_DUP:         {required: PLEDGE_STDIO},
	unix.SYS_DUP2:        {required: PLEDGE_STDIO},
	unix.SYS_POLL:        {required: PLEDGE_STDIO},
	unix.SYS_PPOLL:       {required: PLEDGE_STDIO},
	unix.SYS_SELECT:      {required: PLEDGE_STDIO},
	unix.SYS_EPOLL_CREATE1: {required: PLEDGE_STDIO},
	unix.SYS_EPOLL_CTL:   {required: PLEDGE_STDIO},
	unix.SYS_EPOLL_WAIT:  {required: PLEDGE_STDIO},
	unix.SYS_GETRLIMIT:   {required: PLEDGE_STDIO},
	unix.SYS_CLOCK_NANOSLEEP: {required: PLEDGE_STDIO},
	unix.SYS_NANOSLEEP:   {required: PLEDGE_STDIO},
	unix.SYS_UNAME:       {required: PLEDGE_STDIO},
	unix.SYS_GETUID:      {required: PLEDGE_STDIO},
	unix.SYS_GETGID:      {required: PLEDGE_STDIO},
	unix.SYS_GETEUID:     {required: PLEDGE_STDIO},
	unix.SYS_GETEGID:     {required: PLEDGE_STDIO},
	unix.SYS_SHUTDOWN:    {required: PLEDGE_STDIO},
	unix.SYS_GETSOCKOPT:  {required: PLEDGE_STDIO},

	// rpath / wpath / cpath: filesystem path-taking syscalls. These get
	// an entry here purely to confirm SOME promise authorizes the call;
	// the PathGate (pledge/pathgate.go) then decides case-by-case whether
	// the specific path and flags are admissible.
	unix.SYS_OPENAT:      {required: PLEDGE_RPATH | PLEDGE_WPATH | PLEDGE_CPATH | PLEDGE_TMPPATH},
	unix.SYS_NEWFSTATAT:  {required: PLEDGE_RPATH | PLEDGE_WPATH},
	unix.SYS_FACCESSAT:   {required: PLEDGE_RPATH | PLEDGE_WPATH},
	unix.SYS_READLINKAT:  {required: PLEDGE_RPATH},
	unix.SYS_GETDENTS64:  {required: PLEDGE_RPATH},
	unix.SYS_GETCWD:      {required: PLEDGE_RPATH},
	unix.SYS_UNLINKAT:    {required: PLEDGE_CPATH},
	unix.SYS_MKDIRAT:     {required: PLEDGE_CPATH},
	unix.SYS_RENAMEAT2:   {required: PLEDGE_CPATH},
	unix.SYS_LINKAT:      {required: PLEDGE_CPATH},
	unix.SYS_SYMLINKAT:   {required: PLEDGE_CPATH},
	unix.SYS_MKNODAT:     {required: PLEDGE_DPATH},
	unix.SYS_FCHMODAT:    {required: PLEDGE_FATTR},
	unix.SYS_FCHOWNAT:    {required: PLEDGE_CHOWN},
	unix.SYS_TRUNCATE:    {required: PLEDGE_WPATH},
	unix.SYS_FTRUNCATE:   {required: PLEDGE_WPATH},
	unix.SYS_FSYNC:       {required: PLEDGE_WPATH | PLEDGE_RPATH},
	unix.SYS_FLOCK:       {required: PLEDGE_FLOCK},
	unix.SYS_CHDIR:       {required: PLEDGE_RPATH},
	unix.SYS_FCHDIR:      {required: PLEDGE_RPATH},
	unix.SYS_CHROOT:      {required: PLEDGE_ID},

	// inet / unix / dns: networking.
	unix.SYS_SOCKET:      {required: PLEDGE_INET | PLEDGE_UNIX | PLEDGE_DNS | PLEDGE_YPACTIVE},
	unix.SYS_CONNECT:     {required: PLEDGE_INET | PLEDGE_UNIX | PLEDGE_DNS | PLEDGE_YPACTIVE},
	unix.SYS_ACCEPT4:     {required: PLEDGE_INET | PLEDGE_UNIX},
	unix.SYS_BIND:        {required: PLEDGE_INET | PLEDGE_UNIX},
	unix.SYS_LISTEN:      {required: PLEDGE_INET | PLEDGE_UNIX},
	unix.SYS_SENDTO:      {required: PLEDGE_INET | PLEDGE_UNIX | PLEDGE_DNS | PLEDGE_STDIO},
	unix.SYS_RECVFROM:    {required: PLEDGE_INET | PLEDGE_UNIX | PLEDGE_DNS | PLEDGE_STDIO},
	unix.SYS_SENDMSG:     {required: PLEDGE_INET | PLEDGE_UNIX | PLEDGE_SENDFD},
	unix.SYS_RECVMSG:     {required: PLEDGE_INET | PLEDGE_UNIX | PLEDGE_RECVFD},
	unix.SYS_SETSOCKOPT:  {required: PLEDGE_INET | PLEDGE_UNIX},
	unix.SYS_GETSOCKNAME: {required: PLEDGE_INET | PLEDGE_UNIX},
	unix.SYS_GETPEERNAME: {required: PLEDGE_INET | PLEDGE_UNIX},

	// proc: process control.
	unix.SYS_FORK:       {required: PLEDGE_PROC},
	unix.SYS_VFORK:      {required: PLEDGE_PROC},
	unix.SYS_CLONE:      {required: PLEDGE_PROC},
	unix.SYS_WAIT4:      {required: PLEDGE_PROC},
	unix.SYS_KILL:       {required: PLEDGE_PROC},
	unix.SYS_TGKILL:     {required: PLEDGE_PROC},
	unix.SYS_SETPGID:    {required: PLEDGE_PROC},
	unix.SYS_SETSID:     {required: PLEDGE_PROC},
	unix.SYS_GETPRIORITY: {required: PLEDGE_PROC},
	unix.SYS_SETPRIORITY: {required: PLEDGE_PROC},

	// exec: process replacement.
	unix.SYS_EXECVE:   {required: PLEDGE_EXEC},
	unix.SYS_EXECVEAT: {required: PLEDGE_EXEC},

	// id: credential changes.
	unix.SYS_SETUID:    {required: PLEDGE_ID},
	unix.SYS_SETGID:    {required: PLEDGE_ID},
	unix.SYS_SETREUID:  {required: PLEDGE_ID},
	unix.SYS_SETREGID:  {required: PLEDGE_ID},
	unix.SYS_SETRESUID: {required: PLEDGE_ID},
	unix.SYS_SETRESGID: {required: PLEDGE_ID},
	unix.SYS_SETGROUPS: {required: PLEDGE_ID},

	// settime: system clock changes.
	unix.SYS_SETTIMEOFDAY: {required: PLEDGE_SETTIME},
	unix.SYS_ADJTIMEX:     {required: PLEDGE_SETTIME},
	unix.SYS_CLOCK_SETTIME: {required: PLEDGE_SETTIME},

	// tty: terminal ioctls are gated by CheckIoctl, not here; open() on
	// /dev/tty is gated by PathGate. ioctl() itself only needs an entry
	// confirming some promise plausibly covers terminal or device use.
	unix.SYS_IOCTL: {required: PLEDGE_TTY | PLEDGE_INET | PLEDGE_TAPE | PLEDGE_DRM | PLEDGE_AUDIO | PLEDGE_DISKLABEL | PLEDGE_ROUTE | PLEDGE_VMM | PLEDGE_PROC},
}

// Check reports whether the syscall numbered nr is permitted under the
// given state's current promises, matching kern_pledge.c's
// pledge_syscall(): ALWAYS bypasses everything, otherwise at least one
// bit of the rule's required set must be held (a zero Promises value in
// required with always=false denies unconditionally, same as an absent
// table entry).
func Check(nr int, state *State) error {
	state.SetLastSyscall(nr)

	if !state.Pledged() {
		return nil
	}

	rule, ok := syscallGate[nr]
	if !ok {
		return errors.ErrNoRequiredBits
	}
	if rule.always {
		return nil
	}
	if rule.required == 0 {
		return errors.ErrNoRequiredBits
	}
	if !state.Promises().Any(rule.required) {
		return errors.ErrNoRequiredBits
	}
	return nil
}

// RequiredFor returns the rule's required bits for a syscall, used by the
// violation handler to report "which promise would have allowed this".
func RequiredFor(nr int) (Promises, bool) {
	rule, ok := syscallGate[nr]
	if !ok || rule.always {
		return 0, ok
	}
	return rule.required, true
}

// GatedSyscalls returns every syscall number with a table entry, for
// building a static enforcement filter (see enforce/seccomp.go).
func GatedSyscalls() []int {
	out := make([]int, 0, len(syscallGate))
	for nr := range syscallGate {
		out = append(out, nr)
	}
	return out
}

// IsAlwaysSyscall reports whether nr bypasses the gate unconditionally.
func IsAlwaysSyscall(nr int) bool {
	rule, ok := syscallGate[nr]
	return ok && rule.always
}

// pathTakingSyscalls are the syscalls whose admissibility depends on the
// specific path argument, not just the held promise set — these cannot
// be decided once at filter-build time and must be routed to the
// ptrace-based supervisor for a live PathGate.Check call.
var pathTakingSyscalls = map[int]bool{
	unix.SYS_OPENAT:     true,
	unix.SYS_NEWFSTATAT: true,
	unix.SYS_FACCESSAT:  true,
	unix.SYS_READLINKAT: true,
	unix.SYS_UNLINKAT:   true,
	unix.SYS_MKDIRAT:    true,
	unix.SYS_RENAMEAT2:  true,
	unix.SYS_LINKAT:     true,
	unix.SYS_SYMLINKAT:  true,
	unix.SYS_MKNODAT:    true,
	unix.SYS_FCHMODAT:   true,
	unix.SYS_FCHOWNAT:   true,
	unix.SYS_EXECVE:     true,
	unix.SYS_EXECVEAT:   true,
	unix.SYS_CHDIR:      true,
	unix.SYS_CHROOT:     true,
}

// NeedsPathInspection reports whether nr requires per-call path
// evaluation rather than a one-time promise check.
func NeedsPathInspection(nr int) bool {
	return pathTakingSyscalls[nr]
}

// registerInspectedSyscalls are the non-path syscalls the ptrace
// supervisor's genericGates decode register arguments for (ioctl
// request, sockopt level/name, kill target, fcntl cmd, socket domain):
// holding the OR-combined promise bits in syscallGate only confirms the
// syscall is PLAUSIBLY covered, not that this particular call is, so
// these can never be fast-path allowed by the static seccomp filter.
var registerInspectedSyscalls = map[int]bool{
	unix.SYS_IOCTL:      true,
	unix.SYS_SETSOCKOPT: true,
	unix.SYS_KILL:       true,
	unix.SYS_FCNTL:      true,
	unix.SYS_FLOCK:      true,
	unix.SYS_SOCKET:     true,
}

// NeedsLiveInspection reports whether nr must always be routed to the
// ptrace supervisor rather than allowed outright once a covering
// promise is held, because the admissibility decision depends on a path
// or decoded register arguments a static filter can't see.
func NeedsLiveInspection(nr int) bool {
	return pathTakingSyscalls[nr] || registerInspectedSyscalls[nr]
}
