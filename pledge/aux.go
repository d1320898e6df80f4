package pledge

import (
	"golang.org/x/sys/unix"

	"pledged/errors"
)

// CheckRecvfd decides whether receiving a file descriptor over a unix
// socket (recvmsg with SCM_RIGHTS) is permitted, matching
// kern_pledge.c's pledge_recvfd_scm().
func CheckRecvfd(state *State) error {
	if !state.Pledged() {
		return nil
	}
	if state.Promises().Has(PLEDGE_RECVFD) {
		return nil
	}
	return errors.ErrAuxDenied
}

// CheckSendfd decides whether sending a file descriptor over a unix
// socket (sendmsg with SCM_RIGHTS) is permitted, matching
// kern_pledge.c's pledge_sendfd().
func CheckSendfd(state *State) error {
	if !state.Pledged() {
		return nil
	}
	if state.Promises().Has(PLEDGE_SENDFD) {
		return nil
	}
	return errors.ErrAuxDenied
}

// CheckChown decides whether a chown(2)/fchown(2) call changing ownership
// to newUID/newGID is permitted for a process whose own credentials are
// callerUID/callerGID, matching kern_pledge.c's pledge_chown(): a no-op
// change (-1, or the caller's own uid/gid) is admitted by the base
// "chown" grant; changing to any other uid additionally requires
// PLEDGE_CHOWNUID ("chown" plus the uid-changing half of the compound).
func CheckChown(state *State, newUID, newGID, callerUID, callerGID int) error {
	if !state.Pledged() {
		return nil
	}
	promises := state.Promises()
	if !promises.Has(PLEDGE_CHOWN) {
		return errors.ErrAuxDenied
	}
	uidNoop := newUID == -1 || newUID == callerUID
	gidNoop := newGID == -1 || newGID == callerGID
	if uidNoop && gidNoop {
		return nil
	}
	if promises.Has(PLEDGE_CHOWNUID) {
		return nil
	}
	return errors.ErrAuxDenied
}

// Fcntl commands that bypass the promise check entirely, matching
// kern_pledge.c's pledge_fcntl() baseline.
var alwaysAllowedFcntl = map[int]bool{
	unix.F_GETFL: true,
	unix.F_SETFL: true,
	unix.F_GETFD: true,
	unix.F_SETFD: true,
	unix.F_DUPFD: true,
}

// CheckFcntl decides whether an fcntl(2) command is permitted. F_SETOWN/
// F_GETOWN manipulate SIGIO delivery ownership and require PLEDGE_PROC,
// matching pledge_fcntl()'s special case.
func CheckFcntl(state *State, cmd int) error {
	if !state.Pledged() {
		return nil
	}
	if alwaysAllowedFcntl[cmd] {
		return nil
	}
	if cmd == unix.F_SETOWN || cmd == unix.F_GETOWN {
		if state.Promises().Has(PLEDGE_PROC) {
			return nil
		}
		return errors.ErrAuxDenied
	}
	return errors.ErrAuxDenied
}

// CheckKill decides whether a kill(2) targeting targetPID is permitted
// for a caller with callerPID/callerPGID, matching kern_pledge.c's
// pledge_kill(): signaling yourself, or pid 0 (your own process group),
// is free; anything else needs PLEDGE_PROC.
func CheckKill(state *State, targetPID, callerPID, callerPGID int) error {
	if !state.Pledged() {
		return nil
	}
	if targetPID == callerPID || targetPID == 0 || targetPID == -callerPGID {
		return nil
	}
	if state.Promises().Has(PLEDGE_PROC) {
		return nil
	}
	return errors.ErrAuxDenied
}

// CheckFlock decides whether flock(2)/fcntl advisory locking is
// permitted, matching kern_pledge.c's pledge_flock().
func CheckFlock(state *State) error {
	if !state.Pledged() {
		return nil
	}
	if state.Promises().Has(PLEDGE_FLOCK) {
		return nil
	}
	return errors.ErrAuxDenied
}

// CheckAdjtime decides whether adjtime(2) is permitted. A query (no
// delta supplied, olddelta only) is admitted under stdio alone; actually
// adjusting the clock requires PLEDGE_SETTIME, matching
// kern_pledge.c's pledge_adjtime().
func CheckAdjtime(state *State, hasDelta bool) error {
	if !state.Pledged() {
		return nil
	}
	if !hasDelta {
		if state.Promises().Has(PLEDGE_STDIO) {
			return nil
		}
		return errors.ErrAuxDenied
	}
	if state.Promises().Has(PLEDGE_SETTIME) {
		return nil
	}
	return errors.ErrAuxDenied
}

// CheckSendto decides whether sendto(2)/connect(2) with a destination
// address is permitted. isDNSSocket marks a socket already bound to a
// resolver address under the "dns" exception; otherwise inet or unix
// covers the call, matching kern_pledge.c's pledge_sockets() SS_DNS
// override.
func CheckSendto(state *State, isDNSSocket bool) error {
	if !state.Pledged() {
		return nil
	}
	if isDNSSocket && state.Promises().Has(PLEDGE_DNS) {
		return nil
	}
	if state.Promises().Any(PLEDGE_INET | PLEDGE_UNIX) {
		return nil
	}
	return errors.ErrAuxDenied
}

// CheckProtExec decides whether a PROT_EXEC mapping (mmap/mprotect) is
// permitted, matching kern_pledge.c's pledge_protexec().
func CheckProtExec(state *State) error {
	if !state.Pledged() {
		return nil
	}
	if state.Promises().Has(PLEDGE_PROTEXEC) {
		return nil
	}
	return errors.ErrAuxDenied
}

// socketDomainRequirement maps an address family to the promise that
// admits creating a socket in it, matching kern_pledge.c's
// pledge_socket()'s AF_* switch. A family absent from this table is
// always denied once pledged.
var socketDomainRequirement = map[int]Promises{
	unix.AF_INET:  PLEDGE_INET,
	unix.AF_INET6: PLEDGE_INET,
	unix.AF_UNIX:  PLEDGE_UNIX,
	unix.AF_ROUTE: PLEDGE_ROUTE,
}

// CheckSocketDomain decides whether socket(2) may create a socket in the
// given address family. AF_INET/AF_INET6 additionally admit under
// PLEDGE_YPACTIVE, matching pledge_socket()'s
// "ISSET(PLEDGE_INET) || ISSET(PLEDGE_YPACTIVE)" check — a getpw-only
// process that has touched /var/run/ypbind.lock may open an inet socket
// until its next pledge() call.
func CheckSocketDomain(state *State, domain int) error {
	if !state.Pledged() {
		return nil
	}
	need, ok := socketDomainRequirement[domain]
	if !ok {
		return errors.ErrAuxDenied
	}
	if state.Promises().Has(need) {
		return nil
	}
	if (domain == unix.AF_INET || domain == unix.AF_INET6) && state.Promises().Has(PLEDGE_YPACTIVE) {
		return nil
	}
	return errors.ErrAuxDenied
}

// CheckSwapctl always denies swapctl(2) once any promise is in force: no
// promise name grants it, matching kern_pledge.c's documented quirk that
// swap control is unreachable after the first pledge() call regardless
// of which promises are held.
func CheckSwapctl(state *State) error {
	if !state.Pledged() {
		return nil
	}
	return errors.ErrAuxDenied
}
