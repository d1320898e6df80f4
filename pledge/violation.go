package pledge

import (
	"pledged/hooks"
	"pledged/logging"
)

// Violation describes a single denied operation, reported the way
// kern_pledge.c's pledge_fail() reports a violation: the syscall number
// that triggered it, the path involved (if any), and the single promise
// name selected to appear in the trace line.
type Violation struct {
	PID         int
	Syscall     int
	Path        string
	PromiseName string
	StatLie     bool
}

// firstMatchingName walks the promise table in its declared (not bit)
// order and returns the name of the first entry any of whose bits appear
// in missing, matching pledge_fail()'s "pledgenames[] in table order"
// selection for the single name printed in a violation message.
func firstMatchingName(missing Promises) string {
	for _, e := range pledgeNames {
		if missing&e.flags != 0 {
			return e.name
		}
	}
	return "unknown"
}

// Hook is called with each violation after it has been logged and the
// process's promise set cleared; it lets a caller wire in an external
// notification (see NewExternalHook and the hooks package) without the gate itself knowing
// about exec or sockets.
type Hook func(Violation)

// ViolationHandler logs, clears, and optionally forwards sandbox
// violations. The zero value is ready to use with no external hook.
type ViolationHandler struct {
	hook Hook
}

// NewViolationHandler returns a handler that invokes hook (if non-nil)
// after every violation is recorded.
func NewViolationHandler(hook Hook) *ViolationHandler {
	return &ViolationHandler{hook: hook}
}

// NewExternalHook adapts a list of external-command hooks into a Hook,
// running each of them (via the hooks package) with a JSON report of the
// violation on stdin.
func NewExternalHook(cfgs []hooks.Hook) Hook {
	return func(v Violation) {
		report := hooks.Report{
			PID:         v.PID,
			Syscall:     v.Syscall,
			Path:        v.Path,
			PromiseName: v.PromiseName,
			StatLie:     v.StatLie,
		}
		if err := hooks.Run(cfgs, report); err != nil {
			logging.Error("violation hook failed", "error", err)
		}
	}
}

// Handle records a violation against state: it logs a trace line naming
// the syscall, the path (if any), and the single selected promise name,
// clears the process's promise set the way pledge_fail() zeroes
// ps_pledge so a killed-but-not-yet-reaped process can't be pledge-
// checked again, and returns the Violation describing what happened. The
// caller is responsible for delivering SIGABRT (or whatever the
// enforcement backend uses) to the traced process — this handler never
// touches process state outside the State it is given.
func (vh *ViolationHandler) Handle(state *State, pid, syscallNr int, path string, missing Promises, statLie bool) Violation {
	v := Violation{
		PID:         pid,
		Syscall:     syscallNr,
		Path:        path,
		PromiseName: firstMatchingName(missing),
		StatLie:     statLie,
	}

	logger := logging.WithSyscallNumber(logging.WithPID(logging.Default(), pid), syscallNr)
	logger = logging.WithPromise(logger, v.PromiseName)
	if path != "" {
		logger = logging.WithPath(logger, path)
	}
	logger.Error("pledge violation", "op", "enforce")

	state.Clear()

	if vh.hook != nil {
		vh.hook(v)
	}
	return v
}
