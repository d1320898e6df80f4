// Package errors provides predefined sentinel errors for common failure cases.
package errors

// Promise parsing and state errors.
var (
	// ErrUnknownPromise indicates a promise name not in the vocabulary.
	ErrUnknownPromise = &PledgeError{
		Kind:   ErrInvalidConfig,
		Detail: "unknown promise name",
	}

	// ErrPromiseBroadened indicates a pledge call tried to add bits not
	// present in the currently active promise set.
	ErrPromiseBroadened = &PledgeError{
		Kind:   ErrMonotonicity,
		Detail: "promise set cannot be broadened, only narrowed",
	}

	// ErrWhitepathReplace indicates the process tried to pledge paths after
	// whitepaths were already installed.
	ErrWhitepathReplace = &PledgeError{
		Kind:   ErrWhitepath,
		Detail: "whitepaths already installed and cannot be replaced",
	}

	// ErrNameTooLong indicates a promise string exceeded the parser's
	// maximum accepted token length.
	ErrNameTooLong = &PledgeError{
		Kind:   ErrInvalidConfig,
		Detail: "promise name too long",
	}
)

// Gate decision errors.
var (
	// ErrNoRequiredBits indicates a syscall has no entry in the gate table
	// and is therefore unconditionally denied.
	ErrNoRequiredBits = &PledgeError{
		Kind:   ErrViolation,
		Detail: "syscall not permitted under any promise",
	}

	// ErrPathDenied indicates a path lookup was denied by the path gate.
	ErrPathDenied = &PledgeError{
		Kind:   ErrViolation,
		Detail: "path denied by active promises",
	}

	// ErrWhitepathMismatch indicates a path is outside every registered
	// whitepath prefix.
	ErrWhitepathMismatch = &PledgeError{
		Kind:   ErrViolation,
		Detail: "path not covered by any whitepath",
	}

	// ErrIoctlDenied indicates an ioctl request code was denied.
	ErrIoctlDenied = &PledgeError{
		Kind:   ErrViolation,
		Detail: "ioctl denied by active promises",
	}

	// ErrSockoptDenied indicates a getsockopt/setsockopt option was denied.
	ErrSockoptDenied = &PledgeError{
		Kind:   ErrViolation,
		Detail: "sockopt denied by active promises",
	}

	// ErrSysctlDenied indicates a sysctl mib was denied.
	ErrSysctlDenied = &PledgeError{
		Kind:   ErrViolation,
		Detail: "sysctl denied by active promises",
	}

	// ErrAuxDenied indicates a miscellaneous gated operation (chown,
	// fcntl, kill, flock, adjtime, sendto, protexec, socket domain,
	// swapctl, recvfd/sendfd) was denied by active promises.
	ErrAuxDenied = &PledgeError{
		Kind:   ErrViolation,
		Detail: "operation denied by active promises",
	}
)

// Process and enforcement errors.
var (
	// ErrProcessNotFound indicates the supervised process was not found in
	// the registry.
	ErrProcessNotFound = &PledgeError{
		Kind:   ErrNotFound,
		Detail: "process not found",
	}

	// ErrAlreadyTraced indicates a PID is already under supervision.
	ErrAlreadyTraced = &PledgeError{
		Kind:   ErrAlreadyExists,
		Detail: "process already under supervision",
	}

	// ErrSeccompFilter indicates a seccomp filter install error.
	ErrSeccompFilter = &PledgeError{
		Kind:   ErrSeccomp,
		Detail: "failed to install seccomp filter",
	}

	// ErrPtraceAttach indicates a ptrace attach/cont error.
	ErrPtraceAttach = &PledgeError{
		Kind:   ErrPtrace,
		Detail: "failed to attach ptrace supervisor",
	}

	// ErrSignalFailed indicates a signal delivery error.
	ErrSignalFailed = &PledgeError{
		Kind:   ErrInternal,
		Detail: "failed to send signal",
	}

	// ErrCanonFailed indicates the path canonicalizer could not resolve a
	// path (e.g. cwd lookup failure).
	ErrCanonFailed = &PledgeError{
		Kind:   ErrCanon,
		Detail: "failed to canonicalize path",
	}
)
