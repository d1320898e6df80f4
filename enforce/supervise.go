// Package enforce is the Linux backend that turns pledge decisions into
// actual process restriction.
package enforce

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"

	"pledged/errors"
	"pledged/logging"
	"pledged/pledge"
	"pledged/utils"
)

// promisesEnvVar and whitepathsEnvVar pass the frozen promise set from the
// supervisor to the re-exec'd init process, the same way the teacher's
// hidden init commands receive their container config over env/pipe
// rather than argv (argv is visible to other users on the host via ps).
const (
	promisesEnvVar   = "PLEDGED_PROMISES"
	whitepathsEnvVar = "PLEDGED_WHITEPATHS"
)

// Target describes the program to run under enforcement.
type Target struct {
	Promises   pledge.Promises
	Whitepaths []string
	Argv       []string
	Env        []string
}

// Supervise starts target re-exec'd through the hidden __enforce-init
// entry point (selfExe, conventionally /proc/self/exe), ptrace-attaches
// across both of the resulting execve stops, registers the session, and
// runs the syscall-stop loop to completion. It returns once the
// supervised process has exited or been killed for a violation.
func Supervise(selfExe string, target Target, reg *pledge.Registry) (*pledge.Session, error) {
	state := pledge.NewState()
	if err := state.Reduce(target.Promises); err != nil {
		return nil, err
	}
	if err := state.InstallWhitepaths(target.Whitepaths); err != nil {
		return nil, err
	}

	// syncPipe carries the init side's install outcome back to the
	// supervisor: the ptrace stop after the second execve already tells us
	// whether __enforce-init reached the real target or exited, but not
	// *why* it exited, so the child also reports a descriptive error (or a
	// single zero byte on success) over this pipe.
	syncPipe, err := utils.NewSyncPipe()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPtrace, "create sync pipe")
	}
	defer syncPipe.Close()

	cmd := exec.Command(selfExe, append([]string{"__enforce-init", "--"}, target.Argv...)...)
	cmd.Env = append(append(os.Environ(), target.Env...),
		promisesEnvVar+"="+strconv.FormatUint(uint64(target.Promises), 10),
		whitepathsEnvVar+"="+joinWhitepaths(target.Whitepaths))
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	cmd.ExtraFiles = []*os.File{syncPipe.ChildFile()}
	cmd.SysProcAttr = SysProcAttr()

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, errors.ErrPtrace, "start traced child")
	}
	syncPipe.CloseChild()
	pid := cmd.Process.Pid

	// First stop: the Go runtime's own execve into the re-exec'd pledged
	// binary, triggered by SysProcAttr.Ptrace before any of our code runs
	// in the child.
	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
		return nil, errors.WrapWithPID(err, errors.ErrPtrace, "wait for init stop", pid)
	}
	if err := unix.PtraceSetOptions(pid, unix.PTRACE_O_TRACESYSGOOD|unix.PTRACE_O_EXITKILL); err != nil {
		return nil, errors.WrapWithPID(err, errors.ErrPtrace, "ptrace set options", pid)
	}

	// Let __enforce-init install its own seccomp filter and exec into the
	// real target; that second execve produces another stop.
	if err := unix.PtraceCont(pid, 0); err != nil {
		return nil, errors.WrapWithPID(err, errors.ErrPtrace, "ptrace cont past init", pid)
	}
	if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
		return nil, errors.WrapWithPID(err, errors.ErrPtrace, "wait for target exec", pid)
	}
	if ws.Exited() {
		if syncErr := syncPipe.WaitWithError(); syncErr != nil {
			return nil, fmt.Errorf("enforce: init failed: %w", syncErr)
		}
		return nil, fmt.Errorf("enforce: traced process exited during setup (status %d)", ws.ExitStatus())
	}
	if err := syncPipe.WaitWithError(); err != nil {
		return nil, fmt.Errorf("enforce: init failed: %w", err)
	}

	sess, err := reg.Register(pid, state)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		fdDir := fmt.Sprintf("/proc/%d/fd", pid)
		if watchErr := watcher.Add(fdDir); watchErr == nil {
			go watchFds(watcher, pid)
		} else {
			watcher.Close()
		}
	}

	vh := pledge.NewViolationHandler(nil)
	supervisor := NewSupervisor(state, vh)
	runErr := supervisor.Run(pid)
	if watcher != nil {
		watcher.Close()
	}
	reg.Remove(pid)
	return sess, runErr
}

// watchFds logs file descriptors that appear or disappear under a
// supervised process between syscall-stops, as a supplementary audit
// trail; it never blocks or denies anything the syscall-stop loop has
// already allowed.
func watchFds(watcher *fsnotify.Watcher, pid int) {
	logger := logging.WithPID(logging.Default(), pid)
	for event := range watcher.Events {
		logger.Debug("fd event", "op", event.Op.String(), "name", event.Name)
	}
}

func joinWhitepaths(paths []string) string {
	out := ""
	for i, p := range paths {
		if i > 0 {
			out += ":"
		}
		out += p
	}
	return out
}
