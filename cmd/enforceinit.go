package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"pledged/enforce"
	"pledged/pledge"
)

// enforceInitCmd is the hidden re-exec entry point a supervised process
// passes through on its way to the real target binary: it freezes the
// promise set and whitepaths it was handed over the environment, installs
// the seccomp prefilter on itself, and then execs into the target. It is
// never invoked directly by a user, the same way the teacher's runInit/
// runExecInit are only ever reached via /proc/self/exe.
var enforceInitCmd = &cobra.Command{
	Use:    "__enforce-init",
	Hidden: true,
	Args:   cobra.MinimumNArgs(1),
	RunE:   runEnforceInit,
}

func init() {
	rootCmd.AddCommand(enforceInitCmd)
}

// enforceSyncFD is the file descriptor the supervisor's sync pipe is
// inherited on: stdin/stdout/stderr occupy 0-2, and the pipe is the sole
// entry in cmd.ExtraFiles.
const enforceSyncFD = 3

func runEnforceInit(cmd *cobra.Command, args []string) error {
	if err := enforceInit(args); err != nil {
		reportSyncError(err)
		return err
	}
	reportSyncOK()

	target, err := exec.LookPath(args[0])
	if err != nil {
		err = fmt.Errorf("__enforce-init: %w", err)
		reportSyncError(err)
		return err
	}
	return syscall.Exec(target, args, os.Environ())
}

func enforceInit(args []string) error {
	promisesVal, err := strconv.ParseUint(os.Getenv("PLEDGED_PROMISES"), 10, 64)
	if err != nil {
		return fmt.Errorf("__enforce-init: malformed promise set: %w", err)
	}

	state := pledge.NewState()
	if err := state.Reduce(pledge.Promises(promisesVal)); err != nil {
		return fmt.Errorf("__enforce-init: %w", err)
	}
	if wp := os.Getenv("PLEDGED_WHITEPATHS"); wp != "" {
		if err := state.InstallWhitepaths(strings.Split(wp, ":")); err != nil {
			return fmt.Errorf("__enforce-init: %w", err)
		}
	}

	if err := enforce.Install(state); err != nil {
		return fmt.Errorf("__enforce-init: %w", err)
	}
	return nil
}

func reportSyncOK() {
	f := os.NewFile(enforceSyncFD, "syncpipe-child")
	defer f.Close()
	f.Write([]byte{0})
}

func reportSyncError(err error) {
	f := os.NewFile(enforceSyncFD, "syncpipe-child")
	defer f.Close()
	f.Write([]byte(err.Error()))
}
