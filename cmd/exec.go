package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pledged/enforce"
	"pledged/pledge"
)

var (
	execPromisesFlag   string
	execWhitepathsFlag []string
)

// supervisedRegistry tracks every process this pledged instance is
// currently enforcing; list reads from it.
var supervisedRegistry = pledge.NewRegistry()

var execCmd = &cobra.Command{
	Use:   "exec -- <command> [args...]",
	Short: "Run a command under pledge enforcement",
	Long: `exec runs a command restricted to a set of promises: it installs a
seccomp prefilter and a ptrace supervisor so that only syscalls the
promise set permits, and only paths the path gate admits, are allowed to
complete.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().StringVar(&execPromisesFlag, "promises", "stdio", "space-separated promise string")
	execCmd.Flags().StringSliceVar(&execWhitepathsFlag, "whitepath", nil, "additional allowed path (repeatable)")
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	promises, err := pledge.ParsePromises(execPromisesFlag)
	if err != nil {
		return err
	}

	selfExe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve self executable: %w", err)
	}

	if restore, err := enforce.EnterRawMode(int(os.Stdin.Fd())); err == nil && restore != nil {
		defer restore()
	}

	target := enforce.Target{
		Promises:   promises,
		Whitepaths: execWhitepathsFlag,
		Argv:       args,
	}

	_, runErr := enforce.Supervise(selfExe, target, supervisedRegistry)
	return runErr
}
