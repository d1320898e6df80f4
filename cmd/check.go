package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pledged/pledge"
)

var checkPromisesFlag string

var checkCmd = &cobra.Command{
	Use:   "check <syscall-number>",
	Short: "Evaluate a syscall number against a promise set",
	Long: `check reports whether a syscall number would be permitted under
a given promise string, and if not, which promises would grant it.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkPromisesFlag, "promises", "", "promise string to check against")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	nr, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid syscall number %q: %w", args[0], err)
	}

	state := pledge.NewState()
	if checkPromisesFlag != "" {
		promises, err := pledge.ParsePromises(checkPromisesFlag)
		if err != nil {
			return err
		}
		if err := state.Reduce(promises); err != nil {
			return err
		}
	}

	if err := pledge.Check(nr, state); err != nil {
		need, _ := pledge.RequiredFor(nr)
		fmt.Printf("denied: requires one of %s\n", need.String())
		return err
	}
	fmt.Println("allowed")
	return nil
}
