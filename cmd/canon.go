package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pledged/pledge"
)

var canonCmd = &cobra.Command{
	Use:   "canon <path>",
	Short: "Canonicalize and resolve a path",
	Long: `canon prints the canonical form of a path relative to the current
working directory: "." and ".." components and repeated slashes are
removed lexically. Symbolic links are not resolved.`,
	Args: cobra.ExactArgs(1),
	RunE: runCanon,
}

func init() {
	rootCmd.AddCommand(canonCmd)
}

func runCanon(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}
	resolved := pledge.Resolve(cwd, "/", args[0])
	fmt.Println(pledge.Canon(resolved))
	return nil
}
