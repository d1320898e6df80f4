package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pledged/pledge"
)

var parseCmd = &cobra.Command{
	Use:   "parse <promises>",
	Short: "Parse a promise string and print its canonical form",
	Long: `parse validates a space-separated promise string the way pledge(2)
itself does and prints the promise names back out in table order, so
you can see exactly which bits a string like "stdio rpath inet" grants.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	promises, err := pledge.ParsePromises(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%#x: %s\n", uint64(promises), promises.String())
	return nil
}
