package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List supervised processes",
	Long: `list prints every process this pledged instance is currently
supervising: its PID, session ID, held promises, and start time.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	sessions := supervisedRegistry.List()
	if len(sessions) == 0 {
		fmt.Println("no supervised processes")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tSESSION\tPROMISES\tSTARTED")
	for _, sess := range sessions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			sess.PID, sess.ID, sess.State.Promises(), sess.StartedAt.Format("15:04:05"))
	}
	return w.Flush()
}
