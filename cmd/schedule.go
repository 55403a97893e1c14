package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathverify/internal/ui/report"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "List review schedules and the subjects due now",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		reviews, due, err := a.Due(cmd.Context(), user)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, report.Reviews(reviews, a.Now()))
		if user != "" {
			fmt.Fprintln(out)
			if len(due) == 0 {
				fmt.Fprintf(out, "Nothing due for %s.\n", user)
			} else {
				fmt.Fprintf(out, "Due for %s: %s\n", user, strings.Join(due, ", "))
			}
		}
		return nil
	},
}

func init() {
	scheduleCmd.Flags().String("user", "", "Learner ID (default: all learners)")
}
