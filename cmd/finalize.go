package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathverify/internal/ui/report"
)

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Record the end of a practice session for a subject",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		subject, _ := cmd.Flags().GetString("subject")
		if user == "" || subject == "" {
			return fmt.Errorf("--user and --subject are required")
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		r := a.Finalize(cmd.Context(), user, subject)
		fmt.Fprintln(cmd.OutOrStdout(), report.Gate(r))
		return nil
	},
}

func init() {
	finalizeCmd.Flags().String("user", "", "Learner ID")
	finalizeCmd.Flags().String("subject", "", "Subject ID")
}
