package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathverify/internal/app"
	"github.com/abhisek/mathverify/internal/ui/report"
)

var gradeCmd = &cobra.Command{
	Use:   "grade <exercise.json>",
	Short: "Grade an exercise file and update the mastery schedule",
	Long: `Grade every item of an exercise file, print the verdict and, when the
exercise names a user and subject, pass the verdict to the mastery gate.
Use "-" to read the exercise from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open exercise: %w", err)
			}
			defer f.Close()
			in = f
		}
		ex, err := app.LoadExercise(in)
		if err != nil {
			return err
		}

		if u, _ := cmd.Flags().GetString("user"); u != "" {
			ex.UserID = u
		}
		if s, _ := cmd.Flags().GetString("subject"); s != "" {
			ex.SubjectID = s
		}
		if cmd.Flags().Changed("hints") {
			ex.Hints, _ = cmd.Flags().GetInt("hints")
		}
		noUpdate, _ := cmd.Flags().GetBool("no-update")
		attemptID, _ := cmd.Flags().GetString("attempt")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.Grade(cmd.Context(), ex, app.GradeOptions{
			AttemptID:  attemptID,
			SkipUpdate: noUpdate,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}

		fmt.Fprintln(out, report.Result(rep.Result, report.DefaultWidth))
		if rep.Mastery != nil {
			fmt.Fprintln(out, report.Gate(*rep.Mastery))
		}
		fmt.Fprintf(out, "attempt %s\n", rep.AttemptID)
		return nil
	},
}

func init() {
	gradeCmd.Flags().String("user", "", "Learner ID (overrides the exercise file)")
	gradeCmd.Flags().String("subject", "", "Subject ID (overrides the exercise file)")
	gradeCmd.Flags().Int("hints", 0, "Hints used (overrides the exercise file)")
	gradeCmd.Flags().String("attempt", "", "Attempt ID (default: a new UUID)")
	gradeCmd.Flags().Bool("no-update", false, "Grade without touching the mastery schedule")
	gradeCmd.Flags().Bool("json", false, "Print the report as JSON")
}
