package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathverify/internal/store"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recent grading and verification service events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		user, _ := cmd.Flags().GetString("user")

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		out := cmd.OutOrStdout()

		graded, err := s.EventRepo().QueryGrading(ctx, store.QueryOpts{Limit: limit, UserID: user})
		if err != nil {
			return fmt.Errorf("query grading events: %w", err)
		}
		fmt.Fprintln(out, "Grading")
		fmt.Fprintf(out, "%-5s  %-19s  %-36s  %-12s  %-8s  %s\n",
			"Seq", "Timestamp", "Attempt", "User", "Verdict", "Score")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		if len(graded) == 0 {
			fmt.Fprintln(out, "No grading events found.")
		}
		for _, e := range graded {
			fmt.Fprintf(out, "%-5d  %-19s  %-36s  %-12s  %-8s  %g/%d\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.AttemptID,
				e.UserID,
				e.Verdict,
				e.CorrectCount,
				e.Total,
			)
		}

		calls, err := s.EventRepo().QueryOracleRequests(ctx, store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query oracle events: %w", err)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Verification service")
		fmt.Fprintf(out, "%-5s  %-19s  %-7s  %-22s  %-5s  %-7s  %s\n",
			"Seq", "Timestamp", "Op", "Kind", "Jobs", "Ms", "OK")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		if len(calls) == 0 {
			fmt.Fprintln(out, "No verification service events found.")
		}
		for _, e := range calls {
			ok := "✓"
			if !e.Success {
				ok = "✗ " + e.ErrorMessage
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-7s  %-22s  %-5d  %-7d  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Operation,
				e.Kind,
				e.Jobs,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().IntP("limit", "n", 20, "Maximum events per table")
	eventsCmd.Flags().String("user", "", "Only grading events for this learner")
}
