package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathverify/internal/verify"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds [skillId...]",
	Short: "Show the skill routing table, or route the given skill IDs",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) > 0 {
			for _, id := range args {
				fmt.Fprintf(out, "%-40s  %s\n", id, verify.Route(id))
			}
			return nil
		}

		fmt.Fprintf(out, "%-22s  %-22s  %s\n", "Rule", "Kind", "Fallback")
		for _, r := range verify.Rules() {
			fb := ""
			if r.Kind.HasFallback() {
				fb = "numeric"
			}
			fmt.Fprintf(out, "%-22s  %-22s  %s\n", r.Name, r.Kind, fb)
		}
		fmt.Fprintf(out, "%-22s  %-22s\n", "(default)", verify.DefaultKind)
		return nil
	},
}
