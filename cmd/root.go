package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/mathverify/internal/app"
	"github.com/abhisek/mathverify/internal/config"
	"github.com/abhisek/mathverify/internal/logging"
	"github.com/abhisek/mathverify/internal/store"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mathverify",
	Short: "Grade math answers and gate mastery schedule updates",
	Long: `mathverify checks learner answers against a symbolic verification
service, falls back to numeric sampling when the service is unreachable,
and updates each subject's review schedule at most once per day.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			var err error
			if path, err = config.DefaultPath(); err != nil {
				return err
			}
		}

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err = logging.New(cfg.Log.Level, cfg.Log.Format)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides MATHVERIFY_CONFIG env var)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file or Postgres URL (overrides MATHVERIFY_DB env var)")
	rootCmd.PersistentFlags().String("oracle", "", "Verification service base URL (overrides MATHVERIFY_ORACLE_URL env var)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(finalizeCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

// applyFlagOverrides applies persistent flags, which take priority over
// both the config file and the environment.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		c.Store.DSN = p
	}
	if u, _ := cmd.Flags().GetString("oracle"); u != "" {
		c.Oracle.BaseURL = u
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		c.Log.Level = l
	}
}

// openApp builds the pipeline for commands that need it.
func openApp(cmd *cobra.Command) (*app.App, error) {
	return app.New(cmd.Context(), cfg, logger, app.Options{})
}

// openStore opens only the store, for read-only commands.
func openStore() (*store.Store, error) {
	dsn, err := cfg.StoreDSN()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.OpenDriver(cfg.Store.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
