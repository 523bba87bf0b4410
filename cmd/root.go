package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/practest/internal/config"
	"github.com/abhisek/practest/internal/logging"
	"github.com/abhisek/practest/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "practest",
	Short: "Timed practice tests in the terminal",
	Long:  "Practest lets you take timed, configurable practice tests and track how you improve.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("server", "", "Backend base URL (overrides PRACTEST_SERVER_URL)")
	pf.String("db", "", "Path to the local SQLite database (overrides PRACTEST_DB)")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.String("log-format", "", "Log format: text or json")
	pf.String("log-file", "", "Write logs to this file")
	pf.Bool("persist-trend", false, "Keep the score trend in the local database")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(subjectsCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// clientConfig loads client settings with command-line flags applied on top.
func clientConfig(cmd *cobra.Command) (config.Client, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return config.Client{}, err
	}
	flags := cmd.Flags()
	if v, _ := flags.GetString("server"); v != "" {
		cfg.ServerURL = v
	}
	if v, _ := flags.GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if flags.Changed("persist-trend") {
		cfg.PersistTrend, _ = flags.GetBool("persist-trend")
	}
	applyLogFlags(cmd, &cfg.Log)
	return cfg, nil
}

func applyLogFlags(cmd *cobra.Command, l *config.Log) {
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		l.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		l.Format = v
	}
}

// resolveDBPath returns the database path from the config (flag or
// PRACTEST_DB), else the default XDG path.
func resolveDBPath(p string) (string, error) {
	if p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// newLogger writes to --log-file when set. Otherwise the TUI logs to the
// default state file and other commands log to stderr. The returned close
// function must be called.
func newLogger(cmd *cobra.Command, l config.Log, tui bool) (*slog.Logger, func(), error) {
	path, _ := cmd.Flags().GetString("log-file")
	if path == "" && tui {
		p, err := logging.DefaultFilePath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}
	if path == "" {
		logger, err := logging.New(os.Stderr, l.Level, l.Format)
		return logger, func() {}, err
	}

	f, err := logging.OpenFile(filepath.Clean(path))
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(f, l.Level, l.Format)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return logger, func() { f.Close() }, nil
}

func userFlag(cmd *cobra.Command) string {
	v, _ := cmd.Flags().GetString("email")
	return v
}

func requireEmail(cmd *cobra.Command) (string, error) {
	email := userFlag(cmd)
	if email == "" {
		return "", fmt.Errorf("--email is required")
	}
	return email, nil
}
