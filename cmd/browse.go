package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/practest/internal/auth"
	"github.com/abhisek/practest/internal/gateway"
	"github.com/abhisek/practest/internal/progress"
)

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List the subjects offered by the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := newGateway(cmd)
		if err != nil {
			return err
		}
		subjects, err := gw.Subjects(cmd.Context())
		if err != nil {
			return err
		}
		if len(subjects) == 0 {
			fmt.Println("No subjects available.")
			return nil
		}
		for _, s := range subjects {
			fmt.Printf("%-12s  %-20s  %s\n", s.ID, s.Name, s.Description)
		}
		return nil
	},
}

var topicsCmd = &cobra.Command{
	Use:   "topics <subject>",
	Short: "List the topics of a subject with completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := newGateway(cmd)
		if err != nil {
			return err
		}
		topics, err := gw.Topics(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(topics) == 0 {
			fmt.Printf("No topics for %q.\n", args[0])
			return nil
		}

		fmt.Printf("%-14s  %-24s  %9s  %5s\n", "ID", "Topic", "Done", "%")
		fmt.Println(strings.Repeat("─", 58))
		for _, t := range topics {
			fmt.Printf("%-14s  %-24s  %4d/%-4d  %4.0f%%\n",
				t.ID, truncate(t.Name, 24), t.CompletedQuestions, t.TotalQuestions, progress.Percent(t))
		}
		return nil
	},
}

func init() {
	topicsCmd.Flags().String("email", "", "Show completion for this learner")
}

// newGateway builds an HTTP gateway. With --email set, topic listings carry
// that learner's completion counts.
func newGateway(cmd *cobra.Command) (gateway.Gateway, error) {
	cfg, err := clientConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := newLogger(cmd, cfg.Log, false)
	if err != nil {
		return nil, err
	}
	cobra.OnFinalize(closeLog)

	users := auth.NewStub()
	if email := userFlag(cmd); email != "" {
		if _, err := users.Login(email); err != nil {
			return nil, err
		}
	}
	return gateway.NewHTTPClient(cfg.ServerURL, &http.Client{Timeout: cfg.HTTPTimeout}, logger).WithUsers(users), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
