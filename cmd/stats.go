package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/practest/internal/analytics"
	"github.com/abhisek/practest/internal/auth"
	"github.com/abhisek/practest/internal/ui/layout"
	"github.com/abhisek/practest/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a learner's recent attempts and outlook",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := requireEmail(cmd)
		if err != nil {
			return err
		}
		user, err := auth.UserFor(email)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := openLocalStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		recs, err := st.AttemptRepo().Recent(ctx, user.ID, limit)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Printf("No attempts recorded for %s.\n", user.Email)
			return nil
		}

		fmt.Printf("%-16s  %-12s  %6s  %7s  %9s  %s\n", "Completed", "Subject", "Score", "Correct", "Time", "Saved")
		fmt.Println(strings.Repeat("─", 66))
		scores := make([]float64, 0, len(recs))
		for _, r := range recs {
			saved := "✓"
			if r.CommitError != "" {
				saved = "✗ " + truncate(r.CommitError, 30)
			}
			fmt.Printf("%-16s  %-12s  %5.0f%%  %3d/%-3d  %9s  %s\n",
				r.CompletedAt.Local().Format("2006-01-02 15:04"),
				truncate(r.Subject, 12), r.Score, r.Correct, r.Total,
				layout.FormatClock(r.TimeTaken), saved)
			scores = append(scores, r.Score)
		}

		// Recent returns newest first; the trend runs oldest first.
		for i, j := 0, len(scores)-1; i < j; i, j = i+1, j-1 {
			scores[i], scores[j] = scores[j], scores[i]
		}
		p := analytics.Predict(scores, nil)
		fmt.Println(strings.Repeat("─", 66))
		fmt.Printf("Average %.0f%%   Predicted next %.0f%%   Suggested difficulty %s\n",
			analytics.Average(scores), p.PredictedScore, p.RecommendedDifficulty)
		return nil
	},
}

func init() {
	statsCmd.Flags().String("email", "", "Learner email (required)")
	statsCmd.Flags().IntP("limit", "n", 20, "Number of attempts to show")
}

func openLocalStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := clientConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}
