package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/practest/internal/auth"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a learner's local attempt history and trend",
	Long: `Delete the attempts and score trend kept in the local database for one
learner. Results and progress stored by the backend are not touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := requireEmail(cmd)
		if err != nil {
			return err
		}
		user, err := auth.UserFor(email)
		if err != nil {
			return err
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			fmt.Printf("Delete local history for %s? [y/N] ", user.Email)
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(line)); a != "y" && a != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		st, err := openLocalStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		attempts, err := st.AttemptRepo().Clear(ctx, user.ID)
		if err != nil {
			return err
		}
		points, err := st.TrendRepo(user.ID).Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d attempt(s) and %d trend point(s).\n", attempts, points)
		return nil
	},
}

func init() {
	resetCmd.Flags().String("email", "", "Learner email (required)")
	resetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
