package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mastergate/internal/auth"
	"mastergate/internal/config"
	"mastergate/internal/queue"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tokens, err := auth.New(cfg)
			if err != nil {
				return err
			}
			signed, expiresAt, err := tokens.Issue(userID)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, signed)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Local().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Subject to issue the token for")
	return cmd
}

func newUnlockCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var submissionID int64

	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Unlock detailed feedback for a rejected submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			if submissionID <= 0 {
				return fmt.Errorf("--id is required")
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				item, err := store.GetByID(cmd.Context(), submissionID)
				if err != nil {
					return fmt.Errorf("look up submission: %w", err)
				}
				if item == nil || item.UserID != userID {
					return fmt.Errorf("submission %d not found for user %s", submissionID, userID)
				}
				if err := store.UnlockFeedback(cmd.Context(), userID, submissionID); err != nil {
					return fmt.Errorf("unlock feedback: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Feedback unlocked for submission %d\n", submissionID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Owner of the submission")
	cmd.Flags().Int64Var(&submissionID, "id", 0, "Submission ID")
	return cmd
}
