package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mastergate/internal/config"
	"mastergate/internal/gate"
	"mastergate/internal/queue"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var contentHash string

	cmd := &cobra.Command{
		Use:   "submit <audio-file>",
		Short: "Enqueue an audio file for gating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			sourcePath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}

			hash := contentHash
			if hash == "" {
				hash, err = gate.HashFile(sourcePath)
				if err != nil {
					return fmt.Errorf("hash source file: %w", err)
				}
			}

			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				item, err := store.Enqueue(cmd.Context(), userID, hash, sourcePath)
				if err != nil {
					return fmt.Errorf("enqueue submission: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued submission %d (%s)\n", item.ID, shortHash(item.ContentHash))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Owner of the submission")
	cmd.Flags().StringVar(&contentHash, "hash", "", "Precomputed content hash (computed from the file when empty)")
	return cmd
}
