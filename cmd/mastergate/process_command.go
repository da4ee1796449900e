package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mastergate/internal/config"
	"mastergate/internal/gate"
	"mastergate/internal/queue"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Claim and gate the user's oldest pending submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				orchestrator := buildOrchestrator(cfg, store)
				outcome := orchestrator.Process(cmd.Context(), userID)
				printOutcome(cmd.OutOrStdout(), outcome)
				if !outcome.OK {
					return fmt.Errorf("gate run failed: %s", outcome.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User whose queue to process")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the user's most recent gate result without claiming work",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				orchestrator := buildOrchestrator(cfg, store)
				outcome := orchestrator.Status(cmd.Context(), userID)
				printOutcome(cmd.OutOrStdout(), outcome)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User to report on")
	return cmd
}

func printOutcome(out io.Writer, outcome gate.Outcome) {
	if !outcome.OK {
		fmt.Fprintf(out, "error: %s\n", outcome.Error)
		return
	}
	if !outcome.Processed {
		switch outcome.Reason {
		case gate.ReasonIdle, "":
			fmt.Fprintln(out, "Nothing pending")
			if outcome.Decision != "" {
				fmt.Fprintf(out, "Last decision: %s (submission %s)\n", colorDecision(out, outcome.Decision), outcome.QueueID)
			}
		default:
			fmt.Fprintf(out, "Not processed: %s\n", outcome.Reason)
		}
	} else {
		fmt.Fprintf(out, "Decision: %s\n", colorDecision(out, outcome.Decision))
		if outcome.QueueID != "" {
			fmt.Fprintf(out, "Submission: %s\n", outcome.QueueID)
		}
		if outcome.Reason != "" {
			fmt.Fprintf(out, "Reason: %s\n", outcome.Reason)
		}
	}
	if outcome.FeedbackAvailable != nil {
		fmt.Fprintf(out, "Feedback available: %s\n", yesNo(*outcome.FeedbackAvailable))
	}
}

func colorDecision(out io.Writer, decision string) string {
	if !shouldColorize(out) {
		return decision
	}
	switch decision {
	case string(queue.DecisionApproved):
		return ansiGreen + decision + ansiReset
	case string(queue.DecisionRejected):
		return ansiRed + decision + ansiReset
	}
	return decision
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
