package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"stagehand/internal/transcript"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "transcript [run-id]",
		Short: "Print a run's output transcript",
		Long: `Print the output transcript of a run; the newest run when no id is given.

--follow keeps printing new output until interrupted, which is useful for
watching a run started from another terminal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var path string
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				path = transcript.Path(cfg.TranscriptDir(), strings.TrimSpace(args[0]))
			} else {
				path, err = transcript.Latest(cfg.TranscriptDir())
				if err != nil {
					return err
				}
			}

			tail, offset, err := transcript.Tail(path, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err = transcript.Follow(sigCtx, path, offset, cfg.PollInterval(), func(line string) {
				fmt.Fprintln(out, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 0, "Show only the last N lines (0 for all)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new output")
	return cmd
}
