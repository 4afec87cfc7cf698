package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stagehand/internal/staging"
)

func newIntermediateCommand(ctx *commandContext) *cobra.Command {
	intermediateCmd := &cobra.Command{
		Use:   "intermediate",
		Short: "Inspect and clean per-stage intermediate directories",
	}
	intermediateCmd.AddCommand(newIntermediateListCommand(ctx))
	intermediateCmd.AddCommand(newIntermediateCleanCommand(ctx))
	return intermediateCmd
}

func newIntermediateListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List intermediate directories under the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			outputDir := sess.store.Global().OutputDir
			out := cmd.OutOrStdout()
			if outputDir == "" {
				fmt.Fprintln(out, "Output directory not set")
				return nil
			}
			dirs, err := staging.ListDirectories(outputDir)
			if err != nil {
				return fmt.Errorf("list intermediate directories: %w", err)
			}
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No intermediate directories found")
				return nil
			}

			fmt.Fprintf(out, "Intermediate directory: %s\n\n", staging.IntermediateRoot(outputDir))
			var totalSize int64
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				totalSize += dir.Size
				rows = append(rows, []string{
					dir.Name,
					formatAge(time.Since(dir.ModTime)),
					formatBytes(dir.Size),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Stage", "Age", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), formatBytes(totalSize))
			return nil
		},
	}
}

func newIntermediateCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var orphaned bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove intermediate directories",
		Long: `Remove intermediate directories left by earlier runs.

--orphaned removes directories of stages that are no longer staged.
--older-than removes directories not modified within the given duration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !orphaned && olderThan <= 0 {
				return errors.New("choose --orphaned or --older-than")
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			outputDir := sess.store.Global().OutputDir
			if outputDir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Output directory not set")
				return nil
			}
			if orphaned {
				result := staging.CleanOrphaned(cmd.Context(), outputDir, sess.list.Names(), logger)
				printCleanResult(cmd, result, "orphaned")
			}
			if olderThan > 0 {
				result := staging.CleanStale(cmd.Context(), outputDir, olderThan, logger)
				printCleanResult(cmd, result, "stale")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&orphaned, "orphaned", false, "Remove directories of stages that are not staged")
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Remove directories older than this (e.g. 72h)")
	return cmd
}

func printCleanResult(cmd *cobra.Command, result staging.CleanResult, label string) {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintf(out, "No %s directories to clean\n", label)
		return
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "Removed %d %s directories, %d errors\n", len(result.Removed), label, len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
		}
		return
	}
	fmt.Fprintf(out, "Removed %d %s directories\n", len(result.Removed), label)
}

func formatAge(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
