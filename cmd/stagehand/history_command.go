package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stagehand/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var limit int
	var pruneDays int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if pruneDays > 0 {
				removed, err := store.DeleteBefore(cmd.Context(), time.Now().AddDate(0, 0, -pruneDays))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d runs older than %d days\n", removed, pruneDays)
				return nil
			}

			if id := strings.TrimSpace(runID); id != "" {
				run, err := store.GetRun(cmd.Context(), id)
				if err != nil {
					return err
				}
				steps, err := store.RunSteps(cmd.Context(), id)
				if err != nil {
					return err
				}
				printRunDetail(cmd, run, steps)
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.Started.Local().Format("2006-01-02 15:04:05"),
					run.State,
					strconv.Itoa(len(run.Stages)),
					runDuration(run),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Run", "Started", "State", "Stages", "Duration"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Show the steps of one run")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	cmd.Flags().IntVar(&pruneDays, "prune-days", 0, "Delete runs older than this many days")
	return cmd
}

func printRunDetail(cmd *cobra.Command, run history.Run, steps []history.Step) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "State:    %s\n", run.State)
	fmt.Fprintf(out, "Input:    %s\n", run.InputDir)
	fmt.Fprintf(out, "Output:   %s\n", run.OutputDir)
	fmt.Fprintf(out, "Started:  %s\n", run.Started.Local().Format(time.RFC3339))
	if run.Finished != nil {
		fmt.Fprintf(out, "Finished: %s (%s)\n", run.Finished.Local().Format(time.RFC3339), runDuration(run))
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", run.Error)
	}
	if len(steps) == 0 {
		return
	}
	fmt.Fprintln(out)
	rows := make([][]string, 0, len(steps))
	for _, step := range steps {
		code := ""
		if step.ExitCode != nil {
			code = strconv.Itoa(*step.ExitCode)
		}
		rows = append(rows, []string{strconv.Itoa(step.Index + 1), step.Name, step.Status, code, step.Command})
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "Stage", "Status", "Exit", "Command"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))
}

func runDuration(run history.Run) string {
	if run.Finished == nil {
		return "-"
	}
	return run.Finished.Sub(run.Started).Truncate(time.Second).String()
}
