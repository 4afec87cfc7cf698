package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stagehand/internal/preflight"
	"stagehand/internal/stage"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, external tools, and staged stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := resolveColor(cfg.Console.Color, out)
			failures := 0

			writeSection := func(title string) {
				for _, line := range renderSectionHeader(title, colorize) {
					fmt.Fprintln(out, line)
				}
			}

			writeSection("Directories")
			for _, result := range preflight.RunAll(cfg, sess.store.Global()) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failures++
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out)
			writeSection("External tools")
			for _, status := range preflight.CheckSystemDeps(cfg) {
				kind, detail := statusOK, status.Resolved
				if !status.Available {
					detail = status.Detail
					if status.Optional {
						kind = statusWarn
					} else {
						kind = statusError
						failures++
					}
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, detail, colorize))
			}

			fmt.Fprintln(out)
			writeSection("Staged stages")
			staged := sess.list.Stages()
			if len(staged) == 0 {
				fmt.Fprintln(out, renderStatusLine("Staging list", statusInfo, "empty", colorize))
			}
			if len(staged) > 0 && !sess.list.ValidateOrder() {
				fmt.Fprintln(out, renderStatusLine("Order", statusWarn, "out of category order", colorize))
			}
			for _, st := range staged {
				kind, detail := statusOK, ""
				if err := st.Validate(); err != nil {
					kind, detail = statusError, err.Error()
					failures++
				} else if checker, ok := st.(stage.Checker); ok {
					if health := checker.HealthCheck(); !health.Ready() {
						kind, detail = statusError, health.Detail()
						failures++
					}
				}
				fmt.Fprintln(out, renderStatusLine(st.Name(), kind, detail, colorize))
			}

			if failures > 0 {
				return fmt.Errorf("doctor found %d problem(s)", failures)
			}
			return nil
		},
	}
}
