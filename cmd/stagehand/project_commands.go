package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stagehand/internal/settings"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Project document utilities",
	}
	projectCmd.AddCommand(newProjectInitCommand(ctx))
	projectCmd.AddCommand(newProjectShowCommand(ctx))
	return projectCmd
}

func newProjectInitCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty project document",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.projectPath()
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("project already exists at %s (use --overwrite to replace it)", path)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check project path: %w", err)
				}
			}
			if err := settings.SaveProject(path, settings.Project{}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote project to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing project document")
	return cmd
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Summarize the project document",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			global := sess.store.Global()
			fmt.Fprintf(out, "Project:          %s\n", sess.path)
			fmt.Fprintf(out, "Input directory:  %s\n", valueOrUnset(global.InputDir))
			fmt.Fprintf(out, "Output directory: %s\n", valueOrUnset(global.OutputDir))
			fmt.Fprintf(out, "Staged:           %d\n", sess.list.Len())
			fmt.Fprintf(out, "Order valid:      %s\n", yesNo(sess.list.ValidateOrder()))
			return nil
		},
	}
}

func valueOrUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}
