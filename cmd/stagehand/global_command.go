package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stagehand/internal/config"
)

func newGlobalCommand(ctx *commandContext) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "global",
		Short: "Show or set the run's input and output directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			changed := false
			if cmd.Flags().Changed("input") {
				path, err := expandOptional(input)
				if err != nil {
					return err
				}
				sess.store.SetInputDir(path)
				changed = true
			}
			if cmd.Flags().Changed("output") {
				path, err := expandOptional(output)
				if err != nil {
					return err
				}
				sess.store.SetOutputDir(path)
				changed = true
			}
			if changed {
				if err := sess.save(); err != nil {
					return err
				}
			}
			global := sess.store.Global()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Input directory:  %s\n", valueOrUnset(global.InputDir))
			fmt.Fprintf(out, "Output directory: %s\n", valueOrUnset(global.OutputDir))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Global input directory")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Global output directory")
	return cmd
}

// expandOptional expands a non-empty path; an empty value clears the setting.
func expandOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	return expanded, nil
}
