package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stagehand/internal/settings"
)

func newSetCommand(ctx *commandContext) *cobra.Command {
	var unset []string

	cmd := &cobra.Command{
		Use:   "set <stage> [key=value]...",
		Short: "Change a stage's settings",
		Long: `Change a stage's settings bag.

Values are typed: true/false become booleans, integers and decimals become
numbers, anything else is stored as text.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assignments, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			if len(assignments) == 0 && len(unset) == 0 {
				return fmt.Errorf("nothing to change (pass key=value or --unset key)")
			}

			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			st, err := sess.resolve(args[0])
			if err != nil {
				return err
			}
			for _, key := range unset {
				sess.store.Delete(st.Name(), strings.TrimSpace(key))
			}
			for _, a := range assignments {
				sess.store.Set(st.Name(), a.key, settings.ParseValue(a.value))
			}
			if err := sess.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", st.Name())
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&unset, "unset", nil, "Remove a key from the stage's settings")
	return cmd
}

type assignment struct {
	key   string
	value string
}

func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q (want key=value)", arg)
		}
		out = append(out, assignment{key: key, value: value})
	}
	return out, nil
}
