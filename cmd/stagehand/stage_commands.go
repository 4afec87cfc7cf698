package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"stagehand/internal/stage"
)

func newStageCommand(ctx *commandContext) *cobra.Command {
	stageCmd := &cobra.Command{
		Use:   "stage",
		Short: "Manage the staging list",
	}

	stageCmd.AddCommand(newStageAddCommand(ctx))
	stageCmd.AddCommand(newStageRemoveCommand(ctx))
	stageCmd.AddCommand(newStageMoveCommand(ctx))
	stageCmd.AddCommand(newStageListCommand(ctx))
	stageCmd.AddCommand(newStageShowCommand(ctx))

	return stageCmd
}

func newStageAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <stage>...",
		Short: "Stage one or more stages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return toggleStages(cmd, ctx, args, true)
		},
	}
}

func newStageRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <stage>...",
		Aliases: []string{"rm"},
		Short:   "Unstage one or more stages",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return toggleStages(cmd, ctx, args, false)
		},
	}
}

func toggleStages(cmd *cobra.Command, ctx *commandContext, names []string, active bool) error {
	sess, err := ctx.openSession()
	if err != nil {
		return err
	}
	for _, name := range names {
		st, err := sess.resolve(name)
		if err != nil {
			return err
		}
		if err := sess.list.Toggle(st, active); err != nil {
			return err
		}
	}
	if err := sess.save(); err != nil {
		return err
	}
	printStaged(cmd, sess)
	return nil
}

func newStageMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <position> <up|down>",
		Short: "Swap a staged stage with its neighbour in the same category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid position %q: %w", args[0], err)
			}
			var direction int
			switch strings.ToLower(strings.TrimSpace(args[1])) {
			case "up":
				direction = -1
			case "down":
				direction = 1
			default:
				return fmt.Errorf("invalid direction %q (use up or down)", args[1])
			}

			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			if err := sess.list.Move(position-1, direction); err != nil {
				return err
			}
			if err := sess.save(); err != nil {
				return err
			}
			printStaged(cmd, sess)
			return nil
		},
	}
}

func newStageListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the staging list in execution order",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			printStaged(cmd, sess)
			return nil
		},
	}
}

func printStaged(cmd *cobra.Command, sess *session) {
	out := cmd.OutOrStdout()
	staged := sess.list.Stages()
	if len(staged) == 0 {
		fmt.Fprintln(out, "No stages staged")
		return
	}
	rows := make([][]string, 0, len(staged))
	for i, st := range staged {
		category := ""
		if c, ok := sess.registry.CategoryOf(st); ok {
			category = c.Name
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), st.Name(), category})
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "Stage", "Category"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	))
	if !sess.list.ValidateOrder() {
		fmt.Fprintln(out, "Warning: staging list is out of category order")
	}
}

func newStageShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <stage>",
		Short: "Show a stage's options and current settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			st, err := sess.resolve(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			category, _ := sess.registry.CategoryOf(st)
			fmt.Fprintf(out, "Stage:    %s\n", st.Name())
			if category != nil {
				fmt.Fprintf(out, "Category: %s (%s, rank %d)\n", category.Name, category.Mode, category.Rank)
			}
			fmt.Fprintf(out, "Staged:   %s\n\n", yesNo(sess.list.Contains(st)))
			fmt.Fprint(out, renderTable(
				[]string{"Key", "Value", "Default", "Description"},
				optionRows(st, sess.store.Section(st.Name())),
				nil,
			))
			return nil
		},
	}
}

// optionRows lists documented options first, then any other keys present in
// the bag.
func optionRows(st stage.Stage, bag map[string]any) [][]string {
	var rows [][]string
	documented := make(map[string]struct{})
	for _, opt := range st.Options() {
		documented[opt.Key] = struct{}{}
		value := ""
		if v, ok := bag[opt.Key]; ok {
			value = fmt.Sprint(v)
		}
		rows = append(rows, []string{opt.Key, value, opt.Default, opt.Help})
	}
	var extra []string
	for key := range bag {
		if _, ok := documented[key]; ok || key == stage.KeyInputDir || key == stage.KeyOutputDir {
			continue
		}
		extra = append(extra, key)
	}
	sort.Strings(extra)
	for _, key := range extra {
		rows = append(rows, []string{key, fmt.Sprint(bag[key]), "", ""})
	}
	return rows
}
