package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List available stages by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			var rows [][]string
			for _, category := range sess.registry.Categories() {
				for _, st := range category.Stages {
					rows = append(rows, []string{
						strconv.Itoa(category.Rank),
						category.Name,
						category.Mode.String(),
						st.Name(),
						yesNo(sess.list.Contains(st)),
					})
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"Rank", "Category", "Mode", "Stage", "Staged"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
