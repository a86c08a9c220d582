package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telltaleatheist/clippy-sub006/internal/categories"
)

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the categories sections are classified into",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			configured, err := categories.Resolve(cfg)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, configured)
			}
			rows := make([][]string, 0, len(configured))
			for _, c := range configured {
				rows = append(rows, []string{c.Name, yesNo(c.IsEnabled()), c.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{Header: "Name"},
				{Header: "Enabled"},
				{Header: "Description", MaxWidth: descriptionCellWidth},
			}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
