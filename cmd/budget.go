package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viableos/viableos/internal/format"
	"github.com/viableos/viableos/vsm"
)

var (
	budgetJSON     bool // Emit the plan as JSON
	budgetMarkdown bool // Render tables as Markdown
)

var budgetCmd = &cobra.Command{
	Use:   "budget <config>",
	Short: "Show the monthly budget split and model routing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args[0])
		if err != nil {
			return err
		}
		plan := vsm.CalculateBudget(cfg)
		out := cmd.OutOrStdout()
		if budgetJSON {
			return writeJSON(out, plan)
		}

		mode := format.ASCII
		if budgetMarkdown {
			mode = format.Markdown
		}
		fmt.Fprintf(out, "%s %s/month, strategy %s\n\n", Bold.Render("Budget:"), format.USD(plan.TotalMonthlyUSD), plan.Strategy)
		fmt.Fprintln(out, format.BudgetTable(plan, mode))
		fmt.Fprintln(out)
		fmt.Fprintln(out, format.RoutingTable(plan, mode))
		return nil
	},
}

func init() {
	budgetCmd.Flags().BoolVar(&budgetJSON, "json", false, "Print the plan as JSON")
	budgetCmd.Flags().BoolVar(&budgetMarkdown, "markdown", false, "Render tables as Markdown")
}
