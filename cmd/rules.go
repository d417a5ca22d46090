package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viableos/viableos/internal/format"
	"github.com/viableos/viableos/vsm"
)

var (
	rulesJSON  bool   // Emit the rules as JSON
	rulesWidth int    // Truncate table cells to this many runes
	rulesUnit  string // Only rules naming this unit
)

var rulesCmd = &cobra.Command{
	Use:   "rules <config>",
	Short: "List the effective coordination rules (manual rules first)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args[0])
		if err != nil {
			return err
		}
		rules := vsm.EffectiveRules(&cfg.ViableSystem)
		if rulesUnit != "" {
			rules = vsm.RulesMentioning(rules, rulesUnit)
		}
		out := cmd.OutOrStdout()
		if rulesJSON {
			if rules == nil {
				rules = []vsm.Rule{}
			}
			return writeJSON(out, rules)
		}

		fmt.Fprintln(out, format.RulesTable(rules, format.ASCII, rulesWidth))
		if !vsm.HasAntiLoopRule(rules) && rulesUnit == "" {
			fmt.Fprintf(out, "%s no rule guards against repetition loops\n", WarningPrefix)
		}
		return nil
	},
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesJSON, "json", false, "Print the rules as JSON")
	rulesCmd.Flags().IntVar(&rulesWidth, "width", 60, "Truncate cells to this many characters (0 disables)")
	rulesCmd.Flags().StringVar(&rulesUnit, "unit", "", "Only show rules that name this unit")
}
