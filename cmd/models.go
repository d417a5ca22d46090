package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viableos/viableos/internal/format"
	"github.com/viableos/viableos/vsm"
	"github.com/viableos/viableos/vsm/catalog"
)

var (
	modelsProvider string // Restrict the listing to one provider
	modelsJSON     bool   // Emit the catalog as JSON
	templatesJSON  bool   // Emit the starters as JSON
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model catalog with tiers and reliability notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := catalog.All()
		if modelsProvider != "" {
			if !vsm.ValidProviders[modelsProvider] {
				return fmt.Errorf("unknown provider %q", modelsProvider)
			}
			ids = catalog.ForProvider(modelsProvider)
		}
		entries := make([]catalog.Model, 0, len(ids))
		for _, id := range ids {
			m, _ := catalog.Lookup(id)
			entries = append(entries, m)
		}

		out := cmd.OutOrStdout()
		if modelsJSON {
			return writeJSON(out, entries)
		}
		t := format.NewTable(format.ASCII, "Model", "Tier", "Reliability", "Note")
		for _, m := range entries {
			note := m.Note
			if m.Warning != "" {
				note = "! " + m.Warning
			}
			t.Row(m.ID, m.Tier, m.Reliability, format.Truncate(note, 60))
		}
		fmt.Fprintln(out, t.String())
		if len(entries) == 0 {
			fmt.Fprintf(out, "%s no catalog models for %s; any provider/model id may still be used as an override\n", InfoPrefix, modelsProvider)
		}
		return nil
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the starter organizations available to init",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		starters := vsm.Starters()
		out := cmd.OutOrStdout()
		if templatesJSON {
			return writeJSON(out, starters)
		}
		t := format.NewTable(format.ASCII, "Key", "Name", "Units", "Tagline")
		for _, s := range starters {
			t.Row(s.Key, s.Name, s.Units, s.Tagline)
		}
		t.AlignRight(3)
		fmt.Fprintln(out, t.String())
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringVarP(&modelsProvider, "provider", "p", "", "Only list models of this provider")
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "Print the catalog as JSON")
	templatesCmd.Flags().BoolVar(&templatesJSON, "json", false, "Print the starters as JSON")
}
