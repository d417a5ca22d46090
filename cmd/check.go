package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/viableos/viableos/vsm"
)

var checkJSON bool // Emit the viability report as JSON

var validateCmd = &cobra.Command{
	Use:   "validate <config>",
	Short: "Check an organization document against the schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if _, err := loadConfig(args[0]); err != nil {
			var se *schemaError
			if errors.As(err, &se) {
				printSchemaErrors(out, se)
				return fmt.Errorf("%s is invalid", args[0])
			}
			return err
		}
		fmt.Fprintf(out, "%s %s is valid\n", SuccessPrefix, args[0])
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <config>",
	Short: "Score an organization for viability and list warnings",
	Long: `Scores the organization against the six VSM roles and lists warnings.
Exits non-zero when the document has schema errors or any role is missing.
Warnings never affect the score.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg, err := loadConfig(args[0])
		if err != nil {
			var se *schemaError
			if !errors.As(err, &se) {
				return err
			}
			if checkJSON {
				if err := writeJSON(out, map[string][]string{"errors": se.errors}); err != nil {
					return err
				}
			} else {
				printSchemaErrors(out, se)
			}
			return fmt.Errorf("%s is invalid", args[0])
		}

		report := vsm.CheckViability(cfg)
		if checkJSON {
			if err := writeJSON(out, report); err != nil {
				return err
			}
		} else {
			printReport(out, cfg.ViableSystem.Name, report)
		}
		if !report.Viable() {
			return fmt.Errorf("not viable: %d of %d systems present", report.Score, report.Total)
		}
		return nil
	},
}

func printSchemaErrors(w io.Writer, se *schemaError) {
	fmt.Fprintf(w, "%s %s\n", ErrorPrefix, Bold.Render(fmt.Sprintf("%d schema error(s) in %s", len(se.errors), se.path)))
	for _, msg := range se.errors {
		fmt.Fprintf(w, "  %s\n", msg)
	}
}

func severityPrefix(s vsm.Severity) string {
	switch s {
	case vsm.SeverityCritical:
		return ErrorPrefix
	case vsm.SeverityWarning:
		return WarningPrefix
	default:
		return InfoPrefix
	}
}

func printReport(w io.Writer, name string, r *vsm.ViabilityReport) {
	fmt.Fprintln(w, Bold.Render("Viability check: "+name))
	for _, c := range r.Checks {
		prefix := SuccessPrefix
		if !c.Present {
			prefix = ErrorPrefix
		}
		fmt.Fprintf(w, "  %s %-4s %-14s %s\n", prefix, c.System, c.Name, Dim.Render(c.Details))
		for _, s := range c.Suggestions {
			fmt.Fprintf(w, "         %s %s\n", ArrowPrefix, s)
		}
	}

	verdict := Success.Render("VIABLE")
	if !r.Viable() {
		verdict = Error.Render("NOT VIABLE")
	}
	fmt.Fprintf(w, "\nScore: %d/%d  %s\n", r.Score, r.Total, verdict)

	if len(r.Warnings) == 0 {
		return
	}
	fmt.Fprintln(w, Heading.Render(fmt.Sprintf("Warnings (%d critical, %d warning, %d info)",
		r.CountBySeverity(vsm.SeverityCritical),
		r.CountBySeverity(vsm.SeverityWarning),
		r.CountBySeverity(vsm.SeverityInfo))))
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  %s [%s] %s\n", severityPrefix(warn.Severity), warn.Category, warn.Message)
		fmt.Fprintf(w, "      %s %s\n", ArrowPrefix, Dim.Render(warn.Suggestion))
	}
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the report as JSON")
}
