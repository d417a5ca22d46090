package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/viableos/viableos/vsm"
)

var (
	initTemplate string // Starter key
	initName     string // Organization name
	initPurpose  string // Organization purpose
	initForce    bool   // Overwrite an existing file
)

// Seams for tests.
var (
	stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	askIdentity     = promptIdentity
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter organization document",
	Long: `Writes a starter organization (see 'viableos templates') with your name and
purpose to path (default viableos.yaml). Missing --name or --purpose are asked
for when running in a terminal. A .json path writes JSON, anything else YAML.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "viableos.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if vsm.FormatFromPath(path) == vsm.FormatTOML {
			return fmt.Errorf("init writes YAML or JSON, not TOML: %s", path)
		}
		if !initForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}

		cfg, err := vsm.Starter(initTemplate)
		if err != nil {
			return err
		}

		name, purpose := strings.TrimSpace(initName), strings.TrimSpace(initPurpose)
		if name == "" || purpose == "" {
			if !stdinIsTerminal() {
				return errors.New("--name and --purpose are required when stdin is not a terminal")
			}
			if name, purpose, err = askIdentity(name, purpose); err != nil {
				return err
			}
		}
		cfg.ViableSystem.Name = name
		cfg.ViableSystem.Identity.Purpose = purpose

		data, err := encodeStarter(cfg, vsm.FormatFromPath(path))
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s Created %s from the %s starter\n", SuccessPrefix, Info.Render(path), initTemplate)
		fmt.Fprintf(out, "  Edit the file, then run: %s\n", Bold.Render("viableos check "+path))
		return nil
	},
}

func encodeStarter(cfg *vsm.Config, f vsm.Format) ([]byte, error) {
	if f != vsm.FormatJSON {
		return vsm.Marshal(cfg)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding organization document: %w", err)
	}
	return append(data, '\n'), nil
}

// promptIdentity asks for whichever of name and purpose is still empty.
func promptIdentity(name, purpose string) (string, string, error) {
	required := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", field)
			}
			return nil
		}
	}

	var fields []huh.Field
	if name == "" {
		fields = append(fields, huh.NewInput().
			Title("System name").
			Description("What is your organization called?").
			Placeholder("e.g., Acme Robotics").
			Value(&name).
			Validate(required("name")))
	}
	if purpose == "" {
		fields = append(fields, huh.NewInput().
			Title("System purpose").
			Description("What is your organization for?").
			Placeholder("e.g., Build and sell warehouse robots").
			Value(&purpose).
			Validate(required("purpose")))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", "", errors.New("init cancelled")
		}
		return "", "", fmt.Errorf("form error: %w", err)
	}
	return strings.TrimSpace(name), strings.TrimSpace(purpose), nil
}

func init() {
	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "custom", "Starter organization (see 'viableos templates')")
	initCmd.Flags().StringVar(&initName, "name", "", "Organization name")
	initCmd.Flags().StringVar(&initPurpose, "purpose", "", "What the organization is for")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
}
