package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	logLevel     string // Log verbosity level
	settingsPath string // Optional settings file

	// settings resolves flag values against VIABLEOS_* environment variables
	// and the settings file. Rebuilt on every invocation.
	settings = viper.New()
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:           "viableos",
	Short:         "Turn an organization document into a deployable agent package",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		settings = s

		level, err := logrus.ParseLevel(settings.GetString("log"))
		if err != nil {
			return fmt.Errorf("invalid log level: %s", settings.GetString("log"))
		}
		logrus.SetLevel(level)
		return nil
	},
}

// loadSettings binds the command's flags to environment variables with the
// VIABLEOS_ prefix and to the settings file, when one exists. Explicit flags
// win over the environment, which wins over the file.
func loadSettings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("VIABLEOS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	path := settingsPath
	if path == "" {
		path = defaultSettingsPath()
	}
	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}
	logrus.Debugf("settings loaded from %s", path)
	return v, nil
}

// defaultSettingsPath returns <user config dir>/viableos/settings.yaml if it exists.
func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, "viableos", "settings.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Execute runs the CLI root command. Errors are fatal.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalf("%v", err)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Settings file (default <user config dir>/viableos/settings.yaml)")

	rootCmd.AddCommand(validateCmd, checkCmd, budgetCmd, rulesCmd, generateCmd, initCmd, modelsCmd, templatesCmd)
}
