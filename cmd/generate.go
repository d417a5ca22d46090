package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/viableos/viableos/vsm"
	"github.com/viableos/viableos/vsm/openclaw"
)

const (
	defaultOutputDir = "viableos-openclaw"
	debounceDelay    = 500 * time.Millisecond
)

var (
	outputDir string // Package output directory
	watch     bool   // Regenerate when the document changes
)

var generateCmd = &cobra.Command{
	Use:   "generate <config>",
	Short: "Generate the OpenClaw package for an organization",
	Long: `Validates the document, then writes one workspace per agent, the shared
references, openclaw.json and install.sh into the output directory. The output
directory is replaced as a whole. Concurrent runs serialize on a lock file
named after the output directory plus ".lock", created beside it and left in
place. Viability warnings are reported but never block generation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := settings.GetString("output")
		if out == "" {
			out = defaultOutputDir
		}
		if !watch {
			return generateOnce(cmd.OutOrStdout(), args[0], out)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchAndGenerate(ctx, cmd.OutOrStdout(), args[0], out)
	},
}

func generateOnce(w io.Writer, path, out string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		var se *schemaError
		if errors.As(err, &se) {
			printSchemaErrors(w, se)
			return fmt.Errorf("%s is invalid", path)
		}
		return err
	}

	report := vsm.CheckViability(cfg)
	if n := report.CountBySeverity(vsm.SeverityCritical); n > 0 {
		fmt.Fprintf(w, "%s %d critical warning(s); run 'viableos check %s' for details\n", WarningPrefix, n, path)
	}

	dir, err := openclaw.GeneratePackage(cfg, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Package written to %s (%d agents, viability %d/%d)\n",
		SuccessPrefix, dir, len(cfg.ViableSystem.Units)+len(vsm.ManagementRoles), report.Score, report.Total)
	return nil
}

// watchAndGenerate generates once, then again after every change to path
// until ctx is done. The parent directory is watched so that editors which
// replace the file on save are still seen. Failed regenerations are reported
// and watching continues.
func watchAndGenerate(ctx context.Context, w io.Writer, path, out string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	regenerate := func() {
		if err := generateOnce(w, path, out); err != nil {
			fmt.Fprintf(w, "%s %v\n", ErrorPrefix, err)
		}
		fmt.Fprintln(w, Dim.Render("Watching "+path+" for changes... (Ctrl+C to exit)"))
	}
	regenerate()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			logrus.Debugf("change detected: %s", event)
			pending = time.After(debounceDelay)
		case <-pending:
			pending = nil
			regenerate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logrus.Warnf("watcher error: %v", err)
		}
	}
}

func init() {
	generateCmd.Flags().StringVarP(&outputDir, "output", "o", defaultOutputDir, "Output directory (env VIABLEOS_OUTPUT)")
	generateCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Regenerate whenever the document changes")
}
