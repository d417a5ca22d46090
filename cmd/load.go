package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/viableos/viableos/vsm"
)

// schemaError reports every structural problem of a document.
type schemaError struct {
	path   string
	errors []string
}

func (e *schemaError) Error() string {
	return fmt.Sprintf("%s has %d schema error(s):\n  %s", e.path, len(e.errors), strings.Join(e.errors, "\n  "))
}

// loadConfig reads, validates and decodes an organization document. Schema
// problems are returned as a *schemaError so callers can list all of them.
func loadConfig(path string) (*vsm.Config, error) {
	doc, err := vsm.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	if errs := vsm.Validate(doc); len(errs) > 0 {
		return nil, &schemaError{path: path, errors: errs}
	}
	cfg, err := vsm.Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cfg, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
