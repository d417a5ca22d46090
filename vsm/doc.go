// Package vsm turns an organization document into the artifacts of a Viable
// System Model agent organization: a validation result, a viability report, a
// monthly budget plan with model routing, and coordination rules.
//
// # Reading Guide
//
// Start with these files to follow the pipeline:
//   - config.go: the document types, defaults and loading (YAML, TOML, JSON)
//   - schema.go: closed-world structural validation, errors as values
//   - budget.go: strategy presets, provider substitution, audit independence
//   - coordination.go: base rule synthesis, rule merging, the communication matrix
//   - checker.go: six role presence checks and the advisory warnings
//
// # Architecture
//
// Every pipeline function takes the config explicitly and holds no state
// between calls. Validate must pass before Decode; the later stages assume a
// valid document. Static data lives in plain tables:
//   - vsm/catalog/: model registry, provider equivalents, heartbeat and fallback models
//   - vsm/openclaw/: the package generator writing workspaces, manifest and install script
//
// starters.go holds the built-in starter organizations used by "viableos init".
package vsm
