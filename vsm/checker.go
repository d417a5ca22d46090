package vsm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/viableos/viableos/vsm/catalog"
)

// Severity grades a Warning.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Warning categories.
const (
	CategoryTokenBudget  = "Token Budget"
	CategoryModel        = "Model Warning"
	CategoryPersistence  = "Persistence"
	CategorySecurity     = "Security"
	CategoryCoordination = "Coordination"
	CategoryRollout      = "Rollout"
)

// SensitiveTools are tool identifiers that call for independent audit.
var SensitiveTools = map[string]bool{
	"ssh": true, "deployment": true, "docker": true,
	"payment-processing": true, "customer-data": true, "database": true,
}

// CheckResult is the outcome of one VSM role presence check.
type CheckResult struct {
	System      string   `json:"system"`
	Name        string   `json:"name"`
	Present     bool     `json:"present"`
	Details     string   `json:"details"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Warning is an advisory finding. Warnings never block generation.
type Warning struct {
	Category   string   `json:"category"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion"`
}

// ViabilityReport scores an organization against the six VSM roles.
type ViabilityReport struct {
	Score    int           `json:"score"`
	Total    int           `json:"total"`
	Checks   []CheckResult `json:"checks"`
	Warnings []Warning     `json:"warnings"`
}

// Viable reports whether every role is present.
func (r *ViabilityReport) Viable() bool { return r.Score == r.Total }

// CountBySeverity returns how many warnings have severity s.
func (r *ViabilityReport) CountBySeverity(s Severity) int {
	n := 0
	for _, w := range r.Warnings {
		if w.Severity == s {
			n++
		}
	}
	return n
}

// CheckViability runs the six presence checks and the advisory heuristics.
// The score counts present roles only; warnings never change it.
func CheckViability(cfg *Config) *ViabilityReport {
	sys := &cfg.ViableSystem
	checks := []CheckResult{
		checkOperations(sys),
		checkCoordination(sys),
		checkOptimization(sys),
		checkAudit(sys),
		checkIntelligence(sys),
		checkIdentity(sys),
	}
	score := 0
	for _, c := range checks {
		if c.Present {
			score++
		}
	}

	var warnings []Warning
	warnings = append(warnings, tokenBudgetWarnings(sys)...)
	warnings = append(warnings, modelWarnings(sys)...)
	warnings = append(warnings, persistenceWarnings(sys)...)
	warnings = append(warnings, securityWarnings(sys)...)
	warnings = append(warnings, coordinationWarnings(sys)...)
	warnings = append(warnings, rolloutWarnings(sys)...)

	return &ViabilityReport{Score: score, Total: len(checks), Checks: checks, Warnings: warnings}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return cases.Upper(language.Und).String(string(r)) + foldLower(s[size:])
}

func checkOperations(sys *System) CheckResult {
	c := CheckResult{System: "S1", Name: "Operations"}
	if len(sys.Units) == 0 {
		c.Details = "No operational units defined"
		c.Suggestions = []string{"Define at least one operational unit"}
		return c
	}
	names := make([]string, len(sys.Units))
	for i, u := range sys.Units {
		names[i] = u.Name
	}
	c.Present = true
	c.Details = fmt.Sprintf("%s: %s", plural(len(names), "unit"), strings.Join(names, ", "))
	return c
}

func checkCoordination(sys *System) CheckResult {
	c := CheckResult{System: "S2", Name: "Coordination"}
	n := len(sys.Coordination.Rules)
	if n == 0 {
		c.Details = "No coordination rules defined"
		c.Suggestions = []string{"Add coordination rules to prevent agent conflicts"}
		return c
	}
	c.Present = true
	c.Details = plural(n, "rule") + " defined"
	return c
}

func checkOptimization(sys *System) CheckResult {
	c := CheckResult{System: "S3", Name: "Optimization"}
	opt := sys.Optimization
	var parts []string
	if opt.ReportingRhythm != "" {
		parts = append(parts, capitalize(opt.ReportingRhythm)+" reporting")
	}
	if opt.ResourceAllocation != "" {
		parts = append(parts, "resource allocation set")
	}
	if len(parts) == 0 {
		c.Details = "No optimization configuration defined"
		c.Suggestions = []string{"Add resource allocation or reporting rhythm"}
		return c
	}
	c.Present = true
	c.Details = strings.Join(parts, ", ")
	return c
}

func checkAudit(sys *System) CheckResult {
	c := CheckResult{System: "S3*", Name: "Audit"}
	checks := sys.Audit.Checks
	if len(checks) == 0 {
		c.Details = "No audit checks defined"
		c.Suggestions = []string{"Add audit checks, don't trust agent self-reports"}
		return c
	}
	names := make([]string, len(checks))
	for i, ac := range checks {
		names[i] = ac.Name
	}
	c.Present = true
	c.Details = fmt.Sprintf("%s: %s", plural(len(names), "check"), strings.Join(names, ", "))
	return c
}

func checkIntelligence(sys *System) CheckResult {
	c := CheckResult{System: "S4", Name: "Intelligence"}
	m := sys.Intelligence.Monitoring
	var fields []string
	if len(m.Competitors) > 0 {
		fields = append(fields, "competitors")
	}
	if len(m.Technology) > 0 {
		fields = append(fields, "technology")
	}
	if len(m.Regulation) > 0 {
		fields = append(fields, "regulation")
	}
	if len(fields) == 0 {
		c.Details = "No environment monitoring defined"
		c.Suggestions = []string{"Add environment monitoring (competitors, technology, regulation)"}
		return c
	}
	c.Present = true
	c.Details = "Monitoring: " + strings.Join(fields, ", ")
	return c
}

func checkIdentity(sys *System) CheckResult {
	c := CheckResult{System: "S5", Name: "Identity"}
	purpose := strings.TrimSpace(sys.Identity.Purpose)
	if purpose == "" {
		c.Details = "No purpose defined"
		c.Suggestions = []string{"Define your system's purpose and values"}
		return c
	}
	c.Present = true
	c.Details = `Purpose: "` + purpose + `"`
	return c
}

func tokenBudgetWarnings(sys *System) []Warning {
	b := sys.Budget
	if b.MonthlyUSD == nil || *b.MonthlyUSD == 0 {
		return []Warning{{
			Category:   CategoryTokenBudget,
			Severity:   SeverityCritical,
			Message:    "No token budget defined. Without limits, costs can spiral out of control.",
			Suggestion: "Set a monthly budget. Even $50/month with the 'frugal' strategy is better than nothing.",
		}}
	}
	if len(b.Alerts) == 0 {
		return []Warning{{
			Category:   CategoryTokenBudget,
			Severity:   SeverityWarning,
			Message:    "Budget set but no alerts configured. You won't know when you're overspending.",
			Suggestion: "Add budget alerts (e.g. notify at 80%, downgrade models at 95%).",
		}}
	}
	return nil
}

func modelWarnings(sys *System) []Warning {
	inUse := map[string]bool{}
	for _, u := range sys.Units {
		if u.Model != "" {
			inUse[u.Model] = true
		}
	}
	for _, m := range resolveRouting(sys, sys.Budget.EffectiveStrategy()) {
		inUse[m] = true
	}

	var out []Warning
	for _, id := range sortedKeys(inUse) {
		caveat, ok := catalog.Warning(id)
		if !ok {
			continue
		}
		out = append(out, Warning{
			Category:   CategoryModel,
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("%s: %s", id, caveat),
			Suggestion: "Consider switching to a model with 'excellent' agent reliability for production use.",
		})
	}
	return out
}

func persistenceWarnings(sys *System) []Warning {
	p := sys.Persistence
	if p != nil && p.Strategy != "" && p.Strategy != PersistenceNone {
		return nil
	}
	return []Warning{{
		Category:   CategoryPersistence,
		Severity:   SeverityWarning,
		Message:    "No persistence strategy defined. Agent state is lost when sessions end.",
		Suggestion: "Configure persistence (sqlite or file) so agents can resume work across sessions.",
	}}
}

func securityWarnings(sys *System) []Warning {
	var out []Warning
	hasAudit := len(sys.Audit.Checks) > 0

	var exposed []string
	for _, u := range sys.Units {
		var tools []string
		for _, t := range u.Tools {
			if SensitiveTools[t] {
				tools = append(tools, t)
			}
		}
		if len(tools) > 0 {
			exposed = append(exposed, fmt.Sprintf("%s (%s)", u.Name, strings.Join(tools, ", ")))
		}
	}
	if len(exposed) > 0 && !hasAudit {
		out = append(out, Warning{
			Category:   CategorySecurity,
			Severity:   SeverityCritical,
			Message:    "Agents with sensitive tools but NO S3* Audit: " + strings.Join(exposed, ", "),
			Suggestion: "Add audit checks. Agents with sensitive tool access need independent verification.",
		})
	}

	// Only explicitly pinned models count here. Preset routing never keeps the
	// auditor on the routine provider.
	routine, audit := sys.ModelRouting.Override(RoleRoutine), sys.ModelRouting.Override(RoleAudit)
	provider := catalog.ProviderOf(routine)
	if hasAudit && routine != "" && audit != "" && provider == catalog.ProviderOf(audit) {
		out = append(out, Warning{
			Category:   CategorySecurity,
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("S1 and S3* Auditor use the same provider (%s). Correlated errors are likely.", provider),
			Suggestion: "Use a different provider for the Auditor to catch hallucinations the S1 models miss.",
		})
	}

	if len(sys.Identity.NeverDo) == 0 {
		out = append(out, Warning{
			Category:   CategorySecurity,
			Severity:   SeverityInfo,
			Message:    "No 'never do' boundaries defined for agents.",
			Suggestion: "Define what agents should NEVER do (e.g. 'delete production data', 'send emails without approval').",
		})
	}
	return out
}

func coordinationWarnings(sys *System) []Warning {
	var out []Warning
	auto := GenerateBaseRules(sys.Units)
	manual := sys.Coordination.Rules

	if len(sys.Units) >= 2 && len(manual) == 0 {
		out = append(out, Warning{
			Category: CategoryCoordination,
			Severity: SeverityInfo,
			Message: fmt.Sprintf("You have %d units with no custom coordination rules. Auto-generated rules (%d) will be used.",
				len(sys.Units), len(auto)),
			Suggestion: "Consider adding custom rules specific to your workflow in addition to the auto-generated base rules.",
		})
	}

	if !HasAntiLoopRule(MergeRules(auto, manual)) {
		out = append(out, Warning{
			Category:   CategoryCoordination,
			Severity:   SeverityWarning,
			Message:    "No anti-looping rule found. Agents commonly get stuck repeating the same output.",
			Suggestion: "Add a rule: 'Agent repeats output 3+ times -> stop and escalate'.",
		})
	}
	return out
}

func rolloutWarnings(sys *System) []Warning {
	var out []Warning
	if len(sys.Units) > 3 && len(sys.Coordination.Rules) == 0 {
		out = append(out, Warning{
			Category:   CategoryRollout,
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("You're starting with %d agents at once. Community experience: start with 1-2.", len(sys.Units)),
			Suggestion: "Consider starting with your most important unit, get it working end-to-end, then add more.",
		})
	}
	if len(sys.HumanInTheLoop.ApprovalRequired) == 0 {
		out = append(out, Warning{
			Category:   CategoryRollout,
			Severity:   SeverityWarning,
			Message:    "No human-in-the-loop approvals configured.",
			Suggestion: "Define which actions need your approval. Start strict, loosen as you build trust.",
		})
	}
	return out
}
