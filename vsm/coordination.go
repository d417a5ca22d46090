package vsm

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Agent ids of the management roles. S1 agents are "s1-<slug>".
const (
	AgentCoordinator = "s2-coordination"
	AgentOptimizer   = "s3-optimization"
	AgentAuditor     = "s3star-audit"
	AgentScout       = "s4-intelligence"
	AgentPolicy      = "s5-policy"
)

// unitPattern addresses every S1 agent in a communication allow list.
const unitPattern = "s1-*"

// WorkspaceRoot is the package-relative directory holding agent workspaces.
const WorkspaceRoot = "workspaces"

// foldLower lower-cases s. A Caser must not be shared between goroutines.
func foldLower(s string) string { return cases.Lower(language.Und).String(s) }

// Slug turns a display name into a single path element: lower-cased, "&"
// becomes "and", and every rune other than a letter, digit or "-" (spaces,
// dots, separators) becomes "-". Leading dots and dashes are trimmed.
func Slug(name string) string {
	s := strings.ReplaceAll(foldLower(name), "&", "and")
	s = strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, s)
	return strings.TrimLeft(s, ".-")
}

// UnitAgentID returns the agent id (and workspace directory) of an S1 unit.
func UnitAgentID(name string) string { return "s1-" + Slug(name) }

// UnitAgentIDs returns the agent ids of units, in order.
func UnitAgentIDs(units []Unit) []string {
	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = UnitAgentID(u.Name)
	}
	return ids
}

// GenerateBaseRules derives the baseline coordination rules for units: five
// organization-wide rules, one workspace rule per unit and one notification
// rule per unordered pair of units, 5 + N + N(N-1)/2 in total.
func GenerateBaseRules(units []Unit) []Rule {
	rules := []Rule{
		{
			Trigger: "Any agent repeats the same output or action 3+ times",
			Action:  "Stop execution, log the loop, and escalate to Coordinator",
		},
		{
			Trigger: "Agent attempts to create files outside its workspace directory",
			Action:  "Block the action and log a filesystem violation",
		},
		{
			Trigger: "Agent-to-agent communication needed",
			Action:  "Route through Coordinator using structured JSON, no direct free-text conversation between agents",
		},
		{
			Trigger: "Agent conversation exceeds 7 turns without resolution",
			Action:  "Summarize context, refresh identity from SOUL.md, start new session",
		},
		{
			Trigger: "Agent session history exceeds 10k tokens",
			Action:  "Summarize and compact history, do not let context grow unbounded",
		},
	}

	for _, u := range units {
		rules = append(rules, Rule{
			Trigger: fmt.Sprintf("%s needs to access another unit's workspace or data", u.Name),
			Action:  "Request via Coordinator, direct cross-workspace access is forbidden",
		})
	}

	for i := range units {
		for j := i + 1; j < len(units); j++ {
			a, b := units[i].Name, units[j].Name
			rules = append(rules, Rule{
				Trigger: fmt.Sprintf("%s makes changes that affect %s's domain", a, b),
				Action:  fmt.Sprintf("Coordinator notifies %s before changes are applied", b),
			})
		}
	}
	return rules
}

// MergeRules returns manual followed by every auto rule whose trigger does not
// overlap a manual trigger. Two triggers overlap when either contains the
// other, ignoring case.
func MergeRules(auto, manual []Rule) []Rule {
	var triggers []string
	for _, r := range manual {
		if t := foldLower(r.Trigger); t != "" {
			triggers = append(triggers, t)
		}
	}

	merged := make([]Rule, 0, len(manual)+len(auto))
	merged = append(merged, manual...)
	for _, r := range auto {
		t := foldLower(r.Trigger)
		covered := false
		for _, mt := range triggers {
			if strings.Contains(t, mt) || strings.Contains(mt, t) {
				covered = true
				break
			}
		}
		if !covered {
			merged = append(merged, r)
		}
	}
	return merged
}

// EffectiveRules merges the auto-generated rules for sys's units with its
// manual rules.
func EffectiveRules(sys *System) []Rule {
	return MergeRules(GenerateBaseRules(sys.Units), sys.Coordination.Rules)
}

// RulesMentioning returns the rules whose trigger or action names unit.
func RulesMentioning(rules []Rule, unit string) []Rule {
	needle := foldLower(unit)
	var out []Rule
	for _, r := range rules {
		if strings.Contains(foldLower(r.Trigger), needle) || strings.Contains(foldLower(r.Action), needle) {
			out = append(out, r)
		}
	}
	return out
}

// HasAntiLoopRule reports whether any trigger guards against repetition.
func HasAntiLoopRule(rules []Rule) bool {
	for _, r := range rules {
		t := foldLower(r.Trigger)
		if strings.Contains(t, "loop") || strings.Contains(t, "repeat") {
			return true
		}
	}
	return false
}

// IsolationDirective pins one unit to its workspace.
type IsolationDirective struct {
	Agent     string `json:"agent"`
	Workspace string `json:"workspace"`
	Rule      string `json:"rule"`
}

// WorkspaceIsolationRules returns one directive per unit.
func WorkspaceIsolationRules(units []Unit) []IsolationDirective {
	out := make([]IsolationDirective, 0, len(units))
	for _, u := range units {
		ws := WorkspaceRoot + "/" + UnitAgentID(u.Name)
		out = append(out, IsolationDirective{
			Agent:     u.Name,
			Workspace: ws,
			Rule:      fmt.Sprintf("%s operates ONLY in %s, no access to other agent directories", u.Name, ws),
		})
	}
	return out
}

// CommunicationMatrix says which agents may message which. It is serialized
// inline into the runtime manifest.
type CommunicationMatrix struct {
	AgentToAgent AgentToAgent `json:"agentToAgent"`
	Subagents    Subagents    `json:"subagents"`
}

// AgentToAgent is the per-agent allow list of message targets.
type AgentToAgent struct {
	Enabled bool                `json:"enabled"`
	Allow   map[string][]string `json:"allow"`
}

// Subagents lists the agents allowed to spawn subagents.
type Subagents struct {
	AllowAgents []string `json:"allowAgents"`
}

// NewCommunicationMatrix builds the fixed permission matrix: units talk only
// to the coordinator, the coordinator reaches everyone, the auditor reads
// units, and scout and policy guardian have a restricted peer set.
func NewCommunicationMatrix(unitAgentIDs []string) CommunicationMatrix {
	allow := map[string][]string{
		AgentCoordinator: {unitPattern, AgentOptimizer, AgentAuditor, AgentScout, AgentPolicy},
		AgentOptimizer:   {unitPattern, AgentCoordinator},
		AgentAuditor:     {unitPattern},
		AgentScout:       {AgentCoordinator, AgentPolicy},
		AgentPolicy:      {AgentCoordinator, AgentOptimizer, AgentScout},
	}
	for _, id := range unitAgentIDs {
		allow[id] = []string{AgentCoordinator}
	}
	return CommunicationMatrix{
		AgentToAgent: AgentToAgent{Enabled: true, Allow: allow},
		Subagents:    Subagents{AllowAgents: []string{AgentCoordinator, AgentOptimizer}},
	}
}

// CanMessage reports whether from may address to under m.
func (m CommunicationMatrix) CanMessage(from, to string) bool {
	for _, target := range m.AgentToAgent.Allow[from] {
		if target == to || (target == unitPattern && strings.HasPrefix(to, "s1-")) {
			return true
		}
	}
	return false
}
