package openclaw

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/viableos/viableos/internal/format"
	"github.com/viableos/viableos/vsm"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("openclaw").Funcs(template.FuncMap{
	"bullets": bullets,
	"join":    strings.Join,
	"usd":     format.USD,
	"phase":   func(name string, a AgentEntry) agentPhase { return agentPhase{Phase: name, Agent: a} },
	"shquote": shquote,
	"oneline": oneline,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Per-agent documents written into every workspace.
var (
	roleDocs   = []string{"SOUL.md", "SKILL.md", "HEARTBEAT.md"}
	commonDocs = []string{"USER.md", "MEMORY.md", "AGENTS.md"}
)

type rosterEntry struct {
	Name    string
	Role    string
	Purpose string
}

type agentPhase struct {
	Phase string
	Agent AgentEntry
}

// docData feeds every workspace and shared template. Fields that do not
// apply to a role stay zero.
type docData struct {
	Org          *vsm.System
	Plan         *vsm.BudgetPlan
	Roster       []rosterEntry
	Units        []string
	Channel      string
	BudgetTable  string
	RoutingTable string

	Agent          string
	AgentID        string
	Role           string
	Workspace      string
	MessageTypes   string
	Model          string
	ComplexModel   string
	HeartbeatModel string
	Allocation     float64

	Unit      *vsm.Unit
	Peers     []string
	Rules     []vsm.Rule
	Isolation []vsm.IsolationDirective
	Sources   []string
	OnFailure string
}

type installData struct {
	Name                   string
	Phase1, Phase2, Phase3 []AgentEntry
	FirstUnit              AgentEntry
	Coordinator            string
	Total                  int
}

func bullets(items []string) string {
	if len(items) == 0 {
		return "- (none defined)"
	}
	return "- " + strings.Join(items, "\n- ")
}

// shquote quotes s as a single shell word.
func shquote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// oneline folds line breaks so s fits in a shell comment.
func oneline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// roleKind maps an agent id to its template prefix: "s1", "s2", "s3",
// "s3star", "s4" or "s5".
func roleKind(agentID string) string {
	kind, _, _ := strings.Cut(agentID, "-")
	return kind
}

// messageTypes lists the structured message types each role sends.
var messageTypes = map[string]string{
	"s1":     "status|request|alert",
	"s2":     "info|request|mediation",
	"s3":     "status|request|alert|report",
	"s3star": "audit_finding|alert|report",
	"s4":     "intelligence|alert|brief",
	"s5":     "policy|decision_request|reminder",
}
