package openclaw

import (
	"github.com/viableos/viableos/vsm"
	"github.com/viableos/viableos/vsm/catalog"
)

// ManifestFile is the runtime manifest at the package root.
const ManifestFile = "openclaw.json"

// ToolPolicy scopes the runtime tools an agent may call.
type ToolPolicy struct {
	Allow []string `json:"allow,omitempty"`
	Deny  []string `json:"deny,omitempty"`
}

// AgentEntry registers one agent with the runtime.
type AgentEntry struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Workspace      string      `json:"workspace"`
	Model          string      `json:"model"`
	Fallbacks      []string    `json:"fallbacks,omitempty"`
	HeartbeatModel string      `json:"heartbeat_model,omitempty"`
	Tools          *ToolPolicy `json:"tools,omitempty"`
}

// Binding routes a channel to an agent.
type Binding struct {
	AgentID string       `json:"agentId"`
	Match   BindingMatch `json:"match"`
}

// BindingMatch selects the inbound messages a Binding applies to.
type BindingMatch struct {
	Channel string `json:"channel"`
}

// AgentList wraps the agent entries.
type AgentList struct {
	List []AgentEntry `json:"list"`
}

// Manifest is the openclaw.json document.
type Manifest struct {
	Agents   AgentList `json:"agents"`
	Bindings []Binding `json:"bindings"`
	vsm.CommunicationMatrix
}

// Default tool policies of the management roles. The auditor's policy is
// fixed: read and session inspection only, writes always denied.
var managementTools = map[string]ToolPolicy{
	vsm.AgentCoordinator: {Allow: []string{"read", "sessions_list", "sessions_history", "sessions_send"}},
	vsm.AgentOptimizer:   {Allow: []string{"read", "write", "sessions_list", "sessions_history", "sessions_send"}},
	vsm.AgentAuditor: {
		Allow: []string{"read", "sessions_list", "sessions_history"},
		Deny:  []string{"write", "edit", "apply_patch"},
	},
	vsm.AgentScout:  {Allow: []string{"read", "web_search", "web_fetch", "sessions_send"}},
	vsm.AgentPolicy: {Allow: []string{"read", "sessions_list", "sessions_history"}},
}

// toolsFor returns a fresh copy of the tool policy of a management agent.
func toolsFor(agentID string) *ToolPolicy {
	p, ok := managementTools[agentID]
	if !ok {
		return nil
	}
	return &ToolPolicy{
		Allow: append([]string(nil), p.Allow...),
		Deny:  append([]string(nil), p.Deny...),
	}
}

func newAgentEntry(id, name, model string, tools *ToolPolicy) AgentEntry {
	e := AgentEntry{
		ID:        id,
		Name:      name,
		Workspace: vsm.WorkspaceRoot + "/" + id,
		Model:     model,
		Fallbacks: catalog.FallbackChain(model),
		Tools:     tools,
	}
	if hb := catalog.HeartbeatModel(model); hb != model {
		e.HeartbeatModel = hb
	}
	return e
}

// Agent returns the entry with id.
func (m *Manifest) Agent(id string) (AgentEntry, bool) {
	for _, a := range m.Agents.List {
		if a.ID == id {
			return a, true
		}
	}
	return AgentEntry{}, false
}
