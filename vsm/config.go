package vsm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the decoded organization document.
type Config struct {
	ViableSystem System `yaml:"viable_system" json:"viable_system"`
}

// System holds every section of an organization. Optional sections decode to
// their zero value when absent; nil pointer fields mean "not set" and take the
// documented defaults.
type System struct {
	Name           string         `yaml:"name" json:"name"`
	Runtime        string         `yaml:"runtime,omitempty" json:"runtime,omitempty"`
	Identity       Identity       `yaml:"identity" json:"identity"`
	Units          []Unit         `yaml:"system_1" json:"system_1"`
	Coordination   Coordination   `yaml:"system_2,omitempty" json:"system_2,omitempty"`
	Optimization   Optimization   `yaml:"system_3,omitempty" json:"system_3,omitempty"`
	Audit          Audit          `yaml:"system_3_star,omitempty" json:"system_3_star,omitempty"`
	Intelligence   Intelligence   `yaml:"system_4,omitempty" json:"system_4,omitempty"`
	Budget         Budget         `yaml:"budget,omitempty" json:"budget,omitempty"`
	ModelRouting   ModelRouting   `yaml:"model_routing,omitempty" json:"model_routing,omitempty"`
	HumanInTheLoop HumanInTheLoop `yaml:"human_in_the_loop,omitempty" json:"human_in_the_loop,omitempty"`
	Persistence    *Persistence   `yaml:"persistence,omitempty" json:"persistence,omitempty"`
}

// Identity is the S5 section: why the organization exists and what it refuses to do.
type Identity struct {
	Purpose                 string   `yaml:"purpose" json:"purpose"`
	Values                  []string `yaml:"values,omitempty" json:"values,omitempty"`
	NeverDo                 []string `yaml:"never_do,omitempty" json:"never_do,omitempty"`
	DecisionsRequiringHuman []string `yaml:"decisions_requiring_human,omitempty" json:"decisions_requiring_human,omitempty"`
}

// Unit is one operational (S1) agent.
type Unit struct {
	Name     string   `yaml:"name" json:"name"`
	Purpose  string   `yaml:"purpose" json:"purpose"`
	Autonomy string   `yaml:"autonomy,omitempty" json:"autonomy,omitempty"`
	Tools    []string `yaml:"tools,omitempty" json:"tools,omitempty"`
	Model    string   `yaml:"model,omitempty" json:"model,omitempty"`
	Weight   *int     `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// Coordination is the S2 section.
type Coordination struct {
	Rules []Rule `yaml:"coordination_rules,omitempty" json:"coordination_rules,omitempty"`
}

// Rule is a coordination rule: when Trigger happens, do Action.
type Rule struct {
	Trigger string `yaml:"trigger" json:"trigger"`
	Action  string `yaml:"action" json:"action"`
	Scope   string `yaml:"scope,omitempty" json:"scope,omitempty"`
}

// Optimization is the S3 section.
type Optimization struct {
	ReportingRhythm    string `yaml:"reporting_rhythm,omitempty" json:"reporting_rhythm,omitempty"`
	ResourceAllocation string `yaml:"resource_allocation,omitempty" json:"resource_allocation,omitempty"`
}

// Audit is the S3* section.
type Audit struct {
	Schedule  string       `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	Checks    []AuditCheck `yaml:"checks,omitempty" json:"checks,omitempty"`
	OnFailure string       `yaml:"on_failure,omitempty" json:"on_failure,omitempty"`
}

// AuditCheck names something the auditor verifies and how.
type AuditCheck struct {
	Name   string `yaml:"name" json:"name"`
	Target string `yaml:"target" json:"target"`
	Method string `yaml:"method" json:"method"`
}

// Intelligence is the S4 section.
type Intelligence struct {
	Monitoring Monitoring `yaml:"monitoring,omitempty" json:"monitoring,omitempty"`
}

// Monitoring lists what the scout watches.
type Monitoring struct {
	Competitors []string `yaml:"competitors,omitempty" json:"competitors,omitempty"`
	Technology  []string `yaml:"technology,omitempty" json:"technology,omitempty"`
	Regulation  []string `yaml:"regulation,omitempty" json:"regulation,omitempty"`
}

// Budget holds monthly spend settings.
type Budget struct {
	MonthlyUSD *float64      `yaml:"monthly_usd,omitempty" json:"monthly_usd,omitempty"`
	Strategy   string        `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	Alerts     []BudgetAlert `yaml:"alerts,omitempty" json:"alerts,omitempty"`
}

// BudgetAlert fires Action once spend reaches AtPercent of the monthly budget.
type BudgetAlert struct {
	AtPercent int    `yaml:"at_percent" json:"at_percent"`
	Action    string `yaml:"action" json:"action"`
}

// ModelRouting holds the provider preference and explicit per-role models.
type ModelRouting struct {
	ProviderPreference string `yaml:"provider_preference,omitempty" json:"provider_preference,omitempty"`
	S1Routine          string `yaml:"s1_routine,omitempty" json:"s1_routine,omitempty"`
	S1Complex          string `yaml:"s1_complex,omitempty" json:"s1_complex,omitempty"`
	S2Coordination     string `yaml:"s2_coordination,omitempty" json:"s2_coordination,omitempty"`
	S3Optimization     string `yaml:"s3_optimization,omitempty" json:"s3_optimization,omitempty"`
	S3StarAudit        string `yaml:"s3_star_audit,omitempty" json:"s3_star_audit,omitempty"`
	S4Intelligence     string `yaml:"s4_intelligence,omitempty" json:"s4_intelligence,omitempty"`
	S5Preparation      string `yaml:"s5_preparation,omitempty" json:"s5_preparation,omitempty"`
}

// Override returns the explicit model configured for role, or "".
func (r ModelRouting) Override(role RoleKey) string {
	switch role {
	case RoleRoutine:
		return r.S1Routine
	case RoleComplex:
		return r.S1Complex
	case RoleCoordination:
		return r.S2Coordination
	case RoleOptimization:
		return r.S3Optimization
	case RoleAudit:
		return r.S3StarAudit
	case RoleIntelligence:
		return r.S4Intelligence
	case RolePolicy:
		return r.S5Preparation
	}
	return ""
}

// HumanInTheLoop describes how agents reach the operator.
type HumanInTheLoop struct {
	NotificationChannel string   `yaml:"notification_channel,omitempty" json:"notification_channel,omitempty"`
	ApprovalRequired    []string `yaml:"approval_required,omitempty" json:"approval_required,omitempty"`
	ReviewRequired      []string `yaml:"review_required,omitempty" json:"review_required,omitempty"`
	EmergencyAlerts     []string `yaml:"emergency_alerts,omitempty" json:"emergency_alerts,omitempty"`
}

// Channel returns the notification channel, defaulting to DefaultChannel.
func (h HumanInTheLoop) Channel() string {
	if h.NotificationChannel == "" {
		return DefaultChannel
	}
	return h.NotificationChannel
}

// Persistence selects how the external runtime keeps agent state.
type Persistence struct {
	Strategy string `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
}

// Defaults applied when a document leaves a field unset.
const (
	DefaultMonthlyUSD = 150.0
	DefaultStrategy   = "balanced"
	DefaultProvider   = "anthropic"
	DefaultWeight     = 5
	DefaultChannel    = "whatsapp"
	DefaultOnFailure  = "Escalate to human immediately"
	DefaultSystemName = "ViableOS System"
	PersistenceNone   = "none"
)

// ValidStrategies is the set of recognized budget strategies.
var ValidStrategies = map[string]bool{"frugal": true, "balanced": true, "performance": true}

// ValidProviders is the set of recognized provider preferences.
var ValidProviders = map[string]bool{
	"anthropic": true, "openai": true, "google": true, "deepseek": true,
	"xai": true, "meta": true, "mixed": true, "ollama": true,
}

// ValidRuntimes is the set of recognized agent runtimes.
var ValidRuntimes = map[string]bool{"openclaw": true, "langgraph": true, "crewai": true, "openai-agents": true, "cursor": true}

// ValidChannels is the set of recognized notification channels.
var ValidChannels = map[string]bool{"whatsapp": true, "telegram": true, "email": true, "slack": true, "discord": true}

// ValidPersistenceStrategies is the set of recognized persistence strategies.
var ValidPersistenceStrategies = map[string]bool{"sqlite": true, "file": true, "notion": true, "custom": true, "none": true}

// ValidAlertActions is the set of recognized budget alert actions.
var ValidAlertActions = map[string]bool{"notify": true, "downgrade_models": true, "pause_agents": true}

// Format is a serialization of an organization document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks a Format from a file extension. Unknown extensions are read as YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// LoadDocument reads an organization document from disk into a generic tree
// suitable for Validate.
func LoadDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading organization document: %w", err)
	}
	return ParseDocument(data, FormatFromPath(path))
}

// ParseDocument parses data into a generic tree. Every format normalizes to
// maps keyed by string, []any slices, int and float64 numbers.
func ParseDocument(data []byte, format Format) (map[string]any, error) {
	var raw map[string]any
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing toml document: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing json document: %w", err)
		}
	case FormatYAML, "":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing yaml document: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return normalize(raw).(map[string]any), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case int64:
		return int(t)
	case int32:
		return int(t)
	case uint64:
		if t <= math.MaxInt {
			return int(t)
		}
		return t
	case float32:
		return float64(t)
	default:
		return v
	}
}

// Decode converts a validated document tree into a Config. Unknown keys are
// rejected so a tree that skipped validation still cannot smuggle typos through.
func Decode(doc map[string]any) (*Config, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding organization document: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding organization document: %w", err)
	}
	return &cfg, nil
}

// Marshal renders cfg as a YAML organization document.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding organization document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding organization document: %w", err)
	}
	return buf.Bytes(), nil
}
