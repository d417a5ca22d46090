// Package catalog is the static registry of language models an organization
// can route work to: provider, quality tier, agent reliability and known
// caveats, plus the provider-equivalence table used when a routing role has to
// honor a provider preference.
//
// Everything here is data. When models are released or retired, edit the
// tables; no logic depends on specific identifiers.
package catalog

import (
	"sort"
	"strings"
)

// Tier is a coarse quality/cost class.
type Tier string

const (
	TierPremium Tier = "premium"
	TierHigh    Tier = "high"
	TierFast    Tier = "fast"
	TierBudget  Tier = "budget"
)

// Reliability rates how dependably a model follows agent protocols
// (tool calls, structured output, staying in role).
type Reliability string

const (
	ReliabilityExcellent Reliability = "excellent"
	ReliabilityGood      Reliability = "good"
	ReliabilityFair      Reliability = "fair"
	ReliabilityPoor      Reliability = "poor"
)

// MixedProvider is the pseudo-provider meaning "all providers".
const MixedProvider = "mixed"

// Model describes one catalog entry.
type Model struct {
	ID          string      `json:"id"`
	Provider    string      `json:"provider"`
	Tier        Tier        `json:"tier"`
	Note        string      `json:"note"`
	Reliability Reliability `json:"agent_reliability"`
	Warning     string      `json:"warning,omitempty"`
}

type entry struct {
	tier        Tier
	note        string
	reliability Reliability
}

var models = map[string]entry{
	// Anthropic
	"anthropic/claude-opus-4-6":   {TierPremium, "Best reasoning + agents", ReliabilityExcellent},
	"anthropic/claude-sonnet-4-6": {TierHigh, "Best speed/quality balance", ReliabilityExcellent},
	"anthropic/claude-haiku-4-5":  {TierFast, "Fast, cheap, near-frontier", ReliabilityGood},
	"anthropic/claude-opus-4-5":   {TierPremium, "Previous gen top", ReliabilityExcellent},
	"anthropic/claude-sonnet-4-5": {TierHigh, "Previous gen high", ReliabilityExcellent},
	// OpenAI
	"openai/gpt-5.3-codex":       {TierPremium, "Best agentic coding model", ReliabilityExcellent},
	"openai/gpt-5.3-codex-spark": {TierHigh, "Ultra-fast coding, 1000+ tok/s", ReliabilityGood},
	"openai/gpt-5.2":             {TierPremium, "Latest flagship", ReliabilityExcellent},
	"openai/gpt-5.1":             {TierHigh, "Strong all-round", ReliabilityExcellent},
	"openai/gpt-5.1-codex":       {TierPremium, "Code-focused", ReliabilityGood},
	"openai/gpt-5-mini":          {TierFast, "Budget flagship", ReliabilityGood},
	"openai/gpt-5-codex-mini":    {TierFast, "Budget code model", ReliabilityFair},
	"openai/o3":                  {TierPremium, "Specialized reasoning", ReliabilityGood},
	// Google
	"google/gemini-3-pro":          {TierPremium, "Top-ranked overall", ReliabilityExcellent},
	"google/gemini-3-flash":        {TierHigh, "Fast + capable", ReliabilityGood},
	"google/gemini-2.5-pro":        {TierHigh, "Strong reasoning", ReliabilityGood},
	"google/gemini-2.5-flash":      {TierFast, "Budget, 1M context", ReliabilityGood},
	"google/gemini-2.5-flash-lite": {TierBudget, "Cheapest Gemini", ReliabilityFair},
	// DeepSeek
	"deepseek/deepseek-v3.2": {TierHigh, "Open source, competitive", ReliabilityFair},
	// xAI
	"xai/grok-4": {TierPremium, "256K context, fast", ReliabilityGood},
	// Meta
	"meta/llama-4": {TierHigh, "Open source, self-hostable", ReliabilityFair},
	// Ollama (local)
	"ollama/llama-4":       {TierHigh, "Local Llama 4", ReliabilityPoor},
	"ollama/mistral-large": {TierHigh, "Local Mistral", ReliabilityPoor},
	"ollama/deepseek-v3":   {TierHigh, "Local DeepSeek", ReliabilityPoor},
}

// warnings is the reliability-caveat registry. A model listed here triggers a
// viability warning whenever it is in active use.
var warnings = map[string]string{
	"openai/gpt-5-codex-mini":      "Frequently drops tool-call arguments in long agent sessions",
	"google/gemini-2.5-flash-lite": "Loses role instructions after a few turns; weak at structured output",
	"deepseek/deepseek-v3.2":       "Inconsistent tool-calling format; needs strict output validation",
	"meta/llama-4":                 "Tool-calling quality varies by host; test before production use",
	"ollama/llama-4":               "Local models often fail multi-step tool use and loop on errors",
	"ollama/mistral-large":         "Local models often fail multi-step tool use and loop on errors",
	"ollama/deepseek-v3":           "Local models often fail multi-step tool use and loop on errors",
}

var tierDescriptions = map[Tier]string{
	TierPremium: "Premium: best quality, highest cost",
	TierHigh:    "High: strong quality, moderate cost",
	TierFast:    "Fast: good quality, low cost",
	TierBudget:  "Budget: basic quality, minimal cost",
}

var reliabilityLabels = map[Reliability]string{
	ReliabilityExcellent: "Excellent: dependable tool use and role adherence",
	ReliabilityGood:      "Good: reliable for most agent work",
	ReliabilityFair:      "Fair: needs close supervision",
	ReliabilityPoor:      "Poor: not recommended for autonomous agents",
}

var tierRank = map[Tier]int{
	TierBudget:  0,
	TierFast:    1,
	TierHigh:    2,
	TierPremium: 3,
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Model, bool) {
	e, ok := models[id]
	if !ok {
		return Model{}, false
	}
	return Model{
		ID:          id,
		Provider:    ProviderOf(id),
		Tier:        e.tier,
		Note:        e.note,
		Reliability: e.reliability,
		Warning:     warnings[id],
	}, true
}

// All returns every model identifier, sorted.
func All() []string {
	ids := make([]string, 0, len(models))
	for id := range models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ForProvider returns the sorted model identifiers of one provider.
// MixedProvider returns every model.
func ForProvider(provider string) []string {
	if provider == MixedProvider {
		return All()
	}
	var ids []string
	for id := range models {
		if ProviderOf(id) == provider {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Providers returns the distinct providers present in the catalog, sorted.
func Providers() []string {
	seen := map[string]bool{}
	var out []string
	for id := range models {
		p := ProviderOf(id)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// ProviderOf returns the provider prefix of a model identifier
// ("anthropic/claude-haiku-4-5" -> "anthropic"). It works for identifiers
// that are not in the catalog.
func ProviderOf(id string) string {
	provider, _, _ := strings.Cut(id, "/")
	return provider
}

// TierOf returns the tier of id. Unknown models are treated as TierHigh.
func TierOf(id string) Tier {
	if e, ok := models[id]; ok {
		return e.tier
	}
	return TierHigh
}

// TierRank orders tiers from cheapest (0) to best (3).
func TierRank(t Tier) int {
	return tierRank[t]
}

// Warning returns the reliability caveat registered for id, if any.
func Warning(id string) (string, bool) {
	w, ok := warnings[id]
	return w, ok
}

// Tiers returns the human-readable tier descriptions.
func Tiers() map[Tier]string {
	out := make(map[Tier]string, len(tierDescriptions))
	for k, v := range tierDescriptions {
		out[k] = v
	}
	return out
}

// ReliabilityLabels returns the human-readable reliability descriptions.
func ReliabilityLabels() map[Reliability]string {
	out := make(map[Reliability]string, len(reliabilityLabels))
	for k, v := range reliabilityLabels {
		out[k] = v
	}
	return out
}
