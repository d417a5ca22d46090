package catalog

// equivalents maps a preferred provider to the substitutions applied to preset
// models. Models without an entry are kept as-is.
var equivalents = map[string]map[string]string{
	"openai": {
		"anthropic/claude-haiku-4-5":  "openai/gpt-5-mini",
		"anthropic/claude-sonnet-4-6": "openai/gpt-5.1",
		"anthropic/claude-opus-4-6":   "openai/gpt-5.2",
	},
	"google": {
		"anthropic/claude-haiku-4-5":  "google/gemini-2.5-flash",
		"anthropic/claude-sonnet-4-6": "google/gemini-3-flash",
		"anthropic/claude-opus-4-6":   "google/gemini-3-pro",
		"openai/gpt-5-mini":           "google/gemini-2.5-flash",
		"openai/gpt-5.1":              "google/gemini-3-flash",
		"openai/gpt-5.2":              "google/gemini-3-pro",
	},
	"deepseek": {
		"anthropic/claude-haiku-4-5":  "deepseek/deepseek-v3.2",
		"anthropic/claude-sonnet-4-6": "deepseek/deepseek-v3.2",
		"anthropic/claude-opus-4-6":   "deepseek/deepseek-v3.2",
	},
	"xai": {
		"anthropic/claude-haiku-4-5":  "xai/grok-4",
		"anthropic/claude-sonnet-4-6": "xai/grok-4",
		"anthropic/claude-opus-4-6":   "xai/grok-4",
	},
	"meta": {
		"anthropic/claude-haiku-4-5":  "meta/llama-4",
		"anthropic/claude-sonnet-4-6": "meta/llama-4",
		"anthropic/claude-opus-4-6":   "meta/llama-4",
	},
	"ollama": {
		"anthropic/claude-haiku-4-5":  "ollama/llama-4",
		"anthropic/claude-sonnet-4-6": "ollama/llama-4",
		"anthropic/claude-opus-4-6":   "ollama/llama-4",
		"openai/gpt-5-mini":           "ollama/llama-4",
		"openai/gpt-5.1":              "ollama/mistral-large",
		"openai/gpt-5.2":              "ollama/deepseek-v3",
	},
}

// heartbeatByProvider is the cheapest sensible housekeeping model per provider.
var heartbeatByProvider = map[string]string{
	"anthropic": "anthropic/claude-haiku-4-5",
	"openai":    "openai/gpt-5-mini",
	"google":    "google/gemini-2.5-flash-lite",
	"ollama":    "ollama/llama-4",
}

// cheapest first; used when the provider has no distinct heartbeat model.
var heartbeatFallbacks = []string{
	"google/gemini-2.5-flash-lite",
	"openai/gpt-5-mini",
	"anthropic/claude-haiku-4-5",
}

// crossByTier lists well-supported models per tier, in preference order, used
// to pick a fallback from another provider.
var crossByTier = map[Tier][]string{
	TierPremium: {"anthropic/claude-opus-4-6", "openai/gpt-5.2", "google/gemini-3-pro"},
	TierHigh:    {"anthropic/claude-sonnet-4-6", "openai/gpt-5.1", "google/gemini-3-flash"},
	TierFast:    {"anthropic/claude-haiku-4-5", "openai/gpt-5-mini", "google/gemini-2.5-flash"},
	TierBudget:  {"google/gemini-2.5-flash-lite", "anthropic/claude-haiku-4-5"},
}

// Equivalent returns the model that stands in for model when provider is
// preferred. Unknown providers, "mixed" and models without a counterpart map
// to themselves.
func Equivalent(model, provider string) string {
	if sub, ok := equivalents[provider][model]; ok {
		return sub
	}
	return model
}

// HeartbeatModel returns a cheap model for periodic housekeeping runs of an
// agent whose primary model is primary. The result is never primary.
func HeartbeatModel(primary string) string {
	if hb, ok := heartbeatByProvider[ProviderOf(primary)]; ok && hb != primary {
		return hb
	}
	for _, hb := range heartbeatFallbacks {
		if hb != primary {
			return hb
		}
	}
	return ""
}

// FallbackChain returns one or two models to try when primary is
// unavailable: a same-provider model of the same tier when the catalog has
// one, then a model of comparable tier from a different provider. The chain
// never contains primary and always contains a different provider.
func FallbackChain(primary string) []string {
	provider := ProviderOf(primary)
	tier := TierOf(primary)

	var chain []string
	for _, id := range ForProvider(provider) {
		if id != primary && TierOf(id) == tier {
			chain = append(chain, id)
			break
		}
	}

	cross := crossByTier[tier]
	if len(cross) == 0 {
		cross = crossByTier[TierHigh]
	}
	for _, id := range cross {
		if ProviderOf(id) != provider {
			chain = append(chain, id)
			break
		}
	}
	return chain
}
