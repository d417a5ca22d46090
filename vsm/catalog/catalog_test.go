package catalog

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_SortedAndComplete(t *testing.T) {
	ids := All()
	assert.Len(t, ids, 24)
	assert.True(t, sort.StringsAreSorted(ids), "model ids must be sorted")
}

func TestForProvider_FiltersByPrefix(t *testing.T) {
	ids := ForProvider("anthropic")
	require.NotEmpty(t, ids)
	for _, id := range ids {
		assert.Equal(t, "anthropic", ProviderOf(id))
	}
	assert.Contains(t, ids, "anthropic/claude-haiku-4-5")
	assert.Len(t, ForProvider("ollama"), 3)
}

func TestForProvider_MixedReturnsEverything(t *testing.T) {
	assert.Equal(t, All(), ForProvider(MixedProvider))
}

func TestForProvider_UnknownIsEmpty(t *testing.T) {
	assert.Empty(t, ForProvider("acme"))
}

func TestProviders_Distinct(t *testing.T) {
	assert.Equal(t,
		[]string{"anthropic", "deepseek", "google", "meta", "ollama", "openai", "xai"},
		Providers())
}

func TestLookup_KnownModel(t *testing.T) {
	m, ok := Lookup("openai/gpt-5.2")
	require.True(t, ok)
	assert.Equal(t, "openai", m.Provider)
	assert.Equal(t, TierPremium, m.Tier)
	assert.Equal(t, ReliabilityExcellent, m.Reliability)
	assert.Empty(t, m.Warning)
}

func TestLookup_CarriesWarning(t *testing.T) {
	m, ok := Lookup("ollama/llama-4")
	require.True(t, ok)
	assert.Equal(t, ReliabilityPoor, m.Reliability)
	assert.NotEmpty(t, m.Warning)
}

func TestLookup_Unknown(t *testing.T) {
	_, ok := Lookup("acme/brain-1")
	assert.False(t, ok)
}

func TestTierOf_UnknownDefaultsToHigh(t *testing.T) {
	assert.Equal(t, TierHigh, TierOf("acme/brain-1"))
	assert.Equal(t, "acme", ProviderOf("acme/brain-1"))
}

func TestTierRank_Ordering(t *testing.T) {
	assert.Less(t, TierRank(TierBudget), TierRank(TierFast))
	assert.Less(t, TierRank(TierFast), TierRank(TierHigh))
	assert.Less(t, TierRank(TierHigh), TierRank(TierPremium))
}

func TestWarningRegistry_OnlyCatalogModels(t *testing.T) {
	// Every caveat must describe a model the catalog knows about.
	for id := range warnings {
		_, ok := models[id]
		assert.True(t, ok, "warning registered for unknown model %s", id)
	}
}

func TestWarningRegistry_CoversFairAndPoor(t *testing.T) {
	for id, e := range models {
		if e.reliability == ReliabilityFair || e.reliability == ReliabilityPoor {
			_, ok := Warning(id)
			assert.True(t, ok, "%s is %s but has no warning", id, e.reliability)
		}
	}
}

func TestTiersAndLabels_ReturnCopies(t *testing.T) {
	tiers := Tiers()
	assert.Len(t, tiers, 4)
	tiers[TierPremium] = "changed"
	assert.NotEqual(t, "changed", Tiers()[TierPremium])

	labels := ReliabilityLabels()
	assert.Len(t, labels, 4)
}
