package vsm

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedUnits(names ...string) []Unit {
	units := make([]Unit, len(names))
	for i, n := range names {
		units[i] = Unit{Name: n, Purpose: "p"}
	}
	return units
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Dev":                 "dev",
		"Product Development": "product-development",
		"R&D":                 "randd",
		"Customer Service":    "customer-service",
		"ÜBER Team":           "über-team",
		"x/../../../escaped":  "x----------escaped",
		"../Ops":              "ops",
		"Billing\\Ops":        "billing-ops",
		"Q3 v2.0":             "q3-v2-0",
		"-Dash":               "dash",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
	assert.Equal(t, "s1-go-to-market", UnitAgentID("Go-to-Market"))
}

func TestSlug_SinglePathElement(t *testing.T) {
	for _, name := range []string{"x/../../../escaped", "..", "a/b", `a\b`, ".hidden", "Ops $(rm -rf ~)"} {
		slug := Slug(name)
		assert.NotContains(t, slug, "/", name)
		assert.NotContains(t, slug, `\`, name)
		assert.NotContains(t, slug, ".", name)
		assert.False(t, strings.HasPrefix(slug, "-"), name)
	}
}

func TestGenerateBaseRules_Count(t *testing.T) {
	for n := 0; n <= 8; n++ {
		t.Run(fmt.Sprintf("%d units", n), func(t *testing.T) {
			var names []string
			for i := 0; i < n; i++ {
				names = append(names, fmt.Sprintf("Unit %d", i))
			}
			rules := GenerateBaseRules(namedUnits(names...))
			assert.Len(t, rules, 5+n+n*(n-1)/2)
		})
	}
}

func TestGenerateBaseRules_Deterministic(t *testing.T) {
	units := namedUnits("Dev", "Sales", "Ops")
	if diff := cmp.Diff(GenerateBaseRules(units), GenerateBaseRules(units)); diff != "" {
		t.Errorf("GenerateBaseRules not deterministic (-first +second):\n%s", diff)
	}
}

func TestGenerateBaseRules_Content(t *testing.T) {
	// GIVEN two units
	rules := GenerateBaseRules(namedUnits("Dev", "Sales"))

	// THEN the base set guards loops and workspaces
	assert.True(t, HasAntiLoopRule(rules))
	require.Len(t, rules, 8)
	assert.Equal(t, "Dev needs to access another unit's workspace or data", rules[5].Trigger)
	assert.Equal(t, "Sales needs to access another unit's workspace or data", rules[6].Trigger)

	// AND the pair rule notifies the second unit
	want := Rule{
		Trigger: "Dev makes changes that affect Sales's domain",
		Action:  "Coordinator notifies Sales before changes are applied",
	}
	if diff := cmp.Diff(want, rules[7]); diff != "" {
		t.Errorf("pair rule mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeRules_ManualOverridesOverlappingAuto(t *testing.T) {
	// GIVEN a manual rule whose trigger is contained in an auto trigger
	auto := GenerateBaseRules(namedUnits("Dev", "Sales"))
	manual := []Rule{{Trigger: "REPEATS THE SAME OUTPUT", Action: "Page the on-call human"}}

	// WHEN merged
	merged := MergeRules(auto, manual)

	// THEN the manual action wins and the auto rule is dropped
	assert.Equal(t, manual[0], merged[0])
	assert.Len(t, merged, len(auto))
	for _, r := range merged {
		if strings.Contains(strings.ToLower(r.Trigger), "repeats the same output") {
			assert.Equal(t, "Page the on-call human", r.Action)
		}
	}
}

func TestMergeRules_ManualContainingAutoTrigger(t *testing.T) {
	auto := []Rule{{Trigger: "Agent-to-agent communication needed", Action: "auto"}}
	manual := []Rule{{Trigger: "Urgent agent-to-agent communication needed now", Action: "manual"}}

	merged := MergeRules(auto, manual)

	assert.Equal(t, manual, merged)
}

func TestMergeRules_NonOverlappingAppendedInOrder(t *testing.T) {
	auto := []Rule{{Trigger: "a1", Action: "x"}, {Trigger: "a2", Action: "y"}}
	manual := []Rule{{Trigger: "m2", Action: "q"}, {Trigger: "m1", Action: "p"}}

	merged := MergeRules(auto, manual)

	want := []Rule{manual[0], manual[1], auto[0], auto[1]}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("MergeRules mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeRules_Idempotent(t *testing.T) {
	auto := GenerateBaseRules(namedUnits("Dev", "Sales", "Ops"))
	manual := []Rule{
		{Trigger: "Dev deploys", Action: "Notify Sales"},
		{Trigger: "Session history exceeds 10k tokens", Action: "Archive"},
	}

	once := MergeRules(auto, manual)
	twice := MergeRules(once, manual)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("MergeRules not idempotent (-once +twice):\n%s", diff)
	}
}

func TestMergeRules_EmptyManualTriggerIgnored(t *testing.T) {
	auto := []Rule{{Trigger: "a", Action: "x"}}
	merged := MergeRules(auto, []Rule{{Trigger: "", Action: "noop"}})
	assert.Len(t, merged, 2)
}

func TestEffectiveRules(t *testing.T) {
	sys := &System{Units: namedUnits("Dev"), Coordination: Coordination{Rules: []Rule{{Trigger: "Dev deploys", Action: "Tell ops"}}}}

	rules := EffectiveRules(sys)

	assert.Equal(t, "Dev deploys", rules[0].Trigger)
	assert.Len(t, rules, 1+5+1)
}

func TestRulesMentioning(t *testing.T) {
	rules := GenerateBaseRules(namedUnits("Dev", "Sales", "Ops"))

	got := RulesMentioning(rules, "sales")

	// workspace rule + Dev/Sales pair + Sales/Ops pair
	assert.Len(t, got, 3)
}

func TestHasAntiLoopRule(t *testing.T) {
	assert.False(t, HasAntiLoopRule(nil))
	assert.True(t, HasAntiLoopRule([]Rule{{Trigger: "Stuck in a LOOP"}}))
	assert.False(t, HasAntiLoopRule([]Rule{{Trigger: "Dev deploys", Action: "stop the loop"}}))
}

func TestWorkspaceIsolationRules(t *testing.T) {
	got := WorkspaceIsolationRules(namedUnits("Product Development"))

	want := []IsolationDirective{{
		Agent:     "Product Development",
		Workspace: "workspaces/s1-product-development",
		Rule:      "Product Development operates ONLY in workspaces/s1-product-development, no access to other agent directories",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WorkspaceIsolationRules mismatch (-want +got):\n%s", diff)
	}
}

func TestCommunicationMatrix(t *testing.T) {
	// GIVEN two units
	m := NewCommunicationMatrix([]string{"s1-dev", "s1-sales"})

	// THEN units only reach the coordinator
	assert.True(t, m.CanMessage("s1-dev", AgentCoordinator))
	assert.False(t, m.CanMessage("s1-dev", "s1-sales"))
	assert.False(t, m.CanMessage("s1-dev", AgentOptimizer))

	// AND the coordinator reaches everyone
	for _, to := range []string{"s1-dev", "s1-sales", AgentOptimizer, AgentAuditor, AgentScout, AgentPolicy} {
		assert.True(t, m.CanMessage(AgentCoordinator, to), to)
	}

	// AND the auditor only reads units
	assert.True(t, m.CanMessage(AgentAuditor, "s1-sales"))
	assert.False(t, m.CanMessage(AgentAuditor, AgentCoordinator))

	// AND scout and policy guardian have a restricted peer set
	assert.False(t, m.CanMessage(AgentScout, "s1-dev"))
	assert.True(t, m.CanMessage(AgentScout, AgentPolicy))
	assert.False(t, m.CanMessage(AgentPolicy, "s1-dev"))
	assert.True(t, m.CanMessage(AgentPolicy, AgentScout))

	assert.Equal(t, []string{AgentCoordinator, AgentOptimizer}, m.Subagents.AllowAgents)
	assert.True(t, m.AgentToAgent.Enabled)
	assert.Len(t, m.AgentToAgent.Allow, 7)
}
