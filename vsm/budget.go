package vsm

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/viableos/viableos/vsm/catalog"
)

// RoleKey names one of the seven model routing slots.
type RoleKey string

const (
	RoleRoutine      RoleKey = "s1_routine"
	RoleComplex      RoleKey = "s1_complex"
	RoleCoordination RoleKey = "s2_coordination"
	RoleOptimization RoleKey = "s3_optimization"
	RoleAudit        RoleKey = "s3_star_audit"
	RoleIntelligence RoleKey = "s4_intelligence"
	RolePolicy       RoleKey = "s5_preparation"
)

// RoleKeys lists the routing slots in canonical order.
var RoleKeys = []RoleKey{
	RoleRoutine, RoleComplex, RoleCoordination, RoleOptimization,
	RoleAudit, RoleIntelligence, RolePolicy,
}

// OperationalShare is the fraction of the monthly budget split among S1 units.
const OperationalShare = 0.65

// ManagementRole describes one of the five fixed, non-operational agents.
type ManagementRole struct {
	System  string  // "S2", "S3", "S3*", "S4", "S5"
	Name    string  // friendly display name
	Title   string  // role label used in agent rosters
	Purpose string  // one-line purpose used in agent rosters
	AgentID string  // workspace slug and runtime id
	Routing RoleKey // routing slot supplying the model
	Share   float64 // fixed fraction of the monthly budget
}

// ManagementRoles lists the management agents in allocation order.
var ManagementRoles = []ManagementRole{
	{"S2", "Coordinator", "Coordination (S2)", "Prevent conflicts between units", AgentCoordinator, RoleCoordination, 0.05},
	{"S3", "Optimizer", "Optimization (S3)", "Allocate resources, weekly digest", AgentOptimizer, RoleOptimization, 0.12},
	{"S3*", "Auditor", "Audit (S3*)", "Independent quality verification", AgentAuditor, RoleAudit, 0.05},
	{"S4", "Scout", "Intelligence (S4)", "Monitor environment, strategic briefs", AgentScout, RoleIntelligence, 0.10},
	{"S5", "Policy Guardian", "Identity (S5)", "Enforce values and policies", AgentPolicy, RolePolicy, 0.03},
}

// OperationsTitle is the roster role label for S1 units.
const OperationsTitle = "Operations (S1)"

// Presets maps each strategy to its role -> model assignment. All presets are
// written against the default provider; provider preference is applied on top.
var Presets = map[string]map[RoleKey]string{
	"frugal": {
		RoleRoutine:      "anthropic/claude-haiku-4-5",
		RoleComplex:      "anthropic/claude-haiku-4-5",
		RoleCoordination: "anthropic/claude-haiku-4-5",
		RoleOptimization: "anthropic/claude-haiku-4-5",
		RoleAudit:        "openai/gpt-5-mini",
		RoleIntelligence: "anthropic/claude-sonnet-4-6",
		RolePolicy:       "anthropic/claude-haiku-4-5",
	},
	"balanced": {
		RoleRoutine:      "anthropic/claude-haiku-4-5",
		RoleComplex:      "anthropic/claude-sonnet-4-6",
		RoleCoordination: "anthropic/claude-haiku-4-5",
		RoleOptimization: "anthropic/claude-sonnet-4-6",
		RoleAudit:        "openai/gpt-5.1",
		RoleIntelligence: "anthropic/claude-opus-4-6",
		RolePolicy:       "anthropic/claude-sonnet-4-6",
	},
	"performance": {
		RoleRoutine:      "anthropic/claude-sonnet-4-6",
		RoleComplex:      "anthropic/claude-opus-4-6",
		RoleCoordination: "anthropic/claude-sonnet-4-6",
		RoleOptimization: "anthropic/claude-opus-4-6",
		RoleAudit:        "openai/gpt-5.2",
		RoleIntelligence: "google/gemini-3-pro",
		RolePolicy:       "anthropic/claude-opus-4-6",
	},
}

// auditAlternatives picks the auditor's model when it would otherwise share a
// provider with routine operations. Keyed by the routine provider.
var auditAlternatives = map[string]string{
	"anthropic": "openai/gpt-5.1",
	"openai":    "anthropic/claude-sonnet-4-6",
	"google":    "anthropic/claude-sonnet-4-6",
}

const defaultAuditAlternative = "openai/gpt-5.1"

// Allocation is one row of a BudgetPlan.
type Allocation struct {
	System       string  `json:"system"`
	FriendlyName string  `json:"friendly_name"`
	MonthlyUSD   float64 `json:"monthly_usd"`
	Model        string  `json:"model"`
	Percentage   float64 `json:"percentage"`
}

// BudgetPlan is the monthly spend and model assignment for an organization.
type BudgetPlan struct {
	TotalMonthlyUSD float64            `json:"total_monthly_usd"`
	Strategy        string             `json:"strategy"`
	Allocations     []Allocation       `json:"allocations"`
	Routing         map[RoleKey]string `json:"model_routing"`
}

// Allocation returns the row for system ("S2", "S1:<unit name>", ...).
func (p *BudgetPlan) Allocation(system string) (Allocation, bool) {
	for _, a := range p.Allocations {
		if a.System == system {
			return a, true
		}
	}
	return Allocation{}, false
}

// Total sums the rounded allocation amounts.
func (p *BudgetPlan) Total() float64 {
	var sum float64
	for _, a := range p.Allocations {
		sum += a.MonthlyUSD
	}
	return sum
}

// ModelsInUse returns the distinct models referenced by the plan, sorted.
func (p *BudgetPlan) ModelsInUse() []string {
	seen := map[string]bool{}
	for _, m := range p.Routing {
		seen[m] = true
	}
	for _, a := range p.Allocations {
		seen[a.Model] = true
	}
	return sortedKeys(seen)
}

// UnitSystem is the allocation label of an S1 unit.
func UnitSystem(name string) string { return "S1:" + name }

// MonthlyBudget returns the configured monthly budget or DefaultMonthlyUSD.
func (b Budget) MonthlyBudget() float64 {
	if b.MonthlyUSD == nil {
		return DefaultMonthlyUSD
	}
	return *b.MonthlyUSD
}

// EffectiveStrategy returns the strategy that will be applied. Unknown names
// fall back to DefaultStrategy.
func (b Budget) EffectiveStrategy() string {
	if b.Strategy == "" {
		return DefaultStrategy
	}
	if _, ok := Presets[b.Strategy]; !ok {
		logrus.Warnf("unknown budget strategy %q, using %q", b.Strategy, DefaultStrategy)
		return DefaultStrategy
	}
	return b.Strategy
}

// Provider returns the provider preference or DefaultProvider.
func (r ModelRouting) Provider() string {
	if r.ProviderPreference == "" {
		return DefaultProvider
	}
	return r.ProviderPreference
}

// UnitWeight returns u's weight clamped to 1..10, DefaultWeight when unset.
func UnitWeight(u Unit) int {
	if u.Weight == nil {
		return DefaultWeight
	}
	w := *u.Weight
	if w < 1 {
		return 1
	}
	if w > 10 {
		return 10
	}
	return w
}

// resolveRouting builds the role -> model table for sys. The auditor is moved
// off the routine provider if the two collide.
func resolveRouting(sys *System, strategy string) map[RoleKey]string {
	preset := Presets[strategy]
	provider := sys.ModelRouting.Provider()

	routing := make(map[RoleKey]string, len(RoleKeys))
	for _, role := range RoleKeys {
		if explicit := sys.ModelRouting.Override(role); explicit != "" {
			routing[role] = explicit
			continue
		}
		model := catalog.Equivalent(preset[role], provider)
		if model != preset[role] {
			logrus.Debugf("routing %s: %s -> %s for provider %s", role, preset[role], model, provider)
		}
		routing[role] = model
	}

	routineProvider := catalog.ProviderOf(routing[RoleRoutine])
	if catalog.ProviderOf(routing[RoleAudit]) == routineProvider {
		alt, ok := auditAlternatives[routineProvider]
		if !ok {
			alt = defaultAuditAlternative
		}
		logrus.Infof("auditor model %s shares provider %s with routine operations, using %s",
			routing[RoleAudit], routineProvider, alt)
		routing[RoleAudit] = alt
	}
	return routing
}

// CalculateBudget computes the monthly allocation for every agent and the
// resolved model routing table. Missing settings take their defaults; cfg is
// assumed to have passed Validate.
func CalculateBudget(cfg *Config) *BudgetPlan {
	sys := &cfg.ViableSystem
	monthly := sys.Budget.MonthlyBudget()
	strategy := sys.Budget.EffectiveStrategy()
	routing := resolveRouting(sys, strategy)

	weights := make([]int, len(sys.Units))
	totalWeight := 0
	for i, u := range sys.Units {
		weights[i] = UnitWeight(u)
		totalWeight += weights[i]
	}
	if totalWeight == 0 {
		totalWeight = DefaultWeight
	}

	plan := &BudgetPlan{
		TotalMonthlyUSD: monthly,
		Strategy:        strategy,
		Routing:         routing,
	}

	pool := monthly * OperationalShare
	for i, u := range sys.Units {
		fraction := float64(weights[i]) / float64(totalWeight)
		model := u.Model
		if model == "" {
			model = routing[RoleRoutine]
		}
		plan.Allocations = append(plan.Allocations, Allocation{
			System:       UnitSystem(u.Name),
			FriendlyName: u.Name,
			MonthlyUSD:   round(pool*fraction, 2),
			Model:        model,
			Percentage:   round(OperationalShare*fraction*100, 1),
		})
	}

	for _, role := range ManagementRoles {
		plan.Allocations = append(plan.Allocations, Allocation{
			System:       role.System,
			FriendlyName: role.Name,
			MonthlyUSD:   round(monthly*role.Share, 2),
			Model:        routing[role.Routing],
			Percentage:   round(role.Share*100, 1),
		})
	}
	return plan
}

// SortedRoles returns the routing keys of p in canonical order.
func (p *BudgetPlan) SortedRoles() []RoleKey {
	var roles []RoleKey
	for _, r := range RoleKeys {
		if _, ok := p.Routing[r]; ok {
			roles = append(roles, r)
		}
	}
	return roles
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
