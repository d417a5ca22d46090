package vsm

import "fmt"

// Built-in starter organizations. Each returns a Config that passes Validate
// and can be customized from there.

// StarterInfo describes a starter organization for listings.
type StarterInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Tagline     string `json:"tagline"`
	Description string `json:"description"`
	Units       int    `json:"units"`
}

type starter struct {
	info  StarterInfo
	build func() *Config
}

var starters = []starter{
	{StarterInfo{Key: "custom", Name: "Start from Scratch", Tagline: "Build your own organization from zero",
		Description: "Define your own units, values, and structure"}, StarterCustom},
	{StarterInfo{Key: "saas-startup", Name: "SaaS Startup", Tagline: "Build, ship, and sell software",
		Description: "Product Development, Operations, Go-to-Market"}, StarterSaaS},
	{StarterInfo{Key: "ecommerce", Name: "E-Commerce", Tagline: "Source, sell, ship, support",
		Description: "Sourcing, Store, Fulfillment, Customer Service"}, StarterECommerce},
	{StarterInfo{Key: "freelance-agency", Name: "Freelance / Agency", Tagline: "Find clients, deliver, grow",
		Description: "Client Acquisition, Project Delivery, Knowledge"}, StarterAgency},
	{StarterInfo{Key: "content-creator", Name: "Content Creator", Tagline: "Create, distribute, monetize",
		Description: "Content Production, Community, Monetization"}, StarterCreator},
	{StarterInfo{Key: "personal-productivity", Name: "Personal Productivity", Tagline: "Focus on what matters",
		Description: "Deep Work, Admin, Learning"}, StarterProductivity},
}

// Starters lists the starter organizations in display order.
func Starters() []StarterInfo {
	out := make([]StarterInfo, len(starters))
	for i, s := range starters {
		out[i] = s.info
		out[i].Units = len(s.build().ViableSystem.Units)
	}
	return out
}

// Starter returns a fresh copy of the starter organization named key.
func Starter(key string) (*Config, error) {
	for _, s := range starters {
		if s.info.Key == key {
			return s.build(), nil
		}
	}
	return nil, fmt.Errorf("unknown starter %q", key)
}

func weight(w int) *int { return &w }

func usd(v float64) *float64 { return &v }

func defaultAlerts() []BudgetAlert {
	return []BudgetAlert{
		{AtPercent: 80, Action: "notify"},
		{AtPercent: 95, Action: "downgrade_models"},
	}
}

// StarterCustom is a minimal organization with a single placeholder unit.
func StarterCustom() *Config {
	return &Config{ViableSystem: System{
		Name:     "My Organization",
		Identity: Identity{Purpose: "Describe why this organization exists"},
		Units: []Unit{
			{Name: "Operations", Purpose: "Describe the core work this unit does"},
		},
	}}
}

// StarterSaaS is a three-unit software startup.
func StarterSaaS() *Config {
	return &Config{ViableSystem: System{
		Name:    "SaaS Startup",
		Runtime: "openclaw",
		Identity: Identity{
			Purpose: "Build and sell software that solves a real problem for small teams",
			Values:  []string{"Ship fast, fix fast", "User experience above technical elegance", "Data-driven decisions"},
			NeverDo: []string{"Delete production data", "Share API keys or credentials in outputs",
				"Send emails or messages without human approval"},
			DecisionsRequiringHuman: []string{"Pricing changes", "Hiring or team changes"},
		},
		Units: []Unit{
			{Name: "Product Development", Purpose: "Design, build and test product features",
				Autonomy: "Can prepare, but needs approval to execute",
				Tools:    []string{"github", "testing", "code-review", "ci-cd"}, Weight: weight(8)},
			{Name: "Operations", Purpose: "Keep the service running and deployments healthy",
				Autonomy: "Can act, but must report daily",
				Tools:    []string{"monitoring", "log-analysis", "deployment", "docker"}, Weight: weight(5)},
			{Name: "Go-to-Market", Purpose: "Find customers and grow revenue",
				Autonomy: "Can prepare, but needs approval to execute",
				Tools:    []string{"social-media", "copywriting", "crm", "web-analytics"}, Weight: weight(4)},
		},
		Coordination: Coordination{Rules: []Rule{
			{Trigger: "Product Development ships a feature", Action: "Go-to-Market prepares release notes and announcement"},
			{Trigger: "Operations detects an incident", Action: "Product Development pauses releases until resolved"},
		}},
		Optimization: Optimization{ReportingRhythm: "weekly", ResourceAllocation: "Product first, marketing second"},
		Audit: Audit{
			Schedule: "weekly",
			Checks: []AuditCheck{
				{Name: "Code quality", Target: "Product Development", Method: "Review merged changes against tests and style"},
				{Name: "Deployment safety", Target: "Operations", Method: "Compare deploy log with approved changes"},
			},
			OnFailure: DefaultOnFailure,
		},
		Intelligence: Intelligence{Monitoring: Monitoring{
			Competitors: []string{"Direct competitors' changelogs and pricing pages"},
			Technology:  []string{"Framework and cloud provider releases"},
		}},
		Budget: Budget{MonthlyUSD: usd(200), Strategy: "balanced", Alerts: defaultAlerts()},
		HumanInTheLoop: HumanInTheLoop{
			NotificationChannel: "slack",
			ApprovalRequired:    []string{"Deployments to production", "Pricing changes"},
			ReviewRequired:      []string{"Feature implementations"},
			EmergencyAlerts:     []string{"System downtime", "Security vulnerability"},
		},
		Persistence: &Persistence{Strategy: "sqlite"},
	}}
}

// StarterECommerce is a four-unit online store.
func StarterECommerce() *Config {
	return &Config{ViableSystem: System{
		Name:    "E-Commerce Store",
		Runtime: "openclaw",
		Identity: Identity{
			Purpose: "Sell quality products online with fast delivery and great support",
			Values:  []string{"Customer satisfaction above everything", "Transparency and honesty"},
			NeverDo: []string{"Make financial transactions autonomously", "Access customer personal information directly"},
		},
		Units: []Unit{
			{Name: "Sourcing", Purpose: "Find suppliers and manage purchasing",
				Tools: []string{"research", "email"}, Weight: weight(4)},
			{Name: "Store", Purpose: "Maintain listings, pricing and promotions",
				Tools: []string{"shopify-api", "pricing-tools", "seo-analysis"}, Weight: weight(6)},
			{Name: "Fulfillment", Purpose: "Ship orders and manage inventory",
				Tools: []string{"inventory"}, Weight: weight(5)},
			{Name: "Customer Service", Purpose: "Answer customer questions and handle returns",
				Tools: []string{"email", "chat"}, Weight: weight(5)},
		},
		Coordination: Coordination{Rules: []Rule{
			{Trigger: "Inventory for a listed product drops below 10 units", Action: "Store marks the product as low stock and Sourcing reorders"},
		}},
		Optimization: Optimization{ReportingRhythm: "daily"},
		Audit: Audit{Checks: []AuditCheck{
			{Name: "Pricing accuracy", Target: "Store", Method: "Sample listings and compare with price rules"},
			{Name: "Response quality", Target: "Customer Service", Method: "Review a sample of answered tickets"},
		}},
		Intelligence: Intelligence{Monitoring: Monitoring{
			Competitors: []string{"Marketplace competitors in our categories"},
			Regulation:  []string{"Consumer protection and returns law"},
		}},
		Budget: Budget{MonthlyUSD: usd(150), Strategy: "frugal", Alerts: defaultAlerts()},
		HumanInTheLoop: HumanInTheLoop{
			NotificationChannel: "whatsapp",
			ApprovalRequired:    []string{"Pricing changes", "New supplier or partner deals"},
			EmergencyAlerts:     []string{"Customer escalation"},
		},
		Persistence: &Persistence{Strategy: "file", Path: "./state"},
	}}
}

// StarterAgency is a three-unit freelance or agency business.
func StarterAgency() *Config {
	return &Config{ViableSystem: System{
		Name: "Freelance Agency",
		Identity: Identity{
			Purpose: "Deliver excellent client projects and build lasting relationships",
			Values:  []string{"Quality over quantity", "Reliability over features"},
			NeverDo: []string{"Send emails or messages without human approval"},
		},
		Units: []Unit{
			{Name: "Client Acquisition", Purpose: "Find leads and write proposals",
				Tools: []string{"crm", "lead-tracking", "outreach", "proposal-writing"}},
			{Name: "Project Delivery", Purpose: "Deliver client work on time and on scope",
				Tools: []string{"github", "writing", "editing"}, Weight: weight(7)},
			{Name: "Knowledge", Purpose: "Capture reusable templates and lessons learned",
				Tools: []string{"writing", "research"}, Weight: weight(2)},
		},
		Optimization: Optimization{ReportingRhythm: "weekly"},
		Audit: Audit{Checks: []AuditCheck{
			{Name: "Deliverable review", Target: "Project Delivery", Method: "Check deliverables against the client brief"},
		}},
		Budget: Budget{MonthlyUSD: usd(100), Strategy: "frugal", Alerts: defaultAlerts()[:1]},
		HumanInTheLoop: HumanInTheLoop{
			NotificationChannel: "email",
			ApprovalRequired:    []string{"Sending communications on my behalf"},
		},
		Persistence: &Persistence{Strategy: "file"},
	}}
}

// StarterCreator is a three-unit content business.
func StarterCreator() *Config {
	return &Config{ViableSystem: System{
		Name: "Content Studio",
		Identity: Identity{
			Purpose: "Create content that educates and entertains a loyal audience",
			Values:  []string{"Consistency builds trust", "Quality over quantity"},
			NeverDo: []string{"Publish without human review"},
		},
		Units: []Unit{
			{Name: "Content Production", Purpose: "Research, write and edit content",
				Tools: []string{"writing", "editing", "research", "image-generation"}, Weight: weight(7)},
			{Name: "Community", Purpose: "Engage with the audience across channels",
				Tools: []string{"social-media", "chat"}},
			{Name: "Monetization", Purpose: "Manage sponsorships and products",
				Tools: []string{"email-campaigns", "web-analytics"}, Weight: weight(3)},
		},
		Coordination: Coordination{Rules: []Rule{
			{Trigger: "Content Production schedules a new piece", Action: "Community prepares the announcement"},
		}},
		Intelligence: Intelligence{Monitoring: Monitoring{
			Technology: []string{"Platform algorithm changes"},
		}},
		Budget: Budget{MonthlyUSD: usd(80), Strategy: "frugal", Alerts: defaultAlerts()},
		HumanInTheLoop: HumanInTheLoop{
			NotificationChannel: "telegram",
			ApprovalRequired:    []string{"Publishing content"},
			ReviewRequired:      []string{"Content drafts"},
		},
	}}
}

// StarterProductivity is a three-unit personal setup.
func StarterProductivity() *Config {
	return &Config{ViableSystem: System{
		Name: "Personal Productivity",
		Identity: Identity{
			Purpose: "Protect focus time and keep life admin under control",
			Values:  []string{"Speed over perfection"},
		},
		Units: []Unit{
			{Name: "Deep Work", Purpose: "Plan and protect focused work blocks",
				Tools: []string{"writing", "research"}, Weight: weight(6)},
			{Name: "Admin", Purpose: "Handle email triage, scheduling and paperwork",
				Tools: []string{"email"}, Weight: weight(3)},
			{Name: "Learning", Purpose: "Curate reading and track learning goals",
				Tools: []string{"research"}, Weight: weight(2)},
		},
		Optimization: Optimization{ReportingRhythm: "weekly"},
		Budget:       Budget{MonthlyUSD: usd(50), Strategy: "frugal"},
		HumanInTheLoop: HumanInTheLoop{
			ApprovalRequired: []string{"Sending communications on my behalf"},
		},
	}}
}
