package format

import (
	"github.com/viableos/viableos/vsm"
)

// BudgetTable renders every allocation of plan with a total footer.
func BudgetTable(plan *vsm.BudgetPlan, m Mode) string {
	t := NewTable(m, "System", "Agent", "Model", "Monthly", "Share")
	for _, a := range plan.Allocations {
		t.Row(a.System, a.FriendlyName, a.Model, USD(a.MonthlyUSD), Percent(a.Percentage))
	}
	t.Footer("", "Total", "", USD(plan.Total()), "")
	t.AlignRight(4, 5)
	return t.String()
}

// RoutingTable renders the resolved role -> model table of plan.
func RoutingTable(plan *vsm.BudgetPlan, m Mode) string {
	t := NewTable(m, "Role", "Model")
	for _, role := range plan.SortedRoles() {
		t.Row(string(role), plan.Routing[role])
	}
	return t.String()
}

// RulesTable renders coordination rules as numbered When/Then rows. ASCII
// output truncates long cells to width.
func RulesTable(rules []vsm.Rule, m Mode, width int) string {
	t := NewTable(m, "#", "When", "Then")
	for i, r := range rules {
		when, then := r.Trigger, r.Action
		if m == ASCII && width > 0 {
			when, then = Truncate(when, width), Truncate(then, width)
		}
		t.Row(i+1, when, then)
	}
	t.AlignRight(1)
	return t.String()
}
