package chat

import "strings"

// PlanTable is the static plan-entitlement configuration: which
// subscription tiers may even purchase the romantic and intimate
// capabilities. Loaded once at process start.
//
// An empty capability list disables gating for that capability, which
// is how deployments without a plan concept run.
type PlanTable struct {
	romantic map[string]bool
	intimate map[string]bool
}

func NewPlanTable(romanticPlans, intimatePlans []string) *PlanTable {
	t := &PlanTable{
		romantic: make(map[string]bool, len(romanticPlans)),
		intimate: make(map[string]bool, len(intimatePlans)),
	}
	for _, p := range romanticPlans {
		t.romantic[normalizePlan(p)] = true
	}
	for _, p := range intimatePlans {
		t.intimate[normalizePlan(p)] = true
	}
	return t
}

func (t *PlanTable) AllowsRomantic(planName string) bool {
	if len(t.romantic) == 0 {
		return true
	}
	return t.romantic[normalizePlan(planName)]
}

func (t *PlanTable) AllowsIntimate(planName string) bool {
	if len(t.intimate) == 0 {
		return true
	}
	return t.intimate[normalizePlan(planName)]
}

func normalizePlan(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
