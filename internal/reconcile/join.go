package reconcile

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/thekada/revenue-engine/internal/commission"
)

var foldCaser = cases.Fold()

// normalizeName prepares a zone or city name for the soft join: surrounding
// whitespace trimmed, case folded.
func normalizeName(s string) string {
	return foldCaser.String(strings.TrimSpace(s))
}

// Join combines per-zone order aggregates with franchise assignments by zone
// id equality. A zone without an approved assignment is costed at the free
// tier; the join itself never fails.
func Join(stats []OrderAggregate, assignments []FranchiseAssignment) []CompanyRevenueFigure {
	byZone := make(map[int64]FranchiseAssignment, len(assignments))
	for _, a := range assignments {
		if _, seen := byZone[a.ZoneID]; !seen {
			byZone[a.ZoneID] = a
		}
	}

	figures := make([]CompanyRevenueFigure, 0, len(stats))
	for _, agg := range stats {
		tier := commission.TierFree
		if a, ok := byZone[agg.ZoneID]; ok {
			tier = a.PlanTier
		}
		figures = append(figures, CompanyRevenueFigure{
			ZoneID:               agg.ZoneID,
			PlanTier:             tier,
			PeriodKey:            agg.PeriodKey,
			DeliveredOrderCount:  agg.DeliveredOrderCount,
			AdminCommissionTotal: agg.AdminCommissionTotal,
			CompanyShare:         commission.CompanyShare(tier, agg.AdminCommissionTotal, agg.DeliveredOrderCount),
		})
	}
	return figures
}

// BestEffortMatch finds the assignment whose city equals the zone name under
// trim-and-fold normalization. The stores share no foreign key, so this is a
// display-level convenience only: the first match in candidate order wins,
// which keeps repeated joins over identical input deterministic.
func BestEffortMatch(zoneName string, candidates []FranchiseAssignment) (FranchiseAssignment, bool) {
	want := normalizeName(zoneName)
	if want == "" {
		return FranchiseAssignment{}, false
	}
	for _, c := range candidates {
		if normalizeName(c.City) == want {
			return c, true
		}
	}
	return FranchiseAssignment{}, false
}
