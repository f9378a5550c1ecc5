package privesc

import (
	"fmt"

	"github.com/MKlolbullen/bhtriage/internal/model"
)

// tierGroup lists the rights that belong to one tier.
type tierGroup struct {
	tier   model.Tier
	rights []string
}

var defaultTierGroups = []tierGroup{
	{model.TierCritical, []string{
		model.RightAdminTo,
		model.RightGenericAll,
		model.RightGenericWrite,
		model.RightWriteOwner,
		model.RightWriteDacl,
		model.RightAddMember,
		model.RightForceChangePassword,
		model.RightAllExtendedRights,
	}},
	{model.TierHigh, []string{
		model.RightMemberOf,
		model.RightAllowedToDelegate,
		model.RightAllowedToAct,
	}},
	{model.TierMedium, []string{
		model.RightHasSession,
		model.RightContains,
	}},
	{model.TierLow, []string{
		model.RightOwns,
	}},
}

// tierByRight is checked at init: a right in two groups aborts startup.
var tierByRight = mustTierTable(defaultTierGroups)

func newTierTable(groups []tierGroup) (map[string]model.Tier, error) {
	table := make(map[string]model.Tier)
	for _, g := range groups {
		if !g.tier.IsValid() {
			return nil, fmt.Errorf("invalid tier %q", g.tier)
		}
		for _, r := range g.rights {
			if prev, dup := table[r]; dup {
				return nil, fmt.Errorf("right %s assigned to both %s and %s", r, prev, g.tier)
			}
			table[r] = g.tier
		}
	}
	return table, nil
}

func mustTierTable(groups []tierGroup) map[string]model.Tier {
	table, err := newTierTable(groups)
	if err != nil {
		panic("privesc: " + err.Error())
	}
	return table
}

// TierFor returns the tier of right; unmapped rights are low.
func TierFor(right string) model.Tier {
	if t, ok := tierByRight[right]; ok {
		return t
	}
	return model.TierLow
}

// DestIsPrivileged reports whether e's destination resolves to a privileged entity.
func DestIsPrivileged(ix *model.Index, e model.Edge) bool {
	dest, ok := ix.Get(e.DestID)
	return ok && IsPrivileged(dest)
}

// Level buckets edges by tier. Edges into an already privileged principal
// are dropped and counted in suppressed.
func Level(ix *model.Index, edges []model.Edge) (tiers model.Tiers, suppressed int) {
	for _, e := range edges {
		if DestIsPrivileged(ix, e) {
			suppressed++
			continue
		}
		tiers.Add(TierFor(e.Right), e)
	}
	return tiers, suppressed
}
