package collections

import (
	"sort"
)

// Gap is one underrepresented tag in a roster relative to a reference
// distribution.
type Gap struct {
	Tag            string  `json:"tag"`
	ReferenceShare float64 `json:"reference_share"`
	RosterShare    float64 `json:"roster_share"`
	Deficit        float64 `json:"deficit"`
}

// RosterGaps identifies tags underrepresented in the roster relative to the
// reference population (typically the whole tracked catalog), ranked by
// deficit descending. Tags the roster covers at or above the reference
// share are omitted.
func (a *Analyzer) RosterGaps(roster, reference []Profile) []Gap {
	refShares := tagShares(reference)
	rosterShares := tagShares(roster)

	gaps := make([]Gap, 0, len(refShares))
	for tag, refShare := range refShares {
		deficit := refShare - rosterShares[tag]
		if deficit <= 0 {
			continue
		}
		gaps = append(gaps, Gap{
			Tag:            tag,
			ReferenceShare: refShare,
			RosterShare:    rosterShares[tag],
			Deficit:        deficit,
		})
	}

	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Deficit != gaps[j].Deficit {
			return gaps[i].Deficit > gaps[j].Deficit
		}
		return gaps[i].Tag < gaps[j].Tag
	})
	return gaps
}
