package domain

import (
	"maps"
	"slices"
)

// PartyStat is the descriptive summary of one party's positions on one
// policy. All numeric fields are rounded by the analysis stage.
type PartyStat struct {
	Party   string  `json:"party"`
	Percent float64 `json:"percent"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	StdDev  float64 `json:"stdDev"`
}

// PolicyReport maps a policy label (including TotalLabel) to one PartyStat
// per party that contributed to it.
type PolicyReport map[string][]PartyStat

// Policies returns the policy labels of the report in sorted order.
func (r PolicyReport) Policies() []string {
	return slices.Sorted(maps.Keys(r))
}

// Find returns the statistics of party for policy, if present.
func (r PolicyReport) Find(policy, party string) (PartyStat, bool) {
	for _, stat := range r[policy] {
		if stat.Party == party {
			return stat, true
		}
	}
	return PartyStat{}, false
}
