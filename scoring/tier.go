package scoring

import (
	"fmt"
	"sort"
)

// Tier is one step of the reputation ladder.
type Tier struct {
	Index     int    `json:"tier"`
	Name      string `json:"name"`
	Threshold uint64 `json:"threshold"`
}

// TierTable is an ordered list of tiers with strictly increasing thresholds
// starting at 0.
type TierTable struct {
	tiers []Tier
}

// DefaultTiers is the Bronze..Diamond ladder.
var DefaultTiers = MustTierTable(
	Tier{Name: "Bronze", Threshold: 0},
	Tier{Name: "Silver", Threshold: 50},
	Tier{Name: "Gold", Threshold: 150},
	Tier{Name: "Platinum", Threshold: 300},
	Tier{Name: "Diamond", Threshold: 500},
)

// NewTierTable validates the thresholds and assigns indexes.
func NewTierTable(tiers ...Tier) (TierTable, error) {
	if len(tiers) == 0 {
		return TierTable{}, fmt.Errorf("tier table is empty")
	}
	if tiers[0].Threshold != 0 {
		return TierTable{}, fmt.Errorf("first tier threshold must be 0, got %d", tiers[0].Threshold)
	}
	out := make([]Tier, len(tiers))
	for i, t := range tiers {
		if i > 0 && t.Threshold <= tiers[i-1].Threshold {
			return TierTable{}, fmt.Errorf("tier %q threshold %d is not above %d", t.Name, t.Threshold, tiers[i-1].Threshold)
		}
		t.Index = i
		out[i] = t
	}
	return TierTable{tiers: out}, nil
}

// MustTierTable is NewTierTable for package-level tables.
func MustTierTable(tiers ...Tier) TierTable {
	t, err := NewTierTable(tiers...)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of tiers.
func (t TierTable) Len() int { return len(t.tiers) }

// Tiers returns a copy of the table.
func (t TierTable) Tiers() []Tier {
	return append([]Tier(nil), t.tiers...)
}

// Resolve returns the highest index whose threshold is <= total. A score
// equal to a threshold belongs to that tier.
func (t TierTable) Resolve(total uint64) int {
	// first tier whose threshold exceeds total, minus one
	i := sort.Search(len(t.tiers), func(i int) bool { return t.tiers[i].Threshold > total })
	return i - 1
}

// Tier returns the tier at index i, clamped to the table bounds.
func (t TierTable) Tier(i int) Tier {
	if i < 0 {
		i = 0
	}
	if i >= len(t.tiers) {
		i = len(t.tiers) - 1
	}
	return t.tiers[i]
}

// Progress describes how far a score is from the next tier.
type Progress struct {
	Current       Tier    `json:"current"`
	Next          *Tier   `json:"next,omitempty"`
	PointsToNext  uint64  `json:"points_to_next"`
	PercentToNext float64 `json:"percent_to_next"`
}

// Progress returns the current tier and the distance to the next one. At the
// top tier Next is nil and PercentToNext is 100.
func (t TierTable) Progress(total uint64) Progress {
	cur := t.Tier(t.Resolve(total))
	if cur.Index == len(t.tiers)-1 {
		return Progress{Current: cur, PercentToNext: 100}
	}
	next := t.tiers[cur.Index+1]
	span := next.Threshold - cur.Threshold
	return Progress{
		Current:       cur,
		Next:          &next,
		PointsToNext:  next.Threshold - total,
		PercentToNext: float64(total-cur.Threshold) / float64(span) * 100,
	}
}
