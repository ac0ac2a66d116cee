// Package scoring holds the pure parts of MetaScore: the fixed category set,
// the tier table, the streak rule and the metadata document. Nothing here
// touches storage.
package scoring

import "math"

// Category is one of the four fixed activity classifications.
type Category string

const (
	CategoryDeFi      Category = "defi"
	CategoryNFT       Category = "nft"
	CategorySocial    Category = "social"
	CategoryDeveloper Category = "developer"
)

// Categories lists every category in display order. Score arrays and
// metadata attributes always follow this order.
var Categories = [...]Category{CategoryDeFi, CategoryNFT, CategorySocial, CategoryDeveloper}

var categoryLabels = map[Category]string{
	CategoryDeFi:      "DeFi",
	CategoryNFT:       "NFT",
	CategorySocial:    "Social",
	CategoryDeveloper: "Developer",
}

// ParseCategory accepts only the exact lower-case category names.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := categoryLabels[c]; !ok {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Label returns the human readable name, e.g. "DeFi".
func (c Category) Label() string {
	return categoryLabels[c]
}

// Index returns the position of c in Categories, or -1.
func (c Category) Index() int {
	for i, v := range Categories {
		if v == c {
			return i
		}
	}
	return -1
}

// MaxScore caps every bucket and every total. Stores keep scores in signed
// 64-bit columns.
const MaxScore uint64 = math.MaxInt64

// Scores is a fixed-order view of one record's four category buckets.
type Scores [len(Categories)]uint64

// Get returns the bucket for c.
func (s Scores) Get(c Category) uint64 {
	if i := c.Index(); i >= 0 {
		return s[i]
	}
	return 0
}

// Total is the sum of all buckets. ok is false when the sum exceeds MaxScore.
func (s Scores) Total() (total uint64, ok bool) {
	for _, v := range s {
		next := total + v
		if next < total || next > MaxScore {
			return 0, false
		}
		total = next
	}
	return total, true
}

// CappedTotal is Total saturated at MaxScore.
func (s Scores) CappedTotal() uint64 {
	if total, ok := s.Total(); ok {
		return total
	}
	return MaxScore
}

// Map returns the buckets keyed by category name.
func (s Scores) Map() map[string]uint64 {
	out := make(map[string]uint64, len(Categories))
	for i, c := range Categories {
		out[string(c)] = s[i]
	}
	return out
}
