package scoring

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Snapshot is the ledger state a metadata document is derived from.
type Snapshot struct {
	RecordID   uint64
	Owner      string
	TotalScore uint64
	StreakDays uint64
	Tier       int
	Scores     Scores
}

// Attribute is an ERC-721 style trait.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// Metadata is the self-contained document served for a record.
type Metadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	RecordID    uint64      `json:"record_id"`
	Owner       string      `json:"owner"`
	TotalScore  uint64      `json:"total_score"`
	Tier        int         `json:"tier"`
	TierName    string      `json:"tier_name"`
	Attributes  []Attribute `json:"attributes"`
}

const tokenURIPrefix = "data:application/json;base64,"

// BuildMetadata derives the document from s. It reads nothing else, so equal
// snapshots always give equal documents.
func BuildMetadata(tiers TierTable, s Snapshot) Metadata {
	tier := tiers.Tier(s.Tier)
	attrs := make([]Attribute, 0, 4+len(Categories))
	attrs = append(attrs,
		Attribute{TraitType: "Total Score", Value: s.TotalScore},
		Attribute{TraitType: "Tier", Value: tier.Name},
		Attribute{TraitType: "Tier Level", Value: tier.Index},
		Attribute{TraitType: "Streak Days", Value: s.StreakDays},
	)
	for i, c := range Categories {
		attrs = append(attrs, Attribute{TraitType: c.Label() + " Score", Value: s.Scores[i]})
	}
	return Metadata{
		Name:        fmt.Sprintf("MetaScore #%d", s.RecordID),
		Description: "Soulbound achievement record that evolves with on-chain activity.",
		RecordID:    s.RecordID,
		Owner:       s.Owner,
		TotalScore:  s.TotalScore,
		Tier:        tier.Index,
		TierName:    tier.Name,
		Attributes:  attrs,
	}
}

// EncodeMetadata renders the document as JSON.
func EncodeMetadata(tiers TierTable, s Snapshot) ([]byte, error) {
	return json.Marshal(BuildMetadata(tiers, s))
}

// TokenURI renders the document as a base64 JSON data URI.
func TokenURI(tiers TierTable, s Snapshot) (string, error) {
	b, err := EncodeMetadata(tiers, s)
	if err != nil {
		return "", err
	}
	return tokenURIPrefix + base64.StdEncoding.EncodeToString(b), nil
}

// DecodeTokenURI reverses TokenURI.
func DecodeTokenURI(uri string) (*Metadata, error) {
	if len(uri) < len(tokenURIPrefix) || uri[:len(tokenURIPrefix)] != tokenURIPrefix {
		return nil, fmt.Errorf("unsupported token uri")
	}
	raw, err := base64.StdEncoding.DecodeString(uri[len(tokenURIPrefix):])
	if err != nil {
		return nil, fmt.Errorf("decode token uri: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &m, nil
}
