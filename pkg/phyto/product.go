// CLAUDE:SUMMARY Product record, regulatory status, match types and the dataset payload shape consumed by the index.
package phyto

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the regulatory status of a product.
type Status string

const (
	StatusAuthorized Status = "AUTHORIZED"
	StatusRetired    Status = "RETIRED"
	StatusUnknown    Status = "UNKNOWN"
)

// ParseStatus maps a raw catalogue status ("Autorisé", "RETIRE", "AUTHORIZED"...) to a Status.
// Anything unrecognised is StatusUnknown.
func ParseStatus(raw string) Status {
	s := strings.ToUpper(NormalizeName(raw))
	switch {
	case strings.Contains(s, "AUTORISE"), strings.Contains(s, "AUTHORIZED"):
		return StatusAuthorized
	case strings.Contains(s, "RETIRE"), strings.Contains(s, "RETIRED"):
		return StatusRetired
	default:
		return StatusUnknown
	}
}

// UnmarshalJSON accepts the legacy "NOT_FOUND" value as StatusUnknown.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	switch Status(raw) {
	case StatusAuthorized, StatusRetired, StatusUnknown:
		*s = Status(raw)
	case "NOT_FOUND", "":
		*s = StatusUnknown
	default:
		*s = ParseStatus(raw)
	}
	return nil
}

// Product is one registered plant-protection product. Treat as immutable once indexed.
type Product struct {
	Code           string   `json:"amm"`
	Name           string   `json:"name"`
	SecondaryNames []string `json:"secondaryNames,omitempty"`
	Status         Status   `json:"status"`
	WithdrawalDate *string  `json:"withdrawal_date"`
	Substances     string   `json:"substances"`
	Function       string   `json:"function"`
	Formulation    string   `json:"formulation"`
	Holder         string   `json:"holder"`
}

// valid reports whether the record carries the fields the index needs.
func (p *Product) valid() bool {
	return p != nil && strings.TrimSpace(p.Code) != "" && strings.TrimSpace(p.Name) != ""
}

// MatchType is the confidence tier of a search result.
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchPartial MatchType = "partial"
	MatchFuzzy   MatchType = "fuzzy"
)

// Precedence orders match types: exact > partial > fuzzy.
func (m MatchType) Precedence() int {
	switch m {
	case MatchExact:
		return 3
	case MatchPartial:
		return 2
	case MatchFuzzy:
		return 1
	default:
		return 0
	}
}

// SearchResult is one ranked candidate returned by Resolve.
type SearchResult struct {
	Product     *Product  `json:"product"`
	MatchType   MatchType `json:"matchType"`
	MatchedName string    `json:"matchedName,omitempty"`
}

// DatasetIndex is the pre-built index section of a dataset payload.
type DatasetIndex struct {
	ByAMM  map[string]*Product   `json:"by_amm"`
	ByName map[string][]*Product `json:"by_name"`
}

// Dataset is the decompressed, parsed registry payload handed to NewIndex.
type Dataset struct {
	Version  string       `json:"version"`
	Total    int          `json:"total"`
	Products []*Product   `json:"products"`
	Index    DatasetIndex `json:"index"`
}
