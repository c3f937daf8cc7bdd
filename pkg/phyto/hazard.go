// CLAUDE:SUMMARY CMR hazard classifier: static set of registration codes flagged carcinogenic, mutagenic or reprotoxic.
package phyto

import (
	"regexp"
	"sort"
	"strings"
)

// HazardSet flags registration codes classified CMR (carcinogenic, mutagenic,
// reprotoxic). Each code keeps the hazard statements that put it there.
type HazardSet struct {
	codes map[string][]string
}

// NewHazardSet builds a set from code -> hazard statements. Empty statement lists are allowed.
func NewHazardSet(codes map[string][]string) *HazardSet {
	h := &HazardSet{codes: make(map[string][]string, len(codes))}
	for code, statements := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		h.codes[code] = append([]string(nil), statements...)
	}
	return h
}

// IsHazardous reports whether code is flagged CMR.
func (h *HazardSet) IsHazardous(code string) bool {
	if h == nil {
		return false
	}
	_, ok := h.codes[strings.TrimSpace(code)]
	return ok
}

// Statements returns the hazard statements recorded for code.
func (h *HazardSet) Statements(code string) []string {
	if h == nil {
		return nil
	}
	return append([]string(nil), h.codes[strings.TrimSpace(code)]...)
}

// Count returns the number of flagged codes.
func (h *HazardSet) Count() int {
	if h == nil {
		return 0
	}
	return len(h.codes)
}

// AllCodes returns every flagged code, sorted.
func (h *HazardSet) AllCodes() []string {
	if h == nil {
		return nil
	}
	out := make([]string, 0, len(h.codes))
	for code := range h.codes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// cmrStatement matches the CLP hazard statements that classify a product CMR:
// H340/H341 mutagenic, H350/H351 carcinogenic, H360/H362 reprotoxic.
// Suffixes such as H350i or H360FD are kept.
var cmrStatement = regexp.MustCompile(`(?i)\bH3(?:40|41|50|51|60|62)[A-Za-z]{0,2}\b`)

// CMRStatements extracts the CMR hazard statements found in text, de-duplicated, with an upper-case H.
func CMRStatements(text string) []string {
	found := cmrStatement.FindAllString(text, -1)
	if len(found) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(found))
	out := make([]string, 0, len(found))
	for _, s := range found {
		s = "H" + s[1:4] + s[4:]
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
