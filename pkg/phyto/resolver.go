// CLAUDE:SUMMARY Four-stage product resolution (alias, exact, partial, bounded fuzzy) producing ranked, code-deduplicated results.
package phyto

import (
	"sort"
	"strings"
)

// MatchConfig holds the result caps and fuzzy bounds of the resolver.
type MatchConfig struct {
	// MaxResults caps the result list; the partial stage stops once reached.
	MaxResults int `yaml:"max_results"`
	// FuzzyTrigger: the fuzzy stage only runs with fewer results than this.
	FuzzyTrigger int `yaml:"fuzzy_trigger"`
	// FuzzyLimit caps the number of fuzzy results appended.
	FuzzyLimit int `yaml:"fuzzy_limit"`

	Fuzzy FuzzyThresholds `yaml:",inline"`
}

// DefaultMatchConfig returns 10 results, fuzzy below 5 results, at most 5 fuzzy hits.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		MaxResults:   10,
		FuzzyTrigger: 5,
		FuzzyLimit:   5,
		Fuzzy:        DefaultFuzzyThresholds(),
	}
}

// withDefaults returns DefaultMatchConfig for the zero MatchConfig. Otherwise
// fields are taken as given: a zero FuzzyTrigger, FuzzyLimit or MaxDistance
// switches the fuzzy stage off. Only a non-positive MaxResults is defaulted,
// and negative values count as zero.
func (c MatchConfig) withDefaults() MatchConfig {
	if c == (MatchConfig{}) {
		return DefaultMatchConfig()
	}
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMatchConfig().MaxResults
	}
	c.FuzzyTrigger = max(c.FuzzyTrigger, 0)
	c.FuzzyLimit = max(c.FuzzyLimit, 0)
	c.Fuzzy.MaxDistance = max(c.Fuzzy.MaxDistance, 0)
	c.Fuzzy.DistanceRatio = max(c.Fuzzy.DistanceRatio, 0)
	c.Fuzzy.LengthRatio = max(c.Fuzzy.LengthRatio, 0)
	return c
}

// Resolver runs the match pipeline over one index and alias table.
type Resolver struct {
	index   *Index
	aliases *AliasTable
	cfg     MatchConfig
}

// NewResolver binds a resolver to an index. aliases may be nil.
func NewResolver(index *Index, aliases *AliasTable, cfg MatchConfig) *Resolver {
	if index == nil {
		index = EmptyIndex()
	}
	return &Resolver{index: index, aliases: aliases, cfg: cfg.withDefaults()}
}

// collector accumulates results, keeping each code once at its first (best) match type.
type collector struct {
	results []SearchResult
	seen    map[string]bool
}

func (c *collector) add(p *Product, mt MatchType, matchedName string) {
	if c.seen[p.Code] {
		return
	}
	c.seen[p.Code] = true
	c.results = append(c.results, SearchResult{Product: p, MatchType: mt, MatchedName: matchedName})
}

type fuzzyCandidate struct {
	product  *Product
	distance int
	name     string
}

// Resolve turns a free-text query into ranked candidates: alias, then exact,
// partial and fuzzy name matches. Results are ordered exact > partial > fuzzy,
// fuzzy by ascending distance, each code at most once, capped at MaxResults.
// The result is never nil. An alias hit reports the query, trimmed of
// surrounding spaces, as MatchedName.
func (r *Resolver) Resolve(query string) []SearchResult {
	q := NormalizeName(query)
	if q == "" {
		return []SearchResult{}
	}

	// An alias hit is authoritative and short-circuits every other stage.
	if code, ok := r.aliases.Resolve(query); ok {
		if p, ok := r.index.LookupByCode(code); ok {
			return []SearchResult{{Product: p, MatchType: MatchExact, MatchedName: strings.TrimSpace(query)}}
		}
	}

	c := &collector{
		results: make([]SearchResult, 0, r.cfg.MaxResults),
		seen:    make(map[string]bool),
	}
	entries := r.index.Entries()

	for _, e := range entries {
		if e.Key != q {
			continue
		}
		for _, p := range e.Products {
			c.add(p, MatchExact, e.Name)
		}
	}

	if len(c.results) < r.cfg.MaxResults {
		for _, e := range entries {
			if e.Key != q && strings.Contains(e.Key, q) {
				for _, p := range e.Products {
					c.add(p, MatchPartial, e.Name)
				}
			}
			if len(c.results) >= r.cfg.MaxResults {
				break
			}
		}
	}

	if len(c.results) < r.cfg.FuzzyTrigger {
		var candidates []fuzzyCandidate
		for _, e := range entries {
			d, ok := r.cfg.Fuzzy.Accept(q, e.Key)
			if !ok {
				continue
			}
			for _, p := range e.Products {
				if !c.seen[p.Code] {
					candidates = append(candidates, fuzzyCandidate{product: p, distance: d, name: e.Name})
				}
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].distance < candidates[j].distance })

		added := 0
		for _, fc := range candidates {
			if added >= r.cfg.FuzzyLimit {
				break
			}
			if c.seen[fc.product.Code] {
				continue
			}
			c.add(fc.product, MatchFuzzy, fc.name)
			added++
		}
	}

	if len(c.results) > r.cfg.MaxResults {
		c.results = c.results[:r.cfg.MaxResults]
	}
	return c.results
}

// Config returns the effective match configuration.
func (r *Resolver) Config() MatchConfig { return r.cfg }
