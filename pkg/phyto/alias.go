// CLAUDE:SUMMARY Secondary trade-name table mapping alternate commercial names to a canonical registration code.
package phyto

// AliasTable maps alternate commercial names to a registration code.
// Keys are normalized at build time with the same function used at lookup.
type AliasTable struct {
	entries   map[string]string
	normalize Normalizer
}

// NewAliasTable builds a table from raw name -> code pairs. A nil normalize
// defaults to NormalizeLowercaseTrim, the convention the curated table is written in.
func NewAliasTable(entries map[string]string, normalize Normalizer) *AliasTable {
	if normalize == nil {
		normalize = NormalizeLowercaseTrim
	}
	t := &AliasTable{
		entries:   make(map[string]string, len(entries)),
		normalize: normalize,
	}
	for name, code := range entries {
		key := normalize(name)
		if key == "" || code == "" {
			continue
		}
		t.entries[key] = code
	}
	return t
}

// IsAlias reports whether raw is a known alternate name.
func (t *AliasTable) IsAlias(raw string) bool {
	_, ok := t.Resolve(raw)
	return ok
}

// Resolve returns the registration code behind an alternate name.
func (t *AliasTable) Resolve(raw string) (string, bool) {
	if t == nil {
		return "", false
	}
	key := t.normalize(raw)
	if key == "" {
		return "", false
	}
	code, ok := t.entries[key]
	return code, ok
}

// Len returns the number of aliases.
func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
