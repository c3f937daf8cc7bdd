package phyto

import "testing"

func TestAliasTableLowercaseTrim(t *testing.T) {
	table := NewAliasTable(map[string]string{"Abadia": "2240297", "": "1", "empty": ""}, nil)

	if table.Len() != 1 {
		t.Errorf("Len = %d, want 1", table.Len())
	}
	tests := []struct {
		query string
		code  string
		ok    bool
	}{
		{"Abadia", "2240297", true},
		{"  ABADIA ", "2240297", true},
		// The curated table is not accent-folded.
		{"abadïa", "", false},
		{"abadia-x", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		code, ok := table.Resolve(tt.query)
		if ok != tt.ok || code != tt.code {
			t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.query, code, ok, tt.code, tt.ok)
		}
		if table.IsAlias(tt.query) != tt.ok {
			t.Errorf("IsAlias(%q) = %v, want %v", tt.query, !tt.ok, tt.ok)
		}
	}
}

func TestAliasTableNameMode(t *testing.T) {
	table := NewAliasTable(map[string]string{"abadia": "2240297"}, GetNormalizer("name"))

	for _, query := range []string{"abadïa", "ABADIA!", " Abadia "} {
		if code, ok := table.Resolve(query); !ok || code != "2240297" {
			t.Errorf("Resolve(%q) = %q, %v; want 2240297", query, code, ok)
		}
	}
}

func TestAliasTableNil(t *testing.T) {
	var table *AliasTable
	if _, ok := table.Resolve("abadia"); ok {
		t.Error("nil table resolved an alias")
	}
	if table.Len() != 0 {
		t.Errorf("nil table Len = %d", table.Len())
	}
}
