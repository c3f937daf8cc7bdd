package phyto

import "testing"

func TestIsCode(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2150918", true},
		{"215091", false},
		{"21509180", false},
		{"215O918", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsCode(tt.input); got != tt.want {
			t.Errorf("IsCode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2150918", "2150918", true},
		{"N° AMM : 2150918", "2150918", true},
		{"AMM2150918 - usage pro", "2150918", true},
		{"2I5O918", "2150918", true},
		{"AMM: 88OOOO6", "", false},
		{"12345678", "", false},
		{"ABCDEFG", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractCode(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ExtractCode(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
