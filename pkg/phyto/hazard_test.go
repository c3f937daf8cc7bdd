package phyto

import (
	"reflect"
	"testing"
)

func TestHazardSet(t *testing.T) {
	h := NewHazardSet(map[string][]string{
		"9800336": {"H360FD"},
		"8800006": nil,
		" ":       {"H350"},
	})

	if h.Count() != 2 {
		t.Errorf("Count = %d, want 2", h.Count())
	}
	if !h.IsHazardous("8800006") || !h.IsHazardous("9800336") {
		t.Error("flagged codes not reported hazardous")
	}
	if h.IsHazardous("2150918") {
		t.Error("unflagged code reported hazardous")
	}
	if got := h.AllCodes(); !reflect.DeepEqual(got, []string{"8800006", "9800336"}) {
		t.Errorf("AllCodes = %v", got)
	}
	if got := h.Statements("9800336"); !reflect.DeepEqual(got, []string{"H360FD"}) {
		t.Errorf("Statements = %v", got)
	}
}

func TestHazardSetTrimsLookups(t *testing.T) {
	h := NewHazardSet(map[string][]string{" 9800336\t": {"H360FD"}})
	for _, code := range []string{"9800336", " 9800336", "9800336\n"} {
		if !h.IsHazardous(code) {
			t.Errorf("IsHazardous(%q) = false", code)
		}
		if got := h.Statements(code); !reflect.DeepEqual(got, []string{"H360FD"}) {
			t.Errorf("Statements(%q) = %v", code, got)
		}
	}
}

func TestHazardSetNil(t *testing.T) {
	var h *HazardSet
	if h.IsHazardous("8800006") || h.Count() != 0 || h.AllCodes() != nil {
		t.Error("nil set should be empty")
	}
}

func TestCMRStatements(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"H350i; h360FD, H351 H350i", []string{"H350i", "H360FD", "H351"}},
		{"H340 - Peut induire des anomalies génétiques", []string{"H340"}},
		{"H341|H362", []string{"H341", "H362"}},
		{"EUH401 H300 H410", nil},
		{"", nil},
	}
	for _, tt := range tests {
		if got := CMRStatements(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("CMRStatements(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
