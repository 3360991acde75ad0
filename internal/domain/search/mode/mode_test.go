package mode

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Mode{Keyword, Vector, Hybrid, Agentic}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Mode{"", "semantic", "full-text", "HYBRID"}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestUsesVectorAndText(t *testing.T) {
	tests := []struct {
		m            Mode
		vector, text bool
	}{
		{Keyword, false, true},
		{Vector, true, false},
		{Hybrid, true, true},
		{Agentic, false, false},
	}
	for _, tt := range tests {
		if tt.m.UsesVector() != tt.vector {
			t.Errorf("%q.UsesVector() = %v", tt.m, tt.m.UsesVector())
		}
		if tt.m.UsesText() != tt.text {
			t.Errorf("%q.UsesText() = %v", tt.m, tt.m.UsesText())
		}
	}
}

func TestSyntax(t *testing.T) {
	if !Simple.IsValid() || !Full.IsValid() {
		t.Error("simple and full must be valid")
	}
	if Syntax("lucene").IsValid() {
		t.Error("lucene must be invalid")
	}
}
