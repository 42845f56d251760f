package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// 2-letter codes pass through
		{"en", "en"},
		{"EN", "en"},
		{"xx", "xx"},
		// 3-letter codes convert
		{"eng", "en"},
		{"fre", "fr"},
		{"ger", "de"},
		{"tur", "tr"},
		// Word forms
		{"english", "en"},
		{"German", "de"},
		{"welsh", "cy"},
		// BCP 47 regional tags collapse to their base
		{"de-CH", "de"},
		{"pt_BR", "pt"},
		{"zh-Hant-TW", "zh"},
		// Unrecognized
		{"", ""},
		{"klingon", ""},
	}

	for _, tt := range tests {
		if got := ToISO2(tt.input); got != tt.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "Auto-detect"},
		{"de", "German"},
		{"ger", "German"},
		{"gsw", "Swiss German"},
		{"cy", "Welsh"},
		{"wel", "Welsh"},
		{"japanese", "Japanese"},
		{"zz!", "ZZ!"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestResolveSelectionSwissGerman(t *testing.T) {
	sel, err := ResolveSelection(Request{Language: "gsw", Model: "medium"})
	if err != nil {
		t.Fatalf("ResolveSelection: %v", err)
	}
	if sel.Language != "de" {
		t.Fatalf("expected gsw to be sent as de, got %q", sel.Language)
	}
	if sel.Requested != "gsw" {
		t.Fatalf("expected requested language preserved, got %q", sel.Requested)
	}
	if sel.Model != SwissGermanModel || !sel.ModelAutoSelected {
		t.Fatalf("expected Swiss German model auto-selected, got %+v", sel)
	}
	if sel.Note != "Swiss German model auto-selected." {
		t.Fatalf("unexpected note: %q", sel.Note)
	}
}

func TestResolveSelectionKeepsExplicitModel(t *testing.T) {
	sel, err := ResolveSelection(Request{Language: "GSW", Model: "large-v3", ModelExplicit: true})
	if err != nil {
		t.Fatalf("ResolveSelection: %v", err)
	}
	if sel.Language != "de" {
		t.Fatalf("expected de, got %q", sel.Language)
	}
	if sel.Model != "large-v3" || sel.ModelAutoSelected || sel.Note != "" {
		t.Fatalf("explicit model must be kept, got %+v", sel)
	}
}

func TestResolveSelectionOtherLanguages(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"auto", ""},
		{"en", "en"},
		{"english", "en"},
		{"de-CH", "de"},
		{"gsw-CH", "de"},
		{"swiss german", "de"},
		{"cy", "cy"},
	}
	for _, tt := range tests {
		sel, err := ResolveSelection(Request{Language: tt.input, Model: "small"})
		if err != nil {
			t.Fatalf("ResolveSelection(%q): %v", tt.input, err)
		}
		if sel.Language != tt.want {
			t.Errorf("ResolveSelection(%q).Language = %q, want %q", tt.input, sel.Language, tt.want)
		}
	}
}

func TestResolveSelectionRejectsUnknown(t *testing.T) {
	for _, code := range []string{"not a language", "zu", "zu-ZA", "tlh"} {
		if _, err := ResolveSelection(Request{Language: code}); err == nil {
			t.Errorf("expected error for %q", code)
		}
	}
}
