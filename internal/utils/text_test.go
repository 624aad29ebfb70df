package utils

import "testing"

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "empty", input: "   ", expect: ""},
		{name: "folds case and punctuation", input: "  Stop the Interview!! ", expect: "stop the interview"},
		{name: "keeps inner apostrophes", input: "That's all, 'folks'", expect: "that's all folks"},
		{name: "collapses separators", input: "software\t\tengineer\n", expect: "software engineer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeText(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestContainsPhrase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		phrase string
		expect bool
	}{
		{name: "matches inside sentence", text: "OK, please stop the interview now.", phrase: "stop the interview", expect: true},
		{name: "respects word boundaries", text: "I love salesforce", phrase: "sales", expect: false},
		{name: "empty phrase", text: "anything", phrase: " ", expect: false},
		{name: "case insensitive", text: "I want an SDR role", phrase: "sdr", expect: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ContainsPhrase(tt.text, tt.phrase); got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}
