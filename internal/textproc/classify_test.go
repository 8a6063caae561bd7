package textproc

import (
	"strings"
	"testing"
)

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier()
	text := strings.Repeat("kubernetes docker aws azure cloud devops ", 200)
	query := "extract the usual fields"

	first := c.Classify(text, query)
	for i := 0; i < 10; i++ {
		if got := c.Classify(text, query); got != first {
			t.Fatalf("classification changed between runs: %v then %v", first, got)
		}
	}
}

func TestClassifyShortQuerySimple(t *testing.T) {
	c := NewClassifier()
	query := strings.Repeat("q", 50)
	if got := c.Classify("short resume text", query); got != TierSimple {
		t.Fatalf("Classify() = %v, want simple", got)
	}
}

func TestClassifyLongQueryComplex(t *testing.T) {
	c := NewClassifier()
	query := strings.Repeat("q", 5001)
	if got := c.Classify("short resume text", query); got != TierComplex {
		t.Fatalf("Classify() = %v, want complex for long query", got)
	}
}

func TestClassifyReasoningQueryComplex(t *testing.T) {
	c := NewClassifier()
	if got := c.Classify("short resume text", "please analyze the career gaps"); got != TierComplex {
		t.Fatalf("Classify() = %v, want complex for reasoning query", got)
	}
}

func TestClassifyScoring(t *testing.T) {
	c := NewClassifier()

	longText := strings.Repeat("word ", 1001)
	tables := strings.Repeat("cell | ", 11)
	technical := "kubernetes docker aws azure cloud devops"

	tests := []struct {
		name string
		text string
		want Tier
	}{
		{"short plain text", "Jane Doe, teacher", TierSimple},
		{"length alone is not enough", longText, TierSimple},
		{"tables alone are not enough", tables, TierSimple},
		{"technical alone is not enough", technical, TierSimple},
		{"length plus tables", longText + tables, TierComplex},
		{"tables plus technical", tables + " " + technical, TierComplex},
		{"all signals", longText + tables + technical, TierComplex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.text, ""); got != tt.want {
				t.Fatalf("Classify() = %v, want %v (score %d)", got, tt.want, c.Score(tt.text, ""))
			}
		})
	}
}

func TestScoreKeywordPresenceNotOccurrences(t *testing.T) {
	c := NewClassifier()
	// one keyword repeated many times counts once
	text := strings.Repeat("kubernetes ", 100)
	if got := c.Score(text, ""); got != 0 {
		t.Fatalf("Score() = %d, want 0 for a single repeated keyword", got)
	}
}
