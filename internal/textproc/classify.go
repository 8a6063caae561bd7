package textproc

import (
	"strings"
)

// Tier names an LLM cost/capability level.
type Tier string

const (
	TierSimple  Tier = "simple"
	TierComplex Tier = "complex"
)

// technicalKeywords marks content that benefits from the stronger model.
// Presence is counted per keyword, not per occurrence.
var technicalKeywords = []string{
	"algorithm", "framework", "architecture", "infrastructure",
	"kubernetes", "docker", "aws", "azure", "cloud", "devops",
	"backend", "frontend", "fullstack", "machine learning", "ai",
	"microservices", "distributed", "scalable", "optimization",
}

// reasoningKeywords in the query escalate straight to the complex tier.
var reasoningKeywords = []string{
	"analyze", "analysis", "explain", "reasoning", "compare",
	"evaluate", "assess", "why",
}

// Classifier scores extracted text plus the caller's query and picks a
// model tier. Pure: identical inputs always produce the identical tier.
type Classifier struct {
	TokenThreshold   int // whitespace tokens above this add 1
	PipeThreshold    int // '|' characters above this add 2
	KeywordThreshold int // distinct technical keywords above this add 2
	QueryLenEscalate int // query length above this forces complex
	ComplexAt        int // minimum score for the complex tier
}

// NewClassifier returns a classifier with the default thresholds.
func NewClassifier() Classifier {
	return Classifier{
		TokenThreshold:   1000,
		PipeThreshold:    10,
		KeywordThreshold: 5,
		QueryLenEscalate: 5000,
		ComplexAt:        3,
	}
}

// Classify picks the tier for preprocessed text and an optional query.
func (c Classifier) Classify(text, query string) Tier {
	if c.Score(text, query) >= c.ComplexAt {
		return TierComplex
	}
	return TierSimple
}

// Score computes the complexity score. Exported so callers can log it.
func (c Classifier) Score(text, query string) int {
	score := 0
	if len(strings.Fields(text)) > c.TokenThreshold {
		score++
	}
	if strings.Count(text, "|") > c.PipeThreshold {
		score += 2
	}
	lower := strings.ToLower(text)
	keywords := 0
	for _, kw := range technicalKeywords {
		if strings.Contains(lower, kw) {
			keywords++
		}
	}
	if keywords > c.KeywordThreshold {
		score += 2
	}
	if len(query) > c.QueryLenEscalate {
		score += c.ComplexAt
	}
	lowerQuery := strings.ToLower(query)
	for _, kw := range reasoningKeywords {
		if strings.Contains(lowerQuery, kw) {
			score += c.ComplexAt
			break
		}
	}
	return score
}
