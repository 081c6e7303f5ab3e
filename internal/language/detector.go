// Package language implements the keyword-based review language heuristic.
// It is deliberately not a statistical identifier: a fixed, ordered list of
// keyword sets is scanned and the first language with a hit wins.
package language

import (
	"strings"
)

// Pattern pairs a language code with the keywords that mark it.
type Pattern struct {
	Code     string
	Keywords []string
}

// DefaultPatterns returns the detection table in priority order. The order
// is part of the contract: text containing both Turkish and Spanish
// keywords detects as Turkish.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Code: "tr", Keywords: []string{"çok", "güzel", "harika", "teşekkür", "sağol", "iyi", "kötü"}},
		{Code: "es", Keywords: []string{"muy", "bueno", "excelente", "gracias", "malo", "buena"}},
		{Code: "fr", Keywords: []string{"très", "bon", "excellent", "merci", "mauvais", "bien"}},
		{Code: "de", Keywords: []string{"sehr", "gut", "ausgezeichnet", "danke", "schlecht", "toll"}},
		{Code: "ru", Keywords: []string{"очень", "хорошо", "отлично", "спасибо", "плохо", "классно"}},
		{Code: "id", Keywords: []string{"sangat", "bagus", "terima", "kasih", "buruk"}},
		{Code: "fa", Keywords: []string{"خیلی", "خوب", "عالی", "ممنون", "بد"}},
	}
}

// Detector resolves review text to a language code from the closed set
// {en, tr, es, fr, de, ru, id, fa}.
type Detector struct {
	patterns []Pattern
}

// NewDetector builds a detector over the given pattern table. The table is
// treated as immutable after construction.
func NewDetector(patterns []Pattern) *Detector {
	return &Detector{patterns: patterns}
}

// NewDefaultDetector builds a detector over DefaultPatterns.
func NewDefaultDetector() *Detector {
	return NewDetector(DefaultPatterns())
}

// Detect returns the language code for text. Total and deterministic:
// every input, including the empty string, yields a code. Unmatched text
// defaults to "en".
func (d *Detector) Detect(text string) string {
	lower := strings.ToLower(text)
	for _, p := range d.patterns {
		for _, kw := range p.Keywords {
			if strings.Contains(lower, kw) {
				return p.Code
			}
		}
	}
	return "en"
}
