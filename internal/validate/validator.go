// Package validate enforces the content gates every generated reply must
// pass before it may reach the storefront.
package validate

import (
	"fmt"
	"strings"
)

// MaxLength is the storefront reply character limit.
const MaxLength = 350

// MinLength is the minimum trimmed reply length.
const MinLength = 10

const ellipsis = "..."

// Reason identifies which gate rejected a response.
type Reason string

const (
	ReasonEmpty         Reason = "empty"
	ReasonForbiddenTerm Reason = "forbidden_term"
	ReasonTooShort      Reason = "too_short"
)

// Rejection reports a failed gate. It is a business outcome, not a system
// error; callers record it and move on.
type Rejection struct {
	Reason Reason
	Term   string // set for forbidden_term
}

func (r *Rejection) Error() string {
	if r.Term != "" {
		return fmt.Sprintf("response rejected: %s (%q)", r.Reason, r.Term)
	}
	return fmt.Sprintf("response rejected: %s", r.Reason)
}

// DefaultForbiddenTerms returns the apology/negative vocabulary that
// rejects a response outright. Matching is a case-insensitive substring
// scan; the whole response is discarded on a hit, never partially
// stripped.
func DefaultForbiddenTerms() []string {
	return []string{
		"sorry", "apologize", "unfortunately", "regret", "disappointed",
		"terrible", "awful", "hate", "worst", "useless", "broken",
	}
}

// Expected alphabet characters for the non-rejecting language quality check.
var alphabetChecks = map[string]string{
	"tr": "çğıöşüÇĞIİÖŞÜ",
	"ru": "абвгдеёжзийклмнопрстуфхцчшщъыьэюя",
}

// Result is the validator's accept verdict.
type Result struct {
	Text      string   // trimmed validated text
	Truncated bool     // length gate shortened the raw text
	Warnings  []string // non-rejecting quality signals
}

// Validator applies the reply content gates.
type Validator struct {
	forbidden []string
}

// NewValidator builds a validator over the given forbidden vocabulary.
// The list is treated as immutable after construction.
func NewValidator(forbidden []string) *Validator {
	return &Validator{forbidden: forbidden}
}

// NewDefaultValidator builds a validator over DefaultForbiddenTerms.
func NewDefaultValidator() *Validator {
	return NewValidator(DefaultForbiddenTerms())
}

// Validate runs the gates in fixed order: empty check, length truncation
// (a transform, not a rejection), forbidden-term scan, minimum-length
// check, then the language alphabet warning for tr/ru. On rejection the
// returned error is a *Rejection carrying the gate's reason code.
func (v *Validator) Validate(raw, lang string) (Result, error) {
	if raw == "" {
		return Result{}, &Rejection{Reason: ReasonEmpty}
	}

	var res Result
	text := raw
	if runes := []rune(text); len(runes) > MaxLength {
		text = string(runes[:MaxLength-len(ellipsis)]) + ellipsis
		res.Truncated = true
	}

	lower := strings.ToLower(text)
	for _, term := range v.forbidden {
		if strings.Contains(lower, term) {
			return Result{}, &Rejection{Reason: ReasonForbiddenTerm, Term: term}
		}
	}

	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < MinLength {
		return Result{}, &Rejection{Reason: ReasonTooShort}
	}

	if alphabet, ok := alphabetChecks[lang]; ok && !strings.ContainsAny(text, alphabet) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("response may not be in %s", lang))
	}

	res.Text = trimmed
	return res, nil
}
