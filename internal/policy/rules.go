// Package policy maps star ratings to response policies.
package policy

// Policy is one of the three rating-driven response strategies.
type Policy string

const (
	ApologizeAndSupport Policy = "apologize_and_support"
	NeutralImprovement  Policy = "neutral_improvement"
	ThankAndEngage      Policy = "thank_and_engage"
)

// DefaultRules returns the rating-to-policy table.
func DefaultRules() map[int]Policy {
	return map[int]Policy{
		1: ApologizeAndSupport,
		2: ApologizeAndSupport,
		3: NeutralImprovement,
		4: ThankAndEngage,
		5: ThankAndEngage,
	}
}

// Selector resolves a star rating to a response policy.
type Selector struct {
	rules map[int]Policy
}

// NewSelector builds a selector over the given rule table. The table is
// treated as immutable after construction.
func NewSelector(rules map[int]Policy) *Selector {
	return &Selector{rules: rules}
}

// NewDefaultSelector builds a selector over DefaultRules.
func NewDefaultSelector() *Selector {
	return NewSelector(DefaultRules())
}

// Select returns the policy for rating. Ratings outside the table fall
// back to NeutralImprovement. Pure: no side effects.
func (s *Selector) Select(rating int) Policy {
	if p, ok := s.rules[rating]; ok {
		return p
	}
	return NeutralImprovement
}
