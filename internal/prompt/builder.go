// Package prompt composes the instruction text sent to the generative
// model for one review.
package prompt

import (
	"fmt"
	"strings"

	"github.com/playreply/internal/policy"
	"github.com/playreply/pkg/models"
)

// SystemPreamble frames every generation request. It is prepended to the
// built prompt by the generator, not included in Build's output.
const SystemPreamble = "You are a professional app developer responding to user reviews. Be helpful, friendly, and concise."

// MaxFAQs caps how many FAQ pairs are inlined into the prompt.
const MaxFAQs = 5

var languageDirectives = map[string]string{
	"tr": "Respond in Turkish. Be polite and professional.",
	"es": "Respond in Spanish. Be polite and professional.",
	"fr": "Respond in French. Be polite and professional.",
	"de": "Respond in German. Be polite and professional.",
	"ru": "Respond in Russian. Be polite and professional.",
	"id": "Respond in Indonesian. Be polite and professional.",
	"fa": "Respond in Persian. Be polite and professional.",
	"en": "Respond in English. Be polite and professional.",
}

// Input carries everything Build needs. Build is pure: identical inputs
// always produce identical prompt text, and no I/O happens here.
type Input struct {
	ReviewText string
	Rating     int
	Language   string
	Policy     policy.Policy
	Knowledge  models.KnowledgeBase
}

// Builder renders model prompts from review details and the knowledge base.
type Builder struct{}

// NewBuilder returns a prompt builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build composes the full instruction text for one review.
func (b *Builder) Build(in Input) string {
	directive, ok := languageDirectives[in.Language]
	if !ok {
		directive = languageDirectives["en"]
	}

	return fmt.Sprintf(`%s

%s

%s

Review Details:
- Rating: %d/5 stars
- Review Text: %q

Requirements:
- Maximum 350 characters
- Professional but friendly tone
- Use relevant app features if applicable
- Address specific concerns mentioned in the review
- Don't be robotic or generic

Generate a response:`,
		directive,
		b.policyInstruction(in.Policy, in.Knowledge),
		b.knowledgeContext(in.Knowledge),
		in.Rating,
		in.ReviewText,
	)
}

func (b *Builder) policyInstruction(p policy.Policy, kb models.KnowledgeBase) string {
	switch p {
	case policy.ApologizeAndSupport:
		contact := kb.SupportContact
		if contact == "" {
			contact = "support@yourapp.com"
		}
		return fmt.Sprintf("For low ratings (1-2 stars): Apologize sincerely, offer direct support, and ask for specific feedback. Mention our support contact: %s", contact)
	case policy.ThankAndEngage:
		return "For high ratings (4-5 stars): Thank enthusiastically, encourage sharing, and invite them to explore more features."
	default:
		return "For medium ratings (3 stars): Acknowledge the feedback neutrally, promise improvements, and encourage continued use."
	}
}

func (b *Builder) knowledgeContext(kb models.KnowledgeBase) string {
	return fmt.Sprintf(`App Information:
- Name: %s
- Description: %s
- Key Features: %s
- Target Users: %s

FAQ Answers:
%s`,
		kb.AppName,
		kb.Description,
		strings.Join(kb.Features, ", "),
		kb.TargetUsers,
		b.formatFAQs(kb.FAQs),
	)
}

func (b *Builder) formatFAQs(faqs []models.FAQ) string {
	if len(faqs) == 0 {
		return "No FAQs available."
	}
	if len(faqs) > MaxFAQs {
		faqs = faqs[:MaxFAQs]
	}

	parts := make([]string, 0, len(faqs))
	for _, faq := range faqs {
		parts = append(parts, fmt.Sprintf("Q: %s\nA: %s", faq.Question, faq.Answer))
	}
	return strings.Join(parts, "\n\n")
}
