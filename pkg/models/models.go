package models

import (
	"strings"
	"time"
)

// Review is one end-user review pulled from the storefront. Immutable
// within a run; the orchestrator never writes back into it.
type Review struct {
	ID             string    `json:"review_id"`
	Rating         int       `json:"rating"`
	Text           string    `json:"text"`
	ReviewerLang   string    `json:"reviewer_language,omitempty"`
	HasReply       bool      `json:"has_reply"`
	ReplyText      string    `json:"reply_text,omitempty"`
	Device         string    `json:"device,omitempty"`
	AppVersionCode string    `json:"app_version_code,omitempty"`
	AndroidVersion string    `json:"android_version,omitempty"`
	ThumbsUp       int       `json:"thumbs_up"`
	LastModified   time.Time `json:"last_modified,omitempty"`
}

// HasText reports whether the review carries a non-whitespace comment.
func (r Review) HasText() bool {
	return strings.TrimSpace(r.Text) != ""
}

// GeneratedResponse holds the raw model output for one review together
// with the validator's verdict. Transient: only accepted outcomes are
// persisted, as HistoryEntry records.
type GeneratedResponse struct {
	Raw         string    `json:"raw"`
	Validated   string    `json:"validated,omitempty"`
	Language    string    `json:"language"`
	GeneratedAt time.Time `json:"generated_at"`
	Warnings    []string  `json:"warnings,omitempty"`
}

// Accepted reports whether the response passed every validation gate.
func (g GeneratedResponse) Accepted() bool {
	return g.Validated != ""
}

// HistoryEntry is one immutable record in the reply history log.
type HistoryEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	ReviewID       string    `json:"review_id"`
	ReviewText     string    `json:"review_text"`
	Rating         int       `json:"rating"`
	Language       string    `json:"language"`
	RawResponse    string    `json:"original_ai_response"`
	FinalResponse  string    `json:"final_response"`
	CharacterCount int       `json:"character_count"`
}

// FAQ is one question/answer pair in the knowledge base.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// KnowledgeBase is the read-only app record the prompt builder draws on.
type KnowledgeBase struct {
	AppName        string   `json:"app_name"`
	Description    string   `json:"description"`
	Features       []string `json:"features"`
	FAQs           []FAQ    `json:"faqs"`
	TargetUsers    string   `json:"target_users"`
	SupportContact string   `json:"support_contact"`
}
