// Package reply drives the per-review decision pipeline: skip, generate,
// validate, then dispatch or preview, and aggregates run results.
package reply

import (
	"time"
)

// Mode selects whether validated replies are dispatched or only previewed.
type Mode string

const (
	// ModeDryRun generates and validates but never posts. The model call
	// still happens and costs money; only the dispatch side effect is
	// suppressed.
	ModeDryRun Mode = "dry_run"
	// ModeLive posts validated replies to the storefront.
	ModeLive Mode = "live"
)

// Status is the terminal classification of one review within a run.
type Status string

const (
	StatusSkipped    Status = "skipped"
	StatusRejected   Status = "rejected"
	StatusDispatched Status = "dispatched"
	StatusPreviewed  Status = "previewed"
	StatusFailed     Status = "failed"
)

// Reason codes for non-successful outcomes. Validator rejections carry
// their gate's reason code instead.
const (
	ReasonAlreadyHasReply  = "already_has_reply"
	ReasonNoComment        = "no_comment"
	ReasonGenerationFailed = "generation_failed"
	ReasonDispatchFailed   = "dispatch_failed"
)

// Outcome records how one review ended. Exactly one is created per
// review per run.
type Outcome struct {
	ReviewID string `json:"review_id"`
	Status   Status `json:"status"`
	Reason   string `json:"reason,omitempty"`
	Response string `json:"response,omitempty"`
}

// RunSummary aggregates one run. Counts always sum consistently with the
// outcome list: Processed == len(Outcomes) == Successful+Failed+Skipped,
// where rejected outcomes tally under Failed.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Mode       Mode      `json:"mode"`
	Processed  int       `json:"processed"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Outcomes   []Outcome `json:"details"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (s *RunSummary) record(o Outcome) {
	s.Processed++
	s.Outcomes = append(s.Outcomes, o)

	switch o.Status {
	case StatusDispatched, StatusPreviewed:
		s.Successful++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}
