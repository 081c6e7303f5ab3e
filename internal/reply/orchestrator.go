package reply

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anggasct/fluo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/playreply/internal/generator"
	"github.com/playreply/internal/history"
	"github.com/playreply/internal/language"
	"github.com/playreply/internal/policy"
	"github.com/playreply/internal/prompt"
	"github.com/playreply/internal/retry"
	"github.com/playreply/internal/validate"
	"github.com/playreply/pkg/models"
)

// Storefront is the collaborator slice the orchestrator needs: list
// reviews and post replies.
type Storefront interface {
	ListReviews(ctx context.Context, maxResults int) ([]models.Review, error)
	PostReply(ctx context.Context, reviewID, text string) error
}

// Deps carries the collaborators for one orchestrator. Construct one per
// run/tenant; there is no process-wide shared client state.
type Deps struct {
	Store     Storefront
	Generator *generator.Generator
	Detector  *language.Detector
	Rules     *policy.Selector
	Prompts   *prompt.Builder
	Validator *validate.Validator
	History   *history.Store
	Knowledge models.KnowledgeBase

	// LLMRetry governs generation retries; the generator itself never
	// retries. Zero value means single attempt.
	LLMRetry retry.Config
	// DispatchRetry governs reply-post retries.
	DispatchRetry retry.Config
}

// Orchestrator runs the per-review decision pipeline sequentially over a
// batch of reviews. Sequential on purpose: parallel processing risks
// duplicate-reply races against the storefront.
type Orchestrator struct {
	deps    Deps
	machine fluo.MachineDefinition
}

// New builds an orchestrator. Missing optional collaborators fall back
// to defaults; Store and Generator are the caller's responsibility.
func New(deps Deps) *Orchestrator {
	if deps.Detector == nil {
		deps.Detector = language.NewDefaultDetector()
	}
	if deps.Rules == nil {
		deps.Rules = policy.NewDefaultSelector()
	}
	if deps.Prompts == nil {
		deps.Prompts = prompt.NewBuilder()
	}
	if deps.Validator == nil {
		deps.Validator = validate.NewDefaultValidator()
	}
	return &Orchestrator{
		deps:    deps,
		machine: newDecisionMachine(),
	}
}

// RunOnce processes one bounded batch of reviews and returns the run
// summary. An unconfigured generator fails the whole run before any
// review is touched; a failed review-list fetch aborts the run; every
// per-review failure after that is recorded and the run continues.
func (o *Orchestrator) RunOnce(ctx context.Context, maxResults int, mode Mode) (*RunSummary, error) {
	if o.deps.Generator == nil || !o.deps.Generator.Configured() {
		return nil, generator.ErrNotConfigured
	}

	summary := &RunSummary{
		RunID:     uuid.NewString(),
		Mode:      mode,
		StartedAt: time.Now(),
	}
	runLog := log.With().Str("run_id", summary.RunID).Str("mode", string(mode)).Logger()

	reviews, err := o.deps.Store.ListReviews(ctx, maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	runLog.Info().Int("count", len(reviews)).Msg("Fetched review batch")

	for _, review := range reviews {
		if ctx.Err() != nil {
			// Cancelled mid-run: outcomes recorded so far are retained.
			summary.FinishedAt = time.Now()
			return summary, ctx.Err()
		}
		outcome := o.processReview(ctx, runLog, review, mode)
		summary.record(outcome)
	}

	summary.FinishedAt = time.Now()
	runLog.Info().
		Int("processed", summary.Processed).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Msg("Run complete")
	return summary, nil
}

// processReview walks one review through the decision machine. Never
// returns an error: every failure becomes a Failed outcome so the batch
// keeps moving.
func (o *Orchestrator) processReview(ctx context.Context, runLog zerolog.Logger, review models.Review, mode Mode) (outcome Outcome) {
	outcome = Outcome{ReviewID: review.ID}
	revLog := runLog.With().Str("review_id", review.ID).Int("rating", review.Rating).Logger()

	defer func() {
		if r := recover(); r != nil {
			revLog.Error().Interface("panic", r).Msg("Review processing panicked")
			outcome.Status = StatusFailed
			outcome.Reason = fmt.Sprintf("panic: %v", r)
		}
	}()

	m := o.machine.CreateInstance()
	if err := m.Start(); err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()
		return outcome
	}

	finish := func(reason string) Outcome {
		outcome.Status = statusFor(m.CurrentState())
		outcome.Reason = reason
		return outcome
	}

	// Business-rule skips come first and never touch the model.
	if review.HasReply {
		revLog.Debug().Msg("Skipping: review already has a developer reply")
		_ = fire(m, eventSkip)
		return finish(ReasonAlreadyHasReply)
	}
	if !review.HasText() {
		revLog.Debug().Msg("Skipping: review has no comment text")
		_ = fire(m, eventSkip)
		return finish(ReasonNoComment)
	}

	gen, err := o.generate(ctx, review)
	if err != nil {
		revLog.Warn().Err(err).Msg("Generation failed")
		_ = fire(m, eventGenerationFailed)
		return finish(ReasonGenerationFailed)
	}
	if err := fire(m, eventGenerated); err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()
		return outcome
	}

	result, err := o.deps.Validator.Validate(gen.Raw, gen.Language)
	if err != nil {
		var rej *validate.Rejection
		reason := "validation_failed"
		if errors.As(err, &rej) {
			reason = string(rej.Reason)
		}
		revLog.Warn().Str("reason", reason).Msg("Response rejected by validator")
		_ = fire(m, eventRejected)
		return finish(reason)
	}
	gen.Validated = result.Text
	gen.Warnings = result.Warnings
	for _, w := range result.Warnings {
		revLog.Warn().Str("warning", w).Msg("Validator quality warning")
	}
	if err := fire(m, eventValidated); err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()
		return outcome
	}

	if mode == ModeDryRun {
		revLog.Info().Str("response", gen.Validated).Msg("Dry run: reply previewed, not dispatched")
		_ = fire(m, eventPreviewed)
		outcome.Response = gen.Validated
		o.appendHistory(ctx, revLog, review, gen)
		return finish("")
	}

	dispatch := retry.Do(ctx, o.deps.DispatchRetry, func() error {
		return o.deps.Store.PostReply(ctx, review.ID, gen.Validated)
	})
	if !dispatch.Success {
		revLog.Error().Err(dispatch.LastError).Int("attempts", dispatch.Attempts).Msg("Dispatch failed")
		_ = fire(m, eventDispatchFailed)
		outcome.Response = gen.Validated
		return finish(ReasonDispatchFailed)
	}

	revLog.Info().Msg("Reply dispatched")
	_ = fire(m, eventDispatched)
	outcome.Response = gen.Validated
	o.appendHistory(ctx, revLog, review, gen)
	return finish("")
}

// PreviewOne generates and validates a reply for a single review without
// recording history or touching the storefront.
func (o *Orchestrator) PreviewOne(ctx context.Context, review models.Review) (*models.GeneratedResponse, error) {
	if o.deps.Generator == nil || !o.deps.Generator.Configured() {
		return nil, generator.ErrNotConfigured
	}

	gen, err := o.generate(ctx, review)
	if err != nil {
		return nil, err
	}

	result, err := o.deps.Validator.Validate(gen.Raw, gen.Language)
	if err != nil {
		return &gen, err
	}
	gen.Validated = result.Text
	gen.Warnings = result.Warnings
	return &gen, nil
}

// generate runs detect -> select -> build -> model call, with the
// orchestrator-owned retry policy around the model call.
func (o *Orchestrator) generate(ctx context.Context, review models.Review) (models.GeneratedResponse, error) {
	lang := o.deps.Detector.Detect(review.Text)
	pol := o.deps.Rules.Select(review.Rating)
	promptText := o.deps.Prompts.Build(prompt.Input{
		ReviewText: review.Text,
		Rating:     review.Rating,
		Language:   lang,
		Policy:     pol,
		Knowledge:  o.deps.Knowledge,
	})

	var raw string
	result := retry.Do(ctx, o.deps.LLMRetry, func() error {
		var err error
		raw, err = o.deps.Generator.Generate(ctx, promptText)
		return err
	})
	if !result.Success {
		return models.GeneratedResponse{}, result.LastError
	}

	return models.GeneratedResponse{
		Raw:         raw,
		Language:    lang,
		GeneratedAt: time.Now(),
	}, nil
}

// appendHistory records an accepted outcome. History write failures are
// logged, not fatal: the reply already went out (or was previewed) and
// the outcome is still reported in the summary.
func (o *Orchestrator) appendHistory(ctx context.Context, revLog zerolog.Logger, review models.Review, gen models.GeneratedResponse) {
	if o.deps.History == nil {
		return
	}
	entry := models.HistoryEntry{
		Timestamp:      gen.GeneratedAt,
		ReviewID:       review.ID,
		ReviewText:     review.Text,
		Rating:         review.Rating,
		Language:       gen.Language,
		RawResponse:    gen.Raw,
		FinalResponse:  gen.Validated,
		CharacterCount: len([]rune(gen.Validated)),
	}
	if err := o.deps.History.Append(ctx, entry); err != nil {
		revLog.Error().Err(err).Msg("Failed to append history entry")
	}
}

// Stats returns aggregate statistics over the reply history.
func (o *Orchestrator) Stats() history.Stats {
	if o.deps.History == nil {
		return history.Stats{Languages: map[string]int{}, Ratings: map[int]int{}}
	}
	return o.deps.History.Stats()
}

// History returns the most recent limit history entries, newest first.
func (o *Orchestrator) History(limit int) []models.HistoryEntry {
	if o.deps.History == nil {
		return nil
	}
	return o.deps.History.History(limit)
}
