// Package generator wraps one generative-model call with the fixed
// generation parameters used for review replies.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"github.com/playreply/internal/prompt"
)

// Fixed generation parameters. Replies are short, so output is capped
// tightly; temperature stays at 0.7 for a natural tone.
const (
	MaxOutputTokens = 100
	Temperature     = 0.7

	// DefaultTimeout bounds one model call. The orchestrator treats an
	// overrun as a generation failure for that review only.
	DefaultTimeout = 60 * time.Second
)

// ErrNotConfigured is returned when no model client is available, i.e.
// the credential is missing. Fatal for a whole run.
var ErrNotConfigured = errors.New("generative model client is not configured")

// GenerationError wraps a failed or empty model call. Recovered per
// review by the orchestrator.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ModelCaller is the slice of aiconnectors.Connector the generator needs.
type ModelCaller interface {
	Call(ctx context.Context, input string, options ...llms.CallOption) (string, error)
}

// Generator produces one reply draft per prompt. It performs no retries;
// retry policy belongs to the caller.
type Generator struct {
	model   ModelCaller
	timeout time.Duration
}

// New builds a generator over the given model client. A nil model yields
// a generator whose calls fail with ErrNotConfigured.
func New(model ModelCaller) *Generator {
	return &Generator{model: model, timeout: DefaultTimeout}
}

// WithTimeout overrides the per-call timeout. Zero disables the bound.
func (g *Generator) WithTimeout(d time.Duration) *Generator {
	g.timeout = d
	return g
}

// Configured reports whether a model client is available.
func (g *Generator) Configured() bool {
	return g != nil && g.model != nil
}

// Generate performs one model call for the built prompt and returns the
// raw reply text. Fails with ErrNotConfigured when no client is set, and
// with *GenerationError when the call errors, times out, or returns no
// text.
func (g *Generator) Generate(ctx context.Context, promptText string) (string, error) {
	if !g.Configured() {
		return "", ErrNotConfigured
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	input := prompt.SystemPreamble + "\n\n" + promptText

	started := time.Now()
	out, err := g.model.Call(ctx, input,
		llms.WithMaxTokens(MaxOutputTokens),
		llms.WithTemperature(Temperature),
	)
	if err != nil {
		log.Debug().Err(err).Dur("elapsed", time.Since(started)).Msg("Model call failed")
		return "", &GenerationError{Err: err}
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", &GenerationError{Err: errors.New("model returned no text")}
	}

	log.Debug().
		Dur("elapsed", time.Since(started)).
		Int("chars", len(out)).
		Msg("Model call completed")
	return out, nil
}
