package reply

import (
	"fmt"

	"github.com/anggasct/fluo"
)

// State and event names for the per-review decision machine.
const (
	statePending    = "pending"
	stateSkipped    = "skipped"
	stateGenerated  = "generated"
	stateRejected   = "rejected"
	stateValidated  = "validated"
	stateDispatched = "dispatched"
	statePreviewed  = "previewed"
	stateFailed     = "failed"

	eventSkip             = "skip"
	eventGenerated        = "generated"
	eventGenerationFailed = "generation_failed"
	eventRejected         = "rejected"
	eventValidated        = "validated"
	eventDispatched       = "dispatched"
	eventPreviewed        = "previewed"
	eventDispatchFailed   = "dispatch_failed"
)

// newDecisionMachine defines the legal per-review transitions:
// pending -> skipped | generated | failed
// generated -> rejected | validated
// validated -> dispatched | previewed | failed
// Every state except pending, generated, and validated is terminal.
func newDecisionMachine() fluo.MachineDefinition {
	return fluo.NewMachine().
		State(statePending).Initial().
		To(stateSkipped).On(eventSkip).
		To(stateGenerated).On(eventGenerated).
		To(stateFailed).On(eventGenerationFailed).
		State(stateGenerated).
		To(stateRejected).On(eventRejected).
		To(stateValidated).On(eventValidated).
		State(stateValidated).
		To(stateDispatched).On(eventDispatched).
		To(statePreviewed).On(eventPreviewed).
		To(stateFailed).On(eventDispatchFailed).
		State(stateSkipped).Final().
		State(stateRejected).Final().
		State(stateDispatched).Final().
		State(statePreviewed).Final().
		State(stateFailed).Final().
		Build()
}

// fire sends one event and fails loudly on an illegal transition, which
// would mean a bug in the orchestrator sequencing, not bad input.
func fire(m fluo.Machine, event string) error {
	result := m.HandleEvent(event, nil)
	if !result.Success() {
		if result.Error != nil {
			return fmt.Errorf("illegal transition %q from state %q: %w", event, m.CurrentState(), result.Error)
		}
		return fmt.Errorf("illegal transition %q from state %q", event, m.CurrentState())
	}
	return nil
}

// statusFor maps a terminal machine state to the outcome status.
func statusFor(state string) Status {
	switch state {
	case stateSkipped:
		return StatusSkipped
	case stateRejected:
		return StatusRejected
	case stateDispatched:
		return StatusDispatched
	case statePreviewed:
		return StatusPreviewed
	default:
		return StatusFailed
	}
}
