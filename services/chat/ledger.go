package chat

import (
	"github.com/samber/lo"

	"wayfinder/models"
)

// StepLedger collects the reasoning and tool-call steps of one request, in
// first-seen order, for final transcript assembly. It is owned by a single
// request's goroutine and needs no locking.
type StepLedger struct {
	steps []*models.Step
	byID  map[string]*models.Step
}

func NewStepLedger() *StepLedger {
	return &StepLedger{byID: make(map[string]*models.Step)}
}

// RecordReasoning appends a reasoning step. Every non-transient reasoning
// frame is a new step; there is no deduplication.
func (l *StepLedger) RecordReasoning(text string) {
	l.steps = append(l.steps, &models.Step{
		Type:      models.StepTypeReasoning,
		Reasoning: text,
	})
}

// UpsertToolCall records a tool invocation keyed by callID and reports whether
// this was the first sighting. A repeat frame updates params only when the new
// params are non-empty, so late progress frames cannot wipe out the arguments
// already captured.
//
// A first-seen frame with empty params is discarded entirely, which means a
// tool that legitimately takes no parameters never appears in the ledger.
// That mirrors the upstream-facing behavior this proxy has always had; see
// DESIGN.md before changing it.
func (l *StepLedger) UpsertToolCall(callID, toolID string, params map[string]any) bool {
	if step, ok := l.byID[callID]; ok {
		if len(params) > 0 {
			step.Params = params
		}
		return false
	}

	if len(params) == 0 {
		return false
	}

	step := &models.Step{
		Type:       models.StepTypeToolCall,
		ToolCallID: callID,
		ToolID:     toolID,
		Params:     params,
		Results:    []any{},
	}
	l.steps = append(l.steps, step)
	l.byID[callID] = step
	return true
}

// UpsertToolResult attaches results to the step with the given callID and
// reports whether a matching step existed. On a miss (out-of-order or
// inconsistent upstream) the ledger is left untouched; the caller still
// forwards the result to the client.
func (l *StepLedger) UpsertToolResult(callID string, results []any) bool {
	step, ok := l.byID[callID]
	if !ok {
		return false
	}
	step.Results = results
	return true
}

// Snapshot returns the steps in first-seen order for the final completion
// event.
func (l *StepLedger) Snapshot() []models.Step {
	return lo.Map(l.steps, func(step *models.Step, _ int) models.Step {
		return *step
	})
}

func (l *StepLedger) Len() int {
	return len(l.steps)
}
