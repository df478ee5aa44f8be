// Package trace gives the operator a live, inspectable record of a
// multi-agent run. Steps are appended in order; only the most recently
// appended step may be patched afterwards, so everything before the tail is
// immutable history.
package trace

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beemnet-bee/viplayer/internal/model"
)

// Tracer is an append-only, mutable-tail log of agent steps.
type Tracer struct {
	mu    sync.Mutex
	steps []model.AgentStep
}

// New creates an empty Tracer.
func New() *Tracer {
	return &Tracer{}
}

// Begin clears the step sequence. Called at the start of every run.
func (t *Tracer) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = nil
}

// Push appends a step, assigning a generated id and timestamp. Returns the
// assigned id.
func (t *Tracer) Push(step model.AgentStep) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	step.ID = uuid.New().String()
	step.Timestamp = time.Now().UTC()
	t.steps = append(t.steps, step)
	return step.ID
}

// PatchTail merges the non-zero fields of patch into the last step only.
// No-op when the sequence is empty.
func (t *Tracer) PatchTail(patch model.StepPatch) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.steps) == 0 {
		return
	}
	tail := &t.steps[len(t.steps)-1]
	if patch.Status != "" {
		tail.Status = patch.Status
	}
	if patch.Description != "" {
		tail.Description = patch.Description
	}
	if patch.Citation != "" {
		tail.Citation = patch.Citation
	}
	if patch.Metrics != nil {
		tail.Metrics = patch.Metrics
	}
	if patch.DetailedLogs != nil {
		tail.DetailedLogs = patch.DetailedLogs
	}
	if patch.IntermediateOutput != nil {
		tail.IntermediateOutput = patch.IntermediateOutput
	}
}

// Steps returns a snapshot copy of the step sequence in append order.
func (t *Tracer) Steps() []model.AgentStep {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.AgentStep, len(t.steps))
	copy(out, t.steps)
	return out
}

// Len reports the number of recorded steps.
func (t *Tracer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.steps)
}
