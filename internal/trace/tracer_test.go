package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beemnet-bee/viplayer/internal/model"
)

func TestPushAssignsIdentity(t *testing.T) {
	tr := New()
	id := tr.Push(model.AgentStep{AgentName: model.AgentParser, Action: "Multi-Format Ingestion", Status: model.StepActive})

	steps := tr.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, id, steps[0].ID)
	assert.False(t, steps[0].Timestamp.IsZero())
	assert.Equal(t, model.StepActive, steps[0].Status)
}

func TestTailInvariant(t *testing.T) {
	tr := New()
	tr.Push(model.AgentStep{AgentName: model.AgentParser, Action: "A", Status: model.StepActive})
	tr.PatchTail(model.StepPatch{Status: model.StepCompleted})
	tr.Push(model.AgentStep{AgentName: model.AgentVerifier, Action: "B", Status: model.StepActive})
	tr.PatchTail(model.StepPatch{Status: model.StepCompleted, Description: "done"})
	tr.Push(model.AgentStep{AgentName: model.AgentStrategist, Action: "C", Status: model.StepActive})
	tr.PatchTail(model.StepPatch{Status: model.StepError})

	// N pushes, M patches: exactly N elements, earlier entries untouched
	// beyond their own patch-at-tail window.
	steps := tr.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, model.StepCompleted, steps[0].Status)
	assert.Empty(t, steps[0].Description)
	assert.Equal(t, "done", steps[1].Description)
	assert.Equal(t, model.StepError, steps[2].Status)
}

func TestPatchTailMergesNonZeroOnly(t *testing.T) {
	tr := New()
	tr.Push(model.AgentStep{AgentName: model.AgentParser, Action: "A", Status: model.StepActive, Description: "working"})

	metrics := &model.AgentMetrics{ExecutionTimeMs: 42}
	tr.PatchTail(model.StepPatch{Metrics: metrics})

	tail := tr.Steps()[0]
	assert.Equal(t, model.StepActive, tail.Status)
	assert.Equal(t, "working", tail.Description)
	assert.Equal(t, metrics, tail.Metrics)
}

func TestPatchTailEmptySequence(t *testing.T) {
	tr := New()
	tr.PatchTail(model.StepPatch{Status: model.StepError})
	assert.Zero(t, tr.Len())
}

func TestBeginClears(t *testing.T) {
	tr := New()
	tr.Push(model.AgentStep{AgentName: model.AgentParser, Action: "A", Status: model.StepActive})
	tr.Begin()
	assert.Zero(t, tr.Len())
}

func TestStepsReturnsSnapshot(t *testing.T) {
	tr := New()
	tr.Push(model.AgentStep{AgentName: model.AgentParser, Action: "A", Status: model.StepActive})

	snapshot := tr.Steps()
	snapshot[0].Action = "mutated"
	assert.Equal(t, "A", tr.Steps()[0].Action)
}
