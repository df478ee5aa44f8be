package agents

import (
	"math/rand/v2"
	"time"

	"github.com/beemnet-bee/viplayer/internal/model"
)

// measure builds the metrics record for a call started at start. Execution
// time is measured wall-clock; the two rate fields are illustrative
// dashboard values in fixed ranges, not derived from the call.
func measure(start time.Time) *model.AgentMetrics {
	return &model.AgentMetrics{
		ExecutionTimeMs:    time.Since(start).Milliseconds(),
		SuccessRate:        0.95 + rand.Float64()*0.05,
		HallucinationScore: rand.Float64() * 0.05,
	}
}
