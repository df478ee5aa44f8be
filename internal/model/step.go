package model

import "time"

// AgentName identifies which specialist agent produced a step.
type AgentName string

const (
	AgentParser     AgentName = "Parser"
	AgentVerifier   AgentName = "Verifier"
	AgentStrategist AgentName = "Strategist"
	AgentMatcher    AgentName = "Matcher"
	AgentPredictor  AgentName = "Predictor"
)

// StepStatus is the lifecycle state of an agent step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepActive    StepStatus = "active"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
)

// AgentMetrics is the per-call telemetry triple shown alongside a step.
// ExecutionTimeMs is measured wall-clock for the underlying call;
// SuccessRate and HallucinationScore are illustrative display values, not
// measured quantities.
type AgentMetrics struct {
	ExecutionTimeMs    int64   `json:"execution_time_ms"`
	SuccessRate        float64 `json:"success_rate"`
	HallucinationScore float64 `json:"hallucination_score"`
}

// AgentStep is one agent call's progress record within a run. Steps are
// appended in active state; only the most recently appended step is ever
// patched afterwards.
type AgentStep struct {
	ID                 string        `json:"id"`
	AgentName          AgentName     `json:"agent_name"`
	Action             string        `json:"action"`
	Status             StepStatus    `json:"status"`
	Timestamp          time.Time     `json:"timestamp"`
	Description        string        `json:"description,omitempty"`
	Citation           string        `json:"citation,omitempty"`
	Metrics            *AgentMetrics `json:"metrics,omitempty"`
	DetailedLogs       []string      `json:"detailed_logs,omitempty"`
	IntermediateOutput any           `json:"intermediate_output,omitempty"`
}

// StepPatch holds the fields that may be merged into the tail step of a
// trace. Nil/zero fields are left untouched.
type StepPatch struct {
	Status             StepStatus
	Description        string
	Citation           string
	Metrics            *AgentMetrics
	DetailedLogs       []string
	IntermediateOutput any
}

// Citation is a web source reference returned alongside generated text.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}
