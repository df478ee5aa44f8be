package model

import (
	"fmt"
	"strings"
	"time"
)

// PlacementPriority grades the urgency of a staffing placement.
type PlacementPriority string

const (
	PriorityCritical PlacementPriority = "Critical"
	PriorityHigh     PlacementPriority = "High"
	PriorityRoutine  PlacementPriority = "Routine"
)

// PlacementStatus tracks a placement through its lifecycle.
type PlacementStatus string

const (
	PlacementPlanned   PlacementStatus = "Planned"
	PlacementDeployed  PlacementStatus = "Deployed"
	PlacementCompleted PlacementStatus = "Completed"
)

// Placement is a recommended staffing assignment produced by the matcher
// agent and committed to a project.
type Placement struct {
	ID           string            `json:"id"`
	FacilityName string            `json:"facility_name"`
	Role         string            `json:"role"`
	Reason       string            `json:"reason,omitempty"`
	Priority     PlacementPriority `json:"priority"`
	Status       PlacementStatus   `json:"status"`
}

// NormalizePriority maps free-form agent output onto a known priority.
// Unrecognized values default to Routine.
func NormalizePriority(s string) PlacementPriority {
	switch {
	case strings.EqualFold(s, "critical"):
		return PriorityCritical
	case strings.EqualFold(s, "high"), strings.EqualFold(s, "urgent"):
		return PriorityHigh
	default:
		return PriorityRoutine
	}
}

// AnalysisHistoryEntry is a frozen snapshot of one orchestrated run's final
// plan and step trace, kept so prior runs remain inspectable after a newer
// run overwrites the live plan.
type AnalysisHistoryEntry struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Plan      string      `json:"plan"`
	Steps     []AgentStep `json:"steps"`
}

// Project is a named unit of work bundling ingested facility reports and
// the agent-generated strategic plan for a region or operation.
type Project struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	CreatedAt       time.Time              `json:"created_at"`
	Documents       []string               `json:"documents"`
	Reports         []HospitalReport       `json:"reports"`
	AnalysisResult  string                 `json:"analysis_result,omitempty"`
	AnalysisHistory []AnalysisHistoryEntry `json:"analysis_history,omitempty"`
	Placements      []Placement            `json:"placements,omitempty"`
}

// ProjectID builds a time-based project id.
func ProjectID(now time.Time) string {
	return fmt.Sprintf("p%d", now.UnixMilli())
}

// User is a registered operator. The password is stored in plaintext for
// the local-identity model; hardening belongs behind the auth.Store
// interface, not here.
type User struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Projects []Project `json:"projects"`
}
