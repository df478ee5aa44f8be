// Package workspace holds the pure update operations on the nested
// User → Project → Report tree. Every operation copies and replaces whole
// values rather than mutating shared slices, so the active-project view and
// the entry inside user.Projects can never alias each other.
package workspace

import (
	"time"

	"github.com/google/uuid"

	"github.com/beemnet-bee/viplayer/internal/model"
)

// CreateProject returns a new User with the project appended.
func CreateProject(user model.User, p model.Project) model.User {
	projects := make([]model.Project, 0, len(user.Projects)+1)
	projects = append(projects, user.Projects...)
	projects = append(projects, p)
	user.Projects = projects
	return user
}

// DeleteProject returns a new User with the project removed. The second
// return reports whether the id existed.
func DeleteProject(user model.User, projectID string) (model.User, bool) {
	projects := make([]model.Project, 0, len(user.Projects))
	found := false
	for _, p := range user.Projects {
		if p.ID == projectID {
			found = true
			continue
		}
		projects = append(projects, p)
	}
	user.Projects = projects
	return user, found
}

// ReplaceProject returns a new User with the matching project replaced.
// Unmatched ids leave the user unchanged.
func ReplaceProject(user model.User, p model.Project) model.User {
	projects := make([]model.Project, len(user.Projects))
	for i, existing := range user.Projects {
		if existing.ID == p.ID {
			projects[i] = p
		} else {
			projects[i] = existing
		}
	}
	user.Projects = projects
	return user
}

// FindProject looks up a project by id.
func FindProject(user model.User, projectID string) (model.Project, bool) {
	for _, p := range user.Projects {
		if p.ID == projectID {
			return p, true
		}
	}
	return model.Project{}, false
}

// AppendReport returns a new Project with the report appended. Reports are
// append-only within a project.
func AppendReport(p model.Project, r model.HospitalReport) model.Project {
	return AppendReports(p, []model.HospitalReport{r})
}

// AppendReports returns a new Project with all reports appended.
func AppendReports(p model.Project, rs []model.HospitalReport) model.Project {
	reports := make([]model.HospitalReport, 0, len(p.Reports)+len(rs))
	reports = append(reports, p.Reports...)
	reports = append(reports, rs...)
	p.Reports = reports
	return p
}

// AppendHistory returns a new Project with a frozen analysis snapshot
// appended, trimming the oldest entries beyond max (0 means unbounded).
func AppendHistory(p model.Project, plan string, steps []model.AgentStep, max int) model.Project {
	entry := model.AnalysisHistoryEntry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Plan:      plan,
		Steps:     steps,
	}
	history := make([]model.AnalysisHistoryEntry, 0, len(p.AnalysisHistory)+1)
	history = append(history, p.AnalysisHistory...)
	history = append(history, entry)
	if max > 0 && len(history) > max {
		history = history[len(history)-max:]
	}
	p.AnalysisHistory = history
	return p
}

// SetPlacements returns a new Project with its placements replaced.
func SetPlacements(p model.Project, placements []model.Placement) model.Project {
	copied := make([]model.Placement, len(placements))
	copy(copied, placements)
	p.Placements = copied
	return p
}

// SetPlan returns a new Project with its live analysis result replaced.
func SetPlan(p model.Project, plan string) model.Project {
	p.AnalysisResult = plan
	return p
}

// UniqueProjectID returns id, suffixed if needed so it does not collide
// with any existing project of the user.
func UniqueProjectID(user model.User, id string) string {
	if _, exists := FindProject(user, id); !exists {
		return id
	}
	return id + "-" + uuid.New().String()[:8]
}
