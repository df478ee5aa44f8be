package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beemnet-bee/viplayer/internal/model"
)

func twoProjects() model.User {
	return model.User{
		Name:  "Ama",
		Email: "ama@x.com",
		Projects: []model.Project{
			{ID: "p1", Name: "First", Reports: []model.HospitalReport{{ID: "r1", FacilityName: "Korle-Bu"}}},
			{ID: "p2", Name: "Second", Reports: []model.HospitalReport{{ID: "r2", FacilityName: "Tamale"}}},
		},
	}
}

func TestCreateProjectDoesNotAliasOriginal(t *testing.T) {
	user := twoProjects()
	updated := CreateProject(user, model.Project{ID: "p3", Name: "Third"})

	assert.Len(t, updated.Projects, 3)
	assert.Len(t, user.Projects, 2)
}

func TestDeleteProject(t *testing.T) {
	user := twoProjects()

	updated, found := DeleteProject(user, "p1")
	assert.True(t, found)
	require.Len(t, updated.Projects, 1)
	assert.Equal(t, "p2", updated.Projects[0].ID)

	_, found = DeleteProject(user, "missing")
	assert.False(t, found)
}

func TestReplaceProject(t *testing.T) {
	user := twoProjects()

	replacement := user.Projects[0]
	replacement.Name = "Renamed"
	updated := ReplaceProject(user, replacement)

	assert.Equal(t, "Renamed", updated.Projects[0].Name)
	assert.Equal(t, "First", user.Projects[0].Name)

	// Unmatched id leaves everything as-is.
	same := ReplaceProject(user, model.Project{ID: "missing"})
	assert.Equal(t, user.Projects, same.Projects)
}

func TestAppendReportIsolation(t *testing.T) {
	user := twoProjects()
	p1, ok := FindProject(user, "p1")
	require.True(t, ok)

	p1 = AppendReport(p1, model.HospitalReport{ID: "r3", FacilityName: "Wa Hospital"})
	user = ReplaceProject(user, p1)

	// Appending to P1 never alters P2.
	assert.Len(t, user.Projects[0].Reports, 2)
	assert.Len(t, user.Projects[1].Reports, 1)
	assert.Equal(t, "r2", user.Projects[1].Reports[0].ID)
}

func TestAppendHistoryCap(t *testing.T) {
	p := model.Project{ID: "p1"}
	for i := 0; i < 5; i++ {
		p = AppendHistory(p, "plan", nil, 3)
	}

	require.Len(t, p.AnalysisHistory, 3)
	for _, e := range p.AnalysisHistory {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestAppendHistoryUnbounded(t *testing.T) {
	p := model.Project{ID: "p1"}
	for i := 0; i < 5; i++ {
		p = AppendHistory(p, "plan", nil, 0)
	}
	assert.Len(t, p.AnalysisHistory, 5)
}

func TestSetPlacementsCopies(t *testing.T) {
	placements := []model.Placement{{ID: "pl1", Role: "Nurse"}}
	p := SetPlacements(model.Project{ID: "p1"}, placements)

	placements[0].Role = "mutated"
	assert.Equal(t, "Nurse", p.Placements[0].Role)
}

func TestUniqueProjectID(t *testing.T) {
	user := twoProjects()
	assert.Equal(t, "p9", UniqueProjectID(user, "p9"))

	suffixed := UniqueProjectID(user, "p1")
	assert.NotEqual(t, "p1", suffixed)
	assert.Contains(t, suffixed, "p1-")
}
