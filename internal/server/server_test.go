package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beemnet-bee/viplayer/internal/agents"
	"github.com/beemnet-bee/viplayer/internal/audit"
	"github.com/beemnet-bee/viplayer/internal/auth"
	"github.com/beemnet-bee/viplayer/internal/localstore"
	"github.com/beemnet-bee/viplayer/internal/model"
	"github.com/beemnet-bee/viplayer/internal/orchestrator"
	"github.com/beemnet-bee/viplayer/internal/session"
	"github.com/beemnet-bee/viplayer/internal/trace"
)

// happyAgents returns successful canned responses for every operation.
type happyAgents struct{}

func (happyAgents) ParseReport(context.Context, string) (*model.ExtractedData, *model.AgentMetrics, error) {
	return &model.ExtractedData{FacilityName: "Wa Regional Hospital", Gaps: []string{"Anesthesia"}, Confidence: 0.92},
		&model.AgentMetrics{ExecutionTimeMs: 10}, nil
}

func (happyAgents) DiscoverFacilities(context.Context, string) (*agents.DiscoveryResult, error) {
	return &agents.DiscoveryResult{
		Data:      []model.HospitalReport{{FacilityName: "Bolgatanga Central", Region: "Upper East"}},
		Grounding: []model.Citation{{Title: "GHS bulletin", URI: "https://example.com"}},
		Metrics:   &model.AgentMetrics{ExecutionTimeMs: 20},
	}, nil
}

func (happyAgents) GenerateStrategy(context.Context, []model.HospitalReport) (*agents.StrategyResult, error) {
	return &agents.StrategyResult{Text: "## Plan", Metrics: &model.AgentMetrics{ExecutionTimeMs: 30}}, nil
}

func (happyAgents) MatchExpertise(context.Context, []model.HospitalReport) (*agents.MatchResult, error) {
	return &agents.MatchResult{
		Recommendations: []agents.Recommendation{{Facility: "Wa Regional Hospital", Role: "Anesthesiologist", Priority: "Critical"}},
		Metrics:         &model.AgentMetrics{ExecutionTimeMs: 15},
	}, nil
}

func (happyAgents) ForecastNeeds(context.Context, []model.HospitalReport) (*agents.ForecastResult, error) {
	return &agents.ForecastResult{
		Forecasts: []agents.Forecast{{Region: "Upper West", FutureGap: "surgical capacity", Probability: 0.6, Timeframe: "12 months"}},
		Metrics:   &model.AgentMetrics{ExecutionTimeMs: 15},
	}, nil
}

type fixture struct {
	ts   *httptest.Server
	sess *session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := localstore.NewSQLite(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { store.Close() })

	authStore := auth.New(store)
	sess := session.New(ctx, store)
	tracer := trace.New()
	auditLog := audit.New(50)
	orch := orchestrator.New(happyAgents{}, authStore, sess, tracer, auditLog, 25)

	srv := New(orch, authStore, sess, tracer, auditLog)
	ts := httptest.NewServer(srv.Router([]string{"*"}))
	t.Cleanup(ts.Close)

	return &fixture{ts: ts, sess: sess}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (f *fixture) register(t *testing.T) {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Ama Mensah", "email": "ama@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func (f *fixture) createProject(t *testing.T) model.Project {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/projects", map[string]any{
		"name": "Northern Sweep",
		"documents": []map[string]string{
			{"name": "report.txt", "content": "facility notes"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[model.Project](t, resp)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	f.register(t)

	resp := f.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Ama Mensah", "email": "ama@example.com", "password": "secret1",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.register(t)

	resp := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ama@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ama@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := decode[map[string]any](t, resp)
	assert.Equal(t, "Ama Mensah", user["name"])
	assert.NotContains(t, user, "password")
}

func TestProjectLifecycle(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	project := f.createProject(t)
	assert.Equal(t, "Northern Sweep", project.Name)
	assert.Equal(t, "## Plan", project.AnalysisResult)

	// Session now shows the active project.
	resp := f.do(t, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[map[string]any](t, resp)
	assert.NotNil(t, view["active_project"])
	assert.Equal(t, false, view["thinking"])

	// Trace shows the completed run.
	resp = f.do(t, http.MethodGet, "/api/trace", nil)
	steps := decode[[]model.AgentStep](t, resp)
	require.Len(t, steps, 3)
	assert.Equal(t, model.StepCompleted, steps[2].Status)

	// Delete clears the projection.
	resp = f.do(t, http.MethodDelete, "/api/projects/"+project.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodGet, "/api/session", nil)
	view = decode[map[string]any](t, resp)
	assert.Nil(t, view["active_project"])
}

func TestRunEndpoints(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	project := f.createProject(t)

	resp := f.do(t, http.MethodPost, "/api/projects/"+project.ID+"/nodes", map[string]string{
		"facility_name": "Wa Hospital", "region": "Upper West", "text": "notes",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	report := decode[model.HospitalReport](t, resp)
	assert.NotNil(t, report.Coordinates)

	resp = f.do(t, http.MethodPost, "/api/projects/"+project.ID+"/match", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	placements := decode[[]model.Placement](t, resp)
	require.Len(t, placements, 1)
	assert.Equal(t, model.PriorityCritical, placements[0].Priority)

	resp = f.do(t, http.MethodPost, "/api/projects/"+project.ID+"/forecast", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/api/projects/missing/refresh", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestRunLockConflict(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	project := f.createProject(t)

	release, err := f.sess.AcquireRun(project.ID)
	require.NoError(t, err)
	defer release()

	resp := f.do(t, http.MethodPost, "/api/projects/"+project.ID+"/refresh", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestThemeValidation(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPut, "/api/theme", map[string]string{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodPut, "/api/theme", map[string]string{"theme": "light"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestLogoutResetsTheme(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	resp := f.do(t, http.MethodPut, "/api/theme", map[string]string{"theme": "light"})
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodGet, "/api/session", nil)
	view := decode[map[string]any](t, resp)
	assert.Equal(t, "dark", view["theme"])
	assert.Nil(t, view["user"])
}

func TestDeserts(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/deserts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows := decode[[]model.MedicalDesert](t, resp)
	assert.Len(t, rows, 4)
}

func TestAuditFilter(t *testing.T) {
	f := newFixture(t)
	f.register(t)

	resp := f.do(t, http.MethodGet, "/api/audit?status=success", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decode[[]model.AuditEntry](t, resp)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Equal(t, model.AuditSuccess, e.Status)
	}

	resp = f.do(t, http.MethodGet, "/api/audit", nil)
	all := decode[[]model.AuditEntry](t, resp)
	assert.Greater(t, len(all), len(entries))
}