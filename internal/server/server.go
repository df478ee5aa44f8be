// Package server exposes the dashboard API over HTTP. Run-triggering
// endpoints execute synchronously and answer 409 while the project's run
// lock is held; everything else is a thin JSON view over the session and
// orchestrator.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/beemnet-bee/viplayer/internal/audit"
	"github.com/beemnet-bee/viplayer/internal/auth"
	"github.com/beemnet-bee/viplayer/internal/deserts"
	"github.com/beemnet-bee/viplayer/internal/model"
	"github.com/beemnet-bee/viplayer/internal/orchestrator"
	"github.com/beemnet-bee/viplayer/internal/session"
	"github.com/beemnet-bee/viplayer/internal/trace"
)

// Server bundles the dashboard API dependencies.
type Server struct {
	orch   *orchestrator.Orchestrator
	auth   auth.Store
	sess   *session.Session
	tracer *trace.Tracer
	audit  *audit.Log
}

// New creates the API server.
func New(orch *orchestrator.Orchestrator, authStore auth.Store, sess *session.Session, tracer *trace.Tracer, auditLog *audit.Log) *Server {
	return &Server{
		orch:   orch,
		auth:   authStore,
		sess:   sess,
		tracer: tracer,
		audit:  auditLog,
	}
}

// Router builds the chi router with CORS for the browser dashboard.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/session", s.handleSession)
		r.Put("/theme", s.handleTheme)

		r.Get("/projects", s.handleListProjects)
		r.Post("/projects", s.handleCreateProject)
		r.Delete("/projects/{id}", s.handleDeleteProject)
		r.Post("/projects/{id}/select", s.handleSelectProject)
		r.Post("/projects/{id}/nodes", s.handleAddNode)
		r.Post("/projects/{id}/refresh", s.handleRefresh)
		r.Post("/projects/{id}/match", s.handleMatch)
		r.Post("/projects/{id}/forecast", s.handleForecast)

		r.Get("/trace", s.handleTrace)
		r.Get("/audit", s.handleAudit)
		r.Get("/deserts", s.handleDeserts)
	})

	return r
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionView is the GET /api/session payload. Passwords never leave the
// server.
type sessionView struct {
	User          *userView        `json:"user,omitempty"`
	Theme         string           `json:"theme"`
	ActiveProject *model.Project   `json:"active_project,omitempty"`
	Plan          string           `json:"plan,omitempty"`
	Grounding     []model.Citation `json:"grounding,omitempty"`
	Thinking      bool             `json:"thinking"`
}

type userView struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Projects int    `json:"projects"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	s.sess.SetUser(user)
	s.audit.Record("Operator Registered: "+user.Name, user.Name, model.AuditSuccess)
	writeJSON(w, http.StatusCreated, toUserView(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	s.sess.SetUser(user)
	s.audit.Record("Session Opened: "+user.Name, user.Name, model.AuditSuccess)
	writeJSON(w, http.StatusOK, toUserView(user))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	operator := "Operator"
	if user, ok := s.sess.CurrentUser(); ok {
		operator = user.Name
	}
	if err := s.auth.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.sess.Clear(r.Context()); err != nil {
		zap.L().Warn("session clear persistence degraded", zap.Error(err))
	}
	s.audit.Record("Session Closed", operator, model.AuditInfo)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	view := sessionView{
		Theme:     s.sess.Theme(),
		Grounding: s.sess.Grounding(),
		Thinking:  s.sess.Thinking(),
	}
	if user, ok := s.sess.CurrentUser(); ok {
		uv := toUserView(user)
		view.User = &uv
	}
	if project, ok := s.sess.ActiveProject(); ok {
		view.ActiveProject = &project
		view.Plan = project.AnalysisResult
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Theme != "dark" && req.Theme != "light" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "theme must be dark or light"})
		return
	}
	if err := s.sess.SetTheme(r.Context(), req.Theme); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": req.Theme})
}

func (s *Server) handleListProjects(w http.ResponseWriter, _ *http.Request) {
	user, ok := s.sess.CurrentUser()
	if !ok {
		writeError(w, orchestrator.ErrNotSignedIn)
		return
	}
	writeJSON(w, http.StatusOK, user.Projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Documents []struct {
			Name    string `json:"name"`
			Content string `json:"content"`
		} `json:"documents"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	docs := make([]orchestrator.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = orchestrator.Document{Name: d.Name, Reader: strings.NewReader(d.Content)}
	}

	project, err := s.orch.CreateProject(r.Context(), req.Name, docs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSelectProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sess.SetActive(id) {
		writeError(w, orchestrator.ErrProjectNotFound)
		return
	}
	project, _ := s.sess.ActiveProject()
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	if !s.requireActive(w, chi.URLParam(r, "id")) {
		return
	}
	var req struct {
		FacilityName string `json:"facility_name"`
		Region       string `json:"region"`
		Text         string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	report, err := s.orch.AddManualNode(r.Context(), req.FacilityName, req.Region, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.requireActive(w, chi.URLParam(r, "id")) {
		return
	}
	plan, err := s.orch.RefreshDiscovery(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":      plan,
		"grounding": s.sess.Grounding(),
	})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if !s.requireActive(w, chi.URLParam(r, "id")) {
		return
	}
	placements, err := s.orch.MatchExpertise(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, placements)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if !s.requireActive(w, chi.URLParam(r, "id")) {
		return
	}
	forecasts, err := s.orch.ForecastNeeds(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, forecasts)
}

func (s *Server) handleTrace(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracer.Steps())
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	status := model.AuditStatus(r.URL.Query().Get("status"))
	writeJSON(w, http.StatusOK, s.audit.Filter(status))
}

func (s *Server) handleDeserts(w http.ResponseWriter, _ *http.Request) {
	rows, err := deserts.Load()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// requireActive routes the per-project run endpoints onto the session's
// active projection, switching it when the operator targets another project.
func (s *Server) requireActive(w http.ResponseWriter, id string) bool {
	if active, ok := s.sess.ActiveProject(); ok && active.ID == id {
		return true
	}
	if !s.sess.SetActive(id) {
		writeError(w, orchestrator.ErrProjectNotFound)
		return false
	}
	return true
}

func toUserView(user model.User) userView {
	return userView{Name: user.Name, Email: user.Email, Projects: len(user.Projects)}
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrRunInProgress):
		status = http.StatusConflict
	case errors.Is(err, orchestrator.ErrNotSignedIn),
		errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, orchestrator.ErrProjectNotFound):
		status = http.StatusNotFound
	case errors.Is(err, orchestrator.ErrProjectNameRequired),
		errors.Is(err, orchestrator.ErrNoActiveProject),
		errors.Is(err, orchestrator.ErrFacilityNameRequired),
		errors.Is(err, orchestrator.ErrNoReports),
		errors.Is(err, auth.ErrNameTooShort),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrDuplicateEmail):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
