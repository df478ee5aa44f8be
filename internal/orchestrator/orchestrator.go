// Package orchestrator sequences the agent calls behind every dashboard
// action. A run validates its preconditions, takes the project run lock,
// traces each agent step, and commits its project's outcome by merging it
// into the latest user snapshot under a single commit lock. Failures settle
// the run without partial commits beyond already-completed sub-results.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/beemnet-bee/viplayer/internal/agents"
	"github.com/beemnet-bee/viplayer/internal/audit"
	"github.com/beemnet-bee/viplayer/internal/auth"
	"github.com/beemnet-bee/viplayer/internal/model"
	"github.com/beemnet-bee/viplayer/internal/session"
	"github.com/beemnet-bee/viplayer/internal/trace"
	"github.com/beemnet-bee/viplayer/internal/workspace"
)

// SourceBoundary separates concatenated document contents fed to the parser.
const SourceBoundary = "\n\n--- SOURCE BOUNDARY ---\n\n"

// Guard failures. Surfaced synchronously before a run enters Running; they
// never produce tracer steps or audit entries.
var (
	ErrNotSignedIn          = eris.New("no operator is signed in")
	ErrProjectNameRequired  = eris.New("project name is required")
	ErrNoActiveProject      = eris.New("no active project selected")
	ErrFacilityNameRequired = eris.New("facility name is required")
	ErrNoReports            = eris.New("the active project has no reports")
	ErrProjectNotFound      = eris.New("project not found")
)

// Document is one text-bearing input for project creation.
type Document struct {
	Name   string
	Reader io.Reader
}

// Orchestrator drives the multi-agent runs and owns their commits.
type Orchestrator struct {
	agents     agents.Client
	auth       auth.Store
	sess       *session.Session
	tracer     *trace.Tracer
	audit      *audit.Log
	historyMax int

	// commitMu serializes all workspace commits. Each commit merges one
	// project's delta into the freshest user snapshot, never writing back the
	// whole user a run read at entry.
	commitMu sync.Mutex
}

// New wires the orchestrator over its collaborators. historyMax caps the
// per-project analysis history (0 means unbounded).
func New(agentClient agents.Client, authStore auth.Store, sess *session.Session, tracer *trace.Tracer, auditLog *audit.Log, historyMax int) *Orchestrator {
	return &Orchestrator{
		agents:     agentClient,
		auth:       authStore,
		sess:       sess,
		tracer:     tracer,
		audit:      auditLog,
		historyMax: historyMax,
	}
}

// CreateProject runs ingestion → grounding → planning and commits a new
// project. Zero documents is allowed: the parser runs on empty text and the
// project starts from discovered facilities only.
func (o *Orchestrator) CreateProject(ctx context.Context, name string, docs []Document) (model.Project, error) {
	user, ok := o.sess.CurrentUser()
	if !ok {
		return model.Project{}, ErrNotSignedIn
	}
	if strings.TrimSpace(name) == "" {
		return model.Project{}, ErrProjectNameRequired
	}

	now := time.Now()
	projectID := workspace.UniqueProjectID(user, model.ProjectID(now))
	release, err := o.sess.AcquireRun(projectID)
	if err != nil {
		return model.Project{}, err
	}
	defer release()

	o.tracer.Begin()
	o.tracer.Push(model.AgentStep{
		AgentName:   model.AgentParser,
		Action:      "Multi-Format Ingestion",
		Status:      model.StepActive,
		Description: fmt.Sprintf("Ingesting %d data streams", len(docs)),
	})

	combined, err := readDocuments(docs)
	if err != nil {
		return model.Project{}, o.failRun(user.Name, "Project creation failed: "+name, err)
	}

	parsed, parseMetrics, err := o.agents.ParseReport(ctx, combined)
	if err != nil {
		return model.Project{}, o.failRun(user.Name, "Project creation failed: "+name, err)
	}
	o.tracer.PatchTail(model.StepPatch{
		Status:             model.StepCompleted,
		Metrics:            parseMetrics,
		IntermediateOutput: parsed,
	})

	o.tracer.Push(model.AgentStep{
		AgentName:   model.AgentVerifier,
		Action:      "Global Grounding",
		Status:      model.StepActive,
		Description: "Searching the live web for validation",
	})

	query := parsed.FacilityName
	if query == "" {
		query = name
	}
	discovery, err := o.agents.DiscoverFacilities(ctx, query)
	if err != nil {
		return model.Project{}, o.failRun(user.Name, "Project creation failed: "+name, err)
	}
	o.tracer.PatchTail(model.StepPatch{Status: model.StepCompleted, Metrics: discovery.Metrics})

	reports := buildReports(parsed, combined, discovery.Data, now)

	o.tracer.Push(model.AgentStep{
		AgentName:   model.AgentStrategist,
		Action:      "Strategic Planning",
		Status:      model.StepActive,
		Description: "Synthesizing tactical roadmap",
	})

	strategy, err := o.agents.GenerateStrategy(ctx, reports)
	if err != nil {
		return model.Project{}, o.failRun(user.Name, "Project creation failed: "+name, err)
	}
	o.tracer.PatchTail(model.StepPatch{Status: model.StepCompleted, Metrics: strategy.Metrics})

	project := model.Project{
		ID:             projectID,
		Name:           name,
		CreatedAt:      now.UTC(),
		Documents:      []string{combined},
		Reports:        reports,
		AnalysisResult: strategy.Text,
	}
	project = workspace.AppendHistory(project, strategy.Text, o.tracer.Steps(), o.historyMax)

	user = o.commitNew(ctx, project)
	o.sess.SetActive(project.ID)
	o.sess.SetGrounding(append(discovery.Grounding, strategy.Grounding...))

	o.audit.Record("Project Created: "+name, user.Name, model.AuditSuccess)
	zap.L().Info("project created",
		zap.String("project_id", project.ID),
		zap.Int("reports", len(project.Reports)))
	return project, nil
}

// AddManualNode parses one manually entered report and appends it to the
// active project. The committed report always carries coordinates: the
// fallback generator fills in whatever the parser could not place.
func (o *Orchestrator) AddManualNode(ctx context.Context, facilityName, region, text string) (model.HospitalReport, error) {
	user, ok := o.sess.CurrentUser()
	if !ok {
		return model.HospitalReport{}, ErrNotSignedIn
	}
	project, ok := o.sess.ActiveProject()
	if !ok {
		return model.HospitalReport{}, ErrNoActiveProject
	}
	if strings.TrimSpace(facilityName) == "" {
		return model.HospitalReport{}, ErrFacilityNameRequired
	}

	release, err := o.sess.AcquireRun(project.ID)
	if err != nil {
		return model.HospitalReport{}, err
	}
	defer release()
	user, project, err = o.lockedProject(project.ID)
	if err != nil {
		return model.HospitalReport{}, err
	}

	o.tracer.Begin()
	o.tracer.Push(model.AgentStep{
		AgentName:   model.AgentParser,
		Action:      "Manual Ingestion",
		Status:      model.StepActive,
		Description: "Processing entry for " + facilityName,
	})

	parsed, metrics, err := o.agents.ParseReport(ctx, text)
	if err != nil {
		return model.HospitalReport{}, o.failRun(user.Name, "Node ingestion failed: "+facilityName, err)
	}

	report := buildManualReport(parsed, facilityName, region, text, time.Now())
	o.tracer.PatchTail(model.StepPatch{
		Status:             model.StepCompleted,
		Metrics:            metrics,
		IntermediateOutput: report,
	})

	project = workspace.AppendReport(project, report)
	user = o.commitProject(ctx, project)

	o.audit.Record("Node Added: "+report.FacilityName, user.Name, model.AuditSuccess)
	return report, nil
}

// RefreshDiscovery re-runs discovery for the active project and regenerates
// the plan. Discovered reports commit as soon as the discovery step settles,
// so a later planning failure never discards them.
func (o *Orchestrator) RefreshDiscovery(ctx context.Context) (string, error) {
	user, ok := o.sess.CurrentUser()
	if !ok {
		return "", ErrNotSignedIn
	}
	project, ok := o.sess.ActiveProject()
	if !ok {
		return "", ErrNoActiveProject
	}

	release, err := o.sess.AcquireRun(project.ID)
	if err != nil {
		return "", err
	}
	defer release()
	user, project, err = o.lockedProject(project.ID)
	if err != nil {
		return "", err
	}

	o.tracer.Begin()
	o.tracer.Push(model.AgentStep{
		AgentName:   model.AgentVerifier,
		Action:      "Deep Scrape",
		Status:      model.StepActive,
		Description: "Searching the live web for updates",
	})

	discovery, err := o.agents.DiscoverFacilities(ctx, project.Name)
	if err != nil {
		return "", o.failRun(user.Name, "Discovery refresh failed: "+project.Name, err)
	}

	added := mergeDiscovered(project.Reports, discovery.Data)
	project = workspace.AppendReports(project, added)
	user = o.commitProject(ctx, project)
	o.sess.SetGrounding(append(o.sess.Grounding(), discovery.Grounding...))
	o.tracer.PatchTail(model.StepPatch{
		Status:       model.StepCompleted,
		Metrics:      discovery.Metrics,
		DetailedLogs: []string{fmt.Sprintf("%d new facilities merged", len(added))},
	})

	o.tracer.Push(model.AgentStep{
		AgentName:   model.AgentStrategist,
		Action:      "Logic Synthesis",
		Status:      model.StepActive,
		Description: "Recalculating resource horizons",
	})

	strategy, err := o.agents.GenerateStrategy(ctx, project.Reports)
	if err != nil {
		return "", o.failRun(user.Name, "Discovery refresh failed: "+project.Name, err)
	}
	o.tracer.PatchTail(model.StepPatch{Status: model.StepCompleted, Metrics: strategy.Metrics})

	project = workspace.SetPlan(project, strategy.Text)
	project = workspace.AppendHistory(project, strategy.Text, o.tracer.Steps(), o.historyMax)
	user = o.commitProject(ctx, project)
	o.sess.SetGrounding(append(o.sess.Grounding(), strategy.Grounding...))

	o.audit.Record("Discovery Refreshed: "+project.Name, user.Name, model.AuditSuccess)
	return strategy.Text, nil
}

// MatchExpertise turns the matcher agent's recommendations into Planned
// placements on the active project.
func (o *Orchestrator) MatchExpertise(ctx context.Context) ([]model.Placement, error) {
	user, ok := o.sess.CurrentUser()
	if !ok {
		return nil, ErrNotSignedIn
	}
	project, ok := o.sess.ActiveProject()
	if !ok {
		return nil, ErrNoActiveProject
	}
	if len(project.Reports) == 0 {
		return nil, ErrNoReports
	}

	release, err := o.sess.AcquireRun(project.ID)
	if err != nil {
		return nil, err
	}
	defer release()
	user, project, err = o.lockedProject(project.ID)
	if err != nil {
		return nil, err
	}

	o.tracer.Begin()
	o.tracer.Push(model.AgentStep{
		AgentName:   model.AgentMatcher,
		Action:      "Expertise Matching",
		Status:      model.StepActive,
		Description: "Mapping specialists onto capability gaps",
	})

	match, err := o.agents.MatchExpertise(ctx, project.Reports)
	if err != nil {
		return nil, o.failRun(user.Name, "Expertise matching failed: "+project.Name, err)
	}

	placements := make([]model.Placement, len(match.Recommendations))
	for i, rec := range match.Recommendations {
		placements[i] = model.Placement{
			ID:           uuid.New().String(),
			FacilityName: rec.Facility,
			Role:         rec.Role,
			Reason:       rec.Reason,
			Priority:     model.NormalizePriority(rec.Priority),
			Status:       model.PlacementPlanned,
		}
	}
	o.tracer.PatchTail(model.StepPatch{
		Status:             model.StepCompleted,
		Metrics:            match.Metrics,
		IntermediateOutput: placements,
	})

	project = workspace.SetPlacements(project, placements)
	user = o.commitProject(ctx, project)

	o.audit.Record("Placements Updated: "+project.Name, user.Name, model.AuditSuccess)
	return placements, nil
}

// ForecastNeeds runs the predictor over the active project's reports. The
// forecast is advisory display data and is not committed to the project.
func (o *Orchestrator) ForecastNeeds(ctx context.Context) ([]agents.Forecast, error) {
	user, ok := o.sess.CurrentUser()
	if !ok {
		return nil, ErrNotSignedIn
	}
	project, ok := o.sess.ActiveProject()
	if !ok {
		return nil, ErrNoActiveProject
	}
	if len(project.Reports) == 0 {
		return nil, ErrNoReports
	}

	release, err := o.sess.AcquireRun(project.ID)
	if err != nil {
		return nil, err
	}
	defer release()
	user, project, err = o.lockedProject(project.ID)
	if err != nil {
		return nil, err
	}

	o.tracer.Begin()
	o.tracer.Push(model.AgentStep{
		AgentName:   model.AgentPredictor,
		Action:      "Desert Forecast",
		Status:      model.StepActive,
		Description: "Projecting infrastructure gap evolution",
	})

	forecast, err := o.agents.ForecastNeeds(ctx, project.Reports)
	if err != nil {
		return nil, o.failRun(user.Name, "Forecast failed: "+project.Name, err)
	}
	o.tracer.PatchTail(model.StepPatch{
		Status:             model.StepCompleted,
		Metrics:            forecast.Metrics,
		IntermediateOutput: forecast.Forecasts,
	})

	o.audit.Record("Forecast Generated: "+project.Name, user.Name, model.AuditSuccess)
	return forecast.Forecasts, nil
}

// DeleteProject removes a project synchronously. When the deleted project
// was on screen, the active projection clears in the same commit. A project
// with a run in flight cannot be deleted: the run's later commit would bring
// it back.
func (o *Orchestrator) DeleteProject(ctx context.Context, projectID string) error {
	user, ok := o.sess.CurrentUser()
	if !ok {
		return ErrNotSignedIn
	}
	if _, ok := workspace.FindProject(user, projectID); !ok {
		return ErrProjectNotFound
	}

	release, err := o.sess.AcquireRun(projectID)
	if err != nil {
		return err
	}
	defer release()

	if active, ok := o.sess.ActiveProject(); ok && active.ID == projectID {
		o.sess.ClearActive()
	}
	user, found := o.commitDelete(ctx, projectID)
	if !found {
		return ErrProjectNotFound
	}

	o.audit.Record("Project Deleted", user.Name, model.AuditInfo)
	return nil
}

// lockedProject re-reads the user and the run's project once the run lock is
// held. Runs work from this snapshot, never from state read before the lock.
func (o *Orchestrator) lockedProject(projectID string) (model.User, model.Project, error) {
	user, ok := o.sess.CurrentUser()
	if !ok {
		return model.User{}, model.Project{}, ErrNotSignedIn
	}
	project, ok := workspace.FindProject(user, projectID)
	if !ok {
		return model.User{}, model.Project{}, ErrProjectNotFound
	}
	return user, project, nil
}

// commitNew merges a freshly created project into the latest user snapshot
// under the commit lock.
func (o *Orchestrator) commitNew(ctx context.Context, project model.Project) model.User {
	o.commitMu.Lock()
	defer o.commitMu.Unlock()
	user, ok := o.sess.CurrentUser()
	if !ok {
		return model.User{}
	}
	user = workspace.CreateProject(user, project)
	o.persist(ctx, user)
	return user
}

// commitProject merges one project's new state into the latest user snapshot
// under the commit lock. Concurrent runs on other projects each commit their
// own delta, so no commit carries a stale copy of another project.
func (o *Orchestrator) commitProject(ctx context.Context, project model.Project) model.User {
	o.commitMu.Lock()
	defer o.commitMu.Unlock()
	user, ok := o.sess.CurrentUser()
	if !ok {
		return model.User{}
	}
	user = workspace.ReplaceProject(user, project)
	o.persist(ctx, user)
	return user
}

// commitDelete removes the project from the latest user snapshot under the
// commit lock.
func (o *Orchestrator) commitDelete(ctx context.Context, projectID string) (model.User, bool) {
	o.commitMu.Lock()
	defer o.commitMu.Unlock()
	user, ok := o.sess.CurrentUser()
	if !ok {
		return model.User{}, false
	}
	user, found := workspace.DeleteProject(user, projectID)
	if !found {
		return user, false
	}
	o.persist(ctx, user)
	return user, true
}

// persist saves the user write-through and refreshes the session projection.
// A persistence failure degrades to a warning: the in-memory state is kept
// and re-saved on the next mutation.
func (o *Orchestrator) persist(ctx context.Context, user model.User) {
	if err := o.auth.SaveUser(ctx, user); err != nil {
		zap.L().Warn("commit persistence degraded", zap.Error(err))
		o.audit.Record("Persistence degraded, state held in memory", user.Name, model.AuditWarning)
	}
	o.sess.SetUser(user)
}

// failRun settles the current run as failed: tail step to error, one audit
// warning, wrapped error back to the caller. Later steps are never pushed.
func (o *Orchestrator) failRun(operator, event string, err error) error {
	o.tracer.PatchTail(model.StepPatch{Status: model.StepError})
	o.audit.Record(event, operator, model.AuditWarning)
	zap.L().Error("run failed", zap.String("event", event), zap.Error(err))
	return eris.Wrap(err, "orchestrator: run failed")
}

// readDocuments reads all documents concurrently and joins the non-empty
// contents with the source boundary marker.
func readDocuments(docs []Document) (string, error) {
	contents := make([]string, len(docs))
	var g errgroup.Group
	for i, d := range docs {
		g.Go(func() error {
			raw, err := io.ReadAll(d.Reader)
			if err != nil {
				return eris.Wrapf(err, "orchestrator: read document %s", d.Name)
			}
			contents[i] = string(raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	parts := make([]string, 0, len(contents))
	for _, c := range contents {
		if len(c) > 0 {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, SourceBoundary), nil
}
