// Package session holds the live view of the dashboard: who is signed in,
// which project is on screen, and which runs are in flight. All state is
// mirrored to the local store on mutation so a restart resumes where the
// operator left off.
package session

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/beemnet-bee/viplayer/internal/localstore"
	"github.com/beemnet-bee/viplayer/internal/model"
)

// ErrRunInProgress is returned when a run is requested on a project that
// already has one in flight. The second run is rejected, never queued.
var ErrRunInProgress = eris.New("a run is already in progress for this project")

// DefaultTheme is applied on first launch and restored on logout.
const DefaultTheme = "dark"

// Session is the mutable dashboard state. Mutations persist write-through;
// reads are served from memory.
type Session struct {
	mu        sync.Mutex
	kv        localstore.Store
	user      *model.User
	theme     string
	activeID  string
	grounding []model.Citation
	running   map[string]struct{}
}

// New creates a Session over the given store, restoring the persisted theme
// and session record.
func New(ctx context.Context, kv localstore.Store) *Session {
	s := &Session{
		kv:      kv,
		theme:   DefaultTheme,
		running: make(map[string]struct{}),
	}

	var theme string
	if kv.Load(ctx, localstore.KeyTheme, &theme) && theme != "" {
		s.theme = theme
	}
	var user model.User
	if kv.Load(ctx, localstore.KeyCurrentUser, &user) && user.Email != "" {
		s.user = &user
	}
	return s
}

// CurrentUser returns the signed-in user, if any.
func (s *Session) CurrentUser() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// SetUser replaces the in-memory user after a committed mutation or login.
// The registry write-through already happened in the auth store; this only
// refreshes the projection.
func (s *Session) SetUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	if _, ok := findProject(user, s.activeID); !ok {
		s.activeID = ""
	}
}

// Clear resets the session on logout: user gone, projection empty, theme
// back to the default. The persisted theme is reset in the same call.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.activeID = ""
	s.grounding = nil
	s.theme = DefaultTheme
	s.mu.Unlock()

	return eris.Wrap(s.kv.Save(ctx, localstore.KeyTheme, DefaultTheme), "session: persist theme")
}

// Theme returns the current UI theme.
func (s *Session) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// SetTheme updates and persists the UI theme.
func (s *Session) SetTheme(ctx context.Context, theme string) error {
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()

	return eris.Wrap(s.kv.Save(ctx, localstore.KeyTheme, theme), "session: persist theme")
}

// ActiveProject returns the project currently on screen.
func (s *Session) ActiveProject() (model.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.activeID == "" {
		return model.Project{}, false
	}
	return findProject(*s.user, s.activeID)
}

// SetActive switches the on-screen project. Unknown ids report false and
// leave the projection unchanged.
func (s *Session) SetActive(projectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return false
	}
	if _, ok := findProject(*s.user, projectID); !ok {
		return false
	}
	s.activeID = projectID
	s.grounding = nil
	return true
}

// ClearActive empties the projection, e.g. after the active project was
// deleted.
func (s *Session) ClearActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = ""
	s.grounding = nil
}

// Grounding returns the citations backing the active plan.
func (s *Session) Grounding() []model.Citation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Citation, len(s.grounding))
	copy(out, s.grounding)
	return out
}

// SetGrounding replaces the citations backing the active plan.
func (s *Session) SetGrounding(citations []model.Citation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grounding = make([]model.Citation, len(citations))
	copy(s.grounding, citations)
}

// AcquireRun takes the per-project run lock. The release func must be called
// exactly once, normally via defer; a second acquire while held returns
// ErrRunInProgress.
func (s *Session) AcquireRun(projectID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.running[projectID]; held {
		return nil, ErrRunInProgress
	}
	s.running[projectID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.running, projectID)
		})
	}, nil
}

// Thinking reports whether any run is in flight. Derived observability only;
// mutual exclusion comes from AcquireRun.
func (s *Session) Thinking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running) > 0
}

func findProject(user model.User, id string) (model.Project, bool) {
	if id == "" {
		return model.Project{}, false
	}
	for _, p := range user.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}
