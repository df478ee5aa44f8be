// Package auth implements the local identity registry. Credentials are
// compared in plaintext; the Store interface is the seam where a hashed
// implementation would slot in without touching the orchestrator.
package auth

import (
	"context"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/beemnet-bee/viplayer/internal/localstore"
	"github.com/beemnet-bee/viplayer/internal/model"
)

// Validation failures are surfaced to the user verbatim and are never
// written to the audit log.
var (
	ErrInvalidCredentials = eris.New("invalid credentials, identity check failed")
	ErrNameTooShort       = eris.New("name must be at least 3 characters")
	ErrInvalidEmail       = eris.New("enter a valid email address")
	ErrPasswordTooShort   = eris.New("password must be at least 6 characters")
	ErrDuplicateEmail     = eris.New("this email is already registered")
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Store manages the user registry and the active session record.
type Store interface {
	Register(ctx context.Context, name, email, password string) (model.User, error)
	Login(ctx context.Context, email, password string) (model.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (model.User, bool)
	SaveUser(ctx context.Context, user model.User) error
	Registry(ctx context.Context) []model.User
}

// localStore backs Store with the key-value local store.
type localStore struct {
	kv localstore.Store
}

// New creates an auth store over the given persistence layer.
func New(kv localstore.Store) Store {
	return &localStore{kv: kv}
}

func (s *localStore) Registry(ctx context.Context) []model.User {
	var users []model.User
	s.kv.Load(ctx, localstore.KeyRegisteredUsers, &users)
	return users
}

func (s *localStore) Register(ctx context.Context, name, email, password string) (model.User, error) {
	if len(name) < 3 {
		return model.User{}, ErrNameTooShort
	}
	if !emailPattern.MatchString(email) {
		return model.User{}, ErrInvalidEmail
	}
	if len(password) < 6 {
		return model.User{}, ErrPasswordTooShort
	}

	users := s.Registry(ctx)
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return model.User{}, ErrDuplicateEmail
		}
	}

	user := model.User{Name: name, Email: email, Password: password, Projects: []model.Project{}}
	if err := s.SaveUser(ctx, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *localStore) Login(ctx context.Context, email, password string) (model.User, error) {
	for _, u := range s.Registry(ctx) {
		if strings.EqualFold(u.Email, email) && u.Password == password {
			if err := s.kv.Save(ctx, localstore.KeyCurrentUser, u); err != nil {
				return model.User{}, eris.Wrap(err, "auth: persist session")
			}
			return u, nil
		}
	}
	return model.User{}, ErrInvalidCredentials
}

func (s *localStore) Logout(ctx context.Context) error {
	return eris.Wrap(s.kv.Delete(ctx, localstore.KeyCurrentUser), "auth: clear session")
}

func (s *localStore) CurrentUser(ctx context.Context) (model.User, bool) {
	var user model.User
	if !s.kv.Load(ctx, localstore.KeyCurrentUser, &user) || user.Email == "" {
		return model.User{}, false
	}
	return user, true
}

// SaveUser upserts the user into the registry (keyed by email) and mirrors
// it as the active session record. This is the write-through point every
// committed mutation funnels into.
func (s *localStore) SaveUser(ctx context.Context, user model.User) error {
	users := s.Registry(ctx)
	replaced := false
	for i, u := range users {
		if strings.EqualFold(u.Email, user.Email) {
			users[i] = user
			replaced = true
			break
		}
	}
	if !replaced {
		users = append(users, user)
	}

	if err := s.kv.Save(ctx, localstore.KeyRegisteredUsers, users); err != nil {
		return eris.Wrap(err, "auth: persist registry")
	}
	if err := s.kv.Save(ctx, localstore.KeyCurrentUser, user); err != nil {
		return eris.Wrap(err, "auth: persist session")
	}
	return nil
}
