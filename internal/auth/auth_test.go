package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beemnet-bee/viplayer/internal/localstore"
	"github.com/beemnet-bee/viplayer/internal/model"
)

func newStore(t *testing.T) Store {
	t.Helper()
	kv, err := localstore.NewSQLite(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, kv.Migrate(context.Background()))
	t.Cleanup(func() { kv.Close() })
	return New(kv)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with empty projects", func(t *testing.T) {
		s := newStore(t)
		user, err := s.Register(ctx, "Ama", "ama@x.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "Ama", user.Name)
		assert.NotNil(t, user.Projects)
		assert.Empty(t, user.Projects)

		registry := s.Registry(ctx)
		require.Len(t, registry, 1)
		assert.Equal(t, "ama@x.com", registry[0].Email)

		// Registration opens a session.
		current, ok := s.CurrentUser(ctx)
		require.True(t, ok)
		assert.Equal(t, "ama@x.com", current.Email)
	})

	t.Run("validation", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Register(ctx, "Am", "ama@x.com", "secret1")
		assert.ErrorIs(t, err, ErrNameTooShort)
		_, err = s.Register(ctx, "Ama", "not-an-email", "secret1")
		assert.ErrorIs(t, err, ErrInvalidEmail)
		_, err = s.Register(ctx, "Ama", "ama@x.com", "short")
		assert.ErrorIs(t, err, ErrPasswordTooShort)

		// Failed registrations never touch the registry.
		assert.Empty(t, s.Registry(ctx))
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Register(ctx, "Ama", "ama@x.com", "secret1")
		require.NoError(t, err)
		_, err = s.Register(ctx, "Other", "AMA@X.COM", "secret2")
		assert.ErrorIs(t, err, ErrDuplicateEmail)
		assert.Len(t, s.Registry(ctx), 1)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.Register(ctx, "Ama", "ama@x.com", "secret1")
	require.NoError(t, err)

	t.Run("idempotent re-login", func(t *testing.T) {
		first, err := s.Login(ctx, "ama@x.com", "secret1")
		require.NoError(t, err)
		second, err := s.Login(ctx, "ama@x.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Len(t, s.Registry(ctx), 1)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.Login(ctx, "ama@x.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := s.Login(ctx, "nobody@x.com", "secret1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.Register(ctx, "Ama", "ama@x.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))

	// Session gone, registry entry persists.
	_, ok := s.CurrentUser(ctx)
	assert.False(t, ok)
	assert.Len(t, s.Registry(ctx), 1)
}

func TestSaveUserUpserts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	user, err := s.Register(ctx, "Ama", "ama@x.com", "secret1")
	require.NoError(t, err)

	user.Projects = append(user.Projects, model.Project{ID: "p1", Name: "Northern Sweep"})
	require.NoError(t, s.SaveUser(ctx, user))

	registry := s.Registry(ctx)
	require.Len(t, registry, 1)
	assert.Len(t, registry[0].Projects, 1)

	current, ok := s.CurrentUser(ctx)
	require.True(t, ok)
	assert.Len(t, current.Projects, 1)
}
