package repository

import (
	"context"
	"testing"

	"wonderwomen/internal/domain/user/model"
	"wonderwomen/internal/pkg/apperr"
	"wonderwomen/internal/store"
	"wonderwomen/internal/store/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (UserRepository, *store.Store) {
	t.Helper()
	s := store.New(kv.NewMemory())
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	return NewUserRepository(s), s
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("seeded users are reachable", func(t *testing.T) {
		repo, _ := newRepo(t)
		u, err := repo.GetByUsername("admin")
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, u.Role)

		byID, err := repo.GetByID(u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Username, byID.Username)

		_, err = repo.GetByUsername("ghost")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("create rejects duplicate usernames", func(t *testing.T) {
		repo, s := newRepo(t)
		before := len(s.Snapshot().Users)

		_, err := repo.Create(ctx, model.User{ID: "new", Username: "nia", Name: "Nia", Role: model.RoleMentee})
		require.NoError(t, err)
		assert.Len(t, s.Snapshot().Users, before+1)

		_, err = repo.Create(ctx, model.User{ID: "new2", Username: "nia", Name: "Other", Role: model.RoleMentee})
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Len(t, s.Snapshot().Users, before+1)
	})

	t.Run("update", func(t *testing.T) {
		repo, _ := newRepo(t)
		u, err := repo.GetByUsername("mentee")
		require.NoError(t, err)

		updated, err := repo.Update(ctx, u.ID, func(u *model.User) error {
			u.Bio = "changed"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "changed", updated.Bio)

		again, err := repo.GetByID(u.ID)
		require.NoError(t, err)
		assert.Equal(t, "changed", again.Bio)

		_, err = repo.Update(ctx, "missing", func(*model.User) error { return nil })
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
