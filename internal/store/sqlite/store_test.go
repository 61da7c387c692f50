package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"socialmedia/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestCreateUser_FirstIsAdmin(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.CreateUser(ctx, store.NewUser{Username: "alice", Email: "a@example.com", PasswordHash: "h", AdminIfFirst: true})
	require.NoError(t, err)
	assert.True(t, first.IsAdmin)
	assert.NotZero(t, first.ID)

	second, err := s.CreateUser(ctx, store.NewUser{Username: "bob", Email: "b@example.com", PasswordHash: "h", AdminIfFirst: true})
	require.NoError(t, err)
	assert.False(t, second.IsAdmin)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCreateUser_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.CreateUser(ctx, store.NewUser{Username: "alice", Email: "a@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	t.Run("username", func(t *testing.T) {
		_, err := s.CreateUser(ctx, store.NewUser{Username: "alice", Email: "other@example.com", PasswordHash: "h"})
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})
	t.Run("email", func(t *testing.T) {
		_, err := s.CreateUser(ctx, store.NewUser{Username: "carol", Email: "a@example.com", PasswordHash: "h"})
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})
}

func TestUserLookups(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	u, err := s.CreateUser(ctx, store.NewUser{Username: "alice", Email: "a@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	byID, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "hash", byID.PasswordHash)

	byName, err := s.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = s.UserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.UserByID(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetAdmin(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.CreateUser(ctx, store.NewUser{Username: "alice", Email: "a@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	require.NoError(t, s.SetAdmin(ctx, "alice", true))
	u, err := s.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	assert.ErrorIs(t, s.SetAdmin(ctx, "ghost", true), store.ErrNotFound)
}

func TestPosts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	alice, err := s.CreateUser(ctx, store.NewUser{Username: "alice", Email: "a@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, store.NewUser{Username: "bob", Email: "b@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	p1, err := s.CreatePost(ctx, store.NewPost{UserID: alice.ID, Content: "first"})
	require.NoError(t, err)
	assert.Equal(t, "alice", p1.Author)
	_, err = s.CreatePost(ctx, store.NewPost{UserID: bob.ID, Content: "from bob", ImagePath: "uploads/x.png"})
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, store.NewPost{UserID: alice.ID, Content: "second"})
	require.NoError(t, err)

	mine, err := s.PostsByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "second", mine[0].Content)
	assert.Equal(t, "first", mine[1].Content)
	assert.Empty(t, mine[0].ImagePath)

	all, err := s.RecentPosts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "second", all[0].Content)
	assert.Equal(t, "uploads/x.png", all[1].ImagePath)
	assert.Equal(t, "bob", all[1].Author)

	limited, err := s.RecentPosts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = s.CreatePost(ctx, store.NewPost{UserID: 12345, Content: "orphan"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEnsureSuperuser(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	created, err := store.EnsureSuperuser(ctx, s, "admin", "admin@example.com", "hash")
	require.NoError(t, err)
	assert.True(t, created)

	u, err := s.UserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	created, err = store.EnsureSuperuser(ctx, s, "admin", "admin@example.com", "hash")
	require.NoError(t, err)
	assert.False(t, created)
}
