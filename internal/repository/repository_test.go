package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hospital-admin/internal/model"
)

func TestDuplicateKeyMapping(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'bob' for key 'users.uq_users_username'"}, ErrUsernameExists},
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'users.uq_users_email'"}, ErrEmailExists},
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'PRIMARY'"}, ErrConflict},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, duplicateKey(fmt.Errorf("insert: %w", tc.err)), tc.want)
	}
	other := errors.New("boom")
	assert.Equal(t, other, duplicateKey(other))
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\% off\_now%`, likePattern("50% OFF_now"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
	assert.Equal(t, "?,?,?", placeholders(3))
	assert.Equal(t, "", placeholders(0))
}

func newUser(t *testing.T, s *MemoryUserStore, username string, role model.Role) model.User {
	t.Helper()
	u, err := s.Create(context.Background(), model.UserInput{
		Username: username,
		Email:    username + "@Clinic.test",
		FullName: "Full " + username,
		Password: "secret1",
		Role:     role,
	}, 4)
	require.NoError(t, err)
	return u
}

func TestMemoryUserStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryUserStore()

	alice := newUser(t, s, "alice", "")
	bob := newUser(t, s, "bob", model.RoleDoctor)
	assert.Equal(t, model.RolePatient, alice.Role)
	assert.True(t, alice.IsActive)
	assert.Equal(t, "alice@clinic.test", alice.Email)

	_, err := s.Create(ctx, model.UserInput{Username: "alice", Email: "x@y.z", FullName: "x", Password: "secret1"}, 4)
	assert.ErrorIs(t, err, ErrUsernameExists)
	_, err = s.Create(ctx, model.UserInput{Username: "al", Email: "ALICE@clinic.test", FullName: "x", Password: "secret1"}, 4)
	assert.ErrorIs(t, err, ErrEmailExists)

	all, err := s.List(ctx, UserQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, bob.ID, all[0].ID, "newest first")

	found, err := s.List(ctx, UserQuery{Term: "FULL B"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bob", found[0].Username)

	doctors, err := s.List(ctx, UserQuery{Role: model.RoleDoctor})
	require.NoError(t, err)
	assert.Len(t, doctors, 1)

	_, err = s.SetActive(ctx, bob.ID, false)
	require.NoError(t, err)
	active := true
	actives, err := s.List(ctx, UserQuery{Active: &active})
	require.NoError(t, err)
	require.Len(t, actives, 1)
	assert.Equal(t, alice.ID, actives[0].ID)

	u, hash, err := s.Credentials(ctx, "ALICE@clinic.test")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)
	assert.NotEmpty(t, hash)

	name := "bob"
	_, err = s.Update(ctx, alice.ID, model.UserUpdate{Username: &name}, 4)
	assert.ErrorIs(t, err, ErrUsernameExists)

	require.NoError(t, s.Delete(ctx, alice.ID))
	assert.ErrorIs(t, s.Delete(ctx, alice.ID), ErrNotFound)
	_, err = s.GetByID(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBlogStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBlogStore()

	p1, err := s.Create(ctx, model.BlogPostInput{Title: "Chăm sóc răng", Content: "body", Category: "Sức khỏe"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, p1.Status)
	assert.False(t, p1.IsFeatured)
	assert.Equal(t, "suc-khoe", p1.CategorySlug)

	yes := true
	p2, err := s.Create(ctx, model.BlogPostInput{Title: "Flu season", Content: "100% covered", Category: "News",
		Status: model.StatusPublished, IsFeatured: &yes, Author: "Dr. Lan"})
	require.NoError(t, err)

	got, err := s.List(ctx, BlogQuery{Term: "dr. LAN"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p2.ID, got[0].ID)

	got, err = s.List(ctx, BlogQuery{CategorySlug: "SUC-Khoe"})
	require.NoError(t, err)
	require.Len(t, got, 1, "category slugs compare case-insensitively")
	assert.Equal(t, p1.ID, got[0].ID)

	p3, err := s.Create(ctx, model.BlogPostInput{Title: "Mixed", Content: "x", Category: "Tin tức", CategorySlug: " Tin-Tuc "})
	require.NoError(t, err)
	assert.Equal(t, "tin-tuc", p3.CategorySlug)
	mixed := "Noi-Tiet"
	p3, err = s.Update(ctx, p3.ID, model.BlogPostUpdate{CategorySlug: &mixed})
	require.NoError(t, err)
	assert.Equal(t, "noi-tiet", p3.CategorySlug)
	require.NoError(t, s.Delete(ctx, p3.ID))

	got, err = s.List(ctx, BlogQuery{Status: model.StatusDraft})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p1.ID, got[0].ID)

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, model.Category{Value: "news", Label: "News", Slug: "news", Count: 1}, cats[0])

	n, err := s.SetStatusMany(ctx, []int64{p1.ID, 999}, model.StatusPublished)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := s.IncrementViews(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Views)

	n, err = s.DeleteMany(ctx, []int64{p1.ID, p2.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = s.Get(ctx, p1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTokenStore()
	exp := nowUTC().Add(24 * time.Hour)

	require.NoError(t, s.StoreRefresh(ctx, 7, "h1", exp))
	require.NoError(t, s.StoreRefresh(ctx, 7, "h2", exp))
	id, err := s.ValidateRefresh(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	require.NoError(t, s.RevokeByHash(ctx, "h1"))
	_, err = s.ValidateRefresh(ctx, "h1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.RevokeAllForUser(ctx, 7))
	_, err = s.ValidateRefresh(ctx, "h2")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.StoreRefresh(ctx, 8, "old", nowUTC().Add(-24*time.Hour)))
	_, err = s.ValidateRefresh(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
}
