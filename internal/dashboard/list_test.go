package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hospital-admin/internal/filter"
	"github.com/iliyamo/hospital-admin/internal/logging"
	"github.com/iliyamo/hospital-admin/internal/model"
)

func staffUsers() []model.User {
	return []model.User{
		{ID: 3, Username: "lan", Role: model.RoleDoctor, IsActive: true},
		{ID: 2, Username: "minh", Role: model.RoleStaff, IsActive: true},
		{ID: 1, Username: "admin", Role: model.RoleAdmin, IsActive: true},
	}
}

func TestOverlappingCriteriaKeepLatest(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	search := func(_ context.Context, term, _ string) ([]model.User, error) {
		if term == "lan" {
			close(entered)
			<-release
		}
		return []model.User{{ID: 3}}, nil
	}
	load := func(context.Context) ([]model.User, error) { return staffUsers(), nil }
	l := newList(load, filter.UserFields, search, logging.Discard())
	ctx := context.Background()
	require.NoError(t, l.Refresh(ctx))

	done := make(chan []model.User)
	go func() { done <- l.SetTerm(ctx, "lan") }()
	<-entered
	assert.Len(t, l.ClearFilters(ctx), 3)
	close(release)
	<-done

	assert.True(t, l.Criteria().Empty())
	assert.Len(t, l.Visible(), 3, "the slower, older search does not overwrite the newer result")
}

func TestOverlappingRefreshKeepsNewestLoad(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	calls := 0
	load := func(context.Context) ([]model.User, error) {
		calls++
		if calls == 1 {
			close(firstStarted)
			<-releaseFirst
			return staffUsers(), nil
		}
		return staffUsers()[:1], nil
	}
	l := newList(load, filter.UserFields, nil, logging.Discard())
	ctx := context.Background()

	done := make(chan error)
	go func() { done <- l.Refresh(ctx) }()
	<-firstStarted
	require.NoError(t, l.Refresh(ctx))
	close(releaseFirst)
	require.NoError(t, <-done)

	assert.Len(t, l.All(), 1)
	assert.Len(t, l.Visible(), 1)
}
