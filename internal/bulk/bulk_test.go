package bulk_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hospital-admin/internal/bulk"
	"github.com/iliyamo/hospital-admin/internal/client"
	"github.com/iliyamo/hospital-admin/internal/model"
	"github.com/iliyamo/hospital-admin/internal/notify"
	"github.com/iliyamo/hospital-admin/internal/testserver"
)

type userList struct {
	items     []model.User
	selected  []int64
	refreshed int
	refresh   func(ctx context.Context) error
}

func (l *userList) Selection() []int64 { return l.selected }

func (l *userList) Item(id int64) (model.User, bool) {
	for _, u := range l.items {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

func (l *userList) ClearSelection() { l.selected = nil }

func (l *userList) Refresh(ctx context.Context) error {
	l.refreshed++
	if l.refresh != nil {
		return l.refresh(ctx)
	}
	return nil
}

func (l *userList) selectAll() {
	l.selected = nil
	for _, u := range l.items {
		l.selected = append(l.selected, u.ID)
	}
}

type fakeExec struct {
	mu    sync.Mutex
	calls []int64
	fail  map[int64]bool

	batchErr      error
	batchAffected int
	batchCalls    int
}

func (f *fakeExec) Supports(k bulk.Kind) bool { return k != bulk.Publish }

func (f *fakeExec) Apply(_ context.Context, _ bulk.Kind, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if f.fail[id] {
		return errors.New("boom")
	}
	return nil
}

type batchExec struct{ *fakeExec }

func (b batchExec) ApplyBatch(_ context.Context, _ bulk.Kind, ids []int64) (int, error) {
	b.batchCalls++
	if b.batchErr != nil {
		return 0, b.batchErr
	}
	return b.batchAffected, nil
}

func fiveUsers() *userList {
	return &userList{items: []model.User{
		{ID: 1, Username: "admin", Role: model.RoleAdmin, IsActive: true},
		{ID: 2, Username: "p2", Role: model.RolePatient, IsActive: true},
		{ID: 3, Username: "p3", Role: model.RolePatient, IsActive: true},
		{ID: 4, Username: "p4", Role: model.RolePatient},
		{ID: 5, Username: "p5", Role: model.RolePatient},
	}}
}

func newUserOrchestrator(exec bulk.Executor, rec *notify.Recorder, confirm bulk.Confirmer) *bulk.Orchestrator[model.User] {
	return bulk.New(bulk.Config[model.User]{
		Noun:      "user",
		Executor:  exec,
		Rules:     bulk.UserRules(),
		Confirmer: confirm,
		Notifier:  rec,
	})
}

func TestDeactivateSkipsAdminsAndInactive(t *testing.T) {
	list := fiveUsers()
	list.selectAll()
	exec := &fakeExec{}
	rec := &notify.Recorder{}
	var prompt string
	confirm := bulk.ConfirmFunc(func(_ context.Context, p string) (bool, error) {
		prompt = p
		return true, nil
	})

	res, err := newUserOrchestrator(exec, rec, confirm).Run(context.Background(), list, bulk.Deactivate)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 3}, exec.calls)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.Ignored)
	assert.Equal(t, 5, res.Requested)
	assert.Equal(t, "Deactivate 2 users? 1 admin will be skipped.", prompt)

	require.Equal(t, 1, rec.Len())
	assert.Equal(t, notify.Notification{Level: notify.Success, Message: "2 deactivated, 1 admin skipped"}, rec.Last())
	assert.Empty(t, list.selected)
	assert.Equal(t, 1, list.refreshed)
}

func TestDeactivateOnlyAdminsMakesNoCalls(t *testing.T) {
	list := fiveUsers()
	list.selected = []int64{1}
	exec := &fakeExec{}
	rec := &notify.Recorder{}
	confirmed := false
	confirm := bulk.ConfirmFunc(func(context.Context, string) (bool, error) {
		confirmed = true
		return true, nil
	})
	o := newUserOrchestrator(exec, rec, confirm)

	_, err := o.Run(context.Background(), list, bulk.Deactivate)
	require.Error(t, err)
	assert.True(t, bulk.IsGuard(err))
	assert.ErrorIs(t, err, bulk.ErrNoEligible)
	assert.Equal(t, bulk.AdminDeactivateMessage, err.Error())
	assert.Empty(t, exec.calls)
	assert.False(t, confirmed)
	assert.Equal(t, notify.Error, rec.Last().Level)
	assert.Equal(t, []int64{1}, list.selected, "rejection leaves the selection alone")
	assert.Equal(t, bulk.Idle, o.State())
}

func TestActivateOnlyInactive(t *testing.T) {
	list := fiveUsers()
	list.selectAll()
	exec := &fakeExec{}
	rec := &notify.Recorder{}

	res, err := newUserOrchestrator(exec, rec, nil).Run(context.Background(), list, bulk.Activate)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{4, 5}, exec.calls)
	assert.Equal(t, "2 activated", rec.Last().Message)
	assert.Zero(t, res.Skipped)

	list.selected = []int64{2, 3}
	_, err = newUserOrchestrator(exec, rec, nil).Run(context.Background(), list, bulk.Activate)
	assert.ErrorIs(t, err, bulk.ErrNoEligible)
	assert.Equal(t, notify.Notification{Level: notify.Warning, Message: "no inactive users selected"}, rec.Last())
}

func TestEmptySelectionWarns(t *testing.T) {
	list := fiveUsers()
	exec := &fakeExec{}
	rec := &notify.Recorder{}
	for _, k := range []bulk.Kind{bulk.Delete, bulk.Activate, bulk.Deactivate} {
		_, err := newUserOrchestrator(exec, rec, nil).Run(context.Background(), list, k)
		assert.ErrorIs(t, err, bulk.ErrEmptySelection)
	}
	assert.Empty(t, exec.calls)
	assert.Equal(t, 3, rec.Len())
	assert.Equal(t, notify.Notification{Level: notify.Warning, Message: "no users selected"}, rec.Last())
}

func TestUnsupportedActionRejected(t *testing.T) {
	list := fiveUsers()
	list.selectAll()
	exec := &fakeExec{}
	_, err := newUserOrchestrator(exec, &notify.Recorder{}, nil).Run(context.Background(), list, bulk.Publish)
	assert.ErrorIs(t, err, bulk.ErrUnsupportedAction)
	assert.Empty(t, exec.calls)
}

func TestCancelLeavesEverythingUntouched(t *testing.T) {
	list := fiveUsers()
	list.selectAll()
	exec := &fakeExec{}
	rec := &notify.Recorder{}
	var states []bulk.State
	o := bulk.New(bulk.Config[model.User]{
		Noun:         "user",
		Executor:     exec,
		Confirmer:    bulk.ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil }),
		Notifier:     rec,
		OnTransition: func(_, to bulk.State) { states = append(states, to) },
	})

	_, err := o.Run(context.Background(), list, bulk.Delete)
	assert.ErrorIs(t, err, bulk.ErrCancelled)
	assert.Empty(t, exec.calls)
	assert.Len(t, list.selected, 5)
	assert.Zero(t, list.refreshed)
	assert.Equal(t, []bulk.State{bulk.Confirming, bulk.Cancelled, bulk.Idle}, states)
	assert.Equal(t, 1, rec.Len())
}

func TestPartialFailureNeverAborts(t *testing.T) {
	for _, conc := range []int{1, 4} {
		list := fiveUsers()
		list.selectAll()
		exec := &fakeExec{fail: map[int64]bool{2: true, 4: true}}
		rec := &notify.Recorder{}
		var states []bulk.State
		o := bulk.New(bulk.Config[model.User]{
			Noun:         "user",
			Executor:     exec,
			Notifier:     rec,
			Concurrency:  conc,
			OnTransition: func(_, to bulk.State) { states = append(states, to) },
		})

		res, err := o.Run(context.Background(), list, bulk.Delete)
		require.NoError(t, err)
		assert.Len(t, exec.calls, 5)
		assert.Equal(t, 3, res.Succeeded)
		assert.Equal(t, 2, res.Failed)
		assert.Empty(t, list.selected)
		assert.Equal(t, 1, list.refreshed)
		assert.Equal(t, notify.Notification{Level: notify.Warning, Message: "3 deleted, 2 failed"}, rec.Last())
		assert.Equal(t, []bulk.State{bulk.Confirming, bulk.Executing, bulk.Completed, bulk.Idle}, states)
	}
}

func TestSequentialKeepsSelectionOrder(t *testing.T) {
	list := fiveUsers()
	list.selected = []int64{5, 3, 1}
	exec := &fakeExec{}
	_, err := bulk.New(bulk.Config[model.User]{Executor: exec}).Run(context.Background(), list, bulk.Delete)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 3, 1}, exec.calls)
}

func TestAllFailedIsError(t *testing.T) {
	list := fiveUsers()
	list.selected = []int64{2}
	rec := &notify.Recorder{}
	_, err := bulk.New(bulk.Config[model.User]{Noun: "user", Executor: &fakeExec{fail: map[int64]bool{2: true}}, Notifier: rec}).
		Run(context.Background(), list, bulk.Delete)
	require.NoError(t, err)
	assert.Equal(t, notify.Notification{Level: notify.Error, Message: "0 deleted, 1 failed"}, rec.Last())
}

func TestRefreshIsAwaitedAndNotCancelled(t *testing.T) {
	list := fiveUsers()
	list.selected = []int64{2}
	ctx, cancel := context.WithCancel(context.Background())
	var refreshErr error
	list.refresh = func(rctx context.Context) error {
		refreshErr = rctx.Err()
		return errors.New("backend gone")
	}
	rec := &notify.Recorder{}
	exec := &fakeExec{}
	confirm := bulk.ConfirmFunc(func(context.Context, string) (bool, error) {
		cancel()
		return true, nil
	})

	res, err := bulk.New(bulk.Config[model.User]{Noun: "user", Executor: exec, Confirmer: confirm, Notifier: rec}).
		Run(ctx, list, bulk.Delete)
	require.NoError(t, err)
	assert.NoError(t, refreshErr, "execution ignores cancellation of the caller")
	assert.Equal(t, []int64{2}, exec.calls)
	assert.EqualError(t, res.RefreshErr, "backend gone")
	assert.Equal(t, notify.Warning, rec.Last().Level)
	assert.Equal(t, 1, rec.Len())
}

func TestBusy(t *testing.T) {
	list := fiveUsers()
	list.selected = []int64{2}
	rec := &notify.Recorder{}
	var o *bulk.Orchestrator[model.User]
	var inner error
	confirm := bulk.ConfirmFunc(func(ctx context.Context, _ string) (bool, error) {
		_, inner = o.Run(ctx, list, bulk.Delete)
		return true, nil
	})
	o = bulk.New(bulk.Config[model.User]{Executor: &fakeExec{}, Confirmer: confirm, Notifier: rec})

	_, err := o.Run(context.Background(), list, bulk.Delete)
	require.NoError(t, err)
	assert.ErrorIs(t, inner, bulk.ErrBusy)
}

func TestBatchPath(t *testing.T) {
	list := fiveUsers()
	list.selected = []int64{2, 3, 4}

	exec := batchExec{&fakeExec{batchAffected: 2}}
	res, err := bulk.New(bulk.Config[model.User]{Executor: exec, Batch: true}).Run(context.Background(), list, bulk.Delete)
	require.NoError(t, err)
	assert.True(t, res.Batched)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, exec.calls)

	list.selected = []int64{2, 3, 4}
	exec = batchExec{&fakeExec{batchErr: bulk.ErrBatchUnsupported}}
	res, err = bulk.New(bulk.Config[model.User]{Executor: exec, Batch: true}).Run(context.Background(), list, bulk.Delete)
	require.NoError(t, err)
	assert.False(t, res.Batched)
	assert.Equal(t, 3, res.Succeeded)
	assert.Len(t, exec.calls, 3)

	list.selected = []int64{2, 3}
	exec = batchExec{&fakeExec{batchErr: errors.New("500")}}
	res, err = bulk.New(bulk.Config[model.User]{Executor: exec, Batch: true}).Run(context.Background(), list, bulk.Delete)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Empty(t, exec.calls)
}

// The five-user scenario against the real API.
func TestDeactivateAgainstServer(t *testing.T) {
	s := testserver.New(t)
	ctx := context.Background()
	list := &userList{items: []model.User{s.Admin}}
	list.items = append(list.items,
		s.SeedUser(t, "p1", model.RolePatient, true),
		s.SeedUser(t, "p2", model.RolePatient, true),
		s.SeedUser(t, "p3", model.RolePatient, false),
		s.SeedUser(t, "p4", model.RolePatient, false),
	)
	list.selectAll()
	users := client.New(s.URL, client.WithTokenSource(client.StaticToken(s.AdminToken(t)))).Users()
	list.refresh = func(ctx context.Context) error {
		all, err := users.List(ctx)
		list.items = all
		return err
	}
	rec := &notify.Recorder{}

	res, err := newUserOrchestrator(bulk.UserExecutor{Users: users}, rec, nil).Run(ctx, list, bulk.Deactivate)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempted)
	assert.Equal(t, "2 deactivated, 1 admin skipped", rec.Last().Message)

	active := 0
	for _, u := range list.items {
		if u.IsActive {
			active++
			assert.True(t, u.IsAdmin())
		}
	}
	assert.Equal(t, 1, active)
}

func TestBlogBatchFallsBackWhenEndpointMissing(t *testing.T) {
	s := testserver.New(t)
	ctx := context.Background()
	a := s.SeedPost(t, "A", "News", model.StatusDraft, false)
	b := s.SeedPost(t, "B", "News", model.StatusDraft, false)
	blog := client.New(s.URL, client.WithTokenSource(client.StaticToken(s.AdminToken(t)))).Blog()

	n, err := bulk.BlogExecutor{Blog: blog}.ApplyBatch(ctx, bulk.Feature, []int64{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	missing := client.New(s.URL+"/nowhere", client.WithTokenSource(client.StaticToken(s.AdminToken(t)))).Blog()
	_, err = bulk.BlogExecutor{Blog: missing}.ApplyBatch(ctx, bulk.Publish, []int64{a.ID})
	assert.ErrorIs(t, err, bulk.ErrBatchUnsupported)
}
