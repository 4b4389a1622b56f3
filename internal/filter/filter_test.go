package filter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hospital-admin/internal/client"
	"github.com/iliyamo/hospital-admin/internal/filter"
	"github.com/iliyamo/hospital-admin/internal/model"
	"github.com/iliyamo/hospital-admin/internal/testserver"
)

func day(d int, hour int) time.Time { return time.Date(2024, 3, d, hour, 0, 0, 0, time.UTC) }

func posts() []model.BlogPost {
	return []model.BlogPost{
		{ID: 1, Title: "Bệnh tim mạch ở người trẻ", CategorySlug: "noi-tiet", Status: model.StatusPublished, IsFeatured: true, Author: "BS. An", CreatedAt: day(1, 9)},
		{ID: 2, Title: "Tiểu đường", Content: "liên quan tim mạch", CategorySlug: "noi-tiet", Status: model.StatusDraft, CreatedAt: day(2, 23)},
		{ID: 3, Title: "Tim mạch cơ bản", CategorySlug: "tim-mach", Status: model.StatusPublished, CreatedAt: day(3, 8)},
		{ID: 4, Title: "Dinh dưỡng", Excerpt: "ăn uống", CategorySlug: "dinh-duong", Status: model.StatusPublished, Author: "Tim Nguyen", CreatedAt: day(4, 12)},
		{ID: 5, Title: "Giấc ngủ", CategorySlug: "noi-tiet", Status: model.StatusDraft, IsFeatured: true, CreatedAt: day(5, 0)},
	}
}

func ids(ps []model.BlogPost) []int64 {
	out := make([]int64, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for _, p := range permutations(n - 1) {
		for i := 0; i <= len(p); i++ {
			q := append(append(append([]int{}, p[:i]...), n-1), p[i:]...)
			out = append(out, q)
		}
	}
	return out
}

func TestPredicateOrderDoesNotMatter(t *testing.T) {
	criteria := []filter.Criteria{
		{Term: "tim", Filters: map[string]string{"category": "noi-tiet", "status": "published", "featured": "true"}},
		{Term: "TIM MẠCH", Filters: map[string]string{"status": "draft"}, From: day(2, 0), To: day(4, 0)},
		{Filters: map[string]string{"featured": "true", "category": "all"}, To: day(3, 0)},
		{Term: "a", From: day(1, 12)},
	}
	for _, c := range criteria {
		ps := filter.Predicates(c, filter.BlogFields)
		want := ids(filter.Apply(posts(), ps))
		for _, perm := range permutations(len(ps)) {
			reordered := make([]filter.Predicate[model.BlogPost], len(ps))
			for i, j := range perm {
				reordered[i] = ps[j]
			}
			assert.Equal(t, want, ids(filter.Apply(posts(), reordered)))
		}
	}
}

func TestClearingRestoresCollection(t *testing.T) {
	all := posts()
	c := filter.Criteria{Term: "tim"}.Set("status", "published")
	require.NotEqual(t, ids(all), ids(filter.Local(all, c, filter.BlogFields)))

	cleared := filter.Criteria{}
	assert.True(t, cleared.Empty())
	assert.Equal(t, all, filter.Local(all, cleared, filter.BlogFields))
}

func TestEmptyTermAndAllAreAbsent(t *testing.T) {
	all := posts()
	none := filter.Local(all, filter.Criteria{}, filter.BlogFields)
	assert.Equal(t, ids(none), ids(filter.Local(all, filter.Criteria{Term: ""}, filter.BlogFields)))
	assert.Equal(t, ids(none), ids(filter.Local(all, filter.Criteria{Term: "   "}, filter.BlogFields)))
	assert.Equal(t, ids(none), ids(filter.Local(all, filter.Criteria{Filters: map[string]string{"category": "ALL", "status": ""}}, filter.BlogFields)))

	c := filter.Criteria{}.Set("status", "draft").Set("status", "all")
	assert.Empty(t, c.Filters)
	assert.True(t, c.Empty())
}

func TestDateRangeIncludesWholeEndDay(t *testing.T) {
	got := filter.Local(posts(), filter.Criteria{From: day(2, 0), To: day(2, 0)}, filter.BlogFields)
	assert.Equal(t, []int64{2}, ids(got), "23:00 on the end day is inside")

	got = filter.Local(posts(), filter.Criteria{From: day(4, 0)}, filter.BlogFields)
	assert.Equal(t, []int64{4, 5}, ids(got))
	got = filter.Local(posts(), filter.Criteria{To: day(1, 0)}, filter.BlogFields)
	assert.Equal(t, []int64{1}, ids(got))
}

func TestUserFields(t *testing.T) {
	users := []model.User{
		{ID: 1, Username: "admin", Role: model.RoleAdmin, IsActive: true},
		{ID: 2, Username: "drlan", Email: "lan@clinic.test", Role: model.RoleDoctor, IsActive: true},
		{ID: 3, Username: "pat", FullName: "Lan Pham", Role: model.RolePatient},
	}
	got := filter.Local(users, filter.Criteria{Term: "LAN"}, filter.UserFields)
	assert.Len(t, got, 2)
	got = filter.Local(users, filter.Criteria{Term: "lan"}.Set("status", filter.Inactive), filter.UserFields)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
	got = filter.Local(users, filter.Criteria{}.Set("role", "doctor"), filter.UserFields)
	require.Len(t, got, 1)
	assert.Equal(t, "drlan", got[0].Username)
}

func TestRemoteFailureFallsBackToLocal(t *testing.T) {
	var gotTerm, gotCategory string
	failing := func(_ context.Context, term, category string) ([]model.BlogPost, error) {
		gotTerm, gotCategory = term, category
		return nil, errors.New("connection refused")
	}
	e := filter.New(filter.BlogFields, failing, nil)
	c := filter.Criteria{Term: "tim mạch"}.Set("category", "noi-tiet")

	got := e.Run(context.Background(), posts(), c)
	assert.Equal(t, "tim mạch", gotTerm)
	assert.Equal(t, "noi-tiet", gotCategory)
	assert.Equal(t, []int64{1, 2}, ids(got))
}

func TestRemoteResultKeepsLocalOrderAndFilters(t *testing.T) {
	remote := func(_ context.Context, term, category string) ([]model.BlogPost, error) {
		// unordered, and includes a post the local snapshot does not have
		return []model.BlogPost{{ID: 3}, {ID: 99}, {ID: 1}, {ID: 4}}, nil
	}
	e := filter.New(filter.BlogFields, remote, nil)
	got := e.Run(context.Background(), posts(), filter.Criteria{Term: "tim"}.Set("status", "published"))
	assert.Equal(t, []int64{1, 3, 4}, ids(got))

	got = e.Run(context.Background(), posts(), filter.Criteria{}.Set("featured", "true"))
	assert.Equal(t, []int64{1, 5}, ids(got), "no term, no remote call")
}

func TestRemoteAndLocalAgreeOnMembership(t *testing.T) {
	s := testserver.New(t)
	ctx := context.Background()
	s.SeedPost(t, "Bệnh tim mạch ở người trẻ", "Nội tiết", model.StatusPublished, true)
	s.SeedPost(t, "Tiểu đường và tim mạch", "Nội tiết", model.StatusDraft, false)
	s.SeedPost(t, "Tim mạch cơ bản", "Tim mạch", model.StatusPublished, false)
	s.SeedPost(t, "Dinh dưỡng", "Dinh dưỡng", model.StatusPublished, false)

	blog := client.New(s.URL, client.WithTokenSource(client.StaticToken(s.AdminToken(t)))).Blog()
	all, err := blog.List(ctx)
	require.NoError(t, err)

	remote := filter.New(filter.BlogFields, blog.Search, nil)
	for _, c := range []filter.Criteria{
		{Term: "tim mạch"},
		filter.Criteria{Term: "tim mạch"}.Set("category", "noi-tiet"),
		filter.Criteria{Term: "tim mạch"}.Set("category", "Noi-Tiet"),
		filter.Criteria{Term: "TEST"}.Set("category", "all"),
		filter.Criteria{Term: "dinh"}.Set("status", "published"),
		{Term: "không có"},
	} {
		assert.ElementsMatch(t,
			ids(filter.Local(all, c, filter.BlogFields)),
			ids(remote.Run(ctx, all, c)), "term %q", c.Term)
	}

	found, err := blog.Search(ctx, "tim mạch", "Noi-Tiet")
	require.NoError(t, err)
	assert.Len(t, found, 2, "category matching ignores case on the server too")
}
