package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hospital-admin/internal/model"
	"github.com/iliyamo/hospital-admin/internal/testserver"
)

func call(t *testing.T, s *testserver.Server, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(bs)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	s := testserver.New(t)
	code, body := call(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"store":"memory"`)
}

func TestLoginRefreshMe(t *testing.T) {
	s := testserver.New(t)

	code, _ := call(t, s, http.MethodPost, "/api/users/auth/login", "",
		map[string]string{"usernameOrEmail": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := call(t, s, http.MethodPost, "/api/users/auth/login", "",
		map[string]string{"usernameOrEmail": "ADMIN@clinic.test", "password": testserver.AdminPassword})
	require.Equal(t, http.StatusOK, code, string(body))
	var auth struct {
		AccessToken  string     `json:"accessToken"`
		RefreshToken string     `json:"refreshToken"`
		User         model.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &auth))
	assert.Equal(t, model.RoleAdmin, auth.User.Role)

	code, body = call(t, s, http.MethodGet, "/api/users/auth/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"username":"admin"`)

	code, body = call(t, s, http.MethodPost, "/api/users/auth/refresh?refreshToken="+auth.RefreshToken, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"tokenType":"Bearer"`)

	code, _ = call(t, s, http.MethodPost, "/api/users/auth/logout", "", map[string]string{"refreshToken": auth.RefreshToken})
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = call(t, s, http.MethodPost, "/api/users/auth/refresh?refreshToken="+auth.RefreshToken, "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestInactiveUserCannotLogin(t *testing.T) {
	s := testserver.New(t)
	s.SeedUser(t, "sleepy", model.RoleDoctor, false)
	code, _ := call(t, s, http.MethodPost, "/api/users/auth/login", "",
		map[string]string{"usernameOrEmail": "sleepy", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegisterForcesPatientRole(t *testing.T) {
	s := testserver.New(t)
	in := map[string]string{"username": "newbie", "email": "n@clinic.test", "fullName": "New", "password": "secret1", "role": "ADMIN"}
	code, body := call(t, s, http.MethodPost, "/api/users/auth/register", "", in)
	require.Equal(t, http.StatusCreated, code, string(body))
	assert.Contains(t, string(body), `"role":"PATIENT"`)

	code, _ = call(t, s, http.MethodPost, "/api/users/auth/register", "", in)
	assert.Equal(t, http.StatusConflict, code)

	in = map[string]string{"username": "x", "email": "not-an-email", "fullName": "X", "password": "secret1"}
	code, body = call(t, s, http.MethodPost, "/api/users/auth/register", "", in)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "invalid email format")
}

func TestUserRoutesEnforceRoles(t *testing.T) {
	s := testserver.New(t)
	staff := s.SeedUser(t, "nurse", model.RoleStaff, true)
	patient := s.SeedUser(t, "pat", model.RolePatient, true)

	code, _ := call(t, s, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = call(t, s, http.MethodGet, "/api/users", s.Token(t, patient), nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = call(t, s, http.MethodGet, "/api/users", s.Token(t, staff), nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, s, http.MethodDelete, "/api/users/3", s.Token(t, staff), nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestDeactivateAdminRefused(t *testing.T) {
	s := testserver.New(t)
	doc := s.SeedUser(t, "doc", model.RoleDoctor, true)
	tok := s.AdminToken(t)

	code, body := call(t, s, http.MethodPut, "/api/users/1/deactivate", tok, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, string(body), "admin accounts cannot be deactivated")

	code, body = call(t, s, http.MethodPut, "/api/users/"+itoa(doc.ID)+"/deactivate", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"isActive":false`)

	code, _ = call(t, s, http.MethodPut, "/api/users/999/deactivate", tok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUserSearchAndRole(t *testing.T) {
	s := testserver.New(t)
	s.SeedUser(t, "drwho", model.RoleDoctor, true)
	s.SeedUser(t, "drno", model.RolePatient, true)
	tok := s.AdminToken(t)

	code, body := call(t, s, http.MethodGet, "/api/users/search?q=DR&role=DOCTOR", tok, nil)
	require.Equal(t, http.StatusOK, code)
	var users []model.User
	require.NoError(t, json.Unmarshal(body, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "drwho", users[0].Username)

	code, body = call(t, s, http.MethodPut, "/api/users/"+itoa(users[0].ID)+"/role", tok, map[string]string{"role": "staff"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"role":"STAFF"`)

	code, _ = call(t, s, http.MethodGet, "/api/users/username/nobody", tok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBlogCreateDefaultsAndWireStatus(t *testing.T) {
	s := testserver.New(t)
	tok := s.AdminToken(t)

	code, body := call(t, s, http.MethodPost, "/api/blog", tok,
		map[string]string{"title": "Vaccines", "content": "body", "category": "Sức khỏe"})
	require.Equal(t, http.StatusCreated, code, string(body))
	var p model.WirePost
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, model.WireDraft, p.Status)
	assert.False(t, p.IsFeatured)
	assert.Equal(t, "suc-khoe", p.CategorySlug)

	code, _ = call(t, s, http.MethodPost, "/api/blog", tok, map[string]string{"title": "x", "content": "y", "category": "z", "status": "LIVE"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, body = call(t, s, http.MethodPost, "/api/blog", tok, map[string]string{"title": "x", "content": "y", "category": "z", "status": "published"})
	require.Equal(t, http.StatusCreated, code, string(body))
	assert.Contains(t, string(body), `"status":"PUBLISHED"`, "lower-case input status is accepted as published")
	code, _ = call(t, s, http.MethodPost, "/api/blog", tok, map[string]string{"content": "y", "category": "z"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = call(t, s, http.MethodPut, "/api/blog/"+itoa(p.ID)+"/publish", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"status":"PUBLISHED"`)
}

func TestBlogPublicAndManagementRoutes(t *testing.T) {
	s := testserver.New(t)
	s.SeedPost(t, "Draft one", "News", model.StatusDraft, false)
	s.SeedPost(t, "Live one", "News", model.StatusPublished, true)
	s.SeedPost(t, "Live two", "Tips", model.StatusPublished, false)

	code, body := call(t, s, http.MethodGet, "/api/blog/published", "", nil)
	require.Equal(t, http.StatusOK, code)
	var posts []model.WirePost
	require.NoError(t, json.Unmarshal(body, &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, "Live two", posts[0].Title, "newest first")

	code, body = call(t, s, http.MethodGet, "/api/blog/featured", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &posts))
	require.Len(t, posts, 1)

	code, body = call(t, s, http.MethodGet, "/api/blog/categories", "", nil)
	require.Equal(t, http.StatusOK, code)
	var cats model.CategoryList
	require.NoError(t, json.Unmarshal(body, &cats))
	assert.Equal(t, 2, cats.Total)
	require.Len(t, cats.Categories, 3)
	assert.Equal(t, "all", cats.Categories[0].Value)

	code, _ = call(t, s, http.MethodGet, "/api/blog", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	tok := s.AdminToken(t)
	code, body = call(t, s, http.MethodGet, "/api/blog/search?q=ONE&category=news&status=draft", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "Draft one", posts[0].Title)

	code, body = call(t, s, http.MethodGet, "/api/blog/search?q=live&category=all", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &posts))
	assert.Len(t, posts, 2)
}

func TestBlogBulkEndpoints(t *testing.T) {
	s := testserver.New(t)
	a := s.SeedPost(t, "A", "News", model.StatusDraft, false)
	b := s.SeedPost(t, "B", "News", model.StatusDraft, false)
	tok := s.AdminToken(t)

	code, body := call(t, s, http.MethodPut, "/api/blog/bulk/publish", tok, []int64{a.ID, b.ID, 999})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"requested":3,"affected":2}`, string(body))

	code, body = call(t, s, http.MethodPut, "/api/blog/bulk/featured", tok, model.BulkFeatured{IDs: []int64{a.ID}, Featured: true})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"requested":1,"affected":1}`, string(body))

	code, _ = call(t, s, http.MethodPut, "/api/blog/bulk/unpublish", tok, []int64{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = call(t, s, http.MethodDelete, "/api/blog/bulk", tok, []int64{a.ID, b.ID})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"requested":2,"affected":2}`, string(body))
}

func TestIncrementViewsInline(t *testing.T) {
	s := testserver.New(t)
	p := s.SeedPost(t, "Seen", "News", model.StatusPublished, false)

	code, body := call(t, s, http.MethodPut, "/api/blog/"+itoa(p.ID)+"/views", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"views":1`)

	code, _ = call(t, s, http.MethodPut, "/api/blog/999/views", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func itoa(id int64) string {
	bs, _ := json.Marshal(id)
	return string(bs)
}
