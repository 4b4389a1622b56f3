package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hospital-admin/internal/cli"
	"github.com/iliyamo/hospital-admin/internal/model"
	"github.com/iliyamo/hospital-admin/internal/repository"
	"github.com/iliyamo/hospital-admin/internal/testserver"
)

type console struct {
	t   *testing.T
	s   *testserver.Server
	dir string
}

func newConsole(t *testing.T) *console {
	return &console{t: t, s: testserver.New(t), dir: t.TempDir()}
}

// run executes one command with stdin and returns exit code, stdout and
// stderr.
func (c *console) run(stdin string, args ...string) (int, string, string) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--api-url", c.s.URL, "--session-backend", "file", "--session-dir", c.dir}, args...)
	code := cli.Execute(context.Background(), full, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func (c *console) login() {
	c.t.Helper()
	code, out, errOut := c.run("", "login", "-u", testserver.AdminUsername, "-p", testserver.AdminPassword)
	require.Equal(c.t, 0, code, errOut)
	require.Contains(c.t, out, "[ok] signed in as admin (Quản trị viên)")
}

func TestLoginWhoamiLogout(t *testing.T) {
	c := newConsole(t)

	code, _, errOut := c.run("", "users", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not logged in")

	code, out, _ := c.run("", "login", "-u", "admin", "-p", "wrong")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "[x] login failed")

	// the password is read from stdin when not given
	code, out, _ = c.run("admin123\n", "login", "-u", "admin")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "signed in as admin")

	code, out, _ = c.run("", "whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "admin <admin@clinic.test>")

	code, out, _ = c.run("", "logout")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "[ok] signed out")

	code, _, _ = c.run("", "whoami")
	assert.Equal(t, 1, code)

	// the saved username is offered as the default
	code, out, _ = c.run("\nadmin123\n", "login")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Username or email [admin]:")
}

func TestUsersCommands(t *testing.T) {
	c := newConsole(t)
	c.s.SeedUser(t, "p1", model.RolePatient, true)
	p2 := c.s.SeedUser(t, "p2", model.RolePatient, true)
	c.s.SeedUser(t, "p3", model.RolePatient, false)
	c.s.SeedUser(t, "p4", model.RolePatient, false)
	c.login()

	code, out, _ := c.run("", "users", "list", "--status", "inactive")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "p3")
	assert.NotContains(t, out, "p1")
	assert.Contains(t, out, "2 users")

	code, out, _ = c.run("n\n", "users", "deactivate", itoa(p2.ID))
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Deactivate 1 user? [y/N]")
	assert.Contains(t, out, "[i] deactivate cancelled")

	code, out, _ = c.run("", "users", "deactivate", "--all", "--yes")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "[ok] 2 deactivated, 1 admin skipped")

	code, out, _ = c.run("", "users", "deactivate", "1", "--yes")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "[x] admin accounts cannot be deactivated")

	code, out, _ = c.run("y\n", "users", "activate", "--all", "--role", "patient")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "[ok] 4 activated")

	code, out, _ = c.run("", "users", "role", itoa(p2.ID), "doctor")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "is now Bác sĩ")

	code, _, errOut := c.run("", "users", "delete", "--yes")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "give ids or --all")
}

func TestUsersImport(t *testing.T) {
	c := newConsole(t)
	c.login()
	file := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(file, []byte("username,email,fullName,password,role\nlan,lan@clinic.test,Lan,secret1,DOCTOR\nbad,bad,Bad,secret1,PATIENT\n"), 0o600))

	code, out, _ := c.run("", "users", "import", file)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "imported 1 of 1 users, 1 invalid rows skipped")
	assert.Contains(t, out, "line 3 (bad)")
}

func TestBlogCommands(t *testing.T) {
	c := newConsole(t)
	c.s.SeedPost(t, "Đã đăng", "Tin tức", model.StatusPublished, false)

	code, out, _ := c.run("", "blog", "categories")
	require.Equal(t, 0, code, "categories are public")
	assert.Contains(t, out, "tin-tuc")

	code, _, _ = c.run("", "blog", "list")
	assert.Equal(t, 1, code)

	c.login()
	code, out, errOut := c.run("", "blog", "create", "--title", "Tim mạch", "--content", "Nội dung", "--category", "Sức khỏe")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `[ok] post "Tim mạch" created as draft`)

	code, out, _ = c.run("", "blog", "publish", "--all", "--status", "draft", "--yes")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "[ok] 1 published")

	code, out, _ = c.run("", "blog", "list", "--status", "published", "--category", "suc-khoe")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Tim mạch")
	assert.Contains(t, out, "1 posts")

	code, out, _ = c.run("", "blog", "feature", "--all", "--search", "tim", "--yes")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "[ok] 1 featured")

	p, err := c.s.Posts.List(context.Background(), repository.BlogQuery{Term: "Tim mạch"})
	require.NoError(t, err)
	require.Len(t, p, 1)
	assert.True(t, p[0].IsFeatured)

	code, out, _ = c.run("", "blog", "view", itoa(p[0].ID))
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Nội dung")
	stored, err := c.s.Posts.Get(context.Background(), p[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Views, "the view is flushed before the command returns")
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
