// Package cli is the admin console: cobra commands over the dashboard
// controllers.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iliyamo/hospital-admin/internal/bulk"
	"github.com/iliyamo/hospital-admin/internal/client"
	"github.com/iliyamo/hospital-admin/internal/config"
	"github.com/iliyamo/hospital-admin/internal/dashboard"
	"github.com/iliyamo/hospital-admin/internal/logging"
	"github.com/iliyamo/hospital-admin/internal/notify"
	"github.com/iliyamo/hospital-admin/internal/session"
)

// App is what every command works with once flags and config are read.
type App struct {
	Cfg     config.Console
	Log     *logrus.Logger
	Session *session.Manager
	Client  *client.Client
	Notify  notify.Notifier

	in  *bufio.Reader
	out io.Writer
}

// reported marks an error the operator has already been told about.
type reported struct{ error }

func (r reported) Unwrap() error { return r.error }

// Execute runs the console and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	cmd := NewRootCmd(in, out, errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var r reported
	if !errors.As(err, &r) {
		fmt.Fprintln(errOut, "error:", err)
	}
	return 1
}

// NewRootCmd builds the command tree.  Settings come from flags,
// HOSPITAL_* variables or hospital-admin.yaml.
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	v := config.NewConsoleViper()
	app := &App{in: bufio.NewReader(in), out: out}

	root := &cobra.Command{
		Use:           "hospital-admin",
		Short:         "Manage users and blog posts of the hospital site",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(v, errOut)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Client != nil {
				app.Client.Flush()
			}
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	f := root.PersistentFlags()
	f.String("api-url", "", "API base URL")
	f.Duration("timeout", 0, "request timeout")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("session-backend", "", "where a remembered session is kept: file, redis or memory")
	f.String("session-dir", "", "directory of the file session")
	f.Int("concurrency", 0, "parallel requests of per-item bulk actions")
	f.Bool("batch", true, "use bulk endpoints when the server has them")
	_ = v.BindPFlag("api_url", f.Lookup("api-url"))
	_ = v.BindPFlag("timeout", f.Lookup("timeout"))
	_ = v.BindPFlag("log_level", f.Lookup("log-level"))
	_ = v.BindPFlag("session.backend", f.Lookup("session-backend"))
	_ = v.BindPFlag("session.dir", f.Lookup("session-dir"))
	_ = v.BindPFlag("bulk.concurrency", f.Lookup("concurrency"))
	_ = v.BindPFlag("bulk.batch", f.Lookup("batch"))

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newUsersCmd(app),
		newBlogCmd(app),
	)
	return root
}

func (a *App) init(v *viper.Viper, errOut io.Writer) error {
	cfg, err := config.LoadConsole(v)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.Cfg = cfg
	a.Log = logging.New("dev", cfg.LogLevel)
	a.Log.SetOutput(errOut)
	a.Notify = notify.Console{W: a.out, Log: a.Log}

	var store session.Store
	switch cfg.SessionBackend {
	case config.SessionMemory:
		store = session.NewMemoryStore()
	case config.SessionRedis:
		if rdb := config.NewRedisClient(cfg.Redis, a.Log); rdb != nil {
			store = session.NewRedisStore(rdb, "", 0)
			break
		}
		a.Log.Warn("falling back to the file session")
		store = session.NewFileStore(cfg.SessionDir)
	default:
		store = session.NewFileStore(cfg.SessionDir)
	}
	a.Session = session.NewManager(store, a.Log)
	a.Client = client.New(cfg.APIURL,
		client.WithTimeout(cfg.Timeout),
		client.WithTokenSource(a.Session),
		client.WithLogger(a.Log),
	)
	return nil
}

func (a *App) options(yes bool) dashboard.Options {
	var confirm bulk.Confirmer = bulk.ConfirmFunc(a.confirm)
	if yes {
		confirm = bulk.AlwaysConfirm
	}
	return dashboard.Options{
		Notifier:    a.Notify,
		Confirmer:   confirm,
		Log:         a.Log,
		Concurrency: a.Cfg.Concurrency,
		Batch:       a.Cfg.BatchEndpoints,
	}
}

// requireLogin fails early when no usable access token is stored.
func (a *App) requireLogin() error {
	if a.Session.IsLoggedIn() {
		return nil
	}
	return errors.New("not logged in; run: hospital-admin login")
}

func (a *App) confirm(_ context.Context, prompt string) (bool, error) {
	fmt.Fprintf(a.out, "%s [y/N] ", prompt)
	answer, err := a.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (a *App) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) prompt(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(a.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(a.out, "%s: ", label)
	}
	s, err := a.readLine()
	if err != nil {
		return "", err
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}
