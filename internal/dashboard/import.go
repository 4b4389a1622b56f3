package dashboard

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iliyamo/hospital-admin/internal/model"
	"github.com/iliyamo/hospital-admin/internal/notify"
	"github.com/iliyamo/hospital-admin/internal/validation"
)

// ImportRow is one line of a user CSV.  Unlike the API, the import
// requires an explicit role.
type ImportRow struct {
	Line     int
	Username string `validate:"required,max=100"`
	Email    string `validate:"required,email"`
	FullName string `validate:"required,max=255"`
	Password string `validate:"required,min=6"`
	Phone    string `validate:"omitempty,max=20"`
	Role     string `validate:"required,role"`
}

func (r ImportRow) input() model.UserInput {
	role, _ := model.ParseRole(r.Role)
	return model.UserInput{
		Username: r.Username,
		Email:    r.Email,
		FullName: r.FullName,
		Password: r.Password,
		Phone:    r.Phone,
		Role:     role,
	}
}

// RowError explains why a line was not imported.
type RowError struct {
	Line     int
	Username string
	Messages []string
}

type ImportResult struct {
	Valid    int
	Imported int
	Invalid  []RowError // rejected before any call
	Failed   []RowError // rejected by the server
}

// ErrNothingToImport means no row passed validation.
var ErrNothingToImport = errors.New("no valid rows to import")

var importColumns = map[string]string{
	"username":  "username",
	"email":     "email",
	"fullname":  "fullName",
	"full_name": "fullName",
	"password":  "password",
	"phone":     "phone",
	"role":      "role",
}

// ParseUsers reads a CSV with a header line naming the columns username,
// email, fullName, password, role and optionally phone, in any order.
func ParseUsers(r io.Reader) ([]ImportRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	col := map[string]int{}
	for i, h := range header {
		if name, ok := importColumns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))]; ok {
			col[name] = i
		}
	}
	for _, need := range []string{"username", "email", "fullName", "password", "role"} {
		if _, ok := col[need]; !ok {
			return nil, fmt.Errorf("missing column %q", need)
		}
	}
	cell := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []ImportRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rows = append(rows, ImportRow{
			Line:     line,
			Username: cell(rec, "username"),
			Email:    cell(rec, "email"),
			FullName: cell(rec, "fullName"),
			Password: cell(rec, "password"),
			Phone:    cell(rec, "phone"),
			Role:     cell(rec, "role"),
		})
	}
	return rows, nil
}

// Import validates every row, then creates the valid ones one at a time.
// With no valid row nothing is sent.
func (l *UserList) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult
	rows, err := ParseUsers(r)
	if err != nil {
		l.opts.fail(err)
		return res, err
	}
	v := validation.New()
	var valid []ImportRow
	for _, row := range rows {
		if err := v.Struct(row); err != nil {
			res.Invalid = append(res.Invalid, RowError{Line: row.Line, Username: row.Username, Messages: v.Messages(err)})
			continue
		}
		valid = append(valid, row)
	}
	res.Valid = len(valid)
	if len(valid) == 0 {
		l.opts.fail(ErrNothingToImport)
		return res, ErrNothingToImport
	}

	for _, row := range valid {
		if _, err := l.users.Create(ctx, row.input()); err != nil {
			l.opts.Log.WithError(err).WithField("line", row.Line).Warn("import row failed")
			res.Failed = append(res.Failed, RowError{Line: row.Line, Username: row.Username, Messages: []string{err.Error()}})
			continue
		}
		res.Imported++
	}
	if err := l.Refresh(ctx); err != nil {
		l.opts.Log.WithError(err).Warn("refresh failed")
	}

	msg := fmt.Sprintf("imported %d of %d users", res.Imported, res.Valid)
	level := notify.Success
	switch {
	case res.Imported == 0:
		level = notify.Error
	case res.Imported < res.Valid || len(res.Invalid) > 0:
		level = notify.Warning
	}
	if n := len(res.Invalid); n > 0 {
		msg += fmt.Sprintf(", %d invalid rows skipped", n)
	}
	l.opts.Notifier.Notify(notify.Notification{Level: level, Message: msg})
	return res, nil
}
