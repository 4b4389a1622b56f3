package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/hospital-admin/internal/model"
	"github.com/iliyamo/hospital-admin/internal/utils"
)

const userColumns = "id,username,email,full_name,phone,role,is_active,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner, extra ...any) (model.User, error) {
	var (
		u     model.User
		phone sql.NullString
		role  string
	)
	dest := append([]any{&u.ID, &u.Username, &u.Email, &u.FullName, &phone, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	u.Phone = phone.String
	u.Role = model.Role(role)
	return u, nil
}

// Create hashes the password and inserts the account.  Role defaults to
// PATIENT and new accounts are active.
func (r *UserRepo) Create(ctx context.Context, in model.UserInput, cost int) (model.User, error) {
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return model.User{}, err
	}
	role := normalizeRole(in.Role)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, full_name, phone, role) VALUES (?,?,?,?,?,?)",
		strings.TrimSpace(in.Username), normalizeEmail(in.Email), hash, strings.TrimSpace(in.FullName),
		nullString(in.Phone), string(role))
	if err != nil {
		return model.User{}, duplicateKey(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

// List returns users matching q, newest first.
func (r *UserRepo) List(ctx context.Context, q UserQuery) ([]model.User, error) {
	where := []string{}
	args := []any{}
	if t := strings.TrimSpace(q.Term); t != "" {
		p := likePattern(t)
		where = append(where, "(LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?)")
		args = append(args, p, p, p)
	}
	if q.Role != "" {
		where = append(where, "role = ?")
		args = append(args, string(q.Role))
	}
	if q.Active != nil {
		where = append(where, "is_active = ?")
		args = append(args, *q.Active)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+cond+" ORDER BY created_at DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username)))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email)))
}

func (r *UserRepo) Credentials(ctx context.Context, usernameOrEmail string) (model.User, string, error) {
	key := strings.TrimSpace(usernameOrEmail)
	var hash string
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+",password_hash FROM users WHERE username=? OR email=? LIMIT 1",
		key, strings.ToLower(key)), &hash)
	return u, hash, err
}

// Update applies the non-nil fields of up.  An empty update just returns
// the current row.
func (r *UserRepo) Update(ctx context.Context, id int64, up model.UserUpdate, cost int) (model.User, error) {
	sets := []string{}
	args := []any{}
	if up.Username != nil {
		sets = append(sets, "username=?")
		args = append(args, strings.TrimSpace(*up.Username))
	}
	if up.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, normalizeEmail(*up.Email))
	}
	if up.FullName != nil {
		sets = append(sets, "full_name=?")
		args = append(args, strings.TrimSpace(*up.FullName))
	}
	if up.Phone != nil {
		sets = append(sets, "phone=?")
		args = append(args, nullString(*up.Phone))
	}
	if up.Role != nil {
		sets = append(sets, "role=?")
		args = append(args, string(normalizeRole(*up.Role)))
	}
	if up.Password != nil {
		hash, err := utils.HashPassword(*up.Password, cost)
		if err != nil {
			return model.User{}, err
		}
		sets = append(sets, "password_hash=?")
		args = append(args, hash)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	// Zero affected rows is ambiguous in MySQL (missing row or unchanged
	// values), so the re-read decides between ErrNotFound and success.
	if _, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", args...); err != nil {
		return model.User{}, duplicateKey(err)
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) SetActive(ctx context.Context, id int64, active bool) (model.User, error) {
	if _, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id); err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
