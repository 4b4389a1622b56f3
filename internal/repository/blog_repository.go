package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/hospital-admin/internal/model"
	"github.com/iliyamo/hospital-admin/internal/utils"
)

const blogColumns = "id,title,content,excerpt,image,category,category_slug,status,author,read_time,views,is_featured,created_at,updated_at"

type BlogRepo struct{ DB *sql.DB }

func NewBlogRepo(db *sql.DB) *BlogRepo { return &BlogRepo{DB: db} }

func scanPost(s rowScanner) (model.BlogPost, error) {
	var (
		p                                model.BlogPost
		excerpt, image, author, readTime sql.NullString
		status                           string
	)
	err := s.Scan(&p.ID, &p.Title, &p.Content, &excerpt, &image, &p.Category, &p.CategorySlug,
		&status, &author, &readTime, &p.Views, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BlogPost{}, ErrNotFound
		}
		return model.BlogPost{}, err
	}
	p.Excerpt = excerpt.String
	p.Image = image.String
	p.Author = author.String
	p.ReadTime = readTime.String
	p.Status = model.WireStatus(status).Status()
	return p, nil
}

// Create inserts a post.  Status defaults to draft, featured to false and
// the category slug is derived from the category when not supplied.
func (r *BlogRepo) Create(ctx context.Context, in model.BlogPostInput) (model.BlogPost, error) {
	slug := strings.ToLower(strings.TrimSpace(in.CategorySlug))
	if slug == "" {
		slug = utils.CategorySlug(in.Category)
	}
	featured := in.IsFeatured != nil && *in.IsFeatured
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO blog_posts (title, content, excerpt, image, category, category_slug, status, author, read_time, is_featured)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		in.Title, in.Content, nullString(in.Excerpt), nullString(in.Image), in.Category, slug,
		string(in.Status.Wire()), nullString(in.Author), nullString(in.ReadTime), featured)
	if err != nil {
		return model.BlogPost{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.BlogPost{}, err
	}
	return r.Get(ctx, id)
}

// List returns posts matching q, newest first.
func (r *BlogRepo) List(ctx context.Context, q BlogQuery) ([]model.BlogPost, error) {
	where := []string{}
	args := []any{}
	if t := strings.TrimSpace(q.Term); t != "" {
		p := likePattern(t)
		where = append(where, `(LOWER(title) LIKE ? OR LOWER(content) LIKE ?
			OR LOWER(COALESCE(excerpt,'')) LIKE ? OR LOWER(COALESCE(author,'')) LIKE ?)`)
		args = append(args, p, p, p, p)
	}
	if q.CategorySlug != "" {
		where = append(where, "category_slug = ?")
		args = append(args, q.CategorySlug)
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status.Wire()))
	}
	if q.Featured != nil {
		where = append(where, "is_featured = ?")
		args = append(args, *q.Featured)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	query := "SELECT " + blogColumns + " FROM blog_posts WHERE " + cond + " ORDER BY created_at DESC, id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.BlogPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *BlogRepo) Get(ctx context.Context, id int64) (model.BlogPost, error) {
	return scanPost(r.DB.QueryRowContext(ctx, "SELECT "+blogColumns+" FROM blog_posts WHERE id=? LIMIT 1", id))
}

func (r *BlogRepo) Update(ctx context.Context, id int64, up model.BlogPostUpdate) (model.BlogPost, error) {
	sets := []string{}
	args := []any{}
	str := func(col string, v *string, nullable bool) {
		if v == nil {
			return
		}
		sets = append(sets, col+"=?")
		if nullable {
			args = append(args, nullString(*v))
		} else {
			args = append(args, *v)
		}
	}
	str("title", up.Title, false)
	str("content", up.Content, false)
	str("excerpt", up.Excerpt, true)
	str("image", up.Image, true)
	str("author", up.Author, true)
	str("read_time", up.ReadTime, true)
	if up.Category != nil {
		sets = append(sets, "category=?")
		args = append(args, *up.Category)
		if up.CategorySlug == nil {
			sets = append(sets, "category_slug=?")
			args = append(args, utils.CategorySlug(*up.Category))
		}
	}
	if up.CategorySlug != nil {
		sets = append(sets, "category_slug=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*up.CategorySlug)))
	}
	if up.Status != nil {
		sets = append(sets, "status=?")
		args = append(args, string(up.Status.Wire()))
	}
	if up.IsFeatured != nil {
		sets = append(sets, "is_featured=?")
		args = append(args, *up.IsFeatured)
	}
	if len(sets) == 0 {
		return r.Get(ctx, id)
	}
	args = append(args, id)
	if _, err := r.DB.ExecContext(ctx, "UPDATE blog_posts SET "+strings.Join(sets, ",")+" WHERE id=?", args...); err != nil {
		return model.BlogPost{}, err
	}
	return r.Get(ctx, id)
}

func (r *BlogRepo) SetStatus(ctx context.Context, id int64, s model.Status) (model.BlogPost, error) {
	return r.Update(ctx, id, model.BlogPostUpdate{Status: &s})
}

func (r *BlogRepo) SetFeatured(ctx context.Context, id int64, featured bool) (model.BlogPost, error) {
	return r.Update(ctx, id, model.BlogPostUpdate{IsFeatured: &featured})
}

// IncrementViews bumps the counter without touching updated_at.
func (r *BlogRepo) IncrementViews(ctx context.Context, id int64) (model.BlogPost, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE blog_posts SET views = views + 1, updated_at = updated_at WHERE id=?", id)
	if err != nil {
		return model.BlogPost{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.BlogPost{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *BlogRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM blog_posts WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories counts published posts per category, largest first.
func (r *BlogRepo) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT category, category_slug, COUNT(*) FROM blog_posts
		 WHERE status = 'PUBLISHED'
		 GROUP BY category, category_slug
		 ORDER BY COUNT(*) DESC, category ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.Label, &c.Slug, &c.Count); err != nil {
			return nil, err
		}
		c.Value = c.Slug
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *BlogRepo) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	return r.execMany(ctx, "DELETE FROM blog_posts WHERE id IN (%s)", nil, ids)
}

func (r *BlogRepo) SetStatusMany(ctx context.Context, ids []int64, s model.Status) (int, error) {
	return r.execMany(ctx, "UPDATE blog_posts SET status=? WHERE id IN (%s)", []any{string(s.Wire())}, ids)
}

func (r *BlogRepo) SetFeaturedMany(ctx context.Context, ids []int64, featured bool) (int, error) {
	return r.execMany(ctx, "UPDATE blog_posts SET is_featured=? WHERE id IN (%s)", []any{featured}, ids)
}

// execMany runs one statement over an id set inside a transaction and
// reports the affected row count.
func (r *BlogRepo) execMany(ctx context.Context, tmpl string, lead []any, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := append([]any{}, lead...)
	for _, id := range ids {
		args = append(args, id)
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, strings.Replace(tmpl, "%s", placeholders(len(ids)), 1), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(n), nil
}
