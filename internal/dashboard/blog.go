package dashboard

import (
	"context"
	"fmt"

	"github.com/iliyamo/hospital-admin/internal/bulk"
	"github.com/iliyamo/hospital-admin/internal/client"
	"github.com/iliyamo/hospital-admin/internal/filter"
	"github.com/iliyamo/hospital-admin/internal/model"
)

// BlogList is the blog management screen.
type BlogList struct {
	*List[model.BlogPost]
	blog *client.BlogClient
	bulk *bulk.Orchestrator[model.BlogPost]
	opts Options
}

func NewBlogList(c *client.Client, opts Options) *BlogList {
	opts = opts.withDefaults()
	blog := c.Blog()
	return &BlogList{
		List: newList(blog.List, filter.BlogFields, blog.Search, opts.Log),
		blog: blog,
		opts: opts,
		bulk: bulk.New(bulk.Config[model.BlogPost]{
			Noun:        "post",
			Executor:    bulk.BlogExecutor{Blog: blog},
			Confirmer:   opts.Confirmer,
			Notifier:    opts.Notifier,
			Log:         opts.Log,
			Concurrency: opts.Concurrency,
			Batch:       opts.Batch,
		}),
	}
}

func (l *BlogList) Bulk(ctx context.Context, kind bulk.Kind) (bulk.Result, error) {
	return l.bulk.Run(ctx, l.List, kind)
}

func (l *BlogList) after(ctx context.Context, err error, msg string) error {
	if err != nil {
		l.opts.fail(err)
		return err
	}
	if rerr := l.Refresh(ctx); rerr != nil {
		l.opts.Log.WithError(rerr).Warn("refresh failed")
	}
	l.opts.success(msg)
	return nil
}

func (l *BlogList) Create(ctx context.Context, in model.BlogPostInput) (model.BlogPost, error) {
	p, err := l.blog.Create(ctx, in)
	return p, l.after(ctx, err, fmt.Sprintf("post %q created as %s", in.Title, p.Status))
}

func (l *BlogList) Update(ctx context.Context, id int64, up model.BlogPostUpdate) (model.BlogPost, error) {
	p, err := l.blog.Update(ctx, id, up)
	return p, l.after(ctx, err, fmt.Sprintf("post %d updated", id))
}

func (l *BlogList) Delete(ctx context.Context, id int64) error {
	return l.after(ctx, l.blog.Delete(ctx, id), fmt.Sprintf("post %d deleted", id))
}

func (l *BlogList) Publish(ctx context.Context, id int64) (model.BlogPost, error) {
	p, err := l.blog.Publish(ctx, id)
	return p, l.after(ctx, err, fmt.Sprintf("post %d published", id))
}

func (l *BlogList) Unpublish(ctx context.Context, id int64) (model.BlogPost, error) {
	p, err := l.blog.Unpublish(ctx, id)
	return p, l.after(ctx, err, fmt.Sprintf("post %d unpublished", id))
}

func (l *BlogList) SetFeatured(ctx context.Context, id int64, featured bool) (model.BlogPost, error) {
	p, err := l.blog.SetFeatured(ctx, id, featured)
	verb := "featured"
	if !featured {
		verb = "unfeatured"
	}
	return p, l.after(ctx, err, fmt.Sprintf("post %d %s", id, verb))
}

// View opens a post and records the view without waiting for it.
func (l *BlogList) View(ctx context.Context, id int64) (model.BlogPost, error) {
	p, err := l.blog.Get(ctx, id)
	if err != nil {
		l.opts.fail(err)
		return p, err
	}
	l.blog.IncrementViews(id)
	return p, nil
}

// Categories returns the category choices, led by "all".
func (l *BlogList) Categories(ctx context.Context) ([]model.Category, error) {
	res, err := l.blog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return res.Categories, nil
}
