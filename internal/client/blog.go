package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/sony/gobreaker"

	"github.com/iliyamo/hospital-admin/internal/model"
	"github.com/iliyamo/hospital-admin/internal/utils"
)

// BlogClient is the /api/blog resource.  It converts between the upper
// case wire status and the lower case application status; no other
// layer sees the wire form.
type BlogClient struct {
	Resource[model.WirePost, model.BlogPost]
	c       *Client
	breaker *gobreaker.CircuitBreaker
}

func newBlogClient(c *Client) *BlogClient {
	return &BlogClient{
		Resource: NewResource(c, "/api/blog", model.WirePost.Post),
		c:        c,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "blog-search",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Create sends the mutable subset with status defaulting to DRAFT and
// featured to false.  The category slug is derived when empty.
func (b *BlogClient) Create(ctx context.Context, in model.BlogPostInput) (model.BlogPost, error) {
	if strings.TrimSpace(in.CategorySlug) == "" {
		in.CategorySlug = utils.CategorySlug(in.Category)
	}
	return b.Resource.Create(ctx, model.WireCreate(in))
}

func (b *BlogClient) Update(ctx context.Context, id int64, up model.BlogPostUpdate) (model.BlogPost, error) {
	return b.Resource.Update(ctx, id, model.WireUpdate(up))
}

func (b *BlogClient) Publish(ctx context.Context, id int64) (model.BlogPost, error) {
	return b.Action(ctx, id, "publish", nil)
}

func (b *BlogClient) Unpublish(ctx context.Context, id int64) (model.BlogPost, error) {
	return b.Action(ctx, id, "unpublish", nil)
}

func (b *BlogClient) SetFeatured(ctx context.Context, id int64, featured bool) (model.BlogPost, error) {
	return b.Action(ctx, id, "featured", map[string]bool{"featured": featured})
}

func (b *BlogClient) Published(ctx context.Context) ([]model.BlogPost, error) {
	return b.Fetch(ctx, "/published", nil)
}

func (b *BlogClient) Featured(ctx context.Context) ([]model.BlogPost, error) {
	return b.Fetch(ctx, "/featured", nil)
}

func (b *BlogClient) Recent(ctx context.Context) ([]model.BlogPost, error) {
	return b.Fetch(ctx, "/recent", nil)
}

func (b *BlogClient) Categories(ctx context.Context) (model.CategoryList, error) {
	var out model.CategoryList
	err := b.c.do(ctx, http.MethodGet, "/api/blog/categories", nil, nil, &out)
	return out, err
}

type blogSearchParams struct {
	Q        string `url:"q"`
	Category string `url:"category,omitempty"`
	Status   string `url:"status,omitempty"`
}

// Search asks the server for posts whose title, content, excerpt or author
// contains term, narrowed to a category slug ("" or "all" means any).  The
// call goes through a circuit breaker: after repeated failures it fails
// fast with gobreaker.ErrOpenState so callers fall back to local filtering
// without waiting on a dead endpoint.
func (b *BlogClient) Search(ctx context.Context, term, category string) ([]model.BlogPost, error) {
	if strings.EqualFold(category, "all") {
		category = ""
	}
	q, err := query.Values(blogSearchParams{Q: term, Category: category})
	if err != nil {
		return nil, err
	}
	res, err := b.breaker.Execute(func() (interface{}, error) {
		return b.Fetch(ctx, "/search", q)
	})
	if err != nil {
		return nil, err
	}
	return res.([]model.BlogPost), nil
}

// IncrementViews records a view without waiting for the answer.  Failures
// are logged at debug level and otherwise ignored.
func (b *BlogClient) IncrementViews(id int64) {
	b.c.goBackground(func(ctx context.Context) {
		if _, err := b.Action(ctx, id, "views", nil); err != nil {
			b.c.log.WithError(err).WithField("post_id", id).Debug("view increment failed")
		}
	})
}

// BulkDelete, BulkPublish, BulkUnpublish and BulkSetFeatured are single
// calls covering every id.  Servers without the endpoints answer with an
// error for which IsUnsupported is true.
func (b *BlogClient) BulkDelete(ctx context.Context, ids []int64) (model.BulkResult, error) {
	var out model.BulkResult
	err := b.Batch(ctx, http.MethodDelete, "/bulk", ids, &out)
	return normalizeBulk(out, len(ids)), err
}

func (b *BlogClient) BulkPublish(ctx context.Context, ids []int64) (model.BulkResult, error) {
	var out model.BulkResult
	err := b.Batch(ctx, http.MethodPut, "/bulk/publish", ids, &out)
	return normalizeBulk(out, len(ids)), err
}

func (b *BlogClient) BulkUnpublish(ctx context.Context, ids []int64) (model.BulkResult, error) {
	var out model.BulkResult
	err := b.Batch(ctx, http.MethodPut, "/bulk/unpublish", ids, &out)
	return normalizeBulk(out, len(ids)), err
}

func (b *BlogClient) BulkSetFeatured(ctx context.Context, ids []int64, featured bool) (model.BulkResult, error) {
	var out model.BulkResult
	err := b.Batch(ctx, http.MethodPut, "/bulk/featured", model.BulkFeatured{IDs: ids, Featured: featured}, &out)
	return normalizeBulk(out, len(ids)), err
}

// normalizeBulk treats an empty 2xx answer as every id succeeding.
func normalizeBulk(r model.BulkResult, n int) model.BulkResult {
	if r.Requested == 0 && r.Affected == 0 {
		return model.BulkResult{Requested: n, Affected: n}
	}
	return r
}
