package bulk

import (
	"context"
	"fmt"

	"github.com/iliyamo/hospital-admin/internal/client"
	"github.com/iliyamo/hospital-admin/internal/model"
)

// Executor applies an action to one item.
type Executor interface {
	Supports(k Kind) bool
	Apply(ctx context.Context, k Kind, id int64) error
}

// BatchExecutor can also apply an action to many items in one call.  It
// returns how many items the backend changed, or an error wrapping
// ErrBatchUnsupported when the backend has no such endpoint.
type BatchExecutor interface {
	Executor
	ApplyBatch(ctx context.Context, k Kind, ids []int64) (int, error)
}

// UserExecutor runs user actions through the API client.
type UserExecutor struct{ Users *client.UserClient }

func (e UserExecutor) Supports(k Kind) bool {
	return k == Delete || k == Activate || k == Deactivate
}

func (e UserExecutor) Apply(ctx context.Context, k Kind, id int64) error {
	var err error
	switch k {
	case Delete:
		err = e.Users.Delete(ctx, id)
	case Activate:
		_, err = e.Users.Activate(ctx, id)
	case Deactivate:
		_, err = e.Users.Deactivate(ctx, id)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedAction, k)
	}
	return err
}

// BlogExecutor runs post actions through the API client, using the bulk
// endpoints when asked to.
type BlogExecutor struct{ Blog *client.BlogClient }

func (e BlogExecutor) Supports(k Kind) bool {
	switch k {
	case Delete, Publish, Unpublish, Feature, Unfeature:
		return true
	}
	return false
}

func (e BlogExecutor) Apply(ctx context.Context, k Kind, id int64) error {
	var err error
	switch k {
	case Delete:
		err = e.Blog.Delete(ctx, id)
	case Publish:
		_, err = e.Blog.Publish(ctx, id)
	case Unpublish:
		_, err = e.Blog.Unpublish(ctx, id)
	case Feature, Unfeature:
		_, err = e.Blog.SetFeatured(ctx, id, k == Feature)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedAction, k)
	}
	return err
}

func (e BlogExecutor) ApplyBatch(ctx context.Context, k Kind, ids []int64) (int, error) {
	var (
		res model.BulkResult
		err error
	)
	switch k {
	case Delete:
		res, err = e.Blog.BulkDelete(ctx, ids)
	case Publish:
		res, err = e.Blog.BulkPublish(ctx, ids)
	case Unpublish:
		res, err = e.Blog.BulkUnpublish(ctx, ids)
	case Feature, Unfeature:
		res, err = e.Blog.BulkSetFeatured(ctx, ids, k == Feature)
	default:
		return 0, fmt.Errorf("%w: %s", ErrBatchUnsupported, k)
	}
	if client.IsUnsupported(err) {
		return 0, fmt.Errorf("%w: %v", ErrBatchUnsupported, err)
	}
	if err != nil {
		return 0, err
	}
	return res.Affected, nil
}
