package queue

import (
    "context"
    "errors"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/hospital-admin/internal/model"
)

var errMissing = errors.New("missing")

type fakeCounter struct{ views map[int64]int }

func (f *fakeCounter) IncrementViews(_ context.Context, id int64) (model.BlogPost, error) {
    if _, ok := f.views[id]; !ok {
        return model.BlogPost{}, errMissing
    }
    f.views[id]++
    return model.BlogPost{ID: id, Views: f.views[id]}, nil
}

func TestHandleMessage(t *testing.T) {
    ctx := context.Background()
    c := &fakeCounter{views: map[int64]int{7: 0}}
    isMissing := func(err error) bool { return errors.Is(err, errMissing) }

    require.NoError(t, HandleMessage(ctx, []byte(`{"postId":7,"viewedAt":"2026-01-02T03:04:05Z"}`), c, isMissing))
    assert.Equal(t, 1, c.views[7])

    assert.ErrorIs(t, HandleMessage(ctx, []byte(`{"postId":8}`), c, isMissing), ErrUnknownPost)
    assert.Error(t, HandleMessage(ctx, []byte(`{"postId":0}`), c, isMissing))
    assert.Error(t, HandleMessage(ctx, []byte(`not json`), c, isMissing))

    err := HandleMessage(ctx, []byte(`{"postId":8}`), c, nil)
    assert.ErrorIs(t, err, errMissing)
    assert.NotErrorIs(t, err, ErrUnknownPost)
}
