package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/hospital-admin/internal/model"
    "github.com/iliyamo/hospital-admin/internal/queue"
    "github.com/iliyamo/hospital-admin/internal/repository"
    "github.com/iliyamo/hospital-admin/internal/validation"
)

// ViewPublisher hands view increments to the broker.
type ViewPublisher interface {
    PublishBlogViewed(ctx context.Context, ev queue.BlogViewedEvent) error
}

// BlogHandler serves /api/blog.  Posts leave the handler in their wire
// form with upper-case status.
type BlogHandler struct {
    Posts     repository.BlogStore
    V         *validation.Validator
    Log       logrus.FieldLogger
    Publisher ViewPublisher // nil applies view increments inline
}

func NewBlogHandler(posts repository.BlogStore, v *validation.Validator, log logrus.FieldLogger, pub ViewPublisher) *BlogHandler {
    return &BlogHandler{Posts: posts, V: v, Log: log, Publisher: pub}
}

// recentLimit is the size of GET /api/blog/recent.
const recentLimit = 5

func wireAll(posts []model.BlogPost) []model.WirePost {
    out := make([]model.WirePost, 0, len(posts))
    for _, p := range posts {
        out = append(out, model.ToWire(p))
    }
    return out
}

func (h *BlogHandler) list(c echo.Context, q repository.BlogQuery) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    posts, err := h.Posts.List(ctx, q)
    if err != nil {
        return storeError(c, h.Log, err, "post")
    }
    return c.JSON(http.StatusOK, wireAll(posts))
}

// List: GET /api/blog, every post regardless of status.
func (h *BlogHandler) List(c echo.Context) error { return h.list(c, repository.BlogQuery{}) }

func (h *BlogHandler) Published(c echo.Context) error {
    return h.list(c, repository.BlogQuery{Status: model.StatusPublished})
}

// Featured lists posts that are both featured and published.
func (h *BlogHandler) Featured(c echo.Context) error {
    featured := true
    return h.list(c, repository.BlogQuery{Status: model.StatusPublished, Featured: &featured})
}

func (h *BlogHandler) Recent(c echo.Context) error {
    return h.list(c, repository.BlogQuery{Status: model.StatusPublished, Limit: recentLimit})
}

// Search: GET /api/blog/search?q=&category=&status=.  A category of "all"
// or empty and a missing status are absent predicates.
func (h *BlogHandler) Search(c echo.Context) error {
    q := repository.BlogQuery{Term: strings.TrimSpace(c.QueryParam("q"))}
    if cat := strings.TrimSpace(c.QueryParam("category")); cat != "" && !strings.EqualFold(cat, "all") {
        q.CategorySlug = strings.ToLower(cat)
    }
    if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" && !strings.EqualFold(raw, "all") {
        st, err := model.ParseStatus(raw)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
        }
        q.Status = st
    }
    return h.list(c, q)
}

// Categories returns published post counts per category, led by the
// synthetic "all" entry.
func (h *BlogHandler) Categories(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    cats, err := h.Posts.Categories(ctx)
    if err != nil {
        return storeError(c, h.Log, err, "category")
    }
    total := 0
    for _, ct := range cats {
        total += ct.Count
    }
    all := model.Category{Value: "all", Label: "Tất cả", Slug: "all", Count: total}
    return c.JSON(http.StatusOK, model.CategoryList{Categories: append([]model.Category{all}, cats...), Total: total})
}

func (h *BlogHandler) Get(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badID(c)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    p, err := h.Posts.Get(ctx, id)
    if err != nil {
        return storeError(c, h.Log, err, "post")
    }
    return c.JSON(http.StatusOK, model.ToWire(p))
}

// Create defaults status to DRAFT and featured to false; the category slug
// is derived when empty.
func (h *BlogHandler) Create(c echo.Context) error {
    var req model.WirePostInput
    if ok, err := bindValid(c, h.V, &req); !ok {
        return err
    }
    in := req.Create()
    if err := h.V.Struct(in); err != nil {
        msgs := h.V.Messages(err)
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msgs[0], "details": msgs})
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    p, err := h.Posts.Create(ctx, in)
    if err != nil {
        return storeError(c, h.Log, err, "post")
    }
    return c.JSON(http.StatusCreated, model.ToWire(p))
}

func (h *BlogHandler) Update(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badID(c)
    }
    var req model.WirePostInput
    if ok, err := bindValid(c, h.V, &req); !ok {
        return err
    }
    up := req.Update()
    if err := h.V.Struct(up); err != nil {
        msgs := h.V.Messages(err)
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msgs[0], "details": msgs})
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    p, err := h.Posts.Update(ctx, id, up)
    if err != nil {
        return storeError(c, h.Log, err, "post")
    }
    return c.JSON(http.StatusOK, model.ToWire(p))
}

func (h *BlogHandler) Delete(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badID(c)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Posts.Delete(ctx, id); err != nil {
        return storeError(c, h.Log, err, "post")
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *BlogHandler) Publish(c echo.Context) error   { return h.setStatus(c, model.StatusPublished) }
func (h *BlogHandler) Unpublish(c echo.Context) error { return h.setStatus(c, model.StatusDraft) }

func (h *BlogHandler) setStatus(c echo.Context, s model.Status) error {
    id, ok := pathID(c)
    if !ok {
        return badID(c)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    p, err := h.Posts.SetStatus(ctx, id, s)
    if err != nil {
        return storeError(c, h.Log, err, "post")
    }
    return c.JSON(http.StatusOK, model.ToWire(p))
}

type featuredReq struct {
    Featured *bool `json:"featured" validate:"required"`
}

// SetFeatured: PUT /api/blog/:id/featured {featured}.
func (h *BlogHandler) SetFeatured(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badID(c)
    }
    var req featuredReq
    if ok, err := bindValid(c, h.V, &req); !ok {
        return err
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    p, err := h.Posts.SetFeatured(ctx, id, *req.Featured)
    if err != nil {
        return storeError(c, h.Log, err, "post")
    }
    return c.JSON(http.StatusOK, model.ToWire(p))
}

// IncrementViews: PUT /api/blog/:id/views.  With a broker the increment is
// queued and the answer is 202; otherwise, or when publishing fails, it is
// applied inline and the updated post returned.
func (h *BlogHandler) IncrementViews(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badID(c)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if h.Publisher != nil {
        if _, err := h.Posts.Get(ctx, id); err != nil {
            return storeError(c, h.Log, err, "post")
        }
        err := h.Publisher.PublishBlogViewed(ctx, queue.BlogViewedEvent{PostID: id, ViewedAt: time.Now().UTC()})
        if err == nil {
            return c.JSON(http.StatusAccepted, echo.Map{"queued": true})
        }
        h.Log.WithError(err).WithField("post_id", id).Warn("view event not published; counting inline")
    }
    p, err := h.Posts.IncrementViews(ctx, id)
    if err != nil {
        return storeError(c, h.Log, err, "post")
    }
    return c.JSON(http.StatusOK, model.ToWire(p))
}
