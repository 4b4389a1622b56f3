package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hospital-admin/internal/model"
)

// The bulk endpoints take a bare JSON array of ids (or {ids, featured}) and
// report how many rows matched.  Unknown ids are skipped, not errors.

func (h *BlogHandler) bindIDs(c echo.Context) ([]int64, bool, error) {
    var ids []int64
    if err := c.Bind(&ids); err != nil || len(ids) == 0 {
        return nil, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "a non-empty array of ids is required"})
    }
    return ids, true, nil
}

// BulkDelete: DELETE /api/blog/bulk [ids].
func (h *BlogHandler) BulkDelete(c echo.Context) error {
    ids, ok, err := h.bindIDs(c)
    if !ok {
        return err
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    n, err := h.Posts.DeleteMany(ctx, ids)
    if err != nil {
        return storeError(c, h.Log, err, "post")
    }
    return c.JSON(http.StatusOK, model.BulkResult{Requested: len(ids), Affected: n})
}

func (h *BlogHandler) BulkPublish(c echo.Context) error   { return h.bulkStatus(c, model.StatusPublished) }
func (h *BlogHandler) BulkUnpublish(c echo.Context) error { return h.bulkStatus(c, model.StatusDraft) }

func (h *BlogHandler) bulkStatus(c echo.Context, s model.Status) error {
    ids, ok, err := h.bindIDs(c)
    if !ok {
        return err
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    n, err := h.Posts.SetStatusMany(ctx, ids, s)
    if err != nil {
        return storeError(c, h.Log, err, "post")
    }
    return c.JSON(http.StatusOK, model.BulkResult{Requested: len(ids), Affected: n})
}

// BulkFeatured: PUT /api/blog/bulk/featured {ids, featured}.
func (h *BlogHandler) BulkFeatured(c echo.Context) error {
    var req model.BulkFeatured
    if err := c.Bind(&req); err != nil || len(req.IDs) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "a non-empty ids array is required"})
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    n, err := h.Posts.SetFeaturedMany(ctx, req.IDs, req.Featured)
    if err != nil {
        return storeError(c, h.Log, err, "post")
    }
    return c.JSON(http.StatusOK, model.BulkResult{Requested: len(req.IDs), Affected: n})
}
