package handler

import (
    "bytes"
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/annotation-tracker/internal/export"
    "github.com/iliyamo/annotation-tracker/internal/repository"
    "github.com/iliyamo/annotation-tracker/internal/service"
)

// AnnotationHandler serves the /annotation routes.
type AnnotationHandler struct {
    Lifecycle *service.Lifecycle
    Stats     *service.Stats
}

func NewAnnotationHandler(l *service.Lifecycle, s *service.Stats) *AnnotationHandler {
    if l == nil || s == nil {
        panic("nil service passed to NewAnnotationHandler")
    }
    return &AnnotationHandler{Lifecycle: l, Stats: s}
}

// Export handles GET /annotation/export?format=csv|xlsx|json and returns
// every record as a file attachment. csv is the default format.
func (h *AnnotationHandler) Export(c echo.Context) error {
    format := c.QueryParam("format")
    if format == "" {
        format = export.FormatCSV
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    recs, err := h.Lifecycle.ListAll(ctx)
    if err != nil {
        return fail(c, err, "failed to export data")
    }
    var buf bytes.Buffer
    if err := export.Write(&buf, format, recs); err != nil {
        switch {
        case errors.Is(err, export.ErrNoData):
            return badRequest(c, "No data to export")
        case errors.Is(err, repository.ErrInvalidArgument):
            return badRequest(c, "Unsupported format")
        }
        return fail(c, err, "failed to export data")
    }
    f, _ := export.Lookup(format)
    c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+f.Filename()+`"`)
    return c.Blob(http.StatusOK, f.ContentType, buf.Bytes())
}

// ListMine handles GET /annotation/Allannotation.
func (h *AnnotationHandler) ListMine(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    recs, err := h.Lifecycle.ListMine(ctx, uid)
    if err != nil {
        return fail(c, err, "failed to list annotations")
    }
    return c.JSON(http.StatusOK, recs)
}

// Pending handles GET /annotation/pending.
func (h *AnnotationHandler) Pending(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    n, err := h.Lifecycle.PendingCount(ctx, uid)
    if err != nil {
        return fail(c, err, "failed to get pending reviews")
    }
    return c.JSON(http.StatusOK, echo.Map{"count": n})
}

// Dashboard handles GET /annotation/stats?days=N.
func (h *AnnotationHandler) Dashboard(c echo.Context) error {
    days := 0
    if raw := strings.TrimSpace(c.QueryParam("days")); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n < 1 || n > 366 {
            return badRequest(c, "days must be between 1 and 366")
        }
        days = n
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    d, err := h.Stats.Dashboard(ctx, days)
    if err != nil {
        return fail(c, err, "failed to load dashboard data")
    }
    return c.JSON(http.StatusOK, d)
}

// MyCount handles GET /annotation/mycount.
func (h *AnnotationHandler) MyCount(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    n, err := h.Lifecycle.MyCount(ctx, uid)
    if err != nil {
        return fail(c, err, "failed to count your annotations")
    }
    return c.JSON(http.StatusOK, echo.Map{"total": n})
}

// Assigned handles GET /annotation/assigned/:annotatorId. Annotators may
// only read their own list; admins may read any.
func (h *AnnotationHandler) Assigned(c echo.Context) error {
    who, err := actor(c)
    if err != nil {
        return unauthorized(c)
    }
    target, err := strconv.ParseInt(c.Param("annotatorId"), 10, 64)
    if err != nil || target <= 0 {
        return badRequest(c, "invalid annotator id")
    }
    if target != who.ID && !who.IsAdmin() {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    items, err := h.Lifecycle.ListAssigned(ctx, target)
    if err != nil {
        return fail(c, err, "failed to fetch assigned texts")
    }
    return c.JSON(http.StatusOK, items)
}

// Submit handles POST /annotation/Addannotation.
func (h *AnnotationHandler) Submit(c echo.Context) error {
    who, err := actor(c)
    if err != nil {
        return unauthorized(c)
    }
    var req service.Submission
    if msg := decode(c, &req); msg != "" {
        return badRequest(c, msg)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    rec, err := h.Lifecycle.Submit(ctx, who, req)
    if errors.Is(err, repository.ErrConflict) {
        return c.JSON(http.StatusConflict, echo.Map{"error": "annotation already exists for this text and user"})
    }
    if err != nil {
        return fail(c, err, "failed to save annotation")
    }
    return c.JSON(http.StatusCreated, rec)
}

type skipReq struct {
    SrcText string `json:"Src_Text" validate:"required"`
}

// Skip handles POST /annotation/skip.
func (h *AnnotationHandler) Skip(c echo.Context) error {
    who, err := actor(c)
    if err != nil {
        return unauthorized(c)
    }
    var req skipReq
    if msg := decode(c, &req); msg != "" {
        return badRequest(c, "Src_Text is required")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    rec, err := h.Lifecycle.Skip(ctx, who, req.SrcText)
    if err != nil {
        return fail(c, err, "failed to skip annotation")
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Annotation marked as skipped", "annotation": rec})
}

// Update handles PUT /annotation/rebortAnnotation/:id.
func (h *AnnotationHandler) Update(c echo.Context) error {
    who, err := actor(c)
    if err != nil {
        return unauthorized(c)
    }
    var patch service.Patch
    if msg := decode(c, &patch); msg != "" {
        return badRequest(c, msg)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    rec, err := h.Lifecycle.Update(ctx, c.Param("id"), who, patch)
    if err != nil {
        return fail(c, err, "failed to update annotation")
    }
    return c.JSON(http.StatusOK, rec)
}

// Delete handles DELETE /annotation/rebortAnnotationDelete/:id and
// returns the removed record.
func (h *AnnotationHandler) Delete(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    rec, err := h.Lifecycle.Delete(ctx, c.Param("id"), uid)
    if err != nil {
        return fail(c, err, "failed to delete annotation")
    }
    return c.JSON(http.StatusOK, rec)
}

// DeleteAll handles DELETE /annotation/deleteAll (admin only).
func (h *AnnotationHandler) DeleteAll(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    n, err := h.Lifecycle.DeleteAll(ctx)
    if err != nil {
        return fail(c, err, "failed to delete annotations")
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "All annotations deleted", "deleted": n})
}
