package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/annotation-tracker/internal/model"
    "github.com/iliyamo/annotation-tracker/internal/service"
)

// ProgressHandler serves the progress cursor and the task list.
type ProgressHandler struct {
    Progress *service.Progress
}

func NewProgressHandler(p *service.Progress) *ProgressHandler {
    return &ProgressHandler{Progress: p}
}

type saveProgressReq struct {
    Index *int `json:"index" validate:"required,min=0"`
}

// Save handles POST /progress.
func (h *ProgressHandler) Save(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    var req saveProgressReq
    if msg := decode(c, &req); msg != "" {
        return badRequest(c, "index must be a non-negative integer")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    if err := h.Progress.SaveProgress(ctx, uid, *req.Index); err != nil {
        return fail(c, err, "failed to save progress")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Get handles GET /progress. Annotators without a cursor get index 0.
func (h *ProgressHandler) Get(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    idx, err := h.Progress.GetProgress(ctx, uid)
    if err != nil {
        return fail(c, err, "failed to load progress")
    }
    return c.JSON(http.StatusOK, echo.Map{"index": idx})
}

// ListTasks handles GET /data/annotation.
func (h *ProgressHandler) ListTasks(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    tasks, err := h.Progress.ListTasks(ctx)
    if err != nil {
        return fail(c, err, "failed to load tasks")
    }
    return c.JSON(http.StatusOK, tasks)
}

type importTasksReq struct {
    Tasks []model.Task `json:"tasks" validate:"required,min=1,dive"`
}

// ImportTasks handles POST /data/annotation (admin only) and appends
// the given texts to the end of the task list.
func (h *ProgressHandler) ImportTasks(c echo.Context) error {
    var req importTasksReq
    if msg := decode(c, &req); msg != "" {
        return badRequest(c, msg)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    out, err := h.Progress.ImportTasks(ctx, req.Tasks)
    if err != nil {
        return fail(c, err, "failed to import tasks")
    }
    return c.JSON(http.StatusCreated, out)
}
