package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/annotation-tracker/internal/service"
)

// AuthHandler serves account registration, login and administration.
type AuthHandler struct {
    Accounts *service.Accounts
}

func NewAuthHandler(a *service.Accounts) *AuthHandler {
    return &AuthHandler{Accounts: a}
}

type loginReq struct {
    Email    string `json:"email" validate:"required"`
    Password string `json:"password" validate:"required"`
}

type changePasswordReq struct {
    CurrentPassword string `json:"currentPassword" validate:"required"`
    NewPassword     string `json:"newPassword" validate:"required"`
}

type roleReq struct {
    Role string `json:"userType" validate:"required,oneof=admin annotator"`
}

// Register handles POST /users/addUsers and returns the account with a
// token so the client is signed in immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req service.Registration
    if msg := decode(c, &req); msg != "" {
        return badRequest(c, msg)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    s, err := h.Accounts.Register(ctx, req)
    if err != nil {
        return fail(c, err, "create user failed")
    }
    return c.JSON(http.StatusCreated, s)
}

// Login handles POST /users/login. Unknown emails and wrong passwords
// are both answered with 400.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if msg := decode(c, &req); msg != "" {
        return badRequest(c, "email/password required")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    s, err := h.Accounts.Authenticate(ctx, req.Email, req.Password)
    if errors.Is(err, service.ErrInvalidCredentials) {
        return badRequest(c, "invalid credentials")
    }
    if err != nil {
        return fail(c, err, "login failed")
    }
    return c.JSON(http.StatusOK, s)
}

// ChangePassword handles POST /users/change-password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    var req changePasswordReq
    if msg := decode(c, &req); msg != "" {
        return badRequest(c, msg)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    err = h.Accounts.ChangePassword(ctx, uid, req.CurrentPassword, req.NewPassword)
    if errors.Is(err, service.ErrInvalidCredentials) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password is incorrect"})
    }
    if err != nil {
        return fail(c, err, "change password failed")
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully"})
}

// List handles GET /users/usersAll (admin only).
func (h *AuthHandler) List(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    users, err := h.Accounts.List(ctx)
    if err != nil {
        return fail(c, err, "failed to list users")
    }
    return c.JSON(http.StatusOK, users)
}

// SetRole handles PUT /users/:id/role (admin only).
func (h *AuthHandler) SetRole(c echo.Context) error {
    id, err := strconv.ParseInt(c.Param("id"), 10, 64)
    if err != nil || id <= 0 {
        return badRequest(c, "invalid user id")
    }
    var req roleReq
    if msg := decode(c, &req); msg != "" {
        return badRequest(c, msg)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    u, err := h.Accounts.SetRole(ctx, id, req.Role)
    if err != nil {
        return fail(c, err, "failed to update role")
    }
    return c.JSON(http.StatusOK, u)
}

// Delete handles DELETE /users/:id (admin only). The annotator's
// records are kept.
func (h *AuthHandler) Delete(c echo.Context) error {
    id, err := strconv.ParseInt(c.Param("id"), 10, 64)
    if err != nil || id <= 0 {
        return badRequest(c, "invalid user id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    u, err := h.Accounts.Remove(ctx, id)
    if err != nil {
        return fail(c, err, "failed to delete user")
    }
    return c.JSON(http.StatusOK, u)
}
