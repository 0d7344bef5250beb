package middleware

import (
    "context"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/annotation-tracker/internal/config"
    "github.com/iliyamo/annotation-tracker/internal/utils"
)

const secret = "test-secret"

func newRedis(t *testing.T) *redis.Client {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return rdb
}

func bearer(t *testing.T, who utils.Identity) string {
    t.Helper()
    tok, err := utils.NewAccessToken(secret, who, 5)
    require.NoError(t, err)
    return "Bearer " + tok.Token
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, nil)
    if auth != "" {
        req.Header.Set("Authorization", auth)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuth(t *testing.T) {
    e := echo.New()
    e.GET("/me", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"id": c.Get(CtxUserID), "role": c.Get(CtxRole)})
    }, JWTAuth(secret))

    rec := serve(e, http.MethodGet, "/me", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    rec = serve(e, http.MethodGet, "/me", "Bearer garbage")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    rec = serve(e, http.MethodGet, "/me", bearer(t, utils.Identity{AnnotatorID: 101, Role: "annotator"}))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"id":101,"role":"annotator"}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
    e := echo.New()
    e.DELETE("/all", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
        JWTAuth(secret), RequireRole("admin"))

    rec := serve(e, http.MethodDelete, "/all", bearer(t, utils.Identity{AnnotatorID: 101, Role: "annotator"}))
    assert.Equal(t, http.StatusForbidden, rec.Code)

    rec = serve(e, http.MethodDelete, "/all", bearer(t, utils.Identity{AnnotatorID: 900, Role: "admin"}))
    assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRedisCache_HitAfterMiss(t *testing.T) {
    rdb := newRedis(t)
    cfg := config.CacheConfig{
        Enabled:     true,
        Methods:     map[string]bool{http.MethodGet: true},
        TTL:         time.Minute,
        KeyStrategy: "route_query",
        Prefix:      "test:cache",
    }
    calls := 0
    e := echo.New()
    e.GET("/stats", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, echo.Map{"calls": calls})
    }, NewRedisCache(cfg, rdb))

    first := serve(e, http.MethodGet, "/stats?days=7", "")
    assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

    second := serve(e, http.MethodGet, "/stats?days=7", "")
    assert.Equal(t, http.StatusOK, second.Code)
    assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
    assert.Equal(t, first.Body.String(), second.Body.String())
    assert.Contains(t, second.Header().Get(echo.HeaderContentType), "application/json")

    other := serve(e, http.MethodGet, "/stats?days=30", "")
    assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
    assert.Equal(t, 2, calls)
}

func TestRedisCache_SkipsErrorsAndNilClient(t *testing.T) {
    rdb := newRedis(t)
    cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "test:cache"}
    e := echo.New()
    e.GET("/broken", func(c echo.Context) error {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "boom"})
    }, NewRedisCache(cfg, rdb))

    serve(e, http.MethodGet, "/broken", "")
    rec := serve(e, http.MethodGet, "/broken", "")
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

    e.GET("/plain", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, NewRedisCache(cfg, nil))
    rec = serve(e, http.MethodGet, "/plain", "")
    assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestTokenBucket_BlocksOverCapacity(t *testing.T) {
    rdb := newRedis(t)
    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Hour,
        TTL:            time.Hour,
        Prefix:         "test:rl",
    }
    e := echo.New()
    e.POST("/submit", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, NewTokenBucket(cfg, rdb))

    for i := 0; i < 2; i++ {
        rec := serve(e, http.MethodPost, "/submit", "")
        require.Equal(t, http.StatusCreated, rec.Code)
    }
    rec := serve(e, http.MethodPost, "/submit", "")
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))
    assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestTokenBucket_SeparateBucketPerAnnotator(t *testing.T) {
    rdb := newRedis(t)
    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       1,
        RefillTokens:   1,
        RefillInterval: time.Hour,
        TTL:            time.Hour,
        Prefix:         "test:rl",
    }
    asUser := func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if id := c.QueryParam("uid"); id != "" {
                c.Set(CtxUserID, id)
            }
            return next(c)
        }
    }
    e := echo.New()
    e.POST("/submit", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, asUser, NewTokenBucket(cfg, rdb))

    assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/submit?uid=101", "").Code)
    assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodPost, "/submit?uid=101", "").Code)
    rec := serve(e, http.MethodPost, "/submit?uid=102", "")
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

    keys, err := rdb.Keys(context.Background(), "test:rl:*").Result()
    require.NoError(t, err)
    assert.ElementsMatch(t, []string{"test:rl:101:POST /submit", "test:rl:102:POST /submit"}, keys)
}

func TestTokenBucket_PassThroughWithoutRedis(t *testing.T) {
    cfg := config.RateLimitConfig{Enabled: true, Capacity: 1}
    e := echo.New()
    e.POST("/submit", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, NewTokenBucket(cfg, nil))

    for i := 0; i < 3; i++ {
        assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/submit", "").Code)
    }
}

func TestValidator(t *testing.T) {
    type req struct {
        Email string `validate:"required,email"`
    }
    v := NewValidator()
    assert.Error(t, v.Validate(req{Email: "nope"}))
    assert.NoError(t, v.Validate(req{Email: "a@example.com"}))
}

func TestValidationMessage_UsesJSONFieldNames(t *testing.T) {
    type req struct {
        SrcText  string   `json:"Src_Text" validate:"required"`
        Omission int      `json:"Omission" validate:"min=0"`
        Role     string   `json:"userType" validate:"omitempty,oneof=admin annotator"`
        Email    string   `json:"email" validate:"omitempty,email"`
        Tasks    []string `json:"tasks" validate:"omitempty,min=2"`
    }
    v := NewValidator()
    cases := []struct {
        in   req
        want string
    }{
        {req{}, "Src_Text is required"},
        {req{SrcText: "x", Omission: -1}, "Omission must be at least 0"},
        {req{SrcText: "x", Role: "root"}, "userType must be one of: admin annotator"},
        {req{SrcText: "x", Email: "nope"}, "email must be a valid email address"},
        {req{SrcText: "x", Tasks: []string{"a"}}, "tasks must contain at least 2 item(s)"},
    }
    for _, tc := range cases {
        err := v.Validate(tc.in)
        require.Error(t, err)
        assert.Equal(t, tc.want, ValidationMessage(err))
        assert.NotContains(t, ValidationMessage(err), "Key:")
    }
    assert.Equal(t, "invalid request body", ValidationMessage(assert.AnError))
}
