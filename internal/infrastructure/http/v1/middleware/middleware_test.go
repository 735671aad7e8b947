package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinfilter/internal/core/apperror"
	appctx "kinfilter/internal/core/context"
	"kinfilter/internal/core/locale"
	"kinfilter/pkg/logger"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), Trace(), Logger(logger.Nop()), ErrorHandler())
	r.GET("/", handlers...)
	return r
}

func get(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type staticValidator struct {
	user *appctx.UserContext
}

func (v staticValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return v.user, nil
}

func TestRecovery(t *testing.T) {
	r := newEngine(func(*gin.Context) { panic("boom") })
	w := get(r, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeInternal)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestErrorHandler(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(apperror.NewFilterCycle("Loop"))
	})
	w := get(r, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeFilterCycle)

	r = newEngine(func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("apply: %w", apperror.NewFilterNotFound("Person", "Nope")))
	})
	w = get(r, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeFilterNotFound)

	r = newEngine(func(c *gin.Context) {
		_ = c.Error(errors.New("secret detail"))
	})
	w = get(r, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret detail")
}

func TestTrace_KeepsRequestID(t *testing.T) {
	var seen string
	r := newEngine(func(c *gin.Context) {
		seen = appctx.GetRequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	w := get(r, map[string]string{HeaderRequestID: "req-1"})
	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))
	assert.NotEmpty(t, w.Header().Get(HeaderTraceID))
}

func TestAuth(t *testing.T) {
	v := staticValidator{user: &appctx.UserContext{UserID: "u1", Roles: []string{"reader"}}}
	ok := func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetUserID(c.Request.Context()))
	}

	tests := []struct {
		name     string
		handlers []gin.HandlerFunc
		header   string
		status   int
	}{
		{"missing header", []gin.HandlerFunc{Auth(v), ok}, "", http.StatusUnauthorized},
		{"wrong scheme", []gin.HandlerFunc{Auth(v), ok}, "Basic good", http.StatusUnauthorized},
		{"bad token", []gin.HandlerFunc{Auth(v), ok}, "Bearer bad", http.StatusUnauthorized},
		{"good token", []gin.HandlerFunc{Auth(v), ok}, "Bearer good", http.StatusOK},
		{"role held", []gin.HandlerFunc{Auth(v), RequireRole("writer", "reader"), ok}, "bearer good", http.StatusOK},
		{"role missing", []gin.HandlerFunc{Auth(v), RequireRole("writer"), ok}, "Bearer good", http.StatusForbidden},
		{"role without auth", []gin.HandlerFunc{RequireRole("reader"), ok}, "", http.StatusUnauthorized},
		{"optional without token", []gin.HandlerFunc{OptionalAuth(v), ok}, "", http.StatusOK},
		{"optional with bad token", []gin.HandlerFunc{OptionalAuth(v), ok}, "Bearer bad", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var header map[string]string
			if tt.header != "" {
				header = map[string]string{"Authorization": tt.header}
			}
			w := get(newEngine(tt.handlers...), header)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK && tt.header == "Bearer good" {
				assert.Equal(t, "u1", w.Body.String())
			}
		})
	}
}

func TestLocale(t *testing.T) {
	catalog := locale.Builtin()
	var got string
	handler := func(c *gin.Context) {
		got = locale.FromContext(c.Request.Context()).Gettext("Entire Database")
		c.Status(http.StatusNoContent)
	}

	w := get(newEngine(Locale(catalog), handler), map[string]string{"Accept-Language": "fr-CA"})
	assert.Equal(t, "Base de données complète", got)
	assert.Equal(t, "fr", w.Header().Get("Content-Language"))

	get(newEngine(Locale(catalog), handler), nil)
	assert.Equal(t, "Entire Database", got)

	user := staticValidator{user: &appctx.UserContext{UserID: "u1", Locale: "de"}}
	get(newEngine(Auth(user), Locale(catalog), handler),
		map[string]string{"Authorization": "Bearer good", "Accept-Language": "fr"})
	require.Equal(t, "Gesamte Datenbank", got)
}
