package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sistema-vacunacion/internal/config"
	"sistema-vacunacion/internal/core/domain"
	"sistema-vacunacion/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuthenticator accepts a fixed set of tokens
type stubAuthenticator map[string]*domain.Identity

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.Identity, error) {
	switch token {
	case "":
		return nil, services.ErrMissingToken
	case "expired":
		return nil, services.ErrTokenExpired
	case "inactive":
		return nil, services.ErrUserInactive
	case "broken":
		return nil, errors.New("database is down")
	}
	identity, ok := s[token]
	if !ok {
		return nil, services.ErrInvalidToken
	}
	return identity, nil
}

func newGuardedApp() *fiber.App {
	auth := AuthMiddleware(stubAuthenticator{
		"nurse":   {UserID: 2, Name: "Lic. Rojas", Roles: []string{"enfermero"}},
		"patient": {UserID: 3, Name: "Lucía", Roles: []string{domain.RolePatient}},
		"admin":   {UserID: 1, Name: "Administrador", Roles: []string{domain.RoleAdmin}},
	})

	app := fiber.New()
	ok := func(c *fiber.Ctx) error { return c.SendString(Actor(c)) }
	app.Get("/staff", auth, StaffOnly(), ok)
	app.Get("/admin", auth, AdminOnly(), ok)
	app.Get("/open", ok)
	return app
}

func get(t *testing.T, app *fiber.App, path string, configure func(*http.Request)) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if configure != nil {
		configure(req)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(fiber.HeaderAuthorization, "Bearer "+token) }
}

func TestAuthMiddlewareStatuses(t *testing.T) {
	app := newGuardedApp()

	tests := []struct {
		name   string
		token  string
		path   string
		status int
	}{
		{"missing token", "", "/staff", http.StatusUnauthorized},
		{"expired token", "expired", "/staff", http.StatusUnauthorized},
		{"unknown token", "forged", "/staff", http.StatusUnauthorized},
		{"inactive account", "inactive", "/staff", http.StatusForbidden},
		{"lookup failure", "broken", "/staff", http.StatusInternalServerError},
		{"nurse is staff", "nurse", "/staff", http.StatusOK},
		{"patient is not staff", "patient", "/staff", http.StatusForbidden},
		{"nurse is not admin", "nurse", "/admin", http.StatusForbidden},
		{"admin", "admin", "/admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var configure func(*http.Request)
			if tt.token != "" {
				configure = bearer(tt.token)
			}
			resp := get(t, app, tt.path, configure)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAuthMiddlewareReadsCookie(t *testing.T) {
	app := newGuardedApp()

	resp := get(t, app, "/staff", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "access_token", Value: "nurse"})
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestActorDefaultsToSystem(t *testing.T) {
	app := newGuardedApp()

	resp := get(t, app, "/open", nil)
	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, domain.SystemActor, string(body[:n]))
}

func TestCacheHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/public", PublicCache(5*time.Minute), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", PublicCache(5*time.Minute), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })
	app.Get("/private", NoCache(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	assert.Equal(t, "public, max-age=300", get(t, app, "/public", nil).Header.Get(fiber.HeaderCacheControl))
	assert.Empty(t, get(t, app, "/missing", nil).Header.Get(fiber.HeaderCacheControl))

	resp := get(t, app, "/private", nil)
	assert.Equal(t, "no-store, no-cache, must-revalidate", resp.Header.Get(fiber.HeaderCacheControl))
	assert.Equal(t, "no-cache", resp.Header.Get(fiber.HeaderPragma))
}

func TestErrorHandlerAndNotFound(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(&config.Config{AppMode: "prod"})})
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("secret detail") })
	app.Use(NotFound())

	assert.Equal(t, fiber.StatusTeapot, get(t, app, "/teapot", nil).StatusCode)
	assert.Equal(t, http.StatusInternalServerError, get(t, app, "/boom", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, get(t, app, "/nowhere", nil).StatusCode)
}

func TestUploadedFilesAreSandboxed(t *testing.T) {
	dir := t.TempDir()
	svg := `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.svg"), []byte(svg), 0o644))

	app := fiber.New()
	app.Use("/carousel", UploadedFiles())
	app.Static("/carousel", dir)

	resp := get(t, app, "/carousel/logo.svg", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentSecurityPolicy), "sandbox")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentSecurityPolicy), "default-src 'none'")
	assert.Equal(t, "nosniff", resp.Header.Get(fiber.HeaderXContentTypeOptions))
}
