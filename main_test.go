package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"market/internal/config"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := config.Config{
		AppPort:           ":8081",
		DatabaseDriver:    config.DriverMemory,
		HashAlgorithm:     "HS256",
		HashSecretKey:     "test_jwt_secret",
		AccessTokenExpiry: 15 * time.Minute,
		BcryptCost:        bcrypt.MinCost,
		MediaPath:         t.TempDir(),
		CORSAllowOrigins:  "*",
	}
	require.NoError(t, cfg.Validate())

	app, closeApp, err := NewApp(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { closeApp() })
	return app
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"status":"healthy"`)
}

func TestSignupThenAccessProtectedRoute(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{
		"username":  {"carol12345"},
		"password":  {"password1"},
		"full_name": {"Carol"},
	}
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&token))
	resp.Body.Close()
	assert.Equal(t, "bearer", token.TokenType)

	req = httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token.AccessToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var user map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, "carol12345", user["username"])
	assert.NotContains(t, user, "password")
}

func TestUnauthenticatedAccess(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/user", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get(fiber.HeaderWWWAuthenticate))
}
