package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/user-reports/internal/config"
	"github.com/sakif/user-reports/internal/report"
)

func newTestServer(t *testing.T, authCfg config.AuthConfig) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		Server: config.ServerConfig{Port: 8080},
		DB:     config.DBConfig{Path: filepath.Join(t.TempDir(), "reports.db")},
		Log:    config.LogConfig{Level: "error"},
		Auth:   authCfg,
	}

	s, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) call(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, data
}

func TestServer_ReportFlow(t *testing.T) {
	ts := newTestServer(t, config.AuthConfig{})
	c := &client{t: t, base: ts.URL}

	resp, body := c.call(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello World", string(body))

	resp, body = c.call(http.MethodPost, "/api/users", map[string]string{"name": "Ada", "email": "ada@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var user struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &user))

	for _, a := range []map[string]string{
		{"type": "LOGIN", "title": "User logged in", "details": "first"},
		{"type": "PDF_DOWNLOAD", "title": "Report generated"},
		{"type": "LOGIN", "title": "User logged in", "details": "second"},
	} {
		resp, body = c.call(http.MethodPost, "/api/users/1/activity", a)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}

	resp, body = c.call(http.MethodGet, "/api/users/1/report", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var generated struct {
		Message string `json:"message"`
		URL     string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(body, &generated))
	assert.Equal(t, "Report generated successfully", generated.Message)

	pdf, err := report.Decode(generated.URL)
	require.NoError(t, err)
	text := string(pdf)
	assert.Contains(t, text, "Total Logins: 2")
	assert.Contains(t, text, "Total PDF Downloads: 1")
	assert.Contains(t, text, "1. LOGIN - first")
	assert.Contains(t, text, "2. PDF_DOWNLOAD - No details")
	assert.Contains(t, text, "3. LOGIN - second")

	// The generation itself was recorded, once in each log.
	resp, body = c.call(http.MethodGet, "/api/users/1/activities", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []struct {
		Type    string `json:"type"`
		Title   string `json:"title"`
		Details string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history, 4)
	assert.Equal(t, "PDF_DOWNLOAD", history[3].Type)
	assert.Equal(t, "User report generated for Ada", history[3].Details)

	resp, body = c.call(http.MethodGet, "/api/users/1/reports", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ledger []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(body, &ledger))
	require.Len(t, ledger, 1)
	assert.Equal(t, "User report", ledger[0].Title)
	assert.Equal(t, generated.URL, ledger[0].URL)

	// Deleting the user takes the history with it.
	resp, _ = c.call(http.MethodDelete, "/api/users/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = c.call(http.MethodGet, "/api/users/1/report", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ReportForUnknownUser(t *testing.T) {
	ts := newTestServer(t, config.AuthConfig{})
	c := &client{t: t, base: ts.URL}

	resp, _ := c.call(http.MethodGet, "/api/users/999/report", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = c.call(http.MethodGet, "/api/users/999/reports", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_AuthEnabled(t *testing.T) {
	ts := newTestServer(t, config.AuthConfig{
		JWTSecret:              "server-test-secret-0123456789",
		BootstrapAdminEmail:    "root@example.com",
		BootstrapAdminPassword: "bootstrap-pass",
	})
	c := &client{t: t, base: ts.URL}

	resp, _ := c.call(http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := c.call(http.MethodPost, "/api/auth/login", map[string]string{"email": "root@example.com", "password": "bootstrap-pass"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &login))
	c.token = login.Token

	resp, body = c.call(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "root@example.com")

	resp, body = c.call(http.MethodPost, "/api/users", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "bob-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	// A plain USER can read but not manage the directory.
	resp, body = c.call(http.MethodPost, "/api/auth/login", map[string]string{"email": "bob@example.com", "password": "bob-password"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &login))
	bob := &client{t: t, base: ts.URL, token: login.Token}

	resp, _ = bob.call(http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = bob.call(http.MethodDelete, "/api/users/1", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Bob may not touch another user's history or reports.
	resp, _ = bob.call(http.MethodPost, "/api/users/1/activity", map[string]string{"type": "LOGIN", "title": "fake"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = bob.call(http.MethodGet, "/api/users/1/report", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = bob.call(http.MethodGet, "/api/users/1/reports", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = c.call(http.MethodGet, "/api/users/2/activities", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "admins can read any history")

	// The login itself is counted in the report.
	resp, body = bob.call(http.MethodGet, "/api/users/2/report", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var generated struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(body, &generated))
	pdf, err := report.Decode(generated.URL)
	require.NoError(t, err)
	assert.Contains(t, string(pdf), "Total Logins: 1")
}

func TestServer_DemotionTakesEffectImmediately(t *testing.T) {
	ts := newTestServer(t, config.AuthConfig{
		JWTSecret:              "server-test-secret-0123456789",
		BootstrapAdminEmail:    "root@example.com",
		BootstrapAdminPassword: "bootstrap-pass",
	})
	login := func(email, password string) *client {
		c := &client{t: t, base: ts.URL}
		resp, body := c.call(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		var out struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		c.token = out.Token
		return c
	}

	root := login("root@example.com", "bootstrap-pass")
	resp, body := root.call(http.MethodPost, "/api/users", map[string]string{
		"name": "Carol", "email": "carol@example.com", "password": "carol-password", "role": "ADMIN",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var carolUser struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &carolUser))

	carol := login("carol@example.com", "carol-password")
	resp, _ = carol.call(http.MethodGet, "/api/users/1/activities", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = root.call(http.MethodPut, fmt.Sprintf("/api/users/%d", carolUser.ID), map[string]string{"role": "USER"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	// Carol's token still says ADMIN.
	resp, _ = carol.call(http.MethodGet, "/api/users/1/activities", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = carol.call(http.MethodDelete, "/api/users/1", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = root.call(http.MethodDelete, fmt.Sprintf("/api/users/%d", carolUser.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = carol.call(http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_GitHubRoutesOnlyWhenConfigured(t *testing.T) {
	ts := newTestServer(t, config.AuthConfig{JWTSecret: "server-test-secret-0123456789"})
	c := &client{t: t, base: ts.URL}

	resp, _ := c.call(http.MethodGet, "/auth/github/login", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
