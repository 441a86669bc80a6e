package server_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-profileform/internal/config"
	"github.com/goliatone/go-profileform/internal/server"
	"github.com/goliatone/go-profileform/pkg/action"
)

func TestFromConfigSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "sqlite"
	cfg.Store.DSN = filepath.Join(t.TempDir(), "profiles.db")

	rt, err := server.FromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	assert.Nil(t, rt.Watcher)

	rec := post(t, rt.Server, validForm(), true)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := rt.Store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "ada@example.com", stored[0].Email)
}

func TestFromConfigGuards(t *testing.T) {
	cfg := config.Default()
	cfg.Action.JWTSecret = "secret"

	rt, err := server.FromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	rec := post(t, rt.Server, validForm(), true)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "permission", decodeJSON(t, rec)["error"].(map[string]any)["type"])

	cfg.Action.JWTSecret = ""
	cfg.Action.ReadOnly = true
	readOnly, err := server.FromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = readOnly.Close() })

	rec = post(t, readOnly.Server, validForm(), true)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotEqual(t, action.PermissionMessage, decodeJSON(t, rec)["error"].(map[string]any)["message"])
}

func TestFromConfigTemplatesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.tpl"), []byte("custom {{ title }}"), 0o644))

	cfg := config.Default()
	cfg.Page.TemplatesDir = dir
	cfg.Page.WatchTemplates = true
	cfg.Page.Title = "Hello"

	rt, err := server.FromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	require.NotNil(t, rt.Watcher)

	rec := get(t, rt.Server, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "custom Hello", rec.Body.String())
}
