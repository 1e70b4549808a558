package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "autosave", cfg.Workspace.AutosaveSlot)
	assert.Equal(t, 13, cfg.Workspace.Zoom)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MAPNOTES_SERVER_PORT", "9090")
	t.Setenv("MAPNOTES_DATABASE_PATH", "/tmp/x.db")
	t.Setenv("MAPNOTES_LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestValidateAggregates(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: 0, MaxUploadSize: 1},
		Log:       LogConfig{Format: "xml"},
		RateLimit: RateLimitConfig{Requests: 1, WindowSeconds: 1},
		Workspace: WorkspaceConfig{AutosaveSlot: "a", Zoom: 30},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "database.path")
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "workspace.zoom")
}
