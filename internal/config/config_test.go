package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Session.Lifetime)
	assert.Equal(t, int64(50<<20), cfg.Uploads.MaxRequestBytes)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.True(t, cfg.Projects.AllowDirectJoin)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
database:
  host: db.internal
  port: "6432"
  user: hub
  name: hub
server:
  port: "8080"
uploads:
  dir: /var/lib/hub
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_CORS_ORIGINS", "https://hub.example.com,https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://hub.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/var/lib/hub", cfg.Uploads.Dir)
	assert.Equal(t, "host=db.internal port=6432 user=hub password=secret dbname=hub sslmode=disable", cfg.Database.GetDSN())
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.GetAddress())
}
