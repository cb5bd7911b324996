package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.test.yaml")
	yml := `
server:
  port: 9000
database:
  host: db.internal
  user: chat
  dbname: chat
jwt:
  secret: from-yaml-secret
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("DB_HOST", "override-host")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "override-host", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "from-yaml-secret", cfg.JWT.Secret)
	assert.Equal(t, 15, cfg.JWT.ExpiresIn)
	assert.Equal(t, 60, cfg.RateLimit.MessagesPerMinute)
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 3306, User: "u", Password: "p", DBName: "chat"}
	assert.Equal(t, "u:p@tcp(h:3306)/chat?charset=utf8mb4&parseTime=True&loc=UTC", d.GetDSN())
}
