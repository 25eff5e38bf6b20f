package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "DATABASE_DSN", "PREDICTOR_URL", "AI_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 8080
  allowedOrigins: ["chrome-extension://abc"]
database:
  driver: mysql
  host: db
  port: 3306
  user: app
  password: secret
  name: phishscan
predictor:
  baseURL: http://inference:5001
  timeout: 10s
ai:
  provider: openai
  apiKey: sk-test
  model: gpt-4o-mini
minio:
  enabled: true
  endpoint: minio:9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"chrome-extension://abc"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Predictor.Timeout)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "model", cfg.AI.Fallback)
	assert.Equal(t, "phishscan-corrections", cfg.Minio.BucketName)
	assert.Equal(t, "app:secret@tcp(db:3306)/phishscan?parseTime=true&charset=utf8mb4&loc=UTC&clientFoundRows=true", cfg.DatabaseDSN())
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, DefaultAllowedOrigins, cfg.Server.AllowedOrigins)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "phishscan.db", cfg.DatabaseDSN())
	assert.Equal(t, "http://localhost:5001", cfg.Predictor.BaseURL)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "g-key", cfg.AI.APIKey)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DSN", "postgres://u:p@db/phishscan")
	t.Setenv("PREDICTOR_URL", "http://ml:5001")
	t.Setenv("AI_API_KEY", "k")
	path := writeConfig(t, "database:\n  driver: postgres\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@db/phishscan", cfg.DatabaseDSN())
	assert.Equal(t, "http://ml:5001", cfg.Predictor.BaseURL)
	assert.Equal(t, "k", cfg.AI.APIKey)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
database:
  driver: mongodb
ai:
  provider: claude
  fallback: guess
minio:
  enabled: true
`)

	_, err := Load(path)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `unknown driver "mongodb"`)
	assert.Contains(t, msg, `unknown provider "claude"`)
	assert.Contains(t, msg, "apiKey is required")
	assert.Contains(t, msg, `unknown fallback "guess"`)
	assert.Contains(t, msg, "minio: endpoint")
}

func TestPostgresDSN(t *testing.T) {
	var cfg Config
	cfg.Database.Driver = "postgres"
	cfg.Database.Host = "db"
	cfg.Database.Port = 5432
	cfg.Database.User = "app"
	cfg.Database.Password = "pw"
	cfg.Database.Name = "phishscan"

	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=phishscan sslmode=disable", cfg.DatabaseDSN())
}

func TestDatabasePortDefaultsPerDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_API_KEY", "k")

	cfg, err := Load(writeConfig(t, "database:\n  driver: mysql\n  host: db\n  user: app\n  name: phishscan\n"))
	require.NoError(t, err)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Contains(t, cfg.DatabaseDSN(), "tcp(db:3306)")

	cfg, err = Load(writeConfig(t, "database:\n  driver: postgres\n  host: db\n"))
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Contains(t, cfg.DatabaseDSN(), "port=5432")

	cfg, err = Load(writeConfig(t, "database:\n  driver: mysql\n  host: db\n  port: 3307\n"))
	require.NoError(t, err)
	assert.Equal(t, 3307, cfg.Database.Port)
}
