package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, root, body string) {
	t.Helper()
	dir := filepath.Join(root, "config")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	conf, _, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "5050", conf.Server.Port)
	assert.Equal(t, "postgres", conf.Database.Driver)
	assert.Equal(t, "disable", conf.Database.SSLMode)
	assert.Equal(t, 30*time.Minute, conf.Screening.SessionTTL)
	assert.Equal(t, 720*time.Hour, conf.Screening.FollowUpAfter)
	assert.Equal(t, "09:00", conf.Scheduler.FollowUpTime)
	assert.True(t, conf.Scheduler.Enabled)
	assert.Equal(t, uint(10), conf.Server.CreateRateLimit)
}

func TestLoadFileAndEnv(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
server:
  port: "8080"
database:
  driver: sqlite
  path: /tmp/screenings.db
screening:
  session_ttl: 45m
scheduler:
  follow_up_time: "07:30"
`)
	t.Setenv("VISIONAI_SERVER_PORT", "9090")

	conf, v, err := Load(root)
	require.NoError(t, err)
	assert.NotEmpty(t, v.ConfigFileUsed())

	assert.Equal(t, "9090", conf.Server.Port, "environment overrides the file")
	assert.Equal(t, "sqlite", conf.Database.Driver)
	assert.Equal(t, "/tmp/screenings.db", conf.Database.Path)
	assert.Equal(t, 45*time.Minute, conf.Screening.SessionTTL)
	assert.Equal(t, "07:30", conf.Scheduler.FollowUpTime)
	assert.Equal(t, 7, conf.Logging.MaxAge)
}

func TestLoadDotEnv(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("VISIONAI_DATABASE_DBNAME=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("VISIONAI_DATABASE_DBNAME") })

	conf, _, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", conf.Database.DBName)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "server: [port\n")

	_, _, err := Load(root)
	assert.Error(t, err)
}

func TestInitSetsGlobal(t *testing.T) {
	require.NoError(t, Init(t.TempDir(), zap.NewNop()))
	require.NotNil(t, Conf)
	assert.Equal(t, "5050", Conf.Server.Port)
}
