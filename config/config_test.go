package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Defaults(t *testing.T) {
	loader := NewLoader()
	loader.SetConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))

	config, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 8088, config.Server.Port)
	assert.Equal(t, "0.0.0.0:8088", config.Server.Addr())
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "games", config.Games.Dir)
	assert.False(t, config.Games.AppendWinnerOnReplay)
	assert.False(t, config.Redis.Enabled)
	assert.False(t, config.Archive.Enabled)
}

func TestLoader_File(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  host: "127.0.0.1"
  port: 9090
  allow_origins: ["http://localhost:5173"]
log:
  level: debug
  format: json
games:
  dir: /srv/games
  append_winner_on_replay: true
redis:
  enabled: true
  address: "redis:6379"
  db: 2
archive:
  enabled: true
  path: /srv/history.db
`)
	loader := NewLoader()
	loader.SetConfigFile(path)

	config, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", config.Server.Addr())
	assert.Equal(t, []string{"http://localhost:5173"}, config.Server.AllowOrigins)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, "/srv/games", config.Games.Dir)
	assert.True(t, config.Games.AppendWinnerOnReplay)
	assert.Equal(t, "redis:6379", config.Redis.Address)
	assert.Equal(t, 2, config.Redis.DB)
	assert.Equal(t, "/srv/history.db", config.Archive.Path)
}

func TestLoader_EnvironmentOverride(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  port: 9090\n")
	t.Setenv("MUSICBINGO_SERVER_PORT", "7070")
	t.Setenv("MUSICBINGO_GAMES_APPEND_WINNER_ON_REPLAY", "true")

	loader := NewLoader()
	loader.SetConfigFile(path)
	config, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, config.Server.Port)
	assert.True(t, config.Games.AppendWinnerOnReplay)
}

func TestLoader_DotEnv(t *testing.T) {
	envFile := writeFile(t, ".env", "MUSICBINGO_LOG_LEVEL=warn\n")
	t.Setenv("MUSICBINGO_LOG_LEVEL", "")
	os.Unsetenv("MUSICBINGO_LOG_LEVEL")

	loader := NewLoader()
	loader.SetConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	loader.envFile = envFile

	config, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", config.Log.Level)
}

func TestLoader_Validation(t *testing.T) {
	tests := map[string]string{
		"port":   "server:\n  port: 70000\n",
		"format": "log:\n  format: xml\n",
		"redis":  "redis:\n  enabled: true\n  address: \"\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			loader := NewLoader()
			loader.SetConfigFile(writeFile(t, "config.yaml", content))
			_, err := loader.Load()
			assert.Error(t, err)
		})
	}
}
