package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"database":{"host":"127.0.0.1","user":"u","dbname":"d"}}`))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 3306, cfg.Database.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 1536, cfg.AI.Dimensions)
	require.Equal(t, 200, cfg.Chunking.MaxWords)
	require.Equal(t, 10, cfg.Queue.BatchSize)
	require.Equal(t, 5, cfg.Queue.DrainLimit)
	require.Equal(t, "* * * * *", cfg.Queue.DurableCron)
	require.Equal(t, "0 * * * *", cfg.Queue.FallbackCron)
}

func TestLoad_RequiresDatabase(t *testing.T) {
	_, err := Load(writeConfig(t, `{"port":9000}`))
	require.Error(t, err)
}

func TestLoad_DSNAloneIsEnough(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"database":{"dsn":"u:p@tcp(h:3306)/d"}}`))
	require.NoError(t, err)
	require.Equal(t, "u:p@tcp(h:3306)/d", cfg.Database.DSN)
}

func TestLoad_ExplicitValuesKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"port": 9001,
		"database": {"host": "db", "port": 3307, "user": "u", "dbname": "d"},
		"ai": {"provider": "openai", "model": "text-embedding-3-large", "dimensions": 3072,
			"providers": {"openai": {"api_key": "sk-x"}}},
		"chunking": {"max_words": 120},
		"queue": {"batch_size": 25}
	}`))
	require.NoError(t, err)
	require.Equal(t, 9001, cfg.Port)
	require.Equal(t, 3307, cfg.Database.Port)
	require.Equal(t, 3072, cfg.AI.Dimensions)
	require.Equal(t, 120, cfg.Chunking.MaxWords)
	require.Equal(t, 25, cfg.Queue.BatchSize)
	require.Contains(t, cfg.AI.Providers, "openai")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
