package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

const testConfigYAML = `
is_production: true
log_level: warn
ops_endpoints_enable: true
server:
  host: "127.0.0.1"
  port: "9090"
  request_timeout: 2s
storage:
  engine: "bolt"
  breaker:
    enable: true
boltdb:
  filepath: "./books.db"
  bucket_name: "books"
catalog:
  default_group_by: "rating"
ratelimit:
  enable: true
  rate: 5
  burst: 10
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		config, err := LoadConfigFile(writeTestConfig(t, testConfigYAML))
		require.NoError(t, err)
		assert.True(t, config.IsProduction)
		assert.Equal(t, zapcore.WarnLevel, config.LogLevel)
		assert.Equal(t, "9090", config.Server.Port)
		assert.Equal(t, 2*time.Second, config.Server.RequestTimeout)
		assert.Equal(t, EngineBolt, config.Storage.Engine)
		assert.True(t, config.Storage.Breaker.Enable)
		assert.Equal(t, "books", config.BoltDB.BucketName)
		assert.Equal(t, "rating", config.Catalog.DefaultGroupBy)
		assert.Equal(t, 5.0, config.RateLimit.Rate)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "none.yml"))
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := LoadConfigFile(writeTestConfig(t, "server: [unclosed"))
		assert.Error(t, err)
	})
}

func TestLoadConfigEnvs(t *testing.T) {
	t.Setenv("BCAT_SERVER_PORT", "7070")
	t.Setenv("BCAT_REDIS_PASSWORD", "secret")
	t.Setenv("BCAT_CATALOG_RECOMMEND_MIN_AGE", "5")
	t.Setenv("BCAT_RATELIMIT_EXPIRES", "90s")
	config := &Config{Server: ServerConfig{Host: "localhost", Port: "8080"}}
	require.NoError(t, LoadConfigEnvs("BCAT", config))
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "7070", config.Server.Port)
	assert.Equal(t, "secret", config.Redis.Password)
	assert.Equal(t, 5, config.Catalog.RecommendMinAge)
	assert.Equal(t, 90*time.Second, config.RateLimit.Expires)
}

func TestInitConfig(t *testing.T) {
	validConfig := func() *Config {
		return &Config{
			Server: ServerConfig{Host: "localhost", Port: "8080"},
			Redis:  RedisConfig{Host: "localhost", Port: "6379"},
		}
	}

	t.Run("defaults", func(t *testing.T) {
		config := validConfig()
		require.NoError(t, InitConfig(config, "abc", "v1.0.0", "now"))
		assert.Equal(t, "abc", config.GitCommit)
		assert.Equal(t, "v1.0.0", config.GitTag)
		assert.Equal(t, "now", config.BuildTime)
		assert.Equal(t, EngineRedis, config.Storage.Engine)
		assert.Equal(t, 10*time.Second, config.Server.ShutdownTimeout)
		assert.Equal(t, "logs", config.LogFolder)
		assert.Equal(t, 10, config.LogMaxSize)
		assert.Equal(t, DefaultRecommendMinAge, config.Catalog.RecommendMinAge)
		assert.Equal(t, uint32(5), config.Storage.Breaker.FailureThreshold)
	})

	t.Run("build values do not override when empty", func(t *testing.T) {
		config := validConfig()
		config.GitTag = "v0.1.0"
		require.NoError(t, InitConfig(config, "", "", ""))
		assert.Equal(t, "v0.1.0", config.GitTag)
	})

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing server host", func(c *Config) { c.Server.Host = "" }},
		{"missing redis port", func(c *Config) { c.Redis.Port = "" }},
		{"unsupported engine", func(c *Config) { c.Storage.Engine = "mongo" }},
		{"bolt without bucket", func(c *Config) { c.Storage.Engine = EngineBolt; c.BoltDB.FilePath = "books.db" }},
		{"badger without directory", func(c *Config) { c.Storage.Engine = EngineBadger }},
		{"unsupported group field", func(c *Config) { c.Catalog.DefaultGroupBy = "name" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := validConfig()
			tc.mutate(config)
			assert.Error(t, InitConfig(config, "", "", ""))
		})
	}

	t.Run("in memory badger", func(t *testing.T) {
		config := validConfig()
		config.Storage.Engine = EngineBadger
		config.Badger.InMemory = true
		assert.NoError(t, InitConfig(config, "", "", ""))
	})
}
