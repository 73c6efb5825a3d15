package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestNewBootstrap_Defaults(t *testing.T) {
	configPath := writeConfig(t, `store:
  accounts_file: ./config.json
`)

	bc, err := NewBootstrap(configPath)
	require.NoError(t, err)
	require.NotNil(t, bc)

	// Game defaults
	assert.Equal(t, DefaultEndpoint, bc.Game.Endpoint)
	assert.Equal(t, DefaultHost, bc.Game.Host)
	assert.Equal(t, DefaultUserAgent, bc.Game.UserAgent)
	assert.Equal(t, 15*time.Second, bc.Game.Timeout)
	assert.Equal(t, 2, bc.Game.Profile.PfID)
	assert.Equal(t, "8.9.7", bc.Game.Profile.Version)
	assert.Equal(t, "com.bairimeng.snake.13", bc.Game.Profile.BundleIdentifier)

	// Store / marker
	assert.Equal(t, "./config.json", bc.Store.AccountsFile)
	assert.Equal(t, ".", bc.Store.DataDir)
	assert.Equal(t, "file", bc.Marker.Driver)

	// Tasks
	assert.Equal(t, time.Second, bc.Tasks.ActionInterval)
	assert.Equal(t, 301*time.Second, bc.Tasks.GachaInterval)
	assert.Equal(t, 3, bc.Tasks.GachaAttempts)
	assert.Equal(t, 20, bc.Tasks.FriendPageSize)

	// Schedule / admin / log
	assert.Equal(t, "0 30 8 * * *", bc.Schedule.Daily)
	assert.Equal(t, "0 */5 * * * *", bc.Schedule.Monitor)
	assert.Empty(t, bc.Admin.Addr)
	assert.Equal(t, "info", bc.Log.Level)
	assert.Equal(t, "json", bc.Log.Format)
}

func TestNewBootstrap_EnvOverrides(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		expectedVal func(*Bootstrap) bool
	}{
		{
			name:    "override_game_timeout",
			envVars: map[string]string{"SNAKEKEEPER_GAME_TIMEOUT": "3s"},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Game.Timeout == 3*time.Second
			},
		},
		{
			name:    "direct_redis_addr",
			envVars: map[string]string{"REDIS_ADDR": "redis.example.com:6379"},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Data.Redis.Addr == "redis.example.com:6379"
			},
		},
		{
			name:    "direct_webhook_url",
			envVars: map[string]string{"NOTIFY_WEBHOOK_URL": "https://hooks.example.com/notify"},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Notify.WebhookURL == "https://hooks.example.com/notify"
			},
		},
		{
			name:    "override_log_level",
			envVars: map[string]string{"SNAKEKEEPER_LOG_LEVEL": "debug"},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Log.Level == "debug"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, "log:\n  level: info\n")

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			bc, err := NewBootstrap(configPath)
			require.NoError(t, err)
			assert.True(t, tt.expectedVal(bc))
		})
	}
}

func TestNewBootstrap_MarkerDriverRequiresBackend(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		expectedError string
	}{
		{
			name:          "redis_without_addr",
			content:       "marker:\n  driver: redis\n",
			expectedError: "data.redis.addr (REDIS_ADDR)",
		},
		{
			name:          "mysql_without_dsn",
			content:       "marker:\n  driver: mysql\n",
			expectedError: "data.database.source (MYSQL_DSN)",
		},
		{
			name:          "unknown_driver",
			content:       "marker:\n  driver: etcd\n",
			expectedError: "invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("REDIS_ADDR")
			os.Unsetenv("MYSQL_DSN")

			bc, err := NewBootstrap(writeConfig(t, tt.content))
			assert.Error(t, err)
			assert.Nil(t, bc)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestNewBootstrap_InvalidEncryptionKey(t *testing.T) {
	t.Setenv("ACCOUNTS_ENCRYPTION_KEY", "too-short")

	bc, err := NewBootstrap("")
	assert.Error(t, err)
	assert.Nil(t, bc)
}

func TestNewBootstrap_ConfigFileNotFound(t *testing.T) {
	bc, err := NewBootstrap("/non/existent/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, bc)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestNewBootstrap_PriorityOrder(t *testing.T) {
	configPath := writeConfig(t, `admin:
  addr: :7777
`)
	t.Setenv("SNAKEKEEPER_ADMIN_ADDR", ":8888")

	bc, err := NewBootstrap(configPath)
	require.NoError(t, err)
	assert.Equal(t, ":8888", bc.Admin.Addr, "Environment variable should override config file")
}

func TestValidate_NilBootstrap(t *testing.T) {
	err := Validate(nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing required configuration fields")
}
