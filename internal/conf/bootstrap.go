// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment variables,
// with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload" // .env 中的变量在 viper 读取环境变量之前生效
	"github.com/spf13/viper"
)

// Default vendor endpoint values.
const (
	DefaultEndpoint     = "http://snake-pc-norm-dyn.gz.1252595457.clb.myqcloud.com/zgame/?m=snake&a=snake_require"
	DefaultHost         = "snake-pc-norm-dyn.gz.1252595457.clb.myqcloud.com"
	DefaultUserAgent    = "UnityPlayer/2017.4.25f1 (UnityWebRequest/1.0, libcurl/7.51.0-DEV)"
	DefaultUnityVersion = "2017.4.25f1"
)

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies defaults,
// and allows overrides from environment variables prefixed with SNAKEKEEPER_.
//
// Configuration priority: Environment variables > Config file > Defaults
//
// Directly bound environment variables:
//   - MYSQL_DSN: MySQL connection string (mysql marker driver / audit log)
//   - REDIS_ADDR: Redis address (redis marker driver)
//   - NOTIFY_WEBHOOK_URL: webhook receiving operator notifications
//   - ACCOUNTS_ENCRYPTION_KEY: 32-byte key sealing secrets in the account file
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SNAKEKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("data.database.source", "MYSQL_DSN", "SNAKEKEEPER_DATA_DATABASE_SOURCE")
	_ = v.BindEnv("data.redis.addr", "REDIS_ADDR", "SNAKEKEEPER_DATA_REDIS_ADDR")
	_ = v.BindEnv("notify.webhook_url", "NOTIFY_WEBHOOK_URL", "SNAKEKEEPER_NOTIFY_WEBHOOK_URL")
	_ = v.BindEnv("store.encryption_key", "ACCOUNTS_ENCRYPTION_KEY", "SNAKEKEEPER_STORE_ENCRYPTION_KEY")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	bc := &Bootstrap{
		Game: &Game{
			Endpoint:     v.GetString("game.endpoint"),
			Host:         v.GetString("game.host"),
			UserAgent:    v.GetString("game.user_agent"),
			UnityVersion: v.GetString("game.unity_version"),
			Timeout:      v.GetDuration("game.timeout"),
			ProxyURL:     v.GetString("game.proxy_url"),
			Profile: &Game_Profile{
				PfID:             v.GetInt("game.profile.pf_id"),
				Version:          v.GetString("game.profile.version"),
				BundleIdentifier: v.GetString("game.profile.bundle_identifier"),
				DeviceID:         v.GetString("game.profile.device_id"),
			},
		},
		Store: &Store{
			AccountsFile:  v.GetString("store.accounts_file"),
			DataDir:       v.GetString("store.data_dir"),
			EncryptionKey: v.GetString("store.encryption_key"),
		},
		Marker: &Marker{
			Driver: strings.ToLower(v.GetString("marker.driver")),
		},
		Data: &Data{
			Database: &Data_Database{
				Driver: v.GetString("data.database.driver"),
				Source: v.GetString("data.database.source"),
			},
			Redis: &Data_Redis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				Password:     v.GetString("data.redis.password"),
				DB:           v.GetInt("data.redis.db"),
				ReadTimeout:  v.GetDuration("data.redis.read_timeout"),
				WriteTimeout: v.GetDuration("data.redis.write_timeout"),
			},
		},
		Notify: &Notify{
			WebhookURL:  v.GetString("notify.webhook_url"),
			Timeout:     v.GetDuration("notify.timeout"),
			TitlePrefix: v.GetString("notify.title_prefix"),
		},
		Tasks: &Tasks{
			ActionInterval: v.GetDuration("tasks.action_interval"),
			GachaInterval:  v.GetDuration("tasks.gacha_interval"),
			GachaAttempts:  v.GetInt("tasks.gacha_attempts"),
			FreeBattleMode: v.GetInt("tasks.free_battle_mode"),
			FriendPageSize: v.GetInt("tasks.friend_page_size"),
			StateCacheSize: v.GetInt("tasks.state_cache_size"),
		},
		Schedule: &Schedule{
			Daily:   v.GetString("schedule.daily"),
			Monitor: v.GetString("schedule.monitor"),
		},
		Admin: &Admin{
			Network: v.GetString("admin.network"),
			Addr:    v.GetString("admin.addr"),
			Timeout: v.GetDuration("admin.timeout"),
			Token:   v.GetString("admin.token"),
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Game defaults mirror the official client
	v.SetDefault("game.endpoint", DefaultEndpoint)
	v.SetDefault("game.host", DefaultHost)
	v.SetDefault("game.user_agent", DefaultUserAgent)
	v.SetDefault("game.unity_version", DefaultUnityVersion)
	v.SetDefault("game.timeout", 15*time.Second)
	v.SetDefault("game.profile.pf_id", 2)
	v.SetDefault("game.profile.version", "8.9.7")
	v.SetDefault("game.profile.bundle_identifier", "com.bairimeng.snake.13")
	v.SetDefault("game.profile.device_id", "b227a7c94278f2e9de046915c1d01c2f89dee3ba")

	v.SetDefault("store.accounts_file", "config.json")
	v.SetDefault("store.data_dir", ".")

	v.SetDefault("marker.driver", "file")

	v.SetDefault("data.database.driver", "mysql")
	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)

	v.SetDefault("notify.timeout", 10*time.Second)
	v.SetDefault("notify.title_prefix", "SnakeKeeper")

	v.SetDefault("tasks.action_interval", time.Second)
	v.SetDefault("tasks.gacha_interval", 301*time.Second)
	v.SetDefault("tasks.gacha_attempts", 3)
	v.SetDefault("tasks.free_battle_mode", 0)
	v.SetDefault("tasks.friend_page_size", 20)
	v.SetDefault("tasks.state_cache_size", 128)

	// 秒 分 时 日 月 周
	v.SetDefault("schedule.daily", "0 30 8 * * *")
	v.SetDefault("schedule.monitor", "0 */5 * * * *")

	v.SetDefault("admin.network", "tcp")
	v.SetDefault("admin.addr", "")
	v.SetDefault("admin.timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that all required configuration fields are present and valid.
// Struct tags are checked first, then the cross-field rules between the marker
// driver and the backend it needs.
func Validate(bc *Bootstrap) error {
	if bc == nil {
		return fmt.Errorf("missing required configuration fields: bootstrap")
	}

	if err := validator.New().Struct(bc); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var missingFields []string

	switch bc.Marker.Driver {
	case "redis":
		if bc.Data.Redis.Addr == "" {
			missingFields = append(missingFields, "data.redis.addr (REDIS_ADDR)")
		}
	case "mysql":
		if bc.Data.Database.Source == "" {
			missingFields = append(missingFields, "data.database.source (MYSQL_DSN)")
		}
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missingFields, ", "))
	}

	return nil
}
