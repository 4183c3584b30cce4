package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Server   ServerConfig   `mapstructure:"server"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
	Breaker  BreakerConfig  `mapstructure:"breaker"`
}

type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	PollTimeout int    `mapstructure:"poll_timeout"`
	Workers     int    `mapstructure:"workers"`
}

type RelayConfig struct {
	OperatorID     int64         `mapstructure:"operator_id"`
	SpamLimit      int           `mapstructure:"spam_limit"`
	SpamInterval   time.Duration `mapstructure:"spam_interval"`
	BlockDuration  time.Duration `mapstructure:"block_duration"`
	AlbumTimeout   time.Duration `mapstructure:"album_timeout"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	WelcomeMessage string        `mapstructure:"welcome_message"`
	Shards         int           `mapstructure:"shards"`
}

type ServerConfig struct {
	AdminPort   int `mapstructure:"admin_port"`
	MetricsPort int `mapstructure:"metrics_port"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type BreakerConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxFailures uint32        `mapstructure:"max_failures"`
}

const DefaultWelcomeMessage = "Hi! Welcome.\n\n" +
	"Everything you send here is forwarded anonymously. " +
	"Send /delete_me to be forgotten."

// legacyEnv maps config keys to the environment names used by earlier deployments.
var legacyEnv = map[string]string{
	"telegram.token":       "BOT_TOKEN",
	"relay.operator_id":    "ADMIN_CHAT_ID",
	"relay.spam_limit":     "SPAM_LIMIT",
	"relay.spam_interval":  "SPAM_INTERVAL",
	"relay.block_duration": "BLOCK_DURATION",
	"relay.album_timeout":  "ALBUM_TIMEOUT",
}

// Load reads config.yaml from configPath, ./config or the working directory,
// then applies environment overrides. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaultValues(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("telegram.poll_timeout", 30)
	v.SetDefault("telegram.workers", 8)
	v.SetDefault("relay.spam_limit", 15)
	v.SetDefault("relay.spam_interval", 10*time.Second)
	v.SetDefault("relay.block_duration", 18000*time.Second)
	v.SetDefault("relay.album_timeout", 10*time.Second)
	v.SetDefault("relay.sweep_interval", time.Minute)
	v.SetDefault("relay.welcome_message", DefaultWelcomeMessage)
	v.SetDefault("relay.shards", 32)
	v.SetDefault("server.admin_port", 8081)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/relay.log")
	v.SetDefault("breaker.timeout", 30*time.Second)
	v.SetDefault("breaker.max_failures", 5)
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// secondsToDurationHookFunc reads bare numbers as a number of seconds, so
// SPAM_INTERVAL=10 and block_duration: 18000 mean what they say.
func secondsToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch value := data.(type) {
		case int:
			return time.Duration(value) * time.Second, nil
		case int64:
			return time.Duration(value) * time.Second, nil
		case float64:
			return time.Duration(value * float64(time.Second)), nil
		case string:
			seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return data, nil
			}
			return time.Duration(seconds * float64(time.Second)), nil
		default:
			return data, nil
		}
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token is required"))
	}
	if c.Relay.OperatorID == 0 {
		errs = append(errs, errors.New("relay.operator_id is required"))
	}
	if c.Relay.SpamLimit <= 0 {
		errs = append(errs, errors.New("relay.spam_limit must be positive"))
	}
	if c.Relay.SpamInterval <= 0 {
		errs = append(errs, errors.New("relay.spam_interval must be positive"))
	}
	if c.Relay.BlockDuration <= 0 {
		errs = append(errs, errors.New("relay.block_duration must be positive"))
	}
	if c.Relay.AlbumTimeout <= 0 {
		errs = append(errs, errors.New("relay.album_timeout must be positive"))
	}
	return errors.Join(errs...)
}
