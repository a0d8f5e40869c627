package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultPort is used when PORT is missing or not a valid port number
const DefaultPort = 3000

// Config holds all process configuration. Every field is read from the
// upper-cased environment variable of its mapstructure key.
type Config struct {
	// Port is kept raw so a bad value can fall back to DefaultPort
	Port        string        `mapstructure:"port" default:"3000"`
	WebDir      string        `mapstructure:"web_dir" default:"web"`
	LogDir      string        `mapstructure:"log_dir" default:"logs"`
	LogLevel    string        `mapstructure:"log_level" default:"info"`
	LogFormat   string        `mapstructure:"log_format" default:"console"`
	PostLimit   int64         `mapstructure:"post_limit" default:"10000"`
	StatsDB     string        `mapstructure:"stats_db" default:":memory:"`
	TokenSecret string        `mapstructure:"token_secret" default:""`
	RetainGrace time.Duration `mapstructure:"retain_grace" default:"0s"`
	OtelURL     string        `mapstructure:"otel_endpoint" default:""`
	PublicURL   string        `mapstructure:"public_url" default:""`
}

// Load reads the .env file in dir, if any, then the environment
func Load(dir string) (*Config, error) {
	// missing .env is normal outside development
	_ = godotenv.Overload(filepath.Join(dir, ".env"))

	v := viper.New()
	bindValues(v, Config{})
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.PostLimit <= 0 {
		cfg.PostLimit = 10000
	}
	if cfg.TokenSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg.TokenSecret = secret
	}
	return &cfg, nil
}

// ListenPort parses Port, falling back to DefaultPort when it is not a
// number in 1..65535
func (c *Config) ListenPort() int {
	n, err := strconv.Atoi(c.Port)
	if err != nil || n < 1 || n > 65535 {
		return DefaultPort
	}
	return n
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.ListenPort())
}

// bindValues registers every mapstructure key with its default so that
// AutomaticEnv picks it up during Unmarshal
func bindValues(v *viper.Viper, iface any) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		v.SetDefault(key, field.Tag.Get("default"))
	}
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
