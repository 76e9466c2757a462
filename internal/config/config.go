// Package config loads runtime settings from defaults, an optional YAML file,
// .env files and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Addr            string         `mapstructure:"app_addr"`
	Store           string         `mapstructure:"store"`
	DBDSN           string         `mapstructure:"db_dsn"`
	DBTimeout       time.Duration  `mapstructure:"db_timeout"`
	RedisAddr       string         `mapstructure:"redis_addr"`
	RedisPassword   string         `mapstructure:"redis_password"`
	RedisDB         int            `mapstructure:"redis_db"`
	CacheTTL        time.Duration  `mapstructure:"cache_ttl"`
	LogLevel        string         `mapstructure:"log_level"`
	LogFormat       string         `mapstructure:"log_format"`
	RateLimitRPS    float64        `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int            `mapstructure:"rate_limit_burst"`
	CORSOrigins     []string       `mapstructure:"-"`
	TrustedProxies  []netip.Prefix `mapstructure:"-"`
	MaxBodyBytes    int64          `mapstructure:"max_body_bytes"`
	EnableHSTS      bool           `mapstructure:"enable_hsts"`
	ShutdownTimeout time.Duration  `mapstructure:"shutdown_timeout"`
}

var defaults = map[string]any{
	"app_addr":             ":8080",
	"store":                StorePostgres,
	"db_dsn":               "",
	"db_timeout":           "3s",
	"redis_addr":           "",
	"redis_password":       "",
	"redis_db":             0,
	"cache_ttl":            "10m",
	"log_level":            "info",
	"log_format":           "json",
	"rate_limit_rps":       20.0,
	"rate_limit_burst":     40,
	"cors_allowed_origins": "",
	"trusted_proxies":      "",
	"max_body_bytes":       1 << 20,
	"enable_hsts":          false,
	"shutdown_timeout":     "10s",
}

// LoadEnvFiles loads .env and .env.local when present. Variables already set
// in the environment win.
func LoadEnvFiles() {
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}
}

// Load reads the configuration. The YAML file named by CONFIG_FILE (default
// catalogue.yaml) is optional.
func Load() (Config, error) {
	LoadEnvFiles()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	file := os.Getenv("CONFIG_FILE")
	if file == "" {
		file = "catalogue.yaml"
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil && !isMissingFile(err) {
		return Config{}, fmt.Errorf("read config file %s: %w", file, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("cors_allowed_origins"))
	proxies, err := parsePrefixes(splitList(v.GetString("trusted_proxies")))
	if err != nil {
		return Config{}, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required when STORE=postgres")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE %q (want %s or %s)", c.Store, StorePostgres, StoreMemory)
	}
	if c.DBTimeout <= 0 {
		return errors.New("DB_TIMEOUT must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func isMissingFile(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parsePrefixes accepts CIDRs and bare addresses; an address becomes a
// single-host prefix.
func parsePrefixes(items []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range items {
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, err
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
