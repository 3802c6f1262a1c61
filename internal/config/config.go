package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Draft store kinds
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Config holds the wizard configuration. Values are resolved from defaults,
// then an optional YAML file, then environment variables.
type Config struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	Service struct {
		URL          string        `yaml:"url"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		ProbeTimeout time.Duration `yaml:"probe_timeout"`
		CacheTTL     time.Duration `yaml:"cache_ttl"`
	} `yaml:"service"`

	Advisory struct {
		Debounce time.Duration `yaml:"debounce"`
	} `yaml:"advisory"`

	Draft struct {
		Store string `yaml:"store"`
		Path  string `yaml:"path"`
	} `yaml:"draft"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Exchange struct {
		Testnet  bool   `yaml:"testnet"`
		Category string `yaml:"category"`
	} `yaml:"exchange"`

	Monitoring struct {
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"monitoring"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	cfg := &Config{
		Environment: "development",
		LogLevel:    "info",
	}
	cfg.Service.URL = "http://localhost:8088"
	cfg.Service.ReadTimeout = 5 * time.Second
	cfg.Service.ProbeTimeout = 2 * time.Second
	cfg.Service.CacheTTL = 10 * time.Minute
	cfg.Advisory.Debounce = 300 * time.Millisecond
	cfg.Draft.Store = StoreFile
	cfg.Draft.Path = "data"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Exchange.Category = "linear"
	return cfg
}

// Load reads path (if it exists) over the defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("ENV", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Service.URL = getEnv("WIZARD_SERVICE_URL", c.Service.URL)
	c.Service.ReadTimeout = getEnvDuration("WIZARD_READ_TIMEOUT", c.Service.ReadTimeout)
	c.Service.ProbeTimeout = getEnvDuration("WIZARD_PROBE_TIMEOUT", c.Service.ProbeTimeout)
	c.Service.CacheTTL = getEnvDuration("WIZARD_CACHE_TTL", c.Service.CacheTTL)
	c.Advisory.Debounce = getEnvDuration("WIZARD_DEBOUNCE", c.Advisory.Debounce)

	c.Draft.Store = strings.ToLower(getEnv("WIZARD_DRAFT_STORE", c.Draft.Store))
	c.Draft.Path = getEnv("WIZARD_DRAFT_PATH", c.Draft.Path)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	c.Exchange.Testnet = getEnvBool("BYBIT_TESTNET", c.Exchange.Testnet)
	c.Exchange.Category = getEnv("BYBIT_CATEGORY", c.Exchange.Category)

	c.Monitoring.MetricsAddr = getEnv("METRICS_ADDR", c.Monitoring.MetricsAddr)
}

// Validate checks that the resolved values are usable
func (c *Config) Validate() error {
	if c.Service.URL == "" {
		return fmt.Errorf("service.url is required")
	}
	if c.Service.ReadTimeout <= 0 {
		return fmt.Errorf("service.read_timeout must be positive, got: %s", c.Service.ReadTimeout)
	}
	if c.Service.ProbeTimeout <= 0 {
		return fmt.Errorf("service.probe_timeout must be positive, got: %s", c.Service.ProbeTimeout)
	}
	if c.Service.CacheTTL <= 0 {
		return fmt.Errorf("service.cache_ttl must be positive, got: %s", c.Service.CacheTTL)
	}
	if c.Advisory.Debounce <= 0 {
		return fmt.Errorf("advisory.debounce must be positive, got: %s", c.Advisory.Debounce)
	}
	switch c.Draft.Store {
	case StoreFile:
		if c.Draft.Path == "" {
			return fmt.Errorf("draft.path is required for the file store")
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis store")
		}
	default:
		return fmt.Errorf("draft.store must be %q or %q, got: %q", StoreFile, StoreRedis, c.Draft.Store)
	}
	return nil
}

// IsDevelopment reports whether the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
