package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/moodtrack/internal/utils"
)

type Config struct {
	Addr      string `yaml:"addr"`
	Commit    string `yaml:"-"`
	BuildTime string `yaml:"-"`
	StaticDir string `yaml:"static_dir"`

	Log struct {
		Mode     string `yaml:"mode"`
		Level    string `yaml:"level"`
		Redact   bool   `yaml:"redact"`
		HashSalt string `yaml:"hash_salt"`
	} `yaml:"log"`

	Store struct {
		Driver        string `yaml:"driver"` // memory | sqlite | redis
		SnapshotPath  string `yaml:"snapshot_path"`
		SQLitePath    string `yaml:"sqlite_path"`
		MigrationsDir string `yaml:"migrations_dir"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		RedisPrefix   string `yaml:"redis_prefix"`
	} `yaml:"store"`

	Study struct {
		TimeZone string `yaml:"time_zone"`
	} `yaml:"study"`

	Predict struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"predict"`

	Chat struct {
		Agent  string `yaml:"agent"` // keyword | openai
		Model  string `yaml:"model"`
		APIKey string `yaml:"api_key"`
	} `yaml:"chat"`

	Auth struct {
		JWTSecret              string        `yaml:"jwt_secret"`
		TokenTTL               time.Duration `yaml:"token_ttl"`
		ResearcherEmail        string        `yaml:"researcher_email"`
		ResearcherPasswordHash string        `yaml:"researcher_password_hash"`
	} `yaml:"auth"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// Load reads the optional YAML file at path, then applies MOOD_* environment
// overrides and fills defaults for anything still empty.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Log.Redact = true
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(c *Config) {
	c.Addr = utils.SafeEnv("MOOD_ADDR", c.Addr)
	c.Commit = utils.SafeEnv("MOOD_COMMIT", c.Commit)
	c.BuildTime = utils.SafeEnv("MOOD_BUILD_TIME", c.BuildTime)
	c.StaticDir = utils.SafeEnv("MOOD_STATIC_DIR", c.StaticDir)

	c.Log.Mode = utils.SafeEnv("MOOD_LOG_MODE", c.Log.Mode)
	c.Log.Level = utils.SafeEnv("MOOD_LOG_LEVEL", c.Log.Level)
	c.Log.Redact = utils.EnvBool("MOOD_LOG_REDACT", c.Log.Redact)
	c.Log.HashSalt = utils.SafeEnv("MOOD_LOG_HASH_SALT", c.Log.HashSalt)

	c.Store.Driver = utils.SafeEnv("MOOD_STORE", c.Store.Driver)
	c.Store.SnapshotPath = utils.SafeEnv("MOOD_SNAPSHOT_PATH", c.Store.SnapshotPath)
	c.Store.SQLitePath = utils.SafeEnv("MOOD_SQLITE_PATH", c.Store.SQLitePath)
	c.Store.MigrationsDir = utils.SafeEnv("MOOD_MIGRATIONS_DIR", c.Store.MigrationsDir)
	c.Store.RedisAddr = utils.SafeEnv("MOOD_REDIS_ADDR", c.Store.RedisAddr)
	c.Store.RedisPassword = utils.SafeEnv("MOOD_REDIS_PASSWORD", c.Store.RedisPassword)
	if v := os.Getenv("MOOD_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Store.RedisDB = n
		}
	}
	c.Store.RedisPrefix = utils.SafeEnv("MOOD_REDIS_PREFIX", c.Store.RedisPrefix)

	c.Study.TimeZone = utils.SafeEnv("MOOD_TIME_ZONE", c.Study.TimeZone)

	c.Predict.BaseURL = utils.SafeEnv("MOOD_PREDICT_URL", c.Predict.BaseURL)
	c.Predict.Timeout = utils.EnvDuration("MOOD_PREDICT_TIMEOUT", c.Predict.Timeout)

	c.Chat.Agent = utils.SafeEnv("MOOD_CHAT_AGENT", c.Chat.Agent)
	c.Chat.Model = utils.SafeEnv("MOOD_CHAT_MODEL", c.Chat.Model)
	c.Chat.APIKey = utils.SafeEnv("OPENAI_API_KEY", c.Chat.APIKey)

	c.Auth.JWTSecret = utils.SafeEnv("MOOD_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenTTL = utils.EnvDuration("MOOD_TOKEN_TTL", c.Auth.TokenTTL)
	c.Auth.ResearcherEmail = utils.SafeEnv("MOOD_RESEARCHER_EMAIL", c.Auth.ResearcherEmail)
	c.Auth.ResearcherPasswordHash = utils.SafeEnv("MOOD_RESEARCHER_PASSWORD_HASH", c.Auth.ResearcherPasswordHash)

	if v := os.Getenv("MOOD_CORS_ORIGINS"); strings.TrimSpace(v) != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowedOrigins = origins
	}
}

func applyDefaults(c *Config) {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "dev"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "data/moodtrack.db"
	}
	if c.Store.RedisPrefix == "" {
		c.Store.RedisPrefix = "moodtrack:"
	}
	if c.Study.TimeZone == "" {
		c.Study.TimeZone = "Local"
	}
	if c.Predict.BaseURL == "" {
		c.Predict.BaseURL = "http://127.0.0.1:8000"
	}
	if c.Predict.Timeout <= 0 {
		c.Predict.Timeout = 30 * time.Second
	}
	if c.Chat.Agent == "" {
		c.Chat.Agent = "keyword"
	}
	if c.Chat.Model == "" {
		c.Chat.Model = "gpt-4o-mini"
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "moodtrack-dev-secret"
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 30 * 24 * time.Hour
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "sqlite":
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr required for redis driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Chat.Agent {
	case "keyword":
	case "openai":
		if c.Chat.APIKey == "" {
			return errors.New("chat.api_key (or OPENAI_API_KEY) required for openai agent")
		}
	default:
		return fmt.Errorf("unknown chat agent %q", c.Chat.Agent)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the study time zone used for calendar-date comparisons.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Study.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("study.time_zone: %w", err)
	}
	return loc, nil
}
