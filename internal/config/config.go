package config

import (
	"fmt"
	"github.com/spf13/cast"
	wbfconfig "github.com/wb-go/wbf/config"
	"os"
	"strings"
	"time"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Short env names kept alongside the bound ones.
const (
	envAPIURL       = "API_URL"
	envAuthor       = "COMMENT_AUTHOR"
	envUserID       = "COMMENT_USER_ID"
	envRedisURL     = "REDIS_URL"
	envCookieSecure = "COOKIE_SECURE"
)

// Config holds the application configuration.
type Config struct {
	Addr     string
	LogLevel string
	GinMode  string

	API struct {
		BaseURL string
		Prefix  string
		Timeout time.Duration
		// Proxy mounts /api on this server and forwards it to BaseURL.
		Proxy bool
	}

	Author struct {
		Name   string
		UserID int64
	}

	Session struct {
		Store        string
		RedisURL     string
		TTL          time.Duration
		CookieSecure bool
	}
}

// Load reads the YAML config file (if present) on top of the defaults. The dotenv files and the
// process environment override the file: every key is bound to its upper-cased env name
// (api.base_url -> API_BASE_URL), and the short aliases (API_URL, COMMENT_AUTHOR, ...) win over both.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	file := wbfconfig.New()
	setDefaults(file)

	if existing := existingFiles(envFiles); len(existing) > 0 {
		if err := file.LoadEnvFiles(existing...); err != nil {
			return nil, fmt.Errorf("failed to load env files %v: %w", existing, err)
		}
	}
	file.EnableEnv("")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := file.LoadConfigFiles(path); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	cfg.Addr = file.GetString("addr")
	cfg.LogLevel = file.GetString("log_level")
	cfg.GinMode = file.GetString("gin_mode")

	cfg.API.BaseURL = strings.TrimSuffix(aliasString(file, envAPIURL, file.GetString("api.base_url")), "/")
	cfg.API.Prefix = "/" + strings.Trim(file.GetString("api.prefix"), "/")
	cfg.API.Timeout = file.GetDuration("api.timeout")
	cfg.API.Proxy = file.GetBool("api.proxy")

	cfg.Author.Name = aliasString(file, envAuthor, file.GetString("author.name"))
	userID, err := cast.ToInt64E(aliasString(file, envUserID, file.GetString("author.user_id")))
	if err != nil {
		return nil, fmt.Errorf("invalid author.user_id: %w", err)
	}
	cfg.Author.UserID = userID

	cfg.Session.Store = file.GetString("session.store")
	cfg.Session.RedisURL = aliasString(file, envRedisURL, file.GetString("session.redis_url"))
	cfg.Session.TTL = file.GetDuration("session.ttl")
	if cfg.Session.CookieSecure, err = aliasBool(file, envCookieSecure, file.GetBool("session.cookie_secure")); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envCookieSecure, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(file *wbfconfig.Config) {
	file.SetDefault("addr", ":8080")
	file.SetDefault("log_level", "info")
	file.SetDefault("gin_mode", "release")
	file.SetDefault("api.base_url", "http://localhost:8000")
	file.SetDefault("api.prefix", "/api")
	file.SetDefault("api.timeout", time.Duration(0))
	file.SetDefault("api.proxy", false)
	file.SetDefault("author.name", "Admin")
	file.SetDefault("author.user_id", "999")
	file.SetDefault("session.store", SessionStoreMemory)
	file.SetDefault("session.redis_url", "redis://localhost:6379")
	file.SetDefault("session.ttl", 24*time.Hour)
	file.SetDefault("session.cookie_secure", false)
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Session.Store {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown gin mode %q", c.GinMode)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return nil
}

// APIRoot is the base URL plus the path prefix every API route hangs off.
func (c *Config) APIRoot() string {
	return c.API.BaseURL + c.API.Prefix
}

func existingFiles(paths []string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// aliasString returns the value of a short env alias, or value when the alias is unset.
func aliasString(file *wbfconfig.Config, envKey, value string) string {
	if v := file.GetString(envKey); v != "" {
		return v
	}
	return value
}

func aliasBool(file *wbfconfig.Config, envKey string, value bool) (bool, error) {
	if v := file.GetString(envKey); v != "" {
		return cast.ToBoolE(v)
	}
	return value, nil
}
