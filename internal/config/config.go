// Package config loads lifelog settings from defaults, an optional YAML file,
// and LIFELOG_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// User owns data written from the command line.
	User     string         `yaml:"user"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Import   ImportConfig   `yaml:"import"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	// Path of the SQLite file. Empty means ~/.lifelog/lifelog.db.
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RatePerMinute  int      `yaml:"rate_per_minute"`
	RateBurst      int      `yaml:"rate_burst"`
	// SingleUser serves every request as Config.User instead of reading
	// the X-User-ID header.
	SingleUser bool `yaml:"single_user"`
}

type ImportConfig struct {
	Workers      int           `yaml:"workers"`
	MaxFileBytes int64         `yaml:"max_file_bytes"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
}

// RedisConfig selects the Redis session store. An empty Addr keeps sessions
// in process.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		User: "local",
		Server: ServerConfig{
			Host:           "localhost",
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
			RatePerMinute:  30,
			RateBurst:      5,
		},
		Import: ImportConfig{
			Workers:      4,
			MaxFileBytes: 10 << 20,
			SessionTTL:   30 * time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the environment. Missing files are ignored; variables already set
// win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration. path names a YAML file; it may be empty,
// in which case only defaults and the environment apply.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.Database.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("finding home directory: %w", err)
		}
		cfg.Database.Path = filepath.Join(home, ".lifelog", "lifelog.db")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LIFELOG_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("LIFELOG_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("LIFELOG_HOST"); v != "" {
		cfg.Server.Host = v
	}
	envInt("LIFELOG_PORT", &cfg.Server.Port)
	if v := os.Getenv("LIFELOG_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	envInt("LIFELOG_RATE_PER_MINUTE", &cfg.Server.RatePerMinute)
	envInt("LIFELOG_RATE_BURST", &cfg.Server.RateBurst)
	if v := os.Getenv("LIFELOG_SINGLE_USER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.SingleUser = b
		}
	}

	envInt("LIFELOG_IMPORT_WORKERS", &cfg.Import.Workers)
	if v := os.Getenv("LIFELOG_IMPORT_MAX_FILE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Import.MaxFileBytes = n
		}
	}
	if v := os.Getenv("LIFELOG_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Import.SessionTTL = d
		}
	}

	if v := os.Getenv("LIFELOG_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("LIFELOG_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LIFELOG_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Redis.DB = n
		}
	}

	if v := os.Getenv("LIFELOG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LIFELOG_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// envInt overwrites *dst with a positive integer from name, ignoring
// malformed values.
func envInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = n
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.User) == "" {
		errs = append(errs, errors.New("user must not be empty"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.RatePerMinute <= 0 || c.Server.RateBurst <= 0 {
		errs = append(errs, fmt.Errorf("server rate limit must be positive"))
	}
	if c.Import.Workers <= 0 {
		errs = append(errs, fmt.Errorf("import.workers must be positive"))
	}
	if c.Import.MaxFileBytes <= 0 {
		errs = append(errs, fmt.Errorf("import.max_file_bytes must be positive"))
	}
	if c.Import.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("import.session_ttl must be positive"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if f := c.Log.Format; f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", f))
	}
	return errors.Join(errs...)
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}

// NewLogger builds the process logger described by the log section.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := c.SlogLevel()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
