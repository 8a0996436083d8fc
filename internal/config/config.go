package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/spf13/viper"
)

// Config is the root configuration for dbk, stored in ~/.daybook/config.yaml.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Locale    LocaleConfig    `mapstructure:"locale"`
	DevServer DevServerConfig `mapstructure:"devServer"`

	// Path is the file the config was read from.
	Path string `mapstructure:"-"`
}

// ServerConfig holds the remote sync server settings.
type ServerConfig struct {
	BaseURL string        `mapstructure:"baseURL" validate:"required|fullUrl"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects the preference store backend.
type StoreConfig struct {
	// Driver is one of file, sqlite or memory.
	Driver string `mapstructure:"driver" validate:"required|in:file,sqlite,memory"`
	Path   string `mapstructure:"path"`
	// CacheSize is the read cache size in MB. 0 disables the cache.
	CacheSize int `mapstructure:"cacheSize" validate:"min:0"`
}

// AuthConfig selects where the session token is kept.
type AuthConfig struct {
	Backend string `mapstructure:"backend" validate:"required|in:prefs,keyring"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error"`
	// Dir receives daybook.log. Empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

type MetricsConfig struct {
	// Textfile, when set, receives sync metrics in Prometheus text format
	// after every sync command.
	Textfile string `mapstructure:"textfile"`
}

type LocaleConfig struct {
	// Timezone is the IANA zone used for day and month boundaries. Empty = local.
	Timezone string `mapstructure:"timezone"`
}

type DevServerConfig struct {
	Host      string `mapstructure:"host" validate:"required"`
	Port      int    `mapstructure:"port" validate:"required|min:1|max:65535"`
	StorePath string `mapstructure:"storePath"`
}

const (
	DefaultBaseURL   = "http://127.0.0.1:8787"
	DefaultTimeout   = 30 * time.Second
	DefaultDriver    = "file"
	DefaultBackend   = "prefs"
	DefaultLevel     = "info"
	DefaultDevHost   = "127.0.0.1"
	DefaultDevPort   = 8787
	defaultCacheSize = 1
)

// configTemplate is the annotated config written on first run.
const configTemplate = `# dbk configuration – ~/.daybook/config.yaml
#
# All settings are optional; the defaults below work for a local setup.

# Remote sync server.
server:
  baseURL: "http://127.0.0.1:8787"
  # Per-request timeout. A hung request fails after this long.
  timeout: 30s

# Local record store.
store:
  # file   – one JSON file (~/.daybook/prefs.json)
  # sqlite – a key/value table in ~/.daybook/prefs.db
  # memory – nothing is kept between runs
  driver: file
  path: ""
  # Read cache in MB, 0 disables.
  cacheSize: 1

# Where the login token lives: prefs (next to the records) or keyring (OS keychain).
auth:
  backend: prefs

logger:
  level: info
  # Directory for daybook.log. Empty logs to stderr.
  dir: ""

metrics:
  # Write sync metrics in Prometheus text format to this file. Empty disables.
  textfile: ""

locale:
  # IANA timezone for day boundaries, e.g. "Europe/Berlin". Empty = system zone.
  timezone: ""

# Reference sync server started by "dbk serve".
devServer:
  host: "127.0.0.1"
  port: 8787
  storePath: ""
`

// BaseDir returns the root data directory (~/.daybook).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".daybook"), nil
}

// DefaultPath returns ~/.daybook/config.yaml.
func DefaultPath() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.baseURL", DefaultBaseURL)
	v.SetDefault("server.timeout", DefaultTimeout)
	v.SetDefault("store.driver", DefaultDriver)
	v.SetDefault("store.cacheSize", defaultCacheSize)
	v.SetDefault("auth.backend", DefaultBackend)
	v.SetDefault("logger.level", DefaultLevel)
	v.SetDefault("devServer.host", DefaultDevHost)
	v.SetDefault("devServer.port", DefaultDevPort)
}

// Load reads the config at path, creating it with annotated defaults on first
// run. DAYBOOK_* environment variables override file values.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("DAYBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	_ = v.BindEnv("server.baseURL", "DAYBOOK_SERVER_URL")
	_ = v.BindEnv("store.driver", "DAYBOOK_STORE_DRIVER")
	_ = v.BindEnv("store.path", "DAYBOOK_STORE_PATH")
	_ = v.BindEnv("auth.backend", "DAYBOOK_AUTH_BACKEND")
	_ = v.BindEnv("logger.level", "DAYBOOK_LOG_LEVEL")
	_ = v.BindEnv("logger.dir", "DAYBOOK_LOG_DIR")
	_ = v.BindEnv("locale.timezone", "DAYBOOK_TIMEZONE")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Path = path

	if err := cfg.fill(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Default returns a validated Config with built-in values only.
func Default() *Config {
	cfg := &Config{
		Server:    ServerConfig{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout},
		Store:     StoreConfig{Driver: DefaultDriver, CacheSize: defaultCacheSize},
		Auth:      AuthConfig{Backend: DefaultBackend},
		Logger:    LoggerConfig{Level: DefaultLevel},
		DevServer: DevServerConfig{Host: DefaultDevHost, Port: DefaultDevPort},
	}
	_ = cfg.fill()
	return cfg
}

// fill resolves paths that depend on the data directory.
func (c *Config) fill() error {
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = DefaultTimeout
	}
	if c.Store.Path != "" && c.DevServer.StorePath != "" {
		return nil
	}
	base, err := BaseDir()
	if err != nil {
		return err
	}
	if c.Store.Path == "" {
		switch c.Store.Driver {
		case "sqlite":
			c.Store.Path = filepath.Join(base, "prefs.db")
		default:
			c.Store.Path = filepath.Join(base, "prefs.json")
		}
	}
	if c.DevServer.StorePath == "" {
		c.DevServer.StorePath = filepath.Join(base, "server.db")
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	v := validate.Struct(c)
	if !v.Validate() {
		return v.Errors
	}
	if c.Locale.Timezone != "" {
		if _, err := time.LoadLocation(c.Locale.Timezone); err != nil {
			return fmt.Errorf("locale.timezone: %w", err)
		}
	}
	return nil
}

// Location returns the configured time zone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Locale.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Locale.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
