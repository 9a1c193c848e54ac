package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig is the configuration for the booking web server.
type ServerConfig struct {
	Port          string `mapstructure:"port" yaml:"port"`
	SecureCookies bool   `mapstructure:"secure_cookies" yaml:"secure_cookies"` // Set when served over TLS
}

// AuthConfig is the configuration for the password gate. An empty password disables it.
//
// WARNING: This data type contains sensitive fields and should not be logged.
type AuthConfig struct {
	Password   string        `mapstructure:"password" yaml:"password"` // Secret
	SessionTTL time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
}

// StoreConfig selects where the archive lives.
type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // csv, sqlite, postgres
	Path   string `mapstructure:"path" yaml:"path"`     // CSV file path, or sqlite database file
	DSN    string `mapstructure:"dsn" yaml:"dsn"`       // Secret: postgres connection string
}

// CatalogConfig holds the option lists offered by the booking form.
type CatalogConfig struct {
	Rooms        []string `mapstructure:"rooms" yaml:"rooms"`
	SurgeryTypes []string `mapstructure:"surgery_types" yaml:"surgery_types"`
}

// MirrorConfig is the configuration for copying the archive to a GitHub repository.
//
// WARNING: This data type contains sensitive fields and should not be logged.
type MirrorConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	APIURL      string        `mapstructure:"api_url" yaml:"api_url"`
	RawURL      string        `mapstructure:"raw_url" yaml:"raw_url"`
	Owner       string        `mapstructure:"owner" yaml:"owner"`
	Repo        string        `mapstructure:"repo" yaml:"repo"`
	Branch      string        `mapstructure:"branch" yaml:"branch"`
	Path        string        `mapstructure:"path" yaml:"path"`   // Path of the archive inside the repository
	Token       string        `mapstructure:"token" yaml:"token"` // Secret: GitHub token with contents write access
	PullOnStart bool          `mapstructure:"pull_on_start" yaml:"pull_on_start"`
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type ClinicConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// Config wraps the entire configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`
	Mirror  MirrorConfig  `mapstructure:"mirror" yaml:"mirror"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Clinic  ClinicConfig  `mapstructure:"clinic" yaml:"clinic"`
}

const EnvPrefix = "OPLIST"

var defaults = map[string]any{
	"server.port":           "8080",
	"server.secure_cookies": false,
	"auth.password":         "",
	"auth.session_ttl":      12 * time.Hour,
	"store.driver":          "csv",
	"store.path":            "Operation Archive.csv",
	"store.dsn":             "",
	"catalog.rooms":         []string{},
	"catalog.surgery_types": []string{},
	"mirror.enabled":        false,
	"mirror.api_url":        "https://api.github.com",
	"mirror.raw_url":        "https://raw.githubusercontent.com",
	"mirror.owner":          "",
	"mirror.repo":           "",
	"mirror.branch":         "main",
	"mirror.path":           "",
	"mirror.token":          "",
	"mirror.pull_on_start":  false,
	"mirror.interval":       5 * time.Minute,
	"log.level":             "info",
	"clinic.name":           "Operation List",
	"clinic.timezone":       "Local",
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
// An empty path skips the file entirely.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", filePath, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func bindEnvs(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// PORT is what most hosting platforms inject.
	return v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
}

// Validate checks the combinations Load cannot express through defaults.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case "csv", "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path is required for driver %q", c.Store.Driver))
		}
	case "postgres":
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for driver \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	if c.Mirror.Enabled {
		if c.Mirror.Owner == "" || c.Mirror.Repo == "" {
			errs = append(errs, errors.New("mirror.owner and mirror.repo are required when the mirror is enabled"))
		}
		if c.Mirror.Token == "" {
			errs = append(errs, errors.New("mirror.token is required when the mirror is enabled"))
		}
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("clinic.timezone: %w", err))
	}

	return errors.Join(errs...)
}

// Location resolves the clinic timezone used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	if c.Clinic.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Clinic.Timezone)
}

// MirrorPath is the repository path of the archive, defaulting to the local file name.
func (c *Config) MirrorPath() string {
	if c.Mirror.Path != "" {
		return c.Mirror.Path
	}
	path := c.Store.Path
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	if path == "" || c.Store.Driver != "csv" {
		return "Operation Archive.csv"
	}
	return path
}
