// Package config loads the server configuration from a YAML file, a .env file,
// and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tkingovr/monday-mcp/internal/dispatch"
	"github.com/tkingovr/monday-mcp/internal/guard"
	"github.com/tkingovr/monday-mcp/internal/monday"
)

// File is the on-disk YAML layout.
type File struct {
	Version int            `yaml:"version"`
	Server  ServerSettings `yaml:"server"`
	Monday  MondaySettings `yaml:"monday"`
	Tools   ToolSettings   `yaml:"tools"`
	Audit   AuditSettings  `yaml:"audit"`
	Guard   guard.Policy   `yaml:"guard"`
}

// ServerSettings configure the JSON-RPC endpoint.
type ServerSettings struct {
	Listen               string   `yaml:"listen"`
	NotificationMode     string   `yaml:"notification_mode"`
	ProtocolVersion      string   `yaml:"protocol_version"`
	Name                 string   `yaml:"name"`
	Instructions         string   `yaml:"instructions"`
	AllowedOrigins       []string `yaml:"allowed_origins"`
	RefreshOnInitialized bool     `yaml:"refresh_on_initialized"`
}

// MondaySettings configure the Monday.com API client.
type MondaySettings struct {
	APIURL        string `yaml:"api_url"`
	APIVersion    string `yaml:"api_version"`
	BoardID       string `yaml:"board_id"`
	EmailColumnID string `yaml:"email_column_id"`
	Timeout       string `yaml:"timeout"`
	CacheMaxAge   string `yaml:"cache_max_age"`
}

// ToolSettings select optional tools.
type ToolSettings struct {
	Enabled []string `yaml:"enabled"`
}

// AuditSettings configure the audit log.
type AuditSettings struct {
	LogDir string `yaml:"log_dir"`
	Redact *bool  `yaml:"redact"`
}

// Config is the resolved runtime configuration.
type Config struct {
	Path string

	Listen               string
	NotificationMode     dispatch.NotificationMode
	ProtocolVersion      string
	ServerName           string
	Instructions         string
	AllowedOrigins       []string
	RefreshOnInitialized bool

	APIURL        string
	APIVersion    string
	APIToken      string
	BoardID       string
	EmailColumnID string
	Timeout       time.Duration
	CacheMaxAge   time.Duration

	EnabledTools []string

	LogDir string
	Redact bool

	Guard *guard.Policy
}

// Load reads a YAML config file and produces a runtime Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := LoadBytes(data)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// LoadBytes parses YAML data and produces a runtime Config.
func LoadBytes(data []byte) (*Config, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if f.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", f.Version)
	}
	return fromFile(&f)
}

// DefaultConfig returns a config with defaults for when no config file is given.
func DefaultConfig() *Config {
	cfg, err := fromFile(&File{Version: 1})
	if err != nil {
		panic(err)
	}
	return cfg
}

// Resolve loads the config file at path (defaults when empty), then the .env
// file in the working directory, then environment overrides, and validates
// the result.
func Resolve(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if err := LoadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads variables from a dotenv file without overriding variables
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIToken); v != "" {
		c.APIToken = v
	}
	if v := getenv(EnvBoardID); v != "" {
		c.BoardID = strings.TrimSpace(v)
	}
	if v := getenv(EnvEmailColumnID); v != "" {
		c.EmailColumnID = v
	}
	if v := getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := getenv(EnvPort); v != "" {
		c.Listen = ":" + v
	}
}

// Validate checks values that environment overrides may have changed.
func (c *Config) Validate() error {
	if c.BoardID != "" && !isNumeric(c.BoardID) {
		return fmt.Errorf("board id %q is not numeric", c.BoardID)
	}
	if c.Listen == "" {
		return errors.New("listen address is empty")
	}
	return nil
}

func fromFile(f *File) (*Config, error) {
	cfg := &Config{
		Listen:               f.Server.Listen,
		ProtocolVersion:      f.Server.ProtocolVersion,
		ServerName:           f.Server.Name,
		Instructions:         f.Server.Instructions,
		AllowedOrigins:       f.Server.AllowedOrigins,
		RefreshOnInitialized: f.Server.RefreshOnInitialized,
		APIURL:               f.Monday.APIURL,
		APIVersion:           f.Monday.APIVersion,
		BoardID:              strings.TrimSpace(f.Monday.BoardID),
		EmailColumnID:        f.Monday.EmailColumnID,
		EnabledTools:         f.Tools.Enabled,
		LogDir:               expandHome(f.Audit.LogDir),
		Redact:               true,
		Guard:                &f.Guard,
	}

	mode, err := dispatch.ParseNotificationMode(f.Server.NotificationMode)
	if err != nil {
		return nil, err
	}
	cfg.NotificationMode = mode

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.ProtocolVersion == "" {
		cfg.ProtocolVersion = DefaultProtocolVersion
	}
	if cfg.ServerName == "" {
		cfg.ServerName = DefaultServerName
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = DefaultAllowedOrigins()
	}
	if cfg.APIURL == "" {
		cfg.APIURL = monday.DefaultAPIURL
	}
	// "0" is the placeholder for "no board configured".
	if cfg.BoardID == "0" {
		cfg.BoardID = ""
	}
	if f.Audit.Redact != nil {
		cfg.Redact = *f.Audit.Redact
	}

	if cfg.Timeout, err = parseDuration("monday.timeout", f.Monday.Timeout, DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.CacheMaxAge, err = parseDuration("monday.cache_max_age", f.Monday.CacheMaxAge, DefaultCacheMaxAge); err != nil {
		return nil, err
	}

	if err := guard.Validate(cfg.Guard); err != nil {
		return nil, fmt.Errorf("guard: %w", err)
	}
	if cfg.Guard.OPAPolicy != "" {
		cfg.Guard.OPAPolicy = expandHome(cfg.Guard.OPAPolicy)
	}

	return cfg, nil
}

func parseDuration(key, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, value)
	}
	return d, nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
