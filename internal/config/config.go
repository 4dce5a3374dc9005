package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DirName is the directory under the user config dir holding empdir files.
const DirName = "empdir"

// Store manages the runtime configuration of the directory client.
type Store struct {
	path   string
	Config Data
}

// Data is the persisted configuration. Every field can be overridden by the
// matching EMPDIR_* environment variable.
type Data struct {
	BaseURL        string `json:"base_url" env:"EMPDIR_BASE_URL"`
	RequestTimeout string `json:"request_timeout" env:"EMPDIR_REQUEST_TIMEOUT"`
	LogLevel       string `json:"log_level" env:"EMPDIR_LOG_LEVEL"`
	DevAddr        string `json:"dev_addr" env:"EMPDIR_DEV_ADDR"`
	DevDBPath      string `json:"dev_db_path" env:"EMPDIR_DEV_DB"`
	MaxImageBytes  int64  `json:"max_image_bytes" env:"EMPDIR_MAX_IMAGE_BYTES"`
	ImageMaxSide   int    `json:"image_max_side" env:"EMPDIR_IMAGE_MAX_SIDE"`
	PageSize       int    `json:"page_size" env:"EMPDIR_PAGE_SIZE"`
}

// DefaultEnvFiles are read, when present, before the environment is applied.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Load retrieves the config from the default location, creating defaults if
// needed, then applies env files and environment overrides.
func Load(envFiles ...string) (*Store, error) {
	cfgPath, err := resolvePath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(cfgPath, envFiles...)
}

// LoadFrom is Load for an explicit config file path.
func LoadFrom(cfgPath string, envFiles ...string) (*Store, error) {
	s, err := LoadFile(cfgPath)
	if err != nil {
		return nil, err
	}
	if _, err := loadEnvFiles(envFiles); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	if err := env.Parse(&s.Config); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	s.Config.fillDefaults()
	return s, nil
}

// LoadFile reads only the config file, creating it with defaults when
// missing. Environment overrides are not applied, so the result is safe to
// edit and Save.
func LoadFile(cfgPath string) (*Store, error) {
	cfg := Data{}
	if _, err := os.Stat(cfgPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
		cfg = defaultConfig()
		if err := writeConfig(cfgPath, cfg); err != nil {
			return nil, err
		}
	} else {
		bytes, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(bytes, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.fillDefaults()
	return &Store{path: cfgPath, Config: cfg}, nil
}

// Keys lists the names accepted by Set, matching the config file keys.
var Keys = []string{
	"base_url", "request_timeout", "log_level", "dev_addr", "dev_db_path",
	"max_image_bytes", "image_max_side", "page_size",
}

// Set assigns one value by its config file key.
func (s *Store) Set(key, value string) error {
	if s == nil {
		return errors.New("nil config store")
	}
	value = strings.TrimSpace(value)
	d := &s.Config
	switch strings.TrimSpace(key) {
	case "base_url":
		d.BaseURL = value
	case "request_timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}
		d.RequestTimeout = value
	case "log_level":
		d.LogLevel = value
	case "dev_addr":
		d.DevAddr = value
	case "dev_db_path":
		d.DevDBPath = value
	case "max_image_bytes":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("max_image_bytes: %w", err)
		}
		d.MaxImageBytes = n
	case "image_max_side":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("image_max_side: %w", err)
		}
		d.ImageMaxSide = n
	case "page_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("page_size: %w", err)
		}
		d.PageSize = n
	default:
		return fmt.Errorf("unknown config key %q (want one of %s)", key, strings.Join(Keys, ", "))
	}
	d.fillDefaults()
	return nil
}

// Save writes the current config values to disk.
func (s *Store) Save() error {
	if s == nil {
		return errors.New("nil config store")
	}
	return writeConfig(s.path, s.Config)
}

// Path returns the config file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Dir returns the directory holding the config file, used for the log file.
func (s *Store) Dir() string {
	return filepath.Dir(s.Path())
}

// Timeout returns the request timeout, falling back to the default when the
// configured value does not parse.
func (s *Store) Timeout() time.Duration {
	if s == nil {
		return defaultTimeout
	}
	d, err := time.ParseDuration(strings.TrimSpace(s.Config.RequestTimeout))
	if err != nil || d <= 0 {
		return defaultTimeout
	}
	return d
}

func loadEnvFiles(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func resolvePath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = os.Getenv("HOME")
		if base == "" {
			return "", fmt.Errorf("cannot resolve config directory: %w", err)
		}
	}
	dir := filepath.Join(base, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return filepath.Join(dir, "config.json"), nil
}

func writeConfig(path string, cfg Data) error {
	bytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, bytes, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

const (
	defaultBaseURL       = "http://localhost:8088"
	defaultTimeout       = 30 * time.Second
	defaultLogLevel      = "info"
	defaultDevAddr       = "127.0.0.1:8088"
	defaultMaxImageBytes = 5 << 20
	defaultPageSize      = 10
)

func defaultConfig() Data {
	d := Data{}
	d.fillDefaults()
	return d
}

func (d *Data) fillDefaults() {
	if strings.TrimSpace(d.BaseURL) == "" {
		d.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(d.RequestTimeout) == "" {
		d.RequestTimeout = defaultTimeout.String()
	}
	if strings.TrimSpace(d.LogLevel) == "" {
		d.LogLevel = defaultLogLevel
	}
	if strings.TrimSpace(d.DevAddr) == "" {
		d.DevAddr = defaultDevAddr
	}
	if d.MaxImageBytes <= 0 {
		d.MaxImageBytes = defaultMaxImageBytes
	}
	// zero uploads the file as read; a positive value downscales larger images
	if d.ImageMaxSide < 0 {
		d.ImageMaxSide = 0
	}
	if d.PageSize <= 0 {
		d.PageSize = defaultPageSize
	}
}
