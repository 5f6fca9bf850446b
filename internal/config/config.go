package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/alexandr-studio/enigma-ai/internal/cipher"
	"github.com/alexandr-studio/enigma-ai/internal/env"
	"github.com/alexandr-studio/enigma-ai/internal/logging"
	"github.com/alexandr-studio/enigma-ai/internal/rotorfile"
)

const (
	homeDirName   = ".enigma"
	homeFileName  = "config.toml"
	localFileName = "enigma.yml"
)

// Config captures the enigmactl configuration resolved from defaults,
// optional files, and environment overrides.
type Config struct {
	StorePath       string `yaml:"store_path" toml:"store_path" json:"store_path"`
	MaxActiveRotors int    `yaml:"max_active_rotors" toml:"max_active_rotors" json:"max_active_rotors"`
	AuditLog        string `yaml:"audit_log" toml:"audit_log" json:"audit_log"`
	LogLevel        string `yaml:"log_level" toml:"log_level" json:"log_level"`
	ExportFormat    string `yaml:"export_format" toml:"export_format" json:"export_format"`
}

// Default returns the built-in configuration. The store lives under
// ~/.enigma, or ./.enigma when no home directory is available.
func Default() Config {
	base := homeDirName
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		base = filepath.Join(home, homeDirName)
	}
	return Config{
		StorePath:       filepath.Join(base, "rotors.db"),
		MaxActiveRotors: cipher.DefaultMaxActiveRotors,
		AuditLog:        "",
		LogLevel:        "info",
		ExportFormat:    string(rotorfile.FormatJSON),
	}
}

// Load resolves the configuration using defaults, configuration files, and
// environment overrides. Later sources win:
//  1. ~/.enigma/config.toml (TOML)
//  2. ./enigma.yml (YAML)
//  3. ENIGMA_* environment variables
//
// The result is validated before it is returned.
func Load() (Config, error) {
	cfg := Default()

	if err := loadHomeConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadLocalConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.StorePath) == "" {
		errs = append(errs, errors.New("store_path cannot be empty"))
	}
	if c.MaxActiveRotors < 1 || c.MaxActiveRotors > cipher.AlphabetSize {
		errs = append(errs, fmt.Errorf("max_active_rotors must be between 1 and %d, got %d", cipher.AlphabetSize, c.MaxActiveRotors))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := rotorfile.ParseFormat(c.ExportFormat); err != nil {
		errs = append(errs, fmt.Errorf("export_format: %w", err))
	}
	return errors.Join(errs...)
}

func loadHomeConfig(cfg *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("determine home directory: %w", err)
	}
	return loadFile(cfg, filepath.Join(home, homeDirName, homeFileName), "toml")
}

func loadLocalConfig(cfg *Config) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	return loadFile(cfg, filepath.Join(wd, localFileName), "yaml")
}

func loadFile(cfg *Config, path, format string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyFileConfig(cfg, data, format); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// fileConfig uses pointers so that keys absent from a file leave earlier
// values untouched.
type fileConfig struct {
	StorePath       *string `yaml:"store_path" toml:"store_path"`
	MaxActiveRotors *int    `yaml:"max_active_rotors" toml:"max_active_rotors"`
	AuditLog        *string `yaml:"audit_log" toml:"audit_log"`
	LogLevel        *string `yaml:"log_level" toml:"log_level"`
	ExportFormat    *string `yaml:"export_format" toml:"export_format"`
}

func applyFileConfig(cfg *Config, data []byte, format string) error {
	var fc fileConfig
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return err
		}
	case "toml":
		if _, err := toml.Decode(string(data), &fc); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	if fc.StorePath != nil {
		cfg.StorePath = expandHome(strings.TrimSpace(*fc.StorePath))
	}
	if fc.MaxActiveRotors != nil {
		cfg.MaxActiveRotors = *fc.MaxActiveRotors
	}
	if fc.AuditLog != nil {
		cfg.AuditLog = expandHome(strings.TrimSpace(*fc.AuditLog))
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*fc.LogLevel))
	}
	if fc.ExportFormat != nil {
		cfg.ExportFormat = strings.ToLower(strings.TrimSpace(*fc.ExportFormat))
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if val, ok := env.Lookup("ENIGMA_STORE_PATH", "ENIGMA_DB"); ok {
		cfg.StorePath = expandHome(val)
	}
	if val, ok := env.Lookup("ENIGMA_MAX_ACTIVE_ROTORS"); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("ENIGMA_MAX_ACTIVE_ROTORS: %q is not an integer", val)
		}
		cfg.MaxActiveRotors = n
	}
	if val, ok := env.Lookup("ENIGMA_AUDIT_LOG"); ok {
		cfg.AuditLog = expandHome(val)
	}
	if val, ok := env.Lookup("ENIGMA_LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(val)
	}
	if val, ok := env.Lookup("ENIGMA_EXPORT_FORMAT"); ok {
		cfg.ExportFormat = strings.ToLower(val)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
