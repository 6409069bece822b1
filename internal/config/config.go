// Package config loads stowlog settings from config.yaml with Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/stowlog/internal/logging"
	"github.com/mesh-intelligence/stowlog/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the config file created in the config directory.
	FileName = "config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. STOWLOG_LOG_LEVEL.
	EnvPrefix = "STOWLOG"
)

// Config keys.
const (
	KeyDataDir       = "data_dir"
	KeyDBFile        = "db_file"
	KeyLogLevel      = "log_level"
	KeyPrettyLog     = "pretty_log"
	KeyBusyTimeoutMS = "busy_timeout_ms"
)

// Defaults.
const (
	DefaultLogLevel  = "warn"
	DefaultPrettyLog = true
)

// ErrInvalidLogLevel is returned when log_level is not a known level.
var ErrInvalidLogLevel = errors.New("invalid log level")

// defaultConfigYAML is written on first run.
const defaultConfigYAML = `# stowlog configuration

# Data directory (optional; overridable by --data-dir or STOWLOG_DATA_DIR)
# data_dir:

db_file: stowlog.db
log_level: warn
pretty_log: true
busy_timeout_ms: 5000
`

// Settings is the resolved configuration.
type Settings struct {
	DataDir       string `yaml:"data_dir,omitempty"`
	DBFile        string `yaml:"db_file"`
	LogLevel      string `yaml:"log_level"`
	PrettyLog     bool   `yaml:"pretty_log"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		DBFile:        types.DefaultDBFile,
		LogLevel:      DefaultLogLevel,
		PrettyLog:     DefaultPrettyLog,
		BusyTimeoutMS: types.DefaultBusyTimeoutMS,
	}
}

// Store returns the storage configuration rooted at dataDir.
func (s Settings) Store(dataDir string) types.Config {
	return types.Config{
		DataDir:       dataDir,
		DBFile:        s.DBFile,
		BusyTimeoutMS: s.BusyTimeoutMS,
	}
}

// Load reads config.yaml from configDir, creating the directory and a default
// file on first run. STOWLOG_* environment variables override file values.
func Load(configDir string) (Settings, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return Settings{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultFile(configDir); err != nil {
		return Settings{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := newViper(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := Settings{
		DataDir:       v.GetString(KeyDataDir),
		DBFile:        v.GetString(KeyDBFile),
		LogLevel:      v.GetString(KeyLogLevel),
		PrettyLog:     v.GetBool(KeyPrettyLog),
		BusyTimeoutMS: v.GetInt(KeyBusyTimeoutMS),
	}
	if !logging.ValidLevel(s.LogLevel) {
		return Settings{}, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s.LogLevel)
	}
	return s, nil
}

func newViper(configDir string) *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault(KeyDataDir, "")
	v.SetDefault(KeyDBFile, d.DBFile)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyPrettyLog, d.PrettyLog)
	v.SetDefault(KeyBusyTimeoutMS, d.BusyTimeoutMS)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	return v
}

// Write stores s as config.yaml in configDir, replacing any existing file.
func Write(configDir string, s Settings) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(configDir, FileName), data, 0o644)
}

// ensureDefaultFile creates config.yaml if it does not exist.
func ensureDefaultFile(configDir string) error {
	path := filepath.Join(configDir, FileName)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
