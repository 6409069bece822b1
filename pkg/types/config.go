package types

import (
	"errors"
	"path/filepath"
)

// Default storage settings.
const (
	DefaultDBFile        = "stowlog.db"
	DefaultBusyTimeoutMS = 5000
)

// Config describes where the durable store lives and how it is opened.
type Config struct {
	DataDir       string `json:"data_dir" yaml:"data_dir"`
	DBFile        string `json:"db_file" yaml:"db_file"`
	BusyTimeoutMS int    `json:"busy_timeout_ms" yaml:"busy_timeout_ms"`
}

// Config validation errors.
var (
	ErrDataDirEmpty       = errors.New("data directory must not be empty")
	ErrDBFileInvalid      = errors.New("database file must be a plain file name")
	ErrBusyTimeoutInvalid = errors.New("busy timeout must not be negative")
)

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.DBFile != "" && filepath.Base(c.DBFile) != c.DBFile {
		return ErrDBFileInvalid
	}
	if c.BusyTimeoutMS < 0 {
		return ErrBusyTimeoutInvalid
	}
	return nil
}

// DBPath returns the database file path, applying the default file name.
func (c Config) DBPath() string {
	name := c.DBFile
	if name == "" {
		name = DefaultDBFile
	}
	return filepath.Join(c.DataDir, name)
}

// GetBusyTimeoutMS returns the busy timeout, applying the default when unset.
func (c Config) GetBusyTimeoutMS() int {
	if c.BusyTimeoutMS == 0 {
		return DefaultBusyTimeoutMS
	}
	return c.BusyTimeoutMS
}
