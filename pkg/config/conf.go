package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600

	// SourceBuiltin selects the table compiled into the binary.
	SourceBuiltin = "builtin"
	// SourceDB selects the table store at Table.DSN.
	SourceDB = "db"

	serverPortDefault = 8080
)

// Config represents app config object.
type Config struct {
	Table    TableConfig    `yaml:"table"`
	Severity SeverityConfig `yaml:"severity"`
	Server   ServerConfig   `yaml:"server"`
	LogLevel string         `yaml:"logLevel"`
}

// TableConfig selects where the toxicity table comes from.
type TableConfig struct {
	// Source is "builtin", "db" or a path to a .csv/.yaml table file.
	Source string `yaml:"source"`
	// DSN of the table store: a SQLite file path or a postgres:// URL.
	// Relative SQLite paths resolve against the config directory, and an
	// empty DSN means table.db in that directory.
	DSN string `yaml:"dsn,omitempty"`
}

// SeverityConfig holds the four ascending severity cut points.
type SeverityConfig struct {
	Thresholds []float64 `yaml:"thresholds"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		Table: TableConfig{
			Source: SourceBuiltin,
		},
		Severity: SeverityConfig{
			Thresholds: []float64{2, 4, 6, 8},
		},
		Server: ServerConfig{
			Port: serverPortDefault,
		},
		LogLevel: "info",
	}
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Table.Source == "" {
		return errors.New("table source required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file: %s: %w", configFileName, err)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
// Fields missing from the file keep their default values.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		err := os.MkdirAll(dirPath, dirMode)
		if err != nil {
			return nil, fmt.Errorf("failed to create dir: %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	j, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening config file: %s: %w", path, err)
	}
	defer j.Close()

	b, err := io.ReadAll(j)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return c, nil
}

// ResolveDSN returns the table store DSN with relative SQLite paths
// anchored in dirPath.
func (c *Config) ResolveDSN(dirPath string) string {
	dsn := c.Table.DSN
	if dsn == "" || strings.Contains(dsn, "://") || strings.HasPrefix(dsn, "file:") || filepath.IsAbs(dsn) {
		return dsn
	}
	return filepath.Join(dirPath, dsn)
}

// GetOrCreateHomeDir returns the home directory for the current user.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		err := os.Mkdir(dir, dirMode)
		if err != nil {
			return "", false, fmt.Errorf("failed to create dir: %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
