// Package config loads aliceserver's optional configuration file and
// supplies the defaults used when no file is present.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/fs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	WebSocket WebSocketConfig `koanf:"websocket"`
	Logging   LoggingConfig   `koanf:"logging"`
	Adapter   string          `koanf:"adapter"`
}

type WebSocketConfig struct {
	Addr        string        `koanf:"addr"`
	MaxSessions int           `koanf:"max_sessions"`
	IdleTimeout time.Duration `koanf:"idle_timeout"`
}

type LoggingConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

// Default returns the configuration used when no file is given or found.
func Default() *Config {
	return &Config{
		WebSocket: WebSocketConfig{
			Addr:        ":8080",
			MaxSessions: 100,
			IdleTimeout: 1 * time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Adapter: "dap",
	}
}

// parserFor picks a koanf parser from a config file's extension. yaml,
// json, and toml are the only recognized formats.
func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("config: unrecognized extension %q", filepath.Ext(path))
	}
}

// Load reads path, selecting yaml/json/toml parsing by its extension, and
// merges it over Default(). A missing file is not an error: the caller
// gets defaults back unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	k := koanf.New(".")
	if err := k.Load(fs.Provider(os.DirFS(dir), file), parser); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}
