package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// HubConfig configures the event source.
type HubConfig struct {
	Endpoint string        `yaml:"endpoint"`
	PageSize int           `yaml:"page_size"`
	Reverse  bool          `yaml:"reverse"`
	Timeout  time.Duration `yaml:"timeout"`
}

// PollerConfig configures the harvest loop.
type PollerConfig struct {
	Interval  time.Duration `yaml:"interval"`
	MaxPages  int           `yaml:"max_pages"`
	StatePath string        `yaml:"state_path"`
}

// StoreConfig configures the durable sink.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// FeedConfig configures the in-memory view.
type FeedConfig struct {
	MaxVisible int `yaml:"max_visible"`
}

// Config is the full file shape.
type Config struct {
	Hub    HubConfig    `yaml:"hub"`
	Poller PollerConfig `yaml:"poller"`
	Store  StoreConfig  `yaml:"store"`
	Feed   FeedConfig   `yaml:"feed"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Hub: HubConfig{
			Endpoint: "https://hub.farcaster.standardcrypto.vc:2281",
			PageSize: 100,
			Reverse:  true,
			Timeout:  10 * time.Second,
		},
		Poller: PollerConfig{
			Interval:  10 * time.Second,
			MaxPages:  10,
			StatePath: "hypercast-state.json",
		},
		Store: StoreConfig{
			Path: "hypercast.db",
		},
		Feed: FeedConfig{
			MaxVisible: 100,
		},
	}
}

// Load reads the YAML file at path, layered over Default(). Fields the
// file omits keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
