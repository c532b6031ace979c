package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for trackd
type Config struct {
	API          APIConfig          `yaml:"api"`
	Socket       SocketConfig       `yaml:"socket"`
	Registry     RegistryConfig     `yaml:"registry"`
	Session      SessionConfig      `yaml:"session"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Log          LogConfig          `yaml:"log"`
}

// APIConfig configures the backend REST client
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	HealthPath string        `yaml:"health_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// SocketConfig configures the push-channel subscription
type SocketConfig struct {
	URL          string        `yaml:"url"`
	ReconnectMin time.Duration `yaml:"reconnect_min"`
	ReconnectMax time.Duration `yaml:"reconnect_max"`
}

// RegistryConfig bounds the live device registry
type RegistryConfig struct {
	PathCap     int `yaml:"path_cap"`
	RegistryCap int `yaml:"registry_cap"`
}

// SessionConfig configures session persistence and the expiry guard
type SessionConfig struct {
	Path        string        `yaml:"path"`
	GuardPeriod time.Duration `yaml:"guard_period"`
	GraceBuffer time.Duration `yaml:"grace_buffer"`
}

// ConnectivityConfig configures the reachability monitor
type ConnectivityConfig struct {
	Period       time.Duration `yaml:"period"`
	BannerWindow time.Duration `yaml:"banner_window"`
}

// LogConfig configures logging output
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file or overrides are present
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:5000",
			HealthPath: "/health",
			Timeout:    15 * time.Second,
		},
		Socket: SocketConfig{
			URL:          "ws://localhost:5000/socket",
			ReconnectMin: 1 * time.Second,
			ReconnectMax: 30 * time.Second,
		},
		Registry: RegistryConfig{
			PathCap:     20,
			RegistryCap: 50,
		},
		Session: SessionConfig{
			Path:        defaultSessionPath(),
			GuardPeriod: 180 * time.Second,
			GraceBuffer: 10 * time.Second,
		},
		Connectivity: ConnectivityConfig{
			Period:       60 * time.Second,
			BannerWindow: 3 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides. A .env file in the working directory is loaded
// first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TRACKD_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("TRACKD_SOCKET_URL"); v != "" {
		c.Socket.URL = v
	}
	if v := os.Getenv("TRACKD_SESSION_PATH"); v != "" {
		c.Session.Path = v
	}
	if v := os.Getenv("TRACKD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) validate() error {
	if c.Registry.PathCap <= 0 {
		return fmt.Errorf("registry path_cap must be positive, got %d", c.Registry.PathCap)
	}
	if c.Registry.RegistryCap <= 0 {
		return fmt.Errorf("registry registry_cap must be positive, got %d", c.Registry.RegistryCap)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base_url must be set")
	}
	return nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "trackd-session.db"
	}
	return home + "/.trackd/session.db"
}
