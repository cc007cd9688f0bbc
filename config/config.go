// Package config loads server settings from an optional YAML file and
// fills in defaults for anything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         int    `yaml:"port"`
	DatabasePath string `yaml:"database_path"`
	StaticDir    string `yaml:"static_dir"`
	// BaseURL is the externally reachable address embedded in QR badges.
	BaseURL   string    `yaml:"base_url"`
	Scheduler Scheduler `yaml:"scheduler"`
	Admin     Admin     `yaml:"admin"`
}

type Scheduler struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
}

func (s Scheduler) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

type Admin struct {
	// Seed credentials, used only when the admins table is empty.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Port:         8080,
		DatabasePath: "./data/attendance.db",
		StaticDir:    "./static",
		BaseURL:      "http://localhost:8080",
		Scheduler: Scheduler{
			Enabled:         true,
			IntervalMinutes: 60,
		},
		Admin: Admin{
			Username: "admin",
			Password: "admin123",
		},
	}
}

// Load reads the YAML file at path, layered over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Port <= 0 {
		cfg.Port = 8080
	}
	if cfg.Scheduler.IntervalMinutes <= 0 {
		cfg.Scheduler.IntervalMinutes = 60
	}
	return cfg, nil
}
