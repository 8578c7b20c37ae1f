package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Collector CollectorConfig `yaml:"collector"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret"`
	TokenTTLHours  int    `yaml:"token_ttl_hours"`
	LockoutMinutes int    `yaml:"lockout_minutes"`
}

type CollectorConfig struct {
	URL                 string `yaml:"url"`
	PollIntervalSeconds int64  `yaml:"poll_interval_seconds"`
	BatchSize           int    `yaml:"batch_size"`
}

type AlertsConfig struct {
	Enabled          bool   `yaml:"enabled"`
	TelegramBotToken string `yaml:"telegram_bot_token"`
	ChatID           int64  `yaml:"chat_id"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Auth.TokenTTLHours == 0 {
		c.Auth.TokenTTLHours = 24
	}
	if c.Auth.LockoutMinutes == 0 {
		c.Auth.LockoutMinutes = 30
	}
	if c.Collector.PollIntervalSeconds == 0 {
		c.Collector.PollIntervalSeconds = 300
	}
	if c.Collector.BatchSize == 0 {
		c.Collector.BatchSize = 100
	}
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
}
