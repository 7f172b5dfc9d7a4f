package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var envAliases = map[string][]string{
	"HEALTHTRACK_PLACES_API_KEY":            {"GOOGLE_MAPS_API_KEY", "PLACES_API_KEY"},
	"HEALTHTRACK_NOTIFY_TELEGRAM_BOT_TOKEN": {"TELEGRAM_BOT_TOKEN"},
	"HEALTHTRACK_NOTIFY_DISCORD_TOKEN":      {"DISCORD_BOT_TOKEN", "DISCORD_TOKEN"},
	"HEALTHTRACK_SECURITY_JWT_SECRET":       {"HEALTHTRACK_JWT_SECRET"},
}

// resolveAlias returns the canonical env var, any of its aliases, or fallback.
func resolveAlias(canonicalKey, fallback string) string {
	if val := os.Getenv(canonicalKey); val != "" {
		return val
	}

	for _, alias := range envAliases[canonicalKey] {
		if val := os.Getenv(alias); val != "" {
			return val
		}
	}

	return fallback
}

// GetEnvDefault returns the env var value or fallback when unset.
func GetEnvDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// defaultFileConfig is the shape written by WriteDefault. It mirrors Config
// but with yaml tags so the generated file matches what Load reads back.
type defaultFileConfig struct {
	Server struct {
		Address      string `yaml:"address"`
		Port         int    `yaml:"port"`
		ReadTimeout  int    `yaml:"read_timeout"`
		WriteTimeout int    `yaml:"write_timeout"`
	} `yaml:"server"`
	Scheduler struct {
		CheckIntervalSeconds int    `yaml:"check_interval_seconds"`
		DefaultSnoozeMinutes int    `yaml:"default_snooze_minutes"`
		ReconcileSpec        string `yaml:"reconcile_spec"`
	} `yaml:"scheduler"`
	Places struct {
		APIKey        string `yaml:"api_key"`
		DefaultRadius int    `yaml:"default_radius"`
		MaxResults    int    `yaml:"max_results"`
	} `yaml:"places"`
	Notify struct {
		Telegram struct {
			Enabled  bool   `yaml:"enabled"`
			BotToken string `yaml:"bot_token"`
			ChatID   int64  `yaml:"chat_id"`
		} `yaml:"telegram"`
		Discord struct {
			Enabled   bool   `yaml:"enabled"`
			Token     string `yaml:"token"`
			ChannelID string `yaml:"channel_id"`
		} `yaml:"discord"`
	} `yaml:"notify"`
}

// WriteDefault writes a starter config file. Fails if the file already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	var dc defaultFileConfig
	dc.Server.Address = "0.0.0.0"
	dc.Server.Port = 8080
	dc.Server.ReadTimeout = 30
	dc.Server.WriteTimeout = 30
	dc.Scheduler.CheckIntervalSeconds = 30
	dc.Scheduler.DefaultSnoozeMinutes = 10
	dc.Scheduler.ReconcileSpec = "@daily"
	dc.Places.DefaultRadius = 15000
	dc.Places.MaxResults = 20

	data, err := yaml.Marshal(&dc)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}
