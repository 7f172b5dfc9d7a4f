package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for healthtrack
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Security  SecurityConfig  `mapstructure:"security"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Places    PlacesConfig    `mapstructure:"places"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
	BadgerPath string `mapstructure:"badger_path"`
}

// SecurityConfig holds authentication settings
type SecurityConfig struct {
	JWTSecret     string   `mapstructure:"jwt_secret"`
	TokenTTLHours int      `mapstructure:"token_ttl_hours"`
	AllowOrigins  []string `mapstructure:"allow_origins"`
}

// SchedulerConfig holds reminder scheduler settings
type SchedulerConfig struct {
	CheckIntervalSeconds int    `mapstructure:"check_interval_seconds"`
	DefaultSnoozeMinutes int    `mapstructure:"default_snooze_minutes"`
	ReconcileSpec        string `mapstructure:"reconcile_spec"` // cron spec for the daily reconcile pass
}

// PlacesConfig holds maps/places proxy settings
type PlacesConfig struct {
	APIKey            string `mapstructure:"api_key"`
	SearchURL         string `mapstructure:"search_url"`
	GeocodeURL        string `mapstructure:"geocode_url"`
	DefaultRadius     int    `mapstructure:"default_radius"` // meters
	MaxResults        int    `mapstructure:"max_results"`
	CacheTTLMinutes   int    `mapstructure:"cache_ttl_minutes"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// NotifyConfig holds notification channel settings
type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Discord  DiscordConfig  `mapstructure:"discord"`
}

// TelegramConfig holds Telegram delivery settings
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// DiscordConfig holds Discord delivery settings
type DiscordConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Token     string `mapstructure:"token"`
	ChannelID string `mapstructure:"channel_id"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.Set("storage.sqlite_path", filepath.Join(dataDir, "healthtrack.db"))
	v.Set("storage.badger_path", filepath.Join(dataDir, "badger"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "healthtrack.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (HEALTHTRACK_SERVER_PORT, HEALTHTRACK_PLACES_API_KEY, etc.)
	v.SetEnvPrefix("HEALTHTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Watch re-reads the config file on change and invokes onChange with the new
// values. Only hot-swappable settings (places key, notify tokens) should be
// consumed from it; server/storage settings need a restart.
func Watch(configPath string, onChange func(*Config)) error {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			return
		}
		loadEnvOverrides(&cfg)
		onChange(&cfg)
	})
	v.WatchConfig()
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	// Security defaults
	v.SetDefault("security.token_ttl_hours", 7*24)
	v.SetDefault("security.allow_origins", []string{"*"})

	// Scheduler defaults
	v.SetDefault("scheduler.check_interval_seconds", 30)
	v.SetDefault("scheduler.default_snooze_minutes", 10)
	v.SetDefault("scheduler.reconcile_spec", "@daily")

	// Places defaults
	v.SetDefault("places.search_url", "https://places.googleapis.com/v1/places:searchNearby")
	v.SetDefault("places.geocode_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("places.default_radius", 15000)
	v.SetDefault("places.max_results", 20)
	v.SetDefault("places.cache_ttl_minutes", 5)
	v.SetDefault("places.requests_per_minute", 60)
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "healthtrack")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "healthtrack")
}

// loadEnvOverrides loads well-known env vars that Viper's prefix scheme misses
func loadEnvOverrides(cfg *Config) {
	cfg.Places.APIKey = resolveAlias("HEALTHTRACK_PLACES_API_KEY", cfg.Places.APIKey)
	cfg.Notify.Telegram.BotToken = resolveAlias("HEALTHTRACK_NOTIFY_TELEGRAM_BOT_TOKEN", cfg.Notify.Telegram.BotToken)
	cfg.Notify.Discord.Token = resolveAlias("HEALTHTRACK_NOTIFY_DISCORD_TOKEN", cfg.Notify.Discord.Token)
	cfg.Security.JWTSecret = resolveAlias("HEALTHTRACK_SECURITY_JWT_SECRET", cfg.Security.JWTSecret)
}

func validate(cfg *Config) error {
	if cfg.Scheduler.CheckIntervalSeconds <= 0 {
		return fmt.Errorf("scheduler.check_interval_seconds must be positive")
	}
	if cfg.Places.DefaultRadius <= 0 {
		return fmt.Errorf("places.default_radius must be positive")
	}

	// Generate JWT secret if not provided
	if cfg.Security.JWTSecret == "" {
		secret, err := generateRandomString(32)
		if err != nil {
			return err
		}
		cfg.Security.JWTSecret = secret
	}

	return nil
}

func generateRandomString(n int) (string, error) {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random string: %w", err)
	}
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b), nil
}
