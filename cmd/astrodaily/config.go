package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Values come from an optional
// YAML file with environment variables taking precedence, matching the
// deployment platform's env-first convention.
type Config struct {
	LogLevel string `yaml:"log_level"`
	HTTPPort string `yaml:"http_port"`

	// TZName is the IANA zone the calendar day is evaluated in.
	TZName string `yaml:"tz"`
	// HoroTZ optionally overrides the UTC-offset-hours payload sent to the
	// astrology provider (e.g. 1 in winter, 2 in summer for Spain).
	HoroTZ float64 `yaml:"horo_tz"`

	Workers   int     `yaml:"workers"`
	Lat       float64 `yaml:"lat"`
	Lon       float64 `yaml:"lon"`
	HouseType string  `yaml:"house_type"`

	Astro struct {
		BaseURL string `yaml:"base_url"`
		UserID  string `yaml:"user_id"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"astro"`

	OpenAI struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Cache struct {
		// Backend selects the day-cache store: memory, file, redis,
		// firestore or gcs.
		Backend         string `yaml:"backend"`
		Dir             string `yaml:"dir"`
		RedisAddr       string `yaml:"redis_addr"`
		RedisPassword   string `yaml:"redis_password"`
		RedisDB         int    `yaml:"redis_db"`
		ProjectID       string `yaml:"project_id"`
		Collection      string `yaml:"collection"`
		Bucket          string `yaml:"bucket"`
		ObjectPrefix    string `yaml:"object_prefix"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"cache"`
}

// LoadConfig reads the optional YAML file at path, applies environment
// overrides and fills defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.LogLevel, "LOG_LEVEL")
	if port := os.Getenv("PORT"); port != "" {
		cfg.HTTPPort = ":" + strings.TrimPrefix(port, ":")
	}
	setString(&cfg.TZName, "TZ")
	if raw := os.Getenv("HORO_TZ"); raw != "" {
		// The original deployment accepted a comma decimal separator.
		if f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err == nil {
			cfg.HoroTZ = f
		}
	}
	setFloat(&cfg.Lat, "ASTRO_LAT")
	setFloat(&cfg.Lon, "ASTRO_LON")
	setString(&cfg.HouseType, "ASTRO_HOUSE_TYPE")

	setString(&cfg.Astro.BaseURL, "ASTRO_BASE")
	setString(&cfg.Astro.UserID, "ASTRO_USER_ID")
	setString(&cfg.Astro.APIKey, "ASTRO_API_KEY")

	setString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "OPENAI_MODEL")

	setString(&cfg.Cache.Backend, "CACHE_BACKEND")
	setString(&cfg.Cache.Dir, "CACHE_DIR")
	setString(&cfg.Cache.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Cache.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.Cache.ProjectID, "GCP_PROJECT_ID")
	setString(&cfg.Cache.Bucket, "CACHE_BUCKET")
	setString(&cfg.Cache.CredentialsFile, "GOOGLE_CREDENTIALS_FILE")
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = ":8000"
	}
	if cfg.TZName == "" {
		cfg.TZName = "Europe/Madrid"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "/tmp/astro-daily-cache"
	}
	if cfg.Cache.Collection == "" {
		cfg.Cache.Collection = "daily_content"
	}
}

func setString(dst *string, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, envKey string) {
	if raw := os.Getenv(envKey); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			*dst = f
		}
	}
}
