// Package config loads server settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// PathEnv names the variable that points at the YAML config file.
const PathEnv = "REPORTS_CONFIG_PATH"

type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	Auth   AuthConfig   `yaml:"auth"`
	CORS   CORSConfig   `yaml:"cors"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// AuthConfig is empty-by-default: without a JWTSecret the API runs open.
type AuthConfig struct {
	JWTSecret          string `yaml:"jwtSecret"`
	GitHubClientID     string `yaml:"githubClientID"`
	GitHubClientSecret string `yaml:"githubClientSecret"`
	GitHubCallbackURL  string `yaml:"githubCallbackURL"`

	BootstrapAdminEmail    string `yaml:"bootstrapAdminEmail"`
	BootstrapAdminPassword string `yaml:"bootstrapAdminPassword"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// Enabled reports whether token authentication is turned on.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// GitHubEnabled reports whether the GitHub login routes should be mounted.
func (a AuthConfig) GitHubEnabled() bool {
	return a.Enabled() && a.GitHubClientID != "" && a.GitHubClientSecret != ""
}

func defaults() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		DB:     DBConfig{Path: "data/reports.db"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads configuration from the file named by REPORTS_CONFIG_PATH (if
// set) and then applies environment overrides.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv(PathEnv); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Auth.GitHubCallbackURL == "" {
		cfg.Auth.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.GitHubClientID, "GITHUB_CLIENT_ID")
	setString(&cfg.Auth.GitHubClientSecret, "GITHUB_CLIENT_SECRET")
	setString(&cfg.Auth.GitHubCallbackURL, "GITHUB_CALLBACK_URL")
	setString(&cfg.Auth.BootstrapAdminEmail, "BOOTSTRAP_ADMIN_EMAIL")
	setString(&cfg.Auth.BootstrapAdminPassword, "BOOTSTRAP_ADMIN_PASSWORD")

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORS.AllowedOrigins = splitList(origins)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Server.Port))
	}
	if c.DB.Path == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.Enabled() && len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if (c.Auth.BootstrapAdminEmail == "") != (c.Auth.BootstrapAdminPassword == "") {
		errs = append(errs, errors.New("bootstrap admin needs both email and password"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ParseLevel maps debug|info|warn|error onto slog levels.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
